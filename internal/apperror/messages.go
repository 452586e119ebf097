package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:       "Invalid input provided",
	CodeInvalidFormat:      "Invalid data format",
	CodeNotFound:           "Resource not found",
	CodeConfigurationError: "Configuration error",

	CodeRateLimitExceeded: "Rate limit exceeded",

	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	CodeComputationUnavailable: "Trade economics cannot be computed",
	CodeInsufficientFunds:      "Insufficient balance for trade amount",
	CodeAmountBelowFees:        "Trade amount does not cover fees",
	CodeNoSolution:             "No profitable trade size in search range",
	CodeAssetNotSupported:      "Asset not supported",
	CodeVenueNotSupported:      "Venue not supported",

	CodeQuoteUnavailable: "Venue quote unavailable",
	CodeInvalidQuote:     "Invalid quote data",
	CodeNoQuotes:         "Not enough venue quotes",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
