package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeInvalidFormat      Code = "INVALID_FORMAT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Trade economics and execution
const (
	CodeComputationUnavailable Code = "COMPUTATION_UNAVAILABLE"
	CodeInsufficientFunds      Code = "INSUFFICIENT_FUNDS"
	CodeAmountBelowFees        Code = "AMOUNT_BELOW_FEES"
	CodeNoSolution             Code = "NO_SOLUTION"
	CodeAssetNotSupported      Code = "ASSET_NOT_SUPPORTED"
	CodeVenueNotSupported      Code = "VENUE_NOT_SUPPORTED"
)

// Venue quotes
const (
	CodeQuoteUnavailable Code = "QUOTE_UNAVAILABLE"
	CodeInvalidQuote     Code = "INVALID_QUOTE"
	CodeNoQuotes         Code = "NO_QUOTES"
)

// WebSocket
const (
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"
)

// Circuit breaker
const (
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
