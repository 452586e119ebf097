package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew_DefaultsFromCode(t *testing.T) {
	tests := []struct {
		code       Code
		wantStatus int
	}{
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeAssetNotSupported, http.StatusBadRequest},
		{CodeInsufficientFunds, http.StatusUnprocessableEntity},
		{CodeNoSolution, http.StatusNotFound},
		{CodeQuoteUnavailable, http.StatusServiceUnavailable},
		{CodeRateLimitExceeded, http.StatusTooManyRequests},
		{CodeWebSocketConnectionError, http.StatusServiceUnavailable},
		{CodeComputationUnavailable, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code)
			if err.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.wantStatus)
			}
			if err.Message != messages[tt.code] {
				t.Errorf("Message = %q, want %q", err.Message, messages[tt.code])
			}
		})
	}
}

func TestAppError_IsAndCode(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := fmt.Errorf("fetch: %w", New(CodeQuoteUnavailable,
		WithContext("coinbase"),
		WithCause(cause)))

	if !HasCode(err, CodeQuoteUnavailable) {
		t.Error("HasCode = false, want true")
	}
	if HasCode(err, CodeInvalidInput) {
		t.Error("HasCode matched the wrong code")
	}
	if GetCode(err) != CodeQuoteUnavailable {
		t.Errorf("GetCode = %s, want %s", GetCode(err), CodeQuoteUnavailable)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if GetCode(errors.New("plain")) != CodeUnknownError {
		t.Error("plain errors should map to UNKNOWN_ERROR")
	}
}

func TestAppError_OriginAndLogFields(t *testing.T) {
	err := Validation(CodeVenueNotSupported, "bitstamp")

	if !strings.HasPrefix(err.Origin(), "error_test.go:") {
		t.Errorf("Origin() = %q, want this test file", err.Origin())
	}
	if err.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", err.StatusCode)
	}

	fields := err.LogFields()
	if len(fields)%2 != 0 {
		t.Fatalf("LogFields has odd length %d", len(fields))
	}
	got := map[any]any{}
	for i := 0; i < len(fields); i += 2 {
		got[fields[i]] = fields[i+1]
	}
	if got["code"] != string(CodeVenueNotSupported) || got["context"] != "bitstamp" {
		t.Errorf("LogFields = %v", fields)
	}
	if _, ok := got["cause"]; ok {
		t.Error("cause logged for an error without one")
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := New(CodeQuoteUnavailable, WithContext("kraken ETH"), WithCause(errors.New("EOF")))
	want := "QUOTE_UNAVAILABLE: " + messages[CodeQuoteUnavailable] + " (kraken ETH): EOF"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
