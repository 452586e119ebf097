package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// AppError is the error type every layer returns. Code drives both the
// default message and the HTTP status the API answers with.
type AppError struct {
	Code       Code
	Message    string
	StatusCode int
	Context    string
	Timestamp  time.Time

	cause  error
	origin string // file:line of the New call
}

func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Context != "" {
		sb.WriteString(" (" + e.Context + ")")
	}
	if e.cause != nil {
		sb.WriteString(": " + e.cause.Error())
	}
	return sb.String()
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

// Origin is where the error was created.
func (e *AppError) Origin() string {
	return e.origin
}

// LogFields returns key/value pairs for the structured logger.
func (e *AppError) LogFields() []any {
	fields := []any{"code", string(e.Code), "status", e.StatusCode, "origin", e.origin}
	if e.Context != "" {
		fields = append(fields, "context", e.Context)
	}
	if e.cause != nil {
		fields = append(fields, "cause", e.cause.Error())
	}
	return fields
}

// Option customises an AppError.
type Option func(*AppError)

func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

// WithContext names the venue, asset or input the error is about.
func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

func WithStatusCode(statusCode int) Option {
	return func(e *AppError) { e.StatusCode = statusCode }
}

func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// New builds an AppError with the code's default message and status.
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:       code,
		Message:    messages[code],
		StatusCode: getDefaultStatusCode(code),
		Timestamp:  time.Now(),
		origin:     caller(2),
	}
	for _, opt := range opts {
		opt(err)
	}
	if err.Message == "" {
		err.Message = string(code)
	}
	return err
}

// Validation is a 400 for rejected input.
func Validation(code Code, context string) *AppError {
	return newAt(code, WithContext(context), WithStatusCode(http.StatusBadRequest))
}

// Internal is a 500 wrapping cause.
func Internal(code Code, context string, cause error) *AppError {
	return newAt(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusInternalServerError))
}

// External is a 503 for a failing upstream venue.
func External(code Code, context string, cause error) *AppError {
	return newAt(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusServiceUnavailable))
}

// newAt is New for the constructors above, so origin skips one more frame.
func newAt(code Code, opts ...Option) *AppError {
	err := New(code, opts...)
	err.origin = caller(3)
	return err
}

// HasCode reports whether err carries code anywhere in its chain.
func HasCode(err error, code Code) bool {
	return errors.Is(err, &AppError{Code: code})
}

// GetCode returns the outermost AppError code, or CodeUnknownError.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

func getDefaultStatusCode(code Code) int {
	switch code {
	case CodeInsufficientFunds, CodeAmountBelowFees:
		return http.StatusUnprocessableEntity
	case CodeNoSolution, CodeNoQuotes:
		return http.StatusNotFound
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case CodeQuoteUnavailable, CodeCircuitOpen, CodeCircuitHalfOpen:
		return http.StatusServiceUnavailable
	}

	switch s := string(code); {
	case strings.Contains(s, "NOT_SUPPORTED"), strings.Contains(s, "INVALID"):
		return http.StatusBadRequest
	case strings.Contains(s, "CONNECTION"), strings.Contains(s, "TIMEOUT"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
