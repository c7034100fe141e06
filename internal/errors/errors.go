// Package errors defines the dashboard's sentinel and typed errors.
package errors

import (
	"errors"
	"fmt"
)

// Sentinels. Handlers map these to user-facing messages and status codes.
var (
	ErrNoData              = errors.New("no options data for expiry")
	ErrNoStrikesInRange    = errors.New("no strikes in range")
	ErrInvalidRange        = errors.New("invalid strike range")
	ErrEmptyTable          = errors.New("chain table is empty")
	ErrProviderUnavailable = errors.New("market data provider unavailable")
	ErrUnknownProvider     = errors.New("unknown market data provider")
	ErrTimeout             = errors.New("operation timed out")
	ErrConfigInvalid       = errors.New("invalid configuration")
)

// ProviderError is a failed market data call.
type ProviderError struct {
	Provider  string
	Operation string
	Ticker    string
	Err       error
}

func (e *ProviderError) Error() string {
	target := e.Operation
	if e.Ticker != "" {
		target += " " + e.Ticker
	}
	return fmt.Sprintf("provider error [%s] %s: %v", e.Provider, target, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func NewProviderError(provider, operation, ticker string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Operation: operation, Ticker: ticker, Err: err}
}

// ValidationError is rejected user input, such as a strike range.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func NewValidationError(field string, value interface{}, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message, Err: err}
}

// DataError is malformed source data, e.g. a bad fixture row.
type DataError struct {
	Source  string
	Ticker  string
	Message string
	Err     error
}

func (e *DataError) Error() string {
	msg := fmt.Sprintf("data error [%s] %s: %s", e.Source, e.Ticker, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataError) Unwrap() error { return e.Err }

func NewDataError(source, ticker, message string, err error) *DataError {
	return &DataError{Source: source, Ticker: ticker, Message: message, Err: err}
}

// Wrap prefixes err with message; a nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }
