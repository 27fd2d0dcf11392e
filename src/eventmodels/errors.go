package eventmodels

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidRequestType = errors.New("invalid request type")
	ErrNoProvider         = errors.New("no provider configured")
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrCacheMiss          = errors.New("cache miss")
)

// ProviderError is returned by provider adapters when the upstream API answers with a non-200 status.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Provider, e.StatusCode, e.Message)
}

func NewProviderError(provider string, statusCode int, message string) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
	}
}
