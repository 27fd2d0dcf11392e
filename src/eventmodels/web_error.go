package eventmodels

import (
	"errors"
	"net/http"
)

type WebError struct {
	StatusCode int
	ErrType    string
	Message    string
	Cause      error
}

func (e *WebError) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}

	return e.Message
}

func (e *WebError) Unwrap() error {
	return e.Cause
}

func NewWebError(statusCode int, errType string, message string, cause error) *WebError {
	return &WebError{
		StatusCode: statusCode,
		ErrType:    errType,
		Message:    message,
		Cause:      cause,
	}
}

// AsWebError maps err to a WebError, treating invalid requests as 400s and everything else as 500s.
func AsWebError(err error) *WebError {
	var webErr *WebError
	if errors.As(err, &webErr) {
		return webErr
	}

	if errors.Is(err, ErrInvalidRequest) {
		return NewWebError(http.StatusBadRequest, "validation", err.Error(), err)
	}

	return NewWebError(http.StatusInternalServerError, "internal", err.Error(), err)
}
