package eventmodels

import "net/http"

// ApiRequest is implemented by request DTOs decoded from an HTTP request.
type ApiRequest interface {
	ParseHTTPRequest(r *http.Request) error
	Validate(r *http.Request) error
}

var (
	_ ApiRequest = (*ScreeningRequestDTO)(nil)
	_ ApiRequest = (*NewsRequestDTO)(nil)
)
