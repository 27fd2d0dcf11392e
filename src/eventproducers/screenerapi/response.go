package screenerapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jiaming2012/options-screener/src/eventmodels"
)

type errorResponse struct {
	Type string `json:"type"`
	Msg  string `json:"message"`
}

func setResponse[T any](obj *T, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(obj); err != nil {
		return fmt.Errorf("setResponse: encode: %w", err)
	}

	return nil
}

func setErrorResponse(err error, w http.ResponseWriter) error {
	webErr := eventmodels.AsWebError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(webErr.StatusCode)

	resp := &errorResponse{Type: webErr.ErrType, Msg: webErr.Error()}
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		return fmt.Errorf("setErrorResponse: encode: %w", encodeErr)
	}

	return nil
}
