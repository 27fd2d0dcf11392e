package eventmodels

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultNewsLimit      = 10
	DefaultNewsMaxAgeDays = 7
)

type NewsArticle struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published"`
	Tickers     []string  `json:"tickers,omitempty"`
}

type NewsRequest struct {
	Symbol     StockSymbol `json:"symbol" validate:"required"`
	Limit      int         `json:"limit" validate:"gte=1,lte=100"`
	MaxAgeDays int         `json:"max_age_days" validate:"gte=1,lte=365"`
	Now        time.Time   `json:"-"`
}

// Cutoff is the oldest publish time the request accepts.
func (r NewsRequest) Cutoff() time.Time {
	return r.Now.AddDate(0, 0, -r.MaxAgeDays)
}

func (r *NewsRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return fmt.Errorf("NewsRequest: Validate: %w: %s", ErrInvalidRequest, formatFieldErrors(fieldErrs))
		}

		return fmt.Errorf("NewsRequest: Validate: %w: %v", ErrInvalidRequest, err)
	}

	if err := r.Symbol.Validate(); err != nil {
		return fmt.Errorf("NewsRequest: Validate: %w: %v", ErrInvalidRequest, err)
	}

	return nil
}

type NewsResponse struct {
	Symbol StockSymbol   `json:"symbol"`
	News   []NewsArticle `json:"news"`
}

// NewsRequestDTO carries the query parameters of a news lookup; the symbol
// comes from the route.
type NewsRequestDTO struct {
	Limit      *int `schema:"limit"`
	MaxAgeDays *int `schema:"max_age_days"`
}

func (dto *NewsRequestDTO) ParseHTTPRequest(r *http.Request) error {
	if err := queryDecoder.Decode(dto, r.URL.Query()); err != nil {
		return fmt.Errorf("NewsRequestDTO: ParseHTTPRequest: decode query: %w", err)
	}

	return nil
}

func (dto *NewsRequestDTO) Validate(r *http.Request) error {
	return nil
}

func (dto *NewsRequestDTO) ToModel(symbol string, now time.Time) NewsRequest {
	req := NewsRequest{
		Symbol:     NewStockSymbol(symbol),
		Limit:      DefaultNewsLimit,
		MaxAgeDays: DefaultNewsMaxAgeDays,
		Now:        now,
	}

	if dto.Limit != nil {
		req.Limit = *dto.Limit
	}

	if dto.MaxAgeDays != nil {
		req.MaxAgeDays = *dto.MaxAgeDays
	}

	return req
}
