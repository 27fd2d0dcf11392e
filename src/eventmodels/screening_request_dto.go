package eventmodels

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/schema"
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// ScreeningRequestDTO is the wire form of a screening request. Fields left nil
// fall back to the configured defaults.
type ScreeningRequestDTO struct {
	Symbols                  []string `json:"symbols" schema:"symbols"`
	MinDTE                   *int     `json:"min_dte,omitempty" schema:"min_dte"`
	MaxDTE                   *int     `json:"max_dte,omitempty" schema:"max_dte"`
	MinVolume                *int64   `json:"min_volume,omitempty" schema:"min_volume"`
	MinOpenInterest          *int64   `json:"min_open_interest,omitempty" schema:"min_open_interest"`
	MinAnnualizedReturn      *float64 `json:"min_annualized_return,omitempty" schema:"min_annualized_return"`
	MinAssignmentProbability *float64 `json:"min_assignment_probability,omitempty" schema:"min_assignment_probability"`
	MaxAssignmentProbability *float64 `json:"max_assignment_probability,omitempty" schema:"max_assignment_probability"`
	RequireOutOfTheMoney     *bool    `json:"require_out_of_the_money,omitempty" schema:"require_out_of_the_money"`
	SortBy                   *string  `json:"sort_by,omitempty" schema:"sort_by"`
	SortOrder                *string  `json:"sort_order,omitempty" schema:"sort_order"`
	MaxResults               *int     `json:"max_results,omitempty" schema:"max_results"`
}

func (dto *ScreeningRequestDTO) ParseHTTPRequest(r *http.Request) error {
	if r.Method == http.MethodGet {
		if err := queryDecoder.Decode(dto, r.URL.Query()); err != nil {
			return fmt.Errorf("ScreeningRequestDTO: ParseHTTPRequest: decode query: %w", err)
		}

		return nil
	}

	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}

	if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
		return fmt.Errorf("ScreeningRequestDTO: ParseHTTPRequest: decode: %w", err)
	}

	return nil
}

func (dto *ScreeningRequestDTO) Validate(r *http.Request) error {
	if dto.SortBy != nil && *dto.SortBy == "" {
		return fmt.Errorf("ScreeningRequestDTO: Validate: %w: sort_by must not be empty", ErrInvalidRequest)
	}

	if dto.SortOrder != nil && *dto.SortOrder == "" {
		return fmt.Errorf("ScreeningRequestDTO: Validate: %w: sort_order must not be empty", ErrInvalidRequest)
	}

	return nil
}

// ToModel merges the DTO over defaults. The result still needs ScreeningRequest.Validate.
func (dto *ScreeningRequestDTO) ToModel(defaults ScreeningRequest) ScreeningRequest {
	req := defaults
	req.Symbols = append([]StockSymbol(nil), defaults.Symbols...)

	if symbols := ParseStockSymbols(dto.Symbols...); len(symbols) > 0 {
		req.Symbols = symbols
	}

	if dto.MinDTE != nil {
		req.MinDTE = *dto.MinDTE
	}

	if dto.MaxDTE != nil {
		req.MaxDTE = *dto.MaxDTE
	}

	if dto.MinVolume != nil {
		req.MinVolume = *dto.MinVolume
	}

	if dto.MinOpenInterest != nil {
		req.MinOpenInterest = *dto.MinOpenInterest
	}

	if dto.MinAnnualizedReturn != nil {
		req.MinAnnualizedReturn = *dto.MinAnnualizedReturn
	}

	if dto.MinAssignmentProbability != nil {
		req.MinAssignmentProbability = *dto.MinAssignmentProbability
	}

	if dto.MaxAssignmentProbability != nil {
		req.MaxAssignmentProbability = *dto.MaxAssignmentProbability
	}

	if dto.RequireOutOfTheMoney != nil {
		req.RequireOutOfTheMoney = *dto.RequireOutOfTheMoney
	}

	if dto.SortBy != nil {
		req.SortBy = SortField(*dto.SortBy)
	}

	if dto.SortOrder != nil {
		req.SortOrder = SortOrder(*dto.SortOrder)
	}

	if dto.MaxResults != nil {
		req.MaxResults = *dto.MaxResults
	}

	return req
}
