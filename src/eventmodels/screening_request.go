package eventmodels

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type SortField string

const (
	SortByAnnualizedReturn      SortField = "annualized_return"
	SortByAssignmentProbability SortField = "assignment_probability"
	SortByPremium               SortField = "premium"
	SortByDTE                   SortField = "dte"
	SortByVolume                SortField = "volume"
	SortByOpenInterest          SortField = "open_interest"
)

type SortOrder string

const (
	SortOrderAscending  SortOrder = "ascending"
	SortOrderDescending SortOrder = "descending"
)

const DefaultMaxSymbols = 50

// ScreeningRequest holds the thresholds for one screening run. It is built once
// and never mutated while the run is in flight.
type ScreeningRequest struct {
	Symbols                  []StockSymbol `json:"symbols" validate:"required,min=1,dive,required"`
	MinDTE                   int           `json:"min_dte" validate:"gte=0"`
	MaxDTE                   int           `json:"max_dte" validate:"gtefield=MinDTE"`
	MinVolume                int64         `json:"min_volume" validate:"gte=0"`
	MinOpenInterest          int64         `json:"min_open_interest" validate:"gte=0"`
	MinAnnualizedReturn      float64       `json:"min_annualized_return"`
	MinAssignmentProbability float64       `json:"min_assignment_probability" validate:"gte=0,lte=100"`
	MaxAssignmentProbability float64       `json:"max_assignment_probability" validate:"gte=0,lte=100,gtefield=MinAssignmentProbability"`
	RequireOutOfTheMoney     bool          `json:"require_out_of_the_money"`
	SortBy                   SortField     `json:"sort_by" validate:"oneof=annualized_return assignment_probability premium dte volume open_interest"`
	SortOrder                SortOrder     `json:"sort_order" validate:"oneof=ascending descending"`
	MaxResults               int           `json:"max_results" validate:"gt=0"`
}

func (r *ScreeningRequest) ChainRequest(symbol StockSymbol) ChainRequest {
	return ChainRequest{
		Symbol: symbol,
		MinDTE: r.MinDTE,
		MaxDTE: r.MaxDTE,
	}
}

// Validate checks the request against its field constraints. maxSymbols <= 0 means DefaultMaxSymbols.
func (r *ScreeningRequest) Validate(maxSymbols int) error {
	if maxSymbols <= 0 {
		maxSymbols = DefaultMaxSymbols
	}

	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return fmt.Errorf("ScreeningRequest: Validate: %w: %s", ErrInvalidRequest, formatFieldErrors(fieldErrs))
		}

		return fmt.Errorf("ScreeningRequest: Validate: %w: %v", ErrInvalidRequest, err)
	}

	if len(r.Symbols) > maxSymbols {
		return fmt.Errorf("ScreeningRequest: Validate: %w: maximum %d symbols allowed, got %d", ErrInvalidRequest, maxSymbols, len(r.Symbols))
	}

	for _, symbol := range r.Symbols {
		if err := symbol.Validate(); err != nil {
			return fmt.Errorf("ScreeningRequest: Validate: %w: %v", ErrInvalidRequest, err)
		}
	}

	return nil
}

func formatFieldErrors(errs validator.ValidationErrors) string {
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}

		if e.Param() != "" {
			msg += fmt.Sprintf("%s failed %s=%s", e.Field(), e.Tag(), e.Param())
		} else {
			msg += fmt.Sprintf("%s failed %s", e.Field(), e.Tag())
		}
	}

	return msg
}
