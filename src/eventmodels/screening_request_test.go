package eventmodels

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreeningRequestValidate(t *testing.T) {
	defaults := NewDefaultScreenerConfig().DefaultRequest()

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, defaults.Validate(0))
	})

	t.Run("max dte below min dte", func(t *testing.T) {
		req := defaults
		req.MinDTE, req.MaxDTE = 30, 10

		err := req.Validate(0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidRequest))
	})

	t.Run("unknown sort field", func(t *testing.T) {
		req := defaults
		req.SortBy = "gamma"

		assert.ErrorIs(t, req.Validate(0), ErrInvalidRequest)
	})

	t.Run("no symbols", func(t *testing.T) {
		req := defaults
		req.Symbols = nil

		assert.ErrorIs(t, req.Validate(0), ErrInvalidRequest)
	})

	t.Run("too many symbols", func(t *testing.T) {
		req := defaults
		req.Symbols = ParseStockSymbols("A,B,C")

		assert.ErrorIs(t, req.Validate(2), ErrInvalidRequest)
		assert.NoError(t, req.Validate(3))
	})

	t.Run("assignment probability band out of range", func(t *testing.T) {
		req := defaults
		req.MaxAssignmentProbability = 120

		assert.ErrorIs(t, req.Validate(0), ErrInvalidRequest)
	})
}

func TestScreeningRequestDTO(t *testing.T) {
	defaults := NewDefaultScreenerConfig().DefaultRequest()

	t.Run("json body overrides only the fields it sets", func(t *testing.T) {
		// arrange
		body := `{"symbols":["tsla","nvda"],"min_dte":7,"sort_by":"premium"}`
		r := httptest.NewRequest(http.MethodPost, "/api/v1/screen", strings.NewReader(body))
		dto := ScreeningRequestDTO{}

		// act
		require.NoError(t, dto.ParseHTTPRequest(r))
		require.NoError(t, dto.Validate(r))
		req := dto.ToModel(defaults)

		// assert
		assert.Equal(t, []StockSymbol{"TSLA", "NVDA"}, req.Symbols)
		assert.Equal(t, 7, req.MinDTE)
		assert.Equal(t, defaults.MaxDTE, req.MaxDTE)
		assert.Equal(t, SortByPremium, req.SortBy)
		assert.Equal(t, defaults.SortOrder, req.SortOrder)
	})

	t.Run("query parameters", func(t *testing.T) {
		// arrange
		r := httptest.NewRequest(http.MethodGet, "/api/v1/screen?symbols=AAPL,MSFT&max_dte=30&require_out_of_the_money=false&unknown=1", nil)
		dto := ScreeningRequestDTO{}

		// act
		require.NoError(t, dto.ParseHTTPRequest(r))
		req := dto.ToModel(defaults)

		// assert
		assert.Equal(t, []StockSymbol{"AAPL", "MSFT"}, req.Symbols)
		assert.Equal(t, 30, req.MaxDTE)
		assert.False(t, req.RequireOutOfTheMoney)
	})

	t.Run("empty body keeps defaults", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/screen", nil)
		dto := ScreeningRequestDTO{}

		require.NoError(t, dto.ParseHTTPRequest(r))
		req := dto.ToModel(defaults)

		assert.Equal(t, defaults.Symbols, req.Symbols)
	})

	t.Run("malformed json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/screen", strings.NewReader(`{"symbols":`))
		dto := ScreeningRequestDTO{}

		assert.Error(t, dto.ParseHTTPRequest(r))
	})

	t.Run("empty sort order is rejected", func(t *testing.T) {
		empty := ""
		dto := ScreeningRequestDTO{SortOrder: &empty}

		assert.ErrorIs(t, dto.Validate(nil), ErrInvalidRequest)
	})
}
