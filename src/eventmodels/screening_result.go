package eventmodels

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type ResultSummary struct {
	Count                  int     `json:"count"`
	MeanAnnualizedReturn   float64 `json:"mean_annualized_return"`
	MedianAnnualizedReturn float64 `json:"median_annualized_return"`
	MaxAnnualizedReturn    float64 `json:"max_annualized_return"`
}

type SymbolResult struct {
	Symbol          StockSymbol   `json:"symbol"`
	UnderlyingPrice float64       `json:"underlying_price"`
	Source          string        `json:"source"`
	UsedFallback    bool          `json:"used_fallback"`
	Scanned         int           `json:"scanned"`
	Unscorable      int           `json:"unscorable"`
	Quotes          []OptionQuote `json:"quotes"`
	Summary         ResultSummary `json:"summary"`
}

// ScreeningResult is the outcome of one screening run. Results holds an entry
// for every symbol that was screened, even when no contract qualified.
type ScreeningResult struct {
	ID           uuid.UUID                     `json:"id"`
	StartedAt    time.Time                     `json:"started_at"`
	CompletedAt  time.Time                     `json:"completed_at"`
	Request      ScreeningRequest              `json:"request"`
	Results      map[StockSymbol]*SymbolResult `json:"results"`
	Errors       map[StockSymbol]string        `json:"errors"`
	UsedFallback bool                          `json:"used_fallback"`
}

func NewScreeningResult(req ScreeningRequest, startedAt time.Time) *ScreeningResult {
	return &ScreeningResult{
		ID:        uuid.New(),
		StartedAt: startedAt,
		Request:   req,
		Results:   make(map[StockSymbol]*SymbolResult),
		Errors:    make(map[StockSymbol]string),
	}
}

// Symbols returns the screened symbols in request order, followed by any stragglers sorted alphabetically.
func (r *ScreeningResult) Symbols() []StockSymbol {
	seen := make(map[StockSymbol]struct{}, len(r.Results))
	out := make([]StockSymbol, 0, len(r.Results))

	for _, s := range r.Request.Symbols {
		if _, ok := r.Results[s]; ok {
			out = append(out, s)
			seen[s] = struct{}{}
		}
	}

	var rest []StockSymbol
	for s := range r.Results {
		if _, ok := seen[s]; !ok {
			rest = append(rest, s)
		}
	}

	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })

	return append(out, rest...)
}

func (r *ScreeningResult) TotalQuotes() int {
	total := 0
	for _, res := range r.Results {
		total += len(res.Quotes)
	}

	return total
}
