package screener

import (
	"sort"

	"github.com/jiaming2012/options-screener/src/eventmodels"
)

func Passes(q *eventmodels.OptionQuote, req *eventmodels.ScreeningRequest) bool {
	if q.DTE < req.MinDTE || q.DTE > req.MaxDTE {
		return false
	}

	if q.Volume < req.MinVolume || q.OpenInterest < req.MinOpenInterest {
		return false
	}

	if q.AnnualizedReturn < req.MinAnnualizedReturn {
		return false
	}

	if q.AssignmentProbability < req.MinAssignmentProbability || q.AssignmentProbability > req.MaxAssignmentProbability {
		return false
	}

	if req.RequireOutOfTheMoney && !q.OutOfTheMoney {
		return false
	}

	return true
}

func sortKey(q *eventmodels.OptionQuote, field eventmodels.SortField) float64 {
	switch field {
	case eventmodels.SortByAssignmentProbability:
		return q.AssignmentProbability
	case eventmodels.SortByPremium:
		return q.Premium
	case eventmodels.SortByDTE:
		return float64(q.DTE)
	case eventmodels.SortByVolume:
		return float64(q.Volume)
	case eventmodels.SortByOpenInterest:
		return float64(q.OpenInterest)
	default:
		return q.AnnualizedReturn
	}
}

// SortQuotes orders quotes by field and order. Ties fall back to annualized
// return descending, strike ascending, expiration ascending and finally the
// contract symbol, so the ordering is total.
func SortQuotes(quotes []eventmodels.OptionQuote, field eventmodels.SortField, order eventmodels.SortOrder) {
	sort.SliceStable(quotes, func(i, j int) bool {
		a, b := &quotes[i], &quotes[j]

		if ka, kb := sortKey(a, field), sortKey(b, field); ka != kb {
			if order == eventmodels.SortOrderAscending {
				return ka < kb
			}
			return ka > kb
		}

		if a.AnnualizedReturn != b.AnnualizedReturn {
			return a.AnnualizedReturn > b.AnnualizedReturn
		}

		if a.Strike != b.Strike {
			return a.Strike < b.Strike
		}

		if !a.Expiration.Equal(b.Expiration) {
			return a.Expiration.Before(b.Expiration)
		}

		return a.ContractSymbol < b.ContractSymbol
	})
}

// Apply filters, sorts and truncates quotes. The input slice is not modified.
func Apply(quotes []eventmodels.OptionQuote, req *eventmodels.ScreeningRequest) []eventmodels.OptionQuote {
	out := make([]eventmodels.OptionQuote, 0, len(quotes))
	for i := range quotes {
		if Passes(&quotes[i], req) {
			out = append(out, quotes[i])
		}
	}

	SortQuotes(out, req.SortBy, req.SortOrder)

	if req.MaxResults > 0 && len(out) > req.MaxResults {
		out = out[:req.MaxResults]
	}

	return out
}
