package eventmodels

import "time"

type ChainRequest struct {
	Symbol StockSymbol
	MinDTE int
	MaxDTE int
	Now    time.Time
}

// ExpirationWindow returns the inclusive calendar dates bounding the request's DTE range.
func (r ChainRequest) ExpirationWindow(loc *time.Location) (time.Time, time.Time) {
	now := r.Now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return today.AddDate(0, 0, r.MinDTE), today.AddDate(0, 0, r.MaxDTE)
}

type OptionChain struct {
	Symbol          StockSymbol   `json:"symbol"`
	UnderlyingPrice float64       `json:"underlying_price"`
	Source          string        `json:"source"`
	Quotes          []OptionQuote `json:"quotes"`
	FetchedAt       time.Time     `json:"fetched_at"`
}

// MissingDeltaCount returns the number of quotes the provider left without a delta.
func (c *OptionChain) MissingDeltaCount() int {
	count := 0
	for i := range c.Quotes {
		if !c.Quotes[i].HasDelta() {
			count++
		}
	}

	return count
}
