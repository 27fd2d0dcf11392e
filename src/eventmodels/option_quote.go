package eventmodels

import (
	"time"
)

type GreeksSource string

const (
	GreeksSourceProvider GreeksSource = "provider"
	GreeksSourceModel    GreeksSource = "model"
)

type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// OptionQuote is a single put contract observation. Greeks is nil when the
// provider did not supply a delta.
type OptionQuote struct {
	ContractSymbol        OptionSymbol `json:"contract_symbol"`
	Underlying            StockSymbol  `json:"underlying"`
	OptionType            OptionType   `json:"option_type"`
	Strike                float64      `json:"strike"`
	Expiration            time.Time    `json:"expiration"`
	DTE                   int          `json:"dte"`
	Premium               float64      `json:"premium"`
	Bid                   float64      `json:"bid"`
	Ask                   float64      `json:"ask"`
	Last                  float64      `json:"last"`
	Volume                int64        `json:"volume"`
	OpenInterest          int64        `json:"open_interest"`
	ImpliedVolatility     float64      `json:"implied_volatility"`
	Greeks                *Greeks      `json:"greeks,omitempty"`
	GreeksSource          GreeksSource `json:"greeks_source,omitempty"`
	UnderlyingPrice       float64      `json:"underlying_price"`
	AnnualizedReturn      float64      `json:"annualized_return"`
	AssignmentProbability float64      `json:"assignment_probability"`
	OutOfTheMoney         bool         `json:"out_of_the_money"`
}

func (q *OptionQuote) HasDelta() bool {
	return q.Greeks != nil
}

func (q *OptionQuote) ExpirationDate() string {
	return q.Expiration.Format("2006-01-02")
}

// ResolvePremium picks the last trade price, then the bid/ask midpoint, then
// whichever side of the quote is positive.
func ResolvePremium(last, bid, ask float64) float64 {
	if last > 0 {
		return last
	}

	if bid > 0 && ask > 0 {
		return (bid + ask) / 2
	}

	if bid > 0 {
		return bid
	}

	if ask > 0 {
		return ask
	}

	return 0
}
