package screener

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/jiaming2012/options-screener/src/eventmodels"
	"github.com/jiaming2012/options-screener/src/pricing"
	"github.com/jiaming2012/options-screener/src/utils"
)

// AnnualizedReturn is (premium / strike) * (365 / dte) * 100.
func AnnualizedReturn(premium, strike float64, dte int) (float64, error) {
	if dte <= 0 || strike <= 0 || premium <= 0 || math.IsNaN(premium) || math.IsInf(premium, 0) {
		return 0, pricing.ErrUnscorable
	}

	return premium / strike * (pricing.DaysPerYear / float64(dte)) * 100, nil
}

func AssignmentProbability(delta float64) float64 {
	return math.Abs(delta) * 100
}

type scorer struct {
	now               time.Time
	loc               *time.Location
	riskFreeRate      float64
	defaultVolatility float64
}

// fillGreeks models the greeks of a quote the provider left without a delta.
func (s *scorer) fillGreeks(q *eventmodels.OptionQuote, spot float64) error {
	if q.HasDelta() {
		if q.GreeksSource == "" {
			q.GreeksSource = eventmodels.GreeksSourceProvider
		}
		return nil
	}

	in := pricing.Inputs{
		Spot:   spot,
		Strike: q.Strike,
		Years:  pricing.YearsToExpiry(q.DTE),
		Rate:   s.riskFreeRate,
	}
	in.Volatility = pricing.ChooseVolatility(q.ImpliedVolatility, q.Premium, in, s.defaultVolatility)

	greeks, err := pricing.PutGreeks(in)
	if err != nil {
		return fmt.Errorf("fillGreeks: %s: %w", q.ContractSymbol, err)
	}

	q.Greeks = &greeks
	q.GreeksSource = eventmodels.GreeksSourceModel
	return nil
}

// score computes the derived metrics of q in place. Quotes that cannot be
// scored return pricing.ErrUnscorable and must be excluded.
func (s *scorer) score(q *eventmodels.OptionQuote, spot float64) error {
	q.DTE = utils.DaysToExpiration(s.now, q.Expiration, s.loc)
	q.UnderlyingPrice = spot

	if q.Premium <= 0 {
		q.Premium = eventmodels.ResolvePremium(q.Last, q.Bid, q.Ask)
	}

	annualized, err := AnnualizedReturn(q.Premium, q.Strike, q.DTE)
	if err != nil {
		return err
	}

	if err := s.fillGreeks(q, spot); err != nil {
		return err
	}

	q.AnnualizedReturn = annualized
	q.AssignmentProbability = AssignmentProbability(q.Greeks.Delta)
	q.OutOfTheMoney = spot > 0 && q.Strike < spot
	return nil
}

// scoreChain scores every put in chain and returns the scorable ones with the unscorable count.
func (s *scorer) scoreChain(chain *eventmodels.OptionChain) ([]eventmodels.OptionQuote, int) {
	scored := make([]eventmodels.OptionQuote, 0, len(chain.Quotes))
	unscorable := 0

	for _, q := range chain.Quotes {
		if q.OptionType != "" && q.OptionType != eventmodels.OptionTypePut {
			continue
		}

		if err := s.score(&q, chain.UnderlyingPrice); err != nil {
			unscorable++
			continue
		}

		scored = append(scored, q)
	}

	return scored, unscorable
}

func summarize(quotes []eventmodels.OptionQuote) eventmodels.ResultSummary {
	summary := eventmodels.ResultSummary{Count: len(quotes)}
	if len(quotes) == 0 {
		return summary
	}

	returns := make(stats.Float64Data, 0, len(quotes))
	for _, q := range quotes {
		returns = append(returns, q.AnnualizedReturn)
	}

	summary.MeanAnnualizedReturn, _ = returns.Mean()
	summary.MedianAnnualizedReturn, _ = returns.Median()
	summary.MaxAnnualizedReturn, _ = returns.Max()
	return summary
}
