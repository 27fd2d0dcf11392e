package pricing

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jiaming2012/options-screener/src/eventmodels"
)

const (
	DaysPerYear = 365.0

	maxIterations = 100
	tolerance     = 1e-6
	initialSigma  = 0.5
	minVega       = 1e-10
)

var ErrUnscorable = errors.New("unscorable inputs")

// Inputs to the Black-Scholes model. Years is time to expiry, Volatility is annualized.
type Inputs struct {
	Spot       float64
	Strike     float64
	Years      float64
	Volatility float64
	Rate       float64
}

func YearsToExpiry(dte int) float64 {
	return float64(dte) / DaysPerYear
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

func (in Inputs) valid() bool {
	if !finite(in.Spot, in.Strike, in.Years, in.Volatility, in.Rate) {
		return false
	}

	return in.Spot > 0 && in.Strike > 0 && in.Years > 0 && in.Volatility > 0
}

func (in Inputs) d1d2() (float64, float64) {
	sqrtT := math.Sqrt(in.Years)
	d1 := (math.Log(in.Spot/in.Strike) + (in.Rate+0.5*in.Volatility*in.Volatility)*in.Years) / (in.Volatility * sqrtT)
	return d1, d1 - in.Volatility*sqrtT
}

// PutDelta returns N(d1) - 1. Every successful result lies strictly between -1 and 0.
func PutDelta(in Inputs) (float64, error) {
	if !in.valid() {
		return 0, ErrUnscorable
	}

	d1, _ := in.d1d2()
	delta := -distuv.UnitNormal.CDF(-d1)

	if !finite(delta) || delta >= 0 || delta <= -1 {
		return 0, ErrUnscorable
	}

	return delta, nil
}

func PutPrice(in Inputs) (float64, error) {
	if !in.valid() {
		return 0, ErrUnscorable
	}

	d1, d2 := in.d1d2()
	discount := math.Exp(-in.Rate * in.Years)
	price := in.Strike*discount*distuv.UnitNormal.CDF(-d2) - in.Spot*distuv.UnitNormal.CDF(-d1)

	if !finite(price) {
		return 0, ErrUnscorable
	}

	return price, nil
}

// PutGreeks computes the full set of put sensitivities. Theta is per year, vega and rho per unit change.
func PutGreeks(in Inputs) (eventmodels.Greeks, error) {
	delta, err := PutDelta(in)
	if err != nil {
		return eventmodels.Greeks{}, err
	}

	d1, d2 := in.d1d2()
	sqrtT := math.Sqrt(in.Years)
	discount := math.Exp(-in.Rate * in.Years)
	pdf := distuv.UnitNormal.Prob(d1)

	greeks := eventmodels.Greeks{
		Delta: delta,
		Gamma: pdf / (in.Spot * in.Volatility * sqrtT),
		Theta: -(in.Spot*pdf*in.Volatility)/(2*sqrtT) + in.Rate*in.Strike*discount*distuv.UnitNormal.CDF(-d2),
		Vega:  in.Spot * pdf * sqrtT,
		Rho:   -in.Strike * in.Years * discount * distuv.UnitNormal.CDF(-d2),
	}

	if !finite(greeks.Gamma, greeks.Theta, greeks.Vega, greeks.Rho) {
		return eventmodels.Greeks{}, ErrUnscorable
	}

	return greeks, nil
}

func vega(in Inputs) float64 {
	d1, _ := in.d1d2()
	return in.Spot * distuv.UnitNormal.Prob(d1) * math.Sqrt(in.Years)
}

// ImpliedVolatility solves for the volatility that prices the put at premium
// using Newton-Raphson. in.Volatility is ignored.
func ImpliedVolatility(premium float64, in Inputs) (float64, error) {
	if !finite(premium) || premium <= 0 {
		return 0, ErrUnscorable
	}

	in.Volatility = initialSigma
	if !in.valid() {
		return 0, ErrUnscorable
	}

	// outside the no-arbitrage band no volatility reproduces the premium
	discountedStrike := in.Strike * math.Exp(-in.Rate*in.Years)
	if premium >= discountedStrike || premium <= math.Max(0, discountedStrike-in.Spot) {
		return 0, ErrUnscorable
	}

	for i := 0; i < maxIterations; i++ {
		price, err := PutPrice(in)
		if err != nil {
			return 0, err
		}

		diff := price - premium
		if math.Abs(diff) < tolerance {
			return in.Volatility, nil
		}

		v := vega(in)
		if v < minVega {
			return 0, ErrUnscorable
		}

		in.Volatility -= diff / v
		if in.Volatility <= 0 {
			in.Volatility = 0.0001
		}
	}

	return 0, ErrUnscorable
}

// ChooseVolatility prefers the quoted IV, then the IV implied by the premium, then fallback.
func ChooseVolatility(quoteIV, premium float64, in Inputs, fallback float64) float64 {
	if finite(quoteIV) && quoteIV > 0 {
		return quoteIV
	}

	if iv, err := ImpliedVolatility(premium, in); err == nil {
		return iv
	}

	return fallback
}
