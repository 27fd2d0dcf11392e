package screener

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/options-screener/src/eventmodels"
	"github.com/jiaming2012/options-screener/src/pricing"
)

func TestAnnualizedReturn(t *testing.T) {
	t.Run("at the money example", func(t *testing.T) {
		ret, err := AnnualizedReturn(2.00, 170, 30)
		require.NoError(t, err)
		assert.InDelta(t, 14.31, ret, 0.01)
	})

	t.Run("strictly increasing in premium", func(t *testing.T) {
		prev := 0.0
		for premium := 0.05; premium < 20; premium += 0.05 {
			ret, err := AnnualizedReturn(premium, 100, 21)
			require.NoError(t, err)
			assert.Greater(t, ret, prev)
			prev = ret
		}
	})

	t.Run("zero dte is unscorable", func(t *testing.T) {
		_, err := AnnualizedReturn(2.00, 170, 0)
		assert.ErrorIs(t, err, pricing.ErrUnscorable)
	})

	t.Run("non-positive strike or premium is unscorable", func(t *testing.T) {
		_, err := AnnualizedReturn(2.00, 0, 30)
		assert.ErrorIs(t, err, pricing.ErrUnscorable)

		_, err = AnnualizedReturn(0, 170, 30)
		assert.ErrorIs(t, err, pricing.ErrUnscorable)
	})
}

func TestAssignmentProbability(t *testing.T) {
	assert.InDelta(t, 21.0, AssignmentProbability(-0.21), 1e-9)
}

func TestScoreChain(t *testing.T) {
	now := time.Date(2024, time.March, 1, 15, 0, 0, 0, time.UTC)
	s := &scorer{now: now, loc: time.UTC, riskFreeRate: 0.05, defaultVolatility: 0.25}

	t.Run("keeps provider greeks and models missing ones", func(t *testing.T) {
		// arrange
		chain := &eventmodels.OptionChain{
			UnderlyingPrice: 170,
			Quotes: []eventmodels.OptionQuote{
				{ContractSymbol: "A", Strike: 160, Expiration: now.AddDate(0, 0, 30), Premium: 1.5, Greeks: &eventmodels.Greeks{Delta: -0.2}},
				{ContractSymbol: "B", Strike: 165, Expiration: now.AddDate(0, 0, 30), Premium: 2.5, ImpliedVolatility: 0.3},
			},
		}

		// act
		scored, unscorable := s.scoreChain(chain)

		// assert
		require.Len(t, scored, 2)
		assert.Equal(t, 0, unscorable)

		assert.Equal(t, 30, scored[0].DTE)
		assert.Equal(t, eventmodels.GreeksSourceProvider, scored[0].GreeksSource)
		assert.InDelta(t, 20.0, scored[0].AssignmentProbability, 1e-9)
		assert.True(t, scored[0].OutOfTheMoney)

		assert.Equal(t, eventmodels.GreeksSourceModel, scored[1].GreeksSource)
		require.NotNil(t, scored[1].Greeks)
		assert.Less(t, scored[1].Greeks.Delta, 0.0)
		assert.Greater(t, scored[1].Greeks.Delta, -1.0)
	})

	t.Run("counts unscorable quotes instead of failing", func(t *testing.T) {
		chain := &eventmodels.OptionChain{
			UnderlyingPrice: 170,
			Quotes: []eventmodels.OptionQuote{
				{ContractSymbol: "same-day", Strike: 160, Expiration: now, Premium: 1.5, Greeks: &eventmodels.Greeks{Delta: -0.2}},
				{ContractSymbol: "no-price", Strike: 160, Expiration: now.AddDate(0, 0, 20), Greeks: &eventmodels.Greeks{Delta: -0.2}},
				{ContractSymbol: "priced-by-mid", Strike: 160, Expiration: now.AddDate(0, 0, 20), Bid: 1.0, Ask: 1.2, Greeks: &eventmodels.Greeks{Delta: -0.2}},
			},
		}

		scored, unscorable := s.scoreChain(chain)

		require.Len(t, scored, 1)
		assert.Equal(t, 2, unscorable)
		assert.InDelta(t, 1.1, scored[0].Premium, 1e-9)
	})

	t.Run("missing delta without spot is unscorable", func(t *testing.T) {
		chain := &eventmodels.OptionChain{
			Quotes: []eventmodels.OptionQuote{
				{ContractSymbol: "A", Strike: 160, Expiration: now.AddDate(0, 0, 30), Premium: 1.5},
			},
		}

		scored, unscorable := s.scoreChain(chain)

		assert.Empty(t, scored)
		assert.Equal(t, 1, unscorable)
	})
}

func TestSummarize(t *testing.T) {
	summary := summarize([]eventmodels.OptionQuote{{AnnualizedReturn: 10}, {AnnualizedReturn: 20}, {AnnualizedReturn: 60}})

	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 30.0, summary.MeanAnnualizedReturn, 1e-9)
	assert.InDelta(t, 20.0, summary.MedianAnnualizedReturn, 1e-9)
	assert.InDelta(t, 60.0, summary.MaxAnnualizedReturn, 1e-9)

	assert.Equal(t, eventmodels.ResultSummary{}, summarize(nil))
}
