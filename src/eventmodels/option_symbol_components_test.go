package eventmodels

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptionSymbolComponents(t *testing.T) {
	t.Run("parses an osi put", func(t *testing.T) {
		c, err := NewOptionSymbolComponents("AAPL230317P00150000")
		require.NoError(t, err)

		assert.Equal(t, "AAPL", c.Underlying)
		assert.Equal(t, OptionTypePut, c.OptionType)
		assert.Equal(t, 150.0, c.StrikePrice)
		assert.Equal(t, time.Date(2023, time.March, 17, 0, 0, 0, 0, time.UTC), c.Expiration)
	})

	t.Run("strips the polygon prefix and handles fractional strikes", func(t *testing.T) {
		c, err := NewOptionSymbolComponents("O:SPY241220C00452500")
		require.NoError(t, err)

		assert.Equal(t, "SPY", c.Underlying)
		assert.Equal(t, OptionTypeCall, c.OptionType)
		assert.Equal(t, 452.5, c.StrikePrice)
		assert.Equal(t, OptionSymbol("SPY241220C00452500"), c.Symbol)
	})

	t.Run("rejects malformed symbols", func(t *testing.T) {
		_, err := NewOptionSymbolComponents("AAPL")
		assert.Error(t, err)

		_, err = NewOptionSymbolComponents("AAPL231317P00150000")
		assert.Error(t, err)
	})

	t.Run("description", func(t *testing.T) {
		desc, err := OptionSymbol("AAPL230317P00150000").Description()
		require.NoError(t, err)
		assert.Equal(t, "AAPL Mar 17 2023 $150.00 Put", desc)
	})
}

func TestResolvePremium(t *testing.T) {
	t.Run("prefers the last trade", func(t *testing.T) {
		assert.Equal(t, 2.1, ResolvePremium(2.1, 1.9, 2.3))
	})

	t.Run("falls back to the midpoint", func(t *testing.T) {
		assert.InDelta(t, 2.0, ResolvePremium(0, 1.9, 2.1), 1e-9)
	})

	t.Run("uses the single positive side", func(t *testing.T) {
		assert.Equal(t, 1.5, ResolvePremium(0, 1.5, 0))
		assert.Equal(t, 1.7, ResolvePremium(0, 0, 1.7))
	})

	t.Run("no price", func(t *testing.T) {
		assert.Equal(t, 0.0, ResolvePremium(0, 0, 0))
	})
}
