package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysToExpiration(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	t.Run("counts calendar days in the market timezone", func(t *testing.T) {
		// 2024-03-01 22:30 New York is already 03-02 in UTC
		now := time.Date(2024, time.March, 2, 3, 30, 0, 0, time.UTC)
		exp := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

		assert.Equal(t, 14, DaysToExpiration(now, exp, loc))
	})

	t.Run("same day expiry", func(t *testing.T) {
		now := time.Date(2024, time.March, 15, 14, 0, 0, 0, loc)
		exp := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

		assert.Equal(t, 0, DaysToExpiration(now, exp, loc))
	})

	t.Run("trading day", func(t *testing.T) {
		now := time.Date(2024, time.March, 2, 3, 30, 0, 0, time.UTC)
		assert.Equal(t, "2024-03-01", TradingDay(now, loc))
	})
}
