package utils

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/options-screener/src/eventmodels"
)

func TestWriteQuotesCSV(t *testing.T) {
	// arrange
	req := eventmodels.ScreeningRequest{Symbols: []eventmodels.StockSymbol{"AAPL", "MSFT"}}
	result := eventmodels.NewScreeningResult(req, time.Now())
	result.Results["MSFT"] = &eventmodels.SymbolResult{Symbol: "MSFT", Quotes: []eventmodels.OptionQuote{}}
	result.Results["AAPL"] = &eventmodels.SymbolResult{
		Symbol:          "AAPL",
		UnderlyingPrice: 170,
		Source:          "polygon",
		Quotes: []eventmodels.OptionQuote{
			{
				ContractSymbol:   "AAPL240315P00160000",
				Strike:           160,
				Expiration:       time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
				Premium:          1.25,
				Greeks:           &eventmodels.Greeks{Delta: -0.21},
				AnnualizedReturn: 20.5,
			},
		},
	}

	// act
	buf := &bytes.Buffer{}
	err := WriteQuotesCSV(result, buf)

	// assert
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "symbol,contract_symbol,expiration"))
	assert.Contains(t, lines[1], "AAPL240315P00160000")
	assert.Contains(t, lines[1], "2024-03-15")
	assert.Contains(t, lines[1], "-0.21")
}
