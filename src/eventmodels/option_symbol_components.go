package eventmodels

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// root, yymmdd, right, strike * 1000 (8 digits)
var osiPattern = regexp.MustCompile(`^([A-Z0-9.]{1,6})\s*(\d{2})(\d{2})(\d{2})([CP])(\d{8})$`)

// OptionSymbolComponents struct to hold parsed option details
type OptionSymbolComponents struct {
	Underlying  string
	Expiration  time.Time
	OptionType  OptionType
	StrikePrice float64
	Symbol      OptionSymbol
}

// NewOptionSymbolComponents parses an OSI option symbol, e.g. AAPL230317P00150000.
func NewOptionSymbolComponents(symbol OptionSymbol) (*OptionSymbolComponents, error) {
	ticker := strings.ToUpper(strings.TrimSpace(symbol.NoPrefix()))

	matches := osiPattern.FindStringSubmatch(ticker)
	if matches == nil {
		return nil, fmt.Errorf("NewOptionSymbolComponents: invalid option symbol format: %s", symbol)
	}

	year, _ := strconv.Atoi(matches[2])
	month, _ := strconv.Atoi(matches[3])
	day, _ := strconv.Atoi(matches[4])

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil, fmt.Errorf("NewOptionSymbolComponents: invalid expiration in option symbol: %s", symbol)
	}

	strike, err := strconv.ParseFloat(matches[6], 64)
	if err != nil {
		return nil, fmt.Errorf("NewOptionSymbolComponents: failed to parse strike: %w", err)
	}

	optionType := OptionTypeCall
	if matches[5] == "P" {
		optionType = OptionTypePut
	}

	return &OptionSymbolComponents{
		Underlying:  matches[1],
		Expiration:  time.Date(2000+year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
		OptionType:  optionType,
		StrikePrice: strike / 1000,
		Symbol:      OptionSymbol(ticker),
	}, nil
}
