package eventmodels

import (
	"encoding/json"
	"fmt"
	"strings"
)

type StockSymbol string

func (s StockSymbol) String() string {
	return strings.ToUpper(string(s))
}

func (s StockSymbol) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s StockSymbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s StockSymbol) Validate() error {
	if len(s) == 0 || len(s) > 10 {
		return fmt.Errorf("StockSymbol: Validate: invalid length for symbol %q", string(s))
	}

	for _, c := range s.String() {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '.' || c == '-') {
			return fmt.Errorf("StockSymbol: Validate: invalid character %q in symbol %q", c, string(s))
		}
	}

	return nil
}

func NewStockSymbol(s string) StockSymbol {
	return StockSymbol(strings.ToUpper(strings.TrimSpace(s)))
}

// ParseStockSymbols accepts raw tickers, each optionally holding a comma
// separated list, and returns the upper-cased set in first-seen order.
func ParseStockSymbols(raw ...string) []StockSymbol {
	seen := make(map[StockSymbol]struct{})
	symbols := make([]StockSymbol, 0, len(raw))

	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			symbol := NewStockSymbol(part)
			if symbol == "" {
				continue
			}

			if _, found := seen[symbol]; found {
				continue
			}

			seen[symbol] = struct{}{}
			symbols = append(symbols, symbol)
		}
	}

	return symbols
}
