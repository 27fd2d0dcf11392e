package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/options-screener/src/eventmodels"
)

type QuoteCSVRow struct {
	Symbol                string  `csv:"symbol"`
	ContractSymbol        string  `csv:"contract_symbol"`
	Expiration            string  `csv:"expiration"`
	DTE                   int     `csv:"dte"`
	Strike                float64 `csv:"strike"`
	UnderlyingPrice       float64 `csv:"underlying_price"`
	Premium               float64 `csv:"premium"`
	Bid                   float64 `csv:"bid"`
	Ask                   float64 `csv:"ask"`
	Volume                int64   `csv:"volume"`
	OpenInterest          int64   `csv:"open_interest"`
	ImpliedVolatility     float64 `csv:"implied_volatility"`
	Delta                 float64 `csv:"delta"`
	GreeksSource          string  `csv:"greeks_source"`
	AnnualizedReturn      float64 `csv:"annualized_return"`
	AssignmentProbability float64 `csv:"assignment_probability"`
	OutOfTheMoney         bool    `csv:"out_of_the_money"`
	Source                string  `csv:"source"`
}

func NewQuoteCSVRows(result *eventmodels.ScreeningResult) []*QuoteCSVRow {
	var rows []*QuoteCSVRow
	for _, symbol := range result.Symbols() {
		res := result.Results[symbol]
		for _, q := range res.Quotes {
			row := &QuoteCSVRow{
				Symbol:                string(symbol),
				ContractSymbol:        string(q.ContractSymbol),
				Expiration:            q.ExpirationDate(),
				DTE:                   q.DTE,
				Strike:                q.Strike,
				UnderlyingPrice:       res.UnderlyingPrice,
				Premium:               q.Premium,
				Bid:                   q.Bid,
				Ask:                   q.Ask,
				Volume:                q.Volume,
				OpenInterest:          q.OpenInterest,
				ImpliedVolatility:     q.ImpliedVolatility,
				GreeksSource:          string(q.GreeksSource),
				AnnualizedReturn:      q.AnnualizedReturn,
				AssignmentProbability: q.AssignmentProbability,
				OutOfTheMoney:         q.OutOfTheMoney,
				Source:                res.Source,
			}

			if q.Greeks != nil {
				row.Delta = q.Greeks.Delta
			}

			rows = append(rows, row)
		}
	}

	return rows
}

func WriteQuotesCSV(result *eventmodels.ScreeningResult, out io.Writer) error {
	rows := NewQuoteCSVRows(result)

	writer := gocsv.NewSafeCSVWriter(csv.NewWriter(out))
	if err := gocsv.MarshalCSV(&rows, writer); err != nil {
		return fmt.Errorf("WriteQuotesCSV: failed to marshal rows: %w", err)
	}

	return nil
}

// ExportQuotesToCsv writes every qualifying quote of result to outFilePath, creating its directory.
func ExportQuotesToCsv(result *eventmodels.ScreeningResult, outFilePath string) error {
	if dir := filepath.Dir(outFilePath); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("ExportQuotesToCsv: failed to create directory: %w", err)
		}
	}

	file, err := os.Create(outFilePath)
	if err != nil {
		return fmt.Errorf("ExportQuotesToCsv: failed to create file: %w", err)
	}
	defer file.Close()

	if err := WriteQuotesCSV(result, file); err != nil {
		return fmt.Errorf("ExportQuotesToCsv: %w", err)
	}

	log.Infof("Exported %d quotes to %s", result.TotalQuotes(), outFilePath)
	return nil
}
