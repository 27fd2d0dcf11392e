package eventmodels

import (
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// String renders one table per screened symbol followed by the symbol errors.
func (r *ScreeningResult) String() string {
	display := &strings.Builder{}
	p := message.NewPrinter(language.English)

	for _, symbol := range r.Symbols() {
		res := r.Results[symbol]

		fallback := ""
		if res.UsedFallback {
			fallback = " (fallback)"
		}

		display.WriteString(fmt.Sprintf("%s @ $%s via %s%s: %d of %d contracts qualified\n",
			symbol, p.Sprintf("%.2f", res.UnderlyingPrice), res.Source, fallback, len(res.Quotes), res.Scanned))

		if len(res.Quotes) == 0 {
			display.WriteString("\n")
			continue
		}

		table := tablewriter.NewWriter(display)
		table.SetHeader([]string{"Contract", "Expiration", "DTE", "Strike", "Premium", "Delta", "Ann. Return", "Assign. Prob", "Volume", "OI"})
		table.SetAlignment(tablewriter.ALIGN_RIGHT)
		table.SetColumnSeparator("")

		for _, q := range res.Quotes {
			delta := "-"
			if q.Greeks != nil {
				delta = fmt.Sprintf("%.3f", q.Greeks.Delta)
				if q.GreeksSource == GreeksSourceModel {
					delta += "*"
				}
			}

			table.Append([]string{
				string(q.ContractSymbol),
				q.ExpirationDate(),
				fmt.Sprintf("%d", q.DTE),
				fmt.Sprintf("$%s", p.Sprintf("%.2f", q.Strike)),
				fmt.Sprintf("$%s", p.Sprintf("%.2f", q.Premium)),
				delta,
				fmt.Sprintf("%.1f%%", q.AnnualizedReturn),
				fmt.Sprintf("%.1f%%", q.AssignmentProbability),
				p.Sprintf("%d", q.Volume),
				p.Sprintf("%d", q.OpenInterest),
			})
		}

		table.Render()
		display.WriteString(fmt.Sprintf("mean %.1f%% / median %.1f%% / max %.1f%% annualized\n\n",
			res.Summary.MeanAnnualizedReturn, res.Summary.MedianAnnualizedReturn, res.Summary.MaxAnnualizedReturn))
	}

	if len(r.Errors) > 0 {
		symbols := make([]string, 0, len(r.Errors))
		for s := range r.Errors {
			symbols = append(symbols, string(s))
		}
		sort.Strings(symbols)

		display.WriteString("Errors:\n")
		for _, s := range symbols {
			display.WriteString(fmt.Sprintf("  %s: %s\n", s, r.Errors[StockSymbol(s)]))
		}
	}

	return display.String()
}
