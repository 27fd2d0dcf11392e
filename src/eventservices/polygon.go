package eventservices

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/options-screener/src/eventmodels"
)

const polygonPageLimit = 250

// PolygonProvider reads put chains from the Massive (formerly Polygon.io)
// options chain snapshot, which carries greeks and implied volatility.
type PolygonProvider struct {
	Client *polygon.Client
	loc    *time.Location
}

func NewPolygonProvider(apiKey string, loc *time.Location) *PolygonProvider {
	return &PolygonProvider{
		Client: polygon.New(apiKey),
		loc:    loc,
	}
}

func (p *PolygonProvider) Name() string {
	return ProviderPolygon
}

func (p *PolygonProvider) FetchPutChain(ctx context.Context, req eventmodels.ChainRequest) (*eventmodels.OptionChain, error) {
	from, to := req.ExpirationWindow(p.loc)

	contractType := models.ContractPut
	gte := models.Date(time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC))
	lte := models.Date(time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC))
	limit := polygonPageLimit

	params := &models.ListOptionsChainParams{
		UnderlyingAsset:   req.Symbol.String(),
		ContractType:      &contractType,
		ExpirationDateGTE: &gte,
		ExpirationDateLTE: &lte,
		Limit:             &limit,
	}

	chain := newOptionChain(req, p.Name())

	iter := p.Client.ListOptionsChainSnapshot(ctx, params)
	for iter.Next() {
		snapshot := iter.Item()

		if chain.UnderlyingPrice == 0 && snapshot.UnderlyingAsset.Price > 0 {
			chain.UnderlyingPrice = snapshot.UnderlyingAsset.Price
		}

		quote, ok := convertPolygonSnapshot(req.Symbol, snapshot)
		if !ok {
			continue
		}

		if !withinWindow(req, quote.Expiration, p.loc) {
			continue
		}

		chain.Quotes = append(chain.Quotes, quote)
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("PolygonProvider: failed to list options chain for %s: %w", req.Symbol, err)
	}

	if chain.UnderlyingPrice == 0 {
		price, err := p.fetchLastTradePrice(ctx, req.Symbol)
		if err != nil {
			log.WithContext(ctx).Warnf("PolygonProvider: no underlying price for %s: %v", req.Symbol, err)
		} else {
			chain.UnderlyingPrice = price
		}
	}

	log.WithContext(ctx).Debugf("PolygonProvider: %s: %d puts, %d without delta", req.Symbol, len(chain.Quotes), chain.MissingDeltaCount())

	return chain, nil
}

func (p *PolygonProvider) fetchLastTradePrice(ctx context.Context, symbol eventmodels.StockSymbol) (float64, error) {
	res, err := p.Client.GetLastTrade(ctx, &models.GetLastTradeParams{Ticker: symbol.String()})
	if err != nil {
		return 0, fmt.Errorf("PolygonProvider: failed to fetch last trade: %w", err)
	}

	return res.Results.Price, nil
}

// convertPolygonSnapshot maps one snapshot to a quote. A zero delta is read as
// the feed omitting greeks for that contract.
func convertPolygonSnapshot(underlying eventmodels.StockSymbol, s models.OptionContractSnapshot) (eventmodels.OptionQuote, bool) {
	if s.Details.Ticker == "" || s.Details.StrikePrice <= 0 {
		return eventmodels.OptionQuote{}, false
	}

	if s.Details.ContractType != "" && s.Details.ContractType != string(models.ContractPut) {
		return eventmodels.OptionQuote{}, false
	}

	exp := time.Time(s.Details.ExpirationDate)

	quote := eventmodels.OptionQuote{
		ContractSymbol:    eventmodels.OptionSymbol(s.Details.Ticker),
		Underlying:        underlying,
		OptionType:        eventmodels.OptionTypePut,
		Strike:            s.Details.StrikePrice,
		Expiration:        time.Date(exp.Year(), exp.Month(), exp.Day(), 0, 0, 0, 0, time.UTC),
		Bid:               s.LastQuote.Bid,
		Ask:               s.LastQuote.Ask,
		Last:              s.LastTrade.Price,
		Volume:            int64(s.Day.Volume),
		OpenInterest:      int64(s.OpenInterest),
		ImpliedVolatility: s.ImpliedVolatility,
	}

	quote.Premium = eventmodels.ResolvePremium(quote.Last, quote.Bid, quote.Ask)
	if quote.Premium == 0 && s.LastQuote.Midpoint > 0 {
		quote.Premium = s.LastQuote.Midpoint
	}

	if s.Greeks.Delta != 0 {
		quote.Greeks = &eventmodels.Greeks{
			Delta: s.Greeks.Delta,
			Gamma: s.Greeks.Gamma,
			Theta: s.Greeks.Theta,
			Vega:  s.Greeks.Vega,
		}
		quote.GreeksSource = eventmodels.GreeksSourceProvider
	}

	return quote, true
}
