package eventservices

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/options-screener/src/eventmodels"
	"github.com/jiaming2012/options-screener/src/utils"
)

const TradierBaseURL = "https://api.tradier.com"

type TradierProvider struct {
	baseURL     string
	bearerToken string
	client      *http.Client
	loc         *time.Location
}

func NewTradierProvider(baseURL, bearerToken string, client *http.Client, loc *time.Location) *TradierProvider {
	return &TradierProvider{
		baseURL:     baseURL,
		bearerToken: bearerToken,
		client:      client,
		loc:         loc,
	}
}

func (p *TradierProvider) Name() string {
	return ProviderTradier
}

func (p *TradierProvider) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := fmt.Sprintf("%s%s?%s", p.baseURL, path, params.Encode())
	return utils.Get(ctx, p.client, p.Name(), u, map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", p.bearerToken),
	})
}

func (p *TradierProvider) fetchExpirations(ctx context.Context, symbol eventmodels.StockSymbol) ([]time.Time, error) {
	bytes, err := p.get(ctx, "/v1/markets/options/expirations", url.Values{"symbol": {symbol.String()}})
	if err != nil {
		return nil, fmt.Errorf("TradierProvider: failed to fetch expirations: %w", err)
	}

	dates, err := utils.ParseTradierResponse[string](bytes)
	if err != nil {
		return nil, fmt.Errorf("TradierProvider: failed to parse expirations: %w", err)
	}

	expirations := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		exp, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, fmt.Errorf("TradierProvider: failed to parse expiration %s: %w", d, err)
		}

		expirations = append(expirations, exp)
	}

	return expirations, nil
}

func (p *TradierProvider) fetchUnderlyingPrice(ctx context.Context, symbol eventmodels.StockSymbol) (float64, error) {
	bytes, err := p.get(ctx, "/v1/markets/quotes", url.Values{"symbols": {symbol.String()}})
	if err != nil {
		return 0, fmt.Errorf("TradierProvider: failed to fetch quote: %w", err)
	}

	quotes, err := utils.ParseTradierResponse[eventmodels.QuoteDTO](bytes)
	if err != nil {
		return 0, fmt.Errorf("TradierProvider: failed to parse quote: %w", err)
	}

	if len(quotes) == 0 {
		return 0, fmt.Errorf("TradierProvider: no quote for %s", symbol)
	}

	q := quotes[0]
	if q.LastPrice != nil && *q.LastPrice > 0 {
		return *q.LastPrice, nil
	}

	return eventmodels.ResolvePremium(0, valueOrZero(q.Bid), valueOrZero(q.Ask)), nil
}

func valueOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}

	return *f
}

func (p *TradierProvider) FetchPutChain(ctx context.Context, req eventmodels.ChainRequest) (*eventmodels.OptionChain, error) {
	chain := newOptionChain(req, p.Name())

	expirations, err := p.fetchExpirations(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	for _, exp := range expirations {
		if !withinWindow(req, exp, p.loc) {
			continue
		}

		bytes, err := p.get(ctx, "/v1/markets/options/chains", url.Values{
			"symbol":     {req.Symbol.String()},
			"expiration": {exp.Format("2006-01-02")},
			"greeks":     {"true"},
		})
		if err != nil {
			return nil, fmt.Errorf("TradierProvider: failed to fetch chain: %w", err)
		}

		dtos, err := utils.ParseTradierResponse[eventmodels.QuoteDTO](bytes)
		if err != nil {
			return nil, fmt.Errorf("TradierProvider: failed to parse chain: %w", err)
		}

		for _, dto := range dtos {
			if dto.OptionType != string(eventmodels.OptionTypePut) {
				continue
			}

			quote, err := dto.ToModel()
			if err != nil {
				log.WithContext(ctx).Warnf("TradierProvider: skipping %s: %v", dto.Symbol, err)
				continue
			}

			chain.Quotes = append(chain.Quotes, quote)
		}
	}

	if len(chain.Quotes) == 0 {
		return chain, nil
	}

	price, err := p.fetchUnderlyingPrice(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	chain.UnderlyingPrice = price

	return chain, nil
}
