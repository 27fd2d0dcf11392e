package eventservices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/options-screener/src/eventmodels"
	"github.com/jiaming2012/options-screener/src/utils"
)

const (
	AlpacaTradingBaseURL = "https://paper-api.alpaca.markets"
	AlpacaDataBaseURL    = "https://data.alpaca.markets"

	alpacaContractsLimit = 1000
	alpacaSnapshotsLimit = 1000
)

type alpacaOptionContractDTO struct {
	Symbol         string  `json:"symbol"`
	ExpirationDate string  `json:"expiration_date"`
	StrikePrice    string  `json:"strike_price"`
	Type           string  `json:"type"`
	OpenInterest   *string `json:"open_interest"`
	ClosePrice     *string `json:"close_price"`
}

type alpacaOptionContractsResponseDTO struct {
	OptionContracts []alpacaOptionContractDTO `json:"option_contracts"`
	NextPageToken   *string                   `json:"next_page_token"`
}

type alpacaOptionSnapshotDTO struct {
	LatestQuote *struct {
		BidPrice float64 `json:"bp"`
		AskPrice float64 `json:"ap"`
	} `json:"latestQuote"`
	LatestTrade *struct {
		Price float64 `json:"p"`
	} `json:"latestTrade"`
	DailyBar *struct {
		Volume int64 `json:"v"`
	} `json:"dailyBar"`
	Greeks *struct {
		Delta float64 `json:"delta"`
		Gamma float64 `json:"gamma"`
		Theta float64 `json:"theta"`
		Vega  float64 `json:"vega"`
		Rho   float64 `json:"rho"`
	} `json:"greeks"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
}

type alpacaOptionSnapshotsResponseDTO struct {
	Snapshots     map[string]alpacaOptionSnapshotDTO `json:"snapshots"`
	NextPageToken *string                            `json:"next_page_token"`
}

type alpacaLatestQuoteResponseDTO struct {
	Quote struct {
		BidPrice float64 `json:"bp"`
		AskPrice float64 `json:"ap"`
	} `json:"quote"`
}

// AlpacaProvider joins the trading API's contract list (strikes, open
// interest) with the data API's option snapshots (quotes, greeks).
type AlpacaProvider struct {
	tradingBaseURL string
	dataBaseURL    string
	apiKey         string
	secretKey      string
	client         *http.Client
	loc            *time.Location
}

func NewAlpacaProvider(tradingBaseURL, dataBaseURL, apiKey, secretKey string, client *http.Client, loc *time.Location) *AlpacaProvider {
	return &AlpacaProvider{
		tradingBaseURL: tradingBaseURL,
		dataBaseURL:    dataBaseURL,
		apiKey:         apiKey,
		secretKey:      secretKey,
		client:         client,
		loc:            loc,
	}
}

func (p *AlpacaProvider) Name() string {
	return ProviderAlpaca
}

func (p *AlpacaProvider) get(ctx context.Context, baseURL, path string, params url.Values, out interface{}) error {
	u := fmt.Sprintf("%s%s", baseURL, path)
	if len(params) > 0 {
		u = fmt.Sprintf("%s?%s", u, params.Encode())
	}

	body, err := utils.Get(ctx, p.client, p.Name(), u, map[string]string{
		"APCA-API-KEY-ID":     p.apiKey,
		"APCA-API-SECRET-KEY": p.secretKey,
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("AlpacaProvider: failed to decode %s: %w", path, err)
	}

	return nil
}

func (p *AlpacaProvider) fetchContracts(ctx context.Context, req eventmodels.ChainRequest) ([]alpacaOptionContractDTO, error) {
	from, to := req.ExpirationWindow(p.loc)

	var contracts []alpacaOptionContractDTO
	pageToken := ""
	for {
		params := url.Values{
			"underlying_symbols":  {req.Symbol.String()},
			"type":                {"put"},
			"status":              {"active"},
			"expiration_date_gte": {from.Format("2006-01-02")},
			"expiration_date_lte": {to.Format("2006-01-02")},
			"limit":               {strconv.Itoa(alpacaContractsLimit)},
		}
		if pageToken != "" {
			params.Set("page_token", pageToken)
		}

		var dto alpacaOptionContractsResponseDTO
		if err := p.get(ctx, p.tradingBaseURL, "/v2/options/contracts", params, &dto); err != nil {
			return nil, fmt.Errorf("AlpacaProvider: failed to fetch contracts: %w", err)
		}

		contracts = append(contracts, dto.OptionContracts...)

		if dto.NextPageToken == nil || *dto.NextPageToken == "" {
			return contracts, nil
		}
		pageToken = *dto.NextPageToken
	}
}

func (p *AlpacaProvider) fetchSnapshots(ctx context.Context, req eventmodels.ChainRequest) (map[string]alpacaOptionSnapshotDTO, error) {
	from, to := req.ExpirationWindow(p.loc)

	snapshots := make(map[string]alpacaOptionSnapshotDTO)
	pageToken := ""
	for {
		params := url.Values{
			"type":                {"put"},
			"expiration_date_gte": {from.Format("2006-01-02")},
			"expiration_date_lte": {to.Format("2006-01-02")},
			"limit":               {strconv.Itoa(alpacaSnapshotsLimit)},
		}
		if pageToken != "" {
			params.Set("page_token", pageToken)
		}

		var dto alpacaOptionSnapshotsResponseDTO
		if err := p.get(ctx, p.dataBaseURL, "/v1beta1/options/snapshots/"+url.PathEscape(req.Symbol.String()), params, &dto); err != nil {
			return nil, fmt.Errorf("AlpacaProvider: failed to fetch snapshots: %w", err)
		}

		for k, v := range dto.Snapshots {
			snapshots[k] = v
		}

		if dto.NextPageToken == nil || *dto.NextPageToken == "" {
			return snapshots, nil
		}
		pageToken = *dto.NextPageToken
	}
}

func (p *AlpacaProvider) fetchUnderlyingPrice(ctx context.Context, symbol eventmodels.StockSymbol) (float64, error) {
	var dto alpacaLatestQuoteResponseDTO
	if err := p.get(ctx, p.dataBaseURL, "/v2/stocks/"+url.PathEscape(symbol.String())+"/quotes/latest", nil, &dto); err != nil {
		return 0, fmt.Errorf("AlpacaProvider: failed to fetch stock quote: %w", err)
	}

	return eventmodels.ResolvePremium(0, dto.Quote.BidPrice, dto.Quote.AskPrice), nil
}

func parseOptionalFloat(s *string) float64 {
	if s == nil {
		return 0
	}

	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return 0
	}

	return f
}

func (p *AlpacaProvider) FetchPutChain(ctx context.Context, req eventmodels.ChainRequest) (*eventmodels.OptionChain, error) {
	chain := newOptionChain(req, p.Name())

	contracts, err := p.fetchContracts(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(contracts) == 0 {
		return chain, nil
	}

	snapshots, err := p.fetchSnapshots(ctx, req)
	if err != nil {
		return nil, err
	}

	price, err := p.fetchUnderlyingPrice(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}
	chain.UnderlyingPrice = price

	for _, c := range contracts {
		quote, err := convertAlpacaContract(req.Symbol, c, snapshots[c.Symbol])
		if err != nil {
			log.WithContext(ctx).Warnf("AlpacaProvider: skipping %s: %v", c.Symbol, err)
			continue
		}

		if !withinWindow(req, quote.Expiration, p.loc) {
			continue
		}

		chain.Quotes = append(chain.Quotes, quote)
	}

	return chain, nil
}

func convertAlpacaContract(underlying eventmodels.StockSymbol, c alpacaOptionContractDTO, snapshot alpacaOptionSnapshotDTO) (eventmodels.OptionQuote, error) {
	expiration, err := time.Parse("2006-01-02", c.ExpirationDate)
	if err != nil {
		return eventmodels.OptionQuote{}, fmt.Errorf("convertAlpacaContract: failed to parse expiration: %w", err)
	}

	strike, err := strconv.ParseFloat(c.StrikePrice, 64)
	if err != nil {
		return eventmodels.OptionQuote{}, fmt.Errorf("convertAlpacaContract: failed to parse strike: %w", err)
	}

	quote := eventmodels.OptionQuote{
		ContractSymbol:    eventmodels.OptionSymbol(c.Symbol),
		Underlying:        underlying,
		OptionType:        eventmodels.OptionTypePut,
		Strike:            strike,
		Expiration:        expiration,
		OpenInterest:      int64(parseOptionalFloat(c.OpenInterest)),
		ImpliedVolatility: snapshot.ImpliedVolatility,
	}

	if snapshot.LatestQuote != nil {
		quote.Bid = snapshot.LatestQuote.BidPrice
		quote.Ask = snapshot.LatestQuote.AskPrice
	}

	if snapshot.LatestTrade != nil {
		quote.Last = snapshot.LatestTrade.Price
	}

	if snapshot.DailyBar != nil {
		quote.Volume = snapshot.DailyBar.Volume
	}

	quote.Premium = eventmodels.ResolvePremium(quote.Last, quote.Bid, quote.Ask)
	if quote.Premium == 0 {
		quote.Premium = parseOptionalFloat(c.ClosePrice)
	}

	if snapshot.Greeks != nil && snapshot.Greeks.Delta != 0 {
		quote.Greeks = &eventmodels.Greeks{
			Delta: snapshot.Greeks.Delta,
			Gamma: snapshot.Greeks.Gamma,
			Theta: snapshot.Greeks.Theta,
			Vega:  snapshot.Greeks.Vega,
			Rho:   snapshot.Greeks.Rho,
		}
		quote.GreeksSource = eventmodels.GreeksSourceProvider
	}

	return quote, nil
}
