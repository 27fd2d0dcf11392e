package eventservices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/options-screener/src/eventmodels"
	"github.com/jiaming2012/options-screener/src/utils"
)

const (
	YahooBaseURL   = "https://query2.finance.yahoo.com"
	YahooCookieURL = "https://fc.yahoo.com"

	yahooUserAgent = "Mozilla/5.0"
)

type yahooOptionContractDTO struct {
	ContractSymbol    string  `json:"contractSymbol"`
	Strike            float64 `json:"strike"`
	LastPrice         float64 `json:"lastPrice"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	Volume            int64   `json:"volume"`
	OpenInterest      int64   `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
	Expiration        int64   `json:"expiration"`
}

type yahooOptionsDTO struct {
	ExpirationDate int64                    `json:"expirationDate"`
	Puts           []yahooOptionContractDTO `json:"puts"`
}

type yahooOptionChainResultDTO struct {
	UnderlyingSymbol string  `json:"underlyingSymbol"`
	ExpirationDates  []int64 `json:"expirationDates"`
	Quote            struct {
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"quote"`
	Options []yahooOptionsDTO `json:"options"`
}

type yahooOptionChainResponseDTO struct {
	OptionChain struct {
		Result []yahooOptionChainResultDTO `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"optionChain"`
}

// YahooProvider reads Yahoo Finance's public options endpoint. It carries
// implied volatility but never greeks.
type YahooProvider struct {
	baseURL   string
	cookieURL string
	client    *http.Client
	loc       *time.Location

	mu    sync.Mutex
	crumb string
}

func NewYahooProvider(baseURL string, client *http.Client, loc *time.Location) *YahooProvider {
	return &YahooProvider{
		baseURL: baseURL,
		client:  client,
		loc:     loc,
	}
}

// WithSession turns on the cookie and crumb handshake. The session cookie is
// read from cookieURL and the crumb is reused until the server answers 401.
func (p *YahooProvider) WithSession(cookieURL string) *YahooProvider {
	if p.client.Jar == nil {
		// cookiejar.New only fails on a bad PublicSuffixList
		jar, _ := cookiejar.New(nil)
		client := *p.client
		client.Jar = jar
		p.client = &client
	}

	p.cookieURL = cookieURL
	return p
}

func (p *YahooProvider) Name() string {
	return ProviderYahoo
}

func (p *YahooProvider) sessionCrumb(ctx context.Context) (string, error) {
	if p.cookieURL == "" {
		return "", nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.crumb != "" {
		return p.crumb, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cookieURL, nil)
	if err != nil {
		return "", fmt.Errorf("YahooProvider: failed to create cookie request: %w", err)
	}

	req.Header.Set("User-Agent", yahooUserAgent)

	// the cookie endpoint usually answers 404; only the Set-Cookie matters
	res, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("YahooProvider: failed to fetch session cookie: %w", err)
	}

	io.Copy(io.Discard, res.Body)
	res.Body.Close()

	body, err := utils.Get(ctx, p.client, p.Name(), p.baseURL+"/v1/test/getcrumb", map[string]string{"User-Agent": yahooUserAgent})
	if err != nil {
		return "", fmt.Errorf("YahooProvider: failed to fetch crumb: %w", err)
	}

	crumb := strings.TrimSpace(string(body))
	if crumb == "" {
		return "", fmt.Errorf("YahooProvider: empty crumb")
	}

	log.WithContext(ctx).Debug("YahooProvider: new session crumb")

	p.crumb = crumb
	return crumb, nil
}

func (p *YahooProvider) resetCrumb(stale string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.crumb == stale {
		p.crumb = ""
	}
}

func (p *YahooProvider) optionsURL(symbol eventmodels.StockSymbol, expiration int64, crumb string) (string, error) {
	u, err := url.Parse(fmt.Sprintf("%s/v7/finance/options/%s", p.baseURL, url.PathEscape(symbol.String())))
	if err != nil {
		return "", fmt.Errorf("YahooProvider: failed to parse url: %w", err)
	}

	q := u.Query()
	if expiration > 0 {
		q.Set("date", strconv.FormatInt(expiration, 10))
	}

	if crumb != "" {
		q.Set("crumb", crumb)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *YahooProvider) get(ctx context.Context, symbol eventmodels.StockSymbol, expiration int64) ([]byte, error) {
	crumb, err := p.sessionCrumb(ctx)
	if err != nil {
		return nil, err
	}

	u, err := p.optionsURL(symbol, expiration, crumb)
	if err != nil {
		return nil, err
	}

	body, err := utils.Get(ctx, p.client, p.Name(), u, map[string]string{"User-Agent": yahooUserAgent})

	var providerErr *eventmodels.ProviderError
	if crumb == "" || !errors.As(err, &providerErr) || providerErr.StatusCode != http.StatusUnauthorized {
		return body, err
	}

	// expired session: handshake again and retry once
	p.resetCrumb(crumb)

	if crumb, err = p.sessionCrumb(ctx); err != nil {
		return nil, err
	}

	if u, err = p.optionsURL(symbol, expiration, crumb); err != nil {
		return nil, err
	}

	return utils.Get(ctx, p.client, p.Name(), u, map[string]string{"User-Agent": yahooUserAgent})
}

func (p *YahooProvider) fetch(ctx context.Context, symbol eventmodels.StockSymbol, expiration int64) (*yahooOptionChainResultDTO, error) {
	body, err := p.get(ctx, symbol, expiration)
	if err != nil {
		return nil, fmt.Errorf("YahooProvider: failed to fetch options for %s: %w", symbol, err)
	}

	var dto yahooOptionChainResponseDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("YahooProvider: failed to decode json: %w", err)
	}

	if dto.OptionChain.Error != nil {
		return nil, fmt.Errorf("YahooProvider: %s: %s", dto.OptionChain.Error.Code, dto.OptionChain.Error.Description)
	}

	if len(dto.OptionChain.Result) == 0 {
		return nil, nil
	}

	return &dto.OptionChain.Result[0], nil
}

func (p *YahooProvider) FetchPutChain(ctx context.Context, req eventmodels.ChainRequest) (*eventmodels.OptionChain, error) {
	chain := newOptionChain(req, p.Name())

	root, err := p.fetch(ctx, req.Symbol, 0)
	if err != nil {
		return nil, err
	}

	if root == nil {
		return chain, nil
	}

	chain.UnderlyingPrice = root.Quote.RegularMarketPrice

	for _, ts := range root.ExpirationDates {
		expiration := time.Unix(ts, 0).UTC()
		if !withinWindow(req, expiration, p.loc) {
			continue
		}

		res, err := p.fetch(ctx, req.Symbol, ts)
		if err != nil {
			return nil, err
		}

		if res == nil {
			continue
		}

		for _, options := range res.Options {
			for _, dto := range options.Puts {
				chain.Quotes = append(chain.Quotes, convertYahooPut(req.Symbol, dto, expiration))
			}
		}
	}

	log.WithContext(ctx).Debugf("YahooProvider: %s: %d puts", req.Symbol, len(chain.Quotes))

	return chain, nil
}

func convertYahooPut(underlying eventmodels.StockSymbol, dto yahooOptionContractDTO, expiration time.Time) eventmodels.OptionQuote {
	if dto.Expiration > 0 {
		expiration = time.Unix(dto.Expiration, 0).UTC()
	}

	return eventmodels.OptionQuote{
		ContractSymbol:    eventmodels.OptionSymbol(dto.ContractSymbol),
		Underlying:        underlying,
		OptionType:        eventmodels.OptionTypePut,
		Strike:            dto.Strike,
		Expiration:        time.Date(expiration.Year(), expiration.Month(), expiration.Day(), 0, 0, 0, 0, time.UTC),
		Premium:           eventmodels.ResolvePremium(dto.LastPrice, dto.Bid, dto.Ask),
		Bid:               dto.Bid,
		Ask:               dto.Ask,
		Last:              dto.LastPrice,
		Volume:            dto.Volume,
		OpenInterest:      dto.OpenInterest,
		ImpliedVolatility: dto.ImpliedVolatility,
	}
}
