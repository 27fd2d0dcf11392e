package eventservices

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/options-screener/src/eventmodels"
	"github.com/jiaming2012/options-screener/src/utils"
)

const (
	PublicBaseURL = "https://api.public.com"

	publicTokenValidityMinutes = 60
	publicTokenFallbackTTL     = 59 * time.Minute
	publicTokenRefreshMargin   = time.Minute
)

// flexFloat accepts both JSON numbers and numeric strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("flexFloat: failed to parse %q: %w", s, err)
	}

	*f = flexFloat(v)
	return nil
}

type publicInstrumentDTO struct {
	Symbol string `json:"symbol"`
	Type   string `json:"type"`
}

type publicQuoteDTO struct {
	Instrument   publicInstrumentDTO `json:"instrument"`
	Outcome      string              `json:"outcome"`
	Last         flexFloat           `json:"last"`
	Bid          flexFloat           `json:"bid"`
	Ask          flexFloat           `json:"ask"`
	Volume       flexFloat           `json:"volume"`
	OpenInterest flexFloat           `json:"openInterest"`
}

type publicGreeksDTO struct {
	Delta             flexFloat `json:"delta"`
	Gamma             flexFloat `json:"gamma"`
	Theta             flexFloat `json:"theta"`
	Vega              flexFloat `json:"vega"`
	Rho               flexFloat `json:"rho"`
	ImpliedVolatility flexFloat `json:"impliedVolatility"`
}

// PublicProvider reads Public.com market data. The configured secret is
// exchanged for a short-lived bearer token that is refreshed before expiry.
type PublicProvider struct {
	baseURL   string
	secret    string
	accountID string
	client    *http.Client
	loc       *time.Location
	clock     func() time.Time

	mu             sync.Mutex
	accessToken    string
	tokenExpiresAt time.Time
}

func NewPublicProvider(baseURL, secret, accountID string, client *http.Client, loc *time.Location) *PublicProvider {
	return &PublicProvider{
		baseURL:   baseURL,
		secret:    secret,
		accountID: accountID,
		client:    client,
		loc:       loc,
		clock:     time.Now,
	}
}

func (p *PublicProvider) Name() string {
	return ProviderPublic
}

// tokenExpiry reads the exp claim without verifying the signature; the token
// is only ever presented back to its issuer. Short-lived tokens are kept for
// at least half their remaining life so a fresh token is never stale on arrival.
func tokenExpiry(token string, now time.Time) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return now.Add(publicTokenFallbackTTL)
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return now.Add(publicTokenFallbackTTL)
	}

	// issuer clock skew; let the server reject it rather than refresh on every call
	if !exp.Time.After(now) {
		return now.Add(publicTokenRefreshMargin)
	}

	expiresAt := exp.Time.Add(-publicTokenRefreshMargin)
	if floor := now.Add(exp.Time.Sub(now) / 2); expiresAt.Before(floor) {
		return floor
	}

	return expiresAt
}

func (p *PublicProvider) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock()
	if p.accessToken != "" && now.Before(p.tokenExpiresAt) {
		return p.accessToken, nil
	}

	payload := map[string]interface{}{
		"validityInMinutes": publicTokenValidityMinutes,
		"secret":            p.secret,
	}

	var dto struct {
		AccessToken string `json:"accessToken"`
	}

	if err := p.post(ctx, "/userapiauthservice/personal/access-tokens", "", payload, &dto); err != nil {
		return "", fmt.Errorf("PublicProvider: failed to generate access token: %w", err)
	}

	if dto.AccessToken == "" {
		return "", fmt.Errorf("PublicProvider: empty access token")
	}

	p.accessToken = dto.AccessToken
	p.tokenExpiresAt = tokenExpiry(dto.AccessToken, now)

	log.WithContext(ctx).Debugf("PublicProvider: access token refreshed, expires %s", p.tokenExpiresAt.Format(time.RFC3339))

	return p.accessToken, nil
}

func (p *PublicProvider) post(ctx context.Context, path, token string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("PublicProvider: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("PublicProvider: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := utils.Do(p.client, p.Name(), req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("PublicProvider: failed to decode %s: %w", path, err)
	}

	return nil
}

func (p *PublicProvider) authedPost(ctx context.Context, path string, payload interface{}, out interface{}) error {
	token, err := p.token(ctx)
	if err != nil {
		return err
	}

	return p.post(ctx, path, token, payload, out)
}

func (p *PublicProvider) fetchUnderlyingPrice(ctx context.Context, symbol eventmodels.StockSymbol) (float64, error) {
	payload := map[string]interface{}{
		"instruments": []publicInstrumentDTO{{Symbol: symbol.String(), Type: "EQUITY"}},
	}

	var dto struct {
		Quotes []publicQuoteDTO `json:"quotes"`
	}

	if err := p.authedPost(ctx, fmt.Sprintf("/userapigateway/marketdata/%s/quotes", p.accountID), payload, &dto); err != nil {
		return 0, fmt.Errorf("PublicProvider: failed to fetch quote: %w", err)
	}

	if len(dto.Quotes) == 0 || dto.Quotes[0].Outcome != "SUCCESS" {
		return 0, fmt.Errorf("PublicProvider: no valid quote for %s", symbol)
	}

	q := dto.Quotes[0]
	if q.Bid > 0 && q.Ask > 0 {
		return float64(q.Bid+q.Ask) / 2, nil
	}

	return float64(q.Last), nil
}

func (p *PublicProvider) fetchExpirations(ctx context.Context, symbol eventmodels.StockSymbol) ([]string, error) {
	payload := map[string]interface{}{
		"instrument": publicInstrumentDTO{Symbol: symbol.String(), Type: "EQUITY"},
	}

	var dto struct {
		Expirations []string `json:"expirations"`
	}

	if err := p.authedPost(ctx, fmt.Sprintf("/userapigateway/marketdata/%s/option-expirations", p.accountID), payload, &dto); err != nil {
		return nil, fmt.Errorf("PublicProvider: failed to fetch expirations: %w", err)
	}

	return dto.Expirations, nil
}

func (p *PublicProvider) fetchPuts(ctx context.Context, symbol eventmodels.StockSymbol, expiration string) ([]publicQuoteDTO, error) {
	payload := map[string]interface{}{
		"instrument":     publicInstrumentDTO{Symbol: symbol.String(), Type: "EQUITY"},
		"expirationDate": expiration,
	}

	var dto struct {
		Puts []publicQuoteDTO `json:"puts"`
	}

	if err := p.authedPost(ctx, fmt.Sprintf("/userapigateway/marketdata/%s/option-chain", p.accountID), payload, &dto); err != nil {
		return nil, fmt.Errorf("PublicProvider: failed to fetch option chain: %w", err)
	}

	return dto.Puts, nil
}

func (p *PublicProvider) fetchGreeks(ctx context.Context, optionSymbol string) (*publicGreeksDTO, error) {
	token, err := p.token(ctx)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/userapigateway/option-details/%s/%s/greeks", p.baseURL, p.accountID, url.PathEscape(optionSymbol))
	body, err := utils.Get(ctx, p.client, p.Name(), u, map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	})
	if err != nil {
		return nil, fmt.Errorf("PublicProvider: failed to fetch greeks: %w", err)
	}

	var dto publicGreeksDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("PublicProvider: failed to decode greeks: %w", err)
	}

	return &dto, nil
}

func (p *PublicProvider) FetchPutChain(ctx context.Context, req eventmodels.ChainRequest) (*eventmodels.OptionChain, error) {
	chain := newOptionChain(req, p.Name())
	logger := log.WithContext(ctx).WithField("symbol", req.Symbol)

	expirations, err := p.fetchExpirations(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	for _, expiration := range expirations {
		exp, err := time.Parse("2006-01-02", expiration)
		if err != nil {
			logger.Warnf("PublicProvider: skipping expiration %s: %v", expiration, err)
			continue
		}

		if !withinWindow(req, exp, p.loc) {
			continue
		}

		puts, err := p.fetchPuts(ctx, req.Symbol, expiration)
		if err != nil {
			return nil, err
		}

		for _, put := range puts {
			if put.Outcome != "SUCCESS" {
				continue
			}

			components, err := eventmodels.NewOptionSymbolComponents(eventmodels.OptionSymbol(put.Instrument.Symbol))
			if err != nil {
				logger.Warnf("PublicProvider: skipping %s: %v", put.Instrument.Symbol, err)
				continue
			}

			quote := eventmodels.OptionQuote{
				ContractSymbol: components.Symbol,
				Underlying:     req.Symbol,
				OptionType:     eventmodels.OptionTypePut,
				Strike:         components.StrikePrice,
				Expiration:     exp,
				Bid:            float64(put.Bid),
				Ask:            float64(put.Ask),
				Last:           float64(put.Last),
				Volume:         int64(put.Volume),
				OpenInterest:   int64(put.OpenInterest),
			}
			quote.Premium = eventmodels.ResolvePremium(quote.Last, quote.Bid, quote.Ask)

			greeks, err := p.fetchGreeks(ctx, put.Instrument.Symbol)
			if err != nil {
				logger.Warnf("PublicProvider: no greeks for %s: %v", put.Instrument.Symbol, err)
			} else {
				quote.ImpliedVolatility = float64(greeks.ImpliedVolatility)
				if greeks.Delta != 0 {
					quote.Greeks = &eventmodels.Greeks{
						Delta: float64(greeks.Delta),
						Gamma: float64(greeks.Gamma),
						Theta: float64(greeks.Theta),
						Vega:  float64(greeks.Vega),
						Rho:   float64(greeks.Rho),
					}
					quote.GreeksSource = eventmodels.GreeksSourceProvider
				}
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
