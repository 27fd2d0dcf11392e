package eventservices

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jiaming2012/options-screener/src/eventmodels"
	"github.com/jiaming2012/options-screener/src/utils"
)

// OptionChainProvider fetches the put side of an option chain for one symbol.
// An empty chain is not an error.
type OptionChainProvider interface {
	Name() string
	FetchPutChain(ctx context.Context, req eventmodels.ChainRequest) (*eventmodels.OptionChain, error)
}

const (
	ProviderPolygon = "polygon"
	ProviderMassive = "massive"
	ProviderYahoo   = "yahoo"
	ProviderTradier = "tradier"
	ProviderAlpaca  = "alpaca"
	ProviderPublic  = "public"
)

type ProviderCredentials struct {
	PolygonApiKey      string
	TradierBearerToken string
	AlpacaApiKey       string
	AlpacaSecretKey    string
	PublicAccessToken  string
	PublicAccountID    string
}

func NewProviderCredentialsFromEnv() ProviderCredentials {
	return ProviderCredentials{
		PolygonApiKey:      utils.GetEnv("POLYGON_API_KEY", "MASSIVE_API_KEY"),
		TradierBearerToken: utils.GetEnv("TRADIER_BEARER_TOKEN"),
		AlpacaApiKey:       utils.GetEnv("ALPACA_API_KEY"),
		AlpacaSecretKey:    utils.GetEnv("ALPACA_SECRET_KEY"),
		PublicAccessToken:  utils.GetEnv("PUBLIC_ACCESS_TOKEN"),
		PublicAccountID:    utils.GetEnv("PUBLIC_ACCOUNT_ID"),
	}
}

func newHttpClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

// NewProvider builds the named adapter. An empty name yields (nil, nil) so an
// optional secondary can be left unset.
func NewProvider(name string, creds ProviderCredentials, loc *time.Location) (OptionChainProvider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return nil, nil
	case ProviderPolygon, ProviderMassive:
		if creds.PolygonApiKey == "" {
			return nil, fmt.Errorf("NewProvider: %s requires POLYGON_API_KEY", name)
		}
		return NewPolygonProvider(creds.PolygonApiKey, loc), nil
	case ProviderYahoo:
		return NewYahooProvider(YahooBaseURL, newHttpClient(), loc).WithSession(YahooCookieURL), nil
	case ProviderTradier:
		if creds.TradierBearerToken == "" {
			return nil, fmt.Errorf("NewProvider: tradier requires TRADIER_BEARER_TOKEN")
		}
		return NewTradierProvider(TradierBaseURL, creds.TradierBearerToken, newHttpClient(), loc), nil
	case ProviderAlpaca:
		if creds.AlpacaApiKey == "" || creds.AlpacaSecretKey == "" {
			return nil, fmt.Errorf("NewProvider: alpaca requires ALPACA_API_KEY and ALPACA_SECRET_KEY")
		}
		return NewAlpacaProvider(AlpacaTradingBaseURL, AlpacaDataBaseURL, creds.AlpacaApiKey, creds.AlpacaSecretKey, newHttpClient(), loc), nil
	case ProviderPublic:
		if creds.PublicAccessToken == "" || creds.PublicAccountID == "" {
			return nil, fmt.Errorf("NewProvider: public requires PUBLIC_ACCESS_TOKEN and PUBLIC_ACCOUNT_ID")
		}
		return NewPublicProvider(PublicBaseURL, creds.PublicAccessToken, creds.PublicAccountID, newHttpClient(), loc), nil
	}

	return nil, fmt.Errorf("NewProvider: %w: %s", eventmodels.ErrUnknownProvider, name)
}

// withinWindow reports whether expiration falls inside the request's DTE window.
func withinWindow(req eventmodels.ChainRequest, expiration time.Time, loc *time.Location) bool {
	dte := utils.DaysToExpiration(req.Now, expiration, loc)
	return dte >= req.MinDTE && dte <= req.MaxDTE
}

func newOptionChain(req eventmodels.ChainRequest, source string) *eventmodels.OptionChain {
	return &eventmodels.OptionChain{
		Symbol:    req.Symbol,
		Source:    source,
		Quotes:    []eventmodels.OptionQuote{},
		FetchedAt: time.Now(),
	}
}
