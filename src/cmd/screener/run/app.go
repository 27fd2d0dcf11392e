package run

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/options-screener/src/eventmodels"
	"github.com/jiaming2012/options-screener/src/eventservices"
	"github.com/jiaming2012/options-screener/src/screener"
	"github.com/jiaming2012/options-screener/src/utils"
)

type Overrides struct {
	Symbols   []string
	Primary   *string
	Secondary *string
}

// LoadConfig reads path, or the built-in defaults when path is empty, and
// applies command line overrides.
func LoadConfig(path string, overrides Overrides) (*eventmodels.ScreenerConfigYAML, error) {
	cfg := eventmodels.NewDefaultScreenerConfig()
	if path != "" {
		loaded, err := eventmodels.LoadScreenerConfig(path)
		if err != nil {
			return nil, fmt.Errorf("run.LoadConfig: %w", err)
		}

		cfg = loaded
	}

	if len(overrides.Symbols) > 0 {
		cfg.Data.Symbols = overrides.Symbols
	}

	if overrides.Primary != nil {
		cfg.Providers.Primary = *overrides.Primary
	}

	if overrides.Secondary != nil {
		cfg.Providers.Secondary = *overrides.Secondary
	}

	return cfg, nil
}

func newProvider(name string, creds eventservices.ProviderCredentials, chainCache eventservices.ChainCache, ttl time.Duration, loc *time.Location) (eventservices.OptionChainProvider, error) {
	provider, err := eventservices.NewProvider(name, creds, loc)
	if err != nil {
		return nil, err
	}

	if provider == nil || chainCache == nil {
		return provider, nil
	}

	return eventservices.NewCachedProvider(provider, chainCache, ttl, loc), nil
}

// NewNewsProvider returns nil when no Polygon key is configured.
func NewNewsProvider(cfg *eventmodels.ScreenerConfigYAML, creds eventservices.ProviderCredentials) (eventservices.NewsProvider, error) {
	if creds.PolygonApiKey == "" {
		log.Warn("news endpoint disabled: no polygon api key")
		return nil, nil
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("run.NewNewsProvider: %w", err)
	}

	return eventservices.NewPolygonProvider(creds.PolygonApiKey, loc), nil
}

// NewOrchestrator wires the configured providers, cache and publisher.
func NewOrchestrator(cfg *eventmodels.ScreenerConfigYAML, creds eventservices.ProviderCredentials, publisher screener.Publisher) (*screener.Orchestrator, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("run.NewOrchestrator: %w", err)
	}

	chainCache, err := eventservices.NewChainCache(cfg.Providers.Cache, utils.GetEnv("REDIS_ADDR"), cfg.Providers.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("run.NewOrchestrator: %w", err)
	}

	primary, err := newProvider(cfg.Providers.Primary, creds, chainCache, cfg.Providers.CacheTTL, loc)
	if err != nil {
		return nil, fmt.Errorf("run.NewOrchestrator: primary: %w", err)
	}

	if primary == nil {
		return nil, fmt.Errorf("run.NewOrchestrator: %w", eventmodels.ErrNoProvider)
	}

	orchestratorCfg := screener.Config{
		Primary:           primary,
		MaxWorkers:        cfg.Providers.MaxWorkers,
		MaxSymbols:        cfg.Output.MaxSymbols,
		ProviderTimeout:   cfg.Providers.Timeout,
		RiskFreeRate:      cfg.Pricing.RiskFreeRate,
		DefaultVolatility: cfg.Pricing.DefaultVolatility,
		Location:          loc,
		Publisher:         publisher,
	}

	// a missing secondary credential should not stop the primary from running
	secondary, err := newProvider(cfg.Providers.Secondary, creds, chainCache, cfg.Providers.CacheTTL, loc)
	if err != nil {
		log.Warnf("secondary provider %s disabled: %v", cfg.Providers.Secondary, err)
	} else if secondary != nil {
		orchestratorCfg.Secondary = secondary
	}

	log.WithFields(log.Fields{
		"primary":   cfg.Providers.Primary,
		"secondary": cfg.Providers.Secondary,
		"cache":     cfg.Providers.Cache,
	}).Info("screener configured")

	return screener.NewOrchestrator(orchestratorCfg)
}

func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("run.WriteDefaultConfig: %s already exists", path)
	}

	return eventmodels.NewDefaultScreenerConfig().Write(path)
}
