package eventmodels

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type DataConfigYAML struct {
	Symbols []string `yaml:"symbols"`
}

type OptionsStrategyYAML struct {
	MinDTE          int   `yaml:"min_dte"`
	MaxDTE          int   `yaml:"max_dte"`
	MinVolume       int64 `yaml:"min_volume"`
	MinOpenInterest int64 `yaml:"min_open_interest"`
}

type ScreeningCriteriaYAML struct {
	MinAnnualizedReturn      float64 `yaml:"min_annualized_return"`
	MinAssignmentProbability float64 `yaml:"min_assignment_probability"`
	MaxAssignmentProbability float64 `yaml:"max_assignment_probability"`
	RequireOutOfTheMoney     bool    `yaml:"require_out_of_the_money"`
}

type OutputYAML struct {
	SortBy     string `yaml:"sort_by"`
	SortOrder  string `yaml:"sort_order"`
	MaxResults int    `yaml:"max_results"`
	MaxSymbols int    `yaml:"max_symbols"`
}

type ProvidersYAML struct {
	Primary    string        `yaml:"primary"`
	Secondary  string        `yaml:"secondary"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxWorkers int           `yaml:"max_workers"`
	Cache      string        `yaml:"cache"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

type PricingYAML struct {
	RiskFreeRate      float64 `yaml:"risk_free_rate"`
	DefaultVolatility float64 `yaml:"default_volatility"`
	Timezone          string  `yaml:"timezone"`
}

type ServerYAML struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type ScreenerConfigYAML struct {
	Data              DataConfigYAML        `yaml:"data"`
	OptionsStrategy   OptionsStrategyYAML   `yaml:"options_strategy"`
	ScreeningCriteria ScreeningCriteriaYAML `yaml:"screening_criteria"`
	Output            OutputYAML            `yaml:"output"`
	Providers         ProvidersYAML         `yaml:"providers"`
	Pricing           PricingYAML           `yaml:"pricing"`
	Server            ServerYAML            `yaml:"server"`
}

func NewDefaultScreenerConfig() *ScreenerConfigYAML {
	return &ScreenerConfigYAML{
		Data: DataConfigYAML{
			Symbols: []string{"AAPL", "MSFT", "GOOGL", "SPY", "QQQ", "TSLA", "APP", "IBIT", "PLTR",
				"AVGO", "MSTR", "COIN", "SVXY", "NVDA", "AMD", "INTC", "META"},
		},
		OptionsStrategy: OptionsStrategyYAML{
			MinDTE:          15,
			MaxDTE:          45,
			MinVolume:       10,
			MinOpenInterest: 10,
		},
		ScreeningCriteria: ScreeningCriteriaYAML{
			MinAnnualizedReturn:      20,
			MinAssignmentProbability: 10,
			MaxAssignmentProbability: 30,
			RequireOutOfTheMoney:     true,
		},
		Output: OutputYAML{
			SortBy:     string(SortByAnnualizedReturn),
			SortOrder:  string(SortOrderDescending),
			MaxResults: 50,
			MaxSymbols: DefaultMaxSymbols,
		},
		Providers: ProvidersYAML{
			Primary:    "polygon",
			Secondary:  "yahoo",
			Timeout:    15 * time.Second,
			MaxWorkers: 4,
			Cache:      "memory",
			CacheTTL:   5 * time.Minute,
		},
		Pricing: PricingYAML{
			RiskFreeRate:      0.05,
			DefaultVolatility: 0.25,
			Timezone:          "America/New_York",
		},
		Server: ServerYAML{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
	}
}

// LoadScreenerConfig reads path over the defaults, so a partial file only overrides what it names.
func LoadScreenerConfig(path string) (*ScreenerConfigYAML, error) {
	cfg := NewDefaultScreenerConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadScreenerConfig: failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("LoadScreenerConfig: failed to unmarshal %s: %w", path, err)
	}

	return cfg, nil
}

func (c *ScreenerConfigYAML) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("ScreenerConfigYAML: failed to marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("ScreenerConfigYAML: failed to write %s: %w", path, err)
	}

	return nil
}

func (c *ScreenerConfigYAML) Location() (*time.Location, error) {
	if c.Pricing.Timezone == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(c.Pricing.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ScreenerConfigYAML: failed to load timezone %s: %w", c.Pricing.Timezone, err)
	}

	return loc, nil
}

// DefaultRequest builds the screening request described by the config file.
func (c *ScreenerConfigYAML) DefaultRequest() ScreeningRequest {
	return ScreeningRequest{
		Symbols:                  ParseStockSymbols(c.Data.Symbols...),
		MinDTE:                   c.OptionsStrategy.MinDTE,
		MaxDTE:                   c.OptionsStrategy.MaxDTE,
		MinVolume:                c.OptionsStrategy.MinVolume,
		MinOpenInterest:          c.OptionsStrategy.MinOpenInterest,
		MinAnnualizedReturn:      c.ScreeningCriteria.MinAnnualizedReturn,
		MinAssignmentProbability: c.ScreeningCriteria.MinAssignmentProbability,
		MaxAssignmentProbability: c.ScreeningCriteria.MaxAssignmentProbability,
		RequireOutOfTheMoney:     c.ScreeningCriteria.RequireOutOfTheMoney,
		SortBy:                   SortField(c.Output.SortBy),
		SortOrder:                SortOrder(c.Output.SortOrder),
		MaxResults:               c.Output.MaxResults,
	}
}
