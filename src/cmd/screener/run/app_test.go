package run

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/options-screener/src/eventmodels"
	"github.com/jiaming2012/options-screener/src/eventservices"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		cfg, err := LoadConfig("", Overrides{})

		require.NoError(t, err)
		assert.Equal(t, "polygon", cfg.Providers.Primary)
		assert.Equal(t, 15, cfg.OptionsStrategy.MinDTE)
	})

	t.Run("overrides replace file values", func(t *testing.T) {
		// arrange
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("providers:\n  primary: tradier\n"), 0644))
		secondary := ""

		// act
		cfg, err := LoadConfig(path, Overrides{Symbols: []string{"SPY"}, Secondary: &secondary})

		// assert
		require.NoError(t, err)
		assert.Equal(t, "tradier", cfg.Providers.Primary)
		assert.Equal(t, "", cfg.Providers.Secondary)
		assert.Equal(t, []string{"SPY"}, cfg.Data.Symbols)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), Overrides{})
		assert.Error(t, err)
	})
}

func TestNewOrchestrator(t *testing.T) {
	t.Run("yahoo needs no credentials", func(t *testing.T) {
		cfg := eventmodels.NewDefaultScreenerConfig()
		cfg.Providers.Primary = "yahoo"
		cfg.Providers.Secondary = ""

		o, err := NewOrchestrator(cfg, eventservices.ProviderCredentials{}, nil)

		require.NoError(t, err)
		assert.NotNil(t, o)
	})

	t.Run("secondary without credentials is skipped", func(t *testing.T) {
		cfg := eventmodels.NewDefaultScreenerConfig()
		cfg.Providers.Primary = "yahoo"
		cfg.Providers.Secondary = "tradier"

		_, err := NewOrchestrator(cfg, eventservices.ProviderCredentials{}, nil)

		assert.NoError(t, err)
	})

	t.Run("primary without credentials fails", func(t *testing.T) {
		cfg := eventmodels.NewDefaultScreenerConfig()

		_, err := NewOrchestrator(cfg, eventservices.ProviderCredentials{}, nil)

		assert.Error(t, err)
	})

	t.Run("no primary", func(t *testing.T) {
		cfg := eventmodels.NewDefaultScreenerConfig()
		cfg.Providers.Primary = ""

		_, err := NewOrchestrator(cfg, eventservices.ProviderCredentials{}, nil)

		assert.ErrorIs(t, err, eventmodels.ErrNoProvider)
	})
}

func TestNewNewsProvider(t *testing.T) {
	t.Run("disabled without a polygon key", func(t *testing.T) {
		news, err := NewNewsProvider(eventmodels.NewDefaultScreenerConfig(), eventservices.ProviderCredentials{})

		require.NoError(t, err)
		assert.Nil(t, news)
	})

	t.Run("polygon key enables news", func(t *testing.T) {
		news, err := NewNewsProvider(eventmodels.NewDefaultScreenerConfig(), eventservices.ProviderCredentials{PolygonApiKey: "key"})

		require.NoError(t, err)
		assert.IsType(t, &eventservices.PolygonProvider{}, news)
	})
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))
	assert.Error(t, WriteDefaultConfig(path))

	cfg, err := eventmodels.LoadScreenerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, eventmodels.NewDefaultScreenerConfig(), cfg)
}
