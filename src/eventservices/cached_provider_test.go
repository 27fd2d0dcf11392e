package eventservices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/options-screener/src/eventmodels"
)

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) Name() string {
	return "counting"
}

func (p *countingProvider) FetchPutChain(ctx context.Context, req eventmodels.ChainRequest) (*eventmodels.OptionChain, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}

	return &eventmodels.OptionChain{
		Symbol:          req.Symbol,
		UnderlyingPrice: 100,
		Source:          p.Name(),
		Quotes: []eventmodels.OptionQuote{
			{ContractSymbol: "X240322P00090000", Strike: 90, Greeks: &eventmodels.Greeks{Delta: -0.1}},
		},
	}, nil
}

func TestCachedProvider(t *testing.T) {
	now := time.Date(2024, time.March, 1, 15, 0, 0, 0, time.UTC)
	req := eventmodels.ChainRequest{Symbol: "X", MinDTE: 15, MaxDTE: 45, Now: now}

	t.Run("serves repeat requests from the cache", func(t *testing.T) {
		// arrange
		inner := &countingProvider{}
		p := NewCachedProvider(inner, NewMemoryChainCache(time.Minute), time.Minute, time.UTC)

		// act
		first, err := p.FetchPutChain(context.Background(), req)
		require.NoError(t, err)
		first.Quotes[0].Greeks.Delta = -0.9

		second, err := p.FetchPutChain(context.Background(), req)

		// assert
		require.NoError(t, err)
		assert.Equal(t, 1, inner.calls)
		assert.Equal(t, -0.1, second.Quotes[0].Greeks.Delta)
		assert.Equal(t, "counting", p.Name())
	})

	t.Run("different windows are cached separately", func(t *testing.T) {
		inner := &countingProvider{}
		p := NewCachedProvider(inner, NewMemoryChainCache(time.Minute), time.Minute, time.UTC)

		_, err := p.FetchPutChain(context.Background(), req)
		require.NoError(t, err)

		other := req
		other.MaxDTE = 60
		_, err = p.FetchPutChain(context.Background(), other)
		require.NoError(t, err)

		assert.Equal(t, 2, inner.calls)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		inner := &countingProvider{err: errors.New("down")}
		p := NewCachedProvider(inner, NewMemoryChainCache(time.Minute), time.Minute, time.UTC)

		_, err := p.FetchPutChain(context.Background(), req)
		assert.Error(t, err)

		_, err = p.FetchPutChain(context.Background(), req)
		assert.Error(t, err)
		assert.Equal(t, 2, inner.calls)
	})

	t.Run("unreachable redis falls through to the provider", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
		defer client.Close()

		inner := &countingProvider{}
		p := NewCachedProvider(inner, NewRedisChainCache(client), time.Minute, time.UTC)

		chain, err := p.FetchPutChain(context.Background(), req)

		require.NoError(t, err)
		assert.Len(t, chain.Quotes, 1)
		assert.Equal(t, 1, inner.calls)
	})
}

func TestNewChainCache(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		c, err := NewChainCache("none", "", time.Minute)
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("memory", func(t *testing.T) {
		c, err := NewChainCache("memory", "", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "memory", c.Name())
	})

	t.Run("redis requires an address", func(t *testing.T) {
		_, err := NewChainCache("redis", "", time.Minute)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewChainCache("memcached", "", time.Minute)
		assert.Error(t, err)
	})
}
