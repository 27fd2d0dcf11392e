package eventservices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/options-screener/src/eventmodels"
	"github.com/jiaming2012/options-screener/src/metrics"
	"github.com/jiaming2012/options-screener/src/utils"
)

const DefaultChainCacheTTL = 5 * time.Minute

type ChainCache interface {
	Name() string
	Get(ctx context.Context, key string) (*eventmodels.OptionChain, error)
	Set(ctx context.Context, key string, chain *eventmodels.OptionChain, ttl time.Duration) error
}

const (
	ChainCacheNone   = "none"
	ChainCacheMemory = "memory"
	ChainCacheRedis  = "redis"
)

// NewChainCache returns nil when caching is disabled.
func NewChainCache(backend string, redisAddr string, ttl time.Duration) (ChainCache, error) {
	switch backend {
	case "", ChainCacheNone:
		return nil, nil
	case ChainCacheMemory:
		return NewMemoryChainCache(ttl), nil
	case ChainCacheRedis:
		if redisAddr == "" {
			return nil, fmt.Errorf("NewChainCache: redis backend requires REDIS_ADDR")
		}

		return NewRedisChainCache(redis.NewClient(&redis.Options{Addr: redisAddr})), nil
	}

	return nil, fmt.Errorf("NewChainCache: unknown cache backend %q", backend)
}

type MemoryChainCache struct {
	cache *cache.Cache
}

func NewMemoryChainCache(ttl time.Duration) *MemoryChainCache {
	return &MemoryChainCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *MemoryChainCache) Name() string {
	return "memory"
}

func (c *MemoryChainCache) Get(ctx context.Context, key string) (*eventmodels.OptionChain, error) {
	item, found := c.cache.Get(key)
	if !found {
		return nil, eventmodels.ErrCacheMiss
	}

	return item.(*eventmodels.OptionChain), nil
}

func (c *MemoryChainCache) Set(ctx context.Context, key string, chain *eventmodels.OptionChain, ttl time.Duration) error {
	c.cache.Set(key, chain, ttl)
	return nil
}

type RedisChainCache struct {
	client *redis.Client
}

func NewRedisChainCache(client *redis.Client) *RedisChainCache {
	return &RedisChainCache{
		client: client,
	}
}

func (c *RedisChainCache) Name() string {
	return "redis"
}

func (c *RedisChainCache) Get(ctx context.Context, key string) (*eventmodels.OptionChain, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, eventmodels.ErrCacheMiss
	}

	if err != nil {
		return nil, fmt.Errorf("RedisChainCache: failed to get %s: %w", key, err)
	}

	var chain eventmodels.OptionChain
	if err := json.Unmarshal(data, &chain); err != nil {
		return nil, fmt.Errorf("RedisChainCache: failed to unmarshal %s: %w", key, err)
	}

	return &chain, nil
}

func (c *RedisChainCache) Set(ctx context.Context, key string, chain *eventmodels.OptionChain, ttl time.Duration) error {
	data, err := json.Marshal(chain)
	if err != nil {
		return fmt.Errorf("RedisChainCache: failed to marshal chain: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("RedisChainCache: failed to set %s: %w", key, err)
	}

	return nil
}

// CachedProvider memoizes chains per provider, symbol, DTE window and trading
// day. Cache failures are logged and fall through to the wrapped provider.
type CachedProvider struct {
	provider OptionChainProvider
	cache    ChainCache
	ttl      time.Duration
	loc      *time.Location
}

func NewCachedProvider(provider OptionChainProvider, chainCache ChainCache, ttl time.Duration, loc *time.Location) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultChainCacheTTL
	}

	return &CachedProvider{
		provider: provider,
		cache:    chainCache,
		ttl:      ttl,
		loc:      loc,
	}
}

func (p *CachedProvider) Name() string {
	return p.provider.Name()
}

func (p *CachedProvider) key(req eventmodels.ChainRequest) string {
	return fmt.Sprintf("chain:%s:%s:%d-%d:%s", p.provider.Name(), req.Symbol, req.MinDTE, req.MaxDTE, utils.TradingDay(req.Now, p.loc))
}

func (p *CachedProvider) FetchPutChain(ctx context.Context, req eventmodels.ChainRequest) (*eventmodels.OptionChain, error) {
	key := p.key(req)
	logger := log.WithContext(ctx).WithField("key", key)

	chain, err := p.cache.Get(ctx, key)
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues(p.cache.Name(), "hit").Inc()
		return copyChain(chain), nil
	case errors.Is(err, eventmodels.ErrCacheMiss):
		metrics.CacheLookups.WithLabelValues(p.cache.Name(), "miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues(p.cache.Name(), "error").Inc()
		logger.Warnf("CachedProvider: cache read failed: %v", err)
	}

	chain, err = p.provider.FetchPutChain(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, copyChain(chain), p.ttl); err != nil {
		logger.Warnf("CachedProvider: cache write failed: %v", err)
	}

	return chain, nil
}

// copyChain isolates cached chains from callers that score quotes in place.
func copyChain(chain *eventmodels.OptionChain) *eventmodels.OptionChain {
	copied := *chain
	copied.Quotes = make([]eventmodels.OptionQuote, len(chain.Quotes))
	for i, q := range chain.Quotes {
		if q.Greeks != nil {
			g := *q.Greeks
			q.Greeks = &g
		}
		copied.Quotes[i] = q
	}

	return &copied
}
