package screener

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/jiaming2012/options-screener/src/eventmodels"
	"github.com/jiaming2012/options-screener/src/eventpubsub"
	"github.com/jiaming2012/options-screener/src/eventservices"
	"github.com/jiaming2012/options-screener/src/metrics"
)

const (
	DefaultMaxWorkers        = 4
	DefaultProviderTimeout   = 15 * time.Second
	DefaultRiskFreeRate      = 0.05
	DefaultDefaultVolatility = 0.25
)

type Publisher interface {
	Publish(topic string, event interface{})
}

type Config struct {
	Primary           eventservices.OptionChainProvider
	Secondary         eventservices.OptionChainProvider
	MaxWorkers        int
	MaxSymbols        int
	ProviderTimeout   time.Duration
	RiskFreeRate      float64
	DefaultVolatility float64
	Clock             func() time.Time
	Location          *time.Location
	Publisher         Publisher
}

type Orchestrator struct {
	cfg Config
}

func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Primary == nil {
		return nil, fmt.Errorf("NewOrchestrator: %w", eventmodels.ErrNoProvider)
	}

	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}

	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}

	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = DefaultRiskFreeRate
	}

	if cfg.DefaultVolatility <= 0 {
		cfg.DefaultVolatility = DefaultDefaultVolatility
	}

	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &Orchestrator{cfg: cfg}, nil
}

type chainOutcome struct {
	chain        *eventmodels.OptionChain
	usedFallback bool
}

// Screen runs req against every symbol. Per-symbol failures are recorded in
// the result; the returned error is reserved for an invalid request.
func (o *Orchestrator) Screen(ctx context.Context, req eventmodels.ScreeningRequest) (*eventmodels.ScreeningResult, error) {
	if err := req.Validate(o.cfg.MaxSymbols); err != nil {
		return nil, fmt.Errorf("Orchestrator.Screen: %w", err)
	}

	ctx, span := otel.Tracer("screener").Start(ctx, "Orchestrator.Screen")
	defer span.End()

	now := o.cfg.Clock()
	result := eventmodels.NewScreeningResult(req, now)
	logger := log.WithContext(ctx).WithField("run", result.ID)

	span.SetAttributes(attribute.String("run.id", result.ID.String()), attribute.Int("symbols", len(req.Symbols)))
	logger.Infof("screening %d symbols", len(req.Symbols))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(o.cfg.MaxWorkers)

	for _, symbol := range req.Symbols {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				result.Errors[symbol] = err.Error()
				metrics.SymbolErrors.Inc()
				mu.Unlock()
				return nil
			}

			res, err := o.screenSymbol(ctx, &req, symbol, now)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				logger.WithField("symbol", symbol).Warnf("screening failed: %v", err)
				result.Errors[symbol] = err.Error()
				metrics.SymbolErrors.Inc()
				return nil
			}

			result.Results[symbol] = res
			if res.UsedFallback {
				result.UsedFallback = true
				metrics.Fallbacks.Inc()
			}
			metrics.SymbolsScreened.Inc()
			return nil
		})
	}

	_ = g.Wait()

	result.CompletedAt = o.cfg.Clock()

	metrics.ScreeningRuns.Inc()
	metrics.ScreeningDuration.Observe(result.CompletedAt.Sub(now).Seconds())

	span.SetAttributes(attribute.Int("errors", len(result.Errors)), attribute.Bool("used_fallback", result.UsedFallback))
	if len(result.Errors) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d symbols failed", len(result.Errors)))
	}

	logger.Infof("screened %d symbols (%d errors), %d quotes qualified", len(result.Results), len(result.Errors), result.TotalQuotes())

	if o.cfg.Publisher != nil {
		o.cfg.Publisher.Publish(eventpubsub.ScreeningCompletedEvent, eventmodels.NewScreeningCompletedEvent(result))
	}

	return result, nil
}

func (o *Orchestrator) screenSymbol(parent context.Context, req *eventmodels.ScreeningRequest, symbol eventmodels.StockSymbol, now time.Time) (*eventmodels.SymbolResult, error) {
	// in-flight symbols are not interrupted by the caller; each provider call carries its own timeout
	ctx, span := otel.Tracer("screener").Start(context.WithoutCancel(parent), "Orchestrator.screenSymbol")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", string(symbol)))

	chainReq := req.ChainRequest(symbol)
	chainReq.Now = now

	outcome, err := o.fetchChain(ctx, chainReq)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s := &scorer{
		now:               now,
		loc:               o.cfg.Location,
		riskFreeRate:      o.cfg.RiskFreeRate,
		defaultVolatility: o.cfg.DefaultVolatility,
	}

	scored, unscorable := s.scoreChain(outcome.chain)
	metrics.UnscorableQuotes.Add(float64(unscorable))

	quotes := Apply(scored, req)

	span.SetAttributes(attribute.Int("scanned", len(outcome.chain.Quotes)), attribute.Int("qualified", len(quotes)))

	return &eventmodels.SymbolResult{
		Symbol:          symbol,
		UnderlyingPrice: outcome.chain.UnderlyingPrice,
		Source:          outcome.chain.Source,
		UsedFallback:    outcome.usedFallback,
		Scanned:         len(outcome.chain.Quotes),
		Unscorable:      unscorable,
		Quotes:          quotes,
		Summary:         summarize(quotes),
	}, nil
}

func (o *Orchestrator) fetch(parent context.Context, provider eventservices.OptionChainProvider, req eventmodels.ChainRequest) (*eventmodels.OptionChain, error) {
	ctx, cancel := context.WithTimeout(parent, o.cfg.ProviderTimeout)
	defer cancel()

	start := time.Now()
	chain, err := provider.FetchPutChain(ctx, req)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ProviderLatency.WithLabelValues(provider.Name(), status).Observe(time.Since(start).Seconds())

	if err == nil && chain == nil {
		err = fmt.Errorf("%s: returned no chain", provider.Name())
	}

	return chain, err
}

// fetchChain applies the fallback policy. The secondary provider is consulted
// when the primary fails, returns no contracts, or leaves any contract without
// a delta. Missing deltas in whichever chain is kept are modeled locally.
func (o *Orchestrator) fetchChain(ctx context.Context, req eventmodels.ChainRequest) (*chainOutcome, error) {
	logger := log.WithContext(ctx).WithField("symbol", req.Symbol)

	primary, primaryErr := o.fetch(ctx, o.cfg.Primary, req)
	if primaryErr == nil && len(primary.Quotes) > 0 && primary.MissingDeltaCount() == 0 {
		return &chainOutcome{chain: primary}, nil
	}

	switch {
	case primaryErr != nil:
		logger.Warnf("primary provider %s failed: %v", o.cfg.Primary.Name(), primaryErr)
	case len(primary.Quotes) == 0:
		logger.Infof("primary provider %s returned no contracts", o.cfg.Primary.Name())
	default:
		logger.Infof("primary provider %s omitted delta on %d of %d contracts", o.cfg.Primary.Name(), primary.MissingDeltaCount(), len(primary.Quotes))
	}

	if o.cfg.Secondary == nil {
		if primaryErr != nil {
			return nil, primaryErr
		}
		return &chainOutcome{chain: primary}, nil
	}

	secondary, secondaryErr := o.fetch(ctx, o.cfg.Secondary, req)
	if secondaryErr == nil {
		if len(secondary.Quotes) == 0 && primaryErr == nil && len(primary.Quotes) > 0 {
			logger.Infof("secondary provider %s returned no contracts, keeping primary chain", o.cfg.Secondary.Name())
			return &chainOutcome{chain: primary}, nil
		}

		return &chainOutcome{chain: secondary, usedFallback: true}, nil
	}

	if primaryErr == nil {
		logger.Warnf("secondary provider %s failed, keeping primary chain: %v", o.cfg.Secondary.Name(), secondaryErr)
		return &chainOutcome{chain: primary}, nil
	}

	return nil, errors.Join(primaryErr, secondaryErr)
}
