package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"scraper/internal/domain"
	"scraper/internal/extract"
	"scraper/internal/memory"
	"scraper/internal/monitoring"
	"scraper/internal/policy"
	"scraper/internal/strategy"
)

// ErrExhausted means every attempt within the cap failed for a URL.
var ErrExhausted = errors.New("all strategies failed")

// errEmptyContent marks a fetch that technically succeeded but returned
// nothing worth extracting.
var errEmptyContent = errors.New("fetch returned empty content")

// Orchestrator drives the retry/escalation loop for one URL at a time:
// ask the policy, execute the strategy, extract, and learn from the result.
// Failures of any kind count uniformly as attempt failures.
type Orchestrator struct {
	policy      policy.Chooser
	strategies  strategy.Set
	memory      *memory.Store
	extractor   extract.Oracle
	metrics     *monitoring.Metrics
	logger      *zap.Logger
	maxAttempts int
}

func New(chooser policy.Chooser, strategies strategy.Set, mem *memory.Store, extractor extract.Oracle,
	metrics *monitoring.Metrics, logger *zap.Logger, maxAttempts int) *Orchestrator {
	return &Orchestrator{
		policy:      chooser,
		strategies:  strategies,
		memory:      mem,
		extractor:   extractor,
		metrics:     metrics,
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// ProcessURL runs the bounded retry loop for one URL. On success it returns
// the extracted items; when all attempts fail it returns an empty slice and
// ErrExhausted. Nothing here is fatal to the overall crawl.
func (o *Orchestrator) ProcessURL(ctx context.Context, rawURL string) ([]domain.ContentItem, error) {
	host := hostOf(rawURL)
	attempts := make([]domain.Attempt, 0, o.maxAttempts)

	for len(attempts) < o.maxAttempts {
		id := o.policy.Choose(ctx, rawURL, host, o.memory.View(host), attempts)
		fetcher, ok := o.strategies[id]
		if !ok {
			// The policy contract makes this unreachable; guard anyway.
			id = domain.StrategyRenderedBrowser
			fetcher = o.strategies[id]
		}

		o.logger.Info("attempting fetch",
			zap.String("url", rawURL),
			zap.String("strategy", string(id)),
			zap.Int("attempt", len(attempts)+1))

		items, err := o.attempt(ctx, fetcher, rawURL)
		if err == nil && len(items) > 0 {
			o.memory.Record(host, id, true)
			o.metrics.IncAttempt(string(id), "success")
			o.logger.Info("fetch succeeded",
				zap.String("url", rawURL),
				zap.String("strategy", string(id)),
				zap.Int("items", len(items)))
			return items, nil
		}
		if err == nil {
			err = errEmptyContent
		}

		o.memory.Record(host, id, false)
		o.metrics.IncAttempt(string(id), "failure")
		attempts = append(attempts, domain.Attempt{
			Strategy:  id,
			Succeeded: false,
			Ordinal:   len(attempts) + 1,
		})
		o.logger.Warn("attempt failed",
			zap.String("url", rawURL),
			zap.String("strategy", string(id)),
			zap.Int("attempt", len(attempts)),
			zap.Error(err))
	}

	return []domain.ContentItem{}, fmt.Errorf("%w for %s after %d attempts", ErrExhausted, rawURL, len(attempts))
}

// attempt executes one strategy and hands its content to the extraction
// oracle. Strategies that return pre-built items short-circuit extraction.
func (o *Orchestrator) attempt(ctx context.Context, fetcher strategy.Fetcher, rawURL string) ([]domain.ContentItem, error) {
	res, err := fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if len(res.Items) > 0 {
		return res.Items, nil
	}
	if res.RawContent == "" {
		return nil, errEmptyContent
	}

	sourceURL := res.FinalURL
	if sourceURL == "" {
		sourceURL = rawURL
	}
	return o.extractor.Extract(ctx, res.RawContent, sourceURL)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	return u.Host
}
