package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scraper/internal/domain"
	"scraper/internal/memory"
	"scraper/internal/monitoring"
	"scraper/internal/policy"
	"scraper/internal/strategy"
)

// stubFetcher fails or succeeds on command and records its invocations.
type stubFetcher struct {
	id     domain.StrategyID
	result *domain.FetchResult
	err    error
	calls  int
}

func (f *stubFetcher) ID() domain.StrategyID { return f.id }

func (f *stubFetcher) Fetch(ctx context.Context, rawURL string) (*domain.FetchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// stubExtractor returns a fixed item per call, or an error.
type stubExtractor struct {
	items []domain.ContentItem
	err   error
	calls int
}

func (e *stubExtractor) Extract(ctx context.Context, rawContent, sourceURL string) ([]domain.ContentItem, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.items, nil
}

func newStubSet(results map[domain.StrategyID]*stubFetcher) strategy.Set {
	set := strategy.Set{}
	for id, f := range results {
		f.id = id
		set[id] = f
	}
	return set
}

func newOrchestrator(set strategy.Set, mem *memory.Store, ex *stubExtractor) *Orchestrator {
	m := monitoring.NewMetricsWith(prometheus.NewRegistry())
	return New(policy.Heuristic{}, set, mem, ex, m, zap.NewNop(), 3)
}

func TestEscalationSucceedsOnThirdStrategy(t *testing.T) {
	transportErr := errors.New("connection refused")
	set := newStubSet(map[domain.StrategyID]*stubFetcher{
		domain.StrategyPlainRequest:    {err: transportErr},
		domain.StrategyRotatedRequest:  {err: transportErr},
		domain.StrategyRenderedBrowser: {result: &domain.FetchResult{RawContent: "<html>content</html>"}},
		domain.StrategyHardenedBrowser: {err: transportErr},
	})
	ex := &stubExtractor{items: []domain.ContentItem{
		{Title: "One", SourceURL: "https://example.com/post"},
		{Title: "Two", SourceURL: "https://example.com/post"},
	}}
	mem := memory.NewStore()

	items, err := newOrchestrator(set, mem, ex).ProcessURL(context.Background(), "https://example.com/post")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	assert.Contains(t, mem.Successful("example.com"), domain.StrategyRenderedBrowser)
	assert.Contains(t, mem.Failed("example.com"), domain.StrategyPlainRequest)
	assert.Contains(t, mem.Failed("example.com"), domain.StrategyRotatedRequest)
}

func TestExhaustionAfterThreeAttempts(t *testing.T) {
	transportErr := errors.New("connection refused")
	set := newStubSet(map[domain.StrategyID]*stubFetcher{
		domain.StrategyPlainRequest:    {err: transportErr},
		domain.StrategyRotatedRequest:  {err: transportErr},
		domain.StrategyRenderedBrowser: {err: transportErr},
		domain.StrategyHardenedBrowser: {err: transportErr},
	})
	ex := &stubExtractor{}
	mem := memory.NewStore()

	items, err := newOrchestrator(set, mem, ex).ProcessURL(context.Background(), "https://example.com/post")
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Empty(t, items)

	// Bounded to 3 attempts: exactly 3 strategies carry a failure record.
	assert.Len(t, mem.Failed("example.com"), 3)

	total := 0
	for _, f := range set {
		sf := f.(*stubFetcher)
		assert.LessOrEqual(t, sf.calls, 1, "strategy %s repeated while untried strategies remained", sf.id)
		total += sf.calls
	}
	assert.Equal(t, 3, total)
}

func TestEmptyExtractionCountsAsFailure(t *testing.T) {
	set := newStubSet(map[domain.StrategyID]*stubFetcher{
		domain.StrategyPlainRequest:    {result: &domain.FetchResult{RawContent: "<html>thin</html>"}},
		domain.StrategyRotatedRequest:  {result: &domain.FetchResult{RawContent: "<html>thin</html>"}},
		domain.StrategyRenderedBrowser: {result: &domain.FetchResult{RawContent: "<html>thin</html>"}},
		domain.StrategyHardenedBrowser: {result: &domain.FetchResult{RawContent: "<html>thin</html>"}},
	})
	ex := &stubExtractor{err: errors.New("content too short")}
	mem := memory.NewStore()

	_, err := newOrchestrator(set, mem, ex).ProcessURL(context.Background(), "https://example.com/post")
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 3, ex.calls)
}

func TestPrebuiltItemsShortCircuitExtraction(t *testing.T) {
	prebuilt := []domain.ContentItem{{Title: "Acme", SourceURL: "https://example.com/guides/acme"}}
	set := newStubSet(map[domain.StrategyID]*stubFetcher{
		domain.StrategyPlainRequest:    {result: &domain.FetchResult{Items: prebuilt}},
		domain.StrategyRotatedRequest:  {err: errors.New("unused")},
		domain.StrategyRenderedBrowser: {err: errors.New("unused")},
		domain.StrategyHardenedBrowser: {err: errors.New("unused")},
	})
	ex := &stubExtractor{}
	mem := memory.NewStore()

	items, err := newOrchestrator(set, mem, ex).ProcessURL(context.Background(), "https://example.com/guides")
	require.NoError(t, err)
	assert.Equal(t, prebuilt, items)
	assert.Zero(t, ex.calls, "extraction oracle must be bypassed for pre-built items")
	assert.Contains(t, mem.Successful("example.com"), domain.StrategyPlainRequest)
}

func TestEmptyFetchContentIsFailure(t *testing.T) {
	set := newStubSet(map[domain.StrategyID]*stubFetcher{
		domain.StrategyPlainRequest:    {result: &domain.FetchResult{}},
		domain.StrategyRotatedRequest:  {result: &domain.FetchResult{}},
		domain.StrategyRenderedBrowser: {result: &domain.FetchResult{}},
		domain.StrategyHardenedBrowser: {result: &domain.FetchResult{}},
	})
	ex := &stubExtractor{}
	mem := memory.NewStore()

	_, err := newOrchestrator(set, mem, ex).ProcessURL(context.Background(), "https://example.com/post")
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Zero(t, ex.calls)
}
