package strategy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"scraper/internal/domain"
)

// Sentinel errors for the failure taxonomy. The orchestrator treats them
// all as attempt failures; they exist for logging and metrics labels.
var (
	ErrBadStatus        = errors.New("unexpected response status")
	ErrNavigationFailed = errors.New("browser navigation failed")
)

// Fetcher retrieves the rendered content of a URL. Every strategy variant
// satisfies the same contract so the policy can select among them without
// special-casing.
type Fetcher interface {
	ID() domain.StrategyID
	Fetch(ctx context.Context, rawURL string) (*domain.FetchResult, error)
}

// Set maps strategy IDs to their implementations.
type Set map[domain.StrategyID]Fetcher

// NewSet registers the full closed set of strategies.
func NewSet(plain *PlainRequest, rotated *RotatedRequest, rendered *RenderedBrowser, hardened *HardenedBrowser) Set {
	return Set{
		plain.ID():    plain,
		rotated.ID():  rotated,
		rendered.ID(): rendered,
		hardened.ID(): hardened,
	}
}

// sleepCtx pauses for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// doGet issues a GET with the supplied headers and returns the body and the
// final URL after redirects. Non-2xx responses are failures.
func doGet(ctx context.Context, client *http.Client, rawURL string, headers map[string]string) (*domain.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d for %s", ErrBadStatus, resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", rawURL, err)
	}

	return &domain.FetchResult{
		RawContent: string(body),
		FinalURL:   resp.Request.URL.String(),
	}, nil
}
