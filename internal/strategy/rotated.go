package strategy

import (
	"context"
	"net/http"
	"time"

	"scraper/internal/domain"
	"scraper/internal/identity"
)

// RotatedRequest GETs with a randomized identity, a richer header set and a
// 2-4s pre-request delay to emulate human pacing. The delay is per-attempt,
// never shared across URLs.
type RotatedRequest struct {
	client *http.Client
	pool   *identity.Pool
}

func NewRotatedRequest(timeout time.Duration, pool *identity.Pool) *RotatedRequest {
	return &RotatedRequest{
		client: &http.Client{Timeout: timeout},
		pool:   pool,
	}
}

func (s *RotatedRequest) ID() domain.StrategyID { return domain.StrategyRotatedRequest }

func (s *RotatedRequest) Fetch(ctx context.Context, rawURL string) (*domain.FetchResult, error) {
	delay := 2*time.Second + time.Duration(s.pool.Jitter()*float64(2*time.Second))
	if err := sleepCtx(ctx, delay); err != nil {
		return nil, err
	}
	return doGet(ctx, s.client, rawURL, s.pool.Headers())
}
