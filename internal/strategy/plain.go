package strategy

import (
	"context"
	"net/http"
	"time"

	"scraper/internal/domain"
	"scraper/internal/identity"
)

// PlainRequest is the cheapest strategy: a single GET with a fixed desktop
// identity and a fixed timeout.
type PlainRequest struct {
	client *http.Client
}

func NewPlainRequest(timeout time.Duration) *PlainRequest {
	return &PlainRequest{
		client: &http.Client{Timeout: timeout},
	}
}

func (s *PlainRequest) ID() domain.StrategyID { return domain.StrategyPlainRequest }

func (s *PlainRequest) Fetch(ctx context.Context, rawURL string) (*domain.FetchResult, error) {
	return doGet(ctx, s.client, rawURL, map[string]string{
		"User-Agent": identity.DefaultUserAgent,
	})
}
