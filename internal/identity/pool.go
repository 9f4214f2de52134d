package identity

import (
	"math/rand"
	"sync"
)

// DefaultUserAgent is the fixed desktop identity used when no rotation is
// wanted (plain requests, robots/sitemap fetches).
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36"

// Pool hands out randomized browser identities for the rotated strategy.
type Pool struct {
	userAgents []string
	mu         sync.Mutex
	rng        *rand.Rand
}

func NewPool(seed int64) *Pool {
	// In production, load these from config or a remote service
	return &Pool{
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36",
		},
		rng: rand.New(rand.NewSource(seed)),
	}
}

// UserAgent returns a user agent string chosen uniformly at random.
func (p *Pool) UserAgent() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userAgents[p.rng.Intn(len(p.userAgents))]
}

// Headers returns the richer header set sent alongside a rotated identity.
// Accept-Encoding is left to the transport, which negotiates gzip and
// decompresses the body before it reaches the extraction pipeline.
func (p *Pool) Headers() map[string]string {
	return map[string]string{
		"User-Agent":                p.UserAgent(),
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
	}
}

// Jitter returns a random duration fraction in [0, 1) used by strategies to
// stagger their pre-request delays.
func (p *Pool) Jitter() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}
