package memory

import (
	"sync"

	"scraper/internal/domain"
)

// Snapshot is a read-only copy of one host's strategy track record,
// safe to hand to the policy without holding the store lock.
type Snapshot struct {
	Successful []domain.StrategyID
	Failed     []domain.StrategyID
}

type record struct {
	successful map[domain.StrategyID]struct{}
	failed     map[domain.StrategyID]struct{}
}

// Store keeps a per-host record of which fetch strategies have succeeded
// or failed. It lives for the process lifetime and is shared across all
// crawls, so all access is mutex-guarded.
type Store struct {
	mu      sync.RWMutex
	domains map[string]*record
}

func NewStore() *Store {
	return &Store{domains: make(map[string]*record)}
}

// Record updates the host's memory after one attempt. A success removes the
// strategy from the failed set: the most recent evidence wins.
func (s *Store) Record(host string, strategy domain.StrategyID, succeeded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.domains[host]
	if !ok {
		rec = &record{
			successful: make(map[domain.StrategyID]struct{}),
			failed:     make(map[domain.StrategyID]struct{}),
		}
		s.domains[host] = rec
	}

	if succeeded {
		rec.successful[strategy] = struct{}{}
		delete(rec.failed, strategy)
	} else {
		rec.failed[strategy] = struct{}{}
	}
}

// Successful returns the strategies that have ever succeeded for the host,
// empty if the host is unseen.
func (s *Store) Successful(host string) []domain.StrategyID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.domains[host]
	if !ok {
		return nil
	}
	return orderedMembers(rec.successful)
}

// Failed returns the strategies that have ever failed (and not since
// succeeded) for the host, empty if the host is unseen.
func (s *Store) Failed(host string) []domain.StrategyID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.domains[host]
	if !ok {
		return nil
	}
	return orderedMembers(rec.failed)
}

// View returns a snapshot of both sets for the host.
func (s *Store) View(host string) Snapshot {
	return Snapshot{
		Successful: s.Successful(host),
		Failed:     s.Failed(host),
	}
}

// orderedMembers returns set members in strategy-cost order so callers and
// logs see a stable listing.
func orderedMembers(set map[domain.StrategyID]struct{}) []domain.StrategyID {
	out := make([]domain.StrategyID, 0, len(set))
	for _, id := range domain.StrategyOrder {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
