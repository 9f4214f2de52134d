package policy

import (
	"context"

	"scraper/internal/domain"
	"scraper/internal/memory"
)

// Chooser picks the next fetch strategy to try for a URL. The choice must
// be a total function of its inputs, must terminate, and must not repeat a
// strategy within one session's attempts while an untried one remains.
type Chooser interface {
	Choose(ctx context.Context, rawURL, host string, mem memory.Snapshot, attempts []domain.Attempt) domain.StrategyID
}

// Heuristic is the deterministic chooser: start at the cheapest strategy
// with a success track record for the host, otherwise the cheapest never
// remembered as failed, and escalate tier by tier as attempts accumulate.
type Heuristic struct{}

func (Heuristic) Choose(_ context.Context, _, _ string, mem memory.Snapshot, attempts []domain.Attempt) domain.StrategyID {
	tried := make(map[domain.StrategyID]bool, len(attempts))
	for _, a := range attempts {
		tried[a.Strategy] = true
	}

	successful := make(map[domain.StrategyID]bool, len(mem.Successful))
	for _, id := range mem.Successful {
		successful[id] = true
	}
	failed := make(map[domain.StrategyID]bool, len(mem.Failed))
	for _, id := range mem.Failed {
		failed[id] = true
	}

	// Cheapest untried strategy this host is known to accept.
	for _, id := range domain.StrategyOrder {
		if successful[id] && !tried[id] {
			return id
		}
	}
	// Cheapest untried strategy without a failure track record.
	for _, id := range domain.StrategyOrder {
		if !tried[id] && !failed[id] {
			return id
		}
	}
	// Everything left has failed before; escalate through it anyway.
	for _, id := range domain.StrategyOrder {
		if !tried[id] {
			return id
		}
	}
	// All variants tried: last resort.
	return domain.StrategyHardenedBrowser
}

// nextUntried returns the preferred strategy if it has not been attempted
// this session, falling back to the heuristic so the no-repeat contract
// holds regardless of oracle output quality.
func nextUntried(preferred domain.StrategyID, mem memory.Snapshot, attempts []domain.Attempt) domain.StrategyID {
	if !preferred.Valid() {
		preferred = domain.StrategyRenderedBrowser
	}
	tried := false
	for _, a := range attempts {
		if a.Strategy == preferred {
			tried = true
			break
		}
	}
	if !tried || len(attempts) >= len(domain.StrategyOrder) {
		return preferred
	}
	return Heuristic{}.Choose(context.Background(), "", "", mem, attempts)
}
