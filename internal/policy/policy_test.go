package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scraper/internal/domain"
	"scraper/internal/memory"
)

func TestHeuristicStartsCheapest(t *testing.T) {
	got := Heuristic{}.Choose(context.Background(), "https://example.com/x", "example.com", memory.Snapshot{}, nil)
	assert.Equal(t, domain.StrategyPlainRequest, got)
}

func TestHeuristicPrefersRememberedSuccess(t *testing.T) {
	mem := memory.Snapshot{Successful: []domain.StrategyID{domain.StrategyRenderedBrowser}}
	got := Heuristic{}.Choose(context.Background(), "https://example.com/x", "example.com", mem, nil)
	assert.Equal(t, domain.StrategyRenderedBrowser, got)
}

func TestHeuristicSkipsRememberedFailures(t *testing.T) {
	mem := memory.Snapshot{Failed: []domain.StrategyID{
		domain.StrategyPlainRequest,
		domain.StrategyRotatedRequest,
	}}
	got := Heuristic{}.Choose(context.Background(), "https://example.com/x", "example.com", mem, nil)
	assert.Equal(t, domain.StrategyRenderedBrowser, got)
}

func TestHeuristicNeverRepeatsWhileUntriedRemain(t *testing.T) {
	var attempts []domain.Attempt
	seen := make(map[domain.StrategyID]bool)

	for i := 0; i < len(domain.StrategyOrder); i++ {
		got := Heuristic{}.Choose(context.Background(), "https://example.com/x", "example.com", memory.Snapshot{}, attempts)
		require.False(t, seen[got], "strategy %s chosen twice while untried strategies remain", got)
		seen[got] = true
		attempts = append(attempts, domain.Attempt{Strategy: got, Ordinal: i + 1})
	}
	assert.Len(t, seen, len(domain.StrategyOrder))
}

func TestHeuristicEscalatesThroughRememberedFailures(t *testing.T) {
	// Every strategy has failed before; the heuristic must still terminate
	// and walk the full set rather than refuse to choose.
	mem := memory.Snapshot{Failed: domain.StrategyOrder}
	got := Heuristic{}.Choose(context.Background(), "https://example.com/x", "example.com", mem, nil)
	assert.Equal(t, domain.StrategyPlainRequest, got)
}

func TestHeuristicAllTried(t *testing.T) {
	attempts := make([]domain.Attempt, 0, len(domain.StrategyOrder))
	for i, id := range domain.StrategyOrder {
		attempts = append(attempts, domain.Attempt{Strategy: id, Ordinal: i + 1})
	}
	got := Heuristic{}.Choose(context.Background(), "https://example.com/x", "example.com", memory.Snapshot{}, attempts)
	assert.Equal(t, domain.StrategyHardenedBrowser, got)
}

func TestNextUntriedHonorsPreference(t *testing.T) {
	got := nextUntried(domain.StrategyHardenedBrowser, memory.Snapshot{}, nil)
	assert.Equal(t, domain.StrategyHardenedBrowser, got)
}

func TestNextUntriedRejectsRepeat(t *testing.T) {
	attempts := []domain.Attempt{{Strategy: domain.StrategyRenderedBrowser, Ordinal: 1}}
	got := nextUntried(domain.StrategyRenderedBrowser, memory.Snapshot{}, attempts)
	assert.NotEqual(t, domain.StrategyRenderedBrowser, got)
}

func TestNextUntriedRejectsUnknownStrategy(t *testing.T) {
	got := nextUntried(domain.StrategyID("carrier_pigeon"), memory.Snapshot{}, nil)
	assert.Equal(t, domain.StrategyRenderedBrowser, got)
}

func TestParseChoicePlain(t *testing.T) {
	c, err := parseChoice(`{"method": "rotated_request", "reasoning": "static site"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyRotatedRequest, c.Method)
	assert.Equal(t, "static site", c.Reasoning)
}

func TestParseChoiceFenced(t *testing.T) {
	answer := "```json\n{\"method\": \"hardened_browser\", \"reasoning\": \"bot protection\"}\n```"
	c, err := parseChoice(answer)
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyHardenedBrowser, c.Method)
}

func TestParseChoiceUnknownMethod(t *testing.T) {
	_, err := parseChoice(`{"method": "telnet", "reasoning": "why not"}`)
	assert.Error(t, err)
}

func TestParseChoiceGarbage(t *testing.T) {
	_, err := parseChoice("I would use a browser for this one.")
	assert.Error(t, err)
}
