package policy

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"scraper/internal/domain"
	"scraper/internal/llm"
	"scraper/internal/memory"
)

const chooserSystemPrompt = "You are an expert web scraping strategist. Return only JSON with 'method' and 'reasoning' fields."

const chooserPromptTemplate = `Website: %s
Domain: %s
Previous attempts: %s
Known successful methods: %v
Known failed methods: %v

Choose the best scraping strategy from:
1. plain_request - Basic HTTP request
2. rotated_request - Rotate user agents and headers
3. rendered_browser - Headless browser rendering
4. hardened_browser - Advanced anti-detection browser

Consider:
- Sites with bot protection need rendered_browser or hardened_browser
- Simple static sites usually work with plain_request or rotated_request
- If previous attempts failed, escalate to more sophisticated methods`

// choice is the JSON shape the oracle is asked to answer with.
type choice struct {
	Method    domain.StrategyID `json:"method"`
	Reasoning string            `json:"reasoning"`
}

// Oracle delegates strategy selection to an LLM seeded with the URL, the
// host's remembered track record and the attempts made this session. Any
// oracle failure falls back to rendered_browser, then to the heuristic if
// that was already tried.
type Oracle struct {
	client *llm.Client
	logger *zap.Logger
}

func NewOracle(client *llm.Client, logger *zap.Logger) *Oracle {
	return &Oracle{client: client, logger: logger}
}

func (o *Oracle) Choose(ctx context.Context, rawURL, host string, mem memory.Snapshot, attempts []domain.Attempt) domain.StrategyID {
	prompt := fmt.Sprintf(chooserPromptTemplate,
		rawURL, host, describeAttempts(attempts), mem.Successful, mem.Failed)

	answer, err := o.client.Complete(ctx, chooserSystemPrompt, prompt, 200, 0.3)
	if err != nil {
		o.logger.Warn("strategy oracle unavailable, falling back",
			zap.String("url", rawURL), zap.Error(err))
		return nextUntried(domain.StrategyRenderedBrowser, mem, attempts)
	}

	picked, err := parseChoice(answer)
	if err != nil {
		o.logger.Warn("strategy oracle answer unparseable, falling back",
			zap.String("url", rawURL), zap.Error(err))
		return nextUntried(domain.StrategyRenderedBrowser, mem, attempts)
	}

	o.logger.Info("strategy oracle chose",
		zap.String("url", rawURL),
		zap.String("method", string(picked.Method)),
		zap.String("reasoning", picked.Reasoning))

	return nextUntried(picked.Method, mem, attempts)
}

func parseChoice(answer string) (choice, error) {
	var c choice
	if err := json.Unmarshal([]byte(llm.StripFences(answer)), &c); err != nil {
		return choice{}, fmt.Errorf("decoding strategy answer: %w", err)
	}
	if !c.Method.Valid() {
		return choice{}, fmt.Errorf("unknown strategy %q in oracle answer", c.Method)
	}
	return c, nil
}

func describeAttempts(attempts []domain.Attempt) string {
	if len(attempts) == 0 {
		return "none"
	}
	b, err := json.Marshal(attempts)
	if err != nil {
		return "unavailable"
	}
	return string(b)
}
