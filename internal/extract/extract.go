package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"scraper/internal/domain"
	"scraper/internal/llm"
)

// ErrContentTooShort marks pages whose visible text is below the minimum
// worth sending to the oracle.
var ErrContentTooShort = errors.New("visible text below extraction minimum")

// Oracle turns raw fetched content into structured content items. Failures
// and empty results are attempt failures to the orchestrator, never fatal.
type Oracle interface {
	Extract(ctx context.Context, rawContent, sourceURL string) ([]domain.ContentItem, error)
}

const extractSystemPrompt = `You are an expert data transformation agent. Your task is to extract the main article from the provided content and format it into a specific JSON structure.

Return ONLY a valid JSON object with the following schema:
{
  "title": "The main title of the article. Be concise and accurate.",
  "content": "The full article content, formatted as clean Markdown (max 2000 chars). Preserve headings, lists, bold text, and code blocks.",
  "author": "The author's name, or 'Unknown' if not found."
}

Focus exclusively on the main article content. Ignore navigation bars, sidebars, ads, footers, and other boilerplate text. Ensure the content is well-structured and readable.`

// maxPromptContent caps how much visible text is sent to the model.
const maxPromptContent = 4000

// LLMExtractor implements Oracle with an OpenAI chat completion.
type LLMExtractor struct {
	client    *llm.Client
	minLength int
	logger    *zap.Logger
}

func NewLLMExtractor(client *llm.Client, minLength int, logger *zap.Logger) *LLMExtractor {
	return &LLMExtractor{client: client, minLength: minLength, logger: logger}
}

type extraction struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

func (e *LLMExtractor) Extract(ctx context.Context, rawContent, sourceURL string) ([]domain.ContentItem, error) {
	text, err := VisibleText(rawContent)
	if err != nil {
		return nil, fmt.Errorf("cleaning content of %s: %w", sourceURL, err)
	}
	if n := utf8.RuneCountInString(text); n < e.minLength {
		return nil, fmt.Errorf("%w: %d chars at %s", ErrContentTooShort, n, sourceURL)
	}

	user := fmt.Sprintf("URL: %s\n\nContent:\n%s", sourceURL, truncate(text, maxPromptContent))
	answer, err := e.client.Complete(ctx, extractSystemPrompt, user, 1000, 0)
	if err != nil {
		return nil, fmt.Errorf("extraction oracle for %s: %w", sourceURL, err)
	}

	item, err := parseExtraction(answer, sourceURL)
	if err != nil {
		e.logger.Warn("extraction answer unparseable",
			zap.String("url", sourceURL), zap.Error(err))
		return nil, err
	}
	return []domain.ContentItem{item}, nil
}

// parseExtraction decodes the oracle's JSON answer into a content item,
// filling the fields the oracle is not responsible for.
func parseExtraction(answer, sourceURL string) (domain.ContentItem, error) {
	var ex extraction
	if err := json.Unmarshal([]byte(llm.StripFences(answer)), &ex); err != nil {
		return domain.ContentItem{}, fmt.Errorf("decoding extraction answer: %w", err)
	}
	if ex.Title == "" {
		ex.Title = "Extracted Content"
	}
	if ex.Author == "" {
		ex.Author = "Unknown"
	}
	return domain.ContentItem{
		Title:       ex.Title,
		Content:     ex.Content,
		ContentType: "blog",
		SourceURL:   sourceURL,
		Author:      ex.Author,
	}, nil
}
