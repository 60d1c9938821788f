package parse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"concertscout/internal/models"
)

const llmPromptTemplate = `You are an assistant that extracts concert information from the following content and provides it in JSON format.

Content:
%s

Extract the concert information and output it in the following JSON format:

[
    {
        "artist": "Artist Name",
        "date": "YYYY-MM-DD",
        "times": ["HH:MM", "HH:MM"],
        "venue": "Venue Name",
        "address": "Venue Address",
        "ticket_link": "URL",
        "price_range": "$XX - $YY",
        "special_notes": "Any special notes"
    },
    ...
]

Rules:
- Dates must be ISO YYYY-MM-DD and times must be 24-hour HH:MM. Assume all times given are Eastern Time.
- Skip entries whose artist is a placeholder like "TBA", "TBD", or empty.
- If an entry covers a range of dates, expand it into one entry per calendar day.
- Preserve incidental detail such as band line-ups or personnel in "special_notes" rather than discarding it.
- If a field is missing, use null.

Provide only the JSON array as the output.`

// LLMParser is the primary generic parser: it hands normalized text to a
// chat-completion model with a schema-constrained prompt. Any response that
// fails strict JSON decoding is a total failure for the call; the caller
// falls back to the heuristic parser rather than salvaging partial output.
type LLMParser struct {
	client *openai.Client
	model  string
}

// NewLLMParser returns nil when no API key is configured, which callers
// treat as "heuristic only".
func NewLLMParser(apiKey string) *LLMParser {
	if apiKey == "" {
		return nil
	}
	return &LLMParser{client: openai.NewClient(apiKey), model: openai.GPT4o}
}

// Parse extracts events from normalized text via the completion model.
func (p *LLMParser) Parse(ctx context.Context, text string) ([]models.CanonicalEvent, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(llmPromptTemplate, text)},
		},
		MaxTokens:   8000,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("completion returned no choices")
	}
	return decodeEventJSON(resp.Choices[0].Message.Content)
}

// decodeEventJSON locates the JSON array inside arbitrary surrounding text
// (models wrap output in prose or code fences despite instructions) and
// decodes it strictly.
func decodeEventJSON(content string) ([]models.CanonicalEvent, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, errors.New("no JSON array in completion response")
	}

	var events []models.CanonicalEvent
	if err := json.Unmarshal([]byte(content[start:end+1]), &events); err != nil {
		return nil, fmt.Errorf("decode completion JSON: %w", err)
	}
	return events, nil
}
