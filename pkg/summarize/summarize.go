package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var (
	ErrNoAPIKey      = errors.New("summarize: api key is required")
	ErrEmptyURL      = errors.New("summarize: article url is required")
	ErrRequestFailed = errors.New("summarize: request failed")
	ErrBadResponse   = errors.New("summarize: unexpected response")
)

const systemPrompt = `You help a researcher write a short personal note to a journalist.
Read the article at the given URL. Reply with JSON only, no prose and no code fences:
{"summary": "<one sentence summarising the article>", "question": "<one probing question about it>"}`

// Summary is what enrichment stores as merge tags.
type Summary struct {
	Sentence string `json:"summary"`
	Question string `json:"question"`
}

// Summarizer asks a chat model for a one-sentence summary and a question.
type Summarizer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// New creates a Summarizer.
func New(cfg Config) (*Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Summarizer{
		client:  openai.NewClientWithConfig(oc),
		model:   model,
		timeout: timeout,
	}, nil
}

// Summarize returns the summary and question for the article at articleURL.
func (s *Summarizer) Summarize(ctx context.Context, articleURL string) (Summary, error) {
	articleURL = strings.TrimSpace(articleURL)
	if articleURL == "" {
		return Summary{}, ErrEmptyURL
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "URL: " + articleURL},
		},
		Temperature: 0.3,
		MaxTokens:   300,
	})
	if err != nil {
		return Summary{}, errors.Join(ErrRequestFailed, err)
	}
	if len(resp.Choices) == 0 {
		return Summary{}, fmt.Errorf("%w: no choices", ErrBadResponse)
	}

	return parseSummary(resp.Choices[0].Message.Content)
}

// parseSummary tolerates a Markdown code fence around the JSON object.
func parseSummary(content string) (Summary, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var sum Summary
	if err := json.Unmarshal([]byte(content), &sum); err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}

	sum.Sentence = strings.TrimSpace(sum.Sentence)
	sum.Question = strings.TrimSpace(sum.Question)
	if sum.Sentence == "" || sum.Question == "" {
		return Summary{}, fmt.Errorf("%w: summary and question are required", ErrBadResponse)
	}
	return sum, nil
}
