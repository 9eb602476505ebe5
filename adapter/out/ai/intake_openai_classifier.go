// Package ai implements the external text-classification adapter.
package ai

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"intake_server/core/port/out"
	"intake_server/pkg/logger"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 20 * time.Second
	maxBodyExcerpt = 2000
)

const systemPrompt = `You classify emails received by a roofing contractor.
Respond with exactly one of these labels and nothing else:
new-customer-inquiry
marketing/spam
internal
unknown

new-customer-inquiry: a person asking about roofing work, repairs, estimates or inspections.
marketing/spam: promotional content, cold outreach, newsletters.
internal: automated or administrative mail from the contractor's own systems.
unknown: anything you cannot confidently place.`

// ClassifierConfig holds settings for the OpenAI classifier.
type ClassifierConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// OpenAIClassifier implements out.TextClassifier. One blocking call, no
// retry: any transport failure, breaker rejection, missing credential or
// off-vocabulary answer degrades to LabelUnknown so a flaky classifier
// can never crash message processing.
type OpenAIClassifier struct {
	client    *openai.Client
	cb        *gobreaker.CircuitBreaker
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewOpenAIClassifier creates the classifier. With an empty API key it
// still constructs and answers LabelUnknown for everything.
func NewOpenAIClassifier(cfg ClassifierConfig) *OpenAIClassifier {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 16
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var client *openai.Client
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}

	return &OpenAIClassifier{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "openai-classifier",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker %s: %s -> %s", name, from, to)
			},
		}),
	}
}

// Classify sends sender, subject and a truncated body excerpt to the
// model and maps its answer onto the fixed label set.
func (c *OpenAIClassifier) Classify(ctx context.Context, input *out.ClassifyInput) (out.AILabel, error) {
	if c.client == nil {
		return out.LabelUnknown, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := truncateBody(input.Body, maxBodyExcerpt)
	userPrompt := "From: " + input.From + "\nSubject: " + input.Subject + "\n\nBody:\n" + body

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     c.model,
			MaxTokens: c.maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
		})
	})
	if err != nil {
		logger.Warn("classification call failed: %v", err)
		return out.LabelUnknown, nil
	}

	resp := result.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return out.LabelUnknown, nil
	}
	return mapLabel(resp.Choices[0].Message.Content), nil
}

// truncateBody cuts the body to at most max bytes without splitting a
// multi-byte UTF-8 sequence.
func truncateBody(body string, max int) string {
	if len(body) <= max {
		return body
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}

// mapLabel maps a model answer onto the fixed vocabulary; anything else
// is unknown.
func mapLabel(answer string) out.AILabel {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case string(out.LabelNewInquiry):
		return out.LabelNewInquiry
	case string(out.LabelMarketing), "marketing", "spam":
		return out.LabelMarketing
	case string(out.LabelInternal):
		return out.LabelInternal
	default:
		return out.LabelUnknown
	}
}
