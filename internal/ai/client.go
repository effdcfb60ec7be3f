// Package ai lets suspects phrase their answers with a chat completion model.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/myrjola/unsolved/internal/errors"
	"github.com/sashabaranov/go-openai"
)

const MaxTokens = 256

var ErrEmptyCompletion = errors.NewSentinel("completion has no choices")

type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a client for apiKey. An empty baseURL uses the OpenAI API and an empty model uses
// GPT-3.5 Turbo.
func NewClient(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// SyncCompletion returns the content of the first completion choice.
func (c *Client) SyncCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:     c.model,
			MaxTokens: MaxTokens,
			Messages:  messages,
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "create chat completion", slog.String("model", c.model))
	}
	if len(completion.Choices) == 0 {
		return "", errors.Wrap(ErrEmptyCompletion, "read chat completion", slog.String("model", c.model))
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// Facts is the source of what a suspect actually knows. The model only rephrases these facts.
type Facts interface {
	BaseResponse(ctx context.Context, suspect, topic string) (string, bool, error)
}

// Responder answers interview questions in the suspect's voice. Unknown topics stay unknown so that the
// model cannot invent clues.
type Responder struct {
	client *Client
	facts  Facts
	logger *slog.Logger
}

func NewResponder(client *Client, facts Facts, logger *slog.Logger) *Responder {
	return &Responder{
		client: client,
		facts:  facts,
		logger: logger.With(slog.String("source", "ai.Responder")),
	}
}

func (r *Responder) BaseResponse(ctx context.Context, suspect, topic string) (string, bool, error) {
	fact, ok, err := r.facts.BaseResponse(ctx, suspect, topic)
	if err != nil || !ok {
		return fact, ok, err
	}
	messages := []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf("You are %s, a suspect in a murder investigation in a noir detective game. "+
				"Answer the detective in one or two sentences, in character. "+
				"Only state what the given statement says and never reveal anything else.", suspect),
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: fmt.Sprintf("The detective asks about %q. Your statement: %s", topic, fact),
		},
	}
	phrased, err := r.client.SyncCompletion(ctx, messages)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "completion failed, using statement as is",
			errors.SlogError(err), slog.String("suspect", suspect), slog.String("topic", topic))
		return fact, true, nil
	}
	return phrased, true, nil
}
