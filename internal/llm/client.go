package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// ChatClient is the generative-model boundary: a rendered prompt plus a short
// system instruction in, raw text out. Enabled reports whether a credential
// is configured; callers degrade to their deterministic paths when it is not.
type ChatClient interface {
	Enabled() bool
	Complete(ctx context.Context, system, user string) (string, error)
}

// Client is the OpenAI-backed ChatClient.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	limiter     *rate.Limiter
	observer    Observer
	timeout     time.Duration
	attempts    int
}

// NewClient creates a chat client. An empty apiKey yields a disabled client.
func NewClient(apiKey, model string, limiter *rate.Limiter, observer Observer) *Client {
	var client *openai.Client
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if observer == nil {
		observer = NewLogObserver()
	}
	return &Client{
		client:      client,
		model:       model,
		temperature: 0.2,
		limiter:     limiter,
		observer:    observer,
		timeout:     30 * time.Second,
		attempts:    2,
	}
}

// Enabled reports whether a model credential is configured.
func (c *Client) Enabled() bool { return c.client != nil }

// Complete sends one chat completion request with bounded retry and returns
// the raw response text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("chat client disabled: no API key configured")
	}

	start := time.Now()
	var out string
	err := withRetry(ctx, c.attempts, 500*time.Millisecond, 2*time.Second, func() error {
		var callErr error
		out, callErr = c.completeOnce(ctx, system, user)
		return callErr
	})
	c.observer.Record("openai", c.model, time.Since(start), err == nil)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return out, nil
}

func (c *Client) completeOnce(ctx context.Context, system, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
