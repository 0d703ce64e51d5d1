package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/aibcdev/brandscan/internal/domain/ai"
)

const (
	defaultModel      = "gpt-4o-mini"
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 2
	maxTokens         = 2048
)

type Config struct {
	APIKey         string
	Model          string
	RequestTimeout time.Duration
	MaxRetries     int
}

// Client memanggil OpenAI chat completion API sebagai ai.Generator.
type Client struct {
	api        *goopenai.Client
	model      string
	timeout    time.Duration
	maxRetries int
}

func NewClient(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	return &Client{
		api:        goopenai.NewClient(cfg.APIKey),
		model:      model,
		timeout:    timeout,
		maxRetries: retries,
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req := goopenai.ChatCompletionRequest{
			Model: c.model,
			Messages: []goopenai.ChatCompletionMessage{
				{Role: goopenai.ChatMessageRoleUser, Content: prompt},
			},
		}
		if isReasoningModel(c.model) {
			req.MaxCompletionTokens = maxTokens
		} else {
			req.MaxTokens = maxTokens
		}

		resp, err := c.api.CreateChatCompletion(callCtx, req)
		if err != nil {
			var apiErr *goopenai.APIError
			if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
				return backoff.Permanent(ai.ErrQuotaExceeded)
			}
			return err
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(ai.ErrBadResponse)
		}
		out = resp.Choices[0].Message.Content
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(op, bo); err != nil {
		return "", err
	}
	return out, nil
}

// Reasoning models (o1/o3/o4/gpt-5*) take MaxCompletionTokens instead of MaxTokens
func isReasoningModel(model string) bool {
	return strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") ||
		strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5")
}
