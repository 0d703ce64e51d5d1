package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/cenkalti/backoff/v4"

	"github.com/aibcdev/brandscan/internal/domain/ai"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 2
)

type Config struct {
	ProjectID      string
	Region         string
	Model          string
	RequestTimeout time.Duration
	MaxRetries     int
}

// Client membungkus Vertex AI generative model sebagai ai.Generator.
type Client struct {
	base       *genai.Client
	model      *genai.GenerativeModel
	timeout    time.Duration
	maxRetries int
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = defaultModel
	}
	model := base.GenerativeModel(name)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	return &Client{base: base, model: model, timeout: timeout, maxRetries: retries}, nil
}

func (c *Client) Close() error {
	return c.base.Close()
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.model.GenerateContent(callCtx, genai.Text(prompt))
		if err != nil {
			if strings.Contains(err.Error(), "ResourceExhausted") {
				return backoff.Permanent(ai.ErrQuotaExceeded)
			}
			return err
		}
		text := extractText(resp)
		if text == "" {
			return backoff.Permanent(ai.ErrBadResponse)
		}
		out = text
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

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}
