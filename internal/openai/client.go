package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/todmy/doc-checker/internal/resilience"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
)

// Client talks to the OpenAI REST API: responses with file search, chat
// completions, file uploads and vector stores.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	limiter    *rate.Limiter
	retry      resilience.Policy
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithModel sets the model used for every request
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the cap.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetry sets the retry policy for transient failures
func WithRetry(p resilience.Policy) ClientOption {
	return func(c *Client) {
		c.retry = p
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new OpenAI client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   DefaultModel,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return eris.Wrap(err, "openai: marshal request")
	}

	return c.send(ctx, path, "application/json", func() io.Reader { return bytes.NewReader(body) }, out)
}

// send performs one logical request, retried according to the client policy.
// newBody is called per attempt so each try gets a fresh reader.
func (c *Client) send(ctx context.Context, path, contentType string, newBody func() io.Reader, out any) error {
	_, err := resilience.Call(ctx, c.retry.WithLogger("openai", path), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.sendOnce(ctx, path, contentType, newBody(), out)
	})
	return err
}

func (c *Client) sendOnce(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "openai: rate limiter")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return eris.Wrap(err, "openai: create request")
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "openai: POST %s", path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "openai: read response")
	}

	zap.L().Debug("openai request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := eris.Errorf("openai: %s returned status %d: %s", path, resp.StatusCode, errorMessage(raw))
		if resilience.IsTransientStatus(resp.StatusCode) {
			return resilience.NewTransientError(apiErr, resp.StatusCode)
		}
		return apiErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return eris.Wrap(err, "openai: unmarshal response")
	}
	return nil
}

func errorMessage(raw []byte) string {
	var e apiError
	if err := json.Unmarshal(raw, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return string(raw)
}

func logUsage(op string, u *usage) {
	if u == nil {
		return
	}
	zap.L().Debug("openai usage",
		zap.String("operation", op),
		zap.Int("input_tokens", u.InputTokens+u.PromptTokens),
		zap.Int("output_tokens", u.OutputTokens+u.CompletionTokens),
	)
}
