// Package anthropic provides a Chatter backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	DefaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1024
)

// Client answers system+user exchanges with Claude at temperature 0.
type Client struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewClient creates a client. Extra SDK options (base URL, retries) are
// passed through unchanged.
func NewClient(apiKey, model string, maxTokens int64, opts ...option.RequestOption) *Client {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Client{
		client:    sdk.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Chat returns the concatenated text blocks of the reply.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   c.maxTokens,
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(user))},
		Temperature: sdk.Float(0),
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "anthropic: create message")
	}

	zap.L().Debug("anthropic usage",
		zap.String("model", c.model),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)

	var sb strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}
