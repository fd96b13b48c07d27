package openai

import (
	"context"

	"github.com/todmy/doc-checker/internal/llm"
	"github.com/todmy/doc-checker/pkg/models"
)

// toolTemperature applies to assistant routing calls.
const toolTemperature = 0.3

// Chat sends one system and one user message at temperature 0 and returns
// the first choice's text. An empty choice list yields "".
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	resp, err := c.complete(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteWithTools sends the conversation with the given function tools.
func (c *Client) CompleteWithTools(ctx context.Context, system string, history []models.ChatMessage, tools []llm.Tool) (*llm.Completion, error) {
	msgs := make([]chatMessage, 0, len(history)+1)
	msgs = append(msgs, chatMessage{Role: "system", Content: system})
	for _, m := range history {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}

	req := chatRequest{Model: c.model, Messages: msgs, Temperature: toolTemperature}
	for _, t := range tools {
		req.Tools = append(req.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	resp, err := c.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &llm.Completion{}
	if len(resp.Choices) == 0 {
		return out, nil
	}
	msg := resp.Choices[0].Message
	out.Content = msg.Content
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, req chatRequest) (*chatResponse, error) {
	var resp chatResponse
	if err := c.postJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	logUsage("chat", resp.Usage)
	return &resp, nil
}
