// Package llm defines the model-facing contracts used by the workflow and
// the chat assistant, independent of which provider serves them.
package llm

import (
	"context"

	"github.com/todmy/doc-checker/pkg/models"
)

// Chatter answers a single system+user exchange deterministically.
type Chatter interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Searcher runs a retrieval-augmented extraction against one vector store.
type Searcher interface {
	SearchAndExtract(ctx context.Context, vectorStoreID, query, instruction string) (string, error)
}

// Router decides whether a conversation should start an analysis.
type Router interface {
	Route(ctx context.Context, history []models.ChatMessage) (*Reply, error)
}

// Tool is a function the model may call instead of answering.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a function invocation requested by the model
type ToolCall struct {
	Name      string
	Arguments string
}

// Completion is one model turn: text, tool calls, or both.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolCompleter completes a conversation with tools available
type ToolCompleter interface {
	CompleteWithTools(ctx context.Context, system string, history []models.ChatMessage, tools []Tool) (*Completion, error)
}
