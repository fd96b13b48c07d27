package llm

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/todmy/doc-checker/pkg/models"
)

// Reply types returned by the assistant
const (
	ReplyToolCall = "tool_call"
	ReplyMessage  = "message"
)

// AnalyzeTool is the name of the tool that starts a document analysis
const AnalyzeTool = "analyze_documents"

// FallbackReply is sent when the model returns neither text nor a tool call
const FallbackReply = "Prepáčte, nepodarilo sa mi vygenerovať odpoveď."

const assistantPrompt = `Si odborný asistent pre stavebné povolenia na Slovensku. Pomáhaš používateľom s otázkami o stavebnom konaní, dokumentácii, legislatíve a procesoch súvisiacich so stavebnými povoleniami.

Máš k dispozícii nástroj "analyze_documents", ktorý spustí automatickú analýzu nahraných dokumentov. Tento nástroj porovná údaje z rôznych dokumentov (napr. počet podlaží, parkovacie miesta) a zistí, či sa zhodujú.

PRAVIDLÁ:
- Ak používateľ požiada o analýzu dokumentov, kontrolu zhody, overenie údajov, alebo spomína "bilančnú tabuľku", "kontrolu dokumentov", "analýzu" a pod., použi nástroj analyze_documents.
- Ak sa používateľ pýta všeobecnú otázku o stavebnom povolení, odpovedz priamo bez použitia nástroja.
- Odpovedaj vždy po slovensky.
- Buď stručný, ale informatívny.`

var analyzeTool = Tool{
	Name:        AnalyzeTool,
	Description: "Spustí automatickú analýzu nahraných dokumentov. Porovná údaje z rôznych dokumentov (počet podlaží, parkovacie miesta a pod.) a zistí, či sa zhodujú. Použi tento nástroj keď používateľ chce skontrolovať, analyzovať alebo overiť dokumenty.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reason": map[string]any{
				"type":        "string",
				"description": "Krátky dôvod prečo sa spúšťa analýza",
			},
		},
		"required": []string{"reason"},
	},
}

// Reply is the assistant's decision for one chat turn
type Reply struct {
	Type       string `json:"type"`
	Tool       string `json:"tool,omitempty"`
	Reason     string `json:"reason,omitempty"`
	PreMessage string `json:"preMessage,omitempty"`
	Content    string `json:"content,omitempty"`
}

// Assistant routes chat turns either to a direct answer or to the
// document analysis tool.
type Assistant struct {
	completer ToolCompleter
}

// NewAssistant creates an Assistant
func NewAssistant(completer ToolCompleter) *Assistant {
	return &Assistant{completer: completer}
}

// Route implements Router.
func (a *Assistant) Route(ctx context.Context, history []models.ChatMessage) (*Reply, error) {
	comp, err := a.completer.CompleteWithTools(ctx, assistantPrompt, history, []Tool{analyzeTool})
	if err != nil {
		return nil, eris.Wrap(err, "llm: route chat")
	}

	if len(comp.ToolCalls) > 0 && comp.ToolCalls[0].Name == AnalyzeTool {
		var args struct {
			Reason string `json:"reason"`
		}
		if err := json.Unmarshal([]byte(comp.ToolCalls[0].Arguments), &args); err != nil {
			return nil, eris.Wrap(err, "llm: decode tool arguments")
		}

		zap.L().Info("chat routed to analysis", zap.String("reason", args.Reason))
		return &Reply{
			Type:       ReplyToolCall,
			Tool:       AnalyzeTool,
			Reason:     args.Reason,
			PreMessage: "Spúšťam analýzu dokumentov: " + args.Reason,
		}, nil
	}

	content := comp.Content
	if content == "" {
		content = FallbackReply
	}
	return &Reply{Type: ReplyMessage, Content: content}, nil
}
