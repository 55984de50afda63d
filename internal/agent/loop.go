// Package agent implements the conversation loop between WhatsApp
// guests and the planner.
package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/setusher/Maldevta-farms/internal/llm"
	"github.com/setusher/Maldevta-farms/internal/store"
	"github.com/setusher/Maldevta-farms/internal/tools"
)

const (
	// maxToolRounds bounds how many times one inbound message may loop
	// between the planner and tool execution.
	maxToolRounds = 5

	// historyLimit is how many prior messages the planner sees.
	historyLimit = 10
)

// Guest-facing fallbacks. The first covers a planner turn that ends
// with neither text nor a completed tool round, the second covers
// planner transport failures.
const (
	fallbackNoReply      = "I apologize, but I'm having trouble processing your request. Could you please rephrase?"
	fallbackPlannerError = "I'm sorry, I'm experiencing technical difficulties. Please try again in a moment."
)

// Inbound is one normalized guest message, whatever transport it
// arrived on.
type Inbound struct {
	PhoneNumber       string
	Text              string
	ProviderMessageID string
	SenderDisplayName string
}

// Orchestrator drives one guest turn: persist the inbound message,
// assemble context, run the bounded planner/tool loop, and persist the
// reply. All collaborators are injected.
type Orchestrator struct {
	store        store.Store
	planner      llm.Client
	model        string
	registry     *tools.Registry
	extractor    FactExtractor
	systemPrompt string
	logger       *slog.Logger
	now          func() time.Time
}

// NewOrchestrator wires up an orchestrator. A nil extractor disables
// fact extraction.
func NewOrchestrator(st store.Store, planner llm.Client, model string, registry *tools.Registry, extractor FactExtractor, systemPrompt string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:        st,
		planner:      planner,
		model:        model,
		registry:     registry,
		extractor:    extractor,
		systemPrompt: systemPrompt,
		logger:       logger.With("component", "agent"),
		now:          time.Now,
	}
}

// ProcessMessage handles one inbound guest message and returns the
// reply text. The inbound message is persisted before anything else so
// a crash mid-turn never loses what the guest said. Planner failures
// degrade to a friendly fallback rather than an error: the guest
// always gets a reply.
func (o *Orchestrator) ProcessMessage(ctx context.Context, in Inbound) (string, error) {
	conv, err := o.store.GetOrCreateActiveConversation(in.PhoneNumber)
	if err != nil {
		return "", err
	}

	logger := o.logger.With("conversation", conv.ID, "phone", in.PhoneNumber)

	if _, err := o.store.SaveInbound(conv.ID, in.Text, in.ProviderMessageID); err != nil {
		return "", err
	}

	if in.SenderDisplayName != "" && conv.UserName == "" {
		if err := o.store.SetConversationUserName(conv.ID, in.SenderDisplayName); err != nil {
			logger.Warn("saving profile name failed", "error", err)
		}
	}

	facts, err := o.store.AllMemory(in.PhoneNumber)
	if err != nil {
		logger.Warn("loading guest memory failed", "error", err)
		facts = map[string]string{}
	}

	history, err := o.store.RecentMessages(conv.ID, historyLimit)
	if err != nil {
		return "", err
	}

	messages := o.buildMessages(in, facts, history)
	decls := o.registry.Declarations()

	logger.Info("planning reply", "history", len(history), "facts", len(facts))

	resp, err := o.planner.Chat(ctx, o.model, messages, decls)
	if err != nil {
		logger.Error("planner call failed", "error", err)
		return o.reply(conv.ID, fallbackPlannerError, logger)
	}

	for round := 0; round < maxToolRounds && len(resp.Message.ToolCalls) > 0; round++ {
		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Message.Content,
			ToolCalls: resp.Message.ToolCalls,
		})

		for _, call := range resp.Message.ToolCalls {
			result := o.runTool(ctx, conv.ID, in, facts, call, logger)
			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    tools.MarshalResult(result),
				ToolCallID: call.Function.Name,
			})
		}

		next, err := o.planner.Chat(ctx, o.model, messages, decls)
		if err != nil {
			// This round's tools already ran; keep the last valid
			// response and let text extraction below decide the reply.
			logger.Error("planner follow-up failed", "round", round, "error", err)
			resp.Message.ToolCalls = nil
			break
		}
		resp = next
	}

	text := resp.Message.Content
	if text == "" || len(resp.Message.ToolCalls) > 0 {
		logger.Warn("planner produced no reply text",
			"pending_tool_calls", len(resp.Message.ToolCalls))
		text = fallbackNoReply
	}

	reply, err := o.reply(conv.ID, text, logger)

	// Extraction runs last so a fact learned from this message only
	// shapes later turns, never the reply it arrived with.
	o.extractFacts(in, logger)

	return reply, err
}

// runTool executes one planner tool call and records the audit row.
// request_update_or_cancel gets identity fields filled in from what we
// already know, so the planner never has to re-ask for them.
func (o *Orchestrator) runTool(ctx context.Context, convID string, in Inbound, facts map[string]string, call llm.ToolCall, logger *slog.Logger) *tools.Result {
	args := call.Function.Arguments
	if args == nil {
		args = map[string]any{}
	}

	if call.Function.Name == "request_update_or_cancel" {
		if _, ok := args["customer_phone"].(string); !ok {
			args["customer_phone"] = in.PhoneNumber
		}
		if _, ok := args["customer_name"].(string); !ok {
			if name := facts["name"]; name != "" {
				args["customer_name"] = name
			}
		}
	}

	result := o.registry.Execute(ctx, call.Function.Name, args)

	argsJSON, err := json.Marshal(args)
	if err != nil {
		argsJSON = []byte("{}")
	}
	if err := o.store.RecordToolCall(convID, call.Function.Name, string(argsJSON), result.Success, tools.MarshalResult(result), result.Error); err != nil {
		// Audit is best effort; the guest turn proceeds regardless.
		logger.Warn("recording tool call failed", "tool", call.Function.Name, "error", err)
	}

	logger.Info("tool executed", "tool", call.Function.Name, "success", result.Success)
	return result
}

// extractFacts runs the extractor over the inbound text and persists
// anything learned. Extraction is advisory: failures are logged and
// swallowed.
func (o *Orchestrator) extractFacts(in Inbound, logger *slog.Logger) {
	if o.extractor == nil {
		return
	}

	existing, err := o.store.AllMemory(in.PhoneNumber)
	if err != nil {
		logger.Warn("loading memory for extraction failed", "error", err)
		existing = map[string]string{}
	}

	for _, fact := range o.extractor.Extract(in.Text, existing, in.PhoneNumber, in.SenderDisplayName) {
		if _, err := o.store.SetMemory(in.PhoneNumber, fact.Key, fact.Value); err != nil {
			logger.Warn("saving extracted fact failed", "key", fact.Key, "error", err)
			continue
		}
		logger.Debug("guest fact saved", "key", fact.Key)
	}
}

// buildMessages assembles the planner transcript: system prompt with
// the per-turn context block, then recent history. The inbound message
// is already in history because it was persisted first.
func (o *Orchestrator) buildMessages(in Inbound, facts map[string]string, history []store.Message) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{
		Role:    "system",
		Content: o.systemPrompt + "\n\n" + BuildContext(in.PhoneNumber, in.SenderDisplayName, facts, o.now()),
	})

	for _, m := range history {
		role := m.Role
		if role == "model" {
			role = "assistant"
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}
	return messages
}

// reply persists and returns the outbound text. A failed save is
// logged but doesn't suppress the reply.
func (o *Orchestrator) reply(convID, text string, logger *slog.Logger) (string, error) {
	if _, err := o.store.SaveOutbound(convID, text); err != nil {
		logger.Error("saving outbound message failed", "error", err)
	}
	return text, nil
}
