package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/debug"
	"github.com/parleychat/parley/pkg/observability"
	"github.com/parleychat/parley/pkg/provider"
	"github.com/parleychat/parley/pkg/storage"
	"github.com/parleychat/parley/pkg/tools"
	"github.com/parleychat/parley/pkg/transport"
)

// exchange carries the state of one streaming exchange through the tool
// loop. llmMessages grows as tool turns are synthesized; history is the
// full chat branch, oldest first, handed to tool invocations.
type exchange struct {
	conv        *storage.Conversation
	prov        provider.Provider
	funcs       *tools.Registry
	llmMessages []provider.Message
	history     []chat.Message
	parentID    string
	userMsg     *chat.Message
}

// runExchange drives the provider turn loop for one assistant message.
//
// The assistant message accumulates content in memory while streaming and
// is persisted exactly once, in its final form, when the loop ends in any
// way. Delivery failures abort emission but never skip persistence.
func (e *Engine) runExchange(ctx context.Context, st *exchange, w transport.StreamWriter) (err error) {
	msg := chat.NewAssistantMessage(st.conv.ID, st.parentID)
	var usage provider.Usage
	confirmPending := false

	defer func() {
		pctx := context.WithoutCancel(ctx)
		if saveErr := e.store.SaveMessage(pctx, &msg); saveErr != nil {
			slog.Error("saving assistant message", "message_id", msg.ID, "error", saveErr)
		}
		var errText string
		if err != nil {
			errText = err.Error()
		}
		e.recordAudit(pctx, st.conv, msg.ID, storage.AuditTypeAssistant, usage.PromptTokens, usage.CompletionTokens, errText)

		status := "success"
		switch {
		case err != nil:
			status = "error"
		case confirmPending:
			status = "confirm_pending"
		}
		observability.ExchangesTotal.WithLabelValues(st.prov.Name(), st.conv.Model, status).Inc()
	}()

	if err := w.WriteEvent(ctx, chat.ResponseEvent(msg)); err != nil {
		return err
	}

	req := &provider.CompletionRequest{
		Model:        st.conv.Model,
		SystemPrompt: st.conv.SystemPrompt,
		Tools:        st.funcs.Definitions(),
		Temperature:  st.conv.Temperature,
	}

	for turn := 0; ; turn++ {
		if e.cfg.MaxToolTurns > 0 && turn >= e.cfg.MaxToolTurns {
			return chat.NewServerError(fmt.Sprintf("exchange exceeded %d tool turns", e.cfg.MaxToolTurns))
		}

		req.Messages = st.llmMessages

		turnStart := time.Now()
		ch, err := st.prov.StreamCompletion(ctx, req)
		if err != nil {
			return err
		}

		outcome, err := e.consumeTurn(ctx, ch, &msg, w)
		observability.ProviderLatency.WithLabelValues(st.prov.Name(), st.conv.Model).Observe(time.Since(turnStart).Seconds())
		if err != nil {
			return err
		}
		if outcome.usage != nil {
			usage.PromptTokens += outcome.usage.PromptTokens
			usage.CompletionTokens += outcome.usage.CompletionTokens
			observability.ProviderTokensTotal.WithLabelValues(st.prov.Name(), st.conv.Model, "input").Add(float64(outcome.usage.PromptTokens))
			observability.ProviderTokensTotal.WithLabelValues(st.prov.Name(), st.conv.Model, "output").Add(float64(outcome.usage.CompletionTokens))
		}

		call := outcome.call
		if call == nil {
			break
		}

		args, err := call.arguments()
		if err != nil {
			return err
		}

		fn := st.funcs.Lookup(call.name)
		if fn == nil {
			return chat.NewServerError("no such function: " + call.name)
		}
		debug.Log("engine", "tool call", "name", call.name, "turn", turn, "confirm", fn.RequireConfirm)

		if fn.RequireConfirm {
			// Freeze the call on the assistant message and hand the
			// decision to the user. The exchange ends here; a later
			// ResumeConfirm call picks it up.
			msg.ConfirmRequest = &chat.ConfirmRequest{
				ToolCallID: call.id,
				ToolName:   call.name,
				ToolArgs:   args,
			}
			confirmPending = true
			return w.WriteEvent(ctx, chat.ConfirmRequestEvent(*msg.ConfirmRequest))
		}

		output, err := fn.Invoke(ctx, tools.Invocation{
			Args:               args,
			History:            st.history,
			AssistantMessageID: msg.ID,
		})
		if err != nil {
			observeTool(call.name, "error")
			return chat.NewServerError(fmt.Sprintf("invoking %s: %v", call.name, err))
		}
		observeTool(call.name, "success")

		// Feed the call and its result back as synthesized turns.
		st.llmMessages = append(st.llmMessages,
			provider.Message{
				Role:      provider.RoleAssistant,
				ToolCalls: []provider.ToolCall{{ID: call.id, Name: call.name, Arguments: args}},
			},
			provider.Message{
				Role:       provider.RoleTool,
				Content:    output,
				ToolCallID: call.id,
			},
		)
	}

	e.maybeSummarize(ctx, st, &msg, w)
	return nil
}

// turnOutcome is what one provider turn produced beyond text deltas.
type turnOutcome struct {
	call  *pendingCall
	usage *provider.Usage
}

// pendingCall assembles a tool call across chunks. Arguments arrive either
// as a structured object or as raw JSON text fragments, depending on the
// backend.
type pendingCall struct {
	id       string
	name     string
	argsText strings.Builder
	args     map[string]any
}

// arguments finalizes the call arguments. The raw text buffer is parsed
// only when no structured object was supplied.
func (p *pendingCall) arguments() (map[string]any, error) {
	if p.args != nil {
		return p.args, nil
	}
	text := p.argsText.String()
	if text == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(text), &args); err != nil {
		return nil, chat.NewModelError(fmt.Sprintf("malformed arguments for %s: %v", p.name, err))
	}
	return args, nil
}

// consumeTurn drains one provider turn, appending text to the assistant
// message before forwarding each delta, so persisted content never trails
// what the client saw. A turn that ends in a tool call contributes no
// reply text; whatever the model said before calling the tool is dropped
// from the message.
func (e *Engine) consumeTurn(ctx context.Context, ch <-chan provider.Chunk, msg *chat.Message, w transport.StreamWriter) (*turnOutcome, error) {
	out := &turnOutcome{}
	turnStart := len(msg.Content)

	for chunk := range ch {
		switch chunk.Type {
		case provider.ChunkTextDelta:
			if out.call != nil {
				continue
			}
			msg.Content += chunk.Delta
			if err := w.WriteEvent(ctx, chat.DeltaEvent(chunk.Delta)); err != nil {
				return nil, err
			}

		case provider.ChunkToolCallBegin:
			out.call = &pendingCall{id: chunk.ToolCallID, name: chunk.ToolName}

		case provider.ChunkToolArgsDelta:
			if out.call != nil {
				out.call.argsText.WriteString(chunk.Delta)
			}

		case provider.ChunkToolArgs:
			if out.call != nil {
				out.call.args = chunk.ToolArgs
			}

		case provider.ChunkDone:
			if chunk.Usage != nil {
				out.usage = chunk.Usage
			}

		case provider.ChunkError:
			return nil, chunk.Err
		}
	}

	if out.call != nil {
		msg.Content = msg.Content[:turnStart]
	}
	return out, nil
}

func observeTool(name, status string) {
	observability.ToolInvocationsTotal.WithLabelValues(name, status).Inc()
}

func logAuditFailure(messageID string, err error) {
	slog.Error("recording audit entry", "message_id", messageID, "error", err)
}
