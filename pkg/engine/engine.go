package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/provider"
	"github.com/parleychat/parley/pkg/provider/registry"
	"github.com/parleychat/parley/pkg/storage"
	"github.com/parleychat/parley/pkg/tools"
	"github.com/parleychat/parley/pkg/transport"
)

// Engine runs streaming chat exchanges against the conversation's
// configured provider. It implements transport.Exchanger.
type Engine struct {
	store     storage.Store
	functions *tools.Registry
	cfg       Config
	tokenizer Tokenizer

	// newProvider builds the provider for a backend. Overridden in tests.
	newProvider func(b registry.Backend) (provider.Provider, error)
}

// Ensure Engine implements transport.Exchanger at compile time.
var _ transport.Exchanger = (*Engine)(nil)

// New creates a new Engine. The store must not be nil; a nil function
// registry means no tools are offered.
func New(store storage.Store, functions *tools.Registry, cfg Config) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("engine: store must not be nil")
	}
	if functions == nil {
		functions = tools.NewRegistry()
	}
	return &Engine{
		store:       store,
		functions:   functions,
		cfg:         cfg,
		tokenizer:   HeuristicTokenizer{},
		newProvider: registry.New,
	}, nil
}

// SendMessage runs a full exchange for a new user message.
func (e *Engine) SendMessage(ctx context.Context, conv *storage.Conversation, userMsg *chat.Message, w transport.StreamWriter) error {
	if userMsg.Role != chat.RoleUser {
		return chat.NewInvalidRequestError("role", "message role must be user")
	}

	existing, err := e.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return chat.NewServerError("loading conversation history: " + err.Error())
	}

	all := append(existing, *userMsg)
	path := PathToRoot(all, *userMsg)
	tokens, window := LimitMessages(e.tokenizer, conv.SystemPrompt, path, conv.TokenLimit)

	if err := e.store.SaveMessage(ctx, userMsg); err != nil {
		return chat.NewServerError("saving user message: " + err.Error())
	}
	e.recordAudit(ctx, conv, userMsg.ID, storage.AuditTypeUser, tokens, 0, "")

	prov, err := e.newProvider(backendFor(conv))
	if err != nil {
		return chat.NewServerError("configuring provider: " + err.Error())
	}
	defer prov.Close()

	st := &exchange{
		conv:        conv,
		prov:        prov,
		funcs:       e.functions.Subset(conv.Tools),
		llmMessages: translateHistory(reverseMessages(window)),
		history:     reverseMessages(path),
		parentID:    userMsg.ID,
		userMsg:     userMsg,
	}
	return e.runExchange(ctx, st, w)
}

// ResumeConfirm resumes an exchange suspended on a tool confirmation. The
// user message carries the verdict and points at the assistant message
// holding the pending ConfirmRequest. A denial never invokes the tool; a
// synthetic denial string becomes the tool result instead.
func (e *Engine) ResumeConfirm(ctx context.Context, conv *storage.Conversation, userMsg *chat.Message, w transport.StreamWriter) error {
	if userMsg.ConfirmResponse == nil {
		return chat.NewInvalidRequestError("confirmResponse", "confirmation verdict is required")
	}

	pending, err := e.store.GetMessage(ctx, userMsg.Parent)
	if err != nil {
		return chat.NewNotFoundError("referenced message not found")
	}
	if pending.ConfirmRequest == nil {
		return chat.NewInvalidRequestError("parent", "referenced message has no pending confirmation")
	}
	if pending.ConfirmResponse != nil {
		return chat.NewInvalidRequestError("parent", "confirmation already resolved")
	}
	cr := pending.ConfirmRequest

	existing, err := e.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return chat.NewServerError("loading conversation history: " + err.Error())
	}

	if err := e.store.SaveMessage(ctx, userMsg); err != nil {
		return chat.NewServerError("saving confirmation message: " + err.Error())
	}

	funcs := e.functions.Subset(conv.Tools)
	history := reverseMessages(PathToRoot(append(existing, *userMsg), *userMsg))

	output, invokeErr := e.resolveConfirm(ctx, funcs, cr, userMsg.ConfirmResponse.Allow, history, pending.ID)
	if invokeErr != nil {
		return invokeErr
	}

	// Attach the verdict to the pending message so a repeated re-entry
	// cannot run the tool a second time. A secondary artifact; failures
	// are logged, not escalated.
	resolved := *pending
	resolved.ConfirmResponse = userMsg.ConfirmResponse
	if err := e.store.UpdateMessage(ctx, &resolved); err != nil {
		slog.Warn("failed to record confirmation verdict",
			"message", pending.ID, "error", err)
	}

	toolMsg := chat.NewToolMessage(conv.ID, userMsg.ID, cr.ToolCallID, output)
	if err := e.store.SaveMessage(ctx, &toolMsg); err != nil {
		return chat.NewServerError("saving tool message: " + err.Error())
	}
	if err := w.WriteEvent(ctx, chat.ResponseEvent(toolMsg)); err != nil {
		return err
	}

	all := append(append(existing, *userMsg), toolMsg)
	path := PathToRoot(all, toolMsg)
	tokens, window := LimitMessages(e.tokenizer, conv.SystemPrompt, path, conv.TokenLimit)
	e.recordAudit(ctx, conv, userMsg.ID, storage.AuditTypeUser, tokens, 0, "")

	prov, err := e.newProvider(backendFor(conv))
	if err != nil {
		return chat.NewServerError("configuring provider: " + err.Error())
	}
	defer prov.Close()

	st := &exchange{
		conv:        conv,
		prov:        prov,
		funcs:       funcs,
		llmMessages: translateHistory(reverseMessages(window)),
		history:     reverseMessages(path),
		parentID:    toolMsg.ID,
		userMsg:     userMsg,
	}
	return e.runExchange(ctx, st, w)
}

// resolveConfirm produces the tool result for a confirmation verdict. The
// tool runs only on an explicit allow; denials and unresolvable tool names
// reduce to synthetic result strings the model can react to.
func (e *Engine) resolveConfirm(ctx context.Context, funcs *tools.Registry, cr *chat.ConfirmRequest, allow bool, history []chat.Message, assistantMsgID string) (string, error) {
	fn := funcs.Lookup(cr.ToolName)
	if fn == nil {
		return "No such function: " + cr.ToolName, nil
	}
	if !allow {
		observeTool(cr.ToolName, "denied")
		return "User denied access to function", nil
	}

	output, err := fn.Invoke(ctx, tools.Invocation{
		Args:               cr.ToolArgs,
		History:            history,
		AssistantMessageID: assistantMsgID,
	})
	if err != nil {
		observeTool(cr.ToolName, "error")
		return "", chat.NewServerError(fmt.Sprintf("invoking %s: %v", cr.ToolName, err))
	}
	observeTool(cr.ToolName, "success")
	return output, nil
}

// recordAudit appends an audit entry, logging rather than failing on error.
func (e *Engine) recordAudit(ctx context.Context, conv *storage.Conversation, messageID, auditType string, promptTokens, completionTokens int, errText string) {
	entry := &storage.AuditEntry{
		ID:               uuid.New(),
		MessageID:        messageID,
		ConversationID:   conv.ID,
		UserID:           conv.OwnerID,
		AssistantID:      conv.AssistantID,
		Type:             auditType,
		Model:            conv.Model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		SentAt:           time.Now().UTC(),
		Errors:           errText,
	}
	if err := e.store.RecordInteraction(ctx, entry); err != nil {
		logAuditFailure(messageID, err)
	}
}

// backendFor maps a conversation's provider settings to a backend handle.
func backendFor(conv *storage.Conversation) registry.Backend {
	return registry.Backend{
		Kind:    registry.Kind(conv.ProviderKind),
		APIKey:  conv.APIKey,
		BaseURL: conv.Endpoint,
	}
}

// reverseMessages returns a new slice with the messages in opposite order.
func reverseMessages(in []chat.Message) []chat.Message {
	out := make([]chat.Message, len(in))
	for i, msg := range in {
		out[len(in)-1-i] = msg
	}
	return out
}
