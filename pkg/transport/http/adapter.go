package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/storage"
	"github.com/parleychat/parley/pkg/transport"
)

// Adapter translates HTTP requests into exchanges and conversation
// operations. It owns the route table and the in-flight registry used for
// out-of-band cancellation.
type Adapter struct {
	exchanger transport.Exchanger
	store     storage.Store
	inflight  *transport.InFlightRegistry
	config    Config
	mux       *http.ServeMux
	chain     transport.Middleware
}

// Config holds adapter-level configuration.
type Config struct {
	MaxBodySize int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 10 << 20, // 10 MB
	}
}

// NewAdapter creates a transport adapter dispatching to the given exchanger
// and store. Middleware is applied outermost-first around every route.
func NewAdapter(exchanger transport.Exchanger, store storage.Store, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	a := &Adapter{
		exchanger: exchanger,
		store:     store,
		inflight:  transport.NewInFlightRegistry(),
		config:    cfg,
		mux:       http.NewServeMux(),
		chain:     transport.Chain(middlewares...),
	}

	a.mux.HandleFunc("POST /v1/chat", a.handleChat)
	a.mux.HandleFunc("DELETE /v1/chat/{conversationId}", a.handleCancelChat)
	a.mux.HandleFunc("POST /v1/conversations", a.handleCreateConversation)
	a.mux.HandleFunc("GET /v1/conversations/{id}", a.handleGetConversation)
	a.mux.HandleFunc("GET /v1/conversations/{id}/messages", a.handleListMessages)

	return a
}

// Handler returns the adapter's routes wrapped in its middleware chain.
func (a *Adapter) Handler() http.Handler {
	return a.chain(a.mux)
}

// chatRequest is the body of POST /v1/chat. Exactly one of Content or
// ConfirmResponse drives the exchange: a verdict resumes a pending tool
// confirmation, anything else starts a fresh exchange.
type chatRequest struct {
	ConversationID  string                `json:"conversationId"`
	Parent          string                `json:"parent,omitempty"`
	Content         string                `json:"content"`
	Attachments     []chat.Attachment     `json:"attachments,omitempty"`
	ConfirmResponse *chat.ConfirmResponse `json:"confirmResponse,omitempty"`
}

func (a *Adapter) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if req.ConversationID == "" {
		transport.WriteChatError(w, chat.NewInvalidRequestError("conversationId", "conversationId is required"))
		return
	}
	if req.Content == "" && req.ConfirmResponse == nil {
		transport.WriteChatError(w, chat.NewInvalidRequestError("content", "content or confirmResponse is required"))
		return
	}

	conv, ok := a.authorizedConversation(w, r, req.ConversationID)
	if !ok {
		return
	}

	msg := &chat.Message{
		ID:              chat.NewMessageID(),
		ConversationID:  conv.ID,
		Parent:          req.Parent,
		Role:            chat.RoleUser,
		Content:         req.Content,
		Attachments:     req.Attachments,
		ConfirmResponse: req.ConfirmResponse,
		SentAt:          time.Now().UTC(),
	}

	ctx, reg := a.inflight.Register(r.Context(), conv.ID)
	defer reg.Remove()

	sw := newSSEStreamWriter(w)

	var err error
	if req.ConfirmResponse != nil {
		err = a.exchanger.ResumeConfirm(ctx, conv, msg, sw)
	} else {
		err = a.exchanger.SendMessage(ctx, conv, msg, sw)
	}
	if err != nil {
		sw.WriteError(ctx, transport.AsChatError(err))
	}
}

func (a *Adapter) handleCancelChat(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("conversationId")
	if !a.inflight.Cancel(conversationID) {
		transport.WriteChatError(w, chat.NewNotFoundError("no exchange in flight for conversation"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// createConversationRequest is the body of POST /v1/conversations.
type createConversationRequest struct {
	AssistantID  string   `json:"assistantId,omitempty"`
	Name         string   `json:"name,omitempty"`
	SystemPrompt string   `json:"systemPrompt,omitempty"`
	Model        string   `json:"model"`
	Temperature  *float64 `json:"temperature,omitempty"`
	TokenLimit   int      `json:"tokenLimit,omitempty"`
	Tools        []string `json:"tools,omitempty"`
	ProviderKind string   `json:"providerKind"`
	Endpoint     string   `json:"endpoint,omitempty"`
	APIKey       string   `json:"apiKey,omitempty"`
}

// conversationResponse is the outward shape of a conversation. The API key
// never leaves the server.
type conversationResponse struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId,omitempty"`
	AssistantID  string    `json:"assistantId,omitempty"`
	Name         string    `json:"name,omitempty"`
	SystemPrompt string    `json:"systemPrompt,omitempty"`
	Model        string    `json:"model"`
	Temperature  *float64  `json:"temperature,omitempty"`
	TokenLimit   int       `json:"tokenLimit,omitempty"`
	Tools        []string  `json:"tools,omitempty"`
	ProviderKind string    `json:"providerKind"`
	Endpoint     string    `json:"endpoint,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toConversationResponse(conv *storage.Conversation) conversationResponse {
	return conversationResponse{
		ID:           conv.ID,
		OwnerID:      conv.OwnerID,
		AssistantID:  conv.AssistantID,
		Name:         conv.Name,
		SystemPrompt: conv.SystemPrompt,
		Model:        conv.Model,
		Temperature:  conv.Temperature,
		TokenLimit:   conv.TokenLimit,
		Tools:        conv.Tools,
		ProviderKind: conv.ProviderKind,
		Endpoint:     conv.Endpoint,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
}

func (a *Adapter) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if req.Model == "" {
		transport.WriteChatError(w, chat.NewInvalidRequestError("model", "model is required"))
		return
	}
	if req.ProviderKind == "" {
		transport.WriteChatError(w, chat.NewInvalidRequestError("providerKind", "providerKind is required"))
		return
	}

	now := time.Now().UTC()
	conv := &storage.Conversation{
		ID:           chat.NewConversationID(),
		OwnerID:      transport.UserIDFromContext(r.Context()),
		AssistantID:  req.AssistantID,
		Name:         req.Name,
		SystemPrompt: req.SystemPrompt,
		Model:        req.Model,
		Temperature:  req.Temperature,
		TokenLimit:   req.TokenLimit,
		Tools:        req.Tools,
		ProviderKind: req.ProviderKind,
		Endpoint:     req.Endpoint,
		APIKey:       req.APIKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := a.store.CreateConversation(r.Context(), conv); err != nil {
		a.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toConversationResponse(conv))
}

func (a *Adapter) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := a.authorizedConversation(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toConversationResponse(conv))
}

func (a *Adapter) handleListMessages(w http.ResponseWriter, r *http.Request) {
	conv, ok := a.authorizedConversation(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	messages, err := a.store.ListMessages(r.Context(), conv.ID)
	if err != nil {
		a.writeStoreError(w, err)
		return
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// authorizedConversation loads a conversation and verifies the requesting
// user owns it. Ownership failures surface as not-found so the endpoint
// does not leak which conversation IDs exist.
func (a *Adapter) authorizedConversation(w http.ResponseWriter, r *http.Request, id string) (*storage.Conversation, bool) {
	if id == "" {
		transport.WriteChatError(w, chat.NewInvalidRequestError("conversationId", "conversation ID is required"))
		return nil, false
	}

	conv, err := a.store.GetConversation(r.Context(), id)
	if err != nil {
		a.writeStoreError(w, err)
		return nil, false
	}

	if userID := transport.UserIDFromContext(r.Context()); userID != "" && conv.OwnerID != "" && conv.OwnerID != userID {
		transport.WriteChatError(w, chat.NewNotFoundError("conversation not found"))
		return nil, false
	}

	return conv, true
}

// decodeJSON validates the content type, enforces the body size limit and
// decodes the request body into dst. On failure it writes the error
// response and returns false.
func (a *Adapter) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	contentType := r.Header.Get("Content-Type")
	if mediaType, _, _ := strings.Cut(contentType, ";"); strings.TrimSpace(mediaType) != "application/json" {
		transport.WriteErrorResponse(w,
			chat.NewInvalidRequestError("", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			transport.WriteErrorResponse(w,
				chat.NewInvalidRequestError("", "request body too large"),
				http.StatusRequestEntityTooLarge)
			return false
		}
		transport.WriteChatError(w, chat.NewInvalidRequestError("", "invalid JSON body"))
		return false
	}
	return true
}

func (a *Adapter) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		transport.WriteChatError(w, chat.NewNotFoundError("conversation not found"))
	case errors.Is(err, storage.ErrConflict):
		transport.WriteErrorResponse(w,
			chat.NewInvalidRequestError("id", "resource already exists"),
			http.StatusConflict)
	default:
		transport.WriteChatError(w, chat.NewServerError("storage failure"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
