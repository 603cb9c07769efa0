// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling and JSONB for structured columns.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/storage"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// CreateConversation persists a new conversation.
func (s *Store) CreateConversation(ctx context.Context, conv *storage.Conversation) error {
	tenantID := storage.GetTenant(ctx)

	toolsJSON, err := json.Marshal(conv.Tools)
	if err != nil {
		return fmt.Errorf("marshaling tools: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO conversations (
			id, tenant_id, owner_id, assistant_id, name,
			system_prompt, model, temperature, token_limit, tools,
			provider_kind, endpoint, api_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		conv.ID, tenantID, conv.OwnerID, nullString(conv.AssistantID), conv.Name,
		conv.SystemPrompt, conv.Model, conv.Temperature, conv.TokenLimit, toolsJSON,
		conv.ProviderKind, nullString(conv.Endpoint), nullString(conv.APIKey),
		conv.CreatedAt, conv.UpdatedAt,
	)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting conversation: %w", err)
	}

	return nil
}

// GetConversation retrieves a conversation by ID.
func (s *Store) GetConversation(ctx context.Context, id string) (*storage.Conversation, error) {
	tenantID := storage.GetTenant(ctx)

	query := `
		SELECT id, owner_id, assistant_id, name,
		       system_prompt, model, temperature, token_limit, tools,
		       provider_kind, endpoint, api_key, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`
	args := []any{id}

	if tenantID != "" {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}

	var conv storage.Conversation
	var assistantID, endpoint, apiKey *string
	var toolsJSON []byte

	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&conv.ID, &conv.OwnerID, &assistantID, &conv.Name,
		&conv.SystemPrompt, &conv.Model, &conv.Temperature, &conv.TokenLimit, &toolsJSON,
		&conv.ProviderKind, &endpoint, &apiKey, &conv.CreatedAt, &conv.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	if assistantID != nil {
		conv.AssistantID = *assistantID
	}
	if endpoint != nil {
		conv.Endpoint = *endpoint
	}
	if apiKey != nil {
		conv.APIKey = *apiKey
	}
	if len(toolsJSON) > 0 {
		if err := json.Unmarshal(toolsJSON, &conv.Tools); err != nil {
			return nil, fmt.Errorf("unmarshaling tools: %w", err)
		}
	}

	return &conv, nil
}

// SetConversationName updates the conversation title.
func (s *Store) SetConversationName(ctx context.Context, id, name string) error {
	tenantID := storage.GetTenant(ctx)

	query := "UPDATE conversations SET name = $1, updated_at = $2 WHERE id = $3"
	args := []any{name, time.Now().UTC(), id}

	if tenantID != "" {
		query += " AND tenant_id = $4"
		args = append(args, tenantID)
	}

	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating conversation name: %w", err)
	}

	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// SaveMessage persists a new message.
func (s *Store) SaveMessage(ctx context.Context, msg *chat.Message) error {
	tenantID := storage.GetTenant(ctx)

	cols, err := marshalMessageColumns(msg)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO messages (
			id, tenant_id, conversation_id, parent, role, content,
			attachments, tool_call, tool_call_id,
			confirm_request, confirm_response, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		msg.ID, tenantID, msg.ConversationID, nullString(msg.Parent),
		string(msg.Role), msg.Content,
		nullJSON(cols.attachments), nullJSON(cols.toolCall), nullString(msg.ToolCallID),
		nullJSON(cols.confirmRequest), nullJSON(cols.confirmResponse), msg.SentAt,
	)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting message: %w", err)
	}

	return nil
}

// UpdateMessage replaces a stored message, keeping its identity columns.
func (s *Store) UpdateMessage(ctx context.Context, msg *chat.Message) error {
	tenantID := storage.GetTenant(ctx)

	cols, err := marshalMessageColumns(msg)
	if err != nil {
		return err
	}

	query := `
		UPDATE messages SET
			parent = $1, role = $2, content = $3,
			attachments = $4, tool_call = $5, tool_call_id = $6,
			confirm_request = $7, confirm_response = $8, sent_at = $9
		WHERE id = $10
	`
	args := []any{
		nullString(msg.Parent), string(msg.Role), msg.Content,
		nullJSON(cols.attachments), nullJSON(cols.toolCall), nullString(msg.ToolCallID),
		nullJSON(cols.confirmRequest), nullJSON(cols.confirmResponse), msg.SentAt,
		msg.ID,
	}

	if tenantID != "" {
		query += " AND tenant_id = $11"
		args = append(args, tenantID)
	}

	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating message: %w", err)
	}

	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// GetMessage retrieves a message by ID.
func (s *Store) GetMessage(ctx context.Context, id string) (*chat.Message, error) {
	tenantID := storage.GetTenant(ctx)

	query := messageSelect + " WHERE id = $1"
	args := []any{id}

	if tenantID != "" {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying message: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying message: %w", err)
		}
		return nil, storage.ErrNotFound
	}

	msg, err := scanMessage(rows)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns all messages of a conversation ordered by sent_at
// ascending.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	tenantID := storage.GetTenant(ctx)

	query := messageSelect + " WHERE conversation_id = $1"
	args := []any{conversationID}

	if tenantID != "" {
		query += " AND tenant_id = $2"
		args = append(args, tenantID)
	}
	query += " ORDER BY sent_at ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}

	return msgs, nil
}

// RecordInteraction appends an audit entry.
func (s *Store) RecordInteraction(ctx context.Context, entry *storage.AuditEntry) error {
	tenantID := storage.GetTenant(ctx)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (
			id, tenant_id, message_id, conversation_id, user_id, assistant_id,
			type, model, prompt_tokens, completion_tokens, sent_at, errors
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		entry.ID, tenantID, entry.MessageID, entry.ConversationID,
		entry.UserID, nullString(entry.AssistantID),
		entry.Type, entry.Model, entry.PromptTokens, entry.CompletionTokens,
		entry.SentAt, nullString(entry.Errors),
	)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const messageSelect = `
	SELECT id, conversation_id, parent, role, content,
	       attachments, tool_call, tool_call_id,
	       confirm_request, confirm_response, sent_at
	FROM messages
`

// messageColumns holds the JSONB encodings of a message's structured fields.
type messageColumns struct {
	attachments     []byte
	toolCall        []byte
	confirmRequest  []byte
	confirmResponse []byte
}

func marshalMessageColumns(msg *chat.Message) (messageColumns, error) {
	var cols messageColumns
	var err error

	if len(msg.Attachments) > 0 {
		if cols.attachments, err = json.Marshal(msg.Attachments); err != nil {
			return cols, fmt.Errorf("marshaling attachments: %w", err)
		}
	}
	if msg.ToolCall != nil {
		if cols.toolCall, err = json.Marshal(msg.ToolCall); err != nil {
			return cols, fmt.Errorf("marshaling tool call: %w", err)
		}
	}
	if msg.ConfirmRequest != nil {
		if cols.confirmRequest, err = json.Marshal(msg.ConfirmRequest); err != nil {
			return cols, fmt.Errorf("marshaling confirm request: %w", err)
		}
	}
	if msg.ConfirmResponse != nil {
		if cols.confirmResponse, err = json.Marshal(msg.ConfirmResponse); err != nil {
			return cols, fmt.Errorf("marshaling confirm response: %w", err)
		}
	}

	return cols, nil
}

func scanMessage(rows pgx.Rows) (*chat.Message, error) {
	var msg chat.Message
	var role string
	var parent, toolCallID *string
	var attachmentsJSON, toolCallJSON, confirmReqJSON, confirmRespJSON *[]byte

	err := rows.Scan(
		&msg.ID, &msg.ConversationID, &parent, &role, &msg.Content,
		&attachmentsJSON, &toolCallJSON, &toolCallID,
		&confirmReqJSON, &confirmRespJSON, &msg.SentAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning message: %w", err)
	}

	msg.Role = chat.Role(role)
	if parent != nil {
		msg.Parent = *parent
	}
	if toolCallID != nil {
		msg.ToolCallID = *toolCallID
	}

	if attachmentsJSON != nil {
		if err := json.Unmarshal(*attachmentsJSON, &msg.Attachments); err != nil {
			return nil, fmt.Errorf("unmarshaling attachments: %w", err)
		}
	}
	if toolCallJSON != nil {
		var tc chat.ToolCall
		if err := json.Unmarshal(*toolCallJSON, &tc); err != nil {
			return nil, fmt.Errorf("unmarshaling tool call: %w", err)
		}
		msg.ToolCall = &tc
	}
	if confirmReqJSON != nil {
		var cr chat.ConfirmRequest
		if err := json.Unmarshal(*confirmReqJSON, &cr); err != nil {
			return nil, fmt.Errorf("unmarshaling confirm request: %w", err)
		}
		msg.ConfirmRequest = &cr
	}
	if confirmRespJSON != nil {
		var cv chat.ConfirmResponse
		if err := json.Unmarshal(*confirmRespJSON, &cv); err != nil {
			return nil, fmt.Errorf("unmarshaling confirm response: %w", err)
		}
		msg.ConfirmResponse = &cv
	}

	return &msg, nil
}

// nullString converts an empty string to nil for nullable TEXT columns.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullJSON converts nil/empty byte slices to nil for nullable JSONB columns.
func nullJSON(b []byte) *[]byte {
	if len(b) == 0 {
		return nil
	}
	return &b
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
