// Package memory provides an in-memory implementation of storage.Store
// for testing and lightweight deployments. Records are lost when the
// process restarts. Optional LRU eviction limits memory usage by dropping
// the least recently used conversation together with its messages.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"

	"github.com/parleychat/parley/pkg/chat"
	"github.com/parleychat/parley/pkg/storage"
)

// convEntry holds a stored conversation and its metadata.
type convEntry struct {
	conv     *storage.Conversation
	tenantID string
	lruElem  *list.Element // position in LRU list
}

// Store is an in-memory storage.Store with optional LRU eviction.
type Store struct {
	mu       sync.RWMutex
	convs    map[string]*convEntry
	messages map[string]*chat.Message
	byConv   map[string][]string // conversation ID -> message IDs, insert order
	audit    []storage.AuditEntry
	lruList  *list.List // front = most recently used, back = least recently used
	maxSize  int        // 0 = unlimited
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the least recently used conversation is
// evicted when the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		convs:    make(map[string]*convEntry),
		messages: make(map[string]*chat.Message),
		byConv:   make(map[string][]string),
		lruList:  list.New(),
		maxSize:  maxSize,
	}
}

// CreateConversation stores a new conversation in memory.
func (s *Store) CreateConversation(ctx context.Context, conv *storage.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.convs[conv.ID]; exists {
		return storage.ErrConflict
	}

	// Evict if at capacity.
	if s.maxSize > 0 && len(s.convs) >= s.maxSize {
		s.evictOldest()
	}

	stored := *conv
	elem := s.lruList.PushFront(conv.ID)
	s.convs[conv.ID] = &convEntry{
		conv:     &stored,
		tenantID: storage.GetTenant(ctx),
		lruElem:  elem,
	}

	return nil
}

// GetConversation retrieves a conversation by ID. Returns ErrNotFound if it
// does not exist. Scoped by tenant when a tenant is present in the context.
func (s *Store) GetConversation(ctx context.Context, id string) (*storage.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	s.lruList.MoveToFront(e.lruElem)
	conv := *e.conv
	return &conv, nil
}

// SetConversationName updates the conversation title.
func (s *Store) SetConversationName(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	e.conv.Name = name
	return nil
}

// SaveMessage stores a new message in memory.
func (s *Store) SaveMessage(ctx context.Context, msg *chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.messages[msg.ID]; exists {
		return storage.ErrConflict
	}

	stored := *msg
	s.messages[msg.ID] = &stored
	s.byConv[msg.ConversationID] = append(s.byConv[msg.ConversationID], msg.ID)
	return nil
}

// UpdateMessage replaces a stored message.
func (s *Store) UpdateMessage(ctx context.Context, msg *chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.messages[msg.ID]; !exists {
		return storage.ErrNotFound
	}

	stored := *msg
	s.messages[msg.ID] = &stored
	return nil
}

// GetMessage retrieves a message by ID.
func (s *Store) GetMessage(ctx context.Context, id string) (*chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.messages[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	msg := *stored
	return &msg, nil
}

// ListMessages returns all messages of a conversation ordered by SentAt
// ascending. Messages with equal timestamps keep insertion order.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byConv[conversationID]
	msgs := make([]chat.Message, 0, len(ids))
	for _, id := range ids {
		msgs = append(msgs, *s.messages[id])
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
	return msgs, nil
}

// RecordInteraction appends an audit entry.
func (s *Store) RecordInteraction(ctx context.Context, entry *storage.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, *entry)
	return nil
}

// AuditEntries returns a copy of all recorded audit entries. Intended for
// tests and diagnostics.
func (s *Store) AuditEntries() []storage.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]storage.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

// Close releases storage resources. A no-op for the memory store.
func (s *Store) Close() error {
	return nil
}

// lookup finds a conversation entry, enforcing tenant scoping.
// Caller must hold the lock.
func (s *Store) lookup(ctx context.Context, id string) (*convEntry, error) {
	e, exists := s.convs[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	if tenant := storage.GetTenant(ctx); tenant != "" && e.tenantID != tenant {
		return nil, storage.ErrNotFound
	}
	return e, nil
}

// evictOldest removes the least recently used conversation and its
// messages. Caller must hold the lock.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}
	id := back.Value.(string)
	s.lruList.Remove(back)
	delete(s.convs, id)
	for _, msgID := range s.byConv[id] {
		delete(s.messages, msgID)
	}
	delete(s.byConv, id)
}
