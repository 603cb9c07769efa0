package engine

import (
	"testing"

	"github.com/parleychat/parley/pkg/chat"
)

func msg(id, parent, content string) chat.Message {
	return chat.Message{ID: id, ConversationID: "conv_1", Parent: parent, Role: chat.RoleUser, Content: content}
}

func TestPathToRoot(t *testing.T) {
	root := msg("m1", "", "root")
	mid := msg("m2", "m1", "mid")
	leaf := msg("m3", "m2", "leaf")
	sibling := msg("m4", "m1", "other branch")

	tests := []struct {
		name     string
		messages []chat.Message
		leaf     chat.Message
		wantIDs  []string
	}{
		{
			name:     "full chain",
			messages: []chat.Message{root, mid, leaf, sibling},
			leaf:     leaf,
			wantIDs:  []string{"m3", "m2", "m1"},
		},
		{
			name:     "sibling branch excluded",
			messages: []chat.Message{root, mid, leaf, sibling},
			leaf:     sibling,
			wantIDs:  []string{"m4", "m1"},
		},
		{
			name:     "leaf is root",
			messages: []chat.Message{root},
			leaf:     root,
			wantIDs:  []string{"m1"},
		},
		{
			name:     "missing parent yields partial path",
			messages: []chat.Message{mid, leaf},
			leaf:     leaf,
			wantIDs:  []string{"m3", "m2"},
		},
		{
			name:     "unordered input",
			messages: []chat.Message{leaf, sibling, root, mid},
			leaf:     leaf,
			wantIDs:  []string{"m3", "m2", "m1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PathToRoot(tt.messages, tt.leaf)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("path length = %d, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("path[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestPathToRootCyclicChain(t *testing.T) {
	// a -> b -> a is corrupted input; the walk must terminate.
	a := msg("a", "b", "")
	b := msg("b", "a", "")

	got := PathToRoot([]chat.Message{a, b}, a)

	if len(got) != 2 {
		t.Fatalf("path length = %d, want 2", len(got))
	}
	seen := map[string]bool{}
	for _, m := range got {
		if seen[m.ID] {
			t.Fatalf("repeated id %q in path", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestPathToRootSelfParent(t *testing.T) {
	self := msg("m1", "m1", "")

	got := PathToRoot([]chat.Message{self}, self)
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("path = %v, want just m1", got)
	}
}
