package engine

import "github.com/parleychat/parley/pkg/chat"

// PathToRoot walks parent links from leaf back to the conversation root
// and returns the path ordered newest first: [leaf, parent(leaf), ...].
//
// The walk stops when a message has no parent or when a parent ID is not
// present in messages; a detached or truncated history window yields a
// partial path rather than an error. A repeated ID ends the walk the same
// way, so a corrupted parent chain cannot loop forever.
func PathToRoot(messages []chat.Message, leaf chat.Message) []chat.Message {
	byID := make(map[string]*chat.Message, len(messages))
	for i := range messages {
		byID[messages[i].ID] = &messages[i]
	}

	visited := map[string]bool{leaf.ID: true}
	path := []chat.Message{leaf}

	current := leaf
	for current.Parent != "" {
		parent, ok := byID[current.Parent]
		if !ok || visited[parent.ID] {
			break
		}
		visited[parent.ID] = true
		path = append(path, *parent)
		current = *parent
	}

	return path
}
