package engine

import "github.com/parleychat/parley/pkg/chat"

// Tokenizer estimates the token cost of a piece of text for budgeting
// purposes. Estimates do not need to match the provider's tokenizer
// exactly; they only bound the history window.
type Tokenizer interface {
	CountTokens(text string) int
}

// HeuristicTokenizer approximates token counts as one token per four
// characters, rounded up. Good enough for window selection across the
// model families we dispatch to.
type HeuristicTokenizer struct{}

var _ Tokenizer = HeuristicTokenizer{}

// CountTokens implements Tokenizer.
func (HeuristicTokenizer) CountTokens(text string) int {
	return (len(text) + 3) / 4
}

// LimitMessages selects the prefix of a newest-to-oldest history that fits
// the token limit and returns the cumulative token count alongside it.
//
// The system prompt is counted first. Each message is appended to the
// selection before the limit check, so the newest message is always
// included even when it alone exceeds the limit; selection stops on the
// first message whose cumulative count crosses the limit.
func LimitMessages(tok Tokenizer, systemPrompt string, newestToOldest []chat.Message, limit int) (int, []chat.Message) {
	count := tok.CountTokens(systemPrompt)

	var selected []chat.Message
	for _, msg := range newestToOldest {
		count += tok.CountTokens(msg.Content)
		selected = append(selected, msg)
		if count > limit {
			break
		}
	}

	return count, selected
}
