package engine

// Config holds engine-level settings.
type Config struct {
	// MaxToolTurns caps the number of provider turns within one exchange.
	// 0 disables the cap, leaving termination to the model.
	MaxToolTurns int

	// DisableSummarization turns off conversation title generation.
	DisableSummarization bool
}
