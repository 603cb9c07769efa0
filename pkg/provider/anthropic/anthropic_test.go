package anthropic

import (
	"context"
	"testing"
	"time"

	"github.com/parleychat/parley/pkg/provider"
)

func TestSendDelivers(t *testing.T) {
	ch := make(chan provider.Chunk, 1)
	if !send(context.Background(), ch, provider.Chunk{Type: provider.ChunkTextDelta, Delta: "x"}) {
		t.Fatal("send() = false with channel capacity available")
	}
	if got := <-ch; got.Delta != "x" {
		t.Errorf("delta = %q", got.Delta)
	}
}

func TestSendStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan provider.Chunk)

	done := make(chan bool, 1)
	go func() {
		done <- send(ctx, ch, provider.Chunk{Type: provider.ChunkTextDelta, Delta: "x"})
	}()

	// Nothing reads ch; cancellation must unblock the sender.
	cancel()
	select {
	case delivered := <-done:
		if delivered {
			t.Error("send() = true on a cancelled context with no reader")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send still blocked after cancellation")
	}
}
