package timeofday

import (
	"context"
	"testing"
	"time"

	"github.com/parleychat/parley/pkg/tools"
)

func TestInvokeReturnsFormattedTime(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	fn := New(func() time.Time { return fixed })

	if fn.Name != Name {
		t.Errorf("Name = %q, want %q", fn.Name, Name)
	}
	if fn.RequireConfirm {
		t.Error("RequireConfirm = true, want false")
	}

	out, err := fn.Invoke(context.Background(), tools.Invocation{})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	want := fixed.Format(time.RFC1123Z)
	if out != want {
		t.Errorf("Invoke() = %q, want %q", out, want)
	}
}

func TestNewDefaultsToRealClock(t *testing.T) {
	fn := New(nil)
	out, err := fn.Invoke(context.Background(), tools.Invocation{})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if _, err := time.Parse(time.RFC1123Z, out); err != nil {
		t.Errorf("Invoke() = %q, not RFC1123Z: %v", out, err)
	}
}
