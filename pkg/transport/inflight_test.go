package transport

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterTakeoverCancelsPredecessor(t *testing.T) {
	r := NewInFlightRegistry()

	ctxA, _ := r.Register(context.Background(), "conv-1")
	ctxB, _ := r.Register(context.Background(), "conv-1")

	if !errors.Is(ctxA.Err(), context.Canceled) {
		t.Errorf("predecessor context not cancelled: %v", ctxA.Err())
	}
	if ctxB.Err() != nil {
		t.Errorf("successor context cancelled: %v", ctxB.Err())
	}
}

func TestRemoveAfterTakeoverKeepsSuccessor(t *testing.T) {
	r := NewInFlightRegistry()

	_, regA := r.Register(context.Background(), "conv-1")
	ctxB, _ := r.Register(context.Background(), "conv-1")

	// A unwinds after B's takeover. Only A's own entry may be released.
	regA.Remove()

	if ctxB.Err() != nil {
		t.Fatalf("successor context cancelled by predecessor's Remove: %v", ctxB.Err())
	}
	if !r.Cancel("conv-1") {
		t.Fatal("Cancel() = false, successor entry was dropped")
	}
	if !errors.Is(ctxB.Err(), context.Canceled) {
		t.Errorf("successor context not cancelled after Cancel: %v", ctxB.Err())
	}
}

func TestRemoveReleasesOwnEntry(t *testing.T) {
	r := NewInFlightRegistry()

	ctx, reg := r.Register(context.Background(), "conv-1")
	reg.Remove()

	if !errors.Is(ctx.Err(), context.Canceled) {
		t.Errorf("context not released by Remove: %v", ctx.Err())
	}
	if r.Cancel("conv-1") {
		t.Error("Cancel() = true, entry survived Remove")
	}
}

func TestCancelUnknownConversation(t *testing.T) {
	r := NewInFlightRegistry()

	if r.Cancel("conv-unknown") {
		t.Error("Cancel() = true for an unknown conversation")
	}
}
