package tools

import (
	"context"
	"encoding/json"
	"testing"
)

func testFunction(name string) *Function {
	return &Function{
		Name:        name,
		Description: "test function " + name,
		Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
		Invoke: func(ctx context.Context, inv Invocation) (string, error) {
			return "ok", nil
		},
	}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(testFunction("alpha")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(testFunction("beta")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if fn := r.Lookup("alpha"); fn == nil || fn.Name != "alpha" {
		t.Errorf("Lookup(alpha) = %v", fn)
	}
	if fn := r.Lookup("missing"); fn != nil {
		t.Errorf("Lookup(missing) = %v, want nil", fn)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(testFunction("alpha")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(testFunction("alpha")); err == nil {
		t.Fatal("Register() error = nil, want duplicate error")
	}
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&Function{}); err == nil {
		t.Fatal("Register() error = nil, want name error")
	}
}

func TestRegistrySubset(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"alpha", "beta", "gamma"} {
		if err := r.Register(testFunction(name)); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	sub := r.Subset([]string{"gamma", "alpha", "unknown"})
	if sub.Len() != 2 {
		t.Fatalf("Subset Len() = %d, want 2", sub.Len())
	}
	if sub.Lookup("beta") != nil {
		t.Error("Subset contains beta, want excluded")
	}

	defs := sub.Definitions()
	if len(defs) != 2 || defs[0].Name != "gamma" || defs[1].Name != "alpha" {
		t.Errorf("Definitions() = %+v, want gamma then alpha", defs)
	}
}

func TestRegistryDefinitionsEmpty(t *testing.T) {
	if defs := NewRegistry().Definitions(); defs != nil {
		t.Errorf("Definitions() = %+v, want nil", defs)
	}
}
