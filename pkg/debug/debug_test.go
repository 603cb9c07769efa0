package debug

import (
	"log/slog"
	"slices"
	"testing"
)

func setCategories(t *testing.T, spec string) {
	t.Helper()
	orig := categories
	t.Cleanup(func() { categories = orig })
	categories = parseCategories(spec)
}

func TestParseCategories(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]bool
	}{
		{"empty", "", map[string]bool{}},
		{"single", "providers", map[string]bool{"providers": true}},
		{"multiple", "providers,engine", map[string]bool{"providers": true, "engine": true}},
		{"all", "all", map[string]bool{"all": true}},
		{"with spaces", " providers , engine ", map[string]bool{"providers": true, "engine": true}},
		{"uppercase normalized", "PROVIDERS,Engine", map[string]bool{"providers": true, "engine": true}},
		{"empty segments", "providers,,engine", map[string]bool{"providers": true, "engine": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCategories(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("len(got) = %d, want %d", len(got), len(tt.want))
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		category string
		want     bool
	}{
		{"listed category", "providers,engine", "providers", true},
		{"other listed category", "providers,engine", "engine", true},
		{"unlisted category", "providers,engine", "mcp", false},
		{"all wildcard", "all", "anything", true},
		{"empty spec", "", "providers", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setCategories(t, tt.spec)
			if got := Enabled(tt.category); got != tt.want {
				t.Errorf("Enabled(%q) = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestInitEnvOverridesConfig(t *testing.T) {
	orig := categories
	t.Cleanup(func() { categories = orig })

	t.Setenv("PARLEY_DEBUG", "mcp")
	Init("providers")

	if !Enabled("mcp") {
		t.Error("mcp should be enabled via PARLEY_DEBUG")
	}
	if Enabled("providers") {
		t.Error("config categories should lose to PARLEY_DEBUG")
	}
}

func TestInitFallsBackToConfig(t *testing.T) {
	orig := categories
	t.Cleanup(func() { categories = orig })

	t.Setenv("PARLEY_DEBUG", "")
	Init("providers,auth")

	if !Enabled("providers") || !Enabled("auth") {
		t.Errorf("Categories() = %v, want providers and auth from config", Categories())
	}
}

func TestCategories(t *testing.T) {
	setCategories(t, "engine,mcp")
	got := Categories()
	slices.Sort(got)
	want := []string{"engine", "mcp"}
	if !slices.Equal(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"TRACE", LevelTrace},
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate short = %q, want %q", got, "short")
	}
	if got := Truncate("this is a long string", 10); got != "this is a ..." {
		t.Errorf("Truncate long = %q, want %q", got, "this is a ...")
	}
}

func TestLogDisabledCategoryIsNoop(t *testing.T) {
	setCategories(t, "")

	// Should not panic or produce output.
	Log("providers", "test message", "key", "value")
	Trace("providers", "trace message", "key", "value")
}
