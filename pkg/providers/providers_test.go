package providers

import (
	"errors"
	"testing"
)

func TestCreateWithoutCredentials(t *testing.T) {
	for _, name := range Names {
		if _, err := Create(name, Options{}); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("Create(%q) error = %v, want ErrNotConfigured", name, err)
		}
	}
}

func TestCreateUnknownProvider(t *testing.T) {
	if _, err := Create("grok", Options{APIKey: "k"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestCreateKnownProviders(t *testing.T) {
	for _, name := range Names {
		p, err := Create(name, Options{APIKey: "k"})
		if err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
		if p == nil {
			t.Fatalf("Create(%q) returned nil provider", name)
		}
		if name == "kimi" && SupportsTools(p) {
			t.Error("kimi must report no tool support")
		}
		if name != "kimi" && !SupportsTools(p) {
			t.Errorf("%s should support tools", name)
		}
	}
}
