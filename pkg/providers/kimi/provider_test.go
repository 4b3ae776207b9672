package kimiprovider

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/attache-ai/attache/pkg/providers/protocoltypes"
)

func newChatServer(t *testing.T, requestBody *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(requestBody); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}, "finish_reason": "stop"},
			},
		})
	}))
}

func TestSupportsToolsFalse(t *testing.T) {
	p := NewProvider("key")
	if p.SupportsTools() {
		t.Fatal("kimi adapter must report no tool support")
	}
}

func TestChatK2TemperaturePinned(t *testing.T) {
	var requestBody map[string]any
	server := newChatServer(t, &requestBody)
	defer server.Close()

	p := NewProviderWithBaseURL("key", server.URL)
	_, err := p.Chat(
		t.Context(),
		[]Message{{Role: "user", Content: "hi"}},
		nil,
		"moonshot/kimi-k2-0711-preview",
		map[string]any{"temperature": 0.3},
	)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got := requestBody["temperature"]; got != 1.0 {
		t.Errorf("temperature = %v, want pinned to 1", got)
	}
	if got := requestBody["model"]; got != "kimi-k2-0711-preview" {
		t.Errorf("model = %v, want prefix stripped", got)
	}
}

func TestChatTemperaturePassedThroughForNonK2(t *testing.T) {
	var requestBody map[string]any
	server := newChatServer(t, &requestBody)
	defer server.Close()

	p := NewProviderWithBaseURL("key", server.URL)
	_, err := p.Chat(
		t.Context(),
		[]Message{{Role: "user", Content: "hi"}},
		nil,
		"moonshot-v1-8k",
		map[string]any{"temperature": 0.3},
	)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got := requestBody["temperature"]; got != 0.3 {
		t.Errorf("temperature = %v, want 0.3", got)
	}
}

func TestChatFlattensToolMessages(t *testing.T) {
	var requestBody map[string]any
	server := newChatServer(t, &requestBody)
	defer server.Close()

	p := NewProviderWithBaseURL("key", server.URL)
	_, err := p.Chat(
		t.Context(),
		[]Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: ""},
			{Role: "tool", Content: "3 events found", ToolCallID: "call-1"},
		},
		nil, "", nil,
	)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	messages := requestBody["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want empty assistant message dropped", len(messages))
	}
	last := messages[1].(map[string]any)
	if last["role"] != "user" {
		t.Errorf("tool message role = %v, want user", last["role"])
	}
	if last["content"] != "Tool result:\n3 events found" {
		t.Errorf("tool message content = %v", last["content"])
	}
}

func TestChatNon200ReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "key expired", http.StatusUnauthorized)
	}))
	defer server.Close()

	p := NewProviderWithBaseURL("key", server.URL)
	_, err := p.Chat(t.Context(), []Message{{Role: "user", Content: "hi"}}, nil, "", nil)
	var apiErr *protocoltypes.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.Status)
	}
}

func TestChatEmptyChoicesInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	p := NewProviderWithBaseURL("key", server.URL)
	_, err := p.Chat(t.Context(), []Message{{Role: "user", Content: "hi"}}, nil, "", nil)
	if !errors.Is(err, protocoltypes.ErrInvalidResponse) {
		t.Fatalf("error = %v, want ErrInvalidResponse", err)
	}
}
