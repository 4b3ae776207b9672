package geminiprovider

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/attache-ai/attache/pkg/providers/protocoltypes"
)

func TestChatStripsModelPrefixAndSetsToolChoice(t *testing.T) {
	var requestBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			http.Error(w, "bad auth", http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
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
	defer server.Close()

	p := NewProviderWithBaseURL("key", server.URL)
	resp, err := p.Chat(
		t.Context(),
		[]Message{{Role: "user", Content: "hi"}},
		[]ToolDefinition{{Type: "function"}},
		"google/gemini-2.0-flash",
		nil,
	)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("content = %q", resp.Content)
	}
	if got := requestBody["model"]; got != "gemini-2.0-flash" {
		t.Errorf("model = %v, want prefix stripped", got)
	}
	if got := requestBody["tool_choice"]; got != "auto" {
		t.Errorf("tool_choice = %v, want auto", got)
	}
}

func TestChatParsesToolCallsWithIDFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{
					"message": map[string]any{
						"content": "",
						"tool_calls": []map[string]any{
							{
								"id":   "call_1",
								"type": "function",
								"function": map[string]any{
									"name":      "list_calendar_events",
									"arguments": `{"start_date":"2026-02-19"}`,
								},
							},
							{
								// The compat endpoint sometimes omits ids.
								"type": "function",
								"function": map[string]any{
									"name":      "search_emails",
									"arguments": `{"query":"is:unread"}`,
								},
							},
						},
					},
					"finish_reason": "tool_calls",
				},
			},
		})
	}))
	defer server.Close()

	p := NewProviderWithBaseURL("key", server.URL)
	resp, err := p.Chat(t.Context(), []Message{{Role: "user", Content: "hi"}}, nil, "", nil)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if len(resp.ToolCalls) != 2 {
		t.Fatalf("tool calls = %d, want 2", len(resp.ToolCalls))
	}
	if resp.ToolCalls[0].ID != "call_1" {
		t.Errorf("first id = %q, want call_1", resp.ToolCalls[0].ID)
	}
	if got := resp.ToolCalls[0].Arguments["start_date"]; got != "2026-02-19" {
		t.Errorf("arguments not decoded: %v", resp.ToolCalls[0].Arguments)
	}
	if !strings.HasPrefix(resp.ToolCalls[1].ID, "call-") || len(resp.ToolCalls[1].ID) <= len("call-") {
		t.Errorf("missing id should get a generated call- id, got %q", resp.ToolCalls[1].ID)
	}
}

func TestChatUndecodableArgumentsKeptRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{
					"message": map[string]any{
						"tool_calls": []map[string]any{
							{
								"id":       "call_1",
								"type":     "function",
								"function": map[string]any{"name": "t", "arguments": "not json"},
							},
						},
					},
					"finish_reason": "tool_calls",
				},
			},
		})
	}))
	defer server.Close()

	p := NewProviderWithBaseURL("key", server.URL)
	resp, err := p.Chat(t.Context(), []Message{{Role: "user", Content: "hi"}}, nil, "", nil)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got := resp.ToolCalls[0].Arguments["raw"]; got != "not json" {
		t.Errorf("arguments = %v, want raw fallback", resp.ToolCalls[0].Arguments)
	}
}

func TestChatNon200ReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewProviderWithBaseURL("key", server.URL)
	_, err := p.Chat(t.Context(), []Message{{Role: "user", Content: "hi"}}, nil, "", nil)
	var apiErr *protocoltypes.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", apiErr.Status)
	}
	if !strings.Contains(apiErr.Body, "quota") {
		t.Errorf("body = %q", apiErr.Body)
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
