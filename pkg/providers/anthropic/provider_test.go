package anthropicprovider

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/attache-ai/attache/pkg/providers/protocoltypes"
)

func newMessagesServer(t *testing.T, payload map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
}

func TestChatParsesTextAndToolUse(t *testing.T) {
	server := newMessagesServer(t, map[string]any{
		"id":    "msg_1",
		"type":  "message",
		"role":  "assistant",
		"model": "claude-sonnet-4-5",
		"content": []map[string]any{
			{"type": "text", "text": "Scheduling now."},
			{
				"type":  "tool_use",
				"id":    "toolu_1",
				"name":  "create_calendar_event",
				"input": map[string]any{"title": "Lunch", "date": "2026-02-19"},
			},
		},
		"stop_reason": "tool_use",
		"usage":       map[string]any{"input_tokens": 12, "output_tokens": 7},
	})
	defer server.Close()

	p := NewProviderWithBaseURL("key", server.URL)
	resp, err := p.Chat(
		t.Context(),
		[]Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "lunch tomorrow"},
		},
		nil, "claude-sonnet-4-5", nil,
	)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Content != "Scheduling now." {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.FinishReason != "tool_calls" {
		t.Errorf("finish reason = %q, want tool_calls", resp.FinishReason)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(resp.ToolCalls))
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "toolu_1" || tc.Name != "create_calendar_event" {
		t.Errorf("tool call = %+v", tc)
	}
	if tc.Arguments["title"] != "Lunch" {
		t.Errorf("arguments = %v", tc.Arguments)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 19 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestChatWrapsSDKErrorAsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "invalid_request_error", "message": "max_tokens required"},
		})
	}))
	defer server.Close()

	p := NewProviderWithBaseURL("key", server.URL)
	_, err := p.Chat(t.Context(), []Message{{Role: "user", Content: "hi"}}, nil, "claude-sonnet-4-5", nil)
	var apiErr *protocoltypes.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.Status)
	}
}

func TestTranslateToolsCoercesRequired(t *testing.T) {
	tools := []ToolDefinition{{
		Type: "function",
		Function: protocoltypes.ToolFunctionDefinition{
			Name: "send_email",
			Parameters: map[string]any{
				"properties": map[string]any{"to": map[string]any{"type": "string"}},
				// Decoded JSON carries []any, not []string.
				"required": []any{"to", "subject"},
			},
		},
	}}

	out := translateTools(tools)
	if len(out) != 1 || out[0].OfTool == nil {
		t.Fatalf("translated = %+v", out)
	}
	got := out[0].OfTool.InputSchema.Required
	if len(got) != 2 || got[0] != "to" || got[1] != "subject" {
		t.Errorf("required = %v", got)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", defaultBaseURL},
		{"https://proxy.internal/v1", "https://proxy.internal"},
		{"https://proxy.internal/", "https://proxy.internal"},
		{"/v1", defaultBaseURL},
	}
	for _, tc := range cases {
		if got := normalizeBaseURL(tc.in); got != tc.want {
			t.Errorf("normalizeBaseURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
