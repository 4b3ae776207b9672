package protocoltypes

import (
	"context"
	"encoding/json"
)

// Message is the wire-neutral chat message shared by all provider adapters.
// Tool results are carried with role "tool" and the originating ToolCallID.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a structured tool invocation emitted by the model. Arguments
// holds the decoded object form; Function carries the raw JSON string when a
// message is replayed back to an OpenAI-style API.
type ToolCall struct {
	ID        string         `json:"id"`
	Type      string         `json:"type,omitempty"`
	Name      string         `json:"name,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Function  *FunctionCall  `json:"function,omitempty"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type LLMResponse struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"`
	Usage        *UsageInfo `json:"usage,omitempty"`
}

type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ToolDefinition struct {
	Type     string                 `json:"type"`
	Function ToolFunctionDefinition `json:"function"`
}

type ToolFunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// LLMProvider is one conversational backend. Chat sends the full message
// history plus the advertised tool catalog and returns the parsed response.
type LLMProvider interface {
	Chat(ctx context.Context, messages []Message, tools []ToolDefinition, model string, options map[string]any) (*LLMResponse, error)
	GetDefaultModel() string
}

// ToolCapable reports whether a provider understands structured tool calls.
// Providers that don't implement it are assumed tool-capable.
type ToolCapable interface {
	SupportsTools() bool
}

// SupportsTools checks the ToolCapable marker on p.
func SupportsTools(p LLMProvider) bool {
	if tc, ok := p.(ToolCapable); ok {
		return tc.SupportsTools()
	}
	return true
}

// NormalizeToolCall fills the Name/Arguments pair from the Function form (or
// the reverse) so callers can rely on both being present.
func NormalizeToolCall(tc ToolCall) ToolCall {
	if tc.Name == "" && tc.Function != nil {
		tc.Name = tc.Function.Name
	}
	if tc.Arguments == nil && tc.Function != nil && tc.Function.Arguments != "" {
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err == nil {
			tc.Arguments = args
		} else {
			tc.Arguments = map[string]any{"raw": tc.Function.Arguments}
		}
	}
	if tc.Arguments == nil {
		tc.Arguments = map[string]any{}
	}
	if tc.Function == nil {
		raw, _ := json.Marshal(tc.Arguments)
		tc.Function = &FunctionCall{Name: tc.Name, Arguments: string(raw)}
	}
	return tc
}
