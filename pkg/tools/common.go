// Package tools implements the assistant's local tool surface: calendar,
// email, and meeting-prep operations dispatched by name from model tool
// calls.
package tools

import "context"

// Tool is a single operation the model may invoke. Parameters returns a
// JSON Schema object describing the arguments.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) *ToolResult
}

// ToolResult separates what goes back to the model (ForLLM) from what, if
// anything, is shown directly to the user (ForUser).
type ToolResult struct {
	ForLLM  string
	ForUser string
	Silent  bool
	IsError bool
	Err     error
}

func NewToolResult(forLLM string) *ToolResult {
	return &ToolResult{ForLLM: forLLM}
}

// SilentResult returns content to the model without direct user display.
func SilentResult(forLLM string) *ToolResult {
	return &ToolResult{ForLLM: forLLM, Silent: true}
}

func ErrorResult(message string) *ToolResult {
	return &ToolResult{ForLLM: message, IsError: true}
}

func UserResult(content string) *ToolResult {
	return &ToolResult{ForLLM: content, ForUser: content}
}

func (r *ToolResult) WithError(err error) *ToolResult {
	r.Err = err
	return r
}

// ToolToSchema renders a tool as an OpenAI-style function definition.
func ToolToSchema(t Tool) map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        t.Name(),
			"description": t.Description(),
			"parameters":  t.Parameters(),
		},
	}
}
