package tools

import (
	"context"
	"strings"
)

type executionContextKey string

const executionContextUserMessageKey executionContextKey = "tool_execution_user_message"

// WithUserMessage carries the user's raw utterance into tool execution.
// The calendar-create tool reads it back to re-derive a title when the
// model supplies a generic one.
func WithUserMessage(ctx context.Context, message string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(message) != "" {
		ctx = context.WithValue(ctx, executionContextUserMessageKey, message)
	}
	return ctx
}

func toolExecutionUserMessage(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(executionContextUserMessageKey).(string)
	return strings.TrimSpace(v)
}
