package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/attache-ai/attache/pkg/email"
)

const defaultSearchResults = 10

// EmailSearchTool searches the user's mailbox.
type EmailSearchTool struct {
	provider email.Provider
}

func NewEmailSearchTool(provider email.Provider) *EmailSearchTool {
	return &EmailSearchTool{provider: provider}
}

func (t *EmailSearchTool) Name() string {
	return "search_emails"
}

func (t *EmailSearchTool) Description() string {
	return "Search the user's email. Supports Gmail query syntax, e.g. 'from:alice@example.com is:unread'."
}

func (t *EmailSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search query.",
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": "Maximum number of results. Default 10.",
			},
		},
		"required": []string{"query"},
	}
}

func (t *EmailSearchTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	query, ok := getStringArg(args, "query")
	if !ok || strings.TrimSpace(query) == "" {
		return ErrorResult("query is required")
	}

	maxResults, err := parseOptionalIntArg(args, "max_results", defaultSearchResults, 1, 50)
	if err != nil {
		return ErrorResult(err.Error())
	}

	if t.provider == nil {
		return ErrorResult("email is not configured; sign in with Google first")
	}

	results, err := t.provider.SearchEmails(ctx, strings.TrimSpace(query), maxResults)
	if err != nil {
		return ErrorResult(fmt.Sprintf("could not search email: %v", err)).WithError(err)
	}
	if len(results) == 0 {
		return NewToolResult(fmt.Sprintf("No emails matched %q.", query))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d email(s):\n", len(results))
	for _, msg := range results {
		b.WriteString(formatEmailSummary(msg))
		b.WriteString("\n")
	}
	return NewToolResult(strings.TrimRight(b.String(), "\n"))
}

func formatEmailSummary(msg email.Email) string {
	read := ""
	if !msg.IsRead {
		read = " (unread)"
	}
	line := fmt.Sprintf("- From %s: %s%s", msg.From, msg.Subject, read)
	if !msg.Date.IsZero() {
		line += fmt.Sprintf(" [%s]", msg.Date.Format("Jan 2"))
	}
	if msg.Body != "" {
		line += fmt.Sprintf("\n  %s", snippet(msg.Body, 120))
	}
	return line
}

func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
