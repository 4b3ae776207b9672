package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmailDraftTool renders an email preview for user confirmation. It never
// touches the network; a later send_email call performs the actual send.
type EmailDraftTool struct{}

func NewEmailDraftTool() *EmailDraftTool {
	return &EmailDraftTool{}
}

func (t *EmailDraftTool) Name() string {
	return "draft_email"
}

func (t *EmailDraftTool) Description() string {
	return "Draft an email for the user to review before sending. Nothing is sent; use send_email once the user approves."
}

func (t *EmailDraftTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Recipient email addresses.",
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Email subject line.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Plain-text email body.",
			},
		},
		"required": []string{"to", "subject", "body"},
	}
}

func (t *EmailDraftTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	msg, errResult := emailFromArgs(args)
	if errResult != nil {
		return errResult
	}
	msg.ID = "draft-" + uuid.NewString()
	msg.Date = time.Now()

	var b strings.Builder
	fmt.Fprintf(&b, "Draft %s (not sent)\n", msg.ID)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\n\n", msg.Subject)
	b.WriteString(msg.Body)
	b.WriteString("\n\nReply to confirm and I will send it.")

	return UserResult(b.String())
}
