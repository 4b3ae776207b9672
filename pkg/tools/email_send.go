package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/attache-ai/attache/pkg/email"
	"github.com/attache-ai/attache/pkg/logger"
)

// EmailSendTool sends mail through the configured email provider.
type EmailSendTool struct {
	provider email.Provider
}

func NewEmailSendTool(provider email.Provider) *EmailSendTool {
	return &EmailSendTool{provider: provider}
}

func (t *EmailSendTool) Name() string {
	return "send_email"
}

func (t *EmailSendTool) Description() string {
	return "Send an email immediately. Only use this after the user has confirmed the content; for a first pass, use draft_email."
}

func (t *EmailSendTool) Parameters() map[string]any {
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

func (t *EmailSendTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	msg, errResult := emailFromArgs(args)
	if errResult != nil {
		return errResult
	}

	if t.provider == nil {
		return ErrorResult("email is not configured; sign in with Google first")
	}

	if err := t.provider.SendEmail(ctx, msg); err != nil {
		logger.ErrorCF("tools.email", "Send failed", map[string]any{
			"to":    logger.Redact(strings.Join(msg.To, ", ")),
			"error": err.Error(),
		})
		return ErrorResult(fmt.Sprintf("could not send email: %v", err)).WithError(err)
	}

	logger.InfoCF("tools.email", "Email sent", map[string]any{
		"to":      logger.Redact(strings.Join(msg.To, ", ")),
		"subject": msg.Subject,
	})
	return NewToolResult(fmt.Sprintf("Email sent to %s with subject %q.",
		strings.Join(msg.To, ", "), msg.Subject))
}

// emailFromArgs validates and extracts the shared send/draft arguments.
func emailFromArgs(args map[string]any) (email.Email, *ToolResult) {
	to, err := parseStringSliceArg(args, "to")
	if err != nil {
		return email.Email{}, ErrorResult(err.Error())
	}
	if len(to) == 0 {
		return email.Email{}, ErrorResult("to is required")
	}
	for _, addr := range to {
		if !strings.Contains(addr, "@") {
			return email.Email{}, ErrorResult(fmt.Sprintf("invalid recipient address %q", addr))
		}
	}

	subject, ok := getStringArg(args, "subject")
	if !ok || strings.TrimSpace(subject) == "" {
		return email.Email{}, ErrorResult("subject is required")
	}
	body, ok := getStringArg(args, "body")
	if !ok || strings.TrimSpace(body) == "" {
		return email.Email{}, ErrorResult("body is required")
	}

	return email.Email{
		To:      to,
		Subject: strings.TrimSpace(subject),
		Body:    body,
	}, nil
}
