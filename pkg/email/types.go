// Package email defines the mail model and the Gmail collaborator.
package email

import (
	"context"
	"time"
)

type Email struct {
	ID       string    `json:"id"`
	To       []string  `json:"to"`
	From     string    `json:"from,omitempty"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	Date     time.Time `json:"date"`
	IsRead   bool      `json:"is_read,omitempty"`
	Labels   []string  `json:"labels,omitempty"`
	ThreadID string    `json:"thread_id,omitempty"`
}

// Provider is the email backend consumed by the tools.
type Provider interface {
	SendEmail(ctx context.Context, msg Email) error
	SearchEmails(ctx context.Context, query string, maxResults int) ([]Email, error)
}
