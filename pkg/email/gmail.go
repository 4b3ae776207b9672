package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/attache-ai/attache/pkg/auth"
	"github.com/attache-ai/attache/pkg/logger"
)

const gmailUserID = "me"

// GmailProvider talks to the Gmail REST API with tokens from the shared
// TokenManager. A 401 triggers exactly one refresh-and-retry.
type GmailProvider struct {
	tokens    *auth.TokenManager
	fromEmail string
	fromName  string
	endpoint  string // test override
}

type GmailOption func(*GmailProvider)

func WithEndpoint(url string) GmailOption {
	return func(p *GmailProvider) {
		p.endpoint = url
	}
}

func NewGmailProvider(tokens *auth.TokenManager, fromName, fromEmail string, opts ...GmailOption) *GmailProvider {
	p := &GmailProvider{
		tokens:    tokens,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *GmailProvider) service(ctx context.Context, accessToken string) (*gmail.Service, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("building gmail service: %w", err)
	}
	return svc, nil
}

func (p *GmailProvider) SendEmail(ctx context.Context, msg Email) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	raw := base64.RawURLEncoding.EncodeToString(buildRFC822(msg, p.fromName, p.fromEmail))

	return auth.WithUnauthorizedRetry(ctx, p.tokens, func(token string) error {
		svc, err := p.service(ctx, token)
		if err != nil {
			return err
		}
		sent, err := svc.Users.Messages.Send(gmailUserID, &gmail.Message{Raw: raw}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("messages.send: %w", err)
		}
		logger.InfoCF("email.gmail", "Email sent", map[string]any{
			"message_id": sent.Id,
			"to":         strings.Join(msg.To, ", "),
		})
		return nil
	})
}

func (p *GmailProvider) SearchEmails(ctx context.Context, query string, maxResults int) ([]Email, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	var emails []Email
	err := auth.WithUnauthorizedRetry(ctx, p.tokens, func(token string) error {
		svc, err := p.service(ctx, token)
		if err != nil {
			return err
		}
		list, err := svc.Users.Messages.List(gmailUserID).
			Q(query).
			MaxResults(int64(maxResults)).
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("messages.list: %w", err)
		}

		emails = emails[:0]
		for _, stub := range list.Messages {
			msg, err := svc.Users.Messages.Get(gmailUserID, stub.Id).
				Format("metadata").
				MetadataHeaders("From", "To", "Subject", "Date").
				Context(ctx).Do()
			if err != nil {
				return fmt.Errorf("messages.get %s: %w", stub.Id, err)
			}
			emails = append(emails, fromGmailMessage(msg))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return emails, nil
}

func fromGmailMessage(msg *gmail.Message) Email {
	out := Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Body:     msg.Snippet,
		IsRead:   true,
	}
	if msg.InternalDate > 0 {
		out.Date = time.UnixMilli(msg.InternalDate)
	}
	for _, label := range msg.LabelIds {
		out.Labels = append(out.Labels, label)
		if label == "UNREAD" {
			out.IsRead = false
		}
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				out.From = h.Value
			case "To":
				out.To = splitAddressList(h.Value)
			case "Subject":
				out.Subject = h.Value
			}
		}
	}
	return out
}

func splitAddressList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// buildRFC822 renders the minimal RFC 822 form Gmail's raw send expects.
func buildRFC822(msg Email, fromName, fromEmail string) []byte {
	var b strings.Builder
	if fromEmail != "" {
		if fromName != "" {
			fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, fromEmail)
		} else {
			fmt.Fprintf(&b, "From: %s\r\n", fromEmail)
		}
	}
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
