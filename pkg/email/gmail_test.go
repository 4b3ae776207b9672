package email

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
)

func TestBuildRFC822(t *testing.T) {
	raw := string(buildRFC822(Email{
		To:      []string{"a@x.com", "b@x.com"},
		Subject: "Lunch",
		Body:    "Friday at noon?",
	}, "Sam", "sam@x.com"))

	assert.Contains(t, raw, "From: Sam <sam@x.com>\r\n")
	assert.Contains(t, raw, "To: a@x.com, b@x.com\r\n")
	assert.Contains(t, raw, "Subject: Lunch\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\nFriday at noon?"))

	// the raw form must round-trip through Gmail's base64url field
	encoded := base64.RawURLEncoding.EncodeToString([]byte(raw))
	decoded, err := base64.RawURLEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, string(decoded))
}

func TestBuildRFC822NoFromName(t *testing.T) {
	raw := string(buildRFC822(Email{To: []string{"a@x.com"}}, "", "sam@x.com"))
	assert.Contains(t, raw, "From: sam@x.com\r\n")
}

func TestFromGmailMessage(t *testing.T) {
	msg := &gmail.Message{
		Id:           "m1",
		ThreadId:     "t1",
		Snippet:      "see you then",
		InternalDate: 1760000000000,
		LabelIds:     []string{"INBOX", "UNREAD"},
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Alice <alice@x.com>"},
				{Name: "To", Value: "bob@x.com, carol@x.com"},
				{Name: "Subject", Value: "Re: planning"},
			},
		},
	}

	out := fromGmailMessage(msg)
	assert.Equal(t, "m1", out.ID)
	assert.Equal(t, "t1", out.ThreadID)
	assert.Equal(t, "Alice <alice@x.com>", out.From)
	assert.Equal(t, []string{"bob@x.com", "carol@x.com"}, out.To)
	assert.Equal(t, "Re: planning", out.Subject)
	assert.False(t, out.IsRead, "UNREAD label should mark message unread")
	assert.Contains(t, out.Labels, "INBOX")
	assert.False(t, out.Date.IsZero())
}

func TestFromGmailMessageReadByDefault(t *testing.T) {
	out := fromGmailMessage(&gmail.Message{Id: "m2", LabelIds: []string{"INBOX"}})
	assert.True(t, out.IsRead)
}
