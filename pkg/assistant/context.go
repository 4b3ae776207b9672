package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/attache-ai/attache/pkg/calendar"
	"github.com/attache-ai/attache/pkg/email"
	"github.com/attache-ai/attache/pkg/logger"
	"github.com/attache-ai/attache/pkg/providers"
)

const staticInstructions = `You are Attaché, a personal assistant for calendar and email.
Be concise and direct. When the user asks to schedule something, use the
create_calendar_event tool with their own words as the title. Always draft
emails with draft_email for review before sending; only send_email after
explicit confirmation. Never invent calendar events or emails.`

// ContextBuilder assembles the system prompt and the ambient context
// strings injected into it. Every formatter is resilient: signed-out
// state, empty results, and fetch errors each yield a readable placeholder
// instead of an error.
type ContextBuilder struct {
	cal      calendar.Provider
	mail     email.Provider
	userName string
	email    string
	signedIn func() bool
	now      func() time.Time
}

func NewContextBuilder(cal calendar.Provider, mail email.Provider, userName, userEmail string, signedIn func() bool) *ContextBuilder {
	if signedIn == nil {
		signedIn = func() bool { return false }
	}
	return &ContextBuilder{
		cal:      cal,
		mail:     mail,
		userName: userName,
		email:    userEmail,
		signedIn: signedIn,
		now:      time.Now,
	}
}

// TodaySchedule formats the rest of today's events.
func (cb *ContextBuilder) TodaySchedule(ctx context.Context) string {
	if !cb.signedIn() || cb.cal == nil {
		return "Calendar: not signed in to Google, so today's schedule is unknown."
	}

	now := cb.now()
	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	events, err := cb.cal.ListEvents(ctx, now, dayEnd)
	if err != nil {
		logger.WarnCF("assistant", "Today's schedule fetch failed", map[string]any{"error": err.Error()})
		return "Calendar: could not load today's schedule."
	}
	if len(events) == 0 {
		return "Calendar: nothing else scheduled today."
	}

	var b strings.Builder
	b.WriteString("Today's remaining schedule:\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s at %s\n", ev.Title, ev.StartTime.Format("3:04 PM"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Lookahead formats the next 24 hours of events.
func (cb *ContextBuilder) Lookahead(ctx context.Context) string {
	if !cb.signedIn() || cb.cal == nil {
		return "Calendar: not signed in to Google, so the next 24 hours are unknown."
	}

	now := cb.now()
	events, err := cb.cal.ListEvents(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		logger.WarnCF("assistant", "Lookahead fetch failed", map[string]any{"error": err.Error()})
		return "Calendar: could not load the next 24 hours."
	}
	if len(events) == 0 {
		return "Calendar: nothing scheduled in the next 24 hours."
	}

	var b strings.Builder
	b.WriteString("Next 24 hours:\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s: %s\n", ev.StartTime.Format("Mon Jan 2 3:04 PM"), ev.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NextMeetingPrep summarizes the next upcoming meeting that has other
// attendees, including up to three recent email threads per attendee.
// Thread lookups are best-effort; a failed lookup drops silently.
func (cb *ContextBuilder) NextMeetingPrep(ctx context.Context) string {
	if !cb.signedIn() || cb.cal == nil {
		return "Meeting prep: not signed in to Google."
	}

	now := cb.now()
	events, err := cb.cal.ListEvents(ctx, now, now.AddDate(0, 0, 7))
	if err != nil {
		return "Meeting prep: could not load upcoming meetings."
	}

	for _, ev := range events {
		others := make([]calendar.Attendee, 0, len(ev.Attendees))
		for _, a := range ev.Attendees {
			if a.IsSelf || a.Email == "" {
				continue
			}
			others = append(others, a)
		}
		if len(others) == 0 {
			continue
		}
		if len(others) > 3 {
			others = others[:3]
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Next meeting with others: %s (%s)\n", ev.Title, ev.StartTime.Format("Mon Jan 2 3:04 PM"))
		for _, a := range others {
			fmt.Fprintf(&b, "- %s: %s\n", a.Name(), a.ResponseStatus)
			if cb.mail == nil {
				continue
			}
			query := fmt.Sprintf("from:%s OR to:%s", a.Email, a.Email)
			threads, err := cb.mail.SearchEmails(ctx, query, 3)
			if err != nil {
				continue
			}
			for _, msg := range threads {
				fmt.Fprintf(&b, "  recent: %s\n", msg.Subject)
			}
		}
		return strings.TrimRight(b.String(), "\n")
	}

	return "Meeting prep: no upcoming meetings with other attendees."
}

// DailyBriefing combines the day's schedule with unread email highlights.
func (cb *ContextBuilder) DailyBriefing(ctx context.Context) string {
	if !cb.signedIn() {
		return "Briefing: not signed in to Google; no schedule or email available."
	}

	sections := []string{cb.TodaySchedule(ctx)}

	if cb.mail != nil {
		unread, err := cb.mail.SearchEmails(ctx, "is:unread newer_than:1d", 5)
		switch {
		case err != nil:
			sections = append(sections, "Email: could not load unread messages.")
		case len(unread) == 0:
			sections = append(sections, "Email: no unread messages from the last day.")
		default:
			var b strings.Builder
			fmt.Fprintf(&b, "Unread email (%d):\n", len(unread))
			for _, msg := range unread {
				fmt.Fprintf(&b, "- %s: %s\n", msg.From, msg.Subject)
			}
			sections = append(sections, strings.TrimRight(b.String(), "\n"))
		}
	}

	return strings.Join(sections, "\n\n")
}

// BuildMessages assembles the full request: system prompt, sanitized
// history, then the current user message.
func (cb *ContextBuilder) BuildMessages(ctx context.Context, history []providers.Message, userText string) []providers.Message {
	now := cb.now()

	parts := []string{staticInstructions}
	parts = append(parts, fmt.Sprintf("Current date and time: %s (%s)",
		now.Format("Monday, January 2, 2006 3:04 PM"), now.Location()))

	if cb.userName != "" || cb.email != "" {
		identity := "The user is"
		if cb.userName != "" {
			identity += " " + cb.userName
		}
		if cb.email != "" {
			identity += fmt.Sprintf(" <%s>", cb.email)
		}
		parts = append(parts, identity+".")
	}

	parts = append(parts, cb.TodaySchedule(ctx))

	systemPrompt := strings.Join(parts, "\n\n")
	logger.DebugCF("assistant", "System prompt built", map[string]any{
		"total_chars": len(systemPrompt),
	})

	messages := []providers.Message{{Role: "system", Content: systemPrompt}}
	messages = append(messages, sanitizeHistory(history)...)
	messages = append(messages, providers.Message{Role: "user", Content: userText})
	return messages
}

// sanitizeHistory drops fragments that would break provider turn ordering:
// leading non-user messages and tool results without a preceding assistant
// tool call.
func sanitizeHistory(history []providers.Message) []providers.Message {
	for len(history) > 0 && history[0].Role != "user" {
		history = history[1:]
	}

	sanitized := make([]providers.Message, 0, len(history))
	for _, msg := range history {
		if msg.Role == "tool" {
			if len(sanitized) == 0 {
				continue
			}
			prev := sanitized[len(sanitized)-1]
			if prev.Role != "tool" && (prev.Role != "assistant" || len(prev.ToolCalls) == 0) {
				continue
			}
		}
		sanitized = append(sanitized, msg)
	}
	return sanitized
}
