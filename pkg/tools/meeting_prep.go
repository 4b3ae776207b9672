package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/attache-ai/attache/pkg/calendar"
	"github.com/attache-ai/attache/pkg/email"
	"github.com/attache-ai/attache/pkg/logger"
)

const (
	prepLookaheadDays    = 7
	prepMaxAttendees     = 3
	prepThreadsPerPerson = 3
)

// MeetingPrepTool gathers context for an upcoming meeting: attendees, RSVP
// state, and recent email threads with each attendee.
type MeetingPrepTool struct {
	cal  calendar.Provider
	mail email.Provider
	now  func() time.Time
}

func NewMeetingPrepTool(cal calendar.Provider, mail email.Provider) *MeetingPrepTool {
	return &MeetingPrepTool{
		cal:  cal,
		mail: mail,
		now:  time.Now,
	}
}

func (t *MeetingPrepTool) Name() string {
	return "get_meeting_prep"
}

func (t *MeetingPrepTool) Description() string {
	return "Gather prep context for an upcoming meeting by title: attendees, their RSVP status, and recent email threads with them."
}

func (t *MeetingPrepTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"meeting_title": map[string]any{
				"type":        "string",
				"description": "Title (or part of it) of the meeting to prepare for.",
			},
		},
		"required": []string{"meeting_title"},
	}
}

func (t *MeetingPrepTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	title, ok := getStringArg(args, "meeting_title")
	if !ok || strings.TrimSpace(title) == "" {
		return ErrorResult("meeting_title is required")
	}
	title = strings.TrimSpace(title)

	if t.cal == nil {
		return ErrorResult("google calendar is not configured")
	}

	now := t.now()
	events, err := t.cal.ListEvents(ctx, now, now.AddDate(0, 0, prepLookaheadDays))
	if err != nil {
		return ErrorResult(fmt.Sprintf("could not look up meetings: %v", err)).WithError(err)
	}

	event, found := matchEventByTitle(events, title)
	if !found {
		return NewToolResult(fmt.Sprintf(
			"Could not find a meeting matching %q in the next %d days.", title, prepLookaheadDays))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Meeting: %s\n", event.Title)
	fmt.Fprintf(&b, "When: %s - %s\n",
		event.StartTime.Format("Monday, January 2 3:04 PM"),
		event.EndTime.Format("3:04 PM"))
	if event.Location != "" {
		fmt.Fprintf(&b, "Where: %s\n", event.Location)
	}
	if url := event.MeetingURL(); url != "" {
		fmt.Fprintf(&b, "Video: %s\n", url)
	}

	others := nonSelfAttendees(event.Attendees)
	if len(others) == 0 {
		b.WriteString("No other attendees.")
		return NewToolResult(b.String())
	}

	b.WriteString("Attendees:\n")
	for _, a := range others {
		fmt.Fprintf(&b, "- %s (%s)\n", a.Name(), a.ResponseStatus)
	}

	if len(others) > prepMaxAttendees {
		others = others[:prepMaxAttendees]
	}
	for _, a := range others {
		threads := t.recentThreads(ctx, a.Email)
		if len(threads) == 0 {
			continue
		}
		fmt.Fprintf(&b, "Recent email with %s:\n", a.Name())
		for _, msg := range threads {
			fmt.Fprintf(&b, "- %s", msg.Subject)
			if !msg.Date.IsZero() {
				fmt.Fprintf(&b, " [%s]", msg.Date.Format("Jan 2"))
			}
			b.WriteString("\n")
		}
	}

	return NewToolResult(strings.TrimRight(b.String(), "\n"))
}

// matchEventByTitle finds the first event whose title contains the query or
// is contained by it, case-insensitively. Events are assumed sorted by
// start time, so the first match is the soonest.
func matchEventByTitle(events []calendar.Event, query string) (calendar.Event, bool) {
	q := strings.ToLower(query)
	for _, ev := range events {
		title := strings.ToLower(ev.Title)
		if title == "" {
			continue
		}
		if strings.Contains(title, q) || strings.Contains(q, title) {
			return ev, true
		}
	}
	return calendar.Event{}, false
}

func nonSelfAttendees(attendees []calendar.Attendee) []calendar.Attendee {
	out := make([]calendar.Attendee, 0, len(attendees))
	for _, a := range attendees {
		if a.IsSelf || a.Email == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// recentThreads is best-effort: a failed lookup for one attendee drops that
// attendee's threads rather than failing the whole prep.
func (t *MeetingPrepTool) recentThreads(ctx context.Context, attendeeEmail string) []email.Email {
	if t.mail == nil {
		return nil
	}
	query := fmt.Sprintf("from:%s OR to:%s", attendeeEmail, attendeeEmail)
	threads, err := t.mail.SearchEmails(ctx, query, prepThreadsPerPerson)
	if err != nil {
		logger.DebugCF("tools.prep", "Thread lookup skipped", map[string]any{
			"attendee": logger.Redact(attendeeEmail),
			"error":    err.Error(),
		})
		return nil
	}
	return threads
}
