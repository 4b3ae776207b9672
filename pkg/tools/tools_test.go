package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/attache-ai/attache/pkg/calendar"
	"github.com/attache-ai/attache/pkg/email"
)

type fakeCalendar struct {
	events    []calendar.Event
	listErr   error
	created   []calendar.Event
	createErr error
}

func (f *fakeCalendar) ListEvents(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.events, nil
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, event calendar.Event) (calendar.Event, error) {
	if f.createErr != nil {
		return calendar.Event{}, f.createErr
	}
	event.ID = fmt.Sprintf("evt-%d", len(f.created)+1)
	f.created = append(f.created, event)
	return event, nil
}

type fakeEmail struct {
	sent      []email.Email
	sendErr   error
	results   map[string][]email.Email
	searchErr error
	searches  []string
}

func (f *fakeEmail) SendEmail(ctx context.Context, msg email.Email) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeEmail) SearchEmails(ctx context.Context, query string, maxResults int) ([]email.Email, error) {
	f.searches = append(f.searches, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results[query], nil
}

var testNow = time.Date(2026, time.February, 18, 9, 0, 0, 0, time.UTC)

func newCreateTool(google, apple calendar.Provider) *CalendarCreateTool {
	t := NewCalendarCreateTool(google, apple)
	t.now = func() time.Time { return testNow }
	return t
}

func TestCreateEventDefaults(t *testing.T) {
	cal := &fakeCalendar{}
	tool := newCreateTool(cal, nil)

	result := tool.Execute(context.Background(), map[string]any{
		"title": "Dentist Appointment",
		"date":  "tomorrow",
		"time":  "3:00 PM",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if len(cal.created) != 1 {
		t.Fatalf("created %d events, want 1", len(cal.created))
	}

	ev := cal.created[0]
	if ev.Title != "Dentist Appointment" {
		t.Errorf("title = %q", ev.Title)
	}
	wantStart := time.Date(2026, time.February, 19, 15, 0, 0, 0, time.UTC)
	if !ev.StartTime.Equal(wantStart) {
		t.Errorf("start = %v, want %v", ev.StartTime, wantStart)
	}
	if got := ev.EndTime.Sub(ev.StartTime); got != 60*time.Minute {
		t.Errorf("duration = %v, want 60m", got)
	}
	if ev.CalendarType != calendar.TypeGoogle {
		t.Errorf("calendar = %q, want google", ev.CalendarType)
	}
}

func TestCreateEventGenericTitleUsesUserMessage(t *testing.T) {
	cal := &fakeCalendar{}
	tool := newCreateTool(cal, nil)

	ctx := WithUserMessage(context.Background(), "schedule a team retro friday at 2pm")
	result := tool.Execute(ctx, map[string]any{
		"title": "Meeting",
		"date":  "friday",
		"time":  "2pm",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if got := cal.created[0].Title; got != "Team Retro" {
		t.Errorf("title = %q, want Team Retro", got)
	}
}

func TestCreateEventNonGenericTitleKept(t *testing.T) {
	cal := &fakeCalendar{}
	tool := newCreateTool(cal, nil)

	ctx := WithUserMessage(context.Background(), "schedule a team retro friday at 2pm")
	tool.Execute(ctx, map[string]any{
		"title": "Q3 Retro",
		"date":  "friday",
		"time":  "2pm",
	})
	if got := cal.created[0].Title; got != "Q3 Retro" {
		t.Errorf("title = %q, want Q3 Retro", got)
	}
}

func TestCreateEventRoutesToApple(t *testing.T) {
	google := &fakeCalendar{}
	apple := &fakeCalendar{}
	tool := newCreateTool(google, apple)

	result := tool.Execute(context.Background(), map[string]any{
		"title":         "Haircut",
		"date":          "2026-02-20",
		"time":          "10:00",
		"calendar_type": "apple",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if len(apple.created) != 1 || len(google.created) != 0 {
		t.Errorf("apple=%d google=%d, want 1/0", len(apple.created), len(google.created))
	}
}

func TestCreateEventMissingFields(t *testing.T) {
	tool := newCreateTool(&fakeCalendar{}, nil)
	for _, args := range []map[string]any{
		{"date": "tomorrow", "time": "3pm"},
		{"title": "X Y", "time": "3pm"},
		{"title": "X Y", "date": "tomorrow"},
	} {
		if result := tool.Execute(context.Background(), args); !result.IsError {
			t.Errorf("args %v: expected error, got %q", args, result.ForLLM)
		}
	}
}

func newListTool(google, apple calendar.Provider) *CalendarListTool {
	t := NewCalendarListTool(google, apple)
	t.now = func() time.Time { return testNow }
	return t
}

func listEvent(id, title string, calType calendar.CalendarType, start time.Time) calendar.Event {
	return calendar.Event{
		ID:           id,
		Title:        title,
		CalendarType: calType,
		StartTime:    start,
		EndTime:      start.Add(30 * time.Minute),
	}
}

func TestListEventsMergesBothSorted(t *testing.T) {
	day := time.Date(2026, time.February, 18, 0, 0, 0, 0, time.UTC)
	google := &fakeCalendar{events: []calendar.Event{
		listEvent("g1", "Standup", calendar.TypeGoogle, day.Add(14*time.Hour)),
	}}
	apple := &fakeCalendar{events: []calendar.Event{
		listEvent("a1", "Gym", calendar.TypeApple, day.Add(7*time.Hour)),
	}}
	tool := newListTool(google, apple)

	result := tool.Execute(context.Background(), map[string]any{})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	gym := strings.Index(result.ForLLM, "Gym")
	standup := strings.Index(result.ForLLM, "Standup")
	if gym < 0 || standup < 0 {
		t.Fatalf("missing events in output: %q", result.ForLLM)
	}
	if gym > standup {
		t.Errorf("events not sorted by start time: %q", result.ForLLM)
	}
}

func TestListEventsAppleFailureToleratedForBoth(t *testing.T) {
	day := time.Date(2026, time.February, 18, 0, 0, 0, 0, time.UTC)
	google := &fakeCalendar{events: []calendar.Event{
		listEvent("g1", "Standup", calendar.TypeGoogle, day.Add(14*time.Hour)),
	}}
	apple := &fakeCalendar{listErr: calendar.ErrAppleUnavailable}

	tool := newListTool(google, apple)
	result := tool.Execute(context.Background(), map[string]any{"calendar_type": "both"})
	if result.IsError {
		t.Fatalf("both should tolerate apple failure: %s", result.ForLLM)
	}
	if !strings.Contains(result.ForLLM, "Standup") {
		t.Errorf("google events missing: %q", result.ForLLM)
	}

	result = tool.Execute(context.Background(), map[string]any{"calendar_type": "apple"})
	if !result.IsError {
		t.Errorf("apple-only should surface the failure, got %q", result.ForLLM)
	}
}

func TestListEventsUnknownType(t *testing.T) {
	tool := newListTool(&fakeCalendar{}, nil)
	result := tool.Execute(context.Background(), map[string]any{"calendar_type": "outlook"})
	if !result.IsError {
		t.Errorf("expected error for unknown calendar type")
	}
}

func TestFormatAttendeeListTruncation(t *testing.T) {
	attendees := []calendar.Attendee{
		{Email: "a@example.com", DisplayName: "Ann"},
		{Email: "b@example.com", DisplayName: "Bo"},
		{Email: "c@example.com", DisplayName: "Cy"},
		{Email: "d@example.com", DisplayName: "Dee"},
		{Email: "e@example.com", DisplayName: "Ed"},
	}
	got := formatAttendeeList(attendees)
	want := "Ann, Bo, Cy +2 more"
	if got != want {
		t.Errorf("formatAttendeeList = %q, want %q", got, want)
	}

	short := formatAttendeeList(attendees[:2])
	if short != "Ann, Bo" {
		t.Errorf("formatAttendeeList short = %q", short)
	}
}

func TestSendEmail(t *testing.T) {
	mail := &fakeEmail{}
	tool := NewEmailSendTool(mail)

	result := tool.Execute(context.Background(), map[string]any{
		"to":      []any{"alice@example.com"},
		"subject": "Lunch",
		"body":    "Noon?",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("sent %d, want 1", len(mail.sent))
	}
	if mail.sent[0].To[0] != "alice@example.com" {
		t.Errorf("to = %v", mail.sent[0].To)
	}
}

func TestSendEmailValidation(t *testing.T) {
	tool := NewEmailSendTool(&fakeEmail{})
	for _, args := range []map[string]any{
		{"subject": "s", "body": "b"},
		{"to": []any{"not-an-address"}, "subject": "s", "body": "b"},
		{"to": []any{"a@example.com"}, "body": "b"},
		{"to": []any{"a@example.com"}, "subject": "s"},
	} {
		if result := tool.Execute(context.Background(), args); !result.IsError {
			t.Errorf("args %v: expected error", args)
		}
	}
}

func TestDraftEmailNeverSends(t *testing.T) {
	tool := NewEmailDraftTool()
	result := tool.Execute(context.Background(), map[string]any{
		"to":      []any{"alice@example.com"},
		"subject": "Lunch",
		"body":    "Noon?",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if !strings.Contains(result.ForLLM, "not sent") {
		t.Errorf("draft should say it was not sent: %q", result.ForLLM)
	}
	if !strings.Contains(result.ForLLM, "alice@example.com") {
		t.Errorf("draft should show recipient: %q", result.ForLLM)
	}
	if result.ForUser == "" {
		t.Errorf("draft preview should be user-visible")
	}
}

func TestSearchEmails(t *testing.T) {
	mail := &fakeEmail{results: map[string][]email.Email{
		"from:bob": {
			{From: "bob@example.com", Subject: "Budget", Date: testNow, IsRead: true},
		},
	}}
	tool := NewEmailSearchTool(mail)

	result := tool.Execute(context.Background(), map[string]any{"query": "from:bob"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if !strings.Contains(result.ForLLM, "Budget") {
		t.Errorf("missing subject in %q", result.ForLLM)
	}

	result = tool.Execute(context.Background(), map[string]any{"query": "from:nobody"})
	if result.IsError || !strings.Contains(result.ForLLM, "No emails matched") {
		t.Errorf("empty search should report no matches, got %q", result.ForLLM)
	}
}

func newPrepTool(cal calendar.Provider, mail email.Provider) *MeetingPrepTool {
	t := NewMeetingPrepTool(cal, mail)
	t.now = func() time.Time { return testNow }
	return t
}

func prepEvent(title string, attendees ...calendar.Attendee) calendar.Event {
	return calendar.Event{
		ID:        "evt-prep",
		Title:     title,
		StartTime: testNow.Add(24 * time.Hour),
		EndTime:   testNow.Add(25 * time.Hour),
		Attendees: attendees,
	}
}

func TestMeetingPrepFuzzyMatch(t *testing.T) {
	cal := &fakeCalendar{events: []calendar.Event{
		prepEvent("Q3 Planning Session",
			calendar.Attendee{Email: "me@example.com", IsSelf: true},
			calendar.Attendee{Email: "bob@example.com", DisplayName: "Bob", ResponseStatus: calendar.StatusAccepted},
		),
	}}
	mail := &fakeEmail{results: map[string][]email.Email{
		"from:bob@example.com OR to:bob@example.com": {
			{From: "bob@example.com", Subject: "Planning agenda", Date: testNow},
		},
	}}
	tool := newPrepTool(cal, mail)

	// Query is a substring of the title.
	result := tool.Execute(context.Background(), map[string]any{"meeting_title": "planning"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	for _, want := range []string{"Q3 Planning Session", "Bob", "accepted", "Planning agenda"} {
		if !strings.Contains(result.ForLLM, want) {
			t.Errorf("prep output missing %q: %q", want, result.ForLLM)
		}
	}

	// Title is a substring of the query.
	result = tool.Execute(context.Background(), map[string]any{
		"meeting_title": "the Q3 Planning Session with bob",
	})
	if result.IsError || !strings.Contains(result.ForLLM, "Q3 Planning Session") {
		t.Errorf("reverse substring match failed: %q", result.ForLLM)
	}
}

func TestMeetingPrepNoMatch(t *testing.T) {
	tool := newPrepTool(&fakeCalendar{}, &fakeEmail{})
	result := tool.Execute(context.Background(), map[string]any{"meeting_title": "standup"})
	if result.IsError {
		t.Fatalf("no match must not be an error: %s", result.ForLLM)
	}
	if !strings.Contains(result.ForLLM, "Could not find") {
		t.Errorf("want could-not-find message, got %q", result.ForLLM)
	}
}

func TestMeetingPrepThreadFailureSwallowed(t *testing.T) {
	cal := &fakeCalendar{events: []calendar.Event{
		prepEvent("Sync",
			calendar.Attendee{Email: "bob@example.com", DisplayName: "Bob"},
		),
	}}
	mail := &fakeEmail{searchErr: errors.New("gmail down")}
	tool := newPrepTool(cal, mail)

	result := tool.Execute(context.Background(), map[string]any{"meeting_title": "sync"})
	if result.IsError {
		t.Fatalf("thread lookup failure must be swallowed: %s", result.ForLLM)
	}
	if !strings.Contains(result.ForLLM, "Bob") {
		t.Errorf("attendee list missing: %q", result.ForLLM)
	}
}

func TestMeetingPrepAttendeeCap(t *testing.T) {
	attendees := []calendar.Attendee{
		{Email: "me@example.com", IsSelf: true},
	}
	for i := 0; i < 5; i++ {
		attendees = append(attendees, calendar.Attendee{
			Email: fmt.Sprintf("person%d@example.com", i),
		})
	}
	cal := &fakeCalendar{events: []calendar.Event{prepEvent("All Hands", attendees...)}}
	mail := &fakeEmail{}
	tool := newPrepTool(cal, mail)

	result := tool.Execute(context.Background(), map[string]any{"meeting_title": "all hands"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if len(mail.searches) != prepMaxAttendees {
		t.Errorf("thread lookups = %d, want %d", len(mail.searches), prepMaxAttendees)
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(NewEmailDraftTool())

	result := registry.Execute(context.Background(), "launch_rocket", nil)
	if result.IsError {
		t.Fatalf("unknown tool must not be an error result")
	}
	if !strings.Contains(result.ForLLM, "launch_rocket") || !strings.Contains(result.ForLLM, "draft_email") {
		t.Errorf("unknown-tool message should name the tool and list alternatives: %q", result.ForLLM)
	}
}

func TestRegistryDefinitionsSorted(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(NewEmailDraftTool())
	registry.Register(NewEmailSendTool(&fakeEmail{}))
	registry.Register(NewCalendarCreateTool(&fakeCalendar{}, nil))

	defs := registry.ToProviderDefs()
	if len(defs) != 3 {
		t.Fatalf("defs = %d, want 3", len(defs))
	}
	names := []string{defs[0].Function.Name, defs[1].Function.Name, defs[2].Function.Name}
	want := []string{"create_calendar_event", "draft_email", "send_email"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("defs[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
