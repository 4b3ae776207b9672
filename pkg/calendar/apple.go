package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/attache-ai/attache/pkg/logger"
)

// ErrAppleUnavailable indicates the Apple Calendar bridge cannot run here
// (non-macOS host or osascript failure).
var ErrAppleUnavailable = errors.New("Apple Calendar is unavailable on this system")

// AppleProvider bridges to the macOS Calendar app through osascript running
// JXA (JavaScript for Automation), which can emit JSON directly.
type AppleProvider struct {
	calendarName string
	runScript    func(ctx context.Context, script string) (string, error)
}

func NewAppleProvider(calendarName string) *AppleProvider {
	if calendarName == "" {
		calendarName = "Calendar"
	}
	return &AppleProvider{
		calendarName: calendarName,
		runScript:    runOsascript,
	}
}

func runOsascript(ctx context.Context, script string) (string, error) {
	if runtime.GOOS != "darwin" {
		return "", ErrAppleUnavailable
	}
	out, err := exec.CommandContext(ctx, "osascript", "-l", "JavaScript", "-e", script).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("osascript: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

type jxaEvent struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location"`
	AllDay   bool   `json:"allDay"`
}

func (p *AppleProvider) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	script := fmt.Sprintf(`
var app = Application("Calendar");
var cal = app.calendars.byName(%q);
var from = new Date(%q);
var to = new Date(%q);
var out = [];
var events = cal.events.whose({_and: [{startDate: {_greaterThan: from}}, {startDate: {_lessThan: to}}]})();
for (var i = 0; i < events.length; i++) {
  var e = events[i];
  out.push({
    id: e.uid(),
    title: e.summary(),
    start: e.startDate().toISOString(),
    end: e.endDate().toISOString(),
    location: e.location() || "",
    allDay: e.alldayEvent(),
  });
}
JSON.stringify(out);`,
		p.calendarName, from.Format(time.RFC3339), to.Format(time.RFC3339))

	raw, err := p.runScript(ctx, script)
	if err != nil {
		return nil, err
	}

	var items []jxaEvent
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parsing Calendar.app output: %w", err)
	}

	events := make([]Event, 0, len(items))
	for _, item := range items {
		ev := Event{
			ID:           item.ID,
			Title:        item.Title,
			CalendarType: TypeApple,
			Location:     item.Location,
			IsAllDay:     item.AllDay,
		}
		if t, err := time.Parse(time.RFC3339, item.Start); err == nil {
			ev.StartTime = t.Local()
		}
		if t, err := time.Parse(time.RFC3339, item.End); err == nil {
			ev.EndTime = t.Local()
		}
		if ev.EndTime.Before(ev.StartTime) {
			ev.EndTime = ev.StartTime
		}
		events = append(events, ev)
	}
	return events, nil
}

func (p *AppleProvider) CreateEvent(ctx context.Context, event Event) (Event, error) {
	script := fmt.Sprintf(`
var app = Application("Calendar");
var cal = app.calendars.byName(%q);
var e = app.Event({
  summary: %q,
  startDate: new Date(%q),
  endDate: new Date(%q),
  location: %q,
  description: %q,
});
cal.events.push(e);
"ok";`,
		p.calendarName, event.Title,
		event.StartTime.Format(time.RFC3339), event.EndTime.Format(time.RFC3339),
		event.Location, event.Description)

	out, err := p.runScript(ctx, script)
	if err != nil {
		return Event{}, err
	}
	if out != "ok" {
		return Event{}, fmt.Errorf("Calendar.app rejected event: %s", out)
	}
	logger.InfoCF("calendar.apple", "Event created", map[string]any{
		"calendar": p.calendarName,
		"start":    event.StartTime.Format(time.RFC3339),
	})
	created := event
	created.CalendarType = TypeApple
	return created, nil
}
