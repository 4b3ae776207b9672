package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/attache-ai/attache/pkg/calendar"
	"github.com/attache-ai/attache/pkg/extract"
	"github.com/attache-ai/attache/pkg/logger"
)

const maxAttendeesShown = 3

// CalendarListTool lists events from Google, Apple, or both calendars over
// a date range.
type CalendarListTool struct {
	google calendar.Provider
	apple  calendar.Provider
	now    func() time.Time
}

func NewCalendarListTool(google, apple calendar.Provider) *CalendarListTool {
	return &CalendarListTool{
		google: google,
		apple:  apple,
		now:    time.Now,
	}
}

func (t *CalendarListTool) Name() string {
	return "list_calendar_events"
}

func (t *CalendarListTool) Description() string {
	return "List calendar events for a date or date range. Use this when the user asks what is on their calendar or schedule."
}

func (t *CalendarListTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"start_date": map[string]any{
				"type":        "string",
				"description": "Start of the range, e.g. 2026-02-19 or 'today'. Default today.",
			},
			"end_date": map[string]any{
				"type":        "string",
				"description": "End of the range, inclusive. Default same as start_date.",
			},
			"calendar_type": map[string]any{
				"type":        "string",
				"enum":        []string{"google", "apple", "both"},
				"description": "Which calendars to query. Default both.",
			},
		},
	}
}

func (t *CalendarListTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	now := t.now()

	startRaw, _ := getStringArg(args, "start_date")
	start := extract.Date(startRaw, now)

	end := start
	if endRaw, ok := getStringArg(args, "end_date"); ok && strings.TrimSpace(endRaw) != "" {
		end = extract.Date(endRaw, now)
	}
	if end.Before(start) {
		end = start
	}
	// Inclusive end date.
	rangeEnd := end.AddDate(0, 0, 1)

	rawType, _ := getStringArg(args, "calendar_type")
	calType := strings.ToLower(strings.TrimSpace(rawType))
	if calType == "" {
		calType = "both"
	}
	if calType != "google" && calType != "apple" && calType != "both" {
		return ErrorResult(fmt.Sprintf("unknown calendar type %q (want google, apple, or both)", calType))
	}

	var events []calendar.Event

	if calType == "google" || calType == "both" {
		if t.google == nil {
			if calType == "google" {
				return ErrorResult("google calendar is not configured")
			}
		} else {
			googleEvents, err := t.google.ListEvents(ctx, start, rangeEnd)
			if err != nil {
				return ErrorResult(fmt.Sprintf("could not list google events: %v", err)).WithError(err)
			}
			events = append(events, googleEvents...)
		}
	}

	if calType == "apple" || calType == "both" {
		appleEvents, err := t.listApple(ctx, start, rangeEnd, calType == "both")
		if err != nil {
			return ErrorResult(fmt.Sprintf("could not list apple events: %v", err)).WithError(err)
		}
		events = append(events, appleEvents...)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})

	logger.DebugCF("tools.calendar", "Listed events", map[string]any{
		"calendar": calType,
		"from":     start.Format("2006-01-02"),
		"to":       end.Format("2006-01-02"),
		"count":    len(events),
	})

	if len(events) == 0 {
		return NewToolResult(fmt.Sprintf("No events between %s and %s.",
			start.Format("January 2"), end.Format("January 2, 2006")))
	}
	return NewToolResult(formatEventList(events))
}

// listApple queries the Apple provider. When the user asked for "both", an
// unavailable Apple bridge degrades to an empty set; when they asked for
// apple specifically, the error surfaces.
func (t *CalendarListTool) listApple(ctx context.Context, from, to time.Time, tolerateFailure bool) ([]calendar.Event, error) {
	if t.apple == nil {
		if tolerateFailure {
			return nil, nil
		}
		return nil, fmt.Errorf("apple calendar is not configured")
	}

	events, err := t.apple.ListEvents(ctx, from, to)
	if err != nil {
		if tolerateFailure {
			logger.DebugCF("tools.calendar", "Apple calendar skipped", map[string]any{
				"error": err.Error(),
			})
			return nil, nil
		}
		return nil, err
	}
	return events, nil
}

func formatEventList(events []calendar.Event) string {
	var b strings.Builder
	for i, ev := range events {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(formatEvent(ev))
	}
	return b.String()
}

func formatEvent(ev calendar.Event) string {
	var b strings.Builder
	if ev.IsAllDay {
		fmt.Fprintf(&b, "%s (all day, %s)", ev.Title, ev.StartTime.Format("Jan 2"))
	} else {
		fmt.Fprintf(&b, "%s: %s - %s", ev.Title,
			ev.StartTime.Format("Mon Jan 2 3:04 PM"),
			ev.EndTime.Format("3:04 PM"))
	}
	fmt.Fprintf(&b, " [%s]", ev.CalendarType)
	if ev.Location != "" {
		fmt.Fprintf(&b, " @ %s", ev.Location)
	}
	if len(ev.Attendees) > 0 {
		fmt.Fprintf(&b, " — with %s", formatAttendeeList(ev.Attendees))
	}
	if url := ev.MeetingURL(); url != "" {
		fmt.Fprintf(&b, " — video: %s", url)
	}
	return b.String()
}

// formatAttendeeList shows up to three attendee names with a "+N more"
// suffix for the rest.
func formatAttendeeList(attendees []calendar.Attendee) string {
	names := make([]string, 0, len(attendees))
	for _, a := range attendees {
		names = append(names, a.Name())
	}
	if len(names) <= maxAttendeesShown {
		return strings.Join(names, ", ")
	}
	shown := strings.Join(names[:maxAttendeesShown], ", ")
	return fmt.Sprintf("%s +%d more", shown, len(names)-maxAttendeesShown)
}
