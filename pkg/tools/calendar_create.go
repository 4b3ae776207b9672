package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/attache-ai/attache/pkg/calendar"
	"github.com/attache-ai/attache/pkg/extract"
	"github.com/attache-ai/attache/pkg/logger"
)

const defaultEventDurationMinutes = 60

// CalendarCreateTool creates events in the user's Google or Apple calendar.
type CalendarCreateTool struct {
	google calendar.Provider
	apple  calendar.Provider
	now    func() time.Time
}

func NewCalendarCreateTool(google, apple calendar.Provider) *CalendarCreateTool {
	return &CalendarCreateTool{
		google: google,
		apple:  apple,
		now:    time.Now,
	}
}

func (t *CalendarCreateTool) Name() string {
	return "create_calendar_event"
}

func (t *CalendarCreateTool) Description() string {
	return "Create a calendar event. Use this when the user asks to schedule, add, or book something on their calendar."
}

func (t *CalendarCreateTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Event title. Use the user's own words, not a generic placeholder.",
			},
			"date": map[string]any{
				"type":        "string",
				"description": "Event date, e.g. 2026-02-19, 'tomorrow', 'friday'.",
			},
			"time": map[string]any{
				"type":        "string",
				"description": "Start time, e.g. '3:00 PM' or '15:00'.",
			},
			"duration_minutes": map[string]any{
				"type":        "integer",
				"description": "Duration in minutes. Default 60.",
			},
			"calendar_type": map[string]any{
				"type":        "string",
				"enum":        []string{"google", "apple"},
				"description": "Which calendar to create the event in. Default google.",
			},
			"attendees": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Optional attendee email addresses.",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "Optional event description.",
			},
			"location": map[string]any{
				"type":        "string",
				"description": "Optional event location.",
			},
		},
		"required": []string{"title", "date", "time"},
	}
}

func (t *CalendarCreateTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	title, ok := getStringArg(args, "title")
	if !ok || strings.TrimSpace(title) == "" {
		return ErrorResult("title is required")
	}
	title = strings.TrimSpace(title)

	dateRaw, ok := getStringArg(args, "date")
	if !ok || strings.TrimSpace(dateRaw) == "" {
		return ErrorResult("date is required")
	}
	timeRaw, ok := getStringArg(args, "time")
	if !ok || strings.TrimSpace(timeRaw) == "" {
		return ErrorResult("time is required")
	}

	// The model likes to fall back to titles like "Meeting"; when it does,
	// the user's own phrasing is a better source.
	if extract.IsGenericTitle(title) {
		if userMessage := toolExecutionUserMessage(ctx); userMessage != "" {
			if derived := extract.Title(userMessage); derived != "" {
				logger.DebugCF("tools.calendar", "Replaced generic event title",
					map[string]any{"from": title, "to": derived})
				title = derived
			}
		}
	}

	now := t.now()
	day := extract.Date(dateRaw, now)
	hour, minute := extract.Clock(timeRaw)
	start := extract.At(day, hour, minute)

	duration, err := parseOptionalIntArg(args, "duration_minutes", defaultEventDurationMinutes, 1, 24*60)
	if err != nil {
		return ErrorResult(err.Error())
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	calType := calendar.TypeGoogle
	if raw, ok := getStringArg(args, "calendar_type"); ok && strings.TrimSpace(raw) != "" {
		calType, err = calendar.ParseType(raw)
		if err != nil {
			return ErrorResult(err.Error())
		}
	}

	attendeeEmails, err := parseStringSliceArg(args, "attendees")
	if err != nil {
		return ErrorResult(err.Error())
	}
	attendees := make([]calendar.Attendee, 0, len(attendeeEmails))
	for _, email := range attendeeEmails {
		attendees = append(attendees, calendar.Attendee{
			Email:          email,
			ResponseStatus: calendar.StatusNeedsAction,
		})
	}

	description, _ := getStringArg(args, "description")
	location, _ := getStringArg(args, "location")

	event := calendar.Event{
		Title:        title,
		StartTime:    start,
		EndTime:      end,
		CalendarType: calType,
		Description:  strings.TrimSpace(description),
		Location:     strings.TrimSpace(location),
		Attendees:    attendees,
	}

	provider := t.google
	if calType == calendar.TypeApple {
		provider = t.apple
	}
	if provider == nil {
		return ErrorResult(fmt.Sprintf("%s calendar is not configured", calType))
	}

	created, err := provider.CreateEvent(ctx, event)
	if err != nil {
		logger.ErrorCF("tools.calendar", "Create event failed", map[string]any{
			"calendar": string(calType),
			"error":    err.Error(),
		})
		return ErrorResult(fmt.Sprintf("could not create event: %v", err)).WithError(err)
	}

	confirmation := fmt.Sprintf("Created %q on %s at %s (%d min, %s calendar)",
		created.Title,
		start.Format("Monday, January 2"),
		start.Format("3:04 PM"),
		duration,
		calType,
	)
	if len(attendees) > 0 {
		confirmation += fmt.Sprintf(" with %s", formatAttendeeList(created.Attendees))
	}
	if url := created.MeetingURL(); url != "" {
		confirmation += fmt.Sprintf(". Video call: %s", url)
	}

	logger.InfoCF("tools.calendar", "Event created", map[string]any{
		"calendar":  string(calType),
		"event_id":  created.ID,
		"start":     start.Format(time.RFC3339),
		"attendees": len(attendees),
	})

	return NewToolResult(confirmation)
}
