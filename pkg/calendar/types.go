// Package calendar defines the event model and the calendar collaborators.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CalendarType names an event's backing calendar.
type CalendarType string

const (
	TypeGoogle CalendarType = "google"
	TypeApple  CalendarType = "apple"
)

// ParseType validates a calendar_type argument.
func ParseType(raw string) (CalendarType, error) {
	switch CalendarType(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeGoogle:
		return TypeGoogle, nil
	case TypeApple:
		return TypeApple, nil
	default:
		return "", fmt.Errorf("unknown calendar type %q (want google or apple)", raw)
	}
}

// ResponseStatus is an attendee's RSVP state. Closed set; anything a
// provider sends outside it maps to StatusNeedsAction.
type ResponseStatus string

const (
	StatusNeedsAction ResponseStatus = "needsAction"
	StatusAccepted    ResponseStatus = "accepted"
	StatusDeclined    ResponseStatus = "declined"
	StatusTentative   ResponseStatus = "tentative"
)

// ParseResponseStatus maps a provider value onto the closed enum, falling
// back to needsAction for anything unrecognized.
func ParseResponseStatus(raw string) ResponseStatus {
	switch ResponseStatus(raw) {
	case StatusAccepted, StatusDeclined, StatusTentative, StatusNeedsAction:
		return ResponseStatus(raw)
	default:
		return StatusNeedsAction
	}
}

type Attendee struct {
	Email          string         `json:"email"`
	DisplayName    string         `json:"display_name,omitempty"`
	ResponseStatus ResponseStatus `json:"response_status"`
	IsOrganizer    bool           `json:"is_organizer,omitempty"`
	IsSelf         bool           `json:"is_self,omitempty"`
}

// Name returns the display name, or the email when no name is set.
func (a Attendee) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Email
}

type EntryPoint struct {
	Type  string `json:"type,omitempty"`
	URI   string `json:"uri,omitempty"`
	Label string `json:"label,omitempty"`
}

type ConferenceData struct {
	ConferenceID string       `json:"conference_id,omitempty"`
	SolutionName string       `json:"solution_name,omitempty"`
	EntryPoints  []EntryPoint `json:"entry_points,omitempty"`
}

// Event is a calendar event. Invariant: EndTime is never before StartTime;
// all-day events carry only the date component of StartTime.
type Event struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	CalendarType CalendarType    `json:"calendar_type"`
	Description  string          `json:"description,omitempty"`
	Location     string          `json:"location,omitempty"`
	IsAllDay     bool            `json:"is_all_day,omitempty"`
	Attendees    []Attendee      `json:"attendees,omitempty"`
	Conference   *ConferenceData `json:"conference,omitempty"`
	MeetingLink  string          `json:"meeting_link,omitempty"`
}

// MeetingURL returns the best video-call link for the event: the explicit
// meeting link first, then the first video entry point.
func (e Event) MeetingURL() string {
	if e.MeetingLink != "" {
		return e.MeetingLink
	}
	if e.Conference != nil {
		for _, ep := range e.Conference.EntryPoints {
			if ep.Type == "video" && ep.URI != "" {
				return ep.URI
			}
		}
	}
	return ""
}

// Provider is one calendar backend. CreateEvent returns the event as the
// backend stored it, with the assigned ID and any conference data.
type Provider interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	CreateEvent(ctx context.Context, event Event) (Event, error)
}
