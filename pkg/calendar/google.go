package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/attache-ai/attache/pkg/auth"
	"github.com/attache-ai/attache/pkg/logger"
)

const primaryCalendarID = "primary"

// GoogleProvider talks to the Google Calendar REST API using tokens from
// the shared TokenManager. A 401 triggers exactly one refresh-and-retry.
type GoogleProvider struct {
	tokens   *auth.TokenManager
	endpoint string // test override
}

type GoogleOption func(*GoogleProvider)

// WithEndpoint points the provider at a non-default API base URL.
func WithEndpoint(url string) GoogleOption {
	return func(p *GoogleProvider) {
		p.endpoint = url
	}
}

func NewGoogleProvider(tokens *auth.TokenManager, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{tokens: tokens}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *GoogleProvider) service(ctx context.Context, accessToken string) (*gcal.Service, error) {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("building calendar service: %w", err)
	}
	return svc, nil
}

func (p *GoogleProvider) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	var events []Event
	err := auth.WithUnauthorizedRetry(ctx, p.tokens, func(token string) error {
		svc, err := p.service(ctx, token)
		if err != nil {
			return err
		}
		resp, err := svc.Events.List(primaryCalendarID).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx).Do()
		if err != nil {
			return err
		}

		events = events[:0]
		for _, item := range resp.Items {
			events = append(events, fromGoogleEvent(item))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events, nil
}

func (p *GoogleProvider) CreateEvent(ctx context.Context, event Event) (Event, error) {
	gev := toGoogleEvent(event)
	var created Event
	err := auth.WithUnauthorizedRetry(ctx, p.tokens, func(token string) error {
		svc, err := p.service(ctx, token)
		if err != nil {
			return err
		}
		resp, err := svc.Events.Insert(primaryCalendarID, gev).Context(ctx).Do()
		if err != nil {
			return err
		}
		created = fromGoogleEvent(resp)
		logger.InfoCF("calendar.google", "Event created", map[string]any{
			"event_id": created.ID,
			"start":    event.StartTime.Format(time.RFC3339),
		})
		return nil
	})
	if err != nil {
		return Event{}, err
	}
	return created, nil
}

func fromGoogleEvent(item *gcal.Event) Event {
	ev := Event{
		ID:           item.Id,
		Title:        item.Summary,
		CalendarType: TypeGoogle,
		Description:  item.Description,
		Location:     item.Location,
		MeetingLink:  item.HangoutLink,
	}

	ev.StartTime, ev.IsAllDay = parseGoogleTime(item.Start)
	ev.EndTime, _ = parseGoogleTime(item.End)
	if ev.EndTime.Before(ev.StartTime) {
		ev.EndTime = ev.StartTime
	}

	for _, att := range item.Attendees {
		if att == nil {
			continue
		}
		ev.Attendees = append(ev.Attendees, Attendee{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: ParseResponseStatus(att.ResponseStatus),
			IsOrganizer:    att.Organizer,
			IsSelf:         att.Self,
		})
	}

	if cd := item.ConferenceData; cd != nil {
		conference := &ConferenceData{ConferenceID: cd.ConferenceId}
		if cd.ConferenceSolution != nil {
			conference.SolutionName = cd.ConferenceSolution.Name
		}
		for _, ep := range cd.EntryPoints {
			if ep == nil {
				continue
			}
			conference.EntryPoints = append(conference.EntryPoints, EntryPoint{
				Type:  ep.EntryPointType,
				URI:   ep.Uri,
				Label: ep.Label,
			})
		}
		ev.Conference = conference
	}

	return ev
}

// parseGoogleTime handles the REST API's date vs dateTime split: all-day
// events carry only a date.
func parseGoogleTime(edt *gcal.EventDateTime) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err == nil {
			return t, false
		}
	}
	if edt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", edt.Date, time.Local)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toGoogleEvent(event Event) *gcal.Event {
	gev := &gcal.Event{
		Summary:     event.Title,
		Description: event.Description,
		Location:    event.Location,
	}
	if event.IsAllDay {
		gev.Start = &gcal.EventDateTime{Date: event.StartTime.Format("2006-01-02")}
		gev.End = &gcal.EventDateTime{Date: event.EndTime.Format("2006-01-02")}
	} else {
		gev.Start = &gcal.EventDateTime{DateTime: event.StartTime.Format(time.RFC3339)}
		gev.End = &gcal.EventDateTime{DateTime: event.EndTime.Format(time.RFC3339)}
	}
	for _, att := range event.Attendees {
		gev.Attendees = append(gev.Attendees, &gcal.EventAttendee{
			Email:       att.Email,
			DisplayName: att.DisplayName,
		})
	}
	return gev
}
