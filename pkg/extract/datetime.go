package extract

import (
	"regexp"
	"strings"
	"time"
)

// dateLayouts are tried in order; the first that parses wins. US-style
// month/day sits ahead of day/month on purpose, so an ambiguous "03/04"
// reads as March 4.
var dateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"01/02/2006",
	"02/01/2006",
	"01/02/06",
	"1/2/2006",
	"2 January 2006",
	"2 Jan 2006",
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var clockPattern = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(a\.?m\.?|p\.?m\.?)?`)

// Date resolves a human date expression to a concrete calendar day in the
// local zone. Unrecognized input falls back to today rather than erroring,
// since the caller always has a usable message to anchor to.
func Date(text string, now time.Time) time.Time {
	s := strings.TrimSpace(text)
	lower := strings.ToLower(s)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch lower {
	case "", "today", "tonight":
		return today
	case "tomorrow":
		return today.AddDate(0, 0, 1)
	case "yesterday":
		return today.AddDate(0, 0, -1)
	}

	if day, ok := weekdays[strings.TrimPrefix(lower, "next ")]; ok {
		offset := (int(day) - int(today.Weekday()) + 7) % 7
		if offset == 0 {
			offset = 7
		}
		return today.AddDate(0, 0, offset)
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
		}
	}

	return today
}

// Clock resolves a time-of-day expression to an hour and minute.
// Unparseable input falls back to noon.
func Clock(text string) (hour, minute int) {
	s := strings.TrimSpace(text)
	lower := strings.ToLower(s)

	switch lower {
	case "noon", "midday":
		return 12, 0
	case "midnight":
		return 0, 0
	}

	normalized := strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), "  ", " "))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t.Hour(), t.Minute()
		}
	}

	if m := clockPattern.FindStringSubmatch(s); m != nil {
		hour = atoiSafe(m[1])
		minute = atoiSafe(m[2])
		meridiem := strings.ToLower(strings.ReplaceAll(m[3], ".", ""))
		if meridiem == "pm" && hour < 12 {
			hour += 12
		}
		if meridiem == "am" && hour == 12 {
			hour = 0
		}
		if hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
			return hour, minute
		}
	}

	return 12, 0
}

// At combines a resolved day with an hour and minute in the day's zone.
func At(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
