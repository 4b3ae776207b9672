// Package extract holds the best-effort heuristics that turn loosely
// formatted model and user text into calendar fields.
package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	fallbackTitle = "New Event"
	maxTitleLen   = 60
)

// genericTitles is the set of low-information titles the model tends to
// emit; hitting one triggers re-extraction from the user's own words.
var genericTitles = map[string]struct{}{
	"new event":   {},
	"event":       {},
	"meeting":     {},
	"appointment": {},
	"untitled":    {},
	"reminder":    {},
}

// IsGenericTitle reports whether title carries no real information
// (case-insensitive, whitespace-trimmed).
func IsGenericTitle(title string) bool {
	_, ok := genericTitles[strings.ToLower(strings.TrimSpace(title))]
	return ok
}

// fillerPrefixes are stripped from the front of an utterance, most specific
// first; only the first match is removed.
var fillerPrefixes = []string{
	"can you schedule a meeting about ",
	"can you schedule a meeting with ",
	"please schedule a meeting about ",
	"add an event called ",
	"add an event named ",
	"create an event called ",
	"create an event named ",
	"schedule a meeting about ",
	"schedule a meeting with ",
	"schedule an event for ",
	"put a meeting about ",
	"remind me about the ",
	"remind me about ",
	"remind me to ",
	"can you schedule ",
	"please schedule ",
	"schedule a ",
	"schedule an ",
	"schedule my ",
	"schedule the ",
	"schedule ",
	"create a ",
	"create an ",
	"create ",
	"set up a ",
	"set up an ",
	"set up ",
	"add a ",
	"add an ",
	"add ",
	"book a ",
	"book an ",
	"book ",
	"plan a ",
	"plan ",
	"i have a ",
	"i have an ",
	"i have ",
}

// trailingClauses match time/date phrases hanging off the end of an
// utterance. Each is removed independently, in repeated passes, so
// "... tomorrow at 3pm" loses both clauses regardless of order.
var trailingClauses = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+at\s+\d{1,2}(:\d{2})?\s*(a\.?m\.?|p\.?m\.?)?\.?$`),
	regexp.MustCompile(`(?i)\s+at\s+noon\.?$`),
	regexp.MustCompile(`(?i)\s+at\s+midnight\.?$`),
	regexp.MustCompile(`(?i)\s+(on\s+)?(next\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\.?$`),
	regexp.MustCompile(`(?i)\s+on\s+\d{1,2}[/-]\d{1,2}([/-]\d{2,4})?\.?$`),
	regexp.MustCompile(`(?i)\s+(tomorrow|today|tonight)\.?$`),
	regexp.MustCompile(`(?i)\s+next\s+(week|month)\.?$`),
	regexp.MustCompile(`(?i)\s+this\s+(morning|afternoon|evening|week|weekend)\.?$`),
	regexp.MustCompile(`(?i)\s+for\s+\d+\s*(minutes?|mins?|hours?|hrs?)\.?$`),
	regexp.MustCompile(`(?i)\s+in\s+the\s+(morning|afternoon|evening)\.?$`),
}

// minorWords stay lowercase when title-casing, except as the first word.
var minorWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {},
}

// Title derives a clean event title from the user's raw utterance. It never
// fails: anything that reduces below two characters becomes "New Event",
// and the result is capped at 60 characters.
func Title(rawMessage string) string {
	s := strings.TrimSpace(rawMessage)

	lower := strings.ToLower(s)
	for _, prefix := range fillerPrefixes {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			break
		}
	}

	for changed := true; changed; {
		changed = false
		for _, clause := range trailingClauses {
			if trimmed := clause.ReplaceAllString(s, ""); trimmed != s {
				s = trimmed
				changed = true
			}
		}
	}

	s = strings.TrimRight(strings.TrimSpace(s), ".,!?;:")
	s = titleCase(s)

	if utf8.RuneCountInString(s) < 2 {
		return fallbackTitle
	}
	if runes := []rune(s); len(runes) > maxTitleLen {
		s = strings.TrimSpace(string(runes[:maxTitleLen]))
	}
	return s
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		lower := strings.ToLower(w)
		if _, minor := minorWords[lower]; minor && i > 0 {
			words[i] = lower
			continue
		}
		words[i] = capitalize(lower)
	}
	out := strings.Join(words, " ")
	return capitalize(out)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
