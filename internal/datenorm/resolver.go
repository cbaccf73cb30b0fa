package datenorm

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Resolver turns a matched date phrase into a calendar date relative to now.
// It returns false when the phrase cannot be resolved.
type Resolver interface {
	Resolve(phrase string, now time.Time) (time.Time, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(phrase string, now time.Time) (time.Time, bool)

func (f ResolverFunc) Resolve(phrase string, now time.Time) (time.Time, bool) {
	return f(phrase, now)
}

var (
	daysOffsetPattern = regexp.MustCompile(`(?i)^(\d+)\s+days?\s+(ago|before|after)$`)
	nextPattern       = regexp.MustCompile(`(?i)^next\s+(\w+)$`)
	onPattern         = regexp.MustCompile(`(?i)^on\s+(\w+)$`)
	isoPattern        = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// DefaultResolver handles the fixed phrase grammar directly and falls back to
// a natural-language parser for "next <word>" phrases it does not know.
type DefaultResolver struct {
	nl *when.Parser
}

// NewDefaultResolver builds a resolver with the English rule set.
func NewDefaultResolver() *DefaultResolver {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &DefaultResolver{nl: w}
}

// Resolve implements Resolver.
func (r *DefaultResolver) Resolve(phrase string, now time.Time) (time.Time, bool) {
	p := strings.TrimSpace(phrase)
	today := startOfDay(now)

	switch strings.ToLower(p) {
	case "today":
		return today, true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	}

	if isoPattern.MatchString(p) {
		t, err := time.ParseInLocation("2006-01-02", p, now.Location())
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	if m := daysOffsetPattern.FindStringSubmatch(p); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		if strings.EqualFold(m[2], "after") {
			return today.AddDate(0, 0, n), true
		}
		return today.AddDate(0, 0, -n), true
	}

	if m := onPattern.FindStringSubmatch(p); m != nil {
		wd, ok := weekdays[strings.ToLower(m[1])]
		if !ok {
			// "on today", "on yesterday" and the like.
			return r.Resolve(m[1], now)
		}
		// Most recent occurrence, today included.
		back := (int(today.Weekday()) - int(wd) + 7) % 7
		return today.AddDate(0, 0, -back), true
	}

	if m := nextPattern.FindStringSubmatch(p); m != nil {
		if t, ok := resolveNext(strings.ToLower(m[1]), today); ok {
			return t, true
		}
		return r.parseNatural(p, now)
	}

	return r.parseNatural(p, now)
}

func (r *DefaultResolver) parseNatural(phrase string, now time.Time) (time.Time, bool) {
	if r.nl == nil {
		return time.Time{}, false
	}
	res, err := r.nl.Parse(phrase, now)
	if err != nil || res == nil {
		return time.Time{}, false
	}
	return startOfDay(res.Time), true
}

func resolveNext(word string, today time.Time) (time.Time, bool) {
	if wd, ok := weekdays[word]; ok {
		ahead := (int(wd) - int(today.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return today.AddDate(0, 0, ahead), true
	}
	switch word {
	case "day":
		return today.AddDate(0, 0, 1), true
	case "week":
		return today.AddDate(0, 0, 7), true
	case "month":
		return today.AddDate(0, 1, 0), true
	case "year":
		return today.AddDate(1, 0, 0), true
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
