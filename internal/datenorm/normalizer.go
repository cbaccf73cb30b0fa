// Package datenorm rewrites relative and absolute date phrases in a question
// into ISO dates that exist in the attendance dataset.
package datenorm

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/jonboulle/clockwork"

	"attendq/internal/dataset"
)

// ISODate is the layout of date columns and of every substituted date.
const ISODate = "2006-01-02"

var phrasePattern = regexp.MustCompile(
	`(?i)\b(?:today|yesterday|tomorrow|\d+\s+days?\s+(?:ago|before|after)|next\s+\w+|on\s+\w+day|\d{4}-\d{2}-\d{2})\b`,
)

// Normalizer resolves date phrases against a clock and validates them against a dataset.
type Normalizer struct {
	clock    clockwork.Clock
	resolver Resolver
	log      *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the clock that defines "today".
func WithClock(c clockwork.Clock) Option {
	return func(n *Normalizer) {
		n.clock = c
	}
}

// WithResolver replaces the phrase resolver.
func WithResolver(r Resolver) Option {
	return func(n *Normalizer) {
		n.resolver = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) {
		n.log = l
	}
}

// New creates a Normalizer using the real clock and the default resolver.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		clock:    clockwork.NewRealClock(),
		resolver: NewDefaultResolver(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// FindPhrases returns the date phrases in question, in the order they appear.
func FindPhrases(question string) []string {
	return phrasePattern.FindAllString(question, -1)
}

// Normalize returns question with each recognised date phrase replaced by its
// ISO date. The first phrase that resolves to a future date or to a date
// missing from ds aborts normalization with a *FutureDateError or
// *UnknownDateError; no partial rewrite is returned in that case.
func (n *Normalizer) Normalize(question string, ds *dataset.Dataset) (string, error) {
	now := n.clock.Now()
	today := startOfDay(now)

	for _, phrase := range FindPhrases(question) {
		resolved, ok := n.resolver.Resolve(phrase, now)
		if !ok {
			n.log.Debug("datenorm: phrase left untouched", "phrase", phrase)
			continue
		}
		formatted := resolved.Format(ISODate)

		if startOfDay(resolved).After(today) {
			return "", &FutureDateError{Date: formatted}
		}
		if !ds.HasDate(formatted) {
			latest, ok := ds.LatestDate()
			if !ok {
				latest = "N/A"
			}
			return "", &UnknownDateError{Date: formatted, Latest: latest}
		}

		question = strings.Replace(question, phrase, formatted, 1)
		n.log.Debug("datenorm: phrase resolved", "phrase", phrase, "date", formatted)
	}

	return question, nil
}
