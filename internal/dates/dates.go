// Package dates parses the free-form dates found in the registry, births and
// referral tables. Parsing never returns an error: callers branch on Parsed.OK.
package dates

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Parsed is the outcome of parsing one raw date cell.
type Parsed struct {
	Time time.Time
	OK   bool
	Raw  string
}

// numericDMY matches a leading d-m-y or d.m.y date; the year is two or four
// digits so ISO dates (yyyy-mm-dd) never match.
var numericDMY = regexp.MustCompile(`^(\d{1,2})[-.](\d{1,2})[-.](\d{4}|\d{2})\b`)

// Failed returns the failure result for raw.
func Failed(raw string) Parsed {
	return Parsed{Raw: raw}
}

// Parse guesses the layout of raw. dayFirst resolves ambiguous numeric dates
// such as 01/03/2020 (1 March when true, 3 January when false); a date that is
// only valid with the other ordering is still accepted.
func Parse(raw string, dayFirst bool) Parsed {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Failed(raw)
	}

	// dateparse only applies the month-first preference to slashed dates.
	s = numericDMY.ReplaceAllString(s, "$1/$2/$3")

	t, err := dateparse.ParseAny(s,
		dateparse.PreferMonthFirst(!dayFirst),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err != nil {
		return Failed(raw)
	}
	return Parsed{Time: t, OK: true, Raw: raw}
}

// DaysBetween returns the whole number of days from anchor to t, rounded
// towards negative infinity, so a time 36 hours before anchor is -2 days.
func DaysBetween(anchor, t time.Time) int {
	return int(math.Floor(t.Sub(anchor).Hours() / 24))
}

// Year returns the calendar year of a successful parse.
func (p Parsed) Year() (int, bool) {
	if !p.OK {
		return 0, false
	}
	return p.Time.Year(), true
}
