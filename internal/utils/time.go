package contextutils

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// DateLayout is the wire format for calendar dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string into a midnight UTC time.
// If the format is invalid, the returned error is wrapped with the
// message "invalid date format".
func ParseDate(dateStr string) (time.Time, error) {
	date, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, WrapError(err, "invalid date format")
	}
	return date, nil
}

// StartOfDay truncates a time to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day, each
// read in its own location. Dates scanned from the database arrive as UTC
// midnights; converting them into the server zone would shift the day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// relTimeMagnitudes controls the granularity of FormatRelativeTime:
// sub-minute gaps collapse to "moments", then minutes, hours, days.
var relTimeMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "moments %s", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "1 minute %s", DivBy: 1},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: 1},
	{D: humanize.Day, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "1 day %s", DivBy: 1},
	{D: math.MaxInt64, Format: "%d days %s", DivBy: humanize.Day},
}

// FormatRelativeTime renders how long ago t happened relative to now,
// e.g. "moments ago", "5 minutes ago", "3 hours ago", "2 days ago".
func FormatRelativeTime(t, now time.Time) string {
	return humanize.CustomRelTime(t, now, "ago", "from now", relTimeMagnitudes)
}
