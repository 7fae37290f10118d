// Package tzdate resolves instants to calendar dates in a user's timezone.
//
// Every "day" in the system (quota resets, streak gaps, activity logs) is a
// calendar day in the user's IANA zone, not a UTC day. The resolver is the
// single place that mapping happens; everything downstream works with the
// canonical date values it returns and never re-parses or re-localizes.
//
// Canonical form: a date is midnight UTC of the local year/month/day. Using
// UTC for the canonical value keeps date arithmetic exact (no DST-shortened
// days) while the year/month/day still reflect the user's zone.
package tzdate

import (
	"log/slog"
	"time"
)

// Resolver maps instants to local calendar dates.
//
// Unresolvable zone IDs are never an error: the resolver falls back to UTC
// and logs at warn, so a corrupt timezone column degrades a user's day
// boundary instead of failing their requests.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a resolver that logs fallbacks to the given logger.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Location resolves an IANA zone ID, falling back to UTC.
// An empty ID is treated as UTC without logging; anything else that fails
// to load is logged once per call at warn.
func (r *Resolver) Location(tzID string) *time.Location {
	if tzID == "" || tzID == "UTC" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tzID)
	if err != nil {
		r.logger.Warn("unresolvable timezone, falling back to UTC", "timezone", tzID, "error", err)
		return time.UTC
	}
	return loc
}

// LocalDate returns the calendar date of instant in the given zone, in
// canonical form (midnight UTC of the local year/month/day).
func (r *Resolver) LocalDate(tzID string, instant time.Time) time.Time {
	local := instant.In(r.Location(tzID))
	return Canonical(local.Year(), local.Month(), local.Day())
}

// Today returns the current calendar date in the given zone.
func (r *Resolver) Today(tzID string) time.Time {
	return r.LocalDate(tzID, time.Now())
}

// Canonical builds the canonical form of a calendar date.
func Canonical(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate reduces an arbitrary time value to canonical date form,
// discarding its clock and zone offset. Used when reading date columns
// whose driver representation carries a location.
func Truncate(t time.Time) time.Time {
	return Canonical(t.Year(), t.Month(), t.Day())
}

// DaysBetween returns the whole calendar days from a to b.
// Both values must be in canonical form.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// MonthRange returns the canonical first day of the month and the first day
// of the following month, for half-open date range queries.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := Canonical(year, month, 1)
	return start, start.AddDate(0, 1, 0)
}
