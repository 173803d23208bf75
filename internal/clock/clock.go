// Package clock computes business "now" and "today" in one canonical zone,
// independent of the machine's configured time zone, so every agent shares
// the same day boundary.
package clock

import (
	"fmt"
	"time"

	// Embedded zone database: the business zone must resolve on hosts
	// without /usr/share/zoneinfo.
	_ "time/tzdata"
)

const (
	// DefaultZone is the business zone. It has no DST.
	DefaultZone = "Asia/Colombo"

	// DateLayout is the calendar date format used in persisted records.
	DateLayout = "2006-01-02"

	fixedOffset = 5*3600 + 30*60
)

// Clock reports time in the business zone.
type Clock struct {
	loc     *time.Location
	nowFunc func() time.Time
}

// New returns a Clock for the given IANA zone. An empty zone selects
// DefaultZone.
func New(zone string) (*Clock, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load business zone %q: %w", zone, err)
	}
	return &Clock{loc: loc, nowFunc: time.Now}, nil
}

// Default returns a Clock in DefaultZone. If the zone cannot be loaded it
// falls back to a fixed +05:30 offset.
func Default() *Clock {
	c, err := New(DefaultZone)
	if err != nil {
		return &Clock{loc: time.FixedZone(DefaultZone, fixedOffset), nowFunc: time.Now}
	}
	return c
}

// WithNow returns a copy of c that reads the current instant from now.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	return &Clock{loc: c.loc, nowFunc: now}
}

// Location returns the business zone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in the business zone.
func (c *Clock) Now() time.Time {
	return c.nowFunc().In(c.loc)
}

// Today returns the business calendar date as YYYY-MM-DD.
func (c *Clock) Today() string {
	return c.Now().Format(DateLayout)
}

// IsToday reports whether date (YYYY-MM-DD) is the business today.
func (c *Clock) IsToday(date string) bool {
	return date == c.Today()
}

// EndOfDay returns 23:59:59.999 of t's business date.
func (c *Clock) EndOfDay(t time.Time) time.Time {
	t = t.In(c.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), c.loc)
}

// StartOfMonth returns midnight of the first day of t's business month.
func (c *Clock) StartOfMonth(t time.Time) time.Time {
	t = t.In(c.loc)
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, c.loc)
}

// UntilEndOfDay returns the time left until the end of the business day.
// It never returns a negative duration.
func (c *Clock) UntilEndOfDay() time.Duration {
	now := c.Now()
	left := c.EndOfDay(now).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// MsUntilEndOfDay is UntilEndOfDay in whole milliseconds.
func (c *Clock) MsUntilEndOfDay() int64 {
	return c.UntilEndOfDay().Milliseconds()
}
