package core

import (
	"fmt"
	"time"
)

const (
	// MonthDays is the length of the rolling month used everywhere in place of
	// calendar months.
	MonthDays = 30

	// WeeksPerYear converts an annual salary into a weekly equivalent.
	WeeksPerYear = 52

	// MonthsPerYear converts an annual salary into a monthly equivalent.
	MonthsPerYear = 12

	// DefaultUTCOffset is the fixed user-local offset (UTC-5).
	DefaultUTCOffset = -5 * time.Hour

	localDayLayout = "2006-01-02"
)

// Window is a time range. Start is always inclusive; End is inclusive only
// when Closed is set.
type Window struct {
	Start  time.Time
	End    time.Time
	Closed bool
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	if w.Closed {
		return !t.After(w.End)
	}
	return t.Before(w.End)
}

func (w Window) String() string {
	closing := ")"
	if w.Closed {
		closing = "]"
	}
	return fmt.Sprintf("[%s, %s%s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), closing)
}

// Clock computes every day, week and month boundary from a single fixed
// UTC offset. All returned instants are in UTC.
type Clock struct {
	loc    *time.Location
	offset time.Duration
}

// NewClock returns a Clock for a fixed offset east of UTC (negative for west).
func NewClock(offset time.Duration) Clock {
	return Clock{
		loc:    time.FixedZone(fmt.Sprintf("UTC%+d", int(offset.Hours())), int(offset.Seconds())),
		offset: offset,
	}
}

func (c Clock) location() *time.Location {
	if c.loc == nil {
		return time.FixedZone("UTC-5", int(DefaultUTCOffset.Seconds()))
	}
	return c.loc
}

// Offset returns the configured offset from UTC.
func (c Clock) Offset() time.Duration {
	if c.loc == nil {
		return DefaultUTCOffset
	}
	return c.offset
}

// LocalDayStart returns local midnight of the day containing now, in UTC.
func (c Clock) LocalDayStart(now time.Time) time.Time {
	local := now.In(c.location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.location()).UTC()
}

// LocalDay returns the local calendar day of now as YYYY-MM-DD. It is the
// snapshot key.
func (c Clock) LocalDay(now time.Time) string {
	return now.In(c.location()).Format(localDayLayout)
}

// NextLocalMidnight returns the first local midnight strictly after now.
func (c Clock) NextLocalMidnight(now time.Time) time.Time {
	return c.LocalDayStart(now).Add(24 * time.Hour)
}

// DayWindow returns [local day start, +1 day).
func (c Clock) DayWindow(now time.Time) Window {
	start := c.LocalDayStart(now)
	return Window{Start: start, End: start.Add(24 * time.Hour)}
}

// MonthWindow returns the rolling window [now-30d, now].
func (c Clock) MonthWindow(now time.Time) Window {
	now = now.UTC()
	return Window{Start: now.AddDate(0, 0, -MonthDays), End: now, Closed: true}
}

// WeekWindow returns [local Monday start, +7 days) for the week containing now.
func (c Clock) WeekWindow(now time.Time) Window {
	dayStart := c.LocalDayStart(now)
	weekday := (int(now.In(c.location()).Weekday()) + 6) % 7 // Monday = 0
	start := dayStart.AddDate(0, 0, -weekday)
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}
