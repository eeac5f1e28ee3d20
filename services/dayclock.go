package services

import (
	"fmt"
	"time"
)

const dayKeyLayout = "2006-01-02"

// DayClock maps instants to civil-day boundaries under a fixed UTC offset.
// The offset is injected at construction; nothing here consults the process
// timezone, so two servers in different zones agree on every boundary.
type DayClock struct {
	loc *time.Location
}

// NewDayClock builds a clock for the given offset in minutes east of UTC
// (330 = UTC+5:30).
func NewDayClock(offsetMinutes int) DayClock {
	name := fmt.Sprintf("UTC%+03d:%02d", offsetMinutes/60, abs(offsetMinutes%60))
	return DayClock{loc: time.FixedZone(name, offsetMinutes*60)}
}

// StartOfDay returns the instant of 00:00:00 of the civil day containing t,
// expressed in UTC. Idempotent: StartOfDay(StartOfDay(t)) == StartOfDay(t).
func (c DayClock) StartOfDay(t time.Time) time.Time {
	lt := t.In(c.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, c.loc).UTC()
}

// DayKey returns the canonical storage key ("2006-01-02") of the civil day
// containing t. Keys compare and sort correctly as plain strings.
func (c DayClock) DayKey(t time.Time) string {
	return t.In(c.loc).Format(dayKeyLayout)
}

// DayStart resolves a day key back to its starting instant in UTC.
func (c DayClock) DayStart(key string) (time.Time, error) {
	t, err := time.ParseInLocation(dayKeyLayout, key, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", key, err)
	}
	return t.UTC(), nil
}

// AddDays shifts a day key by n civil days.
func (c DayClock) AddDays(key string, n int) string {
	t, err := time.ParseInLocation(dayKeyLayout, key, c.loc)
	if err != nil {
		return key
	}
	return t.AddDate(0, 0, n).Format(dayKeyLayout)
}

// SameDay reports whether two instants fall on the same civil day.
func (c DayClock) SameDay(a, b time.Time) bool {
	return c.DayKey(a) == c.DayKey(b)
}

// Minute returns the instant dayStart plus m minutes; used for deadline math.
func (c DayClock) Minute(dayStart time.Time, m int) time.Time {
	return dayStart.Add(time.Duration(m) * time.Minute)
}

// ClockLabel renders a minute-of-day as a wall-clock label ("09:00 AM") for
// validation messages.
func (c DayClock) ClockLabel(dayStart time.Time, m int) string {
	return c.Minute(dayStart, m).In(c.loc).Format("03:04 PM")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
