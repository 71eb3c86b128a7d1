// internal/domain/schedule/session.go
package schedule

import (
	"fmt"
	"time"
)

// MinutesPerDay is the size of the minute-of-day space; all trigger arithmetic
// is modular over it.
const MinutesPerDay = 24 * 60

// MinuteOfDay is a wall-clock time of day at minute resolution (0 .. 1439).
type MinuteOfDay int

// ParseMinuteOfDay parses a management-facing "HH:MM" value.
func ParseMinuteOfDay(s string) (MinuteOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return MinuteOfDay(t.Hour()*60 + t.Minute()), nil
}

// MinuteOf projects a timestamp onto its minute of day.
func MinuteOf(t time.Time) MinuteOfDay {
	return MinuteOfDay(t.Hour()*60 + t.Minute())
}

func (m MinuteOfDay) Hour() int   { return int(m) / 60 }
func (m MinuteOfDay) Minute() int { return int(m) % 60 }
func (m MinuteOfDay) Valid() bool { return m >= 0 && m < MinutesPerDay }

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", m.Hour(), m.Minute())
}

// Key identifies a session slot in the weekly grid. DayOfWeek follows
// time.Weekday numbering (0 = Sunday .. 6 = Saturday); Number is the ordinal
// of the session within its day, starting at 1.
type Key struct {
	DayOfWeek int
	Number    int
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%d", time.Weekday(k.DayOfWeek), k.Number)
}

// Session represents one recurring weekly meeting window during which
// check-ins are permitted. Corresponds to the 'meeting_sessions' table.
// Sessions are soft-deleted by clearing IsActive so that historical
// scheduler bookkeeping keeps its rows.
type Session struct {
	ID          int64
	DayOfWeek   int
	Number      int
	StartMinute MinuteOfDay
	EndMinute   MinuteOfDay
	Name        string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Key returns the session's natural key.
func (s *Session) Key() Key {
	return Key{DayOfWeek: s.DayOfWeek, Number: s.Number}
}
