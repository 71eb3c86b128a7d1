// internal/domain/schedule/evaluator.go
package schedule

import "time"

// ActiveAt returns the session covering now, or nil when no session is
// active. A session covers now when it is active, its day matches now's
// weekday, and StartMinute <= minute-of-day <= EndMinute — both bounds
// inclusive, matching the persisted comparison semantics. Valid schedule
// data has no overlapping sessions; should overlaps exist anyway, the
// session with the lowest Number wins so the answer stays deterministic.
func ActiveAt(sessions []*Session, now time.Time) *Session {
	day := int(now.Weekday())
	minute := MinuteOf(now)

	var match *Session
	for _, s := range sessions {
		if !s.IsActive || s.DayOfWeek != day {
			continue
		}
		if minute < s.StartMinute || minute > s.EndMinute {
			continue
		}
		if match == nil || s.Number < match.Number {
			match = s
		}
	}
	return match
}

// NextAfter returns the next upcoming session strictly after now:
// first any active session later today (start strictly greater than
// now's minute-of-day, earliest start wins), otherwise the first
// active session found walking the following days, wrapping the week
// so that a lone weekly session is reported again for next week.
// Within a following day the lowest Number wins. Returns nil only
// when no active sessions exist at all.
func NextAfter(sessions []*Session, now time.Time) *Session {
	day := int(now.Weekday())
	minute := MinuteOf(now)

	var next *Session
	for _, s := range sessions {
		if !s.IsActive || s.DayOfWeek != day || s.StartMinute <= minute {
			continue
		}
		if next == nil || s.StartMinute < next.StartMinute ||
			(s.StartMinute == next.StartMinute && s.Number < next.Number) {
			next = s
		}
	}
	if next != nil {
		return next
	}

	for dist := 1; dist <= 7; dist++ {
		target := (day + dist) % 7
		for _, s := range sessions {
			if !s.IsActive || s.DayOfWeek != target {
				continue
			}
			if next == nil || s.Number < next.Number {
				next = s
			}
		}
		if next != nil {
			return next
		}
	}
	return nil
}
