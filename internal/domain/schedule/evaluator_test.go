package schedule

import (
	"testing"
	"time"
)

// at builds a timestamp on the given weekday of a fixed reference week.
// 2024-01-07 is a Sunday, so weekday offsets line up with time.Weekday.
func at(t *testing.T, weekday int, hhmm string) time.Time {
	t.Helper()
	m, err := ParseMinuteOfDay(hhmm)
	if err != nil {
		t.Fatalf("bad test time %q: %v", hhmm, err)
	}
	base := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, weekday).Add(time.Duration(m) * time.Minute)
}

func mustMinute(t *testing.T, hhmm string) MinuteOfDay {
	t.Helper()
	m, err := ParseMinuteOfDay(hhmm)
	if err != nil {
		t.Fatalf("bad test time %q: %v", hhmm, err)
	}
	return m
}

func session(t *testing.T, day, number int, start, end string) *Session {
	t.Helper()
	return &Session{
		DayOfWeek:   day,
		Number:      number,
		StartMinute: mustMinute(t, start),
		EndMinute:   mustMinute(t, end),
		IsActive:    true,
	}
}

func TestActiveAt_Boundaries(t *testing.T) {
	sessions := []*Session{session(t, 1, 1, "08:00", "12:00")}

	tests := []struct {
		name    string
		weekday int
		hhmm    string
		want    bool
	}{
		{"exactly at start", 1, "08:00", true},
		{"mid session", 1, "10:30", true},
		{"exactly at end", 1, "12:00", true},
		{"one minute before start", 1, "07:59", false},
		{"one minute after end", 1, "12:01", false},
		{"same time wrong day", 2, "10:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActiveAt(sessions, at(t, tt.weekday, tt.hhmm))
			if (got != nil) != tt.want {
				t.Errorf("ActiveAt(%s %s): got %v, want match=%v", time.Weekday(tt.weekday), tt.hhmm, got, tt.want)
			}
		})
	}
}

func TestActiveAt_SkipsInactiveSessions(t *testing.T) {
	s := session(t, 1, 1, "08:00", "12:00")
	s.IsActive = false

	if got := ActiveAt([]*Session{s}, at(t, 1, "10:00")); got != nil {
		t.Errorf("expected no active session for soft-deleted row, got %v", got)
	}
}

func TestActiveAt_OverlapPicksLowestNumber(t *testing.T) {
	sessions := []*Session{
		session(t, 1, 2, "09:00", "13:00"),
		session(t, 1, 1, "08:00", "12:00"),
	}

	got := ActiveAt(sessions, at(t, 1, "10:00"))
	if got == nil || got.Number != 1 {
		t.Errorf("expected session 1 to win the overlap, got %v", got)
	}
}

func TestNextAfter(t *testing.T) {
	sessions := []*Session{
		session(t, 1, 1, "08:00", "12:00"),
		session(t, 1, 2, "14:00", "16:00"),
		session(t, 4, 1, "18:00", "20:00"),
	}

	tests := []struct {
		name     string
		weekday  int
		hhmm     string
		wantDay  int
		wantNum  int
	}{
		{"later session same day", 1, "12:05", 1, 2},
		{"before first session of the day", 1, "07:00", 1, 1},
		{"next day with sessions", 2, "10:00", 4, 1},
		{"wraps past end of week", 5, "10:00", 1, 1},
		{"start is strictly after now", 1, "14:00", 4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextAfter(sessions, at(t, tt.weekday, tt.hhmm))
			if got == nil {
				t.Fatalf("NextAfter returned nil, want %d#%d", tt.wantDay, tt.wantNum)
			}
			if got.DayOfWeek != tt.wantDay || got.Number != tt.wantNum {
				t.Errorf("NextAfter = %s, want %d#%d", got.Key(), tt.wantDay, tt.wantNum)
			}
		})
	}
}

func TestNextAfter_SingleSessionWrapsToNextWeek(t *testing.T) {
	sessions := []*Session{session(t, 1, 1, "08:00", "12:00")}

	// Just after the only session ended: the answer is the same session,
	// next week.
	got := NextAfter(sessions, at(t, 1, "12:05"))
	if got == nil || got.DayOfWeek != 1 || got.Number != 1 {
		t.Errorf("expected the lone weekly session to wrap, got %v", got)
	}
}

func TestNextAfter_NoActiveSessions(t *testing.T) {
	if got := NextAfter(nil, at(t, 1, "10:00")); got != nil {
		t.Errorf("expected nil for empty schedule, got %v", got)
	}

	inactive := session(t, 1, 1, "08:00", "12:00")
	inactive.IsActive = false
	if got := NextAfter([]*Session{inactive}, at(t, 2, "10:00")); got != nil {
		t.Errorf("expected nil when every session is soft-deleted, got %v", got)
	}
}

func TestParseMinuteOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    MinuteOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:30", 510, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseMinuteOfDay(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMinuteOfDay(%q): err = %v, wantErr = %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseMinuteOfDay(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestMinuteOfDayString(t *testing.T) {
	if got := MinuteOfDay(510).String(); got != "08:30" {
		t.Errorf("String() = %q, want %q", got, "08:30")
	}
	if got := MinuteOfDay(5).String(); got != "00:05" {
		t.Errorf("String() = %q, want %q", got, "00:05")
	}
}
