package telegram

import (
	"context"
	"io"
	"testing"
	"time"

	"member_attendance_bot/internal/domain/attendance"
	"member_attendance_bot/internal/domain/schedule"
	idb "member_attendance_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const testAdminID int64 = 111

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// newOfflineBot builds a bot that dispatches updates synchronously without
// touching the network. Send calls fail, which the tests ignore: the
// assertions run against the repositories the handlers mutate.
func newOfflineBot(t *testing.T) *telebot.Bot {
	t.Helper()
	b, err := telebot.NewBot(telebot.Settings{
		Offline:     true,
		Synchronous: true,
		OnError:     func(error, telebot.Context) {},
	})
	if err != nil {
		t.Fatalf("failed to create offline bot: %v", err)
	}
	return b
}

// ── Mock schedule.Repository ──

type mockScheduleRepo struct {
	sessions []*schedule.Session
	nextID   int64
}

func (m *mockScheduleRepo) ListActive(_ context.Context) ([]*schedule.Session, error) {
	var result []*schedule.Session
	for _, s := range m.sessions {
		if s.IsActive {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockScheduleRepo) ListAll(_ context.Context) ([]*schedule.Session, error) {
	return m.sessions, nil
}

func (m *mockScheduleRepo) ReplaceAll(_ context.Context, sessions []*schedule.Session) error {
	for _, s := range m.sessions {
		s.IsActive = false
	}
	for _, s := range sessions {
		m.nextID++
		s.ID = m.nextID
		stored := *s
		m.sessions = append(m.sessions, &stored)
	}
	return nil
}

func (m *mockScheduleRepo) Deactivate(_ context.Context, key schedule.Key) error {
	for _, s := range m.sessions {
		if s.Key() == key && s.IsActive {
			s.IsActive = false
			return nil
		}
	}
	return idb.ErrSessionNotFound
}

// ── Mock attendance.Repository ──

type mockAttendanceRepo struct {
	records []*attendance.Record
}

func (m *mockAttendanceRepo) Insert(_ context.Context, rec *attendance.Record) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *mockAttendanceRepo) LatestForMember(_ context.Context, _ int64) (*attendance.Record, error) {
	return nil, idb.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ListCheckedIn(_ context.Context) ([]*attendance.CheckedInMember, error) {
	return nil, nil
}

func (m *mockAttendanceRepo) ListFlagged(_ context.Context, limit int) ([]*attendance.Record, error) {
	var result []*attendance.Record
	for _, rec := range m.records {
		if rec.NeedsReview {
			result = append(result, rec)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockAttendanceRepo) ClearReview(_ context.Context, recordID int64) error {
	for _, rec := range m.records {
		if rec.ID == recordID {
			rec.NeedsReview = false
			return nil
		}
	}
	return idb.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ListRange(_ context.Context, _, _ time.Time) ([]*attendance.Record, error) {
	return nil, nil
}

// ── Trigger registry double ──

type fakeRearmer struct {
	rearms  int
	cancels []schedule.Key
}

func (f *fakeRearmer) Rearm(context.Context) error { f.rearms++; return nil }

func (f *fakeRearmer) Cancel(key schedule.Key) { f.cancels = append(f.cancels, key) }
