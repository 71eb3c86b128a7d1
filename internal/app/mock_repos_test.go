package app

import (
	"context"
	"io"
	"sort"
	"time"

	"member_attendance_bot/internal/domain/attendance"
	"member_attendance_bot/internal/domain/member"
	"member_attendance_bot/internal/domain/schedule"
	idb "member_attendance_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// ── Mock member.Repository ──

type mockMemberRepo struct {
	members map[int64]*member.Member
	nextID  int64
}

func newMockMemberRepo() *mockMemberRepo {
	return &mockMemberRepo{members: make(map[int64]*member.Member)}
}

func (m *mockMemberRepo) Create(_ context.Context, mem *member.Member) error {
	for _, existing := range m.members {
		if existing.Barcode == mem.Barcode {
			return idb.ErrDuplicateBarcode
		}
	}
	m.nextID++
	mem.ID = m.nextID
	mem.CreatedAt = time.Now()
	mem.UpdatedAt = mem.CreatedAt
	m.members[mem.ID] = mem
	return nil
}

func (m *mockMemberRepo) GetByID(_ context.Context, id int64) (*member.Member, error) {
	if mem, ok := m.members[id]; ok {
		return mem, nil
	}
	return nil, idb.ErrMemberNotFound
}

func (m *mockMemberRepo) GetByBarcode(_ context.Context, barcode string) (*member.Member, error) {
	for _, mem := range m.members {
		if mem.Barcode == barcode {
			return mem, nil
		}
	}
	return nil, idb.ErrMemberNotFound
}

func (m *mockMemberRepo) Update(_ context.Context, mem *member.Member) error {
	if _, ok := m.members[mem.ID]; !ok {
		return idb.ErrMemberNotFound
	}
	m.members[mem.ID] = mem
	return nil
}

func (m *mockMemberRepo) ListActive(_ context.Context) ([]*member.Member, error) {
	var result []*member.Member
	for _, mem := range m.members {
		if mem.IsActive {
			result = append(result, mem)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockMemberRepo) ListAll(_ context.Context) ([]*member.Member, error) {
	var result []*member.Member
	for _, mem := range m.members {
		result = append(result, mem)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ── Mock attendance.Repository ──

type mockAttendanceRepo struct {
	records []*attendance.Record
	nextID  int64
	// insertErrFor simulates a per-member storage failure on Insert.
	insertErrFor map[int64]error
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{insertErrFor: make(map[int64]error)}
}

func (m *mockAttendanceRepo) Insert(_ context.Context, rec *attendance.Record) error {
	if err, ok := m.insertErrFor[rec.MemberID]; ok {
		return err
	}
	m.nextID++
	rec.ID = m.nextID
	rec.CreatedAt = time.Now()
	stored := *rec
	m.records = append(m.records, &stored)
	return nil
}

func (m *mockAttendanceRepo) latest(memberID int64) *attendance.Record {
	var latest *attendance.Record
	for _, rec := range m.records {
		if rec.MemberID != memberID {
			continue
		}
		if latest == nil || rec.ScanTime.After(latest.ScanTime) ||
			(rec.ScanTime.Equal(latest.ScanTime) && rec.ID > latest.ID) {
			latest = rec
		}
	}
	return latest
}

func (m *mockAttendanceRepo) LatestForMember(_ context.Context, memberID int64) (*attendance.Record, error) {
	if rec := m.latest(memberID); rec != nil {
		return rec, nil
	}
	return nil, idb.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ListCheckedIn(_ context.Context) ([]*attendance.CheckedInMember, error) {
	seen := make(map[int64]bool)
	var result []*attendance.CheckedInMember
	for _, rec := range m.records {
		if seen[rec.MemberID] {
			continue
		}
		seen[rec.MemberID] = true
		if latest := m.latest(rec.MemberID); latest.IsCheckIn {
			result = append(result, &attendance.CheckedInMember{
				MemberID: latest.MemberID,
				RecordID: latest.ID,
				ScanTime: latest.ScanTime,
			})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MemberID < result[j].MemberID })
	return result, nil
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

func (m *mockAttendanceRepo) ListRange(_ context.Context, from, to time.Time) ([]*attendance.Record, error) {
	var result []*attendance.Record
	for _, rec := range m.records {
		if !rec.ScanTime.Before(from) && rec.ScanTime.Before(to) {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ── Mock schedule.Repository ──

type mockScheduleRepo struct {
	sessions []*schedule.Session
	nextID   int64
	listErr  error
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{}
}

func (m *mockScheduleRepo) ListActive(_ context.Context) ([]*schedule.Session, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*schedule.Session
	for _, s := range m.sessions {
		if s.IsActive {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockScheduleRepo) ListAll(_ context.Context) ([]*schedule.Session, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sessions, nil
}

func (m *mockScheduleRepo) ReplaceAll(_ context.Context, sessions []*schedule.Session) error {
	for _, s := range m.sessions {
		s.IsActive = false
	}
	for _, s := range sessions {
		var existing *schedule.Session
		for _, old := range m.sessions {
			if old.Key() == s.Key() {
				existing = old
				break
			}
		}
		if existing != nil {
			existing.StartMinute = s.StartMinute
			existing.EndMinute = s.EndMinute
			existing.Name = s.Name
			existing.IsActive = true
			s.ID = existing.ID
			continue
		}
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

// ── Test doubles for the trigger registry and notifier ──

type fakeRearmer struct {
	rearms  int
	cancels []schedule.Key
}

func (f *fakeRearmer) Rearm(context.Context) error { f.rearms++; return nil }

func (f *fakeRearmer) Cancel(key schedule.Key) { f.cancels = append(f.cancels, key) }

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) NotifyAdmin(text string) error {
	n.messages = append(n.messages, text)
	return nil
}
