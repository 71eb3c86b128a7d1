package app

import (
	"context"
	"errors"
	"testing"

	"member_attendance_bot/internal/domain/schedule"
	idb "member_attendance_bot/internal/infra/database"
)

func setupScheduleService() (*ScheduleService, *mockScheduleRepo, *fakeRearmer) {
	repo := newMockScheduleRepo()
	rearmer := &fakeRearmer{}
	svc := NewScheduleService(repo, rearmer, testLogger())
	return svc, repo, rearmer
}

func TestScheduleService_ReplaceSchedules(t *testing.T) {
	svc, repo, rearmer := setupScheduleService()

	sessions, err := svc.ReplaceSchedules(context.Background(), []SessionInput{
		{DayOfWeek: 1, Number: 1, Start: "08:00", End: "12:00", Name: "Утренняя смена"},
		{DayOfWeek: 1, Number: 2, Start: "14:00", End: "16:00"},
	})
	if err != nil {
		t.Fatalf("ReplaceSchedules failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].StartMinute != 480 || sessions[0].EndMinute != 720 {
		t.Errorf("session 1 minutes = %d..%d, want 480..720", sessions[0].StartMinute, sessions[0].EndMinute)
	}
	if rearmer.rearms != 1 {
		t.Errorf("rearms = %d, want 1 after replace", rearmer.rearms)
	}

	active, _ := repo.ListActive(context.Background())
	if len(active) != 2 {
		t.Errorf("repo holds %d active sessions, want 2", len(active))
	}
}

func TestScheduleService_ReplaceWithEmptyListDisarmsEverything(t *testing.T) {
	svc, repo, rearmer := setupScheduleService()

	if _, err := svc.ReplaceSchedules(context.Background(), []SessionInput{
		{DayOfWeek: 1, Number: 1, Start: "08:00", End: "12:00"},
	}); err != nil {
		t.Fatalf("seed replace failed: %v", err)
	}

	if _, err := svc.ReplaceSchedules(context.Background(), nil); err != nil {
		t.Fatalf("empty replace failed: %v", err)
	}
	if rearmer.rearms != 2 {
		t.Errorf("rearms = %d, want 2", rearmer.rearms)
	}

	active, _ := repo.ListActive(context.Background())
	if len(active) != 0 {
		t.Errorf("expected no active sessions, got %d", len(active))
	}
	// Soft delete: the row survives.
	all, _ := repo.ListAll(context.Background())
	if len(all) != 1 {
		t.Errorf("expected the soft-deleted row to remain, got %d rows", len(all))
	}
}

func TestScheduleService_ReplaceValidation(t *testing.T) {
	svc, repo, rearmer := setupScheduleService()

	tests := []struct {
		name  string
		input SessionInput
	}{
		{"day out of range", SessionInput{DayOfWeek: 7, Number: 1, Start: "08:00", End: "12:00"}},
		{"negative day", SessionInput{DayOfWeek: -1, Number: 1, Start: "08:00", End: "12:00"}},
		{"zero session number", SessionInput{DayOfWeek: 1, Number: 0, Start: "08:00", End: "12:00"}},
		{"bad start time", SessionInput{DayOfWeek: 1, Number: 1, Start: "8am", End: "12:00"}},
		{"bad end time", SessionInput{DayOfWeek: 1, Number: 1, Start: "08:00", End: "25:00"}},
		{"start equals end", SessionInput{DayOfWeek: 1, Number: 1, Start: "08:00", End: "08:00"}},
		{"start after end", SessionInput{DayOfWeek: 1, Number: 1, Start: "12:00", End: "08:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ReplaceSchedules(context.Background(), []SessionInput{tt.input})
			if !errors.Is(err, ErrInvalidSchedule) {
				t.Errorf("expected ErrInvalidSchedule, got %v", err)
			}
		})
	}

	t.Run("duplicate natural key", func(t *testing.T) {
		_, err := svc.ReplaceSchedules(context.Background(), []SessionInput{
			{DayOfWeek: 1, Number: 1, Start: "08:00", End: "12:00"},
			{DayOfWeek: 1, Number: 1, Start: "14:00", End: "16:00"},
		})
		if !errors.Is(err, ErrInvalidSchedule) {
			t.Errorf("expected ErrInvalidSchedule, got %v", err)
		}
	})

	// Rejected batches write nothing and never touch the trigger set.
	all, _ := repo.ListAll(context.Background())
	if len(all) != 0 {
		t.Errorf("validation failure must not persist sessions, found %d", len(all))
	}
	if rearmer.rearms != 0 {
		t.Errorf("validation failure must not rearm, got %d rearms", rearmer.rearms)
	}
}

func TestScheduleService_DeactivateSession(t *testing.T) {
	svc, repo, rearmer := setupScheduleService()

	if _, err := svc.ReplaceSchedules(context.Background(), []SessionInput{
		{DayOfWeek: 1, Number: 1, Start: "08:00", End: "12:00"},
		{DayOfWeek: 3, Number: 1, Start: "08:00", End: "12:00"},
	}); err != nil {
		t.Fatalf("seed replace failed: %v", err)
	}

	key := schedule.Key{DayOfWeek: 1, Number: 1}
	if err := svc.DeactivateSession(context.Background(), key); err != nil {
		t.Fatalf("DeactivateSession failed: %v", err)
	}

	// Targeted cancel, no full rearm on top of the seed one.
	if len(rearmer.cancels) != 1 || rearmer.cancels[0] != key {
		t.Errorf("cancels = %v, want exactly [%s]", rearmer.cancels, key)
	}
	if rearmer.rearms != 1 {
		t.Errorf("rearms = %d, want 1 (only the seed replace)", rearmer.rearms)
	}

	active, _ := repo.ListActive(context.Background())
	if len(active) != 1 || active[0].DayOfWeek != 3 {
		t.Errorf("expected only the Wednesday session active, got %v", active)
	}
}

func TestScheduleService_DeactivateUnknownSession(t *testing.T) {
	svc, _, rearmer := setupScheduleService()

	err := svc.DeactivateSession(context.Background(), schedule.Key{DayOfWeek: 5, Number: 9})
	if !errors.Is(err, idb.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if len(rearmer.cancels) != 0 {
		t.Errorf("unknown session must not cancel anything, got %v", rearmer.cancels)
	}
}
