package telegram

import (
	"context"
	"testing"

	"member_attendance_bot/internal/app"
	"member_attendance_bot/internal/domain/schedule"

	"gopkg.in/telebot.v3"
)

func setScheduleUpdate(senderID int64, text string) telebot.Update {
	return telebot.Update{
		ID: 1,
		Message: &telebot.Message{
			ID:     1,
			Text:   text,
			Sender: &telebot.User{ID: senderID},
			Chat:   &telebot.Chat{ID: senderID},
		},
	}
}

// The schedule format puts one session per line under the command, but the
// bot library's command payload keeps only the first line. Every line has to
// reach the service: a partial parse silently soft-deletes the missing rows.
func TestSetScheduleHandler_MultiLineMessage(t *testing.T) {
	b := newOfflineBot(t)
	schedRepo := &mockScheduleRepo{}
	rearmer := &fakeRearmer{}
	scheduleService := app.NewScheduleService(schedRepo, rearmer, testLogger())

	RegisterAdminHandlers(context.Background(), b, nil, scheduleService, nil, nil, nil,
		testAdminID, testLogger())

	b.ProcessUpdate(setScheduleUpdate(testAdminID,
		"/set_schedule\n1 1 08:00 12:00 Утренняя группа\n2 1 14:00 16:00\n4 2 18:00 20:00"))

	active, _ := schedRepo.ListActive(context.Background())
	if len(active) != 3 {
		t.Fatalf("installed %d sessions, want all 3", len(active))
	}
	wantKeys := []schedule.Key{
		{DayOfWeek: 1, Number: 1},
		{DayOfWeek: 2, Number: 1},
		{DayOfWeek: 4, Number: 2},
	}
	for i, want := range wantKeys {
		if active[i].Key() != want {
			t.Errorf("session %d key = %s, want %s", i, active[i].Key(), want)
		}
	}
	if active[0].Name != "Утренняя группа" {
		t.Errorf("session name = %q", active[0].Name)
	}
	if rearmer.rearms != 1 {
		t.Errorf("rearms = %d, want 1", rearmer.rearms)
	}
}

func TestSetScheduleHandler_Unauthorized(t *testing.T) {
	b := newOfflineBot(t)
	schedRepo := &mockScheduleRepo{}
	scheduleService := app.NewScheduleService(schedRepo, &fakeRearmer{}, testLogger())

	RegisterAdminHandlers(context.Background(), b, nil, scheduleService, nil, nil, nil,
		testAdminID, testLogger())

	b.ProcessUpdate(setScheduleUpdate(999, "/set_schedule\n1 1 08:00 12:00"))

	if len(schedRepo.sessions) != 0 {
		t.Errorf("unauthorized sender must not touch the schedule, found %d sessions", len(schedRepo.sessions))
	}
}

func TestCommandBody(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"sessions on following lines", "/set_schedule\n1 1 08:00 12:00\n2 1 14:00 16:00", "1 1 08:00 12:00\n2 1 14:00 16:00"},
		{"first session on the command line", "/set_schedule 1 1 08:00 12:00\n2 1 14:00 16:00", "1 1 08:00 12:00\n2 1 14:00 16:00"},
		{"bare command", "/set_schedule", ""},
		{"not a command", "1 1 08:00 12:00", "1 1 08:00 12:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commandBody(tt.text); got != tt.want {
				t.Errorf("commandBody(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseScheduleLines(t *testing.T) {
	inputs, err := parseScheduleLines("1 1 08:00 12:00 Утро\n\n2 1 14:00 16:00")
	if err != nil {
		t.Fatalf("parseScheduleLines failed: %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("parsed %d rows, want 2", len(inputs))
	}
	if inputs[0].Name != "Утро" || inputs[1].Name != "" {
		t.Errorf("names = %q, %q", inputs[0].Name, inputs[1].Name)
	}

	if _, err := parseScheduleLines("1 1 08:00"); err == nil {
		t.Error("expected error for a row with too few fields")
	}
	if _, err := parseScheduleLines("пн 1 08:00 12:00"); err == nil {
		t.Error("expected error for a non-numeric day")
	}
}
