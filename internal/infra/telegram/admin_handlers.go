package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"member_attendance_bot/internal/app"
	"member_attendance_bot/internal/domain/member"
	"member_attendance_bot/internal/domain/schedule"
	idb "member_attendance_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

var weekdayNames = [...]string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// RegisterAdminHandlers registers handlers for admin commands: member
// administration, schedule management, status, reports and the manual
// force-logout pass.
func RegisterAdminHandlers(
	ctx context.Context,
	b *telebot.Bot,
	adminService *app.AdminService,
	scheduleService *app.ScheduleService,
	scanService *app.ScanService,
	autoLogoutService *app.AutoLogoutService,
	exportService *app.ExportService,
	adminTelegramID int64,
	baseLogger *logrus.Entry,
) {
	b.Handle("/add_member", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/add_member",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		args := c.Args()
		// Expected format: /add_member <Штрихкод> <Имя> [Фамилия]
		if len(args) < 2 || len(args) > 3 {
			handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
			return c.Send("Неверный формат команды. Используйте: /add_member <Штрихкод> <Имя> [Фамилия]")
		}

		barcode := args[0]
		firstName := args[1]
		if strings.TrimSpace(firstName) == "" {
			return c.Send("Ошибка: Имя не может быть пустым.")
		}

		var lastName string
		if len(args) == 3 {
			lastName = args[2]
		}

		handlerLogger = handlerLogger.WithFields(logrus.Fields{
			"barcode":    barcode,
			"first_name": firstName,
		})

		newMember, err := adminService.AddMember(ctx, c.Sender().ID, barcode, firstName, lastName)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrAdminNotAuthorized):
				logWithError.Warn("Admin not authorized (service level)")
				return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
			case errors.Is(err, app.ErrMemberAlreadyExists):
				logWithError.Warn("Member already exists")
				return c.Send(fmt.Sprintf("Ошибка: Участник со штрихкодом %s уже существует.", barcode))
			default:
				logWithError.Error("Failed to add member")
				return c.Send(fmt.Sprintf("Произошла ошибка при добавлении участника: %s", err.Error()))
			}
		}

		handlerLogger.WithField("new_member_id", newMember.ID).Info("Member added successfully")
		return c.Send(fmt.Sprintf("Участник %s (штрихкод: %s) успешно добавлен.", newMember.DisplayName(), newMember.Barcode))
	})

	b.Handle("/remove_member", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/remove_member",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		args := c.Args()
		// Expected format: /remove_member <Штрихкод>
		if len(args) != 1 {
			return c.Send("Неверный формат команды. Используйте: /remove_member <Штрихкод>")
		}
		barcode := args[0]
		handlerLogger = handlerLogger.WithField("barcode", barcode)

		removed, err := adminService.RemoveMember(ctx, c.Sender().ID, barcode)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrAdminNotAuthorized):
				logWithError.Warn("Admin not authorized (service level)")
				return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
			case errors.Is(err, idb.ErrMemberNotFound):
				logWithError.Warn("Member to remove not found")
				return c.Send(fmt.Sprintf("Участник со штрихкодом %s не найден.", barcode))
			case errors.Is(err, app.ErrMemberAlreadyInactive):
				logWithError.Warn("Member already inactive")
				return c.Send(fmt.Sprintf("Участник со штрихкодом %s уже был деактивирован.", barcode))
			default:
				logWithError.Error("Failed to remove member")
				return c.Send(fmt.Sprintf("Произошла ошибка при удалении участника: %s", err.Error()))
			}
		}

		handlerLogger.WithField("removed_member_id", removed.ID).Info("Member removed (deactivated) successfully")
		return c.Send(fmt.Sprintf("Участник %s (штрихкод: %s) успешно деактивирован.", removed.DisplayName(), removed.Barcode))
	})

	b.Handle("/list_members", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/list_members",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		args := c.Args()
		// Optional argument: 'active' or 'all'
		listType := "active"
		if len(args) > 0 {
			listType = strings.ToLower(args[0])
		}
		handlerLogger = handlerLogger.WithField("list_type", listType)

		var membersList []*member.Member
		var err error
		var title string

		switch listType {
		case "active":
			title = "Активные участники"
			membersList, err = adminService.ListActiveMembers(ctx, c.Sender().ID)
		case "all":
			title = "Все участники"
			membersList, err = adminService.ListAllMembers(ctx, c.Sender().ID)
		default:
			handlerLogger.Warn("Invalid list type argument")
			return c.Send("Неверный аргумент. Используйте 'active' или 'all', или оставьте пустым для отображения активных участников.")
		}

		if err != nil {
			logWithError := handlerLogger.WithError(err)
			if errors.Is(err, app.ErrAdminNotAuthorized) {
				logWithError.Warn("Admin not authorized (service level)")
				return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
			}
			logWithError.Error("Failed to get list of members")
			return c.Send(fmt.Sprintf("Произошла ошибка при получении списка участников: %s", err.Error()))
		}

		if len(membersList) == 0 {
			handlerLogger.Info("No members found for the specified list type")
			if listType == "active" {
				return c.Send("Активных участников не найдено.")
			}
			return c.Send("Список участников пуст.")
		}

		handlerLogger.WithField("members_count", len(membersList)).Info("Successfully retrieved member list")

		var response strings.Builder
		response.WriteString(fmt.Sprintf("---	%s	---\n", title))
		for _, m := range membersList {
			status := "Деактивирован"
			if m.IsActive {
				status = "Активен"
			}
			response.WriteString(fmt.Sprintf("ID: %d, Штрихкод: %s, Имя: %s, Статус: %s\n",
				m.ID, m.Barcode, m.DisplayName(), status))
		}
		return c.Send(response.String())
	})

	b.Handle("/schedule", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/schedule",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		all := len(c.Args()) > 0 && strings.EqualFold(c.Args()[0], "all")
		sessions, err := scheduleService.ListSessions(ctx, all)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list sessions")
			return c.Send(fmt.Sprintf("Произошла ошибка при получении расписания: %s", err.Error()))
		}
		if len(sessions) == 0 {
			return c.Send("Расписание пусто. Используйте /set_schedule для его создания.")
		}

		var response strings.Builder
		response.WriteString("Расписание занятий:\n")
		for _, s := range sessions {
			response.WriteString(formatSession(s))
			if !s.IsActive {
				response.WriteString(" (удалено)")
			}
			response.WriteString("\n")
		}
		return c.Send(response.String())
	})

	b.Handle("/set_schedule", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/set_schedule",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		// Expected format: /set_schedule, then one session per line:
		// <день 0-6> <номер> <HH:MM> <HH:MM> [название]
		// Payload keeps only the first line of the message, so the multi-line
		// schedule has to be cut out of the raw text.
		inputs, err := parseScheduleLines(commandBody(c.Message().Text))
		if err != nil {
			handlerLogger.WithError(err).Warn("Invalid schedule input")
			return c.Send(fmt.Sprintf("Ошибка в формате расписания: %s\n\nКаждая строка: <день 0-6> <номер> <начало HH:MM> <конец HH:MM> [название]", err.Error()))
		}
		if len(inputs) == 0 {
			return c.Send("Укажите хотя бы одну строку расписания. Для полной очистки используйте /clear_schedule.")
		}

		sessions, err := scheduleService.ReplaceSchedules(ctx, inputs)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			if errors.Is(err, app.ErrInvalidSchedule) {
				logWithError.Warn("Schedule validation failed")
				return c.Send(fmt.Sprintf("Ошибка в расписании: %s", err.Error()))
			}
			logWithError.Error("Failed to replace schedule")
			return c.Send(fmt.Sprintf("Произошла ошибка при сохранении расписания: %s", err.Error()))
		}

		handlerLogger.WithField("session_count", len(sessions)).Info("Schedule replaced")
		var response strings.Builder
		response.WriteString(fmt.Sprintf("Расписание обновлено (%d занятий):\n", len(sessions)))
		for _, s := range sessions {
			response.WriteString(formatSession(s))
			response.WriteString("\n")
		}
		return c.Send(response.String())
	})

	b.Handle("/clear_schedule", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/clear_schedule",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		if _, err := scheduleService.ReplaceSchedules(ctx, nil); err != nil {
			handlerLogger.WithError(err).Error("Failed to clear schedule")
			return c.Send(fmt.Sprintf("Произошла ошибка при очистке расписания: %s", err.Error()))
		}
		handlerLogger.Info("Schedule cleared")
		return c.Send("Расписание очищено, все триггеры автовыхода сняты.")
	})

	b.Handle("/remove_session", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/remove_session",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		args := c.Args()
		// Expected format: /remove_session <день 0-6> <номер>
		if len(args) != 2 {
			return c.Send("Неверный формат команды. Используйте: /remove_session <день 0-6> <номер>")
		}
		day, err := strconv.Atoi(args[0])
		if err != nil || day < 0 || day > 6 {
			return c.Send("Ошибка: День недели должен быть числом от 0 (воскресенье) до 6 (суббота).")
		}
		number, err := strconv.Atoi(args[1])
		if err != nil || number < 1 {
			return c.Send("Ошибка: Номер занятия должен быть числом не меньше 1.")
		}

		key := schedule.Key{DayOfWeek: day, Number: number}
		handlerLogger = handlerLogger.WithField("session", key.String())

		if err := scheduleService.DeactivateSession(ctx, key); err != nil {
			logWithError := handlerLogger.WithError(err)
			if errors.Is(err, idb.ErrSessionNotFound) {
				logWithError.Warn("Session to remove not found")
				return c.Send(fmt.Sprintf("Занятие %s/%d не найдено.", weekdayNames[day], number))
			}
			logWithError.Error("Failed to deactivate session")
			return c.Send(fmt.Sprintf("Произошла ошибка при удалении занятия: %s", err.Error()))
		}

		handlerLogger.Info("Session deactivated")
		return c.Send(fmt.Sprintf("Занятие %s/%d удалено, его триггер автовыхода снят.", weekdayNames[day], number))
	})

	b.Handle("/status", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/status",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		status, err := scanService.CurrentSessionStatus(ctx)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to get session status")
			return c.Send(fmt.Sprintf("Произошла ошибка при получении статуса: %s", err.Error()))
		}

		if status.Active != nil {
			return c.Send(fmt.Sprintf("Сейчас идёт занятие: %s", formatSession(status.Active)))
		}
		if status.Next != nil {
			return c.Send(fmt.Sprintf("Сейчас занятий нет. Следующее: %s", formatSession(status.Next)))
		}
		return c.Send("Сейчас занятий нет, расписание пусто.")
	})

	b.Handle("/force_logout", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/force_logout",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		result, err := autoLogoutService.ForceLogoutAll(ctx)
		if err != nil {
			handlerLogger.WithError(err).Error("Manual force-logout pass failed")
			return c.Send(fmt.Sprintf("Произошла ошибка при принудительном выходе: %s", err.Error()))
		}

		handlerLogger.WithFields(logrus.Fields{
			"succeeded": result.Succeeded,
			"failed":    result.Failed,
		}).Info("Manual force-logout pass completed")

		if result.Succeeded == 0 && result.Failed == 0 {
			return c.Send("Никто не отмечен как присутствующий, выход не требуется.")
		}
		msg := fmt.Sprintf("Принудительный выход выполнен: закрыто %d посещений", result.Succeeded)
		if result.Failed > 0 {
			msg += fmt.Sprintf(", ошибок: %d", result.Failed)
		}
		return c.Send(msg + ".")
	})

	b.Handle("/report", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/report",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		args := c.Args()
		// Expected format: /report <с ГГГГ-ММ-ДД> <по ГГГГ-ММ-ДД> [csv|xlsx]
		if len(args) < 2 || len(args) > 3 {
			return c.Send("Неверный формат команды. Используйте: /report <с ГГГГ-ММ-ДД> <по ГГГГ-ММ-ДД> [csv|xlsx]")
		}
		from, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
		if err != nil {
			return c.Send("Ошибка: Дата начала должна быть в формате ГГГГ-ММ-ДД.")
		}
		to, err := time.ParseInLocation("2006-01-02", args[1], time.Local)
		if err != nil {
			return c.Send("Ошибка: Дата окончания должна быть в формате ГГГГ-ММ-ДД.")
		}
		to = to.AddDate(0, 0, 1) // End date is inclusive

		format := "csv"
		if len(args) == 3 {
			format = strings.ToLower(args[2])
		}

		var buf *bytes.Buffer
		var fileName string
		switch format {
		case "csv":
			buf, fileName, err = exportService.ReportCSV(ctx, from, to)
		case "xlsx":
			buf, fileName, err = exportService.ReportXLSX(ctx, from, to)
		default:
			return c.Send("Неверный формат отчёта. Используйте 'csv' или 'xlsx'.")
		}
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			if errors.Is(err, app.ErrReportEmpty) {
				logWithError.Info("Report range is empty")
				return c.Send("За указанный период посещений не найдено.")
			}
			logWithError.Error("Failed to generate report")
			return c.Send(fmt.Sprintf("Произошла ошибка при формировании отчёта: %s", err.Error()))
		}

		handlerLogger.WithField("file", fileName).Info("Report generated")
		doc := &telebot.Document{
			File:     telebot.FromReader(buf),
			FileName: fileName,
		}
		return c.Send(doc)
	})
}

// commandBody strips the leading /command token from a message text and
// returns everything after it, newlines included.
func commandBody(text string) string {
	if !strings.HasPrefix(text, "/") {
		return text
	}
	if idx := strings.IndexAny(text, " \n"); idx >= 0 {
		return text[idx+1:]
	}
	return ""
}

// parseScheduleLines parses /set_schedule payload lines into session inputs.
// Precise validation lives in the schedule service; this only splits fields.
func parseScheduleLines(payload string) ([]app.SessionInput, error) {
	var inputs []app.SessionInput
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("строка %q: ожидается минимум 4 поля", line)
		}
		day, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("строка %q: день недели должен быть числом", line)
		}
		number, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("строка %q: номер занятия должен быть числом", line)
		}
		inputs = append(inputs, app.SessionInput{
			DayOfWeek: day,
			Number:    number,
			Start:     fields[2],
			End:       fields[3],
			Name:      strings.Join(fields[4:], " "),
		})
	}
	return inputs, nil
}

func formatSession(s *schedule.Session) string {
	name := s.Name
	if name == "" {
		name = fmt.Sprintf("занятие %d", s.Number)
	}
	return fmt.Sprintf("%s %s–%s — %s", weekdayNames[s.DayOfWeek], s.StartMinute, s.EndMinute, name)
}
