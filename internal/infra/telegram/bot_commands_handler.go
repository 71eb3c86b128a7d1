// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"fmt"
	"strings"

	"member_attendance_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterBotCommands wires /start and /help. Members never talk to the bot
// directly (they scan at the kiosk), so only the administrator gets a command
// overview; everyone else gets a short explanation.
func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	cfg *config.AppConfig, // For AdminTelegramID
	baseLogger *logrus.Entry,
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == cfg.AdminTelegramID {
			logCtx.Info("User identified as Admin")
			return c.Send(fmt.Sprintf("Привет, Администратор %s! Я слежу за посещениями и автоматическим выходом. Используйте /help для списка команд.", c.Sender().FirstName))
		}

		logCtx.Info("User is unknown")
		return c.Send("Привет! Я бот учёта посещений. Отметиться можно только на киоске по штрихкоду; этот чат предназначен для администратора.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if senderID != cfg.AdminTelegramID {
			logCtx.Info("User is not admin, sending restricted help.")
			return c.Send("Доступных команд для вас нет. Отметиться о посещении можно на киоске по штрихкоду.")
		}

		logCtx.Info("User identified as Admin, sending admin help.")
		var helpText strings.Builder
		helpText.WriteString("Доступные команды Администратора:\n\n")
		helpText.WriteString("`/add_member <Штрихкод> <Имя> [Фамилия]`\n - Добавить нового участника.\n\n")
		helpText.WriteString("`/remove_member <Штрихкод>`\n - Деактивировать участника.\n\n")
		helpText.WriteString("`/list_members [active|all]`\n - Показать список участников. По умолчанию активные.\n\n")
		helpText.WriteString("`/schedule [all]`\n - Показать расписание занятий.\n\n")
		helpText.WriteString("`/set_schedule`\n - Заменить расписание. Каждая строка после команды: `<день 0-6> <номер> <начало HH:MM> <конец HH:MM> [название]`.\n\n")
		helpText.WriteString("`/clear_schedule`\n - Очистить расписание и снять все триггеры автовыхода.\n\n")
		helpText.WriteString("`/remove_session <день 0-6> <номер>`\n - Удалить одно занятие из расписания.\n\n")
		helpText.WriteString("`/status`\n - Текущее и следующее занятие.\n\n")
		helpText.WriteString("`/force_logout`\n - Принудительно закрыть все открытые посещения.\n\n")
		helpText.WriteString("`/review`\n - Показать записи, требующие проверки.\n\n")
		helpText.WriteString("`/report <с ГГГГ-ММ-ДД> <по ГГГГ-ММ-ДД> [csv|xlsx]`\n - Отчёт о посещениях за период.\n\n")
		helpText.WriteString("`/help`\n - Показать это справочное сообщение.")
		return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}
