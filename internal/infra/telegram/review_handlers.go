// internal/infra/telegram/review_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"member_attendance_bot/internal/app"
	idb "member_attendance_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const reviewListLimit = 10

// btnMarkReviewed is the inline button under each flagged record. The record
// ID travels in the callback payload; dispatch goes by the unique, so the
// handler never has to pick its callbacks apart from anyone else's.
var btnMarkReviewed = telebot.Btn{Unique: "rev_ok"}

// RegisterReviewHandlers registers the /review command listing records that
// await verification and the inline callback clearing the flag on one record.
func RegisterReviewHandlers(
	ctx context.Context,
	b *telebot.Bot,
	reviewService *app.ReviewService,
	adminTelegramID int64,
	baseLogger *logrus.Entry,
) {
	b.Handle("/review", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/review",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Ошибка: У вас нет прав для выполнения этой команды.")
		}

		records, err := reviewService.ListFlagged(ctx, reviewListLimit)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list flagged records")
			return c.Send(fmt.Sprintf("Произошла ошибка при получении записей: %s", err.Error()))
		}
		if len(records) == 0 {
			return c.Send("Записей, требующих проверки, нет.")
		}

		handlerLogger.WithField("flagged_count", len(records)).Info("Flagged records listed")

		for _, rec := range records {
			kind := "вход в конце занятия"
			if rec.IsAutoLogout {
				kind = "автоматический выход"
			}
			text := fmt.Sprintf("Запись #%d: участник %d, %s, %s",
				rec.ID, rec.MemberID, rec.ScanTime.Format("2006-01-02 15:04"), kind)

			markup := &telebot.ReplyMarkup{}
			btnOK := markup.Data("Проверено", btnMarkReviewed.Unique, strconv.FormatInt(rec.ID, 10))
			markup.Inline(markup.Row(btnOK))

			if err := c.Send(text, &telebot.SendOptions{ReplyMarkup: markup}); err != nil {
				handlerLogger.WithError(err).WithField("record_id", rec.ID).Error("Failed to send review item")
			}
		}
		return nil
	})

	b.Handle(&btnMarkReviewed, func(c telebot.Context) error {
		if c.Sender().ID != adminTelegramID {
			return c.Respond(&telebot.CallbackResponse{Text: "Нет прав."})
		}

		// Data carries only the payload after the unique: the record ID.
		recordID, err := strconv.ParseInt(c.Callback().Data, 10, 64)
		if err != nil {
			c.Bot().OnError(fmt.Errorf("invalid record id in callback %q: %w", c.Callback().Data, err), c)
			return c.Respond(&telebot.CallbackResponse{Text: "Ошибка ID записи."})
		}

		if err := reviewService.MarkReviewed(ctx, recordID); err != nil {
			if errors.Is(err, idb.ErrRecordNotFound) {
				return c.Respond(&telebot.CallbackResponse{Text: "Запись не найдена."})
			}
			c.Bot().OnError(fmt.Errorf("failed to mark record %d reviewed: %w", recordID, err), c)
			return c.Respond(&telebot.CallbackResponse{Text: "Произошла ошибка."})
		}

		baseLogger.WithFields(logrus.Fields{
			"handler":   "review_callback",
			"record_id": recordID,
			"sender_id": c.Sender().ID,
		}).Info("Record marked as reviewed")

		// Drop the button so the record is not reviewed twice by accident.
		_ = c.Edit(fmt.Sprintf("Запись #%d проверена.", recordID))
		return c.Respond(&telebot.CallbackResponse{Text: "Отмечено как проверенное."})
	})
}
