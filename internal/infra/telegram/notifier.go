// internal/infra/telegram/notifier.go
package telegram

import (
	domainTelegram "member_attendance_bot/internal/domain/telegram"
)

// AdminNotifier implements app.Notifier by messaging the configured admin.
type AdminNotifier struct {
	client          domainTelegram.Client
	adminTelegramID int64
}

func NewAdminNotifier(client domainTelegram.Client, adminID int64) *AdminNotifier {
	return &AdminNotifier{client: client, adminTelegramID: adminID}
}

func (n *AdminNotifier) NotifyAdmin(text string) error {
	return n.client.SendMessage(n.adminTelegramID, text)
}
