package telegram

// Client sends plain-text messages to a chat. It decouples the application
// services from the bot library; the daemon runs fine without a bot configured,
// so callers hold this interface rather than a concrete adapter.
type Client interface {
	SendMessage(recipientChatID int64, text string) error
}
