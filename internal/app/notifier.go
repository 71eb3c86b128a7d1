// internal/app/notifier.go
package app

// Notifier delivers operational notices to the administrator. The engine
// does not care about the transport; the telegram infra package provides the
// real implementation and NopNotifier keeps headless deployments working.
type Notifier interface {
	NotifyAdmin(text string) error
}

// NopNotifier discards every notification. Used when no bot is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyAdmin(string) error { return nil }
