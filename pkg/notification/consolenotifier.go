package notification

import "log/slog"

// ConsoleNotifier logs notifications instead of delivering them. Used by the
// demo setup where no SMTP server is configured; passcodes show up in the
// process log, mirroring how an operator would read them during development.
type ConsoleNotifier struct{}

func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (c *ConsoleNotifier) Send(notification NotificationData) error {
	slog.Info("Console notification",
		"to", notification.To,
		"subject", notification.Subject,
		"body", notification.Body,
	)
	return nil
}
