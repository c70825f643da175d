package notification

// NotificationData describes a single outbound message
type NotificationData struct {
	To      string // Recipient email address
	Subject string
	Body    string
}

// Notifier delivers one-time passcodes and other notices out of band.
// The auth core never returns a passcode to the caller; it hands it to a
// Notifier and returns a generic acknowledgment.
type Notifier interface {
	Send(notification NotificationData) error
}
