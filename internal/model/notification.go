package model

// NotificationStatus is the delivery state of an intent
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s NotificationStatus) Terminal() bool {
	return s == NotificationStatusSent || s == NotificationStatusFailed
}

// NotificationType selects the message template
type NotificationType string

const (
	NotificationAppointmentScheduled NotificationType = "appointment_scheduled"
	NotificationFollowupReminder     NotificationType = "followup_reminder"
)

// Notification intent fields
const (
	FieldNotificationType = "type"
	FieldData             = "data"
	FieldStatus           = "status"
	FieldError            = "error"
	FieldSentAt           = "sent_at"
	FieldAttempts         = "attempts"
)

// Intent is a typed view over a notifications record.
type Intent struct {
	Record
}

func (n Intent) Type() NotificationType     { return NotificationType(n.String(FieldNotificationType)) }
func (n Intent) Status() NotificationStatus { return NotificationStatus(n.String(FieldStatus)) }
func (n Intent) Data() Record               { return n.Object(FieldData) }
