package notification

import (
	"fmt"

	"github.com/jwalitptl/clinic-api/internal/model"
)

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Subject is used by channels that carry one.
func Subject(t model.NotificationType) string {
	switch t {
	case model.NotificationAppointmentScheduled:
		return "Hospital Appointment Reminder"
	case model.NotificationFollowupReminder:
		return "Follow-up Reminder"
	default:
		return "Hospital notification"
	}
}

// Format renders the message body for an intent.
func Format(t model.NotificationType, data, patient model.Record) string {
	name := orDefault(patient.String("full_name"), "Patient")
	switch t {
	case model.NotificationAppointmentScheduled:
		return fmt.Sprintf(`🏥 Hospital Appointment Reminder

Dear %s,

This is a reminder about your upcoming appointment:

📅 Date: %s
🕐 Time: %s
👨‍⚕️ Doctor: %s
📍 Department: %s

Please arrive 15 minutes early.

If you need to reschedule, please contact us.

Thank you!`,
			name,
			data.String("date"),
			data.String("time"),
			orDefault(data.String("doctor_name"), "TBD"),
			orDefault(data.String("department"), "General"),
		)
	case model.NotificationFollowupReminder:
		return fmt.Sprintf(`🏥 Follow-up Reminder

Dear %s,

This is a reminder to schedule your follow-up appointment.

Please contact us at your earliest convenience to book your next visit.

Thank you for choosing our hospital!`, name)
	default:
		return fmt.Sprintf("Hospital notification: %s", t)
	}
}
