package model

// DefaultSettings is written on first run.
func DefaultSettings() Record {
	return Record{
		"features": map[string]interface{}{
			"patient_management":     true,
			"appointment_scheduling": true,
			"billing":                true,
			"insurance":              true,
			"pharmacy":               true,
			"prescriptions":          true,
			"reporting":              true,
			"whatsapp_notifications": true,
			"medical_history":        true,
		},
		"whatsapp": map[string]interface{}{
			"api_key":      "",
			"phone_number": "",
			"enabled":      false,
		},
		"system": map[string]interface{}{
			"hospital_name": "General Hospital",
			"timezone":      "UTC",
			"currency":      "USD",
		},
	}
}

// NotificationSettings is the delivery configuration derived from settings.
type NotificationSettings struct {
	Enabled bool
	APIKey  string
	Sender  string
}

// NotificationSettingsFrom reads the whatsapp and features sections.
func NotificationSettingsFrom(settings Record) NotificationSettings {
	wa := settings.Object("whatsapp")
	features := settings.Object("features")
	featureOn := true
	if features != nil {
		featureOn = features.Bool("whatsapp_notifications", true)
	}
	return NotificationSettings{
		Enabled: featureOn && wa != nil && wa.Bool("enabled", false),
		APIKey:  wa.String("api_key"),
		Sender:  wa.String("phone_number"),
	}
}

// Ready reports whether intents may be enqueued and delivered.
func (s NotificationSettings) Ready() bool {
	return s.Enabled && s.APIKey != ""
}
