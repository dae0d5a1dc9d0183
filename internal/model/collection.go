package model

// Collection names
const (
	CollectionUsers         = "users"
	CollectionPatients      = "patients"
	CollectionAppointments  = "appointments"
	CollectionBilling       = "billing"
	CollectionPharmacy      = "pharmacy"
	CollectionPrescriptions = "prescriptions"
	CollectionSettings      = "settings"
	CollectionSessions      = "sessions"
	CollectionNotifications = "notifications"
)

// RecordCollections are exposed through the generic CRUD surface.
var RecordCollections = []string{
	CollectionPatients,
	CollectionAppointments,
	CollectionBilling,
	CollectionPharmacy,
	CollectionPrescriptions,
	CollectionUsers,
}

// ListCollections hold ordered sequences of records; settings holds one object.
var ListCollections = []string{
	CollectionUsers,
	CollectionPatients,
	CollectionAppointments,
	CollectionBilling,
	CollectionPharmacy,
	CollectionPrescriptions,
	CollectionSessions,
	CollectionNotifications,
}
