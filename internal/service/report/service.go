package report

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Dashboard holds the aggregate counts shown on the home screen
type Dashboard struct {
	TotalPatients     int     `json:"total_patients"`
	TotalAppointments int     `json:"total_appointments"`
	TodayAppointments int     `json:"today_appointments"`
	TotalRevenue      float64 `json:"total_revenue"`
	PendingBills      int     `json:"pending_bills"`
}

type Service struct {
	store repository.RecordStore
	now   func() time.Time
}

func NewService(store repository.RecordStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// Dashboard compares appointment dates against the server-local day.
// Billing amounts that are not numbers are ignored.
func (s *Service) Dashboard(ctx context.Context) Dashboard {
	patients := s.store.Load(ctx, model.CollectionPatients)
	appointments := s.store.Load(ctx, model.CollectionAppointments)
	billing := s.store.Load(ctx, model.CollectionBilling)

	today := s.now().Local().Format("2006-01-02")
	d := Dashboard{
		TotalPatients:     len(patients),
		TotalAppointments: len(appointments),
	}
	for _, a := range appointments {
		if a.String("date") == today {
			d.TodayAppointments++
		}
	}
	for _, b := range billing {
		if amount, ok := b.Number("amount"); ok {
			d.TotalRevenue += amount
		}
		if b.String(model.FieldStatus) == "pending" {
			d.PendingBills++
		}
	}
	return d
}
