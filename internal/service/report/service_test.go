package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
)

func TestDashboard(t *testing.T) {
	store := repository.NewStore(memory.New(), nil, nil)
	ctx := context.Background()
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.Local)
	today := now.Format("2006-01-02")

	require.NoError(t, store.Save(ctx, model.CollectionPatients, []model.Record{{"id": "p1"}, {"id": "p2"}}))
	require.NoError(t, store.Save(ctx, model.CollectionAppointments, []model.Record{
		{"id": "a1", "date": today},
		{"id": "a2", "date": "2020-01-01"},
		{"id": "a3", "date": today},
	}))
	require.NoError(t, store.Save(ctx, model.CollectionBilling, []model.Record{
		{"id": "b1", "amount": 100.5, "status": "pending"},
		{"id": "b2", "amount": 50, "status": "paid"},
		{"id": "b3", "amount": "n/a", "status": "pending"},
		{"id": "b4"},
	}))

	d := NewService(store, func() time.Time { return now }).Dashboard(ctx)
	assert.Equal(t, Dashboard{
		TotalPatients:     2,
		TotalAppointments: 3,
		TodayAppointments: 2,
		TotalRevenue:      150.5,
		PendingBills:      2,
	}, d)
}

func TestDashboard_Empty(t *testing.T) {
	store := repository.NewStore(memory.New(), nil, nil)
	assert.Equal(t, Dashboard{}, NewService(store, nil).Dashboard(context.Background()))
}
