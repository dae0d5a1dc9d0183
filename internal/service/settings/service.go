package settings

import (
	"context"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type Service struct {
	store repository.RecordStore
}

func NewService(store repository.RecordStore) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context) model.Record {
	return s.store.LoadObject(ctx, model.CollectionSettings)
}

// Merge copies the top-level keys of patch over the stored settings.
// Nested sections are replaced, not merged.
func (s *Service) Merge(ctx context.Context, patch model.Record) (model.Record, error) {
	var merged model.Record
	err := s.store.MutateObject(ctx, model.CollectionSettings, func(current model.Record) (model.Record, error) {
		current.Merge(patch)
		merged = current
		return current, nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Notifications derives the delivery gate from the stored settings.
func (s *Service) Notifications(ctx context.Context) model.NotificationSettings {
	return model.NotificationSettingsFrom(s.Get(ctx))
}
