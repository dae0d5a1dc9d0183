package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

// SeedOptions controls first-run initialization.
type SeedOptions struct {
	AdminUsername string
	AdminPassword string
	Hasher        security.PasswordHasher
	Now           func() time.Time
}

// Seed writes default settings, a default administrator and empty
// collections for anything that does not exist yet. Existing data is never
// touched.
func Seed(ctx context.Context, store RecordStore, opts SeedOptions, log *logger.Logger) error {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AdminUsername == "" {
		opts.AdminUsername = "admin"
	}
	if log == nil {
		log = logger.Nop()
	}

	exists, err := store.Exists(ctx, model.CollectionSettings)
	if err != nil {
		return fmt.Errorf("check settings: %w", err)
	}
	if !exists {
		if err := store.SaveObject(ctx, model.CollectionSettings, model.DefaultSettings()); err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
		log.Info("default settings created")
	}

	exists, err = store.Exists(ctx, model.CollectionUsers)
	if err != nil {
		return fmt.Errorf("check users: %w", err)
	}
	if !exists {
		hash, err := opts.Hasher.Hash(opts.AdminPassword)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		admin := model.Record{
			model.FieldID:           uuid.NewString(),
			model.FieldUsername:     opts.AdminUsername,
			model.FieldPasswordHash: hash,
			model.FieldRole:         string(model.RoleAdmin),
			"email":                 "admin@hospital.com",
			"full_name":             "System Administrator",
			model.FieldActive:       true,
			model.FieldCreatedAt:    model.Timestamp(opts.Now()),
		}
		if err := store.Save(ctx, model.CollectionUsers, []model.Record{admin}); err != nil {
			return fmt.Errorf("seed admin user: %w", err)
		}
		log.Warn("SECURITY: default administrator account created; change its password immediately",
			"username", opts.AdminUsername)
	}

	for _, c := range model.ListCollections {
		if c == model.CollectionUsers {
			continue
		}
		exists, err := store.Exists(ctx, c)
		if err != nil {
			return fmt.Errorf("check %s: %w", c, err)
		}
		if exists {
			continue
		}
		if err := store.Save(ctx, c, []model.Record{}); err != nil {
			return fmt.Errorf("seed %s: %w", c, err)
		}
	}
	return nil
}
