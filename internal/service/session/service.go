package session

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

const DefaultTTL = 24 * time.Hour

type Service struct {
	store repository.RecordStore
	ttl   time.Duration
	now   func() time.Time
	token func() (string, error)
}

type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewService(store repository.RecordStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		ttl:   DefaultTTL,
		now:   time.Now,
		token: security.NewToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create issues a new token for userID.
func (s *Service) Create(ctx context.Context, userID string) (string, error) {
	token, err := s.token()
	if err != nil {
		return "", apperrors.Internal(err)
	}
	sess := model.Session{Token: token, UserID: userID, CreatedAt: s.now()}

	err = s.store.Mutate(ctx, model.CollectionSessions, func(rs []model.Record) ([]model.Record, error) {
		return append(rs, sess.Record()), nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the user bound to token. Expired sessions are not removed.
func (s *Service) Resolve(ctx context.Context, token string) (string, bool) {
	if token == "" {
		return "", false
	}
	now := s.now()
	for _, r := range s.store.Load(ctx, model.CollectionSessions) {
		if r.String("token") != token {
			continue
		}
		sess, ok := model.SessionFromRecord(r)
		if !ok || !sess.Valid(now, s.ttl) {
			return "", false
		}
		return sess.UserID, true
	}
	return "", false
}

// Destroy removes every session carrying token. Unknown tokens are not an error.
func (s *Service) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.Mutate(ctx, model.CollectionSessions, func(rs []model.Record) ([]model.Record, error) {
		kept := rs[:0]
		for _, r := range rs {
			if r.String("token") != token {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(rs) {
			return nil, repository.ErrSkipWrite
		}
		return kept, nil
	})
}

// Purge drops expired and malformed sessions and returns how many were removed.
func (s *Service) Purge(ctx context.Context) (int, error) {
	removed := 0
	now := s.now()
	err := s.store.Mutate(ctx, model.CollectionSessions, func(rs []model.Record) ([]model.Record, error) {
		kept := make([]model.Record, 0, len(rs))
		for _, r := range rs {
			if sess, ok := model.SessionFromRecord(r); ok && sess.Valid(now, s.ttl) {
				kept = append(kept, r)
			}
		}
		removed = len(rs) - len(kept)
		if removed == 0 {
			return nil, repository.ErrSkipWrite
		}
		return kept, nil
	})
	return removed, err
}
