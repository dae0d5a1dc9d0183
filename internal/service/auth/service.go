package auth

import (
	"context"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/session"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

var (
	ErrInvalidCredentials = apperrors.Unauthenticated("Invalid credentials")
	ErrAccountDisabled    = apperrors.Forbidden("Account disabled")
)

type Service struct {
	store    repository.RecordStore
	sessions *session.Service
	hasher   security.PasswordHasher
	log      *logger.Logger
}

func NewService(store repository.RecordStore, sessions *session.Service, hasher security.PasswordHasher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:    store,
		sessions: sessions,
		hasher:   hasher,
		log:      log.With("component", "auth"),
	}
}

func (s *Service) findByUsername(ctx context.Context, username string) (model.User, bool) {
	for _, r := range s.store.Load(ctx, model.CollectionUsers) {
		if r.String(model.FieldUsername) == username {
			return model.User{Record: r}, true
		}
	}
	return model.User{}, false
}

// Login verifies the credential and issues a session. A disabled account is
// rejected only after the password has been checked.
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	user, ok := s.findByUsername(ctx, req.Username)
	if !ok || user.PasswordHash() == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash(), req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, ErrAccountDisabled
	}

	if s.hasher.NeedsRehash(user.PasswordHash()) {
		s.upgradeHash(ctx, user, req.Password)
	}

	token, err := s.sessions.Create(ctx, user.ID())
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, User: user.Public()}, nil
}

// upgradeHash replaces a legacy or weaker hash. Failure is logged and the
// login proceeds.
func (s *Service) upgradeHash(ctx context.Context, user model.User, password string) {
	if security.IsLegacyHash(user.PasswordHash()) {
		s.log.Warn("legacy unsalted password hash accepted; upgrading", "user_id", user.ID())
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Error(err, "failed to rehash password", "user_id", user.ID())
		return
	}
	err = s.store.Mutate(ctx, model.CollectionUsers, func(rs []model.Record) ([]model.Record, error) {
		i := model.IndexOf(rs, user.ID())
		if i < 0 {
			return nil, repository.ErrSkipWrite
		}
		delete(rs[i], model.FieldLegacyPassword)
		rs[i][model.FieldPasswordHash] = hash
		return rs, nil
	})
	if err != nil {
		s.log.Error(err, "failed to store upgraded password hash", "user_id", user.ID())
	}
}

// Authenticate resolves a bearer token to the current state of its user.
// Unknown, expired and deactivated identities are all Unauthenticated.
func (s *Service) Authenticate(ctx context.Context, token string) (model.User, error) {
	userID, ok := s.sessions.Resolve(ctx, token)
	if !ok {
		return model.User{}, apperrors.Unauthenticated("")
	}
	for _, r := range s.store.Load(ctx, model.CollectionUsers) {
		if r.ID() == userID {
			u := model.User{Record: r}
			if !u.Active() {
				return model.User{}, apperrors.Unauthenticated("")
			}
			return u, nil
		}
	}
	return model.User{}, apperrors.Unauthenticated("")
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}
