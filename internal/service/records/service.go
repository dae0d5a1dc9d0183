package records

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// AfterCreateFunc runs once a record has been persisted. Its error is logged
// and never fails the create.
type AfterCreateFunc func(ctx context.Context, record model.Record) error

// serverOwned fields are assigned on create and never taken from a body.
var serverOwned = []string{model.FieldID, model.FieldCreatedAt, model.FieldCreatedBy}

var requiredFields = map[string]map[string]string{
	model.CollectionPatients:      {"full_name": "required"},
	model.CollectionAppointments:  {"patient_id": "required", "date": "required"},
	model.CollectionBilling:       {"patient_id": "required"},
	model.CollectionPrescriptions: {"patient_id": "required"},
}

// labels name a single record in not-found errors.
var labels = map[string]string{
	model.CollectionPatients:      "Patient",
	model.CollectionAppointments:  "Appointment",
	model.CollectionBilling:       "Bill",
	model.CollectionPharmacy:      "Item",
	model.CollectionPrescriptions: "Prescription",
	model.CollectionUsers:         "User",
}

func label(collection string) string {
	if l, ok := labels[collection]; ok {
		return l
	}
	return "Record"
}

type Service struct {
	store     repository.RecordStore
	validator validator.Validator
	hasher    security.PasswordHasher
	log       *logger.Logger
	now       func() time.Time
	newID     func() string

	afterCreate map[string][]AfterCreateFunc
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func NewService(store repository.RecordStore, v validator.Validator, hasher security.PasswordHasher, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		store:       store,
		validator:   v,
		hasher:      hasher,
		log:         log.With("component", "records"),
		now:         time.Now,
		newID:       uuid.NewString,
		afterCreate: make(map[string][]AfterCreateFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnCreate registers fn to run after every successful create in collection.
func (s *Service) OnCreate(collection string, fn AfterCreateFunc) {
	s.afterCreate[collection] = append(s.afterCreate[collection], fn)
}

func present(collection string, r model.Record) model.Record {
	if collection == model.CollectionUsers {
		return model.User{Record: r}.Public()
	}
	return r
}

// List returns the whole collection in stored order.
func (s *Service) List(ctx context.Context, collection string) []model.Record {
	records := s.store.Load(ctx, collection)
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		out = append(out, present(collection, r))
	}
	return out
}

func (s *Service) Get(ctx context.Context, collection, id string) (model.Record, error) {
	records := s.store.Load(ctx, collection)
	i := model.IndexOf(records, id)
	if id == "" || i < 0 {
		return nil, apperrors.NotFound(label(collection))
	}
	return present(collection, records[i]), nil
}

func defaults(collection string, caller model.User) model.Record {
	switch collection {
	case model.CollectionAppointments:
		return model.Record{model.FieldStatus: "scheduled"}
	case model.CollectionBilling:
		return model.Record{model.FieldStatus: "pending"}
	case model.CollectionPrescriptions:
		return model.Record{"doctor_id": caller.ID()}
	case model.CollectionUsers:
		return model.Record{model.FieldActive: true}
	default:
		return model.Record{}
	}
}

// Create appends a new record built from body. Body fields override the
// collection defaults; server-owned fields are always assigned here.
func (s *Service) Create(ctx context.Context, collection string, body model.Record, caller model.User) (model.Record, error) {
	if body == nil {
		body = model.Record{}
	}
	if rules, ok := requiredFields[collection]; ok {
		if err := s.validator.ValidateMap(body, rules); err != nil {
			return nil, apperrors.Validation(err.Error(), err)
		}
	}

	record := defaults(collection, caller)
	record.Merge(body.Without(serverOwned...))
	record[model.FieldID] = s.newID()
	record[model.FieldCreatedAt] = model.Timestamp(s.now())
	record[model.FieldCreatedBy] = caller.ID()

	var err error
	if collection == model.CollectionUsers {
		err = s.createUser(ctx, record)
	} else {
		err = s.store.Mutate(ctx, collection, func(rs []model.Record) ([]model.Record, error) {
			return append(rs, record), nil
		})
	}
	if err != nil {
		return nil, err
	}

	for _, fn := range s.afterCreate[collection] {
		if err := fn(ctx, record); err != nil {
			s.log.Error(err, "post-create action failed", "collection", collection, "id", record.ID())
		}
	}
	return present(collection, record), nil
}

func (s *Service) createUser(ctx context.Context, record model.Record) error {
	password, _ := record[model.FieldLegacyPassword].(string)
	req := model.CreateUserRequest{
		Username: record.String(model.FieldUsername),
		Password: password,
		Role:     record.String(model.FieldRole),
	}
	if err := s.validator.Validate(req); err != nil {
		return apperrors.Validation(err.Error(), err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return apperrors.Internal(err)
	}
	delete(record, model.FieldLegacyPassword)
	record[model.FieldPasswordHash] = hash

	return s.store.Mutate(ctx, model.CollectionUsers, func(rs []model.Record) ([]model.Record, error) {
		for _, u := range rs {
			if u.String(model.FieldUsername) == req.Username {
				return nil, apperrors.Validation(fmt.Sprintf("username %q already exists", req.Username), nil)
			}
		}
		return append(rs, record), nil
	})
}

// Update merges body into the record shallowly and refreshes updated_at.
func (s *Service) Update(ctx context.Context, collection, id string, body model.Record) (model.Record, error) {
	var updated model.Record
	err := s.store.Mutate(ctx, collection, func(rs []model.Record) ([]model.Record, error) {
		i := model.IndexOf(rs, id)
		if id == "" || i < 0 {
			return nil, apperrors.NotFound(label(collection))
		}
		rs[i].Merge(body.Without(serverOwned...))
		rs[i][model.FieldUpdatedAt] = model.Timestamp(s.now())
		updated = rs[i]
		return rs, nil
	})
	if err != nil {
		return nil, err
	}
	return present(collection, updated), nil
}

// Delete removes the record with id. Unknown ids are NotFound.
func (s *Service) Delete(ctx context.Context, collection, id string) error {
	return s.store.Mutate(ctx, collection, func(rs []model.Record) ([]model.Record, error) {
		i := model.IndexOf(rs, id)
		if id == "" || i < 0 {
			return nil, apperrors.NotFound(label(collection))
		}
		return append(rs[:i], rs[i+1:]...), nil
	})
}

// Label returns the display name of a single record of collection.
func Label(collection string) string {
	return label(collection)
}
