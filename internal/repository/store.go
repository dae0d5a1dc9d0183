package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Store encodes collections as JSON on top of a Backend and serializes
// read-modify-write cycles per collection.
type Store struct {
	backend Backend
	log     *logger.Logger
	metrics *metrics.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore wraps backend. m may be nil.
func NewStore(backend Backend, log *logger.Logger, m *metrics.Metrics) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		backend: backend,
		log:     log.With("component", "store"),
		metrics: m,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *Store) lock(collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	return l
}

// acquire serializes read-modify-write on collection within this process
// and, when the backend is a Locker, across processes sharing it.
func (s *Store) acquire(ctx context.Context, collection string) (func(), error) {
	l := s.lock(collection)
	l.Lock()
	locker, ok := s.backend.(Locker)
	if !ok {
		return l.Unlock, nil
	}
	unlock, err := locker.Lock(ctx, collection)
	if err != nil {
		l.Unlock()
		s.log.Error(err, "failed to lock collection", "collection", collection)
		return nil, apperrors.Storage(err)
	}
	return func() {
		unlock()
		l.Unlock()
	}, nil
}

func (s *Store) observe(op, collection string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.StoreOperations.WithLabelValues(op, collection, status).Inc()
	s.metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// read returns the raw collection. found is false when it was never written.
func (s *Store) read(ctx context.Context, collection string) (data []byte, found bool, err error) {
	data, err = s.backend.Read(ctx, collection)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func decodeList(data []byte) ([]model.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.Record{}, nil
	}
	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if records == nil {
		records = []model.Record{}
	}
	return records, nil
}

func decodeObject(data []byte) (model.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return model.Record{}, nil
	}
	var obj model.Record
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	if obj == nil {
		obj = model.Record{}
	}
	return obj, nil
}

func (s *Store) write(ctx context.Context, collection string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.Storage(fmt.Errorf("encode %s: %w", collection, err))
	}
	if err := s.backend.Write(ctx, collection, data); err != nil {
		s.log.Error(err, "failed to write collection", "collection", collection)
		return apperrors.Storage(err)
	}
	return nil
}

// Load returns every record of collection in stored order. Missing or
// unreadable collections yield an empty slice.
func (s *Store) Load(ctx context.Context, collection string) []model.Record {
	start := time.Now()
	records, err := s.loadList(ctx, collection)
	s.observe("load", collection, start, err)
	if err != nil {
		s.log.Warn("collection unreadable, treating as empty", "collection", collection, "error", err.Error())
		return []model.Record{}
	}
	return records
}

func (s *Store) loadList(ctx context.Context, collection string) ([]model.Record, error) {
	data, found, err := s.read(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !found {
		return []model.Record{}, nil
	}
	return decodeList(data)
}

// Save replaces the whole collection.
func (s *Store) Save(ctx context.Context, collection string, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	start := time.Now()
	err := s.write(ctx, collection, records)
	s.observe("save", collection, start, err)
	return err
}

// Mutate runs fn on the current contents of collection and saves the result,
// holding the collection lock throughout. A corrupt collection fails the
// mutation instead of being overwritten.
func (s *Store) Mutate(ctx context.Context, collection string, fn func([]model.Record) ([]model.Record, error)) error {
	release, err := s.acquire(ctx, collection)
	if err != nil {
		return err
	}
	defer release()

	start := time.Now()
	records, err := s.loadList(ctx, collection)
	if err != nil {
		s.observe("mutate", collection, start, err)
		s.log.Error(err, "refusing to mutate unreadable collection", "collection", collection)
		return apperrors.Storage(err)
	}

	next, err := fn(records)
	if errors.Is(err, ErrSkipWrite) {
		s.observe("mutate", collection, start, nil)
		return nil
	}
	if err != nil {
		return err
	}
	if next == nil {
		next = []model.Record{}
	}
	err = s.write(ctx, collection, next)
	s.observe("mutate", collection, start, err)
	return err
}

// LoadObject returns a single-object collection, or an empty object.
func (s *Store) LoadObject(ctx context.Context, collection string) model.Record {
	start := time.Now()
	obj, err := s.loadObject(ctx, collection)
	s.observe("load", collection, start, err)
	if err != nil {
		s.log.Warn("object unreadable, treating as empty", "collection", collection, "error", err.Error())
		return model.Record{}
	}
	return obj
}

func (s *Store) loadObject(ctx context.Context, collection string) (model.Record, error) {
	data, found, err := s.read(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !found {
		return model.Record{}, nil
	}
	return decodeObject(data)
}

func (s *Store) SaveObject(ctx context.Context, collection string, obj model.Record) error {
	if obj == nil {
		obj = model.Record{}
	}
	start := time.Now()
	err := s.write(ctx, collection, obj)
	s.observe("save", collection, start, err)
	return err
}

// MutateObject is Mutate for single-object collections.
func (s *Store) MutateObject(ctx context.Context, collection string, fn func(model.Record) (model.Record, error)) error {
	release, err := s.acquire(ctx, collection)
	if err != nil {
		return err
	}
	defer release()

	start := time.Now()
	obj, err := s.loadObject(ctx, collection)
	if err != nil {
		s.observe("mutate", collection, start, err)
		s.log.Error(err, "refusing to mutate unreadable object", "collection", collection)
		return apperrors.Storage(err)
	}

	next, err := fn(obj)
	if errors.Is(err, ErrSkipWrite) {
		s.observe("mutate", collection, start, nil)
		return nil
	}
	if err != nil {
		return err
	}
	err = s.write(ctx, collection, next)
	s.observe("mutate", collection, start, err)
	return err
}

func (s *Store) Exists(ctx context.Context, collection string) (bool, error) {
	return s.backend.Exists(ctx, collection)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
