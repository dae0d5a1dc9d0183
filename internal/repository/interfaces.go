package repository

import (
	"context"
	"errors"

	"github.com/jwalitptl/clinic-api/internal/model"
)

var (
	// ErrNotFound is returned by a Backend when a collection has never been written.
	ErrNotFound = errors.New("collection not found")

	// ErrSkipWrite may be returned by a mutate function to end the mutation
	// without writing. Mutate then returns nil.
	ErrSkipWrite = errors.New("skip write")
)

type (
	// Backend persists the encoded bytes of whole collections. Write must
	// replace the previous contents atomically: a failed write leaves the
	// prior bytes readable.
	Backend interface {
		Read(ctx context.Context, name string) ([]byte, error)
		Write(ctx context.Context, name string, data []byte) error
		Exists(ctx context.Context, name string) (bool, error)
		Close() error
	}

	// Locker is implemented by backends that several processes may share.
	// Lock blocks until it holds an exclusive lock on name or ctx is done;
	// the lock is held until unlock is called.
	Locker interface {
		Lock(ctx context.Context, name string) (unlock func(), err error)
	}

	// RecordStore is the collection-level API used by the services.
	RecordStore interface {
		Load(ctx context.Context, collection string) []model.Record
		Save(ctx context.Context, collection string, records []model.Record) error
		Mutate(ctx context.Context, collection string, fn func([]model.Record) ([]model.Record, error)) error
		LoadObject(ctx context.Context, collection string) model.Record
		SaveObject(ctx context.Context, collection string, obj model.Record) error
		MutateObject(ctx context.Context, collection string, fn func(model.Record) (model.Record, error)) error
		Exists(ctx context.Context, collection string) (bool, error)
	}
)
