package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

func setup(t *testing.T) (*Backend, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := New(client, "test:")
	t.Cleanup(func() { b.Close() })
	return b, mr
}

func TestBackend_ReadWrite(t *testing.T) {
	b, mr := setup(t)
	ctx := context.Background()

	_, err := b.Read(ctx, "patients")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, b.Write(ctx, "patients", []byte(`[]`)))
	got, err := mr.Get("test:patients")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)

	ok, err := b.Exists(ctx, "patients")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBackend_WithStore(t *testing.T) {
	b, _ := setup(t)
	store := repository.NewStore(b, nil, nil)
	ctx := context.Background()

	require.NoError(t, store.Mutate(ctx, model.CollectionPatients, func(rs []model.Record) ([]model.Record, error) {
		return append(rs, model.Record{"id": "p1", "full_name": "Jane"}), nil
	}))
	out := store.Load(ctx, model.CollectionPatients)
	require.Len(t, out, 1)
	assert.Equal(t, "Jane", out[0].String("full_name"))
}

func TestOpen_BadURL(t *testing.T) {
	_, err := Open(context.Background(), "://nope", "")
	assert.Error(t, err)
}

func TestBackend_LockSerializesStores(t *testing.T) {
	mr := miniredis.RunT(t)
	newStore := func() *repository.Store {
		b := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
		t.Cleanup(func() { b.Close() })
		return repository.NewStore(b, nil, nil)
	}
	api, worker := newStore(), newStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		store := api
		if i%2 == 1 {
			store = worker
		}
		wg.Add(1)
		go func(i int, store *repository.Store) {
			defer wg.Done()
			err := store.Mutate(ctx, model.CollectionSessions, func(rs []model.Record) ([]model.Record, error) {
				return append(rs, model.Record{model.FieldID: fmt.Sprint(i)}), nil
			})
			assert.NoError(t, err)
		}(i, store)
	}
	wg.Wait()

	assert.Len(t, api.Load(ctx, model.CollectionSessions), 40)
	assert.False(t, mr.Exists("test:sessions:lock"), "lock released")
}

func TestBackend_LockHonoursContext(t *testing.T) {
	b, mr := setup(t)

	unlock, err := b.Lock(context.Background(), "settings")
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:settings:lock"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = b.Lock(ctx, "settings")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists("test:settings:lock"))
}
