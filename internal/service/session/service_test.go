package session

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

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func setup() (*Service, *repository.Store, *clock) {
	store := repository.NewStore(memory.New(), nil, nil)
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewService(store, WithClock(c.Now)), store, c
}

func TestCreateResolve(t *testing.T) {
	svc, store, _ := setup()
	ctx := context.Background()

	token, err := svc.Create(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, token, 43)

	uid, ok := svc.Resolve(ctx, token)
	assert.True(t, ok)
	assert.Equal(t, "u1", uid)

	sessions := store.Load(ctx, model.CollectionSessions)
	require.Len(t, sessions, 1)
	assert.Equal(t, "u1", sessions[0].String("user_id"))
}

func TestResolve_Expiry(t *testing.T) {
	svc, _, c := setup()
	ctx := context.Background()
	token, err := svc.Create(ctx, "u1")
	require.NoError(t, err)

	c.t = c.t.Add(DefaultTTL - time.Second)
	_, ok := svc.Resolve(ctx, token)
	assert.True(t, ok)

	c.t = c.t.Add(time.Second)
	_, ok = svc.Resolve(ctx, token)
	assert.False(t, ok, "valid only strictly before created_at + ttl")
}

func TestResolve_Unknown(t *testing.T) {
	svc, _, _ := setup()
	_, ok := svc.Resolve(context.Background(), "")
	assert.False(t, ok)
	_, ok = svc.Resolve(context.Background(), "nope")
	assert.False(t, ok)
}

func TestResolve_MalformedSession(t *testing.T) {
	svc, store, _ := setup()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, model.CollectionSessions, []model.Record{
		{"token": "t", "user_id": "u1", "created_at": "not a time"},
	}))
	_, ok := svc.Resolve(ctx, "t")
	assert.False(t, ok)
}

func TestDestroy_Idempotent(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()
	token, err := svc.Create(ctx, "u1")
	require.NoError(t, err)
	other, err := svc.Create(ctx, "u2")
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(ctx, token))
	require.NoError(t, svc.Destroy(ctx, token))
	require.NoError(t, svc.Destroy(ctx, ""))

	_, ok := svc.Resolve(ctx, token)
	assert.False(t, ok)
	_, ok = svc.Resolve(ctx, other)
	assert.True(t, ok)
}

func TestPurge(t *testing.T) {
	svc, store, c := setup()
	ctx := context.Background()
	_, err := svc.Create(ctx, "old")
	require.NoError(t, err)

	c.t = c.t.Add(25 * time.Hour)
	fresh, err := svc.Create(ctx, "new")
	require.NoError(t, err)

	n, err := svc.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, store.Load(ctx, model.CollectionSessions), 1)

	_, ok := svc.Resolve(ctx, fresh)
	assert.True(t, ok)
}
