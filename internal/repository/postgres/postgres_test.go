package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

func TestBackend_Postgres(t *testing.T) {
	dsn := os.Getenv("HMS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("HMS_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	b, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer b.Close()

	name := "test_collection"
	_, err = b.db.ExecContext(ctx, `DELETE FROM collections WHERE name = $1`, name)
	require.NoError(t, err)

	_, err = b.Read(ctx, name)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, b.Write(ctx, name, []byte(`[{"id":"1"}]`)))
	require.NoError(t, b.Write(ctx, name, []byte(`[{"id":"2"}]`)))

	data, err := b.Read(ctx, name)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"2"}]`, string(data))

	ok, err := b.Exists(ctx, name)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBackend_PostgresLock(t *testing.T) {
	dsn := os.Getenv("HMS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("HMS_TEST_POSTGRES_DSN not set")
	}
	a, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	defer b.Close()

	unlock, err := a.Lock(context.Background(), "test_lock")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = b.Lock(ctx, "test_lock")
	assert.Error(t, err)

	unlock()
	unlock2, err := b.Lock(context.Background(), "test_lock")
	require.NoError(t, err)
	unlock2()
}
