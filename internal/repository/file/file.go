package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

const (
	ext     = ".json"
	lockExt = ".lock"

	lockRetry = 10 * time.Millisecond
)

// Backend stores each collection as <dir>/<name>.json.
type Backend struct {
	dir string
}

// New creates dir if needed.
func New(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid collection name %q", name)
	}
	return filepath.Join(b.dir, name+ext), nil
}

func (b *Backend) Read(_ context.Context, name string) ([]byte, error) {
	p, err := b.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, repository.ErrNotFound
	}
	return data, err
}

// Write replaces the file by renaming a synced temp file over it.
func (b *Backend) Write(_ context.Context, name string, data []byte) error {
	p, err := b.path(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(b.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (b *Backend) Exists(_ context.Context, name string) (bool, error) {
	p, err := b.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Lock takes an advisory lock on <dir>/.<name>.lock so that every process
// sharing dir serializes its read-modify-write cycles.
func (b *Backend) Lock(ctx context.Context, name string) (func(), error) {
	if _, err := b.path(name); err != nil {
		return nil, err
	}
	fl := flock.New(filepath.Join(b.dir, "."+name+lockExt))
	locked, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", name, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock %s: %w", name, ctx.Err())
	}
	return func() { _ = fl.Unlock() }, nil
}

func (b *Backend) Close() error { return nil }
