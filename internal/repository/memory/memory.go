package memory

import (
	"context"
	"sync"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Backend keeps collections in process memory. Intended for tests and
// throwaway instances.
type Backend struct {
	mu       sync.RWMutex
	data     map[string][]byte
	writeErr error
	readErr  error
	writes   int
}

func New() *Backend {
	return &Backend{data: make(map[string][]byte)}
}

func (b *Backend) Read(_ context.Context, name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.readErr != nil {
		return nil, b.readErr
	}
	data, ok := b.data[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (b *Backend) Write(_ context.Context, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	b.data[name] = stored
	b.writes++
	return nil
}

func (b *Backend) Exists(_ context.Context, name string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.data[name]
	return ok, nil
}

func (b *Backend) Close() error { return nil }

// Set stores raw bytes, bypassing encoding. Used to plant corrupt data.
func (b *Backend) Set(name string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[name] = data
}

// Raw returns the stored bytes for name.
func (b *Backend) Raw(name string) []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data[name]
}

// FailWrites makes every subsequent Write return err. Pass nil to reset.
func (b *Backend) FailWrites(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeErr = err
}

// FailReads makes every subsequent Read return err. Pass nil to reset.
func (b *Backend) FailReads(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readErr = err
}

// Writes returns the number of successful writes.
func (b *Backend) Writes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}
