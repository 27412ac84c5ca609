package document

import (
	"context"
	"sync"
)

// Blob stores the serialised snapshot. Update must apply fn atomically with
// respect to other writers and must not persist anything when fn fails.
type Blob interface {
	Read(ctx context.Context) ([]byte, error)
	Update(ctx context.Context, fn func(current []byte) ([]byte, error)) error
}

// MemoryBlob keeps the snapshot in process memory.
type MemoryBlob struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryBlob() *MemoryBlob {
	return &MemoryBlob{}
}

func (b *MemoryBlob) Read(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return clone(b.data), nil
}

func (b *MemoryBlob) Update(ctx context.Context, fn func(current []byte) ([]byte, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, err := fn(clone(b.data))
	if err != nil {
		return err
	}
	b.data = clone(next)
	return nil
}

func clone(data []byte) []byte {
	if data == nil {
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
