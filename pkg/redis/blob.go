package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrContended is returned when a WATCH-guarded update keeps losing the race.
var ErrContended = errors.New("redis key contended")

// Blob is a single key updated with optimistic WATCH/MULTI transactions.
type Blob struct {
	client  *Client
	key     string
	retries int
}

// Blob returns a handle for the document stored under name. retries bounds
// how many times a conflicting update is replayed.
func (c *Client) Blob(name string, retries int) *Blob {
	if retries < 0 {
		retries = 0
	}
	return &Blob{client: c, key: c.DocumentKey(name), retries: retries}
}

// Key reports the full redis key.
func (b *Blob) Key() string {
	return b.key
}

// Read returns the stored bytes or nil when the key does not exist.
func (b *Blob) Read(ctx context.Context) ([]byte, error) {
	if b.client == nil || b.client.store == nil {
		return nil, errors.New("redis client not initialized")
	}
	data, err := b.client.store.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.key, err)
	}
	return data, nil
}

// Update reads the current value, applies fn and writes the result inside
// MULTI. When another writer touches the key in between, the whole cycle is
// replayed. An error from fn aborts without writing.
func (b *Blob) Update(ctx context.Context, fn func(current []byte) ([]byte, error)) error {
	if b.client == nil || b.client.watch == nil {
		return errors.New("redis client not initialized")
	}

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, b.key).Bytes()
		if errors.Is(err, redis.Nil) {
			current = nil
		} else if err != nil {
			return fmt.Errorf("read %s: %w", b.key, err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, b.key, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt <= b.retries; attempt++ {
		err := b.client.watch(ctx, txf, b.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: %w", b.key, ErrContended)
}
