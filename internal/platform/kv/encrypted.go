package kv

import (
	"context"
	"fmt"

	"wagevo/internal/platform/crypto"
)

// Encrypted seals every value with the configured at-rest key before it
// reaches the wrapped backend. Values are bound to their key, so bytes copied
// under another key do not open.
type Encrypted struct {
	inner  Store
	crypto *crypto.Service
}

func NewEncrypted(inner Store, svc *crypto.Service) *Encrypted {
	return &Encrypted{inner: inner, crypto: svc}
}

func (e *Encrypted) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := e.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := e.crypto.Open(sealed, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", key, err)
	}
	return plain, nil
}

func (e *Encrypted) Set(ctx context.Context, key string, value []byte) error {
	return e.Batch(ctx, []Mutation{Put(key, value)})
}

func (e *Encrypted) Delete(ctx context.Context, key string) error {
	return e.inner.Delete(ctx, key)
}

func (e *Encrypted) Batch(ctx context.Context, mutations []Mutation) error {
	sealed := make([]Mutation, 0, len(mutations))
	for _, mut := range mutations {
		if mut.Delete {
			sealed = append(sealed, mut)
			continue
		}
		value, err := e.crypto.Seal(mut.Value, []byte(mut.Key))
		if err != nil {
			return fmt.Errorf("encrypt %s: %w", mut.Key, err)
		}
		sealed = append(sealed, Put(mut.Key, value))
	}
	return e.inner.Batch(ctx, sealed)
}

func (e *Encrypted) Ping(ctx context.Context) error {
	return e.inner.Ping(ctx)
}

func (e *Encrypted) Close() error {
	return e.inner.Close()
}
