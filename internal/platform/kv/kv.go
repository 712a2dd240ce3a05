// Package kv is the durable key/value substrate behind the shift store. Each
// backend persists opaque byte values under string keys; Batch applies a set of
// writes and deletes atomically.
package kv

import (
	"context"
	"errors"
)

const (
	BackendBadger   = "badger"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

var (
	ErrNotFound       = errors.New("kv: key not found")
	ErrUnknownBackend = errors.New("kv: unknown backend")
	ErrClosed         = errors.New("kv: store closed")
)

type Store interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete of an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Batch(ctx context.Context, mutations []Mutation) error
	Ping(ctx context.Context) error
	Close() error
}

type Mutation struct {
	Key    string
	Value  []byte
	Delete bool
}

func Put(key string, value []byte) Mutation {
	return Mutation{Key: key, Value: value}
}

func Remove(key string) Mutation {
	return Mutation{Key: key, Delete: true}
}
