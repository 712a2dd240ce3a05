package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Badger is the default on-device backend. Writes are synced before they
// return so an active-shift marker survives a crash.
type Badger struct {
	db *badger.DB
}

func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).
		WithSyncWrites(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

// OpenBadgerInMemory is used by tests that want Badger semantics without a
// directory.
func OpenBadgerInMemory() (*Badger, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Badger) Set(ctx context.Context, key string, value []byte) error {
	return b.Batch(ctx, []Mutation{Put(key, value)})
}

func (b *Badger) Delete(ctx context.Context, key string) error {
	return b.Batch(ctx, []Mutation{Remove(key)})
}

func (b *Badger) Batch(ctx context.Context, mutations []Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		for _, mut := range mutations {
			if mut.Delete {
				if err := txn.Delete([]byte(mut.Key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("delete %s: %w", mut.Key, err)
				}
				continue
			}
			if err := txn.Set([]byte(mut.Key), mut.Value); err != nil {
				return fmt.Errorf("set %s: %w", mut.Key, err)
			}
		}
		return nil
	})
}

func (b *Badger) Ping(ctx context.Context) error {
	if b.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}
