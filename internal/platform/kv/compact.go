package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Compactor is implemented by backends that need periodic housekeeping to
// reclaim space left behind by overwritten values.
type Compactor interface {
	Compact(ctx context.Context) error
}

// badgerGCRatio is the share of stale data a value log file must hold before
// badger rewrites it.
const badgerGCRatio = 0.5

// Compact runs value log GC until badger reports nothing left to rewrite.
func (b *Badger) Compact(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := b.db.RunValueLogGC(badgerGCRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("badger value log gc: %w", err)
		}
	}
}

func (db *SQLite) Compact(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return fmt.Errorf("sqlite optimize: %w", err)
	}
	return nil
}

// Compact forwards to the wrapped backend when it supports compaction.
func (e *Encrypted) Compact(ctx context.Context) error {
	if c, ok := e.inner.(Compactor); ok {
		return c.Compact(ctx)
	}
	return nil
}
