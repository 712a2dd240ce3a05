package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wagevo/internal/platform/db"
)

// Postgres stores entries in the kv_entries table created by the embedded
// migrations.
type Postgres struct {
	DB *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return &Postgres{DB: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.DB.QueryRow(ctx, "SELECT value FROM kv_entries WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	return p.Batch(ctx, []Mutation{Put(key, value)})
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	return p.Batch(ctx, []Mutation{Remove(key)})
}

func (p *Postgres) Batch(ctx context.Context, mutations []Mutation) error {
	tx, err := p.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	for _, mut := range mutations {
		if mut.Delete {
			_, err = tx.Exec(ctx, "DELETE FROM kv_entries WHERE key = $1", mut.Key)
		} else {
			_, err = tx.Exec(ctx, `
        INSERT INTO kv_entries (key, value, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
      `, mut.Key, mut.Value)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("write %s: %w", mut.Key, err)
		}
	}
	return tx.Commit(ctx)
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.DB.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.DB.Close()
	return nil
}
