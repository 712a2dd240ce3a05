package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// SQLite stores entries in a single kv table.
type SQLite struct {
	conn *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &SQLite{conn: conn}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *SQLite) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS kv_entries (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (db *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM kv_entries WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (db *SQLite) Set(ctx context.Context, key string, value []byte) error {
	return db.Batch(ctx, []Mutation{Put(key, value)})
}

func (db *SQLite) Delete(ctx context.Context, key string) error {
	return db.Batch(ctx, []Mutation{Remove(key)})
}

func (db *SQLite) Batch(ctx context.Context, mutations []Mutation) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, mut := range mutations {
		if mut.Delete {
			_, err = tx.ExecContext(ctx, "DELETE FROM kv_entries WHERE key = ?", mut.Key)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
				mut.Key, mut.Value)
		}
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write %s: %w", mut.Key, err)
		}
	}
	return tx.Commit()
}

func (db *SQLite) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *SQLite) Close() error {
	return db.conn.Close()
}
