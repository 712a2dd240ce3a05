package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"wagevo/internal/platform/config"
	"wagevo/internal/platform/crypto"
)

// Open builds the backend selected by STORE_BACKEND and wraps it with at-rest
// encryption when DATA_ENCRYPTION_KEY is set.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.StoreBackend {
	case BackendBadger, "":
		dir := filepath.Join(cfg.DataDir, "badger")
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
		store, err = OpenBadger(dir)
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.DataDir, "wagevo.db")
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return nil, err
			}
		}
		store, err = OpenSQLite(path)
	case BackendPostgres:
		store, err = OpenPostgres(ctx, cfg.DatabaseURL)
	case BackendMemory:
		store = NewMemory()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}

	svc, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if svc.Configured() {
		return NewEncrypted(store, svc), nil
	}
	return store, nil
}
