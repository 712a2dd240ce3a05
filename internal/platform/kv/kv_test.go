package kv

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"wagevo/internal/platform/config"
	"wagevo/internal/platform/crypto"
)

// StoreTestSuite runs the same contract against every backend.
type StoreTestSuite struct {
	suite.Suite
	open  func(t *testing.T) Store
	store Store
	ctx   context.Context
}

// SetupTest runs before each test
func (suite *StoreTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = suite.open(suite.T())
}

// TearDownTest runs after each test
func (suite *StoreTestSuite) TearDownTest() {
	if suite.store != nil {
		suite.store.Close()
	}
}

func (suite *StoreTestSuite) TestGetMissingKey() {
	_, err := suite.store.Get(suite.ctx, "missing")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *StoreTestSuite) TestSetThenGet() {
	require.NoError(suite.T(), suite.store.Set(suite.ctx, "savedShifts", []byte(`[]`)))

	value, err := suite.store.Get(suite.ctx, "savedShifts")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []byte(`[]`), value)
}

func (suite *StoreTestSuite) TestSetOverwrites() {
	require.NoError(suite.T(), suite.store.Set(suite.ctx, "k", []byte("one")))
	require.NoError(suite.T(), suite.store.Set(suite.ctx, "k", []byte("two")))

	value, err := suite.store.Get(suite.ctx, "k")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "two", string(value))
}

func (suite *StoreTestSuite) TestDeleteIsIdempotent() {
	require.NoError(suite.T(), suite.store.Set(suite.ctx, "k", []byte("v")))
	require.NoError(suite.T(), suite.store.Delete(suite.ctx, "k"))
	require.NoError(suite.T(), suite.store.Delete(suite.ctx, "k"), "deleting an absent key must not fail")

	_, err := suite.store.Get(suite.ctx, "k")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *StoreTestSuite) TestBatchAppliesWritesAndDeletes() {
	require.NoError(suite.T(), suite.store.Set(suite.ctx, "currentShift", []byte("{}")))
	require.NoError(suite.T(), suite.store.Set(suite.ctx, "shiftStartTime", []byte("1700000000")))

	err := suite.store.Batch(suite.ctx, []Mutation{
		Put("savedShifts", []byte(`[{"id":"a"}]`)),
		Remove("currentShift"),
		Remove("shiftStartTime"),
	})
	require.NoError(suite.T(), err)

	value, err := suite.store.Get(suite.ctx, "savedShifts")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), `[{"id":"a"}]`, string(value))

	for _, key := range []string{"currentShift", "shiftStartTime"} {
		_, err := suite.store.Get(suite.ctx, key)
		assert.ErrorIs(suite.T(), err, ErrNotFound, "expected %s to be removed", key)
	}
}

func (suite *StoreTestSuite) TestPing() {
	assert.NoError(suite.T(), suite.store.Ping(suite.ctx))
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{open: func(t *testing.T) Store {
		return NewMemory()
	}})
}

func TestBadgerStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{open: func(t *testing.T) Store {
		store, err := OpenBadger(t.TempDir())
		require.NoError(t, err, "failed to open badger")
		return store
	}})
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{open: func(t *testing.T) Store {
		store, err := OpenSQLite(":memory:")
		require.NoError(t, err, "failed to open sqlite")
		return store
	}})
}

func TestEncryptedStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{open: func(t *testing.T) Store {
		svc, err := crypto.New("test passphrase")
		require.NoError(t, err)
		return NewEncrypted(NewMemory(), svc)
	}})
}

func TestPostgresStoreSuite(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	suite.Run(t, &StoreTestSuite{open: func(t *testing.T) Store {
		store, err := OpenPostgres(context.Background(), dbURL)
		require.NoError(t, err, "failed to open postgres")
		_, err = store.DB.Exec(context.Background(), "DELETE FROM kv_entries")
		require.NoError(t, err)
		return store
	}})
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "shiftStartTime", []byte("1700000000")))
	require.NoError(t, store.Close())

	reopened, err := OpenBadger(dir)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(ctx, "shiftStartTime")
	require.NoError(t, err)
	assert.Equal(t, "1700000000", string(value))
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wagevo.db")
	ctx := context.Background()

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "savedExpenses", []byte(`[]`)))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(ctx, "savedExpenses")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(value))
}

func TestEncryptedStoreSealsValues(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	svc, err := crypto.New("seal me")
	require.NoError(t, err)
	store := NewEncrypted(inner, svc)

	require.NoError(t, store.Set(ctx, "savedShifts", []byte(`[{"id":"a"}]`)))

	raw, err := inner.Get(ctx, "savedShifts")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"id"`, "value must not be stored in clear text")

	require.NoError(t, inner.Set(ctx, "bob/savedShifts", raw))
	_, err = store.Get(ctx, "bob/savedShifts")
	assert.Error(t, err, "a value copied under another key must not open")
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr error
	}{
		{name: "memory", cfg: config.Config{StoreBackend: BackendMemory}},
		{name: "badger", cfg: config.Config{StoreBackend: BackendBadger, DataDir: t.TempDir()}},
		{name: "sqlite", cfg: config.Config{StoreBackend: BackendSQLite, SQLitePath: ":memory:"}},
		{name: "encrypted memory", cfg: config.Config{StoreBackend: BackendMemory, DataEncryptionKey: "k"}},
		{name: "unknown", cfg: config.Config{StoreBackend: "etcd"}, wantErr: ErrUnknownBackend},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(ctx, tc.cfg)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			defer store.Close()
			assert.NoError(t, store.Ping(ctx))
		})
	}
}

func TestMemoryKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.Set(ctx, "b", []byte("2")))
	require.NoError(t, store.Set(ctx, "a", []byte("1")))

	keys := store.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestCompactors(t *testing.T) {
	ctx := context.Background()

	badgerStore, err := OpenBadgerInMemory()
	require.NoError(t, err)
	defer badgerStore.Close()
	require.NoError(t, badgerStore.Set(ctx, "k", []byte("v")))
	assert.NoError(t, badgerStore.Compact(ctx))

	sqliteStore, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer sqliteStore.Close()
	assert.NoError(t, sqliteStore.Compact(ctx))

	svc, err := crypto.New("passphrase")
	require.NoError(t, err)
	assert.NoError(t, NewEncrypted(NewMemory(), svc).Compact(ctx))
}
