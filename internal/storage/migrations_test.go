package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_FreshDatabase(t *testing.T) {
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, store.Migrate(ctx))

	version, err = store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	for _, index := range []string{"idx_transactions_date", "idx_transactions_customer_date", "idx_reports_generated_at"} {
		var n int
		err := store.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, index).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "index %s should exist", index)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCustomers(ctx, testCustomers()))
	require.NoError(t, store.Migrate(ctx))

	n, err := store.CustomerCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMigrate_ResumesFromPartialVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.db")
	store, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	ctx := context.Background()

	tx, err := store.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, migrations[0].Up(tx))
	_, err = tx.Exec("PRAGMA user_version = 1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, store.Close())

	store, err = NewSQLiteStorage(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Migrate(ctx))
	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestMigrations_Ordered(t *testing.T) {
	versions := make([]int, len(migrations))
	for i, m := range migrations {
		versions[i] = m.Version
		assert.NotEmpty(t, m.Description)
	}
	assert.Equal(t, []int{1, 2, 3}, versions)
	assert.Equal(t, ExpectedSchemaVersion, versions[len(versions)-1])
}
