package interaction

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLiteStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return newTestSQLiteStore(t) })
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLiteStore_Timestamps(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	it, err := st.SetStatus(ctx, 1, 2, StatusSaved, "note")
	require.NoError(t, err)
	assert.True(t, it.CreatedAt.After(before))
	require.NotNil(t, it.Metadata.NoteUpdatedAt)

	time.Sleep(10 * time.Millisecond)
	again, err := st.Upsert(ctx, 1, 2, UpsertInput{Score: 55})
	require.NoError(t, err)
	assert.Equal(t, it.CreatedAt, again.CreatedAt)
	assert.True(t, again.UpdatedAt.After(it.UpdatedAt))
}

func TestSQLiteTime_Scan(t *testing.T) {
	var st sqliteTime
	require.NoError(t, st.Scan("2026-05-01T12:00:00.5Z"))
	assert.True(t, st.Valid)
	assert.Equal(t, 500*time.Millisecond, time.Duration(st.Time.Nanosecond()))

	require.NoError(t, st.Scan(nil))
	assert.False(t, st.Valid)

	now := time.Now()
	require.NoError(t, st.Scan(now))
	assert.True(t, st.Time.Equal(now))

	assert.Error(t, st.Scan("yesterday"))
	assert.Error(t, st.Scan(42))
}
