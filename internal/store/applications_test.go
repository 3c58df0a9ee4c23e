package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "applications.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordApplicationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	a := Application{URL: "https://x.example/1", Email: "HR@Acme.lk", Title: "Junior Network Engineer"}

	added, err := RecordApplication(ctx, db.Pool, a)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = RecordApplication(ctx, db.Pool, a)
	require.NoError(t, err)
	assert.False(t, added)

	ok, err := HasApplied(ctx, db.Pool, "https://x.example/1", "hr@acme.lk")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasApplied(ctx, db.Pool, "https://x.example/2", "hr@acme.lk")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordApplicationRequiresFields(t *testing.T) {
	db := openTestDB(t)
	_, err := RecordApplication(context.Background(), db.Pool, Application{URL: "https://x.example/1"})
	assert.Error(t, err)
}

func TestListApplicationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	for i, u := range []string{"https://x.example/1", "https://x.example/2"} {
		_, err := RecordApplication(ctx, db.Pool, Application{
			URL: u, Email: "hr@acme.lk", Title: "t", SentAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	apps, err := ListApplications(ctx, db.Pool, 10)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "https://x.example/2", apps[0].URL)
	assert.True(t, base.Add(time.Minute).Equal(apps[0].SentAt))
}

func TestMigrateTwice(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, Migrate(db.Pool))
}

func TestAcquireRunLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_jobs.csv.lock")

	first, err := AcquireRunLock(path)
	require.NoError(t, err)

	_, err = AcquireRunLock(path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Unlock())
	again, err := AcquireRunLock(path)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}
