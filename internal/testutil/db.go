// Package testutil provides a migrated SQLite database for package tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/iliyamo/cinema-ticketing/internal/database"
)

// NewTestDB opens a fresh SQLite file under t.TempDir and applies every
// migration.  The database is closed when the test ends.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := database.Open("sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = database.NewMigrator(db, zaptest.NewLogger(t)).Up(context.Background())
	require.NoError(t, err)
	return db
}
