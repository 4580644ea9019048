// Package dbtest provides migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/expense-tracker/internal/database"
)

// NewSQLite returns an in-memory SQLite database with every migration
// applied. It is closed when the test finishes.
func NewSQLite(tb testing.TB) *bun.DB {
	tb.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(tb, err, "failed to open test database")

	require.NoError(tb, database.RunMigrations(db, database.DriverSQLite, ""), "failed to migrate test database")

	tb.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
