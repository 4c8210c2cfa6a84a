// Package testkit holds shared test fixtures: an embedded database with the
// production schema and a recording mailer.
package testkit

import (
	"path/filepath"
	"testing"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/database"
	"gorm.io/gorm"
)

// NewDB opens a fresh SQLite database under t.TempDir with foreign keys on
// and the schema migrated. It is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
