package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewise/internal/model"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "notes.db?_foreign_keys=on", sqliteDSN("notes.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", sqliteDSN("file:x?mode=memory"))
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), "oracle", "")
	assert.Error(t, err)
}

func TestNew_SQLiteMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")
	db, err := New(context.Background(), "sqlite", path)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, m := range model.All() {
		assert.True(t, db.Migrator().HasTable(m))
	}
}
