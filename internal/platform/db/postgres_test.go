package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteRow struct {
	ID   string `gorm:"primaryKey"`
	Note string
}

func TestConnectSQLiteAndMigrate(t *testing.T) {
	database, err := Connect("", filepath.Join(t.TempDir(), "agora.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	assert.Equal(t, "sqlite", database.Driver)

	require.NoError(t, database.Migrate(context.Background(), &noteRow{}))
	require.NoError(t, database.DB.Create(&noteRow{ID: "p-1", Note: "hello"}).Error)

	var out noteRow
	require.NoError(t, database.DB.First(&out, "id = ?", "p-1").Error)
	assert.Equal(t, "hello", out.Note)
}

func TestConnectRequiresTarget(t *testing.T) {
	_, err := Connect("", "")
	assert.Error(t, err)

	var nilDatabase *Database
	assert.NoError(t, nilDatabase.Close())
	assert.Error(t, nilDatabase.Migrate(context.Background(), &noteRow{}))
}
