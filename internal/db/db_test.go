package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t,
		"chat.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		SQLiteDSN("chat.db"))
	assert.Equal(t,
		"chat.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		SQLiteDSN("chat.db?mode=rwc"))
	assert.Equal(t,
		"chat.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(100)",
		SQLiteDSN("chat.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(100)"))
}

func TestConnect_SQLiteEnablesForeignKeys(t *testing.T) {
	gdb, err := Connect(context.Background(), Options{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "chat.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	var on int
	require.NoError(t, gdb.Raw("PRAGMA foreign_keys").Scan(&on).Error)
	assert.Equal(t, 1, on)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestConnect_RejectsUnknownDriver(t *testing.T) {
	_, err := Connect(context.Background(), Options{Driver: "oracle", DSN: "x"})
	require.ErrorIs(t, err, ErrInvalidOptions)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestConnect_RejectsEmptyDSN(t *testing.T) {
	_, err := Connect(context.Background(), Options{Driver: DriverSQLite})
	require.ErrorIs(t, err, ErrInvalidOptions)
}
