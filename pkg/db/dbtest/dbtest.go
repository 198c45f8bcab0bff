// Package dbtest opens throwaway in-memory sqlite databases carrying the full schema.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/farmfresh/farmfresh-backend/pkg/db"
	"github.com/farmfresh/farmfresh-backend/pkg/migrate"
)

// New returns a client over a private in-memory database. Everything inside a
// transaction must go through the tx handle: the pool holds a single connection.
func New(t testing.TB) *db.Client {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	client := db.NewFromConn(conn)
	require.NoError(t, migrate.AutoMigrate(context.Background(), client))
	return client
}
