package database

import (
	"context"
	"path/filepath"
	"testing"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/internal/database/mysql"
	"autoeda/backend/go/internal/database/sqlite"
	"autoeda/backend/go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver(t *testing.T) {
	assert.Equal(t, "mysql", Driver(&config.DatabaseConfig{DSN: "mysql://u:p@db:3306/eda"}))
	assert.Equal(t, "sqlite", Driver(&config.DatabaseConfig{DSN: "sqlite:///./dev.db", Driver: "mysql"}))
	assert.Equal(t, "mysql", Driver(&config.DatabaseConfig{DSN: "u:p@tcp(db)/eda", Driver: "MySQL"}))
	assert.Equal(t, "sqlite", Driver(&config.DatabaseConfig{}))
}

func TestMySQLDSN(t *testing.T) {
	assert.Equal(t, "u:p@tcp(db:3306)/eda?charset=utf8mb4&parseTime=True&loc=UTC", mysql.DSN("mysql://u:p@db:3306/eda"))
	assert.Equal(t, "u:p@tcp(db)/eda?charset=utf8mb4&parseTime=True&loc=UTC", mysql.DSN("mysql+pymysql://u:p@db/eda?ssl=1"))
	assert.Equal(t, "u:p@tcp(db)/eda", mysql.DSN("u:p@tcp(db)/eda"))
}

func TestSQLitePath(t *testing.T) {
	assert.Equal(t, "./dev.db", sqlite.Path("sqlite:///./dev.db"))
	assert.Equal(t, "dev.db", sqlite.Path("dev.db"))
}

func TestOpenSQLiteMigrates(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "test.db")
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)

	require.NoError(t, HealthCheck(context.Background(), db))
	for _, m := range []any{&models.User{}, &models.Dataset{}, &models.JobRecord{}} {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.FileExists(t, dsn)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}

func TestHealthCheckNil(t *testing.T) {
	assert.ErrorIs(t, HealthCheck(context.Background(), nil), ErrUnavailable)
}
