package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	pg := Config{Driver: "postgres", Host: "db", Port: "5432", User: "u", Password: "p", DBName: "shop", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", pg.DSN())

	assert.Equal(t, "storefront.db", Config{Driver: "sqlite"}.DSN())
	assert.Equal(t, ":memory:", Config{Path: ":memory:"}.DSN())
}

func TestNewGormConnection_SQLiteMemory(t *testing.T) {
	db, err := NewGormConnection(Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer Close(db)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestNewGormConnection_UnknownDriver(t *testing.T) {
	_, err := NewGormConnection(Config{Driver: "mysql"})
	assert.Error(t, err)
}
