package database

import (
	"testing"

	"company-panel/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestInitDB_SQLite(t *testing.T) {
	db, err := InitDB(&config.DBConfig{
		Driver:   config.DriverSQLite,
		DBName:   "file::memory:",
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)

	require.NoError(t, Ping(db))
	require.NoError(t, MigrateModels(db, &widget{}))
	require.NoError(t, db.Create(&widget{Name: "dial"}).Error)

	var count int64
	require.NoError(t, db.Model(&widget{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestInitDB_SeparateMemoryDatabases(t *testing.T) {
	open := func() *gorm.DB {
		db, err := InitDB(&config.DBConfig{Driver: config.DriverSQLite, DBName: "file::memory:", LogLevel: logger.Silent})
		require.NoError(t, err)
		require.NoError(t, MigrateModels(db, &widget{}))
		return db
	}

	first, second := open(), open()
	require.NoError(t, first.Create(&widget{Name: "dial"}).Error)

	var count int64
	require.NoError(t, second.Model(&widget{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestInitDB_UnknownDriver(t *testing.T) {
	_, err := InitDB(&config.DBConfig{Driver: "oracle"})
	require.Error(t, err)
}

func TestMigrateModels_NilDB(t *testing.T) {
	err := MigrateModels(nil, &widget{})
	assert.EqualError(t, err, "database is not initialized")
}
