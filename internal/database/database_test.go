package database

import (
	"testing"
	"time"

	"virtuefeed/internal/config"
	"virtuefeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}

	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConfigurePool_Defaults(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, configurePool(db, &config.Config{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost: "primary", DBPort: "5432", DBUser: "app", DBPassword: "secret", DBName: "feed",
		DBReadHost: "replica", DBReadPort: "5433", DBReadUser: "ro", DBReadPassword: "ro-secret",
	}

	assert.Equal(t, "host=primary port=5432 user=app password=secret dbname=feed sslmode=disable", primaryDSN(cfg))
	assert.Equal(t, "host=replica port=5433 user=ro password=ro-secret dbname=feed sslmode=disable", replicaDSN(cfg))

	cfg.DBSSLMode = "require"
	assert.Contains(t, primaryDSN(cfg), "sslmode=require")
}

func TestGormConfig_StoresUTC(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(PersistentModels()...))

	user := models.User{ExternalID: "user_ext", Email: "a@example.com", Username: "a"}
	require.NoError(t, db.Create(&user).Error)

	assert.Len(t, user.ID, 20)
	assert.Equal(t, time.UTC, user.CreatedAt.Location())
}
