// Package bootstrap wires the process-wide runtime shared by the commands.
package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"

	"virtuefeed/internal/cache"
	"virtuefeed/internal/config"
	"virtuefeed/internal/database"
	"virtuefeed/internal/middleware"
	"virtuefeed/internal/models"
	"virtuefeed/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipSchema opens the database without migrating it.
	SkipSchema bool
}

// InitRuntime connects to DB and Redis and seeds an empty development
// database when DEV_SEED_PRESET names a preset.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: !opts.SkipSchema})
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := seedDevData(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to seed development data: %w", err)
	}

	return db, r, nil
}

func seedDevData(cfg *config.Config, db *gorm.DB) error {
	name := strings.TrimSpace(cfg.DevSeedPreset)
	if name == "" || !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	preset, ok := seed.BuiltinPresets[name]
	if !ok {
		return fmt.Errorf("unknown DEV_SEED_PRESET %q", name)
	}

	res, err := seed.NewSeeder(db, seed.Options{}).ApplyPreset(preset)
	if err != nil {
		return err
	}
	middleware.Logger.Info("development data seeded",
		slog.String("preset", name),
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
	)
	return nil
}
