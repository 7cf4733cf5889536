package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"virtuefeed/internal/config"
	"virtuefeed/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes select how the schema is brought up to date.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaStatus summarizes what ApplySchema would do.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// schemaPlan is what ApplySchema will do for a given config.
type schemaPlan struct {
	mode     string
	runSQL   bool
	runAuto  bool
	forced   bool // auto mode explicitly allowed in a prod-like env
	prodLike bool
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

func normalizedSchemaMode(cfg *config.Config) string {
	if mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)); mode != "" {
		return mode
	}
	return SchemaModeHybrid
}

// planSchema resolves DB_SCHEMA_MODE. sql runs migrations only. auto runs
// AutoMigrate only and is refused in prod-like envs unless explicitly allowed.
// hybrid runs migrations everywhere and AutoMigrate outside prod-like envs.
func planSchema(cfg *config.Config) (schemaPlan, error) {
	p := schemaPlan{mode: normalizedSchemaMode(cfg), prodLike: isProdLikeEnv(cfg.Env)}

	switch p.mode {
	case SchemaModeSQL:
		p.runSQL = true
	case SchemaModeAuto:
		if p.prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return p, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		p.runAuto = true
		p.forced = p.prodLike
	case SchemaModeHybrid:
		p.runSQL = true
		p.runAuto = !p.prodLike
	default:
		return p, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", p.mode)
	}
	return p, nil
}

// AutoMigrate creates or alters tables for every persistent model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the schema up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.runSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if !plan.runAuto {
		return nil
	}

	if plan.forced {
		middleware.Logger.Warn("AutoMigrate forced in a prod-like environment",
			slog.String("env", cfg.Env))
	}
	middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", plan.mode), slog.String("env", cfg.Env))
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the schema policy and, for SQL modes, pending migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.runSQL,
		WillRunAutoMigrate: plan.runAuto,
	}
	if !plan.runSQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	pending, err := pendingMigrations(applied, GetMigrations())
	if err != nil {
		return nil, err
	}
	status.PendingMigrations = pending

	return status, nil
}
