package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"virtuefeed/internal/middleware"

	"gorm.io/gorm"
)

// MigrationStore records which migrations a database has applied.
type MigrationStore interface {
	GetAppliedMigrations(ctx context.Context) ([]int, error)
	ApplyMigration(ctx context.Context, m Migration) error
	RevertMigration(ctx context.Context, m Migration) error
}

// MigrationLog is one applied migration. Checksum is the sha256 of the up
// script at apply time; rows written before checksums existed leave it empty.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255"`
	Checksum  string    `gorm:"size:64"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

// Checksum fingerprints the up script so edits to applied migrations are caught.
func (m *Migration) Checksum() string {
	sum := sha256.Sum256([]byte(m.UpScript))
	return hex.EncodeToString(sum[:])
}

type migrationStore struct {
	db *gorm.DB
}

func NewMigrationStore(db *gorm.DB) MigrationStore {
	return &migrationStore{db: db}
}

func (s *migrationStore) logs(ctx context.Context) ([]MigrationLog, error) {
	var rows []MigrationLog
	err := s.db.WithContext(ctx).Order("version ASC").Find(&rows).Error
	if err != nil && isMissingTableError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migration_logs: %w", err)
	}
	return rows, nil
}

func (s *migrationStore) GetAppliedMigrations(ctx context.Context) ([]int, error) {
	rows, err := s.logs(ctx)
	if err != nil {
		return nil, err
	}
	versions := make([]int, 0, len(rows))
	for _, r := range rows {
		versions = append(versions, r.Version)
	}
	return versions, nil
}

// isMissingTableError matches postgres and sqlite wording.
func isMissingTableError(err error) bool {
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

// ApplyMigration runs the up script and records it in one transaction.
func (s *migrationStore) ApplyMigration(ctx context.Context, m Migration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.UpScript).Error; err != nil {
			return fmt.Errorf("apply %s: %w", m.String(), err)
		}
		return tx.Create(&MigrationLog{Version: m.Version, Name: m.Name, Checksum: m.Checksum()}).Error
	})
}

// RevertMigration runs the down script and forgets the version in one transaction.
func (s *migrationStore) RevertMigration(ctx context.Context, m Migration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("revert %s: %w", m.String(), err)
		}
		return tx.Where("version = ?", m.Version).Delete(&MigrationLog{}).Error
	})
}

// RunMigrations applies every pending embedded migration in version order.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return runMigrations(ctx, db, migrations)
}

func runMigrations(ctx context.Context, db *gorm.DB, registered []Migration) error {
	if err := db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("ensure migration_logs: %w", err)
	}

	store := &migrationStore{db: db}
	rows, err := store.logs(ctx)
	if err != nil {
		return err
	}
	if err := verifyChecksums(rows, registered); err != nil {
		return err
	}

	applied := make([]int, 0, len(rows))
	for _, r := range rows {
		applied = append(applied, r.Version)
	}
	pending, err := pendingMigrations(applied, registered)
	if err != nil {
		return err
	}

	for _, m := range pending {
		if err := store.ApplyMigration(ctx, m); err != nil {
			return err
		}
		middleware.Logger.Info("Migration applied", slog.Int("version", m.Version), slog.String("name", m.Name))
	}
	return nil
}

// verifyChecksums refuses to continue when an applied migration's script has
// changed since it ran.
func verifyChecksums(rows []MigrationLog, registered []Migration) error {
	byVersion := make(map[int]*Migration, len(registered))
	for i := range registered {
		byVersion[registered[i].Version] = &registered[i]
	}
	for _, r := range rows {
		m, ok := byVersion[r.Version]
		if !ok || r.Checksum == "" {
			continue
		}
		if r.Checksum != m.Checksum() {
			return fmt.Errorf("migration %s was edited after it was applied", m.String())
		}
	}
	return nil
}

// pendingMigrations returns registered migrations not yet applied, refusing
// databases that know versions this binary does not.
func pendingMigrations(applied []int, registered []Migration) ([]Migration, error) {
	known := make(map[int]bool, len(registered))
	for _, m := range registered {
		known[m.Version] = true
	}

	var unknown []string
	seen := make(map[int]bool, len(applied))
	for _, v := range slices.Sorted(slices.Values(applied)) {
		seen[v] = true
		if !known[v] {
			unknown = append(unknown, fmt.Sprintf("%06d", v))
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("migration_logs contains versions this build does not know: %s", strings.Join(unknown, ", "))
	}

	var pending []Migration
	for _, m := range registered {
		if !seen[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// RollbackMigration reverts an applied migration by version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	store := NewMigrationStore(db)
	applied, err := store.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return errors.New("migration " + m.String() + " has not been applied")
	}

	if err := store.RevertMigration(ctx, *m); err != nil {
		return err
	}
	middleware.Logger.Info("Migration rolled back", slog.Int("version", version), slog.String("name", m.Name))
	return nil
}
