// Package store implements the relational half of the Document Store:
// Resource, Chunk, Category, and audit persistence over Postgres via
// gorm, tenant-scoped throughout.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Sentinel errors surfaced by the document store.
var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)

// Store wraps the Postgres connection backing Resources, Chunks,
// Categories, and the audit log.
type Store struct {
	db *gorm.DB
}

// Config configures the Postgres connection pool.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// New opens the Postgres connection and migrates the schema.
func New(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store: dsn required")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("store: connecting to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: getting sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(&ResourceRow{}, &ChunkRow{}, &CategoryRow{}, &AuditEntryRow{}); err != nil {
		return nil, fmt.Errorf("store: migrating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the Postgres connection is reachable, for the health
// endpoint's readiness check.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// RecordAudit appends an audit log entry, for the audit trail covering
// admin cross-tenant access and destructive operations.
func (s *Store) RecordAudit(tenantID, callerID, action, targetID string, at time.Time) error {
	row := AuditEntryRow{
		TenantID:  tenantID,
		CallerID:  callerID,
		Action:    action,
		TargetID:  targetID,
		Timestamp: at,
	}
	return s.db.Create(&row).Error
}
