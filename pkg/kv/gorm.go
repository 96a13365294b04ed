package kv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/shopstudy/shopstudy-backend/pkg/config"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Entry is the single table backing the gorm store. One row per key.
type Entry struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     []byte `gorm:"column:value"`
	UpdatedAt time.Time
}

// TableName keeps the table name stable across gorm naming strategies.
func (Entry) TableName() string {
	return "kv_entries"
}

// GormStore persists keys in a relational table through gorm. Both the
// sqlite and postgres drivers satisfy it; sqlite is the on-device default.
type GormStore struct {
	conn *gorm.DB
}

// NewGormStore boots a gorm-backed store from the storage config.
func NewGormStore(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (*GormStore, error) {
	var dialector gorm.Dialector
	switch cfg.Backend {
	case config.StorageBackendSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	case config.StorageBackendPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.PostgresDSN,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("gorm store does not support backend %q", cfg.Backend)
	}

	silent := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 silent,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening kv connection: %w", err)
	}

	if err := conn.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrating kv table: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "kv storage ready")
	}

	return &GormStore{conn: conn}, nil
}

// NewGormStoreFromConn wraps an existing gorm connection; tests use this
// with an in-memory sqlite database.
func NewGormStoreFromConn(conn *gorm.DB) (*GormStore, error) {
	if conn == nil {
		return nil, errors.New("gorm connection is required")
	}
	if err := conn.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrating kv table: %w", err)
	}
	return &GormStore{conn: conn}, nil
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry Entry
	err := s.conn.WithContext(ctx).First(&entry, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry.Value, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).
		Error
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.conn.WithContext(ctx).Delete(&Entry{}, "key = ?", key).Error
}

// Close shuts down the pooled connections.
func (s *GormStore) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
