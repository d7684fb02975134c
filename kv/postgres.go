package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// entry is a single row of the kv_entries table. A NULL expires_at means the
// value never expires; expired rows are dropped lazily on read.
type entry struct {
	Key       string     `gorm:"primaryKey;size:512"`
	Value     []byte     `gorm:"not null"`
	ExpiresAt *time.Time `gorm:"index"`
}

func (entry) TableName() string { return "kv_entries" }

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrating kv_entries: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e entry
	err := s.db.WithContext(ctx).First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get %q: %w", key, err)
	}

	if e.ExpiresAt != nil && !e.ExpiresAt.After(time.Now()) {
		_ = s.db.WithContext(ctx).Delete(&entry{}, "key = ?", key).Error
		return nil, ErrKeyNotFound
	}
	return e.Value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	return s.upsert(ctx, entry{Key: key, Value: value})
}

func (s *PostgresStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{Key: key, Value: value}
	if ttl > 0 {
		expires := time.Now().Add(ttl)
		e.ExpiresAt = &expires
	}
	return s.upsert(ctx, e)
}

func (s *PostgresStore) upsert(ctx context.Context, e entry) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("postgres set %q: %w", e.Key, err)
	}
	return nil
}

func (s *PostgresStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Model(&entry{}).
		Where("key LIKE ?", prefix+"%").
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Pluck("key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("postgres keys %q: %w", prefix, err)
	}
	return keys, nil
}

func (s *PostgresStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Delete(&entry{}, "key IN ?", keys).Error; err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ Store = (*PostgresStore)(nil)
