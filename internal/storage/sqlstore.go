package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// entry is one profile-scoped value.
type entry struct {
	Profile   string `gorm:"primaryKey;size:128"`
	Key       string `gorm:"primaryKey;column:entry_key;size:64"`
	Value     []byte
	UpdatedAt time.Time
}

func (entry) TableName() string { return "profile_entries" }

// SQL is a Store backed by a SQLite file through gorm.
type SQL struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the SQLite database at dsn and
// migrates the entries table. Use ":memory:" for an ephemeral database.
func OpenSQLite(dsn string) (*SQL, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", dsn, err)
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrating profile entries: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Get(ctx context.Context, profile, key string) ([]byte, error) {
	var e entry
	err := s.db.WithContext(ctx).
		Where("profile = ? AND entry_key = ?", profile, key).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get %s/%s: %w", profile, key, err)
	}
	return e.Value, nil
}

func (s *SQL) Put(ctx context.Context, profile, key string, value []byte) error {
	e := entry{Profile: profile, Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("sqlite put %s/%s: %w", profile, key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, profile string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Where("profile = ? AND entry_key IN ?", profile, keys).
		Delete(&entry{}).Error
	if err != nil {
		return fmt.Errorf("sqlite delete %s: %w", profile, err)
	}
	return nil
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ Store = (*SQL)(nil)
