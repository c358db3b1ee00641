package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// entry is the row layout of the key/value table
type entry struct {
	Name      string `gorm:"primaryKey;size:255"`
	Value     []byte
	UpdatedAt time.Time
}

func (entry) TableName() string {
	return "storefront_kv"
}

// GormStore keeps values in a SQL table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the table and returns the store
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv table: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e entry
	err := s.db.WithContext(ctx).Where("name = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return e.Value, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	e := entry{Name: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("name = ?", key).Delete(&entry{}).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Exists(ctx context.Context, key string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&entry{}).Where("name = ?", key).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return count > 0, nil
}
