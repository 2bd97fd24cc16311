package storage

import (
	"context"
	"errors"
	"fmt"

	"garage-chat/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore lưu key-value vào bảng kv_items (sqlite trên thiết bị, hoặc postgres)
type GormStore struct {
	db *gorm.DB
}

// NewGormStore tạo GormStore, bảng phải được migrate trước (database.AutoMigrate)
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var item models.KVItem
	err := s.db.WithContext(ctx).
		Where(map[string]interface{}{"key": key}).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value, true, nil
}

// Set upsert theo key
func (s *GormStore) Set(ctx context.Context, key, value string) error {
	item := models.KVItem{Key: key, Value: value}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&item).Error
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Remove(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where(map[string]interface{}{"key": key}).
		Delete(&models.KVItem{}).Error
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
