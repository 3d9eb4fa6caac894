package implementation

import (
	"context"
	"errors"
	"fmt"

	"chatbot-widget/internal/model"
	"chatbot-widget/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormStorageRepository struct {
	db *gorm.DB
}

// NewGormStorageRepository migrates the storage table and returns a
// Postgres backed StorageRepository.
func NewGormStorageRepository(db *gorm.DB) (contract.StorageRepository, error) {
	if err := db.AutoMigrate(&model.StorageEntry{}); err != nil {
		return nil, fmt.Errorf("migrate storage entries: %w", err)
	}
	return &gormStorageRepository{db: db}, nil
}

func (r *gormStorageRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var entry model.StorageEntry
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Raw(), true, nil
}

func (r *gormStorageRepository) Set(ctx context.Context, key, value string) error {
	entry := model.NewStorageEntry(key, value)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "json_value", "updated_at"}),
	}).Create(&entry).Error
}

func (r *gormStorageRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&model.StorageEntry{}).Error
}
