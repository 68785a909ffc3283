package store

import (
	"context"
	"fmt"
	"time"

	"codeplay/pkg/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RotationStore keeps one credential rotation row per provider service
type RotationStore struct {
	db *gorm.DB
}

func NewRotationStore(db *gorm.DB) *RotationStore {
	return &RotationStore{db: db}
}

func (s *RotationStore) Get(ctx context.Context, service string) (*models.KeyRotation, error) {
	var row models.KeyRotation
	if err := s.db.WithContext(ctx).Where("service_name = ?", service).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// Update upserts the row for service
func (s *RotationStore) Update(ctx context.Context, service string, index int, rotatedAt time.Time) error {
	row := models.KeyRotation{
		ServiceName:      service,
		CurrentKeyIndex:  index,
		LastRotationTime: rotatedAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_key_index", "last_rotation_time", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("update rotation for %s: %w", service, err)
	}
	return nil
}
