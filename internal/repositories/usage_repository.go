package repositories

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drape/internal/models/db_models"
)

type UsageRepository interface {
	Record(ctx context.Context, userID uuid.UUID, action string, metadata map[string]interface{}) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]db_models.UsageEvent, error)
}

type usageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) Record(ctx context.Context, userID uuid.UUID, action string, metadata map[string]interface{}) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		log.Printf("usage: failed to marshal metadata for %s: %v", action, err)
		raw = []byte("{}")
	}

	event := &db_models.UsageEvent{
		UserID:   userID,
		Action:   action,
		Metadata: raw,
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *usageRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]db_models.UsageEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var events []db_models.UsageEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
