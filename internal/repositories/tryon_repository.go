package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drape/internal/models/db_models"
)

type TryOnRepository interface {
	Insert(ctx context.Context, tryOn *db_models.TryOn) error
	FindByID(ctx context.Context, id string) (*db_models.TryOn, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]db_models.TryOn, error)

	// ListProcessing feeds the dispatcher's startup recovery.
	ListProcessing(ctx context.Context) ([]db_models.TryOn, error)

	// MarkSuccess and MarkFailed are guarded on the job still being
	// PROCESSING; the bool reports whether this call won the transition.
	// A losing call must not trigger any completion side effects.
	MarkSuccess(ctx context.Context, id uuid.UUID, resultPhoto string, processingTime int, aiCost float64) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) (bool, error)

	SetExpiresAt(ctx context.Context, id uuid.UUID, expiresAt int64) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListExpired(ctx context.Context, now int64) ([]db_models.TryOn, error)
}

type tryOnRepository struct {
	db *gorm.DB
}

func NewTryOnRepository(db *gorm.DB) TryOnRepository {
	return &tryOnRepository{db: db}
}

func (r *tryOnRepository) Insert(ctx context.Context, tryOn *db_models.TryOn) error {
	return r.db.WithContext(ctx).Create(tryOn).Error
}

func (r *tryOnRepository) FindByID(ctx context.Context, id string) (*db_models.TryOn, error) {
	var tryOn db_models.TryOn
	err := r.db.WithContext(ctx).First(&tryOn, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tryOn, nil
}

func (r *tryOnRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]db_models.TryOn, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var tryOns []db_models.TryOn
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&tryOns).Error
	if err != nil {
		return nil, err
	}
	return tryOns, nil
}

func (r *tryOnRepository) ListProcessing(ctx context.Context) ([]db_models.TryOn, error) {
	var tryOns []db_models.TryOn
	err := r.db.WithContext(ctx).
		Where("status = ?", db_models.TryOnStatusProcessing).
		Find(&tryOns).Error
	if err != nil {
		return nil, err
	}
	return tryOns, nil
}

func (r *tryOnRepository) MarkSuccess(ctx context.Context, id uuid.UUID, resultPhoto string, processingTime int, aiCost float64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db_models.TryOn{}).
		Where("id = ? AND status = ?", id, db_models.TryOnStatusProcessing).
		Updates(map[string]interface{}{
			"status":          db_models.TryOnStatusSuccess,
			"result_photo":    resultPhoto,
			"processing_time": processingTime,
			"ai_cost":         aiCost,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *tryOnRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db_models.TryOn{}).
		Where("id = ? AND status = ?", id, db_models.TryOnStatusProcessing).
		Updates(map[string]interface{}{
			"status":        db_models.TryOnStatusFailed,
			"error_message": errorMessage,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *tryOnRepository) SetExpiresAt(ctx context.Context, id uuid.UUID, expiresAt int64) error {
	return r.db.WithContext(ctx).Model(&db_models.TryOn{}).
		Where("id = ?", id).
		Update("expires_at", expiresAt).Error
}

func (r *tryOnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&db_models.TryOn{}, "id = ?", id).Error
}

func (r *tryOnRepository) ListExpired(ctx context.Context, now int64) ([]db_models.TryOn, error) {
	var tryOns []db_models.TryOn
	err := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Find(&tryOns).Error
	if err != nil {
		return nil, err
	}
	return tryOns, nil
}
