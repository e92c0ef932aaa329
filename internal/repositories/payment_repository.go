package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"drape/internal/models/db_models"
)

type PaymentRepository interface {
	// InsertIfAbsent appends a payment record unless one with the same
	// provider payment id already exists (at-least-once webhook delivery).
	// The bool reports whether a row was actually written.
	InsertIfAbsent(ctx context.Context, payment *db_models.Payment) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) InsertIfAbsent(ctx context.Context, payment *db_models.Payment) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_payment_id"}},
			DoNothing: true,
		}).
		Create(payment)
	return res.RowsAffected > 0, res.Error
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Payment, error) {
	var payments []db_models.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
