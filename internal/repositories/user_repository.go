package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"drape/internal/models/db_models"
)

// UserRepository exposes narrow, field-scoped mutations. The quota ledger,
// the job-completion pipeline and the billing applier all touch the same row
// concurrently, so every mutation is a targeted conditional UPDATE rather
// than a read-modify-write over the whole record.
type UserRepository interface {
	Insert(ctx context.Context, user *db_models.User) error
	FindByID(ctx context.Context, id string) (*db_models.User, error)
	FindByEmail(ctx context.Context, email string) (*db_models.User, error)

	// DowngradeExpired moves an expired premium account back to FREE and
	// zeroes both counters. Guarded on the account still being premium and
	// past its period end, so concurrent readers apply it at most once.
	DowngradeExpired(ctx context.Context, id uuid.UUID, now int64) (bool, error)

	// ResetDailyWindow zeroes dailyUsed and advances dailyResetAt, keyed on
	// the stale reset timestamp the caller observed.
	ResetDailyWindow(ctx context.Context, id uuid.UUID, staleResetAt, nextResetAt int64) (bool, error)

	IncrementFreeUsed(ctx context.Context, id uuid.UUID) error
	IncrementDailyUsed(ctx context.Context, id uuid.UUID) error

	ApplyUpgrade(ctx context.Context, id uuid.UUID, customerID, subscriptionID, priceID string, periodEnd int64) error
	ApplyRenewal(ctx context.Context, id uuid.UUID, periodEnd int64) error
	ApplyCancellation(ctx context.Context, id uuid.UUID) error
	UpdatePeriodEnd(ctx context.Context, id uuid.UUID, periodEnd int64, isPremium bool) error

	SetBanned(ctx context.Context, id uuid.UUID, banned bool, reason string) error
	ResetFreeUsed(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Insert(ctx context.Context, user *db_models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*db_models.User, error) {
	var user db_models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*db_models.User, error) {
	var user db_models.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) DowngradeExpired(ctx context.Context, id uuid.UUID, now int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db_models.User{}).
		Where("id = ? AND is_premium = TRUE AND stripe_current_period_end IS NOT NULL AND stripe_current_period_end < ?", id, now).
		Updates(map[string]interface{}{
			"is_premium": false,
			"plan":       db_models.PlanFree,
			"free_used":  0,
			"daily_used": 0,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *userRepository) ResetDailyWindow(ctx context.Context, id uuid.UUID, staleResetAt, nextResetAt int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db_models.User{}).
		Where("id = ? AND daily_reset_at = ?", id, staleResetAt).
		Updates(map[string]interface{}{
			"daily_used":     0,
			"daily_reset_at": nextResetAt,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *userRepository) IncrementFreeUsed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&db_models.User{}).
		Where("id = ?", id).
		Update("free_used", gorm.Expr("free_used + 1")).Error
}

func (r *userRepository) IncrementDailyUsed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&db_models.User{}).
		Where("id = ?", id).
		Update("daily_used", gorm.Expr("daily_used + 1")).Error
}

func (r *userRepository) ApplyUpgrade(ctx context.Context, id uuid.UUID, customerID, subscriptionID, priceID string, periodEnd int64) error {
	return r.db.WithContext(ctx).Model(&db_models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"plan":                      db_models.PlanPremium,
			"is_premium":                true,
			"stripe_customer_id":        customerID,
			"stripe_subscription_id":    subscriptionID,
			"stripe_price_id":           priceID,
			"stripe_current_period_end": periodEnd,
			"premium_since":             gorm.Expr("COALESCE(premium_since, ?)", time.Now().Unix()),
			"daily_used":                0,
		}).Error
}

func (r *userRepository) ApplyRenewal(ctx context.Context, id uuid.UUID, periodEnd int64) error {
	return r.db.WithContext(ctx).Model(&db_models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_premium":                true,
			"stripe_current_period_end": periodEnd,
			"daily_used":                0,
		}).Error
}

func (r *userRepository) ApplyCancellation(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&db_models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_premium":             false,
			"plan":                   db_models.PlanFree,
			"stripe_subscription_id": "",
			"free_used":              0,
			"daily_used":             0,
		}).Error
}

func (r *userRepository) UpdatePeriodEnd(ctx context.Context, id uuid.UUID, periodEnd int64, isPremium bool) error {
	return r.db.WithContext(ctx).Model(&db_models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stripe_current_period_end": periodEnd,
			"is_premium":                isPremium,
		}).Error
}

func (r *userRepository) SetBanned(ctx context.Context, id uuid.UUID, banned bool, reason string) error {
	return r.db.WithContext(ctx).Model(&db_models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_banned":  banned,
			"ban_reason": reason,
		}).Error
}

func (r *userRepository) ResetFreeUsed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&db_models.User{}).
		Where("id = ?", id).
		Update("free_used", 0).Error
}
