package services

import (
	"context"
	"time"

	"drape/internal/models/db_models"
	"drape/internal/models/response_models"
	"drape/internal/repositories"
	"drape/pkg/utils"
)

const (
	// FreeTryOnLimit is the lifetime free allowance; it only comes back
	// through a plan reset event (expiry downgrade, cancellation, admin
	// credit grant).
	FreeTryOnLimit = 2
	// PremiumDailyLimit is the anti-abuse ceiling for premium accounts.
	PremiumDailyLimit = 100
)

const unlimited = "unlimited"

type QuotaServiceInterface interface {
	// CheckQuota is the authoritative gate. It performs the lazy premium
	// expiry downgrade and the lazy daily-window reset as side effects.
	CheckQuota(ctx context.Context, userID string) (*response_models.QuotaCheckResult, error)

	// DecrementQuota consumes one unit. Callers invoke it only after a
	// generation is confirmed successful, never speculatively.
	DecrementQuota(ctx context.Context, userID string) error

	// GetUserQuota is the display projection; it never mutates anything.
	GetUserQuota(ctx context.Context, userID string) (*response_models.QuotaSummary, error)
}

type QuotaService struct {
	userRepo repositories.UserRepository
}

func NewQuotaService(userRepo repositories.UserRepository) QuotaServiceInterface {
	return &QuotaService{userRepo: userRepo}
}

func (q *QuotaService) CheckQuota(ctx context.Context, userID string) (*response_models.QuotaCheckResult, error) {
	user, err := q.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}

	if user.IsBanned {
		reason := user.BanReason
		if reason == "" {
			reason = "Account suspended"
		}
		return &response_models.QuotaCheckResult{
			CanUse:    false,
			Remaining: 0,
			Plan:      user.Plan,
			Reason:    reason,
		}, nil
	}

	if user.IsPremium {
		return q.checkPremium(ctx, user)
	}

	return freeResult(user.FreeUsed), nil
}

func (q *QuotaService) checkPremium(ctx context.Context, user *db_models.User) (*response_models.QuotaCheckResult, error) {
	now := time.Now()

	// Subscription past its period end: downgrade on read. There is no
	// background sweep; whichever quota check observes the expiry first
	// applies it. The guarded update makes concurrent observers apply it
	// at most once, and every observer reports the same fresh FREE state.
	if user.StripeCurrentPeriodEnd != nil && *user.StripeCurrentPeriodEnd < now.Unix() {
		if _, err := q.userRepo.DowngradeExpired(ctx, user.ID, now.Unix()); err != nil {
			return nil, utils.ErrDatabaseError
		}
		return &response_models.QuotaCheckResult{
			CanUse:    true,
			Remaining: FreeTryOnLimit,
			Plan:      db_models.PlanFree,
			Reason:    "Subscription expired. You have 2 free try-ons again.",
		}, nil
	}

	// Daily window rolled over: reset once, one day ahead of now. Keyed
	// on the stale timestamp so concurrent checks cannot double-reset.
	if now.Unix() > user.DailyResetAt {
		next := utils.NextDailyReset(now)
		applied, err := q.userRepo.ResetDailyWindow(ctx, user.ID, user.DailyResetAt, next)
		if err != nil {
			return nil, utils.ErrDatabaseError
		}
		if applied {
			user.DailyUsed = 0
			user.DailyResetAt = next
		} else {
			// Another request reset the window first; re-read the row.
			fresh, err := q.userRepo.FindByID(ctx, user.ID.String())
			if err != nil || fresh == nil {
				return nil, utils.ErrDatabaseError
			}
			user = fresh
		}
	}

	if user.DailyUsed >= PremiumDailyLimit {
		resetAt := user.DailyResetAt
		return &response_models.QuotaCheckResult{
			CanUse:    false,
			Remaining: unlimited,
			Plan:      db_models.PlanPremium,
			RenewsAt:  &resetAt,
			Reason:    "Daily limit reached (100/day). Resets tomorrow.",
		}, nil
	}

	return &response_models.QuotaCheckResult{
		CanUse:    true,
		Remaining: unlimited,
		Plan:      db_models.PlanPremium,
		RenewsAt:  user.StripeCurrentPeriodEnd,
	}, nil
}

func freeResult(freeUsed int) *response_models.QuotaCheckResult {
	remaining := FreeTryOnLimit - freeUsed
	if remaining < 0 {
		remaining = 0
	}

	result := &response_models.QuotaCheckResult{
		CanUse:    remaining > 0,
		Remaining: remaining,
		Plan:      db_models.PlanFree,
	}
	if remaining == 0 {
		result.Reason = "Free quota exhausted. Upgrade to Premium for unlimited try-ons."
	}
	return result
}

func (q *QuotaService) DecrementQuota(ctx context.Context, userID string) error {
	user, err := q.userRepo.FindByID(ctx, userID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if user == nil {
		return utils.ErrUserNotFound
	}

	if user.IsPremium {
		return q.userRepo.IncrementDailyUsed(ctx, user.ID)
	}
	return q.userRepo.IncrementFreeUsed(ctx, user.ID)
}

func (q *QuotaService) GetUserQuota(ctx context.Context, userID string) (*response_models.QuotaSummary, error) {
	user, err := q.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}

	if user.IsPremium {
		return &response_models.QuotaSummary{
			Used:  user.DailyUsed,
			Limit: PremiumDailyLimit,
			Plan:  db_models.PlanPremium,
		}, nil
	}

	return &response_models.QuotaSummary{
		Used:  user.FreeUsed,
		Limit: FreeTryOnLimit,
		Plan:  db_models.PlanFree,
	}, nil
}
