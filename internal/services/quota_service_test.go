package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drape/internal/models/db_models"
)

func freeUser(freeUsed int) *db_models.User {
	u := &db_models.User{
		Plan:         db_models.PlanFree,
		FreeUsed:     freeUsed,
		DailyResetAt: time.Now().Add(12 * time.Hour).Unix(),
	}
	u.ID = uuid.New()
	return u
}

func premiumUser(dailyUsed int, periodEnd int64) *db_models.User {
	u := &db_models.User{
		Plan:                   db_models.PlanPremium,
		IsPremium:              true,
		DailyUsed:              dailyUsed,
		DailyResetAt:           time.Now().Add(12 * time.Hour).Unix(),
		StripeCurrentPeriodEnd: &periodEnd,
	}
	u.ID = uuid.New()
	return u
}

func TestCheckQuotaFreeUser(t *testing.T) {
	cases := []struct {
		name      string
		freeUsed  int
		canUse    bool
		remaining int
	}{
		{"unused", 0, true, 2},
		{"one used", 1, true, 1},
		{"exhausted", 2, false, 0},
		{"over limit clamps to zero", 5, false, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeUserRepo(freeUser(tc.freeUsed))
			svc := NewQuotaService(repo)

			result, err := svc.CheckQuota(context.Background(), repo.user.ID.String())
			require.NoError(t, err)

			assert.Equal(t, tc.canUse, result.CanUse)
			assert.Equal(t, tc.remaining, result.Remaining)
			assert.Equal(t, db_models.PlanFree, result.Plan)
			if !tc.canUse {
				assert.NotEmpty(t, result.Reason)
			}
		})
	}
}

func TestCheckQuotaBannedUserAlwaysDenied(t *testing.T) {
	user := premiumUser(0, time.Now().Add(24*time.Hour).Unix())
	user.IsBanned = true
	user.BanReason = "abuse"
	repo := newFakeUserRepo(user)
	svc := NewQuotaService(repo)

	result, err := svc.CheckQuota(context.Background(), user.ID.String())
	require.NoError(t, err)

	assert.False(t, result.CanUse)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, "abuse", result.Reason)
}

func TestCheckQuotaExpiredPremiumDowngradesOnRead(t *testing.T) {
	user := premiumUser(40, time.Now().Add(-time.Hour).Unix())
	repo := newFakeUserRepo(user)
	svc := NewQuotaService(repo)

	result, err := svc.CheckQuota(context.Background(), user.ID.String())
	require.NoError(t, err)

	assert.True(t, result.CanUse)
	assert.Equal(t, FreeTryOnLimit, result.Remaining)
	assert.Equal(t, db_models.PlanFree, result.Plan)
	assert.Equal(t, 1, repo.downgradeCalls)

	// Row state after the downgrade: free plan, both counters zeroed.
	assert.False(t, repo.user.IsPremium)
	assert.Equal(t, 0, repo.user.FreeUsed)
	assert.Equal(t, 0, repo.user.DailyUsed)
}

func TestCheckQuotaDailyWindowResetsOneDayFromNow(t *testing.T) {
	user := premiumUser(80, time.Now().Add(24*time.Hour).Unix())
	user.DailyResetAt = time.Now().Add(-time.Minute).Unix()
	repo := newFakeUserRepo(user)
	svc := NewQuotaService(repo)

	before := time.Now()
	result, err := svc.CheckQuota(context.Background(), user.ID.String())
	require.NoError(t, err)

	assert.True(t, result.CanUse)
	assert.Equal(t, "unlimited", result.Remaining)
	assert.Equal(t, 0, repo.user.DailyUsed)

	// Next boundary is anchored on the time of the reset, not on the stale
	// boundary, so a long-idle account does not burn through catch-up resets.
	assert.InDelta(t, before.Add(24*time.Hour).Unix(), repo.user.DailyResetAt, 5)
}

func TestCheckQuotaDailyResetLostRaceRereadsRow(t *testing.T) {
	user := premiumUser(30, time.Now().Add(24*time.Hour).Unix())
	user.DailyResetAt = time.Now().Add(-time.Minute).Unix()
	repo := newFakeUserRepo(user)
	repo.resetApplied = false
	svc := NewQuotaService(repo)

	result, err := svc.CheckQuota(context.Background(), user.ID.String())
	require.NoError(t, err)

	assert.True(t, result.CanUse)
	assert.Equal(t, 1, repo.resetCalls)
}

func TestCheckQuotaPremiumDailyCeiling(t *testing.T) {
	periodEnd := time.Now().Add(24 * time.Hour).Unix()
	user := premiumUser(PremiumDailyLimit, periodEnd)
	repo := newFakeUserRepo(user)
	svc := NewQuotaService(repo)

	result, err := svc.CheckQuota(context.Background(), user.ID.String())
	require.NoError(t, err)

	assert.False(t, result.CanUse)
	assert.Equal(t, "unlimited", result.Remaining)
	assert.Equal(t, db_models.PlanPremium, result.Plan)
	require.NotNil(t, result.RenewsAt)
	assert.Equal(t, user.DailyResetAt, *result.RenewsAt)
	assert.NotEmpty(t, result.Reason)
}

func TestCheckQuotaPremiumUnderCeiling(t *testing.T) {
	periodEnd := time.Now().Add(24 * time.Hour).Unix()
	user := premiumUser(12, periodEnd)
	repo := newFakeUserRepo(user)
	svc := NewQuotaService(repo)

	result, err := svc.CheckQuota(context.Background(), user.ID.String())
	require.NoError(t, err)

	assert.True(t, result.CanUse)
	assert.Equal(t, "unlimited", result.Remaining)
	require.NotNil(t, result.RenewsAt)
	assert.Equal(t, periodEnd, *result.RenewsAt)
}

func TestDecrementQuotaRoutesByPlan(t *testing.T) {
	free := newFakeUserRepo(freeUser(0))
	svc := NewQuotaService(free)
	require.NoError(t, svc.DecrementQuota(context.Background(), free.user.ID.String()))
	assert.Equal(t, 1, free.freeIncrements)
	assert.Equal(t, 0, free.dailyIncrements)

	prem := newFakeUserRepo(premiumUser(0, time.Now().Add(24*time.Hour).Unix()))
	svc = NewQuotaService(prem)
	require.NoError(t, svc.DecrementQuota(context.Background(), prem.user.ID.String()))
	assert.Equal(t, 0, prem.freeIncrements)
	assert.Equal(t, 1, prem.dailyIncrements)
}

func TestGetUserQuotaIsReadOnly(t *testing.T) {
	user := premiumUser(7, time.Now().Add(-time.Hour).Unix())
	repo := newFakeUserRepo(user)
	svc := NewQuotaService(repo)

	summary, err := svc.GetUserQuota(context.Background(), user.ID.String())
	require.NoError(t, err)

	assert.Equal(t, 7, summary.Used)
	assert.Equal(t, PremiumDailyLimit, summary.Limit)
	// Even with an expired period end, the display path never downgrades.
	assert.Equal(t, 0, repo.downgradeCalls)
	assert.True(t, repo.user.IsPremium)
}
