package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drape/internal/models/db_models"
)

type billingFixture struct {
	svc         BillingServiceInterface
	userRepo    *fakeUserRepo
	paymentRepo *fakePaymentRepo
	usageRepo   *fakeUsageRepo
	gateway     *fakeStripeGateway
}

func newBillingFixture(user *db_models.User) *billingFixture {
	f := &billingFixture{
		userRepo:    newFakeUserRepo(user),
		paymentRepo: newFakePaymentRepo(),
		usageRepo:   &fakeUsageRepo{},
		gateway:     &fakeStripeGateway{checkoutURL: "https://checkout.test/session"},
	}
	f.svc = NewBillingService(f.userRepo, f.paymentRepo, f.usageRepo, f.gateway)
	return f
}

func TestApplySubscriptionCreatedUpgradesUser(t *testing.T) {
	user := freeUser(2)
	f := newBillingFixture(user)
	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()

	event := &BillingEvent{
		Kind:              BillingSubscriptionCreated,
		UserID:            user.ID.String(),
		CustomerID:        "cus_123",
		SubscriptionID:    "sub_123",
		PriceID:           "price_123",
		PeriodEnd:         periodEnd,
		ProviderPaymentID: "pi_123",
		AmountMinor:       999,
		Currency:          "usd",
	}
	require.NoError(t, f.svc.Apply(context.Background(), event))

	assert.True(t, f.userRepo.user.IsPremium)
	assert.Equal(t, db_models.PlanPremium, f.userRepo.user.Plan)
	assert.Equal(t, "sub_123", f.userRepo.user.StripeSubscriptionID)
	require.NotNil(t, f.userRepo.user.StripeCurrentPeriodEnd)
	assert.Equal(t, periodEnd, *f.userRepo.user.StripeCurrentPeriodEnd)
	assert.NotNil(t, f.userRepo.user.PremiumSince)
	assert.Equal(t, 0, f.userRepo.user.DailyUsed)
	assert.Equal(t, []string{db_models.UsageSubscriptionStarted}, f.usageRepo.actions())
}

func TestApplySubscriptionCreatedReplayIsIdempotent(t *testing.T) {
	user := freeUser(0)
	f := newBillingFixture(user)
	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()

	event := &BillingEvent{
		Kind:              BillingSubscriptionCreated,
		UserID:            user.ID.String(),
		SubscriptionID:    "sub_123",
		PriceID:           "price_123",
		PeriodEnd:         periodEnd,
		ProviderPaymentID: "pi_123",
	}
	require.NoError(t, f.svc.Apply(context.Background(), event))
	firstPremiumSince := *f.userRepo.user.PremiumSince

	replay := *event
	require.NoError(t, f.svc.Apply(context.Background(), &replay))

	// Same state after the replay, one payment row, one analytics event.
	assert.Equal(t, firstPremiumSince, *f.userRepo.user.PremiumSince)
	assert.Len(t, f.paymentRepo.payments, 1)
	assert.Equal(t, []string{db_models.UsageSubscriptionStarted}, f.usageRepo.actions())
}

func TestApplySubscriptionCreatedResolvesMissingFieldsFromProvider(t *testing.T) {
	user := freeUser(0)
	f := newBillingFixture(user)
	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	f.gateway.sub = &SubscriptionInfo{
		PeriodEnd: periodEnd,
		PriceID:   "price_from_api",
		Status:    "active",
		Metadata:  map[string]string{"userId": user.ID.String()},
	}

	event := &BillingEvent{
		Kind:           BillingSubscriptionCreated,
		SubscriptionID: "sub_123",
	}
	require.NoError(t, f.svc.Apply(context.Background(), event))

	assert.Equal(t, 1, f.gateway.subCalls)
	assert.True(t, f.userRepo.user.IsPremium)
	assert.Equal(t, "price_from_api", f.userRepo.user.StripePriceID)
	require.NotNil(t, f.userRepo.user.StripeCurrentPeriodEnd)
	assert.Equal(t, periodEnd, *f.userRepo.user.StripeCurrentPeriodEnd)
}

func TestApplyPaymentSucceededRenewsAndDedupes(t *testing.T) {
	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	user := premiumUser(55, time.Now().Add(time.Hour).Unix())
	f := newBillingFixture(user)

	event := &BillingEvent{
		Kind:              BillingPaymentSucceeded,
		UserID:            user.ID.String(),
		SubscriptionID:    "sub_123",
		PeriodEnd:         periodEnd,
		ProviderPaymentID: "pi_renewal",
		ProviderInvoiceID: "in_1",
		AmountMinor:       999,
		Currency:          "usd",
		BillingReason:     "subscription_cycle",
	}
	require.NoError(t, f.svc.Apply(context.Background(), event))

	require.NotNil(t, f.userRepo.user.StripeCurrentPeriodEnd)
	assert.Equal(t, periodEnd, *f.userRepo.user.StripeCurrentPeriodEnd)
	assert.Equal(t, 0, f.userRepo.user.DailyUsed)
	assert.Len(t, f.paymentRepo.payments, 1)

	replay := *event
	require.NoError(t, f.svc.Apply(context.Background(), &replay))
	assert.Len(t, f.paymentRepo.payments, 1)
}

func TestApplyPaymentFailedIsAnalyticsOnly(t *testing.T) {
	periodEnd := time.Now().Add(10 * 24 * time.Hour).Unix()
	user := premiumUser(0, periodEnd)
	f := newBillingFixture(user)

	event := &BillingEvent{
		Kind:              BillingPaymentFailed,
		UserID:            user.ID.String(),
		ProviderInvoiceID: "in_failed",
		AmountMinor:       999,
		Currency:          "usd",
	}
	require.NoError(t, f.svc.Apply(context.Background(), event))

	// Access is untouched; the lapse is handled lazily by the quota path.
	assert.True(t, f.userRepo.user.IsPremium)
	require.NotNil(t, f.userRepo.user.StripeCurrentPeriodEnd)
	assert.Equal(t, periodEnd, *f.userRepo.user.StripeCurrentPeriodEnd)
	assert.Equal(t, []string{db_models.UsagePaymentFailed}, f.usageRepo.actions())
}

func TestApplyCancellationIsIdempotent(t *testing.T) {
	user := premiumUser(12, time.Now().Add(24*time.Hour).Unix())
	user.FreeUsed = 2
	f := newBillingFixture(user)

	event := &BillingEvent{
		Kind:           BillingSubscriptionCancelled,
		UserID:         user.ID.String(),
		SubscriptionID: "sub_123",
	}
	require.NoError(t, f.svc.Apply(context.Background(), event))

	assert.False(t, f.userRepo.user.IsPremium)
	assert.Equal(t, db_models.PlanFree, f.userRepo.user.Plan)
	assert.Empty(t, f.userRepo.user.StripeSubscriptionID)
	assert.Equal(t, 0, f.userRepo.user.FreeUsed)
	assert.Equal(t, 0, f.userRepo.user.DailyUsed)

	replay := *event
	require.NoError(t, f.svc.Apply(context.Background(), &replay))
	assert.False(t, f.userRepo.user.IsPremium)
	assert.Equal(t, 2, f.userRepo.cancelCalls)
}

func TestApplySubscriptionUpdatedTracksStatus(t *testing.T) {
	user := premiumUser(0, time.Now().Add(time.Hour).Unix())
	f := newBillingFixture(user)
	newEnd := time.Now().Add(60 * 24 * time.Hour).Unix()

	require.NoError(t, f.svc.Apply(context.Background(), &BillingEvent{
		Kind:           BillingSubscriptionUpdated,
		UserID:         user.ID.String(),
		SubscriptionID: "sub_123",
		PeriodEnd:      newEnd,
		ProviderStatus: "past_due",
	}))
	assert.False(t, f.userRepo.user.IsPremium)

	require.NoError(t, f.svc.Apply(context.Background(), &BillingEvent{
		Kind:           BillingSubscriptionUpdated,
		UserID:         user.ID.String(),
		SubscriptionID: "sub_123",
		PeriodEnd:      newEnd,
		ProviderStatus: "active",
	}))
	assert.True(t, f.userRepo.user.IsPremium)
	require.NotNil(t, f.userRepo.user.StripeCurrentPeriodEnd)
	assert.Equal(t, newEnd, *f.userRepo.user.StripeCurrentPeriodEnd)
}

func TestApplyUnknownEventKindIsAcked(t *testing.T) {
	f := newBillingFixture(freeUser(0))
	assert.NoError(t, f.svc.Apply(context.Background(), &BillingEvent{Kind: "something_else"}))
}

func TestCreateCheckoutRejectsExistingPremium(t *testing.T) {
	user := premiumUser(0, time.Now().Add(24*time.Hour).Unix())
	f := newBillingFixture(user)

	_, err := f.svc.CreateCheckout(context.Background(), user.ID.String())
	assert.Error(t, err)
}

func TestCreateCheckoutReturnsSessionURL(t *testing.T) {
	user := freeUser(2)
	f := newBillingFixture(user)

	url, err := f.svc.CreateCheckout(context.Background(), user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/session", url)
}
