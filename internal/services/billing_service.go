package services

import (
	"context"
	"log"

	"github.com/google/uuid"

	"drape/internal/models/db_models"
	"drape/internal/repositories"
	"drape/pkg/utils"
)

// BillingEventKind is the normalized provider event type. Controllers map
// raw webhook payloads onto these before calling Apply.
type BillingEventKind string

const (
	BillingSubscriptionCreated   BillingEventKind = "subscription_created"
	BillingPaymentSucceeded      BillingEventKind = "payment_succeeded"
	BillingPaymentFailed         BillingEventKind = "payment_failed"
	BillingSubscriptionCancelled BillingEventKind = "subscription_cancelled"
	BillingSubscriptionUpdated   BillingEventKind = "subscription_updated"
)

// BillingEvent carries the fields the applier needs, already extracted from
// the provider payload. Fields missing from the payload are resolved against
// the provider API inside Apply.
type BillingEvent struct {
	Kind              BillingEventKind
	UserID            string
	CustomerID        string
	SubscriptionID    string
	PriceID           string
	PeriodEnd         int64
	ProviderPaymentID string
	ProviderInvoiceID string
	AmountMinor       int64
	Currency          string
	BillingReason     string
	ProviderStatus    string
}

// SubscriptionInfo is the subset of a provider subscription the applier
// reads back when the webhook payload is incomplete.
type SubscriptionInfo struct {
	PeriodEnd int64
	PriceID   string
	Status    string
	Metadata  map[string]string
}

// StripeGateway wraps the provider API calls billing needs. Kept small so
// tests can fake it.
type StripeGateway interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionInfo, error)
	CreateCheckoutSession(ctx context.Context, userID, email string) (string, error)
}

type BillingServiceInterface interface {
	// Apply folds one provider event into user and payment state. Events
	// may be delivered more than once and out of order; Apply must
	// converge to the same state regardless.
	Apply(ctx context.Context, event *BillingEvent) error

	CreateCheckout(ctx context.Context, userID string) (string, error)
}

type BillingService struct {
	userRepo    repositories.UserRepository
	paymentRepo repositories.PaymentRepository
	usageRepo   repositories.UsageRepository
	gateway     StripeGateway
}

func NewBillingService(
	userRepo repositories.UserRepository,
	paymentRepo repositories.PaymentRepository,
	usageRepo repositories.UsageRepository,
	gateway StripeGateway,
) BillingServiceInterface {
	return &BillingService{
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		usageRepo:   usageRepo,
		gateway:     gateway,
	}
}

func (b *BillingService) Apply(ctx context.Context, event *BillingEvent) error {
	switch event.Kind {
	case BillingSubscriptionCreated:
		return b.applyCreated(ctx, event)
	case BillingPaymentSucceeded:
		return b.applyPaymentSucceeded(ctx, event)
	case BillingPaymentFailed:
		return b.applyPaymentFailed(ctx, event)
	case BillingSubscriptionCancelled:
		return b.applyCancelled(ctx, event)
	case BillingSubscriptionUpdated:
		return b.applyUpdated(ctx, event)
	default:
		// Unrecognized events are acknowledged, not retried.
		log.Printf("billing: ignoring event kind %q", event.Kind)
		return nil
	}
}

// applyCreated handles initial checkout completion. The checkout payload may
// omit the period end and price, so they are read back from the provider.
func (b *BillingService) applyCreated(ctx context.Context, event *BillingEvent) error {
	if event.SubscriptionID == "" {
		return utils.ErrInvalidInput
	}

	if event.PeriodEnd == 0 || event.PriceID == "" || event.UserID == "" {
		sub, err := b.gateway.GetSubscription(ctx, event.SubscriptionID)
		if err != nil {
			return err
		}
		if event.PeriodEnd == 0 {
			event.PeriodEnd = sub.PeriodEnd
		}
		if event.PriceID == "" {
			event.PriceID = sub.PriceID
		}
		if event.UserID == "" {
			event.UserID = sub.Metadata["userId"]
		}
	}

	uid, err := uuid.Parse(event.UserID)
	if err != nil {
		return utils.ErrInvalidInput
	}

	// Idempotent: a replay overwrites the same subscription fields with
	// the same values, and premium_since keeps its first value.
	if err := b.userRepo.ApplyUpgrade(ctx, uid, event.CustomerID, event.SubscriptionID, event.PriceID, event.PeriodEnd); err != nil {
		return utils.ErrDatabaseError
	}

	if event.ProviderPaymentID != "" {
		inserted, err := b.recordPayment(ctx, uid, event)
		if err != nil {
			return err
		}
		if inserted {
			b.recordUsage(ctx, uid, db_models.UsageSubscriptionStarted, map[string]interface{}{
				"subscription_id": event.SubscriptionID,
				"price_id":        event.PriceID,
			})
		}
		return nil
	}

	b.recordUsage(ctx, uid, db_models.UsageSubscriptionStarted, map[string]interface{}{
		"subscription_id": event.SubscriptionID,
		"price_id":        event.PriceID,
	})
	return nil
}

// applyPaymentSucceeded handles renewals. The invoice carries no user id of
// its own, so it is resolved through the subscription metadata when absent.
func (b *BillingService) applyPaymentSucceeded(ctx context.Context, event *BillingEvent) error {
	if event.UserID == "" {
		if event.SubscriptionID == "" {
			return utils.ErrInvalidInput
		}
		sub, err := b.gateway.GetSubscription(ctx, event.SubscriptionID)
		if err != nil {
			return err
		}
		event.UserID = sub.Metadata["userId"]
		if event.PeriodEnd == 0 {
			event.PeriodEnd = sub.PeriodEnd
		}
	}

	uid, err := uuid.Parse(event.UserID)
	if err != nil {
		return utils.ErrInvalidInput
	}

	if event.PeriodEnd > 0 {
		if err := b.userRepo.ApplyRenewal(ctx, uid, event.PeriodEnd); err != nil {
			return utils.ErrDatabaseError
		}
	}

	if event.ProviderPaymentID != "" {
		if _, err := b.recordPayment(ctx, uid, event); err != nil {
			return err
		}
	}
	return nil
}

// applyPaymentFailed records the failure for analytics only. Access is not
// revoked here; the expiry downgrade in the quota path handles lapses.
func (b *BillingService) applyPaymentFailed(ctx context.Context, event *BillingEvent) error {
	if event.UserID == "" && event.SubscriptionID != "" {
		sub, err := b.gateway.GetSubscription(ctx, event.SubscriptionID)
		if err != nil {
			return err
		}
		event.UserID = sub.Metadata["userId"]
	}

	uid, err := uuid.Parse(event.UserID)
	if err != nil {
		return utils.ErrInvalidInput
	}

	b.recordUsage(ctx, uid, db_models.UsagePaymentFailed, map[string]interface{}{
		"invoice_id": event.ProviderInvoiceID,
		"amount":     event.AmountMinor,
		"currency":   event.Currency,
	})
	return nil
}

func (b *BillingService) applyCancelled(ctx context.Context, event *BillingEvent) error {
	if event.UserID == "" {
		if event.SubscriptionID == "" {
			return utils.ErrInvalidInput
		}
		sub, err := b.gateway.GetSubscription(ctx, event.SubscriptionID)
		if err != nil {
			return err
		}
		event.UserID = sub.Metadata["userId"]
	}

	uid, err := uuid.Parse(event.UserID)
	if err != nil {
		return utils.ErrInvalidInput
	}

	// Cancelling twice lands on the same FREE state both times.
	if err := b.userRepo.ApplyCancellation(ctx, uid); err != nil {
		return utils.ErrDatabaseError
	}

	b.recordUsage(ctx, uid, db_models.UsageSubscriptionCancelled, map[string]interface{}{
		"subscription_id": event.SubscriptionID,
	})
	return nil
}

func (b *BillingService) applyUpdated(ctx context.Context, event *BillingEvent) error {
	if event.UserID == "" {
		if event.SubscriptionID == "" {
			return utils.ErrInvalidInput
		}
		sub, err := b.gateway.GetSubscription(ctx, event.SubscriptionID)
		if err != nil {
			return err
		}
		event.UserID = sub.Metadata["userId"]
		if event.PeriodEnd == 0 {
			event.PeriodEnd = sub.PeriodEnd
		}
		if event.ProviderStatus == "" {
			event.ProviderStatus = sub.Status
		}
	}

	uid, err := uuid.Parse(event.UserID)
	if err != nil {
		return utils.ErrInvalidInput
	}

	active := event.ProviderStatus == "active" || event.ProviderStatus == "trialing"
	if err := b.userRepo.UpdatePeriodEnd(ctx, uid, event.PeriodEnd, active); err != nil {
		return utils.ErrDatabaseError
	}
	return nil
}

// recordPayment inserts the payment keyed on the provider payment id.
// Returns true only for the delivery that actually inserted the row.
func (b *BillingService) recordPayment(ctx context.Context, userID uuid.UUID, event *BillingEvent) (bool, error) {
	inserted, err := b.paymentRepo.InsertIfAbsent(ctx, &db_models.Payment{
		UserID:            userID,
		ProviderPaymentID: event.ProviderPaymentID,
		ProviderInvoiceID: event.ProviderInvoiceID,
		AmountMinor:       event.AmountMinor,
		Currency:          event.Currency,
		Status:            "succeeded",
		BillingReason:     event.BillingReason,
	})
	if err != nil {
		return false, utils.ErrDatabaseError
	}
	return inserted, nil
}

// recordUsage is best effort; analytics never fail a webhook.
func (b *BillingService) recordUsage(ctx context.Context, userID uuid.UUID, action string, metadata map[string]interface{}) {
	if err := b.usageRepo.Record(ctx, userID, action, metadata); err != nil {
		log.Printf("billing: usage record %s failed: %v", action, err)
	}
}

func (b *BillingService) CreateCheckout(ctx context.Context, userID string) (string, error) {
	user, err := b.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", utils.ErrDatabaseError
	}
	if user == nil {
		return "", utils.ErrUserNotFound
	}
	if user.IsPremium {
		return "", utils.ErrInvalidInput
	}

	return b.gateway.CreateCheckoutSession(ctx, userID, user.Email)
}
