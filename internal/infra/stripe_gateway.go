package infra

import (
	"context"
	"errors"
	"os"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/subscription"

	"drape/internal/services"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

func LoadStripeConfig() StripeConfig {
	return StripeConfig{
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PriceID:       os.Getenv("STRIPE_PRICE_ID"),
		SuccessURL:    os.Getenv("STRIPE_SUCCESS_URL"),
		CancelURL:     os.Getenv("STRIPE_CANCEL_URL"),
	}
}

type stripeGateway struct {
	config StripeConfig
}

func NewStripeGateway(config StripeConfig) services.StripeGateway {
	stripe.Key = config.SecretKey
	return &stripeGateway{config: config}
}

func (g *stripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*services.SubscriptionInfo, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	s, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, err
	}

	info := &services.SubscriptionInfo{
		Status:   string(s.Status),
		Metadata: s.Metadata,
	}
	if s.Items != nil && len(s.Items.Data) > 0 {
		item := s.Items.Data[0]
		info.PeriodEnd = item.CurrentPeriodEnd
		if item.Price != nil {
			info.PriceID = item.Price.ID
		}
	}
	return info, nil
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, userID, email string) (string, error) {
	if g.config.PriceID == "" {
		return "", errors.New("stripe price id not configured")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(email),
		SuccessURL:    stripe.String(g.config.SuccessURL),
		CancelURL:     stripe.String(g.config.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(g.config.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"userId": userID},
		},
	}
	params.Context = ctx
	params.AddMetadata("userId", userID)

	s, err := session.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}
