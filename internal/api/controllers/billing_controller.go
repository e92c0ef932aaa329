package controllers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82/webhook"

	"drape/internal/services"
	"drape/pkg/utils"
)

type BillingController struct {
	billingService services.BillingServiceInterface
	webhookSecret  string
}

func NewBillingController(billingService services.BillingServiceInterface, webhookSecret string) *BillingController {
	return &BillingController{
		billingService: billingService,
		webhookSecret:  webhookSecret,
	}
}

// Webhook payloads are decoded into local structs rather than the SDK's
// event types; only the handful of fields the applier needs are read, and
// they survive provider API version drift.
type checkoutSessionPayload struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type invoicePayload struct {
	ID            string            `json:"id"`
	Customer      string            `json:"customer"`
	Subscription  string            `json:"subscription"`
	PaymentIntent string            `json:"payment_intent"`
	AmountPaid    int64             `json:"amount_paid"`
	AmountDue     int64             `json:"amount_due"`
	Currency      string            `json:"currency"`
	BillingReason string            `json:"billing_reason"`
	Metadata      map[string]string `json:"metadata"`
	Lines         struct {
		Data []struct {
			Period struct {
				End int64 `json:"end"`
			} `json:"period"`
		} `json:"data"`
	} `json:"lines"`
}

type subscriptionPayload struct {
	ID               string            `json:"id"`
	Customer         string            `json:"customer"`
	Status           string            `json:"status"`
	Metadata         map[string]string `json:"metadata"`
	CurrentPeriodEnd int64             `json:"current_period_end"`
	Items            struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
			Price            struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func (s *subscriptionPayload) periodEnd() int64 {
	if s.CurrentPeriodEnd > 0 {
		return s.CurrentPeriodEnd
	}
	if len(s.Items.Data) > 0 {
		return s.Items.Data[0].CurrentPeriodEnd
	}
	return 0
}

// HandleStripeWebhook godoc
// @Summary Stripe webhook receiver
// @Description Verifies the signature and applies subscription lifecycle events
// @Tags Billing
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {object} utils.APIResponse
// @Router /webhook/stripe [post]
func (b *BillingController) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), b.webhookSecret)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid webhook signature")
		return
	}

	billingEvent, err := b.toBillingEvent(string(event.Type), event.Data.Raw)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Malformed event payload")
		return
	}

	if billingEvent != nil {
		if err := b.billingService.Apply(c.Request.Context(), billingEvent); err != nil {
			log.Printf("stripe webhook: apply %s failed: %v", event.Type, err)
			utils.RespondError(c, http.StatusInternalServerError, "Failed to process event")
			return
		}
	}

	// Always ack with the shape Stripe expects, including for event types
	// this service does not care about.
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (b *BillingController) toBillingEvent(eventType string, raw json.RawMessage) (*services.BillingEvent, error) {
	switch eventType {
	case "checkout.session.completed":
		var session checkoutSessionPayload
		if err := json.Unmarshal(raw, &session); err != nil {
			return nil, err
		}
		return &services.BillingEvent{
			Kind:           services.BillingSubscriptionCreated,
			UserID:         session.Metadata["userId"],
			CustomerID:     session.Customer,
			SubscriptionID: session.Subscription,
		}, nil

	case "invoice.payment_succeeded":
		var invoice invoicePayload
		if err := json.Unmarshal(raw, &invoice); err != nil {
			return nil, err
		}
		event := &services.BillingEvent{
			Kind:              services.BillingPaymentSucceeded,
			UserID:            invoice.Metadata["userId"],
			CustomerID:        invoice.Customer,
			SubscriptionID:    invoice.Subscription,
			ProviderPaymentID: invoice.PaymentIntent,
			ProviderInvoiceID: invoice.ID,
			AmountMinor:       invoice.AmountPaid,
			Currency:          invoice.Currency,
			BillingReason:     invoice.BillingReason,
		}
		if event.ProviderPaymentID == "" {
			event.ProviderPaymentID = invoice.ID
		}
		if len(invoice.Lines.Data) > 0 {
			event.PeriodEnd = invoice.Lines.Data[0].Period.End
		}
		return event, nil

	case "invoice.payment_failed":
		var invoice invoicePayload
		if err := json.Unmarshal(raw, &invoice); err != nil {
			return nil, err
		}
		return &services.BillingEvent{
			Kind:              services.BillingPaymentFailed,
			UserID:            invoice.Metadata["userId"],
			CustomerID:        invoice.Customer,
			SubscriptionID:    invoice.Subscription,
			ProviderInvoiceID: invoice.ID,
			AmountMinor:       invoice.AmountDue,
			Currency:          invoice.Currency,
		}, nil

	case "customer.subscription.deleted":
		var sub subscriptionPayload
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, err
		}
		return &services.BillingEvent{
			Kind:           services.BillingSubscriptionCancelled,
			UserID:         sub.Metadata["userId"],
			CustomerID:     sub.Customer,
			SubscriptionID: sub.ID,
		}, nil

	case "customer.subscription.updated":
		var sub subscriptionPayload
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, err
		}
		return &services.BillingEvent{
			Kind:           services.BillingSubscriptionUpdated,
			UserID:         sub.Metadata["userId"],
			CustomerID:     sub.Customer,
			SubscriptionID: sub.ID,
			PeriodEnd:      sub.periodEnd(),
			ProviderStatus: sub.Status,
		}, nil

	default:
		return nil, nil
	}
}

// CreateCheckout godoc
// @Summary Create a premium checkout session
// @Description Start a subscription checkout and return the redirect URL
// @Tags Billing
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /billing/checkout [post]
func (b *BillingController) CreateCheckout(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		utils.RespondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	url, err := b.billingService.CreateCheckout(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, gin.H{"url": url}, "Checkout session created")
}
