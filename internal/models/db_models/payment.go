package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Payment is an append-only ledger row. ProviderPaymentID carries the
// provider's unique payment id so webhook redelivery cannot duplicate it.
type Payment struct {
	BaseModel
	UserID uuid.UUID `gorm:"index"`

	ProviderPaymentID string `gorm:"uniqueIndex"`
	ProviderInvoiceID string `gorm:"index"`

	AmountMinor   int64
	Currency      string `gorm:"size:3"`
	Status        string
	BillingReason string

	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	User User `gorm:"foreignKey:UserID"`
}
