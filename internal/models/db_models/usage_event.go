package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Usage event actions recorded by the core flows.
const (
	UsageTryOnSuccess          = "tryon_success"
	UsageTryOnFailed           = "tryon_failed"
	UsageSubscriptionStarted   = "subscription_started"
	UsagePaymentFailed         = "payment_failed"
	UsageSubscriptionCancelled = "subscription_cancelled"
	UsageModerationDelete      = "moderation_delete"
	UsageAdminBan              = "admin_ban"
	UsageAdminUnban            = "admin_unban"
	UsageAdminCreditGrant      = "admin_credit_grant"
)

// UsageEvent is the append-only analytics log.
type UsageEvent struct {
	BaseModel
	UserID   uuid.UUID      `gorm:"index"`
	Action   string         `gorm:"index"`
	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}
