package db_models

type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanPremium Plan = "PREMIUM"
)

type User struct {
	BaseModel
	Name         string
	Email        string `gorm:"uniqueIndex"`
	PasswordHash string
	Role         string `gorm:"default:user"`

	Plan      Plan `gorm:"type:varchar(16);default:FREE;index"`
	IsPremium bool `gorm:"default:false"`

	// Quota counters. FreeUsed only moves up until a plan reset event;
	// DailyUsed is zeroed lazily once now passes DailyResetAt.
	FreeUsed     int `gorm:"default:0"`
	DailyUsed    int `gorm:"default:0"`
	DailyResetAt int64

	IsBanned  bool `gorm:"default:false"`
	BanReason string

	PremiumSince *int64

	// Billing provider references.
	StripeCustomerID       string `gorm:"index"`
	StripeSubscriptionID   string `gorm:"index"`
	StripePriceID          string
	StripeCurrentPeriodEnd *int64

	TryOns []TryOn
}
