package db_models

import "github.com/google/uuid"

type TryOnStatus string

const (
	TryOnStatusPending    TryOnStatus = "PENDING"
	TryOnStatusProcessing TryOnStatus = "PROCESSING"
	TryOnStatusSuccess    TryOnStatus = "SUCCESS"
	TryOnStatusFailed     TryOnStatus = "FAILED"
)

// IsTerminal reports whether no further status transition is allowed.
func (s TryOnStatus) IsTerminal() bool {
	return s == TryOnStatusSuccess || s == TryOnStatusFailed
}

type TryOn struct {
	BaseModel
	UserID uuid.UUID `gorm:"index"`

	InputPhoto   string
	GarmentPhoto string
	// ResultPhoto is set iff Status is SUCCESS.
	ResultPhoto string

	Status TryOnStatus `gorm:"type:varchar(16);index"`

	// Resolution and HasWatermark are frozen from the owner's plan at
	// creation time and never change afterwards.
	Resolution   string
	HasWatermark bool

	AIProvider     string
	ProcessingTime int // seconds
	AICost         float64

	ErrorMessage string

	// Unix seconds; set only for non-premium owners after a successful run.
	ExpiresAt *int64

	User User `gorm:"foreignKey:UserID"`
}
