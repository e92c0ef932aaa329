package response_models

import (
	"drape/internal/models/db_models"

	"github.com/google/uuid"
)

type StartTryOnResponse struct {
	TryOnID uuid.UUID `json:"tryOnId"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

type TryOnResponse struct {
	ID             uuid.UUID             `json:"id"`
	Status         db_models.TryOnStatus `json:"status"`
	InputPhoto     string                `json:"inputPhoto"`
	GarmentPhoto   string                `json:"garmentPhoto"`
	ResultPhoto    string                `json:"resultPhoto,omitempty"`
	Resolution     string                `json:"resolution"`
	HasWatermark   bool                  `json:"hasWatermark"`
	AIProvider     string                `json:"aiProvider"`
	ProcessingTime int                   `json:"processingTime,omitempty"`
	ErrorMessage   string                `json:"errorMessage,omitempty"`
	CreatedAt      int64                 `json:"createdAt"`
	ExpiresAt      *int64                `json:"expiresAt,omitempty"`
}

func ToTryOnResponse(t *db_models.TryOn) *TryOnResponse {
	return &TryOnResponse{
		ID:             t.ID,
		Status:         t.Status,
		InputPhoto:     t.InputPhoto,
		GarmentPhoto:   t.GarmentPhoto,
		ResultPhoto:    t.ResultPhoto,
		Resolution:     t.Resolution,
		HasWatermark:   t.HasWatermark,
		AIProvider:     t.AIProvider,
		ProcessingTime: t.ProcessingTime,
		ErrorMessage:   t.ErrorMessage,
		CreatedAt:      t.CreatedAt,
		ExpiresAt:      t.ExpiresAt,
	}
}
