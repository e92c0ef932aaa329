package request_models

type BanUserRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Reason string `json:"reason"`
}

type UnbanUserRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type GrantCreditsRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}
