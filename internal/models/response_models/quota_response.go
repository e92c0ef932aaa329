package response_models

import "drape/internal/models/db_models"

// QuotaCheckResult is the authoritative gating answer. Remaining is either
// an int or the string "unlimited" for premium accounts.
type QuotaCheckResult struct {
	CanUse    bool           `json:"canUse"`
	Remaining interface{}    `json:"remaining"`
	Plan      db_models.Plan `json:"plan"`
	RenewsAt  *int64         `json:"renewsAt,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// QuotaSummary is the display-only projection; reading it performs none of
// the lazy resets CheckQuota does.
type QuotaSummary struct {
	Used  int            `json:"used"`
	Limit interface{}    `json:"limit"`
	Plan  db_models.Plan `json:"plan"`
}

type QuotaResponse struct {
	CanUse    bool           `json:"canUse"`
	Remaining interface{}    `json:"remaining"`
	Plan      db_models.Plan `json:"plan"`
	Used      int            `json:"used"`
	Limit     interface{}    `json:"limit"`
	RenewsAt  *int64         `json:"renewsAt,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}
