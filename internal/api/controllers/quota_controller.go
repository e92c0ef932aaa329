package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"drape/internal/models/response_models"
	"drape/internal/services"
	"drape/pkg/utils"
)

type QuotaController struct {
	quotaService services.QuotaServiceInterface
}

func NewQuotaController(quotaService services.QuotaServiceInterface) *QuotaController {
	return &QuotaController{
		quotaService: quotaService,
	}
}

// GetQuota godoc
// @Summary Get current quota state
// @Description Return the caller's plan, usage and whether a try-on is currently allowed
// @Tags Quota
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /quota [get]
func (q *QuotaController) GetQuota(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		utils.RespondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	check, err := q.quotaService.CheckQuota(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	summary, err := q.quotaService.GetUserQuota(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, &response_models.QuotaResponse{
		CanUse:    check.CanUse,
		Remaining: check.Remaining,
		Plan:      check.Plan,
		RenewsAt:  check.RenewsAt,
		Reason:    check.Reason,
		Used:      summary.Used,
		Limit:     summary.Limit,
	}, "Quota fetched successfully")
}
