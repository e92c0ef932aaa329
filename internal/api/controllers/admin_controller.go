package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"drape/internal/models/request_models"
	"drape/internal/services"
	"drape/pkg/utils"
)

type AdminController struct {
	adminService services.AdminServiceInterface
}

func NewAdminController(adminService services.AdminServiceInterface) *AdminController {
	return &AdminController{
		adminService: adminService,
	}
}

// BanUser godoc
// @Summary Ban a user
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body request_models.BanUserRequest true "Ban payload"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/users/ban [post]
func (a *AdminController) BanUser(c *gin.Context) {
	var req request_models.BanUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := a.adminService.BanUser(c.Request.Context(), userID, req.Reason); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "User banned")
}

// UnbanUser godoc
// @Summary Unban a user
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body request_models.UnbanUserRequest true "Unban payload"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/users/unban [post]
func (a *AdminController) UnbanUser(c *gin.Context) {
	var req request_models.UnbanUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := a.adminService.UnbanUser(c.Request.Context(), userID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "User unbanned")
}

// GrantCredits godoc
// @Summary Restore a user's free try-on allowance
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body request_models.GrantCreditsRequest true "Credit grant payload"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/users/credits [post]
func (a *AdminController) GrantCredits(c *gin.Context) {
	var req request_models.GrantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	if err := a.adminService.GrantFreeCredits(c.Request.Context(), userID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Free credits restored")
}

// DeleteTryOn godoc
// @Summary Delete a try-on job and its images
// @Tags Admin
// @Produce json
// @Param id path string true "Try-on id"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/tryons/{id} [delete]
func (a *AdminController) DeleteTryOn(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid try-on id")
		return
	}

	if err := a.adminService.DeleteTryOn(c.Request.Context(), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Try-on deleted")
}

// PurgeExpired godoc
// @Summary Purge expired try-on results
// @Tags Admin
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/tryons/purge-expired [post]
func (a *AdminController) PurgeExpired(c *gin.Context) {
	purged, err := a.adminService.PurgeExpired(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, gin.H{"purged": purged}, "Expired try-ons purged")
}
