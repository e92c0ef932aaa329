package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"drape/internal/services"
	"drape/pkg/ratelimit"
	"drape/pkg/utils"
)

const maxUploadBytes = 10 << 20

type TryOnController struct {
	tryOnService services.TryOnServiceInterface
	limiter      ratelimit.Limiter
}

func NewTryOnController(tryOnService services.TryOnServiceInterface, limiter ratelimit.Limiter) *TryOnController {
	return &TryOnController{
		tryOnService: tryOnService,
		limiter:      limiter,
	}
}

// StartTryOn godoc
// @Summary Start a virtual try-on
// @Description Upload a person photo and a garment photo and start an async generation job
// @Tags TryOn
// @Accept multipart/form-data
// @Produce json
// @Param personImage formData file true "Photo of the person"
// @Param clothImage formData file true "Photo of the garment"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 429 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tryon [post]
func (t *TryOnController) StartTryOn(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		utils.RespondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	allowed, err := t.limiter.Allow(c.Request.Context(), userID)
	if err != nil {
		// A broken limiter should not take the product down.
		allowed = true
	}
	if !allowed {
		utils.RespondError(c, http.StatusTooManyRequests, "Please wait 30 seconds between generations")
		return
	}

	person, err := readUpload(c, "personImage")
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	garment, err := readUpload(c, "clothImage")
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	result, err := t.tryOnService.StartTryOn(c.Request.Context(), userID, person, garment)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Generation started")
}

func readUpload(c *gin.Context, field string) (*services.ImageUpload, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, utils.ErrInvalidInput
	}
	if fileHeader.Size > maxUploadBytes {
		return nil, utils.ErrImageTooLarge
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, utils.ErrInvalidInput
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, utils.ErrInvalidInput
	}

	return &services.ImageUpload{
		Data:     data,
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
	}, nil
}

// GetTryOn godoc
// @Summary Get a try-on job
// @Description Fetch one try-on job by id; owners only
// @Tags TryOn
// @Produce json
// @Param id path string true "Try-on id"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tryon/{id} [get]
func (t *TryOnController) GetTryOn(c *gin.Context) {
	userID := c.GetString("user_id")
	id := c.Param("id")

	result, err := t.tryOnService.GetTryOn(c.Request.Context(), id, userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Try-on fetched successfully")
}

// ListTryOns godoc
// @Summary List try-on history
// @Description Fetch the caller's try-on jobs, newest first
// @Tags TryOn
// @Produce json
// @Param limit query int false "Max results (default 50, cap 100)"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /tryons [get]
func (t *TryOnController) ListTryOns(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	results, err := t.tryOnService.ListTryOns(c.Request.Context(), userID, limit)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, results, "Try-ons fetched successfully")
}
