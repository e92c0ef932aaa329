package utils

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	if v, ok := c.Get("trace_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

func HandleServiceError(c *gin.Context, err error) {
	var quotaErr *QuotaExceededError
	if errors.As(err, &quotaErr) {
		c.JSON(http.StatusForbidden, APIResponse{
			Status:  "error",
			Code:    http.StatusForbidden,
			Message: "Quota exceeded",
			TraceID: traceID(c),
			Data: gin.H{
				"reason":    quotaErr.Reason,
				"remaining": quotaErr.Remaining,
				"plan":      quotaErr.Plan,
			},
		})
		return
	}

	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrTryOnNotFound):
		RespondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		RespondError(c, http.StatusForbidden, "Forbidden")
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrImageTooLarge),
		errors.Is(err, ErrImageRejected):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRateLimited):
		RespondError(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, ErrInvalidSignature):
		RespondError(c, http.StatusBadRequest, "Invalid signature")
	case errors.Is(err, ErrEmailAlreadyExists):
		RespondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		RespondError(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, ErrDatabaseError):
		log.Printf("Database error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		log.Printf("Unknown error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
