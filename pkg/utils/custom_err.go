package utils

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTryOnNotFound      = errors.New("try-on not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrImageTooLarge      = errors.New("images must be under 10MB")
	ErrImageRejected      = errors.New("image rejected by content screening")
	ErrRateLimited        = errors.New("please wait 30 seconds between generations")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrDatabaseError      = errors.New("database error")
)

// QuotaExceededError carries the ledger's answer so callers can surface an
// actionable reason instead of a generic error.
type QuotaExceededError struct {
	Remaining interface{}
	Plan      string
	Reason    string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %s", e.Reason)
}
