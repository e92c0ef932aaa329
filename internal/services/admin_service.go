package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"drape/internal/models/db_models"
	"drape/internal/repositories"
	"drape/pkg/storage"
	"drape/pkg/utils"
)

type AdminServiceInterface interface {
	BanUser(ctx context.Context, userID uuid.UUID, reason string) error
	UnbanUser(ctx context.Context, userID uuid.UUID) error

	// GrantFreeCredits restores the free allowance for a user, typically
	// after a support ticket.
	GrantFreeCredits(ctx context.Context, userID uuid.UUID) error

	// DeleteTryOn removes a job and its stored images for moderation.
	DeleteTryOn(ctx context.Context, tryOnID uuid.UUID) error

	// PurgeExpired deletes all jobs past their retention window and
	// returns how many were removed.
	PurgeExpired(ctx context.Context) (int, error)
}

type AdminService struct {
	userRepo  repositories.UserRepository
	tryOnRepo repositories.TryOnRepository
	usageRepo repositories.UsageRepository
	store     storage.ImageStore
}

func NewAdminService(
	userRepo repositories.UserRepository,
	tryOnRepo repositories.TryOnRepository,
	usageRepo repositories.UsageRepository,
	store storage.ImageStore,
) AdminServiceInterface {
	return &AdminService{
		userRepo:  userRepo,
		tryOnRepo: tryOnRepo,
		usageRepo: usageRepo,
		store:     store,
	}
}

func (a *AdminService) BanUser(ctx context.Context, userID uuid.UUID, reason string) error {
	user, err := a.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		return utils.ErrDatabaseError
	}
	if user == nil {
		return utils.ErrUserNotFound
	}

	if err := a.userRepo.SetBanned(ctx, userID, true, reason); err != nil {
		return utils.ErrDatabaseError
	}

	a.recordUsage(ctx, userID, db_models.UsageAdminBan, map[string]interface{}{
		"reason": reason,
	})
	return nil
}

func (a *AdminService) UnbanUser(ctx context.Context, userID uuid.UUID) error {
	user, err := a.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		return utils.ErrDatabaseError
	}
	if user == nil {
		return utils.ErrUserNotFound
	}

	if err := a.userRepo.SetBanned(ctx, userID, false, ""); err != nil {
		return utils.ErrDatabaseError
	}

	a.recordUsage(ctx, userID, db_models.UsageAdminUnban, nil)
	return nil
}

func (a *AdminService) GrantFreeCredits(ctx context.Context, userID uuid.UUID) error {
	user, err := a.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		return utils.ErrDatabaseError
	}
	if user == nil {
		return utils.ErrUserNotFound
	}

	if err := a.userRepo.ResetFreeUsed(ctx, userID); err != nil {
		return utils.ErrDatabaseError
	}

	a.recordUsage(ctx, userID, db_models.UsageAdminCreditGrant, nil)
	return nil
}

func (a *AdminService) DeleteTryOn(ctx context.Context, tryOnID uuid.UUID) error {
	job, err := a.tryOnRepo.FindByID(ctx, tryOnID.String())
	if err != nil {
		return utils.ErrDatabaseError
	}
	if job == nil {
		return utils.ErrTryOnNotFound
	}

	a.deleteImages(ctx, job)

	if err := a.tryOnRepo.Delete(ctx, job.ID); err != nil {
		return utils.ErrDatabaseError
	}

	a.recordUsage(ctx, job.UserID, db_models.UsageModerationDelete, map[string]interface{}{
		"try_on_id": job.ID,
	})
	return nil
}

func (a *AdminService) PurgeExpired(ctx context.Context) (int, error) {
	expired, err := a.tryOnRepo.ListExpired(ctx, time.Now().Unix())
	if err != nil {
		return 0, utils.ErrDatabaseError
	}

	purged := 0
	for i := range expired {
		job := &expired[i]
		a.deleteImages(ctx, job)
		if err := a.tryOnRepo.Delete(ctx, job.ID); err != nil {
			log.Printf("purge: delete tryon %s failed: %v", job.ID, err)
			continue
		}
		purged++
	}
	return purged, nil
}

// deleteImages is best effort. Orphaned objects are cheaper than a job row
// that refuses to die.
func (a *AdminService) deleteImages(ctx context.Context, job *db_models.TryOn) {
	for _, url := range []string{job.InputPhoto, job.GarmentPhoto, job.ResultPhoto} {
		if url == "" {
			continue
		}
		if err := a.store.Delete(ctx, url); err != nil {
			log.Printf("tryon %s: delete image failed: %v", job.ID, err)
		}
	}
}

func (a *AdminService) recordUsage(ctx context.Context, userID uuid.UUID, action string, metadata map[string]interface{}) {
	if err := a.usageRepo.Record(ctx, userID, action, metadata); err != nil {
		log.Printf("admin: usage record %s failed: %v", action, err)
	}
}
