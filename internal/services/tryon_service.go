package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"drape/internal/models/db_models"
	"drape/internal/models/response_models"
	"drape/internal/repositories"
	"drape/pkg/moderation"
	"drape/pkg/storage"
	"drape/pkg/utils"
	"drape/pkg/vton"
	"drape/pkg/watermark"
)

const (
	maxImageBytes = 10 << 20 // 10 MB per image

	// Hard ceiling on a single generation, poll loop included.
	generationTimeout = 5 * time.Minute

	// Free-plan results are scheduled for deletion this long after a
	// successful completion.
	resultRetentionDays = 7

	resolutionFree    = "768x768"
	resolutionPremium = "1024x1024"
)

// ImageUpload is one uploaded image, already read off the request.
type ImageUpload struct {
	Data     []byte
	Filename string
	Size     int64
}

// CompletionQueue hands a created job to the background pipeline. The HTTP
// request that started the job returns immediately; the queue guarantees
// the completion work runs to exactly one terminal state.
type CompletionQueue interface {
	Enqueue(jobID uuid.UUID)
}

type TryOnServiceInterface interface {
	StartTryOn(ctx context.Context, userID string, person, garment *ImageUpload) (*response_models.StartTryOnResponse, error)
	GetTryOn(ctx context.Context, id, userID string) (*response_models.TryOnResponse, error)
	ListTryOns(ctx context.Context, userID string, limit int) ([]response_models.TryOnResponse, error)

	// Complete runs the asynchronous half of the job lifecycle. Invoked
	// by the dispatcher workers, safe to call more than once per job.
	Complete(ctx context.Context, jobID uuid.UUID) error
}

type TryOnService struct {
	tryOnRepo   repositories.TryOnRepository
	userRepo    repositories.UserRepository
	usageRepo   repositories.UsageRepository
	quota       QuotaServiceInterface
	gateway     vton.ClientInterface
	store       storage.ImageStore
	watermarker watermark.Watermarker
	screener    moderation.ImageScreener
	queue       CompletionQueue
}

func NewTryOnService(
	tryOnRepo repositories.TryOnRepository,
	userRepo repositories.UserRepository,
	usageRepo repositories.UsageRepository,
	quota QuotaServiceInterface,
	gateway vton.ClientInterface,
	store storage.ImageStore,
	watermarker watermark.Watermarker,
	screener moderation.ImageScreener,
	queue CompletionQueue,
) TryOnServiceInterface {
	return &TryOnService{
		tryOnRepo:   tryOnRepo,
		userRepo:    userRepo,
		usageRepo:   usageRepo,
		quota:       quota,
		gateway:     gateway,
		store:       store,
		watermarker: watermarker,
		screener:    screener,
		queue:       queue,
	}
}

func (s *TryOnService) StartTryOn(ctx context.Context, userID string, person, garment *ImageUpload) (*response_models.StartTryOnResponse, error) {
	// Validate before anything with side effects: CheckQuota performs
	// lazy resets, so a bad upload must be rejected ahead of it.
	if err := validateImage(person); err != nil {
		return nil, err
	}
	if err := validateImage(garment); err != nil {
		return nil, err
	}

	quotaCheck, err := s.quota.CheckQuota(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !quotaCheck.CanUse {
		return nil, &utils.QuotaExceededError{
			Remaining: quotaCheck.Remaining,
			Plan:      string(quotaCheck.Plan),
			Reason:    quotaCheck.Reason,
		}
	}

	if err := s.screener.Screen(ctx, person.Data, "image/jpeg"); err != nil {
		if errors.Is(err, moderation.ErrImageRejected) {
			return nil, utils.ErrImageRejected
		}
		return nil, err
	}

	var personURL, garmentURL string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		personURL, err = s.store.Put(gctx, person.Data, userID, storage.KindPerson)
		return err
	})
	g.Go(func() error {
		var err error
		garmentURL, err = s.store.Put(gctx, garment.Data, userID, storage.KindGarment)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}

	// Plan snapshot: resolution and watermark are frozen here and stay
	// fixed for the life of the job, whatever happens to the plan later.
	resolution := resolutionFree
	if user.IsPremium {
		resolution = resolutionPremium
	}

	job := &db_models.TryOn{
		UserID:       user.ID,
		InputPhoto:   personURL,
		GarmentPhoto: garmentURL,
		Status:       db_models.TryOnStatusProcessing,
		Resolution:   resolution,
		HasWatermark: !user.IsPremium,
		AIProvider:   s.gateway.ProviderName(),
	}
	if err := s.tryOnRepo.Insert(ctx, job); err != nil {
		return nil, utils.ErrDatabaseError
	}

	s.queue.Enqueue(job.ID)

	return &response_models.StartTryOnResponse{
		TryOnID: job.ID,
		Status:  "processing",
		Message: "Generation started. Poll /tryon/" + job.ID.String() + " for the result.",
	}, nil
}

func validateImage(img *ImageUpload) error {
	if img == nil || len(img.Data) == 0 {
		return utils.ErrInvalidInput
	}
	if img.Size > maxImageBytes || int64(len(img.Data)) > maxImageBytes {
		return utils.ErrImageTooLarge
	}
	return nil
}

func (s *TryOnService) GetTryOn(ctx context.Context, id, userID string) (*response_models.TryOnResponse, error) {
	job, err := s.tryOnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if job == nil {
		return nil, utils.ErrTryOnNotFound
	}
	if job.UserID.String() != userID {
		return nil, utils.ErrForbidden
	}
	return response_models.ToTryOnResponse(job), nil
}

func (s *TryOnService) ListTryOns(ctx context.Context, userID string, limit int) ([]response_models.TryOnResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, utils.ErrInvalidInput
	}

	jobs, err := s.tryOnRepo.ListByUser(ctx, uid, limit)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	out := make([]response_models.TryOnResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, *response_models.ToTryOnResponse(&jobs[i]))
	}
	return out, nil
}

func (s *TryOnService) Complete(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.tryOnRepo.FindByID(ctx, jobID.String())
	if err != nil {
		return err
	}
	if job == nil {
		return utils.ErrTryOnNotFound
	}
	if job.Status.IsTerminal() {
		// Duplicate delivery; the first completion already won.
		return nil
	}

	gctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	result, err := s.gateway.Generate(gctx, job.InputPhoto, job.GarmentPhoto)
	if err != nil {
		s.failJob(ctx, job, err)
		return nil
	}

	finalURL, err := s.storeResult(gctx, job, result.ImageURL)
	if err != nil {
		s.failJob(ctx, job, err)
		return nil
	}

	applied, err := s.tryOnRepo.MarkSuccess(ctx, job.ID, finalURL, result.ProcessingTime, s.gateway.CostPerCall())
	if err != nil {
		return err
	}
	if !applied {
		// Lost the terminal-transition race; no side effects here.
		return nil
	}

	// Quota is spent only on confirmed success, exactly once per job
	// thanks to the guarded transition above.
	if err := s.quota.DecrementQuota(ctx, job.UserID.String()); err != nil {
		log.Printf("tryon %s: decrement quota failed: %v", job.ID, err)
	}

	if err := s.usageRepo.Record(ctx, job.UserID, db_models.UsageTryOnSuccess, map[string]interface{}{
		"try_on_id":       job.ID,
		"resolution":      job.Resolution,
		"processing_time": result.ProcessingTime,
		"provider":        job.AIProvider,
	}); err != nil {
		log.Printf("tryon %s: usage record failed: %v", job.ID, err)
	}

	// Owner was on the free plan when the job was created (the frozen
	// snapshot, not the current plan): schedule result expiry.
	if job.HasWatermark {
		expiresAt := utils.DaysFromNow(resultRetentionDays)
		if err := s.tryOnRepo.SetExpiresAt(ctx, job.ID, expiresAt); err != nil {
			log.Printf("tryon %s: set expiry failed: %v", job.ID, err)
		}
	}

	return nil
}

func (s *TryOnService) storeResult(ctx context.Context, job *db_models.TryOn, resultURL string) (string, error) {
	if !job.HasWatermark {
		return s.store.PutFromURL(ctx, resultURL, job.UserID.String(), storage.KindResult)
	}

	raw, err := s.store.Fetch(ctx, resultURL)
	if err != nil {
		return "", err
	}
	marked, err := s.watermarker.Apply(raw)
	if err != nil {
		return "", err
	}
	return s.store.Put(ctx, marked, job.UserID.String(), storage.KindResult)
}

// failJob records the terminal FAILED state. Quota is deliberately left
// untouched: failed generations never consume a unit.
func (s *TryOnService) failJob(ctx context.Context, job *db_models.TryOn, cause error) {
	log.Printf("tryon %s: generation failed: %v", job.ID, cause)

	applied, err := s.tryOnRepo.MarkFailed(ctx, job.ID, cause.Error())
	if err != nil {
		log.Printf("tryon %s: mark failed errored: %v", job.ID, err)
		return
	}
	if !applied {
		return
	}

	if err := s.usageRepo.Record(ctx, job.UserID, db_models.UsageTryOnFailed, map[string]interface{}{
		"try_on_id": job.ID,
		"error":     cause.Error(),
	}); err != nil {
		log.Printf("tryon %s: usage record failed: %v", job.ID, err)
	}
}
