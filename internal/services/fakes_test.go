package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"drape/internal/models/db_models"
	"drape/internal/models/response_models"
	"drape/pkg/vton"
)

// In-memory doubles for the repository and gateway boundaries. They mirror
// the guarded-update semantics of the real SQL so the services can be tested
// against the same transition rules.

type fakeUserRepo struct {
	mu   sync.Mutex
	user *db_models.User

	downgradeCalls  int
	resetCalls      int
	resetApplied    bool
	freeIncrements  int
	dailyIncrements int
	upgradeCalls    int
	cancelCalls     int
}

func newFakeUserRepo(user *db_models.User) *fakeUserRepo {
	return &fakeUserRepo{user: user, resetApplied: true}
}

func (f *fakeUserRepo) Insert(ctx context.Context, user *db_models.User) error {
	f.user = user
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*db_models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil || f.user.ID.String() != id {
		return nil, nil
	}
	copied := *f.user
	return &copied, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*db_models.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, nil
	}
	copied := *f.user
	return &copied, nil
}

func (f *fakeUserRepo) DowngradeExpired(ctx context.Context, id uuid.UUID, now int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downgradeCalls++
	u := f.user
	if !u.IsPremium || u.StripeCurrentPeriodEnd == nil || *u.StripeCurrentPeriodEnd >= now {
		return false, nil
	}
	u.IsPremium = false
	u.Plan = db_models.PlanFree
	u.FreeUsed = 0
	u.DailyUsed = 0
	return true, nil
}

func (f *fakeUserRepo) ResetDailyWindow(ctx context.Context, id uuid.UUID, staleResetAt, nextResetAt int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	if !f.resetApplied || f.user.DailyResetAt != staleResetAt {
		return false, nil
	}
	f.user.DailyUsed = 0
	f.user.DailyResetAt = nextResetAt
	return true, nil
}

func (f *fakeUserRepo) IncrementFreeUsed(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.freeIncrements++
	f.user.FreeUsed++
	return nil
}

func (f *fakeUserRepo) IncrementDailyUsed(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailyIncrements++
	f.user.DailyUsed++
	return nil
}

func (f *fakeUserRepo) ApplyUpgrade(ctx context.Context, id uuid.UUID, customerID, subscriptionID, priceID string, periodEnd int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upgradeCalls++
	u := f.user
	u.Plan = db_models.PlanPremium
	u.IsPremium = true
	u.StripeCustomerID = customerID
	u.StripeSubscriptionID = subscriptionID
	u.StripePriceID = priceID
	u.StripeCurrentPeriodEnd = &periodEnd
	if u.PremiumSince == nil {
		now := time.Now().Unix()
		u.PremiumSince = &now
	}
	u.DailyUsed = 0
	return nil
}

func (f *fakeUserRepo) ApplyRenewal(ctx context.Context, id uuid.UUID, periodEnd int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user.IsPremium = true
	f.user.StripeCurrentPeriodEnd = &periodEnd
	f.user.DailyUsed = 0
	return nil
}

func (f *fakeUserRepo) ApplyCancellation(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	u := f.user
	u.IsPremium = false
	u.Plan = db_models.PlanFree
	u.StripeSubscriptionID = ""
	u.FreeUsed = 0
	u.DailyUsed = 0
	return nil
}

func (f *fakeUserRepo) UpdatePeriodEnd(ctx context.Context, id uuid.UUID, periodEnd int64, isPremium bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user.StripeCurrentPeriodEnd = &periodEnd
	f.user.IsPremium = isPremium
	return nil
}

func (f *fakeUserRepo) SetBanned(ctx context.Context, id uuid.UUID, banned bool, reason string) error {
	f.user.IsBanned = banned
	f.user.BanReason = reason
	return nil
}

func (f *fakeUserRepo) ResetFreeUsed(ctx context.Context, id uuid.UUID) error {
	f.user.FreeUsed = 0
	return nil
}

type fakeTryOnRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*db_models.TryOn

	successCalls int
	failedCalls  int
	expiryCalls  int
}

func newFakeTryOnRepo() *fakeTryOnRepo {
	return &fakeTryOnRepo{jobs: make(map[uuid.UUID]*db_models.TryOn)}
}

func (f *fakeTryOnRepo) Insert(ctx context.Context, tryOn *db_models.TryOn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tryOn.ID == uuid.Nil {
		tryOn.ID = uuid.New()
	}
	copied := *tryOn
	f.jobs[tryOn.ID] = &copied
	return nil
}

func (f *fakeTryOnRepo) FindByID(ctx context.Context, id string) (*db_models.TryOn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	job, ok := f.jobs[uid]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (f *fakeTryOnRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]db_models.TryOn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.TryOn
	for _, job := range f.jobs {
		if job.UserID == userID {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (f *fakeTryOnRepo) ListProcessing(ctx context.Context) ([]db_models.TryOn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.TryOn
	for _, job := range f.jobs {
		if job.Status == db_models.TryOnStatusProcessing {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (f *fakeTryOnRepo) MarkSuccess(ctx context.Context, id uuid.UUID, resultPhoto string, processingTime int, aiCost float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successCalls++
	job, ok := f.jobs[id]
	if !ok || job.Status != db_models.TryOnStatusProcessing {
		return false, nil
	}
	job.Status = db_models.TryOnStatusSuccess
	job.ResultPhoto = resultPhoto
	job.ProcessingTime = processingTime
	job.AICost = aiCost
	return true, nil
}

func (f *fakeTryOnRepo) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedCalls++
	job, ok := f.jobs[id]
	if !ok || job.Status != db_models.TryOnStatusProcessing {
		return false, nil
	}
	job.Status = db_models.TryOnStatusFailed
	job.ErrorMessage = errorMessage
	return true, nil
}

func (f *fakeTryOnRepo) SetExpiresAt(ctx context.Context, id uuid.UUID, expiresAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiryCalls++
	if job, ok := f.jobs[id]; ok {
		job.ExpiresAt = &expiresAt
	}
	return nil
}

func (f *fakeTryOnRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, id)
	return nil
}

func (f *fakeTryOnRepo) ListExpired(ctx context.Context, now int64) ([]db_models.TryOn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.TryOn
	for _, job := range f.jobs {
		if job.ExpiresAt != nil && *job.ExpiresAt < now {
			out = append(out, *job)
		}
	}
	return out, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*db_models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]*db_models.Payment)}
}

func (f *fakePaymentRepo) InsertIfAbsent(ctx context.Context, payment *db_models.Payment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.payments[payment.ProviderPaymentID]; ok {
		return false, nil
	}
	f.payments[payment.ProviderPaymentID] = payment
	return true, nil
}

func (f *fakePaymentRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Payment, error) {
	var out []db_models.Payment
	for _, p := range f.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type recordedUsage struct {
	userID   uuid.UUID
	action   string
	metadata map[string]interface{}
}

type fakeUsageRepo struct {
	mu     sync.Mutex
	events []recordedUsage
}

func (f *fakeUsageRepo) Record(ctx context.Context, userID uuid.UUID, action string, metadata map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedUsage{userID: userID, action: action, metadata: metadata})
	return nil
}

func (f *fakeUsageRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]db_models.UsageEvent, error) {
	return nil, nil
}

func (f *fakeUsageRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.action)
	}
	return out
}

type fakeQuota struct {
	check          *response_models.QuotaCheckResult
	checkErr       error
	checkCalls     int
	decrementCalls int
}

func (f *fakeQuota) CheckQuota(ctx context.Context, userID string) (*response_models.QuotaCheckResult, error) {
	f.checkCalls++
	return f.check, f.checkErr
}

func (f *fakeQuota) DecrementQuota(ctx context.Context, userID string) error {
	f.decrementCalls++
	return nil
}

func (f *fakeQuota) GetUserQuota(ctx context.Context, userID string) (*response_models.QuotaSummary, error) {
	return &response_models.QuotaSummary{}, nil
}

type fakeGateway struct {
	resultURL      string
	processingTime int
	err            error
	calls          int
}

func (f *fakeGateway) Generate(ctx context.Context, personImageURL, garmentImageURL string) (*vton.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &vton.Result{ImageURL: f.resultURL, ProcessingTime: f.processingTime}, nil
}

func (f *fakeGateway) CostPerCall() float64 { return 0.05 }

func (f *fakeGateway) ProviderName() string { return "fake-vton" }

type fakeStore struct {
	mu       sync.Mutex
	puts     []string
	fetched  []string
	deleted  []string
	fetchBuf []byte
}

func (f *fakeStore) Put(ctx context.Context, data []byte, ownerID, kind string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://store.test/" + ownerID + "/" + kind
	f.puts = append(f.puts, url)
	return url, nil
}

func (f *fakeStore) PutFromURL(ctx context.Context, srcURL, ownerID, kind string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://store.test/" + ownerID + "/" + kind
	f.puts = append(f.puts, url)
	return url, nil
}

func (f *fakeStore) Fetch(ctx context.Context, srcURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, srcURL)
	if f.fetchBuf != nil {
		return f.fetchBuf, nil
	}
	return []byte("raw-image"), nil
}

func (f *fakeStore) Delete(ctx context.Context, fileURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileURL)
	return nil
}

func (f *fakeStore) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

type fakeWatermarker struct {
	calls int
}

func (f *fakeWatermarker) Apply(data []byte) ([]byte, error) {
	f.calls++
	return append([]byte("wm:"), data...), nil
}

type fakeScreener struct {
	err   error
	calls int
}

func (f *fakeScreener) Screen(ctx context.Context, data []byte, mimeType string) error {
	f.calls++
	return f.err
}

type fakeQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (f *fakeQueue) Enqueue(jobID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, jobID)
}

type fakeStripeGateway struct {
	sub      *SubscriptionInfo
	subErr   error
	subCalls int

	checkoutURL string
}

func (f *fakeStripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionInfo, error) {
	f.subCalls++
	return f.sub, f.subErr
}

func (f *fakeStripeGateway) CreateCheckoutSession(ctx context.Context, userID, email string) (string, error) {
	return f.checkoutURL, nil
}
