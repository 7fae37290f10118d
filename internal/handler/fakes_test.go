package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"

	"github.com/analogous-app/analogous/internal/auth"
	"github.com/analogous-app/analogous/internal/domain"
	"github.com/analogous-app/analogous/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleAccount() *domain.Account {
	return &domain.Account{
		ID:        uuid.New(),
		Email:     "reader@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Plan:      domain.PlanCurious,
		Timezone:  "UTC",
		CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

// withAccount injects an account the way the auth middleware would.
func withAccount(account *domain.Account) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if account != nil {
				r = r.WithContext(auth.SetAccount(r.Context(), account))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sampleAnalogy(accountID uuid.UUID) *domain.Analogy {
	return &domain.Analogy{
		ID:        uuid.New(),
		AccountID: accountID,
		Topic:     "Recursion",
		Audience:  "new programmers",
		Content: domain.AnalogyContent{
			Title:    "Mirrors Facing Mirrors",
			Analogy:  "Recursion is like two mirrors facing each other.",
			Keywords: []string{"mirrors"},
		},
		ImageURLs: []string{"https://cdn.test/a.png"},
		CreatedAt: time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// Service fakes
// =============================================================================

type fakeAccountService struct {
	registerResult *domain.LoginResult
	registerErr    error
	loginResult    *domain.LoginResult
	loginErr       error
	logoutErr      error
	logoutTokens   []string
}

func (f *fakeAccountService) Register(_ context.Context, _ domain.RegisterParams) (*domain.LoginResult, error) {
	return f.registerResult, f.registerErr
}

func (f *fakeAccountService) Login(_ context.Context, _, _ string) (*domain.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAccountService) Logout(_ context.Context, token string) error {
	f.logoutTokens = append(f.logoutTokens, token)
	return f.logoutErr
}

func (f *fakeAccountService) Authenticate(_ context.Context, _ string) (*domain.Account, error) {
	return nil, domain.Unauthorized("", "Invalid session")
}

func (f *fakeAccountService) Get(_ context.Context, _ uuid.UUID) (*domain.Account, error) {
	return nil, domain.NotFound("", "account", "")
}

type fakeAnalogyService struct {
	generateResult *domain.GenerateResult
	generateErr    error
	generateParams []domain.GenerateParams
	getResult      *domain.Analogy
	getErr         error
	listResult     []domain.Analogy
	listLimit      int
	listOffset     int
	countResult    int
	deleteErr      error
	deletedIDs     []uuid.UUID
	popupErr       error
	popupShownIDs  []uuid.UUID
}

func (f *fakeAnalogyService) Generate(_ context.Context, params domain.GenerateParams) (*domain.GenerateResult, error) {
	f.generateParams = append(f.generateParams, params)
	return f.generateResult, f.generateErr
}

func (f *fakeAnalogyService) Regenerate(_ context.Context, _, _ uuid.UUID) (*domain.GenerateResult, error) {
	return f.generateResult, f.generateErr
}

func (f *fakeAnalogyService) Get(_ context.Context, _, _ uuid.UUID) (*domain.Analogy, error) {
	return f.getResult, f.getErr
}

func (f *fakeAnalogyService) List(_ context.Context, _ uuid.UUID, limit, offset int) ([]domain.Analogy, error) {
	f.listLimit = limit
	f.listOffset = offset
	return f.listResult, nil
}

func (f *fakeAnalogyService) Count(_ context.Context, _ uuid.UUID) (int, error) {
	return f.countResult, nil
}

func (f *fakeAnalogyService) Delete(_ context.Context, _, analogyID uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, analogyID)
	return nil
}

func (f *fakeAnalogyService) MarkStreakPopupShown(_ context.Context, _, analogyID uuid.UUID) error {
	if f.popupErr != nil {
		return f.popupErr
	}
	f.popupShownIDs = append(f.popupShownIDs, analogyID)
	return nil
}

type fakeEntitlementService struct {
	usage    *service.UsageSummary
	usageErr error
}

func (f *fakeEntitlementService) Reserve(_ context.Context, _ uuid.UUID) error { return nil }
func (f *fakeEntitlementService) Commit(_ context.Context, _ uuid.UUID) error  { return nil }
func (f *fakeEntitlementService) Release(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeEntitlementService) Usage(_ context.Context, _ uuid.UUID) (*service.UsageSummary, error) {
	return f.usage, f.usageErr
}

type fakeStreakService struct {
	snapshot   *domain.StreakSnapshot
	getErr     error
	ackErr     error
	ackCalls   int
	logs       []domain.StreakLogEntry
	logsErr    error
	logsYear   int
	logsMonth  time.Month
	logsCalled bool
}

func (f *fakeStreakService) Get(_ context.Context, _ uuid.UUID) (*domain.StreakSnapshot, error) {
	return f.snapshot, f.getErr
}

func (f *fakeStreakService) RecordActivity(_ context.Context, _ uuid.UUID) (*domain.StreakAdvance, error) {
	return &domain.StreakAdvance{}, nil
}

func (f *fakeStreakService) AcknowledgeReset(_ context.Context, _ uuid.UUID) error {
	f.ackCalls++
	return f.ackErr
}

func (f *fakeStreakService) Logs(_ context.Context, _ uuid.UUID, year int, month time.Month) ([]domain.StreakLogEntry, error) {
	f.logsCalled = true
	f.logsYear = year
	f.logsMonth = month
	return f.logs, f.logsErr
}

type fakeSubscriptionService struct {
	checkoutURL  string
	upgradeErr   error
	downgradeErr error
	resumeErr    error
	stats        *service.PricingStats
	statsErr     error
	handledEvent *domain.BillingEvent
	handleErr    error
}

func (f *fakeSubscriptionService) Upgrade(_ context.Context, _ uuid.UUID) (string, error) {
	return f.checkoutURL, f.upgradeErr
}

func (f *fakeSubscriptionService) Downgrade(_ context.Context, _ uuid.UUID) error {
	return f.downgradeErr
}

func (f *fakeSubscriptionService) Resume(_ context.Context, _ uuid.UUID) error {
	return f.resumeErr
}

func (f *fakeSubscriptionService) HandleEvent(_ context.Context, ev domain.BillingEvent) error {
	f.handledEvent = &ev
	return f.handleErr
}

func (f *fakeSubscriptionService) PricingStats(_ context.Context, _ uuid.UUID) (*service.PricingStats, error) {
	return f.stats, f.statsErr
}

type fakeBillingService struct {
	verifyErr   error
	verifyEvent stripe.Event
	parsedEvent domain.BillingEvent
	parseErr    error
}

func (f *fakeBillingService) CreateCustomer(_, _ string) (string, error) {
	return "cus_test", nil
}

func (f *fakeBillingService) CreateCheckoutSession(_, _, _ string) (string, error) {
	return "https://checkout.test/session", nil
}

func (f *fakeBillingService) ScheduleCancel(_ string) error       { return nil }
func (f *fakeBillingService) ClearScheduledCancel(_ string) error { return nil }

func (f *fakeBillingService) VerifyWebhookSignature(_ []byte, _ string) (stripe.Event, error) {
	return f.verifyEvent, f.verifyErr
}

func (f *fakeBillingService) ParseEvent(_ stripe.Event) (domain.BillingEvent, error) {
	return f.parsedEvent, f.parseErr
}

// Compile-time interface checks.
var (
	_ service.AccountService      = (*fakeAccountService)(nil)
	_ service.AnalogyService      = (*fakeAnalogyService)(nil)
	_ service.EntitlementService  = (*fakeEntitlementService)(nil)
	_ service.StreakService       = (*fakeStreakService)(nil)
	_ service.SubscriptionService = (*fakeSubscriptionService)(nil)
)
