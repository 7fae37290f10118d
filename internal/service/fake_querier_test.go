package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/analogous-app/analogous/internal/repository"
	"github.com/analogous-app/analogous/internal/tzdate"
)

// fakeQuerier is an in-memory repository.Querier for service tests. It models
// just enough of the SQL semantics to exercise the services: the conditional
// daily reset, the bounded quota increment, the streak log uniqueness and the
// webhook replay ledger.
type fakeQuerier struct {
	account repository.Account

	analogies   map[uuid.UUID]repository.Analogy
	streakDays  map[string]bool
	webhookSeen map[string]bool
	sessions    map[string]repository.Session

	// Forced errors
	getAccountErr    error
	createAnalogyErr error
	insertLogErr     error
	commitErr        error
	updateBillingErr error

	// Call tracking
	resetCalls     []repository.ResetDailyUsageParams
	reserveCalls   int
	releaseCalls   int
	commitCalls    []repository.CommitUsageParams
	streakUpdates  []repository.UpdateStreakParams
	billingUpdates []repository.UpdateBillingStateParams
	createdAnalogy []repository.CreateAnalogyParams
}

func newFakeQuerier(account repository.Account) *fakeQuerier {
	return &fakeQuerier{
		account:     account,
		analogies:   make(map[uuid.UUID]repository.Analogy),
		streakDays:  make(map[string]bool),
		webhookSeen: make(map[string]bool),
		sessions:    make(map[string]repository.Session),
	}
}

func (f *fakeQuerier) GetAccount(ctx context.Context, id uuid.UUID) (repository.Account, error) {
	if f.getAccountErr != nil {
		return repository.Account{}, f.getAccountErr
	}
	if id != f.account.ID {
		return repository.Account{}, sql.ErrNoRows
	}
	return f.account, nil
}

func (f *fakeQuerier) GetAccountByEmail(ctx context.Context, email string) (repository.Account, error) {
	if strings.EqualFold(email, f.account.Email) {
		return f.account, nil
	}
	return repository.Account{}, sql.ErrNoRows
}

func (f *fakeQuerier) GetAccountByStripeCustomerID(ctx context.Context, customerID sql.NullString) (repository.Account, error) {
	if customerID.Valid && f.account.StripeCustomerID.Valid && customerID.String == f.account.StripeCustomerID.String {
		return f.account, nil
	}
	return repository.Account{}, sql.ErrNoRows
}

func (f *fakeQuerier) GetAccountBySubscriptionID(ctx context.Context, subscriptionID sql.NullString) (repository.Account, error) {
	if subscriptionID.Valid && f.account.SubscriptionID.Valid && subscriptionID.String == f.account.SubscriptionID.String {
		return f.account, nil
	}
	return repository.Account{}, sql.ErrNoRows
}

func (f *fakeQuerier) CreateAccount(ctx context.Context, arg repository.CreateAccountParams) (repository.Account, error) {
	now := time.Now()
	f.account = repository.Account{
		ID:                      uuid.New(),
		Email:                   strings.ToLower(arg.Email),
		PasswordHash:            arg.PasswordHash,
		FirstName:               arg.FirstName,
		LastName:                arg.LastName,
		OptInEmailMarketing:     arg.OptInEmailMarketing,
		Plan:                    "curious",
		StreakResetAcknowledged: true,
		Timezone:                arg.Timezone,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	return f.account, nil
}

// Usage accounting

func (f *fakeQuerier) ResetDailyUsage(ctx context.Context, arg repository.ResetDailyUsageParams) (int64, error) {
	f.resetCalls = append(f.resetCalls, arg)
	if !f.account.DailyResetDate.Valid || f.account.DailyResetDate.Time.Before(arg.DailyResetDate.Time) {
		f.account.DailyCount = 0
		f.account.DailyResetDate = arg.DailyResetDate
		return 1, nil
	}
	return 0, nil
}

func (f *fakeQuerier) ReserveDailyUsage(ctx context.Context, arg repository.ReserveDailyUsageParams) (int32, error) {
	f.reserveCalls++
	if f.account.DailyCount >= arg.DailyCount {
		return 0, sql.ErrNoRows
	}
	f.account.DailyCount++
	return f.account.DailyCount, nil
}

func (f *fakeQuerier) ReleaseDailyUsage(ctx context.Context, id uuid.UUID) error {
	f.releaseCalls++
	if f.account.DailyCount > 0 {
		f.account.DailyCount--
	}
	return nil
}

func (f *fakeQuerier) ClaimActionTime(ctx context.Context, arg repository.ClaimActionTimeParams) (int64, error) {
	if f.account.LastActionTime.Valid && f.account.LastActionTime.Time.After(arg.Threshold.Time) {
		return 0, nil
	}
	f.account.LastActionTime = arg.LastActionTime
	return 1, nil
}

func (f *fakeQuerier) ClearActionTime(ctx context.Context, id uuid.UUID) error {
	f.account.LastActionTime = sql.NullTime{}
	return nil
}

func (f *fakeQuerier) CommitUsage(ctx context.Context, arg repository.CommitUsageParams) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commitCalls = append(f.commitCalls, arg)
	f.account.LastActionTime = arg.LastActionTime
	f.account.LifetimeGenerated++
	return nil
}

func (f *fakeQuerier) GetUsage(ctx context.Context, id uuid.UUID) (repository.GetUsageRow, error) {
	return repository.GetUsageRow{
		DailyCount:        f.account.DailyCount,
		DailyResetDate:    f.account.DailyResetDate,
		LastActionTime:    f.account.LastActionTime,
		LifetimeGenerated: f.account.LifetimeGenerated,
	}, nil
}

// Streaks

func (f *fakeQuerier) InsertStreakLog(ctx context.Context, arg repository.InsertStreakLogParams) (int64, error) {
	if f.insertLogErr != nil {
		return 0, f.insertLogErr
	}
	key := arg.AccountID.String() + "|" + arg.Date.Format("2006-01-02")
	if f.streakDays[key] {
		return 0, nil
	}
	f.streakDays[key] = true
	return 1, nil
}

func (f *fakeQuerier) ListStreakLogsInRange(ctx context.Context, arg repository.ListStreakLogsInRangeParams) ([]repository.StreakLog, error) {
	var logs []repository.StreakLog
	id := int64(1)
	for key := range f.streakDays {
		parts := strings.SplitN(key, "|", 2)
		if parts[0] != arg.AccountID.String() {
			continue
		}
		date, err := time.Parse("2006-01-02", parts[1])
		if err != nil {
			continue
		}
		if date.Before(arg.DateFrom) || !date.Before(arg.DateTo) {
			continue
		}
		logs = append(logs, repository.StreakLog{
			ID:        id,
			AccountID: arg.AccountID,
			Date:      date,
			CreatedAt: date,
		})
		id++
	}
	return logs, nil
}

func (f *fakeQuerier) UpdateStreak(ctx context.Context, arg repository.UpdateStreakParams) error {
	f.streakUpdates = append(f.streakUpdates, arg)
	f.account.CurrentStreak = arg.CurrentStreak
	f.account.LongestStreak = arg.LongestStreak
	f.account.LastStreakDate = arg.LastStreakDate
	f.account.StreakResetAcknowledged = arg.StreakResetAcknowledged
	return nil
}

func (f *fakeQuerier) AcknowledgeStreakReset(ctx context.Context, id uuid.UUID) (int64, error) {
	if id != f.account.ID {
		return 0, nil
	}
	f.account.StreakResetAcknowledged = true
	return 1, nil
}

// Analogies

func (f *fakeQuerier) CreateAnalogy(ctx context.Context, arg repository.CreateAnalogyParams) (repository.Analogy, error) {
	if f.createAnalogyErr != nil {
		return repository.Analogy{}, f.createAnalogyErr
	}
	f.createdAnalogy = append(f.createdAnalogy, arg)
	row := repository.Analogy{
		ID:               arg.ID,
		AccountID:        arg.AccountID,
		Topic:            arg.Topic,
		Audience:         arg.Audience,
		Content:          arg.Content,
		ImageUrls:        arg.ImageUrls,
		StreakPopupShown: arg.StreakPopupShown,
		CreatedAt:        time.Now(),
	}
	f.analogies[row.ID] = row
	return row, nil
}

func (f *fakeQuerier) GetAnalogy(ctx context.Context, id uuid.UUID) (repository.Analogy, error) {
	row, ok := f.analogies[id]
	if !ok {
		return repository.Analogy{}, sql.ErrNoRows
	}
	return row, nil
}

func (f *fakeQuerier) ListAnalogiesByAccount(ctx context.Context, arg repository.ListAnalogiesByAccountParams) ([]repository.Analogy, error) {
	var rows []repository.Analogy
	for _, row := range f.analogies {
		if row.AccountID == arg.AccountID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (f *fakeQuerier) CountAnalogiesByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	for _, row := range f.analogies {
		if row.AccountID == accountID {
			count++
		}
	}
	return count, nil
}

func (f *fakeQuerier) MarkStreakPopupShown(ctx context.Context, arg repository.MarkStreakPopupShownParams) (int64, error) {
	row, ok := f.analogies[arg.ID]
	if !ok || row.AccountID != arg.AccountID {
		return 0, nil
	}
	row.StreakPopupShown = true
	f.analogies[arg.ID] = row
	return 1, nil
}

func (f *fakeQuerier) DeleteAnalogy(ctx context.Context, arg repository.DeleteAnalogyParams) (int64, error) {
	row, ok := f.analogies[arg.ID]
	if !ok || row.AccountID != arg.AccountID {
		return 0, nil
	}
	delete(f.analogies, arg.ID)
	return 1, nil
}

// Sessions

func (f *fakeQuerier) CreateSession(ctx context.Context, arg repository.CreateSessionParams) (repository.Session, error) {
	session := repository.Session{
		ID:        uuid.New(),
		AccountID: arg.AccountID,
		TokenHash: arg.TokenHash,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: time.Now(),
	}
	f.sessions[arg.TokenHash] = session
	return session, nil
}

func (f *fakeQuerier) GetSessionByTokenHash(ctx context.Context, tokenHash string) (repository.Session, error) {
	session, ok := f.sessions[tokenHash]
	if !ok {
		return repository.Session{}, sql.ErrNoRows
	}
	return session, nil
}

func (f *fakeQuerier) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	delete(f.sessions, tokenHash)
	return nil
}

func (f *fakeQuerier) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	return 0, nil
}

// Billing

func (f *fakeQuerier) SetStripeCustomerID(ctx context.Context, arg repository.SetStripeCustomerIDParams) error {
	f.account.StripeCustomerID = arg.StripeCustomerID
	return nil
}

func (f *fakeQuerier) UpdateBillingState(ctx context.Context, arg repository.UpdateBillingStateParams) error {
	if f.updateBillingErr != nil {
		return f.updateBillingErr
	}
	f.billingUpdates = append(f.billingUpdates, arg)
	f.account.Plan = arg.Plan
	f.account.UpcomingPlan = arg.UpcomingPlan
	f.account.PlanCancelled = arg.PlanCancelled
	f.account.SubscriptionID = arg.SubscriptionID
	f.account.SubscriptionStartDate = arg.SubscriptionStartDate
	f.account.RenewalDate = arg.RenewalDate
	f.account.RenewalPending = arg.RenewalPending
	return nil
}

func (f *fakeQuerier) InsertWebhookEvent(ctx context.Context, arg repository.InsertWebhookEventParams) (int64, error) {
	if f.webhookSeen[arg.EventID] {
		return 0, nil
	}
	f.webhookSeen[arg.EventID] = true
	return 1, nil
}

func (f *fakeQuerier) DeleteWebhookEvent(ctx context.Context, eventID string) error {
	delete(f.webhookSeen, eventID)
	return nil
}

var _ repository.Querier = (*fakeQuerier)(nil)

// Shared test fixtures

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testResolver() *tzdate.Resolver {
	return tzdate.NewResolver(testLogger())
}

// testAccount returns a fresh Curious-plan account row in UTC.
func testAccount() repository.Account {
	now := time.Now()
	return repository.Account{
		ID:                      uuid.New(),
		Email:                   "reader@example.com",
		PasswordHash:            "$2a$10$fakefakefakefakefakefake",
		Plan:                    "curious",
		StreakResetAcknowledged: true,
		Timezone:                "UTC",
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}
