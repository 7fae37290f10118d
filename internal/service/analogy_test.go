package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analogous-app/analogous/internal/ai"
	aimock "github.com/analogous-app/analogous/internal/ai/mock"
	"github.com/analogous-app/analogous/internal/domain"
	imgmock "github.com/analogous-app/analogous/internal/imagegen/mock"
	"github.com/analogous-app/analogous/internal/repository"
	"github.com/analogous-app/analogous/internal/storage"
	"github.com/analogous-app/analogous/internal/tzdate"
)

// fakeStore is an in-memory storage.Storage.
type fakeStore struct {
	objects map[string][]byte
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Put(ctx context.Context, key string, data io.Reader, opts storage.PutOptions) error {
	if f.putErr != nil {
		return f.putErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = b
	return nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	b, ok := f.objects[key]
	if !ok {
		return nil, storage.ObjectInfo{}, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(string(b))), storage.ObjectInfo{Key: key, Size: int64(len(b))}, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (f *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

var _ storage.Storage = (*fakeStore)(nil)

type analogyFixture struct {
	q     *fakeQuerier
	ai    *aimock.Provider
	img   *imgmock.Provider
	store *fakeStore
	svc   *analogyService
	clock *time.Time // advance to step past the rate-limit window
}

func newAnalogyFixture(t *testing.T, account func(*repository.Account), now time.Time) *analogyFixture {
	t.Helper()
	logger := testLogger()
	resolver := testResolver()

	acct := testAccount()
	if account != nil {
		account(&acct)
	}
	q := newFakeQuerier(acct)

	clock := new(time.Time)
	*clock = now
	timeFn := func() time.Time { return *clock }

	entitlement := NewEntitlementService(q, resolver, logger).(*entitlementService)
	entitlement.now = timeFn
	streaks := NewStreakService(q, resolver, logger).(*streakService)
	streaks.now = timeFn

	aiProvider := aimock.New(logger)
	imgProvider := imgmock.New(logger)
	store := newFakeStore()

	svc := NewAnalogyService(q, entitlement, streaks, aiProvider, imgProvider, store, resolver, logger, 3).(*analogyService)
	svc.now = timeFn

	return &analogyFixture{q: q, ai: aiProvider, img: imgProvider, store: store, svc: svc, clock: clock}
}

func TestGenerateHappyPath(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	fx := newAnalogyFixture(t, nil, now)

	result, err := fx.svc.Generate(context.Background(), domain.GenerateParams{
		AccountID: fx.q.account.ID,
		Topic:     "DNS",
		Audience:  "a 10 year old",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Analogy)
	assert.Equal(t, "DNS", result.Analogy.Topic)
	assert.NotEmpty(t, result.Analogy.Content.Analogy)
	require.Len(t, result.Analogy.ImageURLs, 3)
	for _, url := range result.Analogy.ImageURLs {
		assert.True(t, strings.HasPrefix(url, "https://cdn.test/analogies/"), url)
	}

	// First generation of the day advances the streak and shows the popup.
	assert.True(t, result.ShowStreakPopup)
	assert.Equal(t, 1, result.Streak.Current)
	require.Len(t, fx.q.createdAnalogy, 1)
	assert.False(t, fx.q.createdAnalogy[0].StreakPopupShown)

	// Usage was committed, not released.
	assert.Len(t, fx.q.commitCalls, 1)
	assert.Equal(t, 0, fx.q.releaseCalls)
	assert.Equal(t, int32(1), fx.q.account.DailyCount)
	assert.Equal(t, int32(1), fx.q.account.LifetimeGenerated)

	// All three images landed in the store.
	assert.Len(t, fx.store.objects, 3)
}

func TestGenerateValidatesInput(t *testing.T) {
	fx := newAnalogyFixture(t, nil, time.Now())

	_, err := fx.svc.Generate(context.Background(), domain.GenerateParams{
		AccountID: fx.q.account.ID,
		Topic:     "   ",
		Audience:  "a 10 year old",
	})
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	_, err = fx.svc.Generate(context.Background(), domain.GenerateParams{
		AccountID: fx.q.account.ID,
		Topic:     "DNS",
		Audience:  "",
	})
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	// Validation failures never reach the quota.
	assert.Equal(t, 0, fx.q.reserveCalls)
	assert.Equal(t, 0, fx.ai.GenerateCalls)
}

func TestGenerateQuotaExhaustedSkipsProviders(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	fx := newAnalogyFixture(t, func(a *repository.Account) {
		a.DailyCount = 20
		a.DailyResetDate = sql.NullTime{Time: tzdate.Canonical(2025, 6, 15), Valid: true}
	}, now)

	_, err := fx.svc.Generate(context.Background(), domain.GenerateParams{
		AccountID: fx.q.account.ID,
		Topic:     "DNS",
		Audience:  "a 10 year old",
	})
	require.Error(t, err)
	assert.Equal(t, domain.EQUOTA, domain.ErrorCode(err))
	assert.Equal(t, 0, fx.ai.GenerateCalls)
	assert.Empty(t, fx.q.createdAnalogy)
}

func TestGenerateAIFailureReleasesReservation(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	fx := newAnalogyFixture(t, nil, now)
	fx.ai.GenerateError = ai.WrapError("execute request", ai.EAIUnavailable)

	_, err := fx.svc.Generate(context.Background(), domain.GenerateParams{
		AccountID: fx.q.account.ID,
		Topic:     "DNS",
		Audience:  "a 10 year old",
	})
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))

	// The failed generation consumed no quota and stored nothing.
	assert.Equal(t, 1, fx.q.releaseCalls)
	assert.Equal(t, int32(0), fx.q.account.DailyCount)
	assert.Empty(t, fx.q.createdAnalogy)
	assert.Empty(t, fx.q.commitCalls)
}

func TestGenerateAITimeoutMapsToTimeout(t *testing.T) {
	fx := newAnalogyFixture(t, nil, time.Now())
	fx.ai.GenerateError = ai.WrapError("execute request", ai.EAITimeout)

	_, err := fx.svc.Generate(context.Background(), domain.GenerateParams{
		AccountID: fx.q.account.ID,
		Topic:     "DNS",
		Audience:  "a 10 year old",
	})
	require.Error(t, err)
	assert.Equal(t, domain.ETIMEOUT, domain.ErrorCode(err))
}

func TestGenerateImageFailureUsesFallbacks(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	fx := newAnalogyFixture(t, nil, now)
	fx.img.GenerateError = storage.ErrNotFound // any error will do

	result, err := fx.svc.Generate(context.Background(), domain.GenerateParams{
		AccountID: fx.q.account.ID,
		Topic:     "DNS",
		Audience:  "a 10 year old",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/assets/default_image0.jpeg",
		"/assets/default_image1.jpeg",
		"/assets/default_image2.jpeg",
	}, result.Analogy.ImageURLs)
	assert.Empty(t, fx.store.objects)
	// The generation itself still succeeded.
	assert.Len(t, fx.q.commitCalls, 1)
}

func TestGenerateUploadFailureUsesFallbacks(t *testing.T) {
	fx := newAnalogyFixture(t, nil, time.Now())
	fx.store.putErr = storage.ErrAccessDenied

	result, err := fx.svc.Generate(context.Background(), domain.GenerateParams{
		AccountID: fx.q.account.ID,
		Topic:     "DNS",
		Audience:  "a 10 year old",
	})
	require.NoError(t, err)
	for _, url := range result.Analogy.ImageURLs {
		assert.True(t, strings.HasPrefix(url, "/assets/default_image"), url)
	}
}

func TestGenerateSecondOfDayNoPopup(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	today := tzdate.Canonical(2025, 6, 15)
	fx := newAnalogyFixture(t, func(a *repository.Account) {
		a.CurrentStreak = 4
		a.LongestStreak = 6
		a.LastStreakDate = sql.NullTime{Time: today, Valid: true}
	}, now)
	_, err := fx.q.InsertStreakLog(context.Background(), repository.InsertStreakLogParams{
		AccountID: fx.q.account.ID,
		Date:      today,
	})
	require.NoError(t, err)

	result, err := fx.svc.Generate(context.Background(), domain.GenerateParams{
		AccountID: fx.q.account.ID,
		Topic:     "DNS",
		Audience:  "a 10 year old",
	})
	require.NoError(t, err)

	assert.False(t, result.ShowStreakPopup)
	assert.Equal(t, 4, result.Streak.Current)
	require.Len(t, fx.q.createdAnalogy, 1)
	// Stored flag says "popup already shown" for a non-advancing day.
	assert.True(t, fx.q.createdAnalogy[0].StreakPopupShown)
}

func TestRegenerateReusesStoredInputs(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	fx := newAnalogyFixture(t, nil, now)

	first, err := fx.svc.Generate(context.Background(), domain.GenerateParams{
		AccountID: fx.q.account.ID,
		Topic:     "DNS",
		Audience:  "a 10 year old",
	})
	require.NoError(t, err)

	// Step past the Curious rate-limit window.
	*fx.clock = now.Add(2 * time.Minute)

	second, err := fx.svc.Regenerate(context.Background(), fx.q.account.ID, first.Analogy.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.Analogy.ID, second.Analogy.ID)
	assert.Equal(t, "DNS", second.Analogy.Topic)
	assert.Equal(t, "a 10 year old", second.Analogy.Audience)
	// Regeneration is gated identically: two slots consumed.
	assert.Equal(t, int32(2), fx.q.account.DailyCount)
}

func TestGetEnforcesOwnership(t *testing.T) {
	fx := newAnalogyFixture(t, nil, time.Now())

	result, err := fx.svc.Generate(context.Background(), domain.GenerateParams{
		AccountID: fx.q.account.ID,
		Topic:     "DNS",
		Audience:  "a 10 year old",
	})
	require.NoError(t, err)

	_, err = fx.svc.Get(context.Background(), uuid.New(), result.Analogy.ID)
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestDeleteAnalogy(t *testing.T) {
	fx := newAnalogyFixture(t, nil, time.Now())

	result, err := fx.svc.Generate(context.Background(), domain.GenerateParams{
		AccountID: fx.q.account.ID,
		Topic:     "DNS",
		Audience:  "a 10 year old",
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.Delete(context.Background(), fx.q.account.ID, result.Analogy.ID))

	count, err := fx.svc.Count(context.Background(), fx.q.account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	err = fx.svc.Delete(context.Background(), fx.q.account.ID, result.Analogy.ID)
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestMarkStreakPopupShown(t *testing.T) {
	fx := newAnalogyFixture(t, nil, time.Now())

	result, err := fx.svc.Generate(context.Background(), domain.GenerateParams{
		AccountID: fx.q.account.ID,
		Topic:     "DNS",
		Audience:  "a 10 year old",
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.MarkStreakPopupShown(context.Background(), fx.q.account.ID, result.Analogy.ID))

	stored, err := fx.svc.Get(context.Background(), fx.q.account.ID, result.Analogy.ID)
	require.NoError(t, err)
	assert.True(t, stored.StreakPopupShown)

	// Ownership mismatch reads as not found, same as Get and Delete.
	err = fx.svc.MarkStreakPopupShown(context.Background(), uuid.New(), result.Analogy.ID)
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}
