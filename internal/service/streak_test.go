package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analogous-app/analogous/internal/domain"
	"github.com/analogous-app/analogous/internal/repository"
	"github.com/analogous-app/analogous/internal/tzdate"
)

func newStreakForTest(q *fakeQuerier, now time.Time) *streakService {
	svc := NewStreakService(q, testResolver(), testLogger()).(*streakService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestStreakRecordFirstActivity(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	q := newFakeQuerier(testAccount())
	svc := newStreakForTest(q, now)

	adv, err := svc.RecordActivity(context.Background(), q.account.ID)
	require.NoError(t, err)

	assert.True(t, adv.Advanced)
	assert.False(t, adv.Duplicate)
	assert.Equal(t, 1, adv.State.Current)
	assert.Equal(t, 1, adv.State.Longest)
	assert.Equal(t, int32(1), q.account.CurrentStreak)
}

func TestStreakRecordConsecutiveDay(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	yesterday := tzdate.Canonical(2025, 6, 14)
	account := testAccount()
	account.CurrentStreak = 3
	account.LongestStreak = 7
	account.LastStreakDate = sql.NullTime{Time: yesterday, Valid: true}
	q := newFakeQuerier(account)
	svc := newStreakForTest(q, now)

	adv, err := svc.RecordActivity(context.Background(), q.account.ID)
	require.NoError(t, err)

	assert.True(t, adv.Advanced)
	assert.Equal(t, 4, adv.State.Current)
	assert.Equal(t, 7, adv.State.Longest)
}

func TestStreakRecordSameDayIsDuplicate(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	today := tzdate.Canonical(2025, 6, 15)
	account := testAccount()
	account.CurrentStreak = 4
	account.LongestStreak = 7
	account.LastStreakDate = sql.NullTime{Time: today, Valid: true}
	q := newFakeQuerier(account)
	// The day is already logged: some earlier request won the insert.
	_, err := q.InsertStreakLog(context.Background(), repository.InsertStreakLogParams{
		AccountID: account.ID,
		Date:      today,
	})
	require.NoError(t, err)
	svc := newStreakForTest(q, now)

	adv, err := svc.RecordActivity(context.Background(), q.account.ID)
	require.NoError(t, err)

	assert.True(t, adv.Duplicate)
	assert.False(t, adv.Advanced)
	assert.Equal(t, 4, adv.State.Current)
	// The counter was not touched.
	assert.Empty(t, q.streakUpdates)
}

func TestStreakRecordAfterGapResetsToOne(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	account := testAccount()
	account.CurrentStreak = 9
	account.LongestStreak = 9
	account.LastStreakDate = sql.NullTime{Time: tzdate.Canonical(2025, 6, 10), Valid: true}
	q := newFakeQuerier(account)
	svc := newStreakForTest(q, now)

	adv, err := svc.RecordActivity(context.Background(), q.account.ID)
	require.NoError(t, err)

	assert.True(t, adv.Advanced)
	assert.Equal(t, 1, adv.State.Current)
	assert.Equal(t, 9, adv.State.Longest)
	// The pending acknowledgement survives until the user dismisses it.
	assert.False(t, adv.State.ResetAcknowledged)
}

func TestStreakGetDetectsBreakAndPersists(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	account := testAccount()
	account.CurrentStreak = 6
	account.LongestStreak = 6
	account.LastStreakDate = sql.NullTime{Time: tzdate.Canonical(2025, 6, 12), Valid: true}
	q := newFakeQuerier(account)
	svc := newStreakForTest(q, now)

	snapshot, err := svc.Get(context.Background(), q.account.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, snapshot.Current)
	assert.Equal(t, 6, snapshot.Longest)
	assert.True(t, snapshot.WasReset)
	assert.False(t, snapshot.IsActive)
	// The correction was written back.
	require.Len(t, q.streakUpdates, 1)
	assert.Equal(t, int32(0), q.account.CurrentStreak)
	assert.False(t, q.account.StreakResetAcknowledged)
}

func TestStreakGetActiveStreakUntouched(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	account := testAccount()
	account.CurrentStreak = 6
	account.LongestStreak = 8
	account.LastStreakDate = sql.NullTime{Time: tzdate.Canonical(2025, 6, 14), Valid: true}
	q := newFakeQuerier(account)
	svc := newStreakForTest(q, now)

	snapshot, err := svc.Get(context.Background(), q.account.ID)
	require.NoError(t, err)

	assert.Equal(t, 6, snapshot.Current)
	assert.True(t, snapshot.IsActive)
	assert.False(t, snapshot.WasReset)
	assert.Empty(t, q.streakUpdates)
}

func TestStreakAcknowledgeReset(t *testing.T) {
	account := testAccount()
	account.StreakResetAcknowledged = false
	q := newFakeQuerier(account)
	svc := newStreakForTest(q, time.Now())

	require.NoError(t, svc.AcknowledgeReset(context.Background(), q.account.ID))
	assert.True(t, q.account.StreakResetAcknowledged)
}

func TestStreakLogsValidatesRange(t *testing.T) {
	q := newFakeQuerier(testAccount())
	svc := newStreakForTest(q, time.Now())

	_, err := svc.Logs(context.Background(), q.account.ID, 1999, time.June)
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	_, err = svc.Logs(context.Background(), q.account.ID, 2025, time.Month(13))
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestStreakLogsFiltersMonth(t *testing.T) {
	account := testAccount()
	q := newFakeQuerier(account)
	ctx := context.Background()
	for _, date := range []time.Time{
		tzdate.Canonical(2025, 5, 31),
		tzdate.Canonical(2025, 6, 1),
		tzdate.Canonical(2025, 6, 30),
		tzdate.Canonical(2025, 7, 1),
	} {
		_, err := q.InsertStreakLog(ctx, repository.InsertStreakLogParams{AccountID: account.ID, Date: date})
		require.NoError(t, err)
	}
	svc := newStreakForTest(q, time.Now())

	entries, err := svc.Logs(ctx, q.account.ID, 2025, time.June)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, time.June, entry.Date.Month())
	}
}
