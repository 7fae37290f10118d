package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/analogous-app/analogous/internal/domain"
	"github.com/analogous-app/analogous/internal/metrics"
	"github.com/analogous-app/analogous/internal/repository"
	"github.com/analogous-app/analogous/internal/tzdate"
)

// StreakService maintains the consecutive-day activity counter.
//
// All gap arithmetic lives in domain.StreakState; this service localizes
// "today", persists the outcome, and lets the unique_user_day constraint
// arbitrate concurrent first-activity-of-the-day writes.
type StreakService interface {
	// Get returns the streak after applying break detection. A detected
	// break is persisted, so reads are self-correcting.
	Get(ctx context.Context, accountID uuid.UUID) (*domain.StreakSnapshot, error)

	// RecordActivity counts today's activity. Duplicate same-day calls are
	// no-ops. Advanced in the result is true only for the first activity
	// of a new local day.
	RecordActivity(ctx context.Context, accountID uuid.UUID) (*domain.StreakAdvance, error)

	// AcknowledgeReset marks a detected break as seen by the user.
	AcknowledgeReset(ctx context.Context, accountID uuid.UUID) error

	// Logs lists activity days within one calendar month.
	Logs(ctx context.Context, accountID uuid.UUID, year int, month time.Month) ([]domain.StreakLogEntry, error)
}

type streakService struct {
	queries  repository.Querier
	resolver *tzdate.Resolver
	logger   *slog.Logger
	now      func() time.Time
}

// NewStreakService creates a new streak service.
func NewStreakService(queries repository.Querier, resolver *tzdate.Resolver, logger *slog.Logger) StreakService {
	return &streakService{
		queries:  queries,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *streakService) Get(ctx context.Context, accountID uuid.UUID) (*domain.StreakSnapshot, error) {
	const op = "streak.get"

	row, err := s.queries.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "account", accountID.String())
		}
		return nil, domain.Internal(err, op, "failed to load account")
	}
	account := accountFromRow(row)

	today := s.resolver.LocalDate(account.Timezone, s.now())
	state := streakState(account)
	validated, _ := validateAndPersist(ctx, s, op, accountID, state, today)

	snapshot := validated.Snapshot(today)
	return &snapshot, nil
}

func (s *streakService) RecordActivity(ctx context.Context, accountID uuid.UUID) (*domain.StreakAdvance, error) {
	const op = "streak.record"

	row, err := s.queries.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "account", accountID.String())
		}
		return nil, domain.Internal(err, op, "failed to load account")
	}
	account := accountFromRow(row)

	today := s.resolver.LocalDate(account.Timezone, s.now())
	state := streakState(account)

	// Break detection first, then counting, matching the read path.
	validated, wasReset := state.Validate(today)
	if wasReset && state.Current != validated.Current {
		metrics.StreakResets.Inc()
	}

	// The log insert is the arbiter: ON CONFLICT means some writer already
	// counted this local day, so the counter must not move again.
	inserted, err := s.queries.InsertStreakLog(ctx, repository.InsertStreakLogParams{
		AccountID: accountID,
		Date:      today,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to insert streak log")
	}
	if inserted == 0 {
		adv := domain.StreakAdvance{State: validated, Duplicate: true}
		return &adv, nil
	}

	adv := validated.Record(today)
	if err := s.persistState(ctx, accountID, adv.State); err != nil {
		return nil, domain.Internal(err, op, "failed to update streak")
	}
	metrics.StreakAdvances.Inc()

	s.logger.Info("streak advanced",
		"account_id", accountID,
		"current", adv.State.Current,
		"longest", adv.State.Longest,
		"date", today.Format("2006-01-02"),
	)

	return &adv, nil
}

func (s *streakService) AcknowledgeReset(ctx context.Context, accountID uuid.UUID) error {
	const op = "streak.acknowledge"

	rows, err := s.queries.AcknowledgeStreakReset(ctx, accountID)
	if err != nil {
		return domain.Internal(err, op, "failed to acknowledge streak reset")
	}
	if rows == 0 {
		return domain.NotFound(op, "account", accountID.String())
	}
	return nil
}

func (s *streakService) Logs(ctx context.Context, accountID uuid.UUID, year int, month time.Month) ([]domain.StreakLogEntry, error) {
	const op = "streak.logs"

	if year < 2000 || year > 2100 {
		return nil, domain.Invalid(op, "year out of range")
	}
	if month < time.January || month > time.December {
		return nil, domain.Invalid(op, "month must be between 1 and 12")
	}

	from, to := tzdate.MonthRange(year, month)
	rows, err := s.queries.ListStreakLogsInRange(ctx, repository.ListStreakLogsInRangeParams{
		AccountID: accountID,
		DateFrom:  from,
		DateTo:    to,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list streak logs")
	}

	entries := make([]domain.StreakLogEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, domain.StreakLogEntry{
			ID:        r.ID,
			AccountID: r.AccountID,
			Date:      tzdate.Truncate(r.Date),
			CreatedAt: r.CreatedAt,
		})
	}
	return entries, nil
}

// persistState writes the streak slice of the account row.
func (s *streakService) persistState(ctx context.Context, accountID uuid.UUID, state domain.StreakState) error {
	return s.queries.UpdateStreak(ctx, repository.UpdateStreakParams{
		ID:                      accountID,
		CurrentStreak:           int32(state.Current),
		LongestStreak:           int32(state.Longest),
		LastStreakDate:          domain.ToNullTime(state.LastDate),
		StreakResetAcknowledged: state.ResetAcknowledged,
	})
}

// validateAndPersist applies break detection and writes back any correction.
// Persistence failures degrade to a log line; the caller still gets the
// corrected in-memory state.
func validateAndPersist(ctx context.Context, s *streakService, op string, accountID uuid.UUID, state domain.StreakState, today time.Time) (domain.StreakState, bool) {
	validated, wasReset := state.Validate(today)
	if validated != state {
		metrics.StreakResets.Inc()
		if err := s.persistState(ctx, accountID, validated); err != nil {
			s.logger.Error("failed to persist streak reset", "op", op, "account_id", accountID, "error", err)
		}
	}
	return validated, wasReset
}

// streakState extracts the streak slice of an account.
func streakState(account *domain.Account) domain.StreakState {
	return domain.StreakState{
		Current:           account.CurrentStreak,
		Longest:           account.LongestStreak,
		LastDate:          account.LastStreakDate,
		ResetAcknowledged: account.StreakResetAcknowledged,
	}
}
