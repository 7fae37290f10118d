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

// EntitlementService gates generation behind the plan ceilings.
//
// The checks run in a fixed order so a user who is both out of quota and
// inside the rate-limit window always sees the quota error:
//
//  1. daily quota (reserving a slot atomically)
//  2. minimum interval since the last generation (claimed atomically)
//  3. stored artifact ceiling
//
// Reserve holds a quota slot and the interval claim for the caller. The
// caller must pair it with Commit on success or Release on failure; a failed
// generation never consumes quota.
type EntitlementService interface {
	Reserve(ctx context.Context, accountID uuid.UUID) error
	Commit(ctx context.Context, accountID uuid.UUID) error
	Release(ctx context.Context, accountID uuid.UUID) error
	Usage(ctx context.Context, accountID uuid.UUID) (*UsageSummary, error)
}

// UsageSummary reports current consumption against the plan ceilings.
type UsageSummary struct {
	Plan              domain.Plan
	DailyUsed         int
	DailyLimit        int
	StoredUsed        int
	StoredLimit       int
	LifetimeGenerated int
}

type entitlementService struct {
	queries  repository.Querier
	resolver *tzdate.Resolver
	logger   *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewEntitlementService creates a new entitlement service.
func NewEntitlementService(queries repository.Querier, resolver *tzdate.Resolver, logger *slog.Logger) EntitlementService {
	return &entitlementService{
		queries:  queries,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *entitlementService) Reserve(ctx context.Context, accountID uuid.UUID) error {
	const op = "entitlement.reserve"

	row, err := s.queries.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "account", accountID.String())
		}
		return domain.Internal(err, op, "failed to load account")
	}
	account := accountFromRow(row)
	limits := account.Limits()

	now := s.now()
	today := s.resolver.LocalDate(account.Timezone, now)

	// Roll the counter over at the user's local midnight. The UPDATE is
	// conditional on the stored reset date, so concurrent requests at the
	// boundary reset at most once.
	reset, err := s.queries.ResetDailyUsage(ctx, repository.ResetDailyUsageParams{
		ID:             accountID,
		DailyResetDate: sql.NullTime{Time: today, Valid: true},
	})
	if err != nil {
		return domain.Internal(err, op, "failed to reset daily usage")
	}
	if reset > 0 {
		s.logger.Debug("daily quota reset", "account_id", accountID, "date", today.Format("2006-01-02"))
	}

	// Bounded increment: the WHERE clause refuses once the ceiling is hit,
	// so two racing requests can never both take the last slot.
	_, err = s.queries.ReserveDailyUsage(ctx, repository.ReserveDailyUsageParams{
		ID:         accountID,
		DailyCount: int32(limits.DailyGenerations),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			metrics.EntitlementRejections.WithLabelValues("quota").Inc()
			return domain.QuotaExceeded(op, limits.DailyGenerations)
		}
		return domain.Internal(err, op, "failed to reserve daily usage")
	}

	// Rate limit is checked after quota: quota rejection wins when both apply.
	// The claim is a conditional write, so two overlapping requests inside
	// the interval cannot both pass on a stale read.
	claimed, err := s.queries.ClaimActionTime(ctx, repository.ClaimActionTimeParams{
		ID:             accountID,
		LastActionTime: sql.NullTime{Time: now, Valid: true},
		Threshold:      sql.NullTime{Time: now.Add(-limits.MinInterval), Valid: true},
	})
	if err != nil {
		if relErr := s.queries.ReleaseDailyUsage(ctx, accountID); relErr != nil {
			s.logger.Error("failed to release reservation after rate limit", "account_id", accountID, "error", relErr)
		}
		return domain.Internal(err, op, "failed to claim action interval")
	}
	if claimed == 0 {
		if relErr := s.queries.ReleaseDailyUsage(ctx, accountID); relErr != nil {
			s.logger.Error("failed to release reservation after rate limit", "account_id", accountID, "error", relErr)
		}
		// The pre-read may be stale when a concurrent request just claimed;
		// fall back to the full interval then.
		remaining := int(limits.MinInterval / time.Second)
		if account.LastActionTime != nil {
			if elapsed := now.Sub(*account.LastActionTime); elapsed < limits.MinInterval {
				remaining = int((limits.MinInterval - elapsed + time.Second - 1) / time.Second)
			}
		}
		metrics.EntitlementRejections.WithLabelValues("rate_limit").Inc()
		return domain.RateLimited(op, remaining)
	}

	// Storage guard is read-only; deletion frees capacity immediately.
	stored, err := s.queries.CountAnalogiesByAccount(ctx, accountID)
	if err != nil {
		s.rollbackReservation(ctx, accountID, "storage check")
		return domain.Internal(err, op, "failed to count stored analogies")
	}
	if stored >= int64(limits.StoredAnalogies) {
		s.rollbackReservation(ctx, accountID, "storage limit")
		metrics.EntitlementRejections.WithLabelValues("storage").Inc()
		return domain.StorageLimitExceeded(op, limits.StoredAnalogies)
	}

	return nil
}

// rollbackReservation undoes the quota slot and the interval claim after a
// later check fails. Clearing the claim outright is safe: it only succeeded
// because the previous action was already outside the interval.
func (s *entitlementService) rollbackReservation(ctx context.Context, accountID uuid.UUID, reason string) {
	if err := s.queries.ReleaseDailyUsage(ctx, accountID); err != nil {
		s.logger.Error("failed to release reservation after "+reason, "account_id", accountID, "error", err)
	}
	if err := s.queries.ClearActionTime(ctx, accountID); err != nil {
		s.logger.Error("failed to clear action claim after "+reason, "account_id", accountID, "error", err)
	}
}

func (s *entitlementService) Commit(ctx context.Context, accountID uuid.UUID) error {
	const op = "entitlement.commit"

	err := s.queries.CommitUsage(ctx, repository.CommitUsageParams{
		ID:             accountID,
		LastActionTime: sql.NullTime{Time: s.now(), Valid: true},
	})
	if err != nil {
		return domain.Internal(err, op, "failed to commit usage")
	}
	return nil
}

func (s *entitlementService) Release(ctx context.Context, accountID uuid.UUID) error {
	const op = "entitlement.release"

	if err := s.queries.ReleaseDailyUsage(ctx, accountID); err != nil {
		return domain.Internal(err, op, "failed to release reservation")
	}
	if err := s.queries.ClearActionTime(ctx, accountID); err != nil {
		return domain.Internal(err, op, "failed to clear action claim")
	}
	return nil
}

func (s *entitlementService) Usage(ctx context.Context, accountID uuid.UUID) (*UsageSummary, error) {
	const op = "entitlement.usage"

	row, err := s.queries.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "account", accountID.String())
		}
		return nil, domain.Internal(err, op, "failed to load account")
	}
	account := accountFromRow(row)
	limits := account.Limits()

	// A stale counter from a previous local day reads as zero.
	today := s.resolver.LocalDate(account.Timezone, s.now())
	dailyUsed := account.DailyCount
	if account.DailyResetDate == nil || account.DailyResetDate.Before(today) {
		dailyUsed = 0
	}

	stored, err := s.queries.CountAnalogiesByAccount(ctx, accountID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count stored analogies")
	}

	return &UsageSummary{
		Plan:              account.Plan,
		DailyUsed:         dailyUsed,
		DailyLimit:        limits.DailyGenerations,
		StoredUsed:        int(stored),
		StoredLimit:       limits.StoredAnalogies,
		LifetimeGenerated: account.LifetimeGenerated,
	}, nil
}
