// Package service contains business logic, sitting between handlers and the
// repository layer.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/analogous-app/analogous/internal/domain"
	"github.com/analogous-app/analogous/internal/repository"
	"github.com/analogous-app/analogous/internal/tzdate"
)

const (
	// sessionDuration is how long a login session remains valid.
	sessionDuration = 30 * 24 * time.Hour

	// sessionTokenBytes gives 256 bits of entropy, hex-encoded to 64 chars.
	sessionTokenBytes = 32

	bcryptCost = bcrypt.DefaultCost
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// AccountService manages registration, login and session authentication.
type AccountService interface {
	Register(ctx context.Context, params domain.RegisterParams) (*domain.LoginResult, error)
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

type accountService struct {
	queries repository.Querier
	logger  *slog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(queries repository.Querier, logger *slog.Logger) AccountService {
	return &accountService{
		queries: queries,
		logger:  logger,
	}
}

func (s *accountService) Register(ctx context.Context, params domain.RegisterParams) (*domain.LoginResult, error) {
	const op = "account.register"

	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.Invalid(op, "A valid email address is required.")
	}
	if len(params.Password) < 8 {
		return nil, domain.Invalid(op, "Password must be at least 8 characters.")
	}

	// Normalize names to title case so "jane" and "JANE" store identically.
	titler := cases.Title(language.English)
	firstName := titler.String(strings.TrimSpace(params.FirstName))
	lastName := titler.String(strings.TrimSpace(params.LastName))

	tz := strings.TrimSpace(params.Timezone)
	if tz == "" {
		tz = "UTC"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to hash password")
	}

	row, err := s.queries.CreateAccount(ctx, repository.CreateAccountParams{
		Email:               email,
		PasswordHash:        string(hash),
		FirstName:           domain.ToNullString(firstName),
		LastName:            domain.ToNullString(lastName),
		OptInEmailMarketing: params.OptInMarketing,
		Timezone:            tz,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.Conflict(op, "An account with this email already exists.")
		}
		return nil, domain.Internal(err, op, "failed to create account")
	}

	account := accountFromRow(row)
	token, err := s.createSession(ctx, op, account.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("account registered", "account_id", account.ID, "email", email)

	return &domain.LoginResult{Account: account, Token: token}, nil
}

func (s *accountService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "account.login"

	row, err := s.queries.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn a comparison anyway so the timing does not reveal
			// whether the email exists.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000uGZwiopXUlU2kSrBQeUVUC9hPhpATpC"), []byte(password))
			return nil, domain.Unauthorized(op, "Invalid email or password.")
		}
		return nil, domain.Internal(err, op, "failed to look up account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthorized(op, "Invalid email or password.")
	}

	account := accountFromRow(row)
	token, err := s.createSession(ctx, op, account.ID)
	if err != nil {
		return nil, err
	}

	return &domain.LoginResult{Account: account, Token: token}, nil
}

func (s *accountService) Logout(ctx context.Context, token string) error {
	const op = "account.logout"

	if err := s.queries.DeleteSessionByTokenHash(ctx, hashToken(token)); err != nil {
		return domain.Internal(err, op, "failed to delete session")
	}
	return nil
}

func (s *accountService) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	const op = "account.authenticate"

	if token == "" {
		return nil, domain.Unauthorized(op, "Authentication required.")
	}

	session, err := s.queries.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, "Invalid or expired session.")
		}
		return nil, domain.Internal(err, op, "failed to look up session")
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.queries.DeleteSessionByTokenHash(ctx, session.TokenHash)
		return nil, domain.Unauthorized(op, "Invalid or expired session.")
	}

	row, err := s.queries.GetAccount(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, "Invalid or expired session.")
		}
		return nil, domain.Internal(err, op, "failed to load account")
	}

	return accountFromRow(row), nil
}

func (s *accountService) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	const op = "account.get"

	row, err := s.queries.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "account", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load account")
	}
	return accountFromRow(row), nil
}

func (s *accountService) createSession(ctx context.Context, op string, accountID uuid.UUID) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", domain.Internal(err, op, "failed to generate session token")
	}

	_, err = s.queries.CreateSession(ctx, repository.CreateSessionParams{
		AccountID: accountID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(sessionDuration),
	})
	if err != nil {
		return "", domain.Internal(err, op, "failed to create session")
	}

	return token, nil
}

// generateToken returns a cryptographically random hex token.
func generateToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// hashToken returns the SHA-256 hex digest stored in place of the raw token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// accountFromRow converts a repository row to the domain representation.
func accountFromRow(row repository.Account) *domain.Account {
	return &domain.Account{
		ID:                 row.ID,
		Email:              row.Email,
		PasswordHash:       row.PasswordHash,
		FirstName:          domain.NullStringValue(row.FirstName),
		LastName:           domain.NullStringValue(row.LastName),
		OptInMarketing:     row.OptInEmailMarketing,
		OnboardingComplete: row.OnboardingComplete,

		Plan:                  domain.Plan(row.Plan),
		UpcomingPlan:          domain.Plan(domain.NullStringValue(row.UpcomingPlan)),
		PlanCancelled:         row.PlanCancelled,
		StripeCustomerID:      domain.NullStringValue(row.StripeCustomerID),
		SubscriptionID:        domain.NullStringValue(row.SubscriptionID),
		SubscriptionStartDate: dateValue(row.SubscriptionStartDate),
		RenewalDate:           dateValue(row.RenewalDate),
		RenewalPending:        row.RenewalPending,

		DailyCount:        int(row.DailyCount),
		DailyResetDate:    dateValue(row.DailyResetDate),
		LastActionTime:    domain.NullTimeValue(row.LastActionTime),
		LifetimeGenerated: int(row.LifetimeGenerated),

		CurrentStreak:           int(row.CurrentStreak),
		LongestStreak:           int(row.LongestStreak),
		LastStreakDate:          dateValue(row.LastStreakDate),
		StreakResetAcknowledged: row.StreakResetAcknowledged,

		Timezone:  row.Timezone,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// dateValue converts a nullable date column to a canonical date pointer.
// Drivers may attach an offset to DATE values; canonical form strips it so
// day arithmetic stays exact.
func dateValue(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	d := tzdate.Truncate(nt.Time)
	return &d
}
