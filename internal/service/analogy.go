package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/analogous-app/analogous/internal/ai"
	"github.com/analogous-app/analogous/internal/domain"
	"github.com/analogous-app/analogous/internal/imagegen"
	"github.com/analogous-app/analogous/internal/metrics"
	"github.com/analogous-app/analogous/internal/repository"
	"github.com/analogous-app/analogous/internal/storage"
	"github.com/analogous-app/analogous/internal/tzdate"
)

const (
	maxTopicLength    = 200
	maxAudienceLength = 100

	// comicStylePrefix steers every illustration toward a consistent look.
	comicStylePrefix = "Colorful comic book style illustration, bold outlines, expressive characters, no text, no captions. "

	// imageURLTTL bounds presigned URLs when the store has no public domain.
	imageURLTTL = 24 * time.Hour

	defaultImagesPerAnalogy = 3
)

// AnalogyService runs the generation pipeline and owns the stored artifacts.
//
// The pipeline order is fixed: entitlement reservation, content generation,
// image synthesis, artifact store, persistence, then usage commit and streak
// recording. Failures before persistence release the quota reservation;
// failures after persistence are logged as anomalies and never surfaced,
// because the user already has their analogy.
type AnalogyService interface {
	// Generate produces a new analogy for the given topic and audience.
	Generate(ctx context.Context, params domain.GenerateParams) (*domain.GenerateResult, error)

	// Regenerate runs the full pipeline again with a stored analogy's topic
	// and audience. It is gated by the same entitlement checks as Generate
	// and produces a new artifact.
	Regenerate(ctx context.Context, accountID, analogyID uuid.UUID) (*domain.GenerateResult, error)

	// Get returns one analogy owned by the account.
	Get(ctx context.Context, accountID, analogyID uuid.UUID) (*domain.Analogy, error)

	// List returns the account's analogies, newest first.
	List(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Analogy, error)

	// Count returns how many analogies the account has stored.
	Count(ctx context.Context, accountID uuid.UUID) (int, error)

	// Delete removes an analogy, freeing storage quota immediately.
	Delete(ctx context.Context, accountID, analogyID uuid.UUID) error

	// MarkStreakPopupShown records that the streak popup for an analogy was
	// displayed, so the client never shows it twice.
	MarkStreakPopupShown(ctx context.Context, accountID, analogyID uuid.UUID) error
}

type analogyService struct {
	queries      repository.Querier
	entitlements EntitlementService
	streaks      StreakService
	provider     ai.Provider
	images       imagegen.Provider
	store        storage.Storage
	resolver     *tzdate.Resolver
	logger       *slog.Logger

	imagesPerAnalogy int
	now              func() time.Time
}

// NewAnalogyService creates a new analogy service.
func NewAnalogyService(
	queries repository.Querier,
	entitlements EntitlementService,
	streaks StreakService,
	provider ai.Provider,
	images imagegen.Provider,
	store storage.Storage,
	resolver *tzdate.Resolver,
	logger *slog.Logger,
	imagesPerAnalogy int,
) AnalogyService {
	if imagesPerAnalogy <= 0 {
		imagesPerAnalogy = defaultImagesPerAnalogy
	}
	return &analogyService{
		queries:          queries,
		entitlements:     entitlements,
		streaks:          streaks,
		provider:         provider,
		images:           images,
		store:            store,
		resolver:         resolver,
		logger:           logger,
		imagesPerAnalogy: imagesPerAnalogy,
		now:              time.Now,
	}
}

func (s *analogyService) Generate(ctx context.Context, params domain.GenerateParams) (*domain.GenerateResult, error) {
	const op = "analogy.generate"

	params.Topic = strings.TrimSpace(params.Topic)
	params.Audience = strings.TrimSpace(params.Audience)
	if params.Topic == "" {
		return nil, domain.Invalid(op, "Topic is required.")
	}
	if len(params.Topic) > maxTopicLength {
		return nil, domain.Invalid(op, fmt.Sprintf("Topic must be at most %d characters.", maxTopicLength))
	}
	if params.Audience == "" {
		return nil, domain.Invalid(op, "Audience is required.")
	}
	if len(params.Audience) > maxAudienceLength {
		return nil, domain.Invalid(op, fmt.Sprintf("Audience must be at most %d characters.", maxAudienceLength))
	}

	return s.generate(ctx, op, params)
}

func (s *analogyService) Regenerate(ctx context.Context, accountID, analogyID uuid.UUID) (*domain.GenerateResult, error) {
	const op = "analogy.regenerate"

	original, err := s.Get(ctx, accountID, analogyID)
	if err != nil {
		return nil, err
	}

	return s.generate(ctx, op, domain.GenerateParams{
		AccountID: accountID,
		Topic:     original.Topic,
		Audience:  original.Audience,
	})
}

// generate is the shared pipeline behind Generate and Regenerate.
func (s *analogyService) generate(ctx context.Context, op string, params domain.GenerateParams) (*domain.GenerateResult, error) {
	if err := s.entitlements.Reserve(ctx, params.AccountID); err != nil {
		return nil, err
	}

	started := s.now()
	aiResult, err := s.provider.GenerateAnalogy(ctx, ai.GenerateParams{
		Topic:     params.Topic,
		Audience:  params.Audience,
		AccountID: params.AccountID,
	})
	if err != nil {
		metrics.ProviderCalls.WithLabelValues("ai", "error").Inc()
		s.abort(ctx, op, params.AccountID)
		return nil, mapAIError(op, err)
	}
	metrics.ProviderCalls.WithLabelValues("ai", "success").Inc()
	metrics.AITokensTotal.WithLabelValues("input").Add(float64(aiResult.Usage.InputTokens))
	metrics.AITokensTotal.WithLabelValues("output").Add(float64(aiResult.Usage.OutputTokens))

	content := domain.AnalogyContent{
		Title:    aiResult.Output.Title,
		Analogy:  aiResult.Output.Analogy,
		Mapping:  aiResult.Output.Mapping,
		Caveats:  aiResult.Output.Caveats,
		Keywords: aiResult.Output.Keywords,
	}

	analogyID := uuid.New()
	imageURLs := s.synthesizeImages(ctx, analogyID, content, params.Topic)

	// The streak outcome is predicted before the insert so the popup flag can
	// be stored with the artifact. The authoritative advance happens below,
	// after persistence.
	willAdvance, today := s.predictStreakAdvance(ctx, params.AccountID)

	contentJSON, err := json.Marshal(content)
	if err != nil {
		s.abort(ctx, op, params.AccountID)
		return nil, domain.Internal(err, op, "failed to encode analogy content")
	}
	urlsJSON, err := json.Marshal(imageURLs)
	if err != nil {
		s.abort(ctx, op, params.AccountID)
		return nil, domain.Internal(err, op, "failed to encode image urls")
	}

	row, err := s.queries.CreateAnalogy(ctx, repository.CreateAnalogyParams{
		ID:               analogyID,
		AccountID:        params.AccountID,
		Topic:            params.Topic,
		Audience:         params.Audience,
		Content:          contentJSON,
		ImageUrls:        urlsJSON,
		StreakPopupShown: !willAdvance,
	})
	if err != nil {
		s.abort(ctx, op, params.AccountID)
		return nil, domain.Internal(err, op, "failed to save analogy")
	}

	// From here on the artifact exists. Accounting failures are anomalies,
	// not user errors.
	if err := s.entitlements.Commit(ctx, params.AccountID); err != nil {
		s.logger.Error("usage commit failed after analogy persisted",
			"op", op, "account_id", params.AccountID, "analogy_id", analogyID, "error", err)
	}

	showPopup := willAdvance
	var snapshot domain.StreakSnapshot
	adv, err := s.streaks.RecordActivity(ctx, params.AccountID)
	if err != nil {
		s.logger.Error("streak record failed after analogy persisted",
			"op", op, "account_id", params.AccountID, "analogy_id", analogyID, "error", err)
	} else {
		showPopup = adv.Advanced
		snapshot = adv.State.Snapshot(today)
	}

	metrics.GenerationsTotal.WithLabelValues("success").Inc()

	analogy, err := analogyFromRow(row)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode saved analogy")
	}

	s.logger.Info("analogy generated",
		"op", op,
		"account_id", params.AccountID,
		"analogy_id", analogyID,
		"topic", params.Topic,
		"model", aiResult.Usage.Model,
		"duration", s.now().Sub(started),
	)

	return &domain.GenerateResult{
		Analogy:         analogy,
		Streak:          snapshot,
		ShowStreakPopup: showPopup,
	}, nil
}

func (s *analogyService) Get(ctx context.Context, accountID, analogyID uuid.UUID) (*domain.Analogy, error) {
	const op = "analogy.get"

	row, err := s.queries.GetAnalogy(ctx, analogyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "analogy", analogyID.String())
		}
		return nil, domain.Internal(err, op, "failed to load analogy")
	}
	// Ownership mismatch reads as not found so ids cannot be probed.
	if row.AccountID != accountID {
		return nil, domain.NotFound(op, "analogy", analogyID.String())
	}

	analogy, err := analogyFromRow(row)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to decode analogy")
	}
	return analogy, nil
}

func (s *analogyService) List(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Analogy, error) {
	const op = "analogy.list"

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.queries.ListAnalogiesByAccount(ctx, repository.ListAnalogiesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list analogies")
	}

	analogies := make([]domain.Analogy, 0, len(rows))
	for _, row := range rows {
		analogy, err := analogyFromRow(row)
		if err != nil {
			// A single corrupt row should not hide the rest of the list.
			s.logger.Error("skipping undecodable analogy", "op", op, "analogy_id", row.ID, "error", err)
			continue
		}
		analogies = append(analogies, *analogy)
	}
	return analogies, nil
}

func (s *analogyService) Count(ctx context.Context, accountID uuid.UUID) (int, error) {
	const op = "analogy.count"

	count, err := s.queries.CountAnalogiesByAccount(ctx, accountID)
	if err != nil {
		return 0, domain.Internal(err, op, "failed to count analogies")
	}
	return int(count), nil
}

func (s *analogyService) Delete(ctx context.Context, accountID, analogyID uuid.UUID) error {
	const op = "analogy.delete"

	rows, err := s.queries.DeleteAnalogy(ctx, repository.DeleteAnalogyParams{
		ID:        analogyID,
		AccountID: accountID,
	})
	if err != nil {
		return domain.Internal(err, op, "failed to delete analogy")
	}
	if rows == 0 {
		return domain.NotFound(op, "analogy", analogyID.String())
	}

	s.logger.Info("analogy deleted", "account_id", accountID, "analogy_id", analogyID)
	return nil
}

func (s *analogyService) MarkStreakPopupShown(ctx context.Context, accountID, analogyID uuid.UUID) error {
	const op = "analogy.mark_streak_popup_shown"

	rows, err := s.queries.MarkStreakPopupShown(ctx, repository.MarkStreakPopupShownParams{
		ID:        analogyID,
		AccountID: accountID,
	})
	if err != nil {
		return domain.Internal(err, op, "failed to mark streak popup shown")
	}
	if rows == 0 {
		return domain.NotFound(op, "analogy", analogyID.String())
	}
	return nil
}

// synthesizeImages renders the illustrations concurrently. Every failure
// degrades to a bundled fallback URL; illustration problems never fail a
// generation.
func (s *analogyService) synthesizeImages(ctx context.Context, analogyID uuid.UUID, content domain.AnalogyContent, topic string) []string {
	urls := make([]string, s.imagesPerAnalogy)

	var wg sync.WaitGroup
	for i := range urls {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			urls[i] = s.synthesizeImage(ctx, analogyID, i, imagePrompt(content, topic, i))
		}(i)
	}
	wg.Wait()

	return urls
}

func (s *analogyService) synthesizeImage(ctx context.Context, analogyID uuid.UUID, index int, prompt string) string {
	img, err := s.images.GenerateImage(ctx, prompt)
	if err != nil {
		metrics.ProviderCalls.WithLabelValues("image", "error").Inc()
		s.logger.Warn("image synthesis failed, using fallback",
			"analogy_id", analogyID, "index", index, "error", err)
		return fallbackImageURL(index)
	}
	metrics.ProviderCalls.WithLabelValues("image", "success").Inc()

	key := storage.AnalogyImageKey(analogyID, index, img.ContentType)
	err = s.store.Put(ctx, key, bytes.NewReader(img.Data), storage.PutOptions{
		ContentType: img.ContentType,
		Public:      true,
	})
	if err != nil {
		s.logger.Warn("image upload failed, using fallback",
			"analogy_id", analogyID, "index", index, "key", key, "error", err)
		return fallbackImageURL(index)
	}

	url, err := s.store.URL(ctx, key, imageURLTTL)
	if err != nil {
		s.logger.Warn("image url resolution failed, using fallback",
			"analogy_id", analogyID, "index", index, "key", key, "error", err)
		return fallbackImageURL(index)
	}
	return url
}

// predictStreakAdvance determines whether this generation will be the first
// activity of the account's local day. A failed read defaults to no advance.
func (s *analogyService) predictStreakAdvance(ctx context.Context, accountID uuid.UUID) (bool, time.Time) {
	row, err := s.queries.GetAccount(ctx, accountID)
	if err != nil {
		s.logger.Warn("streak prediction failed", "account_id", accountID, "error", err)
		return false, s.resolver.LocalDate("", s.now())
	}
	account := accountFromRow(row)
	today := s.resolver.LocalDate(account.Timezone, s.now())

	validated, _ := streakState(account).Validate(today)
	advance := validated.LastDate == nil || !validated.LastDate.Equal(today)
	return advance, today
}

// abort releases the quota reservation on a pre-persistence failure.
func (s *analogyService) abort(ctx context.Context, op string, accountID uuid.UUID) {
	metrics.GenerationsTotal.WithLabelValues("error").Inc()
	if err := s.entitlements.Release(ctx, accountID); err != nil {
		s.logger.Error("failed to release reservation after aborted generation",
			"op", op, "account_id", accountID, "error", err)
	}
}

// imagePrompt builds the prompt for one illustration from the content's
// keyword seeds, falling back to the topic once keywords run out.
func imagePrompt(content domain.AnalogyContent, topic string, index int) string {
	seed := topic
	if index < len(content.Keywords) && strings.TrimSpace(content.Keywords[index]) != "" {
		seed = content.Keywords[index]
	}
	return comicStylePrefix + seed
}

// fallbackImageURL returns one of the bundled default illustrations.
func fallbackImageURL(index int) string {
	return fmt.Sprintf("/assets/default_image%d.jpeg", index%defaultImagesPerAnalogy)
}

// mapAIError converts provider failures into user-facing domain errors.
func mapAIError(op string, err error) error {
	switch {
	case errors.Is(err, ai.EAITimeout):
		return domain.Wrap(err, domain.ETIMEOUT, op, "Analogy generation timed out. Please try again.")
	case errors.Is(err, ai.EAIRateLimit), errors.Is(err, ai.EAIUnavailable):
		return domain.Wrap(err, domain.EUNAVAILABLE, op, "Service temporarily unavailable. Please try again.")
	default:
		return domain.Internal(err, op, "failed to generate analogy")
	}
}

// analogyFromRow decodes a repository row into the domain type.
func analogyFromRow(row repository.Analogy) (*domain.Analogy, error) {
	var content domain.AnalogyContent
	if len(row.Content) > 0 {
		if err := json.Unmarshal(row.Content, &content); err != nil {
			return nil, fmt.Errorf("decode content: %w", err)
		}
	}
	var urls []string
	if len(row.ImageUrls) > 0 {
		if err := json.Unmarshal(row.ImageUrls, &urls); err != nil {
			return nil, fmt.Errorf("decode image urls: %w", err)
		}
	}
	return &domain.Analogy{
		ID:               row.ID,
		AccountID:        row.AccountID,
		Topic:            row.Topic,
		Audience:         row.Audience,
		Content:          content,
		ImageURLs:        urls,
		StreakPopupShown: row.StreakPopupShown,
		CreatedAt:        row.CreatedAt,
	}, nil
}
