package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Majek11/shortly-v1.0/internal/database"
	"github.com/Majek11/shortly-v1.0/internal/models"
	"github.com/Majek11/shortly-v1.0/internal/shortcode"
)

var (
	// ErrInvalidURL is returned when the original URL is not a well-formed absolute URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrAliasTaken is returned when the requested custom alias is already in use.
	ErrAliasTaken = errors.New("custom alias already exists")
	// ErrCodeExhausted is returned when the maximum number of attempts for
	// generating a unique short code is exceeded. Given the alphabet size this
	// should effectively never happen and is worth alerting on.
	ErrCodeExhausted = errors.New("unable to generate unique short code")
	// ErrURLExpired is returned when a short code resolves to a URL whose
	// expiration timestamp has passed. Callers render it like a missing URL.
	ErrURLExpired = errors.New("url expired")
)

// URLRepository defines the interface for working with URL and click records
// at the business logic layer.
type URLRepository interface {
	// Create inserts a new shortened URL with an optional expiration.
	// Returns database.ErrShortCodeExists when the code is already taken.
	Create(ctx context.Context, shortCode, originalURL string, expiresAt *time.Time) (*models.URL, error)

	// GetActiveByShortCode retrieves an active URL by its short code.
	GetActiveByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// GetByShortCode retrieves a URL by its short code regardless of active state.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// List returns up to limit URLs, newest first.
	List(ctx context.Context, limit int) ([]models.URL, error)

	// Deactivate soft-deletes a URL by its short code.
	Deactivate(ctx context.Context, shortCode string) error

	// SaveClick appends one click record.
	SaveClick(ctx context.Context, click models.Click) error

	// IncrementClicks atomically bumps the aggregate click counter.
	IncrementClicks(ctx context.Context, shortCode string) error

	// RecentClicks returns up to limit clicks for a short code, newest first.
	RecentClicks(ctx context.Context, shortCode string, limit int) ([]models.Click, error)

	// DailyClicks returns the day-bucketed click histogram for the trailing window.
	DailyClicks(ctx context.Context, shortCode string, days int) ([]models.DailyClicks, error)
}

// URLCache caches resolved original URLs by short code. Implementations are
// best-effort; a miss always falls through to the repository.
type URLCache interface {
	Get(ctx context.Context, shortCode string) (string, bool)
	Set(ctx context.Context, shortCode, originalURL string, ttl time.Duration)
	Delete(ctx context.Context, shortCode string)
}

// URLService provides methods to manage URL shortening and click analytics.
// The store is the sole shared mutable resource; the service keeps no
// long-lived state beyond its dependencies, so any number of instances may
// run concurrently against the same store.
type URLService struct {
	logger          *slog.Logger
	repo            URLRepository
	cache           URLCache // nil when caching is disabled
	shortCodeLength int
}

// NewURLService creates a new URLService. A nil cache disables resolve
// caching. A non-positive shortCodeLength falls back to the default.
func NewURLService(logger *slog.Logger, repo URLRepository, cache URLCache, shortCodeLength int) *URLService {
	if shortCodeLength < 1 {
		shortCodeLength = shortcode.DefaultLength
	}

	return &URLService{
		logger:          logger,
		repo:            repo,
		cache:           cache,
		shortCodeLength: shortCodeLength,
	}
}

func isValidURL(raw string) bool {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ShortenURL validates the original URL and persists a new mapping under a
// custom alias or a freshly generated code. Uniqueness is enforced by the
// store's constraint; the bounded retry loop only smooths over the rare
// random collision. A custom alias conflict fails immediately with
// ErrAliasTaken and never falls back to random generation. An expiration in
// the past is accepted here and rejected at resolution time.
func (s *URLService) ShortenURL(ctx context.Context, originalURL, customAlias string, expiresAt *time.Time) (*models.URL, error) {
	const op = "service.URLService.ShortenURL"
	const maxAttempts = 10

	if !isValidURL(originalURL) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}

	if customAlias != "" {
		url, err := s.repo.Create(ctx, customAlias, originalURL, expiresAt)
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				return nil, fmt.Errorf("%s: %w", op, ErrAliasTaken)
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, nil
	}

	for i := 0; i < maxAttempts; i++ {
		code, err := shortcode.Generate(s.shortCodeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		url, err := s.repo.Create(ctx, code, originalURL, expiresAt)
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrCodeExhausted)
}

// ResolveShortCode returns the original URL for an active, unexpired short
// code. It has no side effects; click recording is a separate step fired by
// the caller after resolution succeeds.
func (s *URLService) ResolveShortCode(ctx context.Context, shortCode string) (string, error) {
	const op = "service.URLService.ResolveShortCode"

	if s.cache != nil {
		if target, ok := s.cache.Get(ctx, shortCode); ok {
			return target, nil
		}
	}

	url, err := s.repo.GetActiveByShortCode(ctx, shortCode)
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	if url.ExpiresAt != nil && url.ExpiresAt.Before(time.Now()) {
		s.logger.Info("expired short code accessed",
			slog.String("short_code", shortCode),
			slog.Time("expired_at", *url.ExpiresAt),
		)

		return "", fmt.Errorf("%s: %w", op, ErrURLExpired)
	}

	if s.cache != nil {
		var ttl time.Duration
		if url.ExpiresAt != nil {
			ttl = time.Until(*url.ExpiresAt)
		}

		s.cache.Set(ctx, shortCode, url.OriginalURL, ttl)
	}

	return url.OriginalURL, nil
}

// RecordClick appends one click record and bumps the aggregate counter. It is
// best-effort: failures are logged, never returned, because in the normal
// flow the redirect has already been served. The code is not checked for
// activity or expiry, so clicks can still be recorded for codes that no
// longer resolve. When the insert fails the increment is skipped; an
// increment failure after a successful insert is tolerated since the counter
// is a cache of the click table and can be recomputed.
func (s *URLService) RecordClick(ctx context.Context, shortCode string, click models.Click) {
	const op = "service.URLService.RecordClick"

	click.ShortCode = shortCode

	if err := s.repo.SaveClick(ctx, click); err != nil {
		s.logger.Error("failed to save click record",
			slog.String("op", op),
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)

		return
	}

	if err := s.repo.IncrementClicks(ctx, shortCode); err != nil {
		s.logger.Error("failed to increment click counter",
			slog.String("op", op),
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
	}
}

// GetURLStats builds the analytics report for a short code: the URL record
// itself, the most recent clicks and the trailing daily histogram. Unlike
// resolution it also succeeds for deactivated codes.
func (s *URLService) GetURLStats(ctx context.Context, shortCode string) (*models.URLStats, error) {
	const op = "service.URLService.GetURLStats"
	const recentClicksLimit = 100
	const dailyClicksDays = 30

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	recent, err := s.repo.RecentClicks(ctx, shortCode, recentClicksLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get recent clicks: %w", op, err)
	}

	daily, err := s.repo.DailyClicks(ctx, shortCode, dailyClicksDays)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get daily clicks: %w", op, err)
	}

	return &models.URLStats{
		URL:          *url,
		RecentClicks: recent,
		DailyClicks:  daily,
	}, nil
}

// ListURLs returns the most recently created URLs. A non-positive limit falls
// back to the default cap of 50. There is no pagination cursor, so records
// beyond the cap are unreachable through this call.
func (s *URLService) ListURLs(ctx context.Context, limit int) ([]models.URL, error) {
	const op = "service.URLService.ListURLs"
	const defaultLimit = 50

	if limit <= 0 {
		limit = defaultLimit
	}

	urls, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	return urls, nil
}

// DeactivateURL soft-deletes the URL associated with the short code and drops
// any cached resolution for it. Reactivation is not supported.
func (s *URLService) DeactivateURL(ctx context.Context, shortCode string) error {
	const op = "service.URLService.DeactivateURL"

	if err := s.repo.Deactivate(ctx, shortCode); err != nil {
		return fmt.Errorf("%s: failed to deactivate url: %w", op, err)
	}

	if s.cache != nil {
		s.cache.Delete(ctx, shortCode)
	}

	return nil
}
