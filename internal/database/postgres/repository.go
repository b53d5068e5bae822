package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Majek11/shortly-v1.0/internal/database"
	"github.com/Majek11/shortly-v1.0/internal/models"
)

type urlRecord struct {
	ID          int64        `db:"id"`
	ShortCode   string       `db:"short_code"`
	OriginalURL string       `db:"original_url"`
	Clicks      int64        `db:"clicks"`
	ExpiresAt   sql.NullTime `db:"expires_at"`
	IsActive    bool         `db:"is_active"`
	CreatedAt   time.Time    `db:"created_at"`
}

func (r *urlRecord) ToURL() *models.URL {
	url := &models.URL{
		ID:          r.ID,
		ShortCode:   r.ShortCode,
		OriginalURL: r.OriginalURL,
		Clicks:      r.Clicks,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
	}

	if r.ExpiresAt.Valid {
		t := r.ExpiresAt.Time
		url.ExpiresAt = &t
	}

	return url
}

type clickRecord struct {
	ID        int64          `db:"id"`
	ShortCode string         `db:"short_code"`
	IPAddress sql.NullString `db:"ip_address"`
	UserAgent sql.NullString `db:"user_agent"`
	Referer   sql.NullString `db:"referer"`
	Country   sql.NullString `db:"country"`
	ClickedAt time.Time      `db:"clicked_at"`
}

func (r *clickRecord) ToClick() models.Click {
	return models.Click{
		ID:        r.ID,
		ShortCode: r.ShortCode,
		IPAddress: r.IPAddress.String,
		UserAgent: r.UserAgent.String,
		Referer:   r.Referer.String,
		Country:   r.Country.String,
		ClickedAt: r.ClickedAt,
	}
}

type dailyClicksRecord struct {
	Date   time.Time `db:"date"`
	Clicks int64     `db:"clicks"`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

// Create inserts a new url row. A nil expiresAt stores NULL, meaning the URL
// never expires. A duplicate short code surfaces as database.ErrShortCodeExists.
func (r *URLRepository) Create(ctx context.Context, shortCode, originalURL string, expiresAt *time.Time) (*models.URL, error) {
	const op = "database.postgres.URLRepository.Create"

	rec := new(urlRecord)
	query := `INSERT INTO urls(short_code, original_url, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, shortCode, originalURL, expiresAt)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// GetActiveByShortCode retrieves a url row by short code, skipping deactivated
// rows. Soft-deleted and never-created codes are indistinguishable to callers.
func (r *URLRepository) GetActiveByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetActiveByShortCode"

	rec := new(urlRecord)
	query := `SELECT * FROM urls
		WHERE short_code = $1 AND is_active = TRUE`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// GetByShortCode retrieves a url row by short code regardless of its active
// state, so statistics stay available after deactivation.
func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByShortCode"

	rec := new(urlRecord)
	query := `SELECT * FROM urls
		WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// List returns up to limit url rows, newest first.
func (r *URLRepository) List(ctx context.Context, limit int) ([]models.URL, error) {
	const op = "database.postgres.URLRepository.List"

	var recs []urlRecord
	query := `SELECT * FROM urls
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	if err := r.db.SelectContext(ctx, &recs, query, limit); err != nil {
		return nil, fmt.Errorf("%s: failed to list url records: %w", op, err)
	}

	urls := make([]models.URL, 0, len(recs))
	for i := range recs {
		urls = append(urls, *recs[i].ToURL())
	}

	return urls, nil
}

// Deactivate marks a url row inactive. The row is kept so its short code is
// never recycled and its analytics remain readable.
func (r *URLRepository) Deactivate(ctx context.Context, shortCode string) error {
	const op = "database.postgres.URLRepository.Deactivate"

	query := `UPDATE urls
		SET is_active = FALSE
		WHERE short_code = $1`

	res, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to deactivate url record: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	return nil
}

// SaveClick appends one click row. The clicked_at timestamp is assigned by
// the store.
func (r *URLRepository) SaveClick(ctx context.Context, click models.Click) error {
	const op = "database.postgres.URLRepository.SaveClick"

	query := `INSERT INTO clicks(short_code, ip_address, user_agent, referer, country)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		click.ShortCode,
		nullString(click.IPAddress),
		nullString(click.UserAgent),
		nullString(click.Referer),
		nullString(click.Country),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to save click record: %w", op, err)
	}

	return nil
}

// IncrementClicks bumps the aggregate counter in a single statement so
// concurrent service instances never lose updates.
func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	const op = "database.postgres.URLRepository.IncrementClicks"

	query := `UPDATE urls
		SET clicks = clicks + 1
		WHERE short_code = $1`

	res, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to increment clicks: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	return nil
}

// RecentClicks returns up to limit click rows for a short code, newest first.
func (r *URLRepository) RecentClicks(ctx context.Context, shortCode string, limit int) ([]models.Click, error) {
	const op = "database.postgres.URLRepository.RecentClicks"

	var recs []clickRecord
	query := `SELECT * FROM clicks
		WHERE short_code = $1
		ORDER BY clicked_at DESC, id DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &recs, query, shortCode, limit); err != nil {
		return nil, fmt.Errorf("%s: failed to list click records: %w", op, err)
	}

	clicks := make([]models.Click, 0, len(recs))
	for i := range recs {
		clicks = append(clicks, recs[i].ToClick())
	}

	return clicks, nil
}

// DailyClicks returns per-day click counts for the trailing window, newest
// first. Buckets are UTC calendar days and days without clicks are omitted.
func (r *URLRepository) DailyClicks(ctx context.Context, shortCode string, days int) ([]models.DailyClicks, error) {
	const op = "database.postgres.URLRepository.DailyClicks"

	var recs []dailyClicksRecord
	query := `SELECT (clicked_at AT TIME ZONE 'UTC')::date AS date, COUNT(*) AS clicks
		FROM clicks
		WHERE short_code = $1 AND clicked_at >= now() - $2 * INTERVAL '1 day'
		GROUP BY date
		ORDER BY date DESC`

	if err := r.db.SelectContext(ctx, &recs, query, shortCode, days); err != nil {
		return nil, fmt.Errorf("%s: failed to aggregate daily clicks: %w", op, err)
	}

	daily := make([]models.DailyClicks, 0, len(recs))
	for _, rec := range recs {
		daily = append(daily, models.DailyClicks{Date: rec.Date, Clicks: rec.Clicks})
	}

	return daily, nil
}
