package models

import "time"

// URL represents a shortened URL and its associated metadata.
type URL struct {
	// ID is the unique identifier for the shortened URL record.
	ID int64
	// ShortCode is the short code or custom alias associated with the original URL.
	ShortCode string
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// Clicks tracks the number of times the shortened URL has been accessed.
	// It is a denormalized counter derivable from the click log.
	Clicks int64
	// ExpiresAt is the optional expiration timestamp. Nil means the URL never expires.
	ExpiresAt *time.Time
	// IsActive reports whether the URL still resolves. Deactivated URLs are kept
	// for analytics and never removed.
	IsActive bool
	// CreatedAt is the timestamp indicating when the shortened URL was created.
	CreatedAt time.Time
}
