package models

import "time"

// Click represents a single access to a shortened URL. Attribution fields are
// free text captured from the request and may be empty. Country is populated
// by an external geolocation collaborator, never computed here.
type Click struct {
	ID        int64
	ShortCode string
	IPAddress string
	UserAgent string
	Referer   string
	Country   string
	ClickedAt time.Time
}

// DailyClicks is one day bucket of the trailing click histogram. Date is
// truncated to a UTC calendar day.
type DailyClicks struct {
	Date   time.Time
	Clicks int64
}

// URLStats is the full analytics report for a short code. RecentClicks and
// DailyClicks are ordered newest first.
type URLStats struct {
	URL
	RecentClicks []Click
	DailyClicks  []DailyClicks
}
