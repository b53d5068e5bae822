package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/Majek11/shortly-v1.0/internal/database"
	"github.com/Majek11/shortly-v1.0/internal/models"
	"github.com/Majek11/shortly-v1.0/internal/shortcode"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Create(ctx context.Context, shortCode, originalURL string, expiresAt *time.Time) (*models.URL, error) {
	args := r.Called(ctx, shortCode, originalURL, expiresAt)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) GetActiveByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	args := r.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	args := r.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) List(ctx context.Context, limit int) ([]models.URL, error) {
	args := r.Called(ctx, limit)
	urls, _ := args.Get(0).([]models.URL)
	return urls, args.Error(1)
}

func (r *MockURLRepository) Deactivate(ctx context.Context, shortCode string) error {
	args := r.Called(ctx, shortCode)
	return args.Error(0)
}

func (r *MockURLRepository) SaveClick(ctx context.Context, click models.Click) error {
	args := r.Called(ctx, click)
	return args.Error(0)
}

func (r *MockURLRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	args := r.Called(ctx, shortCode)
	return args.Error(0)
}

func (r *MockURLRepository) RecentClicks(ctx context.Context, shortCode string, limit int) ([]models.Click, error) {
	args := r.Called(ctx, shortCode, limit)
	clicks, _ := args.Get(0).([]models.Click)
	return clicks, args.Error(1)
}

func (r *MockURLRepository) DailyClicks(ctx context.Context, shortCode string, days int) ([]models.DailyClicks, error) {
	args := r.Called(ctx, shortCode, days)
	daily, _ := args.Get(0).([]models.DailyClicks)
	return daily, args.Error(1)
}

type MockURLCache struct {
	mock.Mock
}

func (c *MockURLCache) Get(ctx context.Context, shortCode string) (string, bool) {
	args := c.Called(ctx, shortCode)
	return args.String(0), args.Bool(1)
}

func (c *MockURLCache) Set(ctx context.Context, shortCode, originalURL string, ttl time.Duration) {
	c.Called(ctx, shortCode, originalURL, ttl)
}

func (c *MockURLCache) Delete(ctx context.Context, shortCode string) {
	c.Called(ctx, shortCode)
}

type URLServiceTestSuite struct {
	suite.Suite
	logger     *slog.Logger
	errUnknown error
	repoMock   *MockURLRepository
	svc        *URLService
}

func (suite *URLServiceTestSuite) SetupSuite() {
	suite.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.errUnknown = errors.New("unknown error")
}

func (suite *URLServiceTestSuite) SetupSubTest() {
	suite.repoMock = new(MockURLRepository)
	suite.svc = NewURLService(suite.logger, suite.repoMock, nil, shortcode.DefaultLength)
}

func (suite *URLServiceTestSuite) TearDownSubTest() {
	suite.repoMock.AssertExpectations(suite.T())
}

func (suite *URLServiceTestSuite) TestShortenURL() {
	suite.Run("invalid url", func() {
		for _, raw := range []string{"", "not a url", "example.com/path", "ftp://example.com"} {
			url, err := suite.svc.ShortenURL(context.Background(), raw, "", nil)

			suite.Error(err)
			suite.ErrorIs(err, ErrInvalidURL)
			suite.Nil(url)
		}
	})

	suite.Run("alias taken", func() {
		suite.repoMock.
			On("Create", context.Background(), "my-alias", "https://example.com", mock.Anything).
			Once().
			Return(nil, database.ErrShortCodeExists)

		url, err := suite.svc.ShortenURL(context.Background(), "https://example.com", "my-alias", nil)

		suite.Error(err)
		suite.ErrorIs(err, ErrAliasTaken)
		suite.Nil(url)
	})

	suite.Run("custom alias success", func() {
		suite.repoMock.
			On("Create", context.Background(), "my-alias", "https://example.com", mock.Anything).
			Once().
			Return(&models.URL{
				ShortCode:   "my-alias",
				OriginalURL: "https://example.com",
				IsActive:    true,
			}, nil)

		url, err := suite.svc.ShortenURL(context.Background(), "https://example.com", "my-alias", nil)

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal("my-alias", url.ShortCode)
		suite.Zero(url.Clicks)
	})

	suite.Run("maximum attempts error", func() {
		suite.repoMock.
			On("Create", context.Background(), mock.Anything, "https://example.com", mock.Anything).
			Times(10).
			Return(nil, database.ErrShortCodeExists)

		url, err := suite.svc.ShortenURL(context.Background(), "https://example.com", "", nil)

		suite.Error(err)
		suite.ErrorIs(err, ErrCodeExhausted)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.repoMock.
			On("Create", context.Background(), mock.Anything, "https://example.com", mock.Anything).
			Once().
			Return(nil, suite.errUnknown)

		url, err := suite.svc.ShortenURL(context.Background(), "https://example.com", "", nil)

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		suite.repoMock.
			On("Create", context.Background(), mock.Anything, "https://example.com", mock.Anything).
			Once().
			Return(&models.URL{
				ShortCode:   "Ab3xY9",
				OriginalURL: "https://example.com",
				IsActive:    true,
			}, nil)

		url, err := suite.svc.ShortenURL(context.Background(), "https://example.com", "", nil)

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal("Ab3xY9", url.ShortCode)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.Zero(url.Clicks)
	})

	suite.Run("past expiration is accepted", func() {
		expiry := time.Now().Add(-time.Hour)

		suite.repoMock.
			On("Create", context.Background(), mock.Anything, "https://example.com", &expiry).
			Once().
			Return(&models.URL{
				ShortCode:   "Ab3xY9",
				OriginalURL: "https://example.com",
				ExpiresAt:   &expiry,
				IsActive:    true,
			}, nil)

		url, err := suite.svc.ShortenURL(context.Background(), "https://example.com", "", &expiry)

		suite.NoError(err)
		suite.NotNil(url)
		suite.NotNil(url.ExpiresAt)
	})
}

func (suite *URLServiceTestSuite) TestResolveShortCode() {
	suite.Run("not found", func() {
		suite.repoMock.
			On("GetActiveByShortCode", context.Background(), "abc123").
			Once().
			Return(nil, database.ErrURLNotFound)

		target, err := suite.svc.ResolveShortCode(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrURLNotFound)
		suite.Empty(target)
	})

	suite.Run("expired", func() {
		expiry := time.Now().Add(-time.Minute)

		suite.repoMock.
			On("GetActiveByShortCode", context.Background(), "abc123").
			Once().
			Return(&models.URL{
				ShortCode:   "abc123",
				OriginalURL: "https://example.com",
				ExpiresAt:   &expiry,
				IsActive:    true,
			}, nil)

		target, err := suite.svc.ResolveShortCode(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, ErrURLExpired)
		suite.Empty(target)
	})

	suite.Run("success", func() {
		suite.repoMock.
			On("GetActiveByShortCode", context.Background(), "abc123").
			Once().
			Return(&models.URL{
				ShortCode:   "abc123",
				OriginalURL: "https://example.com",
				IsActive:    true,
			}, nil)

		target, err := suite.svc.ResolveShortCode(context.Background(), "abc123")

		suite.NoError(err)
		suite.Equal("https://example.com", target)
	})

	suite.Run("cache hit skips the store", func() {
		cacheMock := new(MockURLCache)
		cacheMock.
			On("Get", context.Background(), "abc123").
			Once().
			Return("https://example.com", true)

		svc := NewURLService(suite.logger, suite.repoMock, cacheMock, shortcode.DefaultLength)

		target, err := svc.ResolveShortCode(context.Background(), "abc123")

		suite.NoError(err)
		suite.Equal("https://example.com", target)
		cacheMock.AssertExpectations(suite.T())
	})

	suite.Run("cache miss populates the cache", func() {
		cacheMock := new(MockURLCache)
		cacheMock.
			On("Get", context.Background(), "abc123").
			Once().
			Return("", false)
		cacheMock.
			On("Set", context.Background(), "abc123", "https://example.com", mock.Anything).
			Once()

		suite.repoMock.
			On("GetActiveByShortCode", context.Background(), "abc123").
			Once().
			Return(&models.URL{
				ShortCode:   "abc123",
				OriginalURL: "https://example.com",
				IsActive:    true,
			}, nil)

		svc := NewURLService(suite.logger, suite.repoMock, cacheMock, shortcode.DefaultLength)

		target, err := svc.ResolveShortCode(context.Background(), "abc123")

		suite.NoError(err)
		suite.Equal("https://example.com", target)
		cacheMock.AssertExpectations(suite.T())
	})
}

func (suite *URLServiceTestSuite) TestRecordClick() {
	click := models.Click{
		IPAddress: "203.0.113.10",
		UserAgent: "curl/8.0",
	}

	wantClick := click
	wantClick.ShortCode = "abc123"

	suite.Run("success", func() {
		suite.repoMock.
			On("SaveClick", context.Background(), wantClick).
			Once().
			Return(nil)
		suite.repoMock.
			On("IncrementClicks", context.Background(), "abc123").
			Once().
			Return(nil)

		suite.svc.RecordClick(context.Background(), "abc123", click)
	})

	suite.Run("save failure skips the increment", func() {
		suite.repoMock.
			On("SaveClick", context.Background(), wantClick).
			Once().
			Return(suite.errUnknown)

		suite.svc.RecordClick(context.Background(), "abc123", click)

		suite.repoMock.AssertNotCalled(suite.T(), "IncrementClicks", mock.Anything, mock.Anything)
	})

	suite.Run("increment failure is tolerated", func() {
		suite.repoMock.
			On("SaveClick", context.Background(), wantClick).
			Once().
			Return(nil)
		suite.repoMock.
			On("IncrementClicks", context.Background(), "abc123").
			Once().
			Return(suite.errUnknown)

		suite.svc.RecordClick(context.Background(), "abc123", click)
	})
}

func (suite *URLServiceTestSuite) TestGetURLStats() {
	suite.Run("not found", func() {
		suite.repoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(nil, database.ErrURLNotFound)

		stats, err := suite.svc.GetURLStats(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrURLNotFound)
		suite.Nil(stats)
	})

	suite.Run("success for deactivated url", func() {
		now := time.Now()

		suite.repoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(&models.URL{
				ShortCode:   "abc123",
				OriginalURL: "https://example.com",
				Clicks:      3,
				IsActive:    false,
			}, nil)
		suite.repoMock.
			On("RecentClicks", context.Background(), "abc123", 100).
			Once().
			Return([]models.Click{
				{ID: 3, ShortCode: "abc123", ClickedAt: now},
				{ID: 2, ShortCode: "abc123", ClickedAt: now.Add(-time.Minute)},
				{ID: 1, ShortCode: "abc123", ClickedAt: now.Add(-time.Hour)},
			}, nil)
		suite.repoMock.
			On("DailyClicks", context.Background(), "abc123", 30).
			Once().
			Return([]models.DailyClicks{
				{Date: now.Truncate(24 * time.Hour), Clicks: 3},
			}, nil)

		stats, err := suite.svc.GetURLStats(context.Background(), "abc123")

		suite.NoError(err)
		suite.NotNil(stats)
		suite.False(stats.IsActive)
		suite.Equal(int64(3), stats.Clicks)
		suite.Len(stats.RecentClicks, 3)
		suite.Equal(int64(3), stats.RecentClicks[0].ID)
		suite.Len(stats.DailyClicks, 1)
	})

	suite.Run("recent clicks error", func() {
		suite.repoMock.
			On("GetByShortCode", context.Background(), "abc123").
			Once().
			Return(&models.URL{ShortCode: "abc123"}, nil)
		suite.repoMock.
			On("RecentClicks", context.Background(), "abc123", 100).
			Once().
			Return(nil, suite.errUnknown)

		stats, err := suite.svc.GetURLStats(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(stats)
	})
}

func (suite *URLServiceTestSuite) TestListURLs() {
	suite.Run("default limit", func() {
		suite.repoMock.
			On("List", context.Background(), 50).
			Once().
			Return([]models.URL{}, nil)

		urls, err := suite.svc.ListURLs(context.Background(), 0)

		suite.NoError(err)
		suite.NotNil(urls)
	})

	suite.Run("unknown error", func() {
		suite.repoMock.
			On("List", context.Background(), 10).
			Once().
			Return(nil, suite.errUnknown)

		urls, err := suite.svc.ListURLs(context.Background(), 10)

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(urls)
	})

	suite.Run("success", func() {
		suite.repoMock.
			On("List", context.Background(), 2).
			Once().
			Return([]models.URL{
				{ShortCode: "code2"},
				{ShortCode: "code1"},
			}, nil)

		urls, err := suite.svc.ListURLs(context.Background(), 2)

		suite.NoError(err)
		suite.Len(urls, 2)
		suite.Equal("code2", urls[0].ShortCode)
	})
}

func (suite *URLServiceTestSuite) TestDeactivateURL() {
	suite.Run("not found", func() {
		suite.repoMock.
			On("Deactivate", context.Background(), "abc123").
			Once().
			Return(database.ErrURLNotFound)

		err := suite.svc.DeactivateURL(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, database.ErrURLNotFound)
	})

	suite.Run("success", func() {
		suite.repoMock.
			On("Deactivate", context.Background(), "abc123").
			Once().
			Return(nil)

		err := suite.svc.DeactivateURL(context.Background(), "abc123")

		suite.NoError(err)
	})

	suite.Run("cache entry is dropped", func() {
		cacheMock := new(MockURLCache)
		cacheMock.
			On("Delete", context.Background(), "abc123").
			Once()

		suite.repoMock.
			On("Deactivate", context.Background(), "abc123").
			Once().
			Return(nil)

		svc := NewURLService(suite.logger, suite.repoMock, cacheMock, shortcode.DefaultLength)

		err := svc.DeactivateURL(context.Background(), "abc123")

		suite.NoError(err)
		cacheMock.AssertExpectations(suite.T())
	})
}

func TestURLService(t *testing.T) {
	suite.Run(t, new(URLServiceTestSuite))
}
