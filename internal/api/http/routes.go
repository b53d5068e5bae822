// Package http exposes the service operations over a chi router. The HTTP
// surface is a thin collaborator around the service layer: request decoding,
// validation, status mapping and the redirect entrypoint live here.
package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"

	"github.com/Majek11/shortly-v1.0/internal/models"
)

// URLService defines the interface for the core URL shortening and click
// analytics business logic.
type URLService interface {
	// ShortenURL creates a shortened version of the provided original URL,
	// under the custom alias when one is given. A nil expiresAt means the
	// mapping never expires.
	ShortenURL(ctx context.Context, originalURL, customAlias string, expiresAt *time.Time) (*models.URL, error)

	// ResolveShortCode returns the original URL for an active, unexpired
	// short code. It has no side effects.
	ResolveShortCode(ctx context.Context, shortCode string) (string, error)

	// RecordClick records one access to a short code. It is best-effort and
	// never reports failure; callers run it detached from the response.
	RecordClick(ctx context.Context, shortCode string, click models.Click)

	// GetURLStats returns the analytics report for a short code, including
	// deactivated ones.
	GetURLStats(ctx context.Context, shortCode string) (*models.URLStats, error)

	// ListURLs returns the most recently created URLs, newest first.
	ListURLs(ctx context.Context, limit int) ([]models.URL, error)

	// DeactivateURL disables the URL, making it no longer resolvable.
	DeactivateURL(ctx context.Context, shortCode string) error
}

// getValidate initializes a validator for incoming request payloads with
// field names taken from JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes a new HTTP router with all routes and middleware
// configured. The root-level short code route serves redirects; everything
// else lives under /api/v1.
func NewRouter(logger *httplog.Logger, urlSvc URLService) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/ping", handlePing)
	r.Get("/{shortCode}", handleRedirect(urlSvc))

	r.Route("/api/v1", func(r chi.Router) {
		validate := getValidate()

		r.Route("/shorten", func(r chi.Router) {
			r.Post("/", handleShortenURL(urlSvc, validate))

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Get("/", handleResolveShortCode(urlSvc))
				r.Delete("/", handleDeactivateURL(urlSvc))
				r.Get("/stats", handleGetURLStats(urlSvc))
			})
		})

		r.Get("/urls", handleListURLs(urlSvc))
	})

	return r
}
