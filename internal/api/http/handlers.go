package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/Majek11/shortly-v1.0/internal/database"
	"github.com/Majek11/shortly-v1.0/internal/models"
	"github.com/Majek11/shortly-v1.0/internal/service"
	"github.com/Majek11/shortly-v1.0/pkg/response"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

type shortenRequest struct {
	URL         string     `json:"url" validate:"required,url"`
	CustomAlias string     `json:"custom_alias,omitempty" validate:"omitempty,min=3,max=64"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type urlResponse struct {
	ID        int64      `json:"id"`
	ShortCode string     `json:"short_code"`
	URL       string     `json:"url"`
	Clicks    int64      `json:"clicks"`
	IsActive  bool       `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toURLResponse(url *models.URL) urlResponse {
	return urlResponse{
		ID:        url.ID,
		ShortCode: url.ShortCode,
		URL:       url.OriginalURL,
		Clicks:    url.Clicks,
		IsActive:  url.IsActive,
		ExpiresAt: url.ExpiresAt,
		CreatedAt: url.CreatedAt,
	}
}

func handleShortenURL(svc URLService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleShortenURL"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, err := svc.ShortenURL(r.Context(), req.URL, req.CustomAlias, req.ExpiresAt)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidURL):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.InvalidURLResponse)
			case errors.Is(err, service.ErrAliasTaken):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.AliasTakenResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(url)))
	}
}

type resolveResponse struct {
	ShortCode string `json:"short_code"`
	URL       string `json:"url"`
}

func handleResolveShortCode(svc URLService) http.HandlerFunc {
	const op = "api.http.handleResolveShortCode"
	const successMsg = "The short code was successfully resolved."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		target, err := svc.ResolveShortCode(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) || errors.Is(err, service.ErrURLExpired) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, resolveResponse{
			ShortCode: shortCode,
			URL:       target,
		}))
	}
}

// handleRedirect serves the short link itself: it resolves the code, fires
// click recording on a detached goroutine and sends the visitor on. The
// redirect never waits for the click write.
func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		target, err := svc.ResolveShortCode(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) || errors.Is(err, service.ErrURLExpired) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		click := models.Click{
			IPAddress: r.RemoteAddr, // rewritten by the RealIP middleware
			UserAgent: r.UserAgent(),
			Referer:   r.Referer(),
		}
		go svc.RecordClick(context.WithoutCancel(r.Context()), shortCode, click)

		http.Redirect(w, r, target, http.StatusFound)
	}
}

type clickResponse struct {
	ID        int64     `json:"id"`
	ShortCode string    `json:"short_code"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Referer   string    `json:"referer,omitempty"`
	Country   string    `json:"country,omitempty"`
	ClickedAt time.Time `json:"clicked_at"`
}

type dailyClicksResponse struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

type statsResponse struct {
	ShortCode    string                `json:"short_code"`
	URL          string                `json:"url"`
	CreatedAt    time.Time             `json:"created_at"`
	ExpiresAt    *time.Time            `json:"expires_at,omitempty"`
	TotalClicks  int64                 `json:"total_clicks"`
	IsActive     bool                  `json:"is_active"`
	RecentClicks []clickResponse       `json:"recent_clicks"`
	DailyStats   []dailyClicksResponse `json:"daily_stats"`
}

func toStatsResponse(stats *models.URLStats) statsResponse {
	resp := statsResponse{
		ShortCode:    stats.ShortCode,
		URL:          stats.OriginalURL,
		CreatedAt:    stats.CreatedAt,
		ExpiresAt:    stats.ExpiresAt,
		TotalClicks:  stats.Clicks,
		IsActive:     stats.IsActive,
		RecentClicks: make([]clickResponse, 0, len(stats.RecentClicks)),
		DailyStats:   make([]dailyClicksResponse, 0, len(stats.DailyClicks)),
	}

	for _, click := range stats.RecentClicks {
		resp.RecentClicks = append(resp.RecentClicks, clickResponse{
			ID:        click.ID,
			ShortCode: click.ShortCode,
			IPAddress: click.IPAddress,
			UserAgent: click.UserAgent,
			Referer:   click.Referer,
			Country:   click.Country,
			ClickedAt: click.ClickedAt,
		})
	}

	for _, day := range stats.DailyClicks {
		resp.DailyStats = append(resp.DailyStats, dailyClicksResponse{
			Date:   day.Date.Format("2006-01-02"),
			Clicks: day.Clicks,
		})
	}

	return resp
}

func handleGetURLStats(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetURLStats"
	const successMsg = "The URL statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		stats, err := svc.GetURLStats(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toStatsResponse(stats)))
	}
}

func handleListURLs(svc URLService) http.HandlerFunc {
	const op = "api.http.handleListURLs"
	const successMsg = "The URLs retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		urls, err := svc.ListURLs(r.Context(), limit)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		data := make([]urlResponse, 0, len(urls))
		for i := range urls {
			data = append(data, toURLResponse(&urls[i]))
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}

func handleDeactivateURL(svc URLService) http.HandlerFunc {
	const op = "api.http.handleDeactivateURL"
	const successMsg = "The URL was successfully deactivated."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		err := svc.DeactivateURL(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}
