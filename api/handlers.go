package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeafMist/notice-radar/internal/config"
	"github.com/DeafMist/notice-radar/internal/elasticsearch"
	"github.com/DeafMist/notice-radar/internal/models"
)

const nextCursorHeader = "X-Next-Cursor"

type documentStore interface {
	ListDocuments(ctx context.Context, params elasticsearch.ListParams) (*elasticsearch.ListResult, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	Health(ctx context.Context) error
}

type server struct {
	log   *slog.Logger
	cfg   *config.API
	store documentStore
}

type errorResponse struct {
	Error string `json:"error"`
}

type documentResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Summary      *string   `json:"summary"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

func toResponse(doc models.Document) documentResponse {
	out := documentResponse{
		ID:           doc.ID,
		Title:        doc.Title,
		URL:          doc.URL,
		DiscoveredAt: doc.DiscoveredAt.UTC(),
	}
	if doc.Summary != "" {
		summary := doc.Summary
		out.Summary = &summary
	}
	return out
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Route("/api/documents", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	params := elasticsearch.ListParams{
		Limit:  clampInt(r.URL.Query().Get("limit"), s.cfg.DefaultPage, s.cfg.MaxPage),
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}

	result, err := s.store.ListDocuments(ctx, params)
	if err != nil {
		if errors.Is(err, elasticsearch.ErrInvalidCursor) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.log.Error("list documents", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	items := make([]documentResponse, 0, len(result.Items))
	for _, doc := range result.Items {
		items = append(items, toResponse(doc))
	}

	if result.NextCursor != "" {
		w.Header().Set(nextCursorHeader, result.NextCursor)
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, elasticsearch.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		s.log.Error("get document", slog.String("id", id), slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, toResponse(*doc))
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
