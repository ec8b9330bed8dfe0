package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"DocDigest/internal/domain"
	"DocDigest/internal/usecase"
)

// Runner is the part of usecase.Runner the control surface drives.
type Runner interface {
	Feeds() []domain.SummaryType
	Run(ctx context.Context, summaryType domain.SummaryType, opts usecase.RunOptions) (usecase.Report, error)
	Pending(ctx context.Context, summaryType domain.SummaryType) ([]usecase.PendingDocument, error)
}

type server struct {
	runner     Runner
	log        *slog.Logger
	runTimeout time.Duration
}

type errorResponse struct {
	Error string `json:"error"`
}

type feedsResponse struct {
	Feeds []domain.SummaryType `json:"feeds"`
}

type pendingResponse struct {
	Type      domain.SummaryType        `json:"type"`
	Documents []usecase.PendingDocument `json:"documents"`
}

// NewHandler builds the router: health, pending preview and run trigger.
func NewHandler(runner Runner, log *slog.Logger, runTimeout time.Duration) http.Handler {
	if runTimeout <= 0 {
		runTimeout = 30 * time.Minute
	}
	s := &server{runner: runner, log: log, runTimeout: runTimeout}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/feeds", func(r chi.Router) {
		r.Get("/", s.handleFeeds)
		r.Get("/{type}/pending", s.handlePending)
		r.Post("/{type}/runs", s.handleRun)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleFeeds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, feedsResponse{Feeds: s.runner.Feeds()})
}

func (s *server) handlePending(w http.ResponseWriter, r *http.Request) {
	summaryType, ok := s.feedParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	docs, err := s.runner.Pending(ctx, summaryType)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, pendingResponse{Type: summaryType, Documents: docs})
}

func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	summaryType, ok := s.feedParam(w, r)
	if !ok {
		return
	}

	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	opts := usecase.RunOptions{DryRun: dryRun}

	ctx, cancel := context.WithTimeout(r.Context(), s.runTimeout)
	defer cancel()

	report, err := s.runner.Run(ctx, summaryType, opts)
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case err != nil:
		if s.log != nil {
			s.log.Error("triggered run failed", "feed", summaryType, "run_id", report.RunID, "request_id", middleware.GetReqID(r.Context()), "error", err)
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *server) feedParam(w http.ResponseWriter, r *http.Request) (domain.SummaryType, bool) {
	summaryType := domain.SummaryType(strings.ToUpper(chi.URLParam(r, "type")))
	if !slices.Contains(s.runner.Feeds(), summaryType) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "feed " + string(summaryType) + " is not configured"})
		return "", false
	}
	return summaryType, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
