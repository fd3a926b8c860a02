package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"animedb/internal/api"
	"animedb/internal/ingest"
	"animedb/internal/logging"
	"animedb/internal/metrics"
	"animedb/internal/services"
)

const (
	maxUploadBytes = 1 << 20
	maxChatBytes   = 64 << 10
)

// Uploader stores a release listing on behalf of a user.
type Uploader interface {
	Upload(ctx context.Context, userID, text string) (ingest.Report, error)
}

type apiServer struct {
	bind    string
	logger  *slog.Logger
	catalog *api.Service
	uploads Uploader
	metrics *metrics.Manager

	listener net.Listener
	server   *http.Server
}

func newAPIServer(bind, token string, catalog *api.Service, uploads Uploader, m *metrics.Manager, logger *slog.Logger) *apiServer {
	s := &apiServer{
		bind:    strings.TrimSpace(bind),
		logger:  logging.NewComponentLogger(logger, "api-server"),
		catalog: catalog,
		uploads: uploads,
		metrics: m,
	}
	s.server = &http.Server{
		Handler:           s.routes(token),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *apiServer) routes(token string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestContext)
	r.Use(instrument(s.metrics, s.logger))

	if reg := s.metrics.Registry(); reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(token, "/api/health"))
		r.Get("/health", s.handleHealth)
		r.Post("/upload", s.handleUpload)
		r.Get("/search", s.handleSearch)
		r.Get("/titles", s.handleTitles)
		r.Post("/chat", s.handleChat)
		r.Delete("/chat/{userID}", s.handleClearChat)
		r.Get("/uploaders", s.handleUploaders)
		r.Post("/uploaders", s.handleAuthorize)
	})
	return r
}

// start binds the listener and serves until the server is shut down.
func (s *apiServer) start() error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) serve() error {
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api serve: %w", err)
	}
	return nil
}

func (s *apiServer) shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp, err := s.catalog.Health(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleUpload accepts either a JSON {"text": ...} body or the raw listing.
func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("listing too large"))
		return
	}
	text := string(body)
	if isJSON(r) {
		var req api.UploadRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
			return
		}
		text = req.Text
	}
	if strings.TrimSpace(text) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("listing is empty"))
		return
	}

	report, err := s.uploads.Upload(r.Context(), user, text)
	if err != nil {
		if errors.Is(err, ingest.ErrNothingParsed) {
			writeJSON(w, services.HTTPStatus(err), api.FromReport(report))
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromReport(report))
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	explicit := api.Filter{
		Title:   strings.TrimSpace(q.Get("title")),
		Season:  strings.TrimSpace(q.Get("season")),
		Episode: strings.TrimSpace(q.Get("episode")),
		Quality: strings.TrimSpace(q.Get("quality")),
		Audio:   strings.TrimSpace(q.Get("audio")),
	}
	result, err := s.catalog.Search(r.Context(), r.Header.Get(headerUserID), q.Get("q"), explicit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleTitles(w http.ResponseWriter, r *http.Request) {
	resp, err := s.catalog.Titles(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	user := strings.TrimSpace(req.UserID)
	if user == "" {
		user = strings.TrimSpace(r.Header.Get(headerUserID))
	}
	if user == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("user id required"))
		return
	}
	result, err := s.catalog.Chat(services.WithUserID(r.Context(), user), user, req.Message)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleClearChat(w http.ResponseWriter, r *http.Request) {
	cleared := s.catalog.ClearChat(chi.URLParam(r, "userID"))
	writeJSON(w, http.StatusOK, api.ClearChatResponse{Cleared: cleared})
}

func (s *apiServer) handleUploaders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Uploaders())
}

func (s *apiServer) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req api.AuthorizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBytes)).Decode(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("userId required"))
		return
	}
	resp, err := s.catalog.Authorize(r.Context(), admin, req.UserID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if resp.Added {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

// fail maps err to a status code; server-side failures are logged.
func (s *apiServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "api_request_failed",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user := strings.TrimSpace(r.Header.Get(headerUserID))
	if user == "" {
		writeJSON(w, http.StatusBadRequest, errorBody(headerUserID+" header required"))
		return "", false
	}
	return user, true
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func errorBody(message string) api.ErrorResponse {
	return api.ErrorResponse{Error: message}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
