// Package chi is the HTTP transport for the videoseek API.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/videoseek/internal/domain"
	healthuc "github.com/kailas-cloud/videoseek/internal/usecase/health"
	playbackuc "github.com/kailas-cloud/videoseek/internal/usecase/playback"
	searchuc "github.com/kailas-cloud/videoseek/internal/usecase/search"
	sessionuc "github.com/kailas-cloud/videoseek/internal/usecase/session"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search/select/playback flow over HTTP.
type Server struct {
	search        *searchuc.Service
	playback      *playbackuc.Service
	session       *sessionuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	playback *playbackuc.Service,
	session *sessionuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		playback: playback,
		session:  session,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrIndexerUnavailable, http.StatusBadGateway, CodeIndexUnavailable),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrNotInResults, http.StatusNotFound, CodeNotInResults),
		sentinelHandler(domain.ErrNoSelection, http.StatusConflict, CodeNoSelection),
		sentinelHandler(domain.ErrSigning, http.StatusInternalServerError, CodeSigningFailed),
		sentinelHandler(domain.ErrBadTimecode, http.StatusInternalServerError, CodeBadTimecode),
		sentinelHandler(domain.ErrUnknownMode, http.StatusBadRequest, CodeValidationFailed),
	}
	return s
}

// Routes mounts all API routes on the router.
func (s *Server) Routes(r chirouter.Router) {
	r.Post("/search", s.HandleSearch)
	r.Get("/results", s.HandleResults)
	r.Post("/select", s.HandleSelect)
	r.Post("/mode", s.HandleMode)
	r.Post("/playback", s.HandlePlayback)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// HandleSearch handles POST /search: runs a query in the requested mode and
// replaces the session's result set. A mode differing from the session's
// current mode resets prior state first, exactly as an explicit mode switch
// would. An index failure is reported as 502, distinct from a well-formed
// empty result (200 with an empty list); the session holds an empty result
// set in both cases.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.session.SetMode(mode)

	matches, err := s.search.Search(r.Context(), req.Query, mode)
	if err != nil {
		s.session.SetResults(nil)
		s.handleDomainError(w, err)
		return
	}
	s.session.SetResults(matches)

	writeJSON(w, http.StatusOK, searchResponse{Results: matches, Total: len(matches)})
}

// HandleResults handles GET /results: the current session state.
func (s *Server) HandleResults(w http.ResponseWriter, r *http.Request) {
	resp := resultsResponse{
		Mode:    s.session.Mode(),
		Results: s.session.Results(),
	}
	resp.Total = len(resp.Results)
	if sel, ok := s.session.Selected(); ok {
		resp.Selected = &sel
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleSelect handles POST /select: chooses one video from the current results.
func (s *Server) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "documentId is required")
		return
	}

	if err := s.session.Select(req.DocumentID); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMode handles POST /mode: switches the search mode, clearing results
// and selection when the mode changes.
func (s *Server) HandleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.session.SetMode(mode)

	w.WriteHeader(http.StatusNoContent)
}

// HandlePlayback handles POST /playback: builds a signed playable URL for
// the current selection. A fresh token is minted on every call.
func (s *Server) HandlePlayback(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.session.Selected()
	if !ok {
		s.handleDomainError(w, domain.ErrNoSelection)
		return
	}

	pb, err := s.playback.Playback(r.Context(), sel)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, playbackResponse(pb))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrIndexerUnavailable,
		domain.ErrDocumentNotFound,
		domain.ErrNotInResults,
		domain.ErrNoSelection,
		domain.ErrSigning,
		domain.ErrBadTimecode,
		domain.ErrUnknownMode,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
