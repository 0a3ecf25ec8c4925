// Package api exposes the session retrieval pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/docdex-io/docdex/internal/assist"
	"github.com/docdex-io/docdex/internal/chunking"
	"github.com/docdex-io/docdex/internal/domain"
	"github.com/docdex-io/docdex/internal/evaluation"
	"github.com/docdex-io/docdex/internal/indexing"
	logpkg "github.com/docdex-io/docdex/internal/logger"
	"github.com/docdex-io/docdex/internal/session"
)

const (
	// DefaultTopK applies when a request leaves top_k unset.
	DefaultTopK = 5
	// DefaultMaxTopK caps top_k when the server config does not.
	DefaultMaxTopK = 50

	defaultMaxUploadBytes = 16 << 20
	multipartMemory       = 32 << 20
)

// Config tunes request limits.
type Config struct {
	MaxTopK        int
	MaxUploadBytes int64
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes session, retrieval and assist operations.
type Server struct {
	sessions       *session.Manager
	assist         *assist.Service
	maxTopK        int
	maxUploadBytes int64
	logger         *zap.Logger
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(sessions *session.Manager, assistSvc *assist.Service, cfg Config, logger *zap.Logger) *Server {
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = DefaultMaxTopK
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if assistSvc == nil {
		assistSvc = assist.New(nil, logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		sessions:       sessions,
		assist:         assistSvc,
		maxTopK:        cfg.MaxTopK,
		maxUploadBytes: cfg.MaxUploadBytes,
		logger:         logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrAttachmentNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrUnknownStrategy, http.StatusBadRequest),
		sentinelHandler(domain.ErrInvalidConfig, http.StatusBadRequest),
		sentinelHandler(domain.ErrExtraction, http.StatusUnprocessableEntity),
		sentinelHandler(domain.ErrAssistUnavailable, http.StatusBadGateway),
	}
	return s
}

// Mount registers all routes on the router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/strategies", s.StrategyCatalog)
		r.Post("/sessions", s.CreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/attachments", s.UploadAttachments)
			r.Get("/attachments", s.ListAttachments)
			r.Delete("/attachments/{attachmentID}", s.DeleteAttachment)
			r.Put("/strategies/chunking", s.SetChunkingStrategy)
			r.Put("/strategies/indexing", s.SetIndexingStrategy)
			r.Post("/chunks", s.ChunkPreview)
			r.Post("/rebuild", s.Rebuild)
			r.Post("/search", s.Search)
			r.Post("/sections", s.Sections)
			r.Post("/evaluate", s.Evaluate)
			r.Post("/assist", s.Assist)
			r.Get("/transcript", s.Transcript)
		})
	})
}

// CreateSession handles POST /api/v1/sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionCreateResponse{SessionID: sess.ID()})
}

// GetSession handles GET /api/v1/sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Summary())
}

// DeleteSession handles DELETE /api/v1/sessions/{sessionID}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

// StrategyCatalog handles GET /api/v1/strategies.
func (s *Server) StrategyCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StrategyCatalogResponse{
		Chunking: chunking.Descriptors(),
		Indexing: indexing.Descriptors(),
	})
}

// UploadAttachments handles POST /api/v1/sessions/{sessionID}/attachments.
// Files are ingested in order; a failing file aborts the request but
// files already ingested stay.
func (s *Server) UploadAttachments(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided under the \"files\" field")
		return
	}

	infos := make([]session.Info, 0, len(files))
	for _, fh := range files {
		if fh.Size > s.maxUploadBytes {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("file %q exceeds the %d byte upload limit", fh.Filename, s.maxUploadBytes))
			return
		}
		data, err := readUpload(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("read file %q: %s", fh.Filename, err))
			return
		}
		info, err := sess.AddAttachment(fh.Filename, fh.Header.Get("Content-Type"), data)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusCreated, AttachmentListResponse{Attachments: infos})
}

// ListAttachments handles GET /api/v1/sessions/{sessionID}/attachments.
func (s *Server) ListAttachments(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, AttachmentListResponse{Attachments: sess.Attachments()})
}

// DeleteAttachment handles DELETE /api/v1/sessions/{sessionID}/attachments/{attachmentID}.
func (s *Server) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.RemoveAttachment(chi.URLParam(r, "attachmentID")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetChunkingStrategy handles PUT /api/v1/sessions/{sessionID}/strategies/chunking.
func (s *Server) SetChunkingStrategy(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req StrategyUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	strategy, err := chunking.Parse(req.Strategy)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := sess.SetChunkingStrategy(strategy); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Summary())
}

// SetIndexingStrategy handles PUT /api/v1/sessions/{sessionID}/strategies/indexing.
func (s *Server) SetIndexingStrategy(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req StrategyUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	strategy, err := indexing.Parse(req.Strategy)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := sess.SetIndexingStrategy(strategy); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Summary())
}

// ChunkPreview handles POST /api/v1/sessions/{sessionID}/chunks.
func (s *Server) ChunkPreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req ChunkPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text must not be empty")
		return
	}
	chunks, err := sess.ChunkText(req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if chunks == nil {
		chunks = []string{}
	}
	writeJSON(w, http.StatusOK, ChunkPreviewResponse{
		Strategy:   string(sess.ChunkingStrategy()),
		ChunkCount: len(chunks),
		Chunks:     chunks,
	})
}

// Rebuild handles POST /api/v1/sessions/{sessionID}/rebuild.
func (s *Server) Rebuild(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Rebuild(); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RebuildResponse{IndexSize: sess.IndexSize()})
}

// Search handles POST /api/v1/sessions/{sessionID}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	topK, err := s.resolveTopK(req.TopK)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hits, err := sess.Search(query, topK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: searchResultsToDTO(hits)})
}

// Sections handles POST /api/v1/sessions/{sessionID}/sections.
func (s *Server) Sections(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	topK, err := s.resolveTopK(req.TopK)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	groups, err := sess.SectionRanking(query, topK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if groups == nil {
		groups = []session.SectionGroup{}
	}
	writeJSON(w, http.StatusOK, SectionsResponse{Sections: groups})
}

// Evaluate handles POST /api/v1/sessions/{sessionID}/evaluate.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req EvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	var eff *evaluation.EfficiencyInput
	if len(req.LatencySamplesMS) > 0 || req.IndexBuildMS != nil || req.ThroughputQPS != nil {
		eff = &evaluation.EfficiencyInput{
			LatenciesMS:   req.LatencySamplesMS,
			IndexBuildMS:  req.IndexBuildMS,
			ThroughputQPS: req.ThroughputQPS,
		}
	}
	report, err := sess.Evaluate(evaluationQueriesToDomain(req.Queries), DefaultTopK, eff)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluationReportToDTO(report))
}

// Assist handles POST /api/v1/sessions/{sessionID}/assist.
func (s *Server) Assist(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req AssistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "question must not be empty")
		return
	}
	topK, err := s.resolveTopK(req.TopK)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	answer, err := s.assist.Ask(r.Context(), sess, question, topK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AssistResponse{
		Answer:  answer.Answer,
		Sources: searchResultsToDTO(answer.Sources),
	})
}

// Transcript handles GET /api/v1/sessions/{sessionID}/transcript.
func (s *Server) Transcript(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	msgs := sess.Transcript().Messages()
	if msgs == nil {
		msgs = []session.Message{}
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{Messages: msgs})
}

// HealthCheck handles GET /health. A failing assist provider degrades
// the status but the service stays up: retrieval works without it.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"sessions": "ok"}
	status := "ok"
	if err := s.assist.Health(r.Context()); err != nil {
		checks["assist"] = err.Error()
		status = "degraded"
	} else {
		checks["assist"] = "ok"
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: status, Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// session resolves the {sessionID} route parameter, answering 404
// itself when the session is gone.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return nil, false
	}
	return sess, true
}

// resolveTopK applies the default and the configured cap.
func (s *Server) resolveTopK(topK int) (int, error) {
	if topK == 0 {
		return DefaultTopK, nil
	}
	if topK < 1 || topK > s.maxTopK {
		return 0, fmt.Errorf("top_k must be between 1 and %d", s.maxTopK)
	}
	return topK, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// safeDomainMessage keeps the full message for recognized domain errors
// and hides everything else.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSessionNotFound,
		domain.ErrAttachmentNotFound,
		domain.ErrUnknownStrategy,
		domain.ErrInvalidConfig,
		domain.ErrExtraction,
		domain.ErrAssistUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
