package server

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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"captionize/internal/acquire"
	"captionize/internal/api"
	"captionize/internal/config"
	"captionize/internal/jobs"
	"captionize/internal/logging"
	"captionize/internal/services"
	"captionize/internal/textutil"
)

const (
	maxJSONBody      = 1 << 20
	multipartMemory  = 32 << 20
	requestIDHeader  = "X-Request-ID"
	srtContentType   = "application/x-subrip; charset=utf-8"
	uploadFormField  = "file"
	shutdownDeadline = 5 * time.Second
)

type apiServer struct {
	bind       string
	token      string
	stagingDir string
	maxUpload  int64
	logger     *slog.Logger
	server     *Server

	listener net.Listener
	http     *http.Server
}

func newAPIServer(cfg *config.Config, s *Server, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:       strings.TrimSpace(cfg.Paths.APIBind),
		token:      strings.TrimSpace(cfg.Paths.APIToken),
		stagingDir: cfg.Paths.StagingDir,
		maxUpload:  cfg.MaxUploadBytes(),
		logger:     logging.NewComponentLogger(logger, "api-server"),
		server:     s,
	}
	srv.http = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/transcribe", s.authMiddleware(s.token, s.handleTranscribe))
	mux.HandleFunc("POST /api/upload", s.authMiddleware(s.token, s.handleUpload))
	mux.HandleFunc("GET /api/transcribe/{id}", s.authMiddleware(s.token, s.handleJob))
	mux.HandleFunc("GET /api/transcribe/{id}/srt", s.authMiddleware(s.token, s.handleJobSRT))
	mux.HandleFunc("GET /api/jobs", s.authMiddleware(s.token, s.handleJobs))
	mux.HandleFunc("GET /api/status", s.authMiddleware(s.token, s.handleStatus))
	return s.withRequestID(mux)
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		s.logger.Info("api server disabled", logging.String(logging.FieldEventType, "api_disabled"))
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.listener == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()
	_ = s.http.Shutdown(shutdownCtx)
	_ = s.listener.Close()
	s.listener = nil
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := services.WithRequestID(r.Context(), id)
		started := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		logging.WithContext(ctx, s.logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("elapsed", time.Since(started)),
		)
	})
}

func (s *apiServer) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req api.TranscribeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	job, err := s.server.submit(r.Context(), acquire.Source{URL: strings.TrimSpace(req.URL)})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, transcribeResponse(job))
}

func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.maxUpload))
			return
		}
		s.writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "No video file provided")
		return
	}
	defer file.Close()

	staged, err := s.stageUpload(file, header.Filename)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer os.Remove(staged)

	job, err := s.server.submit(r.Context(), acquire.Source{FilePath: staged, FileName: header.Filename})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, transcribeResponse(job))
}

func (s *apiServer) stageUpload(src io.Reader, name string) (string, error) {
	if err := os.MkdirAll(s.stagingDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "upload", "stage", "staging directory unavailable", err)
	}
	path := filepath.Join(s.stagingDir, "upload-"+uuid.NewString()+textutil.UploadExtension(name))
	dst, err := os.Create(path)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "upload", "stage", "failed to create staging file", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return "", services.Wrap(services.ErrTransient, "upload", "stage", "failed to write staging file", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", services.Wrap(services.ErrTransient, "upload", "stage", "failed to flush staging file", err)
	}
	return path, nil
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.refreshJob(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{Job: api.FromJobDetail(job)})
}

func (s *apiServer) handleJobSRT(w http.ResponseWriter, r *http.Request) {
	job, ok := s.refreshJob(w, r)
	if !ok {
		return
	}
	if job.Status != jobs.StatusCompleted || job.SRTContent == "" {
		s.writeError(w, r, http.StatusConflict, "captions are not ready")
		return
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": textutil.SRTFileName(job.Title)})
	w.Header().Set("Content-Type", srtContentType)
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, job.SRTContent)
}

// refreshJob polls the provider for the requested job. A failed poll still
// serves the stored job.
func (s *apiServer) refreshJob(w http.ResponseWriter, r *http.Request) (*jobs.Job, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		s.writeError(w, r, http.StatusNotFound, "job not found")
		return nil, false
	}
	job, err := s.server.workflow.Refresh(r.Context(), id)
	if err != nil && job == nil {
		s.writeServiceError(w, r, err)
		return nil, false
	}
	if err != nil {
		logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "serving stale job after refresh failure", "job_refresh_failed",
			logging.String(logging.FieldJobID, id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "client sees the last stored progress"),
		)
	}
	return job, true
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	var statuses []jobs.Status
	for _, value := range r.URL.Query()["status"] {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := jobs.ParseStatus(value)
		if !ok {
			s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, status)
	}
	list, err := s.server.store.List(r.Context(), statuses...)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: api.FromJobs(list)})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.server.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.ServerStatus{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Workflow:     api.FromStatusSummary(status.Workflow),
		Dependencies: api.FromDependencies(status.Dependencies),
	})
}

func transcribeResponse(job *jobs.Job) api.TranscribeResponse {
	return api.TranscribeResponse{
		JobID:    job.ID,
		Title:    job.Title,
		Duration: job.Duration,
		Status:   string(job.Status),
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{Error: message}
	if id, ok := services.RequestIDFromContext(r.Context()); ok {
		resp.RequestID = id
	}
	s.writeJSON(w, status, resp)
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	resp := api.ErrorResponse{Error: err.Error(), Kind: services.Kind(err)}
	if id, ok := services.RequestIDFromContext(r.Context()); ok {
		resp.RequestID = id
	}
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "api request failed", "api_request_failed",
			append(logging.ErrorAttrs(err), logging.Int("status", status))...,
		)
	}
	s.writeJSON(w, status, resp)
}
