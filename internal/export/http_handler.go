package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/internal/repository"
	"github.com/rpattn/adminpanel/pkg/logger"
)

// TrackerFunc returns the progress tracker of the session behind r, or an
// error wrapping repository.ErrNotFound when r has no session.
type TrackerFunc func(r *http.Request) (*ProgressTracker, error)

type Handler struct {
	service *Service
	tracker TrackerFunc
}

func NewHTTPHandler(service *Service, tracker TrackerFunc) *Handler {
	return &Handler{service: service, tracker: tracker}
}

// Register mounts the export routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /exports", h.handleListJobs)
	mux.HandleFunc("GET /exports/progress", h.handleProgress)
	mux.HandleFunc("GET /exports/files/{id}", h.handleDownload)
	mux.HandleFunc("GET /exports/{id}", h.handleGetJob)
	mux.HandleFunc("POST /exports/{id}/cancel", h.handleCancel)
}

func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	statuses := parseStatuses(query["status"])
	if len(statuses) == 0 {
		statuses = []domain.ExportJobStatus{
			domain.ExportJobStatusPending,
			domain.ExportJobStatusRunning,
			domain.ExportJobStatusCompleted,
			domain.ExportJobStatusFailed,
			domain.ExportJobStatusCancelled,
		}
	}
	limit, ok := intParam(w, query.Get("limit"), 20, 1)
	if !ok {
		return
	}
	offset, ok := intParam(w, query.Get("offset"), 0, 0)
	if !ok {
		return
	}
	jobs, err := h.service.ListJobs(r.Context(), statuses, limit, offset)
	if err != nil {
		h.internalError(w, r, "list export jobs", err)
		return
	}
	out := make([]ProgressData, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, h.service.progressData(job))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathJobID(w, r)
	if !ok {
		return
	}
	data, err := h.service.Progress(r.Context(), jobID)
	if err != nil {
		h.jobError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathJobID(w, r)
	if !ok {
		return
	}
	job, err := h.service.CancelJob(r.Context(), jobID)
	if err != nil {
		h.jobError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.progressData(job))
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	if h.tracker == nil {
		writeJSON(w, http.StatusOK, []ProgressData{})
		return
	}
	tracker, err := h.tracker(r)
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusOK, []ProgressData{})
		return
	}
	if err != nil {
		h.internalError(w, r, "resolve progress tracker", err)
		return
	}
	snapshot, err := tracker.Snapshot(r.Context())
	if err != nil {
		h.internalError(w, r, "load export progress", err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathJobID(w, r)
	if !ok {
		return
	}
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if err := h.service.ValidateDownloadToken(jobID, token); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	job, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		h.jobError(w, r, err)
		return
	}
	file, err := h.service.OpenJobFile(job)
	if err != nil {
		h.jobError(w, r, err)
		return
	}
	defer file.Close()

	filename := filepath.Base(strings.TrimSpace(*job.FilePath))
	contentType := "application/octet-stream"
	if job.FileMimeType != nil && strings.TrimSpace(*job.FileMimeType) != "" {
		contentType = *job.FileMimeType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeContent(w, r, filename, job.UpdatedAt, file)
}

func (h *Handler) jobError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "export job not found")
	case errors.Is(err, ErrJobNotCancellable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrFileUnavailable):
		writeError(w, http.StatusGone, err.Error())
	default:
		h.internalError(w, r, "export request", err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger.FromContext(r.Context()).Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func pathJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid export identifier: %v", err))
		return uuid.Nil, false
	}
	return jobID, true
}

func intParam(w http.ResponseWriter, raw string, fallback, min int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < min {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("expected an integer >= %d, got %q", min, raw))
		return 0, false
	}
	return parsed, true
}

func parseStatuses(values []string) []domain.ExportJobStatus {
	var result []domain.ExportJobStatus
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			switch status := domain.ExportJobStatus(strings.ToUpper(strings.TrimSpace(part))); status {
			case domain.ExportJobStatusPending,
				domain.ExportJobStatusRunning,
				domain.ExportJobStatusCompleted,
				domain.ExportJobStatusFailed,
				domain.ExportJobStatusCancelled:
				result = append(result, status)
			}
		}
	}
	return result
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
