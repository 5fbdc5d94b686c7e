package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "studycoach/internal/errors"
	"studycoach/internal/jobs"
	api "studycoach/pkg/contracts/api/v1"
)

// JobsHandler exposes the report job queue.
type JobsHandler struct {
	queue  *jobs.JobQueue
	logger *slog.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(queue *jobs.JobQueue, logger *slog.Logger) *JobsHandler {
	if queue == nil {
		panic("queue cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &JobsHandler{
		queue:  queue,
		logger: logger.With(slog.String("handler", "jobs")),
	}
}

// Routes returns a chi router for job endpoints
func (h *JobsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListJobs)
	r.Get("/stats", h.QueueStats)
	r.Get("/{id}", h.GetJob)
	r.Post("/{id}/cancel", h.CancelJob)

	return r
}

// ListJobs handles GET /api/jobs with optional status, since and limit
// filters.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := api.JobListRequest{
		Status: q.Get("status"),
		Since:  q.Get("since"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			apierrors.WriteError(w, apierrors.ErrValidation("limit", "must be an integer"))
			return
		}
		req.Limit = n
	}
	if err := req.Validate(); err != nil {
		apierrors.WriteError(w, apierrors.ErrValidation("query", err.Error()))
		return
	}

	filter := jobs.JobFilter{
		Status: jobs.JobStatus(req.Status),
		Limit:  req.Limit,
	}
	if req.Since != "" {
		t, err := time.Parse(time.RFC3339, req.Since)
		if err != nil {
			apierrors.WriteError(w, apierrors.ErrValidation("since", "must be an RFC 3339 timestamp"))
			return
		}
		filter.Since = t
	}

	list, err := h.queue.ListJobs(filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list jobs",
			slog.String("error", err.Error()))
		apierrors.WriteError(w, apierrors.ErrInternalServer)
		return
	}

	if list == nil {
		list = []*jobs.Job{}
	}
	render.JSON(w, r, list)
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.queue.GetJob(id)
	if err != nil {
		apierrors.WriteError(w, apierrors.ErrJobNotFound)
		return
	}

	render.JSON(w, r, job)
}

// CancelJob handles POST /api/jobs/{id}/cancel.
func (h *JobsHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.queue.CancelJob(id); err != nil {
		if _, getErr := h.queue.GetJob(id); getErr != nil {
			apierrors.WriteError(w, apierrors.ErrJobNotFound)
			return
		}
		apierrors.WriteError(w, apierrors.NewWithDetails(
			http.StatusConflict, "JOB_NOT_CANCELLABLE", "Job cannot be cancelled", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "job cancelled", slog.String("job_id", id))
	render.JSON(w, r, map[string]string{
		"id":     id,
		"status": string(jobs.JobStatusCancelled),
	})
}

// QueueStats handles GET /api/jobs/stats.
func (h *JobsHandler) QueueStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.queue.GetQueueStats())
}
