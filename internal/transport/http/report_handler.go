package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"studycoach/internal/config"
	apierrors "studycoach/internal/errors"
	"studycoach/internal/files"
	"studycoach/internal/infrastructure"
	"studycoach/internal/jobs"
	"studycoach/internal/middleware"
	"studycoach/internal/validation"
	api "studycoach/pkg/contracts/api/v1"
)

// workbookFormField is the multipart field carrying the uploaded file.
const workbookFormField = "workbook"

// ReportHandler handles workbook uploads and report downloads.
type ReportHandler struct {
	queue     *jobs.JobQueue
	validator *validation.FileValidator
	manager   *files.Manager
	paths     *config.Paths
	cfg       *config.Config
	logger    *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(queue *jobs.JobQueue, cfg *config.Config, paths *config.Paths, logger *slog.Logger) *ReportHandler {
	if queue == nil {
		panic("queue cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReportHandler{
		queue:     queue,
		validator: validation.NewFileValidator(logger),
		manager:   files.NewManager(paths, logger),
		paths:     paths,
		cfg:       cfg,
		logger:    logger.With(slog.String("handler", "reports")),
	}
}

// Routes returns a chi router for report endpoints
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.UploadWorkbook)
	r.Get("/{jobID}", h.ListReports)
	r.Get("/{jobID}/{filename}", h.DownloadReport)

	return r
}

// UploadWorkbook handles POST /api/reports: accepts a multipart .xlsx
// upload and enqueues the report batch. Responds 202 with the job id.
func (h *ReportHandler) UploadWorkbook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	maxBytes := h.cfg.Upload.MaxBytes
	if maxBytes <= 0 {
		maxBytes = config.MaxWorkbookBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile(workbookFormField)
	if err != nil {
		h.logger.WarnContext(ctx, "workbook upload rejected",
			slog.String("error", err.Error()))
		if _, ok := err.(*http.MaxBytesError); ok {
			apierrors.WriteError(w, apierrors.ErrPayloadTooLarge)
			return
		}
		apierrors.WriteError(w, apierrors.ErrValidation(workbookFormField, "multipart file field is required"))
		return
	}
	defer file.Close()

	if err := h.validator.ValidateWorkbookName(header.Filename); err != nil {
		apierrors.WriteError(w, apierrors.ErrValidation(workbookFormField, err.Error()))
		return
	}

	jobID := uuid.New().String()

	uploadPath := h.paths.GetUploadPath(fmt.Sprintf("%s_%s", jobID, filepath.Base(header.Filename)))
	if _, err := h.manager.SaveUpload(uploadPath, file); err != nil {
		h.logger.ErrorContext(ctx, "failed to persist upload",
			slog.String("error", err.Error()))
		apierrors.WriteError(w, apierrors.FileSystemError("upload", err))
		return
	}

	job := &jobs.Job{
		ID:           jobID,
		WorkbookName: header.Filename,
		WorkbookPath: uploadPath,
		OutputDir:    h.paths.GetReportPath(jobID),
		Model:        h.cfg.Advice.Model,
		TraceID:      infrastructure.GetTraceID(ctx),
	}

	if err := h.queue.Enqueue(job); err != nil {
		h.manager.RemoveUpload(uploadPath)
		h.logger.ErrorContext(ctx, "failed to enqueue job",
			slog.String("error", err.Error()))
		apierrors.WriteError(w, apierrors.ErrServiceUnavailable)
		return
	}

	h.logger.InfoContext(ctx, "workbook accepted",
		slog.String("job_id", jobID),
		slog.String("workbook", header.Filename),
		slog.String("request_id", reqID))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, api.UploadResponse{
		JobID:        jobID,
		WorkbookName: header.Filename,
		Status:       string(jobs.JobStatusPending),
		StatusURL:    "/api/jobs/" + jobID,
	})
}

// ListReports handles GET /api/reports/{jobID}: lists the documents a
// finished batch produced.
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.queue.GetJob(jobID)
	if err != nil {
		apierrors.WriteError(w, apierrors.ErrJobNotFound)
		return
	}

	docs, err := h.manager.ListDocuments(job.OutputDir)
	if err != nil {
		apierrors.WriteError(w, apierrors.FileSystemError("list reports", err))
		return
	}

	list := make([]api.ReportFile, 0, len(docs))
	for _, doc := range docs {
		list = append(list, api.ReportFile{
			Name:     doc.Name,
			Size:     doc.Size,
			Modified: doc.ModTime,
			URL:      fmt.Sprintf("/api/reports/%s/%s", jobID, doc.Name),
		})
	}

	render.JSON(w, r, list)
}

// DownloadReport handles GET /api/reports/{jobID}/{filename}: streams
// one generated document.
func (h *ReportHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	filename := filepath.Base(chi.URLParam(r, "filename"))

	job, err := h.queue.GetJob(jobID)
	if err != nil {
		apierrors.WriteError(w, apierrors.ErrJobNotFound)
		return
	}

	path := filepath.Join(job.OutputDir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		apierrors.WriteError(w, apierrors.ErrReportNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	http.ServeFile(w, r, path)
}
