package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studycoach/internal/config"
	"studycoach/internal/jobs"
	api "studycoach/pkg/contracts/api/v1"
)

func newUploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newReportHandler(t *testing.T) (*ReportHandler, *jobs.JobQueue, string) {
	t.Helper()

	dir := t.TempDir()
	paths := &config.Paths{
		DataDir:    dir,
		UploadsDir: filepath.Join(dir, "uploads"),
		ReportsDir: filepath.Join(dir, "reports"),
	}

	queue := jobs.NewJobQueue(1, jobs.NewMemoryJobStore(), nil, nil)
	handler := NewReportHandler(queue, config.Default(), paths, nil)
	return handler, queue, dir
}

func TestUploadWorkbook(t *testing.T) {
	handler, queue, dir := newReportHandler(t)

	req := newUploadRequest(t, workbookFormField, "class.xlsx", []byte("workbook-bytes"))
	rec := httptest.NewRecorder()
	handler.UploadWorkbook(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp api.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "class.xlsx", resp.WorkbookName)
	assert.Equal(t, string(jobs.JobStatusPending), resp.Status)
	assert.Equal(t, "/api/jobs/"+resp.JobID, resp.StatusURL)

	// The workbook landed in the uploads directory.
	entries, err := os.ReadDir(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// The job is queued.
	job, err := queue.GetJob(resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusPending, job.Status)
	assert.Equal(t, "class.xlsx", job.WorkbookName)
}

func TestUploadWorkbookRejectsBadRequests(t *testing.T) {
	handler, _, _ := newReportHandler(t)

	t.Run("wrong extension", func(t *testing.T) {
		req := newUploadRequest(t, workbookFormField, "class.csv", []byte("a,b"))
		rec := httptest.NewRecorder()
		handler.UploadWorkbook(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing file field", func(t *testing.T) {
		req := newUploadRequest(t, "other", "class.xlsx", []byte("data"))
		rec := httptest.NewRecorder()
		handler.UploadWorkbook(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("temp file name", func(t *testing.T) {
		req := newUploadRequest(t, workbookFormField, "~$class.xlsx", []byte("data"))
		rec := httptest.NewRecorder()
		handler.UploadWorkbook(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListAndDownloadReports(t *testing.T) {
	handler, queue, dir := newReportHandler(t)

	outputDir := filepath.Join(dir, "reports", "job-1")
	require.NoError(t, os.MkdirAll(outputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "王小明_讀書建議.docx"), []byte("docx-bytes"), 0o644))

	require.NoError(t, queue.Enqueue(&jobs.Job{
		ID:        "job-1",
		OutputDir: outputDir,
	}))

	router := handler.Routes()

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/job-1", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var files []api.ReportFile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
		require.Len(t, files, 1)
		assert.Equal(t, "王小明_讀書建議.docx", files[0].Name)
		assert.Equal(t, "/api/reports/job-1/王小明_讀書建議.docx", files[0].URL)
	})

	t.Run("download", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/job-1/王小明_讀書建議.docx", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "docx-bytes", rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	})

	t.Run("unknown job", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing-job", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/job-1/other.docx", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
