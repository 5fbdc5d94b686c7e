// Package jobs runs report batches asynchronously behind a worker pool.
// An uploaded workbook becomes a Job; workers pull jobs off the queue,
// run the batch, and persist the outcome through a JobStore.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"studycoach/internal/infrastructure"
	"studycoach/pkg/contracts/domain"
)

// JobStatus is the lifecycle state of a report batch job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job represents one async report batch over an uploaded workbook.
type Job struct {
	ID           string               `json:"id"`
	WorkbookName string               `json:"workbook_name"`
	WorkbookPath string               `json:"-"`
	OutputDir    string               `json:"-"`
	Model        string               `json:"model,omitempty"`
	Status       JobStatus            `json:"status"`
	Progress     int                  `json:"progress"`
	Message      string               `json:"message,omitempty"`
	Error        string               `json:"error,omitempty"`
	TraceID      string               `json:"-"`
	CreatedAt    time.Time            `json:"created_at"`
	StartedAt    *time.Time           `json:"started_at,omitempty"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
	Summary      *domain.BatchSummary `json:"summary,omitempty"`
}

// JobStore persists jobs across their lifecycle.
type JobStore interface {
	CreateJob(job *Job) error
	GetJob(id string) (*Job, error)
	UpdateJob(job *Job) error
	ListJobs(filter JobFilter) ([]*Job, error)
	DeleteJob(id string) error
}

// JobFilter narrows a job listing.
type JobFilter struct {
	Status JobStatus
	Since  time.Time
	Limit  int
}

// BatchRunner executes one report batch. The progress callback receives
// the number of students finished so far out of the total.
type BatchRunner interface {
	RunBatch(ctx context.Context, job *Job, progress func(done, total int)) (*domain.BatchSummary, error)
}

// JobQueue runs batch jobs on a fixed pool of workers. Jobs wait in a
// buffered channel; the buffer holds twice the worker count before
// Enqueue starts rejecting.
type JobQueue struct {
	mu           sync.RWMutex
	jobs         chan *Job
	workers      int
	wg           sync.WaitGroup
	store        JobStore
	runner       BatchRunner
	logger       *slog.Logger
	shutdown     chan struct{}
	batchTimeout time.Duration
	active       map[string]*Job // jobs currently held by a worker, guarded by mu
	cancels      map[string]context.CancelFunc
}

// NewJobQueue creates a queue with the given worker count (minimum 2).
func NewJobQueue(workers int, store JobStore, runner BatchRunner, logger *slog.Logger) *JobQueue {
	if workers <= 0 {
		workers = 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &JobQueue{
		jobs:     make(chan *Job, workers*2),
		workers:  workers,
		store:    store,
		runner:   runner,
		logger:   logger.With(slog.String("component", "jobqueue")),
		shutdown: make(chan struct{}),
		active:   make(map[string]*Job),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// SetBatchTimeout caps how long a single batch may run. Zero means no
// cap. Must be called before Start.
func (q *JobQueue) SetBatchTimeout(d time.Duration) {
	q.batchTimeout = d
}

// Start launches the worker pool. Workers live until ctx is cancelled
// or Stop is called.
func (q *JobQueue) Start(ctx context.Context) {
	q.logger.Info("starting job queue", slog.Int("workers", q.workers))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

// Stop signals the workers and waits up to timeout for in-flight jobs
// to finish.
func (q *JobQueue) Stop(timeout time.Duration) error {
	q.logger.Info("stopping job queue")
	close(q.shutdown)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("job queue stopped gracefully")
		return nil
	case <-time.After(timeout):
		q.logger.Warn("job queue stop timeout exceeded")
		return fmt.Errorf("timeout waiting for workers to finish")
	}
}

// Enqueue persists the job and hands it to the pool. A full buffer
// fails the job immediately rather than blocking the upload request.
func (q *JobQueue) Enqueue(job *Job) error {
	job.Status = JobStatusPending
	job.CreatedAt = time.Now()

	if err := q.store.CreateJob(job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	select {
	case q.jobs <- job:
		q.logger.Info("job enqueued",
			slog.String("job_id", job.ID),
			slog.String("workbook", job.WorkbookName))
		return nil
	default:
		job.Status = JobStatusFailed
		job.Error = "job queue is full"
		q.store.UpdateJob(job)
		return fmt.Errorf("job queue is full")
	}
}

// GetJob retrieves a job by ID, preferring the live in-flight state.
// The returned job is a snapshot; the worker keeps mutating its own
// copy under the queue lock.
func (q *JobQueue) GetJob(id string) (*Job, error) {
	q.mu.RLock()
	if live, ok := q.active[id]; ok {
		snapshot := *live
		q.mu.RUnlock()
		return &snapshot, nil
	}
	q.mu.RUnlock()

	return q.store.GetJob(id)
}

// CancelJob cancels a pending or running job. A running batch gets its
// context cancelled and stops before the next student; the cancelled
// status is terminal and survives the runner's eventual return.
func (q *JobQueue) CancelJob(id string) error {
	q.mu.Lock()
	if job, ok := q.active[id]; ok {
		if job.Status != JobStatusRunning && job.Status != JobStatusPending {
			status := job.Status
			q.mu.Unlock()
			return fmt.Errorf("job %s cannot be cancelled (status: %s)", id, status)
		}

		now := time.Now()
		job.Status = JobStatusCancelled
		job.CompletedAt = &now
		job.Message = "Batch cancelled"
		snapshot := *job
		cancel := q.cancels[id]
		q.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		return q.store.UpdateJob(&snapshot)
	}
	q.mu.Unlock()

	// Not held by a worker: pending in the buffer, or already finished.
	job, err := q.store.GetJob(id)
	if err != nil {
		return err
	}
	if job.Status != JobStatusPending {
		return fmt.Errorf("job %s cannot be cancelled (status: %s)", id, job.Status)
	}

	now := time.Now()
	job.Status = JobStatusCancelled
	job.CompletedAt = &now
	job.Message = "Batch cancelled"
	return q.store.UpdateJob(job)
}

// ListJobs queries the store.
func (q *JobQueue) ListJobs(filter JobFilter) ([]*Job, error) {
	return q.store.ListJobs(filter)
}

func (q *JobQueue) worker(ctx context.Context, workerID int) {
	defer q.wg.Done()

	logger := q.logger.With(slog.Int("worker_id", workerID))
	logger.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopped by context")
			return
		case <-q.shutdown:
			logger.Debug("worker stopped by shutdown")
			return
		case job := <-q.jobs:
			q.processJob(ctx, job, logger)
		}
	}
}

// processJob runs one batch. The job's trace id rides along in the
// worker context so batch logs correlate with the upload request. All
// mutations of the live job happen under the queue lock and are
// persisted as snapshots, so GetJob readers never see a torn update.
func (q *JobQueue) processJob(ctx context.Context, job *Job, logger *slog.Logger) {
	if stored, err := q.store.GetJob(job.ID); err == nil && stored.Status == JobStatusCancelled {
		// Cancelled while still waiting in the buffer.
		logger.Info("skipping cancelled job", slog.String("job_id", job.ID))
		return
	}

	if job.TraceID != "" {
		ctx = infrastructure.WithTraceID(ctx, job.TraceID)
	}

	jobCtx, cancel := context.WithCancel(ctx)
	if q.batchTimeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, q.batchTimeout)
	}
	defer cancel()

	logger = logger.With(
		slog.String("job_id", job.ID),
		slog.String("workbook", job.WorkbookName),
	)

	logger.Info("processing job started")

	q.mu.Lock()
	q.active[job.ID] = job
	q.cancels[job.ID] = cancel
	q.mu.Unlock()

	defer func() {
		// A panicking batch must not take the worker down.
		if r := recover(); r != nil {
			logger.Error("job processing panicked",
				slog.Any("panic", r),
				slog.String("job_id", job.ID))

			q.mu.Lock()
			job.Status = JobStatusFailed
			job.Error = fmt.Sprintf("job processing panicked: %v", r)
			job.Message = "Internal error occurred"
			completedAt := time.Now()
			job.CompletedAt = &completedAt
			q.mu.Unlock()

			q.persist(job, logger, "after panic")
		}

		q.mu.Lock()
		delete(q.active, job.ID)
		delete(q.cancels, job.ID)
		q.mu.Unlock()
	}()

	q.mu.Lock()
	if job.Status == JobStatusCancelled {
		q.mu.Unlock()
		logger.Info("processing job cancelled")
		return
	}
	job.Status = JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	job.Progress = 0
	job.Message = "Batch started"
	q.mu.Unlock()

	q.persist(job, logger, "status")

	summary, err := q.runner.RunBatch(jobCtx, job, func(done, total int) {
		if total <= 0 {
			return
		}
		q.mu.Lock()
		job.Progress = (done * 100) / total
		job.Message = fmt.Sprintf("Processed %d/%d students", done, total)
		q.mu.Unlock()

		q.persist(job, logger, "progress")
	})
	if err != nil {
		q.handleJobError(job, err, logger)
		return
	}

	q.mu.Lock()
	if job.Status == JobStatusCancelled {
		// CancelJob recorded the terminal state; the runner's return
		// must not overwrite it.
		q.mu.Unlock()
		logger.Info("processing job cancelled")
		return
	}
	job.Status = JobStatusCompleted
	job.Progress = 100
	job.Summary = summary
	job.Message = fmt.Sprintf("Batch completed: %d succeeded, %d failed", summary.Succeeded, summary.Failed)
	completedAt := time.Now()
	job.CompletedAt = &completedAt
	q.mu.Unlock()

	q.persist(job, logger, "completion")

	logger.Info("processing job completed",
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed))
}

// persist writes a locked snapshot of the live job to the store.
func (q *JobQueue) persist(job *Job, logger *slog.Logger, what string) {
	q.mu.RLock()
	snapshot := *job
	q.mu.RUnlock()

	if err := q.store.UpdateJob(&snapshot); err != nil {
		logger.Error("failed to update job "+what, slog.String("error", err.Error()))
	}
}

func (q *JobQueue) handleJobError(job *Job, err error, logger *slog.Logger) {
	q.mu.Lock()
	if job.Status == JobStatusCancelled {
		q.mu.Unlock()
		logger.Info("processing job cancelled", slog.String("reason", err.Error()))
		return
	}
	job.Status = JobStatusFailed
	job.Error = err.Error()
	job.Message = "Batch failed"
	completedAt := time.Now()
	job.CompletedAt = &completedAt
	q.mu.Unlock()

	logger.Error("job failed", slog.String("error", err.Error()))
	q.persist(job, logger, "error")
}

// jobCleaner is implemented by stores that can expire finished jobs.
type jobCleaner interface {
	CleanupOldJobs(olderThan time.Duration) (int, error)
}

// CleanupOldJobs removes finished jobs older than the given age when
// the backing store supports it.
func (q *JobQueue) CleanupOldJobs(olderThan time.Duration) (int, error) {
	cleaner, ok := q.store.(jobCleaner)
	if !ok {
		return 0, nil
	}
	return cleaner.CleanupOldJobs(olderThan)
}

// GetQueueStats returns queue statistics
func (q *JobQueue) GetQueueStats() map[string]interface{} {
	q.mu.RLock()
	activeCount := len(q.active)
	q.mu.RUnlock()

	return map[string]interface{}{
		"workers":     q.workers,
		"queue_size":  len(q.jobs),
		"queue_cap":   cap(q.jobs),
		"active_jobs": activeCount,
	}
}
