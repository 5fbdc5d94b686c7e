package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"studycoach/internal/advice"
	"studycoach/internal/config"
	"studycoach/internal/dataprocessing"
	"studycoach/internal/exporter"
	"studycoach/internal/infrastructure"
	"studycoach/internal/jobs"
	"studycoach/pkg/contracts/domain"
)

// ReportService runs the full class pipeline: load workbook, build the
// error index, and generate one advice document per roster student.
type ReportService struct {
	config  *config.Config
	paths   *config.Paths
	logger  *slog.Logger
	advice  advice.Client
	metrics *infrastructure.BatchMetrics
	tracer  trace.Tracer
}

// NewReportService creates a report service using the default logger.
func NewReportService(cfg *config.Config, client advice.Client, metrics *infrastructure.BatchMetrics) (*ReportService, error) {
	return NewReportServiceWithLogger(cfg, client, metrics, slog.Default())
}

// NewReportServiceWithLogger creates a report service with a specific logger.
func NewReportServiceWithLogger(cfg *config.Config, client advice.Client, metrics *infrastructure.BatchMetrics, logger *slog.Logger) (*ReportService, error) {
	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("ReportService initialized",
		slog.String("reports_dir", paths.ReportsDir),
		slog.String("model", client.Model()))

	return &ReportService{
		config:  cfg,
		paths:   paths,
		logger:  logger,
		advice:  client,
		metrics: metrics,
		tracer:  otel.Tracer("studycoach/services"),
	}, nil
}

// RunBatch implements jobs.BatchRunner for the queue.
func (s *ReportService) RunBatch(ctx context.Context, job *jobs.Job, progress func(done, total int)) (*domain.BatchSummary, error) {
	summary, err := s.GenerateClassReports(ctx, job.WorkbookPath, job.OutputDir, progress)
	if err != nil {
		return nil, err
	}
	summary.WorkbookName = job.WorkbookName
	return summary, nil
}

// GenerateClassReports processes one workbook end to end. Students are
// processed sequentially; a failure on one student is recorded in the
// summary and the batch moves on. Only a structural workbook failure or
// context cancellation aborts the run.
func (s *ReportService) GenerateClassReports(ctx context.Context, workbookPath, outputDir string, progress func(done, total int)) (*domain.BatchSummary, error) {
	ctx, span := s.tracer.Start(ctx, "report.batch",
		trace.WithAttributes(attribute.String("workbook.path", workbookPath)))
	defer span.End()

	started := time.Now()

	wb, err := dataprocessing.LoadWorkbookFile(workbookPath)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to load workbook: %w", err)
	}

	extraction := dataprocessing.BuildClassErrorIndex(wb, s.logger)

	writer, err := exporter.NewDocxWriter(outputDir, s.logger)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	summary := &domain.BatchSummary{
		OutputDir:   outputDir,
		Diagnostics: extraction.Diagnostics,
		StartedAt:   started,
	}

	if s.metrics != nil && len(extraction.Diagnostics) > 0 {
		s.metrics.ExtractionDiagnostics.Add(ctx, int64(len(extraction.Diagnostics)))
	}

	total := len(extraction.Roster)
	s.logger.Info("class batch started",
		slog.String("workbook", workbookPath),
		slog.Int("students", total))

	for i, student := range extraction.Roster {
		if err := ctx.Err(); err != nil {
			// Cancellation between students: keep what is done.
			s.logger.Warn("batch cancelled",
				slog.Int("processed", i),
				slog.Int("total", total))
			span.SetStatus(codes.Error, "batch cancelled")
			summary.FinishedAt = time.Now()
			return summary, fmt.Errorf("batch cancelled after %d/%d students: %w", i, total, err)
		}

		report := s.processStudent(ctx, writer, student, extraction.Index[student])
		summary.Add(report)

		if s.metrics != nil {
			if report.Succeeded() {
				s.metrics.StudentsProcessed.Add(ctx, 1)
			} else {
				s.metrics.StudentsFailed.Add(ctx, 1)
			}
		}

		if progress != nil {
			progress(i+1, total)
		}
	}

	summary.FinishedAt = time.Now()

	// The summary CSV is a convenience artifact; a write failure must
	// not fail an otherwise finished batch.
	if _, err := exporter.NewSummaryWriter(s.logger).WriteSummary(outputDir, summary); err != nil {
		s.logger.Warn("failed to write batch summary",
			slog.String("error", err.Error()))
	}

	if s.metrics != nil {
		s.metrics.BatchDuration.Record(ctx, summary.FinishedAt.Sub(started).Seconds())
	}

	span.SetAttributes(
		attribute.Int("batch.total", summary.Total),
		attribute.Int("batch.succeeded", summary.Succeeded),
		attribute.Int("batch.failed", summary.Failed),
	)

	s.logger.Info("class batch finished",
		slog.Int("total", summary.Total),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Duration("elapsed", summary.FinishedAt.Sub(started)))

	return summary, nil
}

// processStudent generates and writes one student's advice document.
// Errors are folded into the returned report, never propagated.
func (s *ReportService) processStudent(ctx context.Context, writer *exporter.DocxWriter, student string, errors domain.StudentSubjectErrors) domain.StudentReport {
	ctx, span := s.tracer.Start(ctx, "report.student",
		trace.WithAttributes(attribute.String("student", student)))
	defer span.End()

	report := domain.StudentReport{
		Student:     student,
		GeneratedAt: time.Now(),
	}

	prompt := advice.BuildAdvicePrompt(student, advice.FormatErrorPayload(errors))

	callCtx := ctx
	if s.config.Advice.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.config.Advice.CallTimeout)
		defer cancel()
	}

	callStart := time.Now()
	text, err := s.advice.GenerateAdvice(callCtx, prompt)
	if s.metrics != nil {
		s.metrics.AdviceCallDuration.Record(ctx, time.Since(callStart).Seconds(),
			metric.WithAttributes(attribute.Bool("success", err == nil)))
	}
	if err != nil {
		s.logger.Warn("advice generation failed",
			slog.String("student", student),
			slog.String("error", err.Error()))
		span.SetStatus(codes.Error, err.Error())
		report.Error = fmt.Sprintf("advice generation failed: %v", err)
		return report
	}

	path, err := writer.WriteReport(student, text)
	if err != nil {
		s.logger.Warn("report write failed",
			slog.String("student", student),
			slog.String("error", err.Error()))
		span.SetStatus(codes.Error, err.Error())
		report.Error = fmt.Sprintf("document write failed: %v", err)
		return report
	}

	report.FilePath = path
	return report
}
