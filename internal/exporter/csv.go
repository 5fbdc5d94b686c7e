package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"studycoach/pkg/contracts/domain"
)

// SummaryFileName is the CSV written next to the generated documents.
const SummaryFileName = "批次摘要.csv"

var summaryHeaders = []string{"學生", "狀態", "檔案", "錯誤", "產生時間"}

// SummaryWriter writes a batch outcome CSV into the output directory.
type SummaryWriter struct {
	logger *slog.Logger
}

// NewSummaryWriter creates a summary writer.
func NewSummaryWriter(logger *slog.Logger) *SummaryWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryWriter{logger: logger}
}

// WriteSummary writes one row per roster student into
// outputDir/SummaryFileName and returns the file path. The file starts
// with a UTF-8 BOM so Excel decodes the Chinese columns correctly.
func (w *SummaryWriter) WriteSummary(outputDir string, summary *domain.BatchSummary) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(outputDir, SummaryFileName)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(summaryHeaders); err != nil {
		return "", fmt.Errorf("failed to write headers: %w", err)
	}

	for _, report := range summary.Reports {
		fileName := ""
		if report.FilePath != "" {
			fileName = filepath.Base(report.FilePath)
		}
		record := []string{
			report.Student,
			statusLabel(report),
			fileName,
			report.Error,
			report.GeneratedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("failed to write record for %s: %w", report.Student, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	w.logger.Info("batch summary written",
		slog.String("path", path),
		slog.Int("students", summary.Total))
	return path, nil
}

func statusLabel(report domain.StudentReport) string {
	if report.Succeeded() {
		return "成功"
	}
	return "失敗"
}
