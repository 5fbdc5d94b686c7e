package domain

import (
	"time"
)

// StudentReport is the outcome of generating one student's advice document.
type StudentReport struct {
	Student     string    `json:"student"`
	FilePath    string    `json:"file_path,omitempty"`
	Error       string    `json:"error,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Succeeded reports whether the document was produced.
func (r StudentReport) Succeeded() bool {
	return r.Error == ""
}

// BatchSummary aggregates a full class run: one entry per roster student,
// plus the extraction diagnostics collected along the way.
type BatchSummary struct {
	WorkbookName string          `json:"workbook_name,omitempty"`
	OutputDir    string          `json:"output_dir"`
	Total        int             `json:"total"`
	Succeeded    int             `json:"succeeded"`
	Failed       int             `json:"failed"`
	Reports      []StudentReport `json:"reports"`
	Diagnostics  []Diagnostic    `json:"diagnostics,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
}

// Add records one student's outcome and updates the counters.
func (b *BatchSummary) Add(report StudentReport) {
	b.Reports = append(b.Reports, report)
	b.Total++
	if report.Succeeded() {
		b.Succeeded++
	} else {
		b.Failed++
	}
}
