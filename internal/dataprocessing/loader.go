package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"

	"studycoach/internal/config"
	"studycoach/pkg/contracts/domain"
)

// Workbook holds the normalized subject sheets of one exam-result
// workbook. Subjects whose sheets were present but malformed are absent
// from Sheets and recorded in Diagnostics instead.
type Workbook struct {
	Sheets      map[string]*NormalizedSheet
	Diagnostics []domain.Diagnostic
}

// LoadWorkbookFile opens an .xlsx file and normalizes its subject sheets.
func LoadWorkbookFile(path string) (*Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return LoadWorkbook(f)
}

// LoadWorkbook reads an .xlsx workbook and normalizes the five required
// subject sheets. A missing required sheet, or an unreadable canonical
// roster sheet, is a StructuralError that aborts before extraction;
// other malformed sheets are skipped with a Diagnostic.
func LoadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer f.Close()

	present := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	var missing []string
	for _, subject := range config.RequiredSubjects {
		if !present[subject] {
			missing = append(missing, subject)
		}
	}
	if len(missing) > 0 {
		return nil, NewMissingSheetsError(missing)
	}

	wb := &Workbook{
		Sheets: make(map[string]*NormalizedSheet),
	}

	for _, subject := range config.RequiredSubjects {
		rows, err := f.GetRows(subject)
		if err == nil {
			var sheet *NormalizedSheet
			sheet, err = NormalizeSheet(subject, rows)
			if err == nil {
				wb.Sheets[subject] = sheet
				continue
			}
		}

		if subject == config.CanonicalSubject {
			// The roster comes from this sheet; without it the
			// whole run is meaningless.
			return nil, NewSheetShapeError(subject,
				fmt.Sprintf("canonical roster sheet unreadable: %v", err))
		}

		slog.Warn("skipping malformed subject sheet",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
		wb.Diagnostics = append(wb.Diagnostics, domain.Diagnostic{
			Subject: subject,
			Reason:  err.Error(),
		})
	}

	return wb, nil
}

// Sheet returns the normalized sheet for a subject, if it was readable.
func (w *Workbook) Sheet(subject string) (*NormalizedSheet, bool) {
	sheet, ok := w.Sheets[subject]
	return sheet, ok
}

// Canonical returns the roster sheet. LoadWorkbook guarantees it exists.
func (w *Workbook) Canonical() *NormalizedSheet {
	return w.Sheets[config.CanonicalSubject]
}
