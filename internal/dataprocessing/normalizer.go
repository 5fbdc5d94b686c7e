package dataprocessing

import (
	"fmt"
	"strings"

	"studycoach/internal/config"

	"log/slog"
)

// NormalizedSheet exposes one subject sheet as its header band (question
// ids, categories, knowledge points, column-aligned) plus a name-indexed
// view over the student body rows.
type NormalizedSheet struct {
	Subject         string
	QuestionIDs     []string
	Categories      []string
	KnowledgePoints []string

	names     []string
	rowByName map[string][]string
}

// NormalizeSheet parses one subject's raw grid into a NormalizedSheet.
// rows is the excelize GetRows output: ragged, with trailing empty cells
// trimmed per row. The question-id row defines the answer-column span;
// the other header rows and every answer row are padded or truncated to
// that span so all sequences line up positionally.
func NormalizeSheet(subject string, rows [][]string) (*NormalizedSheet, error) {
	if len(rows) < config.MinSheetRows {
		return nil, NewSheetShapeError(subject,
			fmt.Sprintf("grid has %d rows, need at least %d", len(rows), config.MinSheetRows))
	}

	width := len(rows[config.QuestionIDRow]) - config.AnswerStartColumn
	if width < 1 {
		return nil, NewSheetShapeError(subject,
			fmt.Sprintf("grid has %d columns, need at least %d", len(rows[config.QuestionIDRow]), config.MinSheetColumns))
	}

	sheet := &NormalizedSheet{
		Subject:         subject,
		QuestionIDs:     sliceBand(rows[config.QuestionIDRow], width),
		Categories:      sliceBand(rows[config.CategoryRow], width),
		KnowledgePoints: sliceBand(rows[config.KnowledgePointRow], width),
		rowByName:       make(map[string][]string),
	}

	for i := config.BodyStartRow; i < len(rows); i++ {
		row := rows[i]
		if len(row) <= config.NameColumn {
			continue
		}

		name := row[config.NameColumn]
		if strings.TrimSpace(name) == "" {
			continue
		}

		sheet.names = append(sheet.names, name)

		// Exact-match lookup; first body row wins on duplicate names.
		if _, seen := sheet.rowByName[name]; seen {
			slog.Debug("duplicate student name in sheet, keeping first row",
				slog.String("subject", subject),
				slog.String("name", name),
				slog.Int("row", i))
			continue
		}
		sheet.rowByName[name] = sliceBand(row, width)
	}

	return sheet, nil
}

// sliceBand extracts the answer-column band from a raw row, padding with
// empty cells or truncating so the result always has exactly width
// entries.
func sliceBand(row []string, width int) []string {
	band := make([]string, width)
	for i := 0; i < width; i++ {
		col := config.AnswerStartColumn + i
		if col < len(row) {
			band[i] = row[col]
		}
	}
	return band
}

// AnswerCount returns the number of answer columns in the sheet.
func (s *NormalizedSheet) AnswerCount() int {
	return len(s.QuestionIDs)
}

// RowFor returns the answer band for a student by exact name match.
// The returned slice has the same length as the header sequences.
func (s *NormalizedSheet) RowFor(name string) ([]string, bool) {
	row, ok := s.rowByName[name]
	return row, ok
}

// Names returns the body-band student names in row order, blanks
// dropped. Duplicate names are included; roster derivation collapses
// them.
func (s *NormalizedSheet) Names() []string {
	return s.names
}
