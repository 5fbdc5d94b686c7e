package dataprocessing

import (
	"fmt"
	"log/slog"
	"strings"

	"studycoach/internal/config"
	"studycoach/pkg/contracts/domain"
)

// ExtractionResult is the outcome of one full class extraction.
type ExtractionResult struct {
	// Index maps student name → subject → ordered missed-question
	// records.
	Index domain.ClassErrorIndex
	// Roster holds the distinct student names in first-seen order.
	// Iterating it gives the same order every run on the same input.
	Roster []string
	// Diagnostics collects every recovered per-(student, subject)
	// failure plus any subject sheets skipped at load time.
	Diagnostics []domain.Diagnostic
}

// BuildClassErrorIndex derives the roster from the canonical subject
// sheet and joins every (student, subject) pair into the class error
// index. Failures on a single pair are recovered and recorded; they
// never abort the remaining pairs.
func BuildClassErrorIndex(wb *Workbook, logger *slog.Logger) *ExtractionResult {
	if logger == nil {
		logger = slog.Default()
	}

	result := &ExtractionResult{
		Index:       make(domain.ClassErrorIndex),
		Diagnostics: append([]domain.Diagnostic(nil), wb.Diagnostics...),
	}

	// Roster: canonical body names, blanks already dropped by the
	// normalizer, duplicates collapsed, first-seen order kept.
	seen := make(map[string]bool)
	for _, name := range wb.Canonical().Names() {
		if seen[name] {
			continue
		}
		seen[name] = true
		result.Roster = append(result.Roster, name)
	}

	for _, student := range result.Roster {
		subjectErrors := make(domain.StudentSubjectErrors)

		for _, subject := range config.RequiredSubjects {
			sheet, ok := wb.Sheet(subject)
			if !ok {
				// Sheet was malformed at load time; already
				// diagnosed once, omit for every student.
				continue
			}

			records, found, err := extractSubjectErrors(sheet, student)
			if err != nil {
				logger.Warn("extraction failed for student subject, skipping",
					slog.String("student", student),
					slog.String("subject", subject),
					slog.String("error", err.Error()))
				result.Diagnostics = append(result.Diagnostics, domain.Diagnostic{
					Student: student,
					Subject: subject,
					Reason:  err.Error(),
				})
				continue
			}
			if !found {
				// No body row for this student in this subject;
				// the subject key stays absent.
				continue
			}

			subjectErrors[subject] = records
		}

		result.Index[student] = subjectErrors
	}

	logger.Info("class error index built",
		slog.Int("students", len(result.Roster)),
		slog.Int("diagnostics", len(result.Diagnostics)))

	return result
}

// extractSubjectErrors joins one student's answer band against the
// header band and filters it down to missed questions. Any panic inside
// the join is converted to an error so a single bad pair cannot take
// down the batch.
func extractSubjectErrors(sheet *NormalizedSheet, student string) (records []domain.ErrorRecord, found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("row join failed: %v", r)
		}
	}()

	answers, ok := sheet.RowFor(student)
	if !ok {
		return nil, false, nil
	}

	// A matched row always yields a list, even when every marker
	// passes — that distinguishes "no errors" from "no row".
	records = []domain.ErrorRecord{}

	// Zip up to the shortest sequence; misaligned sheets truncate
	// silently instead of failing the pair.
	n := len(answers)
	for _, m := range []int{len(sheet.QuestionIDs), len(sheet.Categories), len(sheet.KnowledgePoints)} {
		if m < n {
			n = m
		}
	}

	for i := 0; i < n; i++ {
		if !isMissedMarker(answers[i]) {
			continue
		}

		category := strings.TrimSpace(sheet.Categories[i])
		if category == "" {
			category = config.UncategorizedLabel
		}

		records = append(records, domain.ErrorRecord{
			QuestionID:     sheet.QuestionIDs[i],
			Category:       category,
			KnowledgePoint: sheet.KnowledgePoints[i],
		})
	}

	return records, true, nil
}

// isMissedMarker implements the missed-question predicate: any marker
// that is non-blank after trimming and is not the not-attempted sentinel
// counts as a missed question. The marker's actual value is not
// interpreted further.
func isMissedMarker(marker string) bool {
	trimmed := strings.TrimSpace(marker)
	return trimmed != "" && trimmed != config.NotAttemptedMarker
}
