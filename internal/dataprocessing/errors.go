package dataprocessing

import (
	"fmt"
	"strings"
)

// StructuralError reports a workbook or sheet whose shape breaks the
// format contract. A workbook-level StructuralError (missing required
// sheets, unreadable roster sheet) aborts the run; a sheet-level one is
// recovered by omitting that subject.
type StructuralError struct {
	// Subject is the sheet the error belongs to; empty for
	// workbook-level failures.
	Subject string
	// MissingSheets lists required sheet names absent from the
	// workbook; only set on workbook-level failures.
	MissingSheets []string
	// Reason describes the shape violation.
	Reason string
}

// Error implements the error interface
func (e *StructuralError) Error() string {
	if len(e.MissingSheets) > 0 {
		return fmt.Sprintf("workbook missing required sheets: [%s]", strings.Join(e.MissingSheets, ", "))
	}
	if e.Subject != "" {
		return fmt.Sprintf("sheet %s: %s", e.Subject, e.Reason)
	}
	return e.Reason
}

// NewMissingSheetsError creates a workbook-level error naming the
// required sheets that are absent.
func NewMissingSheetsError(missing []string) *StructuralError {
	return &StructuralError{MissingSheets: missing, Reason: "missing required sheets"}
}

// NewSheetShapeError creates a sheet-level error for a grid below the
// minimum well-formed shape.
func NewSheetShapeError(subject, reason string) *StructuralError {
	return &StructuralError{Subject: subject, Reason: reason}
}
