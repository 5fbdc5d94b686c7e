// Package exporter renders the artifacts a report batch produces.
//
// DocxWriter writes one Word document per student with the generated
// study advice. SummaryWriter writes a per-batch CSV next to the
// documents so the outcome of a run can be reviewed in a spreadsheet.
package exporter
