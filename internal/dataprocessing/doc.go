// Package dataprocessing reconstructs per-student missed-question profiles
// from an exam-result workbook.
//
// # Architecture
//
// The package is organized into three components:
//
// 1. Loader: Opens a workbook and checks the five required subject sheets
// 2. Normalizer: Splits one subject sheet into its header band and a
// name-indexed view over the student rows
// 3. Extractor: Joins answer rows against the header band to build the
// class error index handed to the advice and report stages
//
// # Data Flow
//
//	Excel File → Loader → NormalizedSheet per subject → Extractor → ClassErrorIndex
//
// # Sheet Layout
//
// Subject sheets follow a fixed positional layout: rows 0-2 hold question
// ids, categories, and knowledge points; rows 3-4 are spacers; student
// rows start at row 5 with the name in column B and answer markers from
// column C. The offsets live in the config package as named constants so
// the format contract stays explicit and testable.
//
// # Error Handling
//
// A workbook missing a required sheet is a structural failure and aborts
// before extraction begins. Everything narrower — a malformed subject
// sheet, a student row the join cannot process — is recovered per
// (student, subject) pair: the pair is skipped, a Diagnostic is recorded,
// and the run continues.
package dataprocessing
