package domain

// ErrorRecord is one missed question reconstructed from a subject sheet.
// QuestionID and KnowledgePoint are opaque labels copied from the header
// band; KnowledgePoint may be blank. Category falls back to the
// uncategorized sentinel when the sheet leaves it blank.
type ErrorRecord struct {
	QuestionID     string `json:"question_id"`
	Category       string `json:"category"`
	KnowledgePoint string `json:"knowledge_point"`
}

// StudentSubjectErrors maps subject name to the ordered missed-question
// records for one student. A subject with no body row for the student is
// absent from the map; a subject where the student missed nothing is
// present with an empty list.
type StudentSubjectErrors map[string][]ErrorRecord

// ClassErrorIndex maps student name to that student's per-subject records.
// This is the artifact handed to the advice and report stages.
type ClassErrorIndex map[string]StudentSubjectErrors

// Diagnostic records a recovered per-(student, subject) extraction failure.
// Diagnostics are side-channel information for operators; they never abort
// the batch.
type Diagnostic struct {
	Student string `json:"student,omitempty"`
	Subject string `json:"subject"`
	Reason  string `json:"reason"`
}
