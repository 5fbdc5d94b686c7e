package config

import "time"

// Application constants for the StudyCoach report generator.
const (
	// Application Info
	AppName    = "StudyCoach"
	AppVersion = "1.0.0"

	// Workbook layout contract. A subject sheet carries three aligned
	// header rows (question id, category, knowledge point), two spacer
	// rows, then one student per row. The name sits in column B and the
	// answer markers start in column C. These offsets are a format
	// version, not runtime discovery.
	QuestionIDRow     = 0
	CategoryRow       = 1
	KnowledgePointRow = 2
	BodyStartRow      = 5
	NameColumn        = 1
	AnswerStartColumn = 2

	// Minimum well-formed sheet shape: three header rows, two spacer
	// rows, at least one body row; label column, name column, at least
	// one answer column.
	MinSheetRows    = 6
	MinSheetColumns = 3

	// NotAttemptedMarker is the single sentinel cell value meaning the
	// student never attempted the question. Every other non-blank marker
	// counts as a missed question.
	NotAttemptedMarker = "-"

	// UncategorizedLabel substitutes a blank category cell.
	UncategorizedLabel = "其他"

	// Rate Limiting (HTTP layer)
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultBatchTimeout = 2 * time.Hour
	AdviceCallTimeout   = 2 * time.Minute

	// Upload limits
	MaxWorkbookBytes = 20 << 20 // 20MB

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultUploadsDir = "data/uploads"
	DefaultReportsDir = "data/reports"

	// DefaultAdviceModel is the text model used when none is configured.
	DefaultAdviceModel = "gemini-1.5-flash"
)

// RequiredSubjects lists the five sheet names a workbook must contain,
// in canonical order. The order is also the stable subject order used in
// advice payloads and reports.
var RequiredSubjects = []string{"國文", "英文", "數學", "社會", "自然"}

// CanonicalSubject is the sheet whose body rows define the class roster.
const CanonicalSubject = "國文"

// IsRequiredSubject reports whether name is one of the required sheets.
func IsRequiredSubject(name string) bool {
	for _, s := range RequiredSubjects {
		if s == name {
			return true
		}
	}
	return false
}
