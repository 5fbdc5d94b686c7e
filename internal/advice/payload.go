package advice

import (
	"fmt"
	"strings"

	"studycoach/internal/config"
	"studycoach/pkg/contracts/domain"
)

// FormatErrorPayload renders one student's per-subject error records as
// the text block embedded in the advice prompt. Subjects appear in the
// fixed subject order so the same index always produces the same
// payload; subjects without a row are omitted and subjects with no
// errors say so explicitly.
func FormatErrorPayload(errors domain.StudentSubjectErrors) string {
	var b strings.Builder

	for _, subject := range config.RequiredSubjects {
		records, ok := errors[subject]
		if !ok {
			continue
		}

		fmt.Fprintf(&b, "%s（錯題數：%d）\n", subject, len(records))
		if len(records) == 0 {
			b.WriteString("  本科無錯題\n")
			continue
		}

		for _, rec := range records {
			fmt.Fprintf(&b, "  題號 %s｜領域：%s｜知識點：%s\n",
				rec.QuestionID, rec.Category, rec.KnowledgePoint)
		}
	}

	if b.Len() == 0 {
		return "（無任何科目資料）"
	}
	return b.String()
}
