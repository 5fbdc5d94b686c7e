// Package exporter renders generated study-advice reports as Word
// documents, one .docx per student.
package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unioffice/measurement"
	"github.com/unidoc/unioffice/schema/soo/wml"
)

const reportFontSize = 12 * measurement.Point

// DocxWriter writes advice reports into an output directory.
type DocxWriter struct {
	outputDir string
	logger    *slog.Logger
}

// NewDocxWriter creates a writer rooted at outputDir, creating the
// directory if needed.
func NewDocxWriter(outputDir string, logger *slog.Logger) (*DocxWriter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DocxWriter{outputDir: outputDir, logger: logger}, nil
}

// WriteReport renders one student's advice text as a .docx file and
// returns the written path. The document is a centered title followed by
// one plain paragraph per non-blank line, Markdown markers stripped.
func (w *DocxWriter) WriteReport(studentName, adviceText string) (string, error) {
	doc := document.New()

	title := doc.AddParagraph()
	title.SetStyle("Title")
	title.Properties().SetAlignment(wml.ST_JcCenter)
	title.AddRun().AddText(fmt.Sprintf("%s - 讀書建議報告", studentName))

	for _, line := range strings.Split(cleanMarkdown(adviceText), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		para := doc.AddParagraph()
		run := para.AddRun()
		run.AddText(line)
		run.Properties().SetSize(reportFontSize)
	}

	path := filepath.Join(w.outputDir, ReportFileName(studentName))
	if err := doc.SaveToFile(path); err != nil {
		return "", fmt.Errorf("failed to save report for %s: %w", studentName, err)
	}

	w.logger.Debug("report written",
		slog.String("student", studentName),
		slog.String("path", path))

	return path, nil
}

// ReportFileName returns the canonical file name for one student's
// report, with path-hostile characters replaced.
func ReportFileName(studentName string) string {
	return fmt.Sprintf("%s_讀書建議.docx", sanitizeName(studentName))
}

// cleanMarkdown strips the Markdown markers the advice model emits so
// the document reads as plain text. Only bold markers and heading
// prefixes are handled; the model is prompted to use nothing else.
func cleanMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "## ", "")
	text = strings.ReplaceAll(text, "### ", "")
	return text
}

// sanitizeName replaces characters that are unsafe in file names across
// platforms. Student names are data, not trusted path input.
func sanitizeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		"..", "_",
	)
	cleaned := strings.TrimSpace(replacer.Replace(name))
	if cleaned == "" {
		cleaned = "unnamed"
	}
	return cleaned
}
