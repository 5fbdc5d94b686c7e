package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unidoc/unioffice/document"
)

func readDocxText(t *testing.T, path string) string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	info, err := f.Stat()
	require.NoError(t, err)

	doc, err := document.Read(f, info.Size())
	require.NoError(t, err)

	var lines []string
	for _, para := range doc.Paragraphs() {
		var b strings.Builder
		for _, run := range para.Runs() {
			b.WriteString(run.Text())
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewDocxWriter(dir, nil)
	require.NoError(t, err)

	advice := "## 一、 【整體表現總評】\n\n* **強弱科分析**：數學偏弱。\n\n**持續加油！**"
	path, err := writer.WriteReport("王小明", advice)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "王小明_讀書建議.docx"), path)

	text := readDocxText(t, path)
	assert.Contains(t, text, "王小明 - 讀書建議報告")
	assert.Contains(t, text, "一、 【整體表現總評】")
	assert.Contains(t, text, "強弱科分析：數學偏弱。")
	assert.Contains(t, text, "持續加油！")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "## ")
}

func TestWriteReportBlankLinesDropped(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewDocxWriter(dir, nil)
	require.NoError(t, err)

	path, err := writer.WriteReport("李小華", "第一段\n\n\n   \n第二段")
	require.NoError(t, err)

	text := readDocxText(t, path)
	assert.Contains(t, text, "第一段")
	assert.Contains(t, text, "第二段")
	assert.NotContains(t, text, "\n\n\n")
}

func TestNewDocxWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "batch-1")

	_, err := NewDocxWriter(dir, nil)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestReportFileName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"王小明", "王小明_讀書建議.docx"},
		{"a/b", "a_b_讀書建議.docx"},
		{"x..y", "x_y_讀書建議.docx"},
		{"  ", "unnamed_讀書建議.docx"},
		{"A:B*C", "A_B_C_讀書建議.docx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReportFileName(tt.name))
		})
	}
}
