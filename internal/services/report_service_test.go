package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"studycoach/internal/advice"
	"studycoach/internal/config"
	"studycoach/internal/exporter"
)

// failingClient fails for the named students and succeeds otherwise.
type failingClient struct {
	failFor map[string]bool
	calls   int
}

func (c *failingClient) GenerateAdvice(_ context.Context, prompt string) (string, error) {
	c.calls++
	for student := range c.failFor {
		if strings.Contains(prompt, "學生姓名："+student) {
			return "", errors.New("model unavailable")
		}
	}
	return "## 一、 【整體表現總評】\n建議內容。", nil
}

func (c *failingClient) Model() string { return "mock" }

func writeFixtureWorkbook(t *testing.T, path string, students ...string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for _, subject := range config.RequiredSubjects {
		_, err := f.NewSheet(subject)
		require.NoError(t, err)

		grid := [][]interface{}{
			{"題號", "", "1", "2", "3"},
			{"領域", "", "代數", "幾何", ""},
			{"知識點", "", "方程式", "三角形", "圓"},
			{},
			{},
		}
		for _, student := range students {
			grid = append(grid, []interface{}{"", student, "甲", "-", ""})
		}
		for i, row := range grid {
			require.NoError(t, f.SetSheetRow(subject, fmt.Sprintf("A%d", i+1), &row))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))
	require.NoError(t, f.SaveAs(path))
}

func newTestService(t *testing.T, client advice.Client) *ReportService {
	t.Helper()

	cfg := config.Default()
	svc, err := NewReportServiceWithLogger(cfg, client, nil, nil)
	require.NoError(t, err)
	return svc
}

func TestGenerateClassReports(t *testing.T) {
	dir := t.TempDir()
	workbook := filepath.Join(dir, "class.xlsx")
	outputDir := filepath.Join(dir, "reports")
	writeFixtureWorkbook(t, workbook, "王小明", "李小華")

	svc := newTestService(t, &advice.MockClient{})

	var progressCalls [][2]int
	summary, err := svc.GenerateClassReports(context.Background(), workbook, outputDir,
		func(done, total int) {
			progressCalls = append(progressCalls, [2]int{done, total})
		})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Empty(t, summary.Diagnostics)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, progressCalls)

	for _, report := range summary.Reports {
		require.True(t, report.Succeeded(), report.Error)
		_, err := os.Stat(report.FilePath)
		assert.NoError(t, err)
	}

	// The batch leaves a summary CSV next to the documents.
	_, err = os.Stat(filepath.Join(outputDir, exporter.SummaryFileName))
	assert.NoError(t, err)
}

func TestGenerateClassReportsPartialFailure(t *testing.T) {
	dir := t.TempDir()
	workbook := filepath.Join(dir, "class.xlsx")
	writeFixtureWorkbook(t, workbook, "王小明", "李小華", "陳大文")

	client := &failingClient{failFor: map[string]bool{"李小華": true}}
	svc := newTestService(t, client)

	summary, err := svc.GenerateClassReports(context.Background(), workbook, filepath.Join(dir, "out"), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	// One failed student does not stop the rest.
	require.Len(t, summary.Reports, 3)
	assert.Contains(t, summary.Reports[1].Error, "advice generation failed")
	assert.True(t, summary.Reports[0].Succeeded())
	assert.True(t, summary.Reports[2].Succeeded())
}

func TestGenerateClassReportsStructuralFailure(t *testing.T) {
	dir := t.TempDir()
	workbook := filepath.Join(dir, "bad.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("國文")
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))
	require.NoError(t, f.SaveAs(workbook))
	require.NoError(t, f.Close())

	svc := newTestService(t, &advice.MockClient{})

	_, err = svc.GenerateClassReports(context.Background(), workbook, filepath.Join(dir, "out"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required sheets")
}

func TestGenerateClassReportsCancellation(t *testing.T) {
	dir := t.TempDir()
	workbook := filepath.Join(dir, "class.xlsx")
	writeFixtureWorkbook(t, workbook, "王小明", "李小華", "陳大文")

	ctx, cancel := context.WithCancel(context.Background())
	client := &advice.MockClient{}
	svc := newTestService(t, client)

	// Cancel after the first student by hijacking progress.
	summary, err := svc.GenerateClassReports(ctx, workbook, filepath.Join(dir, "out"),
		func(done, total int) {
			if done == 1 {
				cancel()
			}
		})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch cancelled")

	// Work already done is kept.
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
}
