package dataprocessing

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"studycoach/internal/config"
)

// writeSheet fills one sheet of an excelize file from a raw grid.
func writeSheet(t *testing.T, f *excelize.File, sheet string, rows [][]string) {
	t.Helper()

	_, err := f.NewSheet(sheet)
	require.NoError(t, err)

	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		require.NoError(t, f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &cells))
	}
}

// buildWorkbookBytes produces an .xlsx with the given sheets and no
// default Sheet1.
func buildWorkbookBytes(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for _, subject := range config.RequiredSubjects {
		rows, ok := sheets[subject]
		if !ok {
			continue
		}
		writeSheet(t, f, subject, rows)
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func validGrid() [][]string {
	return [][]string{
		{"題號", "", "1", "2", "3"},
		{"領域", "", "代數", "幾何", ""},
		{"知識點", "", "方程式", "三角形", "圓"},
		{},
		{},
		{"", "王小明", "甲", "-", ""},
		{"", "李小華", "-", "乙", "-"},
	}
}

func allSubjectGrids() map[string][][]string {
	sheets := make(map[string][][]string)
	for _, subject := range config.RequiredSubjects {
		sheets[subject] = validGrid()
	}
	return sheets
}

func TestLoadWorkbook(t *testing.T) {
	data := buildWorkbookBytes(t, allSubjectGrids())

	wb, err := LoadWorkbook(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Len(t, wb.Sheets, len(config.RequiredSubjects))
	assert.Empty(t, wb.Diagnostics)

	canonical := wb.Canonical()
	require.NotNil(t, canonical)
	assert.Equal(t, config.CanonicalSubject, canonical.Subject)
	assert.Equal(t, []string{"王小明", "李小華"}, canonical.Names())

	math, ok := wb.Sheet("數學")
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3"}, math.QuestionIDs)
}

func TestLoadWorkbookMissingSheets(t *testing.T) {
	sheets := allSubjectGrids()
	delete(sheets, "自然")
	data := buildWorkbookBytes(t, sheets)

	wb, err := LoadWorkbook(bytes.NewReader(data))
	require.Error(t, err)
	assert.Nil(t, wb)

	var structural *StructuralError
	require.ErrorAs(t, err, &structural)
	assert.Equal(t, []string{"自然"}, structural.MissingSheets)
	assert.Equal(t, "workbook missing required sheets: [自然]", err.Error())
}

func TestLoadWorkbookMissingSheetsAll(t *testing.T) {
	sheets := map[string][][]string{"國文": validGrid()}
	data := buildWorkbookBytes(t, sheets)

	_, err := LoadWorkbook(bytes.NewReader(data))
	require.Error(t, err)

	var structural *StructuralError
	require.ErrorAs(t, err, &structural)
	assert.Equal(t, []string{"英文", "數學", "社會", "自然"}, structural.MissingSheets)
}

func TestLoadWorkbookMalformedSubjectSkipped(t *testing.T) {
	sheets := allSubjectGrids()
	// 英文 present but too shallow to carry a body band.
	sheets["英文"] = [][]string{
		{"題號", "", "1"},
		{"領域", "", "代數"},
	}
	data := buildWorkbookBytes(t, sheets)

	wb, err := LoadWorkbook(bytes.NewReader(data))
	require.NoError(t, err)

	_, ok := wb.Sheet("英文")
	assert.False(t, ok)
	require.Len(t, wb.Diagnostics, 1)
	assert.Equal(t, "英文", wb.Diagnostics[0].Subject)
	assert.Empty(t, wb.Diagnostics[0].Student)
}

func TestLoadWorkbookMalformedCanonicalFatal(t *testing.T) {
	sheets := allSubjectGrids()
	sheets[config.CanonicalSubject] = [][]string{
		{"題號", ""},
	}
	data := buildWorkbookBytes(t, sheets)

	wb, err := LoadWorkbook(bytes.NewReader(data))
	require.Error(t, err)
	assert.Nil(t, wb)

	var structural *StructuralError
	require.ErrorAs(t, err, &structural)
	assert.Equal(t, config.CanonicalSubject, structural.Subject)
	assert.Contains(t, structural.Reason, "canonical roster sheet unreadable")
}

func TestLoadWorkbookNotXLSX(t *testing.T) {
	_, err := LoadWorkbook(bytes.NewReader([]byte("not a workbook")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read workbook")
}

func TestLoadWorkbookFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "class.xlsx")

	data := buildWorkbookBytes(t, allSubjectGrids())
	require.NoError(t, os.WriteFile(path, data, 0o644))

	wb, err := LoadWorkbookFile(path)
	require.NoError(t, err)
	assert.Len(t, wb.Sheets, len(config.RequiredSubjects))

	_, err = LoadWorkbookFile(filepath.Join(dir, "missing.xlsx"))
	require.Error(t, err)
}
