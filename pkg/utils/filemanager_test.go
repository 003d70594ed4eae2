package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOutputFileName(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		params  map[string]string
		ext     string
		pattern string
	}{
		{
			name:    "date",
			format:  "grouped_positions_{date}",
			ext:     ".csv",
			pattern: `^grouped_positions_\d{4}-\d{2}-\d{2}\.csv$`,
		},
		{
			name:    "original and timestamp",
			format:  "{original}_{timestamp}",
			params:  map[string]string{"original": "march"},
			ext:     ".xlsx",
			pattern: `^march_\d{8}_\d{6}\.xlsx$`,
		},
		{
			name:    "uuid",
			format:  "{uuid}.xml",
			ext:     ".xml",
			pattern: `^[0-9a-f-]{36}\.xml$`,
		},
		{
			name:    "extension kept case-insensitively",
			format:  "OUT.CSV",
			ext:     ".csv",
			pattern: `^OUT\.CSV$`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateOutputFileName(tt.format, tt.params, tt.ext)
			assert.Regexp(t, regexp.MustCompile(tt.pattern), got)
		})
	}
}

func TestOriginalName(t *testing.T) {
	assert.Equal(t, "march", OriginalName("/data/input/march.xlsx"))
	assert.Equal(t, "report.v2", OriginalName("report.v2.csv"))
}

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "a.CSV", "notes.txt", "~$b.xlsx", ".hidden.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

	fm := NewFileManager(dir, t.TempDir())

	files, err := fm.DiscoverInputFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.CSV"), filepath.Join(dir, "b.xlsx")}, files)

	files, err = fm.DiscoverInputFiles(".txt")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, files)

	_, err = NewFileManager(filepath.Join(dir, "missing"), "").DiscoverInputFiles()
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	fm := NewFileManager(filepath.Join(root, "in"), filepath.Join(root, "out", "nested"))

	require.NoError(t, fm.EnsureDirectories())
	assert.True(t, FileExists(fm.InputDir))
	assert.True(t, FileExists(fm.OutputDir))
}

func TestWriteErrorLog(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteErrorLog(nil, dir)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteErrorLog([]ErrorLogEntry{{
		Timestamp:    time.Now(),
		FileName:     "march.xlsx",
		ErrorType:    "sign",
		ErrorMessage: "expense amount is positive",
		RowNumber:    5,
		FieldName:    "revenue",
		ItemID:       "102",
	}}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Total Errors: 1")
	assert.Contains(t, content, "Row Number:     5")
	assert.Contains(t, content, "Item ID:        102")
	assert.NotContains(t, content, "Position:")
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	path, err := WriteSummaryLog(ProcessingSummary{
		StartTime:       start,
		EndTime:         start.Add(2 * time.Second),
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		TotalItems:      3,
		TotalPositions:  1,
		ProcessedFiles: []ProcessedFileInfo{{
			InputFile:  "march.xlsx",
			OutputFile: "out.csv",
			Items:      3,
			Positions: []PositionTotals{
				{Number: 1, Service: "Ремонт", Items: 3, Price: 1200.5, Income: 1500.5, Expense: -300},
			},
		}},
		FailedFilesList: []FailedFileInfo{{InputFile: "bad.csv", ErrorMessage: "CSV file is empty"}},
	}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Duration:       2s")
	assert.Contains(t, content, "price=1200.50 income=1500.50 expense=-300.00")
	assert.Contains(t, content, "Error: CSV file is empty")
	assert.True(t, strings.HasSuffix(content, "End of Summary\n"))
}
