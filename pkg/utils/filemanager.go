// =============================================================================
// Position Grouper - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the process command:
//   - File discovery and scanning
//   - Error log generation
//   - Processing summary generation
//   - Directory management
//   - File naming utilities
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportExtensions are the file types the importers accept.
var ImportExtensions = []string{".xlsx", ".csv"}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the process command.
type FileManager struct {
	// InputDir is the directory where import files are placed.
	InputDir string

	// OutputDir is the directory where exports and logs are written.
	OutputDir string
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir string) *FileManager {
	return &FileManager{
		InputDir:  inputDir,
		OutputDir: outputDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
//
// RETURNS:
//   - An error if any directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{
		fm.InputDir,
		fm.OutputDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans the input directory for import files.
//
// PARAMETERS:
//   - extensions: Extensions to match, including the dot.
//                 If empty, defaults to ImportExtensions.
//
// RETURNS:
//   - The matching file paths in name order.
//   - An error if the directory cannot be read.
//
// Spreadsheet lock files ("~$name.xlsx") and hidden files are skipped.
func (fm *FileManager) DiscoverInputFiles(extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = ImportExtensions
	}

	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		for _, want := range extensions {
			if ext == strings.ToLower(want) {
				result = append(result, filepath.Join(fm.InputDir, name))
				break
			}
		}
	}

	sort.Strings(result)
	return result, nil
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output file name from a format string.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYY-MM-DD)
//               {time}      - Current time (HHMMSS)
//               {original}  - Import file name (without extension)
//   - params: A map of placeholder values.
//   - ext: The extension to ensure, including the dot.
//
// RETURNS:
//   - The generated file name.
//
// EXAMPLE:
//   format: "grouped_positions_{date}"
//   ext:    ".csv"
//   output: "grouped_positions_2024-03-15.csv"
func GenerateOutputFileName(format string, params map[string]string, ext string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("2006-01-02"),
		"{time}":      now.Format("150405"),
	}

	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}

	return result
}

// OriginalName returns the file name of path without its extension.
func OriginalName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp      time.Time
	FileName       string
	ErrorType      string
	ErrorMessage   string
	RowNumber      int
	FieldName      string
	FieldValue     string
	ItemID         string
	PositionNumber int
}

// WriteErrorLog writes error entries to a log file.
//
// PARAMETERS:
//   - entries: The error entries to write.
//   - outputDir: The directory to write the log file.
//
// RETURNS:
//   - The path to the error log file, empty if there were no entries.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	timestamp := time.Now().Format("20060102_150405")
	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s_%s.txt", timestamp, uuid.NewString()[:8]))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Position Grouper - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Timestamp:      %s\n"+
			"  File:           %s\n"+
			"  Error Type:     %s\n"+
			"  Message:        %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.ErrorType,
			entry.ErrorMessage)

		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number:     %d\n", entry.RowNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:          %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(writer, "  Value:          %s\n", entry.FieldValue)
		}
		if entry.ItemID != "" {
			fmt.Fprintf(writer, "  Item ID:        %s\n", entry.ItemID)
		}
		if entry.PositionNumber > 0 {
			fmt.Fprintf(writer, "  Position:       %d\n", entry.PositionNumber)
		}

		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	StartTime        time.Time
	EndTime          time.Time
	TotalFiles       int
	SuccessfulFiles  int
	FailedFiles      int
	TotalItems       int
	TotalPositions   int
	ValidationErrors int
	ProcessedFiles   []ProcessedFileInfo
	FailedFilesList  []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	Items       int
	Positions   []PositionTotals
	ProcessTime time.Duration
}

// PositionTotals is the summary line of one exported position.
type PositionTotals struct {
	Number  int
	Service string
	Items   int
	Price   float64
	Income  float64
	Expense float64
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a processing summary to a log file.
//
// PARAMETERS:
//   - summary: The processing summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("processing_summary_%s.txt", timestamp))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "Position Grouper - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Files:        %d\n"+
		"  Successful:         %d\n"+
		"  Failed:             %d\n"+
		"  Total Items:        %d\n"+
		"  Total Positions:    %d\n"+
		"  Validation Errors:  %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalItems,
		summary.TotalPositions,
		summary.ValidationErrors)

	if len(summary.ProcessedFiles) > 0 {
		writer.WriteString("Successful Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(writer, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(writer, "  Output:       %s\n", pf.OutputFile)
			fmt.Fprintf(writer, "  Items:        %d\n", pf.Items)
			fmt.Fprintf(writer, "  Process Time: %s\n", pf.ProcessTime.String())
			for _, p := range pf.Positions {
				fmt.Fprintf(writer, "    #%-3d %-30s items=%-4d price=%s income=%s expense=%s\n",
					p.Number, p.Service, p.Items,
					formatMoney(p.Price), formatMoney(p.Income), formatMoney(p.Expense))
			}
			writer.WriteString("\n")
		}
	}

	if len(summary.FailedFilesList) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(writer, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(writer, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// formatMoney renders an amount with two decimals.
func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
