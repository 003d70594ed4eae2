// =============================================================================
// Position Grouper - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the grouping pipeline
// over one import file or every import in the input directory.
//
// COMMAND USAGE:
//   grouper process [flags]
//
// FLAGS:
//   --file     : Process only this file
//   --plan     : Plan file applied to each import
//   --format   : Export format (csv, xlsx, xml); overrides the config
//   --dry-run  : Run every step but write no files
//
// PROCESSING PIPELINE:
//   1. Load the plan (and open the catalog if the plan needs it)
//   2. Discover import files in the input directory
//   3. For each file (concurrently, bounded by max_concurrency):
//      a. Import and validate line-items
//      b. Apply the plan
//      c. Validate the session state
//      d. Export the positions
//   4. Write the summary log
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/position-grouper/internal/catalog"
	"github.com/ginjaninja78/position-grouper/internal/config"
	"github.com/ginjaninja78/position-grouper/internal/converter"
	"github.com/ginjaninja78/position-grouper/internal/export"
	"github.com/ginjaninja78/position-grouper/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	// dryRun runs the pipeline without writing output files.
	dryRun bool

	// filePath is a single file to process instead of the input directory.
	filePath string

	// planPath is the plan applied to each import.
	planPath string

	// formatName overrides export.format.
	formatName string
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Group import files into positions and export them",
	Long: `The process command imports line-items, applies a plan to them and
exports the resulting positions.

Without --file every .xlsx and .csv file in the input directory is processed.
Files are processed concurrently; a failure in one file does not affect the
others.

On success:
  - The export is placed in the output directory
  - Validation warnings, if any, are written to an error log

On error:
  - Validation findings are written to an error log
  - Processing continues for other files

A summary log covering every file is written at the end.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run every step but write no output files")
	processCmd.Flags().StringVar(&filePath, "file", "", "Path to a single import file")
	processCmd.Flags().StringVar(&planPath, "plan", "", "Path to the plan file")
	processCmd.Flags().StringVar(&formatName, "format", "", "Export format: csv, xlsx or xml")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates the pipeline over all input files.
func runProcess(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	startTime := time.Now()

	// =========================================================================
	// STEP 1: PLAN AND CATALOG
	// =========================================================================

	opts := []converter.Option{converter.WithDryRun(dryRun)}

	if formatName != "" {
		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}
		opts = append(opts, converter.WithFormat(format))
	}

	var plan *config.PlanConfig
	if planPath != "" {
		var err error
		plan, err = config.LoadPlan(planPath)
		if err != nil {
			return err
		}
		opts = append(opts, converter.WithPlan(plan))
		logger.Info().Str("plan", planPath).Int("actions", len(plan.Actions)).Msg("plan loaded")
	}

	if plan.NeedsCatalog() {
		store, err := catalog.Open(mainConfig.Catalog.DBPath, mainConfig.Catalog.CacheTTL, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, converter.WithCatalog(store))
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	fm := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	var inputFiles []string
	if filePath != "" {
		if !utils.FileExists(filePath) {
			return fmt.Errorf("input file not found: %s", filePath)
		}
		inputFiles = []string{filePath}
	} else {
		var err error
		inputFiles, err = fm.DiscoverInputFiles()
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Println("No import files found in the input directory.")
		return nil
	}

	fmt.Printf("Found %d file(s) to process\n", len(inputFiles))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	results := processFiles(ctx, inputFiles, opts)

	// =========================================================================
	// STEP 4: SUMMARY
	// =========================================================================

	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		TotalFiles: len(inputFiles),
	}

	for _, result := range results {
		summary.ValidationErrors += result.Stats.ValidationErrors

		if !result.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    filepath.Base(result.FilePath),
				ErrorMessage: result.Error.Error(),
			})
			fmt.Printf("  ✗ %s: %v\n", filepath.Base(result.FilePath), result.Error)
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalItems += result.State.ItemCount()
		summary.TotalPositions += len(result.State.Positions)
		summary.ProcessedFiles = append(summary.ProcessedFiles, processedInfo(result))

		output := result.OutputFile
		if output == "" {
			output = "(dry run)"
		}
		fmt.Printf("  ✓ %s -> %s\n", filepath.Base(result.FilePath), output)
	}
	summary.EndTime = time.Now()

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", summary.TotalFiles)
	fmt.Printf("Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Printf("Errors:          %d\n", summary.FailedFiles)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(startTime).Round(time.Millisecond))

	if !dryRun {
		path, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to write summary log")
		} else {
			fmt.Printf("Summary:         %s\n", path)
		}
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// processFiles runs a converter per file, at most MaxConcurrency at once,
// and returns the results in input order.
func processFiles(ctx context.Context, inputFiles []string, opts []converter.Option) []converter.Result {
	type indexed struct {
		index  int
		result converter.Result
	}

	var wg sync.WaitGroup
	results := make(chan indexed, len(inputFiles))
	sem := make(chan struct{}, mainConfig.MaxConcurrency)

	for i, file := range inputFiles {
		wg.Add(1)

		go func(index int, path string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			c := converter.New(path, mainConfig, logger, opts...)
			results <- indexed{index: index, result: c.Run(ctx)}
		}(i, file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]converter.Result, len(inputFiles))
	for r := range results {
		ordered[r.index] = r.result
	}
	return ordered
}

// processedInfo builds the summary entry of a successful file.
func processedInfo(result converter.Result) utils.ProcessedFileInfo {
	info := utils.ProcessedFileInfo{
		InputFile:   filepath.Base(result.FilePath),
		OutputFile:  filepath.Base(result.OutputFile),
		Items:       result.State.ItemCount(),
		ProcessTime: result.Stats.ProcessingTime,
	}

	for _, p := range result.State.Positions {
		info.Positions = append(info.Positions, utils.PositionTotals{
			Number:  p.Number,
			Service: p.Service,
			Items:   len(p.Items),
			Price:   p.TotalPrice,
			Income:  p.TotalIncome,
			Expense: p.TotalExpense,
		})
	}
	return info
}
