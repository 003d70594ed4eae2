// =============================================================================
// Position Grouper - Converter Module
// =============================================================================
//
// This module contains the processing pipeline for a single import file,
// from reading line-items to writing the grouped positions.
//
// PROCESSING PIPELINE:
//   1. Import the file (XLSX or CSV, by extension)
//   2. Validate the imported line-items
//   3. Build the session state (every item in the pool)
//   4. Apply the plan actions
//   5. Validate the resulting state
//   6. Export the positions
//   7. Write an error log for validation findings
//
// CONCURRENCY:
//   Each file is processed in its own goroutine. A Converter holds no shared
//   mutable state; the catalog it reads from is safe for concurrent use.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/position-grouper/internal/catalog"
	"github.com/ginjaninja78/position-grouper/internal/config"
	"github.com/ginjaninja78/position-grouper/internal/csvparser"
	"github.com/ginjaninja78/position-grouper/internal/export"
	"github.com/ginjaninja78/position-grouper/internal/positions"
	"github.com/ginjaninja78/position-grouper/internal/validation"
	"github.com/ginjaninja78/position-grouper/internal/xlsxparser"
	"github.com/ginjaninja78/position-grouper/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path to the export. Empty on failure or dry run.
	OutputFile string

	// ErrorLog is the path to the validation error log, if one was written.
	ErrorLog string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// State is the session state after the plan was applied.
	State positions.State

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsProcessed is the number of data rows read.
	RowsProcessed int

	// ItemsImported is the number of line-items imported.
	ItemsImported int

	// SkippedRows counts empty rows and rows without an id.
	SkippedRows int

	// ActionsApplied and ActionsFailed count plan actions.
	ActionsApplied int
	ActionsFailed  int

	// PositionsCreated is the number of positions exported.
	PositionsCreated int

	// ValidationErrors and ValidationWarnings count findings from both
	// validation passes.
	ValidationErrors   int
	ValidationWarnings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter processes one import file.
type Converter struct {
	inputPath  string
	mainConfig *config.MainConfig
	plan       *config.PlanConfig
	catalog    Catalog
	format     export.Format
	dryRun     bool
	logger     zerolog.Logger
}

// Catalog resolves catalog ids for add_employee and add_wire actions.
type Catalog interface {
	GetEmployee(ctx context.Context, id int64) (catalog.Employee, error)
	GetWire(ctx context.Context, id int64) (catalog.Wire, error)
}

// Option configures a Converter.
type Option func(*Converter)

// WithPlan sets the actions applied after import.
func WithPlan(plan *config.PlanConfig) Option {
	return func(c *Converter) { c.plan = plan }
}

// WithCatalog sets the catalog used by template actions.
func WithCatalog(cat Catalog) Option {
	return func(c *Converter) { c.catalog = cat }
}

// WithFormat overrides the configured export format.
func WithFormat(f export.Format) Option {
	return func(c *Converter) { c.format = f }
}

// WithDryRun skips writing any file.
func WithDryRun(dryRun bool) Option {
	return func(c *Converter) { c.dryRun = dryRun }
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The path to the XLSX or CSV import file.
//   - mainConfig: The main application configuration.
//   - logger: The logger; the input file name is attached to every entry.
//   - opts: Plan, catalog, format and dry-run options.
//
// RETURNS:
//   - A new Converter instance.
func New(inputPath string, mainConfig *config.MainConfig, logger zerolog.Logger, opts ...Option) *Converter {
	c := &Converter{
		inputPath:  inputPath,
		mainConfig: mainConfig,
		logger:     logger.With().Str("component", "converter").Str("file", filepath.Base(inputPath)).Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.format == "" {
		c.format, _ = export.ParseFormat(mainConfig.Export.Format)
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the processing pipeline for the file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (c *Converter) Run(ctx context.Context) (result Result) {
	startTime := time.Now()
	result = Result{FilePath: c.inputPath}
	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	c.logger.Info().Msg("processing file")

	// =========================================================================
	// STEP 1: IMPORT
	// =========================================================================

	data, err := Import(c.inputPath, c.mainConfig.Import)
	if err != nil {
		result.Error = fmt.Errorf("failed to import: %w", err)
		return result
	}

	result.Stats.RowsProcessed = data.TotalRows
	result.Stats.ItemsImported = len(data.Items)
	result.Stats.SkippedRows = data.SkippedRows
	c.logger.Debug().Int("count", len(data.Items)).Int("skipped", data.SkippedRows).Msg("imported line-items")

	// =========================================================================
	// STEP 2: VALIDATE IMPORT
	// =========================================================================

	itemResult := validation.ValidateItems(data.Items, data.RowNumbers)
	findings := itemResult.Errors
	c.countFindings(&result, itemResult)

	if !itemResult.IsValid && !c.mainConfig.ContinueOnError {
		result.ErrorLog = c.writeErrorLog(findings)
		result.Error = fmt.Errorf("validation failed with %d errors", itemResult.ErrorCount)
		return result
	}

	// =========================================================================
	// STEP 3-4: BUILD STATE AND APPLY PLAN
	// =========================================================================

	engine := positions.NewEngine(c.logger)
	transformer := NewTransformer(engine, c.catalog, c.logger)

	state := positions.NewState(data.Items)
	if c.plan != nil {
		var stats ApplyStats
		state, stats, err = transformer.Apply(ctx, state, c.plan)
		result.Stats.ActionsApplied = stats.Applied
		result.Stats.ActionsFailed = stats.Failed
		if err != nil {
			result.State = state
			result.Error = fmt.Errorf("failed to apply plan: %w", err)
			return result
		}
	}
	result.State = state
	result.Stats.PositionsCreated = len(state.Positions)

	// =========================================================================
	// STEP 5: VALIDATE STATE
	// =========================================================================

	stateResult := validation.ValidateState(state, data.IDs())
	findings = append(findings, stateResult.Errors...)
	c.countFindings(&result, stateResult)

	if !stateResult.IsValid {
		result.ErrorLog = c.writeErrorLog(findings)
		result.Error = fmt.Errorf("state validation failed with %d errors", stateResult.ErrorCount)
		return result
	}

	// =========================================================================
	// STEP 6: EXPORT
	// =========================================================================

	if c.dryRun {
		c.logger.Info().Int("count", len(state.Positions)).Msg("dry run, nothing written")
		result.Success = true
		return result
	}

	outputPath, err := c.writeOutput(state)
	if err != nil {
		result.Error = err
		return result
	}
	result.OutputFile = outputPath
	c.logger.Info().Str("output", outputPath).Int("count", len(state.Positions)).Msg("wrote export")

	// =========================================================================
	// STEP 7: ERROR LOG
	// =========================================================================

	result.ErrorLog = c.writeErrorLog(findings)

	result.Success = true
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Import reads an import file, choosing the parser by extension.
func Import(path string, settings config.ImportSettings) (*xlsxparser.ImportData, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return csvparser.Parse(path, settings)
	case ".xlsx", ".xlsm":
		return xlsxparser.Parse(path, settings)
	default:
		return nil, fmt.Errorf("unsupported import file type: %s", filepath.Ext(path))
	}
}

// writeOutput exports the positions to the output directory.
func (c *Converter) writeOutput(state positions.State) (string, error) {
	fileName := utils.GenerateOutputFileName(
		c.mainConfig.Export.FileNameFormat,
		map[string]string{"original": utils.OriginalName(c.inputPath)},
		c.format.Extension(),
	)
	outputPath := filepath.Join(c.mainConfig.OutputDir, fileName)

	opts := export.OptionsFromConfig(c.mainConfig.Export, c.mainConfig.Import)
	if err := export.WriteFile(outputPath, c.format, state.Positions, opts); err != nil {
		return "", fmt.Errorf("failed to export: %w", err)
	}

	return outputPath, nil
}

// countFindings adds validation counts to the result and logs each finding.
func (c *Converter) countFindings(result *Result, vr *validation.ValidationResult) {
	result.Stats.ValidationErrors += vr.ErrorCount
	result.Stats.ValidationWarnings += vr.WarningCount

	for _, ve := range vr.Errors {
		if ve.Severity == validation.SeverityError {
			c.logger.Warn().Str("rule", ve.Rule).Msg(ve.Error())
		} else {
			c.logger.Debug().Str("rule", ve.Rule).Msg(ve.Error())
		}
	}
}

// writeErrorLog writes validation findings to the output directory.
// Failures are logged and otherwise ignored.
func (c *Converter) writeErrorLog(findings []*validation.ValidationError) string {
	if c.dryRun || len(findings) == 0 {
		return ""
	}

	now := time.Now()
	entries := make([]utils.ErrorLogEntry, len(findings))
	for i, ve := range findings {
		entries[i] = utils.ErrorLogEntry{
			Timestamp:      now,
			FileName:       filepath.Base(c.inputPath),
			ErrorType:      ve.Severity + "/" + ve.Rule,
			ErrorMessage:   ve.Message,
			RowNumber:      ve.RowNumber,
			FieldName:      ve.Field,
			FieldValue:     ve.Value,
			ItemID:         ve.ItemID,
			PositionNumber: ve.PositionNumber,
		}
	}

	path, err := utils.WriteErrorLog(entries, c.mainConfig.OutputDir)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to write error log")
		return ""
	}
	return path
}
