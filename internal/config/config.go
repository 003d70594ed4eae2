// =============================================================================
// Position Grouper - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and plan files.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings
//   2. Plan Files (plans/*.yaml): Operator actions applied to an import
//   3. Environment (.env / GROUPER_*): Overrides for deployment settings
//
// PRECEDENCE:
//   defaults < config.yaml < .env < process environment
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for .xlsx and .csv imports when no file is given.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives exports and summary logs.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogPretty switches from JSON lines to console output.
	LogPretty bool `yaml:"log_pretty"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files processed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError exports imports that failed line-item validation.
	ContinueOnError bool `yaml:"continue_on_error"`

	// GroupingMode is "strict" or "base" for pool display.
	// Default: "base"
	GroupingMode string `yaml:"grouping_mode"`

	// Locale drives name collation in listings.
	// Default: "ru"
	Locale string `yaml:"locale"`

	// =========================================================================
	// SUB-SECTIONS
	// =========================================================================

	Import  ImportSettings  `yaml:"import"`
	Export  ExportSettings  `yaml:"export"`
	Catalog CatalogSettings `yaml:"catalog"`
}

// =============================================================================
// IMPORT SETTINGS
// =============================================================================

// ImportSettings describes the layout of import files.
type ImportSettings struct {
	// Sheet is the worksheet to read. Empty means the first sheet.
	Sheet string `yaml:"sheet"`

	// HeaderRows is the number of rows skipped before data.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// Delimiter separates fields in CSV imports.
	// Default: ";"
	Delimiter string `yaml:"delimiter"`

	// IncomeToken and ExpenseToken are the two recognized values of the
	// income/expense column. Anything else imports as income.
	// Defaults: "Доходы" / "Расходы"
	IncomeToken  string `yaml:"income_token"`
	ExpenseToken string `yaml:"expense_token"`

	// KeepRowsWithoutID imports rows with an empty id cell under a
	// generated id instead of skipping them.
	KeepRowsWithoutID bool `yaml:"keep_rows_without_id"`

	// Columns maps each field to a spreadsheet column letter.
	//
	// CUSTOMIZATION: Override single fields; the rest keep the A..X layout.
	Columns ColumnMapping `yaml:"columns"`
}

// ColumnMapping maps line-item fields to column letters.
type ColumnMapping struct {
	ID            string `yaml:"id"`
	UniqueKey     string `yaml:"unique_key"`
	PositionName  string `yaml:"position_name"`
	Year          string `yaml:"year"`
	Month         string `yaml:"month"`
	Quarter       string `yaml:"quarter"`
	Date          string `yaml:"date"`
	Analytics1    string `yaml:"analytics1"`
	Analytics2    string `yaml:"analytics2"`
	Analytics3    string `yaml:"analytics3"`
	Analytics4    string `yaml:"analytics4"`
	Analytics5    string `yaml:"analytics5"`
	Analytics6    string `yaml:"analytics6"`
	Analytics7    string `yaml:"analytics7"`
	Analytics8    string `yaml:"analytics8"`
	DebitAccount  string `yaml:"debit_account"`
	CreditAccount string `yaml:"credit_account"`
	Revenue       string `yaml:"revenue"`
	Quantity      string `yaml:"quantity"`
	SumWithoutVAT string `yaml:"sum_without_vat"`
	VATAmount     string `yaml:"vat_amount"`
	WorkType      string `yaml:"work_type"`
	IncomeExpense string `yaml:"income_expense"`
	SalaryGoods   string `yaml:"salary_goods"`
}

// DefaultColumnMapping returns the A..X layout of the accounting export.
func DefaultColumnMapping() ColumnMapping {
	return ColumnMapping{
		ID: "A", UniqueKey: "B", PositionName: "C", Year: "D", Month: "E",
		Quarter: "F", Date: "G",
		Analytics1: "H", Analytics2: "I", Analytics3: "J", Analytics4: "K",
		Analytics5: "L", Analytics6: "M", Analytics7: "N", Analytics8: "O",
		DebitAccount: "P", CreditAccount: "Q", Revenue: "R", Quantity: "S",
		SumWithoutVAT: "T", VATAmount: "U", WorkType: "V", IncomeExpense: "W",
		SalaryGoods: "X",
	}
}

// =============================================================================
// EXPORT SETTINGS
// =============================================================================

// ExportSettings controls export output.
type ExportSettings struct {
	// Format is "csv", "xlsx" or "xml".
	// Default: "csv"
	Format string `yaml:"format"`

	// FileNameFormat builds output names.
	// Placeholders:
	//   {date}      - Current date (YYYY-MM-DD)
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {uuid}      - A random UUID
	//   {original}  - Import file name without extension
	// Default: "grouped_positions_{date}"
	FileNameFormat string `yaml:"file_name_format"`

	// Delimiter separates CSV fields.
	// Default: ";"
	Delimiter string `yaml:"delimiter"`

	// DecimalSeparator is written in CSV numbers.
	// Default: ","
	DecimalSeparator string `yaml:"decimal_separator"`

	// OmitBOM drops the UTF-8 byte order mark from CSV output.
	OmitBOM bool `yaml:"omit_bom"`
}

// =============================================================================
// CATALOG SETTINGS
// =============================================================================

// CatalogSettings locates the employee and wire reference catalogs.
type CatalogSettings struct {
	// DBPath is the SQLite database file.
	// Default: "./data/catalog.db"
	DBPath string `yaml:"db_path"`

	// CacheTTL is how long catalog listings are cached.
	// Default: 15m
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A missing file
//     is not an error; defaults and environment overrides still apply.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be parsed or the result is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	config := MainConfig{}
	config.Import.Columns = DefaultColumnMapping()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// .env is optional.
	_ = godotenv.Load()
	applyEnvOverrides(&config)

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// DefaultMainConfig returns a configuration with every default applied and
// no file or environment input.
func DefaultMainConfig() *MainConfig {
	config := MainConfig{}
	applyMainConfigDefaults(&config)
	return &config
}

// applyEnvOverrides copies GROUPER_* variables over file settings.
func applyEnvOverrides(config *MainConfig) {
	overrides := map[string]*string{
		"GROUPER_INPUT_DIR":     &config.InputDir,
		"GROUPER_OUTPUT_DIR":    &config.OutputDir,
		"GROUPER_LOG_LEVEL":     &config.LogLevel,
		"GROUPER_LOCALE":        &config.Locale,
		"GROUPER_CATALOG_DB":    &config.Catalog.DBPath,
		"GROUPER_EXPORT_FORMAT": &config.Export.Format,
	}

	for key, target := range overrides {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			*target = value
		}
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.GroupingMode == "" {
		config.GroupingMode = "base"
	}
	if config.Locale == "" {
		config.Locale = "ru"
	}

	if config.Import.HeaderRows == 0 {
		config.Import.HeaderRows = 1
	}
	if config.Import.Delimiter == "" {
		config.Import.Delimiter = ";"
	}
	if config.Import.IncomeToken == "" {
		config.Import.IncomeToken = "Доходы"
	}
	if config.Import.ExpenseToken == "" {
		config.Import.ExpenseToken = "Расходы"
	}
	fillColumns(&config.Import.Columns)

	if config.Export.Format == "" {
		config.Export.Format = "csv"
	}
	if config.Export.FileNameFormat == "" {
		config.Export.FileNameFormat = "grouped_positions_{date}"
	}
	if config.Export.Delimiter == "" {
		config.Export.Delimiter = ";"
	}
	if config.Export.DecimalSeparator == "" {
		config.Export.DecimalSeparator = ","
	}

	if config.Catalog.DBPath == "" {
		config.Catalog.DBPath = "./data/catalog.db"
	}
	if config.Catalog.CacheTTL == 0 {
		config.Catalog.CacheTTL = 15 * time.Minute
	}
}

// fillColumns restores default letters for fields blanked in YAML.
func fillColumns(c *ColumnMapping) {
	type column struct {
		got *string
		def string
	}

	d := DefaultColumnMapping()
	pairs := []column{
		{&c.ID, d.ID}, {&c.UniqueKey, d.UniqueKey}, {&c.PositionName, d.PositionName},
		{&c.Year, d.Year}, {&c.Month, d.Month}, {&c.Quarter, d.Quarter}, {&c.Date, d.Date},
		{&c.Analytics1, d.Analytics1}, {&c.Analytics2, d.Analytics2}, {&c.Analytics3, d.Analytics3},
		{&c.Analytics4, d.Analytics4}, {&c.Analytics5, d.Analytics5}, {&c.Analytics6, d.Analytics6},
		{&c.Analytics7, d.Analytics7}, {&c.Analytics8, d.Analytics8},
		{&c.DebitAccount, d.DebitAccount}, {&c.CreditAccount, d.CreditAccount},
		{&c.Revenue, d.Revenue}, {&c.Quantity, d.Quantity},
		{&c.SumWithoutVAT, d.SumWithoutVAT}, {&c.VATAmount, d.VATAmount},
		{&c.WorkType, d.WorkType}, {&c.IncomeExpense, d.IncomeExpense}, {&c.SalaryGoods, d.SalaryGoods},
	}
	for _, p := range pairs {
		if strings.TrimSpace(*p.got) == "" {
			*p.got = p.def
		}
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.Export.Format) {
	case "csv", "xlsx", "xml":
		config.Export.Format = strings.ToLower(config.Export.Format)
	default:
		return fmt.Errorf("unsupported export format: %s", config.Export.Format)
	}

	switch strings.ToLower(config.GroupingMode) {
	case "strict", "base":
	default:
		return fmt.Errorf("unsupported grouping mode: %s", config.GroupingMode)
	}

	if utf8.RuneCountInString(config.Import.Delimiter) != 1 {
		return fmt.Errorf("import delimiter must be a single character: %q", config.Import.Delimiter)
	}
	if utf8.RuneCountInString(config.Export.Delimiter) != 1 {
		return fmt.Errorf("export delimiter must be a single character: %q", config.Export.Delimiter)
	}

	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}
	if config.Import.HeaderRows < 0 {
		return fmt.Errorf("header_rows must not be negative, got %d", config.Import.HeaderRows)
	}

	return nil
}
