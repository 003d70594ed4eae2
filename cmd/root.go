// =============================================================================
// Position Grouper - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (grouper)
//   ├── processCmd (grouper process)
//   ├── groupsCmd  (grouper groups)
//   ├── catalogCmd (grouper catalog ...)
//   └── versionCmd (grouper version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the main configuration before any subcommand runs
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/position-grouper/internal/config"
	"github.com/ginjaninja78/position-grouper/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// mainConfig and logger are set by the root command before any subcommand
// runs.
var (
	mainConfig *config.MainConfig
	logger     zerolog.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "grouper",
	Short: "Position Grouper - Group accounting line-items into positions",
	Long: `Position Grouper reads line-items exported from an accounting system
(XLSX or CSV), groups them by name and kind, and assembles them into numbered
positions. A plan file records the operator's actions: which groups become
positions, what moves where, and which quantities and prices change.

Key Features:
  - Strict and base-name grouping of line-items
  - Quantity and price edits with 80/20 revenue splits
  - Employee and wire catalogs for labour and material items
  - CSV, XLSX and XML export
  - Concurrent processing of an input directory

Example Usage:
  grouper groups --file march.xlsx           # Show the grouped pool
  grouper process --plan plan.yaml           # Apply a plan to every import
  grouper catalog employees                  # List catalog employees`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// --config flag: a missing file means defaults plus environment.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	// --verbose flag: forces debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// initConfig loads the main configuration and builds the logger.
func initConfig() error {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	mainConfig = cfg
	logger = logging.New(logging.Config{Level: level, Pretty: cfg.LogPretty})
	logging.SetGlobalLogger(logger)

	logger.Debug().Str("config", cfgFile).Msg("configuration loaded")
	return nil
}
