// =============================================================================
// Position Grouper - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Position Grouper CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   grouper process       - Apply a plan to every import and export positions
//   grouper groups        - Show the grouped pool of an import
//   grouper catalog       - Manage the employee and wire catalogs
//   grouper version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/                 : CLI command definitions (Cobra)
//   - internal/types       : Line-items, groups and positions
//   - internal/grouping    : Grouping keys, aggregation and display order
//   - internal/positions   : The position engine (state transitions)
//   - internal/xlsxparser  : XLSX import
//   - internal/csvparser   : CSV import
//   - internal/export      : CSV, XLSX and XML export
//   - internal/catalog     : SQLite employee and wire catalogs
//   - internal/converter   : Per-file pipeline and plan application
//   - pkg/utils            : File discovery and log writing
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/position-grouper/cmd"
)

func main() {
	cmd.Execute()
}
