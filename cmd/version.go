// =============================================================================
// Position Grouper - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   grouper version
//
// OUTPUT:
//   Position Grouper 1.2.0 (built 2024-03-15, go1.24.0)
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version and BuildDate are overridden with -ldflags "-X ...cmd.Version=...".
var (
	Version   = "dev"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the grouper version",
	Args:  cobra.NoArgs,

	// The root pre-run loads configuration; printing a version must not
	// depend on a valid config file.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },

	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Position Grouper %s (built %s, %s)\n",
			resolvedVersion(), BuildDate, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// resolvedVersion falls back to the module version recorded by
// `go install module@version` when no version was linked in.
func resolvedVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
