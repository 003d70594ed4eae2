// =============================================================================
// Position Grouper - Groups Command
// =============================================================================
//
// This file defines the 'groups' command, which prints the grouped view of
// an import: the pool sectioned by salary/goods category and work type, and,
// when a plan is given, each position's items grouped strictly.
//
// COMMAND USAGE:
//   grouper groups --file march.xlsx [--mode base|strict] [--search text]
//   grouper groups --file march.xlsx --plan plan.yaml
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/position-grouper/internal/catalog"
	"github.com/ginjaninja78/position-grouper/internal/config"
	"github.com/ginjaninja78/position-grouper/internal/converter"
	"github.com/ginjaninja78/position-grouper/internal/grouping"
	"github.com/ginjaninja78/position-grouper/internal/positions"
	"github.com/ginjaninja78/position-grouper/internal/types"
)

var (
	groupsFile   string
	groupsMode   string
	groupsSearch string
	groupsPlan   string
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Show the grouped pool and positions of an import",
	Long: `The groups command imports a file and prints its line-items grouped for
display. The pool is grouped by full name (strict) or by base name (base);
the default comes from grouping_mode in the configuration.

With --plan the plan is applied first and every position is printed with its
totals. --search filters the pool by id, key, name, accounts and analytics.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runGroups(cmd)
	},
}

func init() {
	rootCmd.AddCommand(groupsCmd)

	groupsCmd.Flags().StringVar(&groupsFile, "file", "", "Path to the import file")
	groupsCmd.Flags().StringVar(&groupsMode, "mode", "", "Pool grouping mode: strict or base")
	groupsCmd.Flags().StringVar(&groupsSearch, "search", "", "Only show pool items containing this text")
	groupsCmd.Flags().StringVar(&groupsPlan, "plan", "", "Apply this plan before printing")
	groupsCmd.MarkFlagRequired("file")
}

// runGroups imports the file, optionally applies a plan and prints the views.
func runGroups(cmd *cobra.Command) error {
	modeName := groupsMode
	if modeName == "" {
		modeName = mainConfig.GroupingMode
	}
	mode, err := grouping.ParseMode(modeName)
	if err != nil {
		return err
	}

	data, err := converter.Import(groupsFile, mainConfig.Import)
	if err != nil {
		return fmt.Errorf("failed to import: %w", err)
	}

	state := positions.NewState(data.Items)

	if groupsPlan != "" {
		plan, err := config.LoadPlan(groupsPlan)
		if err != nil {
			return err
		}

		var cat converter.Catalog
		if plan.NeedsCatalog() {
			store, err := catalog.Open(mainConfig.Catalog.DBPath, mainConfig.Catalog.CacheTTL, logger)
			if err != nil {
				return err
			}
			defer store.Close()
			cat = store
		}

		transformer := converter.NewTransformer(positions.NewEngine(logger), cat, logger)
		state, _, err = transformer.Apply(cmd.Context(), state, plan)
		if err != nil {
			return err
		}
	}

	sorter := grouping.NewSorter(mainConfig.Locale)
	out := cmd.OutOrStdout()

	printPool(out, sorter, grouping.Search(state.Pool, groupsSearch), mode)

	for _, p := range state.Positions {
		fmt.Fprintf(out, "\n=== Position %d: %s ===\n", p.Number, p.Service)
		fmt.Fprintf(out, "Price: %s  Income: %s  Expense: %s\n",
			money(p.TotalPrice), money(p.TotalIncome), money(p.TotalExpense))
		printSections(out, sorter.PositionView(p.Items), 0)
	}

	return nil
}

// printPool prints the pool header and its sectioned view. The header's
// group count and the view share one grouping pass.
func printPool(out io.Writer, sorter grouping.Sorter, pool []types.LineItem, mode grouping.Mode) {
	var memo grouping.Memo
	groups := memo.Group(pool, mode)

	fmt.Fprintf(out, "=== Pool: %d item(s) in %d group(s), %s grouping ===\n", len(pool), len(groups), mode)
	printSections(out, sorter.WithMemo(&memo).PoolView(pool, mode), 0)
}

// printSections prints nested sections with two-space indentation per level.
func printSections(out io.Writer, sections []grouping.Section, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, s := range sections {
		label := s.Label
		if label == "" {
			label = "(none)"
		}
		fmt.Fprintf(out, "%s%s (%d)\n", indent, label, s.Count())

		for _, g := range s.Groups {
			fmt.Fprintf(out, "%s  %-40s %-8s x%-4d %12s\n",
				indent, g.PositionName, kindLabel(g.Kind), g.Quantity, money(g.Revenue))
		}
		printSections(out, s.Sections, depth+1)
	}
}

func kindLabel(k types.Kind) string {
	if k.IsExpense() {
		return "расход"
	}
	return "доход"
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
