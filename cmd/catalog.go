// =============================================================================
// Position Grouper - Catalog Command
// =============================================================================
//
// This file defines the 'catalog' command group, which maintains the
// employee and wire catalogs used by add_employee and add_wire plan actions.
//
// COMMAND USAGE:
//   grouper catalog employees
//   grouper catalog wires
//   grouper catalog add-employee --name "Иванов" --rate 850
//   grouper catalog add-wire --brand ВВГ --cross-section 2.5 --price 95
//   grouper catalog set-rate --id 3 --rate 900
//   grouper catalog set-price --id 2 --price 110
//   grouper catalog deactivate --employee 3
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/position-grouper/internal/catalog"
)

var (
	catalogID          int64
	catalogName        string
	catalogRate        float64
	catalogDescription string
	catalogBrand       string
	catalogSection     float64
	catalogInsulation  string
	catalogPrice       float64
	deactivateEmployee int64
	deactivateWire     int64
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the employee and wire catalogs",
	Long: `The catalog commands list and edit the reference catalogs. Employees carry
an hourly rate and wires a price per meter; plan actions add_employee and
add_wire turn them into new line-items.

The catalog is a SQLite database at catalog.db_path; it is created and
migrated on first use.`,
}

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "List active employees",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, store *catalog.Store) error {
			employees, err := store.ListEmployees(ctx)
			if err != nil {
				return err
			}
			printEmployees(cmd.OutOrStdout(), employees)
			return nil
		})
	},
}

var wiresCmd = &cobra.Command{
	Use:   "wires",
	Short: "List active wires",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, store *catalog.Store) error {
			wires, err := store.ListWires(ctx)
			if err != nil {
				return err
			}
			printWires(cmd.OutOrStdout(), wires)
			return nil
		})
	},
}

var addEmployeeCmd = &cobra.Command{
	Use:   "add-employee",
	Short: "Add an employee with an hourly rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, store *catalog.Store) error {
			e, err := store.AddEmployee(ctx, catalogName, catalogRate, catalogDescription)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added employee %d: %s (%s/h)\n", e.ID, e.Name, money(e.HourlyRate))
			return nil
		})
	},
}

var addWireCmd = &cobra.Command{
	Use:   "add-wire",
	Short: "Add a wire with a price per meter",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, store *catalog.Store) error {
			w, err := store.AddWire(ctx, catalog.Wire{
				Brand:          catalogBrand,
				CrossSection:   catalogSection,
				InsulationType: catalogInsulation,
				PricePerMeter:  catalogPrice,
				Description:    catalogDescription,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added wire %d: %s (%s/m)\n", w.ID, w.DisplayName(), money(w.PricePerMeter))
			return nil
		})
	},
}

var setRateCmd = &cobra.Command{
	Use:   "set-rate",
	Short: "Change an employee's hourly rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, store *catalog.Store) error {
			return store.UpdateEmployeeRate(ctx, catalogID, catalogRate)
		})
	},
}

var setPriceCmd = &cobra.Command{
	Use:   "set-price",
	Short: "Change a wire's price per meter",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, store *catalog.Store) error {
			return store.UpdateWirePrice(ctx, catalogID, catalogPrice)
		})
	},
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Hide an employee or wire from listings",
	Long: `Deactivated entries are hidden from listings, and plan actions that
reference them fail with "catalog entry not found".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (deactivateEmployee == 0) == (deactivateWire == 0) {
			return fmt.Errorf("exactly one of --employee or --wire is required")
		}
		return withCatalog(cmd, func(ctx context.Context, store *catalog.Store) error {
			if deactivateEmployee != 0 {
				return store.SetEmployeeActive(ctx, deactivateEmployee, false)
			}
			return store.SetWireActive(ctx, deactivateWire, false)
		})
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(employeesCmd, wiresCmd, addEmployeeCmd, addWireCmd,
		setRateCmd, setPriceCmd, deactivateCmd)

	addEmployeeCmd.Flags().StringVar(&catalogName, "name", "", "Employee name")
	addEmployeeCmd.Flags().Float64Var(&catalogRate, "rate", 0, "Hourly rate")
	addEmployeeCmd.Flags().StringVar(&catalogDescription, "description", "", "Free-text description")
	addEmployeeCmd.MarkFlagRequired("name")
	addEmployeeCmd.MarkFlagRequired("rate")

	addWireCmd.Flags().StringVar(&catalogBrand, "brand", "", "Wire brand, e.g. ВВГ")
	addWireCmd.Flags().Float64Var(&catalogSection, "cross-section", 0, "Cross-section in mm²")
	addWireCmd.Flags().StringVar(&catalogInsulation, "insulation", "", "Insulation type")
	addWireCmd.Flags().Float64Var(&catalogPrice, "price", 0, "Price per meter")
	addWireCmd.Flags().StringVar(&catalogDescription, "description", "", "Free-text description")
	addWireCmd.MarkFlagRequired("brand")
	addWireCmd.MarkFlagRequired("price")

	setRateCmd.Flags().Int64Var(&catalogID, "id", 0, "Employee id")
	setRateCmd.Flags().Float64Var(&catalogRate, "rate", 0, "New hourly rate")
	setRateCmd.MarkFlagRequired("id")
	setRateCmd.MarkFlagRequired("rate")

	setPriceCmd.Flags().Int64Var(&catalogID, "id", 0, "Wire id")
	setPriceCmd.Flags().Float64Var(&catalogPrice, "price", 0, "New price per meter")
	setPriceCmd.MarkFlagRequired("id")
	setPriceCmd.MarkFlagRequired("price")

	deactivateCmd.Flags().Int64Var(&deactivateEmployee, "employee", 0, "Employee id")
	deactivateCmd.Flags().Int64Var(&deactivateWire, "wire", 0, "Wire id")
}

// withCatalog opens the configured catalog, runs fn and closes it.
func withCatalog(cmd *cobra.Command, fn func(ctx context.Context, store *catalog.Store) error) error {
	store, err := catalog.Open(mainConfig.Catalog.DBPath, mainConfig.Catalog.CacheTTL, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(cmd.Context(), store)
}

func printEmployees(out io.Writer, employees []catalog.Employee) {
	if len(employees) == 0 {
		fmt.Fprintln(out, "No employees in the catalog.")
		return
	}
	fmt.Fprintf(out, "%-6s %-30s %12s  %s\n", "ID", "Name", "Rate/h", "Description")
	for _, e := range employees {
		fmt.Fprintf(out, "%-6d %-30s %12s  %s\n", e.ID, e.Name, money(e.HourlyRate), e.Description)
	}
}

func printWires(out io.Writer, wires []catalog.Wire) {
	if len(wires) == 0 {
		fmt.Fprintln(out, "No wires in the catalog.")
		return
	}
	fmt.Fprintf(out, "%-6s %-30s %12s  %s\n", "ID", "Wire", "Price/m", "Description")
	for _, w := range wires {
		fmt.Fprintf(out, "%-6d %-30s %12s  %s\n", w.ID, w.DisplayName(), money(w.PricePerMeter), w.Description)
	}
}
