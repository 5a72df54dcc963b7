package main

import (
	"context"
	"fmt"
	"time"

	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/services"

	"github.com/spf13/cobra"
)

var (
	flagName      string
	flagPrice     float64
	flagRepeating bool

	flagRate   float64
	flagHours  float64
	flagTips   float64
	flagSalary float64
)

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Record and list expenses",
}

var expenseAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Record an expense",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := evalTime()
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			e := &core.Expense{
				Username:  args[0],
				Name:      flagName,
				Price:     flagPrice,
				Repeating: flagRepeating,
				Timestamp: now,
			}
			if err := services.NewLedgerService(rt.Store, nil, rt.Logger).AddExpense(ctx, e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expense %d recorded\n", e.ID)
			return nil
		})
	},
}

var expenseListCmd = &cobra.Command{
	Use:   "list <username>",
	Short: "List expenses in the rolling month",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := evalTime()
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			month := rt.Clock.MonthWindow(now)
			rows, err := rt.Store.ListExpenses(ctx, args[0], core.ExpenseFilter{Window: &month})
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			table := make([][]string, 0, len(rows))
			for _, e := range rows {
				kind := "one-off"
				if e.Repeating {
					kind = "repeating"
				}
				table = append(table, []string{
					e.Timestamp.In(time.FixedZone("local", int(rt.Clock.Offset().Seconds()))).Format("2006-01-02 15:04"),
					e.Name,
					kind,
					cli.FormatMoney(e.Price),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(cli.Table{
				Title:   "Expenses " + month.String(),
				Headers: []string{"When", "Name", "Kind", "Price"},
				Rows:    table,
			}))
			return nil
		})
	},
}

var earningCmd = &cobra.Command{
	Use:   "earning",
	Short: "Record earnings",
}

var earningAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Record an hourly-wage day or a salaried pay event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := evalTime()
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			e := &core.Earning{
				Username:   args[0],
				HourlyRate: flagRate,
				Hours:      flagHours,
				CashTips:   flagTips,
				Salary:     flagSalary,
				Timestamp:  now,
			}
			if err := services.NewLedgerService(rt.Store, nil, rt.Logger).AddEarning(ctx, e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "earning %d recorded\n", e.ID)
			return nil
		})
	},
}

func init() {
	expenseAddCmd.Flags().StringVar(&flagName, "name", "", "What the money went on")
	expenseAddCmd.Flags().Float64Var(&flagPrice, "price", 0, "Amount spent")
	expenseAddCmd.Flags().BoolVar(&flagRepeating, "repeating", false, "Monthly recurring expense")
	_ = expenseAddCmd.MarkFlagRequired("name")
	_ = expenseAddCmd.MarkFlagRequired("price")
	expenseCmd.AddCommand(expenseAddCmd, expenseListCmd)

	earningAddCmd.Flags().Float64Var(&flagRate, "rate", 0, "Hourly rate")
	earningAddCmd.Flags().Float64Var(&flagHours, "hours", 0, "Hours worked")
	earningAddCmd.Flags().Float64Var(&flagTips, "tips", 0, "Cash tips")
	earningAddCmd.Flags().Float64Var(&flagSalary, "salary", 0, "Annual salary")
	earningCmd.AddCommand(earningAddCmd)

	rootCmd.AddCommand(expenseCmd, earningCmd)
}
