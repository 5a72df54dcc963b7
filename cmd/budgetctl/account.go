package main

import (
	"context"
	"fmt"
	"strconv"

	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/services"

	"github.com/spf13/cobra"
)

var (
	flagEmail string
	flagGoal  float64
	flagAdj   float64
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Register an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			a := &core.Account{
				Username:           args[0],
				Email:              flagEmail,
				MonthlySavingsGoal: flagGoal,
				SpendingLimit:      flagAdj,
			}
			if err := services.NewLedgerService(rt.Store, nil, rt.Logger).CreateAccount(ctx, a); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %q created (id %d)\n", a.Username, a.ID)
			return nil
		})
	},
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			accounts, err := rt.Store.ListAccounts(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(accounts))
			for _, a := range accounts {
				rows = append(rows, []string{
					a.Username,
					cli.FormatMoney(a.MonthlySavingsGoal),
					cli.FormatMoney(a.SpendingLimit),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(cli.Table{
				Headers: []string{"Username", "Savings goal", "Limit adj."},
				Rows:    rows,
			}))
			return nil
		})
	},
}

var accountGoalCmd = &cobra.Command{
	Use:   "set-goal <username> <amount>",
	Short: "Set the monthly savings goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			return services.NewLedgerService(rt.Store, nil, rt.Logger).SetSavingsGoal(ctx, args[0], amount)
		})
	},
}

var accountAdjustCmd = &cobra.Command{
	Use:   "set-adjustment <username> <amount>",
	Short: "Set the manual daily limit adjustment (may be negative)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			return services.NewLedgerService(rt.Store, nil, rt.Logger).SetSpendingLimit(ctx, args[0], amount)
		})
	},
}

func init() {
	accountCreateCmd.Flags().StringVar(&flagEmail, "email", "", "Contact email")
	accountCreateCmd.Flags().Float64Var(&flagGoal, "goal", 0, "Monthly savings goal")
	accountCreateCmd.Flags().Float64Var(&flagAdj, "adjustment", 0, "Manual daily limit adjustment")

	accountCmd.AddCommand(accountCreateCmd, accountListCmd, accountGoalCmd, accountAdjustCmd)
	rootCmd.AddCommand(accountCmd)
}
