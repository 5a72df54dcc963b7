package main

import (
	"context"
	"fmt"

	"budget/internal/cli"
	"budget/internal/core"

	"github.com/spf13/cobra"
)

var flagHistoryDays int

var overviewCmd = &cobra.Command{
	Use:   "overview <username>",
	Short: "Show the dashboard figures without storing a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := evalTime()
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			ov, err := rt.Engine.ComputeOverview(ctx, args[0], now)
			if err != nil {
				return err
			}
			avg, err := rt.Engine.AverageDailyExpenses(ctx, args[0], now)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), struct {
					core.Overview
					AverageDailyExpenses float64 `json:"average_daily_expenses"`
				}{ov, avg})
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderOverview(args[0], rt.Clock.LocalDay(now), ov, avg))
			return nil
		})
	},
}

var limitCmd = &cobra.Command{
	Use:   "limit <username>",
	Short: "Explain how today's daily limit is built",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := evalTime()
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			dl, err := rt.Engine.DailyLimitBreakdown(ctx, args[0], now)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), dl)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(cli.Table{
				Title:   "Daily limit · " + args[0] + " · " + rt.Clock.LocalDay(now),
				Headers: []string{"Component", "Amount"},
				Rows: [][]string{
					{"Discretionary (month)", cli.FormatMoney(dl.DiscretionaryMonthly)},
					{"Base (/30, floored)", cli.FormatMoney(dl.Base)},
					{"Carryover", cli.FormatMoney(dl.Carryover)},
					{"Manual adjustment", cli.FormatMoney(dl.Adjustment)},
					{"---"},
					{"Daily limit", cli.FormatMoney(dl.Total)},
				},
			}))
			return nil
		})
	},
}

var forecastCmd = &cobra.Command{
	Use:   "forecast <username>",
	Short: "Project expense, earnings and savings six periods ahead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			fc, err := rt.Engine.GenerateForecasts(ctx, args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), fc)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderForecast(args[0], fc))
			return nil
		})
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <username>",
	Short: "Compute and store today's snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := evalTime()
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			res, err := rt.Engine.ReconcileAndPersist(ctx, args[0], now)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"outcome":  res.Outcome,
					"snapshot": res.Snapshot,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s (snapshot %d)\n",
				args[0], res.Snapshot.LocalDay, res.Outcome, res.Snapshot.ID)
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <username>",
	Short: "List stored daily snapshots, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			snaps, err := rt.Store.ListSnapshots(ctx, args[0], flagHistoryDays)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), snaps)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderSnapshots(snaps))
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryDays, "days", "n", 30, "Number of days to show")
	rootCmd.AddCommand(overviewCmd, limitCmd, forecastCmd, reconcileCmd, historyCmd)
}
