package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/finance"
	"budget/internal/services"

	"github.com/spf13/cobra"
)

var runJobCmd = &cobra.Command{
	Use:   "run-job",
	Short: "Run the daily overview job once for every account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		now, err := evalTime()
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			job := services.NewDailyOverviewJob(rt.Store, rt.Engine, nil, rt.Logger)
			report, err := job.Run(ctx, now)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}

			outcomes := make([]string, 0, len(report.Outcomes))
			for o := range report.Outcomes {
				outcomes = append(outcomes, string(o))
			}
			sort.Strings(outcomes)
			rows := [][]string{
				{"Accounts", fmt.Sprint(report.Accounts)},
				{"Succeeded", fmt.Sprint(report.Succeeded)},
				{"Failed", fmt.Sprint(len(report.Failed))},
				{"---"},
			}
			for _, o := range outcomes {
				rows = append(rows, []string{o, fmt.Sprint(report.Outcomes[finance.Outcome(o)])})
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(cli.Table{
				Title:   "Daily overview job · " + rt.Clock.LocalDay(now),
				Headers: []string{"", "Count"},
				Rows:    rows,
			}))
			if len(report.Failed) > 0 {
				return fmt.Errorf("failed accounts: %v", report.Failed)
			}
			return nil
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print overview updates as they are published",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *cli.Runtime) error {
			if rt.Broker == nil {
				return errors.New("AMQP_URL is not set or the broker is unreachable")
			}
			err := rt.Broker.ConsumeOverviewUpdates(ctx, func(_ context.Context, m *amqp.OverviewUpdatedMessage) error {
				if flagJSON {
					return printJSON(cmd.OutOrStdout(), m)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-16s limit %10s  spent %10s  unused %10s\n",
					m.LocalDay, m.Username,
					cli.FormatMoney(m.Overview.DailyLimit),
					cli.FormatMoney(m.Overview.TotalMoneySpentToday),
					cli.FormatMoney(m.Overview.UnusedDailyLimit))
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(runJobCmd, watchCmd)
}
