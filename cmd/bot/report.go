package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stoneyard/shipment-bot/internal/bot"
	"github.com/stoneyard/shipment-bot/internal/models"
	"github.com/stoneyard/shipment-bot/internal/report"
)

func newReportCommand() *cobra.Command {
	var (
		date string
		days int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a shipment report from the configured store",
		Long: "Prints the daily summary for --date (yesterday by default), or the\n" +
			"shipments of the last --days days.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" && days > 0 {
				return errors.New("--date and --days are mutually exclusive")
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			loc := a.cfg.Location()
			reporter := report.NewReporter(a.store, loc, a.logger)
			now := time.Now()
			out := cmd.OutOrStdout()

			if days > 0 {
				res := reporter.Range(cmd.Context(), reporter.DaysAgo(now, days), now)
				fmt.Fprintln(out, bot.FormatRange(res))
				if res.Unavailable {
					return errors.New("shipment store unavailable")
				}
				return nil
			}

			day := reporter.DaysAgo(now, 1)
			if date != "" {
				day, err = time.ParseInLocation(models.DateLayout, date, loc)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", date, err)
				}
			}
			sum := reporter.Daily(cmd.Context(), day)
			fmt.Fprintln(out, bot.FormatSummary(sum))
			if sum.Unavailable {
				return errors.New("shipment store unavailable")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to summarize, YYYY-MM-DD")
	cmd.Flags().IntVar(&days, "days", 0, "list shipments of the last N days instead")
	return cmd
}
