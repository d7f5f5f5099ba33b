package cli

import (
	"github.com/spf13/cobra"

	"tradedesk/internal/models"
	"tradedesk/internal/trading"
)

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show today's performance statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			trades, err := app.Ledger.Today(cmd.Context())
			if err != nil {
				return err
			}
			stats := trading.ComputeStats(trades, app.Config.Engine.GoalAmount)
			printStats(cmd, stats)
			return nil
		},
	}
}

func printStats(cmd *cobra.Command, s models.PerformanceStats) {
	cmd.Printf("Closed trades: %d  (%d W / %d L / %d BE)\n",
		s.TotalTrades, s.WinningTrades, s.LosingTrades, s.BreakevenTrades)
	cmd.Printf("Win rate:      %.1f%%\n", s.WinRate)
	cmd.Printf("Total P&L:     %s\n", FormatPnL(s.TotalPnL))
	cmd.Printf("Avg win/loss:  %s / %s\n", FormatCurrency(s.AverageWin), FormatCurrency(s.AverageLoss))
	cmd.Printf("Largest:       %s / %s\n", FormatPnL(s.LargestWin), FormatPnL(s.LargestLoss))
	cmd.Printf("Profit factor: %s\n", FormatProfitFactor(s.ProfitFactor))
	cmd.Printf("Streak:        %s\n", FormatStreak(s.CurrentStreak, s.StreakType))
	cmd.Printf("Goal progress: %s\n", FormatPercent(s.ProgressToGoal))
}

func newCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Evaluate the discipline rules for a new trade right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			session, err := app.Sessions.Current(ctx)
			if err != nil {
				return err
			}
			todays, err := app.Ledger.Today(ctx)
			if err != nil {
				return err
			}
			if todays == nil {
				todays = []models.Trade{}
			}
			stats := trading.ComputeStats(todays, app.Config.Engine.GoalAmount)

			verdict, err := app.Engine.Evaluate(session, todays, stats, app.Clock.Now())
			if err != nil {
				return err
			}

			cmd.Println(FormatVerdict(verdict.Allowed))
			for _, r := range verdict.Results {
				cmd.Println(FormatRuleResult(r))
			}
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the daily briefing",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.Briefer.Build(cmd.Context())
			if err != nil {
				return err
			}

			cmd.Printf("Briefing @ %s\n\n", b.GeneratedAt.Format("2006-01-02 15:04 MST"))
			printSession(cmd, b.Session)

			cmd.Println()
			if b.CurrentZone != nil {
				cmd.Printf("Current zone: %s (%s)\n", b.CurrentZone.Name, b.CurrentZone.Priority)
			} else {
				cmd.Println("Current zone: none")
			}
			if b.NextPrimary != nil {
				cmd.Printf("Next primary: %s at %s\n", b.NextPrimary.Name, b.NextPrimaryAt.Format("Mon 15:04"))
			}

			cmd.Println()
			printStats(cmd, b.Stats)

			cmd.Println()
			cmd.Println(FormatVerdict(b.Verdict.Allowed))
			for _, r := range b.Verdict.Results {
				cmd.Println(FormatRuleResult(r))
			}
			return nil
		},
	}
}

func newZonesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "Show the kill zone schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := app.Clock.Now()
			current := app.Classifier.Classify(now)

			for _, z := range app.Classifier.Zones() {
				marker := " "
				if current != nil && current.Name == z.Name {
					marker = ">"
				}
				wrap := ""
				if z.Wraps() {
					wrap = " (overnight)"
				}
				cmd.Printf("%s %-14s %02d:%02d-%02d:%02d  %s%s\n",
					marker, z.Name, z.StartHour, z.StartMinute, z.EndHour, z.EndMinute, z.Priority, wrap)
			}

			if next, at, ok := app.Classifier.NextPrimary(now); ok {
				cmd.Printf("\nNext primary: %s at %s\n", next.Name, at.Format("Mon 15:04"))
			}
			return nil
		},
	}
}
