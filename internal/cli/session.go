package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"tradedesk/internal/logging"
	"tradedesk/internal/models"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the trading day session",
	}
	cmd.AddCommand(
		newSessionShowCmd(app),
		newSessionChecklistCmd(app),
		newSessionBiasCmd(app),
		newSessionLevelsCmd(app),
		newSessionStartCmd(app),
		newSessionEndCmd(app),
	)
	return cmd
}

func newSessionShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show today's session state and readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Sessions.Current(cmd.Context())
			if err != nil {
				return err
			}
			printSession(cmd, s)
			return nil
		},
	}
}

func printSession(cmd *cobra.Command, s *models.TradingSession) {
	cmd.Printf("Session %s  %s\n", s.Date.Format("2006-01-02"), FormatSessionState(s.State))
	cmd.Printf("  Checklist: calendar=%v levels=%v plan=%v risk=%v\n",
		s.Checklist.CalendarReviewed, s.Checklist.LevelsMarked,
		s.Checklist.PlanWritten, s.Checklist.RiskAccepted)
	bias := string(s.Bias)
	if bias == "" {
		bias = "(unset)"
	}
	cmd.Printf("  Bias: %s\n", bias)
	cmd.Printf("  Levels: PDH=%s PDL=%s PWH=%s PWL=%s\n",
		levelStr(s.Levels.PrevDayHigh), levelStr(s.Levels.PrevDayLow),
		levelStr(s.Levels.PrevWeekHigh), levelStr(s.Levels.PrevWeekLow))
	if s.PreSessionComplete() {
		cmd.Println("  Pre-session: complete")
	} else {
		cmd.Println("  Pre-session: incomplete")
	}
}

func levelStr(v *float64) string {
	if v == nil {
		return "-"
	}
	return FormatCurrency(*v)
}

func newSessionChecklistCmd(app *App) *cobra.Command {
	var calendar, levels, plan, risk bool
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Mark pre-session checklist items complete",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Sessions.Update(cmd.Context(), func(s *models.TradingSession) {
				if cmd.Flags().Changed("calendar") {
					s.Checklist.CalendarReviewed = calendar
				}
				if cmd.Flags().Changed("levels") {
					s.Checklist.LevelsMarked = levels
				}
				if cmd.Flags().Changed("plan") {
					s.Checklist.PlanWritten = plan
				}
				if cmd.Flags().Changed("risk") {
					s.Checklist.RiskAccepted = risk
				}
			})
			if err != nil {
				return err
			}
			printSession(cmd, s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&calendar, "calendar", false, "economic calendar reviewed")
	cmd.Flags().BoolVar(&levels, "levels", false, "key levels marked on the chart")
	cmd.Flags().BoolVar(&plan, "plan", false, "trade plan written")
	cmd.Flags().BoolVar(&risk, "risk", false, "daily risk accepted")
	return cmd
}

func newSessionBiasCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "bias <bullish|bearish|neutral>",
		Short:     "Declare the daily bias",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bullish", "bearish", "neutral"},
		RunE: func(cmd *cobra.Command, args []string) error {
			bias := models.DailyBias(strings.ToUpper(args[0]))
			s, err := app.Sessions.Update(cmd.Context(), func(s *models.TradingSession) {
				s.Bias = bias
			})
			if err != nil {
				return err
			}
			printSession(cmd, s)
			return nil
		},
	}
}

func newSessionLevelsCmd(app *App) *cobra.Command {
	var pdh, pdl, pwh, pwl float64
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "Set the key price levels for the day",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Sessions.Update(cmd.Context(), func(s *models.TradingSession) {
				if cmd.Flags().Changed("pdh") {
					s.Levels.PrevDayHigh = &pdh
				}
				if cmd.Flags().Changed("pdl") {
					s.Levels.PrevDayLow = &pdl
				}
				if cmd.Flags().Changed("pwh") {
					s.Levels.PrevWeekHigh = &pwh
				}
				if cmd.Flags().Changed("pwl") {
					s.Levels.PrevWeekLow = &pwl
				}
			})
			if err != nil {
				return err
			}
			printSession(cmd, s)
			return nil
		},
	}
	cmd.Flags().Float64Var(&pdh, "pdh", 0, "previous day high")
	cmd.Flags().Float64Var(&pdl, "pdl", 0, "previous day low")
	cmd.Flags().Float64Var(&pwh, "pwh", 0, "previous week high")
	cmd.Flags().Float64Var(&pwl, "pwl", 0, "previous week low")
	return cmd
}

func newSessionStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Complete pre-session and activate the trading day",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Sessions.Activate(cmd.Context())
			if err != nil {
				return err
			}
			logging.LogSessionState(app.Logger, s.ID, string(s.State))
			printSession(cmd, s)
			return nil
		},
	}
}

func newSessionEndCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "Complete the trading day",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Sessions.EndDay(cmd.Context())
			if err != nil {
				return err
			}
			logging.LogSessionState(app.Logger, s.ID, string(s.State))
			printSession(cmd, s)
			return nil
		},
	}
}
