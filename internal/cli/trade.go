package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tradedesk/internal/logging"
	"tradedesk/internal/models"
	"tradedesk/internal/trading"
)

func newTradeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Log, close and list trades",
	}
	cmd.AddCommand(
		newTradeLogCmd(app),
		newTradeCloseCmd(app),
		newTradeCancelCmd(app),
		newTradeListCmd(app),
	)
	return cmd
}

func newTradeLogCmd(app *App) *cobra.Command {
	var (
		symbol    string
		direction string
		entry     float64
		stop      float64
		target    float64
		size      int
		risk      float64
		setup     string
		notes     string
		force     bool
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log a new open trade (gated by the discipline rules)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Consult the rule engine before inserting; the ledger itself
			// does not gate.
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

			var failed []string
			for _, r := range verdict.Results {
				if !r.Passed {
					failed = append(failed, string(r.Rule))
				}
			}
			logging.LogVerdict(app.Logger, verdict.Allowed, failed)

			if !verdict.Allowed && !force {
				cmd.Println(FormatVerdict(false))
				for _, r := range verdict.Results {
					cmd.Println(FormatRuleResult(r))
				}
				cmd.Println("\nTrade not logged.")
				return nil
			}

			p := trading.OpenParams{
				Symbol:       strings.ToUpper(symbol),
				Direction:    models.TradeDirection(strings.ToUpper(direction)),
				EntryPrice:   entry,
				StopLoss:     stop,
				PositionSize: size,
				RiskAmount:   risk,
				SetupType:    setup,
				Notes:        notes,
			}
			if cmd.Flags().Changed("target") {
				p.TakeProfit = &target
			}

			t, err := app.Ledger.Open(ctx, p)
			if err != nil {
				return err
			}
			logging.LogTradeOpened(app.Logger, t.ID, t.Symbol, string(t.Direction), t.EntryPrice, t.PositionSize)
			cmd.Printf("Opened %s %s %s @ %s x%d  (id %s)\n",
				t.Symbol, t.Direction, t.Status, FormatCurrency(t.EntryPrice), t.PositionSize, t.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "instrument symbol")
	cmd.Flags().StringVar(&direction, "direction", "", "long or short")
	cmd.Flags().Float64Var(&entry, "entry", 0, "entry price")
	cmd.Flags().Float64Var(&stop, "stop", 0, "stop loss price")
	cmd.Flags().Float64Var(&target, "target", 0, "take profit price")
	cmd.Flags().IntVar(&size, "size", 0, "position size in contracts/units")
	cmd.Flags().Float64Var(&risk, "risk", 0, "risk amount in account currency")
	cmd.Flags().StringVar(&setup, "setup", "", "setup classification tag")
	cmd.Flags().StringVar(&notes, "notes", "", "trade notes")
	cmd.Flags().BoolVar(&force, "force", false, "log the trade despite a blocking verdict")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("direction")
	cmd.MarkFlagRequired("entry")
	cmd.MarkFlagRequired("stop")
	cmd.MarkFlagRequired("size")
	return cmd
}

func newTradeCloseCmd(app *App) *cobra.Command {
	var exit float64
	var notes string
	cmd := &cobra.Command{
		Use:   "close <trade-id>",
		Short: "Close an open trade at an exit price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Ledger.Close(cmd.Context(), args[0], exit, notes)
			if err != nil {
				return err
			}
			logging.LogTradeClosed(app.Logger, t.ID, t.Symbol, *t.ExitPrice, *t.PnL)
			cmd.Printf("Closed %s @ %s  P&L %s\n", t.Symbol, FormatCurrency(*t.ExitPrice), FormatPnL(*t.PnL))
			return nil
		},
	}
	cmd.Flags().Float64Var(&exit, "exit", 0, "exit price")
	cmd.Flags().StringVar(&notes, "notes", "", "closing notes")
	cmd.MarkFlagRequired("exit")
	return cmd
}

func newTradeCancelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <trade-id>",
		Short: "Cancel an open trade without realizing P&L",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Ledger.Cancel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("Cancelled %s (%s)\n", t.Symbol, t.ID)
			return nil
		},
	}
}

func newTradeListCmd(app *App) *cobra.Command {
	var openOnly, closedOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List today's trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var trades []models.Trade
			var err error
			switch {
			case openOnly:
				trades, err = app.Ledger.OpenToday(ctx)
			case closedOnly:
				trades, err = app.Ledger.ClosedToday(ctx)
			default:
				trades, err = app.Ledger.Today(ctx)
			}
			if err != nil {
				return err
			}

			if len(trades) == 0 {
				cmd.Println("No trades today.")
				return nil
			}
			for _, t := range trades {
				line := fmt.Sprintf("%s  %s %s x%d @ %s  [%s]",
					t.EntryTime.Format("15:04"), t.Symbol, t.Direction,
					t.PositionSize, FormatCurrency(t.EntryPrice), t.Status)
				if t.PnL != nil {
					line += "  " + FormatPnL(*t.PnL)
				}
				cmd.Printf("%s  (id %s)\n", line, t.ID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&openOnly, "open", false, "only open trades")
	cmd.Flags().BoolVar(&closedOnly, "closed", false, "only closed trades")
	return cmd
}
