// Package cli provides the command-line interface for the trading
// application.
package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tradedesk/internal/config"
	"tradedesk/internal/notify"
	"tradedesk/internal/store"
	"tradedesk/internal/stream"
	"tradedesk/internal/trading"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Store      store.DataStore
	Hub        *stream.Hub
	Clock      trading.Clock
	Classifier *trading.Classifier
	Engine     *trading.RuleEngine
	Sessions   *trading.SessionManager
	Ledger     *trading.Ledger
	Briefer    *trading.Briefer
	Notifier   *notify.TerminalNotifier
}

// setup opens the store and wires the engine components. Called from each
// command's PersistentPreRunE so `help` and `version` stay side-effect
// free.
func (a *App) setup() error {
	if a.Store != nil {
		return nil
	}

	clock, err := trading.NewWallClock(a.Config.Engine.Timezone)
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(a.Config.Store.Path)
	if err != nil {
		return err
	}

	a.Clock = clock
	a.Store = st
	a.Hub = stream.NewHub()
	a.Classifier = trading.NewClassifier(killZones(a.Config.Engine.KillZones), clock.Location())
	a.Engine = trading.NewRuleEngine(trading.RuleConfig{
		MaxTradesPerDay:   a.Config.Engine.MaxTradesPerDay,
		ConsecutiveLosses: a.Config.Engine.ConsecutiveLosses,
		Cooldown:          a.Config.Engine.CooldownDuration(),
		DailyLossLimit:    a.Config.Engine.DailyLossLimit,
	}, a.Classifier)
	a.Sessions = trading.NewSessionManager(clock, st)
	a.Ledger = trading.NewLedger(clock, st)
	a.Briefer = trading.NewBriefer(clock, a.Classifier, a.Engine, a.Sessions, a.Ledger, a.Config.Engine.GoalAmount)
	a.Notifier = notify.NewTerminalNotifier(64)

	a.Logger.Debug().Str("db", a.Config.Store.Path).Msg("Store opened")
	return nil
}

// teardown releases resources opened by setup.
func (a *App) teardown() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close store")
		}
		a.Store = nil
	}
}

// killZones maps configured zones to engine zones.
func killZones(zones []config.KillZone) []trading.KillZone {
	out := make([]trading.KillZone, 0, len(zones))
	for _, z := range zones {
		out = append(out, trading.KillZone{
			Name:        z.Name,
			StartHour:   z.StartHour,
			StartMinute: z.StartMinute,
			EndHour:     z.EndHour,
			EndMinute:   z.EndMinute,
			Priority:    trading.ZonePriority(z.Priority),
		})
	}
	return out
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "tradedesk",
		Short: "Trading discipline and performance journal",
		Long: `tradedesk gates trading actions behind a discipline rule set and keeps
running performance statistics over the trade journal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			return app.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.teardown()
		},
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newStatusCmd(app),
		newCheckCmd(app),
		newSessionCmd(app),
		newTradeCmd(app),
		newStatsCmd(app),
		newZonesCmd(app),
		newWatchCmd(app),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("tradedesk %s\n", Version)
		},
	}
}

func newWatchCmd(app *App) *cobra.Command {
	var noBell bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream journal changes and discipline alerts until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app.Hub.Start(ctx, app.Store.Events())
			defer app.Hub.Stop()

			events, err := app.Hub.Subscribe("cli-watch")
			if err != nil {
				return err
			}
			defer app.Hub.Unsubscribe("cli-watch")

			app.Notifier.SetBellEnabled(!noBell)
			app.Notifier.AddHandler(func(a notify.Alert) {
				cmd.Printf("%s ALERT  %s: %s\n",
					a.Timestamp.Format(time.TimeOnly), a.Title, a.Message)
			})
			app.Notifier.Start(ctx)

			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					cmd.Printf("%s %-6s %-7s %s\n",
						ev.At.Format(time.TimeOnly), ev.Op, ev.Entity, ev.ID)
					app.raiseAlerts(ctx, ev)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&noBell, "no-bell", false, "Disable the terminal bell on alerts")
	return cmd
}

// raiseAlerts turns a store change into discipline alerts: a realized trade
// is announced, and the gates are re-evaluated so a fresh block is surfaced
// the moment it happens.
func (a *App) raiseAlerts(ctx context.Context, ev store.ChangeEvent) {
	if ev.Entity != store.EntityTrade || ev.Op != store.OpUpdate {
		return
	}

	trade, err := a.Ledger.Get(ctx, ev.ID)
	if err != nil {
		a.Logger.Warn().Err(err).Str("trade_id", ev.ID).Msg("Failed to load trade for alert")
		return
	}
	if !trade.IsClosed() || trade.PnL == nil {
		return
	}
	a.Notifier.Notify(notify.TradeClosedAlert(trade.Symbol, *trade.PnL))

	briefing, err := a.Briefer.Build(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to evaluate gates for alert")
		return
	}
	if briefing.Verdict.Allowed {
		return
	}
	var messages []string
	for _, r := range briefing.Verdict.Results {
		if !r.Passed && !r.CanOverride {
			messages = append(messages, r.Message)
		}
	}
	a.Notifier.Notify(notify.ViolationAlert(messages))
}
