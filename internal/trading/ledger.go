package trading

import (
	"context"
	"sync"

	"tradedesk/internal/errors"
	"tradedesk/internal/models"
	"tradedesk/internal/store"
	"tradedesk/pkg/id"
)

// OpenParams describes a trade being logged.
type OpenParams struct {
	Symbol       string
	Direction    models.TradeDirection
	EntryPrice   float64
	StopLoss     float64
	TakeProfit   *float64
	PositionSize int
	RiskAmount   float64
	SetupType    string
	Notes        string
}

func (p OpenParams) validate() error {
	if p.Symbol == "" {
		return errors.NewValidationError("symbol", p.Symbol, "symbol is required")
	}
	if p.Direction != models.DirectionLong && p.Direction != models.DirectionShort {
		return errors.NewValidationError("direction", p.Direction, "direction must be LONG or SHORT")
	}
	if p.EntryPrice <= 0 {
		return errors.NewValidationError("entry_price", p.EntryPrice, "entry price must be positive")
	}
	if p.PositionSize <= 0 {
		return errors.NewValidationError("position_size", p.PositionSize, "position size must be positive")
	}
	if p.StopLoss == p.EntryPrice {
		return errors.NewValidationError("stop_loss", p.StopLoss, "stop loss must differ from entry price")
	}
	return nil
}

// Ledger holds the trade records for the trading journal. Mutations are
// serialized through its mutex; queries re-derive from current store state
// on every call rather than caching snapshots.
type Ledger struct {
	mu    sync.Mutex
	clock Clock
	store store.DataStore
}

// NewLedger creates a ledger over the given store.
func NewLedger(clock Clock, st store.DataStore) *Ledger {
	return &Ledger{clock: clock, store: st}
}

// Open logs a new open trade. The id is assigned here, status is open and
// P&L stays unset until close.
func (l *Ledger) Open(ctx context.Context, p OpenParams) (*models.Trade, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	t := &models.Trade{
		ID:           id.New(),
		Symbol:       p.Symbol,
		Direction:    p.Direction,
		EntryPrice:   p.EntryPrice,
		StopLoss:     p.StopLoss,
		TakeProfit:   p.TakeProfit,
		PositionSize: p.PositionSize,
		RiskAmount:   p.RiskAmount,
		EntryTime:    l.clock.Now(),
		Status:       models.TradeOpen,
		Notes:        p.Notes,
		SetupType:    p.SetupType,
	}
	if err := l.store.InsertTrade(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Close closes an open trade at exitPrice, computing realized P&L exactly:
// (exit-entry)*size for long, (entry-exit)*size for short. A second close
// racing on the same id fails with InvalidStateError rather than
// recomputing.
func (l *Ledger) Close(ctx context.Context, tradeID string, exitPrice float64, notes string) (*models.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, err := l.store.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !t.IsOpen() {
		return nil, errors.NewInvalidStateError("trade", t.ID, string(t.Status), "close")
	}

	now := l.clock.Now()
	pnl := t.GrossPnL(exitPrice)

	t.ExitPrice = &exitPrice
	t.ExitTime = &now
	t.PnL = &pnl
	t.Status = models.TradeClosed
	if notes != "" {
		t.Notes = notes
	}

	if err := l.store.UpdateTrade(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Cancel voids an open trade without realizing P&L. Cancelled trades are
// never resurrected.
func (l *Ledger) Cancel(ctx context.Context, tradeID string) (*models.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, err := l.store.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if !t.IsOpen() {
		return nil, errors.NewInvalidStateError("trade", t.ID, string(t.Status), "cancel")
	}

	t.Status = models.TradeCancelled
	if err := l.store.UpdateTrade(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns a single trade by id.
func (l *Ledger) Get(ctx context.Context, tradeID string) (*models.Trade, error) {
	return l.store.GetTrade(ctx, tradeID)
}

// Today returns all trades whose entry time falls on the current calendar
// day in the trader's timezone.
func (l *Ledger) Today(ctx context.Context) ([]models.Trade, error) {
	start := DayStart(l.clock.Now())
	return l.store.GetTrades(ctx, store.TradeFilter{
		From: start,
		To:   start.AddDate(0, 0, 1),
	})
}

// ClosedToday returns today's closed trades.
func (l *Ledger) ClosedToday(ctx context.Context) ([]models.Trade, error) {
	return l.todayWithStatus(ctx, models.TradeClosed)
}

// OpenToday returns today's still-open trades.
func (l *Ledger) OpenToday(ctx context.Context) ([]models.Trade, error) {
	return l.todayWithStatus(ctx, models.TradeOpen)
}

func (l *Ledger) todayWithStatus(ctx context.Context, status models.TradeStatus) ([]models.Trade, error) {
	start := DayStart(l.clock.Now())
	return l.store.GetTrades(ctx, store.TradeFilter{
		Status: status,
		From:   start,
		To:     start.AddDate(0, 0, 1),
	})
}
