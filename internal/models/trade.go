package models

import "time"

// TradeDirection represents the side of a trade.
type TradeDirection string

const (
	DirectionLong  TradeDirection = "LONG"
	DirectionShort TradeDirection = "SHORT"
)

// TradeStatus represents the lifecycle status of a trade.
type TradeStatus string

const (
	TradeOpen      TradeStatus = "OPEN"
	TradeClosed    TradeStatus = "CLOSED"
	TradeCancelled TradeStatus = "CANCELLED"
)

// Trade represents a single journaled trade.
//
// PnL is nil exactly while the trade is open; it is set once on close and
// never recomputed afterwards.
type Trade struct {
	ID           string
	Symbol       string
	Direction    TradeDirection
	EntryPrice   float64
	ExitPrice    *float64
	StopLoss     float64
	TakeProfit   *float64
	PositionSize int
	RiskAmount   float64
	EntryTime    time.Time
	ExitTime     *time.Time
	Status       TradeStatus
	PnL          *float64
	Notes        string
	SetupType    string
}

// IsOpen reports whether the trade is still open.
func (t *Trade) IsOpen() bool {
	return t.Status == TradeOpen
}

// IsClosed reports whether the trade has been closed.
func (t *Trade) IsClosed() bool {
	return t.Status == TradeClosed
}

// GrossPnL returns the realized P&L if the trade were closed at exitPrice.
// Long: (exit - entry) * size. Short: (entry - exit) * size.
// No rounding is applied; display rounding is a presentation concern.
func (t *Trade) GrossPnL(exitPrice float64) float64 {
	if t.Direction == DirectionShort {
		return (t.EntryPrice - exitPrice) * float64(t.PositionSize)
	}
	return (exitPrice - t.EntryPrice) * float64(t.PositionSize)
}
