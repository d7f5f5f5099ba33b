// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"tradedesk/internal/models"
)

// ChangeOp is the kind of mutation a change event describes.
type ChangeOp string

const (
	OpInsert ChangeOp = "INSERT"
	OpUpdate ChangeOp = "UPDATE"
	OpDelete ChangeOp = "DELETE"
)

// ChangeEntity names the record type a change event refers to.
type ChangeEntity string

const (
	EntityTrade   ChangeEntity = "trade"
	EntitySession ChangeEntity = "session"
)

// ChangeEvent is emitted after every successful mutation. The presentation
// layer subscribes to these through the stream hub to stay in sync.
type ChangeEvent struct {
	Op     ChangeOp
	Entity ChangeEntity
	ID     string
	At     time.Time
}

// TradeFilter represents filters for querying trades. Zero fields are
// ignored; From/To bound EntryTime as [From, To).
type TradeFilter struct {
	Symbol string
	Status models.TradeStatus
	From   time.Time
	To     time.Time
	Limit  int
}

// DataStore defines the interface for trade and session persistence.
type DataStore interface {
	// Trades
	InsertTrade(ctx context.Context, trade *models.Trade) error
	UpdateTrade(ctx context.Context, trade *models.Trade) error
	DeleteTrade(ctx context.Context, id string) error
	GetTrade(ctx context.Context, id string) (*models.Trade, error)
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)

	// Sessions
	InsertSession(ctx context.Context, session *models.TradingSession) error
	UpdateSession(ctx context.Context, session *models.TradingSession) error
	GetSessionByDate(ctx context.Context, date time.Time) (*models.TradingSession, error)
	GetLatestSession(ctx context.Context) (*models.TradingSession, error)

	// Events returns the change-notification stream.
	Events() <-chan ChangeEvent

	// Lifecycle
	Close() error
}
