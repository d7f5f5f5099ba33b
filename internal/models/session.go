package models

import "time"

// SessionState represents the lifecycle state of a trading day.
type SessionState string

const (
	SessionPending   SessionState = "PENDING"
	SessionActive    SessionState = "ACTIVE"
	SessionCompleted SessionState = "COMPLETED"
)

// DailyBias represents the declared directional bias for the day.
// The zero value means the bias has not been set yet.
type DailyBias string

const (
	BiasUnset   DailyBias = ""
	BiasBullish DailyBias = "BULLISH"
	BiasBearish DailyBias = "BEARISH"
	BiasNeutral DailyBias = "NEUTRAL"
)

// Valid reports whether the bias is one of the three declared values.
func (b DailyBias) Valid() bool {
	return b == BiasBullish || b == BiasBearish || b == BiasNeutral
}

// PreSessionChecklist is the fixed set of readiness criteria that must all
// hold before a trading day may go active. A fixed struct rather than a
// string-keyed map, so missing-item validation is exhaustive.
type PreSessionChecklist struct {
	CalendarReviewed bool
	LevelsMarked     bool
	PlanWritten      bool
	RiskAccepted     bool
}

// Complete reports whether every checklist item is checked.
func (c PreSessionChecklist) Complete() bool {
	return c.CalendarReviewed && c.LevelsMarked && c.PlanWritten && c.RiskAccepted
}

// KeyLevels holds the four price levels declared before the session. A nil
// field means the level has not been populated.
type KeyLevels struct {
	PrevDayHigh  *float64
	PrevDayLow   *float64
	PrevWeekHigh *float64
	PrevWeekLow  *float64
}

// Complete reports whether all four levels are populated.
func (k KeyLevels) Complete() bool {
	return k.PrevDayHigh != nil && k.PrevDayLow != nil &&
		k.PrevWeekHigh != nil && k.PrevWeekLow != nil
}

// TradingSession represents one calendar trading day.
type TradingSession struct {
	ID        string
	Date      time.Time // midnight in the trader's timezone
	State     SessionState
	Checklist PreSessionChecklist
	Bias      DailyBias
	Levels    KeyLevels
	StartedAt *time.Time
	EndedAt   *time.Time
}

// PreSessionComplete reports whether all activation requirements hold:
// checklist done, bias declared, all four key levels set.
func (s *TradingSession) PreSessionComplete() bool {
	return s.Checklist.Complete() && s.Bias.Valid() && s.Levels.Complete()
}
