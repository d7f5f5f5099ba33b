package models

import "math"

// StreakType classifies the current run of same-outcome closed trades.
type StreakType string

const (
	StreakNone    StreakType = "NONE"
	StreakWinning StreakType = "WINNING"
	StreakLosing  StreakType = "LOSING"
)

// PerformanceStats is the aggregate view over a set of trades. It is derived
// on demand and never stored.
//
// ProfitFactor is +Inf when there are winning trades and no losing trades;
// callers should render that as "infinite" via math.IsInf. It is 0 when there
// are neither wins nor losses.
type PerformanceStats struct {
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	BreakevenTrades int
	WinRate         float64 // percent, 0 when no decisive closed trades
	TotalPnL        float64
	AverageWin      float64
	AverageLoss     float64 // negative or 0
	ProfitFactor    float64
	LargestWin      float64
	LargestLoss     float64 // negative or 0
	CurrentStreak   int
	StreakType      StreakType
	ProgressToGoal  float64 // percent of goal, unbounded either direction
}

// ProfitFactorInfinite reports whether the profit factor is the unbounded
// sentinel (wins with zero losses).
func (s PerformanceStats) ProfitFactorInfinite() bool {
	return math.IsInf(s.ProfitFactor, 1)
}
