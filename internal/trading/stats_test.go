package trading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/models"
)

func closedTrade(pnl float64, exit time.Time) models.Trade {
	p := pnl
	e := exit
	return models.Trade{
		ID:        "t-" + exit.Format("150405"),
		Symbol:    "NQ",
		Direction: models.DirectionLong,
		Status:    models.TradeClosed,
		EntryTime: exit.Add(-15 * time.Minute),
		ExitTime:  &e,
		PnL:       &p,
	}
}

func openTrade(entry time.Time) models.Trade {
	return models.Trade{
		ID:        "open-" + entry.Format("150405"),
		Symbol:    "NQ",
		Direction: models.DirectionLong,
		Status:    models.TradeOpen,
		EntryTime: entry,
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	for _, trades := range [][]models.Trade{nil, {}} {
		stats := ComputeStats(trades, 0)
		assert.Zero(t, stats.TotalTrades)
		assert.Zero(t, stats.WinRate)
		assert.Zero(t, stats.ProfitFactor)
		assert.Equal(t, models.StreakNone, stats.StreakType)
	}
}

func TestComputeStatsAggregates(t *testing.T) {
	base := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		closedTrade(120, base),
		closedTrade(-40, base.Add(1*time.Hour)),
		closedTrade(80, base.Add(2*time.Hour)),
		closedTrade(-60, base.Add(3*time.Hour)),
		closedTrade(0, base.Add(4*time.Hour)),
		openTrade(base.Add(5 * time.Hour)),
	}

	stats := ComputeStats(trades, 1000)

	assert.Equal(t, 5, stats.TotalTrades) // open trades excluded
	assert.Equal(t, 2, stats.WinningTrades)
	assert.Equal(t, 2, stats.LosingTrades)
	assert.Equal(t, 1, stats.BreakevenTrades)
	assert.InDelta(t, 50.0, stats.WinRate, 1e-9) // breakeven not decisive
	assert.InDelta(t, 100.0, stats.TotalPnL, 1e-9)
	assert.InDelta(t, 100.0, stats.AverageWin, 1e-9)
	assert.InDelta(t, -50.0, stats.AverageLoss, 1e-9)
	assert.InDelta(t, 2.0, stats.ProfitFactor, 1e-9)
	assert.InDelta(t, 120.0, stats.LargestWin, 1e-9)
	assert.InDelta(t, -60.0, stats.LargestLoss, 1e-9)
	assert.InDelta(t, 10.0, stats.ProgressToGoal, 1e-9)
}

func TestProfitFactorNoLosses(t *testing.T) {
	base := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
	stats := ComputeStats([]models.Trade{
		closedTrade(50, base),
		closedTrade(25, base.Add(time.Hour)),
	}, 0)

	require.True(t, stats.ProfitFactorInfinite())
	assert.Equal(t, models.StreakWinning, stats.StreakType)
	assert.Equal(t, 2, stats.CurrentStreak)
}

func TestProfitFactorAllBreakeven(t *testing.T) {
	base := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
	stats := ComputeStats([]models.Trade{closedTrade(0, base)}, 0)

	assert.Zero(t, stats.ProfitFactor)
	assert.False(t, stats.ProfitFactorInfinite())
}

func TestCurrentStreak(t *testing.T) {
	base := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		pnls      []float64 // oldest to newest
		wantCount int
		wantType  models.StreakType
	}{
		{"losses then wins", []float64{-30, 50, 40}, 2, models.StreakWinning},
		{"wins then losses", []float64{60, -10, -20, -5}, 3, models.StreakLosing},
		{"breakeven breaks streak", []float64{50, 40, 0}, 0, models.StreakNone},
		{"breakeven mid-run stops count", []float64{50, 0, 40, 30}, 2, models.StreakWinning},
		{"single loss", []float64{-10}, 1, models.StreakLosing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var trades []models.Trade
			for i, pnl := range tt.pnls {
				trades = append(trades, closedTrade(pnl, base.Add(time.Duration(i)*time.Hour)))
			}
			stats := ComputeStats(trades, 0)
			assert.Equal(t, tt.wantCount, stats.CurrentStreak)
			assert.Equal(t, tt.wantType, stats.StreakType)
		})
	}
}

func TestCurrentStreakOrderIndependent(t *testing.T) {
	// Streaks follow exit time, not slice position.
	base := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		closedTrade(-20, base.Add(2*time.Hour)), // most recent
		closedTrade(30, base),
		closedTrade(-10, base.Add(1*time.Hour)),
	}

	stats := ComputeStats(trades, 0)
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, models.StreakLosing, stats.StreakType)
}
