package trading

import (
	"math"
	"sort"
	"time"

	"tradedesk/internal/models"
)

// ComputeStats derives PerformanceStats from a trade list. It is a pure,
// total function: any list, including nil, produces a well-formed result.
//
// Only closed trades contribute to the aggregates. A closed trade with P&L
// exactly 0 counts toward TotalTrades and BreakevenTrades but is neither a
// win nor a loss, and it breaks any running streak.
func ComputeStats(trades []models.Trade, goalAmount float64) models.PerformanceStats {
	stats := models.PerformanceStats{StreakType: models.StreakNone}

	var grossWin, grossLoss float64
	var closed []models.Trade

	for _, t := range trades {
		if !t.IsClosed() || t.PnL == nil {
			continue
		}
		closed = append(closed, t)

		pnl := *t.PnL
		stats.TotalTrades++
		stats.TotalPnL += pnl

		switch {
		case pnl > 0:
			stats.WinningTrades++
			grossWin += pnl
			if pnl > stats.LargestWin {
				stats.LargestWin = pnl
			}
		case pnl < 0:
			stats.LosingTrades++
			grossLoss += -pnl
			if pnl < stats.LargestLoss {
				stats.LargestLoss = pnl
			}
		default:
			stats.BreakevenTrades++
		}
	}

	if decisive := stats.WinningTrades + stats.LosingTrades; decisive > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(decisive) * 100
	}
	if stats.WinningTrades > 0 {
		stats.AverageWin = grossWin / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AverageLoss = -grossLoss / float64(stats.LosingTrades)
	}

	switch {
	case grossLoss > 0:
		stats.ProfitFactor = grossWin / grossLoss
	case grossWin > 0:
		stats.ProfitFactor = math.Inf(1)
	}

	stats.CurrentStreak, stats.StreakType = currentStreak(closed)

	if goalAmount != 0 {
		stats.ProgressToGoal = stats.TotalPnL / goalAmount * 100
	}

	return stats
}

// currentStreak walks closed trades most-recent-first and counts the run of
// trades sharing the most recent outcome. A breakeven trade neither extends
// nor begins a streak.
func currentStreak(closed []models.Trade) (int, models.StreakType) {
	if len(closed) == 0 {
		return 0, models.StreakNone
	}

	ordered := make([]models.Trade, len(closed))
	copy(ordered, closed)
	sort.SliceStable(ordered, func(i, j int) bool {
		return exitTime(ordered[i]).After(exitTime(ordered[j]))
	})

	first := *ordered[0].PnL
	if first == 0 {
		return 0, models.StreakNone
	}

	streakType := models.StreakWinning
	if first < 0 {
		streakType = models.StreakLosing
	}

	count := 0
	for _, t := range ordered {
		pnl := *t.PnL
		if (streakType == models.StreakWinning && pnl > 0) ||
			(streakType == models.StreakLosing && pnl < 0) {
			count++
			continue
		}
		break
	}
	return count, streakType
}

func exitTime(t models.Trade) time.Time {
	if t.ExitTime != nil {
		return *t.ExitTime
	}
	return t.EntryTime
}
