package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/fatih/color"

	"tradedesk/internal/models"
	"tradedesk/internal/trading"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

// FormatCurrency formats an amount with thousands separators and two
// decimals.
func FormatCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	intPart := groupThousands(parts[0])

	result := "$" + intPart + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	return groupThousands(s[:n-3]) + "," + s[n-3:]
}

// FormatPnL formats P&L with sign and color.
func FormatPnL(pnl float64) string {
	formatted := FormatCurrency(pnl)
	switch {
	case pnl > 0:
		return green.Sprint("+" + formatted)
	case pnl < 0:
		return red.Sprint(formatted)
	default:
		return formatted
	}
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatProfitFactor renders the profit factor, displaying the unbounded
// sentinel as the infinity sign.
func FormatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", pf)
}

// FormatStreak renders the current streak.
func FormatStreak(count int, streakType models.StreakType) string {
	switch streakType {
	case models.StreakWinning:
		return green.Sprintf("%d wins", count)
	case models.StreakLosing:
		return red.Sprintf("%d losses", count)
	default:
		return "none"
	}
}

// FormatRuleResult renders a single rule outcome line.
func FormatRuleResult(r trading.RuleResult) string {
	mark := green.Sprint("PASS")
	if !r.Passed {
		if r.CanOverride {
			mark = yellow.Sprint("WARN")
		} else {
			mark = red.Sprint("FAIL")
		}
	}
	return fmt.Sprintf("  [%s] %-16s %s", mark, r.Rule, r.Message)
}

// FormatVerdict renders the overall verdict header.
func FormatVerdict(allowed bool) string {
	if allowed {
		return green.Sprint("TRADING ALLOWED")
	}
	return red.Sprint("TRADING BLOCKED")
}

// FormatSessionState colors a session state.
func FormatSessionState(state models.SessionState) string {
	switch state {
	case models.SessionActive:
		return green.Sprint(string(state))
	case models.SessionCompleted:
		return yellow.Sprint(string(state))
	default:
		return string(state)
	}
}
