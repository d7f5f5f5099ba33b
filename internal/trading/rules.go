package trading

import (
	"fmt"
	"sort"
	"time"

	"tradedesk/internal/errors"
	"tradedesk/internal/models"
)

// RuleID identifies a discipline rule. Tagged identifiers rather than array
// positions, so evaluation and messaging cannot desynchronize if the rule
// list is reordered.
type RuleID string

const (
	RulePreSession RuleID = "PRE_SESSION"
	RuleMaxTrades  RuleID = "MAX_TRADES"
	RuleCooldown   RuleID = "LOSS_COOLDOWN"
	RuleDailyLoss  RuleID = "DAILY_LOSS_LIMIT"
	RuleKillZone   RuleID = "KILL_ZONE"
)

// RuleResult is the outcome of one rule check. Results are computed fresh
// on every evaluation and never persisted.
type RuleResult struct {
	Rule        RuleID
	Passed      bool
	Message     string
	CanOverride bool
	// Remaining is the time left on the loss cooldown; set only on a
	// failing LOSS_COOLDOWN result.
	Remaining time.Duration
}

// Verdict is the full outcome of a rule evaluation. Allowed is the AND over
// all non-overridable rules; every rule always contributes a result so the
// caller can show all simultaneous violations.
type Verdict struct {
	Allowed bool
	Results []RuleResult
}

// Result returns the result for a given rule id.
func (v Verdict) Result(id RuleID) (RuleResult, bool) {
	for _, r := range v.Results {
		if r.Rule == id {
			return r, true
		}
	}
	return RuleResult{}, false
}

// RuleConfig holds the thresholds for the discipline rules.
type RuleConfig struct {
	MaxTradesPerDay   int
	ConsecutiveLosses int
	Cooldown          time.Duration
	DailyLossLimit    float64
}

// DefaultRuleConfig returns the default rule thresholds.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		MaxTradesPerDay:   3,
		ConsecutiveLosses: 2,
		Cooldown:          30 * time.Minute,
		DailyLossLimit:    300,
	}
}

// RuleEngine is the gating authority. It evaluates the fixed ordered rule
// list against a snapshot of session, ledger and clock state. Evaluation is
// idempotent: it mutates nothing and is safe to call repeatedly.
type RuleEngine struct {
	cfg        RuleConfig
	classifier *Classifier
}

// NewRuleEngine creates a rule engine with the given thresholds and kill
// zone classifier.
func NewRuleEngine(cfg RuleConfig, classifier *Classifier) *RuleEngine {
	return &RuleEngine{cfg: cfg, classifier: classifier}
}

// Evaluate runs every rule against the snapshot and returns the verdict.
// todays must hold today's trades; stats must be derived from that same
// list. Rule violations are data, never errors — an error is returned only
// for structurally invalid input (nil session or nil trade list).
func (e *RuleEngine) Evaluate(session *models.TradingSession, todays []models.Trade, stats models.PerformanceStats, now time.Time) (Verdict, error) {
	if session == nil {
		return Verdict{}, errors.NewConfigurationError("session", "session must not be nil")
	}
	if todays == nil {
		return Verdict{}, errors.NewConfigurationError("trades", "trade list must not be nil")
	}

	results := []RuleResult{
		e.checkPreSession(session),
		e.checkMaxTrades(todays),
		e.checkCooldown(todays, now),
		e.checkDailyLoss(stats),
		e.checkKillZone(now),
	}

	allowed := true
	for _, r := range results {
		if !r.Passed && !r.CanOverride {
			allowed = false
		}
	}
	return Verdict{Allowed: allowed, Results: results}, nil
}

func (e *RuleEngine) checkPreSession(session *models.TradingSession) RuleResult {
	r := RuleResult{Rule: RulePreSession, Passed: true, Message: "Pre-session complete"}
	if !session.PreSessionComplete() {
		r.Passed = false
		r.Message = "Complete the pre-session checklist, bias and key levels before trading"
	}
	return r
}

func (e *RuleEngine) checkMaxTrades(todays []models.Trade) RuleResult {
	count := len(todays)
	r := RuleResult{
		Rule:    RuleMaxTrades,
		Passed:  true,
		Message: fmt.Sprintf("%d of %d trades taken today", count, e.cfg.MaxTradesPerDay),
	}
	if count >= e.cfg.MaxTradesPerDay {
		r.Passed = false
		r.Message = fmt.Sprintf("Max trades reached: %d of %d taken today", count, e.cfg.MaxTradesPerDay)
	}
	return r
}

func (e *RuleEngine) checkCooldown(todays []models.Trade, now time.Time) RuleResult {
	r := RuleResult{Rule: RuleCooldown, Passed: true, Message: "No loss cooldown active"}

	closed := closedByExitDesc(todays)
	if len(closed) < e.cfg.ConsecutiveLosses {
		return r
	}
	for i := 0; i < e.cfg.ConsecutiveLosses; i++ {
		if closed[i].PnL == nil || *closed[i].PnL >= 0 {
			return r
		}
	}

	until := closed[0].ExitTime.Add(e.cfg.Cooldown)
	if !now.Before(until) {
		return r
	}

	remaining := until.Sub(now)
	r.Passed = false
	r.Remaining = remaining
	r.Message = fmt.Sprintf("%d consecutive losses: cool down for %d more minutes",
		e.cfg.ConsecutiveLosses, int(remaining.Minutes())+1)
	return r
}

func (e *RuleEngine) checkDailyLoss(stats models.PerformanceStats) RuleResult {
	r := RuleResult{
		Rule:    RuleDailyLoss,
		Passed:  true,
		Message: fmt.Sprintf("Today's realized P&L: %.2f (limit -%.2f)", stats.TotalPnL, e.cfg.DailyLossLimit),
	}
	// Boundary is inclusive: hitting the limit exactly stops trading.
	if stats.TotalPnL <= -e.cfg.DailyLossLimit {
		r.Passed = false
		r.Message = fmt.Sprintf("Daily loss limit hit: %.2f realized against limit -%.2f",
			stats.TotalPnL, e.cfg.DailyLossLimit)
	}
	return r
}

func (e *RuleEngine) checkKillZone(now time.Time) RuleResult {
	r := RuleResult{Rule: RuleKillZone, Passed: true, CanOverride: true}

	if zone := e.classifier.Classify(now); zone != nil && zone.Priority == PriorityPrimary {
		r.Message = fmt.Sprintf("Inside primary kill zone %q", zone.Name)
		return r
	}

	r.Passed = false
	if next, at, ok := e.classifier.NextPrimary(now); ok {
		r.Message = fmt.Sprintf("Outside primary kill zones; next is %q at %s",
			next.Name, at.Format("15:04"))
	} else {
		r.Message = "Outside primary kill zones; none configured"
	}
	return r
}

// closedByExitDesc returns the closed trades ordered most recent exit
// first.
func closedByExitDesc(trades []models.Trade) []models.Trade {
	var closed []models.Trade
	for _, t := range trades {
		if t.IsClosed() && t.ExitTime != nil {
			closed = append(closed, t)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].ExitTime.After(*closed[j].ExitTime)
	})
	return closed
}
