package trading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/errors"
	"tradedesk/internal/models"
)

func newTestEngine() *RuleEngine {
	return NewRuleEngine(DefaultRuleConfig(), NewClassifier(testZones(), time.UTC))
}

// activeSession returns a session past its pre-session gate.
func activeSession(now time.Time) *models.TradingSession {
	s := readySession(now)
	if err := CompletePreSession(s, now); err != nil {
		panic(err)
	}
	return s
}

func evaluate(t *testing.T, e *RuleEngine, session *models.TradingSession, todays []models.Trade, now time.Time) Verdict {
	t.Helper()
	v, err := e.Evaluate(session, todays, ComputeStats(todays, 0), now)
	require.NoError(t, err)
	return v
}

func TestEvaluateRejectsNilInputs(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)

	var ce *errors.ConfigurationError

	_, err := e.Evaluate(nil, []models.Trade{}, models.PerformanceStats{}, now)
	require.ErrorAs(t, err, &ce)

	_, err = e.Evaluate(activeSession(now), nil, models.PerformanceStats{}, now)
	require.ErrorAs(t, err, &ce)
}

func TestEvaluateAlwaysReportsEveryRule(t *testing.T) {
	e := newTestEngine()
	// Midday sits outside every primary kill zone.
	now := time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC)

	// Worst case: every rule failing at once.
	todays := []models.Trade{
		closedTrade(-200, now.Add(-20*time.Minute)),
		closedTrade(-100, now.Add(-10*time.Minute)),
		closedTrade(-50, now.Add(-5*time.Minute)),
	}

	v := evaluate(t, e, NewSession(now), todays, now)

	require.Len(t, v.Results, 5)
	for _, id := range []RuleID{RulePreSession, RuleMaxTrades, RuleCooldown, RuleDailyLoss, RuleKillZone} {
		r, ok := v.Result(id)
		require.True(t, ok, "missing result for %s", id)
		assert.False(t, r.Passed, "%s should fail", id)
		assert.NotEmpty(t, r.Message)
	}
	assert.False(t, v.Allowed)
}

func TestEvaluateAllClear(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC) // inside New York AM

	v := evaluate(t, e, activeSession(now), []models.Trade{}, now)

	assert.True(t, v.Allowed)
	for _, r := range v.Results {
		assert.True(t, r.Passed, "%s should pass", r.Rule)
	}
}

func TestPreSessionRule(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)

	v := evaluate(t, e, NewSession(now), []models.Trade{}, now)

	r, ok := v.Result(RulePreSession)
	require.True(t, ok)
	assert.False(t, r.Passed)
	assert.False(t, r.CanOverride)
	assert.False(t, v.Allowed)
}

func TestMaxTradesRule(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
	session := activeSession(now)

	twoTrades := []models.Trade{
		closedTrade(10, now.Add(-2*time.Hour)),
		openTrade(now.Add(-1 * time.Hour)),
	}
	v := evaluate(t, e, session, twoTrades, now)
	r, _ := v.Result(RuleMaxTrades)
	assert.True(t, r.Passed)

	// Open and cancelled trades count too; the limit is on attempts.
	threeTrades := append(twoTrades, openTrade(now.Add(-30*time.Minute)))
	v = evaluate(t, e, session, threeTrades, now)
	r, _ = v.Result(RuleMaxTrades)
	assert.False(t, r.Passed)
	assert.False(t, v.Allowed)
}

func TestCooldownRule(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
	session := activeSession(now)

	lastExit := now.Add(-10 * time.Minute)
	twoLosses := []models.Trade{
		closedTrade(-50, now.Add(-40*time.Minute)),
		closedTrade(-30, lastExit),
	}

	t.Run("inside cooldown window", func(t *testing.T) {
		v := evaluate(t, e, session, twoLosses, now)
		r, _ := v.Result(RuleCooldown)
		require.False(t, r.Passed)
		assert.Equal(t, 20*time.Minute, r.Remaining)
		assert.False(t, v.Allowed)
	})

	t.Run("window expired", func(t *testing.T) {
		later := lastExit.Add(31 * time.Minute)
		v := evaluate(t, e, session, twoLosses, later)
		r, _ := v.Result(RuleCooldown)
		assert.True(t, r.Passed)
	})

	t.Run("boundary instant is clear", func(t *testing.T) {
		v := evaluate(t, e, session, twoLosses, lastExit.Add(30*time.Minute))
		r, _ := v.Result(RuleCooldown)
		assert.True(t, r.Passed)
	})

	t.Run("win between losses resets", func(t *testing.T) {
		trades := []models.Trade{
			closedTrade(-50, now.Add(-40*time.Minute)),
			closedTrade(20, now.Add(-25*time.Minute)),
			closedTrade(-30, lastExit),
		}
		v := evaluate(t, e, session, trades, now)
		r, _ := v.Result(RuleCooldown)
		assert.True(t, r.Passed)
	})

	t.Run("single loss is not enough", func(t *testing.T) {
		v := evaluate(t, e, session, []models.Trade{closedTrade(-30, lastExit)}, now)
		r, _ := v.Result(RuleCooldown)
		assert.True(t, r.Passed)
	})
}

func TestDailyLossRule(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
	session := activeSession(now)

	tests := []struct {
		name     string
		pnls     []float64
		wantPass bool
	}{
		{"under the limit", []float64{-100, -150}, true},
		{"exactly at the limit", []float64{-100, -100, 50, -150}, false},
		{"over the limit", []float64{-400}, false},
		{"wins offset losses", []float64{-400, 200}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var trades []models.Trade
			for i, pnl := range tt.pnls {
				trades = append(trades, closedTrade(pnl, now.Add(time.Duration(-i-1)*time.Hour)))
			}
			v := evaluate(t, e, session, trades, now)
			r, _ := v.Result(RuleDailyLoss)
			assert.Equal(t, tt.wantPass, r.Passed)
		})
	}
}

func TestKillZoneRuleIsAdvisory(t *testing.T) {
	e := newTestEngine()
	midday := time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC) // outside every primary zone
	session := activeSession(midday)

	v := evaluate(t, e, session, []models.Trade{}, midday)

	r, ok := v.Result(RuleKillZone)
	require.True(t, ok)
	assert.False(t, r.Passed)
	assert.True(t, r.CanOverride)
	assert.Contains(t, r.Message, "New York AM") // next primary named
	assert.True(t, v.Allowed, "advisory rules never block")
}

func TestKillZoneRulePassesInsidePrimary(t *testing.T) {
	e := newTestEngine()
	now := time.Date(2024, 3, 12, 3, 0, 0, 0, time.UTC) // inside London Open
	session := activeSession(now)

	v := evaluate(t, e, session, []models.Trade{}, now)

	r, _ := v.Result(RuleKillZone)
	assert.True(t, r.Passed)
	assert.Contains(t, r.Message, "London Open")
}
