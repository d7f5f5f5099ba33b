package trading

import (
	"context"
	"time"

	"tradedesk/internal/models"
)

// Briefing is the assembled day-at-a-glance view: session readiness, the
// kill zone picture, today's stats and the current gating verdict. It is a
// pure assembly over snapshots; rendering belongs to the caller.
type Briefing struct {
	GeneratedAt   time.Time
	Session       *models.TradingSession
	CurrentZone   *KillZone
	NextPrimary   *KillZone
	NextPrimaryAt time.Time
	Stats         models.PerformanceStats
	Verdict       Verdict
}

// Briefer builds briefings from the live session manager and ledger.
type Briefer struct {
	clock      Clock
	classifier *Classifier
	engine     *RuleEngine
	sessions   *SessionManager
	ledger     *Ledger
	goalAmount float64
}

// NewBriefer wires a briefer over the engine components.
func NewBriefer(clock Clock, classifier *Classifier, engine *RuleEngine, sessions *SessionManager, ledger *Ledger, goalAmount float64) *Briefer {
	return &Briefer{
		clock:      clock,
		classifier: classifier,
		engine:     engine,
		sessions:   sessions,
		ledger:     ledger,
		goalAmount: goalAmount,
	}
}

// Build assembles the briefing for the current instant.
func (b *Briefer) Build(ctx context.Context) (*Briefing, error) {
	now := b.clock.Now()

	session, err := b.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	todays, err := b.ledger.Today(ctx)
	if err != nil {
		return nil, err
	}
	if todays == nil {
		todays = []models.Trade{}
	}

	stats := ComputeStats(todays, b.goalAmount)
	verdict, err := b.engine.Evaluate(session, todays, stats, now)
	if err != nil {
		return nil, err
	}

	briefing := &Briefing{
		GeneratedAt: now,
		Session:     session,
		CurrentZone: b.classifier.Classify(now),
		Stats:       stats,
		Verdict:     verdict,
	}
	if zone, at, ok := b.classifier.NextPrimary(now); ok {
		briefing.NextPrimary = &zone
		briefing.NextPrimaryAt = at
	}
	return briefing, nil
}
