package trading

import (
	"context"
	"sync"
	"time"

	"tradedesk/internal/errors"
	"tradedesk/internal/models"
	"tradedesk/internal/store"
	"tradedesk/pkg/id"
)

// activationRequirement is one precondition for going active, checked in
// declaration order so the first unmet requirement reported is
// deterministic for a given session.
type activationRequirement struct {
	field string
	met   func(*models.TradingSession) bool
}

var activationRequirements = []activationRequirement{
	{"checklist.calendar_reviewed", func(s *models.TradingSession) bool { return s.Checklist.CalendarReviewed }},
	{"checklist.levels_marked", func(s *models.TradingSession) bool { return s.Checklist.LevelsMarked }},
	{"checklist.plan_written", func(s *models.TradingSession) bool { return s.Checklist.PlanWritten }},
	{"checklist.risk_accepted", func(s *models.TradingSession) bool { return s.Checklist.RiskAccepted }},
	{"daily_bias", func(s *models.TradingSession) bool { return s.Bias.Valid() }},
	{"levels.prev_day_high", func(s *models.TradingSession) bool { return s.Levels.PrevDayHigh != nil }},
	{"levels.prev_day_low", func(s *models.TradingSession) bool { return s.Levels.PrevDayLow != nil }},
	{"levels.prev_week_high", func(s *models.TradingSession) bool { return s.Levels.PrevWeekHigh != nil }},
	{"levels.prev_week_low", func(s *models.TradingSession) bool { return s.Levels.PrevWeekLow != nil }},
}

// NewSession creates a pending session for the calendar day containing now.
func NewSession(now time.Time) *models.TradingSession {
	return &models.TradingSession{
		ID:    id.New(),
		Date:  DayStart(now),
		State: models.SessionPending,
	}
}

// DayStart returns midnight of t's calendar day in t's location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CompletePreSession moves a session from pending to active. It fails with
// a ValidationError naming the first unmet requirement, or an
// InvalidStateError when the session is not pending.
func CompletePreSession(s *models.TradingSession, now time.Time) error {
	if s.State != models.SessionPending {
		return errors.NewInvalidStateError("session", s.ID, string(s.State), "complete pre-session")
	}
	for _, req := range activationRequirements {
		if !req.met(s) {
			return errors.NewValidationError(req.field, nil, "required before the session can go active")
		}
	}
	started := now
	s.State = models.SessionActive
	s.StartedAt = &started
	return nil
}

// CompleteDay moves a session from active to completed. Completed is
// terminal; no transition moves backward or skips a state.
func CompleteDay(s *models.TradingSession, now time.Time) error {
	if s.State != models.SessionActive {
		return errors.NewInvalidStateError("session", s.ID, string(s.State), "complete day")
	}
	ended := now
	s.State = models.SessionCompleted
	s.EndedAt = &ended
	return nil
}

// SessionManager owns the session for the current trading day. All mutation
// goes through its mutex, giving the single-writer-per-session discipline:
// concurrent transitions are rejected, never merged.
type SessionManager struct {
	mu    sync.Mutex
	clock Clock
	store store.DataStore
}

// NewSessionManager creates a session manager over the given store.
func NewSessionManager(clock Clock, st store.DataStore) *SessionManager {
	return &SessionManager{clock: clock, store: st}
}

// Current returns today's session, creating a pending one at first
// interaction. A stale session from a previous day is implicitly completed
// before the fresh one is created.
func (m *SessionManager) Current(ctx context.Context) (*models.TradingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current(ctx)
}

func (m *SessionManager) current(ctx context.Context) (*models.TradingSession, error) {
	now := m.clock.Now()
	today := DayStart(now)

	s, err := m.store.GetSessionByDate(ctx, today)
	if err == nil {
		return s, nil
	}
	var nf *errors.NotFoundError
	if !errors.As(err, &nf) {
		return nil, err
	}

	if err := m.rollover(ctx, today, now); err != nil {
		return nil, err
	}

	s = NewSession(now)
	if err := m.store.InsertSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// rollover completes any still-active session from a previous day.
func (m *SessionManager) rollover(ctx context.Context, today, now time.Time) error {
	prev, err := m.store.GetLatestSession(ctx)
	if err != nil {
		var nf *errors.NotFoundError
		if errors.As(err, &nf) {
			return nil
		}
		return err
	}
	if !prev.Date.Before(today) || prev.State != models.SessionActive {
		return nil
	}
	if err := CompleteDay(prev, now); err != nil {
		return err
	}
	return m.store.UpdateSession(ctx, prev)
}

// Activate runs the pending→active transition on today's session and
// persists the result.
func (m *SessionManager) Activate(ctx context.Context) (*models.TradingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.current(ctx)
	if err != nil {
		return nil, err
	}
	if err := CompletePreSession(s, m.clock.Now()); err != nil {
		return nil, err
	}
	if err := m.store.UpdateSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// EndDay runs the active→completed transition on today's session and
// persists the result.
func (m *SessionManager) EndDay(ctx context.Context) (*models.TradingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.current(ctx)
	if err != nil {
		return nil, err
	}
	if err := CompleteDay(s, m.clock.Now()); err != nil {
		return nil, err
	}
	if err := m.store.UpdateSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Update applies fn to today's session while it is still pending or active
// and persists the result. Checklist, bias and key-level edits go through
// here. Completed sessions reject edits.
func (m *SessionManager) Update(ctx context.Context, fn func(*models.TradingSession)) (*models.TradingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.current(ctx)
	if err != nil {
		return nil, err
	}
	if s.State == models.SessionCompleted {
		return nil, errors.NewInvalidStateError("session", s.ID, string(s.State), "update")
	}
	fn(s)
	if err := m.store.UpdateSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}
