// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"tradedesk/internal/errors"
	"tradedesk/internal/models"
)

const sessionDateLayout = "2006-01-02"

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	events chan ChangeEvent

	mu     sync.Mutex
	closed bool
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:     db,
		events: make(chan ChangeEvent, 256),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Trading day sessions
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		state TEXT NOT NULL,
		calendar_reviewed INTEGER NOT NULL DEFAULT 0,
		levels_marked INTEGER NOT NULL DEFAULT 0,
		plan_written INTEGER NOT NULL DEFAULT 0,
		risk_accepted INTEGER NOT NULL DEFAULT 0,
		daily_bias TEXT NOT NULL DEFAULT '',
		prev_day_high REAL,
		prev_day_low REAL,
		prev_week_high REAL,
		prev_week_low REAL,
		started_at DATETIME,
		ended_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Journaled trades
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL,
		stop_loss REAL NOT NULL,
		take_profit REAL,
		position_size INTEGER NOT NULL,
		risk_amount REAL NOT NULL,
		entry_time DATETIME NOT NULL,
		exit_time DATETIME,
		status TEXT NOT NULL,
		pnl REAL,
		notes TEXT,
		setup_type TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trades_entry_time ON trades(entry_time);
	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
	CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Events returns the change-notification stream. Events are emitted after
// successful mutations; slow consumers may miss events rather than block
// writers.
func (s *SQLiteStore) Events() <-chan ChangeEvent {
	return s.events
}

func (s *SQLiteStore) emit(op ChangeOp, entity ChangeEntity, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ChangeEvent{Op: op, Entity: entity, ID: id, At: time.Now()}:
	default:
	}
}

// InsertTrade persists a new trade record.
func (s *SQLiteStore) InsertTrade(ctx context.Context, t *models.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
		(id, symbol, direction, entry_price, exit_price, stop_loss, take_profit,
		 position_size, risk_amount, entry_time, exit_time, status, pnl, notes, setup_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Symbol, string(t.Direction), t.EntryPrice, nullFloat(t.ExitPrice),
		t.StopLoss, nullFloat(t.TakeProfit), t.PositionSize, t.RiskAmount,
		t.EntryTime, nullTime(t.ExitTime), string(t.Status), nullFloat(t.PnL),
		t.Notes, t.SetupType,
	)
	if err != nil {
		return errors.NewStoreError("insert", "trade", err)
	}
	s.emit(OpInsert, EntityTrade, t.ID)
	return nil
}

// UpdateTrade rewrites the mutable columns of an existing trade.
func (s *SQLiteStore) UpdateTrade(ctx context.Context, t *models.Trade) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE trades
		SET exit_price = ?, exit_time = ?, status = ?, pnl = ?, notes = ?, setup_type = ?
		WHERE id = ?`,
		nullFloat(t.ExitPrice), nullTime(t.ExitTime), string(t.Status),
		nullFloat(t.PnL), t.Notes, t.SetupType, t.ID,
	)
	if err != nil {
		return errors.NewStoreError("update", "trade", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("trade", t.ID)
	}
	s.emit(OpUpdate, EntityTrade, t.ID)
	return nil
}

// DeleteTrade removes a trade record.
func (s *SQLiteStore) DeleteTrade(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return errors.NewStoreError("delete", "trade", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("trade", id)
	}
	s.emit(OpDelete, EntityTrade, id)
	return nil
}

const tradeColumns = `id, symbol, direction, entry_price, exit_price, stop_loss, take_profit,
	position_size, risk_amount, entry_time, exit_time, status, pnl, notes, setup_type`

// GetTrade returns a single trade by id.
func (s *SQLiteStore) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id)

	t, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("trade", id)
		}
		return nil, errors.NewStoreError("get", "trade", err)
	}
	return t, nil
}

// GetTrades returns trades matching the filter, ordered by entry time.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades`
	var conditions []string
	var args []interface{}

	if filter.Symbol != "" {
		conditions = append(conditions, "symbol = ?")
		args = append(args, filter.Symbol)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "entry_time >= ?")
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "entry_time < ?")
		args = append(args, filter.To)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY entry_time ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStoreError("query", "trades", err)
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, errors.NewStoreError("scan", "trade", err)
		}
		trades = append(trades, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("query", "trades", err)
	}
	return trades, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(sc scanner) (*models.Trade, error) {
	var t models.Trade
	var direction, status string
	var exitPrice, takeProfit, pnl sql.NullFloat64
	var exitTime sql.NullTime

	err := sc.Scan(
		&t.ID, &t.Symbol, &direction, &t.EntryPrice, &exitPrice, &t.StopLoss,
		&takeProfit, &t.PositionSize, &t.RiskAmount, &t.EntryTime, &exitTime,
		&status, &pnl, &t.Notes, &t.SetupType,
	)
	if err != nil {
		return nil, err
	}

	t.Direction = models.TradeDirection(direction)
	t.Status = models.TradeStatus(status)
	if exitPrice.Valid {
		t.ExitPrice = &exitPrice.Float64
	}
	if takeProfit.Valid {
		t.TakeProfit = &takeProfit.Float64
	}
	if pnl.Valid {
		t.PnL = &pnl.Float64
	}
	if exitTime.Valid {
		et := exitTime.Time
		t.ExitTime = &et
	}
	return &t, nil
}

// InsertSession persists a new trading day session.
func (s *SQLiteStore) InsertSession(ctx context.Context, sess *models.TradingSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(id, date, state, calendar_reviewed, levels_marked, plan_written, risk_accepted,
		 daily_bias, prev_day_high, prev_day_low, prev_week_high, prev_week_low,
		 started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Date.Format(sessionDateLayout), string(sess.State),
		sess.Checklist.CalendarReviewed, sess.Checklist.LevelsMarked,
		sess.Checklist.PlanWritten, sess.Checklist.RiskAccepted,
		string(sess.Bias),
		nullFloat(sess.Levels.PrevDayHigh), nullFloat(sess.Levels.PrevDayLow),
		nullFloat(sess.Levels.PrevWeekHigh), nullFloat(sess.Levels.PrevWeekLow),
		nullTime(sess.StartedAt), nullTime(sess.EndedAt),
	)
	if err != nil {
		return errors.NewStoreError("insert", "session", err)
	}
	s.emit(OpInsert, EntitySession, sess.ID)
	return nil
}

// UpdateSession rewrites the mutable columns of an existing session.
func (s *SQLiteStore) UpdateSession(ctx context.Context, sess *models.TradingSession) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET state = ?, calendar_reviewed = ?, levels_marked = ?, plan_written = ?,
		    risk_accepted = ?, daily_bias = ?, prev_day_high = ?, prev_day_low = ?,
		    prev_week_high = ?, prev_week_low = ?, started_at = ?, ended_at = ?
		WHERE id = ?`,
		string(sess.State),
		sess.Checklist.CalendarReviewed, sess.Checklist.LevelsMarked,
		sess.Checklist.PlanWritten, sess.Checklist.RiskAccepted,
		string(sess.Bias),
		nullFloat(sess.Levels.PrevDayHigh), nullFloat(sess.Levels.PrevDayLow),
		nullFloat(sess.Levels.PrevWeekHigh), nullFloat(sess.Levels.PrevWeekLow),
		nullTime(sess.StartedAt), nullTime(sess.EndedAt),
		sess.ID,
	)
	if err != nil {
		return errors.NewStoreError("update", "session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("session", sess.ID)
	}
	s.emit(OpUpdate, EntitySession, sess.ID)
	return nil
}

const sessionColumns = `id, date, state, calendar_reviewed, levels_marked, plan_written,
	risk_accepted, daily_bias, prev_day_high, prev_day_low, prev_week_high, prev_week_low,
	started_at, ended_at`

// GetSessionByDate returns the session for a calendar day, matching in the
// day's own timezone.
func (s *SQLiteStore) GetSessionByDate(ctx context.Context, date time.Time) (*models.TradingSession, error) {
	key := date.Format(sessionDateLayout)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE date = ?`, key)

	sess, err := scanSession(row, date.Location())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("session", key)
		}
		return nil, errors.NewStoreError("get", "session", err)
	}
	return sess, nil
}

// GetLatestSession returns the most recent session by date.
func (s *SQLiteStore) GetLatestSession(ctx context.Context) (*models.TradingSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY date DESC LIMIT 1`)

	sess, err := scanSession(row, time.Local)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("session", "latest")
		}
		return nil, errors.NewStoreError("get", "session", err)
	}
	return sess, nil
}

func scanSession(sc scanner, loc *time.Location) (*models.TradingSession, error) {
	var sess models.TradingSession
	var dateStr, state, bias string
	var pdh, pdl, pwh, pwl sql.NullFloat64
	var startedAt, endedAt sql.NullTime

	err := sc.Scan(
		&sess.ID, &dateStr, &state,
		&sess.Checklist.CalendarReviewed, &sess.Checklist.LevelsMarked,
		&sess.Checklist.PlanWritten, &sess.Checklist.RiskAccepted,
		&bias, &pdh, &pdl, &pwh, &pwl, &startedAt, &endedAt,
	)
	if err != nil {
		return nil, err
	}

	date, err := time.ParseInLocation(sessionDateLayout, dateStr, loc)
	if err != nil {
		return nil, err
	}

	sess.Date = date
	sess.State = models.SessionState(state)
	sess.Bias = models.DailyBias(bias)
	if pdh.Valid {
		sess.Levels.PrevDayHigh = &pdh.Float64
	}
	if pdl.Valid {
		sess.Levels.PrevDayLow = &pdl.Float64
	}
	if pwh.Valid {
		sess.Levels.PrevWeekHigh = &pwh.Float64
	}
	if pwl.Valid {
		sess.Levels.PrevWeekLow = &pwl.Float64
	}
	if startedAt.Valid {
		t := startedAt.Time
		sess.StartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		sess.EndedAt = &t
	}
	return &sess, nil
}

// Close closes the database and the event stream.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()
	return s.db.Close()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
