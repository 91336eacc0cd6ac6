package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/models"
)

// SQLiteStore implements TradeStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based trade store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.NewStorageError("open", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("init schema", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Paper trades, upsert keyed by trade id
	CREATE TABLE IF NOT EXISTS paper_trades (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		entry_date DATETIME NOT NULL,
		entry_price REAL NOT NULL,
		shares INTEGER NOT NULL,
		position_value REAL NOT NULL,
		stop_price REAL NOT NULL,
		target_price REAL NOT NULL,
		max_holding_days INTEGER NOT NULL,
		market_state TEXT,
		fundamental_state TEXT,
		trend_state TEXT,
		entry_state TEXT,
		rs_state TEXT,
		behavior TEXT,
		status TEXT NOT NULL,
		holding_days INTEGER DEFAULT 0,
		mfe REAL DEFAULT 0,
		mae REAL DEFAULT 0,
		exit_date DATETIME,
		exit_price REAL,
		exit_reason TEXT,
		outcome TEXT,
		pnl REAL DEFAULT 0,
		pnl_pct REAL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Analysis log, one row per symbol per analysis date, last write wins
	CREATE TABLE IF NOT EXISTS analysis_log (
		symbol TEXT NOT NULL,
		as_of_date DATE NOT NULL,
		market_state TEXT,
		fundamental_state TEXT,
		fundamental_score REAL,
		trend_state TEXT,
		entry_state TEXT,
		rs_state TEXT,
		rs_value REAL,
		behavior TEXT,
		trade_eligible INTEGER NOT NULL,
		rejection_reasons TEXT,
		close REAL,
		rsi REAL,
		consecutive_bars INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (symbol, as_of_date)
	);

	-- Candle cache for offline re-runs
	CREATE TABLE IF NOT EXISTS candles (
		symbol TEXT NOT NULL,
		date DATE NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		PRIMARY KEY (symbol, date)
	);

	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON paper_trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_status ON paper_trades(status);
	CREATE INDEX IF NOT EXISTS idx_analysis_symbol ON analysis_log(symbol);
	CREATE INDEX IF NOT EXISTS idx_candles_symbol ON candles(symbol);
	`

	_, err := s.db.Exec(schema)
	return err
}

// LoadTrades returns all trades ordered by entry date.
func (s *SQLiteStore) LoadTrades(ctx context.Context) ([]models.PaperTrade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, entry_date, entry_price, shares, position_value,
			stop_price, target_price, max_holding_days,
			market_state, fundamental_state, trend_state, entry_state, rs_state, behavior,
			status, holding_days, mfe, mae,
			exit_date, exit_price, exit_reason, outcome, pnl, pnl_pct
		FROM paper_trades ORDER BY entry_date`)
	if err != nil {
		return nil, apperrors.NewStorageError("load trades", err)
	}
	defer rows.Close()

	var trades []models.PaperTrade
	for rows.Next() {
		var t models.PaperTrade
		var exitDate sql.NullTime
		var exitPrice sql.NullFloat64
		var exitReason, outcome sql.NullString

		err := rows.Scan(
			&t.ID, &t.Symbol, &t.EntryDate, &t.EntryPrice, &t.Shares, &t.PositionValue,
			&t.StopPrice, &t.TargetPrice, &t.MaxHoldingDays,
			&t.Context.MarketState, &t.Context.FundamentalState, &t.Context.TrendState,
			&t.Context.EntryState, &t.Context.RSState, &t.Context.Behavior,
			&t.Status, &t.HoldingDays, &t.MFE, &t.MAE,
			&exitDate, &exitPrice, &exitReason, &outcome, &t.PnL, &t.PnLPct,
		)
		if err != nil {
			return nil, apperrors.NewStorageError("scan trade", err)
		}

		if exitDate.Valid {
			d := exitDate.Time
			t.ExitDate = &d
		}
		if exitPrice.Valid {
			t.ExitPrice = exitPrice.Float64
		}
		if exitReason.Valid {
			t.ExitReason = models.ExitReason(exitReason.String)
		}
		if outcome.Valid {
			t.Outcome = models.TradeOutcome(outcome.String)
		}

		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// UpsertTrades inserts or replaces trades keyed by id.
func (s *SQLiteStore) UpsertTrades(ctx context.Context, trades []models.PaperTrade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("begin upsert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO paper_trades (
			id, symbol, entry_date, entry_price, shares, position_value,
			stop_price, target_price, max_holding_days,
			market_state, fundamental_state, trend_state, entry_state, rs_state, behavior,
			status, holding_days, mfe, mae,
			exit_date, exit_price, exit_reason, outcome, pnl, pnl_pct
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperrors.NewStorageError("prepare upsert", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		var exitDate interface{}
		var exitPrice interface{}
		var exitReason, outcome interface{}
		if t.ExitDate != nil {
			exitDate = *t.ExitDate
		}
		if t.Status == models.TradeClosed {
			exitPrice = t.ExitPrice
			exitReason = string(t.ExitReason)
			outcome = string(t.Outcome)
		}

		_, err := stmt.ExecContext(ctx,
			t.ID, t.Symbol, t.EntryDate, t.EntryPrice, t.Shares, t.PositionValue,
			t.StopPrice, t.TargetPrice, t.MaxHoldingDays,
			string(t.Context.MarketState), string(t.Context.FundamentalState),
			string(t.Context.TrendState), string(t.Context.EntryState),
			string(t.Context.RSState), string(t.Context.Behavior),
			string(t.Status), t.HoldingDays, t.MFE, t.MAE,
			exitDate, exitPrice, exitReason, outcome, t.PnL, t.PnLPct,
		)
		if err != nil {
			return apperrors.NewStorageError("upsert trade", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit upsert", err)
	}
	return nil
}

// CountClosedTrades returns the number of CLOSED trades on record.
func (s *SQLiteStore) CountClosedTrades(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM paper_trades WHERE status = ?`, string(models.TradeClosed)).Scan(&n)
	if err != nil {
		return 0, apperrors.NewStorageError("count closed", err)
	}
	return n, nil
}

// AppendAnalysis records one analysis-log entry; re-analysis of the same
// symbol and date replaces the earlier row.
func (s *SQLiteStore) AppendAnalysis(ctx context.Context, e AnalysisEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analysis_log (
			symbol, as_of_date, market_state, fundamental_state, fundamental_score,
			trend_state, entry_state, rs_state, rs_value, behavior,
			trade_eligible, rejection_reasons, close, rsi, consecutive_bars
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Symbol, e.AsOfDate.Format("2006-01-02"), e.MarketState, e.FundamentalState, e.FundamentalScore,
		e.TrendState, e.EntryState, e.RSState, e.RSValue, e.Behavior,
		e.Eligible, e.RejectionReasons, e.Close, e.RSI, e.ConsecutiveBars,
	)
	if err != nil {
		return apperrors.NewStorageError("append analysis", err)
	}
	return nil
}

// GetAnalysisLog returns analysis entries matching the filter, newest first.
func (s *SQLiteStore) GetAnalysisLog(ctx context.Context, f AnalysisFilter) ([]AnalysisEntry, error) {
	query := `
		SELECT symbol, as_of_date, market_state, fundamental_state, fundamental_score,
			trend_state, entry_state, rs_state, rs_value, behavior,
			trade_eligible, rejection_reasons, close, rsi, consecutive_bars
		FROM analysis_log WHERE 1=1`
	var args []interface{}

	if f.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, f.Symbol)
	}
	if !f.StartDate.IsZero() {
		query += " AND as_of_date >= ?"
		args = append(args, f.StartDate.Format("2006-01-02"))
	}
	if !f.EndDate.IsZero() {
		query += " AND as_of_date <= ?"
		args = append(args, f.EndDate.Format("2006-01-02"))
	}
	query += " ORDER BY as_of_date DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("get analysis log", err)
	}
	defer rows.Close()

	var entries []AnalysisEntry
	for rows.Next() {
		var e AnalysisEntry
		err := rows.Scan(
			&e.Symbol, &e.AsOfDate, &e.MarketState, &e.FundamentalState, &e.FundamentalScore,
			&e.TrendState, &e.EntryState, &e.RSState, &e.RSValue, &e.Behavior,
			&e.Eligible, &e.RejectionReasons, &e.Close, &e.RSI, &e.ConsecutiveBars,
		)
		if err != nil {
			return nil, apperrors.NewStorageError("scan analysis", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// SaveCandles upserts candles for a symbol keyed by date.
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("begin candles", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperrors.NewStorageError("prepare candles", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx, symbol, c.Date.Format("2006-01-02"),
			c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			return apperrors.NewStorageError("upsert candle", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit candles", err)
	}
	return nil
}

// GetCandles returns the most recent lookback candles for a symbol in
// chronological order.
func (s *SQLiteStore) GetCandles(ctx context.Context, symbol string, lookback int) ([]models.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume FROM candles
		WHERE symbol = ? ORDER BY date DESC LIMIT ?`, symbol, lookback)
	if err != nil {
		return nil, apperrors.NewStorageError("get candles", err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Date, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, apperrors.NewStorageError("scan candle", err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("get candles", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements TradeStore
var _ TradeStore = (*SQLiteStore)(nil)
