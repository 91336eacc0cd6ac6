package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/models"
)

const dateLayout = "2006-01-02"

// CSVStore implements TradeStore on plain CSV files under a directory.
// Each write rewrites the whole file, which keeps upserts idempotent and
// the files hand-inspectable. Fine for a few thousand trades.
type CSVStore struct {
	dir string
	mu  sync.Mutex
}

// NewCSVStore creates a CSV-backed store rooted at dir.
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "candles"), 0755); err != nil {
		return nil, apperrors.NewStorageError("create store dir", err)
	}
	return &CSVStore{dir: dir}, nil
}

func (s *CSVStore) tradesPath() string   { return filepath.Join(s.dir, "paper_trades.csv") }
func (s *CSVStore) analysisPath() string { return filepath.Join(s.dir, "analysis_log.csv") }
func (s *CSVStore) candlesPath(symbol string) string {
	return filepath.Join(s.dir, "candles", strings.ToUpper(symbol)+".csv")
}

// tradeRecord is the flat CSV row for a PaperTrade. Dates are stored as
// YYYY-MM-DD strings so the files stay readable and diffable.
type tradeRecord struct {
	ID               string  `csv:"trade_id"`
	Symbol           string  `csv:"symbol"`
	EntryDate        string  `csv:"entry_date"`
	EntryPrice       float64 `csv:"entry_price"`
	Shares           int     `csv:"shares"`
	PositionValue    float64 `csv:"position_value"`
	StopPrice        float64 `csv:"stop_price"`
	TargetPrice      float64 `csv:"target_price"`
	MaxHoldingDays   int     `csv:"max_holding_days"`
	MarketState      string  `csv:"market_state"`
	FundamentalState string  `csv:"fundamental_state"`
	TrendState       string  `csv:"trend_state"`
	EntryState       string  `csv:"entry_state"`
	RSState          string  `csv:"rs_state"`
	Behavior         string  `csv:"behavior"`
	Status           string  `csv:"status"`
	HoldingDays      int     `csv:"holding_days"`
	MFE              float64 `csv:"mfe"`
	MAE              float64 `csv:"mae"`
	ExitDate         string  `csv:"exit_date"`
	ExitPrice        float64 `csv:"exit_price"`
	ExitReason       string  `csv:"exit_reason"`
	Outcome          string  `csv:"outcome"`
	PnL              float64 `csv:"pnl"`
	PnLPct           float64 `csv:"pnl_pct"`
}

func toRecord(t models.PaperTrade) tradeRecord {
	r := tradeRecord{
		ID:               t.ID,
		Symbol:           t.Symbol,
		EntryDate:        t.EntryDate.Format(dateLayout),
		EntryPrice:       t.EntryPrice,
		Shares:           t.Shares,
		PositionValue:    t.PositionValue,
		StopPrice:        t.StopPrice,
		TargetPrice:      t.TargetPrice,
		MaxHoldingDays:   t.MaxHoldingDays,
		MarketState:      string(t.Context.MarketState),
		FundamentalState: string(t.Context.FundamentalState),
		TrendState:       string(t.Context.TrendState),
		EntryState:       string(t.Context.EntryState),
		RSState:          string(t.Context.RSState),
		Behavior:         string(t.Context.Behavior),
		Status:           string(t.Status),
		HoldingDays:      t.HoldingDays,
		MFE:              t.MFE,
		MAE:              t.MAE,
		ExitPrice:        t.ExitPrice,
		ExitReason:       string(t.ExitReason),
		Outcome:          string(t.Outcome),
		PnL:              t.PnL,
		PnLPct:           t.PnLPct,
	}
	if t.ExitDate != nil {
		r.ExitDate = t.ExitDate.Format(dateLayout)
	}
	return r
}

func fromRecord(r tradeRecord) (models.PaperTrade, error) {
	entryDate, err := time.Parse(dateLayout, r.EntryDate)
	if err != nil {
		return models.PaperTrade{}, err
	}

	t := models.PaperTrade{
		ID:             r.ID,
		Symbol:         r.Symbol,
		EntryDate:      entryDate,
		EntryPrice:     r.EntryPrice,
		Shares:         r.Shares,
		PositionValue:  r.PositionValue,
		StopPrice:      r.StopPrice,
		TargetPrice:    r.TargetPrice,
		MaxHoldingDays: r.MaxHoldingDays,
		Context: models.EntryContext{
			MarketState:      models.MarketState(r.MarketState),
			FundamentalState: models.FundamentalState(r.FundamentalState),
			TrendState:       models.TrendState(r.TrendState),
			EntryState:       models.EntryState(r.EntryState),
			RSState:          models.RSState(r.RSState),
			Behavior:         models.Behavior(r.Behavior),
		},
		Status:      models.TradeStatus(r.Status),
		HoldingDays: r.HoldingDays,
		MFE:         r.MFE,
		MAE:         r.MAE,
		ExitPrice:   r.ExitPrice,
		ExitReason:  models.ExitReason(r.ExitReason),
		Outcome:     models.TradeOutcome(r.Outcome),
		PnL:         r.PnL,
		PnLPct:      r.PnLPct,
	}
	if r.ExitDate != "" {
		d, perr := time.Parse(dateLayout, r.ExitDate)
		if perr == nil {
			t.ExitDate = &d
		}
	}
	return t, nil
}

func (s *CSVStore) loadTradeRecords() ([]tradeRecord, error) {
	f, err := os.Open(s.tradesPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("open trades file", err)
	}
	defer f.Close()

	var records []tradeRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		if err == gocsv.ErrEmptyCSVFile {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("parse trades file", err)
	}
	return records, nil
}

func (s *CSVStore) writeTradeRecords(records []tradeRecord) error {
	f, err := os.Create(s.tradesPath())
	if err != nil {
		return apperrors.NewStorageError("write trades file", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&records, f); err != nil {
		return apperrors.NewStorageError("marshal trades", err)
	}
	return nil
}

// LoadTrades returns all trades ordered by entry date.
func (s *CSVStore) LoadTrades(ctx context.Context) ([]models.PaperTrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadTradeRecords()
	if err != nil {
		return nil, err
	}

	trades := make([]models.PaperTrade, 0, len(records))
	for _, r := range records {
		t, perr := fromRecord(r)
		if perr != nil {
			return nil, apperrors.NewStorageError("parse trade record", perr)
		}
		trades = append(trades, t)
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].EntryDate.Before(trades[j].EntryDate)
	})
	return trades, nil
}

// UpsertTrades merges trades into the file keyed by trade id.
func (s *CSVStore) UpsertTrades(ctx context.Context, trades []models.PaperTrade) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadTradeRecords()
	if err != nil {
		return err
	}

	index := make(map[string]int, len(existing))
	for i, r := range existing {
		index[r.ID] = i
	}

	for _, t := range trades {
		r := toRecord(t)
		if i, ok := index[r.ID]; ok {
			existing[i] = r
		} else {
			index[r.ID] = len(existing)
			existing = append(existing, r)
		}
	}

	return s.writeTradeRecords(existing)
}

// CountClosedTrades returns the number of CLOSED trades on record.
func (s *CSVStore) CountClosedTrades(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadTradeRecords()
	if err != nil {
		return 0, err
	}

	n := 0
	for _, r := range records {
		if r.Status == string(models.TradeClosed) {
			n++
		}
	}
	return n, nil
}

// analysisRecord mirrors AnalysisEntry with a string date column.
type analysisRecord struct {
	AsOfDate         string  `csv:"date"`
	Symbol           string  `csv:"symbol"`
	MarketState      string  `csv:"market_state"`
	FundamentalState string  `csv:"fundamental_state"`
	FundamentalScore float64 `csv:"fundamental_score"`
	TrendState       string  `csv:"trend_state"`
	EntryState       string  `csv:"entry_state"`
	RSState          string  `csv:"rs_state"`
	RSValue          float64 `csv:"rs_value"`
	Behavior         string  `csv:"behavior"`
	Eligible         bool    `csv:"trade_eligible"`
	RejectionReasons string  `csv:"rejection_reasons"`
	Close            float64 `csv:"close"`
	RSI              float64 `csv:"rsi"`
	ConsecutiveBars  int     `csv:"consecutive_bars"`
}

func (s *CSVStore) loadAnalysisRecords() ([]analysisRecord, error) {
	f, err := os.Open(s.analysisPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("open analysis log", err)
	}
	defer f.Close()

	var records []analysisRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		if err == gocsv.ErrEmptyCSVFile {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("parse analysis log", err)
	}
	return records, nil
}

// AppendAnalysis records one analysis-log entry; a row for the same symbol
// and date is replaced in place.
func (s *CSVStore) AppendAnalysis(ctx context.Context, e AnalysisEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadAnalysisRecords()
	if err != nil {
		return err
	}

	r := analysisRecord{
		AsOfDate:         e.AsOfDate.Format(dateLayout),
		Symbol:           e.Symbol,
		MarketState:      e.MarketState,
		FundamentalState: e.FundamentalState,
		FundamentalScore: e.FundamentalScore,
		TrendState:       e.TrendState,
		EntryState:       e.EntryState,
		RSState:          e.RSState,
		RSValue:          e.RSValue,
		Behavior:         e.Behavior,
		Eligible:         e.Eligible,
		RejectionReasons: e.RejectionReasons,
		Close:            e.Close,
		RSI:              e.RSI,
		ConsecutiveBars:  e.ConsecutiveBars,
	}

	replaced := false
	for i := range records {
		if records[i].Symbol == r.Symbol && records[i].AsOfDate == r.AsOfDate {
			records[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, r)
	}

	f, err := os.Create(s.analysisPath())
	if err != nil {
		return apperrors.NewStorageError("write analysis log", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&records, f); err != nil {
		return apperrors.NewStorageError("marshal analysis log", err)
	}
	return nil
}

// GetAnalysisLog returns analysis entries matching the filter, newest first.
func (s *CSVStore) GetAnalysisLog(ctx context.Context, filter AnalysisFilter) ([]AnalysisEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadAnalysisRecords()
	if err != nil {
		return nil, err
	}

	var entries []AnalysisEntry
	for _, r := range records {
		date, perr := time.Parse(dateLayout, r.AsOfDate)
		if perr != nil {
			continue
		}
		if filter.Symbol != "" && !strings.EqualFold(r.Symbol, filter.Symbol) {
			continue
		}
		if !filter.StartDate.IsZero() && date.Before(filter.StartDate) {
			continue
		}
		if !filter.EndDate.IsZero() && date.After(filter.EndDate) {
			continue
		}
		entries = append(entries, AnalysisEntry{
			AsOfDate:         date,
			Symbol:           r.Symbol,
			MarketState:      r.MarketState,
			FundamentalState: r.FundamentalState,
			FundamentalScore: r.FundamentalScore,
			TrendState:       r.TrendState,
			EntryState:       r.EntryState,
			RSState:          r.RSState,
			RSValue:          r.RSValue,
			Behavior:         r.Behavior,
			Eligible:         r.Eligible,
			RejectionReasons: r.RejectionReasons,
			Close:            r.Close,
			RSI:              r.RSI,
			ConsecutiveBars:  r.ConsecutiveBars,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].AsOfDate.After(entries[j].AsOfDate)
	})
	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

// candleRecord is the flat CSV row for a cached candle.
type candleRecord struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume int64   `csv:"volume"`
}

// SaveCandles upserts candles for a symbol keyed by date.
func (s *CSVStore) SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byDate := map[string]candleRecord{}

	if f, err := os.Open(s.candlesPath(symbol)); err == nil {
		var existing []candleRecord
		uerr := gocsv.UnmarshalFile(f, &existing)
		f.Close()
		if uerr != nil && uerr != gocsv.ErrEmptyCSVFile {
			return apperrors.NewStorageError("parse candle cache", uerr)
		}
		for _, r := range existing {
			byDate[r.Date] = r
		}
	}

	for _, c := range candles {
		date := c.Date.Format(dateLayout)
		byDate[date] = candleRecord{
			Date: date, Open: c.Open, High: c.High, Low: c.Low,
			Close: c.Close, Volume: c.Volume,
		}
	}

	records := make([]candleRecord, 0, len(byDate))
	for _, r := range byDate {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })

	f, err := os.Create(s.candlesPath(symbol))
	if err != nil {
		return apperrors.NewStorageError("write candle cache", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&records, f); err != nil {
		return apperrors.NewStorageError("marshal candle cache", err)
	}
	return nil
}

// GetCandles returns the most recent lookback candles in chronological order.
func (s *CSVStore) GetCandles(ctx context.Context, symbol string, lookback int) ([]models.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.candlesPath(symbol))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("open candle cache", err)
	}
	defer f.Close()

	var records []candleRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		if err == gocsv.ErrEmptyCSVFile {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("parse candle cache", err)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	if lookback > 0 && len(records) > lookback {
		records = records[len(records)-lookback:]
	}

	candles := make([]models.Candle, 0, len(records))
	for _, r := range records {
		date, perr := time.Parse(dateLayout, r.Date)
		if perr != nil {
			continue
		}
		candles = append(candles, models.Candle{
			Date: date, Open: r.Open, High: r.High, Low: r.Low,
			Close: r.Close, Volume: r.Volume,
		})
	}
	return candles, nil
}

// Close is a no-op; the CSV store holds no open handles between calls.
func (s *CSVStore) Close() error {
	return nil
}

// Ensure CSVStore implements TradeStore
var _ TradeStore = (*CSVStore)(nil)
