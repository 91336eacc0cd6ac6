// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"strings"
	"time"

	"papertrader/internal/models"
)

// TradeStore defines the persistence contract the engine depends on.
// UpsertTrades must be idempotent upsert-by-id: repeated calls with the
// same records never duplicate or lose a trade.
type TradeStore interface {
	// Trades
	LoadTrades(ctx context.Context) ([]models.PaperTrade, error)
	UpsertTrades(ctx context.Context, trades []models.PaperTrade) error
	CountClosedTrades(ctx context.Context) (int, error)

	// Analysis log (append-only, deduped on symbol + as-of date,
	// last write wins)
	AppendAnalysis(ctx context.Context, entry AnalysisEntry) error
	GetAnalysisLog(ctx context.Context, filter AnalysisFilter) ([]AnalysisEntry, error)

	// Candle cache
	SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol string, lookback int) ([]models.Candle, error)

	// Lifecycle
	Close() error
}

// AnalysisEntry is the flattened analysis-log record.
type AnalysisEntry struct {
	AsOfDate         time.Time `csv:"date"`
	Symbol           string    `csv:"symbol"`
	MarketState      string    `csv:"market_state"`
	FundamentalState string    `csv:"fundamental_state"`
	FundamentalScore float64   `csv:"fundamental_score"`
	TrendState       string    `csv:"trend_state"`
	EntryState       string    `csv:"entry_state"`
	RSState          string    `csv:"rs_state"`
	RSValue          float64   `csv:"rs_value"`
	Behavior         string    `csv:"behavior"`
	Eligible         bool      `csv:"trade_eligible"`
	RejectionReasons string    `csv:"rejection_reasons"`
	Close            float64   `csv:"close"`
	RSI              float64   `csv:"rsi"`
	ConsecutiveBars  int       `csv:"consecutive_bars"`
}

// NewAnalysisEntry flattens an AnalysisResult into a log record.
func NewAnalysisEntry(r *models.AnalysisResult) AnalysisEntry {
	return AnalysisEntry{
		AsOfDate:         r.AsOfDate,
		Symbol:           r.Symbol,
		MarketState:      string(r.MarketState),
		FundamentalState: string(r.FundamentalState),
		FundamentalScore: r.FundamentalScore,
		TrendState:       string(r.TrendState),
		EntryState:       string(r.EntryState),
		RSState:          string(r.RSState),
		RSValue:          r.RSValue,
		Behavior:         string(r.Behavior),
		Eligible:         r.Eligible,
		RejectionReasons: strings.Join(r.RejectionReasons, "|"),
		Close:            r.Close,
		RSI:              r.RSI,
		ConsecutiveBars:  r.ConsecutiveBars,
	}
}

// AnalysisFilter represents filters for querying the analysis log.
type AnalysisFilter struct {
	Symbol    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

// TradeFilter narrows a trade listing.
type TradeFilter struct {
	Symbol string
	Status models.TradeStatus
	Limit  int
}

// FilterTrades applies a TradeFilter to an in-memory trade slice.
// Both store implementations load whole files, so filtering stays here.
func FilterTrades(trades []models.PaperTrade, f TradeFilter) []models.PaperTrade {
	var out []models.PaperTrade
	for _, t := range trades {
		if f.Symbol != "" && !strings.EqualFold(t.Symbol, f.Symbol) {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}
