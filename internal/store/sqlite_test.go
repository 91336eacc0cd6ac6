package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"papertrader/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_TradeLifecycle(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	trade := sampleTrade("t-1")
	if err := s.UpsertTrades(ctx, []models.PaperTrade{trade}); err != nil {
		t.Fatalf("UpsertTrades failed: %v", err)
	}
	// Idempotent by id.
	if err := s.UpsertTrades(ctx, []models.PaperTrade{trade}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	loaded, err := s.LoadTrades(ctx)
	if err != nil {
		t.Fatalf("LoadTrades failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d trades, want 1", len(loaded))
	}
	if loaded[0].Context.TrendState != models.TrendStrong {
		t.Errorf("entry context lost: %+v", loaded[0].Context)
	}
	if loaded[0].ExitDate != nil {
		t.Error("open trade must have no exit date")
	}

	exitDate := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	trade.Status = models.TradeClosed
	trade.ExitDate = &exitDate
	trade.ExitPrice = 2750
	trade.ExitReason = models.ExitTargetHit
	trade.Outcome = models.OutcomeWin
	trade.PnLPct = 0.10
	if err := s.UpsertTrades(ctx, []models.PaperTrade{trade}); err != nil {
		t.Fatalf("close upsert failed: %v", err)
	}

	loaded, err = s.LoadTrades(ctx)
	if err != nil {
		t.Fatalf("LoadTrades failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d trades after close, want 1", len(loaded))
	}
	got := loaded[0]
	if got.Status != models.TradeClosed || got.Outcome != models.OutcomeWin {
		t.Errorf("closed state lost: %+v", got)
	}
	if got.ExitDate == nil || !got.ExitDate.Equal(exitDate) {
		t.Errorf("exit date = %v, want %v", got.ExitDate, exitDate)
	}

	n, err := s.CountClosedTrades(ctx)
	if err != nil {
		t.Fatalf("CountClosedTrades failed: %v", err)
	}
	if n != 1 {
		t.Errorf("closed count = %d, want 1", n)
	}
}

func TestSQLiteStore_AnalysisDedup(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	date := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	if err := s.AppendAnalysis(ctx, AnalysisEntry{
		AsOfDate: date, Symbol: "RELIANCE", TrendState: "NEUTRAL",
	}); err != nil {
		t.Fatalf("AppendAnalysis failed: %v", err)
	}
	if err := s.AppendAnalysis(ctx, AnalysisEntry{
		AsOfDate: date, Symbol: "RELIANCE", TrendState: "STRONG",
	}); err != nil {
		t.Fatalf("second AppendAnalysis failed: %v", err)
	}

	entries, err := s.GetAnalysisLog(ctx, AnalysisFilter{Symbol: "RELIANCE"})
	if err != nil {
		t.Fatalf("GetAnalysisLog failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("log holds %d entries, want 1", len(entries))
	}
	if entries[0].TrendState != "STRONG" {
		t.Errorf("last write must win, got %s", entries[0].TrendState)
	}
}

func TestSQLiteStore_CandleCache(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, 8)
	for i := range candles {
		candles[i] = models.Candle{
			Date: base.AddDate(0, 0, i), Open: 100, High: 102, Low: 99,
			Close: 101, Volume: 5000,
		}
	}

	if err := s.SaveCandles(ctx, "RELIANCE", candles); err != nil {
		t.Fatalf("SaveCandles failed: %v", err)
	}
	if err := s.SaveCandles(ctx, "RELIANCE", candles); err != nil {
		t.Fatalf("re-save failed: %v", err)
	}

	got, err := s.GetCandles(ctx, "RELIANCE", 3)
	if err != nil {
		t.Fatalf("GetCandles failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d candles, want 3", len(got))
	}
	if !got[2].Date.Equal(base.AddDate(0, 0, 7)) {
		t.Errorf("newest candle = %v, want %v", got[2].Date, base.AddDate(0, 0, 7))
	}
}
