package analysis

import (
	"testing"
	"time"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/models"
)

// trendingCandles builds n candles whose close moves by step per day from
// start. The intraday range is proportional to the close so the ATR%
// gauge stays flat, and volume is constant.
func trendingCandles(n int, start, step float64) []models.Candle {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	for i := range candles {
		close := start + step*float64(i)
		candles[i] = models.Candle{
			Date:   base.AddDate(0, 0, i),
			Open:   close * 0.995,
			High:   close * 1.01,
			Low:    close * 0.99,
			Close:  close,
			Volume: 100000,
		}
	}
	return candles
}

func enrichOrFail(t *testing.T, candles []models.Candle) *Series {
	t.Helper()
	s, err := Enrich("TEST", candles, 50)
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}
	return s
}

func TestEnrich_ShortHistoryFails(t *testing.T) {
	_, err := Enrich("TEST", trendingCandles(30, 100, 1), 50)
	if err == nil {
		t.Fatal("expected error for short history")
	}
	if !apperrors.Is(err, apperrors.ErrDataUnavailable) {
		t.Errorf("error should unwrap to ErrDataUnavailable, got %v", err)
	}
	var dataErr *apperrors.DataError
	if !apperrors.As(err, &dataErr) {
		t.Fatal("error should be a DataError")
	}
	if dataErr.Bars != 30 || dataErr.Need != 50 {
		t.Errorf("DataError bars/need = %d/%d, want 30/50", dataErr.Bars, dataErr.Need)
	}
}

func TestClassifyMarket(t *testing.T) {
	rising := trendingCandles(80, 100, 1)
	state, err := ClassifyMarket("INDEX", rising)
	if err != nil {
		t.Fatalf("ClassifyMarket failed: %v", err)
	}
	if state != models.MarketRiskOn {
		t.Errorf("rising index = %s, want RISK_ON", state)
	}

	falling := trendingCandles(80, 200, -1)
	state, err = ClassifyMarket("INDEX", falling)
	if err != nil {
		t.Fatalf("ClassifyMarket failed: %v", err)
	}
	if state != models.MarketRiskOff {
		t.Errorf("falling index = %s, want RISK_OFF", state)
	}

	if _, err := ClassifyMarket("INDEX", trendingCandles(20, 100, 1)); err == nil {
		t.Error("expected error for short index history")
	}
}

func TestClassifyTrendEntry_StrongUptrend(t *testing.T) {
	s := enrichOrFail(t, trendingCandles(80, 100, 1))
	trendState, entryState, trend, entry := ClassifyTrendEntry(s)

	if trendState != models.TrendStrong {
		t.Errorf("trend = %s, want STRONG (conditions %+v)", trendState, trend)
	}
	if !trend.PriceAboveEMA20 || !trend.EMA20AboveEMA50 || !trend.EMA20Rising {
		t.Errorf("uptrend structure conditions should hold: %+v", trend)
	}
	if !trend.NoSwingLowBreak {
		t.Error("rising lows must not read as a swing-low break")
	}

	// A relentless uptrend is overbought, not a pullback entry.
	if entryState != models.EntryNotOK {
		t.Errorf("entry = %s, want NOT_OK on an extended move", entryState)
	}
	if entry.RSIPullbackZone {
		t.Error("RSI near 100 should fail the pullback-zone check")
	}
}

func TestClassifyTrendEntry_Downtrend(t *testing.T) {
	s := enrichOrFail(t, trendingCandles(80, 200, -1))
	trendState, entryState, trend, _ := ClassifyTrendEntry(s)

	if trendState != models.TrendWeak {
		t.Errorf("trend = %s, want WEAK (conditions %+v)", trendState, trend)
	}
	if entryState != models.EntryNotOK {
		t.Errorf("entry = %s, want NOT_OK with no trend", entryState)
	}
}

func TestClassifyRS(t *testing.T) {
	th := RSThresholds{Strong: 0.02, Weak: -0.02, Lookback: 20}

	strongSymbol := trendingCandles(60, 100, 1) // ~+19% over 20 days late in series
	flatIndex := trendingCandles(60, 100, 0)

	state, rs, err := ClassifyRS(strongSymbol, flatIndex, "TEST", th)
	if err != nil {
		t.Fatalf("ClassifyRS failed: %v", err)
	}
	if state != models.RSStrong {
		t.Errorf("outperformer = %s (rs %.4f), want STRONG", state, rs)
	}

	state, rs, err = ClassifyRS(flatIndex, strongSymbol, "TEST", th)
	if err != nil {
		t.Fatalf("ClassifyRS failed: %v", err)
	}
	if state != models.RSWeak {
		t.Errorf("underperformer = %s (rs %.4f), want WEAK", state, rs)
	}

	state, rs, err = ClassifyRS(flatIndex, flatIndex, "TEST", th)
	if err != nil {
		t.Fatalf("ClassifyRS failed: %v", err)
	}
	if state != models.RSNeutral || rs != 0 {
		t.Errorf("matched performance = %s (rs %.4f), want NEUTRAL at 0", state, rs)
	}

	if _, _, err := ClassifyRS(trendingCandles(10, 100, 1), flatIndex, "TEST", th); err == nil {
		t.Error("expected error when symbol history is shorter than the lookback")
	}
}

func TestClassifyBehavior_SteadyUptrendContinues(t *testing.T) {
	s := enrichOrFail(t, trendingCandles(80, 100, 0.1))
	behavior, failure, _ := ClassifyBehavior(s, models.RSNeutral)

	if behavior != models.BehaviorContinuation {
		t.Errorf("behavior = %s, want CONTINUATION (failure signals %+v)", behavior, failure)
	}
	if failure.Count() != 0 {
		t.Errorf("steady uptrend should raise no failure signals, got %+v", failure)
	}
}

func TestClassifyBehavior_DistributionFails(t *testing.T) {
	// Uptrend that rolls over: the decline flattens the EMA and breaks the
	// recent swing low, two distribution signals.
	candles := trendingCandles(70, 100, 1)
	candles = append(candles, trendingCandles(15, 168, -2)...)
	fixDates(candles)

	s := enrichOrFail(t, candles)
	behavior, failure, _ := ClassifyBehavior(s, models.RSWeak)

	if behavior != models.BehaviorFailure {
		t.Errorf("behavior = %s, want FAILURE (signals %+v)", behavior, failure)
	}
	if failure.Count() < 2 {
		t.Errorf("rollover should raise at least two failure signals, got %+v", failure)
	}
}

func TestClassifyBehavior_FailureBeatsExpansion(t *testing.T) {
	// Declining series with weak RS: even if compression signals fire,
	// distribution wins.
	candles := trendingCandles(70, 150, 1)
	candles = append(candles, trendingCandles(12, 218, -1.5)...)
	fixDates(candles)

	s := enrichOrFail(t, candles)
	behavior, failure, expansion := ClassifyBehavior(s, models.RSWeak)

	if failure.Count() >= 2 && behavior != models.BehaviorFailure {
		t.Errorf("behavior = %s with %d failure signals (expansion %+v), want FAILURE",
			behavior, failure.Count(), expansion)
	}
}

func TestConsecutiveBarsAboveEMAs(t *testing.T) {
	s := enrichOrFail(t, trendingCandles(80, 100, 1))
	if got := s.ConsecutiveBarsAboveEMAs(); got == 0 {
		t.Error("steady uptrend should count trailing bars above both EMAs")
	}

	down := enrichOrFail(t, trendingCandles(80, 200, -1))
	if got := down.ConsecutiveBarsAboveEMAs(); got != 0 {
		t.Errorf("downtrend count = %d, want 0", got)
	}
}

// fixDates re-spaces candle dates after slices are concatenated.
func fixDates(candles []models.Candle) {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i].Date = base.AddDate(0, 0, i)
	}
}
