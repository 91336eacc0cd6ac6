package indicators

import (
	"math"
	"testing"
	"time"

	"papertrader/internal/models"
)

func TestEMA_SeedIsSimpleAverage(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}
	ema, err := EMA(values, 5)
	if err != nil {
		t.Fatalf("EMA failed: %v", err)
	}
	if math.Abs(ema[4]-30) > 1e-9 {
		t.Errorf("EMA seed = %.4f, want 30 (simple average of the first window)", ema[4])
	}
	for i := 0; i < 4; i++ {
		if ema[i] != 0 {
			t.Errorf("ema[%d] = %.4f, want 0 before warmup", i, ema[i])
		}
	}
}

func TestEMA_TracksRisingSeries(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	ema, err := EMA(values, 20)
	if err != nil {
		t.Fatalf("EMA failed: %v", err)
	}
	last := len(values) - 1
	if ema[last] >= values[last] {
		t.Errorf("EMA %.2f should lag the rising series close %.2f", ema[last], values[last])
	}
	if ema[last] <= ema[last-5] {
		t.Errorf("EMA should rise with the series: %.2f vs %.2f", ema[last], ema[last-5])
	}
}

func TestEMA_InsufficientData(t *testing.T) {
	if _, err := EMA([]float64{1, 2, 3}, 5); err != ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := EMA([]float64{1, 2, 3}, 0); err != ErrInvalidPeriod {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestRSI_AllGainsNearHundred(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 100 + float64(i)*2
	}
	rsi, err := RSI(values, 14)
	if err != nil {
		t.Fatalf("RSI failed: %v", err)
	}
	last := rsi[len(rsi)-1]
	if last < 99 {
		t.Errorf("RSI on a pure uptrend = %.2f, want near 100", last)
	}
}

func TestRSI_AllLossesNearZero(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 200 - float64(i)*2
	}
	rsi, err := RSI(values, 14)
	if err != nil {
		t.Fatalf("RSI failed: %v", err)
	}
	last := rsi[len(rsi)-1]
	if last > 1 {
		t.Errorf("RSI on a pure downtrend = %.2f, want near 0", last)
	}
}

func TestRollingMean_Window(t *testing.T) {
	values := []float64{2, 4, 6, 8, 10}
	mean, err := RollingMean(values, 3)
	if err != nil {
		t.Fatalf("RollingMean failed: %v", err)
	}
	if math.Abs(mean[2]-4) > 1e-9 || math.Abs(mean[4]-8) > 1e-9 {
		t.Errorf("rolling means wrong: got %.2f and %.2f, want 4 and 8", mean[2], mean[4])
	}
}

func TestATRPercent_FlatCandles(t *testing.T) {
	candles := makeCandles(30, func(i int) (o, h, l, c float64) {
		return 100, 101, 99, 100
	})
	atr, err := ATRPercent(candles, 14)
	if err != nil {
		t.Fatalf("ATRPercent failed: %v", err)
	}
	last := atr[len(atr)-1]
	if math.Abs(last-0.02) > 1e-9 {
		t.Errorf("ATR%% = %.4f, want 0.02 for a constant 2-point range on a 100 close", last)
	}
}

func TestHighestHighIndex(t *testing.T) {
	candles := makeCandles(10, func(i int) (o, h, l, c float64) {
		h = 100 + float64(i)
		if i == 6 {
			h = 200
		}
		return 100, h, 99, 100
	})
	if idx := HighestHighIndex(candles); idx != 6 {
		t.Errorf("HighestHighIndex = %d, want 6", idx)
	}
}

func makeCandles(n int, f func(i int) (o, h, l, c float64)) []models.Candle {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	for i := range candles {
		o, h, l, c := f(i)
		candles[i] = models.Candle{
			Date:   base.AddDate(0, 0, i),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: 100000,
		}
	}
	return candles
}
