// Package analysis provides the signal classifiers: market state, trend
// and entry timing, relative strength, and behavior. Each classifier is a
// pure function over enriched price history; none of them touch storage
// or configuration directly.
package analysis

import (
	"papertrader/internal/analysis/indicators"
	apperrors "papertrader/internal/errors"
	"papertrader/internal/models"
)

// Indicator periods behind the classifiers. These are structural to the
// rule definitions, not tunable configuration.
const (
	emaFastPeriod   = 20
	emaSlowPeriod   = 50
	rsiPeriod       = 14
	volumeAvgPeriod = 20
	atrPeriod       = 14
)

// Series is a symbol's candle history enriched with the indicator columns
// the classifiers read. Indices align with Candles; positions before an
// indicator's warmup are zero.
type Series struct {
	Symbol  string
	Candles []models.Candle
	Closes  []float64
	EMA20   []float64
	EMA50   []float64
	RSI     []float64
	VolAvg  []float64
}

// Enrich validates history length and computes the indicator columns.
// A history shorter than minBars fails with a DataError; the classifiers
// never guess on short input.
func Enrich(symbol string, candles []models.Candle, minBars int) (*Series, error) {
	if minBars < emaSlowPeriod {
		minBars = emaSlowPeriod
	}
	if len(candles) < minBars {
		return nil, apperrors.NewInsufficientData(symbol, len(candles), minBars)
	}

	closes := indicators.ClosePrices(candles)

	ema20, err := indicators.EMA(closes, emaFastPeriod)
	if err != nil {
		return nil, apperrors.NewInsufficientData(symbol, len(candles), emaFastPeriod)
	}
	ema50, err := indicators.EMA(closes, emaSlowPeriod)
	if err != nil {
		return nil, apperrors.NewInsufficientData(symbol, len(candles), emaSlowPeriod)
	}
	rsi, err := indicators.RSI(closes, rsiPeriod)
	if err != nil {
		return nil, apperrors.NewInsufficientData(symbol, len(candles), rsiPeriod+1)
	}
	volAvg, err := indicators.RollingMean(indicators.VolumeValues(candles), volumeAvgPeriod)
	if err != nil {
		return nil, apperrors.NewInsufficientData(symbol, len(candles), volumeAvgPeriod)
	}

	return &Series{
		Symbol:  symbol,
		Candles: candles,
		Closes:  closes,
		EMA20:   ema20,
		EMA50:   ema50,
		RSI:     rsi,
		VolAvg:  volAvg,
	}, nil
}

// Len returns the number of bars in the series.
func (s *Series) Len() int {
	return len(s.Candles)
}

// Last returns the most recent candle.
func (s *Series) Last() models.Candle {
	return s.Candles[len(s.Candles)-1]
}

// ConsecutiveBarsAboveEMAs counts the trailing run of closes above both EMAs.
func (s *Series) ConsecutiveBarsAboveEMAs() int {
	count := 0
	for i := s.Len() - 1; i >= emaSlowPeriod-1; i-- {
		upper := s.EMA20[i]
		if s.EMA50[i] > upper {
			upper = s.EMA50[i]
		}
		if s.Closes[i] > upper {
			count++
		} else {
			break
		}
	}
	return count
}
