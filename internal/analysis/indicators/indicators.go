// Package indicators provides the numeric kernels used by the signal
// classifiers: moving averages, RSI, rolling volume and range statistics.
package indicators

import (
	"errors"

	"papertrader/internal/models"
)

var (
	// ErrInsufficientData is returned when there's not enough data for calculation.
	ErrInsufficientData = errors.New("insufficient data for calculation")
	// ErrInvalidPeriod is returned when the period is invalid.
	ErrInvalidPeriod = errors.New("invalid period")
)

// EMA calculates an exponential moving average over values. The first
// period values are seeded with the simple average; positions before
// period-1 are zero.
func EMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(values) < period {
		return nil, ErrInsufficientData
	}

	result := make([]float64, len(values))
	multiplier := 2.0 / float64(period+1)

	result[period-1] = Mean(values[:period])
	for i := period; i < len(values); i++ {
		result[i] = (values[i]-result[i-1])*multiplier + result[i-1]
	}

	return result, nil
}

// RSI calculates the Relative Strength Index using rolling average gains
// and losses. Positions before the warmup window are zero.
func RSI(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(values) < period+1 {
		return nil, ErrInsufficientData
	}

	n := len(values)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	result := make([]float64, n)
	for i := period; i < n; i++ {
		avgGain := Mean(gains[i-period+1 : i+1])
		avgLoss := Mean(losses[i-period+1 : i+1])
		if avgLoss == 0 {
			avgLoss = 1e-10
		}
		rs := avgGain / avgLoss
		result[i] = 100 - 100/(1+rs)
	}

	return result, nil
}

// RollingMean calculates a simple rolling mean with the given window.
// Positions before the window fills are zero.
func RollingMean(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(values) < window {
		return nil, ErrInsufficientData
	}

	result := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			result[i] = sum / float64(window)
		}
	}
	return result, nil
}

// ATRPercent calculates the rolling mean of (high-low) normalized by close.
// Used as a cheap volatility gauge for compression detection.
func ATRPercent(candles []models.Candle, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < period {
		return nil, ErrInsufficientData
	}

	ranges := make([]float64, len(candles))
	for i, c := range candles {
		ranges[i] = c.High - c.Low
	}
	atr, err := RollingMean(ranges, period)
	if err != nil {
		return nil, err
	}

	result := make([]float64, len(candles))
	for i := period - 1; i < len(candles); i++ {
		if candles[i].Close > 0 {
			result[i] = atr[i] / candles[i].Close
		}
	}
	return result, nil
}

// Mean calculates the arithmetic mean of a slice of float64.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// ClosePrices extracts close prices from candles.
func ClosePrices(candles []models.Candle) []float64 {
	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Close
	}
	return prices
}

// VolumeValues extracts volumes from candles as float64.
func VolumeValues(candles []models.Candle) []float64 {
	vols := make([]float64, len(candles))
	for i, c := range candles {
		vols[i] = float64(c.Volume)
	}
	return vols
}

// HighestHigh returns the highest high over the candle slice.
func HighestHigh(candles []models.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	h := candles[0].High
	for _, c := range candles[1:] {
		if c.High > h {
			h = c.High
		}
	}
	return h
}

// LowestLow returns the lowest low over the candle slice.
func LowestLow(candles []models.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	l := candles[0].Low
	for _, c := range candles[1:] {
		if c.Low < l {
			l = c.Low
		}
	}
	return l
}

// HighestHighIndex returns the index of the highest high.
func HighestHighIndex(candles []models.Candle) int {
	if len(candles) == 0 {
		return -1
	}
	idx := 0
	h := candles[0].High
	for i, c := range candles[1:] {
		if c.High > h {
			h = c.High
			idx = i + 1
		}
	}
	return idx
}
