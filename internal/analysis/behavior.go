package analysis

import (
	"papertrader/internal/analysis/indicators"
	"papertrader/internal/models"
)

// Behavior detection cutoffs. Failure is checked first and wins: any two
// distribution signals force FAILURE no matter how compressed the range
// looks. Expansion needs three of four compression signals.
const (
	failureSignalCutoff   = 2
	expansionSignalCutoff = 3
)

// effortVolumeRatio marks a high-effort day; paired with a down close it
// reads as effort without result (distribution).
const effortVolumeRatio = 1.5

// rangeTightRatio bounds a 15-bar range relative to its high for the
// tight-range expansion signal.
const (
	rangeTightBars  = 15
	rangeTightRatio = 0.08
)

// ClassifyBehavior classifies recent price/volume interaction into
// CONTINUATION, EXPANSION, or FAILURE. The same function serves as the
// entry gate (only CONTINUATION is eligible) and as the live exit trigger
// on open positions.
func ClassifyBehavior(s *Series, rsState models.RSState) (models.Behavior, models.FailureSignals, models.ExpansionSignals) {
	n := s.Len()
	last := n - 1
	c := s.Last()

	failure := models.FailureSignals{
		RSIDivergence:  c.Close > s.Closes[n-10] && s.RSI[last] < s.RSI[n-10],
		EMAFlattening:  s.EMA20[last] <= s.EMA20[n-3],
		SwingLowBreak:  swingLowBroken(s.Candles),
		EffortNoResult: float64(c.Volume) > s.VolAvg[last]*effortVolumeRatio && c.Close <= s.Closes[n-2],
		RSWeakening:    rsState == models.RSWeak,
	}

	expansion := models.ExpansionSignals{
		VolatilityCompressed: volatilityCompressed(s.Candles),
		RangeTight:           rangeTight(s.Candles),
		HigherLows:           s.Candles[n-3].Low > s.Candles[n-6].Low,
		VolumeQuiet:          float64(c.Volume) < s.VolAvg[last],
	}

	if failure.Count() >= failureSignalCutoff {
		return models.BehaviorFailure, failure, expansion
	}
	if expansion.Count() >= expansionSignalCutoff {
		return models.BehaviorExpansion, failure, expansion
	}
	return models.BehaviorContinuation, failure, expansion
}

// volatilityCompressed reports whether current ATR% sits below its own
// 20-bar mean.
func volatilityCompressed(candles []models.Candle) bool {
	atrPct, err := indicators.ATRPercent(candles, atrPeriod)
	if err != nil {
		return false
	}
	avg, err := indicators.RollingMean(atrPct, volumeAvgPeriod)
	if err != nil {
		return false
	}
	// Require both windows to have warmed up.
	if len(candles) < atrPeriod+volumeAvgPeriod {
		return false
	}
	last := len(candles) - 1
	return atrPct[last] < avg[last]
}

func rangeTight(candles []models.Candle) bool {
	n := len(candles)
	if n < rangeTightBars {
		return false
	}
	window := candles[n-rangeTightBars:]
	high := indicators.HighestHigh(window)
	low := indicators.LowestLow(window)
	if high <= 0 {
		return false
	}
	return (high-low)/high < rangeTightRatio
}
