package analysis

import (
	"papertrader/internal/analysis/indicators"
	"papertrader/internal/models"
)

// Trend scoring cutoffs: 4+ of 5 conditions is a strong trend, 3 is a
// developing one, fewer means no usable structure.
const (
	trendStrongScore  = 4
	trendNeutralScore = 3
	entryOKScore      = 3
)

// RSI bands: momentum must exist for a trend, and entries are taken only
// from the pullback zone, not overbought extension.
const (
	rsiTrendFloor   = 40.0
	rsiEntryFloor   = 40.0
	rsiEntryCeiling = 60.0
)

// volumeClimaxRatio flags entry days whose volume already looks climactic.
const volumeClimaxRatio = 1.75

// maxPullbackDepth caps how much of the prior impulse a pullback may
// retrace and still count as shallow.
const maxPullbackDepth = 0.50

// ClassifyTrendEntry evaluates structural trend strength and, within that
// trend, entry timing. Entry is only meaningful when a trend exists: below
// the developing cutoff the entry state is NOT_OK regardless of the entry
// conditions.
func ClassifyTrendEntry(s *Series) (models.TrendState, models.EntryState, models.TrendConditions, models.EntryConditions) {
	n := s.Len()
	last := n - 1
	c := s.Last()

	trend := models.TrendConditions{
		PriceAboveEMA20: c.Close > s.EMA20[last],
		EMA20AboveEMA50: s.EMA20[last] > s.EMA50[last],
		EMA20Rising:     s.EMA20[last] > s.EMA20[n-5],
		RSIMomentum:     s.RSI[last] >= rsiTrendFloor,
		NoSwingLowBreak: !swingLowBroken(s.Candles),
	}

	entry := models.EntryConditions{
		PullbackShallow: pullbackShallow(s.Candles),
		RSIPullbackZone: s.RSI[last] >= rsiEntryFloor && s.RSI[last] <= rsiEntryCeiling,
		VolumeNormal:    float64(c.Volume) < s.VolAvg[last]*volumeClimaxRatio,
	}

	var trendState models.TrendState
	switch {
	case trend.Score() >= trendStrongScore:
		trendState = models.TrendStrong
	case trend.Score() >= trendNeutralScore:
		trendState = models.TrendNeutral
	default:
		trendState = models.TrendWeak
	}

	entryState := models.EntryNotOK
	if trend.Score() >= trendNeutralScore && entry.Score() >= entryOKScore {
		entryState = models.EntryOK
	}

	return trendState, entryState, trend, entry
}

// swingLowBroken compares the lowest low of the last five bars against the
// five bars before them.
func swingLowBroken(candles []models.Candle) bool {
	n := len(candles)
	if n < 10 {
		return false
	}
	last5 := indicators.LowestLow(candles[n-5:])
	prev5 := indicators.LowestLow(candles[n-10 : n-5])
	return last5 <= prev5
}

// pullbackShallow measures the retracement from the most recent 20-bar
// high against the impulse that produced it. A retracement of at most half
// the impulse keeps the structure intact.
func pullbackShallow(candles []models.Candle) bool {
	n := len(candles)
	if n < volumeAvgPeriod {
		return false
	}

	recent := candles[n-volumeAvgPeriod:]
	hiPos := n - volumeAvgPeriod + indicators.HighestHighIndex(recent)
	recentHigh := candles[hiPos].High

	lowAfterHigh := indicators.LowestLow(candles[hiPos:])

	priorStart := hiPos - 30
	if priorStart < 0 {
		priorStart = 0
	}
	prior := candles[priorStart:hiPos]
	if len(prior) == 0 {
		return false
	}
	priorLow := indicators.LowestLow(prior)

	impulse := recentHigh - priorLow
	if impulse <= 1e-6 || lowAfterHigh >= recentHigh {
		return false
	}

	depth := (recentHigh - lowAfterHigh) / impulse
	return depth <= maxPullbackDepth
}
