package models

import "time"

// TrendConditions holds the individual trend checks behind a TrendState.
type TrendConditions struct {
	PriceAboveEMA20 bool
	EMA20AboveEMA50 bool
	EMA20Rising     bool
	RSIMomentum     bool
	NoSwingLowBreak bool
}

// Score returns the number of satisfied trend conditions.
func (c TrendConditions) Score() int {
	return countTrue(c.PriceAboveEMA20, c.EMA20AboveEMA50, c.EMA20Rising, c.RSIMomentum, c.NoSwingLowBreak)
}

// EntryConditions holds the individual entry-timing checks.
type EntryConditions struct {
	PullbackShallow bool
	RSIPullbackZone bool
	VolumeNormal    bool
}

// Score returns the number of satisfied entry conditions.
func (c EntryConditions) Score() int {
	return countTrue(c.PullbackShallow, c.RSIPullbackZone, c.VolumeNormal)
}

// FailureSignals holds the distribution checks behind a FAILURE behavior.
type FailureSignals struct {
	RSIDivergence  bool
	EMAFlattening  bool
	SwingLowBreak  bool
	EffortNoResult bool
	RSWeakening    bool
}

// Count returns the number of active failure signals.
func (s FailureSignals) Count() int {
	return countTrue(s.RSIDivergence, s.EMAFlattening, s.SwingLowBreak, s.EffortNoResult, s.RSWeakening)
}

// ExpansionSignals holds the compression checks behind an EXPANSION behavior.
type ExpansionSignals struct {
	VolatilityCompressed bool
	RangeTight           bool
	HigherLows           bool
	VolumeQuiet          bool
}

// Count returns the number of active expansion signals.
func (s ExpansionSignals) Count() int {
	return countTrue(s.VolatilityCompressed, s.RangeTight, s.HigherLows, s.VolumeQuiet)
}

// AnalysisResult is the complete classification output for one symbol on
// one analysis pass. It is immutable once produced and is appended to the
// analysis log whether or not a trade is opened.
type AnalysisResult struct {
	Symbol   string
	AsOfDate time.Time

	MarketState      MarketState
	FundamentalState FundamentalState
	FundamentalScore float64

	TrendState      TrendState
	EntryState      EntryState
	TrendConditions TrendConditions
	EntryConditions EntryConditions

	RSState RSState
	RSValue float64

	Behavior         Behavior
	FailureSignals   FailureSignals
	ExpansionSignals ExpansionSignals

	ConsecutiveBars int

	Close     float64
	EMA20     float64
	EMA50     float64
	RSI       float64
	Volume    int64
	VolumeAvg float64

	Eligible         bool
	RejectionReasons []string
}

func countTrue(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
