// Package fundamentals provides the fundamental quality gate. The engine
// depends only on the Source interface; a static whitelist and an
// external-feed adapter are the two shipped implementations.
package fundamentals

import (
	"strings"

	"papertrader/internal/models"
)

// Result is a fundamental lookup verdict.
type Result struct {
	State  models.FundamentalState
	Score  float64
	Checks Checks
}

// Checks holds the five fundamental quality checks. A nil entry in Known
// means the metric was unavailable.
type Checks struct {
	EPSGrowth        bool
	PEReasonable     bool
	DebtAcceptable   bool
	ROEStrong        bool
	CashflowPositive bool
	MetricsAvailable bool
}

// Source is the pluggable fundamental lookup capability.
type Source interface {
	Classify(symbol string) Result
}

// DefaultState parses the configured default for symbols with no entry.
// PASS is never a permitted default; anything unrecognized degrades to
// the conservative FAIL.
func DefaultState(configured string) models.FundamentalState {
	switch strings.ToUpper(configured) {
	case "NEUTRAL":
		return models.FundamentalNeutral
	default:
		return models.FundamentalFail
	}
}

// Whitelist is a static quality list: listed symbols PASS, everything
// else gets the configured default.
type Whitelist struct {
	symbols map[string]struct{}
	absent  models.FundamentalState
}

// NewWhitelist creates a whitelist source from a symbol list.
func NewWhitelist(symbols []string, absentState models.FundamentalState) *Whitelist {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	return &Whitelist{symbols: set, absent: absentState}
}

// Classify returns PASS for whitelisted symbols and the absent-state
// default otherwise.
func (w *Whitelist) Classify(symbol string) Result {
	if _, ok := w.symbols[strings.ToUpper(symbol)]; ok {
		return Result{State: models.FundamentalPass, Score: 100}
	}
	return Result{State: w.absent, Score: defaultScore(w.absent)}
}

// Metrics holds the raw fundamental metrics an external feed provides.
type Metrics struct {
	EPSGrowth3Y       float64
	PE                float64
	IndustryPE        float64
	DebtEquity        float64
	ROE               float64
	OperatingCashflow float64
}

// FeedSource scores symbols from an external fundamental feed snapshot,
// refreshed quarterly outside this process.
type FeedSource struct {
	metrics map[string]Metrics
	absent  models.FundamentalState
}

// NewFeedSource creates a feed-backed source from a metrics snapshot.
func NewFeedSource(metrics map[string]Metrics, absentState models.FundamentalState) *FeedSource {
	bysym := make(map[string]Metrics, len(metrics))
	for sym, m := range metrics {
		bysym[strings.ToUpper(sym)] = m
	}
	return &FeedSource{metrics: bysym, absent: absentState}
}

// Classify scores the five quality checks: 4-5 passing is PASS, 2-3 is
// NEUTRAL, 0-1 is FAIL. Symbols without feed data get the configured
// default, never an optimistic PASS.
func (f *FeedSource) Classify(symbol string) Result {
	m, ok := f.metrics[strings.ToUpper(symbol)]
	if !ok {
		return Result{State: f.absent, Score: defaultScore(f.absent)}
	}

	peCeiling := 25.0
	if m.IndustryPE > 0 && m.IndustryPE < peCeiling {
		peCeiling = m.IndustryPE
	}

	checks := Checks{
		EPSGrowth:        m.EPSGrowth3Y > 10,
		PEReasonable:     m.PE > 0 && m.PE < peCeiling,
		DebtAcceptable:   m.DebtEquity < 0.5,
		ROEStrong:        m.ROE > 15,
		CashflowPositive: m.OperatingCashflow > 0,
		MetricsAvailable: true,
	}

	passed := 0
	for _, ok := range []bool{checks.EPSGrowth, checks.PEReasonable, checks.DebtAcceptable, checks.ROEStrong, checks.CashflowPositive} {
		if ok {
			passed++
		}
	}
	score := float64(passed) / 5 * 100

	state := models.FundamentalFail
	switch {
	case score >= 70:
		state = models.FundamentalPass
	case score >= 40:
		state = models.FundamentalNeutral
	}

	return Result{State: state, Score: score, Checks: checks}
}

func defaultScore(state models.FundamentalState) float64 {
	if state == models.FundamentalNeutral {
		return 60
	}
	return 0
}
