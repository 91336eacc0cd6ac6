// Package models provides domain models for the paper trading engine.
package models

import (
	"time"
)

// MarketState represents the broad index-level risk environment.
type MarketState string

const (
	MarketRiskOn  MarketState = "RISK_ON"
	MarketRiskOff MarketState = "RISK_OFF"
)

// FundamentalState represents the fundamental quality gate verdict.
type FundamentalState string

const (
	FundamentalPass    FundamentalState = "PASS"
	FundamentalNeutral FundamentalState = "NEUTRAL"
	FundamentalFail    FundamentalState = "FAIL"
)

// TrendState represents structural trend strength.
type TrendState string

const (
	TrendStrong  TrendState = "STRONG"
	TrendNeutral TrendState = "NEUTRAL"
	TrendWeak    TrendState = "WEAK"
)

// EntryState represents entry timing quality within a trend.
type EntryState string

const (
	EntryOK    EntryState = "OK"
	EntryNotOK EntryState = "NOT_OK"
)

// RSState represents relative strength vs the benchmark index.
type RSState string

const (
	RSStrong  RSState = "STRONG"
	RSNeutral RSState = "NEUTRAL"
	RSWeak    RSState = "WEAK"
)

// Behavior classifies recent price/volume interaction.
type Behavior string

const (
	BehaviorContinuation Behavior = "CONTINUATION"
	BehaviorExpansion    Behavior = "EXPANSION"
	BehaviorFailure      Behavior = "FAILURE"
)

// Candle represents OHLCV data for a single trading day.
type Candle struct {
	Date   time.Time `csv:"date"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume int64     `csv:"volume"`
}
