package models

import "time"

// TradeStatus represents the lifecycle state of a paper trade.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

// ExitReason identifies which exit rule closed a trade.
type ExitReason string

const (
	ExitStopLoss        ExitReason = "STOP_LOSS"
	ExitTargetHit       ExitReason = "TARGET_HIT"
	ExitBehaviorFailure ExitReason = "BEHAVIOR_FAILURE"
	ExitMaxHoldingDays  ExitReason = "MAX_HOLDING_DAYS"
)

// TradeOutcome classifies a closed trade's realized result.
type TradeOutcome string

const (
	OutcomeWin    TradeOutcome = "WIN"
	OutcomeLoss   TradeOutcome = "LOSS"
	OutcomeNoMove TradeOutcome = "NO_MOVE"
)

// EntryContext is the snapshot of classifier outputs at entry time.
// Frozen when the trade is created, never updated afterwards.
type EntryContext struct {
	MarketState      MarketState      `csv:"market_state"`
	FundamentalState FundamentalState `csv:"fundamental_state"`
	TrendState       TrendState       `csv:"trend_state"`
	EntryState       EntryState       `csv:"entry_state"`
	RSState          RSState          `csv:"rs_state"`
	Behavior         Behavior         `csv:"behavior"`
}

// PaperTrade is a single simulated position. It is created by the decision
// engine, mutated only by the position tracker, and becomes immutable once
// closed. MFE and MAE are percentages relative to the entry price; MFE is
// non-decreasing and MAE non-increasing while the trade is open.
type PaperTrade struct {
	ID         string    `csv:"trade_id"`
	Symbol     string    `csv:"symbol"`
	EntryDate  time.Time `csv:"entry_date"`
	EntryPrice float64   `csv:"entry_price"`

	Shares        int     `csv:"shares"`
	PositionValue float64 `csv:"position_value"`

	StopPrice      float64 `csv:"stop_price"`
	TargetPrice    float64 `csv:"target_price"`
	MaxHoldingDays int     `csv:"max_holding_days"`

	Context EntryContext `csv:"-"`

	Status      TradeStatus `csv:"status"`
	HoldingDays int         `csv:"holding_days"`
	MFE         float64     `csv:"mfe"`
	MAE         float64     `csv:"mae"`

	ExitDate   *time.Time   `csv:"-"`
	ExitPrice  float64      `csv:"exit_price"`
	ExitReason ExitReason   `csv:"exit_reason"`
	Outcome    TradeOutcome `csv:"outcome"`

	PnL    float64 `csv:"pnl"`
	PnLPct float64 `csv:"pnl_pct"`
}

// IsOpen reports whether the trade is still open.
func (t *PaperTrade) IsOpen() bool {
	return t.Status == TradeOpen
}

// Return is the realized fractional return for a closed trade,
// or the unrealized return against price for an open one.
func (t *PaperTrade) Return(price float64) float64 {
	if t.EntryPrice == 0 {
		return 0
	}
	return price/t.EntryPrice - 1
}
