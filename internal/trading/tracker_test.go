package trading

import (
	"math"
	"testing"
	"time"

	"papertrader/internal/config"
	"papertrader/internal/models"
)

// Monday, so the following days are all trading days.
var entryDay = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func openTrade() *models.PaperTrade {
	return &models.PaperTrade{
		ID:             "t-1",
		Symbol:         "RELIANCE",
		EntryDate:      entryDay,
		EntryPrice:     100,
		Shares:         1000,
		PositionValue:  100000,
		StopPrice:      95,
		TargetPrice:    110,
		MaxHoldingDays: 10,
		Status:         models.TradeOpen,
	}
}

func day(offset int, open, high, low, close float64) models.Candle {
	return models.Candle{
		Date:   entryDay.AddDate(0, 0, offset),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 100000,
	}
}

func newTestTracker() *Tracker {
	return NewTracker(config.DefaultRules())
}

func TestTracker_StopLossExit(t *testing.T) {
	tr := newTestTracker()
	trade := openTrade()

	changed := tr.Update(trade, day(1, 98, 99, 94, 96), models.BehaviorContinuation)
	if !changed {
		t.Fatal("trade should have been mutated")
	}
	if trade.Status != models.TradeClosed {
		t.Fatal("trade should be closed after the low touches the stop")
	}
	if trade.ExitReason != models.ExitStopLoss {
		t.Errorf("exit reason = %s, want STOP_LOSS", trade.ExitReason)
	}
	if trade.ExitPrice != 95 {
		t.Errorf("exit price = %.2f, want the stop price 95", trade.ExitPrice)
	}
	if trade.Outcome != models.OutcomeLoss {
		t.Errorf("outcome = %s, want LOSS", trade.Outcome)
	}
	if trade.PnL != -5000 {
		t.Errorf("pnl = %.2f, want -5000", trade.PnL)
	}
}

func TestTracker_TargetExit(t *testing.T) {
	tr := newTestTracker()
	trade := openTrade()

	tr.Update(trade, day(1, 105, 111, 104, 109), models.BehaviorContinuation)
	if trade.ExitReason != models.ExitTargetHit {
		t.Errorf("exit reason = %s, want TARGET_HIT", trade.ExitReason)
	}
	if trade.ExitPrice != 110 {
		t.Errorf("exit price = %.2f, want the target price 110", trade.ExitPrice)
	}
	if trade.Outcome != models.OutcomeWin {
		t.Errorf("outcome = %s, want WIN", trade.Outcome)
	}
}

func TestTracker_StopBeatsTargetSameDay(t *testing.T) {
	tr := newTestTracker()
	trade := openTrade()

	// Wide day touching both levels: the stop wins.
	tr.Update(trade, day(1, 100, 112, 94, 105), models.BehaviorContinuation)
	if trade.ExitReason != models.ExitStopLoss {
		t.Errorf("exit reason = %s, want STOP_LOSS when both levels trade", trade.ExitReason)
	}
	if trade.Outcome != models.OutcomeLoss {
		t.Errorf("outcome = %s, want LOSS", trade.Outcome)
	}
}

func TestTracker_BehaviorFailureExit(t *testing.T) {
	tr := newTestTracker()
	trade := openTrade()

	tr.Update(trade, day(1, 101, 103, 99, 102), models.BehaviorFailure)
	if trade.ExitReason != models.ExitBehaviorFailure {
		t.Errorf("exit reason = %s, want BEHAVIOR_FAILURE", trade.ExitReason)
	}
	if trade.ExitPrice != 102 {
		t.Errorf("exit price = %.2f, want the day's close 102", trade.ExitPrice)
	}
	if trade.Outcome != models.OutcomeWin {
		t.Errorf("outcome = %s, want WIN for a +2%% close", trade.Outcome)
	}
}

func TestTracker_StopBeatsBehaviorFailure(t *testing.T) {
	tr := newTestTracker()
	trade := openTrade()

	tr.Update(trade, day(1, 98, 99, 94, 96), models.BehaviorFailure)
	if trade.ExitReason != models.ExitStopLoss {
		t.Errorf("exit reason = %s, want STOP_LOSS over behavior failure", trade.ExitReason)
	}
}

func TestTracker_MaxHoldingDays(t *testing.T) {
	tr := newTestTracker()
	trade := openTrade()

	// Walk forward day by day, skipping weekends, with quiet candles that
	// trigger no price exit.
	offset := 0
	tradingDays := 0
	for tradingDays < 10 {
		offset++
		d := entryDay.AddDate(0, 0, offset)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		tradingDays++
		tr.Update(trade, day(offset, 100, 101, 99, 100.5), models.BehaviorContinuation)

		if tradingDays < 10 && !trade.IsOpen() {
			t.Fatalf("trade closed early on trading day %d: %s", tradingDays, trade.ExitReason)
		}
	}

	if trade.IsOpen() {
		t.Fatal("trade should close on the 10th trading day")
	}
	if trade.ExitReason != models.ExitMaxHoldingDays {
		t.Errorf("exit reason = %s, want MAX_HOLDING_DAYS", trade.ExitReason)
	}
	if trade.HoldingDays != 10 {
		t.Errorf("holding days = %d, want exactly 10", trade.HoldingDays)
	}
	// +0.5% close sits inside the no-move band.
	if trade.Outcome != models.OutcomeNoMove {
		t.Errorf("outcome = %s, want NO_MOVE", trade.Outcome)
	}
}

func TestTracker_NoMoveBandEdges(t *testing.T) {
	tr := newTestTracker()

	cases := []struct {
		close   float64
		outcome models.TradeOutcome
	}{
		{101.5, models.OutcomeWin},
		{98.5, models.OutcomeLoss},
		{100.9, models.OutcomeNoMove},
		{99.1, models.OutcomeNoMove},
	}

	for _, tc := range cases {
		trade := openTrade()
		tr.Update(trade, day(1, 100, tc.close+0.5, tc.close-0.5, tc.close), models.BehaviorFailure)
		if trade.Outcome != tc.outcome {
			t.Errorf("close %.2f: outcome = %s, want %s", tc.close, trade.Outcome, tc.outcome)
		}
	}
}

func TestTracker_ClosedTradeIsNoOp(t *testing.T) {
	tr := newTestTracker()
	trade := openTrade()

	tr.Update(trade, day(1, 98, 99, 94, 96), models.BehaviorContinuation)
	if trade.IsOpen() {
		t.Fatal("setup: trade should be closed")
	}
	snapshot := *trade

	if changed := tr.Update(trade, day(2, 90, 120, 80, 100), models.BehaviorFailure); changed {
		t.Error("update on a closed trade must report no change")
	}
	if *trade != snapshot {
		t.Error("closed trade must not be mutated")
	}
}

func TestTracker_EntryDayIsNoOp(t *testing.T) {
	tr := newTestTracker()
	trade := openTrade()

	if changed := tr.Update(trade, day(0, 100, 112, 94, 100), models.BehaviorFailure); changed {
		t.Error("the entry day candle must not move the trade")
	}
	if !trade.IsOpen() {
		t.Error("trade must stay open through its entry day")
	}
}

func TestTracker_ExcursionsIncludeExitDay(t *testing.T) {
	tr := newTestTracker()
	trade := openTrade()

	// First day: high 104, low 98.
	tr.Update(trade, day(1, 100, 104, 98, 103), models.BehaviorContinuation)
	if !approx(trade.MFE, 0.04) {
		t.Errorf("MFE = %.4f, want 0.04", trade.MFE)
	}
	if !approx(trade.MAE, -0.02) {
		t.Errorf("MAE = %.4f, want -0.02", trade.MAE)
	}

	// Stop day with a prior spike: both excursions update before the exit.
	tr.Update(trade, day(2, 103, 106, 94, 95), models.BehaviorContinuation)
	if trade.Status != models.TradeClosed {
		t.Fatal("trade should be stopped out")
	}
	if !approx(trade.MFE, 0.06) {
		t.Errorf("MFE = %.4f, want 0.06 from the exit day's high", trade.MFE)
	}
	if !approx(trade.MAE, -0.06) {
		t.Errorf("MAE = %.4f, want -0.06 from the exit day's low", trade.MAE)
	}
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}
