package trading

import (
	"papertrader/internal/config"
	"papertrader/internal/models"
	"papertrader/pkg/utils"
)

// Tracker walks open paper trades forward one daily candle at a time,
// updating excursions and applying the exit rules. It never reopens a
// closed trade: updates on CLOSED trades are no-ops.
type Tracker struct {
	rules config.RuleConfig
}

// NewTracker creates a tracker bound to the locked rule constants.
func NewTracker(rules config.RuleConfig) *Tracker {
	return &Tracker{rules: rules}
}

// Update applies one daily candle to an open trade. behavior is the
// symbol's behavior classification as of the candle's date. The return
// value reports whether the trade was mutated and needs persisting.
//
// Exit rules fire in fixed priority: stop loss, target, behavior failure,
// max holding days. Intraday extremes trigger stop and target; a day that
// touches both counts as a stop. Excursions are recorded before the exit
// checks so MFE/MAE include the exit day.
func (tr *Tracker) Update(t *models.PaperTrade, day models.Candle, behavior models.Behavior) bool {
	if !t.IsOpen() {
		return false
	}
	// The entry day itself does not move the trade.
	if !day.Date.After(t.EntryDate) || utils.SameDay(day.Date, t.EntryDate) {
		return false
	}

	t.HoldingDays = utils.TradingDaysBetween(t.EntryDate, day.Date)

	if fav := t.Return(day.High); fav > t.MFE {
		t.MFE = fav
	}
	if adv := t.Return(day.Low); adv < t.MAE {
		t.MAE = adv
	}

	switch {
	case day.Low <= t.StopPrice:
		tr.close(t, day, t.StopPrice, models.ExitStopLoss)
		t.Outcome = models.OutcomeLoss
	case day.High >= t.TargetPrice:
		tr.close(t, day, t.TargetPrice, models.ExitTargetHit)
		t.Outcome = models.OutcomeWin
	case behavior == models.BehaviorFailure:
		tr.close(t, day, day.Close, models.ExitBehaviorFailure)
		t.Outcome = tr.outcome(t.PnLPct)
	case t.HoldingDays >= t.MaxHoldingDays:
		tr.close(t, day, day.Close, models.ExitMaxHoldingDays)
		t.Outcome = tr.outcome(t.PnLPct)
	}

	return true
}

func (tr *Tracker) close(t *models.PaperTrade, day models.Candle, price float64, reason models.ExitReason) {
	exitDate := day.Date
	t.Status = models.TradeClosed
	t.ExitDate = &exitDate
	t.ExitPrice = price
	t.ExitReason = reason
	t.PnLPct = t.Return(price)
	t.PnL = (price - t.EntryPrice) * float64(t.Shares)
}

// outcome buckets a realized return against the no-move band.
func (tr *Tracker) outcome(ret float64) models.TradeOutcome {
	switch {
	case ret > tr.rules.NoMoveBandPct:
		return models.OutcomeWin
	case ret < -tr.rules.NoMoveBandPct:
		return models.OutcomeLoss
	default:
		return models.OutcomeNoMove
	}
}
