package trading

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"papertrader/internal/models"
)

// dayGen generates a plausible daily candle around the 100 entry price.
func dayGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(models.Candle{}), map[string]gopter.Gen{
		"Open":   gen.Float64Range(80, 120),
		"High":   gen.Float64Range(80, 120),
		"Low":    gen.Float64Range(80, 120),
		"Close":  gen.Float64Range(80, 120),
		"Volume": gen.Int64Range(1000, 10000000),
	}).Map(func(c models.Candle) models.Candle {
		c.High = math.Max(c.High, math.Max(c.Open, c.Close))
		c.Low = math.Min(c.Low, math.Min(c.Open, c.Close))
		if c.Low > c.High {
			c.Low, c.High = c.High, c.Low
		}
		return c
	})
}

func daySliceGen(maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, dayGen()).Map(func(days []models.Candle) []models.Candle {
		base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
		for i := range days {
			days[i].Date = base.AddDate(0, 0, i+1)
		}
		return days
	})
}

func TestProperty_ExcursionsMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("MFE never decreases and MAE never increases", prop.ForAll(
		func(days []models.Candle) bool {
			tr := newTestTracker()
			trade := openTrade()

			prevMFE, prevMAE := trade.MFE, trade.MAE
			for _, d := range days {
				tr.Update(trade, d, models.BehaviorContinuation)
				if trade.MFE < prevMFE || trade.MAE > prevMAE {
					return false
				}
				prevMFE, prevMAE = trade.MFE, trade.MAE
				if !trade.IsOpen() {
					break
				}
			}
			return true
		},
		daySliceGen(30),
	))

	properties.TestingRun(t)
}

func TestProperty_ClosedTradesStayClosed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("no candle sequence reopens or mutates a closed trade", prop.ForAll(
		func(days []models.Candle) bool {
			tr := newTestTracker()
			trade := openTrade()

			var snapshot models.PaperTrade
			closed := false
			for _, d := range days {
				tr.Update(trade, d, models.BehaviorContinuation)
				if closed && *trade != snapshot {
					return false
				}
				if !closed && !trade.IsOpen() {
					closed = true
					snapshot = *trade
				}
			}
			return true
		},
		daySliceGen(40),
	))

	properties.TestingRun(t)
}

func TestProperty_ExitPricePinnedToLevel(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("stop and target exits fill exactly at their level", prop.ForAll(
		func(days []models.Candle) bool {
			tr := newTestTracker()
			trade := openTrade()

			for _, d := range days {
				tr.Update(trade, d, models.BehaviorContinuation)
				if !trade.IsOpen() {
					switch trade.ExitReason {
					case models.ExitStopLoss:
						return trade.ExitPrice == trade.StopPrice &&
							trade.Outcome == models.OutcomeLoss
					case models.ExitTargetHit:
						return trade.ExitPrice == trade.TargetPrice &&
							trade.Outcome == models.OutcomeWin
					default:
						return true
					}
				}
			}
			return true
		},
		daySliceGen(30),
	))

	properties.TestingRun(t)
}
