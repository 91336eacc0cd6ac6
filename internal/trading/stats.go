package trading

import "papertrader/internal/models"

// Stats summarizes closed-trade performance. Open trades contribute only
// to the open count; every realized figure comes from closed trades.
type Stats struct {
	Total  int
	Open   int
	Closed int

	Wins    int
	Losses  int
	NoMoves int

	WinRate    float64 // wins / closed
	AvgWinPct  float64
	AvgLossPct float64
	TotalPnL   float64

	AvgHoldingDays float64
	AvgMFE         float64
	AvgMAE         float64

	ByExitReason map[models.ExitReason]int
}

// ComputeStats aggregates a trade list into portfolio statistics.
func ComputeStats(trades []models.PaperTrade) Stats {
	s := Stats{ByExitReason: make(map[models.ExitReason]int)}

	var winSum, lossSum, holdSum, mfeSum, maeSum float64
	for _, t := range trades {
		s.Total++
		if t.IsOpen() {
			s.Open++
			continue
		}

		s.Closed++
		s.TotalPnL += t.PnL
		s.ByExitReason[t.ExitReason]++
		holdSum += float64(t.HoldingDays)
		mfeSum += t.MFE
		maeSum += t.MAE

		switch t.Outcome {
		case models.OutcomeWin:
			s.Wins++
			winSum += t.PnLPct
		case models.OutcomeLoss:
			s.Losses++
			lossSum += t.PnLPct
		default:
			s.NoMoves++
		}
	}

	if s.Closed > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Closed)
		s.AvgHoldingDays = holdSum / float64(s.Closed)
		s.AvgMFE = mfeSum / float64(s.Closed)
		s.AvgMAE = maeSum / float64(s.Closed)
	}
	if s.Wins > 0 {
		s.AvgWinPct = winSum / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLossPct = lossSum / float64(s.Losses)
	}

	return s
}
