package analysis

import (
	apperrors "papertrader/internal/errors"
	"papertrader/internal/models"
)

// RSThresholds holds the locked relative-strength cutoffs.
type RSThresholds struct {
	Strong   float64
	Weak     float64
	Lookback int
}

// ClassifyRS computes relative strength as the symbol's return minus the
// benchmark's return over the lookback window, then buckets it against
// the locked thresholds. Both series must cover lookback+1 bars.
func ClassifyRS(symbol []models.Candle, index []models.Candle, symbolName string, th RSThresholds) (models.RSState, float64, error) {
	need := th.Lookback + 1
	if len(symbol) < need {
		return "", 0, apperrors.NewInsufficientData(symbolName, len(symbol), need)
	}
	if len(index) < need {
		return "", 0, apperrors.NewInsufficientData("benchmark", len(index), need)
	}

	symbolRet := windowReturn(symbol, th.Lookback)
	indexRet := windowReturn(index, th.Lookback)
	rs := symbolRet - indexRet

	switch {
	case rs > th.Strong:
		return models.RSStrong, rs, nil
	case rs < th.Weak:
		return models.RSWeak, rs, nil
	default:
		return models.RSNeutral, rs, nil
	}
}

func windowReturn(candles []models.Candle, lookback int) float64 {
	n := len(candles)
	base := candles[n-1-lookback].Close
	if base == 0 {
		return 0
	}
	return (candles[n-1].Close - base) / base
}
