package analysis

import (
	"papertrader/internal/analysis/indicators"
	apperrors "papertrader/internal/errors"
	"papertrader/internal/models"
)

// ClassifyMarket computes the index-level risk environment: the benchmark
// trading above its own EMA50 is RISK_ON, below is RISK_OFF. The result is
// advisory and does not gate entries.
func ClassifyMarket(symbol string, index []models.Candle) (models.MarketState, error) {
	if len(index) < emaSlowPeriod {
		return "", apperrors.NewInsufficientData(symbol, len(index), emaSlowPeriod)
	}

	closes := indicators.ClosePrices(index)
	ema50, err := indicators.EMA(closes, emaSlowPeriod)
	if err != nil {
		return "", apperrors.NewInsufficientData(symbol, len(index), emaSlowPeriod)
	}

	last := len(index) - 1
	if closes[last] > ema50[last] {
		return models.MarketRiskOn, nil
	}
	return models.MarketRiskOff, nil
}
