package trading

import (
	"context"
	"time"

	"papertrader/internal/analysis"
	apperrors "papertrader/internal/errors"
	"papertrader/internal/logging"
	"papertrader/internal/models"
	"papertrader/internal/store"
)

// PassResult summarizes one batch pass over the universe.
type PassResult struct {
	Analyzed int
	Skipped  int
	Results  []*models.AnalysisResult
	Opened   []models.PaperTrade
	Closed   []models.PaperTrade
	Updated  int
}

// AnalyzeAll runs one evaluation pass over the configured universe,
// opening trades for eligible symbols. Symbols with missing or short data
// are logged and skipped; storage failures abort the pass.
func (e *Engine) AnalyzeAll(ctx context.Context, asOf time.Time) (*PassResult, error) {
	res := &PassResult{}

	for _, symbol := range e.cfg.Universe.Symbols {
		r, err := e.Evaluate(ctx, symbol, asOf)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrStorageUnavailable) {
				return res, err
			}
			e.logger.Warn().Str("symbol", symbol).Err(err).Msg("Skipping symbol")
			res.Skipped++
			continue
		}
		res.Analyzed++
		res.Results = append(res.Results, r)

		trade, err := e.MaybeOpenTrade(ctx, r)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrStorageUnavailable) {
				return res, err
			}
			e.logger.Warn().Str("symbol", symbol).Err(err).Msg("Trade not opened")
			continue
		}
		if trade != nil {
			res.Opened = append(res.Opened, *trade)
		}
	}

	return res, nil
}

// UpdateAllOpen walks every open trade forward through its latest daily
// candle, re-deriving the behavior classification from fresh history so
// behavior-failure exits fire on live data.
func (e *Engine) UpdateAllOpen(ctx context.Context, tracker *Tracker) (*PassResult, error) {
	res := &PassResult{}

	trades, err := e.store.LoadTrades(ctx)
	if err != nil {
		return res, err
	}

	var dirty []models.PaperTrade
	for i := range trades {
		t := &trades[i]
		if !t.IsOpen() {
			continue
		}

		day, behavior, err := e.latestDayState(ctx, t.Symbol)
		if err != nil {
			e.logger.Warn().Str("symbol", t.Symbol).Err(err).Msg("Skipping open trade update")
			res.Skipped++
			continue
		}

		if !tracker.Update(t, day, behavior) {
			continue
		}
		res.Updated++
		dirty = append(dirty, *t)

		if !t.IsOpen() {
			e.markClosed(t.Symbol)
			res.Closed = append(res.Closed, *t)
			logging.LogTradeClosed(e.logger, t)
		}
	}

	if len(dirty) > 0 {
		if err := e.store.UpsertTrades(ctx, dirty); err != nil {
			return res, err
		}
	}

	return res, nil
}

// latestDayState fetches the symbol's most recent candle together with its
// behavior classification as of that candle.
func (e *Engine) latestDayState(ctx context.Context, symbol string) (models.Candle, models.Behavior, error) {
	candles, err := e.provider.History(ctx, symbol, historyLookbackBars)
	if err != nil {
		return models.Candle{}, "", err
	}
	index, err := e.provider.History(ctx, e.cfg.Universe.Benchmark, historyLookbackBars)
	if err != nil {
		return models.Candle{}, "", err
	}

	series, err := analysis.Enrich(symbol, candles, e.cfg.Rules.MinHistoryBars)
	if err != nil {
		return models.Candle{}, "", err
	}

	rsState, _, err := analysis.ClassifyRS(candles, index, symbol, analysis.RSThresholds{
		Strong:   e.cfg.Rules.RSStrongThreshold,
		Weak:     e.cfg.Rules.RSWeakThreshold,
		Lookback: e.cfg.Rules.RSLookbackDays,
	})
	if err != nil {
		return models.Candle{}, "", err
	}

	behavior, _, _ := analysis.ClassifyBehavior(series, rsState)
	return series.Last(), behavior, nil
}

// AnalysisLog exposes the store's analysis log through the engine.
func (e *Engine) AnalysisLog(ctx context.Context, filter store.AnalysisFilter) ([]store.AnalysisEntry, error) {
	return e.store.GetAnalysisLog(ctx, filter)
}

// Trades returns trades matching the filter.
func (e *Engine) Trades(ctx context.Context, filter store.TradeFilter) ([]models.PaperTrade, error) {
	trades, err := e.store.LoadTrades(ctx)
	if err != nil {
		return nil, err
	}
	return store.FilterTrades(trades, filter), nil
}
