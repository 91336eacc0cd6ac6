// Package trading implements the decision engine and the position
// lifecycle: evaluating symbols against the entry rules, opening paper
// trades, and walking open trades forward through daily candles.
package trading

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"papertrader/internal/analysis"
	"papertrader/internal/config"
	apperrors "papertrader/internal/errors"
	"papertrader/internal/fundamentals"
	"papertrader/internal/logging"
	"papertrader/internal/marketdata"
	"papertrader/internal/models"
	"papertrader/internal/store"
)

// historyLookbackBars is how much daily history the engine requests per
// symbol. Roughly one trading year, comfortably above every indicator
// warmup.
const historyLookbackBars = 250

// Engine evaluates symbols against the locked entry rules and opens paper
// trades for the ones that pass every gate. One open trade per symbol is
// enforced through an in-memory index rebuilt from the store at startup.
type Engine struct {
	cfg          *config.Config
	store        store.TradeStore
	provider     marketdata.PriceProvider
	fundamentals fundamentals.Source
	logger       zerolog.Logger

	mu           sync.Mutex
	openBySymbol map[string]string // upper symbol -> open trade id
}

// NewEngine builds an engine and rebuilds the open-trade index from the
// store.
func NewEngine(cfg *config.Config, st store.TradeStore, provider marketdata.PriceProvider, fnd fundamentals.Source, logger zerolog.Logger) (*Engine, error) {
	trades, err := st.LoadTrades(context.Background())
	if err != nil {
		return nil, err
	}

	open := make(map[string]string)
	for _, t := range trades {
		if t.IsOpen() {
			open[strings.ToUpper(t.Symbol)] = t.ID
		}
	}

	return &Engine{
		cfg:          cfg,
		store:        st,
		provider:     provider,
		fundamentals: fnd,
		logger:       logger,
		openBySymbol: open,
	}, nil
}

// HasOpenTrade reports whether the symbol currently has an open position.
func (e *Engine) HasOpenTrade(symbol string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.openBySymbol[strings.ToUpper(symbol)]
	return ok
}

// Evaluate runs the full classifier chain for one symbol and appends the
// result to the analysis log whether or not the symbol is eligible. The
// returned result carries every gate verdict plus the rejection reasons
// for the failed ones.
func (e *Engine) Evaluate(ctx context.Context, symbol string, asOf time.Time) (*models.AnalysisResult, error) {
	symbol = strings.ToUpper(symbol)

	candles, err := e.provider.History(ctx, symbol, historyLookbackBars)
	if err != nil {
		return nil, err
	}
	index, err := e.provider.History(ctx, e.cfg.Universe.Benchmark, historyLookbackBars)
	if err != nil {
		return nil, apperrors.Wrapf(err, "benchmark %s", e.cfg.Universe.Benchmark)
	}

	series, err := analysis.Enrich(symbol, candles, e.cfg.Rules.MinHistoryBars)
	if err != nil {
		return nil, err
	}

	marketState, err := analysis.ClassifyMarket(e.cfg.Universe.Benchmark, index)
	if err != nil {
		return nil, err
	}

	fnd := e.fundamentals.Classify(symbol)
	trendState, entryState, trendConds, entryConds := analysis.ClassifyTrendEntry(series)

	rsState, rsValue, err := analysis.ClassifyRS(candles, index, symbol, analysis.RSThresholds{
		Strong:   e.cfg.Rules.RSStrongThreshold,
		Weak:     e.cfg.Rules.RSWeakThreshold,
		Lookback: e.cfg.Rules.RSLookbackDays,
	})
	if err != nil {
		return nil, err
	}

	behavior, failSignals, expSignals := analysis.ClassifyBehavior(series, rsState)

	last := series.Last()
	lastIdx := series.Len() - 1
	result := &models.AnalysisResult{
		Symbol:   symbol,
		AsOfDate: asOf,

		MarketState:      marketState,
		FundamentalState: fnd.State,
		FundamentalScore: fnd.Score,

		TrendState:      trendState,
		EntryState:      entryState,
		TrendConditions: trendConds,
		EntryConditions: entryConds,

		RSState: rsState,
		RSValue: rsValue,

		Behavior:         behavior,
		FailureSignals:   failSignals,
		ExpansionSignals: expSignals,

		ConsecutiveBars: series.ConsecutiveBarsAboveEMAs(),

		Close:     last.Close,
		EMA20:     series.EMA20[lastIdx],
		EMA50:     series.EMA50[lastIdx],
		RSI:       series.RSI[lastIdx],
		Volume:    last.Volume,
		VolumeAvg: series.VolAvg[lastIdx],
	}

	e.applyEligibility(result)

	if err := e.store.AppendAnalysis(ctx, store.NewAnalysisEntry(result)); err != nil {
		return nil, err
	}

	logging.LogAnalysis(e.logger, result)
	return result, nil
}

// applyEligibility runs the entry conjunction. Every gate is checked so the
// rejection list is complete rather than stopping at the first failure.
func (e *Engine) applyEligibility(r *models.AnalysisResult) {
	var reasons []string

	if r.FundamentalState == models.FundamentalFail {
		reasons = append(reasons, "fundamental FAIL")
	}
	if r.TrendState != models.TrendStrong {
		reasons = append(reasons, "trend not STRONG")
	}
	if r.EntryState != models.EntryOK {
		reasons = append(reasons, "entry timing NOT_OK")
	}
	if r.RSState != models.RSStrong {
		reasons = append(reasons, "relative strength not STRONG")
	}
	if r.Behavior != models.BehaviorContinuation {
		reasons = append(reasons, "behavior not CONTINUATION")
	}
	if e.HasOpenTrade(r.Symbol) {
		reasons = append(reasons, "open trade exists")
	}

	r.Eligible = len(reasons) == 0
	r.RejectionReasons = reasons
}

// MaybeOpenTrade creates and persists a paper trade from an eligible
// analysis result. Ineligible results return (nil, nil); a racing open
// trade for the same symbol returns ErrTradeAlreadyOpen.
func (e *Engine) MaybeOpenTrade(ctx context.Context, r *models.AnalysisResult) (*models.PaperTrade, error) {
	if !r.Eligible {
		return nil, nil
	}
	if r.Close <= 0 {
		return nil, apperrors.Wrapf(apperrors.ErrDataUnavailable, "non-positive close for %s", r.Symbol)
	}

	symbol := strings.ToUpper(r.Symbol)

	e.mu.Lock()
	if _, ok := e.openBySymbol[symbol]; ok {
		e.mu.Unlock()
		return nil, apperrors.Wrapf(apperrors.ErrTradeAlreadyOpen, "%s", symbol)
	}

	rules := e.cfg.Rules
	trade := models.PaperTrade{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		EntryDate:  r.AsOfDate,
		EntryPrice: r.Close,

		Shares:        int(math.Floor(rules.PositionValue / r.Close)),
		PositionValue: rules.PositionValue,

		StopPrice:      r.Close * (1 - rules.StopLossPct),
		TargetPrice:    r.Close * (1 + rules.TargetPct),
		MaxHoldingDays: rules.MaxHoldingDays,

		Context: models.EntryContext{
			MarketState:      r.MarketState,
			FundamentalState: r.FundamentalState,
			TrendState:       r.TrendState,
			EntryState:       r.EntryState,
			RSState:          r.RSState,
			Behavior:         r.Behavior,
		},

		Status: models.TradeOpen,
	}

	e.openBySymbol[symbol] = trade.ID
	e.mu.Unlock()

	if err := e.store.UpsertTrades(ctx, []models.PaperTrade{trade}); err != nil {
		e.mu.Lock()
		delete(e.openBySymbol, symbol)
		e.mu.Unlock()
		return nil, err
	}

	logging.LogTradeOpened(e.logger, &trade)
	return &trade, nil
}

// markClosed drops a symbol from the open-trade index.
func (e *Engine) markClosed(symbol string) {
	e.mu.Lock()
	delete(e.openBySymbol, strings.ToUpper(symbol))
	e.mu.Unlock()
}
