// Package marketdata provides daily candle history to the analysis engine.
package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/models"
)

// PriceProvider supplies daily candle history in chronological order.
type PriceProvider interface {
	// History returns up to lookback daily candles for symbol, oldest
	// first. Fewer bars than requested is not an error here; the
	// analysis layer enforces its own minimum.
	History(ctx context.Context, symbol string, lookback int) ([]models.Candle, error)
}

// CSVProvider reads candle history from per-symbol CSV files in a
// directory. Files are named SYMBOL.csv with date,open,high,low,close,volume
// columns.
type CSVProvider struct {
	dir string
}

// NewCSVProvider creates a provider rooted at dir.
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

// candleRow is the on-disk candle format with a plain YYYY-MM-DD date.
type candleRow struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume int64   `csv:"volume"`
}

// History reads the symbol's CSV file and returns the trailing lookback
// candles sorted by date.
func (p *CSVProvider) History(ctx context.Context, symbol string, lookback int) ([]models.Candle, error) {
	path := filepath.Join(p.dir, strings.ToUpper(symbol)+".csv")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, apperrors.Wrapf(apperrors.ErrSymbolNotFound, "no data file for %s", symbol)
	}
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrDataUnavailable, "opening %s: %v", path, err)
	}
	defer f.Close()

	var rows []candleRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		if err == gocsv.ErrEmptyCSVFile {
			return nil, apperrors.NewInsufficientData(symbol, 0, lookback)
		}
		return nil, apperrors.Wrapf(apperrors.ErrDataUnavailable, "parsing %s: %v", path, err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, r := range rows {
		date, perr := time.Parse("2006-01-02", r.Date)
		if perr != nil {
			return nil, apperrors.Wrapf(apperrors.ErrDataUnavailable, "parsing %s: bad date %q", path, r.Date)
		}
		candles = append(candles, models.Candle{
			Date: date, Open: r.Open, High: r.High, Low: r.Low,
			Close: r.Close, Volume: r.Volume,
		})
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Date.Before(candles[j].Date)
	})

	if lookback > 0 && len(candles) > lookback {
		candles = candles[len(candles)-lookback:]
	}
	return candles, nil
}

// CandleSaver is the slice of the store the caching provider writes to.
type CandleSaver interface {
	SaveCandles(ctx context.Context, symbol string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol string, lookback int) ([]models.Candle, error)
}

// CachingProvider wraps a PriceProvider with a store-backed candle cache.
// Fetched history is written through to the cache; when the source fails,
// cached candles are served so an analysis pass can still run offline.
type CachingProvider struct {
	source PriceProvider
	cache  CandleSaver
}

// NewCachingProvider wraps source with cache.
func NewCachingProvider(source PriceProvider, cache CandleSaver) *CachingProvider {
	return &CachingProvider{source: source, cache: cache}
}

// History fetches from the source, caching on success and falling back to
// the cache on failure.
func (p *CachingProvider) History(ctx context.Context, symbol string, lookback int) ([]models.Candle, error) {
	candles, err := p.source.History(ctx, symbol, lookback)
	if err == nil {
		// Cache write failures do not fail the read path.
		_ = p.cache.SaveCandles(ctx, symbol, candles)
		return candles, nil
	}

	cached, cerr := p.cache.GetCandles(ctx, symbol, lookback)
	if cerr != nil || len(cached) == 0 {
		return nil, err
	}
	return cached, nil
}
