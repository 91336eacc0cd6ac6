// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"papertrader/internal/models"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "papertrader", "logs", "papertrader.log"),
		MaxSize:    50,
		MaxBackups: 7,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stdout
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// WithSymbol adds a symbol to the logger context.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// LogAnalysis logs the verdict of one symbol's analysis pass.
func LogAnalysis(logger zerolog.Logger, r *models.AnalysisResult) {
	logger.Info().
		Str("event", "analysis").
		Str("symbol", r.Symbol).
		Str("trend", string(r.TrendState)).
		Str("entry", string(r.EntryState)).
		Str("rs", string(r.RSState)).
		Str("behavior", string(r.Behavior)).
		Str("fundamental", string(r.FundamentalState)).
		Bool("eligible", r.Eligible).
		Strs("rejections", r.RejectionReasons).
		Msg("Symbol analyzed")
}

// LogTradeOpened logs a newly created paper trade.
func LogTradeOpened(logger zerolog.Logger, t *models.PaperTrade) {
	logger.Info().
		Str("event", "trade_opened").
		Str("trade_id", t.ID).
		Str("symbol", t.Symbol).
		Float64("entry", t.EntryPrice).
		Float64("stop", t.StopPrice).
		Float64("target", t.TargetPrice).
		Int("shares", t.Shares).
		Msg("Paper trade opened")
}

// LogTradeClosed logs a closed paper trade.
func LogTradeClosed(logger zerolog.Logger, t *models.PaperTrade) {
	logger.Info().
		Str("event", "trade_closed").
		Str("trade_id", t.ID).
		Str("symbol", t.Symbol).
		Str("reason", string(t.ExitReason)).
		Str("outcome", string(t.Outcome)).
		Float64("exit", t.ExitPrice).
		Float64("pnl_pct", t.PnLPct).
		Int("holding_days", t.HoldingDays).
		Msg("Paper trade closed")
}
