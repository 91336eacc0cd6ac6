package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"papertrader/internal/models"
	"papertrader/internal/store"
	"papertrader/internal/trading"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	var asOfFlag string

	cmd := &cobra.Command{
		Use:   "analyze [symbol...]",
		Short: "Analyze symbols and open trades for eligible ones",
		Long: `Runs the classifier chain over the given symbols, or over the whole
configured universe when none are given. Every verdict is appended to
the analysis log; trades open only for symbols passing every gate.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.initEngine(); err != nil {
				return err
			}
			output := NewOutput(cmd)

			asOf := time.Now()
			if asOfFlag != "" {
				parsed, err := time.Parse("2006-01-02", asOfFlag)
				if err != nil {
					return fmt.Errorf("invalid --as-of date %q: %w", asOfFlag, err)
				}
				asOf = parsed
			}

			var results []*models.AnalysisResult
			var opened []models.PaperTrade
			if len(args) == 0 {
				// Full universe pass.
				res, err := app.Engine.AnalyzeAll(cmd.Context(), asOf)
				if err != nil {
					return err
				}
				results = res.Results
				opened = res.Opened
				if res.Skipped > 0 {
					output.Warning("%d symbol(s) skipped, see log", res.Skipped)
				}
			} else {
				for _, symbol := range args {
					r, err := app.Engine.Evaluate(cmd.Context(), symbol, asOf)
					if err != nil {
						output.Warning("skipping %s: %v", strings.ToUpper(symbol), err)
						continue
					}
					results = append(results, r)

					trade, err := app.Engine.MaybeOpenTrade(cmd.Context(), r)
					if err != nil {
						output.Warning("trade not opened for %s: %v", r.Symbol, err)
						continue
					}
					if trade != nil {
						opened = append(opened, *trade)
					}
				}
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"results": results,
					"opened":  opened,
				})
			}

			renderAnalysis(output, results)
			for _, t := range opened {
				output.Success("Opened %s: %d shares @ %.2f (stop %.2f, target %.2f)",
					t.Symbol, t.Shares, t.EntryPrice, t.StopPrice, t.TargetPrice)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "analysis date (YYYY-MM-DD, default today)")
	return cmd
}

func renderAnalysis(output *Output, results []*models.AnalysisResult) {
	if len(results) == 0 {
		output.Warning("No symbols analyzed")
		return
	}

	table := NewTable(output, "SYMBOL", "MARKET", "FUND", "TREND", "ENTRY", "RS", "BEHAVIOR", "ELIGIBLE", "REJECTIONS")
	for _, r := range results {
		eligible := output.Red("no")
		if r.Eligible {
			eligible = output.Green("yes")
		}
		table.AddRow(
			r.Symbol,
			output.StateTag(string(r.MarketState)),
			output.StateTag(string(r.FundamentalState)),
			output.StateTag(string(r.TrendState)),
			output.StateTag(string(r.EntryState)),
			output.StateTag(string(r.RSState)),
			output.StateTag(string(r.Behavior)),
			eligible,
			strings.Join(r.RejectionReasons, "; "),
		)
	}
	table.Render()
}

func newUpdateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Walk open trades forward through their latest candle",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.initEngine(); err != nil {
				return err
			}
			output := NewOutput(cmd)

			res, err := app.Engine.UpdateAllOpen(cmd.Context(), app.Tracker)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(res)
			}

			output.Printf("Updated %d trade(s), %d skipped\n", res.Updated, res.Skipped)
			for _, t := range res.Closed {
				output.Info("Closed %s: %s %s exit %.2f (%s)",
					t.Symbol, string(t.ExitReason), output.StateTag(string(t.Outcome)),
					t.ExitPrice, output.FormatPercent(t.PnLPct))
			}
			return nil
		},
	}
}

func newTradesCmd(app *App) *cobra.Command {
	var symbolFlag, statusFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List paper trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.initEngine(); err != nil {
				return err
			}
			output := NewOutput(cmd)

			filter := store.TradeFilter{
				Symbol: symbolFlag,
				Limit:  limitFlag,
			}
			switch strings.ToUpper(statusFlag) {
			case "OPEN":
				filter.Status = models.TradeOpen
			case "CLOSED":
				filter.Status = models.TradeClosed
			}

			trades, err := app.Engine.Trades(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}

			if len(trades) == 0 {
				output.Warning("No trades found")
				return nil
			}

			table := NewTable(output, "SYMBOL", "STATUS", "ENTRY", "PRICE", "STOP", "TARGET", "DAYS", "MFE", "MAE", "EXIT", "OUTCOME", "P&L%")
			for _, t := range trades {
				exit := ""
				outcome := ""
				pnl := ""
				if !t.IsOpen() {
					exit = string(t.ExitReason)
					outcome = output.StateTag(string(t.Outcome))
					pnl = output.FormatPercent(t.PnLPct)
				}
				table.AddRow(
					t.Symbol,
					output.StateTag(string(t.Status)),
					t.EntryDate.Format("2006-01-02"),
					fmt.Sprintf("%.2f", t.EntryPrice),
					fmt.Sprintf("%.2f", t.StopPrice),
					fmt.Sprintf("%.2f", t.TargetPrice),
					fmt.Sprintf("%d", t.HoldingDays),
					output.FormatPercent(t.MFE),
					output.FormatPercent(t.MAE),
					exit,
					outcome,
					pnl,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&symbolFlag, "symbol", "", "filter by symbol")
	cmd.Flags().StringVar(&statusFlag, "status", "", "filter by status (open or closed)")
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "limit the number of trades shown")
	return cmd
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show portfolio statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.initEngine(); err != nil {
				return err
			}
			output := NewOutput(cmd)

			trades, err := app.Engine.Trades(cmd.Context(), store.TradeFilter{})
			if err != nil {
				return err
			}
			stats := trading.ComputeStats(trades)

			if output.IsJSON() {
				return output.JSON(stats)
			}

			output.Bold("Portfolio")
			output.Printf("  Trades:  %d total, %d open, %d closed\n", stats.Total, stats.Open, stats.Closed)
			if stats.Closed == 0 {
				return nil
			}

			output.Printf("  Outcomes: %d win / %d loss / %d no-move\n", stats.Wins, stats.Losses, stats.NoMoves)
			output.Printf("  Win Rate: %.1f%%\n", stats.WinRate*100)
			output.Printf("  Avg Win:  %s   Avg Loss: %s\n",
				output.FormatPercent(stats.AvgWinPct), output.FormatPercent(stats.AvgLossPct))
			output.Printf("  Total P&L: %.2f\n", stats.TotalPnL)
			output.Printf("  Avg Holding: %.1f days\n", stats.AvgHoldingDays)
			output.Printf("  Avg MFE: %s   Avg MAE: %s\n",
				output.FormatPercent(stats.AvgMFE), output.FormatPercent(stats.AvgMAE))
			output.Println()

			output.Bold("Exits")
			for _, reason := range []models.ExitReason{
				models.ExitStopLoss, models.ExitTargetHit,
				models.ExitBehaviorFailure, models.ExitMaxHoldingDays,
			} {
				if n := stats.ByExitReason[reason]; n > 0 {
					output.Printf("  %-18s %d\n", string(reason), n)
				}
			}
			return nil
		},
	}
}

func newLogCmd(app *App) *cobra.Command {
	var symbolFlag, sinceFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the analysis log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.initEngine(); err != nil {
				return err
			}
			output := NewOutput(cmd)

			filter := store.AnalysisFilter{
				Symbol: symbolFlag,
				Limit:  limitFlag,
			}
			if sinceFlag != "" {
				since, err := time.Parse("2006-01-02", sinceFlag)
				if err != nil {
					return fmt.Errorf("invalid --since date %q: %w", sinceFlag, err)
				}
				filter.StartDate = since
			}

			entries, err := app.Engine.AnalysisLog(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(entries)
			}

			if len(entries) == 0 {
				output.Warning("Analysis log is empty")
				return nil
			}

			table := NewTable(output, "DATE", "SYMBOL", "TREND", "ENTRY", "RS", "BEHAVIOR", "ELIGIBLE", "REJECTIONS")
			for _, e := range entries {
				eligible := output.Red("no")
				if e.Eligible {
					eligible = output.Green("yes")
				}
				table.AddRow(
					e.AsOfDate.Format("2006-01-02"),
					e.Symbol,
					output.StateTag(e.TrendState),
					output.StateTag(e.EntryState),
					output.StateTag(e.RSState),
					output.StateTag(e.Behavior),
					eligible,
					strings.ReplaceAll(e.RejectionReasons, "|", "; "),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&symbolFlag, "symbol", "", "filter by symbol")
	cmd.Flags().StringVar(&sinceFlag, "since", "", "earliest date to include (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limitFlag, "limit", 50, "limit the number of entries shown")
	return cmd
}
