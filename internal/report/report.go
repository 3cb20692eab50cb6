// Package report renders backtest and optimizer output as text tables for
// the CLIs. It only formats: all numbers arrive precomputed.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"momentum-systemv1/internal/backtest"
	"momentum-systemv1/internal/optimize"
)

// WriteMetrics renders the summary metrics block.
func WriteMetrics(w io.Writer, m backtest.Metrics, initialCapital, finalEquity float64) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAutoFormatHeaders(false)

	rows := [][]string{
		{"Initial capital", fmt.Sprintf("%.2f", initialCapital)},
		{"Final equity", fmt.Sprintf("%.2f", finalEquity)},
		{"Total return", fmt.Sprintf("%.2f%%", m.TotalReturnPct)},
		{"Total trades", fmt.Sprintf("%d", m.TotalTrades)},
		{"Win rate", fmt.Sprintf("%.1f%% (%dW / %dL)", m.WinRate, m.WinningTrades, m.LosingTrades)},
		{"Total P&L", fmt.Sprintf("%.2f", m.TotalPnL)},
		{"Avg trade P&L", fmt.Sprintf("%.2f", m.AvgTradePnL)},
		{"Median trade P&L", fmt.Sprintf("%.2f", m.MedianTradePnL)},
		{"Avg win / avg loss", fmt.Sprintf("%.2f / %.2f", m.AvgWin, m.AvgLoss)},
		{"Largest win / loss", fmt.Sprintf("%.2f / %.2f", m.LargestWin, m.LargestLoss)},
		{"Profit factor", formatProfitFactor(m.ProfitFactor)},
		{"Max drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdownPct)},
		{"Avg drawdown", fmt.Sprintf("%.2f%%", m.AvgDrawdownPct)},
		{"Sharpe ratio", fmt.Sprintf("%.3f", m.SharpeRatio)},
		{"Win / loss streaks", fmt.Sprintf("%d / %d", m.MaxConsecutiveWins, m.MaxConsecutiveLosses)},
		{"Expectancy", fmt.Sprintf("%.2f", m.Expectancy)},
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

// WriteTrades renders the most recent trades, newest last.
func WriteTrades(w io.Writer, trades []backtest.Trade, limit int) {
	if len(trades) == 0 {
		fmt.Fprintln(w, "no trades")
		return
	}
	if limit > 0 && len(trades) > limit {
		fmt.Fprintf(w, "showing last %d of %d trades\n", limit, len(trades))
		trades = trades[len(trades)-limit:]
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Type", "Entry", "Entry Px", "Exit", "Exit Px", "Qty", "Fees", "PnL", "PnL %"})
	for _, t := range trades {
		table.Append([]string{
			string(t.Type),
			formatTS(t.EntryTime),
			fmt.Sprintf("%.4f", t.EntryPrice),
			formatTS(t.ExitTime),
			fmt.Sprintf("%.4f", t.ExitPrice),
			fmt.Sprintf("%.6f", t.Quantity),
			fmt.Sprintf("%.4f", t.Commission),
			fmt.Sprintf("%.2f", t.PnL),
			fmt.Sprintf("%.2f%%", t.PnLPct),
		})
	}
	table.Render()
}

// WriteRanking renders the top grid-search results.
func WriteRanking(w io.Writer, points []optimize.ParameterPoint, metric string, topN int) {
	if len(points) == 0 {
		fmt.Fprintln(w, "no viable parameter combinations")
		return
	}
	if topN > 0 && len(points) > topN {
		points = points[:topN]
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Params", metric, "Trades", "Return %", "Sharpe", "Max DD %"})
	table.SetAutoFormatHeaders(false)
	for i, p := range points {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			formatParams(p.Params),
			fmt.Sprintf("%.4f", p.Score),
			fmt.Sprintf("%d", p.Metrics.TotalTrades),
			fmt.Sprintf("%.2f", p.Metrics.TotalReturnPct),
			fmt.Sprintf("%.3f", p.Metrics.SharpeRatio),
			fmt.Sprintf("%.2f", p.Metrics.MaxDrawdownPct),
		})
	}
	table.Render()
}

// WriteWalkForward renders per-window results and the aggregate row.
func WriteWalkForward(w io.Writer, res *optimize.WalkForwardResult) {
	if len(res.Windows) == 0 {
		fmt.Fprintln(w, "no walk-forward windows evaluated")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Window", "Train", "Test", "Best Params", "Test Return %", "Test Sharpe"})
	table.SetAutoFormatHeaders(false)
	for _, win := range res.Windows {
		table.Append([]string{
			fmt.Sprintf("%d", win.Index),
			fmt.Sprintf("[%d, %d)", win.TrainStart, win.TrainEnd),
			fmt.Sprintf("[%d, %d)", win.TestStart, win.TestEnd),
			formatParams(win.BestParams),
			fmt.Sprintf("%.2f", win.Test.TotalReturnPct),
			fmt.Sprintf("%.3f", win.Test.SharpeRatio),
		})
	}
	table.Render()
	fmt.Fprintf(w, "out-of-sample aggregate: mean return %.2f%%, mean sharpe %.3f over %d windows\n",
		res.MeanReturn, res.MeanSharpe, len(res.Windows))
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.3f", pf)
}

func formatTS(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}

func formatParams(params map[string]float64) string {
	// Deterministic order keeps report output diffable.
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%g", k, params[k])
	}
	return out
}
