package backtest

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Analyze computes the full metrics block from a completed trade ledger and
// equity curve. It is a pure function: same inputs, same output, no state.
//
// An empty ledger yields the explicit zeroed record — every field is defined,
// never NaN. Degenerate cases follow fixed sentinel rules: profit factor is
// +Inf on wins with zero gross loss, Sharpe is 0 with fewer than two equity
// points or zero return variance.
func Analyze(trades []Trade, equity []EquityPoint, initialCapital float64) Metrics {
	if len(trades) == 0 {
		return Metrics{}
	}

	var m Metrics
	m.TotalTrades = len(trades)

	pnls := make([]float64, 0, len(trades))
	var wins, losses []float64
	for _, t := range trades {
		pnls = append(pnls, t.PnL)
		if t.PnL > 0 {
			wins = append(wins, t.PnL)
		} else if t.PnL < 0 {
			losses = append(losses, t.PnL)
		}
	}
	m.WinningTrades = len(wins)
	m.LosingTrades = len(losses)
	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100

	m.TotalPnL = sum(pnls)
	m.TotalReturnPct = m.TotalPnL / initialCapital * 100
	m.AvgTradePnL = meanOrZero(pnls)
	m.MedianTradePnL = medianOrZero(pnls)

	m.AvgWin = meanOrZero(wins)
	m.AvgLoss = meanOrZero(losses)
	if len(wins) > 0 {
		m.LargestWin, _ = stats.Max(stats.Float64Data(wins))
	}
	if len(losses) > 0 {
		m.LargestLoss, _ = stats.Min(stats.Float64Data(losses))
	}

	grossProfit := sum(wins)
	grossLoss := math.Abs(sum(losses))
	switch {
	case grossLoss > 0:
		m.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		m.ProfitFactor = math.Inf(1)
	default:
		m.ProfitFactor = 0
	}

	m.MaxDrawdownPct, m.AvgDrawdownPct = drawdowns(equity)
	m.SharpeRatio = sharpe(equity)
	m.MaxConsecutiveWins, m.MaxConsecutiveLosses = streaks(trades)

	// Expectancy uses the win rate as a fraction, not a percentage.
	wr := m.WinRate / 100
	m.Expectancy = wr*m.AvgWin + (1-wr)*m.AvgLoss

	return m
}

// drawdowns returns the max and average percentage decline from the running
// equity peak. Only bars actually in drawdown count toward the average.
func drawdowns(equity []EquityPoint) (maxDD, avgDD float64) {
	if len(equity) == 0 {
		return 0, 0
	}
	peak := equity[0].Equity
	var below []float64
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak == 0 {
			continue
		}
		dd := (p.Equity - peak) / peak * 100
		if dd < maxDD {
			maxDD = dd
		}
		if dd < 0 {
			below = append(below, dd)
		}
	}
	return maxDD, meanOrZero(below)
}

// sharpe is the annualized Sharpe ratio over per-bar percentage equity
// changes: sqrt(252) · mean / sample stdev.
func sharpe(equity []EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, equity[i].Equity/prev-1)
	}
	if len(returns) < 2 {
		return 0
	}
	mean, err := stats.Mean(stats.Float64Data(returns))
	if err != nil {
		return 0
	}
	sd, err := stats.StandardDeviationSample(stats.Float64Data(returns))
	if err != nil || sd == 0 {
		return 0
	}
	return math.Sqrt(252) * mean / sd
}

// streaks returns the longest consecutive win and loss runs in ledger order.
// A zero-P&L trade counts as a loss, matching the win-rate convention.
func streaks(trades []Trade) (maxWins, maxLosses int) {
	var curWins, curLosses int
	for _, t := range trades {
		if t.PnL > 0 {
			curWins++
			curLosses = 0
			if curWins > maxWins {
				maxWins = curWins
			}
		} else {
			curLosses++
			curWins = 0
			if curLosses > maxLosses {
				maxLosses = curLosses
			}
		}
	}
	return maxWins, maxLosses
}

func sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

func meanOrZero(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m, err := stats.Mean(stats.Float64Data(vals))
	if err != nil {
		return 0
	}
	return m
}

func medianOrZero(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m, err := stats.Median(stats.Float64Data(vals))
	if err != nil {
		return 0
	}
	return m
}
