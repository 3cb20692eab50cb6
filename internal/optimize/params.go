// Package optimize searches the indicator/engine parameter space: exhaustive
// grid search (sequential or fanned out across workers) and walk-forward
// train/test evaluation. Every combination runs the full pipeline — indicator,
// signals, engine, analyzer — against the shared read-only bar series.
package optimize

import (
	"sort"

	"momentum-systemv1/internal/backtest"
	"momentum-systemv1/internal/indicator"
	"momentum-systemv1/internal/model"
)

// Grid maps parameter names to their candidate values. Recognized names:
// smooth_bars, ma_length, ntz_threshold, lookback. The MA type is part of the
// base parameters and fixed for a search; it is not a numeric axis.
type Grid map[string][]float64

// combos expands the grid into its full cross-product. The axis order is the
// sorted parameter names and values are taken in the order given, so the
// combination sequence is deterministic for a given grid.
func (g Grid) combos() (names []string, values [][]float64) {
	names = make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)

	values = [][]float64{{}}
	for _, name := range names {
		var next [][]float64
		for _, prefix := range values {
			for _, v := range g[name] {
				combo := make([]float64, len(prefix)+1)
				copy(combo, prefix)
				combo[len(prefix)] = v
				next = append(next, combo)
			}
		}
		values = next
	}
	if len(g) == 0 {
		values = nil
	}
	return names, values
}

// apply overlays one combination onto the base indicator parameters.
// Unknown parameter names are configuration errors.
func apply(base indicator.Params, names []string, combo []float64) (indicator.Params, error) {
	p := base
	for i, name := range names {
		v := combo[i]
		switch name {
		case "smooth_bars":
			p.SmoothBars = int(v)
		case "ma_length":
			p.MALength = int(v)
		case "ntz_threshold":
			p.NTZThreshold = v
		case "lookback":
			p.Lookback = int(v)
		default:
			return p, model.NewConfigError("param_grid", "unknown parameter %q", name)
		}
	}
	return p, nil
}

// ParameterPoint is one evaluated grid combination.
type ParameterPoint struct {
	Params  map[string]float64 `json:"params"`
	Metrics backtest.Metrics   `json:"metrics"`
	Score   float64            `json:"score"` // value of the ranking metric
}

// metricValue extracts a ranking metric from a metrics block by name.
func metricValue(m backtest.Metrics, name string) (float64, error) {
	switch name {
	case "sharpe_ratio":
		return m.SharpeRatio, nil
	case "total_return", "total_return_pct":
		return m.TotalReturnPct, nil
	case "total_pnl":
		return m.TotalPnL, nil
	case "win_rate":
		return m.WinRate, nil
	case "profit_factor":
		return m.ProfitFactor, nil
	case "expectancy":
		return m.Expectancy, nil
	case "max_drawdown_pct":
		return m.MaxDrawdownPct, nil
	default:
		return 0, model.NewConfigError("ranking_metric", "unknown metric %q", name)
	}
}

// ValidMetric reports whether name is a supported ranking metric.
func ValidMetric(name string) bool {
	_, err := metricValue(backtest.Metrics{}, name)
	return err == nil
}
