package optimize

import (
	"sort"

	"momentum-systemv1/internal/backtest"
	"momentum-systemv1/internal/model"
)

// Window records one walk-forward train/test split and its out-of-sample
// outcome. Indices are positions into the bar series, half-open ranges.
type Window struct {
	Index      int                `json:"window"`
	TrainStart int                `json:"train_start"`
	TrainEnd   int                `json:"train_end"`
	TestStart  int                `json:"test_start"`
	TestEnd    int                `json:"test_end"`
	BestParams map[string]float64 `json:"best_params"`
	TrainScore float64            `json:"train_score"`
	Test       backtest.Metrics   `json:"test_metrics"`
}

// WalkForwardResult aggregates the out-of-sample metrics across windows.
type WalkForwardResult struct {
	Windows    []Window `json:"windows"`
	MeanReturn float64  `json:"mean_return"`
	MeanSharpe float64  `json:"mean_sharpe"`
}

// WalkForward repeatedly grid-searches on a training slice and evaluates the
// winning combination on the following out-of-sample test slice.
//
// Stepping rule: window i trains on [i·testSize, i·testSize+trainSize) and
// tests on the next testSize bars, so successive training windows roll
// forward by testSize and overlap the previous test slice. The window count
// is (len(bars) − trainSize) / testSize; a window that would run past the end
// of the series is dropped, never padded.
func WalkForward(bars []model.Bar, grid Grid, trainSize, testSize int, opts Options) (*WalkForwardResult, error) {
	if trainSize < 1 {
		return nil, model.NewConfigError("train_size", "must be >= 1, got %d", trainSize)
	}
	if testSize < 1 {
		return nil, model.NewConfigError("test_size", "must be >= 1, got %d", testSize)
	}
	if !ValidMetric(opts.Metric) {
		return nil, model.NewConfigError("ranking_metric", "unknown metric %q", opts.Metric)
	}

	log := opts.logger()
	res := &WalkForwardResult{}

	nWindows := 0
	if len(bars) > trainSize {
		nWindows = (len(bars) - trainSize) / testSize
	}

	var sumReturn, sumSharpe float64
	for i := 0; i < nWindows; i++ {
		trainStart := i * testSize
		trainEnd := trainStart + trainSize
		testEnd := trainEnd + testSize
		if testEnd > len(bars) {
			break
		}

		ranked, err := GridSearch(bars[trainStart:trainEnd], grid, opts)
		if err != nil {
			return nil, err
		}
		if len(ranked) == 0 {
			log.Warn("walk-forward window has no viable combination", "window", i,
				"train_start", trainStart, "train_end", trainEnd)
			continue
		}
		best := ranked[0]

		params, err := apply(opts.Base, sortedNames(best.Params), valuesFor(best.Params))
		if err != nil {
			return nil, err
		}
		testRun, err := Run(bars[trainEnd:testEnd], params, opts.Engine)
		if err != nil {
			log.Warn("walk-forward test slice failed", "window", i, "params", best.Params, "err", err)
			continue
		}

		opts.Metrics.WindowEvaluated()
		res.Windows = append(res.Windows, Window{
			Index:      i,
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  trainEnd,
			TestEnd:    testEnd,
			BestParams: best.Params,
			TrainScore: best.Score,
			Test:       testRun.Metrics,
		})
		sumReturn += testRun.Metrics.TotalReturnPct
		sumSharpe += testRun.Metrics.SharpeRatio
	}

	if n := len(res.Windows); n > 0 {
		res.MeanReturn = sumReturn / float64(n)
		res.MeanSharpe = sumSharpe / float64(n)
	}
	return res, nil
}

func sortedNames(params map[string]float64) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	// Same ordering combos() uses, so apply() pairs names and values correctly.
	sort.Strings(names)
	return names
}

func valuesFor(params map[string]float64) []float64 {
	names := sortedNames(params)
	vals := make([]float64, len(names))
	for i, name := range names {
		vals[i] = params[name]
	}
	return vals
}
