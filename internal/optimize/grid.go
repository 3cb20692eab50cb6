package optimize

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"momentum-systemv1/internal/backtest"
	"momentum-systemv1/internal/indicator"
	"momentum-systemv1/internal/metrics"
	"momentum-systemv1/internal/model"
)

// Options configures a search.
type Options struct {
	Base        indicator.Params // parameters not covered by the grid
	Engine      backtest.Config  // cost/sizing model shared by all runs
	Metric      string           // ranking metric name, e.g. "sharpe_ratio"
	Parallelism int              // <=1 runs sequentially
	Logger      *slog.Logger     // nil: slog.Default()
	Metrics     *metrics.Metrics // optional instrumentation, nil-safe
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// GridSearch evaluates every combination in the grid against the bar series
// and returns the successful points sorted descending by the ranking metric.
//
// Each combination runs the whole pipeline on its own stack; the bar series
// is shared read-only. Failing combinations (bad parameters, no trades) are
// logged and excluded — the search itself always completes. Sequential and
// parallel execution produce identical ranked output: results land in
// per-combination slots and ties sort by combination index.
func GridSearch(bars []model.Bar, grid Grid, opts Options) ([]ParameterPoint, error) {
	if !ValidMetric(opts.Metric) {
		return nil, model.NewConfigError("ranking_metric", "unknown metric %q", opts.Metric)
	}
	names, combos := grid.combos()
	if len(combos) == 0 {
		return nil, model.NewConfigError("param_grid", "empty grid")
	}

	start := time.Now()
	log := opts.logger()
	log.Info("grid search starting", "combinations", len(combos), "metric", opts.Metric, "parallelism", opts.Parallelism)

	results := make([]*ParameterPoint, len(combos))

	runOne := func(idx int) {
		pt, err := evaluate(bars, names, combos[idx], opts)
		if err != nil {
			opts.Metrics.ComboFailed()
			log.Warn("combination failed", "params", comboMap(names, combos[idx]), "err", err)
			return
		}
		opts.Metrics.ComboOK()
		results[idx] = pt
	}

	if opts.Parallelism <= 1 {
		for i := range combos {
			runOne(i)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < opts.Parallelism; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for idx := range jobs {
					runOne(idx)
				}
			}()
		}
		for i := range combos {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	// Collect successes, keeping combination order as the tie-break so the
	// ranking is independent of completion order.
	type ranked struct {
		idx int
		pt  ParameterPoint
	}
	var ok []ranked
	for i, pt := range results {
		if pt != nil {
			ok = append(ok, ranked{idx: i, pt: *pt})
		}
	}
	sort.Slice(ok, func(a, b int) bool {
		if ok[a].pt.Score != ok[b].pt.Score {
			return ok[a].pt.Score > ok[b].pt.Score
		}
		return ok[a].idx < ok[b].idx
	})

	out := make([]ParameterPoint, len(ok))
	for i, r := range ok {
		out[i] = r.pt
	}

	opts.Metrics.ObserveGridSearch(time.Since(start))
	log.Info("grid search done", "evaluated", len(combos), "ranked", len(out), "elapsed", time.Since(start))
	return out, nil
}

// evaluate runs the full pipeline for a single combination.
func evaluate(bars []model.Bar, names []string, combo []float64, opts Options) (*ParameterPoint, error) {
	start := time.Now()

	params, err := apply(opts.Base, names, combo)
	if err != nil {
		return nil, err
	}
	frames, err := indicator.Compute(bars, params)
	if err != nil {
		return nil, err
	}
	engine, err := backtest.New(opts.Engine)
	if err != nil {
		return nil, err
	}
	res, err := engine.Run(bars, indicator.Signals(frames))
	if err != nil {
		return nil, fmt.Errorf("params %v: %w", comboMap(names, combo), err)
	}
	score, err := metricValue(res.Metrics, opts.Metric)
	if err != nil {
		return nil, err
	}

	opts.Metrics.ObserveRun(time.Since(start))
	return &ParameterPoint{
		Params:  comboMap(names, combo),
		Metrics: res.Metrics,
		Score:   score,
	}, nil
}

// Run executes the full pipeline once with explicit parameters. It is the
// single-run entry point the CLIs use; signal.Generate runs inside
// indicator.Compute, so the frames already carry the per-bar signals.
func Run(bars []model.Bar, params indicator.Params, cfg backtest.Config) (*backtest.Result, error) {
	frames, err := indicator.Compute(bars, params)
	if err != nil {
		return nil, err
	}
	engine, err := backtest.New(cfg)
	if err != nil {
		return nil, err
	}
	return engine.Run(bars, indicator.Signals(frames))
}

func comboMap(names []string, combo []float64) map[string]float64 {
	m := make(map[string]float64, len(names))
	for i, name := range names {
		m[name] = combo[i]
	}
	return m
}
