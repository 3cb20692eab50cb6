// cmd/optimize grid-searches slope parameters over a stored bar range and
// prints the ranked combinations, optionally validating the winners with a
// walk-forward analysis.
//
// Usage:
//
//	go run ./cmd/optimize --grid-length=60,120,240 --grid-ntz=5,10,15 --metric=sharpe_ratio
//	go run ./cmd/optimize --grid-length=60,120 --walk --train=5000 --test=1000
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"momentum-systemv1/config"
	"momentum-systemv1/internal/logger"
	"momentum-systemv1/internal/metrics"
	"momentum-systemv1/internal/model"
	"momentum-systemv1/internal/optimize"
	"momentum-systemv1/internal/report"
	"momentum-systemv1/internal/resample"
	redisstore "momentum-systemv1/internal/store/redis"
	sqlitestore "momentum-systemv1/internal/store/sqlite"
)

func main() {
	cfg := config.Load()
	logger.Init("optimize", parseLevel(cfg.LogLevel))

	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite bar database")
	fromMS := flag.Int64("from", 0, "Range start, unix ms (0 = earliest)")
	toMS := flag.Int64("to", 0, "Range end, unix ms (0 = latest)")
	tf := flag.String("tf", "", "Resample bars to this timeframe first; empty = as stored")

	gridSmooth := flag.String("grid-smooth", "", "smooth_bars values, comma-separated")
	gridLength := flag.String("grid-length", "", "ma_length values, comma-separated")
	gridNTZ := flag.String("grid-ntz", "", "ntz_threshold values, comma-separated")
	gridLookback := flag.String("grid-lookback", "", "lookback values, comma-separated")

	metric := flag.String("metric", "sharpe_ratio", "Ranking metric")
	parallel := flag.Int("parallel", cfg.Parallelism, "Worker count (<=1 = sequential)")
	topN := flag.Int("top", 10, "Ranked combinations to print")

	walk := flag.Bool("walk", false, "Run walk-forward analysis instead of a single search")
	trainSize := flag.Int("train", 5000, "Walk-forward training window, bars")
	testSize := flag.Int("test", 1000, "Walk-forward test window, bars")
	flag.Parse()

	base, err := cfg.IndicatorParams()
	if err != nil {
		log.Fatalf("[optimize] invalid base parameters: %v", err)
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		log.Fatalf("[optimize] invalid engine config: %v", err)
	}

	grid := optimize.Grid{}
	addAxis(grid, "smooth_bars", *gridSmooth)
	addAxis(grid, "ma_length", *gridLength)
	addAxis(grid, "ntz_threshold", *gridNTZ)
	addAxis(grid, "lookback", *gridLookback)
	if len(grid) == 0 {
		log.Fatal("[optimize] empty grid: give at least one --grid-* axis")
	}

	instr := startMetrics(cfg.MetricsAddr)

	bars, err := loadBars(cfg, *dbPath, *fromMS, *toMS, *tf, instr)
	if err != nil {
		log.Fatalf("[optimize] load bars: %v", err)
	}
	slog.Info("bars loaded", "count", len(bars), "timeframe", *tf)

	opts := optimize.Options{
		Base:        base,
		Engine:      engineCfg,
		Metric:      *metric,
		Parallelism: *parallel,
		Metrics:     instr,
	}

	if *walk {
		res, err := optimize.WalkForward(bars, grid, *trainSize, *testSize, opts)
		if err != nil {
			log.Fatalf("[optimize] walk-forward: %v", err)
		}
		report.WriteWalkForward(os.Stdout, res)
		return
	}

	ranked, err := optimize.GridSearch(bars, grid, opts)
	if err != nil {
		log.Fatalf("[optimize] grid search: %v", err)
	}
	report.WriteRanking(os.Stdout, ranked, *metric, *topN)
}

// addAxis parses a comma-separated value list into a grid axis. Blank flags
// leave the axis out entirely, so the base parameter value applies.
func addAxis(grid optimize.Grid, name, csv string) {
	if csv == "" {
		return
	}
	var vals []float64
	for _, p := range strings.Split(csv, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			log.Fatalf("[optimize] invalid value %q for %s", p, name)
		}
		vals = append(vals, f)
	}
	if len(vals) > 0 {
		grid[name] = vals
	}
}

func loadBars(cfg *config.Config, dbPath string, fromMS, toMS int64, tf string, instr *metrics.Metrics) ([]model.Bar, error) {
	store, err := sqlitestore.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if toMS == 0 {
		_, last, err := store.Bounds()
		if err != nil {
			return nil, err
		}
		toMS = last
	}

	var reader redisstore.BarReader = store
	if cfg.RedisAddr != "" {
		cached, err := redisstore.NewCachedReader(redisstore.CacheConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, store, instr)
		if err != nil {
			slog.Warn("redis cache unavailable, reading sqlite directly", "err", err)
		} else {
			defer cached.Close()
			reader = cached
		}
	}

	bars, err := reader.ReadRange(fromMS, toMS)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateSeries(bars); err != nil {
		return nil, err
	}
	if tf != "" {
		d, err := resample.ParseTimeframe(tf)
		if err != nil {
			return nil, err
		}
		bars = resample.Aggregate(bars, d)
	}
	return bars, nil
}

func startMetrics(addr string) *metrics.Metrics {
	if addr == "" {
		return nil
	}
	m := metrics.New()
	go func() {
		if err := m.Serve(addr); err != nil {
			slog.Error("metrics server stopped", "err", err)
		}
	}()
	return m
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
