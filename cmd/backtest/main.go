// cmd/backtest runs the slope pipeline once over a stored bar range and
// prints the trade ledger and performance metrics.
//
// Usage:
//
//	go run ./cmd/backtest --db=data/bars.db --tf=1h --ma=EMA --length=120
package main

import (
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"momentum-systemv1/config"
	"momentum-systemv1/internal/backtest"
	"momentum-systemv1/internal/indicator"
	"momentum-systemv1/internal/logger"
	"momentum-systemv1/internal/metrics"
	"momentum-systemv1/internal/model"
	"momentum-systemv1/internal/report"
	"momentum-systemv1/internal/resample"
	redisstore "momentum-systemv1/internal/store/redis"
	sqlitestore "momentum-systemv1/internal/store/sqlite"
)

func main() {
	cfg := config.Load()
	logger.Init("backtest", parseLevel(cfg.LogLevel))

	// Flags default from the environment config so env vars and flags compose.
	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite bar database")
	fromMS := flag.Int64("from", 0, "Range start, unix ms (0 = earliest)")
	toMS := flag.Int64("to", 0, "Range end, unix ms (0 = latest)")
	tf := flag.String("tf", "", "Resample bars to this timeframe first (e.g. 5m, 1h); empty = as stored")

	smooth := flag.Int("smooth", cfg.SmoothBars, "Differencing distance in bars")
	length := flag.Int("length", cfg.MALength, "Moving average length")
	maType := flag.String("ma", cfg.MAType, "Moving average type: SMA|EMA|DEMA|TEMA|WMA|HMA")
	ntz := flag.Float64("ntz", cfg.NTZThreshold, "No-trade-zone threshold on the normalized slope")
	lookback := flag.Int("lookback", cfg.Lookback, "Normalization lookback window")

	capital := flag.Float64("capital", cfg.InitialCapital, "Initial capital")
	commission := flag.Float64("commission", cfg.Commission, "Commission rate per side")
	slippage := flag.Float64("slippage", cfg.Slippage, "Slippage rate per fill")
	size := flag.Float64("size", cfg.PositionSize, "Fraction of capital per entry")

	showTrades := flag.Int("trades", 20, "Trades to print (0 = none, -1 = all)")
	flag.Parse()

	params, err := buildParams(*smooth, *length, *maType, *ntz, *lookback)
	if err != nil {
		log.Fatalf("[backtest] invalid parameters: %v", err)
	}
	engineCfg := backtest.Config{
		InitialCapital: *capital,
		Commission:     *commission,
		Slippage:       *slippage,
		PositionSize:   *size,
	}
	if err := engineCfg.Validate(); err != nil {
		log.Fatalf("[backtest] invalid engine config: %v", err)
	}

	instr := startMetrics(cfg.MetricsAddr)

	bars, err := loadBars(cfg, *dbPath, *fromMS, *toMS, *tf, instr)
	if err != nil {
		log.Fatalf("[backtest] load bars: %v", err)
	}
	slog.Info("bars loaded", "count", len(bars), "timeframe", *tf)

	frames, err := indicator.Compute(bars, params)
	if err != nil {
		log.Fatalf("[backtest] indicator pipeline: %v", err)
	}

	engine, err := backtest.New(engineCfg)
	if err != nil {
		log.Fatalf("[backtest] engine init: %v", err)
	}
	res, err := engine.Run(bars, indicator.Signals(frames))
	switch {
	case err == nil:
	case errors.Is(err, backtest.ErrNoTrades), errors.Is(err, backtest.ErrNoCompletedTrades):
		slog.Warn("simulation produced no completed trades", "err", err)
	default:
		log.Fatalf("[backtest] simulation: %v", err)
	}

	if *showTrades != 0 && res != nil {
		limit := *showTrades
		if limit < 0 {
			limit = 0 // report treats 0 as unlimited
		}
		report.WriteTrades(os.Stdout, res.Trades, limit)
	}
	if res != nil {
		report.WriteMetrics(os.Stdout, res.Metrics, engineCfg.InitialCapital, res.FinalEquity)
	}
}

func buildParams(smooth, length int, maType string, ntz float64, lookback int) (indicator.Params, error) {
	mt, err := indicator.ParseMAType(maType)
	if err != nil {
		return indicator.Params{}, err
	}
	p := indicator.Params{
		SmoothBars:   smooth,
		MALength:     length,
		MAType:       mt,
		NTZThreshold: ntz,
		Lookback:     lookback,
	}
	if err := p.Validate(); err != nil {
		return indicator.Params{}, err
	}
	return p, nil
}

// loadBars opens the sqlite store, optionally wraps it with the redis range
// cache, reads the requested range, and resamples if a timeframe was given.
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
