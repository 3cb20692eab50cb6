// cmd/resample maintains the bar store: it ingests kline CSV exports into
// SQLite and rewrites stored bars at a coarser timeframe.
//
// Usage:
//
//	go run ./cmd/resample --csv=klines_1m.csv --db=data/bars.db
//	go run ./cmd/resample --db=data/bars.db --tf=1h --out=data/bars_1h.db
package main

import (
	"encoding/csv"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"

	"momentum-systemv1/config"
	"momentum-systemv1/internal/logger"
	"momentum-systemv1/internal/model"
	"momentum-systemv1/internal/resample"
	sqlitestore "momentum-systemv1/internal/store/sqlite"
)

func main() {
	cfg := config.Load()
	logger.Init("resample", parseLevel(cfg.LogLevel))

	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite bar database")
	csvPath := flag.String("csv", "", "Kline CSV to ingest into --db before resampling")
	tf := flag.String("tf", "", "Target timeframe (e.g. 5m, 1h); empty = ingest only")
	outPath := flag.String("out", "", "Destination database for resampled bars")
	fromMS := flag.Int64("from", 0, "Range start, unix ms (0 = earliest)")
	toMS := flag.Int64("to", 0, "Range end, unix ms (0 = latest)")
	flag.Parse()

	if *csvPath == "" && *tf == "" {
		log.Fatal("[resample] nothing to do: give --csv and/or --tf")
	}

	store, err := sqlitestore.Open(*dbPath)
	if err != nil {
		log.Fatalf("[resample] sqlite open: %v", err)
	}
	defer store.Close()

	if *csvPath != "" {
		n, err := ingestCSV(store, *csvPath)
		if err != nil {
			log.Fatalf("[resample] ingest %s: %v", *csvPath, err)
		}
		slog.Info("csv ingested", "file", *csvPath, "bars", n)
	}

	if *tf == "" {
		return
	}
	if *outPath == "" {
		log.Fatal("[resample] --tf requires --out")
	}

	d, err := resample.ParseTimeframe(*tf)
	if err != nil {
		log.Fatalf("[resample] %v", err)
	}

	if *toMS == 0 {
		_, last, err := store.Bounds()
		if err != nil {
			log.Fatalf("[resample] bounds: %v", err)
		}
		*toMS = last
	}
	bars, err := store.ReadRange(*fromMS, *toMS)
	if err != nil {
		log.Fatalf("[resample] read range: %v", err)
	}
	if err := model.ValidateSeries(bars); err != nil {
		log.Fatalf("[resample] source series invalid: %v", err)
	}

	agg := resample.Aggregate(bars, d)

	out, err := sqlitestore.Open(*outPath)
	if err != nil {
		log.Fatalf("[resample] open destination: %v", err)
	}
	defer out.Close()
	if err := out.WriteBars(agg); err != nil {
		log.Fatalf("[resample] write destination: %v", err)
	}
	slog.Info("resample done", "timeframe", *tf, "source_bars", len(bars), "resampled_bars", len(agg), "out", *outPath)
}

// ingestCSV loads a kline CSV (open_time, open, high, low, close, volume,
// close_time, quote_volume, trades, taker_buy_base, taker_buy_quote, ...)
// into the store. A non-numeric first row is treated as a header.
func ingestCSV(store *sqlitestore.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var bars []model.Bar
	row := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		row++
		if len(rec) < 6 {
			log.Printf("[resample] row %d: %d fields, need >= 6, skipping", row, len(rec))
			continue
		}
		b, err := parseKline(rec)
		if err != nil {
			if row == 1 {
				continue // header
			}
			return 0, err
		}
		if err := b.Validate(); err != nil {
			log.Printf("[resample] row %d: %v, skipping", row, err)
			continue
		}
		bars = append(bars, b)
	}

	if err := store.WriteBars(bars); err != nil {
		return 0, err
	}
	return len(bars), nil
}

func parseKline(rec []string) (model.Bar, error) {
	var b model.Bar
	var err error
	if b.TS, err = strconv.ParseInt(rec[0], 10, 64); err != nil {
		return b, err
	}
	fields := []*float64{&b.Open, &b.High, &b.Low, &b.Close, &b.Volume}
	for i, dst := range fields {
		if *dst, err = strconv.ParseFloat(rec[i+1], 64); err != nil {
			return b, err
		}
	}
	// Optional extended kline columns.
	if len(rec) > 7 {
		b.QuoteVolume, _ = strconv.ParseFloat(rec[7], 64)
	}
	if len(rec) > 8 {
		b.Trades, _ = strconv.ParseInt(rec[8], 10, 64)
	}
	if len(rec) > 9 {
		b.TakerBuyBase, _ = strconv.ParseFloat(rec[9], 64)
	}
	if len(rec) > 10 {
		b.TakerBuyQuote, _ = strconv.ParseFloat(rec[10], 64)
	}
	return b, nil
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
