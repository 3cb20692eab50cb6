package resample

import (
	"errors"
	"testing"
	"time"

	"momentum-systemv1/internal/model"
)

func TestParseTimeframe(t *testing.T) {
	d, err := ParseTimeframe("5m")
	if err != nil || d != 5*time.Minute {
		t.Errorf("5m: got (%v, %v)", d, err)
	}
	d, err = ParseTimeframe("1d")
	if err != nil || d != 24*time.Hour {
		t.Errorf("1d: got (%v, %v)", d, err)
	}

	var cfgErr *model.ConfigError
	if _, err := ParseTimeframe("3m"); !errors.As(err, &cfgErr) {
		t.Errorf("3m: expected ConfigError, got %v", err)
	}
}

func minuteBars(n int, startMS int64) []model.Bar {
	bars := make([]model.Bar, n)
	for i := range bars {
		base := 100 + float64(i)
		bars[i] = model.Bar{
			TS:          startMS + int64(i)*60_000,
			Open:        base,
			High:        base + 2,
			Low:         base - 1,
			Close:       base + 1,
			Volume:      10,
			QuoteVolume: 1000,
			Trades:      5,
		}
	}
	return bars
}

func TestAggregate_FiveMinuteBuckets(t *testing.T) {
	bars := minuteBars(10, 0)
	out := Aggregate(bars, 5*time.Minute)

	if len(out) != 2 {
		t.Fatalf("got %d buckets, want 2", len(out))
	}

	first := out[0]
	if first.TS != 0 {
		t.Errorf("bucket start %d, want 0", first.TS)
	}
	if first.Open != 100 {
		t.Errorf("open %v, want first bar's open 100", first.Open)
	}
	if first.Close != 105 { // close of bar 4: 104 + 1
		t.Errorf("close %v, want last bar's close 105", first.Close)
	}
	if first.High != 106 { // high of bar 4: 104 + 2
		t.Errorf("high %v, want 106", first.High)
	}
	if first.Low != 99 { // low of bar 0: 100 - 1
		t.Errorf("low %v, want 99", first.Low)
	}
	if first.Volume != 50 || first.QuoteVolume != 5000 || first.Trades != 25 {
		t.Errorf("sums: volume %v, quote %v, trades %d", first.Volume, first.QuoteVolume, first.Trades)
	}

	second := out[1]
	if second.TS != 5*60_000 {
		t.Errorf("second bucket start %d, want %d", second.TS, 5*60_000)
	}
	if second.Open != 105 || second.Close != 110 {
		t.Errorf("second bucket open/close %v/%v, want 105/110", second.Open, second.Close)
	}
}

func TestAggregate_EpochAlignment(t *testing.T) {
	// Bars starting mid-bucket still land in the epoch-aligned bucket.
	bars := minuteBars(3, 2*60_000) // 02:00, 03:00, 04:00
	out := Aggregate(bars, 5*time.Minute)

	if len(out) != 1 {
		t.Fatalf("got %d buckets, want 1", len(out))
	}
	if out[0].TS != 0 {
		t.Errorf("bucket start %d, want epoch-aligned 0", out[0].TS)
	}
	if out[0].Volume != 30 {
		t.Errorf("volume %v, want 30", out[0].Volume)
	}
}

func TestAggregate_GapsProduceNoEmptyBuckets(t *testing.T) {
	bars := append(minuteBars(2, 0), minuteBars(2, 20*60_000)...)
	out := Aggregate(bars, 5*time.Minute)

	if len(out) != 2 {
		t.Fatalf("got %d buckets, want 2 (gap must not pad)", len(out))
	}
	if out[1].TS != 20*60_000 {
		t.Errorf("second bucket start %d, want %d", out[1].TS, 20*60_000)
	}
}

func TestAggregate_Degenerate(t *testing.T) {
	if out := Aggregate(nil, time.Minute); out != nil {
		t.Errorf("nil input: got %v", out)
	}
	if out := Aggregate(minuteBars(3, 0), 0); out != nil {
		t.Errorf("zero timeframe: got %v", out)
	}
}

func TestAggregate_OutputStaysValid(t *testing.T) {
	bars := minuteBars(25, 7*60_000)
	out := Aggregate(bars, 10*time.Minute)
	if err := model.ValidateSeries(out); err != nil {
		t.Fatalf("aggregated series invalid: %v", err)
	}
}
