package indicator

import (
	"errors"
	"math"
	"testing"

	"momentum-systemv1/internal/model"
)

func makeBars(closes []float64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			TS:     int64(i+1) * 60_000,
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1,
		}
	}
	return bars
}

func sineBars(n int, period float64) []model.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(2*math.Pi*float64(i)/period)
	}
	return makeBars(closes)
}

// fastParams keeps every stage defined after a handful of bars.
func fastParams() Params {
	return Params{
		SmoothBars:   1,
		MALength:     1,
		MAType:       MASMA,
		NTZThreshold: 10,
		Lookback:     5,
	}
}

func TestCompute_ConstantSeries(t *testing.T) {
	bars := makeBars(make([]float64, 50))
	for i := range bars {
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = 100, 100, 100, 100
	}

	frames, err := Compute(bars, fastParams())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(frames) != len(bars) {
		t.Fatalf("got %d frames for %d bars", len(frames), len(bars))
	}

	// A flat series has zero normalization range everywhere: the slope is
	// undefined, every bar is in the no-trade zone, and nothing ever fires.
	for i, f := range frames {
		if f.Signal != model.SignalHold {
			t.Errorf("frame %d: signal %s, want HOLD", i, f.Signal)
		}
		if !f.InNTZ {
			t.Errorf("frame %d: expected in no-trade zone", i)
		}
		if f.Slope != 0 {
			t.Errorf("frame %d: slope %v, want 0 after fill", i, f.Slope)
		}
		if f.Acceleration != 0 {
			t.Errorf("frame %d: acceleration %v, want 0 after fill", i, f.Acceleration)
		}
	}
}

func TestCompute_FrameAlignment(t *testing.T) {
	bars := sineBars(80, 40)
	frames, err := Compute(bars, fastParams())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for i := range frames {
		if frames[i].TS != bars[i].TS {
			t.Fatalf("frame %d: TS %d, want %d", i, frames[i].TS, bars[i].TS)
		}
		if frames[i].Close != bars[i].Close {
			t.Fatalf("frame %d: close mismatch", i)
		}
	}
}

func TestCompute_BackfillAndRawSignals(t *testing.T) {
	bars := makeBars([]float64{100, 101, 103, 102})

	frames, err := Compute(bars, fastParams())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// With MA length 1 and smoothing 1 the raw slope series is
	// [NaN, NaN, 200, -33.33...]: bar 1's trailing range is still zero.
	approx(t, frames[2].Slope, 200, 1e-9, "slope[2]")
	approx(t, frames[3].Slope, -100.0/3.0, 1e-9, "slope[3]")

	// Leading undefined slopes are backfilled from bar 2.
	approx(t, frames[0].Slope, 200, 1e-9, "backfilled slope[0]")
	approx(t, frames[1].Slope, 200, 1e-9, "backfilled slope[1]")

	// Signals come from the raw series: the backfilled 200s at bars 0-1 must
	// not fire, and bar 2 still holds because its previous slope is undefined.
	want := []model.Signal{model.SignalHold, model.SignalHold, model.SignalHold, model.SignalSell}
	for i, s := range Signals(frames) {
		if s != want[i] {
			t.Errorf("signal %d: got %s, want %s", i, s, want[i])
		}
	}
}

func TestCompute_NoLookahead(t *testing.T) {
	bars := sineBars(120, 40)
	p := fastParams()
	p.Lookback = 20

	full, err := Compute(bars, p)
	if err != nil {
		t.Fatalf("Compute full: %v", err)
	}
	const cut = 80
	prefix, err := Compute(bars[:cut], p)
	if err != nil {
		t.Fatalf("Compute prefix: %v", err)
	}

	// Everything except the backfilled columns is causal: truncating the
	// series must not change what was already computed.
	for i := 0; i < cut; i++ {
		if prefix[i].Signal != full[i].Signal {
			t.Errorf("bar %d: prefix signal %s, full signal %s", i, prefix[i].Signal, full[i].Signal)
		}
		if prefix[i].InNTZ != full[i].InNTZ {
			t.Errorf("bar %d: no-trade-zone flag diverged", i)
		}
		if !sameFloat(prefix[i].MA, full[i].MA) || !sameFloat(prefix[i].MADiff, full[i].MADiff) {
			t.Errorf("bar %d: MA columns diverged", i)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	var cfgErr *model.ConfigError
	cases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"smooth_bars", func(p *Params) { p.SmoothBars = 0 }},
		{"ma_length", func(p *Params) { p.MALength = 0 }},
		{"ntz_threshold", func(p *Params) { p.NTZThreshold = 0 }},
		{"lookback", func(p *Params) { p.Lookback = 0 }},
		{"ma_type", func(p *Params) { p.MAType = "KAMA" }},
	}
	for _, tc := range cases {
		p := DefaultParams()
		tc.mutate(&p)
		err := p.Validate()
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s: expected ConfigError, got %v", tc.name, err)
		}
	}
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
