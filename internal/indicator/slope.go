package indicator

import (
	"math"

	"momentum-systemv1/internal/model"
	"momentum-systemv1/internal/signal"
)

// accelWindow is the fixed trailing window for the acceleration high.
const accelWindow = 200

// Params configures the slope indicator.
type Params struct {
	SmoothBars   int     // bars between MA samples for the slope difference
	MALength     int     // moving-average length
	MAType       MAType  // SMA, EMA, DEMA, TEMA, WMA, HMA
	NTZThreshold float64 // no-trade-zone half-width on the ±100 slope scale
	Lookback     int     // trailing window for slope normalization
}

// DefaultParams mirrors the strategy's published defaults.
func DefaultParams() Params {
	return Params{
		SmoothBars:   3,
		MALength:     120,
		MAType:       MAEMA,
		NTZThreshold: 10,
		Lookback:     500,
	}
}

// Validate checks parameter ranges. All violations are ConfigErrors.
func (p Params) Validate() error {
	if p.SmoothBars < 1 {
		return model.NewConfigError("smooth_bars", "must be >= 1, got %d", p.SmoothBars)
	}
	if p.MALength < 1 {
		return model.NewConfigError("ma_length", "must be >= 1, got %d", p.MALength)
	}
	if p.NTZThreshold <= 0 {
		return model.NewConfigError("ntz_threshold", "must be > 0, got %g", p.NTZThreshold)
	}
	if p.Lookback < 1 {
		return model.NewConfigError("lookback", "must be >= 1, got %d", p.Lookback)
	}
	if _, err := ParseMAType(string(p.MAType)); err != nil {
		return err
	}
	return nil
}

// Frame is the per-bar indicator output, aligned 1:1 with the input bars.
// Slope and Acceleration never contain NaN: undefined leading values are
// backfilled from the nearest later defined value, any remainder zero-filled.
type Frame struct {
	TS           int64
	Close        float64
	MA           float64
	MADiff       float64
	Slope        float64
	Acceleration float64
	InNTZ        bool
	Signal       model.Signal
}

// Compute derives indicator frames from a bar series.
//
// Signals are generated from the raw slope series, before backfilling, so an
// undefined slope on either side of a transition always reads as HOLD.
func Compute(bars []model.Bar, p Params) ([]Frame, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	closes := model.Closes(bars)
	ma, err := MA(closes, p.MALength, p.MAType)
	if err != nil {
		return nil, err
	}

	n := len(bars)
	diff := nanSeries(n)
	for i := p.SmoothBars; i < n; i++ {
		diff[i] = ma[i] - ma[i-p.SmoothBars] // NaN propagates from ma
	}

	// Normalize the raw difference against its trailing range. The window
	// expands at the start of the series (minimum one observation), and a
	// zero range leaves the slope undefined for that bar, not a fault.
	diffMax := rollingMax(diff, p.Lookback)
	diffMin := rollingMin(diff, p.Lookback)
	slope := nanSeries(n)
	for i := 0; i < n; i++ {
		rng := diffMax[i] - diffMin[i]
		if math.IsNaN(diff[i]) || math.IsNaN(rng) || rng == 0 {
			continue
		}
		slope[i] = 100 * diff[i] / rng
	}

	slopeChange := nanSeries(n)
	for i := 1; i < n; i++ {
		slopeChange[i] = math.Abs(slope[i]-slope[i-1]) * float64(p.SmoothBars) * 2
	}
	accelHigh := rollingMax(slopeChange, accelWindow)
	accel := nanSeries(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(slopeChange[i]) || math.IsNaN(accelHigh[i]) || accelHigh[i] == 0 {
			continue
		}
		accel[i] = 50 * slopeChange[i] / accelHigh[i]
	}

	signals := signal.Generate(slope, p.NTZThreshold)

	frames := make([]Frame, n)
	for i := 0; i < n; i++ {
		frames[i] = Frame{
			TS:     bars[i].TS,
			Close:  bars[i].Close,
			MA:     ma[i],
			MADiff: diff[i],
			InNTZ:  math.IsNaN(slope[i]) || math.Abs(slope[i]) <= p.NTZThreshold,
			Signal: signals[i],
		}
	}

	backfill(slope)
	backfill(accel)
	for i := 0; i < n; i++ {
		frames[i].Slope = slope[i]
		frames[i].Acceleration = accel[i]
	}
	return frames, nil
}

// Signals extracts the per-bar signal column from computed frames.
func Signals(frames []Frame) []model.Signal {
	out := make([]model.Signal, len(frames))
	for i := range frames {
		out[i] = frames[i].Signal
	}
	return out
}

// backfill replaces each NaN with the nearest later defined value, then
// zero-fills whatever is still undefined (an all-NaN series).
func backfill(series []float64) {
	next := math.NaN()
	for i := len(series) - 1; i >= 0; i-- {
		if math.IsNaN(series[i]) {
			series[i] = next
		} else {
			next = series[i]
		}
	}
	for i := range series {
		if math.IsNaN(series[i]) {
			series[i] = 0
		}
	}
}
