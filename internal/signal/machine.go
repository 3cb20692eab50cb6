// Package signal implements the trade-signal state machine.
//
// It is a Moore machine over the normalized slope series: the emitted signal
// depends only on the current state, the current slope, and the previous
// slope. At most one position direction is ever open by construction.
package signal

import (
	"math"

	"momentum-systemv1/internal/model"
)

// State is the machine's position state.
type State int

const (
	StateFlat State = iota
	StateLong
	StateShort
)

func (s State) String() string {
	switch s {
	case StateFlat:
		return "FLAT"
	case StateLong:
		return "LONG"
	case StateShort:
		return "SHORT"
	default:
		return "UNKNOWN"
	}
}

// Step is the pure transition function. slope and prevSlope may be NaN
// (undefined); in that case the machine holds and keeps its state.
//
//	FLAT  → BUY  when slope crosses above +threshold
//	FLAT  → SELL when slope crosses below −threshold
//	LONG  → EXIT_LONG  when slope crosses back below +threshold
//	SHORT → EXIT_SHORT when slope crosses back above −threshold
func Step(st State, slope, prevSlope, threshold float64) (model.Signal, State) {
	if math.IsNaN(slope) || math.IsNaN(prevSlope) {
		return model.SignalHold, st
	}

	switch st {
	case StateFlat:
		if slope > threshold && prevSlope <= threshold {
			return model.SignalBuy, StateLong
		}
		if slope < -threshold && prevSlope >= -threshold {
			return model.SignalSell, StateShort
		}
	case StateLong:
		if slope < threshold && prevSlope >= threshold {
			return model.SignalExitLong, StateFlat
		}
	case StateShort:
		if slope > -threshold && prevSlope <= -threshold {
			return model.SignalExitShort, StateFlat
		}
	}
	return model.SignalHold, st
}

// Generate runs the machine over a raw slope series in bar order and returns
// one signal per bar. Bar 0 always holds: there is no previous slope.
func Generate(slopes []float64, threshold float64) []model.Signal {
	out := make([]model.Signal, len(slopes))
	if len(slopes) == 0 {
		return out
	}
	out[0] = model.SignalHold
	st := StateFlat
	for i := 1; i < len(slopes); i++ {
		out[i], st = Step(st, slopes[i], slopes[i-1], threshold)
	}
	return out
}
