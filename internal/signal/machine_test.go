package signal

import (
	"math"
	"testing"

	"momentum-systemv1/internal/model"
)

func TestStep_Transitions(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		name      string
		state     State
		slope     float64
		prev      float64
		wantSig   model.Signal
		wantState State
	}{
		{"flat crosses above", StateFlat, 15, 5, model.SignalBuy, StateLong},
		{"flat crosses above from boundary", StateFlat, 15, 10, model.SignalBuy, StateLong},
		{"flat already above", StateFlat, 15, 12, model.SignalHold, StateFlat},
		{"flat inside zone", StateFlat, 5, -5, model.SignalHold, StateFlat},
		{"flat crosses below", StateFlat, -15, -5, model.SignalSell, StateShort},
		{"flat already below", StateFlat, -15, -12, model.SignalHold, StateFlat},
		{"long holds above", StateLong, 20, 15, model.SignalHold, StateLong},
		{"long exits on cross down", StateLong, 5, 15, model.SignalExitLong, StateFlat},
		{"long exits from boundary", StateLong, 5, 10, model.SignalExitLong, StateFlat},
		{"long ignores sell zone while exiting", StateLong, -15, 15, model.SignalExitLong, StateFlat},
		{"short holds below", StateShort, -20, -15, model.SignalHold, StateShort},
		{"short exits on cross up", StateShort, -5, -15, model.SignalExitShort, StateFlat},
		{"nan current holds", StateFlat, nan, 5, model.SignalHold, StateFlat},
		{"nan previous holds", StateFlat, 15, nan, model.SignalHold, StateFlat},
		{"nan keeps long", StateLong, nan, 15, model.SignalHold, StateLong},
	}

	for _, tc := range cases {
		sig, st := Step(tc.state, tc.slope, tc.prev, 10)
		if sig != tc.wantSig || st != tc.wantState {
			t.Errorf("%s: got (%s, %s), want (%s, %s)",
				tc.name, sig, st, tc.wantSig, tc.wantState)
		}
	}
}

func TestGenerate_FullCycle(t *testing.T) {
	slopes := []float64{0, 20, 20, 5, -20, -5}
	got := Generate(slopes, 10)

	want := []model.Signal{
		model.SignalHold,      // bar 0 never fires
		model.SignalBuy,       // 0 -> 20 crosses +10
		model.SignalHold,      // still above
		model.SignalExitLong,  // 20 -> 5 crosses back
		model.SignalSell,      // 5 -> -20 crosses -10
		model.SignalExitShort, // -20 -> -5 crosses back
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bar %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestGenerate_BarZeroAlwaysHolds(t *testing.T) {
	// Even a slope far outside the zone cannot fire without a predecessor.
	got := Generate([]float64{99, 99}, 10)
	if got[0] != model.SignalHold {
		t.Errorf("bar 0: got %s, want HOLD", got[0])
	}
	if got[1] != model.SignalHold {
		t.Errorf("bar 1: no crossing happened, got %s", got[1])
	}
}

func TestGenerate_NaNRuns(t *testing.T) {
	nan := math.NaN()
	got := Generate([]float64{nan, 20, nan, 5, 20}, 10)

	// NaN on either side of a pair disables it; the 5 -> 20 crossing at the
	// end is the only clean pair that crosses.
	want := []model.Signal{
		model.SignalHold, model.SignalHold, model.SignalHold, model.SignalHold, model.SignalBuy,
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bar %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

// TestGenerate_SinglePositionInvariant drives the machine with a pseudo-random
// walk and checks the emitted sequence is always well-formed: entries only
// from flat, exits only from the matching side.
func TestGenerate_SinglePositionInvariant(t *testing.T) {
	slopes := make([]float64, 500)
	x := uint64(1)
	for i := range slopes {
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
		slopes[i] = float64(int64(x%401)) - 200 // [-200, 200]
	}

	sigs := Generate(slopes, 25)
	state := StateFlat
	for i, s := range sigs {
		switch s {
		case model.SignalBuy:
			if state != StateFlat {
				t.Fatalf("bar %d: BUY while %s", i, state)
			}
			state = StateLong
		case model.SignalSell:
			if state != StateFlat {
				t.Fatalf("bar %d: SELL while %s", i, state)
			}
			state = StateShort
		case model.SignalExitLong:
			if state != StateLong {
				t.Fatalf("bar %d: EXIT_LONG while %s", i, state)
			}
			state = StateFlat
		case model.SignalExitShort:
			if state != StateShort {
				t.Fatalf("bar %d: EXIT_SHORT while %s", i, state)
			}
			state = StateFlat
		case model.SignalHold:
		default:
			t.Fatalf("bar %d: unexpected signal %q", i, s)
		}
	}
}
