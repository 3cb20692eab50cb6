package model

import (
	"testing"
	"time"
)

func TestBarValidate(t *testing.T) {
	good := Bar{TS: 1, Open: 100, High: 105, Low: 99, Close: 102}
	if err := good.Validate(); err != nil {
		t.Errorf("valid bar rejected: %v", err)
	}

	bad := []Bar{
		{TS: 1, Open: 110, High: 105, Low: 99, Close: 102}, // open above high
		{TS: 1, Open: 100, High: 105, Low: 99, Close: 98},  // close below low
		{TS: 1, Open: 100, High: 95, Low: 99, Close: 96},   // high below low
	}
	for i, b := range bad {
		if err := b.Validate(); err == nil {
			t.Errorf("bar %d: expected validation error", i)
		}
	}
}

func TestValidateSeries_Ordering(t *testing.T) {
	mk := func(ts int64) Bar {
		return Bar{TS: ts, Open: 100, High: 101, Low: 99, Close: 100}
	}

	if err := ValidateSeries([]Bar{mk(1), mk(2), mk(3)}); err != nil {
		t.Errorf("ascending series rejected: %v", err)
	}
	if err := ValidateSeries([]Bar{mk(1), mk(1)}); err == nil {
		t.Error("duplicate timestamp accepted")
	}
	if err := ValidateSeries([]Bar{mk(2), mk(1)}); err == nil {
		t.Error("descending timestamps accepted")
	}
	if err := ValidateSeries(nil); err != nil {
		t.Errorf("empty series rejected: %v", err)
	}
}

func TestBarTime(t *testing.T) {
	b := Bar{TS: 1_700_000_000_000}
	want := time.UnixMilli(1_700_000_000_000).UTC()
	if !b.Time().Equal(want) {
		t.Errorf("Time() = %v, want %v", b.Time(), want)
	}
}

func TestSignalActionable(t *testing.T) {
	for _, s := range []Signal{SignalBuy, SignalSell, SignalExitLong, SignalExitShort} {
		if !s.Actionable() {
			t.Errorf("%s should be actionable", s)
		}
	}
	if SignalHold.Actionable() {
		t.Error("HOLD must not be actionable")
	}
	if Signal("REBALANCE").Actionable() {
		t.Error("unknown signals must not be actionable")
	}
}
