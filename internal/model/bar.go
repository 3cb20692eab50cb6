// Package model defines the core data types shared across the pipeline:
// OHLCV bars and trade signals.
package model

import (
	"fmt"
	"time"
)

// Bar represents one OHLCV sample for a fixed time interval.
// TS is the bucket open time in Unix milliseconds (UTC).
// QuoteVolume, Trades and the taker fields are carried through from the
// data source unchanged; the core never computes on them.
type Bar struct {
	TS            int64   `json:"timestamp"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	Volume        float64 `json:"volume"`
	QuoteVolume   float64 `json:"quote_volume,omitempty"`
	Trades        int64   `json:"trades,omitempty"`
	TakerBuyBase  float64 `json:"taker_buy_base,omitempty"`
	TakerBuyQuote float64 `json:"taker_buy_quote,omitempty"`
}

// Time returns the bar open time as a time.Time in UTC.
func (b *Bar) Time() time.Time {
	return time.UnixMilli(b.TS).UTC()
}

// Validate checks the OHLC sanity invariant: low ≤ {open, close} ≤ high.
func (b *Bar) Validate() error {
	if b.Low > b.Open || b.Open > b.High {
		return fmt.Errorf("bar %d: open %.8f outside [%.8f, %.8f]", b.TS, b.Open, b.Low, b.High)
	}
	if b.Low > b.Close || b.Close > b.High {
		return fmt.Errorf("bar %d: close %.8f outside [%.8f, %.8f]", b.TS, b.Close, b.Low, b.High)
	}
	return nil
}

// ValidateSeries checks every bar and the strict timestamp ordering of the series.
func ValidateSeries(bars []Bar) error {
	for i := range bars {
		if err := bars[i].Validate(); err != nil {
			return err
		}
		if i > 0 && bars[i].TS <= bars[i-1].TS {
			return fmt.Errorf("bar %d: timestamp %d not after previous %d", i, bars[i].TS, bars[i-1].TS)
		}
	}
	return nil
}

// Closes extracts the close-price series from a bar slice.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].Close
	}
	return out
}
