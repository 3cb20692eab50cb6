// Package resample converts fine-grained bars into coarser timeframes before
// they reach the indicator pipeline. Buckets are aligned to multiples of the
// target interval in epoch time; a bucket's open/close come from its first
// and last source bars, high/low are the extremes, and volumes, trade counts
// and taker fields are summed.
package resample

import (
	"sort"
	"strings"
	"time"

	"momentum-systemv1/internal/model"
)

// timeframes maps the accepted timeframe labels to their durations.
var timeframes = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"10m": 10 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// ParseTimeframe resolves a label like "5m" or "4h" to a duration.
func ParseTimeframe(label string) (time.Duration, error) {
	if d, ok := timeframes[label]; ok {
		return d, nil
	}
	valid := make([]string, 0, len(timeframes))
	for k := range timeframes {
		valid = append(valid, k)
	}
	sort.Strings(valid)
	return 0, model.NewConfigError("timeframe", "invalid %q, choose from %s", label, strings.Join(valid, ", "))
}

// Aggregate resamples bars into tf-sized buckets. Input must be in ascending
// timestamp order; gaps simply produce no bucket (empty buckets are dropped,
// matching the upstream data contract of strictly increasing bars).
func Aggregate(bars []model.Bar, tf time.Duration) []model.Bar {
	if len(bars) == 0 || tf <= 0 {
		return nil
	}
	tfMS := tf.Milliseconds()

	var out []model.Bar
	var cur model.Bar
	curBucket := int64(-1)

	for i := range bars {
		b := &bars[i]
		bucket := b.TS - b.TS%tfMS

		if bucket != curBucket {
			if curBucket >= 0 {
				out = append(out, cur)
			}
			curBucket = bucket
			cur = *b
			cur.TS = bucket
			continue
		}

		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
		cur.QuoteVolume += b.QuoteVolume
		cur.Trades += b.Trades
		cur.TakerBuyBase += b.TakerBuyBase
		cur.TakerBuyQuote += b.TakerBuyQuote
	}
	out = append(out, cur)
	return out
}
