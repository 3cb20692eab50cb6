package indicator

import "math"

// Rolling extrema over a trailing window with a monotonic index deque.
// The window is positional: position i sees series[max(0, i-window+1)..i],
// so it expands at the start of the series (minimum one observation).
// NaN entries are skipped; a window with no defined entries yields NaN.

type extremaKind int

const (
	extremaMax extremaKind = iota
	extremaMin
)

// rollingMax returns the trailing-window maximum for every position.
func rollingMax(series []float64, window int) []float64 {
	return rollingExtrema(series, window, extremaMax)
}

// rollingMin returns the trailing-window minimum for every position.
func rollingMin(series []float64, window int) []float64 {
	return rollingExtrema(series, window, extremaMin)
}

func rollingExtrema(series []float64, window int, kind extremaKind) []float64 {
	out := nanSeries(len(series))
	// deque of indices into series; values are monotonic from front to back
	// (decreasing for max, increasing for min). Front is the current extremum.
	deque := make([]int, 0, window)

	better := func(a, b float64) bool {
		if kind == extremaMax {
			return a >= b
		}
		return a <= b
	}

	for i, v := range series {
		// Evict indices that fell out of the window.
		for len(deque) > 0 && deque[0] <= i-window {
			deque = deque[1:]
		}
		if !math.IsNaN(v) {
			for len(deque) > 0 && better(v, series[deque[len(deque)-1]]) {
				deque = deque[:len(deque)-1]
			}
			deque = append(deque, i)
		}
		if len(deque) > 0 {
			out[i] = series[deque[0]]
		}
	}
	return out
}
