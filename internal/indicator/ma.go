// Package indicator computes the momentum slope indicator: a moving average
// of close prices, its normalized slope, an acceleration measure, and a
// no-trade-zone classification, one frame per input bar.
//
// Undefined values (leading bars before an MA has enough observations, or
// degenerate normalization ranges) are carried as NaN internally and resolved
// before frames are returned.
package indicator

import (
	"math"

	"momentum-systemv1/internal/model"
)

// MAType selects the moving-average flavor.
type MAType string

const (
	MASMA  MAType = "SMA"
	MAEMA  MAType = "EMA"
	MADEMA MAType = "DEMA"
	MATEMA MAType = "TEMA"
	MAWMA  MAType = "WMA"
	MAHMA  MAType = "HMA"
)

// ParseMAType validates a moving-average type string.
func ParseMAType(s string) (MAType, error) {
	switch MAType(s) {
	case MASMA, MAEMA, MADEMA, MATEMA, MAWMA, MAHMA:
		return MAType(s), nil
	default:
		return "", model.NewConfigError("ma_type", "unknown MA type %q", s)
	}
}

// MA computes a moving average of the given type over the series.
// The output has the same length as the input; entries that cannot be
// computed yet are NaN. The EMA family is defined from the first observation.
func MA(series []float64, length int, maType MAType) ([]float64, error) {
	if length < 1 {
		return nil, model.NewConfigError("ma_length", "must be >= 1, got %d", length)
	}
	switch maType {
	case MASMA:
		return SMA(series, length), nil
	case MAEMA:
		return EMA(series, length), nil
	case MADEMA:
		return DEMA(series, length), nil
	case MATEMA:
		return TEMA(series, length), nil
	case MAWMA:
		return WMA(series, length), nil
	case MAHMA:
		return HMA(series, length)
	default:
		return nil, model.NewConfigError("ma_type", "unknown MA type %q", string(maType))
	}
}

// SMA is the simple moving average. NaN until length observations exist.
func SMA(series []float64, length int) []float64 {
	out := nanSeries(len(series))
	var sum float64
	for i, v := range series {
		sum += v
		if i >= length {
			sum -= series[i-length]
		}
		if i >= length-1 {
			out[i] = sum / float64(length)
		}
	}
	return out
}

// EMA is the exponential moving average with multiplier 2/(length+1),
// seeded with the first observation so it is defined from bar 0.
func EMA(series []float64, length int) []float64 {
	out := nanSeries(len(series))
	if len(series) == 0 {
		return out
	}
	k := 2.0 / float64(length+1)
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = out[i-1] + k*(series[i]-out[i-1])
	}
	return out
}

// DEMA is the double exponential moving average: 2·EMA(x) − EMA(EMA(x)).
func DEMA(series []float64, length int) []float64 {
	e1 := EMA(series, length)
	e2 := EMA(e1, length)
	out := make([]float64, len(series))
	for i := range out {
		out[i] = 2*e1[i] - e2[i]
	}
	return out
}

// TEMA is the triple exponential moving average:
// 3·(EMA(x) − EMA(EMA(x))) + EMA(EMA(EMA(x))).
func TEMA(series []float64, length int) []float64 {
	e1 := EMA(series, length)
	e2 := EMA(e1, length)
	e3 := EMA(e2, length)
	out := make([]float64, len(series))
	for i := range out {
		out[i] = 3*(e1[i]-e2[i]) + e3[i]
	}
	return out
}

// WMA is the linearly weighted moving average with weights 1..length.
// A window containing any NaN yields NaN, which lets WMA compose (HMA).
func WMA(series []float64, length int) []float64 {
	out := nanSeries(len(series))
	weightSum := float64(length) * float64(length+1) / 2.0
	for i := length - 1; i < len(series); i++ {
		var acc float64
		valid := true
		for j := 0; j < length; j++ {
			v := series[i-length+1+j]
			if math.IsNaN(v) {
				valid = false
				break
			}
			acc += v * float64(j+1)
		}
		if valid {
			out[i] = acc / weightSum
		}
	}
	return out
}

// HMA is the Hull moving average:
// WMA(2·WMA(x, length/2) − WMA(x, length), floor(sqrt(length))).
func HMA(series []float64, length int) ([]float64, error) {
	half := length / 2
	if half < 1 {
		return nil, model.NewConfigError("ma_length", "HMA requires length >= 2, got %d", length)
	}
	sqrtLen := int(math.Sqrt(float64(length)))
	wHalf := WMA(series, half)
	wFull := WMA(series, length)
	raw := make([]float64, len(series))
	for i := range raw {
		raw[i] = 2*wHalf[i] - wFull[i] // NaN propagates
	}
	return WMA(raw, sqrtLen), nil
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
