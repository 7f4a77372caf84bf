package compare

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/constraints"
)

const (
	BytesPerGB = 1024 * 1024 * 1024
	MsPerMin   = 1000 * 60
	NsPerMin   = 1000 * 1000 * 1000 * 60
)

type number interface {
	constraints.Integer | constraints.Float
}

func BytesToGB[T number](v T) float64 {
	return float64(v) / BytesPerGB
}

func MsToMinutes[T number](v T) float64 {
	return float64(v) / MsPerMin
}

func NsToMinutes[T number](v T) float64 {
	return float64(v) / NsPerMin
}

// Round rounds x to n decimal places. Infinities and NaN pass through.
func Round(x float64, n int) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	p := math.Pow10(n)
	return math.Round(x*p) / p
}

// Sum adds up f over items.
func Sum[S ~[]E, E any, T number](items S, f func(E) T) T {
	var total T
	for _, it := range items {
		total += f(it)
	}
	return total
}

// PercentChange formats the change from a to b, e.g. "+12.5%".
func PercentChange(a, b float64) string {
	if a == 0 {
		if b == 0 {
			return "N/A"
		}
		return "+∞"
	}
	change := (b - a) / a * 100
	sign := ""
	if change >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.1f%%", sign, change)
}

// SafeRatio returns b/a, with +Inf when only a is zero and 1 when both are.
func SafeRatio(a, b float64) float64 {
	if a == 0 {
		if b > 0 {
			return math.Inf(1)
		}
		return 1
	}
	return b / a
}

// FilterSignificantMetrics drops "_ratio" keys within threshold of 1 and
// "_percent_change" keys within threshold*100 of 0. Other keys are kept.
func FilterSignificantMetrics(metrics map[string]float64, threshold float64) map[string]float64 {
	out := make(map[string]float64, len(metrics))
	for k, v := range metrics {
		switch {
		case strings.HasSuffix(k, "_ratio"):
			if math.Abs(v-1) < threshold {
				continue
			}
		case strings.HasSuffix(k, "_percent_change"):
			if math.Abs(v) < threshold*100 {
				continue
			}
		}
		out[k] = v
	}
	return out
}
