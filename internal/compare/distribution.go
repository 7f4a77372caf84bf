package compare

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// minSamples is the shortest sample list that yields a usable median.
const minSamples = 3

// Distribution is a JSON object holding named sample lists, reachable by
// dotted paths such as "shuffleReadMetrics.fetchWaitTime".
type Distribution map[string]any

// AsDistribution converts any JSON encodable value, typically
// sparkhistory.TaskMetricDistributions, into a Distribution.
func AsDistribution(v any) (Distribution, error) {
	if v == nil {
		return Distribution{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode distribution: %w", err)
	}
	var d Distribution
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("distribution must be a JSON object: %w", err)
	}
	if d == nil {
		d = Distribution{}
	}
	return d, nil
}

// Samples resolves path and returns its samples when the value is a list
// of numbers.
func (d Distribution) Samples(path string) ([]float64, bool) {
	var cur any = map[string]any(d)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[part]; !ok {
			return nil, false
		}
	}

	switch list := cur.(type) {
	case []float64:
		return list, true
	case []any:
		out := make([]float64, 0, len(list))
		for _, v := range list {
			f, ok := v.(float64)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	}
	return nil, false
}

// Median sorts a copy of samples and returns the element at len/2, which is
// the upper middle for even lengths.
func Median(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}

// Field names a distribution path and the label it is reported under.
type Field struct {
	Path  string
	Label string
}

type DistributionDiff struct {
	Before      float64 `json:"before"`
	After       float64 `json:"after"`
	Percent     Percent `json:"percent"`
	Significant bool    `json:"significant"`
}

type DistributionComparison struct {
	Metrics               map[string]DistributionDiff `json:"metrics"`
	SignificanceThreshold float64                     `json:"significance_threshold"`
}

// CompareDistributions compares the medians of fields. A field is left out
// when either side lacks it, is not a numeric list or holds fewer than
// three samples.
func CompareDistributions(before, after Distribution, fields []Field, significance *float64) (*DistributionComparison, error) {
	th, err := resolveThreshold(significance)
	if err != nil {
		return nil, err
	}

	res := &DistributionComparison{
		Metrics:               map[string]DistributionDiff{},
		SignificanceThreshold: th,
	}
	for _, f := range fields {
		s1, ok1 := before.Samples(f.Path)
		s2, ok2 := after.Samples(f.Path)
		if !ok1 || !ok2 || len(s1) < minSamples || len(s2) < minSamples {
			continue
		}
		m1, m2 := Median(s1), Median(s2)
		pct := PercentOf(m1, m2)
		res.Metrics[f.Label] = DistributionDiff{
			Before:      m1,
			After:       m2,
			Percent:     pct,
			Significant: significant(m1, m2, pct, th),
		}
	}
	return res, nil
}
