// Package compare diffs numeric metrics between two Spark application runs.
//
// The helpers are total over sparse input: missing keys, short sample lists
// and unnamed stages are left out of the result instead of failing. Only an
// unusable significance threshold is reported as an error.
package compare

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/drutigliano19/spark-history-mcp/internal/config"
)

// ErrInvalidThreshold is returned for NaN, negative or infinite thresholds.
var ErrInvalidThreshold = config.ErrInvalidThreshold

// NumericMap maps a metric name to its value. Absent keys count as 0.
type NumericMap map[string]float64

// Percent is a relative change in percent. Division by a zero baseline is
// represented by ±Inf, which encodes as "Infinity" or "-Infinity".
type Percent float64

func (p Percent) MarshalJSON() ([]byte, error) {
	return marshalFloat(float64(p))
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	f, err := unmarshalFloat(data)
	if err != nil {
		return fmt.Errorf("invalid percent %s: %w", data, err)
	}
	*p = Percent(f)
	return nil
}

func (p Percent) IsInf() bool {
	return math.IsInf(float64(p), 0)
}

// Number is a plain value, such as a ratio, that may be infinite. It has
// the same JSON form as Percent.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	return marshalFloat(float64(n))
}

func (n *Number) UnmarshalJSON(data []byte) error {
	f, err := unmarshalFloat(data)
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", data, err)
	}
	*n = Number(f)
	return nil
}

func marshalFloat(f float64) ([]byte, error) {
	switch {
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	case math.IsNaN(f):
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func unmarshalFloat(data []byte) (float64, error) {
	switch string(data) {
	case `"Infinity"`:
		return math.Inf(1), nil
	case `"-Infinity"`:
		return math.Inf(-1), nil
	case "null":
		return math.NaN(), nil
	}
	var f float64
	err := json.Unmarshal(data, &f)
	return f, err
}

type Difference struct {
	Before   float64 `json:"before"`
	After    float64 `json:"after"`
	Absolute float64 `json:"absolute"`
	Percent  Percent `json:"percent"`
}

type NumericComparison struct {
	// Differences holds the significant keys only.
	Differences           map[string]Difference `json:"differences"`
	SignificantKeys       []string              `json:"significant_keys"`
	InsignificantKeys     []string              `json:"insignificant_keys"`
	SignificanceThreshold float64               `json:"significance_threshold"`
}

// Threshold returns a pointer to v, for passing explicit thresholds.
func Threshold(v float64) *float64 {
	return &v
}

// resolveThreshold falls back to the process-wide significance threshold.
func resolveThreshold(significance *float64) (float64, error) {
	th := config.Tools().SignificanceThreshold
	if significance != nil {
		th = *significance
	}
	if err := config.ValidateThreshold(th); err != nil {
		return 0, err
	}
	return th, nil
}

// PercentOf returns the change from before to after in percent. A zero
// baseline yields ±Inf signed like after, or 0 when after is zero too.
func PercentOf(before, after float64) Percent {
	if before == 0 {
		switch {
		case after > 0:
			return Percent(math.Inf(1))
		case after < 0:
			return Percent(math.Inf(-1))
		}
		return 0
	}
	return Percent((after - before) / math.Abs(before) * 100)
}

// significant reports whether a change reaches threshold. Unchanged values
// never do.
func significant(before, after float64, pct Percent, threshold float64) bool {
	if before == after {
		return false
	}
	return math.Abs(float64(pct))/100 >= threshold
}

// CompareNumericMaps diffs before against after over the sorted union of
// their keys, minus exclude. A nil significance uses the configured default.
func CompareNumericMaps(before, after NumericMap, significance *float64, exclude ...string) (*NumericComparison, error) {
	th, err := resolveThreshold(significance)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, k := range exclude {
		excluded[k] = struct{}{}
	}

	keys := make([]string, 0, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	res := &NumericComparison{
		Differences:           map[string]Difference{},
		SignificantKeys:       []string{},
		InsignificantKeys:     []string{},
		SignificanceThreshold: th,
	}
	for _, k := range keys {
		if _, ok := excluded[k]; ok {
			continue
		}
		b, a := before[k], after[k]
		pct := PercentOf(b, a)
		if !significant(b, a, pct, th) {
			res.InsignificantKeys = append(res.InsignificantKeys, k)
			continue
		}
		res.SignificantKeys = append(res.SignificantKeys, k)
		res.Differences[k] = Difference{
			Before:   b,
			After:    a,
			Absolute: a - b,
			Percent:  pct,
		}
	}
	return res, nil
}
