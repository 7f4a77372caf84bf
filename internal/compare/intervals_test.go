package compare

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rec(rng string, diffs map[string]float64) IntervalRecord {
	return IntervalRecord{TimestampRange: rng, Differences: diffs}
}

func TestMergeIntervals(t *testing.T) {
	t.Run("merges equal neighbours", func(t *testing.T) {
		got := MergeIntervals([]IntervalRecord{
			rec("t1 to t2", map[string]float64{"executor_count_diff": 0}),
			rec("t2 to t3", map[string]float64{"executor_count_diff": 0}),
		}, "")
		assert.Equal(t, []IntervalRecord{
			rec("t1 to t3", map[string]float64{"executor_count_diff": 0}),
		}, got)
	})

	t.Run("keeps first differences and breaks on change", func(t *testing.T) {
		got := MergeIntervals([]IntervalRecord{
			rec("t1 to t2", map[string]float64{"executor_count_diff": 2, "cores": 8}),
			rec("t2 to t3", map[string]float64{"executor_count_diff": 2, "cores": 4}),
			rec("t3 to t4", map[string]float64{"executor_count_diff": 1}),
			rec("t4 to t5", map[string]float64{"executor_count_diff": 2}),
		}, DefaultSameKey)
		assert.Equal(t, []IntervalRecord{
			rec("t1 to t3", map[string]float64{"executor_count_diff": 2, "cores": 8}),
			rec("t3 to t4", map[string]float64{"executor_count_diff": 1}),
			rec("t4 to t5", map[string]float64{"executor_count_diff": 2}),
		}, got)
	})

	t.Run("records without the key stay alone", func(t *testing.T) {
		in := []IntervalRecord{
			rec("t1 to t2", map[string]float64{}),
			rec("t2 to t3", map[string]float64{}),
			rec("t3 to t4", nil),
		}
		assert.Equal(t, in, MergeIntervals(in, ""))
	})

	t.Run("custom key", func(t *testing.T) {
		got := MergeIntervals([]IntervalRecord{
			rec("a to b", map[string]float64{"stages": 1}),
			rec("b to c", map[string]float64{"stages": 1}),
		}, "stages")
		assert.Len(t, got, 1)
		assert.Equal(t, "a to c", got[0].TimestampRange)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, MergeIntervals(nil, ""))
	})
}

func TestMergeIntervalsProperties(t *testing.T) {
	values := []float64{0, 0, 1, 1, 1, -1, 0, 0}
	in := make([]IntervalRecord, 0, len(values)+1)
	for i, v := range values {
		in = append(in, rec(stamp(i)+" to "+stamp(i+1), map[string]float64{"executor_count_diff": v}))
	}
	in = append(in, rec(stamp(len(values))+" to "+stamp(len(values)+1), map[string]float64{}))

	out := MergeIntervals(in, "")
	assert.Len(t, out, 5)
	assert.LessOrEqual(t, len(out), len(in))
	assert.Equal(t, out, MergeIntervals(out, ""))

	// consecutive ranges still cover the original span without gaps
	for i := 1; i < len(out); i++ {
		_, prevEnd, _ := strings.Cut(out[i-1].TimestampRange, " to ")
		start, _, _ := strings.Cut(out[i].TimestampRange, " to ")
		assert.Equal(t, prevEnd, start)
	}
	first, _, _ := strings.Cut(out[0].TimestampRange, " to ")
	_, last, _ := strings.Cut(out[len(out)-1].TimestampRange, " to ")
	assert.Equal(t, stamp(0), first)
	assert.Equal(t, stamp(len(values)+1), last)
}

func stamp(i int) string {
	return "10:" + string(rune('0'+i/10)) + string(rune('0'+i%10))
}
