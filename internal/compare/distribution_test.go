package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shuffleRead struct {
	FetchWaitTime []float64 `json:"fetchWaitTime"`
}

type taskDist struct {
	Duration           []float64    `json:"duration"`
	ShuffleReadMetrics *shuffleRead `json:"shuffleReadMetrics,omitempty"`
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	// upper middle for even lengths
	assert.Equal(t, 3.0, Median([]float64{4, 1, 3, 2}))
	assert.Zero(t, Median(nil))

	samples := []float64{3, 2, 1}
	Median(samples)
	assert.Equal(t, []float64{3, 2, 1}, samples)
}

func TestDistributionSamples(t *testing.T) {
	d, err := AsDistribution(taskDist{
		Duration:           []float64{1, 2, 3},
		ShuffleReadMetrics: &shuffleRead{FetchWaitTime: []float64{10, 20, 30}},
	})
	require.NoError(t, err)

	s, ok := d.Samples("shuffleReadMetrics.fetchWaitTime")
	require.True(t, ok)
	assert.Equal(t, []float64{10, 20, 30}, s)

	_, ok = d.Samples("shuffleReadMetrics.missing")
	assert.False(t, ok)
	_, ok = d.Samples("duration.nested")
	assert.False(t, ok)
	_, ok = d.Samples("shuffleReadMetrics")
	assert.False(t, ok)

	mixed := Distribution{"x": []any{1.0, "two", 3.0}}
	_, ok = mixed.Samples("x")
	assert.False(t, ok)

	empty, err := AsDistribution(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = AsDistribution([]int{1, 2})
	assert.Error(t, err)
}

func TestCompareDistributions(t *testing.T) {
	before, err := AsDistribution(taskDist{
		Duration:           []float64{100, 200, 300, 400, 500},
		ShuffleReadMetrics: &shuffleRead{FetchWaitTime: []float64{1, 2}},
	})
	require.NoError(t, err)
	after, err := AsDistribution(taskDist{
		Duration:           []float64{100, 250, 330, 400, 500},
		ShuffleReadMetrics: &shuffleRead{FetchWaitTime: []float64{1, 2, 3}},
	})
	require.NoError(t, err)

	fields := []Field{
		{Path: "duration", Label: "task_duration"},
		{Path: "shuffleReadMetrics.fetchWaitTime", Label: "fetch_wait"},
		{Path: "executorRunTime", Label: "run_time"},
	}

	res, err := CompareDistributions(before, after, fields, Threshold(0.05))
	require.NoError(t, err)

	assert.Equal(t, 0.05, res.SignificanceThreshold)
	require.Len(t, res.Metrics, 1)
	got := res.Metrics["task_duration"]
	assert.Equal(t, 300.0, got.Before)
	assert.Equal(t, 330.0, got.After)
	assert.InDelta(t, 10, float64(got.Percent), 1e-9)
	assert.True(t, got.Significant)
	assert.NotContains(t, res.Metrics, "fetch_wait")

	res, err = CompareDistributions(before, after, fields, Threshold(0.5))
	require.NoError(t, err)
	assert.False(t, res.Metrics["task_duration"].Significant)

	_, err = CompareDistributions(before, after, fields, Threshold(-1))
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}
