package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/compare"
	"github.com/drutigliano19/spark-history-mcp/internal/config"
)

func TestCompareStages(t *testing.T) {
	a := stage(1, "map", 0, 100*time.Second, sparkhistory.StageComplete)
	a.NumTasks = 10
	b := stage(1, "map", 0, 200*time.Second, sparkhistory.StageComplete)
	b.NumTasks = 10

	distA := &sparkhistory.TaskMetricDistributions{
		Duration:        []float64{1, 2, 3, 4, 5},
		ExecutorRunTime: []float64{1, 1, 1, 1, 1},
	}
	distB := &sparkhistory.TaskMetricDistributions{
		Duration:        []float64{1, 2, 6, 8, 10},
		ExecutorRunTime: []float64{1, 1, 1, 1, 1},
	}

	t.Run("stage and task metrics", func(t *testing.T) {
		res, err := CompareStages(a, b, distA, distB, compare.Threshold(0.1))
		require.NoError(t, err)

		assert.Equal(t, []string{"duration_seconds"}, res.StageMetrics.SignificantKeys)
		require.NotNil(t, res.TaskDistributions)
		assert.True(t, res.TaskDistributions.Metrics["duration"].Significant)
		assert.Equal(t, 6.0, res.TaskDistributions.Metrics["duration"].After)
		assert.False(t, res.TaskDistributions.Metrics["executor_run_time"].Significant)
		assert.Equal(t, 2, res.TotalDifferences)
	})

	t.Run("embedded distributions", func(t *testing.T) {
		a, b := a, b
		a.TaskMetricsDistributions = distA
		b.TaskMetricsDistributions = distB
		res, err := CompareStages(a, b, nil, nil, compare.Threshold(0.1))
		require.NoError(t, err)
		assert.NotNil(t, res.TaskDistributions)
	})

	t.Run("without distributions", func(t *testing.T) {
		res, err := CompareStages(a, b, nil, nil, compare.Threshold(0.1))
		require.NoError(t, err)
		assert.Nil(t, res.TaskDistributions)
		assert.Equal(t, 1, res.TotalDifferences)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		_, err := CompareStages(a, b, nil, nil, compare.Threshold(-0.5))
		assert.ErrorIs(t, err, config.ErrInvalidThreshold)
	})
}

func stageDiffFixture() ([]sparkhistory.StageData, []sparkhistory.StageData) {
	a := []sparkhistory.StageData{
		stage(1, "map at Job.scala:10", 0, 100*time.Second, sparkhistory.StageComplete),
		stage(2, "reduce at Job.scala:20", 0, 50*time.Second, sparkhistory.StageComplete),
		stage(3, "count", 0, 10*time.Second, sparkhistory.StageComplete),
	}
	b := []sparkhistory.StageData{
		stage(11, "reduce at Job.scala:20", 0, 40*time.Second, sparkhistory.StageComplete),
		stage(12, "map at Job.scala:10", 0, 161*time.Second, sparkhistory.StageComplete),
		stage(13, "a completely unrelated name", 0, 10*time.Second, sparkhistory.StageComplete),
	}
	return a, b
}

func TestTopStageDifferences(t *testing.T) {
	a, b := stageDiffFixture()

	res, err := TopStageDifferences(a, b, 5, nil)
	require.NoError(t, err)
	require.Len(t, res.TopDifferences, 2)

	first := res.TopDifferences[0]
	assert.Equal(t, 1, first.Stage1.StageID)
	assert.Equal(t, 12, first.Stage2.StageID)
	assert.Equal(t, 1.0, first.Similarity)
	assert.Equal(t, 61.0, first.TimeDifference.AbsoluteSeconds)
	assert.InDelta(t, 61, float64(first.TimeDifference.Percent), 1e-9)
	assert.Equal(t, "app2", first.TimeDifference.SlowerApplication)

	second := res.TopDifferences[1]
	assert.Equal(t, "app1", second.TimeDifference.SlowerApplication)
	assert.InDelta(t, -20, float64(second.TimeDifference.Percent), 1e-9)

	assert.Equal(t, 2, res.Summary.MatchedStages)
	assert.Equal(t, 71.0, res.Summary.TotalTimeDiff)

	t.Run("top n", func(t *testing.T) {
		res, err := TopStageDifferences(a, b, 1, nil)
		require.NoError(t, err)
		assert.Len(t, res.TopDifferences, 1)
		assert.Equal(t, 1, res.Summary.Reported)
	})

	t.Run("invalid similarity threshold", func(t *testing.T) {
		_, err := TopStageDifferences(a, b, 5, compare.Threshold(1.5))
		assert.ErrorIs(t, err, compare.ErrInvalidSimilarity)
	})
}

func TestCompareAppSummaries(t *testing.T) {
	a := &AppSummary{DurationMinutes: 10, TotalStages: 4}
	b := &AppSummary{DurationMinutes: 20, TotalStages: 4}

	res, err := CompareAppSummaries(a, b, compare.Threshold(0.1))
	require.NoError(t, err)
	assert.Equal(t, []string{"application_duration_minutes"}, res.Metrics.SignificantKeys)
	assert.Equal(t, compare.Percent(100), res.Metrics.Differences["application_duration_minutes"].Percent)
}
