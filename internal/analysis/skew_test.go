package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/compare"
)

func TestAnalyzeShuffleSkew(t *testing.T) {
	withDurations := func(d ...float64) *sparkhistory.TaskMetricDistributions {
		return &sparkhistory.TaskMetricDistributions{Duration: d}
	}
	stages := []sparkhistory.StageData{
		{StageID: 1, ShuffleWriteBytes: 5 * compare.BytesPerGB, NumTasks: 100, NumFailedTasks: 2},
		{StageID: 2, ShuffleWriteBytes: 3 * compare.BytesPerGB, NumTasks: 10, TaskMetricsDistributions: withDurations(1, 2, 10, 20, 50)},
		{StageID: 3, ShuffleWriteBytes: 2 * compare.BytesPerGB, NumTasks: 10, TaskMetricsDistributions: withDurations(1, 2, 10, 12, 15)},
		{StageID: 4, ShuffleWriteBytes: compare.BytesPerGB / 2},
	}

	res, err := AnalyzeShuffleSkew("app-1", stages, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, ShuffleOverview{TotalStages: 4, ShuffleStages: 3, SkewedStages: 2, TotalShuffleGB: 10}, res.ShuffleAnalysis)
	require.Len(t, res.SkewedStages, 2)

	assert.Equal(t, 1, res.SkewedStages[0].StageID)
	assert.Equal(t, SkewFromFailedTasks, res.SkewedStages[0].DetectedBy)
	assert.InDelta(t, 0.2, res.SkewedStages[0].SkewRatio, 1e-9)

	assert.Equal(t, 2, res.SkewedStages[1].StageID)
	assert.Equal(t, SkewFromTaskDuration, res.SkewedStages[1].DetectedBy)
	assert.Equal(t, 5.0, res.SkewedStages[1].SkewRatio)

	require.Len(t, res.Recommendations, 2)
	assert.Contains(t, res.Recommendations[0], "Found 2 stages")

	t.Run("no stages", func(t *testing.T) {
		_, err := AnalyzeShuffleSkew("app-1", nil, 1, 2)
		assert.ErrorIs(t, err, ErrNoStages)
	})
}

func TestAnalyzeFailedTasks(t *testing.T) {
	stages := []sparkhistory.StageData{
		{StageID: 1, NumTasks: 50, NumFailedTasks: 5, Status: sparkhistory.StageFailed},
		{StageID: 2, NumTasks: 50},
	}
	executors := []sparkhistory.ExecutorSummary{
		{ID: "1", FailedTasks: 3, CompletedTasks: 7},
		{ID: "2", CompletedTasks: 7, RemoveReason: "lost"},
	}

	res := AnalyzeFailedTasks("app-1", stages, executors, 0)

	assert.Equal(t, FailureOverview{TotalFailedTasks: 5, FailedStagesCount: 1, ProblematicExecutorsCount: 1}, res.FailureAnalysis)
	require.Len(t, res.FailedStages, 1)
	assert.InDelta(t, 0.1, res.FailedStages[0].FailureRate, 1e-9)
	require.Len(t, res.ProblematicExecutors, 1)
	assert.InDelta(t, 0.3, res.ProblematicExecutors[0].FailureRate, 1e-9)
	assert.Equal(t, "N/A", res.ProblematicExecutors[0].RemoveReason)
	require.Len(t, res.Recommendations, 2)
	assert.Contains(t, res.Recommendations[0], "avg failure rate: 10.0%")

	t.Run("threshold", func(t *testing.T) {
		res := AnalyzeFailedTasks("app-1", stages, executors, 10)
		assert.Empty(t, res.FailedStages)
		assert.Empty(t, res.ProblematicExecutors)
		assert.Empty(t, res.Recommendations)
	})
}
