package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/analysis"
)

// mockApp serves a completed application, its stages and its executors.
func mockApp(m *MockSparkHistoryClient, app *sparkhistory.ApplicationInfo, stages []sparkhistory.StageData, executors []sparkhistory.ExecutorSummary) {
	m.On("GetApplication", mock.Anything, app.ID).Return(app, nil)
	m.On("ListStages", mock.Anything, app.ID, sparkhistory.StageListOptions{}).Return(stages, nil)
	m.On("ListStages", mock.Anything, app.ID, withSummaries).Return(stages, nil)
	m.On("ListAllExecutors", mock.Anything, app.ID).Return(executors, nil)
}

func troubledStages() []sparkhistory.StageData {
	spilling := stageData(0, "sort at etl.scala:40", 0, 10*time.Minute)
	spilling.MemoryBytesSpilled = 2 << 30
	spilling.ShuffleWriteBytes = 20 << 30
	spilling.TaskMetricsDistributions = &sparkhistory.TaskMetricDistributions{
		Quantiles: []float64{0.05, 0.25, 0.5, 0.75, 0.95},
		Duration:  []float64{1000, 2000, 3000, 4000, 30000},
	}
	failing := stageData(1, "write at etl.scala:90", 10*time.Minute, time.Minute)
	failing.NumFailedTasks = 4
	failing.NumTasks = 20
	return []sparkhistory.StageData{spilling, failing}
}

func TestGetJobBottlenecks(t *testing.T) {
	ctx := context.Background()
	tools, m := newTestTool()
	mockApp(m, completedApp("app-1", 15*time.Minute), troubledStages(), []sparkhistory.ExecutorSummary{executorData("1", 4)})
	m.On("ListJobs", ctx, "app-1", []string(nil)).
		Return([]sparkhistory.JobData{job(0, "save", 11*time.Minute, sparkhistory.JobSucceeded)}, nil).Once()

	result, _, err := tools.GetJobBottlenecks(ctx, nil, BottlenecksParams{AppID: "app-1", TopN: 1})

	require.NoError(t, err)
	var b analysis.Bottlenecks
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &b))
	require.Len(t, b.SlowestStages, 1)
	assert.Equal(t, 0, b.SlowestStages[0].StageID)
	require.Len(t, b.SlowestJobs, 1)
	require.Len(t, b.HighSpillStages, 1)
	assert.Equal(t, 2048.0, b.HighSpillStages[0].MemorySpilledMB)
	assert.NotEmpty(t, b.Recommendations)
}

func TestAnalyzeAutoScaling(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		tools, m := newTestTool()
		mockApp(m, completedApp("app-1", 15*time.Minute), troubledStages(),
			[]sparkhistory.ExecutorSummary{executorData("driver", 1), executorData("1", 4), executorData("2", 4)})

		result, _, err := tools.AnalyzeAutoScaling(ctx, nil, AutoScalingParams{AppID: "app-1"})

		require.NoError(t, err)
		var res analysis.AutoScaling
		require.NoError(t, json.Unmarshal([]byte(text(t, result)), &res))
		assert.Equal(t, "app-1", res.ApplicationID)
		assert.Equal(t, 2.0, res.Recommendations.TargetStageDurationMinutes)
	})

	t.Run("no stages", func(t *testing.T) {
		tools, m := newTestTool()
		mockApp(m, completedApp("app-2", time.Minute), []sparkhistory.StageData{}, nil)

		_, _, err := tools.AnalyzeAutoScaling(ctx, nil, AutoScalingParams{AppID: "app-2"})
		assert.Error(t, err)
	})
}

func TestAnalyzeShuffleSkew(t *testing.T) {
	ctx := context.Background()
	tools, m := newTestTool()
	mockApp(m, completedApp("app-1", 15*time.Minute), troubledStages(), nil)

	result, _, err := tools.AnalyzeShuffleSkew(ctx, nil, ShuffleSkewParams{AppID: "app-1"})

	require.NoError(t, err)
	var res analysis.ShuffleSkew
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &res))
	assert.Equal(t, 10.0, res.AnalysisParameters.ShuffleThresholdGB)
	assert.Equal(t, 2.0, res.AnalysisParameters.SkewRatioThreshold)
	require.Len(t, res.SkewedStages, 1)
	assert.Equal(t, 0, res.SkewedStages[0].StageID)
	assert.Equal(t, analysis.SkewFromTaskDuration, res.SkewedStages[0].DetectedBy)
}

func TestAnalyzeFailedTasks(t *testing.T) {
	ctx := context.Background()
	tools, m := newTestTool()
	flaky := executorData("3", 4)
	flaky.FailedTasks = 4
	mockApp(m, completedApp("app-1", 15*time.Minute), troubledStages(), []sparkhistory.ExecutorSummary{executorData("1", 4), flaky})

	result, _, err := tools.AnalyzeFailedTasks(ctx, nil, FailedTasksParams{AppID: "app-1"})

	require.NoError(t, err)
	var res analysis.FailedTasksReport
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &res))
	assert.Equal(t, 4, res.FailureAnalysis.TotalFailedTasks)
	require.Len(t, res.FailedStages, 1)
	assert.Equal(t, 0.2, res.FailedStages[0].FailureRate)
	require.Len(t, res.ProblematicExecutors, 1)
	assert.Equal(t, "3", res.ProblematicExecutors[0].ExecutorID)
}

func TestGetApplicationInsights(t *testing.T) {
	ctx := context.Background()
	tools, m := newTestTool()
	mockApp(m, completedApp("app-1", 15*time.Minute), troubledStages(), []sparkhistory.ExecutorSummary{executorData("1", 4)})
	m.On("ListJobs", ctx, "app-1", []string(nil)).Return([]sparkhistory.JobData{}, nil).Once()

	result, _, err := tools.GetApplicationInsights(ctx, nil, InsightsParams{AppID: "app-1", SkipAutoScaling: true})

	require.NoError(t, err)
	var res analysis.Insights
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &res))
	assert.Nil(t, res.AutoScaling)
	assert.NotNil(t, res.ShuffleSkew)
	assert.NotNil(t, res.FailedTasks)
	assert.NotContains(t, res.Overview.AnalysesRun, "auto_scaling")
	assert.Contains(t, res.Overview.AnalysesRun, "bottlenecks")
	assert.NotEmpty(t, res.Recommendations)
}
