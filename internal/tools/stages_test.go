package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
)

func job(id int, name string, dur time.Duration, status string) sparkhistory.JobData {
	j := sparkhistory.JobData{
		JobID:          id,
		Name:           name,
		Status:         status,
		SubmissionTime: at(0),
		StageIDs:       []int{id * 2, id*2 + 1},
	}
	if status != sparkhistory.JobRunning {
		j.CompletionTime = at(dur)
	}
	return j
}

func TestListJobs(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		tools, m := newTestTool()
		m.On("ListJobs", ctx, "app-1", []string{sparkhistory.JobFailed}).
			Return([]sparkhistory.JobData{job(3, "count at etl.py:12", 90*time.Second, sparkhistory.JobFailed)}, nil).Once()

		result, _, err := tools.ListJobs(ctx, nil, ListJobsParams{AppID: "app-1", Status: []string{sparkhistory.JobFailed}})

		require.NoError(t, err)
		output := text(t, result)
		assert.Contains(t, output, "Found 1 job(s) for application 'app-1'")
		assert.Contains(t, output, "| 3 | count at etl.py:12 | FAILED | 90.0 | 2 | 0 |")
	})

	t.Run("no jobs", func(t *testing.T) {
		tools, m := newTestTool()
		m.On("ListJobs", ctx, "app-1", []string(nil)).Return([]sparkhistory.JobData{}, nil).Once()

		result, _, err := tools.ListJobs(ctx, nil, ListJobsParams{AppID: "app-1"})

		require.NoError(t, err)
		assert.Equal(t, "No jobs found for application 'app-1'", text(t, result))
	})

	t.Run("unknown server", func(t *testing.T) {
		tools, _ := newTestTool()
		_, _, err := tools.ListJobs(ctx, nil, ListJobsParams{AppID: "app-1", Server: "prod"})
		assert.Error(t, err)
	})
}

func TestListSlowestJobs(t *testing.T) {
	ctx := context.Background()
	tools, m := newTestTool()
	m.On("ListJobs", ctx, "app-1", []string(nil)).Return([]sparkhistory.JobData{
		job(0, "fast", 10*time.Second, sparkhistory.JobSucceeded),
		job(1, "slow", 5*time.Minute, sparkhistory.JobSucceeded),
		job(2, "stuck", 0, sparkhistory.JobRunning),
		job(3, "medium", time.Minute, sparkhistory.JobSucceeded),
	}, nil)

	result, _, err := tools.ListSlowestJobs(ctx, nil, SlowestParams{AppID: "app-1", N: 2})

	require.NoError(t, err)
	output := text(t, result)
	assert.Contains(t, output, "Slowest 2 job(s)")
	assert.Contains(t, output, "| 1 | slow |")
	assert.Contains(t, output, "| 3 | medium |")
	assert.NotContains(t, output, "stuck")
	assert.NotContains(t, output, "fast")
	assert.Less(t, strings.Index(output, "slow"), strings.Index(output, "medium"))
}

func TestListStages(t *testing.T) {
	ctx := context.Background()
	stages := []sparkhistory.StageData{
		stageData(0, "map at job.scala:10", 0, time.Minute),
		stageData(1, "reduce at job.scala:20", time.Minute, 2*time.Minute),
	}

	t.Run("table", func(t *testing.T) {
		tools, m := newTestTool()
		m.On("ListStages", ctx, "app-1", sparkhistory.StageListOptions{}).Return(stages, nil).Once()

		result, _, err := tools.ListStages(ctx, nil, ListStagesParams{AppID: "app-1"})

		require.NoError(t, err)
		output := text(t, result)
		assert.Contains(t, output, "Found 2 stage(s)")
		assert.Contains(t, output, "| 1 | 0 | reduce at job.scala:20 | COMPLETE | 120.0 | 10 | 0 |")
	})

	t.Run("with summaries", func(t *testing.T) {
		tools, m := newTestTool()
		m.On("ListStages", ctx, "app-1", withSummaries).Return(stages, nil).Once()

		result, _, err := tools.ListStages(ctx, nil, ListStagesParams{AppID: "app-1", WithSummaries: true})

		require.NoError(t, err)
		var decoded []sparkhistory.StageData
		require.NoError(t, json.Unmarshal([]byte(text(t, result)), &decoded))
		assert.Len(t, decoded, 2)
	})

	t.Run("client error", func(t *testing.T) {
		tools, m := newTestTool()
		m.On("ListStages", ctx, "app-1", sparkhistory.StageListOptions{}).Return(nil, errors.New("404")).Once()

		_, _, err := tools.ListStages(ctx, nil, ListStagesParams{AppID: "app-1"})
		assert.ErrorContains(t, err, "failed to list stages")
	})
}

func TestListSlowestStages(t *testing.T) {
	ctx := context.Background()
	tools, m := newTestTool()
	m.On("GetApplication", ctx, "app-1").Return(completedApp("app-1", time.Hour), nil)
	m.On("ListStages", ctx, "app-1", sparkhistory.StageListOptions{}).Return([]sparkhistory.StageData{
		stageData(0, "short", 0, 10*time.Second),
		stageData(1, "long", 0, 10*time.Minute),
	}, nil).Once()

	result, _, err := tools.ListSlowestStages(ctx, nil, SlowestParams{AppID: "app-1", N: 1})

	require.NoError(t, err)
	output := text(t, result)
	assert.Contains(t, output, "| 1 | 0 | long | COMPLETE | 600.0 |")
	assert.NotContains(t, output, "short")
}

func TestGetStage(t *testing.T) {
	ctx := context.Background()

	t.Run("latest attempt", func(t *testing.T) {
		tools, m := newTestTool()
		first := stageData(4, "join", 0, time.Minute)
		first.Status = sparkhistory.StageFailed
		retry := stageData(4, "join", time.Minute, time.Minute)
		retry.AttemptID = 1
		m.On("ListStageAttempts", ctx, "app-1", 4, sparkhistory.StageListOptions{}).
			Return([]sparkhistory.StageData{retry, first}, nil).Once()

		result, _, err := tools.GetStage(ctx, nil, GetStageParams{AppID: "app-1", StageID: 4})

		require.NoError(t, err)
		var stage sparkhistory.StageData
		require.NoError(t, json.Unmarshal([]byte(text(t, result)), &stage))
		assert.Equal(t, 1, stage.AttemptID)
		assert.Equal(t, sparkhistory.StageComplete, stage.Status)
	})

	t.Run("explicit attempt", func(t *testing.T) {
		tools, m := newTestTool()
		attempt := 0
		s := stageData(4, "join", 0, time.Minute)
		m.On("GetStageAttempt", ctx, "app-1", 4, 0, withSummaries).Return(&s, nil).Once()

		result, _, err := tools.GetStage(ctx, nil, GetStageParams{AppID: "app-1", StageID: 4, AttemptID: &attempt, WithSummaries: true})

		require.NoError(t, err)
		assert.Contains(t, text(t, result), `"name": "join"`)
		m.AssertExpectations(t)
	})

	t.Run("no attempts", func(t *testing.T) {
		tools, m := newTestTool()
		m.On("ListStageAttempts", ctx, "app-1", 9, sparkhistory.StageListOptions{}).
			Return([]sparkhistory.StageData{}, nil).Once()

		_, _, err := tools.GetStage(ctx, nil, GetStageParams{AppID: "app-1", StageID: 9})
		assert.ErrorContains(t, err, "no attempts found for stage 9")
	})
}

func TestGetStageTaskSummary(t *testing.T) {
	ctx := context.Background()
	tools, m := newTestTool()
	summary := &sparkhistory.TaskMetricDistributions{
		Quantiles: []float64{0.05, 0.25, 0.5, 0.75, 0.95},
		Duration:  []float64{10, 20, 30, 40, 500},
	}
	m.On("GetStageTaskSummary", ctx, "app-1", 2, 0, sparkhistory.DefaultQuantiles).Return(summary, nil).Once()

	result, _, err := tools.GetStageTaskSummary(ctx, nil, StageTaskSummaryParams{AppID: "app-1", StageID: 2})

	require.NoError(t, err)
	assert.Contains(t, text(t, result), "500")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
