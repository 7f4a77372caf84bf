package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/compare"
)

func TestBuildStageExecutorTimeline(t *testing.T) {
	st := stage(7, "join", 0, 3*time.Minute, sparkhistory.StageComplete)
	executors := []sparkhistory.ExecutorSummary{
		executor("1", -time.Minute, 90*time.Second, 2),
		executor("2", 150*time.Second, 0, 2),
		executor("3", 0, 0, 4),
	}

	t.Run("buckets the stage window", func(t *testing.T) {
		tl, err := BuildStageExecutorTimeline(st, executors, 1, 10)
		require.NoError(t, err)

		require.Len(t, tl.Intervals, 3)
		assert.Equal(t, []string{"1", "3"}, tl.Intervals[0].ExecutorIDs)
		assert.Equal(t, []string{"1", "3"}, tl.Intervals[1].ExecutorIDs)
		assert.Equal(t, []string{"2", "3"}, tl.Intervals[2].ExecutorIDs)
		assert.Equal(t, 6, tl.Intervals[2].TotalCores)
		assert.Empty(t, tl.Warning)
	})

	t.Run("truncates", func(t *testing.T) {
		tl, err := BuildStageExecutorTimeline(st, executors, 1, 2)
		require.NoError(t, err)
		assert.Len(t, tl.Intervals, 2)
		assert.Equal(t, "Timeline truncated at 2 intervals", tl.Warning)
	})

	t.Run("running stage uses a day window", func(t *testing.T) {
		running := stage(8, "scan", 0, 0, sparkhistory.StageActive)
		tl, err := BuildStageExecutorTimeline(running, nil, 60, 100)
		require.NoError(t, err)
		assert.Len(t, tl.Intervals, 24)
		assert.Equal(t, base.Add(24*time.Hour), tl.EndTime)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := BuildStageExecutorTimeline(st, executors, 0, 10)
		assert.ErrorIs(t, err, ErrInvalidInterval)
		_, err = BuildStageExecutorTimeline(sparkhistory.StageData{}, executors, 1, 10)
		assert.ErrorIs(t, err, ErrNoSubmissionTime)
	})
}

func TestBuildAppExecutorTimeline(t *testing.T) {
	app := application("app-1", 2*time.Minute)
	e1 := executor("1", 0, 90*time.Second, 2)
	e1.MaxMemory = 1024 * bytesPerMB
	e2 := executor("2", 90*time.Second, 0, 4)
	e2.MaxMemory = 2048 * bytesPerMB
	stages := []sparkhistory.StageData{
		stage(1, "a", 0, time.Minute, sparkhistory.StageComplete),
		stage(2, "b", 90*time.Second, 30*time.Second, sparkhistory.StageComplete),
	}

	tl, err := BuildAppExecutorTimeline(app, []sparkhistory.ExecutorSummary{e1, e2}, stages, 1, 100)
	require.NoError(t, err)
	require.Len(t, tl.Intervals, 2)

	assert.Equal(t, 1, tl.Intervals[0].ActiveExecutors)
	assert.Equal(t, 2, tl.Intervals[0].TotalCores)
	assert.Equal(t, 1024.0, tl.Intervals[0].TotalMemoryMB)
	assert.Equal(t, 1, tl.Intervals[0].ActiveStages)

	assert.Equal(t, 2, tl.Intervals[1].ActiveExecutors)
	assert.Equal(t, 6, tl.Intervals[1].TotalCores)
	assert.Equal(t, 2, tl.Intervals[1].ActiveStages)

	assert.Equal(t, TimelineSummary{
		TotalExecutors: 2,
		TotalStages:    2,
		PeakExecutors:  2,
		AvgExecutors:   1.5,
		PeakCores:      6,
		PeakMemoryMB:   3072,
	}, tl.Summary)

	t.Run("errors", func(t *testing.T) {
		_, err := BuildAppExecutorTimeline(sparkhistory.ApplicationInfo{}, nil, nil, 1, 10)
		assert.ErrorIs(t, err, ErrNoAttempts)

		noStart := sparkhistory.ApplicationInfo{Attempts: []sparkhistory.ApplicationAttemptInfo{{}}}
		_, err = BuildAppExecutorTimeline(noStart, nil, nil, 1, 10)
		assert.ErrorIs(t, err, ErrNoStartTime)
	})
}

func TestCompareTimelines(t *testing.T) {
	intervals := func(counts ...int) []TimelineInterval {
		out := make([]TimelineInterval, len(counts))
		for i, c := range counts {
			out[i] = TimelineInterval{ActiveExecutors: c}
		}
		return out
	}

	res := CompareTimelines(intervals(1, 1, 2), intervals(2, 2, 2, 3), 1)

	require.Len(t, res.Intervals, 3)
	assert.Equal(t, "0m to 2m", res.Intervals[0].TimestampRange)
	assert.Equal(t, 1.0, res.Intervals[0].Differences[compare.DefaultSameKey])
	assert.Equal(t, "2m to 3m", res.Intervals[1].TimestampRange)
	assert.Equal(t, "3m to 4m", res.Intervals[2].TimestampRange)
	assert.Equal(t, 3.0, res.Intervals[2].Differences[compare.DefaultSameKey])

	assert.Equal(t, TimelineComparisonSummary{
		TotalIntervals:             4,
		MergedIntervals:            3,
		IntervalsWithDifferences:   3,
		MaxExecutorCountDifference: 3,
	}, res.Summary)
}
