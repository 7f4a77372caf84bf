package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationInsights(t *testing.T) {
	stages, jobs, executors := bottleneckFixture()
	app := application("app-1", time.Hour)

	t.Run("runs every section", func(t *testing.T) {
		res := ApplicationInsights(app, stages, jobs, executors, DefaultInsightOptions())

		assert.Equal(t, []string{"application_summary", "bottlenecks", "auto_scaling", "shuffle_skew", "failed_tasks"}, res.Overview.AnalysesRun)
		assert.Nil(t, res.Errors)
		require.NotNil(t, res.Summary)
		require.NotNil(t, res.Bottlenecks)

		require.NotEmpty(t, res.Recommendations)
		assert.Equal(t, PriorityHigh, res.Recommendations[0].Priority)
		assert.Equal(t, "performance", res.Recommendations[0].Type)
		assert.Contains(t, res.Recommendations[0].Suggestion, "Look into data partitioning")
		assert.Equal(t, len(res.Recommendations), res.Overview.TotalRecommendations)
	})

	t.Run("section errors do not stop the rest", func(t *testing.T) {
		res := ApplicationInsights(app, nil, nil, nil, DefaultInsightOptions())

		assert.Contains(t, res.Errors, "auto_scaling")
		assert.Contains(t, res.Errors, "shuffle_skew")
		assert.NotNil(t, res.Summary)
		assert.NotNil(t, res.FailedTasks)
	})

	t.Run("disabled sections", func(t *testing.T) {
		opts := DefaultInsightOptions()
		opts.IncludeAutoScaling = false
		opts.IncludeBottlenecks = false
		res := ApplicationInsights(app, stages, jobs, executors, opts)

		assert.Nil(t, res.AutoScaling)
		assert.Nil(t, res.Bottlenecks)
		assert.NotContains(t, res.Overview.AnalysesRun, "bottlenecks")
	})
}
