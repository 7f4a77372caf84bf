package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/config"
	"github.com/drutigliano19/spark-history-mcp/internal/metrics"
)

var base = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func at(d time.Duration) sparkhistory.SparkTime {
	return sparkhistory.NewSparkTime(base.Add(d))
}

func newTestTool() (*tool, *MockSparkHistoryClient) {
	m := new(MockSparkHistoryClient)
	return NewBaseTool("local", map[string]SparkHistoryClient{"local": m}, ""), m
}

func completedApp(id string, dur time.Duration) *sparkhistory.ApplicationInfo {
	return &sparkhistory.ApplicationInfo{
		ID:                  id,
		Name:                "etl-" + id,
		CoresGranted:        8,
		MemoryPerExecutorMB: 4096,
		Attempts: []sparkhistory.ApplicationAttemptInfo{{
			StartTime: at(0),
			EndTime:   at(dur),
			Duration:  dur.Milliseconds(),
			SparkUser: "spark",
			Completed: true,
		}},
	}
}

func stageData(id int, name string, start, dur time.Duration) sparkhistory.StageData {
	return sparkhistory.StageData{
		StageID:          id,
		Name:             name,
		Status:           sparkhistory.StageComplete,
		NumTasks:         10,
		NumCompleteTasks: 10,
		SubmissionTime:   at(start),
		CompletionTime:   at(start + dur),
		ExecutorRunTime:  dur.Milliseconds(),
	}
}

func executorData(id string, cores int) sparkhistory.ExecutorSummary {
	return sparkhistory.ExecutorSummary{
		ID:             id,
		HostPort:       "worker-" + id + ":7337",
		IsActive:       true,
		TotalCores:     cores,
		CompletedTasks: 20,
		TotalDuration:  60000,
		TotalGCTime:    1000,
		MaxMemory:      1 << 30,
		AddTime:        at(0),
	}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	return res.Content[0].(*mcp.TextContent).Text
}

func TestResolve(t *testing.T) {
	a, b := new(MockSparkHistoryClient), new(MockSparkHistoryClient)
	tools := NewBaseTool("primary", map[string]SparkHistoryClient{"primary": a, "staging": b}, "")

	t.Run("default server", func(t *testing.T) {
		c, err := tools.client("")
		require.NoError(t, err)
		assert.Same(t, a, c)
	})

	t.Run("case insensitive", func(t *testing.T) {
		c, err := tools.client("Staging")
		require.NoError(t, err)
		assert.Same(t, b, c)
	})

	t.Run("unknown server", func(t *testing.T) {
		_, err := tools.fetcher("prod")
		assert.ErrorIs(t, err, config.ErrUnknownServer)
		assert.Contains(t, err.Error(), "primary, staging")
	})

	assert.Equal(t, []string{"primary", "staging"}, tools.Servers())
}

func TestInstrument(t *testing.T) {
	metrics.ToolCallsTotal.Reset()
	ctx := context.Background()

	ok := Instrument("ok_tool", func(ctx context.Context, req *mcp.CallToolRequest, params AppParams) (*mcp.CallToolResult, any, error) {
		return textResult(params.AppID), nil, nil
	})
	failing := Instrument("failing_tool", func(ctx context.Context, req *mcp.CallToolRequest, params AppParams) (*mcp.CallToolResult, any, error) {
		return nil, nil, errors.New("boom")
	})

	res, _, err := ok(ctx, nil, AppParams{AppID: "app-1"})
	require.NoError(t, err)
	assert.Equal(t, "app-1", text(t, res))
	_, _, err = failing(ctx, nil, AppParams{})
	assert.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ToolCallsTotal.WithLabelValues("ok_tool", metrics.StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ToolCallsTotal.WithLabelValues("failing_tool", metrics.StatusError)))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, 5, orDefault(0, 5))
	assert.Equal(t, 3, orDefault(3, 5))
	assert.Equal(t, "x", orDefault("", "x"))
}
