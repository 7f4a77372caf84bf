package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/drutigliano19/spark-history-mcp/internal/analysis"
	"github.com/drutigliano19/spark-history-mcp/internal/config"
)

type ListExecutorsParams struct {
	AppID           string `json:"app_id" jsonschema:"The Spark application ID"`
	Server          string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	IncludeInactive bool   `json:"include_inactive,omitempty" jsonschema:"Include removed executors"`
}

type GetExecutorParams struct {
	AppID      string `json:"app_id" jsonschema:"The Spark application ID"`
	ExecutorID string `json:"executor_id" jsonschema:"The executor ID, e.g. driver or 1"`
	Server     string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
}

type TimelineParams struct {
	AppID           string `json:"app_id" jsonschema:"The Spark application ID"`
	Server          string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	IntervalMinutes int    `json:"interval_minutes,omitempty" jsonschema:"Bucket size in minutes, default_interval_minutes when empty"`
}

func (t tool) ListExecutors(ctx context.Context, request *mcp.CallToolRequest, params ListExecutorsParams) (*mcp.CallToolResult, any, error) {
	c, err := t.client(params.Server)
	if err != nil {
		return nil, nil, err
	}
	list := c.ListExecutors
	if params.IncludeInactive {
		list = c.ListAllExecutors
	}
	executors, err := list(ctx, params.AppID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list executors: %w", err)
	}
	if len(executors) == 0 {
		return textResult(fmt.Sprintf("No executors found for application '%s'", params.AppID)), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d executor(s) for application '%s':\n\n", len(executors), params.AppID))
	sb.WriteString("| ID | Host | Active | Cores | Completed Tasks | Failed Tasks | GC Time (s) | Max Memory (MB) |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, e := range executors {
		sb.WriteString(fmt.Sprintf("| %s | %s | %t | %d | %d | %d | %.1f | %.0f |\n",
			e.ID, e.HostPort, e.IsActive, e.TotalCores, e.CompletedTasks, e.FailedTasks,
			float64(e.TotalGCTime)/1000, float64(e.MaxMemory)/(1024*1024)))
	}
	return textResult(sb.String()), nil, nil
}

func (t tool) GetExecutor(ctx context.Context, request *mcp.CallToolRequest, params GetExecutorParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	executors, err := f.Executors(ctx, params.AppID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list executors: %w", err)
	}
	for _, e := range executors {
		if e.ID == params.ExecutorID {
			return jsonResult(e)
		}
	}
	return textResult(fmt.Sprintf("Executor '%s' not found in application '%s'", params.ExecutorID, params.AppID)), nil, nil
}

// GetExecutorSummary aggregates metrics over active and removed executors.
func (t tool) GetExecutorSummary(ctx context.Context, request *mcp.CallToolRequest, params AppParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	executors, err := f.Executors(ctx, params.AppID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list executors: %w", err)
	}
	return jsonResult(analysis.SummarizeExecutors(executors))
}

// GetResourceUsageTimeline buckets executors, cores, memory and running
// stages over the application lifetime.
func (t tool) GetResourceUsageTimeline(ctx context.Context, request *mcp.CallToolRequest, params TimelineParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	d, err := loadApp(ctx, f, params.AppID, false)
	if err != nil {
		return nil, nil, err
	}
	tools := config.Tools()
	tl, err := analysis.BuildAppExecutorTimeline(*d.app, d.executors, d.stages,
		orDefault(params.IntervalMinutes, tools.DefaultIntervalMinutes), tools.TimelineMaxIntervals)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build timeline: %w", err)
	}
	return jsonResult(tl)
}

