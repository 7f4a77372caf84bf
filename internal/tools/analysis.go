package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/drutigliano19/spark-history-mcp/internal/analysis"
)

type BottlenecksParams struct {
	AppID  string `json:"app_id" jsonschema:"The Spark application ID"`
	Server string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	TopN   int    `json:"top_n,omitempty" jsonschema:"Number of stages and jobs to report, 5 by default"`
}

type AutoScalingParams struct {
	AppID                      string  `json:"app_id" jsonschema:"The Spark application ID"`
	Server                     string  `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	TargetStageDurationMinutes float64 `json:"target_stage_duration_minutes,omitempty" jsonschema:"Desired average stage duration, 2 minutes by default"`
}

type ShuffleSkewParams struct {
	AppID              string  `json:"app_id" jsonschema:"The Spark application ID"`
	Server             string  `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	ShuffleThresholdGB float64 `json:"shuffle_threshold_gb,omitempty" jsonschema:"Minimum shuffle write per stage in GB, 10 by default"`
	SkewRatioThreshold float64 `json:"skew_ratio_threshold,omitempty" jsonschema:"Max to median task duration ratio that counts as skew, 2 by default"`
}

type FailedTasksParams struct {
	AppID            string `json:"app_id" jsonschema:"The Spark application ID"`
	Server           string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	FailureThreshold int    `json:"failure_threshold,omitempty" jsonschema:"Minimum failed tasks to report a stage or executor, 1 by default"`
}

type InsightsParams struct {
	AppID              string `json:"app_id" jsonschema:"The Spark application ID"`
	Server             string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	SkipAutoScaling    bool   `json:"skip_auto_scaling,omitempty" jsonschema:"Leave out the auto scaling analysis"`
	SkipShuffleSkew    bool   `json:"skip_shuffle_skew,omitempty" jsonschema:"Leave out the shuffle skew analysis"`
	SkipFailedTasks    bool   `json:"skip_failed_tasks,omitempty" jsonschema:"Leave out the failed task analysis"`
	MaxRecommendations int    `json:"max_recommendations,omitempty" jsonschema:"Maximum recommendations, 10 by default"`
}

// GetJobBottlenecks reports slow stages and jobs, spill and GC pressure.
func (t tool) GetJobBottlenecks(ctx context.Context, request *mcp.CallToolRequest, params BottlenecksParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	d, err := loadApp(ctx, f, params.AppID, false)
	if err != nil {
		return nil, nil, err
	}
	jobs, err := t.jobs(ctx, params.Server, params.AppID)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(analysis.FindBottlenecks(params.AppID, d.stages, jobs, d.executors, orDefault(params.TopN, defaultTopN)))
}

func (t tool) AnalyzeAutoScaling(ctx context.Context, request *mcp.CallToolRequest, params AutoScalingParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	d, err := loadApp(ctx, f, params.AppID, false)
	if err != nil {
		return nil, nil, err
	}
	res, err := analysis.AnalyzeAutoScaling(*d.app, d.stages, d.executors,
		orDefault(params.TargetStageDurationMinutes, analysis.DefaultInsightOptions().TargetStageMinutes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to analyze auto scaling: %w", err)
	}
	return jsonResult(res)
}

func (t tool) AnalyzeShuffleSkew(ctx context.Context, request *mcp.CallToolRequest, params ShuffleSkewParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	stages, err := f.Stages(ctx, params.AppID, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list stages: %w", err)
	}
	defaults := analysis.DefaultInsightOptions()
	res, err := analysis.AnalyzeShuffleSkew(params.AppID, stages,
		orDefault(params.ShuffleThresholdGB, defaults.ShuffleThresholdGB),
		orDefault(params.SkewRatioThreshold, defaults.SkewRatio))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to analyze shuffle skew: %w", err)
	}
	return jsonResult(res)
}

func (t tool) AnalyzeFailedTasks(ctx context.Context, request *mcp.CallToolRequest, params FailedTasksParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	d, err := loadApp(ctx, f, params.AppID, false)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(analysis.AnalyzeFailedTasks(params.AppID, d.stages, d.executors,
		orDefault(params.FailureThreshold, analysis.DefaultInsightOptions().FailureThreshold)))
}

// GetApplicationInsights runs every analysis and merges their
// recommendations.
func (t tool) GetApplicationInsights(ctx context.Context, request *mcp.CallToolRequest, params InsightsParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	d, err := loadApp(ctx, f, params.AppID, true)
	if err != nil {
		return nil, nil, err
	}
	jobs, err := t.jobs(ctx, params.Server, params.AppID)
	if err != nil {
		return nil, nil, err
	}

	opts := analysis.DefaultInsightOptions()
	opts.IncludeAutoScaling = !params.SkipAutoScaling
	opts.IncludeShuffleSkew = !params.SkipShuffleSkew
	opts.IncludeFailedTasks = !params.SkipFailedTasks
	opts.MaxRecommendations = orDefault(params.MaxRecommendations, opts.MaxRecommendations)
	return jsonResult(analysis.ApplicationInsights(*d.app, d.stages, jobs, d.executors, opts))
}
