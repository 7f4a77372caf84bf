package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/analysis"
)

const defaultTopN = 5

type ListJobsParams struct {
	AppID  string   `json:"app_id" jsonschema:"The Spark application ID"`
	Server string   `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	Status []string `json:"status,omitempty" jsonschema:"Job status filter: RUNNING, SUCCEEDED, FAILED or UNKNOWN"`
}

type SlowestParams struct {
	AppID          string `json:"app_id" jsonschema:"The Spark application ID"`
	Server         string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	IncludeRunning bool   `json:"include_running,omitempty" jsonschema:"Include jobs or stages that are still running"`
	N              int    `json:"n,omitempty" jsonschema:"Number of results, 5 by default"`
}

type ListStagesParams struct {
	AppID         string   `json:"app_id" jsonschema:"The Spark application ID"`
	Server        string   `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	Status        []string `json:"status,omitempty" jsonschema:"Stage status filter: ACTIVE, COMPLETE, FAILED, PENDING or SKIPPED"`
	WithSummaries bool     `json:"with_summaries,omitempty" jsonschema:"Include task metric distributions"`
}

type GetStageParams struct {
	AppID         string `json:"app_id" jsonschema:"The Spark application ID"`
	StageID       int    `json:"stage_id" jsonschema:"The stage ID"`
	AttemptID     *int   `json:"attempt_id,omitempty" jsonschema:"Stage attempt ID, the latest attempt when empty"`
	Server        string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	WithSummaries bool   `json:"with_summaries,omitempty" jsonschema:"Include task metric distributions"`
}

type StageTaskSummaryParams struct {
	AppID     string `json:"app_id" jsonschema:"The Spark application ID"`
	StageID   int    `json:"stage_id" jsonschema:"The stage ID"`
	AttemptID int    `json:"attempt_id,omitempty" jsonschema:"Stage attempt ID, 0 by default"`
	Server    string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
}

func (t tool) ListJobs(ctx context.Context, request *mcp.CallToolRequest, params ListJobsParams) (*mcp.CallToolResult, any, error) {
	c, err := t.client(params.Server)
	if err != nil {
		return nil, nil, err
	}
	jobs, err := c.ListJobs(ctx, params.AppID, params.Status)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	if len(jobs) == 0 {
		return textResult(fmt.Sprintf("No jobs found for application '%s'", params.AppID)), nil, nil
	}

	briefs := make([]analysis.JobBrief, len(jobs))
	for i, j := range jobs {
		briefs[i] = analysis.NewJobBrief(j)
	}
	return textResult(jobTable(fmt.Sprintf("Found %d job(s) for application '%s':", len(jobs), params.AppID), briefs)), nil, nil
}

// ListSlowestJobs returns the n longest jobs of an application.
func (t tool) ListSlowestJobs(ctx context.Context, request *mcp.CallToolRequest, params SlowestParams) (*mcp.CallToolResult, any, error) {
	c, err := t.client(params.Server)
	if err != nil {
		return nil, nil, err
	}
	jobs, err := c.ListJobs(ctx, params.AppID, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	slowest := analysis.SlowestJobs(jobs, orDefault(params.N, defaultTopN), params.IncludeRunning)
	briefs := make([]analysis.JobBrief, len(slowest))
	for i, j := range slowest {
		briefs[i] = analysis.NewJobBrief(j)
	}
	return textResult(jobTable(fmt.Sprintf("Slowest %d job(s) of application '%s':", len(briefs), params.AppID), briefs)), nil, nil
}

func jobTable(title string, jobs []analysis.JobBrief) string {
	var sb strings.Builder
	sb.WriteString(title + "\n\n")
	sb.WriteString("| Job ID | Name | Status | Duration (s) | Stages | Failed Stages |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, j := range jobs {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.1f | %d | %d |\n",
			j.JobID, truncate(j.Name, 60), j.Status, j.DurationSeconds, j.StageCount, j.FailedStageCount))
	}
	return sb.String()
}

func (t tool) ListStages(ctx context.Context, request *mcp.CallToolRequest, params ListStagesParams) (*mcp.CallToolResult, any, error) {
	c, err := t.client(params.Server)
	if err != nil {
		return nil, nil, err
	}
	opts := sparkhistory.StageListOptions{Status: params.Status, WithSummaries: params.WithSummaries}
	if params.WithSummaries {
		opts.Quantiles = sparkhistory.DefaultQuantiles
	}
	stages, err := c.ListStages(ctx, params.AppID, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list stages: %w", err)
	}
	// distributions do not fit a table
	if params.WithSummaries {
		return jsonResult(stages)
	}
	if len(stages) == 0 {
		return textResult(fmt.Sprintf("No stages found for application '%s'", params.AppID)), nil, nil
	}
	briefs := make([]analysis.StageBrief, len(stages))
	for i, s := range stages {
		briefs[i] = analysis.NewStageBrief(s)
	}
	return textResult(stageTable(fmt.Sprintf("Found %d stage(s) for application '%s':", len(stages), params.AppID), briefs)), nil, nil
}

// ListSlowestStages returns the n longest stages of an application.
func (t tool) ListSlowestStages(ctx context.Context, request *mcp.CallToolRequest, params SlowestParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	stages, err := f.Stages(ctx, params.AppID, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list stages: %w", err)
	}

	slowest := analysis.SlowestStages(stages, orDefault(params.N, defaultTopN), params.IncludeRunning)
	briefs := make([]analysis.StageBrief, len(slowest))
	for i, s := range slowest {
		briefs[i] = analysis.NewStageBrief(s)
	}
	return textResult(stageTable(fmt.Sprintf("Slowest %d stage(s) of application '%s':", len(briefs), params.AppID), briefs)), nil, nil
}

func stageTable(title string, stages []analysis.StageBrief) string {
	var sb strings.Builder
	sb.WriteString(title + "\n\n")
	sb.WriteString("| Stage ID | Attempt | Name | Status | Duration (s) | Tasks | Failed Tasks |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")
	for _, s := range stages {
		sb.WriteString(fmt.Sprintf("| %d | %d | %s | %s | %.1f | %d | %d |\n",
			s.StageID, s.AttemptID, truncate(s.Name, 60), s.Status, s.DurationSeconds, s.TaskCount, s.FailedTasks))
	}
	return sb.String()
}

// GetStage returns one attempt of a stage, the latest one unless an attempt
// is given.
func (t tool) GetStage(ctx context.Context, request *mcp.CallToolRequest, params GetStageParams) (*mcp.CallToolResult, any, error) {
	c, err := t.client(params.Server)
	if err != nil {
		return nil, nil, err
	}
	opts := sparkhistory.StageListOptions{WithSummaries: params.WithSummaries}
	if params.WithSummaries {
		opts.Quantiles = sparkhistory.DefaultQuantiles
	}

	if params.AttemptID != nil {
		stage, err := c.GetStageAttempt(ctx, params.AppID, params.StageID, *params.AttemptID, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get stage: %w", err)
		}
		return jsonResult(stage)
	}

	stage, err := latestAttempt(ctx, c, params.AppID, params.StageID, opts)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(stage)
}

func latestAttempt(ctx context.Context, c SparkHistoryClient, appID string, stageID int, opts sparkhistory.StageListOptions) (*sparkhistory.StageData, error) {
	attempts, err := c.ListStageAttempts(ctx, appID, stageID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage %d: %w", stageID, err)
	}
	if len(attempts) == 0 {
		return nil, fmt.Errorf("no attempts found for stage %d", stageID)
	}
	latest := attempts[0]
	for _, a := range attempts[1:] {
		if a.AttemptID > latest.AttemptID {
			latest = a
		}
	}
	return &latest, nil
}

func (t tool) GetStageTaskSummary(ctx context.Context, request *mcp.CallToolRequest, params StageTaskSummaryParams) (*mcp.CallToolResult, any, error) {
	c, err := t.client(params.Server)
	if err != nil {
		return nil, nil, err
	}
	summary, err := c.GetStageTaskSummary(ctx, params.AppID, params.StageID, params.AttemptID, sparkhistory.DefaultQuantiles)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get task summary: %w", err)
	}
	return jsonResult(summary)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
