package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/analysis"
	"github.com/drutigliano19/spark-history-mcp/internal/config"
)

const (
	defaultPlanMaxLength = 2000
	truncatedMarker      = "\n... [truncated]"
)

type SlowestSQLParams struct {
	AppID                    string `json:"app_id" jsonschema:"The Spark application ID"`
	Server                   string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	AttemptID                string `json:"attempt_id,omitempty" jsonschema:"Application attempt ID"`
	TopN                     int    `json:"top_n,omitempty" jsonschema:"Number of queries to return, 1 by default"`
	PageSize                 int    `json:"page_size,omitempty" jsonschema:"Executions fetched per request, sql_page_size by default"`
	IncludeRunning           bool   `json:"include_running,omitempty" jsonschema:"Include running queries"`
	ExcludePlanDescription   bool   `json:"exclude_plan_description,omitempty" jsonschema:"Leave the physical plan out"`
	PlanDescriptionMaxLength int    `json:"plan_description_max_length,omitempty" jsonschema:"Maximum plan length in characters, 2000 by default"`
}

type JobSummary struct {
	SuccessJobIDs []int `json:"success_job_ids"`
	FailedJobIDs  []int `json:"failed_job_ids"`
	RunningJobIDs []int `json:"running_job_ids"`
}

type SQLQuerySummary struct {
	ID              int64                  `json:"id"`
	Duration        int64                  `json:"duration"`
	Description     string                 `json:"description"`
	Status          string                 `json:"status"`
	SubmissionTime  sparkhistory.SparkTime `json:"submission_time"`
	PlanDescription string                 `json:"plan_description"`
	JobSummary      JobSummary             `json:"job_summary"`
}

// TruncatePlan cuts plan to maxLength characters, at the last line break
// when that keeps at least 80% of it.
func TruncatePlan(plan string, maxLength int) string {
	if len(plan) <= maxLength {
		return plan
	}
	cut := plan[:maxLength]
	if i := strings.LastIndex(cut, "\n"); float64(i) > float64(maxLength)*0.8 {
		cut = cut[:i]
	}
	return cut + truncatedMarker
}

// ListSlowestSQLQueries pages through every SQL execution and returns the
// slowest ones.
func (t tool) ListSlowestSQLQueries(ctx context.Context, request *mcp.CallToolRequest, params SlowestSQLParams) (*mcp.CallToolResult, any, error) {
	c, err := t.client(params.Server)
	if err != nil {
		return nil, nil, err
	}

	pageSize := orDefault(params.PageSize, config.Tools().SQLPageSize)
	var all []sparkhistory.ExecutionData
	for offset := 0; ; offset += pageSize {
		page, err := c.ListSQLExecutions(ctx, params.AppID, sparkhistory.SQLListOptions{
			AttemptID:       params.AttemptID,
			Details:         true,
			PlanDescription: !params.ExcludePlanDescription,
			Offset:          offset,
			Length:          pageSize,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list sql executions: %w", err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
	}

	maxLen := orDefault(params.PlanDescriptionMaxLength, defaultPlanMaxLength)
	slowest := analysis.SlowestSQL(all, orDefault(params.TopN, 1), params.IncludeRunning)
	out := make([]SQLQuerySummary, len(slowest))
	for i, e := range slowest {
		out[i] = SQLQuerySummary{
			ID:             e.ID,
			Duration:       e.Duration,
			Description:    e.Description,
			Status:         e.Status,
			SubmissionTime: e.SubmissionTime,
			JobSummary: JobSummary{
				SuccessJobIDs: e.SuccessJobIDs,
				FailedJobIDs:  e.FailedJobIDs,
				RunningJobIDs: e.RunningJobIDs,
			},
		}
		if !params.ExcludePlanDescription {
			out[i].PlanDescription = TruncatePlan(e.PlanDescription, maxLen)
		}
	}
	return jsonResult(out)
}
