package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
)

const (
	SearchContains = "contains"
	SearchExact    = "exact"
	SearchRegex    = "regex"
)

type AppParams struct {
	AppID  string `json:"app_id" jsonschema:"The Spark application ID"`
	Server string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
}

type ListApplicationsParams struct {
	Server     string   `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	Status     []string `json:"status,omitempty" jsonschema:"Application status filter: COMPLETED or RUNNING"`
	MinDate    string   `json:"min_date,omitempty" jsonschema:"Earliest start date, e.g. 2024-01-01 or 2024-01-01T10:00:00.000GMT"`
	MaxDate    string   `json:"max_date,omitempty" jsonschema:"Latest start date"`
	MinEndDate string   `json:"min_end_date,omitempty" jsonschema:"Earliest end date"`
	MaxEndDate string   `json:"max_end_date,omitempty" jsonschema:"Latest end date"`
	Limit      int      `json:"limit,omitempty" jsonschema:"Maximum number of applications to return"`
	AppName    string   `json:"app_name,omitempty" jsonschema:"Filter by application name"`
	SearchType string   `json:"search_type,omitempty" jsonschema:"How app_name is matched: contains (default), exact or regex"`
}

// FilterByName keeps applications whose name matches pattern. contains and
// regex ignore case.
func FilterByName(apps []sparkhistory.ApplicationInfo, pattern, searchType string) ([]sparkhistory.ApplicationInfo, error) {
	if pattern == "" {
		return apps, nil
	}

	var match func(string) bool
	switch orDefault(searchType, SearchContains) {
	case SearchExact:
		match = func(name string) bool { return name == pattern }
	case SearchContains:
		lower := strings.ToLower(pattern)
		match = func(name string) bool { return strings.Contains(strings.ToLower(name), lower) }
	case SearchRegex:
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		match = re.MatchString
	default:
		return nil, fmt.Errorf("search_type must be one of contains, exact or regex, got %q", searchType)
	}

	out := []sparkhistory.ApplicationInfo{}
	for _, app := range apps {
		if match(app.Name) {
			out = append(out, app)
		}
	}
	return out, nil
}

// ListApplications lists applications of a History Server as a table
func (t tool) ListApplications(ctx context.Context, request *mcp.CallToolRequest, params ListApplicationsParams) (*mcp.CallToolResult, any, error) {
	c, err := t.client(params.Server)
	if err != nil {
		return nil, nil, err
	}

	apps, err := c.ListApplications(ctx, sparkhistory.ApplicationListFilter{
		Status:     params.Status,
		MinDate:    params.MinDate,
		MaxDate:    params.MaxDate,
		MinEndDate: params.MinEndDate,
		MaxEndDate: params.MaxEndDate,
		Limit:      params.Limit,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list applications: %w", err)
	}
	apps, err = FilterByName(apps, params.AppName, params.SearchType)
	if err != nil {
		return nil, nil, err
	}

	if len(apps) == 0 {
		return textResult(fmt.Sprintf("No applications found on server '%s'", c.Name())), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d application(s) on server '%s':\n\n", len(apps), c.Name()))
	sb.WriteString("| ID | Name | Status | Start | Duration (min) | User |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, app := range apps {
		status, start, duration, user := "-", "-", "-", "-"
		if at, ok := app.LastAttempt(); ok {
			status = sparkhistory.AppRunning
			if at.Completed {
				status = sparkhistory.AppCompleted
			}
			if !at.StartTime.IsZero() {
				start = at.StartTime.Format("2006-01-02 15:04:05")
			}
			duration = fmt.Sprintf("%.1f", float64(at.Duration)/60000)
			user = at.SparkUser
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n", app.ID, app.Name, status, start, duration, user))
	}
	return textResult(sb.String()), nil, nil
}

func (t tool) GetApplication(ctx context.Context, request *mcp.CallToolRequest, params AppParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	app, err := f.Application(ctx, params.AppID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get application: %w", err)
	}
	return jsonResult(app)
}

func (t tool) GetEnvironment(ctx context.Context, request *mcp.CallToolRequest, params AppParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	env, err := f.Environment(ctx, params.AppID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get environment: %w", err)
	}
	return jsonResult(env)
}

// GetAppSummary reports time, data volume and utilization of an application.
func (t tool) GetAppSummary(ctx context.Context, request *mcp.CallToolRequest, params AppParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	summary, err := t.summarize(ctx, f, params.AppID)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(summary)
}
