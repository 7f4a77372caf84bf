package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/config"
	"github.com/drutigliano19/spark-history-mcp/internal/fetch"
	"github.com/drutigliano19/spark-history-mcp/internal/metrics"
)

type SparkHistoryClient interface {
	Name() string
	ListApplications(ctx context.Context, filter sparkhistory.ApplicationListFilter) ([]sparkhistory.ApplicationInfo, error)
	GetApplication(ctx context.Context, appID string) (*sparkhistory.ApplicationInfo, error)
	ListJobs(ctx context.Context, appID string, status []string) ([]sparkhistory.JobData, error)
	ListStages(ctx context.Context, appID string, opts sparkhistory.StageListOptions) ([]sparkhistory.StageData, error)
	ListStageAttempts(ctx context.Context, appID string, stageID int, opts sparkhistory.StageListOptions) ([]sparkhistory.StageData, error)
	GetStageAttempt(ctx context.Context, appID string, stageID, attemptID int, opts sparkhistory.StageListOptions) (*sparkhistory.StageData, error)
	GetStageTaskSummary(ctx context.Context, appID string, stageID, attemptID int, quantiles string) (*sparkhistory.TaskMetricDistributions, error)
	ListExecutors(ctx context.Context, appID string) ([]sparkhistory.ExecutorSummary, error)
	ListAllExecutors(ctx context.Context, appID string) ([]sparkhistory.ExecutorSummary, error)
	GetEnvironment(ctx context.Context, appID string) (*sparkhistory.ApplicationEnvironmentInfo, error)
	ListSQLExecutions(ctx context.Context, appID string, opts sparkhistory.SQLListOptions) ([]sparkhistory.ExecutionData, error)
}

type tool struct {
	defaultServer string
	clients       map[string]SparkHistoryClient
	fetchers      map[string]*fetch.Fetcher
}

// NewBaseTool returns a tool factory serving clients keyed by server name.
// Responses of finished applications are cached under cacheDir, when set.
func NewBaseTool(defaultServer string, clients map[string]SparkHistoryClient, cacheDir string) (t *tool) {
	t = new(tool)
	t.defaultServer = defaultServer
	t.clients = clients
	t.fetchers = make(map[string]*fetch.Fetcher, len(clients))
	for name, c := range clients {
		t.fetchers[name] = fetch.New(c, cacheDir)
	}
	return
}

// Servers lists the configured server names.
func (t tool) Servers() []string {
	names := make([]string, 0, len(t.clients))
	for name := range t.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolve maps an optional server name to a configured one.
func (t tool) resolve(server string) (string, error) {
	if server == "" {
		server = t.defaultServer
	}
	name := strings.ToLower(server)
	if _, ok := t.clients[name]; !ok {
		return "", fmt.Errorf("%w: %q (available: %s)", config.ErrUnknownServer, server, strings.Join(t.Servers(), ", "))
	}
	return name, nil
}

func (t tool) client(server string) (SparkHistoryClient, error) {
	name, err := t.resolve(server)
	if err != nil {
		return nil, err
	}
	return t.clients[name], nil
}

func (t tool) fetcher(server string) (*fetch.Fetcher, error) {
	name, err := t.resolve(server)
	if err != nil {
		return nil, err
	}
	return t.fetchers[name], nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return textResult(string(data)), nil, nil
}

// Instrument records call count, latency and in-flight calls of h.
func Instrument[P any](name string, h mcp.ToolHandlerFor[P, any]) mcp.ToolHandlerFor[P, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, params P) (*mcp.CallToolResult, any, error) {
		done := metrics.StartToolCall(name)
		res, out, err := h(ctx, req, params)
		done(err)
		return res, out, err
	}
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
