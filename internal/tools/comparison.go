package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/analysis"
	"github.com/drutigliano19/spark-history-mcp/internal/config"
)

const defaultComparisonTopN = 3

type ComparePairParams struct {
	AppID1                string   `json:"app_id1" jsonschema:"The baseline Spark application ID"`
	AppID2                string   `json:"app_id2" jsonschema:"The Spark application ID compared against the baseline"`
	Server                string   `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	SignificanceThreshold *float64 `json:"significance_threshold,omitempty" jsonschema:"Minimum relative change to report, significance_threshold from the config by default"`
}

type ComparePerformanceParams struct {
	AppID1                string   `json:"app_id1" jsonschema:"The baseline Spark application ID"`
	AppID2                string   `json:"app_id2" jsonschema:"The Spark application ID compared against the baseline"`
	Server                string   `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	SignificanceThreshold *float64 `json:"significance_threshold,omitempty" jsonschema:"Minimum relative change to report, significance_threshold from the config by default"`
	TopN                  int      `json:"top_n,omitempty" jsonschema:"Number of stage differences to report, 3 by default"`
	SimilarityThreshold   *float64 `json:"similarity_threshold,omitempty" jsonschema:"Minimum stage name similarity, stage_match_similarity from the config by default"`
}

type TopStageDifferencesParams struct {
	AppID1              string   `json:"app_id1" jsonschema:"The baseline Spark application ID"`
	AppID2              string   `json:"app_id2" jsonschema:"The Spark application ID compared against the baseline"`
	Server              string   `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	TopN                int      `json:"top_n,omitempty" jsonschema:"Number of stage differences to report, 5 by default"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty" jsonschema:"Minimum stage name similarity, stage_match_similarity from the config by default"`
}

type CompareEnvironmentsParams struct {
	AppID1              string `json:"app_id1" jsonschema:"The baseline Spark application ID"`
	AppID2              string `json:"app_id2" jsonschema:"The Spark application ID compared against the baseline"`
	Server              string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	FilterAutoGenerated bool   `json:"filter_auto_generated,omitempty" jsonschema:"Ignore properties Spark sets on every run, such as spark.app.id"`
}

type CompareStagesParams struct {
	AppID1                string   `json:"app_id1" jsonschema:"The baseline Spark application ID"`
	AppID2                string   `json:"app_id2" jsonschema:"The Spark application ID compared against the baseline"`
	StageID1              int      `json:"stage_id1" jsonschema:"Stage ID in the first application"`
	StageID2              int      `json:"stage_id2" jsonschema:"Stage ID in the second application"`
	Server                string   `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	SignificanceThreshold *float64 `json:"significance_threshold,omitempty" jsonschema:"Minimum relative change to report, significance_threshold from the config by default"`
}

type CompareTimelineParams struct {
	AppID1          string `json:"app_id1" jsonschema:"The baseline Spark application ID"`
	AppID2          string `json:"app_id2" jsonschema:"The Spark application ID compared against the baseline"`
	Server          string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	IntervalMinutes int    `json:"interval_minutes,omitempty" jsonschema:"Bucket size in minutes, default_interval_minutes from the config by default"`
}

type CompareStageTimelineParams struct {
	AppID1          string `json:"app_id1" jsonschema:"The baseline Spark application ID"`
	AppID2          string `json:"app_id2" jsonschema:"The Spark application ID compared against the baseline"`
	StageID1        int    `json:"stage_id1" jsonschema:"Stage ID in the first application"`
	StageID2        int    `json:"stage_id2" jsonschema:"Stage ID in the second application"`
	Server          string `json:"server,omitempty" jsonschema:"Name of the configured History Server, the default server when empty"`
	IntervalMinutes int    `json:"interval_minutes,omitempty" jsonschema:"Bucket size in minutes, default_interval_minutes from the config by default"`
}

type ApplicationPair struct {
	App1 *sparkhistory.ApplicationInfo `json:"app1"`
	App2 *sparkhistory.ApplicationInfo `json:"app2"`
}

type AggregatedOverview struct {
	ApplicationSummary *analysis.SummaryComparison  `json:"application_summary"`
	ExecutorComparison *analysis.ExecutorComparison `json:"executor_comparison"`
}

type PerformanceComparison struct {
	Applications          ApplicationPair                 `json:"applications"`
	AggregatedOverview    AggregatedOverview              `json:"aggregated_overview"`
	StageDeepDive         *analysis.StageDifferences      `json:"stage_deep_dive"`
	EnvironmentComparison *analysis.EnvironmentComparison `json:"environment_comparison"`
	Recommendations       []analysis.Recommendation       `json:"recommendations"`
}

// CompareAppPerformance is the one stop comparison of two runs: aggregated
// metrics, executors, environment, the most divergent stages and a
// prioritized list of recommendations.
func (t tool) CompareAppPerformance(ctx context.Context, request *mcp.CallToolRequest, params ComparePerformanceParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	a, b, err := loadPair(ctx, f, params.AppID1, params.AppID2, false)
	if err != nil {
		return nil, nil, err
	}

	var envA, envB *sparkhistory.ApplicationEnvironmentInfo
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		envA, err = f.Environment(gctx, params.AppID1)
		return err
	})
	g.Go(func() (err error) {
		envB, err = f.Environment(gctx, params.AppID2)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to get environment: %w", err)
	}

	sumA, err := analysis.SummarizeApp(*a.app, a.stages, a.executors)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to summarize %s: %w", params.AppID1, err)
	}
	sumB, err := analysis.SummarizeApp(*b.app, b.stages, b.executors)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to summarize %s: %w", params.AppID2, err)
	}
	summaries, err := analysis.CompareAppSummaries(sumA, sumB, params.SignificanceThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compare summaries: %w", err)
	}
	executors, err := analysis.CompareExecutors(analysis.SummarizeExecutors(a.executors),
		analysis.SummarizeExecutors(b.executors), params.SignificanceThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compare executors: %w", err)
	}
	diffs, err := analysis.TopStageDifferences(a.stages, b.stages,
		orDefault(params.TopN, defaultComparisonTopN), params.SimilarityThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to match stages: %w", err)
	}

	recs := analysis.ApplyRules(analysis.RuleContext{
		App1:             a.app,
		App2:             b.app,
		StageDifferences: diffs.TopDifferences,
		Tools:            config.Tools(),
	}, analysis.DefaultRules())
	recs = append(recs, executors.Recommendations...)

	return jsonResult(PerformanceComparison{
		Applications: ApplicationPair{App1: a.app, App2: b.app},
		AggregatedOverview: AggregatedOverview{
			ApplicationSummary: summaries,
			ExecutorComparison: executors,
		},
		StageDeepDive:         diffs,
		EnvironmentComparison: analysis.CompareEnvironments(*envA, *envB, true),
		Recommendations:       analysis.Prioritize(analysis.Dedupe(recs), analysis.DefaultInsightOptions().MaxRecommendations),
	})
}

func (t tool) CompareAppSummaries(ctx context.Context, request *mcp.CallToolRequest, params ComparePairParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	var sumA, sumB *analysis.AppSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sumA, err = t.summarize(gctx, f, params.AppID1)
		return err
	})
	g.Go(func() (err error) {
		sumB, err = t.summarize(gctx, f, params.AppID2)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	res, err := analysis.CompareAppSummaries(sumA, sumB, params.SignificanceThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compare summaries: %w", err)
	}
	return jsonResult(res)
}

func (t tool) CompareAppExecutors(ctx context.Context, request *mcp.CallToolRequest, params ComparePairParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	var execA, execB []sparkhistory.ExecutorSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		execA, err = f.Executors(gctx, params.AppID1)
		return err
	})
	g.Go(func() (err error) {
		execB, err = f.Executors(gctx, params.AppID2)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to list executors: %w", err)
	}
	res, err := analysis.CompareExecutors(analysis.SummarizeExecutors(execA),
		analysis.SummarizeExecutors(execB), params.SignificanceThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compare executors: %w", err)
	}
	return jsonResult(res)
}

func (t tool) CompareAppEnvironments(ctx context.Context, request *mcp.CallToolRequest, params CompareEnvironmentsParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	var envA, envB *sparkhistory.ApplicationEnvironmentInfo
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		envA, err = f.Environment(gctx, params.AppID1)
		return err
	})
	g.Go(func() (err error) {
		envB, err = f.Environment(gctx, params.AppID2)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to get environment: %w", err)
	}
	return jsonResult(analysis.CompareEnvironments(*envA, *envB, params.FilterAutoGenerated))
}

// CompareStages diffs two specific stages, including their task metric
// distributions.
func (t tool) CompareStages(ctx context.Context, request *mcp.CallToolRequest, params CompareStagesParams) (*mcp.CallToolResult, any, error) {
	c, err := t.client(params.Server)
	if err != nil {
		return nil, nil, err
	}
	opts := sparkhistory.StageListOptions{WithSummaries: true, Quantiles: sparkhistory.DefaultQuantiles}
	var stageA, stageB *sparkhistory.StageData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stageA, err = latestAttempt(gctx, c, params.AppID1, params.StageID1, opts)
		return err
	})
	g.Go(func() (err error) {
		stageB, err = latestAttempt(gctx, c, params.AppID2, params.StageID2, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	res, err := analysis.CompareStages(*stageA, *stageB, nil, nil, params.SignificanceThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compare stages: %w", err)
	}
	return jsonResult(res)
}

func (t tool) FindTopStageDifferences(ctx context.Context, request *mcp.CallToolRequest, params TopStageDifferencesParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	var stagesA, stagesB []sparkhistory.StageData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stagesA, err = f.Stages(gctx, params.AppID1, false)
		return err
	})
	g.Go(func() (err error) {
		stagesB, err = f.Stages(gctx, params.AppID2, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to list stages: %w", err)
	}
	diffs, err := analysis.TopStageDifferences(stagesA, stagesB, orDefault(params.TopN, defaultTopN), params.SimilarityThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to match stages: %w", err)
	}
	return jsonResult(diffs)
}

type AppTimelineComparison struct {
	App1       *analysis.AppTimeline        `json:"app1"`
	App2       *analysis.AppTimeline        `json:"app2"`
	Comparison *analysis.TimelineComparison `json:"comparison"`
}

// CompareAppExecutorTimeline lines up the executor timelines of two runs
// from their respective start times.
func (t tool) CompareAppExecutorTimeline(ctx context.Context, request *mcp.CallToolRequest, params CompareTimelineParams) (*mcp.CallToolResult, any, error) {
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}
	a, b, err := loadPair(ctx, f, params.AppID1, params.AppID2, false)
	if err != nil {
		return nil, nil, err
	}
	tools := config.Tools()
	interval := orDefault(params.IntervalMinutes, tools.DefaultIntervalMinutes)
	tlA, err := analysis.BuildAppExecutorTimeline(*a.app, a.executors, a.stages, interval, tools.TimelineMaxIntervals)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build timeline of %s: %w", params.AppID1, err)
	}
	tlB, err := analysis.BuildAppExecutorTimeline(*b.app, b.executors, b.stages, interval, tools.TimelineMaxIntervals)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build timeline of %s: %w", params.AppID2, err)
	}
	return jsonResult(AppTimelineComparison{
		App1:       tlA,
		App2:       tlB,
		Comparison: analysis.CompareTimelines(tlA.Intervals, tlB.Intervals, interval),
	})
}

type StageTimelineComparison struct {
	Stage1     *analysis.StageTimeline      `json:"stage1"`
	Stage2     *analysis.StageTimeline      `json:"stage2"`
	Comparison *analysis.TimelineComparison `json:"comparison"`
}

func (t tool) CompareStageExecutorTimeline(ctx context.Context, request *mcp.CallToolRequest, params CompareStageTimelineParams) (*mcp.CallToolResult, any, error) {
	c, err := t.client(params.Server)
	if err != nil {
		return nil, nil, err
	}
	f, err := t.fetcher(params.Server)
	if err != nil {
		return nil, nil, err
	}

	var (
		stageA, stageB *sparkhistory.StageData
		execA, execB   []sparkhistory.ExecutorSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stageA, err = latestAttempt(gctx, c, params.AppID1, params.StageID1, sparkhistory.StageListOptions{})
		return err
	})
	g.Go(func() (err error) {
		stageB, err = latestAttempt(gctx, c, params.AppID2, params.StageID2, sparkhistory.StageListOptions{})
		return err
	})
	g.Go(func() (err error) {
		if execA, err = f.Executors(gctx, params.AppID1); err != nil {
			return fmt.Errorf("failed to list executors of %s: %w", params.AppID1, err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if execB, err = f.Executors(gctx, params.AppID2); err != nil {
			return fmt.Errorf("failed to list executors of %s: %w", params.AppID2, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	tools := config.Tools()
	interval := orDefault(params.IntervalMinutes, tools.DefaultIntervalMinutes)
	tlA, err := analysis.BuildStageExecutorTimeline(*stageA, execA, interval, tools.TimelineMaxIntervals)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build timeline of stage %d: %w", params.StageID1, err)
	}
	tlB, err := analysis.BuildStageExecutorTimeline(*stageB, execB, interval, tools.TimelineMaxIntervals)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build timeline of stage %d: %w", params.StageID2, err)
	}
	return jsonResult(StageTimelineComparison{
		Stage1:     tlA,
		Stage2:     tlB,
		Comparison: analysis.CompareTimelines(tlA.Intervals, tlB.Intervals, interval),
	})
}
