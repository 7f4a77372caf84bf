package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register adds every Spark History tool to server.
func Register(server *mcp.Server, t *tool) {
	// Applications
	mcp.AddTool(server, &mcp.Tool{
		Name: "list_applications",
		Description: `Lists Spark applications known to the History Server.
		Filters by status, start and end date ranges, and by name using contains, exact or regex matching.
		Returns:
		A markdown table with ID, name, status, start time, duration and user`},
		Instrument("list_applications", t.ListApplications),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "get_application",
		Description: `Gets one Spark application with all of its attempts.
		Returns:
		The JSON representation of the application`},
		Instrument("get_application", t.GetApplication),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "get_environment",
		Description: `Gets the runtime, Spark, Hadoop, system and classpath properties of an application.
		Returns:
		The JSON representation of the environment`},
		Instrument("get_environment", t.GetEnvironment),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "get_app_summary",
		Description: `Aggregates time, resource, data and shuffle metrics of an application.
		Returns:
		A JSON summary with durations in minutes and sizes in GB`},
		Instrument("get_app_summary", t.GetAppSummary),
	)

	// Jobs and stages
	mcp.AddTool(server, &mcp.Tool{
		Name: "list_jobs",
		Description: `Lists the jobs of an application, optionally filtered by status.
		Returns:
		A markdown table of jobs`},
		Instrument("list_jobs", t.ListJobs),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "list_slowest_jobs",
		Description: `Lists the longest running jobs of an application. Running jobs are skipped unless include_running is set.
		Returns:
		A markdown table of the slowest jobs`},
		Instrument("list_slowest_jobs", t.ListSlowestJobs),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "list_stages",
		Description: `Lists the stages of an application, optionally filtered by status.
		Returns:
		A markdown table, or JSON with task metric distributions when with_summaries is set`},
		Instrument("list_stages", t.ListStages),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "list_slowest_stages",
		Description: `Lists the longest running stages of an application.
		Returns:
		A markdown table of the slowest stages`},
		Instrument("list_slowest_stages", t.ListSlowestStages),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "get_stage",
		Description: `Gets one stage attempt, the latest one unless attempt_id is given.
		Returns:
		The JSON representation of the stage`},
		Instrument("get_stage", t.GetStage),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "get_stage_task_summary",
		Description: `Gets the task metric quantiles of a stage attempt.
		Returns:
		The JSON representation of the task metric distributions`},
		Instrument("get_stage_task_summary", t.GetStageTaskSummary),
	)

	// Executors
	mcp.AddTool(server, &mcp.Tool{
		Name: "list_executors",
		Description: `Lists the executors of an application, including removed ones when include_inactive is set.
		Returns:
		A markdown table of executors`},
		Instrument("list_executors", t.ListExecutors),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "get_executor",
		Description: `Gets one executor of an application by ID.
		Returns:
		The JSON representation of the executor`},
		Instrument("get_executor", t.GetExecutor),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "get_executor_summary",
		Description: `Totals memory, disk, task, GC and shuffle metrics across all executors.
		Returns:
		A JSON summary of the executors`},
		Instrument("get_executor_summary", t.GetExecutorSummary),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "get_resource_usage_timeline",
		Description: `Buckets active executors, cores, memory and running stages over the application lifetime.
		Returns:
		A JSON timeline with one entry per interval`},
		Instrument("get_resource_usage_timeline", t.GetResourceUsageTimeline),
	)

	// SQL
	mcp.AddTool(server, &mcp.Tool{
		Name: "list_slowest_sql_queries",
		Description: `Lists the slowest SQL executions of an application, with truncated physical plans.
		Returns:
		A JSON list of queries with duration, status and job IDs`},
		Instrument("list_slowest_sql_queries", t.ListSlowestSQLQueries),
	)

	// Analysis
	mcp.AddTool(server, &mcp.Tool{
		Name: "get_job_bottlenecks",
		Description: `Finds slow stages and jobs, memory spill and GC pressure.
		Returns:
		A JSON report with recommendations`},
		Instrument("get_job_bottlenecks", t.GetJobBottlenecks),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "analyze_auto_scaling",
		Description: `Suggests dynamic allocation settings that would reach a target stage duration.
		Returns:
		A JSON report with initial and maximum executor recommendations`},
		Instrument("analyze_auto_scaling", t.AnalyzeAutoScaling),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "analyze_shuffle_skew",
		Description: `Detects stages with large shuffle writes whose task durations are skewed.
		Returns:
		A JSON report of skewed stages`},
		Instrument("analyze_shuffle_skew", t.AnalyzeShuffleSkew),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "analyze_failed_tasks",
		Description: `Reports stages and executors with failed tasks.
		Returns:
		A JSON report of failures`},
		Instrument("analyze_failed_tasks", t.AnalyzeFailedTasks),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "get_application_insights",
		Description: `Runs the bottleneck, auto scaling, shuffle skew and failure analyses together.
		Returns:
		A JSON report with prioritized recommendations`},
		Instrument("get_application_insights", t.GetApplicationInsights),
	)

	// Comparison
	mcp.AddTool(server, &mcp.Tool{
		Name: "compare_app_performance",
		Description: `Compares two application runs: aggregated metrics, executors, environment and the most divergent stages.
		Returns:
		A JSON comparison with prioritized recommendations`},
		Instrument("compare_app_performance", t.CompareAppPerformance),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "compare_app_summaries",
		Description: `Compares the aggregated metrics of two applications.
		Returns:
		The JSON summaries and their significant differences`},
		Instrument("compare_app_summaries", t.CompareAppSummaries),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "compare_app_executors",
		Description: `Compares executor totals and efficiency of two applications.
		Returns:
		A JSON comparison with ratios and percent changes`},
		Instrument("compare_app_executors", t.CompareAppExecutors),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "compare_app_environments",
		Description: `Compares Spark and system properties and JVM versions of two applications.
		Returns:
		A JSON list of differing and one-sided properties`},
		Instrument("compare_app_environments", t.CompareAppEnvironments),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "compare_stages",
		Description: `Compares two stages, including the medians of their task metric distributions.
		Returns:
		A JSON comparison of significant differences`},
		Instrument("compare_stages", t.CompareStages),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "find_top_stage_differences",
		Description: `Matches stages of two applications by name and ranks them by duration difference.
		Returns:
		A JSON list of matched stage pairs`},
		Instrument("find_top_stage_differences", t.FindTopStageDifferences),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "compare_app_executor_timeline",
		Description: `Compares executor allocation over time between two applications.
		Returns:
		Both JSON timelines and their merged interval differences`},
		Instrument("compare_app_executor_timeline", t.CompareAppExecutorTimeline),
	)
	mcp.AddTool(server, &mcp.Tool{
		Name: "compare_stage_executor_timeline",
		Description: `Compares executors alive during two stages.
		Returns:
		Both JSON timelines and their merged interval differences`},
		Instrument("compare_stage_executor_timeline", t.CompareStageExecutorTimeline),
	)
}
