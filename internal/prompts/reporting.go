package prompts

var reporting = []Prompt{
	{
		Name:        "generate_performance_report",
		Description: "Full performance report for a Spark application",
		Arguments: []Argument{
			appArgument,
			{
				Name:        "report_type",
				Description: "executive, technical or comprehensive",
				Default:     "comprehensive",
				Guidance: map[string]string{
					"executive":     "Keep to headline metrics, business impact and strategy.",
					"technical":     "Go into metrics and configuration detail.",
					"comprehensive": "Start with an executive summary, then the technical detail.",
				},
			},
			{
				Name:        "audience",
				Description: "executive, technical or mixed",
				Default:     "technical",
				Guidance: map[string]string{
					"executive": "Use business language and talk about cost and efficiency.",
					"technical": "Include configuration specifics and implementation guidance.",
					"mixed":     "Balance technical depth with clear explanations.",
				},
			},
			serverArgument,
		},
		Template: `Write a performance report for Spark application {{app_id}}.

Report type: {{report_type_guidance}}
Audience: {{audience_guidance}}

## Sections

1. Summary: runtime, data volume and overall health
2. Resource usage and efficiency
3. Bottlenecks and failures
4. Recommendations ordered by impact

## Tool calls

- get_application(app_id="{{app_id}}"{{server_clause}})
- get_app_summary(app_id="{{app_id}}"{{server_clause}})
- get_application_insights(app_id="{{app_id}}"{{server_clause}})
- get_executor_summary(app_id="{{app_id}}"{{server_clause}})
- list_slowest_stages(app_id="{{app_id}}"{{server_clause}})
- list_slowest_sql_queries(app_id="{{app_id}}"{{server_clause}})`,
	},
	{
		Name:        "create_executive_summary",
		Description: "One page summary of a Spark application for decision makers",
		Arguments: []Argument{
			appArgument,
			{
				Name:        "focus_metric",
				Description: "performance, cost_efficiency or reliability",
				Default:     "cost_efficiency",
				Guidance: map[string]string{
					"performance":     "Lead with execution time and throughput.",
					"cost_efficiency": "Lead with resource use and cost per unit of data.",
					"reliability":     "Lead with failure rates and stability.",
				},
			},
			{
				Name:        "time_context",
				Description: "current, trend or comparative",
				Default:     "current",
				Guidance: map[string]string{
					"current":     "Describe the current state and immediate actions.",
					"trend":       "Describe how the job is trending.",
					"comparative": "Compare against targets or previous versions.",
				},
			},
			serverArgument,
		},
		Template: `Create an executive summary for Spark application {{app_id}}.

Focus: {{focus_metric_guidance}}
Context: {{time_context_guidance}}

Keep it to one page: three headline numbers, the two or three most important
issues in plain language, and the actions with their expected benefit.

## Tool calls

- get_app_summary(app_id="{{app_id}}"{{server_clause}})
- get_application_insights(app_id="{{app_id}}"{{server_clause}})
- get_executor_summary(app_id="{{app_id}}"{{server_clause}})`,
	},
	{
		Name:        "summarize_trends",
		Description: "Trend analysis across several runs of a job",
		Arguments: []Argument{
			{Name: "app_ids", Description: "Comma separated application IDs, oldest first", Required: true},
			{Name: "trend_period", Description: "daily, weekly or monthly", Default: "weekly"},
			{
				Name:        "trend_focus",
				Description: "performance, resources, reliability or all",
				Default:     "performance",
				Guidance: map[string]string{
					"performance": "Track execution time and throughput.",
					"resources":   "Track resource use and allocation efficiency.",
					"reliability": "Track failure rates and stability.",
					"all":         "Track performance, resources and reliability.",
				},
			},
			serverArgument,
		},
		Template: `Summarize trends across these Spark applications over {{trend_period}} periods: {{app_ids}}.

Focus: {{trend_focus_guidance}}

## Steps

1. Summarize each application.
2. Compare consecutive runs and note regressions and improvements.
3. Point out the runs where behaviour changed and what changed in their configuration.

## Tool calls

- get_app_summary(app_id=<each app>{{server_clause}})
- compare_app_summaries(app_id1=<previous>, app_id2=<next>{{server_clause}})
- compare_app_environments(app_id1=<previous>, app_id2=<next>, filter_auto_generated=true{{server_clause}})

## Output

A table with one row per application and the direction of each metric.`,
	},
	{
		Name:        "benchmark_comparison",
		Description: "Benchmark a Spark application against a reference",
		Arguments: []Argument{
			appArgument,
			{
				Name:        "benchmark_type",
				Description: "internal, industry, historical or target",
				Default:     "internal",
				Guidance: map[string]string{
					"internal":   "Compare with other applications in this environment.",
					"industry":   "Compare with common practice for similar workloads.",
					"historical": "Compare with earlier runs of the same application.",
					"target":     "Compare with agreed targets and SLAs.",
				},
			},
			{
				Name:        "comparison_dimension",
				Description: "performance, cost, efficiency or comprehensive",
				Default:     "comprehensive",
				Guidance: map[string]string{
					"performance":   "Benchmark execution time and throughput.",
					"cost":          "Benchmark cost per unit processed.",
					"efficiency":    "Benchmark resource utilization.",
					"comprehensive": "Benchmark performance, cost and efficiency.",
				},
			},
			serverArgument,
		},
		Template: `Benchmark Spark application {{app_id}}.

Reference: {{benchmark_type_guidance}}
Dimension: {{comparison_dimension_guidance}}

## Steps

1. Collect the application's summary metrics.
2. Pick reference applications with list_applications and compare against them.
3. Score the application per dimension and explain the gaps.

## Tool calls

- get_app_summary(app_id="{{app_id}}"{{server_clause}})
- list_applications(status=["COMPLETED"], limit=20{{server_clause}})
- compare_app_performance(app_id1=<reference>, app_id2="{{app_id}}"{{server_clause}})
- get_executor_summary(app_id="{{app_id}}"{{server_clause}})

## Output

Scores per dimension, the largest gaps and how to close them.`,
	},
}
