package prompts

var optimization = []Prompt{
	{
		Name:        "suggest_autoscaling_config",
		Description: "Recommend dynamic allocation settings for a target runtime",
		Arguments: []Argument{
			appArgument,
			{Name: "target_duration_minutes", Description: "Target application runtime in minutes", Default: "120"},
			{
				Name:        "cost_optimization",
				Description: "Take cost into account, true or false",
				Default:     "true",
				Guidance: map[string]string{
					"true":  " while keeping cost down",
					"false": "",
				},
			},
			serverArgument,
		},
		Template: `Recommend auto scaling settings for Spark application {{app_id}}.

Goal: finish within {{target_duration_minutes}} minutes{{cost_optimization_guidance}}.

## Steps

1. Measure current executor counts over time and how busy they were.
2. Relate stage durations and parallelism to the executor count.
3. Derive initial, minimum and maximum executors for dynamic allocation.

## Tool calls

- analyze_auto_scaling(app_id="{{app_id}}"{{server_clause}})
- get_resource_usage_timeline(app_id="{{app_id}}"{{server_clause}})
- get_executor_summary(app_id="{{app_id}}"{{server_clause}})
- list_slowest_stages(app_id="{{app_id}}"{{server_clause}})
- get_environment(app_id="{{app_id}}"{{server_clause}})

## Output

Suggested values for spark.dynamicAllocation.enabled, initialExecutors, minExecutors,
maxExecutors and executorIdleTimeout, each with the reasoning behind it.`,
	},
	{
		Name:        "optimize_resource_allocation",
		Description: "Right size executors for performance, cost or both",
		Arguments: []Argument{
			appArgument,
			{
				Name:        "optimization_goal",
				Description: "performance, cost or balanced",
				Default:     "performance",
				Guidance: map[string]string{
					"performance": "Maximize performance with efficient resource use.",
					"cost":        "Minimize cost while keeping performance acceptable.",
					"balanced":    "Balance performance and cost.",
				},
			},
			{Name: "resource_constraints", Description: "Limits to respect, e.g. max 20 executors", Clause: "\nConstraints: %s"},
			serverArgument,
		},
		Template: `Optimize resource allocation of Spark application {{app_id}}.

Goal: {{optimization_goal_guidance}}{{resource_constraints_clause}}

## Steps

1. Compare allocated cores and memory with what tasks used.
2. Find idle periods and periods where tasks queued.
3. Propose executor count, cores per executor and memory per executor.

## Tool calls

- get_executor_summary(app_id="{{app_id}}"{{server_clause}})
- get_resource_usage_timeline(app_id="{{app_id}}"{{server_clause}})
- get_app_summary(app_id="{{app_id}}"{{server_clause}})
- analyze_auto_scaling(app_id="{{app_id}}"{{server_clause}})
- get_environment(app_id="{{app_id}}"{{server_clause}})

## Output

- Current and proposed allocation side by side
- Expected impact on runtime and cost`,
	},
	{
		Name:        "improve_query_performance",
		Description: "Find the slowest SQL queries and suggest optimizations",
		Arguments: []Argument{
			appArgument,
			{
				Name:        "focus_area",
				Description: "sql, dataframe, rdd or comprehensive",
				Default:     "comprehensive",
				Guidance: map[string]string{
					"sql":           "Concentrate on SQL queries and the Catalyst plans.",
					"dataframe":     "Concentrate on DataFrame transformations.",
					"rdd":           "Concentrate on RDD transformations.",
					"comprehensive": "Cover every processing API.",
				},
			},
			{
				Name:        "optimization_priority",
				Description: "execution_time, resource_efficiency or throughput",
				Default:     "execution_time",
				Guidance: map[string]string{
					"execution_time":      "Prioritize shorter query execution time.",
					"resource_efficiency": "Prioritize lower resource use.",
					"throughput":          "Prioritize throughput and parallelism.",
				},
			},
			serverArgument,
		},
		Template: `Improve query performance of Spark application {{app_id}}.

Focus: {{focus_area_guidance}}
Priority: {{optimization_priority_guidance}}

## Steps

1. Rank SQL executions by duration and read their physical plans.
2. Look for full scans, missing filter pushdown, large shuffles and sort merge joins that could be broadcast.
3. Tie each slow query to its jobs and stages.

## Tool calls

- list_slowest_sql_queries(app_id="{{app_id}}", top_n=5{{server_clause}})
- list_slowest_jobs(app_id="{{app_id}}"{{server_clause}})
- list_slowest_stages(app_id="{{app_id}}"{{server_clause}})
- analyze_shuffle_skew(app_id="{{app_id}}"{{server_clause}})
- get_environment(app_id="{{app_id}}"{{server_clause}})

## Output

For each slow query: the plan problem, the proposed rewrite or setting, and the expected gain.`,
	},
	{
		Name:        "reduce_data_skew",
		Description: "Detect data skew and plan its mitigation",
		Arguments: []Argument{
			appArgument,
			{
				Name:        "skew_type",
				Description: "shuffle, join, aggregation or comprehensive",
				Default:     "comprehensive",
				Guidance: map[string]string{
					"shuffle":       "Concentrate on shuffle partition imbalance.",
					"join":          "Concentrate on join key distribution.",
					"aggregation":   "Concentrate on grouping imbalance.",
					"comprehensive": "Cover every kind of skew.",
				},
			},
			{
				Name:        "mitigation_strategy",
				Description: "preprocessing, runtime or adaptive",
				Default:     "adaptive",
				Guidance: map[string]string{
					"preprocessing": "Prefer fixes in the input data and upstream jobs.",
					"runtime":       "Prefer Spark configuration and runtime fixes.",
					"adaptive":      "Combine upstream and runtime fixes.",
				},
			},
			serverArgument,
		},
		Template: `Reduce data skew in Spark application {{app_id}}.

Focus: {{skew_type_guidance}}
Strategy: {{mitigation_strategy_guidance}}

## Steps

1. Find stages whose slowest tasks take far longer than the median.
2. Relate those stages to joins or aggregations in the SQL plans.
3. Choose between salting, repartitioning, broadcast joins and AQE skew join handling.

## Tool calls

- analyze_shuffle_skew(app_id="{{app_id}}", skew_ratio_threshold=2{{server_clause}})
- get_stage_task_summary(app_id="{{app_id}}", stage_id=<stage>{{server_clause}})
- list_slowest_sql_queries(app_id="{{app_id}}"{{server_clause}})
- get_environment(app_id="{{app_id}}"{{server_clause}})

## Output

Skewed stages with their ratios and a mitigation for each.`,
	},
}
