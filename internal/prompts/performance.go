package prompts

var appArgument = Argument{
	Name:        "app_id",
	Description: "The Spark application ID",
	Required:    true,
}

var performance = []Prompt{
	{
		Name:        "analyze_slow_application",
		Description: "Structured performance analysis of a slow Spark application",
		Arguments: []Argument{
			appArgument,
			{Name: "baseline_duration_minutes", Description: "Expected runtime in minutes", Default: "60"},
			serverArgument,
		},
		Template: `Analyze the performance of Spark application {{app_id}}.

## Steps

1. **Overview**
   - Fetch the application and its runtime.
   - Compare the runtime against the expected {{baseline_duration_minutes}} minutes and say how far off it is.

2. **Bottlenecks**
   - Find the slowest stages and jobs.
   - Look at task distributions and executor utilization.

3. **Deep dive**
   - Check shuffle skew and memory spill.
   - Follow executor allocation over time.
   - Review failed tasks.

4. **Configuration**
   - Review the Spark properties that influence the bottlenecks found above.

## Tool calls

- get_application(app_id="{{app_id}}"{{server_clause}})
- get_application_insights(app_id="{{app_id}}"{{server_clause}})
- get_job_bottlenecks(app_id="{{app_id}}"{{server_clause}})
- list_slowest_stages(app_id="{{app_id}}"{{server_clause}})
- get_resource_usage_timeline(app_id="{{app_id}}"{{server_clause}})
- analyze_shuffle_skew(app_id="{{app_id}}"{{server_clause}})
- get_environment(app_id="{{app_id}}"{{server_clause}})

## Output

- A short performance summary with the key metrics
- The top 3 bottlenecks
- Concrete, measurable recommendations`,
	},
	{
		Name:        "investigate_stage_bottlenecks",
		Description: "Stage level investigation of slow or failing stages",
		Arguments: []Argument{
			appArgument,
			{Name: "stage_id", Description: "Stage to focus on", Clause: " focusing on stage %s"},
			serverArgument,
		},
		Template: `Investigate stage bottlenecks of Spark application {{app_id}}{{stage_id_clause}}.

## Steps

1. Rank stages by duration and note their task counts.
2. For the slow stages, compare task duration quantiles and look for stragglers.
3. Check spill, GC time and shuffle read/write volumes.
4. Check which executors were alive while the stage ran.

## Tool calls

- list_slowest_stages(app_id="{{app_id}}"{{server_clause}})
- get_stage(app_id="{{app_id}}", stage_id=<stage>, with_summaries=true{{server_clause}})
- get_stage_task_summary(app_id="{{app_id}}", stage_id=<stage>{{server_clause}})
- analyze_shuffle_skew(app_id="{{app_id}}"{{server_clause}})
- get_resource_usage_timeline(app_id="{{app_id}}"{{server_clause}})
- get_executor_summary(app_id="{{app_id}}"{{server_clause}})

## Output

- Stage ranking with durations
- Task level findings: variance, stragglers, failures
- Partitioning and skew mitigations for the worst stages`,
	},
	{
		Name:        "diagnose_resource_issues",
		Description: "Diagnose memory, CPU, disk or network resource problems",
		Arguments: []Argument{
			appArgument,
			{
				Name:        "focus_area",
				Description: "memory, cpu, disk, network or all",
				Default:     "all",
				Guidance: map[string]string{
					"memory":  "Concentrate on memory usage, GC pressure and spill.",
					"cpu":     "Concentrate on executor utilization, task parallelism and compute efficiency.",
					"disk":    "Concentrate on disk usage, spill and I/O patterns.",
					"network": "Concentrate on shuffle volumes and data transfer.",
					"all":     "Cover every resource dimension.",
				},
			},
			serverArgument,
		},
		Template: `Diagnose resource issues of Spark application {{app_id}}.

Focus: {{focus_area_guidance}}

## Steps

1. Compare the requested allocation with what executors actually received.
2. Follow allocation over the application lifetime and find idle or saturated periods.
3. Relate resource problems to the slowest stages.

## Tool calls

- get_application(app_id="{{app_id}}"{{server_clause}})
- list_executors(app_id="{{app_id}}", include_inactive=true{{server_clause}})
- get_executor_summary(app_id="{{app_id}}"{{server_clause}})
- get_resource_usage_timeline(app_id="{{app_id}}"{{server_clause}})
- get_job_bottlenecks(app_id="{{app_id}}"{{server_clause}})
- analyze_auto_scaling(app_id="{{app_id}}"{{server_clause}})
- get_environment(app_id="{{app_id}}"{{server_clause}})

## Output

- Utilization efficiency per resource
- The resource bottlenecks found
- Configuration changes and cost savings`,
	},
	{
		Name:        "compare_job_performance",
		Description: "Compare a baseline run with a target run of a Spark job",
		Arguments: []Argument{
			{Name: "app_id1", Description: "Baseline application ID", Required: true},
			{Name: "app_id2", Description: "Target application ID", Required: true},
			{
				Name:        "comparison_focus",
				Description: "performance, resources, configuration or comprehensive",
				Default:     "comprehensive",
				Guidance: map[string]string{
					"performance":   "Concentrate on execution time and throughput.",
					"resources":     "Concentrate on resource allocation and efficiency.",
					"configuration": "Concentrate on configuration differences and their impact.",
					"comprehensive": "Compare every dimension.",
				},
			},
			serverArgument,
		},
		Template: `Compare Spark application {{app_id1}} (baseline) with {{app_id2}} (target).

Focus: {{comparison_focus_guidance}}

## Steps

1. Summarize the runtime delta and the main metric changes.
2. Find the matched stages whose durations moved most.
3. Compare executor allocation and efficiency.
4. List configuration differences and relate them to the changes above.

## Tool calls

- compare_app_performance(app_id1="{{app_id1}}", app_id2="{{app_id2}}"{{server_clause}})
- compare_app_environments(app_id1="{{app_id1}}", app_id2="{{app_id2}}", filter_auto_generated=true{{server_clause}})
- find_top_stage_differences(app_id1="{{app_id1}}", app_id2="{{app_id2}}"{{server_clause}})
- compare_app_executors(app_id1="{{app_id1}}", app_id2="{{app_id2}}"{{server_clause}})
- compare_app_executor_timeline(app_id1="{{app_id1}}", app_id2="{{app_id2}}"{{server_clause}})
- get_application_insights(app_id="{{app_id2}}"{{server_clause}})

## Output

A table with the columns Metric | {{app_id1}} | {{app_id2}} | Delta | Impact, followed by
the root causes of the change and recommendations for the target run.`,
	},
}
