package prompts

var troubleshooting = []Prompt{
	{
		Name:        "investigate_failures",
		Description: "Systematic investigation of task, stage, job or executor failures",
		Arguments: []Argument{
			appArgument,
			{
				Name:        "failure_type",
				Description: "task, job, stage, executor or all",
				Default:     "all",
				Guidance: map[string]string{
					"task":     "Concentrate on task failures, retries and task errors.",
					"job":      "Concentrate on failed jobs and their cascading effects.",
					"stage":    "Concentrate on failed stages and the progress they blocked.",
					"executor": "Concentrate on lost executors and node problems.",
					"all":      "Cover failures at every level.",
				},
			},
			serverArgument,
		},
		Template: `Investigate failures in Spark application {{app_id}}.

Focus: {{failure_type_guidance}}

## Steps

1. Count failures per stage and executor and note when they happened.
2. Read the failure reasons of failed stages and the remove reasons of lost executors.
3. Estimate the time and resources spent on retries.
4. Separate immediate fixes from preventive changes.

## Tool calls

- analyze_failed_tasks(app_id="{{app_id}}"{{server_clause}})
- list_jobs(app_id="{{app_id}}", status=["FAILED"]{{server_clause}})
- list_stages(app_id="{{app_id}}", status=["FAILED"]{{server_clause}})
- list_executors(app_id="{{app_id}}", include_inactive=true{{server_clause}})
- get_job_bottlenecks(app_id="{{app_id}}"{{server_clause}})
- get_environment(app_id="{{app_id}}"{{server_clause}})

## Output

- Failures grouped by root cause, with counts
- Fixes ordered by impact
- Settings that would make the job more resilient`,
	},
	{
		Name:        "examine_memory_issues",
		Description: "Examine heap, off-heap, spill and GC behaviour",
		Arguments: []Argument{
			appArgument,
			{
				Name:        "memory_focus",
				Description: "heap, offheap, spill, gc or comprehensive",
				Default:     "comprehensive",
				Guidance: map[string]string{
					"heap":          "Concentrate on heap usage and OutOfMemory errors.",
					"offheap":       "Concentrate on off-heap memory usage and its configuration.",
					"spill":         "Concentrate on memory and disk spill.",
					"gc":            "Concentrate on garbage collection time and its impact.",
					"comprehensive": "Cover every memory aspect.",
				},
			},
			serverArgument,
		},
		Template: `Examine memory behaviour of Spark application {{app_id}}.

Focus: {{memory_focus_guidance}}

## Steps

1. Compare peak executor memory with the configured executor memory.
2. Find the stages with the largest memory and disk spill.
3. Compute GC time as a share of executor run time.
4. Check memory settings such as spark.executor.memory, spark.memory.fraction and spark.executor.memoryOverhead.

## Tool calls

- get_executor_summary(app_id="{{app_id}}"{{server_clause}})
- list_executors(app_id="{{app_id}}", include_inactive=true{{server_clause}})
- get_job_bottlenecks(app_id="{{app_id}}"{{server_clause}})
- list_stages(app_id="{{app_id}}", with_summaries=true{{server_clause}})
- get_environment(app_id="{{app_id}}"{{server_clause}})

## Output

- Memory pressure findings with numbers
- Recommended memory settings
- Code or partitioning changes that reduce spill`,
	},
	{
		Name:        "diagnose_shuffle_problems",
		Description: "Diagnose shuffle volume, performance and skew",
		Arguments: []Argument{
			appArgument,
			{
				Name:        "shuffle_aspect",
				Description: "skew, performance, size or comprehensive",
				Default:     "comprehensive",
				Guidance: map[string]string{
					"skew":          "Concentrate on detecting and mitigating skew.",
					"performance":   "Concentrate on shuffle fetch wait and write time.",
					"size":          "Concentrate on shuffle data volumes.",
					"comprehensive": "Cover every shuffle aspect.",
				},
			},
			serverArgument,
		},
		Template: `Diagnose shuffle problems in Spark application {{app_id}}.

Focus: {{shuffle_aspect_guidance}}

## Steps

1. Find the stages with the largest shuffle read and write.
2. Compare the top task duration quantile with the median for those stages.
3. Check fetch wait time and shuffle write time.
4. Review spark.sql.shuffle.partitions and adaptive query execution settings.

## Tool calls

- analyze_shuffle_skew(app_id="{{app_id}}"{{server_clause}})
- list_slowest_stages(app_id="{{app_id}}"{{server_clause}})
- get_stage_task_summary(app_id="{{app_id}}", stage_id=<stage>{{server_clause}})
- get_app_summary(app_id="{{app_id}}"{{server_clause}})
- get_environment(app_id="{{app_id}}"{{server_clause}})

## Output

- Shuffle heavy stages with volumes and skew ratios
- Partitioning, join and AQE recommendations`,
	},
	{
		Name:        "identify_configuration_issues",
		Description: "Review Spark configuration for resource, performance and reliability problems",
		Arguments: []Argument{
			appArgument,
			{
				Name:        "config_category",
				Description: "resources, performance, reliability or all",
				Default:     "all",
				Guidance: map[string]string{
					"resources":   "Concentrate on memory, core and executor settings.",
					"performance": "Concentrate on settings that affect execution speed.",
					"reliability": "Concentrate on retry, speculation and fault tolerance settings.",
					"all":         "Review every configuration category.",
				},
			},
			serverArgument,
		},
		Template: `Identify configuration issues in Spark application {{app_id}}.

Focus: {{config_category_guidance}}

## Steps

1. List the Spark properties that differ from Spark defaults.
2. Check executor sizing against what the workload actually used.
3. Check dynamic allocation, shuffle partitions and AQE settings.
4. Flag settings that contradict each other.

## Tool calls

- get_environment(app_id="{{app_id}}"{{server_clause}})
- get_application(app_id="{{app_id}}"{{server_clause}})
- get_executor_summary(app_id="{{app_id}}"{{server_clause}})
- analyze_auto_scaling(app_id="{{app_id}}"{{server_clause}})
- get_application_insights(app_id="{{app_id}}"{{server_clause}})

## Output

A table with the columns Property | Current | Suggested | Reason.`,
	},
}
