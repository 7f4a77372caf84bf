package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/drutigliano19/spark-history-mcp/internal/analysis"
	"github.com/drutigliano19/spark-history-mcp/internal/tools"
)

const (
	slowestJobs   = "jobs"
	slowestStages = "stages"
	slowestSQL    = "sql"
)

func newAnalyzeCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Find bottlenecks, skew and scaling problems of an application",
	}
	cmd.AddCommand(newInsightsCommand(o))
	cmd.AddCommand(newBottlenecksCommand(o))
	cmd.AddCommand(newAutoScalingCommand(o))
	cmd.AddCommand(newShuffleSkewCommand(o))
	cmd.AddCommand(newSlowestCommand(o))
	return cmd
}

func newInsightsCommand(o *options) *cobra.Command {
	var (
		skipAutoScaling bool
		skipShuffleSkew bool
		skipFailedTasks bool
		maxRecs         int
	)
	cmd := &cobra.Command{
		Use:   "insights <app|#>",
		Short: "Run every analysis and collect prioritized recommendations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := o.resolve(args[0])
			if err != nil {
				return err
			}
			var res analysis.Insights
			doc, err := o.callJSON(cmd.Context(), "get_application_insights", map[string]any{
				"app_id":              ids[0],
				"skip_auto_scaling":   skipAutoScaling,
				"skip_shuffle_skew":   skipShuffleSkew,
				"skip_failed_tasks":   skipFailedTasks,
				"max_recommendations": maxRecs,
			}, &res)
			if err != nil {
				return err
			}

			v := view{Title: fmt.Sprintf("Insights for %s (%s)", res.ApplicationID, res.ApplicationName), Data: doc}
			if res.Summary != nil {
				s := summaryTable(*res.Summary)
				s.Title = "Summary"
				v.Tables = append(v.Tables, s)
			}
			v.Tables = append(v.Tables, recommendationTable(res.Recommendations))
			for section, msg := range res.Errors {
				v.Notes = append(v.Notes, fmt.Sprintf("%s failed: %s", section, msg))
			}
			v.Notes = append(v.Notes, fmt.Sprintf("%d critical issue(s), %d high priority recommendation(s)",
				res.Overview.CriticalIssues, res.Overview.HighPriority))
			return o.print(cmd, v)
		},
	}
	cmd.Flags().BoolVar(&skipAutoScaling, "skip-auto-scaling", false, "Leave out the auto scaling analysis")
	cmd.Flags().BoolVar(&skipShuffleSkew, "skip-shuffle-skew", false, "Leave out the shuffle skew analysis")
	cmd.Flags().BoolVar(&skipFailedTasks, "skip-failed-tasks", false, "Leave out the failed task analysis")
	cmd.Flags().IntVar(&maxRecs, "max-recommendations", analysis.DefaultInsightOptions().MaxRecommendations, "Maximum recommendations")
	return cmd
}

func recommendationTable(recs []analysis.Recommendation) tableView {
	t := tableView{Title: "Recommendations", Headers: []string{"Priority", "Type", "Issue", "Suggestion"}}
	for _, r := range recs {
		t.Rows = append(t.Rows, []string{r.Priority, r.Type, r.Issue, r.Suggestion})
	}
	return t
}

func stringsTable(title string, items []string) tableView {
	t := tableView{Title: title, Headers: []string{"#", title}}
	for i, s := range items {
		t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), s})
	}
	return t
}

func newBottlenecksCommand(o *options) *cobra.Command {
	var topN int
	cmd := &cobra.Command{
		Use:   "bottlenecks <app|#>",
		Short: "Slowest stages and jobs, spill and GC pressure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := o.resolve(args[0])
			if err != nil {
				return err
			}
			var res analysis.Bottlenecks
			doc, err := o.callJSON(cmd.Context(), "get_job_bottlenecks", map[string]any{"app_id": ids[0], "top_n": topN}, &res)
			if err != nil {
				return err
			}

			spill := tableView{Title: "High spill stages", Headers: []string{"ID", "Attempt", "Name", "Memory spilled (MB)", "Disk spilled (MB)"}}
			for _, s := range res.HighSpillStages {
				spill.Rows = append(spill.Rows, []string{
					strconv.Itoa(s.StageID), strconv.Itoa(s.AttemptID), s.Name,
					fmtFloat(s.MemorySpilledMB), fmtFloat(s.DiskSpilledMB),
				})
			}
			return o.print(cmd, view{
				Title: "Bottlenecks of " + res.ApplicationID,
				Tables: []tableView{
					stageTable("Slowest stages", res.SlowestStages),
					jobTable("Slowest jobs", res.SlowestJobs),
					spill,
					stringsTable("Recommendations", res.Recommendations),
				},
				Notes: []string{fmt.Sprintf("GC pressure: %.1f%% of executor time", res.GCPressureRatio*100)},
				Data:  doc,
			})
		},
	}
	cmd.Flags().IntVar(&topN, "top-n", 5, "Number of stages and jobs to report")
	return cmd
}

func newAutoScalingCommand(o *options) *cobra.Command {
	var target float64
	cmd := &cobra.Command{
		Use:   "auto-scaling <app|#>",
		Short: "Suggest dynamic allocation bounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := o.resolve(args[0])
			if err != nil {
				return err
			}
			var res analysis.AutoScaling
			doc, err := o.callJSON(cmd.Context(), "analyze_auto_scaling", map[string]any{
				"app_id":                        ids[0],
				"target_stage_duration_minutes": target,
			}, &res)
			if err != nil {
				return err
			}

			cur, rec := res.CurrentConfiguration, res.Recommendations
			t := tableView{Headers: []string{"Setting", "Current", "Recommended"}, Rows: [][]string{
				{"spark.dynamicAllocation.minExecutors", "-", strconv.Itoa(rec.MinExecutors)},
				{"spark.dynamicAllocation.maxExecutors", strconv.Itoa(cur.MaxExecutors), strconv.Itoa(rec.MaxExecutors)},
				{"spark.executor.cores", strconv.Itoa(cur.CoresPerExecutor), "-"},
				{"spark.executor.memory (MB)", strconv.Itoa(cur.MemoryPerExecutorMB), "-"},
			}}
			return o.print(cmd, view{
				Title:  "Auto scaling for " + res.ApplicationID,
				Tables: []tableView{t, kvTable("Workload", res.WorkloadAnalysis)},
				Notes:  res.AnalysisNotes,
				Data:   doc,
			})
		},
	}
	cmd.Flags().Float64Var(&target, "target-minutes", analysis.DefaultInsightOptions().TargetStageMinutes, "Desired average stage duration in minutes")
	return cmd
}

func newShuffleSkewCommand(o *options) *cobra.Command {
	var thresholdGB, ratio float64
	cmd := &cobra.Command{
		Use:   "shuffle-skew <app|#>",
		Short: "Find stages whose shuffle is skewed across tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := o.resolve(args[0])
			if err != nil {
				return err
			}
			var res analysis.ShuffleSkew
			doc, err := o.callJSON(cmd.Context(), "analyze_shuffle_skew", map[string]any{
				"app_id":               ids[0],
				"shuffle_threshold_gb": thresholdGB,
				"skew_ratio_threshold": ratio,
			}, &res)
			if err != nil {
				return err
			}

			t := tableView{Title: "Skewed stages", Headers: []string{"ID", "Attempt", "Name", "Shuffle write (GB)", "Tasks", "Skew ratio", "Detected by"}}
			for _, s := range res.SkewedStages {
				t.Rows = append(t.Rows, []string{
					strconv.Itoa(s.StageID), strconv.Itoa(s.AttemptID), s.Name,
					fmtFloat(s.ShuffleWriteGB), strconv.Itoa(s.NumTasks), fmtFloat(s.SkewRatio), s.DetectedBy,
				})
			}
			return o.print(cmd, view{
				Title:  "Shuffle skew of " + res.ApplicationID,
				Tables: []tableView{kvTable("Shuffle", res.ShuffleAnalysis), t, stringsTable("Recommendations", res.Recommendations)},
				Data:   doc,
			})
		},
	}
	defaults := analysis.DefaultInsightOptions()
	cmd.Flags().Float64Var(&thresholdGB, "threshold-gb", defaults.ShuffleThresholdGB, "Minimum shuffle write per stage in GB")
	cmd.Flags().Float64Var(&ratio, "ratio", defaults.SkewRatio, "Max to median task duration ratio that counts as skew")
	return cmd
}

func newSlowestCommand(o *options) *cobra.Command {
	var (
		kind           string
		n              int
		includeRunning bool
	)
	cmd := &cobra.Command{
		Use:   "slowest <app|#>",
		Short: "List the slowest jobs, stages or SQL queries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := o.resolve(args[0])
			if err != nil {
				return err
			}
			appID := ids[0]

			switch kind {
			case slowestSQL:
				var queries []tools.SQLQuerySummary
				doc, err := o.callJSON(cmd.Context(), "list_slowest_sql_queries", map[string]any{
					"app_id":                   appID,
					"top_n":                    n,
					"include_running":          includeRunning,
					"exclude_plan_description": true,
				}, &queries)
				if err != nil {
					return err
				}
				t := tableView{Headers: []string{"ID", "Status", "Duration (s)", "Jobs", "Description"}}
				for _, q := range queries {
					t.Rows = append(t.Rows, []string{
						strconv.FormatInt(q.ID, 10), q.Status, fmtFloat(float64(q.Duration) / 1000),
						strconv.Itoa(len(q.JobSummary.SuccessJobIDs) + len(q.JobSummary.FailedJobIDs) + len(q.JobSummary.RunningJobIDs)),
						q.Description,
					})
				}
				return o.print(cmd, view{Title: "Slowest SQL queries of " + appID, Tables: []tableView{t}, Data: doc})

			case slowestJobs, slowestStages:
				c, f, err := o.client()
				if err != nil {
					return err
				}
				if kind == slowestJobs {
					jobs, err := c.ListJobs(cmd.Context(), appID, nil)
					if err != nil {
						return fmt.Errorf("failed to list jobs: %w", err)
					}
					var briefs []analysis.JobBrief
					for _, j := range analysis.SlowestJobs(jobs, n, includeRunning) {
						briefs = append(briefs, analysis.NewJobBrief(j))
					}
					return o.print(cmd, view{Title: "Slowest jobs of " + appID, Tables: []tableView{jobTable("", briefs)}, Data: briefs})
				}
				stages, err := f.Stages(cmd.Context(), appID, false)
				if err != nil {
					return fmt.Errorf("failed to list stages: %w", err)
				}
				var briefs []analysis.StageBrief
				for _, s := range analysis.SlowestStages(stages, n, includeRunning) {
					briefs = append(briefs, analysis.NewStageBrief(s))
				}
				return o.print(cmd, view{Title: "Slowest stages of " + appID, Tables: []tableView{stageTable("", briefs)}, Data: briefs})

			default:
				return fmt.Errorf("unknown type %q, use jobs, stages or sql", kind)
			}
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", slowestStages, "What to rank: jobs, stages or sql")
	cmd.Flags().IntVarP(&n, "number", "n", 5, "Number of results")
	cmd.Flags().BoolVar(&includeRunning, "include-running", false, "Include running jobs, stages or queries")
	return cmd
}
