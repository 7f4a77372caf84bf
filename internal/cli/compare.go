package cli

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/drutigliano19/spark-history-mcp/internal/analysis"
	"github.com/drutigliano19/spark-history-mcp/internal/compare"
	"github.com/drutigliano19/spark-history-mcp/internal/tools"
)

func newCompareCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two application runs",
		Long: `Compare two application runs. 'compare apps' remembers the pair, so
'compare stages' and 'compare timeline' can drill down without repeating it.`,
	}
	cmd.AddCommand(newCompareAppsCommand(o))
	cmd.AddCommand(newCompareStagesCommand(o))
	cmd.AddCommand(newCompareTimelineCommand(o))
	cmd.AddCommand(newCompareClearCommand(o))
	return cmd
}

// significance is only forwarded when the flag is set, so the tool falls
// back to the configured threshold otherwise.
func significance(cmd *cobra.Command, args map[string]any, v float64) {
	if cmd.Flags().Changed("significance") {
		args["significance_threshold"] = v
	}
}

func newCompareAppsCommand(o *options) *cobra.Command {
	var (
		topN int
		sig  float64
	)
	cmd := &cobra.Command{
		Use:   "apps <app1|#> <app2|#>",
		Short: "Compare metrics, executors, environment and stages of two runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := o.resolve(args...)
			if err != nil {
				return err
			}
			params := map[string]any{"app_id1": ids[0], "app_id2": ids[1], "top_n": topN}
			significance(cmd, params, sig)

			var res tools.PerformanceComparison
			doc, err := o.callJSON(cmd.Context(), "compare_app_performance", params, &res)
			if err != nil {
				return err
			}
			session, err := o.session.SaveComparison(ids[0], ids[1], o.serverName())
			if err != nil {
				printErr(cmd, "warning: %v", err)
			}

			v := view{Title: fmt.Sprintf("%s vs %s", ids[0], ids[1]), Data: doc}
			v.Tables = append(v.Tables, applicationsTable(res.Applications))
			if s := res.AggregatedOverview.ApplicationSummary; s != nil && s.Metrics != nil {
				v.Tables = append(v.Tables, differencesTable("Significant differences", s.Metrics.Differences))
			}
			if d := res.StageDeepDive; d != nil {
				v.Tables = append(v.Tables, stageDifferencesTable(d.TopDifferences))
			}
			if e := res.EnvironmentComparison; e != nil {
				props := tableView{Title: "Spark properties", Headers: []string{"Key", "App 1", "App 2"}}
				for _, p := range e.SparkProperties.Different {
					props.Rows = append(props.Rows, []string{p.Key, p.App1, p.App2})
				}
				v.Tables = append(v.Tables, props)
			}
			v.Tables = append(v.Tables, recommendationTable(res.Recommendations))
			if session.ID != "" {
				v.Notes = append(v.Notes, fmt.Sprintf("Comparison session %s saved, drill down with 'compare stages <id1> <id2>' or 'compare timeline'", session.ID))
			}
			return o.print(cmd, v)
		},
	}
	cmd.Flags().IntVar(&topN, "top-n", 3, "Number of stage differences to report")
	cmd.Flags().Float64Var(&sig, "significance", 0.1, "Minimum relative change to report")
	return cmd
}

func applicationsTable(p tools.ApplicationPair) tableView {
	t := tableView{Title: "Applications", Headers: []string{"Field", "App 1", "App 2"}}
	if p.App1 == nil || p.App2 == nil {
		return t
	}
	s1, start1, d1, u1 := appAttemptCells(*p.App1)
	s2, start2, d2, u2 := appAttemptCells(*p.App2)
	t.Rows = [][]string{
		{"ID", p.App1.ID, p.App2.ID},
		{"Name", p.App1.Name, p.App2.Name},
		{"Status", s1, s2},
		{"Start", start1, start2},
		{"Duration (min)", d1, d2},
		{"User", u1, u2},
		{"Cores granted", strconv.Itoa(p.App1.CoresGranted), strconv.Itoa(p.App2.CoresGranted)},
	}
	return t
}

func differencesTable(title string, diffs map[string]compare.Difference) tableView {
	t := tableView{Title: title, Headers: []string{"Metric", "App 1", "App 2", "Change"}}
	keys := make([]string, 0, len(diffs))
	for k := range diffs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d := diffs[k]
		t.Rows = append(t.Rows, []string{k, fmtFloat(d.Before), fmtFloat(d.After), fmtPercent(d.Percent)})
	}
	return t
}

func stageDifferencesTable(diffs []analysis.StageDifference) tableView {
	t := tableView{Title: "Top stage differences", Headers: []string{"Stage 1", "Stage 2", "Name", "Duration 1 (s)", "Duration 2 (s)", "Change", "Slower"}}
	for _, d := range diffs {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(d.Stage1.StageID),
			strconv.Itoa(d.Stage2.StageID),
			d.Stage1.Name,
			fmtFloat(d.Stage1.DurationSeconds),
			fmtFloat(d.Stage2.DurationSeconds),
			fmtPercent(d.TimeDifference.Percent),
			d.TimeDifference.SlowerApplication,
		})
	}
	return t
}

func fmtPercent(p compare.Percent) string {
	f := float64(p)
	switch {
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "-"
	}
	return fmt.Sprintf("%+.1f%%", f)
}

func newCompareStagesCommand(o *options) *cobra.Command {
	var sig float64
	cmd := &cobra.Command{
		Use:   "stages <stage1> <stage2>",
		Short: "Compare a stage of the first app with a stage of the second",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := o.session.LoadComparison()
			if err != nil {
				return err
			}
			stage1, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid stage id %q: %w", args[0], err)
			}
			stage2, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid stage id %q: %w", args[1], err)
			}
			params := map[string]any{
				"app_id1":   session.AppID1,
				"app_id2":   session.AppID2,
				"stage_id1": stage1,
				"stage_id2": stage2,
			}
			significance(cmd, params, sig)

			var res analysis.StageComparison
			doc, err := o.callJSON(cmd.Context(), "compare_stages", params, &res)
			if err != nil {
				return err
			}

			v := view{
				Title:  fmt.Sprintf("Stage %d of %s vs stage %d of %s", stage1, session.AppID1, stage2, session.AppID2),
				Tables: []tableView{stageTable("Stages", []analysis.StageBrief{res.Stage1, res.Stage2})},
				Data:   doc,
			}
			if res.StageMetrics != nil {
				v.Tables = append(v.Tables, differencesTable("Stage metrics", res.StageMetrics.Differences))
			}
			if res.TaskDistributions != nil {
				t := tableView{Title: "Task distribution medians", Headers: []string{"Metric", "App 1", "App 2", "Change"}}
				keys := make([]string, 0, len(res.TaskDistributions.Metrics))
				for k, d := range res.TaskDistributions.Metrics {
					if d.Significant {
						keys = append(keys, k)
					}
				}
				sort.Strings(keys)
				for _, k := range keys {
					d := res.TaskDistributions.Metrics[k]
					t.Rows = append(t.Rows, []string{k, fmtFloat(d.Before), fmtFloat(d.After), fmtPercent(d.Percent)})
				}
				v.Tables = append(v.Tables, t)
			}
			v.Notes = append(v.Notes, fmt.Sprintf("%d significant difference(s)", res.TotalDifferences))
			return o.print(cmd, v)
		},
	}
	cmd.Flags().Float64Var(&sig, "significance", 0.1, "Minimum relative change to report")
	return cmd
}

func newCompareTimelineCommand(o *options) *cobra.Command {
	var interval int
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Compare executor counts over time of the compared apps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := o.session.LoadComparison()
			if err != nil {
				return err
			}
			params := map[string]any{"app_id1": session.AppID1, "app_id2": session.AppID2}
			if interval > 0 {
				params["interval_minutes"] = interval
			}

			var res tools.AppTimelineComparison
			doc, err := o.callJSON(cmd.Context(), "compare_app_executor_timeline", params, &res)
			if err != nil {
				return err
			}

			v := view{Title: fmt.Sprintf("Executor timeline of %s vs %s", session.AppID1, session.AppID2), Data: doc}
			if res.Comparison != nil {
				t := tableView{Title: "Differences (app 2 minus app 1)", Headers: []string{"Range", "Executors", "Cores", "Memory (MB)"}}
				for _, r := range res.Comparison.Intervals {
					t.Rows = append(t.Rows, []string{
						r.TimestampRange,
						fmtDiff(r.Differences[compare.DefaultSameKey]),
						fmtDiff(r.Differences["cores_diff"]),
						fmtDiff(r.Differences["memory_mb_diff"]),
					})
				}
				v.Tables = append(v.Tables, t)
				v.Notes = append(v.Notes, fmt.Sprintf("%d of %d interval(s) differ, at most %.0f executor(s) apart",
					res.Comparison.Summary.IntervalsWithDifferences, res.Comparison.Summary.TotalIntervals,
					res.Comparison.Summary.MaxExecutorCountDifference))
			}
			for _, tl := range []*analysis.AppTimeline{res.App1, res.App2} {
				if tl != nil && tl.Warning != "" {
					v.Notes = append(v.Notes, tl.ApplicationID+": "+tl.Warning)
				}
			}
			return o.print(cmd, v)
		},
	}
	cmd.Flags().IntVar(&interval, "interval", 0, "Bucket size in minutes, default_interval_minutes when 0")
	return cmd
}

func fmtDiff(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func newCompareClearCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the compared pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.session.ClearComparison(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Comparison session cleared")
			return nil
		},
	}
}
