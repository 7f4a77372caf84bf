package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/analysis"
	"github.com/drutigliano19/spark-history-mcp/internal/tools"
)

const timeLayout = "2006-01-02 15:04:05"

func newAppsCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "Browse Spark applications",
	}
	cmd.AddCommand(newAppsListCommand(o))
	cmd.AddCommand(newAppsShowCommand(o))
	cmd.AddCommand(newAppsJobsCommand(o))
	cmd.AddCommand(newAppsStagesCommand(o))
	cmd.AddCommand(newAppsSummaryCommand(o))
	return cmd
}

func newAppsListCommand(o *options) *cobra.Command {
	var (
		status    []string
		limit     int
		name      string
		nameExact string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications and number them for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := o.client()
			if err != nil {
				return err
			}
			apps, err := c.ListApplications(cmd.Context(), sparkhistory.ApplicationListFilter{Status: status, Limit: limit})
			if err != nil {
				return fmt.Errorf("failed to list applications: %w", err)
			}
			pattern, searchType := name, "contains"
			if nameExact != "" {
				pattern, searchType = nameExact, "exact"
			}
			if apps, err = tools.FilterByName(apps, pattern, searchType); err != nil {
				return err
			}

			ids := make([]string, 0, len(apps))
			t := tableView{Headers: []string{"#", "ID", "Name", "Status", "Start", "Duration (min)", "User"}}
			for i, app := range apps {
				ids = append(ids, app.ID)
				appStatus, start, duration, user := appAttemptCells(app)
				t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), app.ID, app.Name, appStatus, start, duration, user})
			}
			if err := o.session.SaveAppRefs(ids, c.Name()); err != nil {
				printErr(cmd, "warning: %v", err)
			}

			return o.print(cmd, view{
				Title:  fmt.Sprintf("%d application(s) on %s", len(apps), c.Name()),
				Tables: []tableView{t},
				Notes:  []string{RefHint(len(apps))},
				Data:   apps,
			})
		},
	}
	cmd.Flags().StringSliceVar(&status, "status", nil, "Filter by status: COMPLETED or RUNNING")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of applications")
	cmd.Flags().StringVar(&name, "name", "", "Filter by name (contains)")
	cmd.Flags().StringVar(&nameExact, "name-exact", "", "Filter by exact name")
	return cmd
}

func appAttemptCells(app sparkhistory.ApplicationInfo) (status, start, duration, user string) {
	status, start, duration, user = "-", "-", "-", "-"
	at, ok := app.LastAttempt()
	if !ok {
		return
	}
	status = sparkhistory.AppRunning
	if at.Completed {
		status = sparkhistory.AppCompleted
	}
	if !at.StartTime.IsZero() {
		start = at.StartTime.Format(timeLayout)
	}
	duration = fmt.Sprintf("%.1f", float64(at.Duration)/60000)
	user = at.SparkUser
	return
}

func newAppsShowCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <app|#>",
		Short: "Show one application and its attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := o.resolve(args[0])
			if err != nil {
				return err
			}
			_, f, err := o.client()
			if err != nil {
				return err
			}
			app, err := f.Application(cmd.Context(), ids[0])
			if err != nil {
				return fmt.Errorf("failed to get application: %w", err)
			}

			status, start, duration, user := appAttemptCells(*app)
			info := tableView{Headers: []string{"Field", "Value"}, Rows: [][]string{
				{"ID", app.ID},
				{"Name", app.Name},
				{"Status", status},
				{"User", user},
				{"Start", start},
				{"Duration (min)", duration},
				{"Cores granted", strconv.Itoa(app.CoresGranted)},
				{"Cores per executor", strconv.Itoa(app.CoresPerExecutor)},
				{"Memory per executor (MB)", strconv.Itoa(app.MemoryPerExecutorMB)},
			}}
			attempts := tableView{Title: "Attempts", Headers: []string{"Attempt", "Start", "End", "Duration (min)", "Completed", "Spark"}}
			for _, at := range app.Attempts {
				attempts.Rows = append(attempts.Rows, []string{
					orDash(at.AttemptID),
					formatTime(at.StartTime),
					formatTime(at.EndTime),
					fmt.Sprintf("%.1f", float64(at.Duration)/60000),
					strconv.FormatBool(at.Completed),
					orDash(at.AppSparkVersion),
				})
			}
			return o.print(cmd, view{Title: "Application " + app.ID, Tables: []tableView{info, attempts}, Data: app})
		},
	}
}

func newAppsJobsCommand(o *options) *cobra.Command {
	var status []string
	cmd := &cobra.Command{
		Use:   "jobs <app|#>",
		Short: "List the jobs of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := o.resolve(args[0])
			if err != nil {
				return err
			}
			c, _, err := o.client()
			if err != nil {
				return err
			}
			jobs, err := c.ListJobs(cmd.Context(), ids[0], status)
			if err != nil {
				return fmt.Errorf("failed to list jobs: %w", err)
			}
			briefs := make([]analysis.JobBrief, 0, len(jobs))
			for _, j := range jobs {
				briefs = append(briefs, analysis.NewJobBrief(j))
			}
			return o.print(cmd, view{
				Title:  fmt.Sprintf("%d job(s) of %s", len(jobs), ids[0]),
				Tables: []tableView{jobTable("", briefs)},
				Data:   jobs,
			})
		},
	}
	cmd.Flags().StringSliceVar(&status, "status", nil, "Filter by status: RUNNING, SUCCEEDED, FAILED or UNKNOWN")
	return cmd
}

func newAppsStagesCommand(o *options) *cobra.Command {
	var status []string
	cmd := &cobra.Command{
		Use:   "stages <app|#>",
		Short: "List the stages of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := o.resolve(args[0])
			if err != nil {
				return err
			}
			c, _, err := o.client()
			if err != nil {
				return err
			}
			stages, err := c.ListStages(cmd.Context(), ids[0], sparkhistory.StageListOptions{Status: status})
			if err != nil {
				return fmt.Errorf("failed to list stages: %w", err)
			}
			t := tableView{Headers: []string{"ID", "Attempt", "Name", "Status", "Tasks", "Duration (s)", "Input", "Shuffle read", "Shuffle write", "Spill"}}
			for _, s := range stages {
				t.Rows = append(t.Rows, []string{
					strconv.Itoa(s.StageID),
					strconv.Itoa(s.AttemptID),
					s.Name,
					s.Status,
					fmt.Sprintf("%d/%d", s.NumCompleteTasks, s.NumTasks),
					fmt.Sprintf("%.1f", s.Duration().Seconds()),
					formatBytes(s.InputBytes),
					formatBytes(s.ShuffleReadBytes),
					formatBytes(s.ShuffleWriteBytes),
					formatBytes(s.MemoryBytesSpilled + s.DiskBytesSpilled),
				})
			}
			return o.print(cmd, view{
				Title:  fmt.Sprintf("%d stage(s) of %s", len(stages), ids[0]),
				Tables: []tableView{t},
				Data:   stages,
			})
		},
	}
	cmd.Flags().StringSliceVar(&status, "status", nil, "Filter by status: ACTIVE, COMPLETE, FAILED, PENDING or SKIPPED")
	return cmd
}

func newAppsSummaryCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <app|#>",
		Short: "Aggregated time, data and failure metrics of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := o.resolve(args[0])
			if err != nil {
				return err
			}
			var summary analysis.AppSummary
			doc, err := o.callJSON(cmd.Context(), "get_app_summary", map[string]any{"app_id": ids[0]}, &summary)
			if err != nil {
				return err
			}
			return o.print(cmd, view{
				Title:  fmt.Sprintf("Summary of %s (%s)", summary.ApplicationID, summary.ApplicationName),
				Tables: []tableView{summaryTable(summary)},
				Data:   doc,
			})
		},
	}
}

func summaryTable(s analysis.AppSummary) tableView {
	return tableView{Headers: []string{"Metric", "Value"}, Rows: [][]string{
		{"Duration (min)", fmtFloat(s.DurationMinutes)},
		{"Executor run time (min)", fmtFloat(s.ExecutorRuntimeMinutes)},
		{"Executor CPU time (min)", fmtFloat(s.ExecutorCPUTimeMinutes)},
		{"JVM GC time (min)", fmtFloat(s.JVMGCTimeMinutes)},
		{"Executor utilization (%)", fmtFloat(s.ExecutorUtilizationPercent)},
		{"Input (GB)", fmtFloat(s.InputGB)},
		{"Output (GB)", fmtFloat(s.OutputGB)},
		{"Shuffle read (GB)", fmtFloat(s.ShuffleReadGB)},
		{"Shuffle write (GB)", fmtFloat(s.ShuffleWriteGB)},
		{"Memory spilled (GB)", fmtFloat(s.MemorySpilledGB)},
		{"Disk spilled (GB)", fmtFloat(s.DiskSpilledGB)},
		{"Shuffle read wait (min)", fmtFloat(s.ShuffleReadWaitMinutes)},
		{"Shuffle write time (min)", fmtFloat(s.ShuffleWriteMinutes)},
		{"Stages (completed/failed/total)", fmt.Sprintf("%d/%d/%d", s.CompletedStages, s.FailedStages, s.TotalStages)},
		{"Failed tasks", strconv.Itoa(s.FailedTasks)},
	}}
}

func jobTable(title string, jobs []analysis.JobBrief) tableView {
	t := tableView{Title: title, Headers: []string{"ID", "Name", "Status", "Duration (s)", "Stages", "Failed stages"}}
	for _, j := range jobs {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(j.JobID),
			j.Name,
			j.Status,
			fmtFloat(j.DurationSeconds),
			strconv.Itoa(j.StageCount),
			strconv.Itoa(j.FailedStageCount),
		})
	}
	return t
}

func stageTable(title string, stages []analysis.StageBrief) tableView {
	t := tableView{Title: title, Headers: []string{"ID", "Attempt", "Name", "Status", "Duration (s)", "Tasks", "Failed tasks"}}
	for _, s := range stages {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(s.StageID),
			strconv.Itoa(s.AttemptID),
			s.Name,
			s.Status,
			fmtFloat(s.DurationSeconds),
			strconv.Itoa(s.TaskCount),
			strconv.Itoa(s.FailedTasks),
		})
	}
	return t
}

func formatTime(t sparkhistory.SparkTime) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
