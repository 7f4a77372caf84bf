// Package analysis derives summaries, bottlenecks, timelines and run to run
// comparisons from Spark History Server data.
package analysis

import (
	"errors"
	"time"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/compare"
)

var (
	ErrNoAttempts        = errors.New("no application attempts found")
	ErrNoStages          = errors.New("no stages found for analysis")
	ErrNoCompletedStages = errors.New("no completed stages found for analysis")
	ErrNoSubmissionTime  = errors.New("stage has no submission time")
	ErrNoStartTime       = errors.New("application has no start time")
)

// index of the median in the default quantiles 0.05,0.25,0.5,0.75,0.95
const medianQuantile = 2

var now = time.Now

type AppSummary struct {
	ApplicationID              string    `json:"application_id"`
	ApplicationName            string    `json:"application_name"`
	AnalysisTimestamp          time.Time `json:"analysis_timestamp"`
	DurationMinutes            float64   `json:"application_duration_minutes"`
	ExecutorRuntimeMinutes     float64   `json:"total_executor_runtime_minutes"`
	ExecutorCPUTimeMinutes     float64   `json:"executor_cpu_time_minutes"`
	JVMGCTimeMinutes           float64   `json:"jvm_gc_time_minutes"`
	ExecutorUtilizationPercent float64   `json:"executor_utilization_percent"`
	InputGB                    float64   `json:"input_data_size_gb"`
	OutputGB                   float64   `json:"output_data_size_gb"`
	ShuffleReadGB              float64   `json:"shuffle_read_size_gb"`
	ShuffleWriteGB             float64   `json:"shuffle_write_size_gb"`
	MemorySpilledGB            float64   `json:"memory_spilled_gb"`
	DiskSpilledGB              float64   `json:"disk_spilled_gb"`
	ShuffleReadWaitMinutes     float64   `json:"shuffle_read_wait_time_minutes"`
	ShuffleWriteMinutes        float64   `json:"shuffle_write_time_minutes"`
	FailedTasks                int       `json:"failed_tasks"`
	TotalStages                int       `json:"total_stages"`
	CompletedStages            int       `json:"completed_stages"`
	FailedStages               int       `json:"failed_stages"`
}

// Metrics returns the numeric fields keyed by their JSON names.
func (s AppSummary) Metrics() compare.NumericMap {
	return compare.NumericMap{
		"application_duration_minutes":   s.DurationMinutes,
		"total_executor_runtime_minutes": s.ExecutorRuntimeMinutes,
		"executor_cpu_time_minutes":      s.ExecutorCPUTimeMinutes,
		"jvm_gc_time_minutes":            s.JVMGCTimeMinutes,
		"executor_utilization_percent":   s.ExecutorUtilizationPercent,
		"input_data_size_gb":             s.InputGB,
		"output_data_size_gb":            s.OutputGB,
		"shuffle_read_size_gb":           s.ShuffleReadGB,
		"shuffle_write_size_gb":          s.ShuffleWriteGB,
		"memory_spilled_gb":              s.MemorySpilledGB,
		"disk_spilled_gb":                s.DiskSpilledGB,
		"shuffle_read_wait_time_minutes": s.ShuffleReadWaitMinutes,
		"shuffle_write_time_minutes":     s.ShuffleWriteMinutes,
		"failed_tasks":                   float64(s.FailedTasks),
		"total_stages":                   float64(s.TotalStages),
		"completed_stages":               float64(s.CompletedStages),
		"failed_stages":                  float64(s.FailedStages),
	}
}

// SummarizeApp aggregates stage and executor metrics of the last attempt.
func SummarizeApp(app sparkhistory.ApplicationInfo, stages []sparkhistory.StageData, executors []sparkhistory.ExecutorSummary) (*AppSummary, error) {
	attempt, ok := app.LastAttempt()
	if !ok {
		return nil, ErrNoAttempts
	}

	var appEnd time.Time
	if !attempt.StartTime.IsZero() && !attempt.EndTime.IsZero() {
		appEnd = attempt.EndTime.Time
	}
	cores := max(app.CoresPerExecutor, 1)

	var fetchWaitNs, writeTimeNs float64
	for _, s := range stages {
		d := s.TaskMetricsDistributions
		if d == nil {
			continue
		}
		if d.ShuffleReadMetrics != nil && len(d.ShuffleReadMetrics.FetchWaitTime) > medianQuantile {
			fetchWaitNs += d.ShuffleReadMetrics.FetchWaitTime[medianQuantile] * float64(s.NumTasks)
		}
		if d.ShuffleWriteMetrics != nil && len(d.ShuffleWriteMetrics.WriteTime) > medianQuantile {
			writeTimeNs += d.ShuffleWriteMetrics.WriteTime[medianQuantile] * float64(s.NumTasks)
		}
	}

	sum := func(f func(sparkhistory.StageData) int64) int64 {
		return compare.Sum(stages, f)
	}
	s := &AppSummary{
		ApplicationID:     app.ID,
		ApplicationName:   app.Name,
		AnalysisTimestamp: now().UTC(),
		DurationMinutes:   compare.Round(compare.MsToMinutes(attempt.Duration), 2),
		ExecutorRuntimeMinutes: compare.Round(compare.MsToMinutes(sum(func(s sparkhistory.StageData) int64 {
			return s.ExecutorRunTime
		})), 2),
		ExecutorCPUTimeMinutes: compare.Round(compare.NsToMinutes(sum(func(s sparkhistory.StageData) int64 {
			return s.ExecutorCPUTime
		})), 2),
		JVMGCTimeMinutes: compare.Round(compare.MsToMinutes(sum(func(s sparkhistory.StageData) int64 {
			return s.JVMGCTime
		})), 2),
		ExecutorUtilizationPercent: compare.Round(ComputeUtilization(stages, executors, cores, appEnd), 2),
		InputGB: compare.Round(compare.BytesToGB(sum(func(s sparkhistory.StageData) int64 {
			return s.InputBytes
		})), 3),
		OutputGB: compare.Round(compare.BytesToGB(sum(func(s sparkhistory.StageData) int64 {
			return s.OutputBytes
		})), 3),
		ShuffleReadGB: compare.Round(compare.BytesToGB(sum(func(s sparkhistory.StageData) int64 {
			return s.ShuffleReadBytes
		})), 3),
		ShuffleWriteGB: compare.Round(compare.BytesToGB(sum(func(s sparkhistory.StageData) int64 {
			return s.ShuffleWriteBytes
		})), 3),
		MemorySpilledGB: compare.Round(compare.BytesToGB(sum(func(s sparkhistory.StageData) int64 {
			return s.MemoryBytesSpilled
		})), 3),
		DiskSpilledGB: compare.Round(compare.BytesToGB(sum(func(s sparkhistory.StageData) int64 {
			return s.DiskBytesSpilled
		})), 3),
		ShuffleReadWaitMinutes: compare.Round(compare.NsToMinutes(fetchWaitNs), 2),
		ShuffleWriteMinutes:    compare.Round(compare.NsToMinutes(writeTimeNs), 2),
		TotalStages:            len(stages),
	}
	for _, st := range stages {
		s.FailedTasks += st.NumFailedTasks
		switch st.Status {
		case sparkhistory.StageComplete:
			s.CompletedStages++
		case sparkhistory.StageFailed:
			s.FailedStages++
		}
	}
	return s, nil
}

// ComputeUtilization returns executor run time as a percentage of the core
// time executors were alive. Executors without a remove time are counted up
// to appEnd, or skipped when appEnd is zero.
func ComputeUtilization(stages []sparkhistory.StageData, executors []sparkhistory.ExecutorSummary, cores int, appEnd time.Time) float64 {
	runtimeMs := compare.Sum(stages, func(s sparkhistory.StageData) int64 { return s.ExecutorRunTime })

	var aliveMs int64
	for _, e := range executors {
		if e.AddTime.IsZero() {
			continue
		}
		end := e.RemoveTime.Time
		if end.IsZero() {
			if appEnd.IsZero() {
				continue
			}
			end = appEnd
		}
		aliveMs += end.Sub(e.AddTime.Time).Milliseconds()
	}
	if aliveMs <= 0 || cores <= 0 {
		return 0
	}
	return float64(runtimeMs) / float64(aliveMs*int64(cores)) * 100
}
