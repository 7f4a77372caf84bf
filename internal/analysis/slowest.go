package analysis

import (
	"sort"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
)

type StageBrief struct {
	StageID         int     `json:"stage_id"`
	AttemptID       int     `json:"attempt_id"`
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	DurationSeconds float64 `json:"duration_seconds"`
	TaskCount       int     `json:"task_count"`
	FailedTasks     int     `json:"failed_tasks"`
}

func NewStageBrief(s sparkhistory.StageData) StageBrief {
	return StageBrief{
		StageID:         s.StageID,
		AttemptID:       s.AttemptID,
		Name:            s.Name,
		Status:          s.Status,
		DurationSeconds: s.Duration().Seconds(),
		TaskCount:       s.NumTasks,
		FailedTasks:     s.NumFailedTasks,
	}
}

type JobBrief struct {
	JobID            int     `json:"job_id"`
	Name             string  `json:"name"`
	Status           string  `json:"status"`
	DurationSeconds  float64 `json:"duration_seconds"`
	StageCount       int     `json:"stage_count"`
	FailedStageCount int     `json:"failed_stage_count"`
}

func NewJobBrief(j sparkhistory.JobData) JobBrief {
	return JobBrief{
		JobID:            j.JobID,
		Name:             j.Name,
		Status:           j.Status,
		DurationSeconds:  j.Duration().Seconds(),
		StageCount:       len(j.StageIDs),
		FailedStageCount: j.NumFailedStages,
	}
}

// SlowestStages returns up to n stages by descending duration. Stages that
// are still running are skipped unless includeRunning is set.
func SlowestStages(stages []sparkhistory.StageData, n int, includeRunning bool) []sparkhistory.StageData {
	var out []sparkhistory.StageData
	for _, s := range stages {
		if !includeRunning && (s.Status == sparkhistory.StageActive || s.Status == sparkhistory.StagePending) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Duration() > out[j].Duration()
	})
	return head(out, n)
}

func SlowestJobs(jobs []sparkhistory.JobData, n int, includeRunning bool) []sparkhistory.JobData {
	var out []sparkhistory.JobData
	for _, j := range jobs {
		if !includeRunning && j.Status == sparkhistory.JobRunning {
			continue
		}
		out = append(out, j)
	}
	sort.SliceStable(out, func(i, k int) bool {
		return out[i].Duration() > out[k].Duration()
	})
	return head(out, n)
}

// SlowestSQL ranks SQL executions by duration. Running executions are
// skipped unless includeRunning is set.
func SlowestSQL(execs []sparkhistory.ExecutionData, n int, includeRunning bool) []sparkhistory.ExecutionData {
	var out []sparkhistory.ExecutionData
	for _, e := range execs {
		if !includeRunning && e.Status == sparkhistory.AppRunning {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Duration > out[j].Duration
	})
	return head(out, n)
}

func head[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
