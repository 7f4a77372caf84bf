package analysis

import (
	"fmt"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
)

type FailedStage struct {
	StageID     int     `json:"stage_id"`
	AttemptID   int     `json:"attempt_id"`
	Name        string  `json:"name"`
	FailedTasks int     `json:"failed_tasks"`
	TotalTasks  int     `json:"total_tasks"`
	FailureRate float64 `json:"failure_rate"`
	Status      string  `json:"status"`
}

type ProblematicExecutor struct {
	ExecutorID     string  `json:"executor_id"`
	FailedTasks    int     `json:"failed_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	FailureRate    float64 `json:"failure_rate"`
	IsActive       bool    `json:"is_active"`
	RemoveReason   string  `json:"remove_reason"`
}

type FailureOverview struct {
	TotalFailedTasks          int `json:"total_failed_tasks"`
	FailedStagesCount         int `json:"failed_stages_count"`
	ProblematicExecutorsCount int `json:"problematic_executors_count"`
}

type FailedTasksReport struct {
	ApplicationID        string                `json:"application_id"`
	FailureAnalysis      FailureOverview       `json:"failure_analysis"`
	FailedStages         []FailedStage         `json:"failed_stages"`
	ProblematicExecutors []ProblematicExecutor `json:"problematic_executors"`
	Recommendations      []string              `json:"recommendations"`
}

// AnalyzeFailedTasks lists stages and executors with at least threshold
// failed tasks.
func AnalyzeFailedTasks(appID string, stages []sparkhistory.StageData, executors []sparkhistory.ExecutorSummary, threshold int) *FailedTasksReport {
	threshold = max(threshold, 1)
	res := &FailedTasksReport{
		ApplicationID:        appID,
		FailedStages:         []FailedStage{},
		ProblematicExecutors: []ProblematicExecutor{},
		Recommendations:      []string{},
	}

	var rateSum float64
	for _, s := range stages {
		if s.NumFailedTasks < threshold {
			continue
		}
		rate := float64(s.NumFailedTasks) / float64(max(s.NumTasks, 1))
		rateSum += rate
		res.FailedStages = append(res.FailedStages, FailedStage{
			StageID:     s.StageID,
			AttemptID:   s.AttemptID,
			Name:        s.Name,
			FailedTasks: s.NumFailedTasks,
			TotalTasks:  s.NumTasks,
			FailureRate: rate,
			Status:      s.Status,
		})
		res.FailureAnalysis.TotalFailedTasks += s.NumFailedTasks
	}

	for _, e := range executors {
		if e.FailedTasks < threshold {
			continue
		}
		reason := e.RemoveReason
		if reason == "" {
			reason = "N/A"
		}
		res.ProblematicExecutors = append(res.ProblematicExecutors, ProblematicExecutor{
			ExecutorID:     e.ID,
			FailedTasks:    e.FailedTasks,
			CompletedTasks: e.CompletedTasks,
			FailureRate:    float64(e.FailedTasks) / float64(max(e.FailedTasks+e.CompletedTasks, 1)),
			IsActive:       e.IsActive,
			RemoveReason:   reason,
		})
	}

	res.FailureAnalysis.FailedStagesCount = len(res.FailedStages)
	res.FailureAnalysis.ProblematicExecutorsCount = len(res.ProblematicExecutors)

	if n := len(res.FailedStages); n > 0 {
		res.Recommendations = append(res.Recommendations, fmt.Sprintf(
			"Found %d stages with failures (avg failure rate: %.1f%%). "+
				"Investigate resource allocation and data processing logic.", n, rateSum/float64(n)*100))
	}
	if n := len(res.ProblematicExecutors); n > 0 {
		res.Recommendations = append(res.Recommendations, fmt.Sprintf(
			"Found %d executors with high failure rates. "+
				"Check executor stability and resource configuration.", n))
	}
	return res
}
