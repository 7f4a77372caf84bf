package analysis

import (
	"errors"
	"fmt"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
)

type ScalingConfiguration struct {
	MaxExecutors        int `json:"max_executors"`
	CoresPerExecutor    int `json:"cores_per_executor"`
	MemoryPerExecutorMB int `json:"memory_per_executor_mb"`
}

type Workload struct {
	TotalStages             int     `json:"total_stages"`
	AvgStageDurationMinutes float64 `json:"avg_stage_duration_minutes"`
	MaxStageDurationMinutes float64 `json:"max_stage_duration_minutes"`
	AvgParallelism          float64 `json:"avg_parallelism"`
	MaxParallelism          int     `json:"max_parallelism"`
}

type ScalingRecommendation struct {
	MinExecutors               int     `json:"min_executors"`
	MaxExecutors               int     `json:"max_executors"`
	TargetStageDurationMinutes float64 `json:"target_stage_duration_minutes"`
	ScalingFactor              float64 `json:"scaling_factor"`
}

type AutoScaling struct {
	ApplicationID        string                `json:"application_id"`
	CurrentConfiguration ScalingConfiguration  `json:"current_configuration"`
	WorkloadAnalysis     Workload              `json:"workload_analysis"`
	Recommendations      ScalingRecommendation `json:"recommendations"`
	AnalysisNotes        []string              `json:"analysis_notes"`
}

// AnalyzeAutoScaling suggests dynamic allocation bounds that bring the
// average completed stage down to targetMinutes.
func AnalyzeAutoScaling(app sparkhistory.ApplicationInfo, stages []sparkhistory.StageData, executors []sparkhistory.ExecutorSummary, targetMinutes float64) (*AutoScaling, error) {
	if targetMinutes <= 0 {
		return nil, errors.New("target stage duration must be positive")
	}
	if len(stages) == 0 {
		return nil, ErrNoStages
	}

	var durations []float64
	var parallelism []int
	for _, s := range stages {
		if s.SubmissionTime.IsZero() || s.CompletionTime.IsZero() {
			continue
		}
		durations = append(durations, s.Duration().Minutes())
		parallelism = append(parallelism, s.NumTasks)
	}
	if len(durations) == 0 {
		return nil, ErrNoCompletedStages
	}

	var sumDur, maxDur, sumPar float64
	maxPar := 0
	for i, d := range durations {
		sumDur += d
		maxDur = max(maxDur, d)
		sumPar += float64(parallelism[i])
		maxPar = max(maxPar, parallelism[i])
	}
	avgDur := sumDur / float64(len(durations))
	avgPar := sumPar / float64(len(parallelism))

	current := max(len(executors), 1)
	cores := coresPerExecutor(app, executors)

	factor := avgDur / targetMinutes
	optimal := max(int(float64(current)*factor), int(avgPar/float64(cores)), 1)
	minExec := max(1, optimal/4)
	maxExec := max(min(optimal*2, maxPar/cores), minExec)

	notes := []string{}
	if avgDur > targetMinutes*1.5 {
		notes = append(notes, fmt.Sprintf(
			"Current average stage duration (%.1fmin) exceeds target (%gmin). Consider increasing executor count.",
			avgDur, targetMinutes))
	}
	if maxDur > targetMinutes*3 {
		notes = append(notes, fmt.Sprintf(
			"Maximum stage duration (%.1fmin) is very high. "+
				"Consider optimizing longest-running stages or increasing resources.", maxDur))
	}

	return &AutoScaling{
		ApplicationID: app.ID,
		CurrentConfiguration: ScalingConfiguration{
			MaxExecutors:        current,
			CoresPerExecutor:    cores,
			MemoryPerExecutorMB: app.MemoryPerExecutorMB,
		},
		WorkloadAnalysis: Workload{
			TotalStages:             len(stages),
			AvgStageDurationMinutes: avgDur,
			MaxStageDurationMinutes: maxDur,
			AvgParallelism:          avgPar,
			MaxParallelism:          maxPar,
		},
		Recommendations: ScalingRecommendation{
			MinExecutors:               minExec,
			MaxExecutors:               maxExec,
			TargetStageDurationMinutes: targetMinutes,
			ScalingFactor:              factor,
		},
		AnalysisNotes: notes,
	}, nil
}

// coresPerExecutor prefers the first executor reporting cores, which skips
// the driver, then the application setting.
func coresPerExecutor(app sparkhistory.ApplicationInfo, executors []sparkhistory.ExecutorSummary) int {
	for _, e := range executors {
		if e.ID != "driver" && e.TotalCores > 0 {
			return e.TotalCores
		}
	}
	return max(app.CoresPerExecutor, 1)
}
