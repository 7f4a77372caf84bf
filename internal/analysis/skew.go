package analysis

import (
	"fmt"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/compare"
)

const (
	SkewFromFailedTasks  = "failed_tasks"
	SkewFromTaskDuration = "task_duration"
)

type SkewedStage struct {
	StageID        int     `json:"stage_id"`
	AttemptID      int     `json:"attempt_id"`
	Name           string  `json:"name"`
	ShuffleWriteGB float64 `json:"shuffle_write_gb"`
	NumTasks       int     `json:"num_tasks"`
	SkewDetected   bool    `json:"skew_detected"`
	SkewRatio      float64 `json:"skew_ratio"`
	DetectedBy     string  `json:"detected_by"`
}

type SkewParameters struct {
	ShuffleThresholdGB float64 `json:"shuffle_threshold_gb"`
	SkewRatioThreshold float64 `json:"skew_ratio_threshold"`
}

type ShuffleOverview struct {
	TotalStages    int     `json:"total_stages"`
	ShuffleStages  int     `json:"shuffle_stages"`
	SkewedStages   int     `json:"skewed_stages"`
	TotalShuffleGB float64 `json:"total_shuffle_gb"`
}

type ShuffleSkew struct {
	ApplicationID      string          `json:"application_id"`
	AnalysisParameters SkewParameters  `json:"analysis_parameters"`
	ShuffleAnalysis    ShuffleOverview `json:"shuffle_analysis"`
	SkewedStages       []SkewedStage   `json:"skewed_stages"`
	Recommendations    []string        `json:"recommendations"`
}

// AnalyzeShuffleSkew looks at stages writing more than thresholdGB of
// shuffle data. A stage is skewed when it has failed tasks, or when the top
// quantile of its task durations is at least ratio times the median.
func AnalyzeShuffleSkew(appID string, stages []sparkhistory.StageData, thresholdGB, ratio float64) (*ShuffleSkew, error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}

	res := &ShuffleSkew{
		ApplicationID:      appID,
		AnalysisParameters: SkewParameters{ShuffleThresholdGB: thresholdGB, SkewRatioThreshold: ratio},
		SkewedStages:       []SkewedStage{},
		Recommendations:    []string{},
	}
	res.ShuffleAnalysis.TotalStages = len(stages)

	for _, s := range stages {
		gb := compare.BytesToGB(s.ShuffleWriteBytes)
		if s.ShuffleWriteBytes == 0 || gb <= thresholdGB {
			continue
		}
		res.ShuffleAnalysis.ShuffleStages++
		res.ShuffleAnalysis.TotalShuffleGB += gb

		info := SkewedStage{
			StageID:        s.StageID,
			AttemptID:      s.AttemptID,
			Name:           s.Name,
			ShuffleWriteGB: gb,
			NumTasks:       s.NumTasks,
			SkewRatio:      1,
		}
		if s.NumFailedTasks > 0 {
			info.SkewDetected = true
			info.SkewRatio = float64(s.NumFailedTasks) / float64(max(s.NumTasks, 1)) * 10
			info.DetectedBy = SkewFromFailedTasks
		} else if r, ok := durationSkew(s); ok && r >= ratio {
			info.SkewDetected = true
			info.SkewRatio = r
			info.DetectedBy = SkewFromTaskDuration
		}
		if info.SkewDetected {
			res.SkewedStages = append(res.SkewedStages, info)
		}
	}
	res.ShuffleAnalysis.SkewedStages = len(res.SkewedStages)

	if len(res.SkewedStages) > 0 {
		res.Recommendations = append(res.Recommendations, fmt.Sprintf(
			"Found %d stages with potential shuffle skew. "+
				"Consider repartitioning data or using salting techniques.", len(res.SkewedStages)))
	}
	if float64(res.ShuffleAnalysis.ShuffleStages) > float64(len(stages))*0.5 {
		res.Recommendations = append(res.Recommendations,
			"High proportion of shuffle-heavy stages detected. "+
				"Consider optimizing join strategies and data locality.")
	}
	return res, nil
}

// durationSkew divides the highest task duration quantile by the median.
func durationSkew(s sparkhistory.StageData) (float64, bool) {
	d := s.TaskMetricsDistributions
	if d == nil || len(d.Duration) <= medianQuantile {
		return 0, false
	}
	median := d.Duration[medianQuantile]
	if median <= 0 {
		return 0, false
	}
	return d.Duration[len(d.Duration)-1] / median, true
}
