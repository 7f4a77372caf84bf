package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/compare"
)

// task distribution fields compared between two stages
var stageDistributionFields = []compare.Field{
	{Path: "duration", Label: "duration"},
	{Path: "executorRunTime", Label: "executor_run_time"},
	{Path: "executorCpuTime", Label: "executor_cpu_time"},
	{Path: "jvmGcTime", Label: "jvm_gc_time"},
	{Path: "resultSize", Label: "result_size"},
	{Path: "memoryBytesSpilled", Label: "memory_bytes_spilled"},
	{Path: "diskBytesSpilled", Label: "disk_bytes_spilled"},
	{Path: "shuffleReadMetrics.fetchWaitTime", Label: "shuffle_fetch_wait_time"},
	{Path: "shuffleReadMetrics.readBytes", Label: "shuffle_read_bytes"},
	{Path: "shuffleWriteMetrics.writeTime", Label: "shuffle_write_time"},
	{Path: "shuffleWriteMetrics.writeBytes", Label: "shuffle_write_bytes"},
	{Path: "executorDeserializeTime", Label: "executor_deserialize_time"},
	{Path: "resultSerializationTime", Label: "result_serialization_time"},
}

// StageRefs converts stages for compare.MatchStages.
func StageRefs(stages []sparkhistory.StageData) []compare.StageRef {
	refs := make([]compare.StageRef, len(stages))
	for i, s := range stages {
		refs[i] = compare.StageRef{
			Name:  s.Name,
			Start: s.SubmissionTime.Time,
			End:   s.CompletionTime.Time,
		}
	}
	return refs
}

func stageMetrics(s sparkhistory.StageData) compare.NumericMap {
	return compare.NumericMap{
		"duration_seconds":          s.Duration().Seconds(),
		"num_tasks":                 float64(s.NumTasks),
		"num_failed_tasks":          float64(s.NumFailedTasks),
		"num_killed_tasks":          float64(s.NumKilledTasks),
		"executor_run_time":         float64(s.ExecutorRunTime),
		"executor_cpu_time":         float64(s.ExecutorCPUTime),
		"executor_deserialize_time": float64(s.ExecutorDeserializeTime),
		"jvm_gc_time":               float64(s.JVMGCTime),
		"result_size":               float64(s.ResultSize),
		"input_bytes":               float64(s.InputBytes),
		"output_bytes":              float64(s.OutputBytes),
		"shuffle_read_bytes":        float64(s.ShuffleReadBytes),
		"shuffle_write_bytes":       float64(s.ShuffleWriteBytes),
		"memory_bytes_spilled":      float64(s.MemoryBytesSpilled),
		"disk_bytes_spilled":        float64(s.DiskBytesSpilled),
		"peak_execution_memory":     float64(s.PeakExecutionMemory),
	}
}

type StageComparison struct {
	Stage1            StageBrief                      `json:"stage1"`
	Stage2            StageBrief                      `json:"stage2"`
	StageMetrics      *compare.NumericComparison      `json:"stage_metrics"`
	TaskDistributions *compare.DistributionComparison `json:"task_distributions,omitempty"`
	TotalDifferences  int                             `json:"total_differences"`
}

// CompareStages diffs the stage level metrics of two stages and, when both
// carry task summaries, the medians of their task distributions. Nil
// distributions fall back to the ones embedded in the stage.
func CompareStages(stageA, stageB sparkhistory.StageData, distA, distB *sparkhistory.TaskMetricDistributions, significance *float64) (*StageComparison, error) {
	metrics, err := compare.CompareNumericMaps(stageMetrics(stageA), stageMetrics(stageB), significance)
	if err != nil {
		return nil, err
	}
	res := &StageComparison{
		Stage1:       NewStageBrief(stageA),
		Stage2:       NewStageBrief(stageB),
		StageMetrics: metrics,
	}
	res.TotalDifferences = len(metrics.SignificantKeys)

	if distA == nil {
		distA = stageA.TaskMetricsDistributions
	}
	if distB == nil {
		distB = stageB.TaskMetricsDistributions
	}
	if distA == nil || distB == nil {
		return res, nil
	}

	da, err := compare.AsDistribution(distA)
	if err != nil {
		return nil, fmt.Errorf("failed to read task distribution of stage %d: %w", stageA.StageID, err)
	}
	db, err := compare.AsDistribution(distB)
	if err != nil {
		return nil, fmt.Errorf("failed to read task distribution of stage %d: %w", stageB.StageID, err)
	}
	dists, err := compare.CompareDistributions(da, db, stageDistributionFields, significance)
	if err != nil {
		return nil, err
	}
	res.TaskDistributions = dists
	for _, d := range dists.Metrics {
		if d.Significant {
			res.TotalDifferences++
		}
	}
	return res, nil
}

type TimeDifference struct {
	AbsoluteSeconds   float64         `json:"absolute_seconds"`
	Percent           compare.Percent `json:"percentage"`
	SlowerApplication string          `json:"slower_application"`
}

type StageDifference struct {
	Stage1         StageBrief     `json:"app1_stage"`
	Stage2         StageBrief     `json:"app2_stage"`
	Similarity     float64        `json:"name_similarity"`
	TimeDifference TimeDifference `json:"time_difference"`
}

type StageDifferencesSummary struct {
	App1Stages    int     `json:"app1_total_stages"`
	App2Stages    int     `json:"app2_total_stages"`
	MatchedStages int     `json:"matched_stages"`
	Reported      int     `json:"reported_differences"`
	TotalTimeDiff float64 `json:"total_time_difference_seconds"`
	AvgTimeDiff   float64 `json:"average_time_difference_seconds"`
}

type StageDifferences struct {
	TopDifferences []StageDifference       `json:"top_stage_differences"`
	Summary        StageDifferencesSummary `json:"summary"`
}

// TopStageDifferences matches stages of two runs by name and returns the
// topN pairs with the largest duration gap.
func TopStageDifferences(stagesA, stagesB []sparkhistory.StageData, topN int, threshold *float64) (*StageDifferences, error) {
	pairs, err := compare.MatchStages(StageRefs(stagesA), StageRefs(stagesB), threshold, compare.MatchOptions{})
	if err != nil {
		return nil, err
	}

	diffs := make([]StageDifference, 0, len(pairs))
	for _, p := range pairs {
		sa, sb := stagesA[p.IndexA], stagesB[p.IndexB]
		da, db := sa.Duration().Seconds(), sb.Duration().Seconds()
		if da == 0 && db == 0 {
			continue
		}
		slower := "app2"
		if da > db {
			slower = "app1"
		}
		diffs = append(diffs, StageDifference{
			Stage1:     NewStageBrief(sa),
			Stage2:     NewStageBrief(sb),
			Similarity: compare.Round(p.Similarity, 3),
			TimeDifference: TimeDifference{
				AbsoluteSeconds:   math.Abs(db - da),
				Percent:           compare.PercentOf(da, db),
				SlowerApplication: slower,
			},
		})
	}
	sort.SliceStable(diffs, func(i, j int) bool {
		return diffs[i].TimeDifference.AbsoluteSeconds > diffs[j].TimeDifference.AbsoluteSeconds
	})

	res := &StageDifferences{
		TopDifferences: head(diffs, topN),
		Summary: StageDifferencesSummary{
			App1Stages:    len(stagesA),
			App2Stages:    len(stagesB),
			MatchedStages: len(pairs),
		},
	}
	res.Summary.Reported = len(res.TopDifferences)
	for _, d := range res.TopDifferences {
		res.Summary.TotalTimeDiff += d.TimeDifference.AbsoluteSeconds
	}
	if res.Summary.Reported > 0 {
		res.Summary.AvgTimeDiff = res.Summary.TotalTimeDiff / float64(res.Summary.Reported)
	}
	return res, nil
}

type SummaryComparison struct {
	App1    *AppSummary                `json:"app1_summary"`
	App2    *AppSummary                `json:"app2_summary"`
	Metrics *compare.NumericComparison `json:"metrics"`
}

// CompareAppSummaries diffs the numeric fields of two application summaries.
func CompareAppSummaries(a, b *AppSummary, significance *float64) (*SummaryComparison, error) {
	metrics, err := compare.CompareNumericMaps(a.Metrics(), b.Metrics(), significance)
	if err != nil {
		return nil, err
	}
	return &SummaryComparison{App1: a, App2: b, Metrics: metrics}, nil
}
