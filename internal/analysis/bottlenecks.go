package analysis

import (
	"fmt"
	"sort"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
)

const (
	spillReportBytes  = 100 * 1024 * 1024
	slowStageSeconds  = 300
	gcPressureWarning = 0.1
	failureRateAlarm  = 0.05
	bytesPerMB        = 1024 * 1024
)

type SpillStage struct {
	StageID         int     `json:"stage_id"`
	AttemptID       int     `json:"attempt_id"`
	Name            string  `json:"name"`
	MemorySpilledMB float64 `json:"memory_spilled_mb"`
	DiskSpilledMB   float64 `json:"disk_spilled_mb"`
}

type Bottlenecks struct {
	ApplicationID       string         `json:"application_id"`
	SlowestStages       []StageBrief   `json:"slowest_stages"`
	SlowestJobs         []JobBrief     `json:"slowest_jobs"`
	HighSpillStages     []SpillStage   `json:"high_spill_stages"`
	GCPressureRatio     float64        `json:"gc_pressure_ratio"`
	ResourceUtilization ExecutorTotals `json:"resource_utilization"`
	Recommendations     []string       `json:"recommendations"`
}

// FindBottlenecks reports the slowest stages and jobs, stages spilling more
// than 100 MB of memory and the GC pressure of the executors.
func FindBottlenecks(appID string, stages []sparkhistory.StageData, jobs []sparkhistory.JobData, executors []sparkhistory.ExecutorSummary, topN int) *Bottlenecks {
	totals := SummarizeExecutors(executors)
	b := &Bottlenecks{
		ApplicationID:       appID,
		SlowestStages:       []StageBrief{},
		SlowestJobs:         []JobBrief{},
		HighSpillStages:     []SpillStage{},
		GCPressureRatio:     totals.GCPressure(),
		ResourceUtilization: totals,
		Recommendations:     []string{},
	}

	slowStages := SlowestStages(stages, topN, false)
	for _, s := range slowStages {
		b.SlowestStages = append(b.SlowestStages, NewStageBrief(s))
	}
	for _, j := range SlowestJobs(jobs, topN, false) {
		b.SlowestJobs = append(b.SlowestJobs, NewJobBrief(j))
	}

	for _, s := range stages {
		if s.MemoryBytesSpilled <= spillReportBytes {
			continue
		}
		b.HighSpillStages = append(b.HighSpillStages, SpillStage{
			StageID:         s.StageID,
			AttemptID:       s.AttemptID,
			Name:            s.Name,
			MemorySpilledMB: float64(s.MemoryBytesSpilled) / bytesPerMB,
			DiskSpilledMB:   float64(s.DiskBytesSpilled) / bytesPerMB,
		})
	}
	sort.SliceStable(b.HighSpillStages, func(i, j int) bool {
		return b.HighSpillStages[i].MemorySpilledMB > b.HighSpillStages[j].MemorySpilledMB
	})

	if len(b.SlowestStages) > 0 {
		var total float64
		for _, s := range b.SlowestStages {
			total += s.DurationSeconds
		}
		if avg := total / float64(len(b.SlowestStages)); avg > slowStageSeconds {
			b.Recommendations = append(b.Recommendations, fmt.Sprintf(
				"Consider optimizing stages with average duration of %.1fs. "+
					"Look into data partitioning and filtering optimizations.", avg))
		}
	}
	if len(b.HighSpillStages) > 0 {
		var spill float64
		for _, s := range b.HighSpillStages {
			spill += s.MemorySpilledMB
		}
		b.Recommendations = append(b.Recommendations, fmt.Sprintf(
			"High memory spill detected (%.1fMB across %d stages). "+
				"Consider increasing executor memory or optimizing data structures.", spill, len(b.HighSpillStages)))
	}
	if b.GCPressureRatio > gcPressureWarning {
		b.Recommendations = append(b.Recommendations, fmt.Sprintf(
			"High GC pressure detected (%.1f%%). "+
				"Consider increasing executor memory or optimizing memory usage patterns.", b.GCPressureRatio*100))
	}
	if float64(totals.FailedTasks) > float64(totals.CompletedTasks)*failureRateAlarm {
		b.Recommendations = append(b.Recommendations, fmt.Sprintf(
			"High task failure rate (%d failures). "+
				"Investigate executor stability and resource allocation.", totals.FailedTasks))
	}

	b.HighSpillStages = head(b.HighSpillStages, topN)
	return b
}
