package analysis

import (
	"fmt"
	"math"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/compare"
	"github.com/drutigliano19/spark-history-mcp/internal/config"
)

// ExecutorTotals aggregates the executors of one application.
type ExecutorTotals struct {
	TotalExecutors    int   `json:"total_executors"`
	ActiveExecutors   int   `json:"active_executors"`
	TotalCores        int   `json:"total_cores"`
	MemoryUsed        int64 `json:"memory_used"`
	DiskUsed          int64 `json:"disk_used"`
	CompletedTasks    int   `json:"completed_tasks"`
	FailedTasks       int   `json:"failed_tasks"`
	TotalDuration     int64 `json:"total_duration"`
	TotalGCTime       int64 `json:"total_gc_time"`
	TotalInputBytes   int64 `json:"total_input_bytes"`
	TotalShuffleRead  int64 `json:"total_shuffle_read"`
	TotalShuffleWrite int64 `json:"total_shuffle_write"`
}

// SummarizeExecutors adds up executor metrics. Memory used counts on and off
// heap storage memory.
func SummarizeExecutors(executors []sparkhistory.ExecutorSummary) ExecutorTotals {
	t := ExecutorTotals{TotalExecutors: len(executors)}
	for _, e := range executors {
		if e.IsActive {
			t.ActiveExecutors++
		}
		if m := e.MemoryMetrics; m != nil {
			t.MemoryUsed += m.UsedOnHeapStorageMemory + m.UsedOffHeapStorageMemory
		}
		t.TotalCores += e.TotalCores
		t.DiskUsed += e.DiskUsed
		t.CompletedTasks += e.CompletedTasks
		t.FailedTasks += e.FailedTasks
		t.TotalDuration += e.TotalDuration
		t.TotalGCTime += e.TotalGCTime
		t.TotalInputBytes += e.TotalInputBytes
		t.TotalShuffleRead += e.TotalShuffleRead
		t.TotalShuffleWrite += e.TotalShuffleWrite
	}
	return t
}

// GCPressure is the share of executor time spent in garbage collection.
func (t ExecutorTotals) GCPressure() float64 {
	if t.TotalDuration <= 0 {
		return 0
	}
	return float64(t.TotalGCTime) / float64(t.TotalDuration)
}

func (t ExecutorTotals) efficiencyFields() map[string]float64 {
	return map[string]float64{
		"total_duration":   float64(t.TotalDuration),
		"total_cores":      float64(t.TotalCores),
		"total_gc_time":    float64(t.TotalGCTime),
		"active_executors": float64(t.ActiveExecutors),
		"completed_tasks":  float64(t.CompletedTasks),
	}
}

type ExecutorComparison struct {
	App1Summary           ExecutorTotals            `json:"app1_summary"`
	App2Summary           ExecutorTotals            `json:"app2_summary"`
	EfficiencyRatios      map[string]compare.Number `json:"efficiency_ratios"`
	SignificanceThreshold float64                   `json:"significance_threshold"`
	Recommendations       []Recommendation          `json:"recommendations"`
}

// CompareExecutors builds "<field>_ratio" and "<field>_percent_change"
// metrics and keeps the ones that moved by at least the threshold. A nil
// significance keeps every metric.
func CompareExecutors(a, b ExecutorTotals, significance *float64) (*ExecutorComparison, error) {
	metrics := map[string]float64{}
	fieldsA, fieldsB := a.efficiencyFields(), b.efficiencyFields()
	for field, v1 := range fieldsA {
		v2 := fieldsB[field]
		if v1 == 0 && v2 == 0 {
			continue
		}
		metrics[field+"_ratio"] = compare.SafeRatio(v1, v2)
		metrics[field+"_percent_change"] = (v2 - v1) / math.Max(math.Abs(v1), 1) * 100
	}

	res := &ExecutorComparison{
		App1Summary:      a,
		App2Summary:      b,
		EfficiencyRatios: map[string]compare.Number{},
	}
	if significance != nil {
		if err := config.ValidateThreshold(*significance); err != nil {
			return nil, err
		}
		res.SignificanceThreshold = *significance
		metrics = compare.FilterSignificantMetrics(metrics, *significance)
	}
	for k, v := range metrics {
		res.EfficiencyRatios[k] = compare.Number(v)
	}
	res.Recommendations = executorRecommendations(a, b, config.Tools().GCPressureThreshold)
	return res, nil
}

func executorRecommendations(a, b ExecutorTotals, gcThreshold float64) []Recommendation {
	var recs []Recommendation

	gc1, gc2 := a.GCPressure(), b.GCPressure()
	if gc1 > gcThreshold || gc2 > gcThreshold {
		app := "app1"
		if gc2 > gc1 {
			app = "app2"
		}
		recs = append(recs, Recommendation{
			Type:       "memory_management",
			Priority:   PriorityHigh,
			Issue:      fmt.Sprintf("High GC pressure detected in %s (%.1f%%)", app, math.Max(gc1, gc2)*100),
			Suggestion: "Consider increasing executor memory or reducing memory-intensive operations",
		})
	}

	c1, c2 := a.TotalExecutors, b.TotalExecutors
	if math.Abs(float64(c1-c2)) > float64(max(c1, c2))*0.5 {
		recs = append(recs, Recommendation{
			Type:       "resource_allocation",
			Priority:   PriorityMedium,
			Issue:      fmt.Sprintf("Significant executor count difference (%d vs %d)", c1, c2),
			Suggestion: "Review dynamic allocation settings and executor sizing",
		})
	}
	return recs
}
