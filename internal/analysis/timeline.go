package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/compare"
)

// open ended windows are cut off after a day
const openEndedWindow = 24 * time.Hour

var ErrInvalidInterval = errors.New("interval minutes and max intervals must be positive")

type TimelineInterval struct {
	Start           time.Time `json:"interval_start"`
	End             time.Time `json:"interval_end"`
	ActiveExecutors int       `json:"active_executors"`
	TotalCores      int       `json:"total_cores"`
	TotalMemoryMB   float64   `json:"total_memory_mb"`
	ActiveStages    int       `json:"active_stages"`
	ExecutorIDs     []string  `json:"executor_ids,omitempty"`
}

type StageTimeline struct {
	StageID         int                `json:"stage_id"`
	AttemptID       int                `json:"attempt_id"`
	Name            string             `json:"name"`
	StartTime       time.Time          `json:"start_time"`
	EndTime         time.Time          `json:"end_time"`
	IntervalMinutes int                `json:"interval_minutes"`
	Intervals       []TimelineInterval `json:"intervals"`
	Warning         string             `json:"warning,omitempty"`
}

type TimelineSummary struct {
	TotalExecutors int     `json:"total_executors"`
	TotalStages    int     `json:"total_stages"`
	PeakExecutors  int     `json:"peak_executors"`
	AvgExecutors   float64 `json:"avg_executors"`
	PeakCores      int     `json:"peak_cores"`
	PeakMemoryMB   float64 `json:"peak_memory_mb"`
}

type AppTimeline struct {
	ApplicationID   string             `json:"application_id"`
	Name            string             `json:"name"`
	StartTime       time.Time          `json:"start_time"`
	EndTime         time.Time          `json:"end_time"`
	IntervalMinutes int                `json:"interval_minutes"`
	Intervals       []TimelineInterval `json:"intervals"`
	Summary         TimelineSummary    `json:"summary"`
	Warning         string             `json:"warning,omitempty"`
}

type window struct {
	start, end time.Time
}

func (w window) activeIn(from, to time.Time) bool {
	if w.start.IsZero() {
		return false
	}
	return !w.start.After(to) && !w.end.Before(from)
}

func executorWindow(e sparkhistory.ExecutorSummary, end time.Time) window {
	w := window{start: e.AddTime.Time, end: e.RemoveTime.Time}
	if w.end.IsZero() {
		w.end = end
	}
	return w
}

func stageWindow(s sparkhistory.StageData, end time.Time) window {
	w := window{start: s.SubmissionTime.Time, end: s.CompletionTime.Time}
	if w.end.IsZero() {
		w.end = end
	}
	return w
}

func executorMemoryMB(e sparkhistory.ExecutorSummary) float64 {
	return float64(e.MaxMemory) / bytesPerMB
}

// buckets splits [start, end) into interval sized buckets, at most max.
func buckets(start, end time.Time, intervalMinutes, maxIntervals int) ([]window, bool) {
	step := time.Duration(intervalMinutes) * time.Minute
	var out []window
	for cur := start; cur.Before(end); cur = cur.Add(step) {
		if len(out) == maxIntervals {
			return out, true
		}
		out = append(out, window{start: cur, end: minTime(cur.Add(step), end)})
	}
	return out, false
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func truncationWarning(maxIntervals int) string {
	return fmt.Sprintf("Timeline truncated at %d intervals", maxIntervals)
}

// BuildStageExecutorTimeline shows which executors were alive while the
// stage ran.
func BuildStageExecutorTimeline(stage sparkhistory.StageData, executors []sparkhistory.ExecutorSummary, intervalMinutes, maxIntervals int) (*StageTimeline, error) {
	if intervalMinutes <= 0 || maxIntervals <= 0 {
		return nil, ErrInvalidInterval
	}
	if stage.SubmissionTime.IsZero() {
		return nil, ErrNoSubmissionTime
	}
	start := stage.SubmissionTime.Time
	end := stage.CompletionTime.Time
	if end.IsZero() {
		end = start.Add(openEndedWindow)
	}

	tl := &StageTimeline{
		StageID:         stage.StageID,
		AttemptID:       stage.AttemptID,
		Name:            stage.Name,
		StartTime:       start,
		EndTime:         end,
		IntervalMinutes: intervalMinutes,
		Intervals:       []TimelineInterval{},
	}
	bs, truncated := buckets(start, end, intervalMinutes, maxIntervals)
	for _, b := range bs {
		iv := TimelineInterval{Start: b.start, End: b.end, ActiveStages: 1, ExecutorIDs: []string{}}
		for _, e := range executors {
			if !executorWindow(e, end).activeIn(b.start, b.end) {
				continue
			}
			iv.ActiveExecutors++
			iv.TotalCores += e.TotalCores
			iv.TotalMemoryMB += executorMemoryMB(e)
			iv.ExecutorIDs = append(iv.ExecutorIDs, e.ID)
		}
		tl.Intervals = append(tl.Intervals, iv)
	}
	if truncated {
		tl.Warning = truncationWarning(maxIntervals)
	}
	return tl, nil
}

// BuildAppExecutorTimeline counts executors, cores, memory and running
// stages across the first attempt of the application.
func BuildAppExecutorTimeline(app sparkhistory.ApplicationInfo, executors []sparkhistory.ExecutorSummary, stages []sparkhistory.StageData, intervalMinutes, maxIntervals int) (*AppTimeline, error) {
	if intervalMinutes <= 0 || maxIntervals <= 0 {
		return nil, ErrInvalidInterval
	}
	if len(app.Attempts) == 0 {
		return nil, ErrNoAttempts
	}
	attempt := app.Attempts[0]
	if attempt.StartTime.IsZero() {
		return nil, ErrNoStartTime
	}
	start := attempt.StartTime.Time
	end := attempt.EndTime.Time
	if end.IsZero() {
		end = start.Add(openEndedWindow)
	}

	tl := &AppTimeline{
		ApplicationID:   app.ID,
		Name:            app.Name,
		StartTime:       start,
		EndTime:         end,
		IntervalMinutes: intervalMinutes,
		Intervals:       []TimelineInterval{},
		Summary: TimelineSummary{
			TotalExecutors: len(executors),
			TotalStages:    len(stages),
		},
	}

	bs, truncated := buckets(start, end, intervalMinutes, maxIntervals)
	var executorSum int
	for _, b := range bs {
		iv := TimelineInterval{Start: b.start, End: b.end}
		for _, e := range executors {
			if !executorWindow(e, end).activeIn(b.start, b.end) {
				continue
			}
			iv.ActiveExecutors++
			iv.TotalCores += e.TotalCores
			iv.TotalMemoryMB += executorMemoryMB(e)
		}
		for _, s := range stages {
			if stageWindow(s, end).activeIn(b.start, b.end) {
				iv.ActiveStages++
			}
		}
		tl.Intervals = append(tl.Intervals, iv)

		executorSum += iv.ActiveExecutors
		tl.Summary.PeakExecutors = max(tl.Summary.PeakExecutors, iv.ActiveExecutors)
		tl.Summary.PeakCores = max(tl.Summary.PeakCores, iv.TotalCores)
		tl.Summary.PeakMemoryMB = math.Max(tl.Summary.PeakMemoryMB, iv.TotalMemoryMB)
	}
	if n := len(tl.Intervals); n > 0 {
		tl.Summary.AvgExecutors = compare.Round(float64(executorSum)/float64(n), 2)
	}
	if truncated {
		tl.Warning = truncationWarning(maxIntervals)
	}
	return tl, nil
}

type TimelineComparisonSummary struct {
	TotalIntervals             int     `json:"total_intervals"`
	MergedIntervals            int     `json:"merged_intervals"`
	IntervalsWithDifferences   int     `json:"intervals_with_differences"`
	MaxExecutorCountDifference float64 `json:"max_executor_count_difference"`
}

type TimelineComparison struct {
	IntervalMinutes int                       `json:"interval_minutes"`
	Intervals       []compare.IntervalRecord  `json:"intervals"`
	Summary         TimelineComparisonSummary `json:"summary"`
}

// CompareTimelines aligns two timelines by interval index and records the
// executor, core and memory differences (b minus a). Intervals missing from
// the shorter timeline count as empty.
func CompareTimelines(a, b []TimelineInterval, intervalMinutes int) *TimelineComparison {
	n := max(len(a), len(b))
	records := make([]compare.IntervalRecord, 0, n)
	res := &TimelineComparison{IntervalMinutes: intervalMinutes}

	at := func(tl []TimelineInterval, i int) TimelineInterval {
		if i < len(tl) {
			return tl[i]
		}
		return TimelineInterval{}
	}
	for i := range n {
		ia, ib := at(a, i), at(b, i)
		diff := map[string]float64{
			compare.DefaultSameKey: float64(ib.ActiveExecutors - ia.ActiveExecutors),
			"cores_diff":           float64(ib.TotalCores - ia.TotalCores),
			"memory_mb_diff":       compare.Round(ib.TotalMemoryMB-ia.TotalMemoryMB, 2),
		}
		if diff[compare.DefaultSameKey] != 0 || diff["cores_diff"] != 0 || diff["memory_mb_diff"] != 0 {
			res.Summary.IntervalsWithDifferences++
		}
		res.Summary.MaxExecutorCountDifference = math.Max(res.Summary.MaxExecutorCountDifference,
			math.Abs(diff[compare.DefaultSameKey]))
		records = append(records, compare.IntervalRecord{
			TimestampRange: fmt.Sprintf("%dm to %dm", i*intervalMinutes, (i+1)*intervalMinutes),
			Differences:    diff,
		})
	}

	res.Intervals = compare.MergeIntervals(records, compare.DefaultSameKey)
	res.Summary.TotalIntervals = n
	res.Summary.MergedIntervals = len(res.Intervals)
	return res
}
