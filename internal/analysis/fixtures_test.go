package analysis

import (
	"time"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
)

var base = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func at(d time.Duration) sparkhistory.SparkTime {
	return sparkhistory.NewSparkTime(base.Add(d))
}

func stage(id int, name string, start, dur time.Duration, status string) sparkhistory.StageData {
	s := sparkhistory.StageData{
		StageID:        id,
		Name:           name,
		Status:         status,
		SubmissionTime: at(start),
	}
	if status != sparkhistory.StageActive {
		s.CompletionTime = at(start + dur)
	}
	return s
}

func executor(id string, add, remove time.Duration, cores int) sparkhistory.ExecutorSummary {
	e := sparkhistory.ExecutorSummary{
		ID:         id,
		TotalCores: cores,
		AddTime:    at(add),
	}
	if remove > 0 {
		e.RemoveTime = at(remove)
	}
	return e
}

func application(id string, dur time.Duration) sparkhistory.ApplicationInfo {
	return sparkhistory.ApplicationInfo{
		ID:   id,
		Name: "etl-" + id,
		Attempts: []sparkhistory.ApplicationAttemptInfo{{
			StartTime: at(0),
			EndTime:   at(dur),
			Duration:  dur.Milliseconds(),
			Completed: true,
		}},
	}
}
