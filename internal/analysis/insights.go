package analysis

import (
	"strings"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
)

type InsightOptions struct {
	IncludeAutoScaling bool
	IncludeShuffleSkew bool
	IncludeFailedTasks bool
	IncludeBottlenecks bool
	TargetStageMinutes float64
	ShuffleThresholdGB float64
	SkewRatio          float64
	FailureThreshold   int
	TopN               int
	MaxRecommendations int
}

// DefaultInsightOptions enables every section.
func DefaultInsightOptions() InsightOptions {
	return InsightOptions{
		IncludeAutoScaling: true,
		IncludeShuffleSkew: true,
		IncludeFailedTasks: true,
		IncludeBottlenecks: true,
		TargetStageMinutes: 2,
		ShuffleThresholdGB: 10,
		SkewRatio:          2,
		FailureThreshold:   1,
		TopN:               5,
		MaxRecommendations: 10,
	}
}

type InsightsSummary struct {
	AnalysesRun          []string `json:"analyses_run"`
	TotalRecommendations int      `json:"total_recommendations"`
	CriticalIssues       int      `json:"critical_issues"`
	HighPriority         int      `json:"high_priority_recommendations"`
}

type Insights struct {
	ApplicationID   string             `json:"application_id"`
	ApplicationName string             `json:"application_name"`
	Summary         *AppSummary        `json:"application_summary,omitempty"`
	Bottlenecks     *Bottlenecks       `json:"bottlenecks,omitempty"`
	AutoScaling     *AutoScaling       `json:"auto_scaling,omitempty"`
	ShuffleSkew     *ShuffleSkew       `json:"shuffle_skew,omitempty"`
	FailedTasks     *FailedTasksReport `json:"failed_tasks,omitempty"`
	Recommendations []Recommendation   `json:"recommendations"`
	Overview        InsightsSummary    `json:"summary"`
	Errors          map[string]string  `json:"errors,omitempty"`
}

// ApplicationInsights runs the enabled analyses. A failing section is
// reported under Errors and does not stop the others.
func ApplicationInsights(app sparkhistory.ApplicationInfo, stages []sparkhistory.StageData, jobs []sparkhistory.JobData, executors []sparkhistory.ExecutorSummary, opts InsightOptions) *Insights {
	res := &Insights{
		ApplicationID:   app.ID,
		ApplicationName: app.Name,
		Errors:          map[string]string{},
	}
	var recs []Recommendation
	addRecs := func(typ, priority string, msgs []string) {
		for _, m := range msgs {
			issue, suggestion, _ := strings.Cut(m, ". ")
			recs = append(recs, Recommendation{Type: typ, Priority: priority, Issue: issue, Suggestion: suggestion})
		}
	}
	ran := func(name string) {
		res.Overview.AnalysesRun = append(res.Overview.AnalysesRun, name)
	}

	if s, err := SummarizeApp(app, stages, executors); err != nil {
		res.Errors["application_summary"] = err.Error()
	} else {
		res.Summary = s
		ran("application_summary")
	}

	if opts.IncludeBottlenecks {
		res.Bottlenecks = FindBottlenecks(app.ID, stages, jobs, executors, opts.TopN)
		addRecs("performance", PriorityHigh, res.Bottlenecks.Recommendations)
		ran("bottlenecks")
	}
	if opts.IncludeAutoScaling {
		if a, err := AnalyzeAutoScaling(app, stages, executors, opts.TargetStageMinutes); err != nil {
			res.Errors["auto_scaling"] = err.Error()
		} else {
			res.AutoScaling = a
			addRecs("auto_scaling", PriorityMedium, a.AnalysisNotes)
			ran("auto_scaling")
		}
	}
	if opts.IncludeShuffleSkew {
		if s, err := AnalyzeShuffleSkew(app.ID, stages, opts.ShuffleThresholdGB, opts.SkewRatio); err != nil {
			res.Errors["shuffle_skew"] = err.Error()
		} else {
			res.ShuffleSkew = s
			addRecs("data_skew", PriorityMedium, s.Recommendations)
			ran("shuffle_skew")
		}
	}
	if opts.IncludeFailedTasks {
		res.FailedTasks = AnalyzeFailedTasks(app.ID, stages, executors, opts.FailureThreshold)
		addRecs("reliability", PriorityHigh, res.FailedTasks.Recommendations)
		ran("failed_tasks")
	}

	res.Recommendations = Prioritize(Dedupe(recs), opts.MaxRecommendations)
	res.Overview.TotalRecommendations = len(res.Recommendations)
	for _, r := range res.Recommendations {
		switch r.Priority {
		case PriorityCritical:
			res.Overview.CriticalIssues++
		case PriorityHigh:
			res.Overview.HighPriority++
		}
	}
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res
}
