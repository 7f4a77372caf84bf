package analysis

import (
	"fmt"
	"sort"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/config"
)

const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

var priorityOrder = map[string]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

type Recommendation struct {
	Type       string `json:"type"`
	Priority   string `json:"priority"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

func (r Recommendation) normalize() Recommendation {
	if r.Type == "" {
		r.Type = "general"
	}
	if r.Priority == "" {
		r.Priority = PriorityLow
	}
	return r
}

// Dedupe normalizes recs and keeps the first of each (type, issue,
// suggestion).
func Dedupe(recs []Recommendation) []Recommendation {
	type key struct{ typ, issue, suggestion string }
	seen := map[key]bool{}
	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		r = r.normalize()
		k := key{r.Type, r.Issue, r.Suggestion}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// Prioritize keeps critical, high and medium recommendations, stably sorted
// by priority, and returns at most topN of them.
func Prioritize(recs []Recommendation, topN int) []Recommendation {
	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		if p, ok := priorityOrder[r.Priority]; ok && p < priorityOrder[PriorityLow] {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return priorityOrder[out[i].Priority] < priorityOrder[out[j].Priority]
	})
	return head(out, topN)
}

// RuleContext is what comparison rules inspect.
type RuleContext struct {
	App1             *sparkhistory.ApplicationInfo
	App2             *sparkhistory.ApplicationInfo
	StageDifferences []StageDifference
	Tools            config.ToolConfig
}

// A Rule returns a recommendation, or nil when it does not apply.
type Rule func(RuleContext) *Recommendation

func DefaultRules() []Rule {
	return []Rule{ResourceAllocationRule, LargeStageDiffRule}
}

// ApplyRules runs every rule and returns the normalized recommendations.
func ApplyRules(ctx RuleContext, rules []Rule) []Recommendation {
	var out []Recommendation
	for _, rule := range rules {
		if rec := rule(ctx); rec != nil {
			out = append(out, rec.normalize())
		}
	}
	return out
}

func outsideBalance(ratio float64) bool {
	return ratio > 1.5 || ratio < 0.67
}

// ResourceAllocationRule flags core or per executor memory allocations that
// differ by more than half.
func ResourceAllocationRule(ctx RuleContext) *Recommendation {
	if ctx.App1 == nil || ctx.App2 == nil {
		return nil
	}
	if ctx.App1.CoresGranted > 0 && ctx.App2.CoresGranted > 0 {
		ratio := float64(ctx.App2.CoresGranted) / float64(ctx.App1.CoresGranted)
		if outsideBalance(ratio) {
			fewer, more := "app2", "app1"
			if ratio > 1.5 {
				fewer, more = "app1", "app2"
			}
			return &Recommendation{
				Type:       "resource_allocation",
				Priority:   PriorityMedium,
				Issue:      fmt.Sprintf("Significant core allocation difference (ratio: %.2f)", ratio),
				Suggestion: fmt.Sprintf("Consider equalizing core allocation - %s has fewer cores than %s", fewer, more),
			}
		}
	}
	if ctx.App1.MemoryPerExecutorMB > 0 && ctx.App2.MemoryPerExecutorMB > 0 {
		ratio := float64(ctx.App2.MemoryPerExecutorMB) / float64(ctx.App1.MemoryPerExecutorMB)
		if outsideBalance(ratio) {
			return &Recommendation{
				Type:       "resource_allocation",
				Priority:   PriorityMedium,
				Issue:      fmt.Sprintf("Significant memory per executor difference (ratio: %.2f)", ratio),
				Suggestion: "Review memory allocation settings between applications",
			}
		}
	}
	return nil
}

// LargeStageDiffRule flags matched stages whose durations differ by more
// than large_stage_diff_seconds.
func LargeStageDiffRule(ctx RuleContext) *Recommendation {
	limit := ctx.Tools.LargeStageDiffSeconds
	var large []StageDifference
	for _, d := range ctx.StageDifferences {
		if d.TimeDifference.AbsoluteSeconds > limit {
			large = append(large, d)
		}
	}
	if len(large) == 0 {
		return nil
	}
	return &Recommendation{
		Type:       "stage_performance",
		Priority:   PriorityHigh,
		Issue:      fmt.Sprintf("Found %d stages with >%gs time difference", len(large), limit),
		Suggestion: fmt.Sprintf("Investigate %s for potential performance issues in specific stages", large[0].TimeDifference.SlowerApplication),
	}
}
