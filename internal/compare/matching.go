package compare

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/drutigliano19/spark-history-mcp/internal/config"
)

// StageRef is the part of a stage that matching looks at.
type StageRef struct {
	Name  string
	Start time.Time
	// End may be zero for stages still running.
	End time.Time
}

type StagePair struct {
	IndexA         int     `json:"index_a"`
	IndexB         int     `json:"index_b"`
	NameA          string  `json:"name_a"`
	NameB          string  `json:"name_b"`
	Similarity     float64 `json:"similarity"`
	OverlapSeconds float64 `json:"overlap_seconds"`
}

type MatchOptions struct {
	// RequireOverlap drops pairs whose time windows do not overlap.
	RequireOverlap bool
}

// NameSimilarity is 1 for a case-insensitive match, otherwise the
// normalized Levenshtein ratio of the lower-cased names.
func NameSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// OverlapSeconds is the length of the intersection of both windows. A
// missing end counts as the start.
func OverlapSeconds(a, b StageRef) float64 {
	if a.Start.IsZero() || b.Start.IsZero() {
		return 0
	}
	endA, endB := a.End, b.End
	if endA.IsZero() {
		endA = a.Start
	}
	if endB.IsZero() {
		endB = b.Start
	}
	latestStart := a.Start
	if b.Start.After(latestStart) {
		latestStart = b.Start
	}
	earliestEnd := endA
	if endB.Before(earliestEnd) {
		earliestEnd = endB
	}
	return max(0, earliestEnd.Sub(latestStart).Seconds())
}

// ErrInvalidSimilarity is returned for NaN thresholds or thresholds outside
// [0, 1].
var ErrInvalidSimilarity = config.ErrInvalidSimilarity

// MatchStages pairs stages of two runs one-to-one by name similarity. Pairs
// below threshold (the configured stage_match_similarity when nil) are
// ignored. Candidates are accepted greedily by descending similarity, then
// descending overlap, then list order, and returned in that order.
func MatchStages(a, b []StageRef, threshold *float64, opts MatchOptions) ([]StagePair, error) {
	th := config.Tools().StageMatchSimilarity
	if threshold != nil {
		th = *threshold
	}
	if err := config.ValidateSimilarity(th); err != nil {
		return nil, err
	}

	var candidates []StagePair
	for i, sa := range a {
		for j, sb := range b {
			sim := NameSimilarity(sa.Name, sb.Name)
			if sim < th {
				continue
			}
			overlap := OverlapSeconds(sa, sb)
			if opts.RequireOverlap && overlap <= 0 {
				continue
			}
			candidates = append(candidates, StagePair{
				IndexA:         i,
				IndexB:         j,
				NameA:          sa.Name,
				NameB:          sb.Name,
				Similarity:     sim,
				OverlapSeconds: overlap,
			})
		}
	}

	sort.SliceStable(candidates, func(x, y int) bool {
		cx, cy := candidates[x], candidates[y]
		if cx.Similarity != cy.Similarity {
			return cx.Similarity > cy.Similarity
		}
		if cx.OverlapSeconds != cy.OverlapSeconds {
			return cx.OverlapSeconds > cy.OverlapSeconds
		}
		if cx.IndexA != cy.IndexA {
			return cx.IndexA < cy.IndexA
		}
		return cx.IndexB < cy.IndexB
	})

	usedA := make(map[int]bool)
	usedB := make(map[int]bool)
	pairs := make([]StagePair, 0, min(len(a), len(b)))
	for _, c := range candidates {
		if usedA[c.IndexA] || usedB[c.IndexB] {
			continue
		}
		usedA[c.IndexA] = true
		usedB[c.IndexB] = true
		pairs = append(pairs, c)
	}
	return pairs, nil
}
