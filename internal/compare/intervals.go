package compare

import "strings"

const (
	DefaultSameKey = "executor_count_diff"
	rangeSep       = " to "
)

// IntervalRecord is the diff of one time bucket.
type IntervalRecord struct {
	TimestampRange string             `json:"timestamp_range"`
	Differences    map[string]float64 `json:"differences"`
}

func (r IntervalRecord) bounds() (start, end string) {
	start, end, ok := strings.Cut(r.TimestampRange, rangeSep)
	if !ok {
		return r.TimestampRange, r.TimestampRange
	}
	return start, end
}

// MergeIntervals collapses runs of consecutive records that carry the same
// value for sameKey (DefaultSameKey when empty) into one record spanning the
// run. A merged record keeps the differences of the first record in the
// run. Records without sameKey are never merged.
func MergeIntervals(records []IntervalRecord, sameKey string) []IntervalRecord {
	if sameKey == "" {
		sameKey = DefaultSameKey
	}

	merged := make([]IntervalRecord, 0, len(records))
	for i := 0; i < len(records); {
		first := records[i]
		value, ok := first.Differences[sameKey]
		j := i + 1
		if ok {
			for j < len(records) {
				next, ok := records[j].Differences[sameKey]
				if !ok || next != value {
					break
				}
				j++
			}
		}

		if j-i == 1 {
			merged = append(merged, first)
		} else {
			start, _ := first.bounds()
			_, end := records[j-1].bounds()
			merged = append(merged, IntervalRecord{
				TimestampRange: start + rangeSep + end,
				Differences:    first.Differences,
			})
		}
		i = j
	}
	return merged
}
