package complexity

import (
	"sort"

	"github.com/coderef-labs/coderef-go/internal/graph"
	"github.com/coderef-labs/coderef-go/internal/index"
)

// Distribution buckets for workflow scores.
const (
	BucketLow    = "0-3"
	BucketMedium = "4-7"
	BucketHigh   = "8-10"
)

// TaskEstimate aggregates workflow-scale estimates across a group of
// element names (typically the elements a planned task touches).
type TaskEstimate struct {
	Requested int `json:"requested"`

	// ElementsWithComplexity counts found elements with a non-zero score;
	// Average is computed over that subset, not over Requested.
	ElementsWithComplexity int `json:"elements_with_complexity"`

	Average float64 `json:"average"`
	Max     int     `json:"max"`

	// Distribution counts found elements per score bucket.
	Distribution map[string]int `json:"distribution"`

	// HighComplexity lists refactor candidates (score > RefactorThreshold),
	// sorted by score descending, ties by name ascending.
	HighComplexity []Estimate `json:"high_complexity"`

	// Estimates holds the per-element results for found elements, in
	// requested order (first request wins for duplicates).
	Estimates []Estimate `json:"estimates"`
}

// EstimateTask rolls up the named elements. Names absent from the index are
// silently skipped; an aggregate over zero found elements returns zeroes,
// not an error.
func EstimateTask(g *graph.DependencyGraph, names []string) *TaskEstimate {
	task := &TaskEstimate{
		Requested:    len(names),
		Distribution: map[string]int{BucketLow: 0, BucketMedium: 0, BucketHigh: 0},
	}

	seen := make(map[string]struct{}, len(names))
	total := 0
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		el, ok := g.Element(name)
		if !ok {
			continue
		}

		est := EstimateElement(el)
		task.Estimates = append(task.Estimates, est)
		task.Distribution[bucketFor(est.Score)]++

		if est.Score > 0 {
			task.ElementsWithComplexity++
			total += est.Score
		}
		if est.Score > task.Max {
			task.Max = est.Score
		}
		if est.Score > RefactorThreshold {
			task.HighComplexity = append(task.HighComplexity, est)
		}
	}

	if task.ElementsWithComplexity > 0 {
		task.Average = float64(total) / float64(task.ElementsWithComplexity)
	}

	sort.Slice(task.HighComplexity, func(i, j int) bool {
		if task.HighComplexity[i].Score != task.HighComplexity[j].Score {
			return task.HighComplexity[i].Score > task.HighComplexity[j].Score
		}
		return task.HighComplexity[i].Name < task.HighComplexity[j].Name
	})

	return task
}

func bucketFor(score int) string {
	switch {
	case score > RefactorThreshold:
		return BucketHigh
	case score >= 4:
		return BucketMedium
	default:
		return BucketLow
	}
}

// Hotspots scans the whole index on the raw 1-50 scale and returns the
// elements at or above HotspotThreshold, sorted by raw score descending,
// ties by name ascending. Duplicate names keep their first occurrence.
func Hotspots(elements []index.Element) []Estimate {
	var hotspots []Estimate
	seen := make(map[string]struct{}, len(elements))

	for i := range elements {
		el := &elements[i]
		if _, dup := seen[el.Name]; dup {
			continue
		}
		seen[el.Name] = struct{}{}

		if raw := RawScore(el); raw >= HotspotThreshold {
			hotspots = append(hotspots, EstimateElement(el))
		}
	}

	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Raw != hotspots[j].Raw {
			return hotspots[i].Raw > hotspots[j].Raw
		}
		return hotspots[i].Name < hotspots[j].Name
	})

	return hotspots
}
