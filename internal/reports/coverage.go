package reports

import "github.com/coderef-labs/coderef-go/internal/index"

// tagKeys are the metadata keys that mark an element as documented with a
// CodeRef tag.
var tagKeys = []string{"coderef", "tag", "tags", "docref"}

// CoverageReport measures how much of the index carries CodeRef tags.
type CoverageReport struct {
	Total   int     `json:"total"`
	Tagged  int     `json:"tagged"`
	Percent float64 `json:"percent"`

	// Untagged lists the names of untagged elements, in index order.
	Untagged []string `json:"untagged,omitempty"`
}

// AnalyzeCoverage computes tag coverage over the element sequence. An empty
// index yields zero percent, not an error.
func AnalyzeCoverage(elements []index.Element) *CoverageReport {
	report := &CoverageReport{Total: len(elements)}

	for i := range elements {
		el := &elements[i]
		if isTagged(el) {
			report.Tagged++
		} else {
			report.Untagged = append(report.Untagged, el.Name)
		}
	}

	if report.Total > 0 {
		report.Percent = float64(report.Tagged) / float64(report.Total) * 100
	}
	return report
}

func isTagged(el *index.Element) bool {
	if len(el.Tags) > 0 {
		return true
	}
	for _, key := range tagKeys {
		if _, ok := el.Metadata[key]; ok {
			return true
		}
	}
	return false
}
