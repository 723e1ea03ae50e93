// Package complexity estimates how complicated an element is to change.
//
// The estimate is heuristic, derived from static metadata already captured
// by the scanner (parameter count, line span, call fan-out, naming); it is
// not a control-flow cyclomatic computation.
//
// Two scales coexist and must not be conflated:
//
//   - the raw "cyclomatic estimate" on 1-50, used for file-level hotspot
//     reporting (hotspot threshold >= 15)
//   - the workflow risk score on 0-10, used for per-task refactor flagging
//     (refactor threshold > 7)
package complexity

import (
	"strings"

	"github.com/coderef-labs/coderef-go/internal/index"
)

// branchKeywords mark names associated with branching-heavy operations.
var branchKeywords = []string{"process", "handle", "parse", "validate", "transform"}

// Raw-scale bounds and thresholds.
const (
	rawScoreMax = 50

	// HotspotThreshold is the raw score at or above which an element lands
	// on the file-level hotspot list.
	HotspotThreshold = 15
)

// Workflow-scale bounds and thresholds.
const (
	workflowScoreMax = 10

	// RefactorThreshold is the workflow score above which an element is
	// flagged as a refactor candidate.
	RefactorThreshold = 7
)

// RiskLevel classifies a workflow score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"    // score 0-3
	RiskMedium RiskLevel = "medium" // score 4-7
	RiskHigh   RiskLevel = "high"   // score 8-10
)

// Factors records the inputs that contributed to an estimate.
type Factors struct {
	Parameters     int  `json:"parameters"`
	Calls          int  `json:"calls"`
	EstimatedLines int  `json:"estimated_lines"`
	KeywordMatch   bool `json:"keyword_match"`
}

// Estimate is the complexity estimate for one element.
type Estimate struct {
	Name string `json:"name"`
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`

	// Score is the workflow risk score (0-10).
	Score int `json:"score"`

	// Raw is the cyclomatic estimate (1-50).
	Raw int `json:"raw"`

	RiskLevel RiskLevel `json:"risk_level"`
	Factors   Factors   `json:"factors"`
}

// RawScore computes the 1-50 cyclomatic estimate for an element.
//
// base 1, +1 per parameter, a size bonus from the estimated line span
// (>100: +10, >50: +5, >20: +2), and +3 when the lowercased name contains a
// branching keyword. Clamped to 50.
func RawScore(el *index.Element) int {
	score := 1
	score += len(el.Parameters)

	lines := el.EstimatedLines()
	switch {
	case lines > 100:
		score += 10
	case lines > 50:
		score += 5
	case lines > 20:
		score += 2
	}

	if hasBranchKeyword(el.Name) {
		score += 3
	}

	if score > rawScoreMax {
		score = rawScoreMax
	}
	return score
}

// WorkflowScore computes the 0-10 workflow risk score for an element.
//
// Inputs and thresholds are deliberately independent from RawScore:
//
//	parameters: >=6 -> +3, >=4 -> +2, >=1 -> +1
//	calls (dependency fan-out): >=10 -> +3, >=5 -> +2, >=1 -> +1
//	estimated lines: >100 -> +3, >50 -> +2, >20 -> +1
//	branching keyword in name: +1
//
// Clamped to 10.
func WorkflowScore(el *index.Element) int {
	score := 0

	switch params := len(el.Parameters); {
	case params >= 6:
		score += 3
	case params >= 4:
		score += 2
	case params >= 1:
		score += 1
	}

	switch calls := len(el.Dependencies); {
	case calls >= 10:
		score += 3
	case calls >= 5:
		score += 2
	case calls >= 1:
		score += 1
	}

	switch lines := el.EstimatedLines(); {
	case lines > 100:
		score += 3
	case lines > 50:
		score += 2
	case lines > 20:
		score += 1
	}

	if hasBranchKeyword(el.Name) {
		score++
	}

	if score > workflowScoreMax {
		score = workflowScoreMax
	}
	return score
}

// EstimateElement produces the full estimate for a single element.
func EstimateElement(el *index.Element) Estimate {
	score := WorkflowScore(el)
	return Estimate{
		Name:      el.Name,
		File:      el.File,
		Line:      el.Line,
		Score:     score,
		Raw:       RawScore(el),
		RiskLevel: riskForScore(score),
		Factors: Factors{
			Parameters:     len(el.Parameters),
			Calls:          len(el.Dependencies),
			EstimatedLines: el.EstimatedLines(),
			KeywordMatch:   hasBranchKeyword(el.Name),
		},
	}
}

func riskForScore(score int) RiskLevel {
	switch {
	case score > RefactorThreshold:
		return RiskHigh
	case score >= 4:
		return RiskMedium
	default:
		return RiskLow
	}
}

func hasBranchKeyword(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range branchKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
