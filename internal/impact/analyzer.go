// Package impact computes the blast radius of changing a code element.
//
// Given a target element, the analyzer performs a bounded, cycle-safe
// breadth-first traversal over the dependency graph and classifies the
// result into a coarse risk level. The primary contract follows the
// "callers" direction: an edge is walked from the changed element to the
// elements that depend on it, so the affected set answers "who breaks if
// this changes". The forward ("callees") direction is available for
// ripple-effect queries.
package impact

import (
	"sort"

	"github.com/coderef-labs/coderef-go/internal/graph"
)

// Direction selects which adjacency the traversal follows.
type Direction string

const (
	// DirectionCallers walks the reverse adjacency: who depends on the
	// changed element. This is the default impact semantics.
	DirectionCallers Direction = "callers"

	// DirectionCallees walks the forward adjacency: what the element
	// depends on downstream.
	DirectionCallees Direction = "callees"
)

// DefaultMaxDepth bounds traversal when the caller does not specify one.
const DefaultMaxDepth = 3

// Risk thresholds on the affected count. Pinned by tests; tune here, not
// at call sites.
const (
	highRiskThreshold   = 10
	mediumRiskThreshold = 3
)

// RiskLevel is the coarse classification of an impact result.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// riskForCount thresholds the affected count into a risk level.
func riskForCount(affected int) RiskLevel {
	switch {
	case affected >= highRiskThreshold:
		return RiskHigh
	case affected >= mediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// AffectedElement is one element discovered by the traversal.
type AffectedElement struct {
	Name  string `json:"name"`
	File  string `json:"file,omitempty"`
	Line  int    `json:"line,omitempty"`
	Depth int    `json:"depth"`
}

// Result is the outcome of one impact analysis invocation.
type Result struct {
	Origin    string    `json:"origin"`
	MaxDepth  int       `json:"max_depth"`
	Direction Direction `json:"direction"`

	// Affected lists discovered elements sorted by depth, then name. The
	// origin itself is excluded.
	Affected []AffectedElement `json:"affected"`

	// ByDepth groups Affected by the depth of first discovery (1..MaxDepth).
	ByDepth map[int][]AffectedElement `json:"by_depth"`

	AffectedCount int       `json:"affected_count"`
	RiskLevel     RiskLevel `json:"risk_level"`

	// Report is a human-readable rendering including a text diagram of the
	// discovered subgraph.
	Report string `json:"report"`
}

// Analyzer runs impact analyses over a dependency graph.
type Analyzer struct {
	graph *graph.DependencyGraph
}

// NewAnalyzer creates an analyzer over the given graph.
func NewAnalyzer(g *graph.DependencyGraph) *Analyzer {
	return &Analyzer{graph: g}
}

// Analyze computes the transitive affected set for the named element.
//
// An unknown element is a valid empty query, signaled by ok == false with a
// nil result; it is distinct from a successful zero-impact analysis.
// maxDepth <= 0 means "only the origin": the result carries an empty
// affected set.
func (a *Analyzer) Analyze(name string, maxDepth int, direction Direction) (*Result, bool) {
	if _, found := a.graph.Element(name); !found {
		return nil, false
	}
	if direction == "" {
		direction = DirectionCallers
	}

	result := &Result{
		Origin:    name,
		MaxDepth:  maxDepth,
		Direction: direction,
		ByDepth:   make(map[int][]AffectedElement),
	}

	// Visited-set BFS. A node is recorded at the depth of its first
	// discovery and never revisited, which makes cycles (including
	// self-references) terminate.
	visited := map[string]struct{}{name: {}}
	frontier := []string{name}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, current := range frontier {
			for _, neighbor := range a.neighbors(current, direction) {
				if _, seen := visited[neighbor]; seen {
					continue
				}
				visited[neighbor] = struct{}{}
				result.ByDepth[depth] = append(result.ByDepth[depth], a.describe(neighbor, depth))
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	for depth := 1; depth <= maxDepth; depth++ {
		level := result.ByDepth[depth]
		if len(level) == 0 {
			continue
		}
		sort.Slice(level, func(i, j int) bool { return level[i].Name < level[j].Name })
		result.Affected = append(result.Affected, level...)
	}

	result.AffectedCount = len(result.Affected)
	result.RiskLevel = riskForCount(result.AffectedCount)
	result.Report = a.renderReport(result)

	return result, true
}

func (a *Analyzer) neighbors(name string, direction Direction) []string {
	if direction == DirectionCallees {
		return a.graph.Dependencies(name)
	}
	return a.graph.Dependents(name)
}

func (a *Analyzer) describe(name string, depth int) AffectedElement {
	affected := AffectedElement{Name: name, Depth: depth}
	if el, ok := a.graph.Element(name); ok {
		affected.File = el.File
		affected.Line = el.Line
	}
	return affected
}
