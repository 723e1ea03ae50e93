package impact

import (
	"fmt"
	"sort"
	"strings"
)

// renderReport produces the human-readable impact report, including a text
// diagram of the edges among the discovered subgraph.
func (a *Analyzer) renderReport(r *Result) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Impact analysis for: %s (depth: %d, direction: %s)\n\n", r.Origin, r.MaxDepth, r.Direction))

	if len(r.Affected) == 0 {
		sb.WriteString("No affected elements found. This element appears to be isolated.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Affected elements: %d (risk: %s)\n\n", r.AffectedCount, r.RiskLevel))

	for depth := 1; depth <= r.MaxDepth; depth++ {
		level := r.ByDepth[depth]
		if len(level) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("Depth %d (%s) - %d elements\n", depth, depthLabel(depth), len(level)))
		for _, el := range level {
			if el.File != "" {
				sb.WriteString(fmt.Sprintf("- %s (%s:%d)\n", el.Name, el.File, el.Line))
			} else {
				sb.WriteString(fmt.Sprintf("- %s (external)\n", el.Name))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Dependency diagram:\n")
	sb.WriteString("```\n")
	sb.WriteString(a.renderDiagram(r))
	sb.WriteString("```\n")

	return sb.String()
}

func depthLabel(depth int) string {
	switch {
	case depth == 1:
		return "direct"
	case depth == 2:
		return "indirect"
	default:
		return "transitive"
	}
}

// renderDiagram lists the directed edges among the discovered subgraph,
// oriented as "dependent -> dependency" regardless of traversal direction,
// sorted for deterministic output.
func (a *Analyzer) renderDiagram(r *Result) string {
	inResult := map[string]struct{}{r.Origin: {}}
	for _, el := range r.Affected {
		inResult[el.Name] = struct{}{}
	}

	// The reverse adjacency carries both scanner directions (dependencies
	// and calledBy), so enumerating dependents finds every known edge
	// within the result set.
	var edges []string
	for name := range inResult {
		for _, dependent := range a.graph.Dependents(name) {
			if _, ok := inResult[dependent]; ok {
				edges = append(edges, fmt.Sprintf("%s -> %s", dependent, name))
			}
		}
	}
	sort.Strings(edges)

	if len(edges) == 0 {
		return fmt.Sprintf("%s (no edges within result)\n", r.Origin)
	}

	var sb strings.Builder
	for _, edge := range edges {
		sb.WriteString(edge)
		sb.WriteString("\n")
	}
	return sb.String()
}
