package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/coderef-labs/coderef-go/internal/complexity"
	"github.com/coderef-labs/coderef-go/internal/graph"
	"github.com/coderef-labs/coderef-go/internal/impact"
	"github.com/coderef-labs/coderef-go/internal/index"
	"github.com/coderef-labs/coderef-go/internal/reports"
)

// loadGraph fetches the current element snapshot and builds a fresh
// dependency graph for this call. The graph is discarded when the call
// returns.
func (s *Server) loadGraph(ctx context.Context) ([]index.Element, *graph.DependencyGraph, error) {
	elements, err := s.source.Elements(ctx)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return nil, nil, fmt.Errorf("no element index at %s: run the scanner first", s.source.IndexPath())
		}
		return nil, nil, err
	}
	return elements, graph.Build(elements), nil
}

func (s *Server) handleImpact(ctx context.Context, elementName string, maxDepth int, direction string, depthSet bool) (string, error) {
	if elementName == "" {
		return "No element name provided", nil
	}
	if !depthSet {
		maxDepth = impact.DefaultMaxDepth
	}

	_, g, err := s.loadGraph(ctx)
	if err != nil {
		return "", err
	}

	analyzer := impact.NewAnalyzer(g)
	result, ok := analyzer.Analyze(elementName, maxDepth, impact.Direction(direction))
	if !ok {
		return fmt.Sprintf("Element '%s' not found in index", elementName), nil
	}

	var sb strings.Builder
	sb.WriteString(result.Report)
	sb.WriteString("\nNext: Use `coderef_complexity` on affected elements before planning changes.")
	return sb.String(), nil
}

func (s *Server) handleComplexity(ctx context.Context, elementName string, names []string) (string, error) {
	if elementName == "" && len(names) == 0 {
		return "No element name(s) provided", nil
	}

	_, g, err := s.loadGraph(ctx)
	if err != nil {
		return "", err
	}

	if elementName != "" && len(names) == 0 {
		el, ok := g.Element(elementName)
		if !ok {
			return fmt.Sprintf("Element '%s' not found in index", elementName), nil
		}
		est := complexity.EstimateElement(el)

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Complexity for **%s** (%s:%d)\n\n", est.Name, est.File, est.Line))
		sb.WriteString(fmt.Sprintf("- Workflow score: %d/10 (risk: %s)\n", est.Score, est.RiskLevel))
		sb.WriteString(fmt.Sprintf("- Cyclomatic estimate: %d/50\n", est.Raw))
		sb.WriteString(fmt.Sprintf("- Parameters: %d, calls: %d, estimated lines: %d\n",
			est.Factors.Parameters, est.Factors.Calls, est.Factors.EstimatedLines))
		if est.Factors.KeywordMatch {
			sb.WriteString("- Name matches a branching-heavy keyword\n")
		}
		if est.Score > complexity.RefactorThreshold {
			sb.WriteString("\n⚠️ Refactor candidate: consider splitting before changing.\n")
		}
		return sb.String(), nil
	}

	task := complexity.EstimateTask(g, names)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Task complexity over %d element(s)\n\n", task.Requested))
	sb.WriteString(fmt.Sprintf("- Found with complexity: %d\n", task.ElementsWithComplexity))
	sb.WriteString(fmt.Sprintf("- Average score: %.1f, max: %d\n", task.Average, task.Max))
	sb.WriteString(fmt.Sprintf("- Distribution: %s=%d %s=%d %s=%d\n",
		complexity.BucketLow, task.Distribution[complexity.BucketLow],
		complexity.BucketMedium, task.Distribution[complexity.BucketMedium],
		complexity.BucketHigh, task.Distribution[complexity.BucketHigh]))

	if len(task.HighComplexity) > 0 {
		sb.WriteString("\nRefactor candidates:\n")
		for _, est := range task.HighComplexity {
			sb.WriteString(fmt.Sprintf("- %s (score %d) in %s\n", est.Name, est.Score, est.File))
		}
	}

	return sb.String(), nil
}

func (s *Server) handleHotspots(ctx context.Context, limit int) (string, error) {
	elements, _, err := s.loadGraph(ctx)
	if err != nil {
		return "", err
	}

	hotspots := complexity.Hotspots(elements)
	if limit > 0 && len(hotspots) > limit {
		hotspots = hotspots[:limit]
	}

	var sb strings.Builder
	sb.WriteString("## Complexity Hotspots\n\n")
	if len(hotspots) == 0 {
		sb.WriteString(fmt.Sprintf("No elements at or above the hotspot threshold (%d).\n", complexity.HotspotThreshold))
		return sb.String(), nil
	}

	for i, est := range hotspots {
		sb.WriteString(fmt.Sprintf("%d. **%s** — raw %d/50, workflow %d/10 (%s:%d)\n",
			i+1, est.Name, est.Raw, est.Score, est.File, est.Line))
	}
	sb.WriteString("\nNext: Use `coderef_impact` before touching a hotspot.")
	return sb.String(), nil
}

func (s *Server) handlePatterns(ctx context.Context) (string, error) {
	elements, _, err := s.loadGraph(ctx)
	if err != nil {
		return "", err
	}

	report := reports.AnalyzePatterns(elements, reports.DefaultTopN)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Pattern Report (%d elements)\n\n", report.TotalElements))

	if len(report.NamingConventions) > 0 {
		sb.WriteString("### Naming conventions\n")
		for _, elType := range sortedTypes(report.NamingConventions) {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", elType, report.NamingConventions[elType]))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("### Handlers (%d)\n", len(report.Handlers)))
	for _, h := range report.Handlers {
		sb.WriteString(fmt.Sprintf("- %s\n", h))
	}
	sb.WriteString("\n")

	writeCounts(&sb, "Top decorators", report.TopDecorators)
	writeCounts(&sb, "Top imports", report.TopImports)

	return sb.String(), nil
}

func (s *Server) handleCoverage(ctx context.Context) (string, error) {
	elements, _, err := s.loadGraph(ctx)
	if err != nil {
		return "", err
	}

	report := reports.AnalyzeCoverage(elements)

	var sb strings.Builder
	sb.WriteString("## CodeRef Tag Coverage\n\n")
	sb.WriteString(fmt.Sprintf("Tagged %d of %d elements (%.1f%%)\n", report.Tagged, report.Total, report.Percent))

	if len(report.Untagged) > 0 {
		sb.WriteString("\nUntagged elements:\n")
		for _, name := range report.Untagged {
			sb.WriteString(fmt.Sprintf("- %s\n", name))
		}
	}

	return sb.String(), nil
}

func (s *Server) handleDetectChanges(ctx context.Context, files []string) (string, error) {
	if len(files) == 0 {
		return "No changed files provided. Please specify files to analyze.", nil
	}

	elements, g, err := s.loadGraph(ctx)
	if err != nil {
		return "", err
	}

	report := impact.NewAnalyzer(g).AnalyzeChanges(elements, files)

	var sb strings.Builder
	sb.WriteString("# Change Detection Report\n\n")
	sb.WriteString(fmt.Sprintf("## Changed Files (%d)\n\n", len(files)))
	for _, file := range files {
		sb.WriteString(fmt.Sprintf("- `%s`\n", file))
	}

	if len(report.Changed) == 0 {
		sb.WriteString("\nNo elements found in the specified changed files.\n")
		return sb.String(), nil
	}

	sb.WriteString(fmt.Sprintf("\n## Changed Elements (%d)\n\n", len(report.Changed)))
	for _, el := range report.Changed {
		sb.WriteString(fmt.Sprintf("- **%s** in `%s`\n", el.Name, el.File))
	}

	if len(report.Affected) > 0 {
		sb.WriteString(fmt.Sprintf("\n## Impact (%d affected, risk: %s)\n\n", len(report.Affected), report.RiskLevel))
		for _, el := range report.Affected {
			sb.WriteString(fmt.Sprintf("- **%s** in `%s`\n", el.Name, el.File))
		}
		sb.WriteString("\n**Recommendation:** Review and test these affected elements after making changes.\n")
	} else {
		sb.WriteString("\n## Impact\n\nNo other elements appear to be directly affected by these changes.\n")
	}

	return sb.String(), nil
}

// Resource handlers

func (s *Server) getOverview(ctx context.Context) (string, error) {
	elements, g, err := s.loadGraph(ctx)
	if err != nil {
		return "", err
	}

	byType := make(map[index.ElementType]int)
	for i := range elements {
		byType[elements[i].Type]++
	}

	var sb strings.Builder
	sb.WriteString("# Coderef Index Overview\n\n")
	sb.WriteString(fmt.Sprintf("**Index:** %s\n", s.source.IndexPath()))
	sb.WriteString(fmt.Sprintf("**Elements:** %d\n", len(elements)))
	sb.WriteString(fmt.Sprintf("**Graph nodes:** %d (dangling references included)\n", g.NodeCount()))
	sb.WriteString(fmt.Sprintf("**Dependency edges:** %d\n", g.EdgeCount()))
	sb.WriteString("\n## Elements by type\n\n")
	for _, elType := range sortedTypeCounts(byType) {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", elType, byType[elType]))
	}

	return sb.String(), nil
}

func getSchema() string {
	var sb strings.Builder
	sb.WriteString("# Coderef Element Index Schema\n\n")
	sb.WriteString("The index is a UTF-8 JSON document: a flat array of element objects,\n")
	sb.WriteString("or the legacy {\"elements\": [...]} wrapper.\n\n")
	sb.WriteString("| Field | Type | Notes |\n")
	sb.WriteString("|-------|------|-------|\n")
	sb.WriteString("| `name` | string | traversal key; first occurrence wins on duplicates |\n")
	sb.WriteString("| `file` | string | relative path |\n")
	sb.WriteString("| `line` | integer | 1-based start line |\n")
	sb.WriteString("| `end_line` | integer | optional |\n")
	sb.WriteString("| `type` | string | function, method, class, interface, ...; defaults to unknown |\n")
	sb.WriteString("| `parameters` | array | strings or {name, type} objects |\n")
	sb.WriteString("| `dependencies` | array | names this element calls/imports |\n")
	sb.WriteString("| `calledBy` | array | names that reference this element |\n")
	sb.WriteString("| `decorators`, `imports`, `exports`, `tags` | array | optional metadata |\n")
	return sb.String()
}

// Helpers

func sortedTypes(m map[index.ElementType]string) []index.ElementType {
	types := make([]index.ElementType, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func sortedTypeCounts(m map[index.ElementType]int) []index.ElementType {
	types := make([]index.ElementType, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func writeCounts(sb *strings.Builder, title string, counts []reports.NameCount) {
	sb.WriteString(fmt.Sprintf("### %s\n", title))
	if len(counts) == 0 {
		sb.WriteString("None\n\n")
		return
	}
	for _, nc := range counts {
		sb.WriteString(fmt.Sprintf("- %s (%d)\n", nc.Name, nc.Count))
	}
	sb.WriteString("\n")
}
