// Package reports derives single-pass metrics from the element index:
// naming conventions, handler detection, decorator/import frequency, and
// tag coverage. These are linear aggregations with no graph traversal.
package reports

import (
	"sort"
	"strings"
	"unicode"

	"github.com/coderef-labs/coderef-go/internal/index"
)

// DefaultTopN bounds the frequency lists in a pattern report.
const DefaultTopN = 10

// NameCount is one entry in a frequency list.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PatternReport summarizes naming and usage patterns across the index.
type PatternReport struct {
	TotalElements int `json:"total_elements"`

	// NamingConventions maps element type to the case style of the first
	// observed name of that type. A heuristic, not a statistic.
	NamingConventions map[index.ElementType]string `json:"naming_conventions"`

	// Handlers lists elements whose name carries the handle_ prefix, in
	// index order.
	Handlers []string `json:"handlers"`

	// TopDecorators and TopImports are frequency lists sorted by count
	// descending, ties by name ascending, truncated to topN.
	TopDecorators []NameCount `json:"top_decorators"`
	TopImports    []NameCount `json:"top_imports"`
}

// AnalyzePatterns builds a pattern report over the element sequence.
// topN <= 0 falls back to DefaultTopN.
func AnalyzePatterns(elements []index.Element, topN int) *PatternReport {
	if topN <= 0 {
		topN = DefaultTopN
	}

	report := &PatternReport{
		TotalElements:     len(elements),
		NamingConventions: make(map[index.ElementType]string),
	}

	decorators := make(map[string]int)
	imports := make(map[string]int)

	for i := range elements {
		el := &elements[i]

		if _, seen := report.NamingConventions[el.Type]; !seen && el.Name != "" {
			report.NamingConventions[el.Type] = caseStyle(el.Name)
		}

		if strings.HasPrefix(el.Name, "handle_") {
			report.Handlers = append(report.Handlers, el.Name)
		}

		for _, d := range el.Decorators {
			decorators[d]++
		}
		for _, imp := range el.Imports {
			imports[imp]++
		}
	}

	report.TopDecorators = topCounts(decorators, topN)
	report.TopImports = topCounts(imports, topN)

	return report
}

// caseStyle classifies an identifier's case convention.
func caseStyle(name string) string {
	hasUnderscore := strings.Contains(name, "_")
	hasDash := strings.Contains(name, "-")
	hasUpper := strings.ContainsFunc(name, unicode.IsUpper)
	hasLower := strings.ContainsFunc(name, unicode.IsLower)

	switch {
	case hasDash:
		return "kebab-case"
	case hasUnderscore && hasUpper && !hasLower:
		return "UPPER_CASE"
	case hasUnderscore:
		return "snake_case"
	case hasUpper && !hasLower:
		return "UPPER_CASE"
	case hasUpper && unicode.IsUpper(rune(name[0])):
		return "PascalCase"
	case hasUpper:
		return "camelCase"
	default:
		return "lowercase"
	}
}

func topCounts(counts map[string]int, topN int) []NameCount {
	if len(counts) == 0 {
		return nil
	}

	list := make([]NameCount, 0, len(counts))
	for name, count := range counts {
		list = append(list, NameCount{Name: name, Count: count})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Name < list[j].Name
	})

	if len(list) > topN {
		list = list[:topN]
	}
	return list
}
