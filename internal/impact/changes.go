package impact

import (
	"sort"

	"github.com/coderef-labs/coderef-go/internal/index"
)

// ChangeReport summarizes the elements touched by a set of changed files
// and the elements directly affected by those changes.
type ChangeReport struct {
	Files []string `json:"files"`

	// Changed lists elements defined in the changed files, in index order.
	Changed []AffectedElement `json:"changed"`

	// Affected lists the union of direct dependents of the changed
	// elements, de-duplicated and excluding the changed elements
	// themselves, sorted by name.
	Affected []AffectedElement `json:"affected"`

	RiskLevel RiskLevel `json:"risk_level"`
}

// AnalyzeChanges maps changed file paths to their elements and collects the
// direct blast radius of the change set. Files with no indexed elements
// contribute nothing; they are not errors.
func (a *Analyzer) AnalyzeChanges(elements []index.Element, files []string) *ChangeReport {
	report := &ChangeReport{Files: files}

	fileSet := make(map[string]struct{}, len(files))
	for _, f := range files {
		fileSet[f] = struct{}{}
	}

	changed := make(map[string]struct{})
	for i := range elements {
		el := &elements[i]
		if _, ok := fileSet[el.File]; !ok {
			continue
		}
		if _, seen := changed[el.Name]; seen {
			continue
		}
		changed[el.Name] = struct{}{}
		report.Changed = append(report.Changed, AffectedElement{
			Name: el.Name,
			File: el.File,
			Line: el.Line,
		})
	}

	affected := make(map[string]struct{})
	for name := range changed {
		for _, dependent := range a.graph.Dependents(name) {
			if _, isChanged := changed[dependent]; isChanged {
				continue
			}
			if _, seen := affected[dependent]; seen {
				continue
			}
			affected[dependent] = struct{}{}
			report.Affected = append(report.Affected, a.describe(dependent, 1))
		}
	}
	sort.Slice(report.Affected, func(i, j int) bool {
		return report.Affected[i].Name < report.Affected[j].Name
	})

	report.RiskLevel = riskForCount(len(report.Affected))
	return report
}
