// Package graph builds the dependency graph over the scanned element index.
//
// Nodes are element names; a directed edge A → B means "A depends on B"
// (A calls or imports B). The graph also exposes the inverse view ("who
// depends on me"), which is what impact analysis traverses. Graphs are
// cheap, ephemeral structures rebuilt from the index on every analysis
// call and immutable once built, so no locking is required.
package graph

import (
	"sort"

	"github.com/coderef-labs/coderef-go/internal/index"
)

// DependencyGraph is a directed graph of "depends on" relationships among
// elements, derived from the scanner's call/import data.
type DependencyGraph struct {
	// elements maps a name to its element. When several elements share a
	// name, the first occurrence in index order wins; later duplicates are
	// not addressable through the graph. This keeps traversal deterministic
	// across runs.
	elements map[string]*index.Element

	// order preserves first-occurrence order of element names.
	order []string

	// forward: name → names it depends on. Sourced from Dependencies.
	forward map[string]map[string]struct{}

	// reverse: name → names that depend on it. Sourced from CalledBy where
	// present, merged with the computed inverse of Dependencies so the
	// graph works on scanners that populate only one direction.
	reverse map[string]map[string]struct{}

	nodes map[string]struct{}
}

// Build constructs a dependency graph from a normalized element sequence.
//
// Dependency names with no matching element are kept as nodes with no
// outgoing edges; dangling references are not errors.
func Build(elements []index.Element) *DependencyGraph {
	g := &DependencyGraph{
		elements: make(map[string]*index.Element, len(elements)),
		forward:  make(map[string]map[string]struct{}),
		reverse:  make(map[string]map[string]struct{}),
		nodes:    make(map[string]struct{}, len(elements)),
	}

	for i := range elements {
		el := &elements[i]
		if el.Name == "" {
			continue
		}
		if _, seen := g.elements[el.Name]; !seen {
			g.elements[el.Name] = el
			g.order = append(g.order, el.Name)
		}
		g.addNode(el.Name)
	}

	// Edges come from the first occurrence only, matching element lookup.
	for _, name := range g.order {
		el := g.elements[name]
		for _, dep := range el.Dependencies {
			// Self-references are legal edges; traversal handles the cycle.
			g.addEdge(name, dep)
		}
		for _, caller := range el.CalledBy {
			if caller == "" {
				continue
			}
			g.addNode(caller)
			g.reverseAdd(name, caller)
		}
	}

	return g
}

func (g *DependencyGraph) addNode(name string) {
	if name == "" {
		return
	}
	g.nodes[name] = struct{}{}
}

func (g *DependencyGraph) addEdge(from, to string) {
	if to == "" {
		return
	}
	g.addNode(to)
	if g.forward[from] == nil {
		g.forward[from] = make(map[string]struct{})
	}
	g.forward[from][to] = struct{}{}
	g.reverseAdd(to, from)
}

func (g *DependencyGraph) reverseAdd(name, dependent string) {
	if g.reverse[name] == nil {
		g.reverse[name] = make(map[string]struct{})
	}
	g.reverse[name][dependent] = struct{}{}
}

// Element returns the element addressed by name (first occurrence in index
// order), or nil, false when the name is absent from the index.
func (g *DependencyGraph) Element(name string) (*index.Element, bool) {
	el, ok := g.elements[name]
	return el, ok
}

// HasNode reports whether name appears in the graph at all, including as a
// dangling dependency reference.
func (g *DependencyGraph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Dependencies returns the names name depends on, sorted.
func (g *DependencyGraph) Dependencies(name string) []string {
	return sortedKeys(g.forward[name])
}

// Dependents returns the names that depend on name, sorted.
func (g *DependencyGraph) Dependents(name string) []string {
	return sortedKeys(g.reverse[name])
}

// Names returns element names in first-occurrence index order.
func (g *DependencyGraph) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// NodeCount returns the number of graph nodes, dangling references included.
func (g *DependencyGraph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct forward edges.
func (g *DependencyGraph) EdgeCount() int {
	count := 0
	for _, targets := range g.forward {
		count += len(targets)
	}
	return count
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
