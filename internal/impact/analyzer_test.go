package impact

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderef-labs/coderef-go/internal/graph"
	"github.com/coderef-labs/coderef-go/internal/index"
)

func el(name string, deps ...string) index.Element {
	return index.Element{Name: name, File: name + ".py", Line: 1, Dependencies: deps}
}

// chainGraph builds a -> b -> c (a depends on b, b depends on c).
func chainGraph() *graph.DependencyGraph {
	return graph.Build([]index.Element{
		el("a", "b"),
		el("b", "c"),
		el("c"),
	})
}

func TestAnalyze_ChainBlastRadius(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(chainGraph())

	result, ok := analyzer.Analyze("c", 2, DirectionCallers)
	require.True(t, ok)

	assert.Equal(t, "c", result.Origin)
	assert.Equal(t, 2, result.AffectedCount)
	require.Len(t, result.ByDepth[1], 1)
	require.Len(t, result.ByDepth[2], 1)
	assert.Equal(t, "b", result.ByDepth[1][0].Name)
	assert.Equal(t, "a", result.ByDepth[2][0].Name)

	// Affected is sorted by depth, then name, and excludes the origin.
	names := affectedNames(result)
	assert.Equal(t, []string{"b", "a"}, names)
}

func TestAnalyze_UnknownElementIsNotFoundNotError(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(chainGraph())

	result, ok := analyzer.Analyze("missing", 3, DirectionCallers)
	assert.False(t, ok)
	assert.Nil(t, result)

	// A dangling graph node is still not an addressable element.
	danglingGraph := graph.Build([]index.Element{el("a", "ghost")})
	result, ok = NewAnalyzer(danglingGraph).Analyze("ghost", 3, DirectionCallers)
	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestAnalyze_ZeroImpactIsSuccessful(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(chainGraph())

	// a has no dependents.
	result, ok := analyzer.Analyze("a", 3, DirectionCallers)
	require.True(t, ok)
	assert.Zero(t, result.AffectedCount)
	assert.Empty(t, result.Affected)
	assert.Equal(t, RiskLow, result.RiskLevel)
}

func TestAnalyze_CycleSafety(t *testing.T) {
	t.Parallel()

	t.Run("TwoNodeCycle", func(t *testing.T) {
		t.Parallel()
		g := graph.Build([]index.Element{
			el("a", "b"),
			el("b", "a"),
		})

		result, ok := NewAnalyzer(g).Analyze("a", 10, DirectionCallers)
		require.True(t, ok)

		// b is discovered once, at depth 1; a is never revisited.
		assert.Equal(t, 1, result.AffectedCount)
		assert.Equal(t, "b", result.Affected[0].Name)
		assert.Equal(t, 1, result.Affected[0].Depth)
	})

	t.Run("SelfReference", func(t *testing.T) {
		t.Parallel()
		g := graph.Build([]index.Element{el("loop", "loop")})

		result, ok := NewAnalyzer(g).Analyze("loop", 10, DirectionCallers)
		require.True(t, ok)
		assert.Zero(t, result.AffectedCount)
	})

	t.Run("DenseCycle", func(t *testing.T) {
		t.Parallel()
		// Every node depends on every other node.
		names := []string{"n0", "n1", "n2", "n3"}
		var elements []index.Element
		for _, name := range names {
			var deps []string
			for _, other := range names {
				if other != name {
					deps = append(deps, other)
				}
			}
			elements = append(elements, el(name, deps...))
		}

		result, ok := NewAnalyzer(graph.Build(elements)).Analyze("n0", 100, DirectionCallers)
		require.True(t, ok)

		// Each node appears at most once, at depth 1.
		assert.Equal(t, 3, result.AffectedCount)
		for _, affected := range result.Affected {
			assert.Equal(t, 1, affected.Depth)
		}
	})
}

func TestAnalyze_DepthZeroMeansOriginOnly(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(chainGraph())

	for _, depth := range []int{0, -1, -5} {
		result, ok := analyzer.Analyze("c", depth, DirectionCallers)
		require.True(t, ok, "depth %d", depth)
		assert.Empty(t, result.Affected, "depth %d", depth)
		assert.Zero(t, result.AffectedCount, "depth %d", depth)
	}
}

func TestAnalyze_DepthMonotonicity(t *testing.T) {
	t.Parallel()

	// Chain of six: e5 -> e4 -> ... -> e0.
	var elements []index.Element
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("e%d", i)
		if i == 0 {
			elements = append(elements, el(name))
			continue
		}
		elements = append(elements, el(name, fmt.Sprintf("e%d", i-1)))
	}
	analyzer := NewAnalyzer(graph.Build(elements))

	var previous map[string]struct{}
	for depth := 0; depth <= 6; depth++ {
		result, ok := analyzer.Analyze("e0", depth, DirectionCallers)
		require.True(t, ok)

		current := make(map[string]struct{})
		for _, affected := range result.Affected {
			current[affected.Name] = struct{}{}
		}

		for name := range previous {
			_, stillThere := current[name]
			assert.True(t, stillThere, "depth %d lost %s", depth, name)
		}
		previous = current
	}
}

func TestAnalyze_Idempotence(t *testing.T) {
	t.Parallel()

	// A diamond with ties: both b1 and b2 depend on c.
	g := graph.Build([]index.Element{
		el("a", "b1", "b2"),
		el("b1", "c"),
		el("b2", "c"),
		el("c"),
	})
	analyzer := NewAnalyzer(g)

	first, ok := analyzer.Analyze("c", 3, DirectionCallers)
	require.True(t, ok)
	second, ok := analyzer.Analyze("c", 3, DirectionCallers)
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"b1", "b2", "a"}, affectedNames(first))
	assert.Equal(t, first.Report, second.Report)
}

func TestAnalyze_RiskThresholds(t *testing.T) {
	t.Parallel()

	hub := func(dependents int) *Result {
		elements := []index.Element{el("hub")}
		for i := 0; i < dependents; i++ {
			elements = append(elements, el(fmt.Sprintf("caller%02d", i), "hub"))
		}
		result, ok := NewAnalyzer(graph.Build(elements)).Analyze("hub", 1, DirectionCallers)
		require.True(t, ok)
		return result
	}

	assert.Equal(t, RiskLow, hub(2).RiskLevel)
	assert.Equal(t, RiskMedium, hub(3).RiskLevel)
	assert.Equal(t, RiskMedium, hub(9).RiskLevel)
	assert.Equal(t, RiskHigh, hub(10).RiskLevel)
}

func TestAnalyze_CalleesDirection(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(chainGraph())

	result, ok := analyzer.Analyze("a", 2, DirectionCallees)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c"}, affectedNames(result))
	assert.Equal(t, DirectionCallees, result.Direction)
}

func TestAnalyze_DefaultsDirectionToCallers(t *testing.T) {
	t.Parallel()

	analyzer := NewAnalyzer(chainGraph())

	result, ok := analyzer.Analyze("c", 1, "")
	require.True(t, ok)
	assert.Equal(t, DirectionCallers, result.Direction)
	assert.Equal(t, []string{"b"}, affectedNames(result))
}

func affectedNames(r *Result) []string {
	names := make([]string, 0, len(r.Affected))
	for _, a := range r.Affected {
		names = append(names, a.Name)
	}
	return names
}
