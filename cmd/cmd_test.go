package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderef-labs/coderef-go/internal/index"
)

// writeTestIndex writes an index document into a temp directory and returns
// the index path.
func writeTestIndex(t *testing.T, elements []index.Element) string {
	t.Helper()

	dir := t.TempDir()
	indexDir := filepath.Join(dir, ".coderef")
	require.NoError(t, os.MkdirAll(indexDir, 0o755))

	data, err := json.Marshal(elements)
	require.NoError(t, err)

	path := filepath.Join(indexDir, "index.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testElements() []index.Element {
	return []index.Element{
		{Name: "save_user", File: "db.py", Line: 10, EndLine: 80, Type: index.TypeFunction,
			Parameters: []index.Parameter{{Name: "user"}, {Name: "db"}}},
		{Name: "signup", File: "api.py", Line: 5, Type: index.TypeFunction,
			Dependencies: []string{"save_user"}, Tags: []string{"auth"}},
	}
}

func TestImpactCmd(t *testing.T) {
	path := writeTestIndex(t, testElements())

	cmd := &ImpactCmd{
		indexFlag: indexFlag{Index: path},
		Element:   "save_user",
		Depth:     3,
		Direction: "callers",
	}
	require.NoError(t, cmd.Run())

	// An unknown element is reported, not an error.
	cmd.Element = "ghost"
	require.NoError(t, cmd.Run())

	cmd.Element = ""
	assert.Error(t, cmd.Run())
}

func TestImpactCmd_MissingIndex(t *testing.T) {
	cmd := &ImpactCmd{
		indexFlag: indexFlag{Index: filepath.Join(t.TempDir(), "absent.json")},
		Element:   "anything",
		Depth:     3,
		Direction: "callers",
	}
	err := cmd.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Run the coderef scanner first")
}

func TestComplexityCmd(t *testing.T) {
	path := writeTestIndex(t, testElements())

	single := &ComplexityCmd{indexFlag: indexFlag{Index: path}, Elements: []string{"save_user"}}
	require.NoError(t, single.Run())

	task := &ComplexityCmd{indexFlag: indexFlag{Index: path}, Elements: []string{"save_user", "signup", "ghost"}}
	require.NoError(t, task.Run())

	empty := &ComplexityCmd{indexFlag: indexFlag{Index: path}}
	assert.Error(t, empty.Run())
}

func TestHotspotsCmd(t *testing.T) {
	path := writeTestIndex(t, testElements())

	cmd := &HotspotsCmd{indexFlag: indexFlag{Index: path}, Limit: 20}
	require.NoError(t, cmd.Run())
}

func TestPatternsCmd(t *testing.T) {
	path := writeTestIndex(t, testElements())

	cmd := &PatternsCmd{indexFlag: indexFlag{Index: path}, Top: 10}
	require.NoError(t, cmd.Run())
}

func TestCoverageCmd(t *testing.T) {
	path := writeTestIndex(t, testElements())

	cmd := &CoverageCmd{indexFlag: indexFlag{Index: path}, ShowUntagged: true}
	require.NoError(t, cmd.Run())
}

func TestSyncCmd_PopulatesStore(t *testing.T) {
	path := writeTestIndex(t, testElements())
	flags := indexFlag{Index: path}

	sync := &SyncCmd{indexFlag: flags}
	require.NoError(t, sync.Run())

	// The store now satisfies reads without reparsing the JSON document.
	info, err := os.Stat(path)
	require.NoError(t, err)

	elements, ok := flags.loadFromStore(info)
	require.True(t, ok)
	require.Len(t, elements, 2)
	assert.Equal(t, "save_user", elements[0].Name)
}

func TestSyncCmd_MissingIndex(t *testing.T) {
	sync := &SyncCmd{indexFlag: indexFlag{Index: filepath.Join(t.TempDir(), "absent.json")}}
	assert.Error(t, sync.Run())
}

func TestLoadElements_StaleStoreFallsBackToIndex(t *testing.T) {
	path := writeTestIndex(t, testElements())
	flags := indexFlag{Index: path}

	require.NoError(t, (&SyncCmd{indexFlag: flags}).Run())

	// Rewriting the index invalidates the snapshot via size mismatch.
	updated := append(testElements(), index.Element{Name: "extra", File: "new.py", Line: 1})
	data, err := json.Marshal(updated)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	elements, err := flags.loadElements()
	require.NoError(t, err)
	assert.Len(t, elements, 3)
}

func TestStatusCmd(t *testing.T) {
	path := writeTestIndex(t, testElements())
	flags := indexFlag{Index: path}

	// Without a store.
	require.NoError(t, (&StatusCmd{indexFlag: flags}).Run())

	// With a fresh store.
	require.NoError(t, (&SyncCmd{indexFlag: flags}).Run())
	require.NoError(t, (&StatusCmd{indexFlag: flags}).Run())
}

func TestCleanCmd(t *testing.T) {
	path := writeTestIndex(t, testElements())
	flags := indexFlag{Index: path}

	// Nothing to clean yet.
	clean := &CleanCmd{indexFlag: flags, Force: true}
	assert.Error(t, clean.Run())

	require.NoError(t, (&SyncCmd{indexFlag: flags}).Run())
	require.NoError(t, clean.Run())

	_, err := os.Stat(flags.storePath())
	assert.True(t, os.IsNotExist(err))
}

func TestStorePath(t *testing.T) {
	t.Parallel()

	flags := indexFlag{Index: filepath.Join("project", ".coderef", "index.json")}
	assert.Equal(t, filepath.Join("project", ".coderef", "badger"), flags.storePath())
}

func TestNewCLI(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, NewCLI())
}
