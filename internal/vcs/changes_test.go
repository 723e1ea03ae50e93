package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, *git.Worktree) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	worktree, err := repo.Worktree()
	require.NoError(t, err)
	return dir, worktree
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func commitAll(t *testing.T, worktree *git.Worktree, message string) {
	t.Helper()

	require.NoError(t, worktree.AddGlob("."))
	_, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestChangedFiles_CleanWorktree(t *testing.T) {
	t.Parallel()

	dir, worktree := initRepo(t)
	writeFile(t, dir, "db.py", "def save_user(): pass\n")
	commitAll(t, worktree, "initial")

	files, err := ChangedFiles(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestChangedFiles_ModifiedAndUntracked(t *testing.T) {
	t.Parallel()

	dir, worktree := initRepo(t)
	writeFile(t, dir, "db.py", "def save_user(): pass\n")
	writeFile(t, dir, "api.py", "def signup(): pass\n")
	commitAll(t, worktree, "initial")

	writeFile(t, dir, "db.py", "def save_user(): return None\n")
	writeFile(t, dir, "new_module.py", "def fresh(): pass\n")

	files, err := ChangedFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"db.py", "new_module.py"}, files)
}

func TestChangedFiles_StagedChangeIsReported(t *testing.T) {
	t.Parallel()

	dir, worktree := initRepo(t)
	writeFile(t, dir, "db.py", "def save_user(): pass\n")
	commitAll(t, worktree, "initial")

	writeFile(t, dir, "db.py", "def save_user(): return None\n")
	_, err := worktree.Add("db.py")
	require.NoError(t, err)

	files, err := ChangedFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"db.py"}, files)
}

func TestChangedFiles_DetectsDotGitFromSubdirectory(t *testing.T) {
	t.Parallel()

	dir, worktree := initRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o755))
	writeFile(t, dir, filepath.Join("pkg", "util.py"), "def helper(): pass\n")
	commitAll(t, worktree, "initial")

	writeFile(t, dir, filepath.Join("pkg", "util.py"), "def helper(): return 1\n")

	files, err := ChangedFiles(filepath.Join(dir, "pkg"))
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/util.py"}, files)
}

func TestChangedFiles_NotARepository(t *testing.T) {
	t.Parallel()

	_, err := ChangedFiles(t.TempDir())
	assert.Error(t, err)
}
