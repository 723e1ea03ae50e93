// Package vcs derives the changed file set from the repository's git
// worktree, feeding change-set impact analysis.
package vcs

import (
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
)

// ChangedFiles returns the paths (relative to the repository root) of files
// that are modified, added, or deleted in the worktree or staging area.
func ChangedFiles(repoPath string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", repoPath, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("accessing worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("reading worktree status: %w", err)
	}

	// Untracked files count as changes too; the scanner may already have
	// indexed them.
	var files []string
	for path, st := range status {
		if st.Worktree == git.Unmodified && st.Staging == git.Unmodified {
			continue
		}
		files = append(files, path)
	}

	sort.Strings(files)
	return files, nil
}
