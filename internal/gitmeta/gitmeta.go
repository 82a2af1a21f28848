// Package gitmeta discovers the project root and the current git branch and
// commit by reading .git directly. Task metadata should never require a git
// binary on PATH.
package gitmeta

import (
	"os"
	"path/filepath"
	"strings"

	mcerrors "missionctl/internal/errors"
)

// Info is the git state recorded into task metadata. Both fields are empty
// when the repository has no commits yet.
type Info struct {
	Branch     string
	CommitHash string
}

// FindProjectRoot walks up from cwd looking for a .git directory.
// Returns the directory containing .git, or error if not found.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindProjectRootFrom(cwd)
}

// FindProjectRootFrom walks up from dir looking for a .git directory.
func FindProjectRootFrom(dir string) (string, error) {
	for {
		gitPath := filepath.Join(dir, ".git")
		info, err := os.Stat(gitPath)
		if err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", mcerrors.NotInRepoError{}
		}
		dir = parent
	}
}

// Describe reads the branch and commit hash for the repository at root.
// A missing or unborn HEAD degrades to zero values: task creation must not
// fail because the repo has no commits.
func Describe(root string) Info {
	head, err := os.ReadFile(filepath.Join(root, ".git", "HEAD"))
	if err != nil {
		return Info{}
	}

	content := strings.TrimSpace(string(head))

	// Detached HEAD: the file holds the hash itself.
	if !strings.HasPrefix(content, "ref: ") {
		return Info{CommitHash: content}
	}

	ref := strings.TrimPrefix(content, "ref: ")
	info := Info{Branch: strings.TrimPrefix(ref, "refs/heads/")}
	info.CommitHash = resolveRef(root, ref)
	return info
}

// resolveRef resolves a symbolic ref to a hash via the loose ref file,
// falling back to packed-refs.
func resolveRef(root, ref string) string {
	loose, err := os.ReadFile(filepath.Join(root, ".git", filepath.FromSlash(ref)))
	if err == nil {
		return strings.TrimSpace(string(loose))
	}

	packed, err := os.ReadFile(filepath.Join(root, ".git", "packed-refs"))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(packed), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "^") {
			continue
		}
		hash, name, ok := strings.Cut(line, " ")
		if ok && name == ref {
			return hash
		}
	}
	return ""
}
