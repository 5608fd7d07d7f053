// Package gitops records project snapshots in a git repository.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrNothingToCommit is returned by Commit when the staged tree is unchanged.
var ErrNothingToCommit = errors.New("nothing to commit")

// Author identifies the committer of a snapshot.
type Author struct {
	Name  string
	Email string
}

// DefaultAuthor signs commits made by the CLI.
var DefaultAuthor = Author{Name: "ledgerport", Email: "ledgerport@localhost"}

func (a Author) env() []string {
	return []string{
		"GIT_AUTHOR_NAME=" + a.Name,
		"GIT_AUTHOR_EMAIL=" + a.Email,
		"GIT_COMMITTER_NAME=" + a.Name,
		"GIT_COMMITTER_EMAIL=" + a.Email,
	}
}

func git(ctx context.Context, dir string, args ...string) (string, error) {
	return gitEnv(ctx, dir, nil, args...)
}

func gitEnv(ctx context.Context, dir string, env []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Init initializes a new git repository at dir.
func Init(ctx context.Context, dir string) error {
	_, err := git(ctx, dir, "init", "--quiet")
	return err
}

// IsRepo reports whether dir is inside a git work tree.
func IsRepo(ctx context.Context, dir string) bool {
	out, err := git(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Commit stages paths, or the whole tree when none are given, and commits
// them as author. Changes staged elsewhere in the index are left out of a
// path-limited commit. It returns the short hash of the new commit.
func Commit(ctx context.Context, dir, message string, author Author, paths ...string) (string, error) {
	var pathspec []string
	if len(paths) > 0 {
		pathspec = append([]string{"--"}, paths...)
	}
	if _, err := git(ctx, dir, append([]string{"add", "--all"}, pathspec...)...); err != nil {
		return "", err
	}

	// Exit status 1 means the index differs from HEAD.
	diff := exec.CommandContext(ctx, "git", append([]string{"diff", "--cached", "--quiet"}, pathspec...)...)
	diff.Dir = dir
	err := diff.Run()
	if err == nil {
		return "", ErrNothingToCommit
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		return "", fmt.Errorf("git diff: %w", err)
	}

	commit := append([]string{"commit", "--quiet", "-m", message}, pathspec...)
	if _, err := gitEnv(ctx, dir, author.env(), commit...); err != nil {
		return "", err
	}
	return git(ctx, dir, "rev-parse", "--short", "HEAD")
}
