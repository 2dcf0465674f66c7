// Package git provides repository discovery and metadata helpers used to
// build the prompt context: repo root and name, current branch, author
// identity, and base-ref resolution.
package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gitai/cli/internal/erruser"
)

// ErrBaseNotFound indicates the requested base branch resolves neither
// locally nor as origin/<base>.
var ErrBaseNotFound = erruser.New("Base branch not found (checked local and origin).", nil)

// RepoRoot returns the absolute path of the git repository root containing dir.
// Runs "git rev-parse --show-toplevel" with Dir=dir. Returns error if dir is
// not inside a git repository.
func RepoRoot(ctx context.Context, dir string) (string, error) {
	out, err := runGit(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", erruser.New("This directory is not inside a Git repository.", err)
	}
	return filepath.Abs(strings.TrimSpace(out))
}

// RepoName returns the repository name: the base name of the repo root.
func RepoName(repoRoot string) string {
	return filepath.Base(filepath.Clean(repoRoot))
}

// CurrentBranch returns the current branch name from
// "git rev-parse --abbrev-ref HEAD" ("HEAD" when detached).
func CurrentBranch(ctx context.Context, repoRoot string) (string, error) {
	out, err := runGit(ctx, repoRoot, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", erruser.New("Could not read current branch.", err)
	}
	return strings.TrimSpace(out), nil
}

// Identity is the configured commit author.
type Identity struct {
	Name  string
	Email string
}

// UserIdentity reads user.name and user.email from git config. Unset values
// come back empty; that is not an error (the prompt simply omits them).
func UserIdentity(ctx context.Context, repoRoot string) Identity {
	var id Identity
	if out, err := runGit(ctx, repoRoot, "config", "user.name"); err == nil {
		id.Name = strings.TrimSpace(out)
	}
	if out, err := runGit(ctx, repoRoot, "config", "user.email"); err == nil {
		id.Email = strings.TrimSpace(out)
	}
	return id
}

// ResolveBase resolves a base branch name to a diffable ref. It tries the
// local branch first, then origin/<base>. Returns ErrBaseNotFound when
// neither exists.
func ResolveBase(ctx context.Context, repoRoot, base string) (string, error) {
	if base == "" {
		return "", ErrBaseNotFound
	}
	if _, err := runGit(ctx, repoRoot, "rev-parse", "--verify", "--quiet", "refs/heads/"+base); err == nil {
		return base, nil
	}
	remote := "origin/" + base
	if _, err := runGit(ctx, repoRoot, "rev-parse", "--verify", "--quiet", "refs/remotes/"+remote); err == nil {
		return remote, nil
	}
	return "", ErrBaseNotFound
}

// Commit records a commit with the given message via "git commit -m".
// Returns the git output (trimmed) for display.
func Commit(ctx context.Context, repoRoot, message string) (string, error) {
	out, err := runGit(ctx, repoRoot, "commit", "-m", message)
	if err != nil {
		return "", erruser.New("git commit failed.", err)
	}
	return strings.TrimSpace(out), nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	return string(out), err
}

// minimalEnv keeps git non-interactive and independent of the caller's
// environment beyond PATH and HOME (HOME is needed for global git config).
func minimalEnv() []string {
	return []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + os.Getenv("HOME"),
		"GIT_TERMINAL_PROMPT=0",
	}
}
