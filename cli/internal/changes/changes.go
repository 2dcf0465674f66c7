// Package changes produces the ChangeSet to summarize: the list of changed
// files with per-file line counts, plus the raw unified diff, for either the
// staged index or the current branch against a base ref.
//
// # Truncation
// The diff body may be head-truncated to a line cap before prompting; the
// file-status list always reflects the full change-set so downstream stages
// see accurate counts even when the diff body is cut.
//
// # Binary files
// Binary files appear in the file list (git numstat reports "-" counts,
// recorded as 0/0) but contribute no diff content.
package changes

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"gitai/cli/internal/erruser"
)

// Status is the change kind for one file.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusDeleted  Status = "deleted"
	StatusRenamed  Status = "renamed"
)

// FileEntry is one changed file with line counts from git numstat.
type FileEntry struct {
	Path         string
	Status       Status
	LinesAdded   int
	LinesDeleted int
}

// ChangeSet is the immutable input to the generation pipeline. TotalLines is
// the diff line count before truncation; Truncated reports whether Diff was
// cut to a line cap.
type ChangeSet struct {
	Files      []FileEntry
	Diff       string
	Truncated  bool
	TotalLines int
}

// ErrNoChanges indicates an empty change-set (nothing staged, or no commits
// ahead of the base branch).
var ErrNoChanges = erruser.New("No changes found.", nil)

// Staged returns the change-set for the staged index (git diff --cached).
// Returns ErrNoChanges when nothing is staged.
func Staged(ctx context.Context, repoRoot string) (*ChangeSet, error) {
	return extract(ctx, repoRoot, []string{"--cached"})
}

// BranchDiff returns the change-set between baseRef and HEAD using the
// triple-dot form (changes on this branch since it diverged from base).
// baseRef must already be resolved (see git.ResolveBase). Returns
// ErrNoChanges when the branch has no changes against the base.
func BranchDiff(ctx context.Context, repoRoot, baseRef string) (*ChangeSet, error) {
	return extract(ctx, repoRoot, []string{baseRef + "...HEAD"})
}

func extract(ctx context.Context, repoRoot string, target []string) (*ChangeSet, error) {
	if repoRoot == "" {
		return nil, fmt.Errorf("changes: repoRoot required")
	}
	nameStatus, err := runGitDiff(ctx, repoRoot, target, "--name-status")
	if err != nil {
		return nil, err
	}
	numstat, err := runGitDiff(ctx, repoRoot, target, "--numstat")
	if err != nil {
		return nil, err
	}
	files := mergeFileEntries(parseNameStatus(nameStatus), parseNumstat(numstat))
	if len(files) == 0 {
		return nil, ErrNoChanges
	}
	body, err := runGitDiff(ctx, repoRoot, target)
	if err != nil {
		return nil, err
	}
	return &ChangeSet{
		Files:      files,
		Diff:       body,
		TotalLines: CountLines(body),
	}, nil
}

// Truncate returns cs unchanged when the diff fits within maxLines
// (maxLines <= 0 means no cap). Otherwise it returns a copy whose Diff keeps
// only the first maxLines lines, with Truncated set. The cut is a hard head
// truncation and may land mid-hunk; TotalLines still reports the full count.
func Truncate(cs *ChangeSet, maxLines int) *ChangeSet {
	if cs == nil || maxLines <= 0 || cs.TotalLines <= maxLines {
		return cs
	}
	lines := strings.SplitN(cs.Diff, "\n", maxLines+1)
	out := *cs
	out.Diff = strings.Join(lines[:maxLines], "\n")
	out.Truncated = true
	return &out
}

// CountLines counts newline-delimited lines; a trailing newline does not
// start a new line. Empty string is 0 lines.
func CountLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func runGitDiff(ctx context.Context, repoRoot string, target []string, extra ...string) (string, error) {
	args := append([]string{"diff", "--no-color", "--no-ext-diff"}, extra...)
	args = append(args, target...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoRoot
	cmd.Env = minimalEnv()
	out, err := cmd.Output()
	if err != nil {
		return "", erruser.New("git diff failed.", fmt.Errorf("git %s: %w", strings.Join(args, " "), err))
	}
	return string(out), nil
}

func minimalEnv() []string {
	return []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + os.Getenv("HOME"),
		"GIT_TERMINAL_PROMPT=0",
	}
}
