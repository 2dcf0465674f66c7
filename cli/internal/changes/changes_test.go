package changes

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run(t, dir, "git", "init", "-b", "main")
	run(t, dir, "git", "config", "user.email", "test@gitai.local")
	run(t, dir, "git", "config", "user.name", "Test")
	writeFile(t, dir, "f1.txt", "one\n")
	run(t, dir, "git", "add", "f1.txt")
	run(t, dir, "git", "commit", "-m", "c1")
	return dir
}

func run(t *testing.T, dir, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %v: %v\n%s", name, args, err, out)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestStaged_nothingStaged(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	_, err := Staged(context.Background(), repo)
	if !errors.Is(err, ErrNoChanges) {
		t.Errorf("Staged on clean index: err = %v, want ErrNoChanges", err)
	}
}

func TestStaged_addedFile(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	writeFile(t, repo, "new.go", "package main\n\nfunc main() {}\n")
	run(t, repo, "git", "add", "new.go")
	cs, err := Staged(context.Background(), repo)
	if err != nil {
		t.Fatalf("Staged: %v", err)
	}
	if len(cs.Files) != 1 {
		t.Fatalf("got %d files, want 1", len(cs.Files))
	}
	f := cs.Files[0]
	if f.Path != "new.go" || f.Status != StatusAdded {
		t.Errorf("file = %+v, want added new.go", f)
	}
	if f.LinesAdded == 0 {
		t.Error("LinesAdded should be > 0 for a new file")
	}
	if !strings.Contains(cs.Diff, "+func main() {}") {
		t.Errorf("diff body missing added line:\n%s", cs.Diff)
	}
	if cs.Truncated {
		t.Error("fresh change-set must not be marked truncated")
	}
	if cs.TotalLines != CountLines(cs.Diff) {
		t.Errorf("TotalLines = %d, want %d", cs.TotalLines, CountLines(cs.Diff))
	}
}

func TestBranchDiff_changesAgainstBase(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	run(t, repo, "git", "checkout", "-b", "feature")
	writeFile(t, repo, "f2.txt", "two\n")
	run(t, repo, "git", "add", "f2.txt")
	run(t, repo, "git", "commit", "-m", "c2")
	cs, err := BranchDiff(context.Background(), repo, "main")
	if err != nil {
		t.Fatalf("BranchDiff: %v", err)
	}
	if len(cs.Files) != 1 || cs.Files[0].Path != "f2.txt" || cs.Files[0].Status != StatusAdded {
		t.Errorf("files = %+v, want one added f2.txt", cs.Files)
	}
}

func TestBranchDiff_noChanges(t *testing.T) {
	t.Parallel()
	repo := initRepo(t)
	run(t, repo, "git", "checkout", "-b", "feature")
	_, err := BranchDiff(context.Background(), repo, "main")
	if !errors.Is(err, ErrNoChanges) {
		t.Errorf("BranchDiff with no commits ahead: err = %v, want ErrNoChanges", err)
	}
}

func TestTruncate_boundaryExact(t *testing.T) {
	t.Parallel()
	cs := &ChangeSet{Diff: "l1\nl2\nl3\n", TotalLines: 3}
	got := Truncate(cs, 3)
	if got.Truncated {
		t.Error("diff with exactly maxLines lines must not be truncated")
	}
	if got.Diff != cs.Diff {
		t.Errorf("diff changed: %q", got.Diff)
	}
}

func TestTruncate_overByOne(t *testing.T) {
	t.Parallel()
	cs := &ChangeSet{Diff: "l1\nl2\nl3\nl4", TotalLines: 4}
	got := Truncate(cs, 3)
	if !got.Truncated {
		t.Fatal("maxLines+1 lines must be truncated")
	}
	if got.Diff != "l1\nl2\nl3" {
		t.Errorf("truncated diff = %q, want first 3 lines", got.Diff)
	}
	if got.TotalLines != 4 {
		t.Errorf("TotalLines = %d, want original 4", got.TotalLines)
	}
	if cs.Truncated {
		t.Error("Truncate must not mutate its input")
	}
}

func TestTruncate_zeroCapMeansUnlimited(t *testing.T) {
	t.Parallel()
	cs := &ChangeSet{Diff: "l1\nl2", TotalLines: 2}
	if got := Truncate(cs, 0); got.Truncated {
		t.Error("maxLines 0 should disable truncation")
	}
}

func TestCountLines(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\nb\n", 2},
	}
	for _, tt := range tests {
		if got := CountLines(tt.in); got != tt.want {
			t.Errorf("CountLines(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
