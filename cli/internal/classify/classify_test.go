package classify

import (
	"strings"
	"testing"

	"gitai/cli/internal/artifact"
	"gitai/cli/internal/changes"
	"gitai/cli/internal/extract"
)

func set(files []changes.FileEntry, diff string) *changes.ChangeSet {
	return &changes.ChangeSet{Files: files, Diff: diff}
}

func TestClassify_codeWithDefinitionsAllAdded(t *testing.T) {
	t.Parallel()
	cs := set([]changes.FileEntry{
		{Path: "app/auth.py", Status: changes.StatusAdded},
		{Path: "app/session.py", Status: changes.StatusAdded},
		{Path: "README.md", Status: changes.StatusAdded},
	}, "+++ b/app/auth.py\n+def login(user):\n+    return token\n")
	art := Classify(cs)
	if art.Text != "feat: add new functionality" {
		t.Errorf("Text = %q, want %q", art.Text, "feat: add new functionality")
	}
	if art.Provenance != artifact.HeuristicFallback {
		t.Errorf("Provenance = %q", art.Provenance)
	}
}

func TestClassify_docsOnly(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status changes.Status
		want   string
	}{
		{"all added", changes.StatusAdded, "docs: add documentation"},
		{"all deleted", changes.StatusDeleted, "docs: remove documentation"},
		{"modified", changes.StatusModified, "docs: update documentation"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cs := set([]changes.FileEntry{
				{Path: "docs/guide.md", Status: tt.status},
				{Path: "NOTES.txt", Status: tt.status},
			}, "")
			if got := Classify(cs).Text; got != tt.want {
				t.Errorf("Text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_mixedStatusesKeepUpdateVerb(t *testing.T) {
	t.Parallel()
	cs := set([]changes.FileEntry{
		{Path: "docs/a.md", Status: changes.StatusAdded},
		{Path: "docs/b.md", Status: changes.StatusDeleted},
	}, "")
	if got := Classify(cs).Text; got != "docs: update documentation" {
		t.Errorf("Text = %q", got)
	}
}

func TestClassify_testTokensWinOverDefinitions(t *testing.T) {
	t.Parallel()
	cs := set([]changes.FileEntry{
		{Path: "pkg/parse_test.go", Status: changes.StatusModified},
	}, "+func TestParse(t *testing.T) {\n")
	if got := Classify(cs).Text; got != "test: update tests" {
		t.Errorf("Text = %q", got)
	}
}

func TestClassify_codeWithoutKeywordsIsFix(t *testing.T) {
	t.Parallel()
	cs := set([]changes.FileEntry{
		{Path: "pkg/parse.go", Status: changes.StatusModified},
	}, "+	return nil\n-	return err\n")
	if got := Classify(cs).Text; got != "fix: update source code" {
		t.Errorf("Text = %q", got)
	}
}

func TestClassify_removedLinesDoNotTriggerKeywords(t *testing.T) {
	t.Parallel()
	// The definition token appears only on a removed line.
	cs := set([]changes.FileEntry{
		{Path: "pkg/old.go", Status: changes.StatusModified},
	}, "-func obsolete() {}\n+	// gone\n")
	if got := Classify(cs).Text; got != "fix: update source code" {
		t.Errorf("Text = %q", got)
	}
}

func TestClassify_scripts(t *testing.T) {
	t.Parallel()
	added := set([]changes.FileEntry{
		{Path: "scripts/deploy.sh", Status: changes.StatusAdded},
	}, "")
	if got := Classify(added).Text; got != "feat: add new scripts" {
		t.Errorf("added script Text = %q", got)
	}
	modified := set([]changes.FileEntry{
		{Path: "scripts/deploy.sh", Status: changes.StatusModified},
	}, "")
	if got := Classify(modified).Text; got != "fix: update scripts" {
		t.Errorf("modified script Text = %q", got)
	}
}

func TestClassify_stylesAndConfig(t *testing.T) {
	t.Parallel()
	styles := set([]changes.FileEntry{
		{Path: "web/site.css", Status: changes.StatusModified},
	}, "")
	if got := Classify(styles).Text; got != "style: update styles" {
		t.Errorf("styles Text = %q", got)
	}
	conf := set([]changes.FileEntry{
		{Path: ".golangci.yml", Status: changes.StatusModified},
	}, "")
	if got := Classify(conf).Text; got != "chore: update configuration" {
		t.Errorf("config Text = %q", got)
	}
}

func TestClassify_unrecognizedFallsThroughToChore(t *testing.T) {
	t.Parallel()
	cs := set([]changes.FileEntry{
		{Path: "assets/logo.png", Status: changes.StatusModified},
	}, "")
	if got := Classify(cs).Text; got != "chore: update project files" {
		t.Errorf("Text = %q", got)
	}
}

func TestClassify_emptyChangeSetStillProducesMessage(t *testing.T) {
	t.Parallel()
	art := Classify(&changes.ChangeSet{})
	if art.Text != "chore: update project files" {
		t.Errorf("Text = %q", art.Text)
	}
}

func TestClassify_outputAlwaysWithinSubjectCap(t *testing.T) {
	t.Parallel()
	cs := set([]changes.FileEntry{
		{Path: strings.Repeat("deep/", 40) + "main.go", Status: changes.StatusAdded},
	}, "+func main() {}\n")
	art := Classify(cs)
	if len(art.Text) > extract.MaxSubjectLen {
		t.Errorf("len = %d, want <= %d", len(art.Text), extract.MaxSubjectLen)
	}
	if art.Text == "" {
		t.Error("classifier must never produce an empty message")
	}
}

func TestClassify_caseInsensitiveExtensions(t *testing.T) {
	t.Parallel()
	cs := set([]changes.FileEntry{
		{Path: "README.MD", Status: changes.StatusModified},
	}, "")
	if got := Classify(cs).Text; got != "docs: update documentation" {
		t.Errorf("Text = %q", got)
	}
}
