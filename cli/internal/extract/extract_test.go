package extract

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"gitai/cli/internal/artifact"
)

func TestCommitMessage_picksConventionalLineOverPreamble(t *testing.T) {
	t.Parallel()
	raw := "This adds auth.\nfeat(auth): add OAuth2 login"
	art, err := CommitMessage(raw)
	if err != nil {
		t.Fatalf("CommitMessage: %v", err)
	}
	if art.Text != "feat(auth): add OAuth2 login" {
		t.Errorf("Text = %q, want the conventional line", art.Text)
	}
	if art.Provenance != artifact.ModelGenerated {
		t.Errorf("Provenance = %q", art.Provenance)
	}
}

func TestCommitMessage_fallsBackToFirstNonBlank(t *testing.T) {
	t.Parallel()
	art, err := CommitMessage("\n\nAdd login support to the CLI\nmore detail\n")
	if err != nil {
		t.Fatalf("CommitMessage: %v", err)
	}
	if art.Text != "Add login support to the CLI" {
		t.Errorf("Text = %q", art.Text)
	}
}

func TestCommitMessage_blankResponseUnusable(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "   ", "\n\n  \n", "```\n```"} {
		if _, err := CommitMessage(raw); !errors.Is(err, ErrUnusable) {
			t.Errorf("CommitMessage(%q) err = %v, want ErrUnusable", raw, err)
		}
	}
}

func TestCommitMessage_skipsFenceLines(t *testing.T) {
	t.Parallel()
	art, err := CommitMessage("```\nfix: handle empty diff\n```")
	if err != nil {
		t.Fatalf("CommitMessage: %v", err)
	}
	if art.Text != "fix: handle empty diff" {
		t.Errorf("Text = %q", art.Text)
	}
}

func TestCommitMessage_capsLongSubject(t *testing.T) {
	t.Parallel()
	long := "feat: " + strings.Repeat("x", 200)
	art, err := CommitMessage(long)
	if err != nil {
		t.Fatalf("CommitMessage: %v", err)
	}
	if len(art.Text) > MaxSubjectLen {
		t.Errorf("len = %d, want <= %d", len(art.Text), MaxSubjectLen)
	}
	if !utf8.ValidString(art.Text) {
		t.Error("capped subject must stay valid UTF-8")
	}
}

func TestCommitMessage_uppercaseTypeNotConventional(t *testing.T) {
	t.Parallel()
	// "Feat:" does not match the lower-case type rule, so the first
	// non-blank line wins instead.
	art, err := CommitMessage("Feat: Shouty\nfix: lower wins")
	if err != nil {
		t.Fatal(err)
	}
	if art.Text != "fix: lower wins" {
		t.Errorf("Text = %q, want the matching conventional line", art.Text)
	}
}

var prSections = []string{"## Summary", "## Changes", "## Testing"}

func TestPRDescription_acceptsAllSections(t *testing.T) {
	t.Parallel()
	raw := "## Summary\nA change.\n\n## Changes\n- one\n\n## Testing\n- go test ./...\n"
	art, err := PRDescription(raw, prSections)
	if err != nil {
		t.Fatalf("PRDescription: %v", err)
	}
	if !strings.Contains(art.Text, "## Testing") {
		t.Errorf("Text = %q", art.Text)
	}
}

func TestPRDescription_missingSectionUnusable(t *testing.T) {
	t.Parallel()
	raw := "## Summary\nA change.\n\n## Changes\n- one\n"
	if _, err := PRDescription(raw, prSections); !errors.Is(err, ErrUnusable) {
		t.Errorf("err = %v, want ErrUnusable", err)
	}
}

func TestPRDescription_stripsWholeBodyFence(t *testing.T) {
	t.Parallel()
	raw := "```markdown\n## Summary\ns\n## Changes\nc\n## Testing\nt\n```"
	art, err := PRDescription(raw, prSections)
	if err != nil {
		t.Fatalf("PRDescription: %v", err)
	}
	if strings.HasPrefix(art.Text, "```") {
		t.Errorf("fence not stripped: %q", art.Text)
	}
}

func TestPRDescription_blankUnusable(t *testing.T) {
	t.Parallel()
	if _, err := PRDescription("  \n ", prSections); !errors.Is(err, ErrUnusable) {
		t.Errorf("err = %v, want ErrUnusable", err)
	}
}

func TestTruncateUTF8_midMultibyte(t *testing.T) {
	t.Parallel()
	// "é" is 2 bytes; cutting inside it must back up to the rune start.
	s := "café"
	got := truncateUTF8(s, 4)
	if got != "caf" {
		t.Errorf("got %q, want %q", got, "caf")
	}
	if !utf8.ValidString(got) {
		t.Errorf("result not valid UTF-8: %q", got)
	}
}

func TestTruncateUTF8_noTruncationNeeded(t *testing.T) {
	t.Parallel()
	if got := truncateUTF8("short", 100); got != "short" {
		t.Errorf("got %q", got)
	}
}
