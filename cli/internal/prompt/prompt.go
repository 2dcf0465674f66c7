// Package prompt assembles the completion request sent to the model: a fixed
// instruction template followed by repository metadata, the file-status list,
// and the (possibly truncated) diff body. Assembly is pure and deterministic;
// the same context always yields a byte-identical prompt.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gitai/cli/internal/changes"
	"gitai/cli/internal/erruser"
)

// Kind selects the instruction template and output shape.
type Kind string

const (
	KindCommit Kind = "commit"
	KindPR     Kind = "pr"
)

// CommitInstructions tells the model to produce a conventional commit message.
// Instructions come first so the model finds its task before the diff.
const CommitInstructions = `You generate conventional git commit messages from a unified diff.
Output only the commit message, no other text or explanation.
Format:
- First line: "type(scope): description", 72 characters or less. type is one of feat, fix, docs, style, refactor, test, chore. scope is optional.
- Use imperative mood (e.g. "add feature" not "added feature").
- Blank line, then a longer description if the change warrants one, wrapped at 72 characters.
Do not use markdown, code blocks, or quotes.`

// PRInstructions tells the model to produce a markdown pull-request
// description with the exact section headings listed in PRRequiredSections.
const PRInstructions = `You generate pull request descriptions from a unified diff.
Output only the description in markdown, using exactly these sections in this order:
## Summary
## Changes
## Testing
Under Summary write one or two sentences on what the change does and why.
Under Changes list the notable changes as bullets.
Under Testing note how the change was or should be verified.
Do not invent changes that are not in the diff.`

// PRRequiredSections are the headings a PR response must contain verbatim to
// be accepted by the extractor.
var PRRequiredSections = []string{"## Summary", "## Changes", "## Testing"}

// Context is the metadata and change-set merged into the prompt. Consumed
// once per assembly.
type Context struct {
	Repo        string
	Branch      string
	BaseBranch  string
	AuthorName  string
	AuthorEmail string
	Changes     *changes.ChangeSet
}

// ErrUnencodable indicates the diff contains bytes that cannot be embedded in
// a JSON transport payload. This is a fatal assembly error: a malformed
// payload would fail downstream indistinguishably from an empty response, so
// it must never be masked by the fallback path.
var ErrUnencodable = erruser.New("Diff contains invalid UTF-8 and cannot be sent to the model.", nil)

// Assemble builds the prompt for the given kind. Fixed order: instructions,
// repository block, file-status block, truncation notice (only when the diff
// was cut), diff body.
func Assemble(kind Kind, pctx Context) (string, error) {
	if pctx.Changes == nil {
		return "", fmt.Errorf("prompt: nil change-set")
	}
	if !utf8.ValidString(pctx.Changes.Diff) {
		return "", ErrUnencodable
	}

	var b strings.Builder
	switch kind {
	case KindPR:
		b.WriteString(PRInstructions)
	default:
		b.WriteString(CommitInstructions)
	}
	b.WriteString("\n\n")

	b.WriteString("Repository: ")
	b.WriteString(pctx.Repo)
	b.WriteString("\n")
	if pctx.Branch != "" {
		b.WriteString("Branch: ")
		b.WriteString(pctx.Branch)
		if pctx.BaseBranch != "" {
			b.WriteString(" (base: ")
			b.WriteString(pctx.BaseBranch)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	if pctx.AuthorName != "" || pctx.AuthorEmail != "" {
		b.WriteString("Author: ")
		b.WriteString(strings.TrimSpace(pctx.AuthorName + " " + formatEmail(pctx.AuthorEmail)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(fileStatusBlock(pctx.Changes))
	b.WriteString("\n")

	if pctx.Changes.Truncated {
		fmt.Fprintf(&b, "Note: the diff below was truncated to its first lines (%d lines total); the file list above covers the full change-set.\n\n", pctx.Changes.TotalLines)
	}

	b.WriteString("Diff:\n")
	b.WriteString(pctx.Changes.Diff)
	return b.String(), nil
}

// fileStatusBlock renders one line per file: status, path, +added/-deleted.
// Always reflects the full change-set regardless of diff truncation.
func fileStatusBlock(cs *changes.ChangeSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Files changed (%d):\n", len(cs.Files))
	for _, f := range cs.Files {
		fmt.Fprintf(&b, "- %s %s (+%d, -%d)\n", f.Status, f.Path, f.LinesAdded, f.LinesDeleted)
	}
	return b.String()
}

func formatEmail(email string) string {
	if email == "" {
		return ""
	}
	return "<" + email + ">"
}
