// Package extract parses raw model output into a usable artifact, applying
// shape-specific acceptance rules. Unusable output is a typed failure so the
// caller can route to the heuristic fallback; extraction never returns empty
// or whitespace-only text.
package extract

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gitai/cli/internal/artifact"
)

// MaxSubjectLen caps the commit subject line, in bytes. Capping truncates,
// never errors: a too-long model line is still usable after trimming.
const MaxSubjectLen = 72

// ErrUnusable indicates the response has no acceptable content for the
// requested shape. Treated by the pipeline like a generation failure.
var ErrUnusable = errors.New("model response unusable")

// conventionalLine matches "type(optional-scope): text" with a lower-case
// type word, optionally marked breaking with "!".
var conventionalLine = regexp.MustCompile(`^[a-z]+(\([^)]*\))?!?: \S.*`)

// CommitMessage scans the response for the first line in conventional shape
// and returns it as the artifact. When no line matches, the first non-blank
// line is used instead; a response with no non-blank line is ErrUnusable.
// Code-fence lines are skipped so fenced output still extracts.
func CommitMessage(raw string) (artifact.Artifact, error) {
	var firstNonBlank string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		if conventionalLine.MatchString(line) {
			return artifact.Artifact{Text: CapSubject(line), Provenance: artifact.ModelGenerated}, nil
		}
		if firstNonBlank == "" {
			firstNonBlank = line
		}
	}
	if firstNonBlank == "" {
		return artifact.Artifact{}, ErrUnusable
	}
	return artifact.Artifact{Text: CapSubject(firstNonBlank), Provenance: artifact.ModelGenerated}, nil
}

// PRDescription accepts the full response only when every required section
// heading appears verbatim; anything else is ErrUnusable. A fenced wrapper
// around the whole body is stripped first.
func PRDescription(raw string, requiredSections []string) (artifact.Artifact, error) {
	text := strings.TrimSpace(stripFence(raw))
	if text == "" {
		return artifact.Artifact{}, ErrUnusable
	}
	for _, sec := range requiredSections {
		if !strings.Contains(text, sec) {
			return artifact.Artifact{}, ErrUnusable
		}
	}
	return artifact.Artifact{Text: text, Provenance: artifact.ModelGenerated}, nil
}

// CapSubject trims s and truncates it to MaxSubjectLen bytes on a rune
// boundary.
func CapSubject(s string) string {
	return truncateUTF8(strings.TrimSpace(s), MaxSubjectLen)
}

// stripFence removes a markdown code fence wrapping the entire response
// (first and last non-blank lines are fences). Interior fences are kept.
func stripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 || !strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		return s
	}
	return strings.Join(lines[1:len(lines)-1], "\n")
}

// truncateUTF8 truncates s to at most limit bytes without splitting a rune:
// when the cut lands mid-rune it backs up to the previous rune start.
func truncateUTF8(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
