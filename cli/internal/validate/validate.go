// Package validate implements the optional second-pass audit: a model is
// asked to check the generated artifact against the change summary and return
// findings plus a corrected version, separated by fixed delimiters. The pass
// is strictly additive in safety terms: any failure (network, parse, blank
// correction) keeps the original artifact, so enabling validation can never
// make the result worse than generation alone.
package validate

import (
	"context"
	"strings"

	"gitai/cli/internal/artifact"
	"gitai/cli/internal/llm"
	"gitai/cli/internal/prompt"
)

const (
	// FindingsDelimiter and CorrectedDelimiter frame the two response
	// sections. They are part of the audit prompt contract; a response
	// missing either is treated as unparseable.
	FindingsDelimiter  = "=== FINDINGS ==="
	CorrectedDelimiter = "=== CORRECTED ==="

	commitAuditInstructions = `You are auditing a git commit message against the change it describes.
Check that the message is accurate, uses a correct conventional commit type, and stays in the imperative mood.
Respond in exactly this format:
` + FindingsDelimiter + `
<one finding per line, or "none">
` + CorrectedDelimiter + `
<the corrected commit message, or the original unchanged if no correction is needed>`

	prAuditInstructions = `You are auditing a pull request description against the change it describes.
Check that every claim matches the diff and that the Summary, Changes and Testing sections are accurate.
Respond in exactly this format:
` + FindingsDelimiter + `
<one finding per line, or "none">
` + CorrectedDelimiter + `
<the corrected description, or the original unchanged if no correction is needed>`
)

// Client is the minimal generation surface Run needs, satisfied by llm.Client
// and by test doubles.
type Client interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// Options configures a validation pass.
type Options struct {
	Model       string
	Temperature float64
	NumCtx      int
	MaxTokens   int
}

// BuildAuditPrompt returns the user prompt for the audit pass: the kind's
// instructions, the artifact under audit, and the change summary it must be
// checked against.
func BuildAuditPrompt(kind prompt.Kind, art artifact.Artifact, changeSummary string) string {
	instructions := commitAuditInstructions
	if kind == prompt.KindPR {
		instructions = prAuditInstructions
	}
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nText under audit:\n")
	b.WriteString(art.Text)
	b.WriteString("\n\nChange summary:\n")
	b.WriteString(changeSummary)
	return b.String()
}

// Run audits art with a second model pass. It never fails the pipeline: on
// any error, unparseable response, or blank corrected section the original
// artifact comes back unchanged, with an unparsed report carrying the raw
// response for inspection. A parsed response with a
// non-blank corrected section produces a new artifact with model-validated
// provenance; the caller still holds the original as the recovery point.
func Run(ctx context.Context, client Client, kind prompt.Kind, art artifact.Artifact, changeSummary string, opts Options) (artifact.Artifact, *artifact.ValidationReport) {
	if client == nil {
		return art, &artifact.ValidationReport{Parsed: false}
	}
	resp, err := client.Generate(ctx, llm.Request{
		Model:       opts.Model,
		Prompt:      BuildAuditPrompt(kind, art, changeSummary),
		Temperature: opts.Temperature,
		NumCtx:      opts.NumCtx,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return art, &artifact.ValidationReport{Parsed: false, Raw: err.Error()}
	}
	findings, corrected, ok := ParseAuditResponse(resp)
	if !ok || corrected == "" {
		return art, &artifact.ValidationReport{Parsed: false, Raw: resp}
	}
	report := &artifact.ValidationReport{Findings: findings, Parsed: true, Raw: resp}
	return artifact.Artifact{Text: corrected, Provenance: artifact.ModelValidated}, report
}

// ParseAuditResponse splits the response on the two delimiters. ok is false
// when either delimiter is missing or they appear out of order. Findings
// equal to "none" (any case) collapse to an empty list; the corrected section
// is trimmed and may be empty.
func ParseAuditResponse(resp string) (findings []string, corrected string, ok bool) {
	fi := strings.Index(resp, FindingsDelimiter)
	ci := strings.Index(resp, CorrectedDelimiter)
	if fi < 0 || ci < 0 || ci < fi {
		return nil, "", false
	}
	findingsBlock := resp[fi+len(FindingsDelimiter) : ci]
	for _, line := range strings.Split(findingsBlock, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, "none") {
			continue
		}
		findings = append(findings, line)
	}
	corrected = strings.TrimSpace(resp[ci+len(CorrectedDelimiter):])
	return findings, corrected, true
}
