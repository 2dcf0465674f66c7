// Package run implements the generation pipeline: change extraction, prompt
// assembly, model generation, response extraction, heuristic fallback, and the
// optional validation pass. Used by the CLI and by tests.
//
// Every stage hands its output to the next by explicit return value; there is
// no shared state between stages. Generation and extraction failures are
// recovered by the fallback classifier, so the pipeline fails only on input
// errors (no repository, no changes, unknown base) and on prompt assembly
// errors.
package run

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gitai/cli/internal/artifact"
	"gitai/cli/internal/changes"
	"gitai/cli/internal/classify"
	"gitai/cli/internal/config"
	"gitai/cli/internal/erruser"
	"gitai/cli/internal/extract"
	"gitai/cli/internal/git"
	"gitai/cli/internal/history"
	"gitai/cli/internal/llm"
	"gitai/cli/internal/logging"
	"gitai/cli/internal/prompt"
	"gitai/cli/internal/tokens"
	"gitai/cli/internal/validate"
)

// Mode selects what the pipeline produces.
type Mode string

const (
	ModeCommit Mode = "commit"
	ModePR     Mode = "pr"
)

// Options holds inputs for Generate. Client and Config are required; a nil
// Log discards diagnostics.
type Options struct {
	Mode     Mode
	RepoRoot string
	// Base is the PR base branch name (pr mode only; default main).
	Base   string
	Client llm.Client
	Config *config.Config
	Log    *logging.Logger
}

// Result is the pipeline outcome. Report is non-nil only when the validation
// pass ran.
type Result struct {
	Artifact artifact.Artifact
	Report   *artifact.ValidationReport
	// ChangeSet is the (possibly truncated) change-set the artifact describes.
	ChangeSet *changes.ChangeSet
}

// Generate runs the full pipeline for the given mode and returns the final
// artifact. The returned error is always user-facing (erruser) or a typed
// input error such as changes.ErrNoChanges.
func Generate(ctx context.Context, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}
	cfg := opts.Config
	if cfg == nil {
		return nil, erruser.New("Internal error: no configuration.", nil)
	}

	kind := prompt.KindCommit
	if opts.Mode == ModePR {
		kind = prompt.KindPR
	}

	cs, err := extractChanges(ctx, opts)
	if err != nil {
		return nil, err
	}
	cs = changes.Truncate(cs, cfg.MaxDiffLines)
	if cs.Truncated {
		log.Debugf("diff truncated to %d of %d lines", cfg.MaxDiffLines, cs.TotalLines)
	}

	pctx, err := promptContext(ctx, opts, cs)
	if err != nil {
		return nil, err
	}
	userPrompt, err := prompt.Assemble(kind, pctx)
	if err != nil {
		if errors.Is(err, prompt.ErrUnencodable) {
			return nil, err
		}
		return nil, erruser.New("Could not assemble the model prompt.", err)
	}

	promptTokens := tokens.Estimate(userPrompt)
	if warning := tokens.ContextWarning(promptTokens, cfg.MaxTokens, cfg.NumCtx); warning != "" {
		log.Warnf("%s", warning)
	}

	art, generated := generateArtifact(ctx, opts, kind, userPrompt, cs, log)

	res := &Result{Artifact: art, ChangeSet: cs}
	if cfg.Validate && generated {
		vctx, cancel := callContext(ctx, cfg.Timeout)
		defer cancel()
		validated, report := validate.Run(vctx, opts.Client, kind, art, changeSummary(cs), validate.Options{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			NumCtx:      cfg.NumCtx,
			MaxTokens:   cfg.MaxTokens,
		})
		if report != nil && !report.Parsed {
			log.Warnf("validation response unusable; keeping the original message")
		}
		res.Artifact = validated
		res.Report = report
	}

	// History is best effort; a read-only checkout should not fail generation.
	rec := history.NewRecord(string(opts.Mode), opts.Client.Name(), cfg.Model,
		string(res.Artifact.Provenance), res.Artifact.Text, len(cs.Files), cs.Truncated)
	if err := history.Append(filepath.Join(opts.RepoRoot, ".gitai"), rec, history.DefaultMaxRecords); err != nil {
		log.Warnf("could not record history: %v", err)
	}
	return res, nil
}

// extractChanges builds the change-set for the mode: staged changes for
// commit, base...HEAD for pr.
func extractChanges(ctx context.Context, opts Options) (*changes.ChangeSet, error) {
	if opts.Mode != ModePR {
		return changes.Staged(ctx, opts.RepoRoot)
	}
	base := opts.Base
	if base == "" {
		base = "main"
	}
	ref, err := git.ResolveBase(ctx, opts.RepoRoot, base)
	if err != nil {
		if errors.Is(err, git.ErrBaseNotFound) {
			return nil, erruser.New(fmt.Sprintf("Base branch %q not found locally or on origin.", base), err)
		}
		return nil, err
	}
	return changes.BranchDiff(ctx, opts.RepoRoot, ref)
}

// promptContext gathers repository metadata. A missing identity is not an
// error; the prompt simply omits the author lines.
func promptContext(ctx context.Context, opts Options, cs *changes.ChangeSet) (prompt.Context, error) {
	repoName := git.RepoName(opts.RepoRoot)
	branch, err := git.CurrentBranch(ctx, opts.RepoRoot)
	if err != nil {
		return prompt.Context{}, err
	}
	identity := git.UserIdentity(ctx, opts.RepoRoot)
	return prompt.Context{
		Repo:        repoName,
		Branch:      branch,
		BaseBranch:  opts.Base,
		AuthorName:  identity.Name,
		AuthorEmail: identity.Email,
		Changes:     cs,
	}, nil
}

// generateArtifact calls the model and extracts the artifact. Any backend or
// extraction failure routes to the classifier; generated reports whether the
// artifact came from the model.
func generateArtifact(ctx context.Context, opts Options, kind prompt.Kind, userPrompt string, cs *changes.ChangeSet, log *logging.Logger) (artifact.Artifact, bool) {
	cfg := opts.Config
	gctx, cancel := callContext(ctx, cfg.Timeout)
	defer cancel()
	raw, err := opts.Client.Generate(gctx, llm.Request{
		Model:       cfg.Model,
		Prompt:      userPrompt,
		Temperature: cfg.Temperature,
		NumCtx:      cfg.NumCtx,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		log.Warnf("%s backend unavailable (%v); using heuristic fallback", opts.Client.Name(), err)
		return classify.Classify(cs), false
	}
	var art artifact.Artifact
	if kind == prompt.KindPR {
		art, err = extract.PRDescription(raw, prompt.PRRequiredSections)
	} else {
		art, err = extract.CommitMessage(raw)
	}
	if err != nil {
		log.Warnf("model response unusable (%v); using heuristic fallback", err)
		return classify.Classify(cs), false
	}
	return art, true
}

// callContext bounds one backend call. A timeout of zero falls back to the
// parent context so a hung backend is still cancellable by signal.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// changeSummary renders a short file-level summary for the validation prompt.
func changeSummary(cs *changes.ChangeSet) string {
	var b strings.Builder
	for _, f := range cs.Files {
		fmt.Fprintf(&b, "%s (%s, +%d/-%d)\n", f.Path, f.Status, f.LinesAdded, f.LinesDeleted)
	}
	return b.String()
}
