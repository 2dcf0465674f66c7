// Command gitai turns git changes into commit messages and pull request
// descriptions using a local or hosted language model, with a deterministic
// fallback so it always produces something usable.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gitai/cli/internal/changes"
	"gitai/cli/internal/config"
	"gitai/cli/internal/erruser"
	"gitai/cli/internal/git"
	"gitai/cli/internal/history"
	"gitai/cli/internal/llm"
	"gitai/cli/internal/logging"
	"gitai/cli/internal/run"
	"gitai/cli/internal/version"
)

// errExit is an error that carries an exit code for the CLI. Use errors.As to detect it.
type errExit int

func (e errExit) Error() string {
	return "exit " + strconv.Itoa(int(e))
}

// stdout is the writer for generated artifacts. Tests may replace it.
var stdout io.Writer = os.Stdout

func main() {
	os.Exit(Run())
}

// Run is the entry point for the CLI, exported for testing.
func Run() int {
	return runCLI(os.Args[1:])
}

func runCLI(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:     "gitai",
		Short:   "Generate commit messages and PR descriptions from your git changes",
		Version: version.String(),
	}
	rootCmd.AddCommand(newCommitCmd())
	rootCmd.AddCommand(newPRCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var exitErr errExit
		if errors.As(err, &exitErr) {
			return int(exitErr)
		}
		fmt.Fprintln(os.Stderr, err)
		if u := errors.Unwrap(err); u != nil {
			fmt.Fprintf(os.Stderr, "Details: %v\n", u)
		}
		return 1
	}
	return 0
}

func newCommitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Generate a commit message from staged changes and commit with it",
		RunE:  runCommit,
	}
	cmd.Flags().Bool("preview", false, "Print the message instead of committing")
	addGenerationFlags(cmd)
	return cmd
}

func newPRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Generate a pull request description from the branch diff",
		RunE:  runPR,
	}
	cmd.Flags().String("base", "main", "Base branch to diff against (local or origin)")
	cmd.Flags().String("output", "", "Write the description to a file instead of stdout")
	addGenerationFlags(cmd)
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently generated messages",
		RunE:  runHistory,
	}
	cmd.Flags().IntP("limit", "n", 10, "Number of records to show")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return erruser.New("Could not determine current directory.", err)
	}
	repoRoot, err := git.RepoRoot(cmd.Context(), cwd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	recs, err := history.Recent(filepath.Join(repoRoot, ".gitai"), limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(stdout, "No history yet.")
		return nil
	}
	for _, r := range recs {
		subject := r.Message
		if i := strings.IndexByte(subject, '\n'); i >= 0 {
			subject = subject[:i]
		}
		fmt.Fprintf(stdout, "%s  %-6s %-19s %s\n", r.At, r.Mode, r.Provenance, subject)
	}
	return nil
}

// addGenerationFlags registers the flags shared by commit and pr. Flags left
// at their default are not treated as overrides; config and env still apply.
func addGenerationFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", "", "Model name (overrides config and env)")
	cmd.Flags().String("provider", "", "Backend provider: ollama, openai, anthropic, lmstudio")
	cmd.Flags().Float64("temperature", 0, "Sampling temperature, 0 to 2")
	cmd.Flags().Int("max-diff-lines", 0, "Max diff lines sent to the model (0 = unlimited)")
	cmd.Flags().Bool("validate", false, "Run a second model pass to audit the generated message")
	cmd.Flags().BoolP("quiet", "q", false, "Suppress diagnostics")
	cmd.Flags().BoolP("verbose", "v", false, "Print pipeline diagnostics and provenance to stderr")
}

// overridesFromFlags maps explicitly set flags to config overrides.
func overridesFromFlags(cmd *cobra.Command) *config.Overrides {
	o := &config.Overrides{}
	if cmd.Flags().Changed("model") {
		v, _ := cmd.Flags().GetString("model")
		o.Model = &v
	}
	if cmd.Flags().Changed("provider") {
		v, _ := cmd.Flags().GetString("provider")
		o.Provider = &v
	}
	if cmd.Flags().Changed("temperature") {
		v, _ := cmd.Flags().GetFloat64("temperature")
		o.Temperature = &v
	}
	if cmd.Flags().Changed("max-diff-lines") {
		v, _ := cmd.Flags().GetInt("max-diff-lines")
		o.MaxDiffLines = &v
	}
	if cmd.Flags().Changed("validate") {
		v, _ := cmd.Flags().GetBool("validate")
		o.Validate = &v
	}
	return o
}

// pipelineResult resolves config, builds the backend client, and runs the
// generation pipeline for the given mode.
func pipelineResult(cmd *cobra.Command, mode run.Mode, base string) (*run.Result, string, *logging.Logger, error) {
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")
	if quiet {
		verbose = false
	}
	log := logging.New(verbose)
	if quiet {
		log = logging.Nop()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", log, erruser.New("Could not determine current directory.", err)
	}
	repoRoot, err := git.RepoRoot(cmd.Context(), cwd)
	if err != nil {
		return nil, "", log, err
	}
	cfg, err := config.Load(cmd.Context(), config.LoadOptions{
		RepoRoot:  repoRoot,
		Overrides: overridesFromFlags(cmd),
	})
	if err != nil {
		return nil, "", log, err
	}

	client, err := llm.New(llm.Options{
		Provider:   cfg.Provider,
		BaseURL:    baseURLFor(cfg),
		APIKey:     cfg.APIKey(os.Environ()),
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		// Credential and provider mistakes are configuration errors; exit 2
		// distinguishes them from input errors.
		fmt.Fprintln(os.Stderr, err)
		return nil, "", log, errExit(2)
	}
	log.Debugf("provider %s, model %s", client.Name(), cfg.Model)

	res, err := run.Generate(cmd.Context(), run.Options{
		Mode:     mode,
		RepoRoot: repoRoot,
		Base:     base,
		Client:   client,
		Config:   cfg,
		Log:      log,
	})
	if err != nil {
		if errors.Is(err, changes.ErrNoChanges) {
			if mode == run.ModePR {
				return nil, "", log, erruser.New("No changes between this branch and the base branch.", err)
			}
			return nil, "", log, erruser.New("No staged changes. Stage your changes with 'git add' first.", err)
		}
		return nil, "", log, err
	}
	log.Debugf("artifact provenance: %s", res.Artifact.Provenance)
	if verbose {
		fmt.Fprintf(os.Stderr, "provenance: %s\n", res.Artifact.Provenance)
		if res.Report != nil && len(res.Report.Findings) > 0 {
			fmt.Fprintf(os.Stderr, "validation findings:\n  %s\n", strings.Join(res.Report.Findings, "\n  "))
		}
	}
	return res, repoRoot, log, nil
}

func runCommit(cmd *cobra.Command, args []string) error {
	res, repoRoot, _, err := pipelineResult(cmd, run.ModeCommit, "")
	if err != nil {
		return err
	}
	preview, _ := cmd.Flags().GetBool("preview")
	if preview {
		fmt.Fprintln(stdout, res.Artifact.Text)
		return nil
	}
	out, err := git.Commit(cmd.Context(), repoRoot, res.Artifact.Text)
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintln(stdout, out)
	}
	return nil
}

func runPR(cmd *cobra.Command, args []string) error {
	base, _ := cmd.Flags().GetString("base")
	res, _, _, err := pipelineResult(cmd, run.ModePR, base)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	if output != "" {
		if err := os.WriteFile(output, []byte(res.Artifact.Text+"\n"), 0o644); err != nil {
			return erruser.New("Could not write the description to "+output+".", err)
		}
		return nil
	}
	fmt.Fprintln(stdout, res.Artifact.Text)
	return nil
}

// baseURLFor picks the configured endpoint for the provider. Anthropic has no
// override knob; it always uses the hosted API.
func baseURLFor(cfg *config.Config) string {
	switch cfg.Provider {
	case "openai", "lmstudio":
		return cfg.OpenAIBaseURL
	case "anthropic":
		return ""
	default:
		return cfg.OllamaBaseURL
	}
}
