// Package config provides gitai configuration with a defined load order:
// CLI flags > environment variables > repo config > global config > defaults.
//
// Paths:
//   - Repo: .gitai/config.toml (relative to repo root)
//   - Global: XDG config dir, e.g. ~/.config/gitai/config.toml (see os.UserConfigDir)
//   - A .env file at the repo root is read for keys not already set in the
//     environment (process environment always wins).
//
// Environment variables (override config files when set):
//   - GITAI_PROVIDER (ollama, openai, anthropic, lmstudio)
//   - GITAI_MODEL, GITAI_OLLAMA_BASE_URL, GITAI_OPENAI_BASE_URL
//   - GITAI_TEMPERATURE, GITAI_MAX_DIFF_LINES, GITAI_NUM_CTX, GITAI_MAX_TOKENS
//   - GITAI_TIMEOUT (Go duration string or integer seconds)
//   - GITAI_VALIDATE (1/true/yes/on = true, 0/false/no/off = false)
//   - OPENAI_API_KEY, ANTHROPIC_API_KEY (backend credentials; never stored in files)
package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"gitai/cli/internal/erruser"
)

// Config holds all gitai configuration.
type Config struct {
	// Provider selects the generation backend: ollama, openai, anthropic, lmstudio.
	Provider      string `toml:"provider"`
	Model         string `toml:"model"`
	OllamaBaseURL string `toml:"ollama_base_url"`
	// OpenAIBaseURL overrides the OpenAI-compatible endpoint; also used by lmstudio.
	OpenAIBaseURL string  `toml:"openai_base_url"`
	Temperature   float64 `toml:"temperature"`
	// MaxDiffLines caps the diff body included in prompts (0 = unlimited).
	MaxDiffLines int `toml:"max_diff_lines"`
	// NumCtx is the model context window; passed to Ollama options and used for warnings.
	NumCtx    int           `toml:"num_ctx"`
	MaxTokens int           `toml:"max_tokens"`
	Timeout   time.Duration `toml:"timeout"`
	// Validate enables the second-pass audit on generated messages.
	Validate bool `toml:"validate"`
}

// Overrides represents optional CLI flag overrides. Non-nil pointer means
// "override with this value".
type Overrides struct {
	Provider      *string
	Model         *string
	OllamaBaseURL *string
	OpenAIBaseURL *string
	Temperature   *float64
	MaxDiffLines  *int
	NumCtx        *int
	MaxTokens     *int
	Timeout       *time.Duration
	Validate      *bool
}

// LoadOptions configures Load. All fields are optional.
type LoadOptions struct {
	// RepoRoot is the repository root; if set, repo config is RepoRoot/.gitai/config.toml
	// and RepoRoot/.env supplies fallback environment values.
	RepoRoot string
	// GlobalConfigPath is the global config file path; if empty, XDG path is used.
	GlobalConfigPath string
	// Env is the environment key=value slice; if nil, os.Environ() is used.
	Env []string
	// Overrides are applied last (highest precedence).
	Overrides *Overrides
}

const (
	_defaultProvider      = "ollama"
	_defaultModel         = "qwen2.5:7b"
	_defaultOllamaBaseURL = "http://localhost:11434"
	_defaultTemperature   = 0.3
	_defaultMaxDiffLines  = 600
	_defaultNumCtx        = 8192
	_defaultMaxTokens     = 512
	_defaultTimeout       = 60 * time.Second
)

// validProviders is the set of allowed provider names (normalized lowercase).
var validProviders = map[string]struct{}{
	"ollama": {}, "openai": {}, "anthropic": {}, "lmstudio": {},
}

// validateProvider normalizes s (trim, lowercase) and returns it if valid.
func validateProvider(s string) (string, error) {
	norm := strings.TrimSpace(strings.ToLower(s))
	if _, ok := validProviders[norm]; !ok {
		return "", erruser.New("Invalid provider; use ollama, openai, anthropic, or lmstudio.", nil)
	}
	return norm, nil
}

// errIntOverflow is returned when an int64 value does not fit in int.
var errIntOverflow = errors.New("value out of range for int")

func int64ToInt(n int64) (int, error) {
	if n < int64(math.MinInt) || n > int64(math.MaxInt) {
		return 0, errIntOverflow
	}
	return int(n), nil
}

// DefaultConfig returns the default configuration (no I/O).
func DefaultConfig() Config {
	return Config{
		Provider:      _defaultProvider,
		Model:         _defaultModel,
		OllamaBaseURL: _defaultOllamaBaseURL,
		OpenAIBaseURL: "",
		Temperature:   _defaultTemperature,
		MaxDiffLines:  _defaultMaxDiffLines,
		NumCtx:        _defaultNumCtx,
		MaxTokens:     _defaultMaxTokens,
		Timeout:       _defaultTimeout,
		Validate:      false,
	}
}

// APIKey returns the backend credential for the configured provider from env,
// or "" when the provider needs none. Keys come only from the environment
// (or the repo .env file), never from config files.
func (c Config) APIKey(env []string) string {
	var key string
	switch c.Provider {
	case "openai", "lmstudio":
		key = "OPENAI_API_KEY"
	case "anthropic":
		key = "ANTHROPIC_API_KEY"
	default:
		return ""
	}
	return envValues(env)[key]
}

// Load loads configuration with precedence: defaults < global file < repo file < env < overrides.
// Missing config files are ignored. Invalid TOML or invalid env values return an error.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	cfg := DefaultConfig()

	globalPath := opts.GlobalConfigPath
	if globalPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, erruser.New("Could not determine config directory.", err)
		}
		globalPath = filepath.Join(dir, "gitai", "config.toml")
	}
	if err := mergeFile(&cfg, globalPath); err != nil {
		return nil, err
	}

	if opts.RepoRoot != "" {
		repoPath := filepath.Join(opts.RepoRoot, ".gitai", "config.toml")
		if err := mergeFile(&cfg, repoPath); err != nil {
			return nil, err
		}
		opts.Env = mergeDotenv(opts.Env, filepath.Join(opts.RepoRoot, ".env"))
	}

	if err := applyEnv(&cfg, opts.Env); err != nil {
		return nil, err
	}

	if err := applyOverrides(&cfg, opts.Overrides); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeDotenv appends key=value pairs from a .env file for keys not already
// present in env. The process environment always wins; a missing or
// unreadable .env is skipped.
func mergeDotenv(env []string, path string) []string {
	fileVals, err := godotenv.Read(path)
	if err != nil {
		return env
	}
	present := envValues(env)
	for k, v := range fileVals {
		if _, ok := present[k]; !ok {
			env = append(env, k+"="+v)
		}
	}
	return env
}

// mergeFile reads path and merges into cfg. Only overwrites fields that are
// present and non-zero in the file (so explicit empty/zero in TOML keeps
// previous value). Missing file is skipped (no error).
func mergeFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return erruser.New("Invalid configuration file.", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return erruser.New("Could not read configuration file.", err)
	}
	var file struct {
		Provider      *string  `toml:"provider"`
		Model         *string  `toml:"model"`
		OllamaBaseURL *string  `toml:"ollama_base_url"`
		OpenAIBaseURL *string  `toml:"openai_base_url"`
		Temperature   *float64 `toml:"temperature"`
		MaxDiffLines  *int64   `toml:"max_diff_lines"`
		NumCtx        *int64   `toml:"num_ctx"`
		MaxTokens     *int64   `toml:"max_tokens"`
		Timeout       *string  `toml:"timeout"`
		Validate      *bool    `toml:"validate"`
	}
	if _, err := toml.Decode(string(data), &file); err != nil {
		return erruser.New("Invalid configuration in "+path+".", err)
	}
	if file.Provider != nil && *file.Provider != "" {
		norm, err := validateProvider(*file.Provider)
		if err != nil {
			return err
		}
		cfg.Provider = norm
	}
	if file.Model != nil && *file.Model != "" {
		cfg.Model = *file.Model
	}
	if file.OllamaBaseURL != nil && *file.OllamaBaseURL != "" {
		cfg.OllamaBaseURL = *file.OllamaBaseURL
	}
	if file.OpenAIBaseURL != nil && *file.OpenAIBaseURL != "" {
		cfg.OpenAIBaseURL = *file.OpenAIBaseURL
	}
	if file.Temperature != nil && *file.Temperature >= 0 && *file.Temperature <= 2 {
		cfg.Temperature = *file.Temperature
	}
	if file.MaxDiffLines != nil && *file.MaxDiffLines >= 0 {
		v, err := int64ToInt(*file.MaxDiffLines)
		if err != nil {
			return erruser.New("Configuration max_diff_lines value out of range.", err)
		}
		cfg.MaxDiffLines = v
	}
	if file.NumCtx != nil && *file.NumCtx > 0 {
		v, err := int64ToInt(*file.NumCtx)
		if err != nil {
			return erruser.New("Configuration num_ctx value out of range.", err)
		}
		cfg.NumCtx = v
	}
	if file.MaxTokens != nil && *file.MaxTokens > 0 {
		v, err := int64ToInt(*file.MaxTokens)
		if err != nil {
			return erruser.New("Configuration max_tokens value out of range.", err)
		}
		cfg.MaxTokens = v
	}
	if file.Timeout != nil && *file.Timeout != "" {
		d, err := parseDuration(*file.Timeout)
		if err != nil {
			return erruser.New("Configuration timeout is invalid.", err)
		}
		cfg.Timeout = d
	}
	if file.Validate != nil {
		cfg.Validate = *file.Validate
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	// Try Go duration first (e.g. "60s", "2m")
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}
	// Try integer seconds
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return time.Duration(n) * time.Second, nil
}

// env key names for config
const (
	envProvider      = "GITAI_PROVIDER"
	envModel         = "GITAI_MODEL"
	envOllamaBaseURL = "GITAI_OLLAMA_BASE_URL"
	envOpenAIBaseURL = "GITAI_OPENAI_BASE_URL"
	envTemperature   = "GITAI_TEMPERATURE"
	envMaxDiffLines  = "GITAI_MAX_DIFF_LINES"
	envNumCtx        = "GITAI_NUM_CTX"
	envMaxTokens     = "GITAI_MAX_TOKENS"
	envTimeout       = "GITAI_TIMEOUT"
	envValidate      = "GITAI_VALIDATE"
)

// envValues parses a key=value slice into a map, trimming whitespace.
func envValues(env []string) map[string]string {
	vals := make(map[string]string)
	for _, e := range env {
		idx := strings.Index(e, "=")
		if idx <= 0 {
			continue
		}
		vals[strings.TrimSpace(e[:idx])] = strings.TrimSpace(e[idx+1:])
	}
	return vals
}

func applyEnv(cfg *Config, env []string) error {
	vals := envValues(env)
	if v, ok := vals[envProvider]; ok && v != "" {
		norm, err := validateProvider(v)
		if err != nil {
			return err
		}
		cfg.Provider = norm
	}
	if v, ok := vals[envModel]; ok && v != "" {
		cfg.Model = v
	}
	if v, ok := vals[envOllamaBaseURL]; ok && v != "" {
		cfg.OllamaBaseURL = v
	}
	if v, ok := vals[envOpenAIBaseURL]; ok && v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v, ok := vals[envTemperature]; ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return erruser.New("GITAI_TEMPERATURE must be a valid number.", err)
		}
		if f < 0 || f > 2 {
			return erruser.New("GITAI_TEMPERATURE must be between 0 and 2.", nil)
		}
		cfg.Temperature = f
	}
	if v, ok := vals[envMaxDiffLines]; ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return erruser.New("GITAI_MAX_DIFF_LINES must be a valid number.", err)
		}
		if n < 0 {
			return erruser.New("GITAI_MAX_DIFF_LINES must be non-negative.", nil)
		}
		cfg.MaxDiffLines, err = int64ToInt(n)
		if err != nil {
			return erruser.New("GITAI_MAX_DIFF_LINES value out of range.", err)
		}
	}
	if v, ok := vals[envNumCtx]; ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return erruser.New("GITAI_NUM_CTX must be a valid number.", err)
		}
		if n <= 0 {
			return erruser.New("GITAI_NUM_CTX must be positive.", nil)
		}
		cfg.NumCtx, err = int64ToInt(n)
		if err != nil {
			return erruser.New("GITAI_NUM_CTX value out of range.", err)
		}
	}
	if v, ok := vals[envMaxTokens]; ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return erruser.New("GITAI_MAX_TOKENS must be a valid number.", err)
		}
		if n <= 0 {
			return erruser.New("GITAI_MAX_TOKENS must be positive.", nil)
		}
		cfg.MaxTokens, err = int64ToInt(n)
		if err != nil {
			return erruser.New("GITAI_MAX_TOKENS value out of range.", err)
		}
	}
	if v, ok := vals[envTimeout]; ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return erruser.New("GITAI_TIMEOUT must be a valid duration.", err)
		}
		cfg.Timeout = d
	}
	if v, ok := vals[envValidate]; ok && v != "" {
		b, err := parseBool(v)
		if err != nil {
			return erruser.New("GITAI_VALIDATE must be 1/true/yes/on or 0/false/no/off.", err)
		}
		cfg.Validate = b
	}
	return nil
}

// parseBool parses common boolean env values: 1/true/yes/on = true,
// 0/false/no/off = false (case-insensitive).
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

func applyOverrides(cfg *Config, o *Overrides) error {
	if o == nil {
		return nil
	}
	if o.Provider != nil && *o.Provider != "" {
		norm, err := validateProvider(*o.Provider)
		if err != nil {
			return err
		}
		cfg.Provider = norm
	}
	if o.Model != nil && *o.Model != "" {
		cfg.Model = *o.Model
	}
	if o.OllamaBaseURL != nil && *o.OllamaBaseURL != "" {
		cfg.OllamaBaseURL = *o.OllamaBaseURL
	}
	if o.OpenAIBaseURL != nil && *o.OpenAIBaseURL != "" {
		cfg.OpenAIBaseURL = *o.OpenAIBaseURL
	}
	if o.Temperature != nil {
		cfg.Temperature = *o.Temperature
	}
	if o.MaxDiffLines != nil {
		v := *o.MaxDiffLines
		if v < 0 {
			v = 0
		}
		cfg.MaxDiffLines = v
	}
	if o.NumCtx != nil && *o.NumCtx > 0 {
		cfg.NumCtx = *o.NumCtx
	}
	if o.MaxTokens != nil && *o.MaxTokens > 0 {
		cfg.MaxTokens = *o.MaxTokens
	}
	if o.Timeout != nil {
		cfg.Timeout = *o.Timeout
	}
	if o.Validate != nil {
		cfg.Validate = *o.Validate
	}
	return nil
}
