// Package classify is the deterministic, network-free fallback generator: it
// derives a conventionally shaped message from file extensions, add/delete
// counts, and diff keywords. It exists as an availability guarantee: the
// pipeline always terminates with a valid message even with no backend.
//
// Classification is an ordered list of (extension-set, outcome) rules,
// evaluated per file in change-set order: the first file whose extension
// matches a rule selects the outcome. A single source-code file listed before
// documentation therefore establishes the feat/fix path even in a
// docs-dominated change-set.
package classify

import (
	"path/filepath"
	"strings"

	"gitai/cli/internal/artifact"
	"gitai/cli/internal/changes"
	"gitai/cli/internal/extract"
)

// rule pairs an extension predicate with its outcome. Rules are evaluated in
// the order they appear in rules; keep that order stable, it is the contract.
type rule struct {
	name    string
	exts    map[string]struct{}
	outcome func(cs *changes.ChangeSet) (ctype, rest string)
}

var rules = []rule{
	{
		name: "docs",
		exts: extSet(".md", ".txt", ".rst", ".doc"),
		outcome: func(*changes.ChangeSet) (string, string) {
			return "docs", "documentation"
		},
	},
	{
		name: "scripts",
		exts: extSet(".sh", ".bash"),
		outcome: func(cs *changes.ChangeSet) (string, string) {
			if anyAdded(cs) {
				return "feat", "new scripts"
			}
			return "fix", "scripts"
		},
	},
	{
		name: "code",
		exts: extSet(
			".go", ".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".c", ".h",
			".cpp", ".hpp", ".cc", ".rs", ".rb", ".php", ".swift", ".kt",
			".cs", ".scala", ".m",
		),
		outcome: codeOutcome,
	},
	{
		name: "style",
		exts: extSet(".css", ".scss", ".sass", ".less"),
		outcome: func(*changes.ChangeSet) (string, string) {
			return "style", "styles"
		},
	},
	{
		name: "config",
		exts: extSet(".json", ".yaml", ".yml", ".toml", ".ini", ".conf"),
		outcome: func(*changes.ChangeSet) (string, string) {
			return "chore", "configuration"
		},
	},
}

// testTokens and defTokens are matched against added diff lines only.
// Matching is case-sensitive: "Test" catches Go/Java identifiers, "test" and
// "spec" catch file-ish and JS-ish names.
var testTokens = []string{"test", "spec", "Test"}
var defTokens = []string{"function", "class", "def ", "fn ", "func "}

// Classify derives a message from the change-set. It never fails: an
// unrecognized change-set falls through to "chore: update project files".
func Classify(cs *changes.ChangeSet) artifact.Artifact {
	ctype, rest := "chore", "project files"
scan:
	for _, f := range cs.Files {
		ext := strings.ToLower(filepath.Ext(f.Path))
		for _, r := range rules {
			if _, ok := r.exts[ext]; ok {
				ctype, rest = r.outcome(cs)
				break scan
			}
		}
	}
	desc := verb(cs) + " " + rest
	return artifact.Artifact{
		Text:       extract.CapSubject(ctype + ": " + desc),
		Provenance: artifact.HeuristicFallback,
	}
}

// codeOutcome inspects added diff lines: test tokens win over definition
// tokens; neither means a fix.
func codeOutcome(cs *changes.ChangeSet) (string, string) {
	if addedLinesContain(cs.Diff, testTokens) {
		return "test", "tests"
	}
	if addedLinesContain(cs.Diff, defTokens) {
		return "feat", "new functionality"
	}
	return "fix", "source code"
}

// verb is the description's leading word: "add" when every file is newly
// added, "remove" when every file is deleted, otherwise "update". Evaluated
// after the type decision; it rewrites the description, never the type.
func verb(cs *changes.ChangeSet) string {
	if len(cs.Files) == 0 {
		return "update"
	}
	allAdded, allDeleted := true, true
	for _, f := range cs.Files {
		if f.Status != changes.StatusAdded {
			allAdded = false
		}
		if f.Status != changes.StatusDeleted {
			allDeleted = false
		}
	}
	switch {
	case allAdded:
		return "add"
	case allDeleted:
		return "remove"
	default:
		return "update"
	}
}

// addedLinesContain reports whether any added diff line ("+" but not "+++")
// contains one of the tokens.
func addedLinesContain(diff string, tokens []string) bool {
	for _, line := range strings.Split(diff, "\n") {
		if !strings.HasPrefix(line, "+") || strings.HasPrefix(line, "+++") {
			continue
		}
		for _, tok := range tokens {
			if strings.Contains(line, tok) {
				return true
			}
		}
	}
	return false
}

func extSet(exts ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		m[e] = struct{}{}
	}
	return m
}

// anyAdded reports whether at least one file in the change-set is newly added.
func anyAdded(cs *changes.ChangeSet) bool {
	for _, f := range cs.Files {
		if f.Status == changes.StatusAdded {
			return true
		}
	}
	return false
}
