package changes

import (
	"bufio"
	"strconv"
	"strings"
)

// parseNameStatus parses "git diff --name-status" output: one file per line,
// STATUS<TAB>path (renames: R<score><TAB>old<TAB>new; the new path is kept).
// Copies are folded into added; unknown status letters into modified.
func parseNameStatus(out string) []FileEntry {
	var files []FileEntry
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		code := parts[0]
		path := parts[len(parts)-1]
		files = append(files, FileEntry{Path: path, Status: statusFromCode(code)})
	}
	return files
}

func statusFromCode(code string) Status {
	if code == "" {
		return StatusModified
	}
	switch code[0] {
	case 'A', 'C':
		return StatusAdded
	case 'D':
		return StatusDeleted
	case 'R':
		return StatusRenamed
	default:
		return StatusModified
	}
}

// numstatEntry holds per-file line counts keyed by the new-side path.
type numstatEntry struct {
	added   int
	deleted int
}

// parseNumstat parses "git diff --numstat": added<TAB>deleted<TAB>path.
// Binary files report "-" for both counts and map to 0/0. Rename lines use
// either "old => new" or the "{old => new}" brace form; the new path is kept.
func parseNumstat(out string) map[string]numstatEntry {
	stats := make(map[string]numstatEntry)
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) < 3 {
			continue
		}
		added, _ := strconv.Atoi(parts[0])
		deleted, _ := strconv.Atoi(parts[1])
		stats[renameNewPath(parts[2])] = numstatEntry{added: added, deleted: deleted}
	}
	return stats
}

// renameNewPath resolves numstat rename notation to the new-side path.
// "a/{old => new}/c.go" becomes "a/new/c.go"; "old.go => new.go" becomes
// "new.go"; plain paths pass through.
func renameNewPath(p string) string {
	if open := strings.Index(p, "{"); open >= 0 {
		if close := strings.Index(p[open:], "}"); close >= 0 {
			inner := p[open+1 : open+close]
			if idx := strings.Index(inner, " => "); idx >= 0 {
				replaced := p[:open] + inner[idx+4:] + p[open+close+1:]
				return strings.ReplaceAll(replaced, "//", "/")
			}
		}
	}
	if idx := strings.Index(p, " => "); idx >= 0 {
		return p[idx+4:]
	}
	return p
}

// mergeFileEntries joins the name-status list (order-preserving, status
// authoritative) with numstat line counts.
func mergeFileEntries(files []FileEntry, stats map[string]numstatEntry) []FileEntry {
	out := make([]FileEntry, 0, len(files))
	for _, f := range files {
		if st, ok := stats[f.Path]; ok {
			f.LinesAdded = st.added
			f.LinesDeleted = st.deleted
		}
		out = append(out, f)
	}
	return out
}
