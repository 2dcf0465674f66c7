package changes

import "testing"

func TestParseNameStatus_mixedStatuses(t *testing.T) {
	t.Parallel()
	out := "A\tnew.go\nM\tmain.go\nD\told.go\nR100\tbefore.go\tafter.go\n"
	files := parseNameStatus(out)
	if len(files) != 4 {
		t.Fatalf("got %d files, want 4", len(files))
	}
	want := []FileEntry{
		{Path: "new.go", Status: StatusAdded},
		{Path: "main.go", Status: StatusModified},
		{Path: "old.go", Status: StatusDeleted},
		{Path: "after.go", Status: StatusRenamed},
	}
	for i, w := range want {
		if files[i].Path != w.Path || files[i].Status != w.Status {
			t.Errorf("files[%d] = %+v, want %+v", i, files[i], w)
		}
	}
}

func TestParseNameStatus_emptyOutput(t *testing.T) {
	t.Parallel()
	if files := parseNameStatus(""); len(files) != 0 {
		t.Errorf("got %d files, want 0", len(files))
	}
}

func TestParseNumstat_countsAndBinary(t *testing.T) {
	t.Parallel()
	out := "10\t2\tmain.go\n-\t-\tlogo.png\n"
	stats := parseNumstat(out)
	if st := stats["main.go"]; st.added != 10 || st.deleted != 2 {
		t.Errorf("main.go = %+v, want {10 2}", st)
	}
	if st := stats["logo.png"]; st.added != 0 || st.deleted != 0 {
		t.Errorf("logo.png = %+v, want {0 0} for binary", st)
	}
}

func TestRenameNewPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"plain.go", "plain.go"},
		{"old.go => new.go", "new.go"},
		{"pkg/{old => new}/c.go", "pkg/new/c.go"},
		{"{old.go => new.go}", "new.go"},
	}
	for _, tt := range tests {
		if got := renameNewPath(tt.in); got != tt.want {
			t.Errorf("renameNewPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMergeFileEntries_attachesCounts(t *testing.T) {
	t.Parallel()
	files := []FileEntry{{Path: "a.go", Status: StatusModified}, {Path: "b.go", Status: StatusAdded}}
	stats := map[string]numstatEntry{"a.go": {added: 3, deleted: 1}}
	merged := mergeFileEntries(files, stats)
	if merged[0].LinesAdded != 3 || merged[0].LinesDeleted != 1 {
		t.Errorf("a.go counts = %d/%d, want 3/1", merged[0].LinesAdded, merged[0].LinesDeleted)
	}
	if merged[1].LinesAdded != 0 || merged[1].LinesDeleted != 0 {
		t.Errorf("b.go without numstat should keep zero counts, got %+v", merged[1])
	}
}
