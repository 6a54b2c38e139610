package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func writeNote(t *testing.T, root, rel string) {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("## Links\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScan_NewestFirst(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "2025/01/2025-01-02.md")
	writeNote(t, root, "2025/03/2025-03-15.md")
	writeNote(t, root, "2024/12/2024-12-31.md")

	files, err := New(root).Scan("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("len(files) = %d, want 3", len(files))
	}
	want := []string{"2025-03-15", "2025-01-02", "2024-12-31"}
	for i, f := range files {
		if got := f.Date.Format("2006-01-02"); got != want[i] {
			t.Errorf("files[%d] date = %s, want %s", i, got, want[i])
		}
	}
}

func TestScan_IgnoresNonDatedNames(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "2025-01-02.md")
	writeNote(t, root, "readme.md")
	writeNote(t, root, "2025-1-2.md")
	writeNote(t, root, "2025-01-02.txt")

	files, err := New(root).Scan("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("len(files) = %d, want 1", len(files))
	}
}

func TestScan_ImpossibleDateExcluded(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "2025-13-40.md")

	files, err := New(root).Scan("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("len(files) = %d, want 0", len(files))
	}
}

func TestScan_DateRangeInclusive(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "2025-01-01.md")
	writeNote(t, root, "2025-01-02.md")
	writeNote(t, root, "2025-01-03.md")
	writeNote(t, root, "2025-01-04.md")

	files, err := New(root).Scan("2025-01-02", "2025-01-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(files))
	}
	if files[0].Date.Format("2006-01-02") != "2025-01-03" {
		t.Errorf("first = %s, want 2025-01-03", files[0].Date.Format("2006-01-02"))
	}
}

func TestScan_BadRange(t *testing.T) {
	root := t.TempDir()
	if _, err := New(root).Scan("not-a-date", ""); err == nil {
		t.Fatal("expected error for malformed date_from")
	}
}
