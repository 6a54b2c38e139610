package parser

import (
	"testing"
)

func parse(t *testing.T, content string) []linkCheck {
	t.Helper()
	links := ParseFile("/notes/2025/03/2025-03-15.md", []byte(content))
	out := make([]linkCheck, len(links))
	for i, l := range links {
		out[i] = linkCheck{l.URL, l.Title, l.Description, l.IndentLevel, l.ParentURL}
	}
	return out
}

type linkCheck struct {
	url, title, desc string
	indent           int
	parent           string
}

func TestParseFile_Hierarchy(t *testing.T) {
	content := "# Daily\n\n## Links\n" +
		"- [A](http://a.test)\n" +
		"    - [B](http://b.test)\n" +
		"- bare note - http://c.test\n" +
		"\n## Tasks\n- [ignored](http://d.test)\n"

	got := parse(t, content)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3: %+v", len(got), got)
	}
	if got[0] != (linkCheck{"http://a.test", "A", "", 0, ""}) {
		t.Errorf("A = %+v", got[0])
	}
	if got[1] != (linkCheck{"http://b.test", "B", "", 1, "http://a.test"}) {
		t.Errorf("B = %+v", got[1])
	}
	if got[2] != (linkCheck{"http://c.test", "", "bare note", 0, ""}) {
		t.Errorf("C = %+v", got[2])
	}
}

func TestParseFile_NoSection(t *testing.T) {
	if got := parse(t, "# Daily\n- http://a.test\n"); len(got) != 0 {
		t.Fatalf("expected no links, got %+v", got)
	}
}

func TestParseFile_SectionRunsToEOF(t *testing.T) {
	got := parse(t, "## Links\n- http://a.test\n- http://b.test")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}

func TestParseFile_BareURLDescription(t *testing.T) {
	got := parse(t, "## Links\n- cool read - https://x.test/p\n")
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].url != "https://x.test/p" || got[0].desc != "cool read" {
		t.Errorf("got %+v", got[0])
	}
}

func TestParseFile_InlineLinkWithTrailingText(t *testing.T) {
	got := parse(t, "## Links\n- [Title](http://a.test) - worth a look\n")
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].title != "Title" || got[0].desc != "worth a look" {
		t.Errorf("got %+v", got[0])
	}
}

func TestParseFile_MixedTabAndSpaceIndent(t *testing.T) {
	content := "## Links\n" +
		"- http://root.test\n" +
		"\t- http://tab.test\n" +
		"\t    - http://deep.test\n"
	got := parse(t, content)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[1].indent != 1 || got[1].parent != "http://root.test" {
		t.Errorf("tab child = %+v", got[1])
	}
	if got[2].indent != 2 || got[2].parent != "http://tab.test" {
		t.Errorf("deep child = %+v", got[2])
	}
}

func TestParseFile_LineWithoutURLSkippedAndNotPushed(t *testing.T) {
	content := "## Links\n" +
		"- just a thought, no link\n" +
		"    - http://child.test\n"
	got := parse(t, content)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	// The unparsable line opened no subtree, so the nested link has no parent.
	if got[0].parent != "" {
		t.Errorf("parent = %q, want empty", got[0].parent)
	}
}

func TestParseFile_SiblingAfterChildPopsStack(t *testing.T) {
	content := "## Links\n" +
		"- http://a.test\n" +
		"    - http://a1.test\n" +
		"- http://b.test\n"
	got := parse(t, content)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[2].parent != "" {
		t.Errorf("sibling parent = %q, want empty", got[2].parent)
	}
}

func TestParseFile_DuplicateURLsBothEmitted(t *testing.T) {
	got := parse(t, "## Links\n- http://a.test\n- again http://a.test\n")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}

func TestParseFile_SourceDateFromFilename(t *testing.T) {
	links := ParseFile("/n/2025-03-15.md", []byte("## Links\n- http://a.test\n"))
	if len(links) != 1 {
		t.Fatal("expected one link")
	}
	if got := links[0].SourceDate.Format("2006-01-02"); got != "2025-03-15" {
		t.Errorf("source date = %s", got)
	}
}
