package render_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valpere/knyhotran/internal/chapter"
	"github.com/valpere/knyhotran/internal/render"
)

func testRecord() *chapter.Record {
	return &chapter.Record{
		Book:    "kobzar",
		Index:   3,
		Title:   "Розділ третій",
		Content: "оригінал",
		URL:     "https://example.com/kobzar/3",
		Source:  "example",
	}
}

func TestRender_DefaultTemplate(t *testing.T) {
	r := render.New("")
	html, err := r.Render(testRecord(), "Перший абзац.\n\nДругий абзац.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"<p>Перший абзац.</p>",
		"<p>Другий абзац.</p>",
		"Розділ третій",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRender_EscapesContent(t *testing.T) {
	r := render.New("")
	html, err := r.Render(testRecord(), "a <script>bad()</script> line")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("line content must be escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("escaped form missing")
	}
}

func TestRender_TemplateFallbackChain(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	r := render.New(dir)
	rec := testRecord()

	// No custom templates: embedded default.
	html, err := r.Render(rec, "текст")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<p>текст</p>") {
		t.Error("default template should render paragraphs")
	}

	// Source-level template beats the default.
	write("example.html", "SOURCE:{{.Title}}")
	html, err = r.Render(rec, "текст")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(html, "SOURCE:") {
		t.Errorf("expected source template, got %q", html)
	}

	// Book-specific template beats the source one.
	write("example-kobzar.html", "BOOK:{{.Book}}/{{.Index}}")
	html, err = r.Render(rec, "текст")
	if err != nil {
		t.Fatal(err)
	}
	if html != "BOOK:kobzar/3" {
		t.Errorf("expected book template, got %q", html)
	}
}

func TestSanitizeBookDir(t *testing.T) {
	tests := []struct{ in, want string }{
		{"kobzar", "kobzar"},
		{"The Great Book!", "The_Great_Book_"},
		{"a/b\\c", "a_b_c"},
		{"книга-перша", "книга-перша"},
	}
	for _, tt := range tests {
		if got := render.SanitizeBookDir(tt.in); got != tt.want {
			t.Errorf("SanitizeBookDir(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	got := render.OutputPath("out", "my book", 7)
	want := filepath.Join("out", "my_book", "0007.html")
	if got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	r := render.New("")

	path, err := r.WriteFile(dir, testRecord(), "зміст розділу")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "kobzar", "0003.html") {
		t.Errorf("unexpected path %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<p>зміст розділу</p>") {
		t.Error("written file missing rendered content")
	}
}
