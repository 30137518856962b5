// Package render turns a validated translation into the chapter HTML file.
// Template lookup falls back in order: <source>-<book>.html, <source>.html,
// then the embedded default. Output lands at <book dir>/NNNN.html with the
// index zero-padded to four digits.
package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/valpere/knyhotran/internal/chapter"
)

//go:embed templates/default.html
var defaultTemplate string

// bookDirRe matches the characters replaced by underscores in book
// directory names.
var bookDirRe = regexp.MustCompile(`[^\p{L}\p{N}_\-]`)

// Data is the template context for one chapter page.
type Data struct {
	Book      string
	Title     string
	Content   template.HTML
	URL       string
	Source    string
	Index     int
	PrevIndex string
	NextIndex string
}

// Renderer renders chapter pages. templateDir may be empty, in which case
// only the embedded default template is used.
type Renderer struct {
	templateDir string
}

// New creates a Renderer looking up custom templates under templateDir.
func New(templateDir string) *Renderer {
	return &Renderer{templateDir: templateDir}
}

// Render produces the HTML page for rec with translated as the body text.
// Non-empty lines become <p> elements; empty lines are dropped.
func (r *Renderer) Render(rec *chapter.Record, translated string) (string, error) {
	tmpl, err := r.lookup(rec.Source, rec.Book)
	if err != nil {
		return "", err
	}

	data := Data{
		Book:      rec.Book,
		Title:     rec.Title,
		Content:   paragraphs(translated),
		URL:       rec.URL,
		Source:    rec.Source,
		Index:     rec.Index,
		PrevIndex: fmt.Sprintf("%04d", rec.Index-1),
		NextIndex: fmt.Sprintf("%04d", rec.Index+1),
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return sb.String(), nil
}

// lookup tries <source>-<book>.html, then <source>.html, then the embedded
// default.
func (r *Renderer) lookup(source, book string) (*template.Template, error) {
	if r.templateDir != "" && source != "" {
		candidates := []string{
			fmt.Sprintf("%s-%s.html", source, book),
			fmt.Sprintf("%s.html", source),
		}
		for _, name := range candidates {
			path := filepath.Join(r.templateDir, name)
			if _, err := os.Stat(path); err == nil {
				tmpl, err := template.ParseFiles(path)
				if err != nil {
					return nil, fmt.Errorf("parse template %s: %w", name, err)
				}
				return tmpl, nil
			}
		}
	}
	return template.Must(template.New("default").Parse(defaultTemplate)), nil
}

// paragraphs wraps each non-empty line of text in a <p> element. The line
// content is escaped; only the wrapping markup is trusted.
func paragraphs(text string) template.HTML {
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(template.HTMLEscapeString(line))
		sb.WriteString("</p>\n")
	}
	return template.HTML(sb.String())
}

// SanitizeBookDir maps a book title to a filesystem-safe directory name.
func SanitizeBookDir(book string) string {
	return bookDirRe.ReplaceAllString(book, "_")
}

// OutputPath returns the deterministic location for a chapter page.
func OutputPath(outDir, book string, index int) string {
	return filepath.Join(outDir, SanitizeBookDir(book), fmt.Sprintf("%04d.html", index))
}

// WriteFile renders rec and writes the page to its output path, creating
// the book directory if needed. It returns the written path.
func (r *Renderer) WriteFile(outDir string, rec *chapter.Record, translated string) (string, error) {
	html, err := r.Render(rec, translated)
	if err != nil {
		return "", err
	}

	path := OutputPath(outDir, rec.Book, rec.Index)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create book directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("write chapter file: %w", err)
	}
	return path, nil
}
