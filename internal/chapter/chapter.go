// Package chapter reads the chapter records produced by the scraping stage.
// A record is a JSON file with the chapter text plus the metadata needed to
// render the translated output.
package chapter

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Record is one chapter as scraped: identity fields plus the source text.
// URL and Source are passed through to rendering untouched.
type Record struct {
	Book    string `json:"book"`
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Load reads and validates a chapter record from a JSON file.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chapter file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode chapter file %s: %w", path, err)
	}

	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("chapter file %s: %w", path, err)
	}

	return &rec, nil
}

// Validate checks that the fields required by translation and rendering are
// present. It runs before any provider call is attempted.
func (r *Record) Validate() error {
	switch {
	case strings.TrimSpace(r.Book) == "":
		return fmt.Errorf("missing field: book")
	case r.Index < 0:
		return fmt.Errorf("invalid field: index %d", r.Index)
	case strings.TrimSpace(r.Title) == "":
		return fmt.Errorf("missing field: title")
	case r.Content == "":
		return fmt.Errorf("missing field: content")
	}
	return nil
}

// Document is the immutable source text of one chapter with its derived
// counts. It is created once per run and never mutated.
type Document struct {
	Content    string
	TotalLines int
	TotalChars int
}

// NewDocument derives the line and character counts from content.
// An empty content yields a zero Document.
func NewDocument(content string) Document {
	if content == "" {
		return Document{}
	}
	return Document{
		Content:    content,
		TotalLines: strings.Count(content, "\n") + 1,
		TotalChars: len([]rune(content)),
	}
}

// Document returns the record's content as a Document.
func (r *Record) Document() Document {
	return NewDocument(r.Content)
}
