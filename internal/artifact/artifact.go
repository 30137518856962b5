// Package artifact persists debug dumps when completeness validation
// rejects a run: the original and the reassembled text, tagged with the
// chapter identity and a timestamp, for operator post-mortem. The channel
// is append-only and best-effort; it is never on the success path.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var tagRe = regexp.MustCompile(`[^\p{L}\p{N}_\-]`)

// Writer dumps rejected runs under one directory.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a Writer rooted at dir. The directory is created on
// first dump.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// DumpRejected writes <book>-<index>-<timestamp>.orig.txt and .trans.txt.
func (w *Writer) DumpRejected(book string, index int, original, translated string) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create debug directory: %w", err)
	}

	stem := fmt.Sprintf("%s-%04d-%s", tagRe.ReplaceAllString(book, "_"), index,
		w.now().Format("20060102-150405"))

	origPath := filepath.Join(w.dir, stem+".orig.txt")
	if err := os.WriteFile(origPath, []byte(original), 0o644); err != nil {
		return fmt.Errorf("write original dump: %w", err)
	}
	transPath := filepath.Join(w.dir, stem+".trans.txt")
	if err := os.WriteFile(transPath, []byte(translated), 0o644); err != nil {
		return fmt.Errorf("write translation dump: %w", err)
	}
	return nil
}
