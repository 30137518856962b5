// Package splitter divides chapter text into line-range chunks labelled with
// split-tree paths. The initial split produces fixed-size line groups; any
// chunk the translation provider cannot handle is bisected into two labelled
// halves. Concatenating the leaves of any split tree in path order
// reconstructs the source text exactly.
package splitter

import (
	"strconv"
	"strings"
)

// DefaultChunkLines is the line count of each initial chunk.
const DefaultChunkLines = 100

// Path identifies a chunk's position in the split tree: [3] is the third
// initial chunk, [3 1] the first half after one bisection, and so on.
// Paths sort lexicographically, which is exactly document order.
type Path []int

// Child returns a copy of p extended with n.
func (p Path) Child(n int) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)
	return append(child, n)
}

// String renders the path as dot-separated positions, e.g. "3.1.2".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// Compare orders paths lexicographically. A path sorts before any of its
// own extensions, so leaves of uneven split depth interleave correctly.
func (p Path) Compare(q Path) int {
	for i := 0; i < len(p) && i < len(q); i++ {
		if p[i] != q[i] {
			if p[i] < q[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(p) < len(q):
		return -1
	case len(p) > len(q):
		return 1
	}
	return 0
}

// Chunk is a contiguous slice of the document submitted to the provider as
// one request. Lines is the number of source lines the chunk covers; a
// zero-line chunk is the empty half of a bisection and carries no content.
// Glued marks a chunk produced by a character-level split: when reassembling
// it joins its predecessor directly, without a newline.
type Chunk struct {
	Path  Path
	Text  string
	Lines int
	Glued bool
}

// Splitter performs the initial fixed-size split. It is pure: no provider
// calls, same output for the same input.
type Splitter struct {
	chunkLines int
}

// New creates a Splitter producing initial chunks of chunkLines lines each.
// Non-positive values fall back to DefaultChunkLines.
func New(chunkLines int) *Splitter {
	if chunkLines <= 0 {
		chunkLines = DefaultChunkLines
	}
	return &Splitter{chunkLines: chunkLines}
}

// InitialSplit divides content into consecutive groups of chunkLines lines.
// The last group may be shorter. Chunk i (1-based) gets path [i]. Empty
// content yields no chunks.
func (s *Splitter) InitialSplit(content string) []Chunk {
	if content == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	var chunks []Chunk
	for start := 0; start < len(lines); start += s.chunkLines {
		end := start + s.chunkLines
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, Chunk{
			Path:  Path{len(chunks) + 1},
			Text:  strings.Join(lines[start:end], "\n"),
			Lines: end - start,
		})
	}
	return chunks
}

// Bisect splits c into two ordered halves with paths c.Path+[1] and
// c.Path+[2]. Chunks spanning two or more lines split at floor(lines/2),
// consuming the separating newline (reassembly re-adds it). A single-line
// chunk has no line boundary to split at, so it splits at the rune midpoint
// instead and the right half is marked Glued. Either way both halves are
// strictly smaller than c whenever c holds at least two runes, so repeated
// bisection always reaches the character floor.
func Bisect(c Chunk) (Chunk, Chunk) {
	if c.Lines >= 2 {
		lines := strings.Split(c.Text, "\n")
		mid := len(lines) / 2
		left := Chunk{
			Path:  c.Path.Child(1),
			Text:  strings.Join(lines[:mid], "\n"),
			Lines: mid,
			Glued: c.Glued,
		}
		right := Chunk{
			Path:  c.Path.Child(2),
			Text:  strings.Join(lines[mid:], "\n"),
			Lines: len(lines) - mid,
		}
		return left, right
	}

	runes := []rune(c.Text)
	mid := len(runes) / 2
	left := Chunk{
		Path:  c.Path.Child(1),
		Text:  string(runes[:mid]),
		Lines: c.Lines,
		Glued: c.Glued,
	}
	right := Chunk{
		Path:  c.Path.Child(2),
		Text:  string(runes[mid:]),
		Glued: true,
	}
	if mid == 0 {
		// Left half is empty; the line (if any) stays with the right half.
		left.Lines = 0
		right.Lines = c.Lines
		right.Glued = c.Glued
	}
	return left, right
}
