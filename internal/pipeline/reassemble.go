package pipeline

import (
	"sort"
	"strings"
)

// Reassemble restores translated leaves to document order and joins them
// back into one text. Leaves are sorted by path (lexicographic, so a
// bisected branch's halves land exactly where the parent was), empty
// bisection halves contribute nothing, and glued leaves rejoin their
// predecessor without the newline that line-level splits consumed.
func Reassemble(outcomes []Outcome) string {
	sorted := make([]Outcome, len(outcomes))
	copy(sorted, outcomes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path.Compare(sorted[j].Path) < 0
	})

	var sb strings.Builder
	first := true
	for _, o := range sorted {
		if o.Lines == 0 && o.Text == "" {
			continue
		}
		if !first && !o.Glued {
			sb.WriteString("\n")
		}
		sb.WriteString(o.Text)
		first = false
	}
	return sb.String()
}
