// Package validator checks that a reassembled translation is a structurally
// complete rendering of its source. Line counts are a cheap proxy for "no
// paragraphs dropped"; character counts are the fallback signal because
// translation legitimately rewraps lines but should preserve rough content
// volume. Neither alone is reliable, hence the two-tier tolerance.
package validator

import (
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultLineTolerance is the accepted fraction of non-empty-line drift.
	DefaultLineTolerance = 0.10
	// DefaultLineCap accepts line drift up to this absolute count even when
	// the fractional tolerance is tighter.
	DefaultLineCap = 15
	// DefaultCharTolerance is the accepted fraction of character drift when
	// line counts disagree. The boundary is inclusive.
	DefaultCharTolerance = 0.10
)

// Report holds the counts a validation run derived. It is transient and
// never persisted.
type Report struct {
	OriginalLines   int
	TranslatedLines int
	OriginalChars   int
	TranslatedChars int
	Warning         string
}

// ValidationError carries the report of a rejected run.
type ValidationError struct {
	Report Report
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("translation incomplete: %d/%d non-empty lines, %d/%d chars",
		e.Report.TranslatedLines, e.Report.OriginalLines,
		e.Report.TranslatedChars, e.Report.OriginalChars)
}

// Validator applies the completeness tolerance policy.
type Validator struct {
	LineTolerance float64
	LineCap       int
	CharTolerance float64
}

// New creates a Validator with the default tolerances.
func New() *Validator {
	return &Validator{
		LineTolerance: DefaultLineTolerance,
		LineCap:       DefaultLineCap,
		CharTolerance: DefaultCharTolerance,
	}
}

// Validate accepts or rejects translated against original.
//
// Equal non-empty line counts accept outright. Otherwise line drift within
// max(1, round(LineTolerance·original)) lines, or within LineCap lines
// absolute, accepts with a warning. Failing that, character drift within
// CharTolerance of the original character count (inclusive) accepts with a
// warning; anything beyond rejects with a *ValidationError.
func (v *Validator) Validate(original, translated string) (Report, error) {
	report := Report{
		OriginalLines:   countNonEmptyLines(original),
		TranslatedLines: countNonEmptyLines(translated),
		OriginalChars:   len([]rune(original)),
		TranslatedChars: len([]rune(translated)),
	}

	if report.OriginalLines == report.TranslatedLines {
		return report, nil
	}

	lineDiff := absInt(report.OriginalLines - report.TranslatedLines)
	lineTolerance := int(math.Round(v.LineTolerance * float64(report.OriginalLines)))
	if lineTolerance < 1 {
		lineTolerance = 1
	}
	if lineDiff <= lineTolerance || lineDiff <= v.LineCap {
		report.Warning = fmt.Sprintf("line count drift %d (original %d, translated %d)",
			lineDiff, report.OriginalLines, report.TranslatedLines)
		return report, nil
	}

	charDiff := absInt(report.OriginalChars - report.TranslatedChars)
	if float64(charDiff) <= v.CharTolerance*float64(report.OriginalChars) {
		report.Warning = fmt.Sprintf("line counts diverge but char count drift %d of %d is acceptable",
			charDiff, report.OriginalChars)
		return report, nil
	}

	return report, &ValidationError{Report: report}
}

func countNonEmptyLines(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
