package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valpere/knyhotran/internal/chapter"
	"github.com/valpere/knyhotran/internal/splitter"
	"github.com/valpere/knyhotran/internal/validator"
)

// DefaultWorkers bounds how many initial chunks translate concurrently.
const DefaultWorkers = 4

// RejectionSink receives the original and reassembled texts when
// completeness validation rejects a run. Writes are best-effort.
type RejectionSink interface {
	DumpRejected(book string, index int, original, translated string) error
}

// Runner sequences one document translation: split, translate each initial
// chunk, reassemble, validate.
type Runner struct {
	splitter   *splitter.Splitter
	translator *Translator
	validator  *validator.Validator
	sink       RejectionSink
	workers    int
	log        *slog.Logger
}

// NewRunner builds a Runner. sink may be nil to skip rejection dumps;
// workers <= 0 takes DefaultWorkers.
func NewRunner(sp *splitter.Splitter, tr *Translator, v *validator.Validator, sink RejectionSink, workers int, log *slog.Logger) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		splitter:   sp,
		translator: tr,
		validator:  v,
		sink:       sink,
		workers:    workers,
		log:        log,
	}
}

// TranslateDocument translates doc and returns the validated, reassembled
// text. Initial chunks run on a bounded worker pool; the first terminal
// chunk failure cancels the rest, and the runner waits for every in-flight
// chunk to settle before reporting. book and index tag rejection dumps.
func (r *Runner) TranslateDocument(ctx context.Context, doc chapter.Document, book string, index int) (string, error) {
	chunks := r.splitter.InitialSplit(doc.Content)
	if len(chunks) == 0 {
		return "", nil
	}
	r.log.Info("document split", "chunks", len(chunks), "lines", doc.TotalLines, "chars", doc.TotalChars)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type chunkResult struct {
		outcomes []Outcome
		err      error
	}
	results := make(chan chunkResult, len(chunks))
	sem := make(chan struct{}, r.workers)

	for _, c := range chunks {
		go func(c splitter.Chunk) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- chunkResult{err: ctx.Err()}
				return
			}
			outcomes, err := r.translator.ProcessChunk(ctx, c)
			results <- chunkResult{outcomes: outcomes, err: err}
		}(c)
	}

	// Collect every result so no worker outlives the run. The first failure
	// cancels the rest; their cancellation errors are discarded.
	var all []Outcome
	var firstErr error
	for range chunks {
		res := <-results
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
				cancel()
			}
			continue
		}
		all = append(all, res.outcomes...)
	}
	if firstErr != nil {
		return "", firstErr
	}

	// Every leaf resolves exactly once.
	seen := make(map[string]struct{}, len(all))
	for _, o := range all {
		key := o.Path.String()
		if _, dup := seen[key]; dup {
			return "", fmt.Errorf("duplicate outcome for chunk %s", key)
		}
		seen[key] = struct{}{}
	}

	text := Reassemble(all)

	report, err := r.validator.Validate(doc.Content, text)
	if err != nil {
		r.log.Error("completeness validation rejected translation",
			"original_lines", report.OriginalLines,
			"translated_lines", report.TranslatedLines,
			"original_chars", report.OriginalChars,
			"translated_chars", report.TranslatedChars)
		if r.sink != nil {
			if dumpErr := r.sink.DumpRejected(book, index, doc.Content, text); dumpErr != nil {
				r.log.Warn("failed to write rejection dump", "error", dumpErr)
			}
		}
		return "", fmt.Errorf("completeness validation: %w", err)
	}
	if report.Warning != "" {
		r.log.Warn("completeness validation passed with warning", "warning", report.Warning)
	}

	return text, nil
}
