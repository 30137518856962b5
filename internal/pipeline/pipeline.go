// Package pipeline implements the adaptive chunk-translation pipeline: it
// feeds chunks to a translation provider, retries transient failures in
// place, bisects chunks the provider cannot handle, and reassembles the
// translated leaves in document order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/valpere/knyhotran/internal/splitter"
	"github.com/valpere/knyhotran/internal/translator"
)

const (
	// DefaultMaxRetries is the total number of attempts per chunk at one
	// size, including the first.
	DefaultMaxRetries = 5
	// DefaultRetryDelay is the fixed wait between attempts on the same chunk.
	DefaultRetryDelay = 5 * time.Second
	// DefaultFloorChars is the minimum chunk length in runes below which
	// bisection is disallowed. Failure at the floor is terminal.
	DefaultFloorChars = 500

	// A response this much shorter than a long input is a truncated
	// transfer, not a translation: inputs over shortInputChars runes that
	// come back under shortOutputChars are retried as transient failures.
	shortInputChars  = 200
	shortOutputChars = 200
)

// ErrRetriesExhausted marks a chunk that kept failing transiently through
// every allowed attempt at its current size.
var ErrRetriesExhausted = errors.New("retries exhausted")

// ChunkError is the terminal failure of a single chunk, which fails the
// whole document.
type ChunkError struct {
	Path splitter.Path
	Err  error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %s: %v", e.Path, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Outcome pairs a leaf chunk with its translated text.
type Outcome struct {
	Path  splitter.Path
	Text  string
	Lines int
	Glued bool
}

// Memory is the optional chunk-level translation cache consulted before
// each provider call. Lookups and saves are best-effort.
type Memory interface {
	GetChunk(ctx context.Context, sourceText, targetLang, provider string) (string, bool, error)
	SaveChunk(ctx context.Context, sourceText, targetLang, provider, translatedText string) error
}

// Options tune a Translator. Zero values take the defaults above.
type Options struct {
	MaxRetries   int
	RetryDelay   time.Duration
	FloorChars   int
	SystemPrompt string
	TargetLang   string
	// RateLimit caps provider calls per second across all workers.
	// Zero means unlimited.
	RateLimit float64
}

// Translator resolves one chunk tree against a provider. It is safe for
// concurrent use; the retry delay of one chunk never blocks another.
type Translator struct {
	provider translator.Provider
	memory   Memory
	limiter  *rate.Limiter
	opts     Options
	log      *slog.Logger
}

// NewTranslator wraps provider with retry, bisection, and optional caching.
// memory and log may be nil.
func NewTranslator(provider translator.Provider, memory Memory, opts Options, log *slog.Logger) *Translator {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.FloorChars <= 0 {
		opts.FloorChars = DefaultFloorChars
	}
	if log == nil {
		log = slog.Default()
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Translator{
		provider: provider,
		memory:   memory,
		limiter:  limiter,
		opts:     opts,
		log:      log,
	}
}

// ProcessChunk resolves chunk and every descendant it spawns, returning one
// outcome per leaf. The split tree is walked with an explicit depth-first
// stack, so paths come out in document order and recursion depth cannot
// overflow. Any terminal leaf failure aborts with a ChunkError; the caller
// must treat that as fatal for the whole document.
func (t *Translator) ProcessChunk(ctx context.Context, chunk splitter.Chunk) ([]Outcome, error) {
	stack := []splitter.Chunk{chunk}
	var outcomes []Outcome

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Blank chunks (empty bisection halves, whitespace runs) resolve
		// without a provider call, keeping the leaf set exact.
		if strings.TrimSpace(c.Text) == "" {
			outcomes = append(outcomes, Outcome{Path: c.Path, Text: c.Text, Lines: c.Lines, Glued: c.Glued})
			continue
		}

		text, err := t.translateWithRetry(ctx, c)
		if err == nil {
			outcomes = append(outcomes, Outcome{Path: c.Path, Text: text, Lines: c.Lines, Glued: c.Glued})
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// Size failure or exhausted retries: shrink if the floor permits.
		if len([]rune(c.Text)) < t.opts.FloorChars {
			return nil, &ChunkError{Path: c.Path, Err: err}
		}

		left, right := splitter.Bisect(c)
		t.log.Info("bisecting chunk",
			"path", c.Path.String(),
			"chars", len([]rune(c.Text)),
			"reason", err.Error())
		stack = append(stack, right, left)
	}

	return outcomes, nil
}

// translateWithRetry attempts one chunk at its current size. Transient
// failures are retried with a fixed delay; a size failure returns
// immediately so the caller can bisect. The returned error is either a
// *translator.SizeError or wraps ErrRetriesExhausted.
func (t *Translator) translateWithRetry(ctx context.Context, c splitter.Chunk) (string, error) {
	if t.memory != nil {
		cached, found, err := t.memory.GetChunk(ctx, c.Text, t.opts.TargetLang, t.provider.Name())
		if err != nil {
			t.log.Warn("chunk cache lookup failed", "path", c.Path.String(), "error", err)
		} else if found {
			t.log.Debug("chunk cache hit", "path", c.Path.String())
			return cached, nil
		}
	}

	var lastErr error
	for attempt := 1; attempt <= t.opts.MaxRetries; attempt++ {
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		out, err := t.provider.Translate(ctx, t.opts.SystemPrompt, c.Text)
		if err == nil {
			err = checkResponse(c.Text, out)
		}
		if err == nil {
			if t.memory != nil {
				if saveErr := t.memory.SaveChunk(ctx, c.Text, t.opts.TargetLang, t.provider.Name(), out); saveErr != nil {
					t.log.Warn("chunk cache save failed", "path", c.Path.String(), "error", saveErr)
				}
			}
			return out, nil
		}

		var sizeErr *translator.SizeError
		if errors.As(err, &sizeErr) {
			// Never retried verbatim; only splitting can help.
			return "", err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		if attempt < t.opts.MaxRetries {
			t.log.Warn("transient translation failure",
				"path", c.Path.String(),
				"attempt", attempt,
				"delay", t.opts.RetryDelay,
				"error", err)
			select {
			case <-time.After(t.opts.RetryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, t.opts.MaxRetries, lastErr)
}

// checkResponse classifies a nominally successful provider response.
func checkResponse(input, output string) error {
	if output == "" {
		return &translator.TransientError{Detail: "empty translation"}
	}
	in, out := len([]rune(input)), len([]rune(output))
	if in > shortInputChars && out < shortOutputChars {
		return &translator.TransientError{
			Detail: fmt.Sprintf("short response: %d chars for %d char input", out, in),
		}
	}
	return nil
}
