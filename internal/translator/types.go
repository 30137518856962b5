// Package translator defines the provider boundary of the translation
// pipeline and the adapters behind it. The pipeline only sees one
// capability — translate text or fail — plus an error taxonomy that tells
// retrying apart from splitting: a TransientError may succeed on a retry of
// the same input, a SizeError never will.
package translator

import (
	"context"
	"fmt"
	"strings"
)

// Provider is a translation backend. Adapters must classify their failures
// as *SizeError or *TransientError; the pipeline treats anything else as
// transient.
type Provider interface {
	Name() string
	// Translate renders text according to systemPrompt. Adapters that have
	// no prompt channel (plain MT services) ignore systemPrompt.
	Translate(ctx context.Context, systemPrompt, text string) (string, error)
	// Available reports whether the provider is configured and reachable.
	Available(ctx context.Context) error
}

// SizeError reports that the provider rejected the input for exceeding its
// capacity. Retrying the same input is pointless; only splitting helps.
type SizeError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%s: input too large (status %d): %s", e.Provider, e.Status, e.Detail)
}

// TransientError reports a failure expected to be retry-recoverable without
// changing the input: network faults, rate limits, truncated responses.
type TransientError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: transient failure (status %d): %s", e.Provider, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: transient failure: %s", e.Provider, e.Detail)
}

// sizeMarkers are substrings of provider error messages that identify a
// token/length rejection regardless of the status code it rode in on.
var sizeMarkers = []string{
	"context_length_exceeded",
	"context length",
	"maximum context",
	"token limit",
	"tokens exceed",
	"too many tokens",
	"request entity too large",
	"payload size exceeds",
}

// classifyHTTP maps a non-OK HTTP response to the error taxonomy.
// 413 is an explicit over-size rejection. 504 is treated as one too: the
// gateway only times out on inputs long enough that shrinking them is the
// fix. Everything else retryable-looking (429, remaining 5xx) and any
// unrecognized status is transient — retries run out on genuinely dead
// endpoints and escalate to the same split-or-fail decision.
func classifyHTTP(provider string, status int, body string) error {
	lower := strings.ToLower(body)
	for _, marker := range sizeMarkers {
		if strings.Contains(lower, marker) {
			return &SizeError{Provider: provider, Status: status, Detail: truncateBody(body)}
		}
	}
	switch {
	case status == 413 || status == 504:
		return &SizeError{Provider: provider, Status: status, Detail: truncateBody(body)}
	default:
		return &TransientError{Provider: provider, Status: status, Detail: truncateBody(body)}
	}
}

func truncateBody(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > 300 {
		return body[:300] + "..."
	}
	return body
}
