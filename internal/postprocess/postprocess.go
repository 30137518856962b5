// Package postprocess removes common LLM artifacts from translation output
// before it enters the pipeline: reasoning blocks, prompt echoes, code
// fences, and whole-text quote wrapping.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean strips artifacts in order and returns the trimmed result. It is
// applied to the raw text of every LLM-backed provider; the plain MT
// adapters do not need it.
func Clean(text string) string {
	text = stripReasoning(text)
	text = stripEcho(text)
	text = stripCodeFence(text)
	text = stripQuoteWrap(text)
	return strings.TrimSpace(text)
}

// reasoningRe matches closed <think>-style blocks. Tag variants are spelled
// out because RE2 has no backreferences.
var reasoningRe = regexp.MustCompile(
	`(?is)<think>.*?</think>|<thinking>.*?</thinking>|<reasoning>.*?</reasoning>`,
)

// openReasoningRe matches a reasoning tag the model never closed.
var openReasoningRe = regexp.MustCompile(`(?is)(?:<think>|<thinking>|<reasoning>).*$`)

func stripReasoning(text string) string {
	text = reasoningRe.ReplaceAllString(text, "")
	text = openReasoningRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// echoRe matches introductory phrases some models prepend even when told
// not to. Anchored to the start and requiring a colon to avoid eating
// legitimate content.
var echoRe = regexp.MustCompile(
	`(?i)^(?:(?:certainly|sure|of course)[,.]?\s+)?here(?:'s| is)(?: the)? (?:translation|translated text)\s*:|^(?:the )?(?:translation|translated text)\s*:`,
)

func stripEcho(text string) string {
	if loc := echoRe.FindStringIndex(text); loc != nil && loc[0] == 0 {
		return strings.TrimSpace(text[loc[1]:])
	}
	return text
}

// codeFenceRe matches output wrapped entirely in a markdown fence.
var codeFenceRe = regexp.MustCompile("(?s)^```[a-z]*[ \\t]*\\n(.*?)\\n?```\\s*$")

func stripCodeFence(text string) string {
	if m := codeFenceRe.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		return m[1]
	}
	return text
}

// stripQuoteWrap removes one matching pair of outer quotes wrapping the
// whole text.
func stripQuoteWrap(text string) string {
	runes := []rune(strings.TrimSpace(text))
	n := len(runes)
	if n < 2 {
		return text
	}
	pairs := map[rune]rune{
		'"':      '"',
		'\'':     '\'',
		'«':      '»',
		'“': '”',
		'‘': '’',
	}
	if closer, ok := pairs[runes[0]]; ok && runes[n-1] == closer {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
