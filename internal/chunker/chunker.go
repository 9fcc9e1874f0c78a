// Package chunker splits extracted text into overlapping passages sized
// for an embedding model's context window.
//
// Splitting prefers paragraph and sentence boundaries and only falls
// back to hard token slicing when a single sentence exceeds the chunk
// capacity. Consecutive chunks share a configurable token overlap so a
// fact spanning a boundary is still retrievable. Chunking is
// deterministic: identical input and configuration always produce
// identical spans.
package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/askbase/internal/core/domain"
)

// DefaultMaxTokens is the default chunk size in whitespace tokens.
const DefaultMaxTokens = 200

// DefaultOverlapRatio derives the default overlap from the chunk size.
const DefaultOverlapRatio = 0.15

// Span is one chunk of the input text. Text is the exact substring
// [CharStart, CharEnd) of the input, so spacing and punctuation survive
// verbatim.
type Span struct {
	// Text is the chunk content.
	Text string

	// Position is the ordinal of the span within the input.
	Position int

	// CharStart and CharEnd delimit the span in the input, half-open.
	CharStart int
	CharEnd   int
}

// DefaultOverlap returns the default overlap for a chunk size.
func DefaultOverlap(maxTokens int) int {
	return int(float64(maxTokens) * DefaultOverlapRatio)
}

// Chunker splits text into overlapping token-bounded spans.
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// New creates a chunker. maxTokens must be positive and overlapTokens
// must be non-negative and strictly below maxTokens.
func New(maxTokens, overlapTokens int) (*Chunker, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: max tokens must be positive, got %d", domain.ErrInvalidConfig, maxTokens)
	}
	if overlapTokens < 0 {
		return nil, fmt.Errorf("%w: overlap tokens must be non-negative, got %d", domain.ErrInvalidConfig, overlapTokens)
	}
	if overlapTokens >= maxTokens {
		return nil, fmt.Errorf("%w: overlap %d must be below chunk size %d", domain.ErrInvalidConfig, overlapTokens, maxTokens)
	}
	return &Chunker{maxTokens: maxTokens, overlapTokens: overlapTokens}, nil
}

// MaxTokens returns the configured chunk size.
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// OverlapTokens returns the configured overlap.
func (c *Chunker) OverlapTokens() int {
	return c.overlapTokens
}

// token is one whitespace-delimited word with its position in the input.
type token struct {
	start int
	end   int
}

// unit is a half-open token range that never straddles a sentence
// boundary. Units are the packing granularity for chunks.
type unit struct {
	first int
	last  int // exclusive
}

// Chunk splits text into ordered overlapping spans.
// Returns domain.ErrEmptyInput when the text is empty or
// whitespace-only.
func (c *Chunker) Chunk(text string) ([]Span, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: nothing to chunk", domain.ErrEmptyInput)
	}

	tokens := tokenise(text)
	units := c.splitUnits(text, tokens)

	// Fresh units fill at most capacity tokens per chunk; the overlap
	// carried from the previous chunk rides on top, so a chunk never
	// exceeds maxTokens in total.
	capacity := c.maxTokens - c.overlapTokens
	if capacity <= 0 {
		capacity = 1
	}

	var spans []Span
	cur := units[0]
	fresh := cur.last - cur.first
	unitIdx := 1

	flush := func() {
		spans = append(spans, Span{
			Text:      text[tokens[cur.first].start:tokens[cur.last-1].end],
			Position:  len(spans),
			CharStart: tokens[cur.first].start,
			CharEnd:   tokens[cur.last-1].end,
		})
	}

	for unitIdx < len(units) {
		next := units[unitIdx]
		if fresh+next.last-next.first <= capacity {
			cur.last = next.last
			fresh += next.last - next.first
			unitIdx++
			continue
		}

		flush()

		// Carry the tail of the finished chunk as overlap.
		start := cur.last - c.overlapTokens
		if start <= cur.first {
			start = cur.first + 1
		}
		cur = unit{first: start, last: next.last}
		fresh = next.last - next.first
		unitIdx++
	}
	flush()

	return spans, nil
}

// splitUnits builds sentence units from the token stream, hard-slicing
// any sentence that alone exceeds the chunk capacity.
func (c *Chunker) splitUnits(text string, tokens []token) []unit {
	capacity := c.maxTokens - c.overlapTokens
	if capacity <= 0 {
		capacity = 1
	}

	var units []unit
	first := 0
	for i := range tokens {
		if i == len(tokens)-1 || breakAfter(text, tokens, i) {
			units = append(units, slice(unit{first: first, last: i + 1}, capacity)...)
			first = i + 1
		}
	}
	return units
}

// slice hard-splits a unit into capacity-sized pieces. A unit within
// capacity is returned unchanged.
func slice(u unit, capacity int) []unit {
	if u.last-u.first <= capacity {
		return []unit{u}
	}
	var out []unit
	for first := u.first; first < u.last; first += capacity {
		last := first + capacity
		if last > u.last {
			last = u.last
		}
		out = append(out, unit{first: first, last: last})
	}
	return out
}

// tokenise returns the whitespace-delimited tokens of text with byte
// offsets.
func tokenise(text string) []token {
	var tokens []token
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, token{start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{start: start, end: len(text)})
	}
	return tokens
}

// breakAfter reports whether a sentence or paragraph boundary follows
// token i. A blank line in the gap is a paragraph break; a token ending
// in a sentence terminator (optionally followed by a closing quote or
// bracket) is a sentence break.
func breakAfter(text string, tokens []token, i int) bool {
	gap := text[tokens[i].end:tokens[i+1].start]
	if strings.Count(gap, "\n") >= 2 {
		return true
	}

	word := strings.TrimRight(text[tokens[i].start:tokens[i].end], `"')]}`)
	if word == "" {
		return false
	}
	switch word[len(word)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
