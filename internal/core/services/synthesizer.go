package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/askbase/internal/core/domain"
	"github.com/custodia-labs/askbase/internal/core/ports/driven"
	"github.com/custodia-labs/askbase/internal/logger"
)

// Ensure Synthesizer supports prompt customisation.
var _ driven.PromptStoreAware = (*Synthesizer)(nil)

// Default synthesis parameters.
const (
	// defaultSynthesisMaxTokens bounds a generated answer.
	defaultSynthesisMaxTokens = 1024

	// defaultSynthesisTemperature keeps grounded answers close to the
	// supplied passages.
	defaultSynthesisTemperature = 0.1

	// maxHistoryExchanges caps how many prior Q/A pairs are carried
	// into the prompt.
	maxHistoryExchanges = 5

	// synthesisRetryDelay is the pause before the single retry after a
	// transport failure.
	synthesisRetryDelay = 500 * time.Millisecond
)

// defaultAnswerSystem restricts the model to the supplied passages. Used
// when no PromptStore is injected.
const defaultAnswerSystem = `You are an expert assistant analysing document content. Use only the numbered passages provided to answer the question.

Follow these guidelines:
1. Answer based ONLY on the provided passages
2. Cite the passages you used with their tags, e.g. [S1] or [S2]
3. Provide comprehensive but concise answers
4. Include relevant details, numbers, and facts when available
5. If referring to multiple points, use bullet points for clarity
6. If the passages do not contain relevant information, say so plainly`

// defaultInsufficientContext is returned without a generation call when
// retrieval found nothing relevant.
const defaultInsufficientContext = `I don't have enough information from the documents to answer this question accurately.`

// citationPattern matches passage tags like [S1] or [S12] in answer text.
var citationPattern = regexp.MustCompile(`\[S(\d+)\]`)

// Synthesizer turns a question plus retrieved passages into a grounded
// answer. It owns prompt assembly, citation parsing and answer
// post-processing; the LLM service only ever sees a finished prompt.
type Synthesizer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewSynthesizer creates an answer synthesizer backed by the given
// generation provider.
func NewSynthesizer(llm driven.LLMService) *Synthesizer {
	return &Synthesizer{llm: llm}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *Synthesizer) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Synthesize produces an answer to the question grounded on the
// retrieved passages. An empty retrieval yields an ungrounded Answer
// with a fixed message and never calls the provider. History, when
// present, is included in the prompt most recent last.
func (s *Synthesizer) Synthesize(
	ctx context.Context, question string, retrieved domain.RetrievalResult, history []domain.Exchange,
) (*domain.Answer, error) {
	if retrieved.Empty() {
		logger.Debug("No passages retrieved, returning ungrounded answer")
		return &domain.Answer{
			Text:     s.loadPrompt(driven.PromptInsufficientContext, defaultInsufficientContext),
			Grounded: false,
		}, nil
	}

	prompt := s.buildPrompt(question, retrieved, history)
	logger.Debug("Synthesis prompt: %d chars, %d passages", len(prompt), len(retrieved.Chunks))

	opts := driven.GenerateOptions{
		MaxTokens:   defaultSynthesisMaxTokens,
		Temperature: defaultSynthesisTemperature,
	}

	text, err := s.llm.Generate(ctx, prompt, opts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctxErr)
		}

		// One retry after a short pause, then give up.
		logger.Warn("Generation failed, retrying once: %v", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
		case <-time.After(synthesisRetryDelay):
		}

		text, err = s.llm.Generate(ctx, prompt, opts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctxErr)
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrSynthesis, err)
		}
	}

	text = strings.TrimSpace(text)
	cited := parseCitations(text, len(retrieved.Chunks))

	// Map tag indices back to chunk IDs in citation order.
	citedIDs := make([]string, 0, len(cited))
	for _, idx := range cited {
		citedIDs = append(citedIDs, retrieved.Chunks[idx].Entry.ChunkID)
	}

	return &domain.Answer{
		Text:          enhanceAnswer(text),
		CitedChunkIDs: citedIDs,
		Grounded:      true,
	}, nil
}

// buildPrompt assembles the full generation prompt: system instruction,
// optional conversation history, tagged passages and the question.
func (s *Synthesizer) buildPrompt(
	question string, retrieved domain.RetrievalResult, history []domain.Exchange,
) string {
	var b strings.Builder

	b.WriteString(s.loadPrompt(driven.PromptAnswerSystem, defaultAnswerSystem))
	b.WriteString("\n\n")

	if len(history) > 0 {
		// Keep only the most recent exchanges, oldest first in the prompt.
		start := 0
		if len(history) > maxHistoryExchanges {
			start = len(history) - maxHistoryExchanges
		}
		b.WriteString("Previous conversation:\n")
		for _, ex := range history[start:] {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", ex.Question, ex.Answer)
		}
		b.WriteString("\n")
	}

	b.WriteString("Passages:\n")
	for i, chunk := range retrieved.Chunks {
		fmt.Fprintf(&b, "[S%d] %s\n\n", i+1, chunk.Entry.Text)
	}

	fmt.Fprintf(&b, "Question: %s\n\nAnswer:", question)
	return b.String()
}

// loadPrompt returns the named prompt from the store, falling back to
// the embedded default when no store is set or loading fails.
func (s *Synthesizer) loadPrompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	prompt, err := s.prompts.Load(name)
	if err != nil {
		logger.Warn("Failed to load prompt %q, using default: %v", name, err)
		return fallback
	}
	return prompt
}

// parseCitations extracts passage tags from answer text and returns
// zero-based passage indices in first-citation order, deduplicated.
// Tags outside [1, supplied] are hallucinated and dropped.
func parseCitations(text string, supplied int) []int {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[int]bool)
	var indices []int
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > supplied {
			continue
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		indices = append(indices, n-1)
	}
	return indices
}

// enhanceAnswer reformats long multi-sentence answers as bullet points
// for readability. Short answers and hedged answers pass through
// untouched.
func enhanceAnswer(answer string) string {
	lowered := strings.ToLower(answer)
	vague := []string{
		"i don't know",
		"the context doesn't",
		"not mentioned",
		"no information",
		"i don't have enough information",
	}
	for _, phrase := range vague {
		if strings.Contains(lowered, phrase) {
			return answer
		}
	}

	// Already formatted answers pass through.
	if strings.Contains(answer, "\n•") || strings.Contains(answer, "\n-") {
		return answer
	}

	if len(strings.Fields(answer)) <= 50 {
		return answer
	}

	sentences := splitSentences(answer)
	if len(sentences) <= 3 {
		return answer
	}

	var bullets []string
	for _, sentence := range sentences {
		if len(strings.Fields(sentence)) <= 5 {
			continue
		}
		if !strings.HasSuffix(sentence, ".") && !strings.HasSuffix(sentence, "!") && !strings.HasSuffix(sentence, "?") {
			sentence += "."
		}
		bullets = append(bullets, "• "+sentence)
	}
	if len(bullets) < 2 {
		return answer
	}
	return strings.Join(bullets, "\n")
}

// splitSentences splits answer text on sentence boundaries. Good enough
// for bulletizing; not a linguistic segmenter.
func splitSentences(text string) []string {
	parts := strings.Split(text, ". ")
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}
