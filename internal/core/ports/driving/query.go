package driving

import (
	"context"

	"github.com/custodia-labs/askbase/internal/core/domain"
)

// AskOptions tunes one query call. Zero values fall back to configured
// defaults.
type AskOptions struct {
	// TopK is the maximum number of passages to ground the answer on.
	TopK int

	// MinScore drops passages scoring below this threshold.
	MinScore float64

	// History holds prior question/answer pairs to include as
	// conversational context, most recent last.
	History []domain.Exchange
}

// AskResult pairs the synthesized answer with the evidence it was
// grounded on.
type AskResult struct {
	// Answer is the synthesized answer.
	Answer domain.Answer

	// Retrieved is the ranked evidence set handed to synthesis.
	Retrieved domain.RetrievalResult
}

// Querier answers natural-language questions using only the tenant's
// ingested material as grounding context.
type Querier interface {
	// Ask embeds the question, retrieves the tenant's most relevant
	// passages and synthesizes a grounded answer. When nothing relevant
	// is indexed, it returns an ungrounded Answer without invoking the
	// generation provider. Cancellation via ctx yields an error, never
	// a partial Answer.
	Ask(ctx context.Context, tenantID, question string, opts AskOptions) (*AskResult, error)

	// Retrieve runs retrieval only, returning the ranked passages for a
	// question without synthesis.
	Retrieve(ctx context.Context, tenantID, question string, opts domain.RetrievalOptions) (domain.RetrievalResult, error)
}
