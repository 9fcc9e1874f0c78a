package domain

// Answer is the ephemeral, per-query result of synthesis.
type Answer struct {
	// Text is the synthesized answer.
	Text string

	// CitedChunkIDs lists the retrieved chunks the model actually
	// referenced, in citation order. Always a subset of the supplied
	// passages; citations of unknown passages are dropped.
	CitedChunkIDs []string

	// Grounded is false when retrieval produced nothing above the
	// relevance threshold. An ungrounded Answer carries a fixed
	// insufficient-context message and never cost a generation call.
	Grounded bool
}

// Exchange is one prior question/answer pair supplied as optional
// conversational context for synthesis. Askbase keeps no multi-turn
// memory itself; callers pass history explicitly.
type Exchange struct {
	Question string
	Answer   string
}
