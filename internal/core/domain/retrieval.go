package domain

// RetrievedChunk pairs an index entry with its similarity score for one
// query. Higher scores are more relevant.
type RetrievedChunk struct {
	// Entry is the matched index entry.
	Entry IndexEntry

	// Score is the similarity between the question and the chunk.
	Score float64
}

// RetrievalResult is the ephemeral, per-query outcome of retrieval:
// ranked passages, deduplicated by chunk ID, capped at the configured
// top-K. An empty result is a valid outcome meaning no indexed content
// was relevant enough; the orchestrator reports it as ungrounded.
type RetrievalResult struct {
	// Chunks is ordered descending by score.
	Chunks []RetrievedChunk
}

// Empty reports whether retrieval found nothing above the relevance
// threshold.
func (r RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

// ChunkIDs returns the retrieved chunk IDs in rank order.
func (r RetrievalResult) ChunkIDs() []string {
	ids := make([]string, len(r.Chunks))
	for i := range r.Chunks {
		ids[i] = r.Chunks[i].Entry.ChunkID
	}
	return ids
}

// RetrievalOptions tunes one retrieval call. Zero values fall back to
// configured defaults.
type RetrievalOptions struct {
	// TopK is the maximum number of passages to return.
	TopK int

	// MinScore drops passages scoring below this threshold. Results
	// emptied by the threshold are a valid ungrounded outcome.
	MinScore float64
}
