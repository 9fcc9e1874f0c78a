package domain

import "time"

// SourceOrigin identifies how a source's text entered the system.
type SourceOrigin string

// Source origins.
const (
	// OriginUpload marks text extracted from an uploaded document.
	OriginUpload SourceOrigin = "upload"

	// OriginScrape marks text extracted from a scraped web page.
	OriginScrape SourceOrigin = "scrape"
)

// Valid reports whether the origin is a known value.
func (o SourceOrigin) Valid() bool {
	return o == OriginUpload || o == OriginScrape
}

// Source represents one ingested unit of text. The text itself arrives
// already extracted; Askbase never parses file formats or fetches pages.
// A Source is immutable after ingestion and removed only by explicit
// tenant action.
type Source struct {
	// ID is the unique identifier for the source within its tenant.
	ID string

	// TenantID scopes the source to one tenant. Every entity derived
	// from this source carries the same tenant.
	TenantID string

	// Origin records whether the text came from an upload or a scrape.
	Origin SourceOrigin

	// Title is the human-readable title (filename, page title).
	Title string

	// ChunkCount is the number of chunks produced at ingestion.
	ChunkCount int

	// IngestedAt is when ingestion completed.
	IngestedAt time.Time
}

// ExtractedText is the input handed to ingestion by the text extraction
// collaborator: plain text plus identifying metadata. Askbase treats it
// as opaque content.
type ExtractedText struct {
	// SourceID is the caller-assigned source identifier. When empty,
	// ingestion assigns one.
	SourceID string

	// Title is the human-readable title for the source.
	Title string

	// Origin records where the text came from.
	Origin SourceOrigin

	// Text is the full extracted text.
	Text string
}
