package domain

import "time"

// SourceType identifies which collector produced a raw record.
type SourceType string

const (
	SourceNewsMedia   SourceType = "news_media"
	SourceSocialMedia SourceType = "social_media"
	SourceJobBoard    SourceType = "job_board"
)

// Valid reports whether the source type is one the engine understands.
func (s SourceType) Valid() bool {
	switch s {
	case SourceNewsMedia, SourceSocialMedia, SourceJobBoard:
		return true
	}
	return false
}

// RawRecord is one fetched item as delivered by the collection layer.
// Metrics carries source-specific numeric metadata: upvotes/comments for
// social posts, seniority and salary flags for job postings. The schema of
// Metrics is opaque to everything except the scorer.
type RawRecord struct {
	SourceType     SourceType         `json:"source_type"`
	Company        string             `json:"company"`
	NativeID       string             `json:"native_id,omitempty"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	ContentSnippet string             `json:"content_snippet,omitempty"`
	URL            string             `json:"url,omitempty"`
	PublishedAt    *time.Time         `json:"published_at,omitempty"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}
