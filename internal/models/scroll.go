package models

import "time"

// Default metadata values assigned to every new scroll.
const (
	StatusPending = "Pending"
	PhaseMVP1     = "MVP-1"
)

// Length bounds for captured scroll text.
const (
	MinScrollTextLen = 10
	MaxScrollTextLen = 50000
)

// ScrollContent holds the captured raw text and the structured fields the
// reflection parser derives from it. RawText is immutable after creation;
// the derived fields may be edited.
type ScrollContent struct {
	RawText      string   `firestore:"raw_text" json:"raw_text"`
	Summary      string   `firestore:"summary" json:"summary"`
	Topics       []string `firestore:"topics" json:"topics"`
	Tools        []string `firestore:"tools" json:"tools"`
	Actions      []string `firestore:"actions" json:"actions"`
	Enhancements []string `firestore:"enhancements" json:"enhancements"`
}

// ScrollMetadata tracks lifecycle and ownership. CreatedBy is set once at
// creation and never changed. CreatedAt is assigned by the document store at
// write time (serverTimestamp) and is an opaque ordering key.
type ScrollMetadata struct {
	Status    string    `firestore:"status" json:"status"`
	Phase     string    `firestore:"phase" json:"phase"`
	CreatedBy string    `firestore:"created_by" json:"created_by"`
	CreatedAt time.Time `firestore:"created_at,serverTimestamp" json:"created_at"`
}

// Scroll is the unit of persisted knowledge: one captured, parsed note. The
// id doubles as the document id in the store and the objectID in the search
// index.
type Scroll struct {
	ID       string         `firestore:"scroll_id" json:"scroll_id"`
	Content  ScrollContent  `firestore:"content" json:"content"`
	Metadata ScrollMetadata `firestore:"metadata" json:"metadata"`
}

// ParsedContent is the structured payload the reflection parser extracts
// from raw text.
type ParsedContent struct {
	Summary      string   `json:"summary"`
	Topics       []string `json:"topics"`
	Tools        []string `json:"tools"`
	Actions      []string `json:"actions"`
	Enhancements []string `json:"enhancements"`
}

// FallbackParsedContent returns the fixed payload substituted when the
// parser is unreachable or returns something unusable.
func FallbackParsedContent() *ParsedContent {
	return &ParsedContent{
		Summary:      "Auto-summary not available.",
		Topics:       []string{"Example"},
		Tools:        []string{"Firestore"},
		Actions:      []string{"Define Firestore schema", "Build parser agent"},
		Enhancements: []string{"Add LLM-to-LLM threads"},
	}
}

// NewScroll builds a scroll from raw text and parsed fields, applying
// defaults for anything the parser left absent: a missing summary falls back
// to the fixed fallback summary, missing lists become empty (non-nil)
// slices. CreatedAt stays zero; the store assigns it at write time.
func NewScroll(id, tenant, rawText string, parsed *ParsedContent) *Scroll {
	if parsed == nil {
		parsed = &ParsedContent{}
	}
	summary := parsed.Summary
	if summary == "" {
		summary = FallbackParsedContent().Summary
	}
	return &Scroll{
		ID: id,
		Content: ScrollContent{
			RawText:      rawText,
			Summary:      summary,
			Topics:       orEmpty(parsed.Topics),
			Tools:        orEmpty(parsed.Tools),
			Actions:      orEmpty(parsed.Actions),
			Enhancements: orEmpty(parsed.Enhancements),
		},
		Metadata: ScrollMetadata{
			Status:    StatusPending,
			Phase:     PhaseMVP1,
			CreatedBy: tenant,
		},
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ScrollUpdate is the subset of content fields an edit may change.
type ScrollUpdate struct {
	Summary string   `json:"summary"`
	Topics  []string `json:"topics"`
}

// SearchRecordMetadata carries the tenant tag into the search index so
// queries can be filtered per user.
type SearchRecordMetadata struct {
	CreatedBy string `json:"created_by"`
}

// SearchRecord is the projection of a scroll mirrored into the search index.
// The scroll id travels as objectID, the index's primary key.
type SearchRecord struct {
	ObjectID     string               `json:"objectID"`
	RawText      string               `json:"raw_text"`
	Summary      string               `json:"summary"`
	Topics       []string             `json:"topics"`
	Tools        []string             `json:"tools"`
	Actions      []string             `json:"actions"`
	Enhancements []string             `json:"enhancements"`
	Metadata     SearchRecordMetadata `json:"metadata"`
}

// NewSearchRecord projects a scroll for indexing.
func NewSearchRecord(s *Scroll) *SearchRecord {
	return &SearchRecord{
		ObjectID:     s.ID,
		RawText:      s.Content.RawText,
		Summary:      s.Content.Summary,
		Topics:       s.Content.Topics,
		Tools:        s.Content.Tools,
		Actions:      s.Content.Actions,
		Enhancements: s.Content.Enhancements,
		Metadata:     SearchRecordMetadata{CreatedBy: s.Metadata.CreatedBy},
	}
}

// SearchUpdate carries the editable fields mirrored to the index on update.
type SearchUpdate struct {
	ObjectID string   `json:"objectID"`
	Summary  string   `json:"summary"`
	Topics   []string `json:"topics"`
}
