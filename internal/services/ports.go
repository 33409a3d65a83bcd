package services

import (
	"context"

	"github.com/codessa-project/inkwell/internal/models"
)

// Cursor is an opaque store position used to resume pagination. Only the
// DocumentStore that produced a cursor can interpret it.
type Cursor any

// ScrollQuery selects one tenant's scrolls ordered by metadata.created_at
// descending, with store insertion order breaking ties.
type ScrollQuery struct {
	Tenant     string
	StartAfter Cursor // nil starts from the newest record
	Limit      int
}

// QueryItem pairs a scroll with the cursor marking its position in the
// query ordering, so a later query can resume just after it.
type QueryItem struct {
	Scroll *models.Scroll
	Cursor Cursor
}

// DocumentStore is the store of record for scrolls.
type DocumentStore interface {
	Put(ctx context.Context, scroll *models.Scroll) error
	// Get returns ErrScrollNotFound when the id does not exist.
	Get(ctx context.Context, id string) (*models.Scroll, error)
	Update(ctx context.Context, id string, changes models.ScrollUpdate) error
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, q ScrollQuery) ([]QueryItem, error)
	// GetBatch returns the scrolls for the given ids in no particular
	// order; absent ids are skipped.
	GetBatch(ctx context.Context, ids []string) ([]*models.Scroll, error)
}

// SearchQuery is a relevance-ranked page request against the search index.
type SearchQuery struct {
	Term     string
	Filter   string // tenant isolation predicate, see TenantScope.SearchFilter
	Page     int    // zero-based
	PageSize int
}

// SearchResult carries the ranked object ids of one page plus the total
// page count the index reports for the query.
type SearchResult struct {
	IDs        []string
	TotalPages int
}

// SearchIndex mirrors scroll projections for full-text retrieval.
type SearchIndex interface {
	Save(ctx context.Context, rec *models.SearchRecord) error
	Update(ctx context.Context, upd models.SearchUpdate) error
	Delete(ctx context.Context, objectID string) error
	Search(ctx context.Context, q SearchQuery) (*SearchResult, error)
}

// Parser extracts structured fields from raw text.
type Parser interface {
	Parse(ctx context.Context, text string) (*models.ParsedContent, error)
}

// TenantAuthority resolves a session credential into an identity. The core
// treats the result as opaque input and never validates it itself.
type TenantAuthority interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
