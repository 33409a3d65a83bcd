package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codessa-project/inkwell/internal/models"
)

// DefaultPageSize is how many scrolls one page shows.
const DefaultPageSize = 5

// BrowsingState is the per-session pagination state. The UI layer owns its
// lifecycle: created when a session starts, discarded when it ends. The
// browser reads and mutates it but holds no session state of its own.
type BrowsingState struct {
	// PageIndex is the zero-based page currently shown.
	PageIndex int
	// Cursors[i] is the store cursor page i starts after; Cursors[0] is
	// always nil. Entries are appended the first time a page boundary is
	// crossed in browse mode. Unused in search mode.
	Cursors []Cursor
	// SearchTerm is the term the cursors and page index were built for.
	SearchTerm string
	// EditingID is the scroll currently being edited, if any. At most one
	// scroll is in the editing state per session.
	EditingID string
}

// NewBrowsingState returns the state for a fresh session: page 0, no
// cursors crossed, no search, nothing being edited.
func NewBrowsingState() *BrowsingState {
	return &BrowsingState{Cursors: []Cursor{nil}}
}

func (s *BrowsingState) reset(term string) {
	s.PageIndex = 0
	s.Cursors = []Cursor{nil}
	s.SearchTerm = term
	s.EditingID = ""
}

// StartEditing marks one scroll as being edited, silently exiting any
// prior edit without saving.
func (s *BrowsingState) StartEditing(id string) { s.EditingID = id }

// StopEditing exits the editing state.
func (s *BrowsingState) StopEditing() { s.EditingID = "" }

// Page is one screen of scrolls.
type Page struct {
	Scrolls     []*models.Scroll
	Index       int
	HasNext     bool
	HasPrevious bool
}

// PaginatedBrowser presents one page of scrolls at a time in one of two
// mutually exclusive modes: browse mode pages the document store with
// cursors, search mode pages the search index by page number and
// materializes the hits from the store. The mode is selected purely by
// whether a search term is present; callers never pick it themselves.
type PaginatedBrowser struct {
	store    DocumentStore
	index    SearchIndex
	pageSize int
	log      *slog.Logger
}

// NewPaginatedBrowser wires the browser to its collaborators. pageSize <= 0
// falls back to DefaultPageSize.
func NewPaginatedBrowser(store DocumentStore, index SearchIndex, pageSize int, log *slog.Logger) *PaginatedBrowser {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &PaginatedBrowser{store: store, index: index, pageSize: pageSize, log: log}
}

// CurrentPage fetches the page the state points at. A search term that
// differs from the state's previous term (including a transition to or from
// empty) hard-resets the state first: cursors captured in one mode, or for
// a different term, are never reused.
func (b *PaginatedBrowser) CurrentPage(ctx context.Context, scope TenantScope, state *BrowsingState, searchTerm string) (*Page, error) {
	if searchTerm != state.SearchTerm {
		state.reset(searchTerm)
	}
	if state.SearchTerm == "" {
		return b.browsePage(ctx, scope, state)
	}
	return b.searchPage(ctx, scope, state)
}

// Next advances to the following page. current must be the page most
// recently returned for this state; navigating exits any in-progress edit.
func (b *PaginatedBrowser) Next(ctx context.Context, scope TenantScope, state *BrowsingState, current *Page) (*Page, error) {
	if current == nil || !current.HasNext {
		return nil, ErrNoNextPage
	}
	state.PageIndex++
	state.EditingID = ""
	return b.CurrentPage(ctx, scope, state, state.SearchTerm)
}

// Previous steps back one page; navigating exits any in-progress edit.
func (b *PaginatedBrowser) Previous(ctx context.Context, scope TenantScope, state *BrowsingState) (*Page, error) {
	if state.PageIndex == 0 {
		return nil, ErrNoPreviousPage
	}
	state.PageIndex--
	state.EditingID = ""
	return b.CurrentPage(ctx, scope, state, state.SearchTerm)
}

func (b *PaginatedBrowser) browsePage(ctx context.Context, scope TenantScope, state *BrowsingState) (*Page, error) {
	var startAfter Cursor
	if state.PageIndex < len(state.Cursors) {
		startAfter = state.Cursors[state.PageIndex]
	}

	// Fetch one extra record; its presence tells us a next page exists.
	items, err := b.store.Query(ctx, ScrollQuery{
		Tenant:     scope.Tenant(),
		StartAfter: startAfter,
		Limit:      b.pageSize + 1,
	})
	if err != nil {
		return nil, err
	}

	hasNext := len(items) > b.pageSize
	if hasNext {
		items = items[:b.pageSize]
	}
	// Record the boundary cursor the first time this page edge is crossed.
	if hasNext && len(state.Cursors) == state.PageIndex+1 {
		state.Cursors = append(state.Cursors, items[len(items)-1].Cursor)
	}

	scrolls := make([]*models.Scroll, 0, len(items))
	for _, it := range items {
		scrolls = append(scrolls, it.Scroll)
	}
	return &Page{
		Scrolls:     scrolls,
		Index:       state.PageIndex,
		HasNext:     hasNext,
		HasPrevious: state.PageIndex > 0,
	}, nil
}

func (b *PaginatedBrowser) searchPage(ctx context.Context, scope TenantScope, state *BrowsingState) (*Page, error) {
	res, err := b.index.Search(ctx, SearchQuery{
		Term:     state.SearchTerm,
		Filter:   scope.SearchFilter(),
		Page:     state.PageIndex,
		PageSize: b.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	var scrolls []*models.Scroll
	if len(res.IDs) > 0 {
		batch, err := b.store.GetBatch(ctx, res.IDs)
		if err != nil {
			return nil, fmt.Errorf("failed to materialize search hits: %w", err)
		}
		// The batch fetch does not preserve order; restore the relevance
		// ranking the index returned. Hits with no store counterpart are
		// dropped (the bounded inconsistency window of a dual-write).
		byID := make(map[string]*models.Scroll, len(batch))
		for _, s := range batch {
			byID[s.ID] = s
		}
		for _, id := range res.IDs {
			if s, ok := byID[id]; ok {
				scrolls = append(scrolls, s)
			} else {
				b.log.Debug("search hit missing from store", "scroll_id", id, "tenant", scope.Tenant())
			}
		}
	}

	return &Page{
		Scrolls:     scrolls,
		Index:       state.PageIndex,
		HasNext:     state.PageIndex < res.TotalPages-1,
		HasPrevious: state.PageIndex > 0,
	}, nil
}
