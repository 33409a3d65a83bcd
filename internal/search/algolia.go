// Package search adapts the Algolia client to the scroll search index
// contract used by the sync engine and the paginated browser.
package search

import (
	"context"
	"fmt"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	algoliasearch "github.com/algolia/algoliasearch-client-go/v3/algolia/search"

	"github.com/codessa-project/inkwell/internal/models"
	"github.com/codessa-project/inkwell/internal/services"
)

// DefaultIndexName is the Algolia index scroll records are mirrored into.
const DefaultIndexName = "codessa_scrolls"

// ScrollIndex implements services.SearchIndex on an Algolia index.
// Writes wait for the indexing task to settle so a caller that reads its
// own write sees it.
type ScrollIndex struct {
	index *algoliasearch.Index
}

// NewScrollIndex connects to Algolia with the given credentials.
func NewScrollIndex(appID, apiKey, indexName string) (*ScrollIndex, error) {
	if appID == "" || apiKey == "" {
		return nil, fmt.Errorf("NewScrollIndex: appID and apiKey cannot be empty")
	}
	if indexName == "" {
		indexName = DefaultIndexName
	}
	client := algoliasearch.NewClient(appID, apiKey)
	return &ScrollIndex{index: client.InitIndex(indexName)}, nil
}

func (s *ScrollIndex) Save(ctx context.Context, rec *models.SearchRecord) error {
	res, err := s.index.SaveObject(rec, ctx)
	if err != nil {
		return fmt.Errorf("algolia save %s: %w", rec.ObjectID, err)
	}
	if err := res.Wait(); err != nil {
		return fmt.Errorf("algolia save %s: %w", rec.ObjectID, err)
	}
	return nil
}

func (s *ScrollIndex) Update(ctx context.Context, upd models.SearchUpdate) error {
	res, err := s.index.PartialUpdateObject(upd, ctx, opt.CreateIfNotExists(false))
	if err != nil {
		return fmt.Errorf("algolia update %s: %w", upd.ObjectID, err)
	}
	if err := res.Wait(); err != nil {
		return fmt.Errorf("algolia update %s: %w", upd.ObjectID, err)
	}
	return nil
}

func (s *ScrollIndex) Delete(ctx context.Context, objectID string) error {
	res, err := s.index.DeleteObject(objectID, ctx)
	if err != nil {
		return fmt.Errorf("algolia delete %s: %w", objectID, err)
	}
	if err := res.Wait(); err != nil {
		return fmt.Errorf("algolia delete %s: %w", objectID, err)
	}
	return nil
}

// Search runs a filtered full-text query and returns the hit ids in
// Algolia's relevance order plus the total page count for the query.
func (s *ScrollIndex) Search(ctx context.Context, q services.SearchQuery) (*services.SearchResult, error) {
	res, err := s.index.Search(q.Term, ctx,
		opt.Page(q.Page),
		opt.HitsPerPage(q.PageSize),
		opt.Filters(q.Filter),
	)
	if err != nil {
		return nil, fmt.Errorf("algolia search %q: %w", q.Term, err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, ok := hit["objectID"].(string)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	return &services.SearchResult{IDs: ids, TotalPages: res.NbPages}, nil
}
