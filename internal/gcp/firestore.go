package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/codessa-project/inkwell/internal/models"
	"github.com/codessa-project/inkwell/internal/services"
)

// DefaultScrollCollection is the Firestore collection scrolls live in.
const DefaultScrollCollection = "scrolls"

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
// It centralizes client creation for all services.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// ScrollStore implements services.DocumentStore on Firestore. Cursors are
// *firestore.DocumentSnapshot values: they carry the created_at ordering
// key plus the document id Firestore uses to break ties, so pagination
// resumes exactly where a page ended regardless of client clocks.
type ScrollStore struct {
	client     *firestore.Client
	collection string
}

// NewScrollStore wraps a Firestore client for the scroll collection.
func NewScrollStore(client *firestore.Client, collection string) *ScrollStore {
	if collection == "" {
		collection = DefaultScrollCollection
	}
	return &ScrollStore{client: client, collection: collection}
}

func (s *ScrollStore) docs() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

// Put writes a scroll under its id. The serverTimestamp tag on
// metadata.created_at makes Firestore assign the write time.
func (s *ScrollStore) Put(ctx context.Context, scroll *models.Scroll) error {
	if _, err := s.docs().Doc(scroll.ID).Set(ctx, scroll); err != nil {
		return fmt.Errorf("firestore set %s: %w", scroll.ID, err)
	}
	return nil
}

func (s *ScrollStore) Get(ctx context.Context, id string) (*models.Scroll, error) {
	snap, err := s.docs().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, services.ErrScrollNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore get %s: %w", id, err)
	}
	return decodeScroll(snap)
}

// Update applies the editable content fields only; everything else in the
// document is left untouched.
func (s *ScrollStore) Update(ctx context.Context, id string, changes models.ScrollUpdate) error {
	updates := []firestore.Update{
		{Path: "content.summary", Value: changes.Summary},
		{Path: "content.topics", Value: changes.Topics},
	}
	_, err := s.docs().Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return services.ErrScrollNotFound
	}
	if err != nil {
		return fmt.Errorf("firestore update %s: %w", id, err)
	}
	return nil
}

func (s *ScrollStore) Delete(ctx context.Context, id string) error {
	if _, err := s.docs().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore delete %s: %w", id, err)
	}
	return nil
}

// Query pages one tenant's scrolls newest-first. The query needs a
// composite index on (metadata.created_by, metadata.created_at DESC);
// without it Firestore answers FAILED_PRECONDITION, which is mapped to
// services.IndexConfigurationError so callers can surface the remediation.
func (s *ScrollStore) Query(ctx context.Context, q services.ScrollQuery) ([]services.QueryItem, error) {
	query := s.docs().
		Where("metadata.created_by", "==", q.Tenant).
		OrderBy("metadata.created_at", firestore.Desc)
	if q.StartAfter != nil {
		snap, ok := q.StartAfter.(*firestore.DocumentSnapshot)
		if !ok {
			return nil, fmt.Errorf("unrecognized cursor type %T", q.StartAfter)
		}
		query = query.StartAfter(snap)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var items []services.QueryItem
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if status.Code(err) == codes.FailedPrecondition {
			return nil, &services.IndexConfigurationError{Err: err}
		}
		if err != nil {
			return nil, fmt.Errorf("firestore query: %w", err)
		}
		scroll, err := decodeScroll(snap)
		if err != nil {
			return nil, err
		}
		items = append(items, services.QueryItem{Scroll: scroll, Cursor: snap})
	}
	return items, nil
}

// GetBatch fetches scrolls by id in one round trip. The contract promises
// no ordering: callers re-order themselves. Missing ids are skipped.
func (s *ScrollStore) GetBatch(ctx context.Context, ids []string) ([]*models.Scroll, error) {
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, s.docs().Doc(id))
	}
	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("firestore batch get: %w", err)
	}
	scrolls := make([]*models.Scroll, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		scroll, err := decodeScroll(snap)
		if err != nil {
			return nil, err
		}
		scrolls = append(scrolls, scroll)
	}
	return scrolls, nil
}

// Walk streams scrolls to fn, newest-first, optionally narrowed to one
// tenant. Used by the operational commands (reindex, export), not by the
// request path.
func (s *ScrollStore) Walk(ctx context.Context, tenant string, fn func(*models.Scroll) error) error {
	query := s.docs().OrderBy("metadata.created_at", firestore.Desc)
	if tenant != "" {
		query = s.docs().
			Where("metadata.created_by", "==", tenant).
			OrderBy("metadata.created_at", firestore.Desc)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if status.Code(err) == codes.FailedPrecondition {
			return &services.IndexConfigurationError{Err: err}
		}
		if err != nil {
			return fmt.Errorf("firestore walk: %w", err)
		}
		scroll, err := decodeScroll(snap)
		if err != nil {
			return err
		}
		if err := fn(scroll); err != nil {
			return err
		}
	}
}

func decodeScroll(snap *firestore.DocumentSnapshot) (*models.Scroll, error) {
	var scroll models.Scroll
	if err := snap.DataTo(&scroll); err != nil {
		return nil, fmt.Errorf("firestore decode %s: %w", snap.Ref.ID, err)
	}
	return &scroll, nil
}
