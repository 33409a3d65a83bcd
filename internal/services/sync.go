package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/codessa-project/inkwell/internal/models"
)

// SyncEngine keeps the document store and the search index in agreement for
// one logical scroll. There are no automatic retries anywhere: every
// failure surfaces to the caller immediately.
type SyncEngine struct {
	store DocumentStore
	index SearchIndex
	log   *slog.Logger
}

// NewSyncEngine wires the engine to its two collaborators.
func NewSyncEngine(store DocumentStore, index SearchIndex, log *slog.Logger) *SyncEngine {
	if log == nil {
		log = slog.Default()
	}
	return &SyncEngine{store: store, index: index, log: log}
}

// ValidateScrollText checks the captured text against the length bounds.
// Bounds are in characters, not bytes, so multibyte text is not penalized.
// It runs before any collaborator call, so a rejection has no side effects.
func ValidateScrollText(text string) error {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < models.MinScrollTextLen {
		return &ValidationError{Reason: fmt.Sprintf("please provide a meaningful response (at least %d characters)", models.MinScrollTextLen)}
	}
	if utf8.RuneCountInString(text) > models.MaxScrollTextLen {
		return &ValidationError{Reason: fmt.Sprintf("text exceeds maximum length of %d characters", models.MaxScrollTextLen)}
	}
	return nil
}

// Create builds a scroll with a fresh id, writes it to the document store,
// then mirrors its projection to the search index. If the index write fails
// the store write is compensated with a delete, so the operation is
// all-or-nothing from the caller's view even though it runs as two
// sequential writes. A retried create allocates a new id.
func (e *SyncEngine) Create(ctx context.Context, scope TenantScope, rawText string, parsed *models.ParsedContent) (*models.Scroll, error) {
	if err := ValidateScrollText(rawText); err != nil {
		return nil, err
	}

	scroll := models.NewScroll(uuid.NewString(), scope.Tenant(), rawText, parsed)
	if err := e.store.Put(ctx, scroll); err != nil {
		return nil, fmt.Errorf("failed to store scroll %s: %w", scroll.ID, err)
	}

	if err := e.index.Save(ctx, models.NewSearchRecord(scroll)); err != nil {
		e.log.Warn("index write failed, rolling back store write",
			"scroll_id", scroll.ID, "tenant", scope.Tenant(), "error", err)
		if delErr := e.store.Delete(ctx, scroll.ID); delErr != nil {
			// The compensation itself failed; the stores disagree and the
			// caller has to know the record may still exist.
			return nil, &SyncError{Op: "create", ScrollID: scroll.ID, Err: errors.Join(err, delErr)}
		}
		return nil, &SyncError{Op: "create", ScrollID: scroll.ID, RolledBack: true, Err: err}
	}

	e.log.Info("scroll created", "scroll_id", scroll.ID, "tenant", scope.Tenant())
	return scroll, nil
}

// Get fetches a scroll and enforces ownership.
func (e *SyncEngine) Get(ctx context.Context, scope TenantScope, id string) (*models.Scroll, error) {
	scroll, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.RequireOwnership(scroll); err != nil {
		return nil, err
	}
	return scroll, nil
}

// Update applies the editable content fields to both stores after an
// ownership check. A store write that succeeds while the index mirror fails
// is NOT rolled back: the document store stays the source of truth and the
// returned SyncError reports the gap. The asymmetry with Create is carried
// over from the original behavior on purpose; the reindex command repairs
// the index from the store of record.
func (e *SyncEngine) Update(ctx context.Context, scope TenantScope, id string, changes models.ScrollUpdate) error {
	scroll, err := e.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := scope.RequireOwnership(scroll); err != nil {
		return err
	}

	if err := e.store.Update(ctx, id, changes); err != nil {
		return fmt.Errorf("failed to update scroll %s: %w", id, err)
	}
	upd := models.SearchUpdate{ObjectID: id, Summary: changes.Summary, Topics: changes.Topics}
	if err := e.index.Update(ctx, upd); err != nil {
		e.log.Warn("store updated but index mirror failed",
			"scroll_id", id, "tenant", scope.Tenant(), "error", err)
		return &SyncError{Op: "update", ScrollID: id, Err: err}
	}

	e.log.Info("scroll updated", "scroll_id", id, "tenant", scope.Tenant())
	return nil
}

// Delete removes a scroll from the document store, then from the search
// index, after an ownership check. If the index delete fails the record is
// already gone from the store; the cleanup is best-effort and the returned
// SyncError reports the leftover index entry.
func (e *SyncEngine) Delete(ctx context.Context, scope TenantScope, id string) error {
	scroll, err := e.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := scope.RequireOwnership(scroll); err != nil {
		return err
	}

	if err := e.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete scroll %s: %w", id, err)
	}
	if err := e.index.Delete(ctx, id); err != nil {
		e.log.Warn("scroll removed from store but index cleanup failed",
			"scroll_id", id, "tenant", scope.Tenant(), "error", err)
		return &SyncError{Op: "delete", ScrollID: id, Err: err}
	}

	e.log.Info("scroll deleted", "scroll_id", id, "tenant", scope.Tenant())
	return nil
}
