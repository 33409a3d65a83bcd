package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codessa-project/inkwell/internal/models"
)

func mustScope(t *testing.T, uid string) TenantScope {
	t.Helper()
	scope, err := NewTenantScope(Identity{UID: uid, Email: uid + "@example.com"})
	require.NoError(t, err)
	return scope
}

func TestValidateScrollText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"nine characters", "123456789", true},
		{"empty", "", true},
		{"whitespace only", "              ", true},
		{"padded below minimum", "  short  ", true},
		{"exactly minimum", "1234567890", false},
		{"normal text", "a perfectly reasonable captured response", false},
		{"above maximum", strings.Repeat("x", models.MaxScrollTextLen+1), true},
		{"exactly maximum", strings.Repeat("x", models.MaxScrollTextLen), false},
		{"ten multibyte characters", "こんにちは世界航海日", false},
		{"nine multibyte characters", "こんにちは世界航海", true},
		{"maximum multibyte characters", strings.Repeat("界", models.MaxScrollTextLen), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScrollText(tt.text)
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCreateRejectsShortTextBeforeAnyWrite(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	engine := NewSyncEngine(store, index, nil)

	_, err := engine.Create(context.Background(), mustScope(t, "alice"), "too short", nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, store.calls, "no store call may happen before validation")
	assert.Empty(t, index.calls, "no index call may happen before validation")
}

func TestCreateAppliesParsedFieldsAndDefaults(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	engine := NewSyncEngine(store, index, nil)
	scope := mustScope(t, "alice")

	parsed := &models.ParsedContent{Summary: "S", Topics: []string{"t"}}
	scroll, err := engine.Create(context.Background(), scope, "a captured response", parsed)
	require.NoError(t, err)

	assert.Equal(t, "S", scroll.Content.Summary)
	assert.Equal(t, []string{"t"}, scroll.Content.Topics)
	assert.Equal(t, []string{}, scroll.Content.Tools, "absent lists default to empty")
	assert.Equal(t, []string{}, scroll.Content.Actions)
	assert.Equal(t, []string{}, scroll.Content.Enhancements)
	assert.Equal(t, "alice", scroll.Metadata.CreatedBy)
	assert.Equal(t, models.StatusPending, scroll.Metadata.Status)
	assert.Equal(t, models.PhaseMVP1, scroll.Metadata.Phase)
	assert.NotEmpty(t, scroll.ID)

	rec, ok := index.records[scroll.ID]
	require.True(t, ok, "projection must land in the index under the scroll id")
	assert.Equal(t, scroll.ID, rec.ObjectID)
	assert.Equal(t, "alice", rec.Metadata.CreatedBy)
	assert.Equal(t, "S", rec.Summary)
}

func TestCreateFallsBackToDefaultSummary(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	engine := NewSyncEngine(store, index, nil)

	scroll, err := engine.Create(context.Background(), mustScope(t, "alice"), "a captured response", &models.ParsedContent{Topics: []string{"t"}})
	require.NoError(t, err)
	assert.Equal(t, models.FallbackParsedContent().Summary, scroll.Content.Summary)
}

func TestCreateRollsBackStoreWriteOnIndexFailure(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	index.failSave = true
	engine := NewSyncEngine(store, index, nil)

	_, err := engine.Create(context.Background(), mustScope(t, "alice"), "a captured response", nil)

	var serr *SyncError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "create", serr.Op)
	assert.True(t, serr.RolledBack)

	_, err = store.Get(context.Background(), serr.ScrollID)
	assert.ErrorIs(t, err, ErrScrollNotFound, "the store write must be compensated")
	assert.Empty(t, store.scrolls)
}

func TestCreateReportsFailedCompensation(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	index.failSave = true
	store.failDelete = true
	engine := NewSyncEngine(store, index, nil)

	_, err := engine.Create(context.Background(), mustScope(t, "alice"), "a captured response", nil)

	var serr *SyncError
	require.ErrorAs(t, err, &serr)
	assert.False(t, serr.RolledBack, "a failed compensation must not claim rollback")
}

func TestCreateDoesNotTouchIndexWhenStoreFails(t *testing.T) {
	store := newFakeStore()
	store.failPut = true
	index := newFakeIndex()
	engine := NewSyncEngine(store, index, nil)

	_, err := engine.Create(context.Background(), mustScope(t, "alice"), "a captured response", nil)
	require.Error(t, err)
	assert.Empty(t, index.calls)
}

func TestUpdateAppliesToBothStores(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	engine := NewSyncEngine(store, index, nil)
	scope := mustScope(t, "alice")

	scroll, err := engine.Create(context.Background(), scope, "a captured response", nil)
	require.NoError(t, err)

	err = engine.Update(context.Background(), scope, scroll.ID, models.ScrollUpdate{Summary: "edited", Topics: []string{"a", "b"}})
	require.NoError(t, err)

	stored, err := store.Get(context.Background(), scroll.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", stored.Content.Summary)
	assert.Equal(t, []string{"a", "b"}, stored.Content.Topics)
	assert.Equal(t, "a captured response", stored.Content.RawText, "raw text is immutable")

	rec := index.records[scroll.ID]
	require.NotNil(t, rec)
	assert.Equal(t, "edited", rec.Summary)
	assert.Equal(t, []string{"a", "b"}, rec.Topics)
}

func TestUpdateRejectsForeignTenant(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	engine := NewSyncEngine(store, index, nil)

	scroll, err := engine.Create(context.Background(), mustScope(t, "alice"), "a captured response", &models.ParsedContent{Summary: "original"})
	require.NoError(t, err)

	err = engine.Update(context.Background(), mustScope(t, "bob"), scroll.ID, models.ScrollUpdate{Summary: "hijacked"})

	var oerr *OwnershipError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, scroll.ID, oerr.ScrollID)
	assert.Equal(t, "bob", oerr.Tenant)

	stored, err := store.Get(context.Background(), scroll.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Content.Summary, "store must be untouched")
	assert.Equal(t, "original", index.records[scroll.ID].Summary, "index must be untouched")
}

func TestUpdateIndexFailureLeavesStoreAsSourceOfTruth(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	engine := NewSyncEngine(store, index, nil)
	scope := mustScope(t, "alice")

	scroll, err := engine.Create(context.Background(), scope, "a captured response", nil)
	require.NoError(t, err)

	index.failUpdate = true
	err = engine.Update(context.Background(), scope, scroll.ID, models.ScrollUpdate{Summary: "edited"})

	var serr *SyncError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "update", serr.Op)
	assert.False(t, serr.RolledBack, "update is deliberately not compensated")

	stored, err := store.Get(context.Background(), scroll.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", stored.Content.Summary, "the store write stays")
}

func TestUpdateMissingScroll(t *testing.T) {
	engine := NewSyncEngine(newFakeStore(), newFakeIndex(), nil)
	err := engine.Update(context.Background(), mustScope(t, "alice"), "nope", models.ScrollUpdate{})
	assert.ErrorIs(t, err, ErrScrollNotFound)
}

func TestDeleteRemovesFromBothStores(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	engine := NewSyncEngine(store, index, nil)
	scope := mustScope(t, "alice")

	scroll, err := engine.Create(context.Background(), scope, "a captured response", nil)
	require.NoError(t, err)

	require.NoError(t, engine.Delete(context.Background(), scope, scroll.ID))

	_, err = store.Get(context.Background(), scroll.ID)
	assert.ErrorIs(t, err, ErrScrollNotFound)
	assert.NotContains(t, index.records, scroll.ID)
}

func TestDeleteRejectsForeignTenant(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	engine := NewSyncEngine(store, index, nil)

	scroll, err := engine.Create(context.Background(), mustScope(t, "alice"), "a captured response", nil)
	require.NoError(t, err)

	err = engine.Delete(context.Background(), mustScope(t, "bob"), scroll.ID)

	var oerr *OwnershipError
	require.ErrorAs(t, err, &oerr)
	_, err = store.Get(context.Background(), scroll.ID)
	assert.NoError(t, err, "store must be untouched")
	assert.Contains(t, index.records, scroll.ID, "index must be untouched")
}

func TestDeleteIndexFailureIsBestEffort(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	engine := NewSyncEngine(store, index, nil)
	scope := mustScope(t, "alice")

	scroll, err := engine.Create(context.Background(), scope, "a captured response", nil)
	require.NoError(t, err)

	index.failDelete = true
	err = engine.Delete(context.Background(), scope, scroll.ID)

	var serr *SyncError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "delete", serr.Op)
	assert.False(t, serr.RolledBack)

	_, err = store.Get(context.Background(), scroll.ID)
	assert.ErrorIs(t, err, ErrScrollNotFound, "the record is still gone from the store")
	assert.Contains(t, index.records, scroll.ID, "the stale index entry remains")
}

func TestGetEnforcesOwnership(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	engine := NewSyncEngine(store, index, nil)

	scroll, err := engine.Create(context.Background(), mustScope(t, "alice"), "a captured response", nil)
	require.NoError(t, err)

	got, err := engine.Get(context.Background(), mustScope(t, "alice"), scroll.ID)
	require.NoError(t, err)
	assert.Equal(t, scroll.ID, got.ID)

	_, err = engine.Get(context.Background(), mustScope(t, "bob"), scroll.ID)
	var oerr *OwnershipError
	assert.ErrorAs(t, err, &oerr)
}
