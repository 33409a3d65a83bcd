package services

import (
	"errors"
	"fmt"
)

// ErrScrollNotFound reports a scroll id with no document behind it.
var ErrScrollNotFound = errors.New("scroll not found")

// Navigation preconditions.
var (
	ErrNoNextPage     = errors.New("no next page")
	ErrNoPreviousPage = errors.New("already on the first page")
)

// ValidationError rejects input before any collaborator call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// OwnershipError rejects an operation on a scroll the acting tenant does
// not own. No mutation has happened when it is returned.
type OwnershipError struct {
	ScrollID string
	Tenant   string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("scroll %s is not owned by tenant %s", e.ScrollID, e.Tenant)
}

// SyncError reports a dual-write that left the document store and the
// search index in disagreement. RolledBack is true when the store write was
// compensated, meaning the failed operation had no lasting effect; false
// means the store holds the truth and the index is stale.
type SyncError struct {
	Op         string
	ScrollID   string
	RolledBack bool
	Err        error
}

func (e *SyncError) Error() string {
	if e.RolledBack {
		return fmt.Sprintf("%s of scroll %s failed and was rolled back: %v", e.Op, e.ScrollID, e.Err)
	}
	return fmt.Sprintf("%s of scroll %s left the search index out of sync: %v", e.Op, e.ScrollID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// IndexConfigurationError surfaces a missing Firestore composite index. It
// is not retryable from inside the application; the index has to be created
// out of band.
type IndexConfigurationError struct {
	Err error
}

func (e *IndexConfigurationError) Error() string {
	return fmt.Sprintf("query requires a composite index on (metadata.created_by, metadata.created_at DESC); create it in the Firestore console and retry: %v", e.Err)
}

func (e *IndexConfigurationError) Unwrap() error { return e.Err }
