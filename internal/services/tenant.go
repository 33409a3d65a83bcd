package services

import (
	"errors"
	"fmt"

	"github.com/codessa-project/inkwell/internal/models"
)

// Identity is the authenticated principal acting in a session, as supplied
// by the tenant authority.
type Identity struct {
	UID   string
	Email string
}

// TenantScope narrows every read and write to one tenant's records. A scope
// can only exist for an authenticated identity; there is no anonymous mode.
type TenantScope struct {
	identity Identity
}

// NewTenantScope derives the isolation scope for an identity. An empty uid
// is a precondition failure for every core operation.
func NewTenantScope(id Identity) (TenantScope, error) {
	if id.UID == "" {
		return TenantScope{}, errors.New("tenant scope requires an authenticated identity")
	}
	return TenantScope{identity: id}, nil
}

// Tenant returns the uid every store query and write is keyed by.
func (s TenantScope) Tenant() string { return s.identity.UID }

// Identity returns the full identity behind the scope.
func (s TenantScope) Identity() Identity { return s.identity }

// SearchFilter returns the filter expression injected into every search
// index query.
func (s TenantScope) SearchFilter() string {
	return fmt.Sprintf("metadata.created_by:%s", s.identity.UID)
}

// RequireOwnership rejects any scroll whose creator does not match the
// acting tenant.
func (s TenantScope) RequireOwnership(scroll *models.Scroll) error {
	if scroll.Metadata.CreatedBy != s.identity.UID {
		return &OwnershipError{ScrollID: scroll.ID, Tenant: s.identity.UID}
	}
	return nil
}
