package application

import (
	"context"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
	"github.com/ericfisherdev/rivianctl/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*OverrideCredentialStore)(nil)

// OverrideCredentialStore layers an environment-supplied bundle over a
// persisted store. The override wins on Load and is never written back.
type OverrideCredentialStore struct {
	override *model.CredentialBundle
	store    driven.CredentialStore
}

// NewOverrideCredentialStore wraps store. override may be nil.
func NewOverrideCredentialStore(override *model.CredentialBundle, store driven.CredentialStore) *OverrideCredentialStore {
	return &OverrideCredentialStore{override: override, store: store}
}

// Save persists bundle to the underlying store.
func (s *OverrideCredentialStore) Save(ctx context.Context, bundle model.CredentialBundle) error {
	return s.store.Save(ctx, bundle)
}

// Load returns the override when present, otherwise the persisted bundle.
func (s *OverrideCredentialStore) Load(ctx context.Context) (model.CredentialBundle, error) {
	if s.override != nil {
		return *s.override, nil
	}
	return s.store.Load(ctx)
}
