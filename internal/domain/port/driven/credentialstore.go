package driven

import (
	"context"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

// CredentialStore defines the driven port for persisting the single
// credential bundle between process runs. It is a convenience cache, not a vault.
type CredentialStore interface {
	// Save replaces the stored bundle. A cancelled or failed Save must not
	// leave a partially written bundle behind.
	Save(ctx context.Context, bundle model.CredentialBundle) error

	// Load returns the stored bundle exactly as saved.
	// Returns model.ErrNotAuthenticated if no complete bundle exists.
	Load(ctx context.Context) (model.CredentialBundle, error)
}
