package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
	"github.com/ericfisherdev/rivianctl/internal/domain/port/driven"
)

// credentialFormatVersion is written with every bundle. Rows with a newer
// version were written by a newer binary and are refused.
const credentialFormatVersion = 1

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// The bundle lives in a single-row table.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Save replaces the stored bundle in a single upsert statement.
func (r *CredentialRepo) Save(ctx context.Context, bundle model.CredentialBundle) error {
	if !bundle.Complete() {
		return fmt.Errorf("save credentials: bundle is incomplete")
	}

	const query = `
		INSERT INTO credential_bundle (id, format_version, access_token, refresh_token, user_session_token, updated_at)
		VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			format_version = excluded.format_version,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			user_session_token = excluded.user_session_token,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		credentialFormatVersion, bundle.AccessToken, bundle.RefreshToken, bundle.UserSessionToken,
	)
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Load returns the stored bundle, or model.ErrNotAuthenticated if there is none.
func (r *CredentialRepo) Load(ctx context.Context) (model.CredentialBundle, error) {
	const query = `
		SELECT format_version, access_token, refresh_token, user_session_token
		FROM credential_bundle
		WHERE id = 1
	`

	var (
		version int
		b       model.CredentialBundle
	)
	err := r.db.Reader.QueryRowContext(ctx, query).Scan(
		&version, &b.AccessToken, &b.RefreshToken, &b.UserSessionToken,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CredentialBundle{}, model.ErrNotAuthenticated
	}
	if err != nil {
		return model.CredentialBundle{}, fmt.Errorf("load credentials: %w", err)
	}

	if version > credentialFormatVersion {
		return model.CredentialBundle{}, fmt.Errorf("load credentials: unsupported format version %d", version)
	}
	if !b.Complete() {
		return model.CredentialBundle{}, model.ErrNotAuthenticated
	}

	return b, nil
}
