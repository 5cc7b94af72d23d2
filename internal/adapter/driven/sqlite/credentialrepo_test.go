package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

func TestCredentialRepo_SaveAndLoad(t *testing.T) {
	db := newTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	bundle := model.CredentialBundle{AccessToken: "a", RefreshToken: "r", UserSessionToken: "u"}
	require.NoError(t, repo.Save(ctx, bundle))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, bundle, got)
}

func TestCredentialRepo_LoadMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewCredentialRepo(db)

	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)
}

func TestCredentialRepo_SaveReplacesBundle(t *testing.T) {
	db := newTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, model.CredentialBundle{AccessToken: "a1", RefreshToken: "r1", UserSessionToken: "u1"}))
	second := model.CredentialBundle{AccessToken: "a2", RefreshToken: "r2", UserSessionToken: "u2"}
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	var rows int
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM credential_bundle`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestCredentialRepo_SaveRejectsIncompleteBundle(t *testing.T) {
	db := newTestDB(t)
	repo := NewCredentialRepo(db)

	err := repo.Save(context.Background(), model.CredentialBundle{AccessToken: "a"})
	require.Error(t, err)

	_, err = repo.Load(context.Background())
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)
}

func TestCredentialRepo_TokensRoundTripExactly(t *testing.T) {
	db := newTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	bundle := model.CredentialBundle{
		AccessToken:      " eyJhbGciOiJIUzI1NiJ9.payload.sig== ",
		RefreshToken:     "line1\nline2",
		UserSessionToken: "ünïcödé;with;semicolons",
	}
	require.NoError(t, repo.Save(ctx, bundle))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, bundle, got)
}

func TestCredentialRepo_UnsupportedFormatVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	_, err := db.Writer.ExecContext(ctx, `
		INSERT INTO credential_bundle (id, format_version, access_token, refresh_token, user_session_token)
		VALUES (1, 99, 'a', 'r', 'u')`)
	require.NoError(t, err)

	_, err = repo.Load(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotAuthenticated)
	assert.Contains(t, err.Error(), "format version")
}

// TestCredentialRepo_RoundTripAcrossReopen simulates a new process by closing
// the database and opening the same file again.
func TestCredentialRepo_RoundTripAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	version, err := RunMigrations(db.Writer)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	bundle := model.CredentialBundle{AccessToken: "a", RefreshToken: "r", UserSessionToken: "u"}
	require.NoError(t, NewCredentialRepo(db).Save(ctx, bundle))
	require.NoError(t, db.Close())

	reopened, err := NewDB(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	version, err = RunMigrations(reopened.Writer)
	require.NoError(t, err, "already-current schema is not an error")
	assert.Equal(t, uint(1), version)

	got, err := NewCredentialRepo(reopened).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, bundle, got)
}
