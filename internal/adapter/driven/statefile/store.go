// Package statefile implements the credential store port as a versioned JSON
// record written atomically to a single file.
package statefile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
	"github.com/ericfisherdev/rivianctl/internal/domain/port/driven"
)

// formatVersion is the record layout written by this package.
const formatVersion = 1

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*Store)(nil)

// record is the on-disk layout.
type record struct {
	FormatVersion    int       `json:"format_version"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	UserSessionToken string    `json:"user_session_token"`
	SavedAt          time.Time `json:"saved_at"`
}

// Store persists the credential bundle to a file. Writes go to a temporary
// file in the same directory which then replaces the target, so readers never
// observe a half-written bundle.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore creates a Store writing to path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Save replaces the stored bundle.
func (s *Store) Save(ctx context.Context, bundle model.CredentialBundle) error {
	if !bundle.Complete() {
		return fmt.Errorf("save credentials: bundle is incomplete")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(record{
		FormatVersion:    formatVersion,
		AccessToken:      bundle.AccessToken,
		RefreshToken:     bundle.RefreshToken,
		UserSessionToken: bundle.UserSessionToken,
		SavedAt:          s.now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write credentials to %s: %w", s.path, err)
	}
	return nil
}

// Load returns the stored bundle, or model.ErrNotAuthenticated if the file
// does not exist or holds an incomplete bundle.
func (s *Store) Load(ctx context.Context) (model.CredentialBundle, error) {
	if err := ctx.Err(); err != nil {
		return model.CredentialBundle{}, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.CredentialBundle{}, model.ErrNotAuthenticated
	}
	if err != nil {
		return model.CredentialBundle{}, fmt.Errorf("read credentials from %s: %w", s.path, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.CredentialBundle{}, fmt.Errorf("decode credentials from %s: %w", s.path, err)
	}
	if rec.FormatVersion < 1 || rec.FormatVersion > formatVersion {
		return model.CredentialBundle{}, fmt.Errorf("decode credentials from %s: unsupported format version %d", s.path, rec.FormatVersion)
	}

	b := model.CredentialBundle{
		AccessToken:      rec.AccessToken,
		RefreshToken:     rec.RefreshToken,
		UserSessionToken: rec.UserSessionToken,
	}
	if !b.Complete() {
		return model.CredentialBundle{}, model.ErrNotAuthenticated
	}
	return b, nil
}
