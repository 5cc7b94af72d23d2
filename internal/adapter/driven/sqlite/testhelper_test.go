package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestDB returns a migrated in-memory credential database private to t.
// Both pools reach the same memory image through cache=shared, keyed by the
// escaped test name.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	name := url.PathEscape(t.Name())
	db, err := open(context.Background(), fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", name), name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = RunMigrations(db.Writer)
	require.NoError(t, err)
	return db
}
