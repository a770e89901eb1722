package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hongminglow/aparthus-be/internal/storage/storagetest"
	"github.com/hongminglow/aparthus-be/internal/testhelpers"
)

// TestStoreIntegration runs the shared store contract against a disposable Postgres.
func TestStoreIntegration(t *testing.T) {
	testhelpers.RequireIntegration(t)
	dsn := testhelpers.StartPostgres(t)

	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()

	// migrations must be safe to run again on boot
	again, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	again.Close()

	storagetest.Run(t, store)
}
