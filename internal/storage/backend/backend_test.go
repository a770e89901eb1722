package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/aparthus-be/internal/config"
	"github.com/hongminglow/aparthus-be/internal/storage/memory"
)

func TestOpen(t *testing.T) {
	store, err := Open(context.Background(), config.Config{StorageDriver: config.DriverMemory})
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &memory.Store{}, store)

	_, err = Open(context.Background(), config.Config{StorageDriver: "sqlite"})
	assert.Error(t, err)
}
