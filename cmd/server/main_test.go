package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/aparthus-be/internal/config"
	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/storage"
	"github.com/hongminglow/aparthus-be/internal/storage/memory"
)

type closeCounter struct {
	*memory.Store
	closed int
}

func (c *closeCounter) Close() { c.closed++ }

func TestRunClosesStoreOnStartupFailure(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{
			name:    "missing seed file",
			cfg:     config.Config{SeedFile: filepath.Join(t.TempDir(), "missing.yaml")},
			wantErr: "seed:",
		},
		{
			name: "bad static account",
			cfg: config.Config{StaticAccounts: []config.StaticAccount{
				{Username: "root", Password: "rootpass", Role: models.Role("owner")},
			}},
			wantErr: "static credentials:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &closeCounter{Store: memory.New()}
			open := func(context.Context, config.Config) (storage.Store, error) { return store, nil }

			tt.cfg.StorageDriver = config.DriverMemory
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err := run(ctx, tt.cfg, open)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, 1, store.closed)
		})
	}
}
