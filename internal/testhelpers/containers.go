// Package testhelpers starts throwaway database containers for the storage integration tests.
//
// Tests opt in with RUN_STORAGE_INTEGRATION=true and need a reachable Docker daemon.
package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RequireIntegration skips the test unless container-backed tests were requested.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	if os.Getenv("RUN_STORAGE_INTEGRATION") != "true" {
		t.Skip("set RUN_STORAGE_INTEGRATION=true to run this integration test")
	}
}

// StartPostgres runs postgres:16-alpine and returns its connection URL.
func StartPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "aparthus",
			"POSTGRES_PASSWORD": "aparthus",
			"POSTGRES_DB":       "aparthus",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}
	c := start(t, ctx, req)

	host := containerHost(t, ctx, c)
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("postgres mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://aparthus:aparthus@%s:%s/aparthus?sslmode=disable", host, port.Port())
}

// StartMongo runs mongo:7 and returns its connection URI.
func StartMongo(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor: wait.ForListeningPort("27017/tcp").
			WithStartupTimeout(90 * time.Second),
	}
	c := start(t, ctx, req)

	host := containerHost(t, ctx, c)
	port, err := c.MappedPort(ctx, "27017/tcp")
	if err != nil {
		t.Fatalf("mongo mapped port: %v", err)
	}
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func start(t *testing.T, ctx context.Context, req testcontainers.ContainerRequest) testcontainers.Container {
	t.Helper()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start %s container: %v", req.Image, err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate %s container: %v", req.Image, err)
		}
	})
	return c
}

func containerHost(t *testing.T, ctx context.Context, c testcontainers.Container) string {
	t.Helper()
	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	return host
}
