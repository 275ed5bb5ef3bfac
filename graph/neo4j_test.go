//go:build integration

package graph

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupNeo4j(t *testing.T, ctx context.Context) (*Neo4jStore, func()) {
	t.Helper()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration test")
	}
	if err := provider.Health(ctx); err != nil {
		t.Skip("Docker not running, skipping integration test")
	}

	req := testcontainers.ContainerRequest{
		Image:        "neo4j:5",
		ExposedPorts: []string{"7687/tcp"},
		Env: map[string]string{
			"NEO4J_AUTH": "none",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("7687/tcp"),
			wait.ForLog("Started."),
		).WithDeadline(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start neo4j container: %v", err)
	}

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "7687")
	require.NoError(t, err)

	config := DefaultConfig()
	config.URI = fmt.Sprintf("bolt://%s:%s", host, port.Port())
	config.MaxConnectionPoolSize = 10

	store, err := OpenNeo4j(ctx, config, nil)
	require.NoError(t, err)

	return store, func() {
		_ = store.Close(ctx)
		_ = container.Terminate(ctx)
	}
}

func TestNeo4jStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping neo4j integration test in short mode")
	}
	ctx := context.Background()
	store, cleanup := setupNeo4j(t, ctx)
	defer cleanup()

	runStoreSuite(t, store)
}
