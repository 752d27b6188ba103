package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	azuriteImage    = "mcr.microsoft.com/azure-storage/azurite:latest"
	azuriteBlobPort = "10000/tcp"

	azuriteAccount = "devstoreaccount1"
	azuriteKey     = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

// AzuriteContainer wraps an Azurite storage emulator container for testing.
type AzuriteContainer struct {
	container testcontainers.Container
	endpoint  string
}

// NewAzuriteContainer creates and starts an Azurite container serving the blob API.
func NewAzuriteContainer(ctx context.Context, t *testing.T) (*AzuriteContainer, error) {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        azuriteImage,
			ExposedPorts: []string{azuriteBlobPort},
			Cmd:          []string{"azurite-blob", "--blobHost", "0.0.0.0", "--skipApiVersionCheck", "--loose"},
			WaitingFor:   wait.ForListeningPort(azuriteBlobPort).WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Azurite container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, azuriteBlobPort)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &AzuriteContainer{
		container: container,
		endpoint:  fmt.Sprintf("http://%s:%s/%s", host, port.Port(), azuriteAccount),
	}, nil
}

// ConnectionString returns a shared-key connection string for the emulator account.
func (c *AzuriteContainer) ConnectionString() string {
	return fmt.Sprintf("DefaultEndpointsProtocol=http;AccountName=%s;AccountKey=%s;BlobEndpoint=%s;",
		azuriteAccount, azuriteKey, c.endpoint)
}

// Endpoint returns the blob endpoint URL of the emulator account.
func (c *AzuriteContainer) Endpoint() string {
	return c.endpoint
}

// Terminate stops and removes the Azurite container.
func (c *AzuriteContainer) Terminate(ctx context.Context) error {
	if c.container != nil {
		if err := c.container.Terminate(ctx); err != nil {
			return fmt.Errorf("failed to terminate container: %w", err)
		}
	}
	return nil
}

// SetupAzuriteTest starts Azurite for a test and returns its connection
// string and a cleanup function that should be deferred.
func SetupAzuriteTest(t *testing.T) (string, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := NewAzuriteContainer(ctx, t)
	if err != nil {
		t.Fatalf("Failed to start Azurite: %v", err)
	}

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Azurite: %v", err)
		}
	}

	return container.ConnectionString(), cleanup
}

// CreateTestContainer creates a container through the SDK directly and
// registers its deletion with t.Cleanup.
func CreateTestContainer(ctx context.Context, t *testing.T, connectionString, name string) {
	t.Helper()

	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		t.Fatalf("Failed to create SDK client: %v", err)
	}
	if _, err := client.CreateContainer(ctx, name, nil); err != nil {
		t.Fatalf("Failed to create container %s: %v", name, err)
	}

	t.Cleanup(func() {
		if _, err := client.DeleteContainer(context.Background(), name, nil); err != nil {
			t.Logf("Failed to delete container %s: %v", name, err)
		}
	})
}
