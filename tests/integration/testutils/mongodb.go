package testutils

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/8adimka/chat-gateway/internal/mongox"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MongoDBContainer represents a test MongoDB container
type MongoDBContainer struct {
	testcontainers.Container
	URI string
}

// SetupMongoDBContainer creates and starts a MongoDB container for testing
func SetupMongoDBContainer(ctx context.Context) (*MongoDBContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "mongo:7.0",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %v", err)
	}

	uri := fmt.Sprintf("mongodb://%s:%s/chatbot_test", host, port.Port())

	return &MongoDBContainer{
		Container: container,
		URI:       uri,
	}, nil
}

// WithMongoManager is a test helper that provides a started connection
// manager backed by a MongoDB container
func WithMongoManager(t *testing.T, testFunc func(ctx context.Context, manager *mongox.Manager)) {
	ctx := context.Background()

	// Skip if running in CI without Docker
	if os.Getenv("CI") == "true" && os.Getenv("DOCKER_HOST") == "" {
		t.Skip("Skipping test that requires Docker in CI environment")
	}

	container, err := SetupMongoDBContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to setup MongoDB container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate container: %v", err)
		}
	}()

	manager := mongox.NewManager(container.URI, time.Second)
	manager.Start(ctx)
	defer manager.Close(ctx)

	// The connect loop runs in the background; wait for it to come up
	deadline := time.Now().Add(30 * time.Second)
	for !manager.IsConnected() {
		if time.Now().After(deadline) {
			t.Fatal("MongoDB connection did not come up in time")
		}
		time.Sleep(100 * time.Millisecond)
	}

	testFunc(ctx, manager)
}
