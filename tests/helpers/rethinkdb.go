// rethinkdb.go
//
// Helper for starting a disposable RethinkDB via testcontainers. Used by the
// integration tests and by cmd/devdb for local development.

package helpers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const defaultRethinkDBImage = "rethinkdb:2.4"

// RethinkDBContainer wraps a running RethinkDB container and its client address.
type RethinkDBContainer struct {
	Container testcontainers.Container
	Addr      string
}

// Terminate stops and removes the container.
func (c *RethinkDBContainer) Terminate(ctx context.Context) error {
	if c == nil || c.Container == nil {
		return nil
	}
	return c.Container.Terminate(ctx)
}

// StartRethinkDB starts a RethinkDB container and waits for the client port.
// The image can be overridden with RETHINKDB_IMAGE.
func StartRethinkDB(ctx context.Context) (*RethinkDBContainer, error) {
	image := os.Getenv("RETHINKDB_IMAGE")
	if image == "" {
		image = defaultRethinkDBImage
	}

	clientPort, err := nat.NewPort("tcp", "28015")
	if err != nil {
		return nil, err
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{string(clientPort)},
			WaitingFor:   wait.ForListeningPort(clientPort).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start RethinkDB container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	mapped, err := container.MappedPort(ctx, clientPort)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &RethinkDBContainer{
		Container: container,
		Addr:      fmt.Sprintf("%s:%s", host, mapped.Port()),
	}, nil
}
