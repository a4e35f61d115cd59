package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer запускает контейнер и возвращает адрес host:port проброшенного порта.
func startContainer(tb testing.TB, image string, port nat.Port, cmd ...string) string {
	tb.Helper()
	if testing.Short() {
		tb.Skipf("%s container skipped in short mode", image)
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{string(port)},
		Cmd:          cmd,
		WaitingFor:   wait.ForListeningPort(port),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		tb.Fatalf("starting %s container: %v", image, err)
	}
	tb.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			tb.Logf("terminating %s container: %v", image, err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		tb.Fatalf("getting container host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		tb.Fatalf("getting container port: %v", err)
	}
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

// SetupRedis запускает Redis и возвращает его адрес host:port.
func SetupRedis(tb testing.TB) string {
	tb.Helper()
	return startContainer(tb, "redis:7-alpine", "6379/tcp")
}

// SetupNATS запускает NATS и возвращает URL nats://host:port.
func SetupNATS(tb testing.TB) string {
	tb.Helper()
	return "nats://" + startContainer(tb, "nats:2.10-alpine", "4222/tcp")
}
