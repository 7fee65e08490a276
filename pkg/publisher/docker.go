package publisher

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
)

// DockerReloader signals gateway containers so they re-read their
// configuration. Target nodes are container names or ids.
type DockerReloader struct {
	client *client.Client
	signal string
}

// NewDockerReloader connects to the Docker daemon from the environment
// (DOCKER_HOST and friends).
func NewDockerReloader(signal string) (*DockerReloader, error) {
	signal = strings.TrimSpace(signal)
	if signal == "" {
		signal = "HUP"
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &DockerReloader{client: cli, signal: signal}, nil
}

// Reload implements Reloader.
func (r *DockerReloader) Reload(ctx context.Context, node string) error {
	node = strings.TrimSpace(node)
	if node == "" {
		return fmt.Errorf("container name required")
	}
	if err := r.client.ContainerKill(ctx, node, r.signal); err != nil {
		if errdefs.IsNotFound(err) {
			return fmt.Errorf("gateway container %s not found", node)
		}
		return err
	}
	return nil
}

// Close releases the Docker client.
func (r *DockerReloader) Close() error {
	return r.client.Close()
}
