// Package podman implements the PodmanClient port against a local
// Podman socket. Podman's compat API is Docker-compatible, so the
// Docker SDK covers most operations; the few Podman-only shapes
// (recorded create commands, image digests, dependent removal) go
// through the libpod endpoints directly.
package podman

import (
	"context"
	"fmt"
	"os"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"github.com/wrtpod/wrtpod/internal/domain"
	"github.com/wrtpod/wrtpod/pkg/logger"
)

const rootSocket = "/run/podman/podman.sock"

// Client talks to a Podman instance over its socket.
type Client struct {
	docker   *client.Client
	libpod   *libpodClient
	sessions *SessionManager
	log      *logger.Logger
}

// NewClient connects to the Podman socket. An empty socketPath tries
// the root socket first and falls back to the rootless one.
func NewClient(socketPath string) (*Client, error) {
	if socketPath == "" {
		socketPath = defaultSocketPath()
	}

	dockerClient, err := client.NewClientWithOpts(
		client.WithHost("unix://"+socketPath),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create podman client: %w", err)
	}

	c := &Client{
		docker: dockerClient,
		libpod: newLibpodClient(socketPath),
		log:    logger.GetLogger(),
	}
	c.sessions = NewSessionManager(c)
	return c, nil
}

func defaultSocketPath() string {
	if _, err := os.Stat(rootSocket); err == nil {
		return rootSocket
	}
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir + "/podman/podman.sock"
	}
	return rootSocket
}

// ListContainers lists containers, including stopped ones when all is
// set.
func (c *Client) ListContainers(ctx context.Context, all bool) ([]domain.Container, error) {
	containers, err := c.docker.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	result := make([]domain.Container, 0, len(containers))
	for _, ctr := range containers {
		name := ""
		if len(ctr.Names) > 0 {
			name = trimSlash(ctr.Names[0])
		}
		result = append(result, domain.Container{
			ID:      ctr.ID,
			Name:    name,
			Image:   ctr.Image,
			ImageID: ctr.ImageID,
			State:   ctr.State,
			Labels:  ctr.Labels,
		})
	}
	return result, nil
}

// StopContainer stops a container with the default timeout.
func (c *Client) StopContainer(ctx context.Context, nameOrID string) error {
	timeout := 30 // seconds
	err := c.docker.ContainerStop(ctx, nameOrID, container.StopOptions{Timeout: &timeout})
	if err != nil {
		return fmt.Errorf("failed to stop container %s: %w", nameOrID, err)
	}
	c.log.Debug("container stopped", "container", nameOrID)
	return nil
}

// StartContainer starts a container.
func (c *Client) StartContainer(ctx context.Context, nameOrID string) error {
	err := c.docker.ContainerStart(ctx, nameOrID, container.StartOptions{})
	if err != nil {
		return fmt.Errorf("failed to start container %s: %w", nameOrID, err)
	}
	c.log.Debug("container started", "container", nameOrID)
	return nil
}

// RemoveImage removes an image. Non-forced removal fails when the
// image is still referenced, which callers may choose to ignore.
func (c *Client) RemoveImage(ctx context.Context, id string, force bool) error {
	_, err := c.docker.ImageRemove(ctx, id, image.RemoveOptions{Force: force})
	if err != nil {
		return fmt.Errorf("failed to remove image %s: %w", id, err)
	}
	c.log.Debug("image removed", "image", id, "force", force)
	return nil
}

// PullStream starts a server-side pull session for ref.
func (c *Client) PullStream(ctx context.Context, ref string) (string, error) {
	return c.sessions.Start(ctx, ref)
}

// PullStatus reports incremental pull output from offset.
func (c *Client) PullStatus(ctx context.Context, sessionID string, offset int) (*domain.PullStatus, error) {
	return c.sessions.Status(sessionID, offset)
}

// PullStop cancels a pull session.
func (c *Client) PullStop(ctx context.Context, sessionID string) error {
	return c.sessions.Stop(sessionID)
}

// Ping checks that the Podman socket is responsive.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.docker.Ping(ctx); err != nil {
		return fmt.Errorf("podman ping failed: %w", err)
	}
	return nil
}

// Version returns the Podman server version.
func (c *Client) Version(ctx context.Context) (string, error) {
	version, err := c.docker.ServerVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get podman version: %w", err)
	}
	return version.Version, nil
}

// pullRaw opens the raw pull stream for the session manager.
func (c *Client) pullRaw(ctx context.Context, ref string) (pullReader, error) {
	reader, err := c.docker.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	return reader, nil
}

func trimSlash(name string) string {
	if len(name) > 0 && name[0] == '/' {
		return name[1:]
	}
	return name
}
