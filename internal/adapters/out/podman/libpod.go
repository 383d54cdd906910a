package podman

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/wrtpod/wrtpod/internal/domain"
)

const libpodBase = "http://d/v4.0.0/libpod"

// libpodClient speaks the Podman-only REST endpoints over the unix
// socket for the shapes the compat API does not expose.
type libpodClient struct {
	http *http.Client
}

func newLibpodClient(socketPath string) *libpodClient {
	return &libpodClient{
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
			Timeout: 60 * time.Second,
		},
	}
}

func (l *libpodClient) getJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, libpodBase+path, nil)
	if err != nil {
		return err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("libpod %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (l *libpodClient) delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, libpodBase+path, nil)
	if err != nil {
		return err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("libpod %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

// containerInspect is the slice of libpod's container inspect payload
// the update orchestrator needs. CreateCommand is the argv Podman
// recorded at creation time and exists only on the libpod endpoint.
type containerInspect struct {
	ID    string `json:"Id"`
	Name  string `json:"Name"`
	State struct {
		Running bool `json:"Running"`
	} `json:"State"`
	Config struct {
		Image         string   `json:"Image"`
		CreateCommand []string `json:"CreateCommand"`
	} `json:"Config"`
}

// InspectContainer inspects via libpod to obtain the recorded create
// command.
func (c *Client) InspectContainer(ctx context.Context, nameOrID string) (*domain.ContainerDetail, error) {
	var inspect containerInspect
	path := fmt.Sprintf("/containers/%s/json", url.PathEscape(nameOrID))
	if err := c.libpod.getJSON(ctx, path, &inspect); err != nil {
		return nil, fmt.Errorf("failed to inspect container %s: %w", nameOrID, err)
	}

	return &domain.ContainerDetail{
		ID:            inspect.ID,
		Name:          trimSlash(inspect.Name),
		Image:         inspect.Config.Image,
		Running:       inspect.State.Running,
		CreateCommand: inspect.Config.CreateCommand,
	}, nil
}

// imageInspect is the slice of libpod's image inspect payload used for
// update detection. The compat endpoint omits Digest.
type imageInspect struct {
	ID           string   `json:"Id"`
	Digest       string   `json:"Digest"`
	RepoDigests  []string `json:"RepoDigests"`
	Architecture string   `json:"Architecture"`
	Os           string   `json:"Os"`
}

// InspectImage inspects a local image via libpod.
func (c *Client) InspectImage(ctx context.Context, ref string) (*domain.ImageInfo, error) {
	var inspect imageInspect
	path := fmt.Sprintf("/images/%s/json", url.PathEscape(ref))
	if err := c.libpod.getJSON(ctx, path, &inspect); err != nil {
		return nil, fmt.Errorf("failed to inspect image %s: %w", ref, err)
	}

	return &domain.ImageInfo{
		ID:           inspect.ID,
		Architecture: inspect.Architecture,
		Os:           inspect.Os,
		Digest:       inspect.Digest,
		RepoDigests:  inspect.RepoDigests,
	}, nil
}

// RemoveContainer removes a container. With force set, dependent
// containers are removed too (libpod depend semantics).
func (c *Client) RemoveContainer(ctx context.Context, nameOrID string, force bool) error {
	path := fmt.Sprintf("/containers/%s?force=%t&depend=%t", url.PathEscape(nameOrID), force, force)
	if err := c.libpod.delete(ctx, path); err != nil {
		return fmt.Errorf("failed to remove container %s: %w", nameOrID, err)
	}
	c.log.Debug("container removed", "container", nameOrID, "force", force)
	return nil
}

// CreateContainer replays a recorded create command verbatim through
// the podman CLI. The API has no endpoint that accepts a CLI argv, and
// replaying the exact original invocation is the safety property the
// update flow relies on.
func (c *Client) CreateContainer(ctx context.Context, createCommand []string) error {
	if len(createCommand) == 0 {
		return &domain.RecreateError{Reason: "empty create command"}
	}

	args := createCommand
	if strings.HasSuffix(args[0], "podman") {
		args = args[1:]
	}
	if len(args) == 0 {
		return &domain.RecreateError{Reason: "create command has no arguments"}
	}

	cmd := exec.CommandContext(ctx, "podman", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &domain.RecreateError{
			Reason:  err.Error(),
			Details: strings.TrimSpace(string(output)),
		}
	}

	c.log.Debug("container recreated", "args", strings.Join(args, " "))
	return nil
}
