// Package out defines output ports (interfaces) for infrastructure.
// These interfaces define the contract between use cases and driven
// adapters (Podman socket, UCI, etc.).
package out

import (
	"context"

	"github.com/wrtpod/wrtpod/internal/domain"
)

// PodmanClient defines the contract for the Podman API surface the use
// cases depend on. The wire framing behind it (REST over the Podman
// socket, CLI fallback) is an adapter concern.
type PodmanClient interface {
	// Container lifecycle
	ListContainers(ctx context.Context, all bool) ([]domain.Container, error)
	InspectContainer(ctx context.Context, nameOrID string) (*domain.ContainerDetail, error)
	StopContainer(ctx context.Context, nameOrID string) error
	StartContainer(ctx context.Context, nameOrID string) error
	// RemoveContainer force-removes with dependent containers when
	// force is set.
	RemoveContainer(ctx context.Context, nameOrID string, force bool) error
	// CreateContainer replays a recorded create command verbatim.
	// Backend-reported failures come back as *domain.RecreateError.
	CreateContainer(ctx context.Context, createCommand []string) error

	// Image operations
	InspectImage(ctx context.Context, ref string) (*domain.ImageInfo, error)
	// InspectManifest fetches the remote manifest for ref without
	// pulling any layers.
	InspectManifest(ctx context.Context, ref string) (*domain.Manifest, error)
	RemoveImage(ctx context.Context, id string, force bool) error

	// Streaming pull sessions
	PullStream(ctx context.Context, ref string) (sessionID string, err error)
	PullStatus(ctx context.Context, sessionID string, offset int) (*domain.PullStatus, error)
	PullStop(ctx context.Context, sessionID string) error

	// Runtime information
	Ping(ctx context.Context) error
	Version(ctx context.Context) (string, error)
}
