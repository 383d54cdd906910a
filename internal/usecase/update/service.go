// Package update implements auto-update orchestration for
// Podman-managed containers: discovering labelled containers,
// detecting newer images without pulling, and performing guarded
// in-place updates that preserve the original creation parameters.
package update

import (
	"context"
	"fmt"

	"github.com/wrtpod/wrtpod/internal/boundaries/out"
	"github.com/wrtpod/wrtpod/internal/domain"
	"github.com/wrtpod/wrtpod/internal/events"
	"github.com/wrtpod/wrtpod/pkg/logger"
)

// Puller abstracts the streaming pull session client.
type Puller interface {
	PullImage(ctx context.Context, ref string, onProgress func(string)) (bool, error)
}

// Service orchestrates container auto-updates. All multi-container
// operations run strictly sequentially: embedded targets have limited
// CPU, network and storage bandwidth, and concurrent pulls or
// container churn risk daemon contention.
type Service struct {
	podman out.PodmanClient
	puller Puller
	bus    events.Publisher
	log    *logger.Logger
}

// NewService creates an update service. bus may be nil when no
// lifecycle events are wanted.
func NewService(podman out.PodmanClient, puller Puller, bus events.Publisher) *Service {
	return &Service{
		podman: podman,
		puller: puller,
		bus:    bus,
		log:    logger.GetLogger(),
	}
}

// Candidates lists all containers (including stopped ones) and filters
// to those carrying a truthy auto-update label. Pure read; source list
// order is preserved.
func (s *Service) Candidates(ctx context.Context) ([]domain.AutoUpdateCandidate, error) {
	containers, err := s.podman.ListContainers(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	candidates := []domain.AutoUpdateCandidate{}
	for _, c := range containers {
		policy := c.Labels[domain.AutoUpdateLabel]
		if policy == "" {
			continue
		}
		candidates = append(candidates, domain.AutoUpdateCandidate{
			ID:      c.ID,
			Name:    c.Name,
			Image:   c.Image,
			ImageID: c.ImageID,
			Running: c.Running(),
			Policy:  policy,
		})
	}

	s.log.Debug("auto-update candidates discovered", "count", len(candidates))
	return candidates, nil
}

func (s *Service) publish(event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event); err != nil {
		s.log.Debug("event dropped", "type", string(event.Type), "error", err)
	}
}
