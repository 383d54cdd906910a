package update

import (
	"context"
	"errors"
	"fmt"

	"github.com/wrtpod/wrtpod/internal/boundaries/in"
	"github.com/wrtpod/wrtpod/internal/domain"
	"github.com/wrtpod/wrtpod/internal/events"
)

// UpdateContainer performs the guarded update sequence for one
// container:
//
//  1. capture the recorded create command
//  2. pull the new image through a streaming session
//  3. stop the container (only if it was running)
//  4. force-remove the old container
//  5. recreate from the captured create command
//  6. start the new container (only if it was running)
//  7. best-effort removal of the old image
//  8. done
//
// The create command is captured before anything destructive happens
// and is carried in the failure result too, so a caller can recover a
// container lost between remove and recreate. There is no rollback
// after step 4: if recreate fails the container stays removed. step
// fires before each phase; it may be nil.
func (s *Service) UpdateContainer(ctx context.Context, c domain.AutoUpdateCandidate, step in.StepFunc) domain.UpdateResult {
	notify := step
	if notify == nil {
		notify = func(int, string) {}
	}

	result := domain.UpdateResult{Name: c.Name}
	fail := func(err error) domain.UpdateResult {
		s.log.Error("container update failed", "container", c.Name, "error", err)
		s.publish(events.Event{Type: events.UpdateFailed, Container: c.Name, Image: c.Image})
		result.Success = false
		result.Error = err.Error()
		return result
	}

	s.publish(events.Event{Type: events.UpdateStarted, Container: c.Name, Image: c.Image})

	notify(1, fmt.Sprintf("Reading creation parameters of %s", c.Name))
	detail, err := s.podman.InspectContainer(ctx, c.Name)
	if err != nil {
		return fail(fmt.Errorf("failed to inspect container %s: %w", c.Name, err))
	}
	if len(detail.CreateCommand) == 0 {
		return fail(domain.ErrMissingCreateCommand)
	}
	result.CreateCommand = detail.CreateCommand

	notify(2, fmt.Sprintf("Pulling %s", c.Image))
	// Incremental pull output goes through the same side channel so
	// callers can surface layer progress during the long phase.
	ok, err := s.puller.PullImage(ctx, c.Image, func(chunk string) {
		notify(2, chunk)
	})
	if err != nil {
		return fail(err)
	}
	if !ok {
		return fail(&domain.PullFailedError{Image: c.Image})
	}

	// Stopping a non-running container is skipped outright, not
	// attempted idempotently.
	if c.Running {
		notify(3, fmt.Sprintf("Stopping %s", c.Name))
		if err := s.podman.StopContainer(ctx, c.Name); err != nil {
			return fail(fmt.Errorf("failed to stop container %s: %w", c.Name, err))
		}
	}

	notify(4, fmt.Sprintf("Removing old container %s", c.Name))
	if err := s.podman.RemoveContainer(ctx, c.Name, true); err != nil {
		return fail(fmt.Errorf("failed to remove container %s: %w", c.Name, err))
	}

	notify(5, fmt.Sprintf("Recreating %s", c.Name))
	if err := s.podman.CreateContainer(ctx, detail.CreateCommand); err != nil {
		var recreateErr *domain.RecreateError
		if errors.As(err, &recreateErr) {
			return fail(recreateErr)
		}
		return fail(fmt.Errorf("failed to recreate container %s: %w", c.Name, err))
	}

	if c.Running {
		notify(6, fmt.Sprintf("Starting %s", c.Name))
		if err := s.podman.StartContainer(ctx, c.Name); err != nil {
			return fail(fmt.Errorf("failed to start container %s: %w", c.Name, err))
		}
	}

	notify(7, "Cleaning up old image")
	if c.ImageID != "" {
		// Best effort only: the old image may be shared by other
		// containers, so a removal failure is consciously discarded.
		if err := s.podman.RemoveImage(ctx, c.ImageID, false); err != nil {
			s.log.Debug("old image kept", "image", c.ImageID, "reason", err)
		}
	}

	notify(8, fmt.Sprintf("Updated %s", c.Name))
	s.log.Info("container updated", "container", c.Name, "image", c.Image)
	s.publish(events.Event{Type: events.UpdateCompleted, Container: c.Name, Image: c.Image})

	result.Success = true
	return result
}

// UpdateContainers updates the given containers strictly one after
// another, in input order. One container's failure never stops the
// batch; the terminal result separates successes and failures so the
// caller can report exactly which containers failed and why.
func (s *Service) UpdateContainers(ctx context.Context, candidates []domain.AutoUpdateCandidate, hooks in.BatchHooks) domain.BatchResult {
	result := domain.BatchResult{
		Successes: []domain.UpdateResult{},
		Failures:  []domain.UpdateResult{},
		Total:     len(candidates),
	}

	total := len(candidates)
	for i, c := range candidates {
		if hooks.OnContainerStart != nil {
			hooks.OnContainerStart(c, i+1, total)
		}

		var step in.StepFunc
		if hooks.OnContainerStep != nil {
			container := c
			step = func(n int, message string) {
				hooks.OnContainerStep(container, n, message)
			}
		}

		updateResult := s.UpdateContainer(ctx, c, step)

		if hooks.OnContainerComplete != nil {
			hooks.OnContainerComplete(c, updateResult, i+1, total)
		}

		if updateResult.Success {
			result.Successes = append(result.Successes, updateResult)
		} else {
			result.Failures = append(result.Failures, updateResult)
		}
	}

	s.log.Info("batch update finished", "total", result.Total, "succeeded", len(result.Successes), "failed", len(result.Failures))
	return result
}
