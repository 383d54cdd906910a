// Package in defines input ports: the use-case contracts driving
// adapters (HTTP, CLI) program against.
package in

import (
	"context"

	"github.com/wrtpod/wrtpod/internal/domain"
)

// CheckProgress fires before each container's update check begins.
// index is 1-based.
type CheckProgress func(c domain.AutoUpdateCandidate, index, total int)

// StepFunc fires before each phase of a single-container update with a
// human-readable status. It is a side channel, not part of the result
// contract.
type StepFunc func(step int, message string)

// BatchHooks carries the progress callbacks of a batch update. Any of
// the fields may be nil.
type BatchHooks struct {
	OnContainerStart    func(c domain.AutoUpdateCandidate, index, total int)
	OnContainerStep     func(c domain.AutoUpdateCandidate, step int, message string)
	OnContainerComplete func(c domain.AutoUpdateCandidate, result domain.UpdateResult, index, total int)
}

// UpdateOrchestrator drives auto-update discovery, detection and
// execution.
type UpdateOrchestrator interface {
	Candidates(ctx context.Context) ([]domain.AutoUpdateCandidate, error)
	CheckForUpdates(ctx context.Context, candidates []domain.AutoUpdateCandidate, progress CheckProgress) []domain.UpdateCheckResult
	UpdateContainer(ctx context.Context, c domain.AutoUpdateCandidate, step StepFunc) domain.UpdateResult
	UpdateContainers(ctx context.Context, candidates []domain.AutoUpdateCandidate, hooks BatchHooks) domain.BatchResult
}

// NetworkIntegrator reconciles OpenWrt network/firewall configuration
// with Podman network intent.
type NetworkIntegrator interface {
	CreateIntegration(ctx context.Context, networkName string, opts domain.IntegrationOptions) error
	RemoveIntegration(ctx context.Context, networkName, bridgeName string) error
	HasIntegration(ctx context.Context, networkName string) bool
	IsIntegrationComplete(ctx context.Context, networkName string) domain.IntegrationState
	GetIntegration(ctx context.Context, networkName string) *domain.NetworkIntegration
	ValidateIntegration(ctx context.Context, networkName string, opts domain.IntegrationOptions) domain.ValidationResult
}
