package update

import (
	"context"
	"strings"

	"github.com/wrtpod/wrtpod/internal/boundaries/in"
	"github.com/wrtpod/wrtpod/internal/domain"
	"github.com/wrtpod/wrtpod/internal/events"
)

// Defaults applied when a local image inspect omits platform fields.
// Whether non-x86 Podman builds always report Architecture is an open
// question; the compared digests are surfaced in the result so the
// comparison stays auditable.
const (
	defaultArchitecture = "amd64"
	defaultOS           = "linux"
)

// CheckForUpdates compares each candidate's local image digest against
// the remote manifest, sequentially, without pulling any layers. A
// failure while checking one container converts that container's
// result into an error entry; it never aborts the batch. progress
// fires before each container's check with a 1-based index.
func (s *Service) CheckForUpdates(ctx context.Context, candidates []domain.AutoUpdateCandidate, progress in.CheckProgress) []domain.UpdateCheckResult {
	results := make([]domain.UpdateCheckResult, 0, len(candidates))
	total := len(candidates)

	for i, c := range candidates {
		if progress != nil {
			progress(c, i+1, total)
		}
		results = append(results, s.checkOne(ctx, c))
	}

	updates := 0
	for _, r := range results {
		if r.HasUpdate {
			updates++
		}
	}
	s.log.Info("update check finished", "checked", total, "updates", updates)
	s.publish(events.Event{Type: events.UpdateCheckCompleted, Data: results})

	return results
}

func (s *Service) checkOne(ctx context.Context, c domain.AutoUpdateCandidate) domain.UpdateCheckResult {
	result := domain.UpdateCheckResult{
		Name:           c.Name,
		Image:          c.Image,
		Running:        c.Running,
		CurrentImageID: c.ImageID,
	}

	img, err := s.podman.InspectImage(ctx, c.Image)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	arch := img.Architecture
	if arch == "" {
		arch = defaultArchitecture
	}
	osName := img.Os
	if osName == "" {
		osName = defaultOS
	}

	localDigest := extractDigest(img)
	result.CurrentDigest = localDigest

	manifest, err := s.podman.InspectManifest(ctx, c.Image)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	remoteDigest := findArchDigest(manifest, arch, osName)
	result.RemoteDigest = remoteDigest

	// Both digests must be resolvable; "cannot determine" is never
	// reported as an update.
	result.HasUpdate = localDigest != "" && remoteDigest != "" && localDigest != remoteDigest
	return result
}

// extractDigest resolves a local image's digest. The canonical
// manifest digest is authoritative; the RepoDigests scan is a
// heuristic fallback.
func extractDigest(img *domain.ImageInfo) string {
	if img.Digest != "" {
		return img.Digest
	}
	for _, repoDigest := range img.RepoDigests {
		if idx := strings.Index(repoDigest, "@sha256:"); idx >= 0 {
			return repoDigest[idx+1:]
		}
	}
	return ""
}

// findArchDigest selects the digest matching the local platform. A
// manifest without a platform list is single-arch and its own digest
// applies regardless of the requested platform. A manifest list with
// no matching platform yields "", meaning no update is determinable.
func findArchDigest(m *domain.Manifest, arch, osName string) string {
	if len(m.Entries) == 0 {
		return m.Digest
	}
	for _, entry := range m.Entries {
		if entry.Platform.Architecture == arch && entry.Platform.OS == osName {
			return entry.Digest
		}
	}
	return ""
}
