// Package domain holds the core types shared between use cases and
// adapters. It has no dependencies on infrastructure.
package domain

// Container is a summary entry from the container list endpoint.
type Container struct {
	ID      string
	Name    string
	Image   string
	ImageID string
	State   string
	Labels  map[string]string
}

// Running reports whether the container's list state is "running".
func (c Container) Running() bool {
	return c.State == "running"
}

// ContainerDetail is the subset of a full container inspect needed for
// update orchestration. CreateCommand is the argv Podman recorded when
// the container was created; it is the only safe recreation spec.
type ContainerDetail struct {
	ID            string
	Name          string
	Image         string
	Running       bool
	CreateCommand []string
}

// ImageInfo is the subset of a local image inspect used for update
// detection.
type ImageInfo struct {
	ID           string
	Architecture string
	Os           string
	Digest       string
	RepoDigests  []string
}

// Manifest is a remote image manifest. For a single-arch image only
// Digest is set; for a manifest list Entries holds the per-platform
// digests.
type Manifest struct {
	Digest  string
	Entries []ManifestEntry
}

// ManifestEntry is one platform of a manifest list.
type ManifestEntry struct {
	Digest   string
	Platform Platform
}

// Platform identifies an architecture/OS pair.
type Platform struct {
	Architecture string
	OS           string
}

// PullStatus is one poll result of a streaming pull session. Output is
// the incremental text since the requested offset, never the full
// buffer.
type PullStatus struct {
	Output   string
	Complete bool
	Success  bool
}
