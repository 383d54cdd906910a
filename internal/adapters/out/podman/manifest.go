package podman

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"

	"github.com/wrtpod/wrtpod/internal/domain"
)

// InspectManifest fetches the remote manifest for ref without pulling
// the image. Manifest lists are flattened into per-platform entries so
// callers can match the local platform.
func (c *Client) InspectManifest(ctx context.Context, ref string) (*domain.Manifest, error) {
	parsed, err := name.ParseReference(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to parse image reference %s: %w", ref, err)
	}

	desc, err := remote.Get(parsed,
		remote.WithContext(ctx),
		remote.WithAuthFromKeychain(authn.DefaultKeychain),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest for %s: %w", ref, err)
	}

	manifest := &domain.Manifest{Digest: desc.Digest.String()}
	if desc.MediaType.IsIndex() {
		entries, err := indexEntries(desc.Manifest)
		if err != nil {
			return nil, fmt.Errorf("failed to parse manifest list for %s: %w", ref, err)
		}
		manifest.Entries = entries
	}

	c.log.Debug("manifest inspected", "image", ref, "digest", manifest.Digest, "entries", len(manifest.Entries))
	return manifest, nil
}

// indexEntries flattens a raw manifest list into per-platform entries.
// Entries without a platform keep a zero Platform and simply never
// match a lookup.
func indexEntries(raw []byte) ([]domain.ManifestEntry, error) {
	index, err := v1.ParseIndexManifest(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	entries := make([]domain.ManifestEntry, 0, len(index.Manifests))
	for _, m := range index.Manifests {
		entry := domain.ManifestEntry{Digest: m.Digest.String()}
		if m.Platform != nil {
			entry.Platform = domain.Platform{
				Architecture: m.Platform.Architecture,
				OS:           m.Platform.OS,
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
