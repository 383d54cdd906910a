package podman

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawIndex = `{
  "schemaVersion": 2,
  "mediaType": "application/vnd.oci.image.index.v1+json",
  "manifests": [
    {
      "mediaType": "application/vnd.oci.image.manifest.v1+json",
      "digest": "sha256:1111111111111111111111111111111111111111111111111111111111111111",
      "size": 1234,
      "platform": {"architecture": "amd64", "os": "linux"}
    },
    {
      "mediaType": "application/vnd.oci.image.manifest.v1+json",
      "digest": "sha256:2222222222222222222222222222222222222222222222222222222222222222",
      "size": 1234,
      "platform": {"architecture": "arm64", "os": "linux"}
    },
    {
      "mediaType": "application/vnd.oci.image.manifest.v1+json",
      "digest": "sha256:3333333333333333333333333333333333333333333333333333333333333333",
      "size": 567
    }
  ]
}`

func TestIndexEntries_FlattensPlatforms(t *testing.T) {
	entries, err := indexEntries([]byte(rawIndex))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "sha256:1111111111111111111111111111111111111111111111111111111111111111", entries[0].Digest)
	assert.Equal(t, "amd64", entries[0].Platform.Architecture)
	assert.Equal(t, "linux", entries[0].Platform.OS)

	assert.Equal(t, "arm64", entries[1].Platform.Architecture)

	// Attestation-style entries without a platform stay zero-valued.
	assert.Empty(t, entries[2].Platform.Architecture)
	assert.Empty(t, entries[2].Platform.OS)
}

func TestIndexEntries_MalformedJSON(t *testing.T) {
	_, err := indexEntries([]byte("{not json"))
	assert.Error(t, err)
}
