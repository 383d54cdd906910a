package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrtpod/wrtpod/internal/domain"
)

func TestResolveCandidates(t *testing.T) {
	candidates := []domain.AutoUpdateCandidate{
		{Name: "web", Image: "nginx:latest"},
		{Name: "db", Image: "postgres:16"},
	}

	all, err := resolveCandidates(candidates, nil)
	require.NoError(t, err)
	assert.Equal(t, candidates, all)

	selected, err := resolveCandidates(candidates, []string{"db"})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "db", selected[0].Name)

	_, err = resolveCandidates(candidates, []string{"ghost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestShortDigest(t *testing.T) {
	full := "sha256:aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899"
	assert.Equal(t, "sha256:aabbccddeeff", short(full))
	assert.Equal(t, "sha256:short", short("sha256:short"))
	assert.Equal(t, "", short(""))
}
