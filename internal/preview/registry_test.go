package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/forgery-check/internal/analysis"
)

func TestCreateOpenRevoke(t *testing.T) {
	registry := NewRegistry()
	img := analysis.Image{Name: "a.png", ContentType: "image/png", Data: []byte("png")}

	url := registry.Create(img)
	require.True(t, strings.HasPrefix(url, PathPrefix))
	require.Equal(t, 1, registry.Len())

	got, ok := registry.Open(strings.TrimPrefix(url, PathPrefix))
	require.True(t, ok)
	require.Equal(t, img, got)

	registry.Revoke(url)
	require.Zero(t, registry.Len())
	_, ok = registry.Open(strings.TrimPrefix(url, PathPrefix))
	require.False(t, ok)

	registry.Revoke(url)
	registry.Revoke("/previews/unknown")
	require.Zero(t, registry.Len())
}

func TestCreateIssuesDistinctURLs(t *testing.T) {
	registry := NewRegistry()
	img := analysis.Image{Name: "a.png"}

	require.NotEqual(t, registry.Create(img), registry.Create(img))
	require.Equal(t, 2, registry.Len())
}
