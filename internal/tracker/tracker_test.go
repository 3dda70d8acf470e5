package tracker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railyardhq/railyard/internal/program"
	"github.com/railyardhq/railyard/internal/types"
)

const sampleDoc = `
name: PI-2026.2
horizon:
  start: 2026-03-02
  iterations: 3
teams:
  - id: alpha
    velocity: 20
items:
  - id: ry-1
    title: Login page polish
  - id: ry-2
    title: Checkout receipt email
dependencies:
  - source: ry-2
    target: ry-1
`

func TestIncrementSource_ServesResolvedInputs(t *testing.T) {
	inc, err := program.Parse([]byte(sampleDoc))
	require.NoError(t, err)

	src := NewIncrementSource(inc)
	assert.Equal(t, "document:PI-2026.2", src.Name())

	items, err := src.FetchItems(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)

	edges, err := src.FetchEdges(context.Background())
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, types.DepRequires, edges[0].Kind)
}

func TestFileSource_ReadsDocumentOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	src := NewFileSource(path)
	assert.Equal(t, "file:pi.yaml", src.Name())

	items, err := src.FetchItems(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)

	// Clobbering the file must not affect later fetches: the first read
	// is the one the run plans against.
	require.NoError(t, os.WriteFile(path, []byte("{{"), 0o644))

	edges, err := src.FetchEdges(context.Background())
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestFileSource_PropagatesLoadError(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := src.FetchItems(context.Background())
	require.Error(t, err)

	_, edgeErr := src.FetchEdges(context.Background())
	require.Error(t, edgeErr)
	assert.Equal(t, err, edgeErr)
}

func TestFetchHonorsContext(t *testing.T) {
	inc, err := program.Parse([]byte(sampleDoc))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewIncrementSource(inc).FetchItems(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
