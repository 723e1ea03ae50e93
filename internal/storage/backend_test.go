package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderef-labs/coderef-go/internal/index"
)

func snapshotMeta(modTime time.Time, size int64) Meta {
	return Meta{
		IndexPath:    ".coderef/index.json",
		IndexModTime: modTime,
		IndexSize:    size,
		SyncedAt:     time.Now(),
	}
}

func sampleElements(n int) []index.Element {
	out := make([]index.Element, n)
	for i := range out {
		out[i] = index.Element{
			Name:         fmt.Sprintf("element%03d", i),
			File:         "app.py",
			Line:         i*10 + 1,
			Type:         index.TypeFunction,
			Dependencies: []string{"shared"},
		}
	}
	return out
}

// backendRoundTrip exercises the Backend contract against any implementation.
func backendRoundTrip(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	meta, err := backend.Meta(ctx)
	require.NoError(t, err)
	assert.Nil(t, meta, "fresh store should have no meta")
	assert.Zero(t, backend.ElementCount())

	modTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	elements := sampleElements(5)
	require.NoError(t, backend.PutSnapshot(ctx, snapshotMeta(modTime, 2048), elements))

	meta, err = backend.Meta(ctx)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 5, meta.ElementCount)
	assert.True(t, meta.Matches(modTime, 2048))
	assert.False(t, meta.Matches(modTime, 1024))
	assert.False(t, meta.Matches(modTime.Add(time.Second), 2048))

	stored, err := backend.Elements(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 5)
	for i, el := range stored {
		assert.Equal(t, fmt.Sprintf("element%03d", i), el.Name)
	}
	assert.Equal(t, 5, backend.ElementCount())

	// Replacing with a smaller snapshot leaves no stale trailing elements.
	require.NoError(t, backend.PutSnapshot(ctx, snapshotMeta(modTime.Add(time.Minute), 512), elements[:2]))

	stored, err = backend.Elements(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.Equal(t, 2, backend.ElementCount())

	meta, err = backend.Meta(ctx)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 2, meta.ElementCount)
}

func TestMemoryBackend_RoundTrip(t *testing.T) {
	t.Parallel()

	backend := NewMemoryBackend()
	require.NoError(t, backend.Initialize("", false))
	defer backend.Close()

	backendRoundTrip(t, backend)
}

func TestBadgerBackend_RoundTrip(t *testing.T) {
	backend := NewBadgerBackend()
	require.NoError(t, backend.Initialize(t.TempDir(), false))
	defer backend.Close()

	backendRoundTrip(t, backend)
}

func TestBadgerBackend_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	modTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	backend := NewBadgerBackend()
	require.NoError(t, backend.Initialize(dir, false))
	require.NoError(t, backend.PutSnapshot(ctx, snapshotMeta(modTime, 1000), sampleElements(3)))
	require.NoError(t, backend.Close())

	reopened := NewBadgerBackend()
	require.NoError(t, reopened.Initialize(dir, true))
	defer reopened.Close()

	assert.Equal(t, 3, reopened.ElementCount())

	meta, err := reopened.Meta(ctx)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.True(t, meta.Matches(modTime, 1000))

	elements, err := reopened.Elements(ctx)
	require.NoError(t, err)
	require.Len(t, elements, 3)
	assert.Equal(t, "element000", elements[0].Name)
}

func TestBadgerBackend_RequiresInitialize(t *testing.T) {
	t.Parallel()

	backend := NewBadgerBackend()
	ctx := context.Background()

	_, err := backend.Meta(ctx)
	assert.Error(t, err)
	_, err = backend.Elements(ctx)
	assert.Error(t, err)
	assert.Error(t, backend.PutSnapshot(ctx, Meta{}, nil))
	assert.NoError(t, backend.Close())
}

func TestMeta_Matches(t *testing.T) {
	t.Parallel()

	modTime := time.Now()
	meta := &Meta{IndexModTime: modTime, IndexSize: 42}

	assert.True(t, meta.Matches(modTime, 42))
	assert.False(t, meta.Matches(modTime, 43))
	assert.False(t, meta.Matches(modTime.Add(time.Nanosecond), 42))

	var nilMeta *Meta
	assert.False(t, nilMeta.Matches(modTime, 42))
}
