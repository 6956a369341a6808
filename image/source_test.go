package image_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatfield-c/xcheck/image"
)

func TestOpen_MissingFile(t *testing.T) {
	_, err := image.Open(filepath.Join(t.TempDir(), "does-not-exist.img"))
	assert.Error(t, err)
}

func TestOpen_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.img")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := image.Open(path)
	assert.Error(t, err)
}

func TestOpen_ReadsMappedBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.img")
	want := make([]byte, 4096)
	for i := range want {
		want[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, want, 0o644))

	src, err := image.Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.EqualValues(t, len(want), src.Len())

	got := make([]byte, len(want))
	n, err := src.ReadAt(got, 0)
	require.NoError(t, err)
	assert.Equal(t, len(want), n)
	assert.Equal(t, want, got)
}
