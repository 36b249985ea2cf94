package etag

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestOpenFile(t *testing.T) {
	data := testData(100)
	path := writeFile(t, "test.bin", data)

	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, int64(100), f.Size())
	assert.Equal(t, path, f.Name())

	buf := make([]byte, 10)
	n, err := f.ReadAt(buf, 90)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, data[90:], buf)
}

func TestOpenFile_Errors(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.bin"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	dir := t.TempDir()
	_, err = OpenFile(dir)
	require.Error(t, err)

	var pathErr *fs.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, dir, pathErr.Path)
}

func TestComputeFile(t *testing.T) {
	ctx := context.Background()

	v, err := ComputeFile(ctx, writeFile(t, "empty", nil), DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", v.String())

	v, err = ComputeFile(ctx, writeFile(t, "data", testData(100)), Policy{Threshold: 30, ChunkSize: 30})
	require.NoError(t, err)
	assert.Equal(t, "c414a8bbfbf4c4e72b691a88f047ec50-4", v.String())

	_, err = ComputeFile(ctx, filepath.Join(t.TempDir(), "missing"), DefaultPolicy())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestComputeFile_InvalidPolicyBeforeIO(t *testing.T) {
	// the path does not exist, so a file system error would mean I/O happened first
	missing := filepath.Join(t.TempDir(), "missing")

	for _, p := range []Policy{{Threshold: 0, ChunkSize: 1}, {Threshold: 1, ChunkSize: 0}} {
		_, err := ComputeFile(context.Background(), missing, p)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
		assert.NotErrorIs(t, err, fs.ErrNotExist)
	}
}
