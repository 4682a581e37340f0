package writer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile_CreatesAndReplaces(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "nested", "output.json")

	require.NoError(t, WriteFile(context.Background(), dest, []byte("first")))
	require.NoError(t, WriteFile(context.Background(), dest, []byte("second")))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFS_Write_Options(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.xml")

	w := New(&Options{PermFile: 0o600, BufSize: 8})
	require.NoError(t, w.Write(context.Background(), dest, strings.NewReader("<root></root>")))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "<root></root>", string(got))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFS_Write_EmptyPath(t *testing.T) {
	err := New(nil).Write(context.Background(), "  ", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestFS_Write_CancelledLeavesExistingFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, os.WriteFile(dest, []byte("keep"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(nil).Write(ctx, dest, strings.NewReader("replace"))
	require.ErrorIs(t, err, context.Canceled)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(got))
}
