// Package writer persists rendered output documents to the filesystem.
package writer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyPath is returned when no destination path is given.
var ErrEmptyPath = errors.New("output path is empty")

const defaultBufSize = 64 * 1024

// Options configures an FS writer. Zero values select the defaults.
type Options struct {
	// PermFile and PermDir default to 0644 and 0755.
	PermFile os.FileMode
	PermDir  os.FileMode
	// BufSize defaults to 64 KiB.
	BufSize int
}

// FS writes whole artifacts by writing a temp file in the target directory
// and renaming it over the destination. Readers never see a partial file.
type FS struct {
	permF   os.FileMode
	permD   os.FileMode
	bufSize int
}

// New creates a filesystem writer.
func New(opts *Options) *FS {
	if opts == nil {
		opts = &Options{}
	}

	w := &FS{permF: 0o644, permD: 0o755, bufSize: defaultBufSize}

	if opts.PermFile != 0 {
		w.permF = opts.PermFile
	}

	if opts.PermDir != 0 {
		w.permD = opts.PermDir
	}

	if opts.BufSize > 0 {
		w.bufSize = opts.BufSize
	}

	return w
}

// WriteFile atomically replaces path with data using the default options.
func WriteFile(ctx context.Context, path string, data []byte) error {
	return New(nil).Write(ctx, path, bytes.NewReader(data))
}

// Write copies all of r to path, creating parent directories as needed.
func (w *FS) Write(ctx context.Context, path string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}

	dest := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(dest), w.permD); err != nil {
		return err
	}

	return w.writeAtomic(ctx, dest, r)
}

func (w *FS) writeAtomic(ctx context.Context, dest string, r io.Reader) error {
	dir := filepath.Dir(dest)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, w.permF)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return err
	}

	bw := bufio.NewWriterSize(tmp, w.bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return fail(err)
	}

	if err := bw.Flush(); err != nil {
		return fail(err)
	}

	if err := tmp.Sync(); err != nil {
		return fail(err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	// Best effort: persist the rename on platforms that support directory fsync.
	_ = syncDir(dir)

	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Sync()
}

// readerWithCtx checks ctx before every Read.
func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
