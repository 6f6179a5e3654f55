//go:build cgo

package compress

import (
	"io"

	"github.com/valyala/gozstd"
)

// Wrap returns a Zstandard reader over r backed by libzstd.
func (ZstdDecompressor) Wrap(r io.Reader) (io.ReadCloser, error) {
	return &gozstdReadCloser{zr: gozstd.NewReader(r)}, nil
}

type gozstdReadCloser struct {
	zr *gozstd.Reader
}

func (g *gozstdReadCloser) Read(p []byte) (int, error) {
	return g.zr.Read(p)
}

func (g *gozstdReadCloser) Close() error {
	g.zr.Release()
	return nil
}
