//go:build !cgo

package compress

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// Wrap returns a pure-Go Zstandard reader over r.
func (ZstdDecompressor) Wrap(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(false),
	)
	if err != nil {
		return nil, err
	}

	return decoder.IOReadCloser(), nil
}
