package compress

import "io"

// StoreDecompressor passes stored (uncompressed) entry data through
// unchanged.
type StoreDecompressor struct{}

var _ Decompressor = StoreDecompressor{}

// Wrap returns r unchanged behind a no-op closer.
func (StoreDecompressor) Wrap(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}
