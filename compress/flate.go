package compress

import (
	"io"

	"github.com/klauspost/compress/flate"
)

// FlateDecompressor decodes DEFLATE entry data (method 8), the dominant
// method in AAR/JAR/WAR archives.
type FlateDecompressor struct{}

var _ Decompressor = FlateDecompressor{}

// Wrap returns a DEFLATE reader over r.
func (FlateDecompressor) Wrap(r io.Reader) (io.ReadCloser, error) {
	return flate.NewReader(r), nil
}
