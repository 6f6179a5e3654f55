// Package compress maps ZIP compression methods to streaming decompressors.
//
// The merge engine never re-compresses data; it only needs to read entry
// content back when raw compressed streams cannot prove equality. Store,
// Deflate and Zstandard cover the methods produced by the build pipelines
// this engine post-processes. The Zstandard codec has a cgo-backed and a
// pure-Go implementation selected at build time.
package compress

import (
	"fmt"
	"io"

	"github.com/zipstamp/zipstamp/errs"
)

// Method is a ZIP compression method identifier as stored in local and
// central headers.
type Method uint16

// Compression methods, per the PKWARE APPNOTE method registry.
const (
	MethodStore   Method = 0  // no compression
	MethodDeflate Method = 8  // DEFLATE
	MethodZstd    Method = 93 // Zstandard
)

func (m Method) String() string {
	switch m {
	case MethodStore:
		return "Store"
	case MethodDeflate:
		return "Deflate"
	case MethodZstd:
		return "Zstd"
	default:
		return fmt.Sprintf("Method(%d)", uint16(m))
	}
}

// Decompressor turns the raw compressed stream of a ZIP entry into its
// uncompressed content.
type Decompressor interface {
	// Wrap returns a reader producing the uncompressed bytes of r.
	// Closing the returned reader releases decoder resources but does not
	// close r.
	Wrap(r io.Reader) (io.ReadCloser, error)
}

// ForMethod returns the Decompressor for a ZIP compression method.
//
// Returns errs.ErrUnsupportedMethod for methods outside the supported set;
// callers that only need raw-stream comparison never hit this path.
func ForMethod(method Method) (Decompressor, error) {
	switch method {
	case MethodStore:
		return StoreDecompressor{}, nil
	case MethodDeflate:
		return FlateDecompressor{}, nil
	case MethodZstd:
		return ZstdDecompressor{}, nil
	default:
		return nil, fmt.Errorf("%s: %w", method, errs.ErrUnsupportedMethod)
	}
}
