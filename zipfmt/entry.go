package zipfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/zipstamp/zipstamp/compress"
	"github.com/zipstamp/zipstamp/dostime"
)

// ExtraField is one (headerId, payload) pair from a header's extra-field
// block.
type ExtraField struct {
	ID   uint16
	Data []byte
}

// Entry is a read-only view of one archive entry, combining its local file
// header and its central directory record.
//
// Name, RawName and TimeBytes come from the local header; CentralRawName
// and CentralTimeBytes come from the central directory record. The two
// sides are kept separate so callers can verify the consistency invariants
// between them.
type Entry struct {
	// Name is the entry name decoded from the local header filename bytes.
	// A trailing '/' marks a directory.
	Name string

	// RawName holds the on-disk filename bytes of the local header.
	RawName []byte

	// CentralRawName holds the on-disk filename bytes of the central
	// directory record that claims this entry.
	CentralRawName []byte

	// Method is the compression method recorded in the central directory.
	Method compress.Method

	// CompressedSize and UncompressedSize are the sizes recorded in the
	// central directory.
	CompressedSize   int64
	UncompressedSize int64

	// LocalOffset is the absolute byte offset of the local file header
	// signature, already biased by the archive's first-local-header offset.
	LocalOffset int64

	// CentralOffset is the absolute byte offset of the central directory
	// record signature.
	CentralOffset int64

	// TimeBytes is the packed DOS date+time field of the local header.
	TimeBytes [dostime.FieldSize]byte

	// CentralTimeBytes is the packed DOS date+time field of the central
	// directory record.
	CentralTimeBytes [dostime.FieldSize]byte

	// LocalExtra and CentralExtra are the parsed extra-field blocks of the
	// two headers.
	LocalExtra   []ExtraField
	CentralExtra []ExtraField

	dataOffset int64
	archive    *Archive
}

// IsDir reports whether the entry is a directory (name has a trailing '/').
func (e *Entry) IsDir() bool {
	return strings.HasSuffix(e.Name, "/")
}

// HasExtraID reports whether either header carries an extra field with the
// given header id.
func (e *Entry) HasExtraID(id uint16) bool {
	for _, f := range e.LocalExtra {
		if f.ID == id {
			return true
		}
	}
	for _, f := range e.CentralExtra {
		if f.ID == id {
			return true
		}
	}

	return false
}

// OpenRaw returns a reader over the entry's raw (still compressed) data
// stream. The reader stays valid until the archive is closed; closing it is
// a no-op.
func (e *Entry) OpenRaw() io.ReadCloser {
	return io.NopCloser(io.NewSectionReader(e.archive.f, e.dataOffset, e.CompressedSize))
}

// Open returns a reader over the entry's decompressed content.
//
// Returns errs.ErrUnsupportedMethod if no decompressor exists for the
// entry's compression method.
func (e *Entry) Open() (io.ReadCloser, error) {
	dec, err := compress.ForMethod(e.Method)
	if err != nil {
		return nil, fmt.Errorf("entry %q: %w", e.Name, err)
	}

	return dec.Wrap(io.NewSectionReader(e.archive.f, e.dataOffset, e.CompressedSize))
}

// parseExtraFields splits a raw extra-field block into (id, payload) pairs.
func parseExtraFields(data []byte) ([]ExtraField, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var fields []ExtraField
	for len(data) >= 4 {
		id := uint16(data[0]) | uint16(data[1])<<8
		size := int(data[2]) | int(data[3])<<8
		data = data[4:]
		if size > len(data) {
			return nil, fmt.Errorf("extra field 0x%04x: payload of %d bytes exceeds block", id, size)
		}
		fields = append(fields, ExtraField{ID: id, Data: data[:size]})
		data = data[size:]
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%d trailing bytes in extra field block", len(data))
	}

	return fields, nil
}
