// Package patch applies verified fixed-width in-place overwrites to archive
// files.
//
// A patch replaces a small run of bytes at a known offset, but only after
// re-reading the file and confirming the bytes on disk still match what the
// analysis pass observed. The merge engine uses 4-byte patches exclusively
// (the packed DOS time fields), so a torn run can at worst leave entries
// partially migrated, never a structurally invalid archive.
package patch

import (
	"bytes"
	"fmt"
	"os"

	"github.com/zipstamp/zipstamp/dostime"
	"github.com/zipstamp/zipstamp/errs"
)

// Patch is one verified in-place overwrite: Expected must be on disk at
// Offset before Replacement is written. Both slices have equal length.
type Patch struct {
	Offset      int64
	Expected    []byte
	Replacement []byte
}

// Set accumulates patches in discovery order.
//
// The zero value is ready to use. Patches are independent by offset;
// discovery order is preserved so logs and application are deterministic.
type Set struct {
	patches []Patch
}

// Add appends a patch. It panics if expected and replacement differ in
// length or are identical, both of which indicate a caller bug rather than
// bad input data.
func (s *Set) Add(offset int64, expected, replacement []byte) {
	if len(expected) != len(replacement) {
		panic(fmt.Sprintf("patch at %d: expected %d bytes, replacement %d bytes", offset, len(expected), len(replacement)))
	}
	if bytes.Equal(expected, replacement) {
		panic(fmt.Sprintf("patch at %d replaces bytes with themselves", offset))
	}

	s.patches = append(s.patches, Patch{
		Offset:      offset,
		Expected:    append([]byte(nil), expected...),
		Replacement: append([]byte(nil), replacement...),
	})
}

// Len returns the number of accumulated patches.
func (s *Set) Len() int {
	return len(s.patches)
}

// Patches returns the accumulated patches in discovery order.
func (s *Set) Patches() []Patch {
	return s.patches
}

// Reset clears the set for reuse.
func (s *Set) Reset() {
	s.patches = nil
}

// Apply applies all patches to the file at path under a single read-write
// handle, verifying each patch's expected bytes before overwriting them.
//
// An empty set does not open the file at all. Verification failures are
// reported as *errs.UnexpectedDataError with the stale bytes decoded as DOS
// date+time through codec for operator diagnosis.
func (s *Set) Apply(path string, codec dostime.Codec) error {
	if len(s.patches) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	scratch := make([]byte, dostime.FieldSize)
	for _, p := range s.patches {
		if len(p.Expected) > len(scratch) {
			scratch = make([]byte, len(p.Expected))
		}
		buf := scratch[:len(p.Expected)]

		if _, err := f.ReadAt(buf, p.Offset); err != nil {
			return fmt.Errorf("%s: verify read at %d: %w", path, p.Offset, err)
		}
		if !bytes.Equal(buf, p.Expected) {
			return &errs.UnexpectedDataError{
				Archive:      path,
				Offset:       p.Offset,
				Expected:     p.Expected,
				Actual:       append([]byte(nil), buf...),
				ExpectedText: formatField(codec, p.Expected),
				ActualText:   formatField(codec, buf),
			}
		}
		if _, err := f.WriteAt(p.Replacement, p.Offset); err != nil {
			return fmt.Errorf("%s: write at %d: %w", path, p.Offset, err)
		}
	}

	return f.Close()
}

func formatField(codec dostime.Codec, b []byte) string {
	if len(b) != dostime.FieldSize {
		return "not a time field"
	}
	var field [dostime.FieldSize]byte
	copy(field[:], b)

	return codec.Format(field)
}
