// Package zipfmt reads the structure of PKZip archives at the byte level.
//
// The reader locates the end-of-central-directory record, walks the central
// directory, and cross-reads every local file header, producing entry views
// that carry the absolute byte offsets of both headers together with their
// raw filename bytes and packed DOS time fields. Those offsets are what the
// merge engine patches in place; nothing here ever writes.
//
// ZIP64 archives are out of scope: the reader fails fast on the 0xFFFFFFFF
// sentinel instead of misinterpreting offsets.
package zipfmt

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/zipstamp/zipstamp/compress"
	"github.com/zipstamp/zipstamp/errs"
)

// Archive is a read-only structural view of a ZIP file.
//
// The underlying file handle stays open for the lifetime of the view so
// entry streams can be served; Close releases it. An Archive and its
// entries must not be used after Close.
type Archive struct {
	path    string
	f       *os.File
	size    int64
	base    int64 // offset of the first local file header
	entries []*Entry
	index   *CentralIndex
}

// CentralRecord is the central directory's claim on one local header: where
// the central record lives and the raw filename bytes it carries.
type CentralRecord struct {
	CentralOffset int64
	RawName       []byte
}

// CentralIndex maps local-header byte offsets to their central directory
// records. It is built once per analysis pass and immutable afterwards.
type CentralIndex struct {
	records map[int64]CentralRecord
}

// Lookup returns the central record claiming the given local-header offset.
func (ci *CentralIndex) Lookup(localOffset int64) (CentralRecord, bool) {
	rec, ok := ci.records[localOffset]
	return rec, ok
}

// Len returns the number of indexed entries.
func (ci *CentralIndex) Len() int {
	return len(ci.records)
}

// Open reads the structure of the archive at path.
//
// The file is opened read-only. Structural defects (missing end record,
// truncated headers, duplicate central entries, ZIP64 sentinels) are
// reported as errs.ErrZipFormat.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	a := &Archive{path: path, f: f, size: st.Size()}
	if err := a.parse(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return a, nil
}

// Close releases the archive's file handle.
func (a *Archive) Close() error {
	return a.f.Close()
}

// Path returns the filesystem path the archive was opened from.
func (a *Archive) Path() string {
	return a.path
}

// Size returns the archive's size in bytes.
func (a *Archive) Size() int64 {
	return a.size
}

// FirstLocalHeaderOffset returns the byte offset of the first local file
// header. It is non-zero when the archive is embedded in a larger file;
// all entry offsets are already biased by it.
func (a *Archive) FirstLocalHeaderOffset() int64 {
	return a.base
}

// Entries returns the archive's entries in physical (file) order.
func (a *Archive) Entries() []*Entry {
	return a.entries
}

// CentralIndex returns the offset-keyed central directory index built when
// the archive was opened.
func (a *Archive) CentralIndex() *CentralIndex {
	return a.index
}

func (a *Archive) parse() error {
	eocdPos, cdSize, cdOffset, err := a.findDirectoryEnd()
	if err != nil {
		return err
	}

	if cdOffset == zip64Sentinel {
		return fmt.Errorf("zip64 central directory offset sentinel: %w", errs.ErrZipFormat)
	}

	a.base = eocdPos - int64(cdSize) - int64(cdOffset)
	if a.base < 0 {
		return fmt.Errorf("central directory offset %d is inconsistent: %w", cdOffset, errs.ErrZipFormat)
	}

	records, err := a.readCentralDirectory(eocdPos-int64(cdSize), eocdPos)
	if err != nil {
		return err
	}

	index := make(map[int64]CentralRecord, len(records))
	for _, rec := range records {
		if prev, dup := index[rec.localOffset]; dup {
			return fmt.Errorf("local header offset %d claimed by central entries %q and %q: %w",
				rec.localOffset, prev.RawName, rec.rawName, errs.ErrZipFormat)
		}
		index[rec.localOffset] = CentralRecord{CentralOffset: rec.centralOffset, RawName: rec.rawName}
	}
	a.index = &CentralIndex{records: index}

	// Physical order is local-header order, not central directory order.
	sort.Slice(records, func(i, j int) bool {
		return records[i].localOffset < records[j].localOffset
	})

	a.entries = make([]*Entry, 0, len(records))
	for _, rec := range records {
		entry, err := a.readLocalHeader(rec)
		if err != nil {
			return err
		}
		a.entries = append(a.entries, entry)
	}

	return nil
}

// findDirectoryEnd scans backward from EOF for the end-of-central-directory
// signature and returns the record's position plus its central directory
// size and offset fields.
func (a *Archive) findDirectoryEnd() (eocdPos int64, cdSize, cdOffset uint32, err error) {
	readSize := int64(maxCommentLen + directoryEndLen)
	if readSize > a.size {
		readSize = a.size
	}
	if readSize < directoryEndLen {
		return 0, 0, 0, fmt.Errorf("file of %d bytes is too small: %w", a.size, errs.ErrZipFormat)
	}

	buf := make([]byte, readSize)
	if _, err := a.f.ReadAt(buf, a.size-readSize); err != nil {
		return 0, 0, 0, err
	}

	for i := len(buf) - directoryEndLen; i >= 0; i-- {
		if binary.LittleEndian.Uint32(buf[i:]) != directoryEndSignature {
			continue
		}
		commentLen := int(binary.LittleEndian.Uint16(buf[i+20:]))
		if i+directoryEndLen+commentLen > len(buf) {
			continue
		}

		eocdPos = a.size - readSize + int64(i)
		cdSize = binary.LittleEndian.Uint32(buf[i+directoryEndSizeOffset:])
		cdOffset = binary.LittleEndian.Uint32(buf[i+directoryEndOffsetOffset:])

		return eocdPos, cdSize, cdOffset, nil
	}

	return 0, 0, 0, fmt.Errorf("end of central directory signature not found: %w", errs.ErrZipFormat)
}

// centralEntry is the parsed form of one central directory record.
type centralEntry struct {
	centralOffset int64
	localOffset   int64
	rawName       []byte
	extra         []ExtraField
	timeBytes     [4]byte
	method        compress.Method
	compressed    uint32
	uncompressed  uint32
}

// readCentralDirectory walks central records sequentially from start until
// the end-of-central-directory signature at end.
func (a *Archive) readCentralDirectory(start, end int64) ([]centralEntry, error) {
	if start < 0 || start > end {
		return nil, fmt.Errorf("central directory size is inconsistent: %w", errs.ErrZipFormat)
	}

	// The whole region including the trailing end-record signature, so the
	// walk below can observe the terminator.
	buf := make([]byte, end-start+4)
	if _, err := a.f.ReadAt(buf, start); err != nil {
		return nil, err
	}

	var records []centralEntry
	pos := 0
	for {
		if pos+4 > len(buf) {
			return nil, fmt.Errorf("central directory ends without end record: %w", errs.ErrZipFormat)
		}
		sig := binary.LittleEndian.Uint32(buf[pos:])
		if sig == directoryEndSignature {
			break
		}
		if sig != directoryHeaderSignature {
			return nil, fmt.Errorf("unexpected signature 0x%08x in central directory: %w", sig, errs.ErrZipFormat)
		}
		if pos+directoryHeaderLen > len(buf) {
			return nil, fmt.Errorf("truncated central directory header: %w", errs.ErrZipFormat)
		}

		rec := buf[pos:]
		nameLen := int(binary.LittleEndian.Uint16(rec[28:]))
		extraLen := int(binary.LittleEndian.Uint16(rec[30:]))
		commentLen := int(binary.LittleEndian.Uint16(rec[32:]))
		recLen := directoryHeaderLen + nameLen + extraLen + commentLen
		if pos+recLen > len(buf) {
			return nil, fmt.Errorf("truncated central directory entry: %w", errs.ErrZipFormat)
		}

		entry := centralEntry{
			centralOffset: start + int64(pos),
			method:        compress.Method(binary.LittleEndian.Uint16(rec[10:])),
			compressed:    binary.LittleEndian.Uint32(rec[20:]),
			uncompressed:  binary.LittleEndian.Uint32(rec[24:]),
			rawName:       append([]byte(nil), rec[directoryHeaderLen:directoryHeaderLen+nameLen]...),
		}
		copy(entry.timeBytes[:], rec[CentralHeaderTimeOffset:CentralHeaderTimeOffset+4])

		localOffset := binary.LittleEndian.Uint32(rec[42:])
		if localOffset == zip64Sentinel || entry.compressed == zip64Sentinel || entry.uncompressed == zip64Sentinel {
			return nil, fmt.Errorf("entry %q uses zip64 sentinel sizes: %w", entry.rawName, errs.ErrZipFormat)
		}
		entry.localOffset = a.base + int64(localOffset)

		extraRaw := rec[directoryHeaderLen+nameLen : directoryHeaderLen+nameLen+extraLen]
		extra, err := parseExtraFields(append([]byte(nil), extraRaw...))
		if err != nil {
			return nil, fmt.Errorf("entry %q central extra: %v: %w", entry.rawName, err, errs.ErrZipFormat)
		}
		entry.extra = extra

		records = append(records, entry)
		pos += recLen
	}

	return records, nil
}

// readLocalHeader reads the local file header claimed by a central record
// and combines both into an Entry view.
func (a *Archive) readLocalHeader(rec centralEntry) (*Entry, error) {
	var fixed [fileHeaderLen]byte
	if _, err := a.f.ReadAt(fixed[:], rec.localOffset); err != nil {
		return nil, fmt.Errorf("local header at %d: %w", rec.localOffset, errs.ErrZipFormat)
	}
	if binary.LittleEndian.Uint32(fixed[:]) != fileHeaderSignature {
		return nil, fmt.Errorf("no local header signature at %d for entry %q: %w",
			rec.localOffset, rec.rawName, errs.ErrZipFormat)
	}

	nameLen := int(binary.LittleEndian.Uint16(fixed[26:]))
	extraLen := int(binary.LittleEndian.Uint16(fixed[28:]))

	varData := make([]byte, nameLen+extraLen)
	if _, err := a.f.ReadAt(varData, rec.localOffset+fileHeaderLen); err != nil {
		return nil, fmt.Errorf("local header at %d is truncated: %w", rec.localOffset, errs.ErrZipFormat)
	}

	rawName := varData[:nameLen]
	localExtra, err := parseExtraFields(varData[nameLen:])
	if err != nil {
		return nil, fmt.Errorf("entry %q local extra: %v: %w", rawName, err, errs.ErrZipFormat)
	}

	entry := &Entry{
		Name:             string(rawName),
		RawName:          rawName,
		CentralRawName:   rec.rawName,
		Method:           rec.method,
		CompressedSize:   int64(rec.compressed),
		UncompressedSize: int64(rec.uncompressed),
		LocalOffset:      rec.localOffset,
		CentralOffset:    rec.centralOffset,
		CentralTimeBytes: rec.timeBytes,
		LocalExtra:       localExtra,
		CentralExtra:     rec.extra,
		dataOffset:       rec.localOffset + fileHeaderLen + int64(nameLen) + int64(extraLen),
		archive:          a,
	}
	copy(entry.TimeBytes[:], fixed[LocalHeaderTimeOffset:LocalHeaderTimeOffset+4])

	return entry, nil
}
