package zipfmt

// Signatures and fixed record sizes of the PKZip on-disk format. Only the
// non-ZIP64 records are supported; the ZIP64 sentinel is rejected during
// parsing.
const (
	fileHeaderSignature      = 0x04034b50
	directoryHeaderSignature = 0x02014b50
	directoryEndSignature    = 0x06054b50

	fileHeaderLen      = 30 // + filename + extra
	directoryHeaderLen = 46 // + filename + extra + comment
	directoryEndLen    = 22 // + comment

	// Byte offsets of fields inside the end-of-central-directory record.
	directoryEndSizeOffset   = 12 // size of the central directory
	directoryEndOffsetOffset = 16 // offset of the central directory

	zip64Sentinel = 0xffffffff

	maxCommentLen = 1 << 16
)

// Byte offsets of the packed DOS date+time field relative to the start of
// each header record. These are the only bytes the engine ever modifies.
const (
	// LocalHeaderTimeOffset is the offset of the DOS time field inside a
	// local file header.
	LocalHeaderTimeOffset = 10

	// CentralHeaderTimeOffset is the offset of the DOS time field inside a
	// central directory file header.
	CentralHeaderTimeOffset = 12
)

// Extra-field header IDs referenced by the engine.
const (
	// ExtTimeExtraID is the extended-timestamp extra field (mtime/atime/
	// ctime with one-second precision). Entries carrying it are rejected:
	// patching the DOS field alone would leave a contradictory timestamp.
	ExtTimeExtraID uint16 = 0x5455

	// Zip64ExtraID is the Zip64 extended information extra field.
	Zip64ExtraID uint16 = 0x0001
)
