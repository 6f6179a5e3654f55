package merge

import (
	"archive/zip"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zipstamp/zipstamp/dostime"
	"github.com/zipstamp/zipstamp/zipfmt"
)

// Test archives are written and read with a pinned UTC convention so the
// results do not depend on the host's time zone.
var codecUTC = dostime.NewCodec(time.UTC)

// archiveEntry describes one entry of a generated test archive.
type archiveEntry struct {
	name     string
	content  []byte
	raw      []byte // pre-compressed payload, written verbatim via CreateRaw
	method   uint16
	timeMs   int64
	modified time.Time // when set, archive/zip emits an extended-timestamp extra
	noTime   bool      // leave the DOS field zeroed
}

// writeArchive builds a test archive with explicit legacy DOS time fields,
// which keeps archive/zip from attaching the extended-timestamp extra field
// it derives from Modified.
func writeArchive(t *testing.T, path string, entries []archiveEntry) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		fh := &zip.FileHeader{Name: e.name, Method: e.method}
		switch {
		case !e.modified.IsZero():
			fh.Modified = e.modified
		case e.noTime:
			// month and day stay zero: the "no time" sentinel
		default:
			packed, err := codecUTC.Pack(e.timeMs)
			require.NoError(t, err)
			fh.ModifiedTime = binary.LittleEndian.Uint16(packed[0:2])
			fh.ModifiedDate = binary.LittleEndian.Uint16(packed[2:4])
		}

		if e.raw != nil {
			fh.CRC32 = crc32.ChecksumIEEE(e.content)
			fh.UncompressedSize64 = uint64(len(e.content))
			fh.CompressedSize64 = uint64(len(e.raw))
			w, err := zw.CreateRaw(fh)
			require.NoError(t, err)
			_, err = w.Write(e.raw)
			require.NoError(t, err)
			continue
		}

		w, err := zw.CreateHeader(fh)
		require.NoError(t, err)
		if len(e.content) > 0 {
			_, err = w.Write(e.content)
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func mustMillis(t *testing.T, value string) int64 {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)

	return parsed.UnixMilli()
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)

	return parsed
}

// entryTimes reads back every entry's DOS time (asserting the local/central
// invariant on the way) as UTC milliseconds.
func entryTimes(t *testing.T, path string) map[string]int64 {
	t.Helper()

	a, err := zipfmt.Open(path)
	require.NoError(t, err)
	defer a.Close()

	times := make(map[string]int64, len(a.Entries()))
	for _, entry := range a.Entries() {
		require.Equal(t, entry.TimeBytes, entry.CentralTimeBytes, "entry %q", entry.Name)
		ms, err := codecUTC.Unpack(entry.TimeBytes)
		require.NoError(t, err, "entry %q", entry.Name)
		times[entry.Name] = ms
	}

	return times
}

// recordingLogger captures log output per channel for assertions.
type recordingLogger struct {
	debugs []string
	infos  []string
	warns  []string
}

func (l *recordingLogger) Debugf(format string, args ...any) {
	l.debugs = append(l.debugs, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Infof(format string, args ...any) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}
