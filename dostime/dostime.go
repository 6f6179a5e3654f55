// Package dostime converts between UTC millisecond instants and the 32-bit
// packed MS-DOS date+time used by the ZIP format.
//
// ZIP writers historically store DOS times as the local wall clock of the
// writing machine, so both directions of the conversion go through a
// time.Location. The resolution of DOS time is 2 seconds; comparisons of
// instants at DOS granularity must first round down with RoundDownToQuantum.
//
// The on-disk layout is two little-endian uint16 values: the time word
// (seconds/2, minute, hour) followed by the date word (day, month,
// year-1980). This matches both the local file header field at offset +10
// and the central directory field at offset +12.
package dostime

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/zipstamp/zipstamp/errs"
)

// Quantum is the DOS time resolution in milliseconds.
const Quantum int64 = 2000

const (
	minYear = 1980
	maxYear = 2107
)

// FieldSize is the on-disk size of a packed DOS date+time field in bytes.
const FieldSize = 4

// Codec packs and unpacks DOS times relative to a fixed location.
//
// The zero value is not usable; construct with NewCodec. Codec values are
// immutable and safe for concurrent use.
type Codec struct {
	loc *time.Location
}

// NewCodec creates a codec using the given location for the local-clock
// convention. A nil location selects the process's local time zone, which
// matches what historical ZIP writers on the same host produced.
func NewCodec(loc *time.Location) Codec {
	if loc == nil {
		loc = time.Local
	}

	return Codec{loc: loc}
}

// Pack converts a UTC millisecond instant to the 4-byte packed DOS field.
//
// Returns errs.ErrDosTimeRange if the instant, expressed in the codec's
// location, falls outside the representable DOS years 1980-2107.
func (c Codec) Pack(utcMillis int64) ([FieldSize]byte, error) {
	var out [FieldSize]byte

	t := time.UnixMilli(utcMillis).In(c.loc)
	year := t.Year()
	if year < minYear || year > maxYear {
		return out, fmt.Errorf("year %d: %w", year, errs.ErrDosTimeRange)
	}

	dosTime := uint16(t.Second()/2 + t.Minute()<<5 + t.Hour()<<11)
	dosDate := uint16(t.Day() + int(t.Month())<<5 + (year-minYear)<<9)

	binary.LittleEndian.PutUint16(out[0:2], dosTime)
	binary.LittleEndian.PutUint16(out[2:4], dosDate)

	return out, nil
}

// Unpack converts a 4-byte packed DOS field back to a UTC millisecond
// instant, rounded to the DOS quantum by construction.
//
// A zero month or day field cannot encode a real timestamp; such fields are
// the "no time" sentinel and yield errs.ErrNoTimestamp.
func (c Codec) Unpack(b [FieldSize]byte) (int64, error) {
	dosTime := binary.LittleEndian.Uint16(b[0:2])
	dosDate := binary.LittleEndian.Uint16(b[2:4])

	day := int(dosDate & 0x1f)
	month := int(dosDate >> 5 & 0xf)
	year := minYear + int(dosDate>>9)

	if month == 0 || day == 0 {
		return 0, fmt.Errorf("dos field % X: %w", b, errs.ErrNoTimestamp)
	}

	sec := int(dosTime&0x1f) * 2
	minute := int(dosTime >> 5 & 0x3f)
	hour := int(dosTime >> 11)

	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, c.loc)

	return t.UnixMilli(), nil
}

// Format renders a packed DOS field as human-readable local date+time, for
// diagnostics. Sentinel fields render as "no time".
func (c Codec) Format(b [FieldSize]byte) string {
	ms, err := c.Unpack(b)
	if err != nil {
		return "no time"
	}

	return time.UnixMilli(ms).In(c.loc).Format("2006-01-02 15:04:05")
}

// RoundDownToQuantum rounds a UTC millisecond instant down to the 2-second
// DOS quantum.
func RoundDownToQuantum(utcMillis int64) int64 {
	q := utcMillis / Quantum
	if utcMillis%Quantum != 0 && utcMillis < 0 {
		q--
	}

	return q * Quantum
}
