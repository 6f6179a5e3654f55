package dostime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zipstamp/zipstamp/errs"
)

func TestCodec_PackUnpackRoundTrip(t *testing.T) {
	codec := NewCodec(time.UTC)

	instants := []time.Time{
		time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1999, 12, 31, 23, 59, 58, 0, time.UTC),
		time.Date(2023, 9, 7, 1, 38, 34, 0, time.UTC),
		time.Date(2023, 9, 7, 1, 38, 35, int(500*time.Millisecond), time.UTC),
		time.Date(2107, 12, 31, 23, 59, 59, 0, time.UTC),
	}

	for _, instant := range instants {
		ms := instant.UnixMilli()
		packed, err := codec.Pack(ms)
		require.NoError(t, err, "pack %s", instant)

		unpacked, err := codec.Unpack(packed)
		require.NoError(t, err, "unpack %s", instant)
		require.Equal(t, RoundDownToQuantum(ms), unpacked, "round trip %s", instant)
	}
}

func TestCodec_PackSameQuantumSameBytes(t *testing.T) {
	codec := NewCodec(time.UTC)

	even := time.Date(2023, 9, 7, 1, 38, 34, 0, time.UTC).UnixMilli()
	odd := time.Date(2023, 9, 7, 1, 38, 35, 0, time.UTC).UnixMilli()

	packedEven, err := codec.Pack(even)
	require.NoError(t, err)
	packedOdd, err := codec.Pack(odd)
	require.NoError(t, err)

	require.Equal(t, packedEven, packedOdd, "instants in the same quantum pack identically")
}

func TestCodec_PackRange(t *testing.T) {
	codec := NewCodec(time.UTC)

	t.Run("Before 1980", func(t *testing.T) {
		_, err := codec.Pack(time.Date(1979, 12, 31, 23, 59, 59, 0, time.UTC).UnixMilli())
		require.ErrorIs(t, err, errs.ErrDosTimeRange)
	})

	t.Run("After 2107", func(t *testing.T) {
		_, err := codec.Pack(time.Date(2108, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli())
		require.ErrorIs(t, err, errs.ErrDosTimeRange)
	})
}

func TestCodec_UnpackNoTimestamp(t *testing.T) {
	codec := NewCodec(time.UTC)

	// A zero date word has month 0 and day 0, which no real timestamp can
	// produce.
	_, err := codec.Unpack([FieldSize]byte{0, 0, 0, 0})
	require.ErrorIs(t, err, errs.ErrNoTimestamp)
}

func TestCodec_LocationConvention(t *testing.T) {
	// The packed field holds local wall-clock digits, so the same instant
	// packs differently in different zones but always round-trips through
	// the same codec.
	instant := time.Date(2023, 9, 7, 1, 38, 34, 0, time.UTC)

	east := time.FixedZone("east", 2*60*60)
	utcCodec := NewCodec(time.UTC)
	eastCodec := NewCodec(east)

	packedUTC, err := utcCodec.Pack(instant.UnixMilli())
	require.NoError(t, err)
	packedEast, err := eastCodec.Pack(instant.UnixMilli())
	require.NoError(t, err)
	require.NotEqual(t, packedUTC, packedEast)

	unpacked, err := eastCodec.Unpack(packedEast)
	require.NoError(t, err)
	require.Equal(t, instant.UnixMilli(), unpacked)
}

func TestCodec_Format(t *testing.T) {
	codec := NewCodec(time.UTC)

	packed, err := codec.Pack(time.Date(2023, 9, 7, 1, 38, 34, 0, time.UTC).UnixMilli())
	require.NoError(t, err)
	require.Equal(t, "2023-09-07 01:38:34", codec.Format(packed))

	require.Equal(t, "no time", codec.Format([FieldSize]byte{}))
}

func TestRoundDownToQuantum(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want int64
	}{
		{"Already aligned", 2000, 2000},
		{"Rounds down", 3999, 2000},
		{"One past quantum", 2001, 2000},
		{"Zero", 0, 0},
		{"Negative aligned", -2000, -2000},
		{"Negative rounds toward minus infinity", -1, -2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, RoundDownToQuantum(tt.in))
		})
	}
}
