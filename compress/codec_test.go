package compress

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/zipstamp/zipstamp/errs"
)

func TestForMethod(t *testing.T) {
	tests := []struct {
		method Method
		want   Decompressor
	}{
		{MethodStore, StoreDecompressor{}},
		{MethodDeflate, FlateDecompressor{}},
		{MethodZstd, ZstdDecompressor{}},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			dec, err := ForMethod(tt.method)
			require.NoError(t, err)
			require.Equal(t, tt.want, dec)
		})
	}

	t.Run("Unsupported", func(t *testing.T) {
		_, err := ForMethod(Method(12))
		require.ErrorIs(t, err, errs.ErrUnsupportedMethod)
	})
}

func TestMethod_String(t *testing.T) {
	require.Equal(t, "Store", MethodStore.String())
	require.Equal(t, "Deflate", MethodDeflate.String())
	require.Equal(t, "Zstd", MethodZstd.String())
	require.Equal(t, "Method(12)", Method(12).String())
}

func TestStoreDecompressor(t *testing.T) {
	content := []byte("stored entries pass through unchanged")

	r, err := StoreDecompressor{}.Wrap(bytes.NewReader(content))
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestFlateDecompressor(t *testing.T) {
	content := bytes.Repeat([]byte("deflate round trip "), 500)

	var compressed bytes.Buffer
	fw, err := flate.NewWriter(&compressed, flate.BestCompression)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	r, err := FlateDecompressor{}.Wrap(bytes.NewReader(compressed.Bytes()))
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestZstdDecompressor(t *testing.T) {
	content := bytes.Repeat([]byte("zstd round trip "), 500)

	encoder, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := encoder.EncodeAll(content, nil)
	require.NoError(t, encoder.Close())

	r, err := ZstdDecompressor{}.Wrap(bytes.NewReader(compressed))
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, content, got)
}
