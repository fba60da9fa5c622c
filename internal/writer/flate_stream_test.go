package writer

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inflate(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := zlib.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(out)
}

func TestCompressStream(t *testing.T) {
	for _, level := range []CompressionLevel{NoCompression, BestSpeed, DefaultCompression, BestCompression} {
		data, err := CompressStream([]byte("65 66 67 1046"), level)
		require.NoError(t, err)
		assert.Equal(t, "65 66 67 1046", inflate(t, data))
	}

	_, err := CompressStream(nil, CompressionLevel(42))
	assert.Error(t, err)
}

func TestCompressionLevel_Valid(t *testing.T) {
	assert.True(t, DefaultCompression.Valid())
	assert.True(t, NoCompression.Valid())
	assert.True(t, BestCompression.Valid())
	assert.False(t, CompressionLevel(10).Valid())
	assert.False(t, CompressionLevel(-2).Valid())
}

func TestFlateStream_Toggle(t *testing.T) {
	var buf bytes.Buffer
	fs := NewFlateStream(&buf, BestCompression)

	_, err := fs.Write([]byte("a"))
	require.NoError(t, err)
	require.NoError(t, fs.TurnOnEncoding())
	require.NoError(t, fs.TurnOnEncoding())
	assert.True(t, fs.Encoding())
	_, err = fs.Write([]byte("compressed part"))
	require.NoError(t, err)
	require.NoError(t, fs.TurnOffEncoding())
	assert.False(t, fs.Encoding())
	_, err = fs.Write([]byte("z"))
	require.NoError(t, err)
	require.NoError(t, fs.Close())

	out := buf.Bytes()
	assert.Equal(t, byte('a'), out[0])
	assert.Equal(t, byte('z'), out[len(out)-1])
	assert.Equal(t, "compressed part", inflate(t, out[1:len(out)-1]))
}

func TestFlateStream_CloseFinishesEncoding(t *testing.T) {
	var buf bytes.Buffer
	fs := NewFlateStream(&buf, DefaultCompression)
	require.NoError(t, fs.TurnOnEncoding())
	_, err := io.WriteString(fs, "tail")
	require.NoError(t, err)
	require.NoError(t, fs.Close())

	assert.Equal(t, "tail", inflate(t, buf.Bytes()))
}

func TestFlateStream_BadLevel(t *testing.T) {
	fs := NewFlateStream(io.Discard, CompressionLevel(99))
	assert.Error(t, fs.TurnOnEncoding())
}
