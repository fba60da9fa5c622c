package writer

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// CompressionLevel is a zlib compression level.
type CompressionLevel int

// Compression levels, mirroring compress/zlib.
const (
	NoCompression      CompressionLevel = zlib.NoCompression
	BestSpeed          CompressionLevel = zlib.BestSpeed
	BestCompression    CompressionLevel = zlib.BestCompression
	DefaultCompression CompressionLevel = zlib.DefaultCompression
)

// Valid reports whether zlib accepts the level.
func (l CompressionLevel) Valid() bool {
	return l >= DefaultCompression && l <= BestCompression
}

// CompressStream returns data compressed for a /FlateDecode stream.
func CompressStream(data []byte, level CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, int(level))
	if err != nil {
		return nil, fmt.Errorf("create zlib writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish compression: %w", err)
	}
	return buf.Bytes(), nil
}

// FlateStream writes through to a target, compressing while encoding is
// on. Each on/off span is an independent zlib stream.
type FlateStream struct {
	target io.Writer
	level  CompressionLevel
	zw     *zlib.Writer
}

// NewFlateStream returns a stream over target with encoding off.
func NewFlateStream(target io.Writer, level CompressionLevel) *FlateStream {
	return &FlateStream{target: target, level: level}
}

// TurnOnEncoding starts compressing subsequent writes.
func (s *FlateStream) TurnOnEncoding() error {
	if s.zw != nil {
		return nil
	}
	zw, err := zlib.NewWriterLevel(s.target, int(s.level))
	if err != nil {
		return fmt.Errorf("create zlib writer: %w", err)
	}
	s.zw = zw
	return nil
}

// TurnOffEncoding finishes the current zlib stream. Later writes pass
// through unchanged.
func (s *FlateStream) TurnOffEncoding() error {
	if s.zw == nil {
		return nil
	}
	err := s.zw.Close()
	s.zw = nil
	if err != nil {
		return fmt.Errorf("finish compression: %w", err)
	}
	return nil
}

// Encoding reports whether writes are being compressed.
func (s *FlateStream) Encoding() bool { return s.zw != nil }

func (s *FlateStream) Write(p []byte) (int, error) {
	if s.zw != nil {
		return s.zw.Write(p)
	}
	return s.target.Write(p)
}

// Close turns encoding off.
func (s *FlateStream) Close() error {
	return s.TurnOffEncoding()
}
