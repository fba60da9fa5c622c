package gxstate

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/coregx/gxstate/internal/usedfont"
	"github.com/coregx/gxstate/internal/writer"
)

// DefaultPDFVersion is the header version of created documents.
const DefaultPDFVersion = "1.7"

// Option configures Create, Resume and Inspect.
type Option func(*config)

type config struct {
	fs            afero.Fs
	level         writer.CompressionLevel
	version       string
	compressState bool
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		fs:            afero.NewOsFs(),
		level:         writer.DefaultCompression,
		version:       DefaultPDFVersion,
		compressState: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.level.Valid() {
		return nil, fmt.Errorf("invalid compression level %d", cfg.level)
	}
	if cfg.fs == nil {
		return nil, fmt.Errorf("nil file system")
	}
	return cfg, nil
}

func (c *config) fontConfig() usedfont.Config {
	return usedfont.Config{CompressState: c.compressState, Level: c.level}
}

// WithFS reads fonts and documents from fs instead of the OS file system.
func WithFS(fs afero.Fs) Option {
	return func(c *config) { c.fs = fs }
}

// WithCompressionLevel sets the zlib level of content, font and state
// streams, from -1 (default) to 9. Level 0 writes content streams
// uncompressed.
func WithCompressionLevel(level int) Option {
	return func(c *config) { c.level = writer.CompressionLevel(level) }
}

// WithPDFVersion sets the header version of created documents.
func WithPDFVersion(version string) Option {
	return func(c *config) { c.version = version }
}

// WithCompressedState controls whether checkpointed font state is
// flate-encoded. It is on by default.
func WithCompressedState(on bool) Option {
	return func(c *config) { c.compressState = on }
}
