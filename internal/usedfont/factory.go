package usedfont

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/coregx/gxstate/internal/fonts"
)

// Factory loads fonts for a repository. With a metrics path, the metrics
// font's advances and vertical metrics replace those of the font.
type Factory struct {
	fs  afero.Fs
	cfg Config
}

// NewFactory returns a factory reading from fs.
func NewFactory(fs afero.Fs, cfg Config) *Factory {
	return &Factory{fs: fs, cfg: cfg}
}

// Resolve loads the font at path, applying metricsPath when set.
func (f *Factory) Resolve(path, metricsPath string) (*UsedFont, error) {
	font, err := fonts.LoadTTF(f.fs, path)
	if err != nil {
		return nil, err
	}
	if metricsPath != "" {
		metrics, err := fonts.LoadTTF(f.fs, metricsPath)
		if err != nil {
			return nil, fmt.Errorf("metrics font: %w", err)
		}
		if err := font.ApplyMetrics(metrics); err != nil {
			return nil, err
		}
	}
	return newUsedFont(path, metricsPath, font, f.cfg), nil
}
