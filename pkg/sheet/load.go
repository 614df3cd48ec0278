package sheet

import (
	"image"
	"os"

	"github.com/pkg/errors"

	// Codecs for the usual scan formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"
)

const defaultBands = 4

// LoadOption configures sheet loading.
type LoadOption func(*loader)

// WithBands sets how many horizontal bands the page is partitioned into.
// Staff-aware partitioning belongs to the recognition collaborator; the
// loader only owns the partition geometry.
func WithBands(n int) LoadOption {
	return func(l *loader) {
		if n > 0 {
			l.bands = n
		}
	}
}

type loader struct {
	bands int
}

// Load decodes the scanned page at path and partitions it into regions.
func Load(path string, opts ...LoadOption) (*Sheet, error) {
	l := &loader{bands: defaultBands}
	for _, opt := range opts {
		opt(l)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open sheet %s", path)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode sheet image %s", path)
	}

	return New(path, bands(cfg.Width, cfg.Height, l.bands)...), nil
}

func bands(width, height, count int) []image.Rectangle {
	if count > height {
		count = height
	}

	res := make([]image.Rectangle, 0, count)
	for i := 0; i < count; i++ {
		top := i * height / count
		bottom := (i + 1) * height / count
		res = append(res, image.Rect(0, top, width, bottom))
	}
	return res
}
