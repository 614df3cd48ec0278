// Package tesseract provides a Tesseract-backed classifier engine for
// the text-like symbols of a sheet: lyrics, directions, titles. Music
// symbols need a dedicated classifier; this engine only covers words.
package tesseract

import (
	"context"
	"image"

	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"

	"github.com/EvgenyM/audiveris/pkg/classifier"
	"github.com/EvgenyM/audiveris/pkg/sig"
)

// Option configures the engine.
type Option func(*Engine)

// WithLanguages sets the trained-data language hints.
func WithLanguages(langs ...string) Option {
	return func(e *Engine) {
		e.languages = append([]string(nil), langs...)
	}
}

// Engine recognizes words with a gosseract client per call.
type Engine struct {
	clientFactory func() *gosseract.Client
	languages     []string
}

// New constructs a Tesseract-backed engine.
func New(opts ...Option) *Engine {
	e := &Engine{clientFactory: gosseract.NewClient}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify runs word recognition over the page and keeps the detections
// falling inside the region bounds.
func (e *Engine) Classify(ctx context.Context, sheetPath string, bounds image.Rectangle) ([]classifier.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := e.clientFactory()
	defer c.Close()

	err := c.SetImage(sheetPath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to set image %s", sheetPath)
	}
	if len(e.languages) > 0 {
		err = c.SetLanguage(e.languages...)
		if err != nil {
			return nil, errors.Wrap(err, "unable to set languages")
		}
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to recognize words in %s", sheetPath)
	}

	var res []classifier.Candidate
	for _, box := range boxes {
		if !box.Box.Overlaps(bounds) {
			continue
		}
		res = append(res, classifier.Candidate{
			Shape:  sig.ShapeText,
			Bounds: box.Box,
			Grade:  box.Confidence / 100,
		})
	}

	return res, nil
}

var _ classifier.Engine = (*Engine)(nil)
