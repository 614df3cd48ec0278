// Package omr assembles the standard recognition pipeline and ties each
// opened sheet to its correction script.
package omr

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/EvgenyM/audiveris/pkg/classifier"
	"github.com/EvgenyM/audiveris/pkg/pipeline"
	"github.com/EvgenyM/audiveris/pkg/script"
	"github.com/EvgenyM/audiveris/pkg/sheet"
	"github.com/EvgenyM/audiveris/pkg/steps"
)

// Engine couples the standard pipeline with sheet loading and script
// handling.
type Engine struct {
	pipe     *pipeline.Pipeline
	loadOpts []sheet.LoadOption
}

// Option configures the engine.
type Option func(*Engine)

// WithLoadOptions forwards options to every sheet load.
func WithLoadOptions(opts ...sheet.LoadOption) Option {
	return func(e *Engine) {
		e.loadOpts = opts
	}
}

// NewEngine builds the standard ASSIGN / LINK pipeline around the given
// classifier.
func NewEngine(cls classifier.Engine, pipeOpts []pipeline.Option, opts ...Option) (*Engine, error) {
	pipe, err := pipeline.New([]pipeline.Step{
		steps.NewAssign(cls),
		steps.NewLink(),
	}, pipeOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to assemble pipeline")
	}

	e := &Engine{pipe: pipe}
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Pipeline reports the engine's pipeline.
func (e *Engine) Pipeline() *pipeline.Pipeline { return e.pipe }

// Open loads a sheet and creates its script.
func (e *Engine) Open(path string) (*sheet.Sheet, *script.Script, error) {
	sh, err := sheet.Load(path, e.loadOpts...)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to open sheet %s", path)
	}

	return sh, script.New(sh), nil
}

// Process runs the sheet through the whole pipeline.
func (e *Engine) Process(ctx context.Context, sh *sheet.Sheet) error {
	stepList := e.pipe.Steps()
	last := stepList[len(stepList)-1]

	return e.pipe.RunTo(ctx, sh, last.Name())
}

// Replay loads a serialized script and replays it: the sheet is resolved
// by its recorded path, fully processed, then every recorded transaction
// is applied in order.
func (e *Engine) Replay(ctx context.Context, r io.Reader) (*script.Script, error) {
	scr, err := script.Load(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load script")
	}

	resolve := func(path string) (*sheet.Sheet, error) {
		sh, err := sheet.Load(path, e.loadOpts...)
		if err != nil {
			return nil, err
		}
		if err := e.Process(ctx, sh); err != nil {
			return nil, err
		}
		return sh, nil
	}

	err = scr.Run(ctx, resolve, e.pipe)
	if err != nil {
		return scr, err
	}

	return scr, nil
}
