// Package classifier defines the contract of the external recognition
// collaborator: given the scanned page and the bounds of one region,
// report shape candidates. The pipeline treats the engine as opaque; its
// only visible contract is "produce candidates or fail".
package classifier

import (
	"context"
	"image"

	"github.com/EvgenyM/audiveris/pkg/sig"
)

// Candidate is one detection reported by an engine.
type Candidate struct {
	Shape  sig.Shape
	Bounds image.Rectangle
	Grade  float64
}

// Engine recognizes symbols inside one region of a scanned page.
type Engine interface {
	Classify(ctx context.Context, sheetPath string, bounds image.Rectangle) ([]Candidate, error)
}

// Func adapts a plain function to the Engine interface.
type Func func(ctx context.Context, sheetPath string, bounds image.Rectangle) ([]Candidate, error)

func (f Func) Classify(ctx context.Context, sheetPath string, bounds image.Rectangle) ([]Candidate, error) {
	return f(ctx, sheetPath, bounds)
}
