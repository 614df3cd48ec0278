package drawer

import (
	"github.com/EvgenyM/audiveris/pkg/pipeline/measure"
)

// Drawer renders the step sequence of a pipeline.
type Drawer interface {
	// AddStep adds a step to the drawing.
	AddStep(stepName string) error
	// AddLink adds the link between two consecutive steps.
	AddLink(parentStepName, childStepName string) error
	// AddMeasure colors the drawing with collected timings.
	AddMeasure(measure measure.Measure) error
	// Draw writes the drawing out.
	Draw() error
}
