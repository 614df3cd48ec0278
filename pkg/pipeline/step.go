package pipeline

import (
	"context"

	"github.com/EvgenyM/audiveris/pkg/edit"
	"github.com/EvgenyM/audiveris/pkg/sheet"
	"github.com/EvgenyM/audiveris/pkg/sig"
)

// Step is one ordered stage of the recognition pipeline. A step carries
// no per-sheet state: everything mutable lives in the sheet and its
// region graphs.
//
// Process builds or refines the interpretations of one region. Regions
// are independent during a single pass and may run concurrently; a
// region's graph must be left untouched when Process returns an error or
// the context is cancelled (all-or-nothing per region).
//
// Epilog runs once per sheet after every region completed the pass, with
// exclusive access to the whole sheet. Steps with no cross-region phase
// return nil.
//
// Impact reacts incrementally to one already-applied edit sequence. It
// may append further tasks to the sequence; they are applied immediately
// and seen by the steps running later in the same pass, but never
// recorded into the script.
type Step interface {
	Name() string
	ImpactingClasses() []sig.Class
	Process(ctx context.Context, region *sheet.Region) error
	Epilog(ctx context.Context, sh *sheet.Sheet) error
	Impact(ctx context.Context, seq *edit.Seq, opKind edit.OpKind) error
}

func intersects(declared, touched []sig.Class) bool {
	for _, d := range declared {
		for _, t := range touched {
			if d == t {
				return true
			}
		}
	}
	return false
}
