// Package sheet models one scanned page: its independently processable
// regions and its progress through the recognition pipeline.
package sheet

import (
	"image"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/EvgenyM/audiveris/pkg/sig"
)

var (
	ErrSheetDone      = errors.New("sheet is done, no further processing")
	ErrRegionNotFound = errors.New("region not found")
	ErrMarkerBackward = errors.New("step marker cannot move backward")
)

// RegionID identifies one region within its sheet.
type RegionID int

// Region is an independently processable partition of a sheet. Each
// region owns its interpretation graph.
type Region struct {
	ID     RegionID
	Bounds image.Rectangle
	Graph  *sig.Graph
	Sheet  *Sheet

	lastStep int
}

// LastStep reports the ordinal of the last step completed for this
// region, -1 when none has run.
func (r *Region) LastStep() int { return r.lastStep }

// CompleteStep records that the step with the given ordinal finished for
// this region.
func (r *Region) CompleteStep(ordinal int) { r.lastStep = ordinal }

// Sheet is one scanned page flowing through the pipeline.
type Sheet struct {
	Path string

	regions  []*Region
	lastStep int
	done     bool
}

// New creates a sheet with one region per given bounds. The sheet starts
// uninitialized: no step has run, the marker is at -1.
func New(path string, regionBounds ...image.Rectangle) *Sheet {
	s := &Sheet{
		Path:     path,
		lastStep: -1,
	}
	for i, b := range regionBounds {
		s.regions = append(s.regions, &Region{
			ID:       RegionID(i + 1),
			Bounds:   b,
			Graph:    sig.NewGraph(),
			Sheet:    s,
			lastStep: -1,
		})
	}
	return s
}

// Radix reports the sheet name without directory and extension.
func (s *Sheet) Radix() string {
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Regions reports the ordered regions of the sheet.
func (s *Sheet) Regions() []*Region { return s.regions }

// Region reports the region with the given ID.
func (s *Sheet) Region(id RegionID) (*Region, error) {
	for _, r := range s.regions {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.Wrapf(ErrRegionNotFound, "region %d of sheet %s", id, s.Radix())
}

// LastStep reports the ordinal of the last step completed for the whole
// sheet, -1 when uninitialized.
func (s *Sheet) LastStep() int { return s.lastStep }

// Advance moves the sheet marker to the given step ordinal.
func (s *Sheet) Advance(ordinal int) error {
	if s.done {
		return ErrSheetDone
	}
	if ordinal < s.lastStep {
		return errors.Wrapf(ErrMarkerBackward, "marker at %d, requested %d", s.lastStep, ordinal)
	}
	s.lastStep = ordinal
	return nil
}

// SetDone flags the sheet as fully processed. There is no forward
// transition once done; new processing requires a new sheet instance.
func (s *Sheet) SetDone() { s.done = true }

// IsDone reports whether the sheet finished the whole pipeline.
func (s *Sheet) IsDone() bool { return s.done }
