package sig

import "image"

// InterID identifies one interpretation inside its region graph. IDs are
// assigned by a per-graph monotonic counter, so two graphs built by the
// same sequence of operations assign the same IDs.
type InterID int

// Class tags the family of an interpretation. Steps declare the classes
// they want to be impacted by; Edit Tasks report the classes they touch.
type Class string

const (
	ClassGlyph    Class = "glyph"
	ClassHead     Class = "head"
	ClassStem     Class = "stem"
	ClassBeam     Class = "beam"
	ClassWord     Class = "word"
	ClassSentence Class = "sentence"
)

// Shape is the concrete label carried by an interpretation. ShapeNone
// marks an interpretation that has been detected but not assigned.
type Shape string

const (
	ShapeNone          Shape = ""
	ShapeNoteheadBlack Shape = "notehead-black"
	ShapeNoteheadVoid  Shape = "notehead-void"
	ShapeWholeNote     Shape = "whole-note"
	ShapeStem          Shape = "stem"
	ShapeBeam          Shape = "beam"
	ShapeBeamHook      Shape = "beam-hook"
	ShapeGClef         Shape = "g-clef"
	ShapeFClef         Shape = "f-clef"
	ShapeFlat          Shape = "flat"
	ShapeSharp         Shape = "sharp"
	ShapeText          Shape = "text"
	ShapeLyricLine     Shape = "lyric-line"
)

var shapeClasses = map[Shape]Class{
	ShapeNoteheadBlack: ClassHead,
	ShapeNoteheadVoid:  ClassHead,
	ShapeWholeNote:     ClassHead,
	ShapeStem:          ClassStem,
	ShapeBeam:          ClassBeam,
	ShapeBeamHook:      ClassBeam,
	ShapeGClef:         ClassGlyph,
	ShapeFClef:         ClassGlyph,
	ShapeFlat:          ClassGlyph,
	ShapeSharp:         ClassGlyph,
	ShapeText:          ClassWord,
	ShapeLyricLine:     ClassSentence,
}

// ClassOf reports the class a shape belongs to, ClassGlyph when unknown.
func ClassOf(shape Shape) Class {
	if c, ok := shapeClasses[shape]; ok {
		return c
	}
	return ClassGlyph
}

// Inter is one interpretation of a piece of ink. Shape is the only field
// Edit Tasks mutate; everything else is fixed at creation.
type Inter struct {
	ID     InterID
	Class  Class
	Shape  Shape
	Bounds image.Rectangle
	Grade  float64
}

// RelKind tags a relation between two interpretations.
type RelKind string

const (
	RelSupport     RelKind = "support"
	RelExclusion   RelKind = "exclusion"
	RelContainment RelKind = "containment"
)

// Relation is a directed, typed edge between two interpretations.
type Relation struct {
	Source InterID
	Target InterID
	Kind   RelKind
}
