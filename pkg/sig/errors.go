package sig

import "github.com/pkg/errors"

var (
	ErrInterNotFound       = errors.New("inter not found")
	ErrDuplicateInter      = errors.New("inter already present")
	ErrRelationNotFound    = errors.New("relation not found")
	ErrDuplicateRelation   = errors.New("relation already present")
	ErrRelationKindsDiffer = errors.New("relation kind does not match")
)
