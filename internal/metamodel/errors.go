package metamodel

import "errors"

// Domain errors for template classification and model assembly.
var (
	// ErrMalformedTopology indicates a reaction/box/flow that cannot be
	// classified into any template variant.
	ErrMalformedTopology = errors.New("metamodel: malformed topology")

	// ErrDegenerateTemplate indicates a transition whose subject and
	// outcome are the same grounded concept.
	ErrDegenerateTemplate = errors.New("metamodel: degenerate template (subject equals outcome)")

	// ErrUnresolvedSymbol indicates a rate law referencing a name absent
	// from every known symbol table.
	ErrUnresolvedSymbol = errors.New("metamodel: unresolved symbol in rate law")

	// ErrGroundingConflict indicates two normalization rules rewriting
	// the same identifier to different values.
	ErrGroundingConflict = errors.New("metamodel: conflicting grounding rewrites")

	// ErrDuplicateSymbol indicates a name collision between the species,
	// parameter and compartment namespaces of a source document.
	ErrDuplicateSymbol = errors.New("metamodel: duplicate name across symbol namespaces")
)
