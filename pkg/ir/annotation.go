package ir

// AnnotationKind tags the payload an Annotation carries. The set below
// is the concrete vocabulary this module ships and round-trips; it is
// a deliberate closed set rather than an exhaustive one.
type AnnotationKind uint8

const (
	AnnSourceLoc AnnotationKind = iota
	AnnInstrName
	AnnPrecondition
	AnnInlineHint
)

// Annotation is side metadata attached to an SExpr. Exactly one payload
// field is meaningful, selected by Kind.
type Annotation struct {
	Kind AnnotationKind

	// AnnSourceLoc
	File   string
	Line   uint32
	Column uint32

	// AnnInstrName
	Name string

	// AnnPrecondition — a nested SExpr, itself traversed and
	// reconstructed.
	Expr SExpr

	// AnnInlineHint
	Hint bool
}
