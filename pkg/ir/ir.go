// Package ir defines the typed intermediate language that pkg/codec
// serializes and deserializes. The codec treats this package as an
// external collaborator: it builds nodes through the Builder interface
// in builder.go, the one exception being the Literal value it fills in
// and hands to Builder.Literal.
package ir

// Kind tags the concrete type of an SExpr. pkg/codec's writer picks a
// node's opcode with a type switch on the concrete node type and writes
// each field explicitly, so the wire encoding never depends on struct
// layout.
type Kind uint8

const (
	KindLiteral Kind = iota
	KindVariable
	KindVarDecl
	KindFunction
	KindCode
	KindRecord
	KindArray
	KindLoad
	KindStore
	KindUnaryOp
	KindBinaryOp
	KindCast
	KindApply
	KindAlloc
	KindSCFG
	KindPhi
	KindWeakInstrRef
)

// SExpr is any node in the typed intermediate language.
type SExpr interface {
	Kind() Kind
	// Annotations returns the annotations attached to this node, in
	// the order they were attached.
	Annotations() []*Annotation
	setAnnotations([]*Annotation)
}

// base carries the parts every SExpr has: its own annotation list.
// Embedding base gives every concrete node Annotations()/setAnnotations()
// for free, the way syntax-tree node families typically share a common
// embedded Location.
type base struct {
	anns []*Annotation
}

func (b *base) Annotations() []*Annotation     { return b.anns }
func (b *base) setAnnotations(a []*Annotation) { b.anns = a }

// AddAnnotation appends ann to n's annotation list. The Builder calls
// this after constructing n, once per decoded Annotation atom.
func AddAnnotation(n SExpr, ann *Annotation) {
	n.setAnnotations(append(n.Annotations(), ann))
}

// VariableKind distinguishes local, parameter, global, and captured
// variable declarations.
type VariableKind uint8

const (
	VarLocal VariableKind = iota
	VarParam
	VarGlobal
	VarCapture
)

// CallingConvention selects a Function's calling convention.
type CallingConvention uint8

const (
	CCDefault CallingConvention = iota
	CCFast
	CCCold
	CCNative
)

// ApplyKind distinguishes a direct call from an indirect one.
type ApplyKind uint8

const (
	ApplyDirect ApplyKind = iota
	ApplyIndirect
)

// AllocKind distinguishes a stack allocation from a heap allocation.
type AllocKind uint8

const (
	AllocStack AllocKind = iota
	AllocHeap
)

// UnaryOpcode and BinaryOpcode share the 6-bit operator field. Cast
// has no operator of its own: it carries only its target BaseType,
// which pkg/codec writes in the 4-bit base-type field.
type UnaryOpcode uint8

const (
	UnaryNeg UnaryOpcode = iota
	UnaryNot
	UnaryBitNot
)

type BinaryOpcode uint8

const (
	BinaryAdd BinaryOpcode = iota
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryRem
	BinaryAnd
	BinaryOr
	BinaryXor
	BinaryShl
	BinaryShr
	BinaryEq
	BinaryNe
	BinaryLt
	BinaryLe
	BinaryGt
	BinaryGe
)

// Variable is a use-site reference to a VarDecl. On the wire it carries
// only a symbol-table index; Decl is populated by the reader from the
// Vars table.
type Variable struct {
	base
	Decl *VarDecl
}

func (*Variable) Kind() Kind { return KindVariable }

// VarDecl introduces a lexical scope around Body. Index is the
// declaration's 1-based position on the stack of open scopes
// (DefaultBuilder assigns it in EnterScope). The EnterScope atom does
// not carry it; a Variable referring to this declaration is written as
// this Index.
type VarDecl struct {
	base
	Name  string
	VKind VariableKind
	Type  BaseType
	Body  SExpr
	Index int
}

func (*VarDecl) Kind() Kind { return KindVarDecl }

// Function is a callable abstraction with a calling convention and a
// fixed parameter list.
type Function struct {
	base
	CC     CallingConvention
	Params []*VarDecl
	Body   SExpr
}

func (*Function) Kind() Kind { return KindFunction }

// Code is a bare lexical abstraction (no calling convention), used for
// nested lambdas that are always inlined at their use site.
type Code struct {
	base
	Params []*VarDecl
	Body   SExpr
}

func (*Code) Kind() Kind { return KindCode }

// Field is one named member of a Record.
type Field struct {
	Name  string
	Value SExpr
}

// Record is a fixed-shape aggregate of named fields.
type Record struct {
	base
	Fields []Field
}

func (*Record) Kind() Kind { return KindRecord }

// Array is a homogeneous aggregate of elements.
type Array struct {
	base
	Elem  BaseType
	Elems []SExpr
}

func (*Array) Kind() Kind { return KindArray }

// Load reads through Base, an address-valued SExpr.
type Load struct {
	base
	Base SExpr
}

func (*Load) Kind() Kind { return KindLoad }

// Store writes Value through Base, an address-valued SExpr.
type Store struct {
	base
	Base  SExpr
	Value SExpr
}

func (*Store) Kind() Kind { return KindStore }

// UnaryOp applies Op to X.
type UnaryOp struct {
	base
	Op UnaryOpcode
	X  SExpr
}

func (*UnaryOp) Kind() Kind { return KindUnaryOp }

// BinaryOp applies Op to X and Y (X op Y).
type BinaryOp struct {
	base
	Op BinaryOpcode
	X  SExpr
	Y  SExpr
}

func (*BinaryOp) Kind() Kind { return KindBinaryOp }

// Cast reinterprets X as To.
type Cast struct {
	base
	To BaseType
	X  SExpr
}

func (*Cast) Kind() Kind { return KindCast }

// Apply calls Callee with Args.
type Apply struct {
	base
	AKind  ApplyKind
	Callee SExpr
	Args   []SExpr
}

func (*Apply) Kind() Kind { return KindApply }

// Alloc allocates Size bytes.
type Alloc struct {
	base
	AKind AllocKind
	Size  SExpr
}

func (*Alloc) Kind() Kind { return KindAlloc }
