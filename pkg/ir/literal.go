package ir

import "fmt"

// BaseType dispatches a Literal's payload and a Cast's target type.
// Pointer is the one base type whose literal value is constrained: the
// codec refuses to serialize a non-null Pointer literal.
type BaseType uint8

const (
	TypeBool BaseType = iota
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUInt8
	TypeUInt16
	TypeUInt32
	TypeUInt64
	TypeFloat32
	TypeFloat64
	TypeString
	TypePointer
)

func (t BaseType) String() string {
	switch t {
	case TypeBool:
		return "Bool"
	case TypeInt8:
		return "Int8"
	case TypeInt16:
		return "Int16"
	case TypeInt32:
		return "Int32"
	case TypeInt64:
		return "Int64"
	case TypeUInt8:
		return "UInt8"
	case TypeUInt16:
		return "UInt16"
	case TypeUInt32:
		return "UInt32"
	case TypeUInt64:
		return "UInt64"
	case TypeFloat32:
		return "Float32"
	case TypeFloat64:
		return "Float64"
	case TypeString:
		return "String"
	case TypePointer:
		return "Pointer"
	default:
		return fmt.Sprintf("BaseType(%d)", uint8(t))
	}
}

// Literal is a constant value of a fixed BaseType. Exactly one of the
// typed fields is meaningful, selected by Type; the others are zero.
// A Pointer literal's NonNull must be false — the builder rejects it
// otherwise, and the writer refuses to emit it at all.
type Literal struct {
	base
	Type BaseType

	Bool    bool
	Int     int64  // holds Int8/Int16/Int32/Int64
	UInt    uint64 // holds UInt8/UInt16/UInt32/UInt64
	Float32 float32
	Float64 float64
	Str     string
	NonNull bool // Pointer only; must be false
}

func (*Literal) Kind() Kind { return KindLiteral }

// NewBoolLiteral constructs a Bool literal directly, bypassing a
// Builder. Callers assembling a tree to hand to the writer (rather than
// reconstructing one via Read) use these constructors.
func NewBoolLiteral(v bool) *Literal       { return &Literal{Type: TypeBool, Bool: v} }
func NewInt8Literal(v int8) *Literal       { return &Literal{Type: TypeInt8, Int: int64(v)} }
func NewInt16Literal(v int16) *Literal     { return &Literal{Type: TypeInt16, Int: int64(v)} }
func NewInt32Literal(v int32) *Literal     { return &Literal{Type: TypeInt32, Int: int64(v)} }
func NewInt64Literal(v int64) *Literal     { return &Literal{Type: TypeInt64, Int: v} }
func NewUInt8Literal(v uint8) *Literal     { return &Literal{Type: TypeUInt8, UInt: uint64(v)} }
func NewUInt16Literal(v uint16) *Literal   { return &Literal{Type: TypeUInt16, UInt: uint64(v)} }
func NewUInt32Literal(v uint32) *Literal   { return &Literal{Type: TypeUInt32, UInt: uint64(v)} }
func NewUInt64Literal(v uint64) *Literal   { return &Literal{Type: TypeUInt64, UInt: v} }
func NewFloat32Literal(v float32) *Literal { return &Literal{Type: TypeFloat32, Float32: v} }
func NewFloat64Literal(v float64) *Literal { return &Literal{Type: TypeFloat64, Float64: v} }
func NewStringLiteral(v string) *Literal   { return &Literal{Type: TypeString, Str: v} }

// NewNullPointerLiteral constructs the only legal Pointer literal.
func NewNullPointerLiteral() *Literal { return &Literal{Type: TypePointer} }
