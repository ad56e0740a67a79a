package codec

import "fmt"

// Op is the 6-bit opcode field shared by structural pseudo-opcodes and
// real IR node opcodes: pseudo opcodes occupy the low end of the
// space, real IR opcodes are written as PSOpLast+n so a reader tells
// the two apart by numeric range alone.
type Op uint8

// Pseudo-opcodes: structural markers that never correspond to an IR
// node by themselves.
const (
	PSOpNull Op = iota
	PSOpWeakInstrRef
	PSOpBBArgument
	PSOpBBInstruction
	PSOpEnterScope
	PSOpExitScope
	PSOpEnterBlock
	PSOpEnterCFG
	PSOpAnnotation
	// PSOpEndOfStream closes a stream written by a single Writer.Write
	// call. Atoms are bit-contiguous and carry no length prefix, so
	// without an explicit terminator a reader has no way to tell
	// Flush's trailing zero-pad bits apart from a legitimate opcode
	// once the logical tree is fully decoded.
	PSOpEndOfStream
	PSOpLast // sentinel: real IR opcodes start here
)

// Real IR opcodes, encoded as PSOpLast+n on the wire.
const (
	OpLiteral Op = PSOpLast + iota
	OpVariable
	OpFunction
	OpCode
	OpRecord
	OpArray
	OpLoad
	OpStore
	OpUnaryOp
	OpBinaryOp
	OpCast
	OpApply
	OpAlloc
	OpSCFG
	OpGoto
	OpCondBranch
	OpReturn
)

// IsPseudo reports whether op denotes a structural marker rather than
// an SExpr.
func (op Op) IsPseudo() bool { return op < PSOpLast }

func (op Op) String() string {
	switch op {
	case PSOpNull:
		return "Null"
	case PSOpWeakInstrRef:
		return "WeakInstrRef"
	case PSOpBBArgument:
		return "BBArgument"
	case PSOpBBInstruction:
		return "BBInstruction"
	case PSOpEnterScope:
		return "EnterScope"
	case PSOpExitScope:
		return "ExitScope"
	case PSOpEnterBlock:
		return "EnterBlock"
	case PSOpEnterCFG:
		return "EnterCFG"
	case PSOpAnnotation:
		return "Annotation"
	case PSOpEndOfStream:
		return "EndOfStream"
	case OpLiteral:
		return "Literal"
	case OpVariable:
		return "Variable"
	case OpFunction:
		return "Function"
	case OpCode:
		return "Code"
	case OpRecord:
		return "Record"
	case OpArray:
		return "Array"
	case OpLoad:
		return "Load"
	case OpStore:
		return "Store"
	case OpUnaryOp:
		return "UnaryOp"
	case OpBinaryOp:
		return "BinaryOp"
	case OpCast:
		return "Cast"
	case OpApply:
		return "Apply"
	case OpAlloc:
		return "Alloc"
	case OpSCFG:
		return "SCFG"
	case OpGoto:
		return "Goto"
	case OpCondBranch:
		return "CondBranch"
	case OpReturn:
		return "Return"
	default:
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
}
