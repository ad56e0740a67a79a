package codec

import (
	"fmt"

	"github.com/yazici/ohmu/pkg/bitstream"
	"github.com/yazici/ohmu/pkg/diag"
	"github.com/yazici/ohmu/pkg/ir"
)

// Reader drives the stack-based reconstruction of an ir.SExpr tree from
// an opcode-tagged atom stream. It reads one opcode at a time off a
// flat operand stack rather than recursing: because the wire format is
// strictly post-order, every opcode's operands are already sitting on
// top of the stack by the time the opcode itself is read, so a single
// loop — with no call-stack depth tied to tree depth — suffices to
// rebuild arbitrarily deep trees. Decoding stops at the EndOfStream
// marker Writer.Write appends after the root, not at end-of-buffer —
// Flush's trailing zero bits would otherwise be misread as more atoms.
type Reader struct {
	br  *bitstream.Reader
	b   ir.Builder
	log *diag.Session

	sym *symbolTables

	cfg        *ir.SCFG
	blockIndex int
	block      *ir.BasicBlock
	argIndex   int
	instrIndex int

	err error // sticky; once set, Read refuses to produce anything more
}

// NewReader wraps source in a bitstream.Reader and uses b to construct
// every IR node the stream describes. The bitstream.WriterOption-style
// buffer-size options have no reader equivalent; codec.Option here only
// carries the optional diagnostic session.
func NewReader(source bitstream.Source, b ir.Builder, opts ...Option) *Reader {
	o := resolveOptions(opts)
	return &Reader{
		br:  bitstream.NewReader(source),
		b:   b,
		log: o.log,
		sym: newSymbolTables(),
	}
}

// Success reports whether no fatal decode error has occurred. It
// starts true and latches false on the first failure.
func (r *Reader) Success() bool { return r.err == nil }

// Err returns the first fatal decode error, if any.
func (r *Reader) Err() error { return r.err }

// Read decodes exactly one tree. On any malformed input it returns a
// nil root and a non-nil error; the failure is sticky and every later
// Read returns the same error without touching the stream again.
func (r *Reader) Read() (ir.SExpr, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.log != nil {
		r.log.Debugf("decode starting")
	}
	root, err := r.read()
	if err != nil {
		r.err = err
		if r.log != nil {
			r.log.Errorf("decode failed", "err", err)
		}
		return nil, err
	}
	if r.log != nil {
		r.log.Infof("decode complete", "kind", root.Kind())
	}
	return root, nil
}

func (r *Reader) read() (ir.SExpr, error) {
	var stack []ir.SExpr

	for !r.br.Empty() {
		op := Op(r.br.ReadBits32(WidthOpcode))
		if err := r.br.Err(); err != nil {
			return nil, err
		}

		if !op.IsPseudo() {
			node, err := r.readRealOp(op, &stack)
			if err != nil {
				return nil, err
			}
			if node != nil {
				stack = append(stack, node)
				if err := r.resolveAnnotations(&stack); err != nil {
					return nil, err
				}
			}
			continue
		}

		switch op {
		case PSOpEnterScope:
			if err := r.readEnterScope(); err != nil {
				return nil, err
			}
		case PSOpExitScope:
			node, err := r.readExitScope(&stack)
			if err != nil {
				return nil, err
			}
			stack = append(stack, node)
			if err := r.resolveAnnotations(&stack); err != nil {
				return nil, err
			}
		case PSOpEnterCFG:
			if err := r.readEnterCFG(); err != nil {
				return nil, err
			}
		case PSOpEnterBlock:
			if err := r.readEnterBlock(); err != nil {
				return nil, err
			}
		case PSOpBBArgument:
			if err := r.readBBArgument(&stack); err != nil {
				return nil, err
			}
		case PSOpBBInstruction:
			// Postfix marker: the completed instruction is the top of
			// the operand stack.
			r.br.EndAtom()
			instr, err := pop(&stack)
			if err != nil {
				return nil, err
			}
			if r.block == nil {
				return nil, fmt.Errorf("codec: BBInstruction outside a block")
			}
			idx := r.instrIndex
			r.instrIndex++
			if err := r.b.BBInstruction(r.block, idx, instr); err != nil {
				return nil, err
			}
			r.sym.addInstr(instr)
		case PSOpWeakInstrRef:
			node, err := r.readWeakInstrRef()
			if err != nil {
				return nil, err
			}
			stack = append(stack, node)
			if err := r.resolveAnnotations(&stack); err != nil {
				return nil, err
			}
		case PSOpEndOfStream:
			r.br.EndAtom()
			if err := r.br.Err(); err != nil {
				return nil, err
			}
			if len(stack) != 1 {
				return nil, fmt.Errorf("codec: stream ended with %d values on the operand stack, want 1", len(stack))
			}
			return stack[0], nil
		case PSOpAnnotation:
			return nil, fmt.Errorf("codec: stray Annotation atom with no preceding node")
		default:
			return nil, fmt.Errorf("codec: unexpected pseudo-opcode %v", op)
		}

		if err := r.br.Err(); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("codec: stream ended before an EndOfStream marker")
}

func pop(stack *[]ir.SExpr) (ir.SExpr, error) {
	n := len(*stack)
	if n == 0 {
		return nil, fmt.Errorf("codec: operand stack underflow")
	}
	v := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return v, nil
}

func popN(stack *[]ir.SExpr, n int) ([]ir.SExpr, error) {
	if len(*stack) < n {
		return nil, fmt.Errorf("codec: operand stack underflow: need %d, have %d", n, len(*stack))
	}
	out := make([]ir.SExpr, n)
	copy(out, (*stack)[len(*stack)-n:])
	*stack = (*stack)[:len(*stack)-n]
	return out, nil
}

// resolveAnnotations looks one opcode ahead (without consuming it
// unless it really is an Annotation) and attaches every Annotation
// atom that immediately follows the current top of stack, since the
// stream carries no annotation-list count.
//
// A node's own completion and its annotation list are not always
// wire-adjacent: an AnnPrecondition's nested expression is itself a
// full subtree, written (and read back) between the node and its own
// Annotation marker. So the node awaiting annotations is always
// pushed onto stack first; when the marker for an annotation with a
// nested payload is found, the top of stack is popped as that payload
// and the new top — the real owner, already sitting where it was
// pushed — receives the attachment without being popped itself (it
// may still have further trailing annotations).
func (r *Reader) resolveAnnotations(stack *[]ir.SExpr) error {
	for {
		if r.br.Empty() {
			return nil
		}
		if Op(r.br.PeekBits(WidthOpcode)) != PSOpAnnotation {
			return nil
		}
		r.br.ReadBits32(WidthOpcode) // consume the peeked opcode
		kind := ir.AnnotationKind(r.br.ReadBits32(WidthAnnotationKind))
		ann := &ir.Annotation{Kind: kind}
		switch kind {
		case ir.AnnSourceLoc:
			ann.File = r.br.ReadString()
			ann.Line = r.br.ReadVBR32()
			ann.Column = r.br.ReadVBR32()
		case ir.AnnInstrName:
			ann.Name = r.br.ReadString()
		case ir.AnnPrecondition:
			expr, err := pop(stack)
			if err != nil {
				return err
			}
			ann.Expr = expr
		case ir.AnnInlineHint:
			ann.Hint = r.br.ReadBool()
		default:
			return fmt.Errorf("codec: unknown annotation kind %d", kind)
		}
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return err
		}
		if len(*stack) == 0 {
			return fmt.Errorf("codec: annotation with no owner on the operand stack")
		}
		owner := (*stack)[len(*stack)-1]
		if err := r.b.Attach(owner, ann); err != nil {
			return err
		}
	}
}

func (r *Reader) readEnterScope() error {
	name := r.br.ReadString()
	vk := ir.VariableKind(r.br.ReadBits32(WidthVariableKind))
	t := ir.BaseType(r.br.ReadBits32(WidthBaseType))
	r.br.EndAtom()
	if err := r.br.Err(); err != nil {
		return err
	}
	decl, err := r.b.EnterScope(name, vk, t)
	if err != nil {
		return err
	}
	r.sym.pushScope(decl)
	return nil
}

func (r *Reader) readExitScope(stack *[]ir.SExpr) (ir.SExpr, error) {
	r.br.EndAtom()
	if len(r.sym.vars) <= 1 {
		return nil, fmt.Errorf("codec: ExitScope with no open scope")
	}
	decl := r.sym.vars[len(r.sym.vars)-1]
	if err := r.sym.popScope(); err != nil {
		return nil, err
	}
	body, err := pop(stack)
	if err != nil {
		return nil, err
	}
	return r.b.ExitScope(decl, body)
}

// unwrapParamChain peels n nested VarDecls (as produced by n consecutive
// ExitScope calls wrapping a Function/Code body) back into an ordered
// parameter list plus the true body at the bottom of the chain.
func unwrapParamChain(v ir.SExpr, n int) ([]*ir.VarDecl, ir.SExpr, error) {
	params := make([]*ir.VarDecl, 0, n)
	cur := v
	for i := 0; i < n; i++ {
		vd, ok := cur.(*ir.VarDecl)
		if !ok {
			return nil, nil, fmt.Errorf("codec: malformed parameter scope chain at depth %d", i)
		}
		params = append(params, vd)
		cur = vd.Body
	}
	return params, cur, nil
}

func (r *Reader) readEnterCFG() error {
	n := r.br.ReadVBR32()
	r.br.EndAtom()
	if err := r.br.Err(); err != nil {
		return err
	}
	cfg, err := r.b.EnterCFG(int(n))
	if err != nil {
		return err
	}
	r.cfg = cfg
	r.blockIndex = 0
	r.sym.enterCFG(cfg.Blocks)
	return nil
}

func (r *Reader) readEnterBlock() error {
	argCount := r.br.ReadVBR32()
	instrCount := r.br.ReadVBR32()
	r.br.EndAtom()
	if err := r.br.Err(); err != nil {
		return err
	}
	blk, err := r.b.EnterBlock(r.cfg, r.blockIndex, int(argCount), int(instrCount))
	if err != nil {
		return err
	}
	r.block = blk
	r.argIndex = 0
	r.instrIndex = 0
	return nil
}

func (r *Reader) readBBArgument(stack *[]ir.SExpr) error {
	name := r.br.ReadString()
	t := ir.BaseType(r.br.ReadBits32(WidthBaseType))
	r.br.EndAtom()
	if err := r.br.Err(); err != nil {
		return err
	}
	phi, err := r.b.BBArgument(r.block, r.argIndex, name, t)
	if err != nil {
		return err
	}
	r.argIndex++
	r.sym.addInstr(phi)
	// phi is not a general operand — push it only so resolveAnnotations
	// has an owner to find, then pop it back off; it is already reachable
	// through block.Args and the Instrs symbol table.
	*stack = append(*stack, phi)
	if err := r.resolveAnnotations(stack); err != nil {
		return err
	}
	_, err = pop(stack)
	return err
}

func (r *Reader) readWeakInstrRef() (ir.SExpr, error) {
	idx := r.br.ReadVBR32()
	r.br.EndAtom()
	if err := r.br.Err(); err != nil {
		return nil, err
	}
	instr, err := r.sym.lookupInstr(idx)
	if err != nil {
		return nil, err
	}
	return r.b.WeakInstrRef(int(idx), instr)
}

// readRealOp decodes one real IR node. It returns a nil SExpr (and nil
// error) for terminators, which finish a block instead of producing an
// operand-stack value.
func (r *Reader) readRealOp(op Op, stack *[]ir.SExpr) (ir.SExpr, error) {
	switch op {
	case OpLiteral:
		return r.readLiteral()
	case OpVariable:
		idx := r.br.ReadVBR32()
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return nil, err
		}
		decl, err := r.sym.lookupVar(idx)
		if err != nil {
			return nil, err
		}
		return r.b.Variable(decl)
	case OpFunction:
		cc := ir.CallingConvention(r.br.ReadBits32(WidthCallingConvention))
		n := r.br.ReadVBR32()
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return nil, err
		}
		chain, err := pop(stack)
		if err != nil {
			return nil, err
		}
		params, body, err := unwrapParamChain(chain, int(n))
		if err != nil {
			return nil, err
		}
		return r.b.Function(cc, params, body)
	case OpCode:
		n := r.br.ReadVBR32()
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return nil, err
		}
		chain, err := pop(stack)
		if err != nil {
			return nil, err
		}
		params, body, err := unwrapParamChain(chain, int(n))
		if err != nil {
			return nil, err
		}
		return r.b.Code(params, body)
	case OpRecord:
		n := r.br.ReadVBR32()
		values, err := popN(stack, int(n))
		if err != nil {
			return nil, err
		}
		names := make([]string, n)
		for i := range names {
			names[i] = r.br.ReadString()
		}
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return nil, err
		}
		fields := make([]ir.Field, n)
		for i := range fields {
			fields[i] = ir.Field{Name: names[i], Value: values[i]}
		}
		return r.b.Record(fields)
	case OpArray:
		elem := ir.BaseType(r.br.ReadBits32(WidthBaseType))
		n := r.br.ReadVBR32()
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return nil, err
		}
		elems, err := popN(stack, int(n))
		if err != nil {
			return nil, err
		}
		return r.b.Array(elem, elems)
	case OpLoad:
		r.br.EndAtom()
		base, err := pop(stack)
		if err != nil {
			return nil, err
		}
		return r.b.Load(base)
	case OpStore:
		r.br.EndAtom()
		value, err := pop(stack)
		if err != nil {
			return nil, err
		}
		base, err := pop(stack)
		if err != nil {
			return nil, err
		}
		return r.b.Store(base, value)
	case OpUnaryOp:
		uop := ir.UnaryOpcode(r.br.ReadBits32(WidthUnaryBinaryCastOp))
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return nil, err
		}
		x, err := pop(stack)
		if err != nil {
			return nil, err
		}
		return r.b.UnaryOp(uop, x)
	case OpBinaryOp:
		bop := ir.BinaryOpcode(r.br.ReadBits32(WidthUnaryBinaryCastOp))
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return nil, err
		}
		y, err := pop(stack)
		if err != nil {
			return nil, err
		}
		x, err := pop(stack)
		if err != nil {
			return nil, err
		}
		return r.b.BinaryOp(bop, x, y)
	case OpCast:
		to := ir.BaseType(r.br.ReadBits32(WidthBaseType))
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return nil, err
		}
		x, err := pop(stack)
		if err != nil {
			return nil, err
		}
		return r.b.Cast(to, x)
	case OpApply:
		ak := ir.ApplyKind(r.br.ReadBits32(WidthApplyKind))
		n := r.br.ReadVBR32()
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return nil, err
		}
		args, err := popN(stack, int(n))
		if err != nil {
			return nil, err
		}
		callee, err := pop(stack)
		if err != nil {
			return nil, err
		}
		return r.b.Apply(ak, callee, args)
	case OpAlloc:
		ak := ir.AllocKind(r.br.ReadBits32(WidthAllocKind))
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return nil, err
		}
		size, err := pop(stack)
		if err != nil {
			return nil, err
		}
		return r.b.Alloc(ak, size)
	case OpSCFG:
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return nil, err
		}
		return r.b.FinishCFG(r.cfg)
	case OpGoto:
		target := r.br.ReadVBR32()
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return nil, err
		}
		// Forward references are legal; the index just has to fall
		// inside the block count EnterCFG declared.
		if _, err := r.sym.lookupBlock(int(target)); err != nil {
			return nil, err
		}
		return nil, r.finishBlock(ir.Terminator{Term: ir.TermGoto, Target: int(target)})
	case OpCondBranch:
		ifTrue := r.br.ReadVBR32()
		ifFalse := r.br.ReadVBR32()
		r.br.EndAtom()
		if err := r.br.Err(); err != nil {
			return nil, err
		}
		if _, err := r.sym.lookupBlock(int(ifTrue)); err != nil {
			return nil, err
		}
		if _, err := r.sym.lookupBlock(int(ifFalse)); err != nil {
			return nil, err
		}
		cond, err := pop(stack)
		if err != nil {
			return nil, err
		}
		return nil, r.finishBlock(ir.Terminator{Term: ir.TermCondBranch, Cond: cond, IfTrue: int(ifTrue), IfFalse: int(ifFalse)})
	case OpReturn:
		r.br.EndAtom()
		value, err := pop(stack)
		if err != nil {
			return nil, err
		}
		return nil, r.finishBlock(ir.Terminator{Term: ir.TermReturn, Value: value})
	default:
		return nil, fmt.Errorf("codec: unknown opcode %v", op)
	}
}

func (r *Reader) finishBlock(term ir.Terminator) error {
	if err := r.b.FinishBlock(r.block, term); err != nil {
		return err
	}
	r.blockIndex++
	return nil
}

func (r *Reader) readLiteral() (ir.SExpr, error) {
	t := ir.BaseType(r.br.ReadBits32(WidthBaseType))
	lit := &ir.Literal{Type: t}
	switch t {
	case ir.TypeBool:
		lit.Bool = r.br.ReadBool()
	case ir.TypeInt8:
		lit.Int = int64(r.br.ReadInt8())
	case ir.TypeInt16:
		lit.Int = int64(r.br.ReadInt16())
	case ir.TypeInt32:
		lit.Int = int64(r.br.ReadInt32())
	case ir.TypeInt64:
		lit.Int = r.br.ReadInt64()
	case ir.TypeUInt8:
		lit.UInt = uint64(r.br.ReadUInt8())
	case ir.TypeUInt16:
		lit.UInt = uint64(r.br.ReadUInt16())
	case ir.TypeUInt32:
		lit.UInt = uint64(r.br.ReadUInt32())
	case ir.TypeUInt64:
		lit.UInt = r.br.ReadUInt64()
	case ir.TypeFloat32:
		lit.Float32 = r.br.ReadFloat()
	case ir.TypeFloat64:
		lit.Float64 = r.br.ReadDouble()
	case ir.TypeString:
		lit.Str = r.br.ReadString()
	case ir.TypePointer:
		// Always null; no payload bits.
	default:
		r.br.EndAtom()
		return nil, fmt.Errorf("codec: unknown literal base type %d", t)
	}
	r.br.EndAtom()
	if err := r.br.Err(); err != nil {
		return nil, err
	}
	return r.b.Literal(lit)
}
