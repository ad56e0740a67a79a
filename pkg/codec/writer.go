package codec

import (
	"fmt"

	"github.com/yazici/ohmu/pkg/bitstream"
	"github.com/yazici/ohmu/pkg/diag"
	"github.com/yazici/ohmu/pkg/ir"
)

// Writer drives a post-order traversal of an ir.SExpr tree, emitting an
// opcode-tagged atom per node onto a bitstream.Writer. Every node's
// children are fully serialized (each as its own atom) before the
// node's own opcode atom is written, so a single flat decode loop can
// rebuild the tree from a plain operand stack without recursion.
type Writer struct {
	bw  *bitstream.Writer
	log *diag.Session
}

// Option configures a Writer or Reader at construction.
type Option func(*options)

type options struct {
	log    *diag.Session
	bwOpts []bitstream.WriterOption
}

// WithSession attaches a diagnostic session, enabling correlation-ID'd
// logging of the encode or decode.
func WithSession(s *diag.Session) Option {
	return func(o *options) { o.log = s }
}

// WithBufferMultiplier forwards to bitstream.WithBufferMultiplier.
func WithBufferMultiplier(n int) Option {
	return func(o *options) { o.bwOpts = append(o.bwOpts, bitstream.WithBufferMultiplier(n)) }
}

func resolveOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewWriter wraps sink in a bitstream.Writer and returns a Writer ready
// to serialize one tree. Call Write once per tree; construct a new
// Writer (and sink) per stream.
func NewWriter(sink bitstream.Sink, opts ...Option) *Writer {
	o := resolveOptions(opts)
	return &Writer{bw: bitstream.NewWriter(sink, o.bwOpts...), log: o.log}
}

// Write serializes root and flushes the underlying atom buffer. A
// non-null Pointer literal anywhere in the tree aborts the traversal
// before any further bytes are emitted for that subtree; callers that
// see an error should discard the partially filled sink.
func (w *Writer) Write(root ir.SExpr) error {
	if root == nil {
		return fmt.Errorf("codec: nil root")
	}
	if w.log != nil {
		w.log.Debugf("encode starting", "kind", root.Kind())
	}
	if err := w.writeExpr(root); err != nil {
		if w.log != nil {
			w.log.Errorf("encode failed", "err", err)
		}
		return err
	}
	w.bw.WriteBits32(uint32(PSOpEndOfStream), WidthOpcode)
	w.bw.EndAtom()
	if err := w.bw.Flush(); err != nil {
		if w.log != nil {
			w.log.Errorf("flush failed", "err", err)
		}
		return err
	}
	if err := w.bw.Err(); err != nil {
		return err
	}
	if w.log != nil {
		w.log.Infof("encode complete")
	}
	return nil
}

func (w *Writer) writeExpr(e ir.SExpr) error {
	switch x := e.(type) {
	case nil:
		return fmt.Errorf("codec: nil operand")
	case *ir.Literal:
		return w.writeLiteral(x)
	case *ir.Variable:
		return w.writeVariable(x)
	case *ir.VarDecl:
		return w.writeVarDecl(x)
	case *ir.Function:
		return w.writeFunction(x)
	case *ir.Code:
		return w.writeCode(x)
	case *ir.Record:
		return w.writeRecord(x)
	case *ir.Array:
		return w.writeArray(x)
	case *ir.Load:
		return w.writeLoad(x)
	case *ir.Store:
		return w.writeStore(x)
	case *ir.UnaryOp:
		return w.writeUnaryOp(x)
	case *ir.BinaryOp:
		return w.writeBinaryOp(x)
	case *ir.Cast:
		return w.writeCast(x)
	case *ir.Apply:
		return w.writeApply(x)
	case *ir.Alloc:
		return w.writeAlloc(x)
	case *ir.SCFG:
		return w.writeSCFG(x)
	case *ir.WeakInstrRef:
		return w.writeWeakInstrRef(x)
	default:
		return fmt.Errorf("codec: unsupported SExpr type %T", e)
	}
}

func (w *Writer) writeAnnotations(e ir.SExpr) error {
	for _, ann := range e.Annotations() {
		if ann.Kind == ir.AnnPrecondition {
			// Nested expression: gets its own fully nested traversal,
			// written before this annotation's own atom, same as any
			// other child.
			if err := w.writeExpr(ann.Expr); err != nil {
				return err
			}
		}
		w.bw.WriteBits32(uint32(PSOpAnnotation), WidthOpcode)
		w.bw.WriteBits32(uint32(ann.Kind), WidthAnnotationKind)
		switch ann.Kind {
		case ir.AnnSourceLoc:
			w.bw.WriteString(ann.File)
			w.bw.WriteVBR32(ann.Line)
			w.bw.WriteVBR32(ann.Column)
		case ir.AnnInstrName:
			w.bw.WriteString(ann.Name)
		case ir.AnnInlineHint:
			w.bw.WriteBool(ann.Hint)
		}
		w.bw.EndAtom()
	}
	return nil
}

func (w *Writer) writeLiteral(lit *ir.Literal) error {
	if lit.Type == ir.TypePointer && lit.NonNull {
		return fmt.Errorf("codec: non-null pointer literal is not serializable")
	}
	w.bw.WriteBits32(uint32(OpLiteral), WidthOpcode)
	w.bw.WriteBits32(uint32(lit.Type), WidthBaseType)
	switch lit.Type {
	case ir.TypeBool:
		w.bw.WriteBool(lit.Bool)
	case ir.TypeInt8:
		w.bw.WriteInt8(int8(lit.Int))
	case ir.TypeInt16:
		w.bw.WriteInt16(int16(lit.Int))
	case ir.TypeInt32:
		w.bw.WriteInt32(int32(lit.Int))
	case ir.TypeInt64:
		w.bw.WriteInt64(lit.Int)
	case ir.TypeUInt8:
		w.bw.WriteUInt8(uint8(lit.UInt))
	case ir.TypeUInt16:
		w.bw.WriteUInt16(uint16(lit.UInt))
	case ir.TypeUInt32:
		w.bw.WriteUInt32(uint32(lit.UInt))
	case ir.TypeUInt64:
		w.bw.WriteUInt64(lit.UInt)
	case ir.TypeFloat32:
		w.bw.WriteFloat(lit.Float32)
	case ir.TypeFloat64:
		w.bw.WriteDouble(lit.Float64)
	case ir.TypeString:
		w.bw.WriteString(lit.Str)
	case ir.TypePointer:
		// Always null; no payload bits.
	default:
		return fmt.Errorf("codec: unknown literal base type %v", lit.Type)
	}
	w.bw.EndAtom()
	return w.writeAnnotations(lit)
}

func (w *Writer) writeVariable(v *ir.Variable) error {
	idx := uint32(0)
	if v.Decl != nil {
		idx = uint32(v.Decl.Index)
	}
	w.bw.WriteBits32(uint32(OpVariable), WidthOpcode)
	w.bw.WriteVBR32(idx)
	w.bw.EndAtom()
	return w.writeAnnotations(v)
}

// writeVarDecl serializes a standalone binding SExpr: EnterScope,
// the scoped body, ExitScope. No separate real opcode is needed — the
// EnterScope/ExitScope pair alone is what the reader turns back into a
// *ir.VarDecl.
func (w *Writer) writeVarDecl(decl *ir.VarDecl) error {
	w.emitEnterScope(decl)
	if err := w.writeExpr(decl.Body); err != nil {
		return err
	}
	w.emitExitScope()
	return w.writeAnnotations(decl)
}

func (w *Writer) emitEnterScope(decl *ir.VarDecl) {
	w.bw.WriteBits32(uint32(PSOpEnterScope), WidthOpcode)
	w.bw.WriteString(decl.Name)
	w.bw.WriteBits32(uint32(decl.VKind), WidthVariableKind)
	w.bw.WriteBits32(uint32(decl.Type), WidthBaseType)
	w.bw.EndAtom()
}

func (w *Writer) emitExitScope() {
	w.bw.WriteBits32(uint32(PSOpExitScope), WidthOpcode)
	w.bw.EndAtom()
}

// writeFunction and writeCode wrap their body in one nested scope per
// parameter (outermost first), so the reader can resolve Variable
// references inside the body. Each parameter's name, kind and type
// travel in its EnterScope atom; Function/Code's own trailing atom
// carries only the parameter count (and, for Function, the calling
// convention).
func (w *Writer) writeFunction(fn *ir.Function) error {
	for _, p := range fn.Params {
		w.emitEnterScope(p)
	}
	if err := w.writeExpr(fn.Body); err != nil {
		return err
	}
	for range fn.Params {
		w.emitExitScope()
	}
	w.bw.WriteBits32(uint32(OpFunction), WidthOpcode)
	w.bw.WriteBits32(uint32(fn.CC), WidthCallingConvention)
	w.bw.WriteVBR32(uint32(len(fn.Params)))
	w.bw.EndAtom()
	return w.writeAnnotations(fn)
}

func (w *Writer) writeCode(c *ir.Code) error {
	for _, p := range c.Params {
		w.emitEnterScope(p)
	}
	if err := w.writeExpr(c.Body); err != nil {
		return err
	}
	for range c.Params {
		w.emitExitScope()
	}
	w.bw.WriteBits32(uint32(OpCode), WidthOpcode)
	w.bw.WriteVBR32(uint32(len(c.Params)))
	w.bw.EndAtom()
	return w.writeAnnotations(c)
}

func (w *Writer) writeRecord(rec *ir.Record) error {
	for _, f := range rec.Fields {
		if err := w.writeExpr(f.Value); err != nil {
			return err
		}
	}
	w.bw.WriteBits32(uint32(OpRecord), WidthOpcode)
	w.bw.WriteVBR32(uint32(len(rec.Fields)))
	for _, f := range rec.Fields {
		w.bw.WriteString(f.Name)
	}
	w.bw.EndAtom()
	return w.writeAnnotations(rec)
}

func (w *Writer) writeArray(arr *ir.Array) error {
	for _, e := range arr.Elems {
		if err := w.writeExpr(e); err != nil {
			return err
		}
	}
	w.bw.WriteBits32(uint32(OpArray), WidthOpcode)
	w.bw.WriteBits32(uint32(arr.Elem), WidthBaseType)
	w.bw.WriteVBR32(uint32(len(arr.Elems)))
	w.bw.EndAtom()
	return w.writeAnnotations(arr)
}

func (w *Writer) writeLoad(l *ir.Load) error {
	if err := w.writeExpr(l.Base); err != nil {
		return err
	}
	w.bw.WriteBits32(uint32(OpLoad), WidthOpcode)
	w.bw.EndAtom()
	return w.writeAnnotations(l)
}

func (w *Writer) writeStore(s *ir.Store) error {
	if err := w.writeExpr(s.Base); err != nil {
		return err
	}
	if err := w.writeExpr(s.Value); err != nil {
		return err
	}
	w.bw.WriteBits32(uint32(OpStore), WidthOpcode)
	w.bw.EndAtom()
	return w.writeAnnotations(s)
}

func (w *Writer) writeUnaryOp(u *ir.UnaryOp) error {
	if err := w.writeExpr(u.X); err != nil {
		return err
	}
	w.bw.WriteBits32(uint32(OpUnaryOp), WidthOpcode)
	w.bw.WriteBits32(uint32(u.Op), WidthUnaryBinaryCastOp)
	w.bw.EndAtom()
	return w.writeAnnotations(u)
}

func (w *Writer) writeBinaryOp(bop *ir.BinaryOp) error {
	if err := w.writeExpr(bop.X); err != nil {
		return err
	}
	if err := w.writeExpr(bop.Y); err != nil {
		return err
	}
	w.bw.WriteBits32(uint32(OpBinaryOp), WidthOpcode)
	w.bw.WriteBits32(uint32(bop.Op), WidthUnaryBinaryCastOp)
	w.bw.EndAtom()
	return w.writeAnnotations(bop)
}

func (w *Writer) writeCast(c *ir.Cast) error {
	if err := w.writeExpr(c.X); err != nil {
		return err
	}
	w.bw.WriteBits32(uint32(OpCast), WidthOpcode)
	w.bw.WriteBits32(uint32(c.To), WidthBaseType)
	w.bw.EndAtom()
	return w.writeAnnotations(c)
}

func (w *Writer) writeApply(a *ir.Apply) error {
	if err := w.writeExpr(a.Callee); err != nil {
		return err
	}
	for _, arg := range a.Args {
		if err := w.writeExpr(arg); err != nil {
			return err
		}
	}
	w.bw.WriteBits32(uint32(OpApply), WidthOpcode)
	w.bw.WriteBits32(uint32(a.AKind), WidthApplyKind)
	w.bw.WriteVBR32(uint32(len(a.Args)))
	w.bw.EndAtom()
	return w.writeAnnotations(a)
}

func (w *Writer) writeAlloc(a *ir.Alloc) error {
	if err := w.writeExpr(a.Size); err != nil {
		return err
	}
	w.bw.WriteBits32(uint32(OpAlloc), WidthOpcode)
	w.bw.WriteBits32(uint32(a.AKind), WidthAllocKind)
	w.bw.EndAtom()
	return w.writeAnnotations(a)
}

func (w *Writer) writeWeakInstrRef(ref *ir.WeakInstrRef) error {
	w.bw.WriteBits32(uint32(PSOpWeakInstrRef), WidthOpcode)
	w.bw.WriteVBR32(uint32(ref.Index))
	w.bw.EndAtom()
	return w.writeAnnotations(ref)
}

func (w *Writer) writeSCFG(cfg *ir.SCFG) error {
	w.bw.WriteBits32(uint32(PSOpEnterCFG), WidthOpcode)
	w.bw.WriteVBR32(uint32(len(cfg.Blocks)))
	w.bw.EndAtom()

	for _, blk := range cfg.Blocks {
		w.bw.WriteBits32(uint32(PSOpEnterBlock), WidthOpcode)
		w.bw.WriteVBR32(uint32(len(blk.Args)))
		w.bw.WriteVBR32(uint32(len(blk.Instrs)))
		w.bw.EndAtom()

		for _, phi := range blk.Args {
			w.bw.WriteBits32(uint32(PSOpBBArgument), WidthOpcode)
			w.bw.WriteString(phi.Name)
			w.bw.WriteBits32(uint32(phi.Type), WidthBaseType)
			w.bw.EndAtom()
			if err := w.writeAnnotations(phi); err != nil {
				return err
			}
		}

		// The BBInstruction marker follows its expression, like every
		// other consumer in this post-order format: by the time the
		// reader sees the marker, the completed instruction is already
		// sitting on top of its operand stack.
		for _, instr := range blk.Instrs {
			if err := w.writeExpr(instr); err != nil {
				return err
			}
			w.bw.WriteBits32(uint32(PSOpBBInstruction), WidthOpcode)
			w.bw.EndAtom()
		}

		if err := w.writeTerminator(blk.Terminator); err != nil {
			return err
		}
	}

	w.bw.WriteBits32(uint32(OpSCFG), WidthOpcode)
	w.bw.EndAtom()
	return w.writeAnnotations(cfg)
}

func (w *Writer) writeTerminator(t ir.Terminator) error {
	switch t.Term {
	case ir.TermGoto:
		w.bw.WriteBits32(uint32(OpGoto), WidthOpcode)
		w.bw.WriteVBR32(uint32(t.Target))
		w.bw.EndAtom()
	case ir.TermCondBranch:
		if err := w.writeExpr(t.Cond); err != nil {
			return err
		}
		w.bw.WriteBits32(uint32(OpCondBranch), WidthOpcode)
		w.bw.WriteVBR32(uint32(t.IfTrue))
		w.bw.WriteVBR32(uint32(t.IfFalse))
		w.bw.EndAtom()
	case ir.TermReturn:
		if err := w.writeExpr(t.Value); err != nil {
			return err
		}
		w.bw.WriteBits32(uint32(OpReturn), WidthOpcode)
		w.bw.EndAtom()
	default:
		return fmt.Errorf("codec: unknown terminator kind %v", t.Term)
	}
	return nil
}
