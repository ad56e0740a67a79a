package ir

import "fmt"

// Builder constructs IR nodes on behalf of the deserializing driver in
// pkg/codec. Apart from the Literal value it passes to Literal, the
// codec constructs nodes only through this interface, treating node
// construction and arena
// management as an external collaborator's job. DefaultBuilder below is
// the concrete instance this module ships so the codec is testable end
// to end.
//
// Every method that takes operand SExprs receives them already fully
// constructed: children are built before parents, following the
// post-order reconstruction the codec's stack-based reader drives.
type Builder interface {
	Literal(lit *Literal) (SExpr, error)
	Variable(decl *VarDecl) (SExpr, error)
	EnterScope(name string, vk VariableKind, t BaseType) (*VarDecl, error)
	ExitScope(decl *VarDecl, body SExpr) (SExpr, error)
	Function(cc CallingConvention, params []*VarDecl, body SExpr) (SExpr, error)
	Code(params []*VarDecl, body SExpr) (SExpr, error)
	Record(fields []Field) (SExpr, error)
	Array(elem BaseType, elems []SExpr) (SExpr, error)
	Load(base SExpr) (SExpr, error)
	Store(base, value SExpr) (SExpr, error)
	UnaryOp(op UnaryOpcode, x SExpr) (SExpr, error)
	BinaryOp(op BinaryOpcode, x, y SExpr) (SExpr, error)
	Cast(to BaseType, x SExpr) (SExpr, error)
	Apply(ak ApplyKind, callee SExpr, args []SExpr) (SExpr, error)
	Alloc(ak AllocKind, size SExpr) (SExpr, error)
	WeakInstrRef(index int, instr SExpr) (SExpr, error)

	EnterCFG(blockCount int) (*SCFG, error)
	EnterBlock(cfg *SCFG, index int, argCount, instrCount int) (*BasicBlock, error)
	BBArgument(block *BasicBlock, index int, name string, t BaseType) (*Phi, error)
	BBInstruction(block *BasicBlock, index int, instr SExpr) error
	FinishBlock(block *BasicBlock, term Terminator) error
	FinishCFG(cfg *SCFG) (SExpr, error)

	Attach(node SExpr, ann *Annotation) error
}

// Arena owns the backing storage for a tree of IR nodes built by a
// Builder. DefaultBuilder's arena is a flat slice of every node it has
// constructed, which keeps the node graph alive and gives tests (and
// implementations that want GC-free bulk teardown) a single handle to
// free.
type Arena struct {
	nodes []SExpr
}

func (a *Arena) track(n SExpr) SExpr {
	a.nodes = append(a.nodes, n)
	return n
}

// Nodes returns every node this arena has ever constructed, in
// construction order.
func (a *Arena) Nodes() []SExpr { return a.nodes }

// DefaultBuilder is the Builder this module ships by default. It
// constructs nodes directly (no interning, no type-checking — that is
// semantic analysis's job) and tracks every node in an Arena.
type DefaultBuilder struct {
	Arena *Arena

	scopes []*VarDecl
}

// NewDefaultBuilder returns a Builder backed by a fresh Arena.
func NewDefaultBuilder() *DefaultBuilder {
	return &DefaultBuilder{Arena: &Arena{}}
}

func (b *DefaultBuilder) Literal(lit *Literal) (SExpr, error) {
	if lit.Type == TypePointer && lit.NonNull {
		return nil, fmt.Errorf("ir: non-null pointer literal is not representable")
	}
	return b.Arena.track(lit), nil
}

func (b *DefaultBuilder) Variable(decl *VarDecl) (SExpr, error) {
	return b.Arena.track(&Variable{Decl: decl}), nil
}

func (b *DefaultBuilder) EnterScope(name string, vk VariableKind, t BaseType) (*VarDecl, error) {
	decl := &VarDecl{Name: name, VKind: vk, Type: t, Index: len(b.scopes) + 1}
	b.scopes = append(b.scopes, decl)
	b.Arena.track(decl)
	return decl, nil
}

func (b *DefaultBuilder) ExitScope(decl *VarDecl, body SExpr) (SExpr, error) {
	if len(b.scopes) == 0 || b.scopes[len(b.scopes)-1] != decl {
		return nil, fmt.Errorf("ir: ExitScope does not match innermost EnterScope")
	}
	b.scopes = b.scopes[:len(b.scopes)-1]
	decl.Body = body
	return decl, nil
}

func (b *DefaultBuilder) Function(cc CallingConvention, params []*VarDecl, body SExpr) (SExpr, error) {
	return b.Arena.track(&Function{CC: cc, Params: params, Body: body}), nil
}

func (b *DefaultBuilder) Code(params []*VarDecl, body SExpr) (SExpr, error) {
	return b.Arena.track(&Code{Params: params, Body: body}), nil
}

func (b *DefaultBuilder) Record(fields []Field) (SExpr, error) {
	return b.Arena.track(&Record{Fields: fields}), nil
}

func (b *DefaultBuilder) Array(elem BaseType, elems []SExpr) (SExpr, error) {
	return b.Arena.track(&Array{Elem: elem, Elems: elems}), nil
}

func (b *DefaultBuilder) Load(base SExpr) (SExpr, error) {
	return b.Arena.track(&Load{Base: base}), nil
}

func (b *DefaultBuilder) Store(base, value SExpr) (SExpr, error) {
	return b.Arena.track(&Store{Base: base, Value: value}), nil
}

func (b *DefaultBuilder) UnaryOp(op UnaryOpcode, x SExpr) (SExpr, error) {
	return b.Arena.track(&UnaryOp{Op: op, X: x}), nil
}

func (b *DefaultBuilder) BinaryOp(op BinaryOpcode, x, y SExpr) (SExpr, error) {
	return b.Arena.track(&BinaryOp{Op: op, X: x, Y: y}), nil
}

func (b *DefaultBuilder) Cast(to BaseType, x SExpr) (SExpr, error) {
	return b.Arena.track(&Cast{To: to, X: x}), nil
}

func (b *DefaultBuilder) Apply(ak ApplyKind, callee SExpr, args []SExpr) (SExpr, error) {
	return b.Arena.track(&Apply{AKind: ak, Callee: callee, Args: args}), nil
}

func (b *DefaultBuilder) Alloc(ak AllocKind, size SExpr) (SExpr, error) {
	return b.Arena.track(&Alloc{AKind: ak, Size: size}), nil
}

func (b *DefaultBuilder) WeakInstrRef(index int, instr SExpr) (SExpr, error) {
	return b.Arena.track(&WeakInstrRef{Index: index, Instr: instr}), nil
}

func (b *DefaultBuilder) EnterCFG(blockCount int) (*SCFG, error) {
	cfg := &SCFG{Blocks: make([]*BasicBlock, blockCount)}
	for i := range cfg.Blocks {
		cfg.Blocks[i] = &BasicBlock{} // placeholder, filled by EnterBlock
	}
	b.Arena.track(cfg)
	return cfg, nil
}

func (b *DefaultBuilder) EnterBlock(cfg *SCFG, index int, argCount, instrCount int) (*BasicBlock, error) {
	if index < 0 || index >= len(cfg.Blocks) {
		return nil, fmt.Errorf("ir: block index %d out of range [0,%d)", index, len(cfg.Blocks))
	}
	blk := cfg.Blocks[index]
	blk.Args = make([]*Phi, argCount)
	blk.Instrs = make([]SExpr, instrCount)
	return blk, nil
}

func (b *DefaultBuilder) BBArgument(block *BasicBlock, index int, name string, t BaseType) (*Phi, error) {
	if index < 0 || index >= len(block.Args) {
		return nil, fmt.Errorf("ir: block argument index %d out of range [0,%d)", index, len(block.Args))
	}
	phi := &Phi{Name: name, Type: t}
	block.Args[index] = phi
	b.Arena.track(phi)
	return phi, nil
}

func (b *DefaultBuilder) BBInstruction(block *BasicBlock, index int, instr SExpr) error {
	if index < 0 || index >= len(block.Instrs) {
		return fmt.Errorf("ir: block instruction index %d out of range [0,%d)", index, len(block.Instrs))
	}
	block.Instrs[index] = instr
	return nil
}

func (b *DefaultBuilder) FinishBlock(block *BasicBlock, term Terminator) error {
	block.Terminator = term
	return nil
}

func (b *DefaultBuilder) FinishCFG(cfg *SCFG) (SExpr, error) {
	return cfg, nil
}

func (b *DefaultBuilder) Attach(node SExpr, ann *Annotation) error {
	AddAnnotation(node, ann)
	return nil
}
