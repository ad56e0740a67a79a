package ir

// Equal reports whether a and b are the same tree: reading back a
// written tree must compare equal to the original. It walks two SExpr
// trees in lockstep: after checking that the Kinds match, it
// type-switches on the concrete node type, as pkg/codec's writer does
// when it picks an opcode — two nodes compare equal only if every
// scalar field, every child, and every annotation matches in order.
//
// Variable identity is compared by declaration *shape* (name/kind/type),
// not by pointer, since a and b were built by independent Builder
// instances and never share a VarDecl. A VarDecl's Index is not
// compared either.
func Equal(a, b SExpr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if !annotationsEqual(a.Annotations(), b.Annotations()) {
		return false
	}

	switch x := a.(type) {
	case *Literal:
		y := b.(*Literal)
		return x.Type == y.Type && x.Bool == y.Bool && x.Int == y.Int &&
			x.UInt == y.UInt && x.Float32 == y.Float32 && x.Float64 == y.Float64 &&
			x.Str == y.Str && x.NonNull == y.NonNull

	case *Variable:
		y := b.(*Variable)
		return varDeclShapeEqual(x.Decl, y.Decl)

	case *VarDecl:
		y := b.(*VarDecl)
		return varDeclShapeEqual(x, y) && Equal(x.Body, y.Body)

	case *Function:
		y := b.(*Function)
		return x.CC == y.CC && varDeclsEqual(x.Params, y.Params) && Equal(x.Body, y.Body)

	case *Code:
		y := b.(*Code)
		return varDeclsEqual(x.Params, y.Params) && Equal(x.Body, y.Body)

	case *Record:
		y := b.(*Record)
		if len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if x.Fields[i].Name != y.Fields[i].Name || !Equal(x.Fields[i].Value, y.Fields[i].Value) {
				return false
			}
		}
		return true

	case *Array:
		y := b.(*Array)
		if x.Elem != y.Elem || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Equal(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true

	case *Load:
		y := b.(*Load)
		return Equal(x.Base, y.Base)

	case *Store:
		y := b.(*Store)
		return Equal(x.Base, y.Base) && Equal(x.Value, y.Value)

	case *UnaryOp:
		y := b.(*UnaryOp)
		return x.Op == y.Op && Equal(x.X, y.X)

	case *BinaryOp:
		y := b.(*BinaryOp)
		return x.Op == y.Op && Equal(x.X, y.X) && Equal(x.Y, y.Y)

	case *Cast:
		y := b.(*Cast)
		return x.To == y.To && Equal(x.X, y.X)

	case *Apply:
		y := b.(*Apply)
		if x.AKind != y.AKind || !Equal(x.Callee, y.Callee) || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true

	case *Alloc:
		y := b.(*Alloc)
		return x.AKind == y.AKind && Equal(x.Size, y.Size)

	case *SCFG:
		y := b.(*SCFG)
		return scfgEqual(x, y)

	case *Phi:
		y := b.(*Phi)
		return x.Name == y.Name && x.Type == y.Type

	case *WeakInstrRef:
		y := b.(*WeakInstrRef)
		return x.Index == y.Index && Equal(x.Instr, y.Instr)

	default:
		return false
	}
}

func varDeclShapeEqual(a, b *VarDecl) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Name == b.Name && a.VKind == b.VKind && a.Type == b.Type
}

func varDeclsEqual(a, b []*VarDecl) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !varDeclShapeEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func scfgEqual(a, b *SCFG) bool {
	if len(a.Blocks) != len(b.Blocks) {
		return false
	}
	for i := range a.Blocks {
		if !blockEqual(a.Blocks[i], b.Blocks[i]) {
			return false
		}
	}
	return true
}

func blockEqual(a, b *BasicBlock) bool {
	if len(a.Args) != len(b.Args) || len(a.Instrs) != len(b.Instrs) {
		return false
	}
	// Full Equal, not just name/type: block arguments carry annotations
	// like any other node.
	for i := range a.Args {
		if !Equal(a.Args[i], b.Args[i]) {
			return false
		}
	}
	for i := range a.Instrs {
		if !Equal(a.Instrs[i], b.Instrs[i]) {
			return false
		}
	}
	return terminatorEqual(a.Terminator, b.Terminator)
}

func terminatorEqual(a, b Terminator) bool {
	if a.Term != b.Term {
		return false
	}
	switch a.Term {
	case TermGoto:
		return a.Target == b.Target
	case TermCondBranch:
		return a.IfTrue == b.IfTrue && a.IfFalse == b.IfFalse && Equal(a.Cond, b.Cond)
	case TermReturn:
		return Equal(a.Value, b.Value)
	default:
		return false
	}
}

func annotationsEqual(a, b []*Annotation) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind {
			return false
		}
		switch a[i].Kind {
		case AnnSourceLoc:
			if a[i].File != b[i].File || a[i].Line != b[i].Line || a[i].Column != b[i].Column {
				return false
			}
		case AnnInstrName:
			if a[i].Name != b[i].Name {
				return false
			}
		case AnnPrecondition:
			if !Equal(a[i].Expr, b[i].Expr) {
				return false
			}
		case AnnInlineHint:
			if a[i].Hint != b[i].Hint {
				return false
			}
		}
	}
	return true
}
