package ir

import "testing"

func TestEqualLiterals(t *testing.T) {
	a := NewInt32Literal(5)
	b := NewInt32Literal(5)
	c := NewInt32Literal(6)
	if !Equal(a, b) {
		t.Error("expected equal int32 literals to compare equal")
	}
	if Equal(a, c) {
		t.Error("expected differing int32 literals to compare unequal")
	}
}

func TestEqualNilHandling(t *testing.T) {
	if !Equal(nil, nil) {
		t.Error("expected nil == nil")
	}
	if Equal(nil, NewBoolLiteral(true)) {
		t.Error("expected nil != non-nil")
	}
}

func TestEqualDifferentKinds(t *testing.T) {
	if Equal(NewInt32Literal(1), &Load{Base: NewInt32Literal(1)}) {
		t.Error("expected nodes of different kinds to compare unequal")
	}
}

func TestEqualVariableByShapeNotPointer(t *testing.T) {
	d1 := &VarDecl{Name: "x", VKind: VarLocal, Type: TypeInt32, Index: 1}
	d2 := &VarDecl{Name: "x", VKind: VarLocal, Type: TypeInt32, Index: 7}
	if !Equal(&Variable{Decl: d1}, &Variable{Decl: d2}) {
		t.Error("expected Variables with matching decl shape to compare equal regardless of Index or pointer identity")
	}

	d3 := &VarDecl{Name: "y", VKind: VarLocal, Type: TypeInt32, Index: 1}
	if Equal(&Variable{Decl: d1}, &Variable{Decl: d3}) {
		t.Error("expected Variables with differing names to compare unequal")
	}
}

func TestDefaultBuilderScopeDiscipline(t *testing.T) {
	b := NewDefaultBuilder()
	outer, err := b.EnterScope("a", VarLocal, TypeInt32)
	if err != nil {
		t.Fatalf("EnterScope failed: %v", err)
	}
	if outer.Index != 1 {
		t.Errorf("first scope Index = %d, want 1", outer.Index)
	}

	inner, err := b.EnterScope("b", VarLocal, TypeInt32)
	if err != nil {
		t.Fatalf("EnterScope failed: %v", err)
	}
	if inner.Index != 2 {
		t.Errorf("second scope Index = %d, want 2", inner.Index)
	}

	// Exiting out of order is a protocol violation.
	if _, err := b.ExitScope(outer, NewInt32Literal(0)); err == nil {
		t.Error("expected ExitScope to reject a non-innermost decl")
	}

	if _, err := b.ExitScope(inner, NewInt32Literal(1)); err != nil {
		t.Fatalf("ExitScope failed: %v", err)
	}
	if _, err := b.ExitScope(outer, NewInt32Literal(2)); err != nil {
		t.Fatalf("ExitScope failed: %v", err)
	}
}

func TestDefaultBuilderRejectsNonNullPointerLiteral(t *testing.T) {
	b := NewDefaultBuilder()
	if _, err := b.Literal(&Literal{Type: TypePointer, NonNull: true}); err == nil {
		t.Error("expected DefaultBuilder to reject a non-null pointer literal")
	}
}

func TestDefaultBuilderCFGBoundsChecks(t *testing.T) {
	b := NewDefaultBuilder()
	cfg, err := b.EnterCFG(2)
	if err != nil {
		t.Fatalf("EnterCFG failed: %v", err)
	}
	if len(cfg.Blocks) != 2 {
		t.Fatalf("Blocks len = %d, want 2", len(cfg.Blocks))
	}

	if _, err := b.EnterBlock(cfg, 5, 0, 0); err == nil {
		t.Error("expected EnterBlock to reject an out-of-range index")
	}

	blk, err := b.EnterBlock(cfg, 0, 1, 1)
	if err != nil {
		t.Fatalf("EnterBlock failed: %v", err)
	}
	if _, err := b.BBArgument(blk, 3, "p", TypeInt32); err == nil {
		t.Error("expected BBArgument to reject an out-of-range index")
	}
	if err := b.BBInstruction(blk, 3, NewInt32Literal(0)); err == nil {
		t.Error("expected BBInstruction to reject an out-of-range index")
	}
}

func TestArenaTracksEveryNode(t *testing.T) {
	b := NewDefaultBuilder()
	if _, err := b.Literal(NewInt32Literal(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Literal(NewInt32Literal(2)); err != nil {
		t.Fatal(err)
	}
	if n := len(b.Arena.Nodes()); n != 2 {
		t.Errorf("Arena tracked %d nodes, want 2", n)
	}
}
