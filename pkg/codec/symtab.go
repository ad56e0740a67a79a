package codec

import (
	"fmt"

	"github.com/yazici/ohmu/pkg/ir"
)

// symbolTables holds the three index-addressed vectors a decode walks
// back-references against. Vars lives for the whole decode (scopes
// nest); Blocks and Instrs are scoped to a single CFG and reset on
// EnterCFG.
type symbolTables struct {
	vars   []*ir.VarDecl // 1-indexed; vars[0] is never read (slot 0 means "no variable")
	blocks []*ir.BasicBlock
	instrs []ir.SExpr
}

func newSymbolTables() *symbolTables {
	return &symbolTables{vars: make([]*ir.VarDecl, 1)}
}

// pushScope records decl at the next 1-based index.
func (s *symbolTables) pushScope(decl *ir.VarDecl) {
	s.vars = append(s.vars, decl)
}

// popScope removes the innermost scope. It is a protocol violation to
// call this with no open scope.
func (s *symbolTables) popScope() error {
	if len(s.vars) <= 1 {
		return fmt.Errorf("codec: ExitScope with no open scope")
	}
	s.vars = s.vars[:len(s.vars)-1]
	return nil
}

// lookupVar resolves a serialized variable index. 0 means "no
// variable"; any other out-of-range index is a fatal protocol error.
func (s *symbolTables) lookupVar(idx uint32) (*ir.VarDecl, error) {
	if idx == 0 {
		return nil, nil
	}
	if int(idx) >= len(s.vars) {
		return nil, fmt.Errorf("codec: variable index %d out of range [0,%d)", idx, len(s.vars))
	}
	return s.vars[idx], nil
}

// enterCFG clears Blocks/Instrs and installs the pre-sized Blocks
// slice so forward references within the CFG resolve.
func (s *symbolTables) enterCFG(blocks []*ir.BasicBlock) {
	s.blocks = blocks
	s.instrs = s.instrs[:0]
}

func (s *symbolTables) lookupBlock(idx int) (*ir.BasicBlock, error) {
	if idx < 0 || idx >= len(s.blocks) {
		return nil, fmt.Errorf("codec: block index %d out of range [0,%d)", idx, len(s.blocks))
	}
	return s.blocks[idx], nil
}

func (s *symbolTables) addInstr(instr ir.SExpr) {
	s.instrs = append(s.instrs, instr)
}

func (s *symbolTables) lookupInstr(idx uint32) (ir.SExpr, error) {
	if int(idx) >= len(s.instrs) {
		return nil, fmt.Errorf("codec: instruction index %d out of range [0,%d)", idx, len(s.instrs))
	}
	return s.instrs[idx], nil
}
