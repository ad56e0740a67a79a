// Package codec serializes and deserializes pkg/ir trees to and from a
// compact, bit-packed wire format built on pkg/bitstream.
//
// # Architecture Overview
//
// The codec consists of three pieces:
//
//   - Op: a 6-bit field shared by structural pseudo-opcodes (EnterScope,
//     EnterCFG, Annotation, and friends) and real IR opcodes, which are
//     encoded as PSOpLast+n so a reader tells the two apart by numeric
//     range alone.
//
//   - Writer: drives a post-order traversal of an ir.SExpr tree, writing
//     one atom per node. Every node's children are written before the
//     node's own opcode atom, so the format never needs forward
//     pointers for anything but Goto/CondBranch targets and
//     WeakInstrRef, which resolve through symbol tables instead.
//
//   - Reader: reconstructs the tree with a single flat operand stack
//     instead of recursion. Because the wire format is strictly
//     post-order, an opcode's operands are already on top of the stack
//     by the time the opcode itself is read.
//
// # Symbol Tables
//
// Three index-addressed vectors back the format's back-references:
// Vars (lexical scopes, nested across the whole stream), Blocks and
// Instrs (scoped to a single SCFG, reset on EnterCFG). A WeakInstrRef
// resolves into Instrs, including phi nodes registered there by
// BBArgument — a CFG has one flat instruction index space, not two.
//
// # Termination
//
// Atoms are bit-contiguous; only the final Flush pads to a byte
// boundary, and that padding is indistinguishable from content at the
// bit level. Writer.Write appends a trailing EndOfStream pseudo-opcode
// after the root so Reader.Read has an unambiguous place to stop,
// rather than guessing from buffer exhaustion or operand-stack depth.
package codec
