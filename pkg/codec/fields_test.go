package codec

import (
	"fmt"
	"testing"
)

func TestFieldWidthsMatchEmbeddedTable(t *testing.T) {
	cases := []struct {
		name string
		got  int
		want int
	}{
		{"opcode", WidthOpcode, widths.Opcode},
		{"annotation_kind", WidthAnnotationKind, widths.AnnotationKind},
		{"unary_binary_cast_opcode", WidthUnaryBinaryCastOp, widths.UnaryBinaryCastOp},
		{"variable_kind", WidthVariableKind, widths.VariableKind},
		{"calling_convention", WidthCallingConvention, widths.CallingConvention},
		{"apply_kind", WidthApplyKind, widths.ApplyKind},
		{"alloc_kind", WidthAllocKind, widths.AllocKind},
		{"boolean", WidthBoolean, widths.Boolean},
		{"base_type", WidthBaseType, widths.BaseType},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s: constant = %d, fields.yaml = %d", c.name, c.got, c.want)
		}
	}
}

func TestOpcodeRanges(t *testing.T) {
	if !PSOpNull.IsPseudo() {
		t.Error("PSOpNull should be pseudo")
	}
	if !PSOpEndOfStream.IsPseudo() {
		t.Error("PSOpEndOfStream should be pseudo")
	}
	if OpLiteral.IsPseudo() {
		t.Error("OpLiteral should not be pseudo")
	}
	if OpLiteral != PSOpLast {
		t.Errorf("OpLiteral = %d, want PSOpLast (%d)", OpLiteral, PSOpLast)
	}
}

func TestOpcodeStringCoversEveryValue(t *testing.T) {
	for op := PSOpNull; op <= OpReturn; op++ {
		s := op.String()
		if s == "" || s == fmt.Sprintf("Op(%d)", uint8(op)) {
			t.Errorf("Op(%d).String() = %q, want a name", op, s)
		}
	}
}
