package codec

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed fields.yaml
var fieldsYAML []byte

// fieldWidths is the field-kind-to-bit-width table parsed once from
// fields.yaml at init(). writer.go and reader.go use the Width*
// constants below; fields_test.go checks them against this table.
type fieldWidths struct {
	Opcode            int `yaml:"opcode"`
	AnnotationKind    int `yaml:"annotation_kind"`
	UnaryBinaryCastOp int `yaml:"unary_binary_cast_opcode"`
	VariableKind      int `yaml:"variable_kind"`
	CallingConvention int `yaml:"calling_convention"`
	ApplyKind         int `yaml:"apply_kind"`
	AllocKind         int `yaml:"alloc_kind"`
	Boolean           int `yaml:"boolean"`
	BaseType          int `yaml:"base_type"`
}

var widths fieldWidths

func init() {
	if err := yaml.Unmarshal(fieldsYAML, &widths); err != nil {
		panic("codec: malformed fields.yaml: " + err.Error())
	}
}

// Field widths, exported as the constants writer.go/reader.go actually
// call with. These are asserted against the parsed fields.yaml table in
// fields_test.go so the embedded table and the code can never silently
// drift apart.
const (
	WidthOpcode            = 6
	WidthAnnotationKind    = 8
	WidthUnaryBinaryCastOp = 6
	WidthVariableKind      = 2
	WidthCallingConvention = 4
	WidthApplyKind         = 2
	WidthAllocKind         = 2
	WidthBoolean           = 1
	WidthBaseType          = 4
)
