package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/jasm/classfile"
)

// LineEncoder prints one tab-separated line per class, field and method.
type LineEncoder struct {
	w     io.Writer
	class *classfile.ClassFile
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(cf *classfile.ClassFile) error {
	e.class = cf
	return write(e.w, e)
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	c := e.class
	cp := c.ConstantPool

	fmt.Fprintf(&sb, "class\t%s\t%s\t%s\t%s\n",
		c.ClassName(),
		orDash(c.SuperClassName()),
		modifiers(c.AccessFlags.ClassModifiers()),
		c.Version(),
	)

	for i := range c.Fields {
		f := &c.Fields[i]
		fmt.Fprintf(&sb, "field\t%s\t%s\t%s\n",
			f.Name(cp),
			typeStr(f.ParsedDescriptor(cp), f.Descriptor(cp)),
			modifiers(f.AccessFlags.MethodModifiers()),
		)
	}

	for i := range c.Methods {
		m := &c.Methods[i]
		ret, params := m.Descriptor(cp), "-"
		if md := m.ParsedDescriptor(cp); md != nil {
			ret = "void"
			if md.ReturnType != nil {
				ret = md.ReturnType.String()
			}
			params = parametersStr(md.Parameters)
		}
		codeLen := 0
		if code := m.GetCodeAttribute(cp); code != nil {
			codeLen = len(code.Code)
		}
		fmt.Fprintf(&sb, "method\t%s\t%s\t%s\t%s\t%d\n",
			m.Name(cp),
			ret,
			params,
			modifiers(m.AccessFlags.MethodModifiers()),
			codeLen,
		)
	}

	return []byte(sb.String()), nil
}

func parametersStr(params []classfile.FieldType) string {
	if len(params) == 0 {
		return "-"
	}
	var parts []string
	for _, p := range params {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, ",")
}

func typeStr(ft *classfile.FieldType, raw string) string {
	if ft == nil {
		return raw
	}
	return ft.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
