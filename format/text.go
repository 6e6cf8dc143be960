package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/jasm/classfile"
)

// TextEncoder prints a bytecode listing with absolute offsets in place of
// labels.
type TextEncoder struct {
	w     io.Writer
	class *classfile.ClassFile
}

func NewTextEncoder(w io.Writer) *TextEncoder {
	return &TextEncoder{w: w}
}

func (e *TextEncoder) Encode(cf *classfile.ClassFile) error {
	e.class = cf
	return write(e.w, e)
}

func (e *TextEncoder) MarshalText() ([]byte, error) {
	doc, err := buildClassDoc(e.class)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder

	fmt.Fprintf(&sb, "// class version %d.%d\n", doc.Version.Major, doc.Version.Minor)
	header := strings.Join(append(doc.Modifiers, "class", doc.Name), " ")
	if doc.SuperClass != "" {
		header += " extends " + doc.SuperClass
	}
	if len(doc.Interfaces) > 0 {
		header += " implements " + strings.Join(doc.Interfaces, ", ")
	}
	sb.WriteString(header + "\n")
	if doc.Source != "" {
		fmt.Fprintf(&sb, "  // compiled from: %s\n", doc.Source)
	}
	if doc.Debug != "" {
		fmt.Fprintf(&sb, "  // debug info: %s\n", strconv.Quote(doc.Debug))
	}
	for _, ann := range doc.Annotations {
		writeAnnotation(&sb, "  ", ann)
	}

	for _, f := range doc.Fields {
		line := strings.Join(append(f.Modifiers, f.Descriptor, f.Name), " ")
		if f.Value != "" {
			line += " = " + f.Value
		}
		fmt.Fprintf(&sb, "\n  %s\n", line)
	}

	for _, m := range doc.Methods {
		sb.WriteString("\n")
		line := strings.Join(append(m.Modifiers, m.Name+m.Descriptor), " ")
		if len(m.Exceptions) > 0 {
			line += " throws " + strings.Join(m.Exceptions, " ")
		}
		fmt.Fprintf(&sb, "  %s\n", line)
		for _, ann := range m.Annotations {
			writeAnnotation(&sb, "    ", ann)
		}
		if m.Code != nil {
			writeCode(&sb, m.Code)
		}
	}
	return []byte(sb.String()), nil
}

func writeCode(sb *strings.Builder, code *codeDoc) {
	for _, in := range code.Instructions {
		fmt.Fprintf(sb, "    %4d: %s\n", in.Offset, in.Text)
	}
	for _, h := range code.Handlers {
		typ := h.Type
		if typ == "" {
			typ = "any"
		}
		fmt.Fprintf(sb, "    TRYCATCHBLOCK %d %d %d %s\n", h.Start, h.End, h.Handler, typ)
	}
	for _, ln := range code.Lines {
		fmt.Fprintf(sb, "    LINENUMBER %d @%d\n", ln.Line, ln.Offset)
	}
	for _, lv := range code.Locals {
		fmt.Fprintf(sb, "    LOCALVARIABLE %s %s %d..%d %d\n", lv.Name, lv.Descriptor, lv.Start, int(lv.Start)+int(lv.Length), lv.Slot)
	}
	for _, f := range code.Frames {
		fmt.Fprintf(sb, "    FRAME @%d %s [%s] [%s]\n", f.Offset, f.Kind, strings.Join(f.Locals, " "), strings.Join(f.Stack, " "))
	}
	fmt.Fprintf(sb, "    MAXSTACK = %d\n", code.MaxStack)
	fmt.Fprintf(sb, "    MAXLOCALS = %d\n", code.MaxLocals)
}

func writeAnnotation(sb *strings.Builder, indent string, ann annotationDoc) {
	fmt.Fprintf(sb, "%s%s", indent, formatAnnotation(ann))
	if !ann.Visible {
		sb.WriteString(" // invisible")
	}
	sb.WriteString("\n")
}

func formatAnnotation(ann annotationDoc) string {
	parts := make([]string, 0, len(ann.Elements))
	for _, el := range ann.Elements {
		parts = append(parts, el.Name+"="+formatElement(el.Value))
	}
	return "@" + ann.Type + "(" + strings.Join(parts, ", ") + ")"
}

func formatElement(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = formatElement(item)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case annotationDoc:
		return formatAnnotation(v)
	default:
		return fmt.Sprint(v)
	}
}
