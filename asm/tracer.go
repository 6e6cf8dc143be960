package asm

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/jasm/classfile"
)

// Tracer prints one line per visitor call and forwards the call to Next
// when it is set.
type Tracer struct {
	w    io.Writer
	Next ClassVisitor
	err  error
}

func NewTracer(w io.Writer, next ClassVisitor) *Tracer {
	return &Tracer{w: w, Next: next}
}

// Err returns the first write error.
func (t *Tracer) Err() error {
	return t.err
}

func (t *Tracer) printf(depth int, format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, strings.Repeat("  ", depth)+format+"\n", args...)
}

func (t *Tracer) Visit(version int, access classfile.AccessFlags, name, signature, superName string, interfaces []string) {
	t.printf(0, "// class version %d.%d", version&0xFFFF, version>>16)
	header := strings.TrimSpace(strings.Join(access.ClassModifiers(), " ") + " class " + name)
	if signature != "" {
		header += " signature " + strconv.Quote(signature)
	}
	if superName != "" {
		header += " extends " + superName
	}
	if len(interfaces) > 0 {
		header += " implements " + strings.Join(interfaces, " ")
	}
	t.printf(0, "%s", header)
	if t.Next != nil {
		t.Next.Visit(version, access, name, signature, superName, interfaces)
	}
}

func (t *Tracer) VisitSource(source, debug string) {
	t.printf(0, "// compiled from: %s", source)
	if debug != "" {
		t.printf(0, "// debug info: %s", strconv.Quote(debug))
	}
	if t.Next != nil {
		t.Next.VisitSource(source, debug)
	}
}

func (t *Tracer) VisitAnnotation(desc string, visible bool) AnnotationVisitor {
	t.printf(0, "@%s%s", desc, visibility(visible))
	var next AnnotationVisitor
	if t.Next != nil {
		next = t.Next.VisitAnnotation(desc, visible)
	}
	return &annotationTracer{t: t, depth: 1, named: true, next: next}
}

func (t *Tracer) VisitField(access classfile.AccessFlags, name, desc, signature string, value any) FieldVisitor {
	line := strings.Join(append(access.MethodModifiers(), desc, name), " ")
	if value != nil {
		line += " = " + formatValue(value)
	}
	t.printf(0, "%s", line)
	var next FieldVisitor
	if t.Next != nil {
		next = t.Next.VisitField(access, name, desc, signature, value)
	}
	return &fieldTracer{t: t, next: next}
}

func (t *Tracer) VisitMethod(access classfile.AccessFlags, name, desc, signature string, exceptions []string) MethodVisitor {
	t.printf(0, "")
	line := strings.Join(append(access.MethodModifiers(), name+desc), " ")
	if len(exceptions) > 0 {
		line += " throws " + strings.Join(exceptions, " ")
	}
	t.printf(0, "%s", line)
	var next MethodVisitor
	if t.Next != nil {
		next = t.Next.VisitMethod(access, name, desc, signature, exceptions)
	}
	return &methodTracer{t: t, next: next, labels: make(map[*Label]string)}
}

func (t *Tracer) VisitEnd() {
	if t.Next != nil {
		t.Next.VisitEnd()
	}
}

func visibility(visible bool) string {
	if visible {
		return ""
	}
	return " // invisible"
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case Char:
		return strconv.QuoteRune(rune(v))
	case ClassLiteral:
		return string(v) + ".class"
	case int64:
		return strconv.FormatInt(v, 10) + "L"
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32) + "F"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64) + "D"
	default:
		return fmt.Sprintf("%v", value)
	}
}

type fieldTracer struct {
	t    *Tracer
	next FieldVisitor
}

func (f *fieldTracer) VisitAnnotation(desc string, visible bool) AnnotationVisitor {
	f.t.printf(1, "@%s%s", desc, visibility(visible))
	var next AnnotationVisitor
	if f.next != nil {
		next = f.next.VisitAnnotation(desc, visible)
	}
	return &annotationTracer{t: f.t, depth: 2, named: true, next: next}
}

func (f *fieldTracer) VisitEnd() {
	if f.next != nil {
		f.next.VisitEnd()
	}
}

type annotationTracer struct {
	t       *Tracer
	depth   int
	named   bool
	closing bool
	next    AnnotationVisitor
}

func (a *annotationTracer) prefix(name string) string {
	if a.named {
		return name + " = "
	}
	return ""
}

func (a *annotationTracer) Visit(name string, value any) {
	a.t.printf(a.depth, "%s%s", a.prefix(name), formatValue(value))
	if a.next != nil {
		a.next.Visit(name, value)
	}
}

func (a *annotationTracer) VisitEnum(name, desc, value string) {
	a.t.printf(a.depth, "%s%s.%s", a.prefix(name), desc, value)
	if a.next != nil {
		a.next.VisitEnum(name, desc, value)
	}
}

func (a *annotationTracer) VisitAnnotation(name, desc string) AnnotationVisitor {
	a.t.printf(a.depth, "%s@%s", a.prefix(name), desc)
	var next AnnotationVisitor
	if a.next != nil {
		next = a.next.VisitAnnotation(name, desc)
	}
	return &annotationTracer{t: a.t, depth: a.depth + 1, named: true, next: next}
}

func (a *annotationTracer) VisitArray(name string) AnnotationVisitor {
	a.t.printf(a.depth, "%s{", a.prefix(name))
	var next AnnotationVisitor
	if a.next != nil {
		next = a.next.VisitArray(name)
	}
	return &annotationTracer{t: a.t, depth: a.depth + 1, closing: true, next: next}
}

func (a *annotationTracer) VisitEnd() {
	if a.closing {
		a.t.printf(a.depth-1, "}")
	}
	if a.next != nil {
		a.next.VisitEnd()
	}
}

type methodTracer struct {
	t      *Tracer
	next   MethodVisitor
	labels map[*Label]string
}

// label names l in order of first appearance within the method.
func (m *methodTracer) label(l *Label) string {
	if name, ok := m.labels[l]; ok {
		return name
	}
	name := "L" + strconv.Itoa(len(m.labels))
	m.labels[l] = name
	return name
}

func (m *methodTracer) insn(format string, args ...any) {
	m.t.printf(2, format, args...)
}

func (m *methodTracer) VisitAnnotation(desc string, visible bool) AnnotationVisitor {
	m.insn("@%s%s", desc, visibility(visible))
	var next AnnotationVisitor
	if m.next != nil {
		next = m.next.VisitAnnotation(desc, visible)
	}
	return &annotationTracer{t: m.t, depth: 3, named: true, next: next}
}

func (m *methodTracer) VisitCode() {
	if m.next != nil {
		m.next.VisitCode()
	}
}

func (m *methodTracer) VisitTryCatchBlock(start, end, handler *Label, typ string) {
	catch := typ
	if catch == "" {
		catch = "null"
	}
	m.insn("TRYCATCHBLOCK %s %s %s %s", m.label(start), m.label(end), m.label(handler), catch)
	if m.next != nil {
		m.next.VisitTryCatchBlock(start, end, handler, typ)
	}
}

func (m *methodTracer) VisitLabel(label *Label) {
	m.t.printf(1, "%s", m.label(label))
	if m.next != nil {
		m.next.VisitLabel(label)
	}
}

func (m *methodTracer) VisitLineNumber(line int, start *Label) {
	m.insn("LINENUMBER %d %s", line, m.label(start))
	if m.next != nil {
		m.next.VisitLineNumber(line, start)
	}
}

func (m *methodTracer) VisitInsn(op Opcode) {
	m.insn("%s", op)
	if m.next != nil {
		m.next.VisitInsn(op)
	}
}

func (m *methodTracer) VisitIntInsn(op Opcode, operand int) {
	m.insn("%s %d", op, operand)
	if m.next != nil {
		m.next.VisitIntInsn(op, operand)
	}
}

func (m *methodTracer) VisitVarInsn(op Opcode, slot int) {
	m.insn("%s %d", op, slot)
	if m.next != nil {
		m.next.VisitVarInsn(op, slot)
	}
}

func (m *methodTracer) VisitTypeInsn(op Opcode, typ string) {
	m.insn("%s %s", op, typ)
	if m.next != nil {
		m.next.VisitTypeInsn(op, typ)
	}
}

func (m *methodTracer) VisitFieldInsn(op Opcode, owner, name, desc string) {
	m.insn("%s %s.%s : %s", op, owner, name, desc)
	if m.next != nil {
		m.next.VisitFieldInsn(op, owner, name, desc)
	}
}

func (m *methodTracer) VisitMethodInsn(op Opcode, owner, name, desc string, itf bool) {
	suffix := ""
	if itf && op != Invokeinterface {
		suffix = " (itf)"
	}
	m.insn("%s %s.%s %s%s", op, owner, name, desc, suffix)
	if m.next != nil {
		m.next.VisitMethodInsn(op, owner, name, desc, itf)
	}
}

func (m *methodTracer) VisitJumpInsn(op Opcode, label *Label) {
	m.insn("%s %s", op, m.label(label))
	if m.next != nil {
		m.next.VisitJumpInsn(op, label)
	}
}

func (m *methodTracer) VisitLdcInsn(value any) {
	m.insn("LDC %s", formatValue(value))
	if m.next != nil {
		m.next.VisitLdcInsn(value)
	}
}

func (m *methodTracer) VisitIincInsn(slot, increment int) {
	m.insn("IINC %d %d", slot, increment)
	if m.next != nil {
		m.next.VisitIincInsn(slot, increment)
	}
}

func (m *methodTracer) frameItems(items []any, n int) string {
	if n > len(items) {
		n = len(items)
	}
	parts := make([]string, 0, n)
	for _, item := range items[:n] {
		switch v := item.(type) {
		case *Label:
			parts = append(parts, m.label(v))
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (m *methodTracer) VisitFrame(kind FrameKind, numLocal int, local []any, numStack int, stack []any) {
	switch kind {
	case FrameSame:
		m.insn("FRAME SAME")
	case FrameSame1:
		m.insn("FRAME SAME1 %s", strings.Trim(m.frameItems(stack, 1), "[]"))
	case FrameChop:
		m.insn("FRAME CHOP %d", numLocal)
	case FrameAppend:
		m.insn("FRAME APPEND %s", m.frameItems(local, numLocal))
	default:
		m.insn("FRAME %s %s %s", strings.TrimPrefix(kind.String(), "F_"), m.frameItems(local, numLocal), m.frameItems(stack, numStack))
	}
	if m.next != nil {
		m.next.VisitFrame(kind, numLocal, local, numStack, stack)
	}
}

func (m *methodTracer) VisitLocalVariable(name, desc, signature string, start, end *Label, index int) {
	m.insn("LOCALVARIABLE %s %s %s %s %d", name, desc, m.label(start), m.label(end), index)
	if signature != "" {
		m.insn("// signature %s", signature)
	}
	if m.next != nil {
		m.next.VisitLocalVariable(name, desc, signature, start, end, index)
	}
}

func (m *methodTracer) VisitMaxs(maxStack, maxLocals int) {
	m.insn("MAXSTACK = %d", maxStack)
	m.insn("MAXLOCALS = %d", maxLocals)
	if m.next != nil {
		m.next.VisitMaxs(maxStack, maxLocals)
	}
}

func (m *methodTracer) VisitEnd() {
	if m.next != nil {
		m.next.VisitEnd()
	}
}
