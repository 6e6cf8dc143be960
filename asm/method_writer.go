package asm

import (
	"fmt"

	"github.com/dhamidi/jasm/classfile"
)

type handler struct {
	start, end, handler *Label
	typeIdx             int
}

type MethodWriter struct {
	cw      *ClassWriter
	access  classfile.AccessFlags
	nameIdx int
	descIdx int
	sigIdx  int
	excIdx  []int
	context string

	code     byteVector
	handlers []handler
	jumps    []*Label

	lines          byteVector
	lineCount      int
	locals         byteVector
	localCount     int
	localTypes     byteVector
	localTypeCount int

	frames        byteVector
	frameCount    int
	prevFrame     int
	currentLocals int

	maxStack  int
	maxLocals int

	annotations annotationSet
}

func newMethodWriter(cw *ClassWriter, access classfile.AccessFlags, name, desc, signature string, exceptions []string) *MethodWriter {
	mw := &MethodWriter{
		cw:      cw,
		access:  access,
		nameIdx: cw.st.addUtf8(name),
		descIdx: cw.st.addUtf8(desc),
		context: "method " + name + desc,
	}
	if signature != "" {
		mw.sigIdx = cw.st.addUtf8(signature)
	}
	for _, exc := range exceptions {
		mw.excIdx = append(mw.excIdx, cw.st.addClass(exc))
	}
	return mw
}

func (mw *MethodWriter) fail(err error) {
	mw.cw.addError(mw.context, err)
}

func (mw *MethodWriter) invalid(op Opcode, visit string) {
	mw.fail(fmt.Errorf("%s %s: %w", visit, op, ErrInvalidOpcode))
}

func (mw *MethodWriter) VisitAnnotation(desc string, visible bool) AnnotationVisitor {
	return mw.annotations.add(mw.cw.st, desc, visible, mw.fail)
}

func (mw *MethodWriter) VisitCode() {}

func (mw *MethodWriter) VisitTryCatchBlock(start, end, handlerLabel *Label, typ string) {
	h := handler{start: start, end: end, handler: handlerLabel}
	if typ != "" {
		h.typeIdx = mw.cw.st.addClass(typ)
	}
	mw.handlers = append(mw.handlers, h)
}

func (mw *MethodWriter) VisitLabel(label *Label) {
	if err := label.resolve(&mw.code, mw.code.len()); err != nil {
		mw.fail(fmt.Errorf("label at offset %d: %w", mw.code.len(), err))
	}
}

func (mw *MethodWriter) VisitLineNumber(line int, start *Label) {
	offset, ok := start.Offset()
	if !ok {
		mw.fail(fmt.Errorf("line %d: %w", line, ErrUnresolvedLabel))
		return
	}
	mw.lines.putShort(offset).putShort(line)
	mw.lineCount++
}

func (mw *MethodWriter) VisitInsn(op Opcode) {
	if classfile.OpcodeName(byte(op)) == "" || classfile.OperandKindOf(byte(op)) != classfile.OperandNone {
		mw.invalid(op, "VisitInsn")
		return
	}
	mw.code.putByte(int(op))
}

func (mw *MethodWriter) VisitIntInsn(op Opcode, operand int) {
	switch op {
	case Bipush, Newarray:
		mw.code.put11(int(op), operand)
	case Sipush:
		mw.code.put12(int(op), operand)
	default:
		mw.invalid(op, "VisitIntInsn")
	}
}

func (mw *MethodWriter) VisitVarInsn(op Opcode, slot int) {
	if classfile.OperandKindOf(byte(op)) != classfile.OperandLocal {
		mw.invalid(op, "VisitVarInsn")
		return
	}
	switch {
	case slot < 4 && op != Ret:
		if op < Istore {
			mw.code.putByte(int(Iload0) + int(op-Iload)<<2 + slot)
		} else {
			mw.code.putByte(int(Istore0) + int(op-Istore)<<2 + slot)
		}
	case slot > 0xFF:
		mw.code.putByte(int(Wide)).put12(int(op), slot)
	default:
		mw.code.put11(int(op), slot)
	}
}

func (mw *MethodWriter) VisitTypeInsn(op Opcode, typ string) {
	switch op {
	case New, Anewarray, Checkcast, Instanceof:
		mw.code.put12(int(op), mw.cw.st.addClass(typ))
	default:
		mw.invalid(op, "VisitTypeInsn")
	}
}

func (mw *MethodWriter) VisitFieldInsn(op Opcode, owner, name, desc string) {
	if op < Getstatic || op > Putfield {
		mw.invalid(op, "VisitFieldInsn")
		return
	}
	mw.code.put12(int(op), mw.cw.st.addMemberRef(classfile.ConstantFieldref, owner, name, desc))
}

func (mw *MethodWriter) VisitMethodInsn(op Opcode, owner, name, desc string, itf bool) {
	if op < Invokevirtual || op > Invokeinterface {
		mw.invalid(op, "VisitMethodInsn")
		return
	}
	tag := classfile.ConstantMethodref
	if itf || op == Invokeinterface {
		tag = classfile.ConstantInterfaceMethodref
	}
	idx := mw.cw.st.addMemberRef(tag, owner, name, desc)
	if op != Invokeinterface {
		mw.code.put12(int(op), idx)
		return
	}
	md := classfile.ParseMethodDescriptor(desc)
	if md == nil {
		mw.fail(fmt.Errorf("%s %s.%s: %w: %q", op, owner, name, ErrInvalidDescriptor, desc))
		return
	}
	mw.code.put12(int(op), idx).put11(md.ArgumentSlots()+1, 0)
}

func (mw *MethodWriter) VisitJumpInsn(op Opcode, label *Label) {
	if classfile.OperandKindOf(byte(op)) != classfile.OperandBranch {
		mw.invalid(op, "VisitJumpInsn")
		return
	}
	pos := mw.code.len()
	mw.code.putByte(int(op))
	if err := label.put(&mw.code, pos); err != nil {
		mw.fail(fmt.Errorf("%s at offset %d: %w", op, pos, err))
	}
	mw.jumps = append(mw.jumps, label)
}

func (mw *MethodWriter) VisitLdcInsn(value any) {
	idx, err := mw.cw.st.addConstant(value)
	if err != nil {
		mw.fail(fmt.Errorf("ldc: %w", err))
		return
	}
	switch {
	case isWide(value):
		mw.code.put12(int(Ldc2W), idx)
	case idx > 0xFF:
		mw.code.put12(int(LdcW), idx)
	default:
		mw.code.put11(int(Ldc), idx)
	}
}

func (mw *MethodWriter) VisitIincInsn(slot, increment int) {
	if slot > 0xFF || increment > 127 || increment < -128 {
		mw.code.putByte(int(Wide)).put12(int(Iinc), slot).putShort(increment)
		return
	}
	mw.code.putByte(int(Iinc)).put11(slot, increment)
}

// VisitFrame appends a compressed frame at the current code offset. Expanded
// (FrameNew) frames are rejected since nothing here computes frame deltas.
func (mw *MethodWriter) VisitFrame(kind FrameKind, numLocal int, local []any, numStack int, stack []any) {
	if mw.cw.version&0xFFFF < V1_6 {
		mw.fail(ErrFrameVersion)
		return
	}
	offset := mw.code.len()
	delta := offset
	if mw.frameCount > 0 {
		delta = offset - mw.prevFrame - 1
		if delta < 0 {
			if kind == FrameSame {
				return
			}
			mw.fail(fmt.Errorf("%w: two frames at offset %d", ErrInvalidFrame, offset))
			return
		}
	}
	f := &mw.frames
	switch kind {
	case FrameFull:
		if numLocal > len(local) || numStack > len(stack) {
			mw.fail(fmt.Errorf("%w: F_FULL with fewer items than declared", ErrInvalidFrame))
			return
		}
		mw.currentLocals = numLocal
		f.putByte(int(classfile.FullFrame)).putShort(delta).putShort(numLocal)
		mw.putFrameTypes(local[:numLocal])
		f.putShort(numStack)
		mw.putFrameTypes(stack[:numStack])
	case FrameAppend:
		if numLocal < 1 || numLocal > 3 || numLocal > len(local) {
			mw.fail(fmt.Errorf("%w: F_APPEND with %d locals and %d items", ErrInvalidFrame, numLocal, len(local)))
			return
		}
		mw.currentLocals += numLocal
		f.putByte(int(classfile.SameFrameExtended) + numLocal).putShort(delta)
		mw.putFrameTypes(local[:numLocal])
	case FrameChop:
		if numLocal < 1 || numLocal > 3 {
			mw.fail(fmt.Errorf("%w: F_CHOP with %d locals", ErrInvalidFrame, numLocal))
			return
		}
		mw.currentLocals -= numLocal
		f.putByte(int(classfile.SameFrameExtended) - numLocal).putShort(delta)
	case FrameSame:
		if delta < 64 {
			f.putByte(delta)
		} else {
			f.putByte(int(classfile.SameFrameExtended)).putShort(delta)
		}
	case FrameSame1:
		if numStack < 1 || len(stack) < 1 {
			mw.fail(fmt.Errorf("%w: F_SAME1 without a stack item", ErrInvalidFrame))
			return
		}
		if delta < 64 {
			f.putByte(int(classfile.SameLocals1StackItemFrame) + delta)
		} else {
			f.putByte(int(classfile.SameLocals1StackItemFrameExtended)).putShort(delta)
		}
		mw.putFrameTypes(stack[:1])
	default:
		mw.fail(fmt.Errorf("%w: unsupported kind %s", ErrInvalidFrame, kind))
		return
	}
	mw.prevFrame = offset
	mw.frameCount++
}

func (mw *MethodWriter) putFrameTypes(items []any) {
	for _, item := range items {
		switch v := item.(type) {
		case FrameItem:
			mw.frames.putByte(int(v))
		case string:
			mw.frames.putByte(int(classfile.ItemObject)).putShort(mw.cw.st.addClass(v))
		case *Label:
			offset, ok := v.Offset()
			if !ok {
				mw.fail(fmt.Errorf("uninitialized frame item: %w", ErrUnresolvedLabel))
			}
			mw.frames.putByte(int(classfile.ItemUninitialized)).putShort(offset)
		default:
			mw.fail(fmt.Errorf("%w: frame item %T", ErrInvalidFrame, item))
			mw.frames.putByte(int(Top))
		}
	}
}

func (mw *MethodWriter) VisitLocalVariable(name, desc, signature string, start, end *Label, index int) {
	from, ok1 := start.Offset()
	to, ok2 := end.Offset()
	if !ok1 || !ok2 {
		mw.fail(fmt.Errorf("local variable %s: %w", name, ErrUnresolvedLabel))
		return
	}
	st := mw.cw.st
	if signature != "" {
		mw.localTypes.putShort(from).putShort(to - from).putShort(st.addUtf8(name)).putShort(st.addUtf8(signature)).putShort(index)
		mw.localTypeCount++
	}
	mw.locals.putShort(from).putShort(to - from).putShort(st.addUtf8(name)).putShort(st.addUtf8(desc)).putShort(index)
	mw.localCount++
}

func (mw *MethodWriter) VisitMaxs(maxStack, maxLocals int) {
	mw.maxStack = maxStack
	mw.maxLocals = maxLocals
}

func (mw *MethodWriter) VisitEnd() {}

// put serializes the method_info structure, adding attribute names to the
// constant pool in the order they are written.
func (mw *MethodWriter) put(out *byteVector) {
	st := mw.cw.st
	out.putShort(int(mw.access)).putShort(mw.nameIdx).putShort(mw.descIdx)

	hasCode := mw.code.len() > 0
	count := mw.annotations.count()
	if hasCode {
		count++
	}
	if len(mw.excIdx) > 0 {
		count++
	}
	if mw.sigIdx != 0 {
		count++
	}
	out.putShort(count)

	if hasCode {
		mw.putCode(out)
	}
	if len(mw.excIdx) > 0 {
		out.putShort(st.addUtf8("Exceptions")).putInt(2 + 2*len(mw.excIdx)).putShort(len(mw.excIdx))
		for _, idx := range mw.excIdx {
			out.putShort(idx)
		}
	}
	if mw.sigIdx != 0 {
		out.putShort(st.addUtf8("Signature")).putInt(2).putShort(mw.sigIdx)
	}
	mw.annotations.put(st, out)
}

func (mw *MethodWriter) putCode(out *byteVector) {
	st := mw.cw.st
	if mw.code.len() > 0xFFFF {
		mw.fail(fmt.Errorf("%w: %d bytes", ErrCodeTooLarge, mw.code.len()))
	}
	for _, l := range mw.jumps {
		if _, ok := l.Offset(); !ok {
			mw.fail(fmt.Errorf("jump target: %w", ErrUnresolvedLabel))
			break
		}
	}

	var attrs byteVector
	attrCount := 0
	table := func(name string, entries int, data []byte) {
		attrs.putShort(st.addUtf8(name)).putInt(2 + len(data)).putShort(entries).putBytes(data)
		attrCount++
	}
	codeIdx := st.addUtf8("Code")
	if mw.frameCount > 0 {
		table("StackMapTable", mw.frameCount, mw.frames.data)
	}
	if mw.lineCount > 0 {
		table("LineNumberTable", mw.lineCount, mw.lines.data)
	}
	if mw.localCount > 0 {
		table("LocalVariableTable", mw.localCount, mw.locals.data)
	}
	if mw.localTypeCount > 0 {
		table("LocalVariableTypeTable", mw.localTypeCount, mw.localTypes.data)
	}

	var exc byteVector
	for _, h := range mw.handlers {
		start, ok1 := h.start.Offset()
		end, ok2 := h.end.Offset()
		target, ok3 := h.handler.Offset()
		if !ok1 || !ok2 || !ok3 {
			mw.fail(fmt.Errorf("try/catch block: %w", ErrUnresolvedLabel))
		}
		exc.putShort(start).putShort(end).putShort(target).putShort(h.typeIdx)
	}

	size := 2 + 2 + 4 + mw.code.len() + 2 + exc.len() + 2 + attrs.len()
	out.putShort(codeIdx).putInt(size)
	out.putShort(mw.maxStack).putShort(mw.maxLocals)
	out.putInt(mw.code.len()).putBytes(mw.code.data)
	out.putShort(len(mw.handlers)).putBytes(exc.data)
	out.putShort(attrCount).putBytes(attrs.data)
}
