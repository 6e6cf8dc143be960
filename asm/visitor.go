package asm

import "github.com/dhamidi/jasm/classfile"

// Char is a char constant or annotation value. rune cannot serve since it
// aliases int32.
type Char uint16

// ClassLiteral is a class constant (ldc Foo.class) or a class annotation
// value, given as an internal name for ldc and as a descriptor in annotations.
type ClassLiteral string

type ClassVisitor interface {
	Visit(version int, access classfile.AccessFlags, name, signature, superName string, interfaces []string)
	VisitSource(source, debug string)
	VisitAnnotation(desc string, visible bool) AnnotationVisitor
	VisitField(access classfile.AccessFlags, name, desc, signature string, value any) FieldVisitor
	VisitMethod(access classfile.AccessFlags, name, desc, signature string, exceptions []string) MethodVisitor
	VisitEnd()
}

type FieldVisitor interface {
	VisitAnnotation(desc string, visible bool) AnnotationVisitor
	VisitEnd()
}

// MethodVisitor receives the instructions and debug records of one method,
// in code order.
type MethodVisitor interface {
	VisitAnnotation(desc string, visible bool) AnnotationVisitor
	VisitCode()
	VisitTryCatchBlock(start, end, handler *Label, typ string)
	VisitLabel(label *Label)
	VisitLineNumber(line int, start *Label)
	VisitInsn(op Opcode)
	VisitIntInsn(op Opcode, operand int)
	VisitVarInsn(op Opcode, slot int)
	VisitTypeInsn(op Opcode, typ string)
	VisitFieldInsn(op Opcode, owner, name, desc string)
	VisitMethodInsn(op Opcode, owner, name, desc string, itf bool)
	VisitJumpInsn(op Opcode, label *Label)
	VisitLdcInsn(value any)
	VisitIincInsn(slot, increment int)
	VisitFrame(kind FrameKind, numLocal int, local []any, numStack int, stack []any)
	VisitLocalVariable(name, desc, signature string, start, end *Label, index int)
	VisitMaxs(maxStack, maxLocals int)
	VisitEnd()
}

// AnnotationVisitor receives element values. Array visitors ignore names.
type AnnotationVisitor interface {
	Visit(name string, value any)
	VisitEnum(name, desc, value string)
	VisitAnnotation(name, desc string) AnnotationVisitor
	VisitArray(name string) AnnotationVisitor
	VisitEnd()
}
