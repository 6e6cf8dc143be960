package example

import (
	"fmt"

	"github.com/dhamidi/jasm/asm"
	"github.com/dhamidi/jasm/classfile"
)

const (
	illegalState    = "java/lang/IllegalStateException"
	illegalArgument = "java/lang/IllegalArgumentException"
)

const smap = "SMAP\nexample.kt\nKotlin\n*S Kotlin\n*F\n+ 1 example.kt\nexample/Example\n+ 2 Console.kt\nkotlin/io/ConsoleKt\n*L\n1#1,23:1\n78#2,2:24\n*E\n"

// metadataD1 is the protobuf payload of the kotlin.Metadata annotation.
const metadataD1 = "\u0000\u001a\n\u0002\u0018\u0002\n\u0002\u0010\u0000\n\u0002\u0008\u0002\n\u0002\u0010\u0002\n\u0002\u0008\u0002\n\u0002\u0010\u0008\n\u0000\u0018\u00002\u00020\u0001B\u0005\u00a2\u0006\u0002\u0010\u0002J\u0006\u0010\u0003\u001a\u00020\u0004J\u000e\u0010\u0005\u001a\u00020\u00042\u0006\u0010\u0006\u001a\u00020\u0007\u00a8\u0006\u0008"

var metadataD2 = []string{"Lexample/Example;", "", "()V", "main", "", "p", "i", "", "asm"}

// Dump replays the variant against a fresh ClassWriter and returns the class
// file bytes.
func Dump(v Variant) ([]byte, error) {
	cw := asm.NewClassWriter()
	if err := Replay(cw, v); err != nil {
		return nil, err
	}
	data, err := cw.ToByteArray()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", v, err)
	}
	return data, nil
}

// Replay issues the recorded visitor calls for the variant.
func Replay(cv asm.ClassVisitor, v Variant) error {
	v, err := ParseVariant(string(v))
	if err != nil {
		return err
	}

	cv.Visit(asm.V1_6, classfile.AccPublic|classfile.AccFinal|classfile.AccSuper, ClassName, "", "java/lang/Object", nil)
	cv.VisitSource("example.kt", smap)

	av := cv.VisitAnnotation("Lkotlin/Metadata;", true)
	av.Visit("mv", []int{1, 1, 0})
	av.Visit("bv", []int{1, 0, 0})
	av.Visit("k", 1)
	d1 := av.VisitArray("d1")
	d1.Visit("", metadataD1)
	d1.VisitEnd()
	d2 := av.VisitArray("d2")
	for _, s := range metadataD2 {
		d2.Visit("", s)
	}
	d2.VisitEnd()
	av.VisitEnd()

	replayMain(cv, v)
	replayP(cv)
	replayInit(cv)

	cv.VisitEnd()
	return nil
}

func replayMain(cv asm.ClassVisitor, v Variant) {
	mv := cv.VisitMethod(classfile.AccPublic|classfile.AccFinal, "main", "()V", "", nil)
	mv.VisitCode()

	var lcatch *asm.Label
	if v == Shortcut {
		lcatch = asm.NewLabel()
	}
	l0, l1, l2, l5 := asm.NewLabel(), asm.NewLabel(), asm.NewLabel(), asm.NewLabel()
	mv.VisitTryCatchBlock(l5, l1, l2, illegalState)
	l3 := asm.NewLabel()
	mv.VisitTryCatchBlock(l5, l1, l3, illegalArgument)

	mv.VisitLabel(l0)
	mv.VisitLineNumber(5, l0)
	mv.VisitInsn(asm.Nop)

	l4 := asm.NewLabel()
	mv.VisitLabel(l4)
	mv.VisitLineNumber(6, l4)
	callP(mv, asm.Iconst1)
	if lcatch != nil {
		mv.VisitJumpInsn(asm.Goto, lcatch)
	}

	mv.VisitLabel(l5)
	mv.VisitLineNumber(7, l5)
	callP(mv, asm.Iconst2)
	line(mv, 8, func() { callP(mv, asm.Iconst3) })
	line(mv, 9, func() { callP(mv, asm.Iconst4) })
	line(mv, 10, func() { callPushP(mv, 16) })

	l9 := asm.NewLabel()
	mv.VisitLabel(l1)
	mv.VisitJumpInsn(asm.Goto, l9)

	mv.VisitLabel(l2)
	mv.VisitFrame(asm.FrameSame1, 0, nil, 1, []any{illegalState})
	mv.VisitVarInsn(asm.Astore, 1)
	line(mv, 12, func() { callPushP(mv, 16) })

	l11 := asm.NewLabel()
	mv.VisitLabel(l11)
	if lcatch != nil {
		mv.VisitLabel(lcatch)
	}
	mv.VisitLineNumber(13, l11)
	callPushP(mv, 7)
	line(mv, 14, func() { callPushP(mv, 8) })

	l13 := asm.NewLabel()
	mv.VisitLabel(l13)
	mv.VisitJumpInsn(asm.Goto, l9)

	mv.VisitLabel(l3)
	mv.VisitFrame(asm.FrameSame1, 0, nil, 1, []any{illegalArgument})
	mv.VisitVarInsn(asm.Astore, 1)
	line(mv, 16, func() { callPushP(mv, 9) })
	line(mv, 17, func() { callPushP(mv, 10) })
	line(mv, 18, func() { callPushP(mv, 11) })

	mv.VisitLabel(l9)
	mv.VisitLineNumber(19, l9)
	mv.VisitLineNumber(20, l9)
	mv.VisitFrame(asm.FrameSame, 0, nil, 0, nil)
	mv.VisitInsn(asm.Return)

	l17 := asm.NewLabel()
	mv.VisitLabel(l17)
	mv.VisitLocalVariable("e", "L"+illegalState+";", "", l2, l13, 1)
	mv.VisitLocalVariable("e", "L"+illegalArgument+";", "", l3, l9, 1)
	mv.VisitLocalVariable("this", "L"+ClassName+";", "", l0, l17, 0)
	mv.VisitMaxs(2, 2)
	mv.VisitEnd()
}

// line places a fresh label, marks it with the source line and emits body.
func line(mv asm.MethodVisitor, n int, body func()) {
	l := asm.NewLabel()
	mv.VisitLabel(l)
	mv.VisitLineNumber(n, l)
	body()
}

// callP emits this.p(c) for a constant pushed by a single opcode.
func callP(mv asm.MethodVisitor, push asm.Opcode) {
	mv.VisitVarInsn(asm.Aload, 0)
	mv.VisitInsn(push)
	mv.VisitMethodInsn(asm.Invokevirtual, ClassName, "p", "(I)V", false)
}

func callPushP(mv asm.MethodVisitor, n int) {
	mv.VisitVarInsn(asm.Aload, 0)
	mv.VisitIntInsn(asm.Bipush, n)
	mv.VisitMethodInsn(asm.Invokevirtual, ClassName, "p", "(I)V", false)
}

func replayP(cv asm.ClassVisitor) {
	mv := cv.VisitMethod(classfile.AccPublic|classfile.AccFinal, "p", "(I)V", "", nil)
	mv.VisitCode()
	l0 := asm.NewLabel()
	mv.VisitLabel(l0)
	mv.VisitLineNumber(22, l0)
	mv.VisitInsn(asm.Nop)

	l1 := asm.NewLabel()
	mv.VisitLabel(l1)
	mv.VisitLineNumber(24, l1)
	mv.VisitFieldInsn(asm.Getstatic, "java/lang/System", "out", "Ljava/io/PrintStream;")
	mv.VisitVarInsn(asm.Iload, 1)
	mv.VisitMethodInsn(asm.Invokevirtual, "java/io/PrintStream", "println", "(I)V", false)

	l2 := asm.NewLabel()
	mv.VisitLabel(l2)
	mv.VisitLineNumber(25, l2)
	mv.VisitLineNumber(22, l2)
	mv.VisitInsn(asm.Return)

	l3 := asm.NewLabel()
	mv.VisitLabel(l3)
	mv.VisitLocalVariable("$i$f$println", "I", "", l1, l2, 2)
	mv.VisitLocalVariable("this", "L"+ClassName+";", "", l0, l3, 0)
	mv.VisitLocalVariable("i", "I", "", l0, l3, 1)
	mv.VisitMaxs(2, 3)
	mv.VisitEnd()
}

func replayInit(cv asm.ClassVisitor) {
	mv := cv.VisitMethod(classfile.AccPublic, "<init>", "()V", "", nil)
	mv.VisitCode()
	l0 := asm.NewLabel()
	mv.VisitLabel(l0)
	mv.VisitLineNumber(3, l0)
	mv.VisitVarInsn(asm.Aload, 0)
	mv.VisitMethodInsn(asm.Invokespecial, "java/lang/Object", "<init>", "()V", false)
	mv.VisitInsn(asm.Return)

	l1 := asm.NewLabel()
	mv.VisitLabel(l1)
	mv.VisitLocalVariable("this", "L"+ClassName+";", "", l0, l1, 0)
	mv.VisitMaxs(1, 1)
	mv.VisitEnd()
}
