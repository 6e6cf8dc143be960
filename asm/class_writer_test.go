package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/jasm/classfile"
)

// buildMethod writes a class holding one static method whose body is emitted
// by body, and returns the parsed result.
func buildMethod(t *testing.T, version int, body func(mv MethodVisitor)) (*classfile.ClassFile, *classfile.CodeAttribute) {
	t.Helper()
	cw := NewClassWriter()
	cw.Visit(version, classfile.AccPublic|classfile.AccSuper, "test/T", "", "java/lang/Object", nil)
	mv := cw.VisitMethod(classfile.AccPublic|classfile.AccStatic, "m", "()V", "", nil)
	mv.VisitCode()
	body(mv)
	mv.VisitMaxs(4, 4)
	mv.VisitEnd()
	cw.VisitEnd()

	data, err := cw.ToByteArray()
	require.NoError(t, err)
	cf, err := classfile.ParseBytes(data)
	require.NoError(t, err)
	m := cf.GetMethod("m", "()V")
	require.NotNil(t, m)
	code := m.GetCodeAttribute(cf.ConstantPool)
	require.NotNil(t, code)
	return cf, code
}

func buildError(t *testing.T, version int, body func(mv MethodVisitor)) error {
	t.Helper()
	cw := NewClassWriter()
	cw.Visit(version, classfile.AccPublic, "test/T", "", "java/lang/Object", nil)
	mv := cw.VisitMethod(classfile.AccPublic, "m", "()V", "", nil)
	body(mv)
	mv.VisitEnd()
	_, err := cw.ToByteArray()
	return err
}

func TestClassHeader(t *testing.T) {
	cw := NewClassWriter()
	cw.Visit(V1_8, classfile.AccPublic|classfile.AccAbstract|classfile.AccInterface, "test/I", "", "java/lang/Object", []string{"java/lang/Runnable", "java/io/Closeable"})
	cw.VisitSource("I.java", "")
	cw.VisitEnd()

	data, err := cw.ToByteArray()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x00, 0x00, 0x34}, data[:8])

	cf, err := classfile.ParseBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "test/I", cf.ClassName())
	assert.Equal(t, []string{"java/lang/Runnable", "java/io/Closeable"}, cf.InterfaceNames())
	assert.True(t, cf.AccessFlags.IsInterface())
	assert.Equal(t, "I.java", cf.SourceFile())
	assert.Nil(t, cf.GetAttribute("SourceDebugExtension"))
	assert.Empty(t, cf.Methods)
}

func TestVarInsnForms(t *testing.T) {
	_, code := buildMethod(t, V1_6, func(mv MethodVisitor) {
		mv.VisitVarInsn(Aload, 0)
		mv.VisitVarInsn(Iload, 3)
		mv.VisitVarInsn(Lload, 4)
		mv.VisitVarInsn(Dstore, 2)
		mv.VisitVarInsn(Astore, 300)
		mv.VisitVarInsn(Ret, 1)
		mv.VisitInsn(Return)
	})
	assert.Equal(t, []byte{
		0x2a,
		0x1d,
		0x16, 0x04,
		0x49,
		0xc4, 0x3a, 0x01, 0x2c,
		0xa9, 0x01,
		0xb1,
	}, code.Code)
}

func TestIntAndIincInsns(t *testing.T) {
	_, code := buildMethod(t, V1_6, func(mv MethodVisitor) {
		mv.VisitIntInsn(Bipush, -3)
		mv.VisitIntInsn(Sipush, 1000)
		mv.VisitIntInsn(Newarray, TInt)
		mv.VisitIincInsn(1, -1)
		mv.VisitIincInsn(2, 500)
		mv.VisitInsn(Return)
	})
	assert.Equal(t, []byte{
		0x10, 0xfd,
		0x11, 0x03, 0xe8,
		0xbc, 0x0a,
		0x84, 0x01, 0xff,
		0xc4, 0x84, 0x00, 0x02, 0x01, 0xf4,
		0xb1,
	}, code.Code)
}

func TestJumpPatching(t *testing.T) {
	_, code := buildMethod(t, V1_6, func(mv MethodVisitor) {
		top := NewLabel()
		end := NewLabel()
		mv.VisitLabel(top)
		mv.VisitVarInsn(Iload, 0)
		mv.VisitJumpInsn(Ifeq, end)
		mv.VisitJumpInsn(Goto, top)
		mv.VisitLabel(end)
		mv.VisitInsn(Return)
	})
	insns, err := classfile.Disassemble(code.Code)
	require.NoError(t, err)
	require.Len(t, insns, 4)
	assert.Equal(t, []int{7}, insns[1].Targets, "forward ifeq is patched to the return")
	assert.Equal(t, []int{0}, insns[2].Targets, "backward goto is written directly")
}

func TestMemberInsns(t *testing.T) {
	cf, code := buildMethod(t, V1_6, func(mv MethodVisitor) {
		mv.VisitTypeInsn(New, "java/util/ArrayList")
		mv.VisitInsn(Dup)
		mv.VisitMethodInsn(Invokespecial, "java/util/ArrayList", "<init>", "()V", false)
		mv.VisitLdcInsn("x")
		mv.VisitMethodInsn(Invokeinterface, "java/util/List", "add", "(Ljava/lang/Object;)Z", true)
		mv.VisitInsn(Pop)
		mv.VisitFieldInsn(Getstatic, "test/T", "count", "J")
		mv.VisitMethodInsn(Invokestatic, "java/lang/Long", "valueOf", "(J)Ljava/lang/Long;", false)
		mv.VisitTypeInsn(Checkcast, "java/lang/Number")
		mv.VisitInsn(Pop)
		mv.VisitInsn(Return)
	})
	cp := cf.ConstantPool
	insns, err := classfile.Disassemble(code.Code)
	require.NoError(t, err)

	var listing []string
	for _, in := range insns {
		listing = append(listing, in.Format(cp))
	}
	assert.Equal(t, []string{
		"new java/util/ArrayList",
		"dup",
		"invokespecial java/util/ArrayList.<init> ()V",
		`ldc "x"`,
		"invokeinterface java/util/List.add (Ljava/lang/Object;)Z 2",
		"pop",
		"getstatic test/T.count J",
		"invokestatic java/lang/Long.valueOf (J)Ljava/lang/Long;",
		"checkcast java/lang/Number",
		"pop",
		"return",
	}, listing)

	_, _, desc := cp.GetInterfaceMethodref(uint16(insns[4].Index))
	assert.Equal(t, "(Ljava/lang/Object;)Z", desc)
}

func TestLdcForms(t *testing.T) {
	cf, code := buildMethod(t, V1_6, func(mv MethodVisitor) {
		mv.VisitLdcInsn(int32(100000))
		mv.VisitLdcInsn(float32(1.5))
		mv.VisitLdcInsn(int64(1) << 40)
		mv.VisitLdcInsn(2.25)
		mv.VisitLdcInsn(ClassLiteral("java/lang/String"))
		mv.VisitInsn(Return)
	})
	insns, err := classfile.Disassemble(code.Code)
	require.NoError(t, err)
	var ops []string
	for _, in := range insns {
		ops = append(ops, in.Format(cf.ConstantPool))
	}
	assert.Equal(t, []string{
		"ldc 100000",
		"ldc 1.5F",
		"ldc2_w 1099511627776L",
		"ldc2_w 2.25D",
		"ldc java/lang/String",
		"return",
	}, ops)
}

func TestDebugTables(t *testing.T) {
	cf, code := buildMethod(t, V1_6, func(mv MethodVisitor) {
		start, handler, end := NewLabel(), NewLabel(), NewLabel()
		mv.VisitTryCatchBlock(start, handler, handler, "")
		mv.VisitLabel(start)
		mv.VisitLineNumber(10, start)
		mv.VisitInsn(Return)
		mv.VisitLabel(handler)
		mv.VisitFrame(FrameSame1, 0, nil, 1, []any{"java/lang/Throwable"})
		mv.VisitInsn(Athrow)
		mv.VisitLabel(end)
		mv.VisitLocalVariable("xs", "Ljava/util/List;", "Ljava/util/List<Ljava/lang/String;>;", start, end, 0)
	})
	cp := cf.ConstantPool

	require.Len(t, code.ExceptionTable, 1)
	assert.Equal(t, classfile.ExceptionTableEntry{StartPC: 0, EndPC: 1, HandlerPC: 1, CatchType: 0}, code.ExceptionTable[0])
	assert.Equal(t, []classfile.LineNumberEntry{{StartPC: 0, LineNumber: 10}}, code.LineNumbers(cp))
	assert.Equal(t, []int{1}, code.FrameOffsets(cp))

	lvtt := code.GetAttribute(cp, "LocalVariableTypeTable")
	require.NotNil(t, lvtt)
	entries := lvtt.AsLocalVariableTypeTable().LocalVariableTypeTable
	require.Len(t, entries, 1)
	assert.Equal(t, "Ljava/util/List<Ljava/lang/String;>;", cp.GetUtf8(entries[0].DescriptorIndex))

	var names []string
	for _, attr := range code.Attributes {
		names = append(names, cp.GetUtf8(attr.NameIndex))
	}
	assert.Equal(t, []string{"StackMapTable", "LineNumberTable", "LocalVariableTable", "LocalVariableTypeTable"}, names)
}

func TestFrameEncoding(t *testing.T) {
	cf, code := buildMethod(t, V1_7, func(mv MethodVisitor) {
		mv.VisitFrame(FrameFull, 2, []any{"test/T", Integer}, 0, nil)
		for i := 0; i < 70; i++ {
			mv.VisitInsn(Nop)
		}
		mv.VisitFrame(FrameSame, 0, nil, 0, nil)
		mv.VisitFrame(FrameSame, 0, nil, 0, nil)
		mv.VisitInsn(Nop)
		mv.VisitFrame(FrameAppend, 2, []any{Long, Null}, 0, nil)
		mv.VisitInsn(Nop)
		mv.VisitFrame(FrameChop, 1, nil, 0, nil)
		mv.VisitInsn(Nop)
		mv.VisitFrame(FrameSame1, 0, nil, 1, []any{Top})
		mv.VisitInsn(Return)
	})
	cp := cf.ConstantPool
	frames := code.Frames(cp)
	require.Len(t, frames, 5, "a second frame at the same offset is dropped")

	assert.Equal(t, "full", frames[0].Kind())
	assert.Equal(t, uint16(0), frames[0].OffsetDelta)
	assert.Equal(t, "test/T", frames[0].Locals[0].Describe(cp))
	assert.Equal(t, "int", frames[0].Locals[1].Describe(cp))

	assert.Equal(t, "same_extended", frames[1].Kind())
	assert.Equal(t, uint16(69), frames[1].OffsetDelta)

	assert.Equal(t, "append", frames[2].Kind())
	assert.Equal(t, uint8(253), frames[2].FrameType)

	assert.Equal(t, "chop", frames[3].Kind())
	assert.Equal(t, uint8(250), frames[3].FrameType)

	assert.Equal(t, "same_locals_1_stack_item", frames[4].Kind())
	assert.Equal(t, []int{0, 70, 71, 72, 73}, code.FrameOffsets(cp))
}

func TestChopFrameWithoutItems(t *testing.T) {
	cf, code := buildMethod(t, V1_7, func(mv MethodVisitor) {
		mv.VisitInsn(Nop)
		mv.VisitFrame(FrameAppend, 1, []any{Integer}, 0, nil)
		mv.VisitInsn(Nop)
		mv.VisitFrame(FrameChop, 1, nil, 0, nil)
		mv.VisitInsn(Return)
	})
	frames := code.Frames(cf.ConstantPool)
	require.Len(t, frames, 2)
	assert.Equal(t, "chop", frames[1].Kind())
	assert.Equal(t, uint8(250), frames[1].FrameType)
	assert.Empty(t, frames[1].Locals)
}

func TestLocalVariableSignatureOrder(t *testing.T) {
	cf, _ := buildMethod(t, V1_6, func(mv MethodVisitor) {
		start, end := NewLabel(), NewLabel()
		mv.VisitLabel(start)
		mv.VisitInsn(Return)
		mv.VisitLabel(end)
		mv.VisitLocalVariable("items", "Ljava/util/Set;", "Ljava/util/Set<Ljava/lang/Integer;>;", start, end, 0)
	})
	index := func(value string) int {
		for i, e := range cf.ConstantPool {
			if u, ok := e.(*classfile.ConstantUtf8Info); ok && u.Value == value {
				return i
			}
		}
		t.Fatalf("%q not in constant pool", value)
		return 0
	}
	name := index("items")
	signature := index("Ljava/util/Set<Ljava/lang/Integer;>;")
	desc := index("Ljava/util/Set;")
	assert.Less(t, name, signature)
	assert.Less(t, signature, desc, "the type table entry is added before the plain one")
}

func TestFieldsAndAnnotations(t *testing.T) {
	cw := NewClassWriter()
	cw.Visit(V1_8, classfile.AccPublic, "test/A", "", "java/lang/Object", nil)
	fv := cw.VisitField(classfile.AccPublic|classfile.AccStatic|classfile.AccFinal, "MAX", "I", "", 42)
	av := fv.VisitAnnotation("Ltest/Doc;", false)
	av.Visit("value", "limit")
	av.VisitEnd()
	fv.VisitEnd()

	av = cw.VisitAnnotation("Ltest/Meta;", true)
	av.Visit("flag", true)
	av.Visit("c", Char('x'))
	av.Visit("bytes", []byte{1, 2})
	av.Visit("names", []string{"a", "b"})
	av.Visit("type", ClassLiteral("Ljava/lang/String;"))
	av.VisitEnum("level", "Ltest/Level;", "HIGH")
	nested := av.VisitAnnotation("inner", "Ltest/Inner;")
	nested.Visit("n", int64(7))
	nested.VisitEnd()
	arr := av.VisitArray("list")
	arr.Visit("", 1.5)
	arr.Visit("", float32(2))
	arr.VisitEnd()
	av.VisitEnd()
	cw.VisitEnd()

	data, err := cw.ToByteArray()
	require.NoError(t, err)
	cf, err := classfile.ParseBytes(data)
	require.NoError(t, err)
	cp := cf.ConstantPool

	f := cf.GetField("MAX")
	require.NotNil(t, f)
	v, ok := cp.GetInteger(f.ConstantValue(cp))
	assert.True(t, ok)
	assert.Equal(t, int32(42), v)
	require.NotNil(t, f.GetAttribute(cp, "RuntimeInvisibleAnnotations"))

	anns := cf.Annotations()
	require.Len(t, anns, 1)
	var tags []byte
	for _, pair := range anns[0].ElementValuePairs {
		tags = append(tags, pair.Value.Tag)
	}
	assert.Equal(t, []byte{'Z', 'C', '[', '[', 'c', 'e', '@', '['}, tags)

	inner := anns[0].ElementValuePairs[6].Value.Value.(classfile.Annotation)
	assert.Equal(t, "Ltest/Inner;", cp.GetUtf8(inner.TypeIndex))
	n, _ := cp.GetLong(inner.ElementValuePairs[0].Value.Value.(uint16))
	assert.Equal(t, int64(7), n)

	list := anns[0].ElementValuePairs[7].Value.Value.(classfile.ArrayValue)
	require.Len(t, list.Values, 2)
	assert.Equal(t, byte('D'), list.Values[0].Tag)
	assert.Equal(t, byte('F'), list.Values[1].Tag)
}

func TestMethodAttributes(t *testing.T) {
	cw := NewClassWriter()
	cw.Visit(V1_8, classfile.AccPublic|classfile.AccAbstract, "test/M", "<T:Ljava/lang/Object;>Ljava/lang/Object;", "java/lang/Object", nil)
	mv := cw.VisitMethod(classfile.AccPublic|classfile.AccAbstract, "run", "()V", "()V", []string{"java/io/IOException"})
	mv.VisitAnnotation("Ljava/lang/Deprecated;", true).VisitEnd()
	mv.VisitEnd()
	cw.VisitEnd()

	data, err := cw.ToByteArray()
	require.NoError(t, err)
	cf, err := classfile.ParseBytes(data)
	require.NoError(t, err)
	cp := cf.ConstantPool

	m := cf.GetMethod("run", "()V")
	require.NotNil(t, m)
	assert.Nil(t, m.GetCodeAttribute(cp))
	assert.Equal(t, []string{"java/io/IOException"}, m.ExceptionNames(cp))
	assert.Len(t, m.Annotations(cp), 1)
	assert.NotNil(t, m.GetAttribute(cp, "Signature"))
	assert.NotNil(t, cf.GetAttribute("Signature"))
}

func TestWriterErrors(t *testing.T) {
	t.Run("unresolved jump target", func(t *testing.T) {
		err := buildError(t, V1_6, func(mv MethodVisitor) {
			mv.VisitJumpInsn(Goto, NewLabel())
		})
		assert.ErrorIs(t, err, ErrUnresolvedLabel)
		assert.ErrorContains(t, err, "method m()V")
	})

	t.Run("unresolved line label", func(t *testing.T) {
		err := buildError(t, V1_6, func(mv MethodVisitor) {
			mv.VisitLineNumber(3, NewLabel())
			mv.VisitInsn(Return)
		})
		assert.ErrorIs(t, err, ErrUnresolvedLabel)
	})

	t.Run("label visited twice", func(t *testing.T) {
		err := buildError(t, V1_6, func(mv MethodVisitor) {
			l := NewLabel()
			mv.VisitLabel(l)
			mv.VisitInsn(Nop)
			mv.VisitLabel(l)
		})
		assert.ErrorIs(t, err, ErrLabelVisitedTwice)
	})

	t.Run("wrong opcode", func(t *testing.T) {
		err := buildError(t, V1_6, func(mv MethodVisitor) {
			mv.VisitInsn(Bipush)
			mv.VisitVarInsn(Getfield, 1)
			mv.VisitJumpInsn(Return, NewLabel())
		})
		assert.ErrorIs(t, err, ErrInvalidOpcode)
		assert.ErrorContains(t, err, "3 errors occurred")
	})

	t.Run("frame before java 6", func(t *testing.T) {
		err := buildError(t, V1_5, func(mv MethodVisitor) {
			mv.VisitFrame(FrameSame, 0, nil, 0, nil)
			mv.VisitInsn(Return)
		})
		assert.ErrorIs(t, err, ErrFrameVersion)
	})

	t.Run("frame with missing items", func(t *testing.T) {
		err := buildError(t, V1_7, func(mv MethodVisitor) {
			mv.VisitFrame(FrameFull, 2, []any{Integer}, 0, nil)
			mv.VisitInsn(Nop)
			mv.VisitFrame(FrameAppend, 2, []any{Long}, 0, nil)
			mv.VisitInsn(Nop)
			mv.VisitFrame(FrameSame1, 0, nil, 1, nil)
			mv.VisitInsn(Return)
		})
		assert.ErrorIs(t, err, ErrInvalidFrame)
		assert.ErrorContains(t, err, "3 errors occurred")
	})

	t.Run("unsupported constant", func(t *testing.T) {
		err := buildError(t, V1_6, func(mv MethodVisitor) {
			mv.VisitLdcInsn(struct{}{})
			mv.VisitInsn(Return)
		})
		assert.ErrorIs(t, err, ErrUnsupportedValue)
	})

	t.Run("unsupported annotation value", func(t *testing.T) {
		cw := NewClassWriter()
		cw.Visit(V1_6, classfile.AccPublic, "test/T", "", "java/lang/Object", nil)
		av := cw.VisitAnnotation("Ltest/A;", true)
		av.Visit("m", map[string]int{})
		av.VisitEnd()
		_, err := cw.ToByteArray()
		assert.ErrorIs(t, err, ErrUnsupportedValue)
		assert.ErrorContains(t, err, "class test/T")
	})

	t.Run("branch too far", func(t *testing.T) {
		err := buildError(t, V1_6, func(mv MethodVisitor) {
			target := NewLabel()
			mv.VisitJumpInsn(Goto, target)
			for i := 0; i < 40000; i++ {
				mv.VisitInsn(Nop)
			}
			mv.VisitLabel(target)
			mv.VisitInsn(Return)
		})
		assert.ErrorIs(t, err, ErrBranchOffset)
	})

	t.Run("code too large", func(t *testing.T) {
		err := buildError(t, V1_6, func(mv MethodVisitor) {
			for i := 0; i < 0x10000; i++ {
				mv.VisitInsn(Nop)
			}
		})
		assert.ErrorIs(t, err, ErrCodeTooLarge)
	})
}
