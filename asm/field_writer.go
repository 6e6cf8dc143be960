package asm

import (
	"fmt"

	"github.com/dhamidi/jasm/classfile"
)

type FieldWriter struct {
	cw          *ClassWriter
	access      classfile.AccessFlags
	nameIdx     int
	descIdx     int
	sigIdx      int
	valueIdx    int
	annotations annotationSet
	context     string
}

func newFieldWriter(cw *ClassWriter, access classfile.AccessFlags, name, desc, signature string, value any) *FieldWriter {
	fw := &FieldWriter{
		cw:      cw,
		access:  access,
		nameIdx: cw.st.addUtf8(name),
		descIdx: cw.st.addUtf8(desc),
		context: "field " + name + " " + desc,
	}
	if signature != "" {
		fw.sigIdx = cw.st.addUtf8(signature)
	}
	if value != nil {
		idx, err := cw.st.addConstant(value)
		if err != nil {
			cw.addError(fw.context, fmt.Errorf("constant value: %w", err))
		}
		fw.valueIdx = idx
	}
	return fw
}

func (fw *FieldWriter) VisitAnnotation(desc string, visible bool) AnnotationVisitor {
	return fw.annotations.add(fw.cw.st, desc, visible, func(err error) {
		fw.cw.addError(fw.context, err)
	})
}

func (fw *FieldWriter) VisitEnd() {}

func (fw *FieldWriter) put(out *byteVector) {
	st := fw.cw.st
	out.putShort(int(fw.access)).putShort(fw.nameIdx).putShort(fw.descIdx)

	count := fw.annotations.count()
	if fw.valueIdx != 0 {
		count++
	}
	if fw.sigIdx != 0 {
		count++
	}
	out.putShort(count)
	if fw.valueIdx != 0 {
		out.putShort(st.addUtf8("ConstantValue")).putInt(2).putShort(fw.valueIdx)
	}
	if fw.sigIdx != 0 {
		out.putShort(st.addUtf8("Signature")).putInt(2).putShort(fw.sigIdx)
	}
	fw.annotations.put(st, out)
}
