package asm

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/dhamidi/jasm/classfile"
)

// ClassWriter serializes the calls it receives into a class file. It writes
// exactly what it is told: frames and maxs are never computed.
type ClassWriter struct {
	st       *symbolTable
	version  int
	access   classfile.AccessFlags
	name     string
	thisIdx  int
	superIdx int
	ifaces   []int
	sigIdx   int

	sourceIdx int
	debug     []byte

	annotations annotationSet
	fields      []*FieldWriter
	methods     []*MethodWriter

	errs *multierror.Error
}

func NewClassWriter() *ClassWriter {
	return &ClassWriter{st: newSymbolTable()}
}

func (cw *ClassWriter) addError(context string, err error) {
	cw.errs = multierror.Append(cw.errs, fmt.Errorf("%s: %w", context, err))
}

func (cw *ClassWriter) classContext() string {
	return "class " + cw.name
}

func (cw *ClassWriter) Visit(version int, access classfile.AccessFlags, name, signature, superName string, interfaces []string) {
	cw.version = version
	cw.access = access
	cw.name = name
	cw.thisIdx = cw.st.addClass(name)
	if signature != "" {
		cw.sigIdx = cw.st.addUtf8(signature)
	}
	if superName != "" {
		cw.superIdx = cw.st.addClass(superName)
	}
	for _, iface := range interfaces {
		cw.ifaces = append(cw.ifaces, cw.st.addClass(iface))
	}
}

func (cw *ClassWriter) VisitSource(source, debug string) {
	if source != "" {
		cw.sourceIdx = cw.st.addUtf8(source)
	}
	if debug != "" {
		encoded, err := encodeModifiedUtf8(debug)
		if err != nil {
			cw.addError(cw.classContext(), fmt.Errorf("source debug extension: %w", err))
			return
		}
		cw.debug = encoded
	}
}

func (cw *ClassWriter) VisitAnnotation(desc string, visible bool) AnnotationVisitor {
	return cw.annotations.add(cw.st, desc, visible, func(err error) {
		cw.addError(cw.classContext(), err)
	})
}

func (cw *ClassWriter) VisitField(access classfile.AccessFlags, name, desc, signature string, value any) FieldVisitor {
	fw := newFieldWriter(cw, access, name, desc, signature, value)
	cw.fields = append(cw.fields, fw)
	return fw
}

func (cw *ClassWriter) VisitMethod(access classfile.AccessFlags, name, desc, signature string, exceptions []string) MethodVisitor {
	mw := newMethodWriter(cw, access, name, desc, signature, exceptions)
	cw.methods = append(cw.methods, mw)
	return mw
}

func (cw *ClassWriter) VisitEnd() {}

// ToByteArray returns the serialized class, or every error collected while
// visiting and serializing.
func (cw *ClassWriter) ToByteArray() ([]byte, error) {
	var body byteVector
	body.putShort(int(cw.access)).putShort(cw.thisIdx).putShort(cw.superIdx)
	body.putShort(len(cw.ifaces))
	for _, idx := range cw.ifaces {
		body.putShort(idx)
	}

	body.putShort(len(cw.fields))
	for _, fw := range cw.fields {
		fw.put(&body)
	}
	body.putShort(len(cw.methods))
	for _, mw := range cw.methods {
		mw.put(&body)
	}

	attrCount := cw.annotations.count()
	if cw.sigIdx != 0 {
		attrCount++
	}
	if cw.sourceIdx != 0 {
		attrCount++
	}
	if cw.debug != nil {
		attrCount++
	}
	body.putShort(attrCount)
	if cw.sigIdx != 0 {
		body.putShort(cw.st.addUtf8("Signature")).putInt(2).putShort(cw.sigIdx)
	}
	if cw.sourceIdx != 0 {
		body.putShort(cw.st.addUtf8("SourceFile")).putInt(2).putShort(cw.sourceIdx)
	}
	if cw.debug != nil {
		body.putShort(cw.st.addUtf8("SourceDebugExtension")).putInt(len(cw.debug)).putBytes(cw.debug)
	}
	cw.annotations.put(cw.st, &body)

	if cw.st.err != nil {
		cw.addError(cw.classContext(), cw.st.err)
	}
	if err := cw.errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	var out byteVector
	out.putInt(classfile.Magic).putInt(cw.version)
	out.putShort(cw.st.count).putBytes(cw.st.pool.data)
	out.putBytes(body.data)
	return out.data, nil
}
