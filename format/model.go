package format

import (
	"fmt"
	"strings"

	"github.com/dhamidi/jasm/classfile"
)

// classDoc is the structured view shared by the JSON and YAML encoders.
type classDoc struct {
	Name        string          `json:"name" yaml:"name"`
	SuperClass  string          `json:"superClass,omitempty" yaml:"superClass,omitempty"`
	Interfaces  []string        `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Modifiers   []string        `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Version     versionDoc      `json:"version" yaml:"version"`
	Source      string          `json:"source,omitempty" yaml:"source,omitempty"`
	Debug       string          `json:"debug,omitempty" yaml:"debug,omitempty"`
	Annotations []annotationDoc `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Fields      []fieldDoc      `json:"fields,omitempty" yaml:"fields,omitempty"`
	Methods     []methodDoc     `json:"methods,omitempty" yaml:"methods,omitempty"`
}

type versionDoc struct {
	Major uint16 `json:"major" yaml:"major"`
	Minor uint16 `json:"minor" yaml:"minor"`
}

type annotationDoc struct {
	Type     string       `json:"type" yaml:"type"`
	Visible  bool         `json:"visible" yaml:"visible"`
	Elements []elementDoc `json:"elements,omitempty" yaml:"elements,omitempty"`
}

type elementDoc struct {
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
}

type fieldDoc struct {
	Name       string   `json:"name" yaml:"name"`
	Descriptor string   `json:"descriptor" yaml:"descriptor"`
	Modifiers  []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Value      string   `json:"value,omitempty" yaml:"value,omitempty"`
}

type methodDoc struct {
	Name        string          `json:"name" yaml:"name"`
	Descriptor  string          `json:"descriptor" yaml:"descriptor"`
	Modifiers   []string        `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Exceptions  []string        `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
	Annotations []annotationDoc `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Code        *codeDoc        `json:"code,omitempty" yaml:"code,omitempty"`
}

type codeDoc struct {
	MaxStack     uint16       `json:"maxStack" yaml:"maxStack"`
	MaxLocals    uint16       `json:"maxLocals" yaml:"maxLocals"`
	Length       int          `json:"length" yaml:"length"`
	Instructions []insnDoc    `json:"instructions" yaml:"instructions"`
	Handlers     []handlerDoc `json:"handlers,omitempty" yaml:"handlers,omitempty"`
	Lines        []lineDoc    `json:"lines,omitempty" yaml:"lines,omitempty"`
	Locals       []localDoc   `json:"locals,omitempty" yaml:"locals,omitempty"`
	Frames       []frameDoc   `json:"frames,omitempty" yaml:"frames,omitempty"`
}

type insnDoc struct {
	Offset int    `json:"offset" yaml:"offset"`
	Text   string `json:"text" yaml:"text"`
}

type handlerDoc struct {
	Start   uint16 `json:"start" yaml:"start"`
	End     uint16 `json:"end" yaml:"end"`
	Handler uint16 `json:"handler" yaml:"handler"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
}

type lineDoc struct {
	Offset uint16 `json:"offset" yaml:"offset"`
	Line   uint16 `json:"line" yaml:"line"`
}

type localDoc struct {
	Name       string `json:"name" yaml:"name"`
	Descriptor string `json:"descriptor" yaml:"descriptor"`
	Start      uint16 `json:"start" yaml:"start"`
	Length     uint16 `json:"length" yaml:"length"`
	Slot       uint16 `json:"slot" yaml:"slot"`
}

type frameDoc struct {
	Offset int      `json:"offset" yaml:"offset"`
	Kind   string   `json:"kind" yaml:"kind"`
	Locals []string `json:"locals,omitempty" yaml:"locals,omitempty"`
	Stack  []string `json:"stack,omitempty" yaml:"stack,omitempty"`
}

func buildClassDoc(cf *classfile.ClassFile) (classDoc, error) {
	cp := cf.ConstantPool
	doc := classDoc{
		Name:        cf.ClassName(),
		SuperClass:  cf.SuperClassName(),
		Interfaces:  cf.InterfaceNames(),
		Modifiers:   cf.AccessFlags.ClassModifiers(),
		Version:     versionDoc{Major: cf.MajorVersion, Minor: cf.MinorVersion},
		Source:      cf.SourceFile(),
		Debug:       cf.SourceDebugExtension(),
		Annotations: buildAnnotations(cp, cf.Attributes),
	}
	if len(doc.Interfaces) == 0 {
		doc.Interfaces = nil
	}

	for i := range cf.Fields {
		f := &cf.Fields[i]
		fd := fieldDoc{
			Name:       f.Name(cp),
			Descriptor: f.Descriptor(cp),
			Modifiers:  f.AccessFlags.MethodModifiers(),
		}
		if idx := f.ConstantValue(cp); idx != 0 {
			fd.Value = cp.Describe(idx)
		}
		doc.Fields = append(doc.Fields, fd)
	}

	for i := range cf.Methods {
		m := &cf.Methods[i]
		md := methodDoc{
			Name:        m.Name(cp),
			Descriptor:  m.Descriptor(cp),
			Modifiers:   m.AccessFlags.MethodModifiers(),
			Exceptions:  m.ExceptionNames(cp),
			Annotations: buildAnnotations(cp, m.Attributes),
		}
		if code := m.GetCodeAttribute(cp); code != nil {
			cd, err := buildCodeDoc(cp, code)
			if err != nil {
				return doc, fmt.Errorf("method %s%s: %w", md.Name, md.Descriptor, err)
			}
			md.Code = cd
		}
		doc.Methods = append(doc.Methods, md)
	}
	return doc, nil
}

func buildCodeDoc(cp classfile.ConstantPool, code *classfile.CodeAttribute) (*codeDoc, error) {
	insns, err := classfile.Disassemble(code.Code)
	if err != nil {
		return nil, err
	}
	cd := &codeDoc{
		MaxStack:  code.MaxStack,
		MaxLocals: code.MaxLocals,
		Length:    len(code.Code),
	}
	for _, in := range insns {
		cd.Instructions = append(cd.Instructions, insnDoc{Offset: in.Offset, Text: in.Format(cp)})
	}
	for _, h := range code.ExceptionTable {
		cd.Handlers = append(cd.Handlers, handlerDoc{
			Start:   h.StartPC,
			End:     h.EndPC,
			Handler: h.HandlerPC,
			Type:    cp.GetClassName(h.CatchType),
		})
	}
	for _, ln := range code.LineNumbers(cp) {
		cd.Lines = append(cd.Lines, lineDoc{Offset: ln.StartPC, Line: ln.LineNumber})
	}
	for _, lv := range code.LocalVariables(cp) {
		cd.Locals = append(cd.Locals, localDoc{
			Name:       cp.GetUtf8(lv.NameIndex),
			Descriptor: cp.GetUtf8(lv.DescriptorIndex),
			Start:      lv.StartPC,
			Length:     lv.Length,
			Slot:       lv.Index,
		})
	}
	offsets := code.FrameOffsets(cp)
	for i, f := range code.Frames(cp) {
		cd.Frames = append(cd.Frames, frameDoc{
			Offset: offsets[i],
			Kind:   f.Kind(),
			Locals: describeTypes(cp, f.Locals),
			Stack:  describeTypes(cp, f.Stack),
		})
	}
	return cd, nil
}

func describeTypes(cp classfile.ConstantPool, types []classfile.VerificationType) []string {
	var out []string
	for _, t := range types {
		out = append(out, t.Describe(cp))
	}
	return out
}

func buildAnnotations(cp classfile.ConstantPool, attrs []classfile.AttributeInfo) []annotationDoc {
	var out []annotationDoc
	for _, attr := range attrs {
		parsed := attr.AsAnnotations()
		if parsed == nil {
			continue
		}
		for _, ann := range parsed.Annotations {
			doc := buildAnnotation(cp, ann)
			doc.Visible = parsed.Visible
			out = append(out, doc)
		}
	}
	return out
}

func buildAnnotation(cp classfile.ConstantPool, ann classfile.Annotation) annotationDoc {
	doc := annotationDoc{Type: cp.GetUtf8(ann.TypeIndex)}
	for _, pair := range ann.ElementValuePairs {
		doc.Elements = append(doc.Elements, elementDoc{
			Name:  cp.GetUtf8(pair.ElementNameIndex),
			Value: elementValue(cp, pair.Value),
		})
	}
	return doc
}

// elementValue resolves an element value to plain Go values.
func elementValue(cp classfile.ConstantPool, ev classfile.ElementValue) any {
	switch v := ev.Value.(type) {
	case uint16:
		switch ev.Tag {
		case 's', 'c':
			return cp.GetUtf8(v)
		case 'Z':
			n, _ := cp.GetInteger(v)
			return n != 0
		case 'C':
			n, _ := cp.GetInteger(v)
			return string(rune(n))
		case 'B', 'S', 'I':
			n, _ := cp.GetInteger(v)
			return n
		case 'J':
			n, _ := cp.GetLong(v)
			return n
		case 'F':
			n, _ := cp.GetFloat(v)
			return n
		case 'D':
			n, _ := cp.GetDouble(v)
			return n
		}
	case classfile.EnumConstValue:
		return cp.GetUtf8(v.TypeNameIndex) + "." + cp.GetUtf8(v.ConstNameIndex)
	case classfile.Annotation:
		return buildAnnotation(cp, v)
	case classfile.ArrayValue:
		out := make([]any, 0, len(v.Values))
		for _, item := range v.Values {
			out = append(out, elementValue(cp, item))
		}
		return out
	}
	return nil
}

// modifiers joins flag names, using "-" for none.
func modifiers(mods []string) string {
	if len(mods) == 0 {
		return "-"
	}
	return strings.Join(mods, ",")
}
