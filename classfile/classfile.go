package classfile

import "fmt"

type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   []AttributeInfo
}

func (cf *ClassFile) Version() string {
	return fmt.Sprintf("%d.%d", cf.MajorVersion, cf.MinorVersion)
}

func (cf *ClassFile) ClassName() string {
	return cf.ConstantPool.GetClassName(cf.ThisClass)
}

func (cf *ClassFile) SuperClassName() string {
	if cf.SuperClass == 0 {
		return ""
	}
	return cf.ConstantPool.GetClassName(cf.SuperClass)
}

func (cf *ClassFile) InterfaceNames() []string {
	names := make([]string, len(cf.Interfaces))
	for i, idx := range cf.Interfaces {
		names[i] = cf.ConstantPool.GetClassName(idx)
	}
	return names
}

func (cf *ClassFile) GetField(name string) *FieldInfo {
	for i := range cf.Fields {
		if cf.Fields[i].Name(cf.ConstantPool) == name {
			return &cf.Fields[i]
		}
	}
	return nil
}

func (cf *ClassFile) GetMethod(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name(cf.ConstantPool) == name {
			if descriptor == "" || cf.Methods[i].Descriptor(cf.ConstantPool) == descriptor {
				return &cf.Methods[i]
			}
		}
	}
	return nil
}

func (cf *ClassFile) GetAttribute(name string) *AttributeInfo {
	return findAttribute(cf.ConstantPool, cf.Attributes, name)
}

func (cf *ClassFile) SourceFile() string {
	if attr := cf.GetAttribute("SourceFile"); attr != nil {
		if sf := attr.AsSourceFile(); sf != nil {
			return cf.ConstantPool.GetUtf8(sf.SourceFileIndex)
		}
	}
	return ""
}

func (cf *ClassFile) SourceDebugExtension() string {
	if attr := cf.GetAttribute("SourceDebugExtension"); attr != nil {
		if sde := attr.AsSourceDebugExtension(); sde != nil {
			return sde.DebugExtension
		}
	}
	return ""
}

// Annotations returns the visible annotations followed by the invisible ones.
func (cf *ClassFile) Annotations() []Annotation {
	return collectAnnotations(cf.ConstantPool, cf.Attributes)
}

func findAttribute(cp ConstantPool, attrs []AttributeInfo, name string) *AttributeInfo {
	for i := range attrs {
		if cp.GetUtf8(attrs[i].NameIndex) == name {
			return &attrs[i]
		}
	}
	return nil
}

func collectAnnotations(cp ConstantPool, attrs []AttributeInfo) []Annotation {
	var anns []Annotation
	for _, name := range []string{"RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations"} {
		if attr := findAttribute(cp, attrs, name); attr != nil {
			if parsed := attr.AsAnnotations(); parsed != nil {
				anns = append(anns, parsed.Annotations...)
			}
		}
	}
	return anns
}
