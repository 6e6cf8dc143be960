package classfile

type FieldInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

func (f *FieldInfo) Name(cp ConstantPool) string {
	return cp.GetUtf8(f.NameIndex)
}

func (f *FieldInfo) Descriptor(cp ConstantPool) string {
	return cp.GetUtf8(f.DescriptorIndex)
}

func (f *FieldInfo) GetAttribute(cp ConstantPool, name string) *AttributeInfo {
	return findAttribute(cp, f.Attributes, name)
}

// ConstantValue returns the index of the field's initial value, or 0.
func (f *FieldInfo) ConstantValue(cp ConstantPool) uint16 {
	if attr := f.GetAttribute(cp, "ConstantValue"); attr != nil {
		if cv := attr.AsConstantValue(); cv != nil {
			return cv.ConstantValueIndex
		}
	}
	return 0
}

func (f *FieldInfo) ParsedDescriptor(cp ConstantPool) *FieldType {
	return ParseFieldDescriptor(f.Descriptor(cp))
}
