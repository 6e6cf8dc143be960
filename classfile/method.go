package classfile

type MethodInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

func (m *MethodInfo) Name(cp ConstantPool) string {
	return cp.GetUtf8(m.NameIndex)
}

func (m *MethodInfo) Descriptor(cp ConstantPool) string {
	return cp.GetUtf8(m.DescriptorIndex)
}

func (m *MethodInfo) GetAttribute(cp ConstantPool, name string) *AttributeInfo {
	return findAttribute(cp, m.Attributes, name)
}

func (m *MethodInfo) GetCodeAttribute(cp ConstantPool) *CodeAttribute {
	attr := m.GetAttribute(cp, "Code")
	if attr == nil {
		return nil
	}
	return attr.AsCode()
}

func (m *MethodInfo) IsConstructor(cp ConstantPool) bool {
	return m.Name(cp) == "<init>"
}

func (m *MethodInfo) ParsedDescriptor(cp ConstantPool) *MethodDescriptor {
	return ParseMethodDescriptor(m.Descriptor(cp))
}

func (m *MethodInfo) Annotations(cp ConstantPool) []Annotation {
	return collectAnnotations(cp, m.Attributes)
}

func (m *MethodInfo) ExceptionNames(cp ConstantPool) []string {
	attr := m.GetAttribute(cp, "Exceptions")
	if attr == nil || attr.AsExceptions() == nil {
		return nil
	}
	var names []string
	for _, idx := range attr.AsExceptions().ExceptionIndexTable {
		names = append(names, cp.GetClassName(idx))
	}
	return names
}

func (c *CodeAttribute) GetAttribute(cp ConstantPool, name string) *AttributeInfo {
	return findAttribute(cp, c.Attributes, name)
}

func (c *CodeAttribute) LineNumbers(cp ConstantPool) []LineNumberEntry {
	var out []LineNumberEntry
	for i := range c.Attributes {
		if cp.GetUtf8(c.Attributes[i].NameIndex) != "LineNumberTable" {
			continue
		}
		if lnt := c.Attributes[i].AsLineNumberTable(); lnt != nil {
			out = append(out, lnt.LineNumberTable...)
		}
	}
	return out
}

func (c *CodeAttribute) LocalVariables(cp ConstantPool) []LocalVariableEntry {
	var out []LocalVariableEntry
	for i := range c.Attributes {
		if cp.GetUtf8(c.Attributes[i].NameIndex) != "LocalVariableTable" {
			continue
		}
		if lvt := c.Attributes[i].AsLocalVariableTable(); lvt != nil {
			out = append(out, lvt.LocalVariableTable...)
		}
	}
	return out
}

func (c *CodeAttribute) Frames(cp ConstantPool) []StackMapFrame {
	if attr := c.GetAttribute(cp, "StackMapTable"); attr != nil {
		if smt := attr.AsStackMapTable(); smt != nil {
			return smt.Entries
		}
	}
	return nil
}

// FrameOffsets resolves the delta-encoded frame positions to bytecode offsets.
func (c *CodeAttribute) FrameOffsets(cp ConstantPool) []int {
	frames := c.Frames(cp)
	offsets := make([]int, len(frames))
	prev := -1
	for i, f := range frames {
		offsets[i] = prev + int(f.OffsetDelta) + 1
		prev = offsets[i]
	}
	return offsets
}
