package classfile

import (
	"fmt"
	"strconv"
)

type ConstantPoolEntry interface {
	Tag() ConstantTag
}

type ConstantUtf8Info struct {
	Value string
}

func (c *ConstantUtf8Info) Tag() ConstantTag { return ConstantUtf8 }

type ConstantIntegerInfo struct {
	Value int32
}

func (c *ConstantIntegerInfo) Tag() ConstantTag { return ConstantInteger }

type ConstantFloatInfo struct {
	Value float32
}

func (c *ConstantFloatInfo) Tag() ConstantTag { return ConstantFloat }

type ConstantLongInfo struct {
	Value int64
}

func (c *ConstantLongInfo) Tag() ConstantTag { return ConstantLong }

type ConstantDoubleInfo struct {
	Value float64
}

func (c *ConstantDoubleInfo) Tag() ConstantTag { return ConstantDouble }

type ConstantClassInfo struct {
	NameIndex uint16
}

func (c *ConstantClassInfo) Tag() ConstantTag { return ConstantClass }

type ConstantStringInfo struct {
	StringIndex uint16
}

func (c *ConstantStringInfo) Tag() ConstantTag { return ConstantString }

// ConstantRefInfo covers Fieldref, Methodref and InterfaceMethodref entries.
type ConstantRefInfo struct {
	RefTag           ConstantTag
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantRefInfo) Tag() ConstantTag { return c.RefTag }

type ConstantNameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndTypeInfo) Tag() ConstantTag { return ConstantNameAndType }

type ConstantMethodHandleInfo struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

func (c *ConstantMethodHandleInfo) Tag() ConstantTag { return ConstantMethodHandle }

type ConstantMethodTypeInfo struct {
	DescriptorIndex uint16
}

func (c *ConstantMethodTypeInfo) Tag() ConstantTag { return ConstantMethodType }

// ConstantDynamicInfo covers Dynamic and InvokeDynamic entries.
type ConstantDynamicInfo struct {
	DynTag                   ConstantTag
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantDynamicInfo) Tag() ConstantTag { return c.DynTag }

// ConstantNamedInfo covers Module and Package entries.
type ConstantNamedInfo struct {
	NamedTag  ConstantTag
	NameIndex uint16
}

func (c *ConstantNamedInfo) Tag() ConstantTag { return c.NamedTag }

// ConstantPool is indexed from 1; the second slot of a Long or Double is nil.
type ConstantPool []ConstantPoolEntry

func lookup[T ConstantPoolEntry](cp ConstantPool, index uint16) (T, bool) {
	var zero T
	if index == 0 || int(index) > len(cp) {
		return zero, false
	}
	entry, ok := cp[index-1].(T)
	return entry, ok
}

func (cp ConstantPool) Entry(index uint16) ConstantPoolEntry {
	if index == 0 || int(index) > len(cp) {
		return nil
	}
	return cp[index-1]
}

func (cp ConstantPool) GetUtf8(index uint16) string {
	if e, ok := lookup[*ConstantUtf8Info](cp, index); ok {
		return e.Value
	}
	return ""
}

func (cp ConstantPool) GetClassName(index uint16) string {
	if e, ok := lookup[*ConstantClassInfo](cp, index); ok {
		return cp.GetUtf8(e.NameIndex)
	}
	return ""
}

func (cp ConstantPool) GetNameAndType(index uint16) (name, descriptor string) {
	if e, ok := lookup[*ConstantNameAndTypeInfo](cp, index); ok {
		return cp.GetUtf8(e.NameIndex), cp.GetUtf8(e.DescriptorIndex)
	}
	return "", ""
}

func (cp ConstantPool) GetString(index uint16) string {
	if e, ok := lookup[*ConstantStringInfo](cp, index); ok {
		return cp.GetUtf8(e.StringIndex)
	}
	return ""
}

func (cp ConstantPool) GetInteger(index uint16) (int32, bool) {
	if e, ok := lookup[*ConstantIntegerInfo](cp, index); ok {
		return e.Value, true
	}
	return 0, false
}

func (cp ConstantPool) GetLong(index uint16) (int64, bool) {
	if e, ok := lookup[*ConstantLongInfo](cp, index); ok {
		return e.Value, true
	}
	return 0, false
}

func (cp ConstantPool) GetFloat(index uint16) (float32, bool) {
	if e, ok := lookup[*ConstantFloatInfo](cp, index); ok {
		return e.Value, true
	}
	return 0, false
}

func (cp ConstantPool) GetDouble(index uint16) (float64, bool) {
	if e, ok := lookup[*ConstantDoubleInfo](cp, index); ok {
		return e.Value, true
	}
	return 0, false
}

// GetRef resolves a Fieldref, Methodref or InterfaceMethodref.
func (cp ConstantPool) GetRef(index uint16) (className, name, descriptor string) {
	if e, ok := lookup[*ConstantRefInfo](cp, index); ok {
		className = cp.GetClassName(e.ClassIndex)
		name, descriptor = cp.GetNameAndType(e.NameAndTypeIndex)
		return
	}
	return "", "", ""
}

func (cp ConstantPool) GetFieldref(index uint16) (className, name, descriptor string) {
	if e, ok := lookup[*ConstantRefInfo](cp, index); !ok || e.RefTag != ConstantFieldref {
		return "", "", ""
	}
	return cp.GetRef(index)
}

func (cp ConstantPool) GetMethodref(index uint16) (className, name, descriptor string) {
	if e, ok := lookup[*ConstantRefInfo](cp, index); !ok || e.RefTag != ConstantMethodref {
		return "", "", ""
	}
	return cp.GetRef(index)
}

func (cp ConstantPool) GetInterfaceMethodref(index uint16) (className, name, descriptor string) {
	if e, ok := lookup[*ConstantRefInfo](cp, index); !ok || e.RefTag != ConstantInterfaceMethodref {
		return "", "", ""
	}
	return cp.GetRef(index)
}

// Describe renders the entry at index the way a disassembler prints an operand.
func (cp ConstantPool) Describe(index uint16) string {
	switch e := cp.Entry(index).(type) {
	case nil:
		return fmt.Sprintf("#%d", index)
	case *ConstantUtf8Info:
		return strconv.Quote(e.Value)
	case *ConstantIntegerInfo:
		return strconv.FormatInt(int64(e.Value), 10)
	case *ConstantFloatInfo:
		return strconv.FormatFloat(float64(e.Value), 'g', -1, 32) + "F"
	case *ConstantLongInfo:
		return strconv.FormatInt(e.Value, 10) + "L"
	case *ConstantDoubleInfo:
		return strconv.FormatFloat(e.Value, 'g', -1, 64) + "D"
	case *ConstantClassInfo:
		return cp.GetUtf8(e.NameIndex)
	case *ConstantStringInfo:
		return strconv.Quote(cp.GetUtf8(e.StringIndex))
	case *ConstantRefInfo:
		owner, name, desc := cp.GetRef(index)
		return owner + "." + name + " " + desc
	case *ConstantNameAndTypeInfo:
		name, desc := cp.GetNameAndType(index)
		return name + " " + desc
	case *ConstantMethodTypeInfo:
		return cp.GetUtf8(e.DescriptorIndex)
	case *ConstantNamedInfo:
		return cp.GetUtf8(e.NameIndex)
	default:
		return fmt.Sprintf("#%d (%s)", index, e.Tag())
	}
}
