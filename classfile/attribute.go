package classfile

import (
	"encoding/binary"
	"errors"
	"strconv"
)

type AttributeInfo struct {
	NameIndex uint16
	Info      []byte
	Parsed    any
}

type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []AttributeInfo
}

type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

type LineNumberTableAttribute struct {
	LineNumberTable []LineNumberEntry
}

type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

type LocalVariableTableAttribute struct {
	LocalVariableTable []LocalVariableEntry
}

// LocalVariableEntry is shared by LocalVariableTable and LocalVariableTypeTable;
// in the latter DescriptorIndex points at a signature.
type LocalVariableEntry struct {
	StartPC         uint16
	Length          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Index           uint16
}

type LocalVariableTypeTableAttribute struct {
	LocalVariableTypeTable []LocalVariableEntry
}

type SourceFileAttribute struct {
	SourceFileIndex uint16
}

type SourceDebugExtensionAttribute struct {
	DebugExtension string
}

type SignatureAttribute struct {
	SignatureIndex uint16
}

type ConstantValueAttribute struct {
	ConstantValueIndex uint16
}

type ExceptionsAttribute struct {
	ExceptionIndexTable []uint16
}

type StackMapTableAttribute struct {
	Entries []StackMapFrame
}

type StackMapFrame struct {
	FrameType   uint8
	OffsetDelta uint16
	Locals      []VerificationType
	Stack       []VerificationType
}

// Kind names the frame encoding, e.g. "same" or "same_locals_1_stack_item".
func (f StackMapFrame) Kind() string {
	switch {
	case f.FrameType < SameLocals1StackItemFrame:
		return "same"
	case f.FrameType < Reserved:
		return "same_locals_1_stack_item"
	case f.FrameType == SameLocals1StackItemFrameExtended:
		return "same_locals_1_stack_item_extended"
	case f.FrameType >= ChopFrame && f.FrameType < SameFrameExtended:
		return "chop"
	case f.FrameType == SameFrameExtended:
		return "same_extended"
	case f.FrameType >= AppendFrame && f.FrameType < FullFrame:
		return "append"
	case f.FrameType == FullFrame:
		return "full"
	default:
		return "reserved"
	}
}

type VerificationType struct {
	Tag VerificationTag
	// CPoolIndex is set for ItemObject, Offset for ItemUninitialized.
	CPoolIndex uint16
	Offset     uint16
}

func (v VerificationType) Describe(cp ConstantPool) string {
	switch v.Tag {
	case ItemTop:
		return "top"
	case ItemInteger:
		return "int"
	case ItemFloat:
		return "float"
	case ItemDouble:
		return "double"
	case ItemLong:
		return "long"
	case ItemNull:
		return "null"
	case ItemUninitializedThis:
		return "uninitialized_this"
	case ItemObject:
		return cp.GetClassName(v.CPoolIndex)
	case ItemUninitialized:
		return "uninitialized@" + strconv.Itoa(int(v.Offset))
	default:
		return "?"
	}
}

type AnnotationsAttribute struct {
	Visible     bool
	Annotations []Annotation
}

type Annotation struct {
	TypeIndex         uint16
	ElementValuePairs []ElementValuePair
}

type ElementValuePair struct {
	ElementNameIndex uint16
	Value            ElementValue
}

// ElementValue.Value holds a constant pool index (uint16) for constants and
// class literals, EnumConstValue, Annotation or ArrayValue.
type ElementValue struct {
	Tag   byte
	Value any
}

type EnumConstValue struct {
	TypeNameIndex  uint16
	ConstNameIndex uint16
}

type ArrayValue struct {
	Values []ElementValue
}

func (a *AttributeInfo) AsCode() *CodeAttribute {
	code, _ := a.Parsed.(*CodeAttribute)
	return code
}

func (a *AttributeInfo) AsLineNumberTable() *LineNumberTableAttribute {
	lnt, _ := a.Parsed.(*LineNumberTableAttribute)
	return lnt
}

func (a *AttributeInfo) AsLocalVariableTable() *LocalVariableTableAttribute {
	lvt, _ := a.Parsed.(*LocalVariableTableAttribute)
	return lvt
}

func (a *AttributeInfo) AsLocalVariableTypeTable() *LocalVariableTypeTableAttribute {
	lvtt, _ := a.Parsed.(*LocalVariableTypeTableAttribute)
	return lvtt
}

func (a *AttributeInfo) AsSourceFile() *SourceFileAttribute {
	sf, _ := a.Parsed.(*SourceFileAttribute)
	return sf
}

func (a *AttributeInfo) AsSourceDebugExtension() *SourceDebugExtensionAttribute {
	sde, _ := a.Parsed.(*SourceDebugExtensionAttribute)
	return sde
}

func (a *AttributeInfo) AsSignature() *SignatureAttribute {
	sig, _ := a.Parsed.(*SignatureAttribute)
	return sig
}

func (a *AttributeInfo) AsConstantValue() *ConstantValueAttribute {
	cv, _ := a.Parsed.(*ConstantValueAttribute)
	return cv
}

func (a *AttributeInfo) AsExceptions() *ExceptionsAttribute {
	ex, _ := a.Parsed.(*ExceptionsAttribute)
	return ex
}

func (a *AttributeInfo) AsStackMapTable() *StackMapTableAttribute {
	smt, _ := a.Parsed.(*StackMapTableAttribute)
	return smt
}

func (a *AttributeInfo) AsAnnotations() *AnnotationsAttribute {
	anns, _ := a.Parsed.(*AnnotationsAttribute)
	return anns
}

var errTruncated = errors.New("truncated attribute")

// decoder walks an attribute body; the first short read sticks.
type decoder struct {
	b   []byte
	off int
	err error
}

func (d *decoder) u1() uint8 {
	if d.err != nil || d.off+1 > len(d.b) {
		d.err = errTruncated
		return 0
	}
	v := d.b[d.off]
	d.off++
	return v
}

func (d *decoder) u2() uint16 {
	if d.err != nil || d.off+2 > len(d.b) {
		d.err = errTruncated
		return 0
	}
	v := binary.BigEndian.Uint16(d.b[d.off:])
	d.off += 2
	return v
}

func (d *decoder) u4() uint32 {
	if d.err != nil || d.off+4 > len(d.b) {
		d.err = errTruncated
		return 0
	}
	v := binary.BigEndian.Uint32(d.b[d.off:])
	d.off += 4
	return v
}

func (d *decoder) bytes(n int) []byte {
	if d.err != nil || n < 0 || d.off+n > len(d.b) {
		d.err = errTruncated
		return nil
	}
	v := d.b[d.off : d.off+n]
	d.off += n
	return v
}

func (d *decoder) u2s() []uint16 {
	n := int(d.u2())
	if d.err != nil {
		return nil
	}
	out := make([]uint16, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		out = append(out, d.u2())
	}
	return out
}

// decodeAttribute leaves Parsed nil for unknown or malformed attributes.
func decodeAttribute(nameIndex uint16, info []byte, cp ConstantPool) AttributeInfo {
	attr := AttributeInfo{NameIndex: nameIndex, Info: info}
	d := &decoder{b: info}

	var parsed any
	switch cp.GetUtf8(nameIndex) {
	case "Code":
		parsed = decodeCode(d, cp)
	case "SourceFile":
		parsed = &SourceFileAttribute{SourceFileIndex: d.u2()}
	case "SourceDebugExtension":
		parsed = &SourceDebugExtensionAttribute{DebugExtension: DecodeModifiedUtf8(info)}
	case "Signature":
		parsed = &SignatureAttribute{SignatureIndex: d.u2()}
	case "ConstantValue":
		parsed = &ConstantValueAttribute{ConstantValueIndex: d.u2()}
	case "Exceptions":
		parsed = &ExceptionsAttribute{ExceptionIndexTable: d.u2s()}
	case "LineNumberTable":
		parsed = decodeLineNumberTable(d)
	case "LocalVariableTable":
		parsed = &LocalVariableTableAttribute{LocalVariableTable: decodeLocalVariables(d)}
	case "LocalVariableTypeTable":
		parsed = &LocalVariableTypeTableAttribute{LocalVariableTypeTable: decodeLocalVariables(d)}
	case "StackMapTable":
		parsed = decodeStackMapTable(d)
	case "RuntimeVisibleAnnotations":
		parsed = decodeAnnotations(d, true)
	case "RuntimeInvisibleAnnotations":
		parsed = decodeAnnotations(d, false)
	default:
		return attr
	}

	if d.err == nil {
		attr.Parsed = parsed
	}
	return attr
}

func decodeCode(d *decoder, cp ConstantPool) *CodeAttribute {
	code := &CodeAttribute{
		MaxStack:  d.u2(),
		MaxLocals: d.u2(),
	}
	code.Code = d.bytes(int(d.u4()))

	n := int(d.u2())
	for i := 0; i < n && d.err == nil; i++ {
		code.ExceptionTable = append(code.ExceptionTable, ExceptionTableEntry{
			StartPC:   d.u2(),
			EndPC:     d.u2(),
			HandlerPC: d.u2(),
			CatchType: d.u2(),
		})
	}

	n = int(d.u2())
	for i := 0; i < n && d.err == nil; i++ {
		nameIndex := d.u2()
		info := d.bytes(int(d.u4()))
		if d.err != nil {
			break
		}
		code.Attributes = append(code.Attributes, decodeAttribute(nameIndex, info, cp))
	}
	return code
}

func decodeLineNumberTable(d *decoder) *LineNumberTableAttribute {
	n := int(d.u2())
	lnt := &LineNumberTableAttribute{}
	for i := 0; i < n && d.err == nil; i++ {
		lnt.LineNumberTable = append(lnt.LineNumberTable, LineNumberEntry{
			StartPC:    d.u2(),
			LineNumber: d.u2(),
		})
	}
	return lnt
}

func decodeLocalVariables(d *decoder) []LocalVariableEntry {
	n := int(d.u2())
	var entries []LocalVariableEntry
	for i := 0; i < n && d.err == nil; i++ {
		entries = append(entries, LocalVariableEntry{
			StartPC:         d.u2(),
			Length:          d.u2(),
			NameIndex:       d.u2(),
			DescriptorIndex: d.u2(),
			Index:           d.u2(),
		})
	}
	return entries
}

func decodeStackMapTable(d *decoder) *StackMapTableAttribute {
	n := int(d.u2())
	smt := &StackMapTableAttribute{Entries: make([]StackMapFrame, 0, n)}

	for i := 0; i < n && d.err == nil; i++ {
		frame := StackMapFrame{FrameType: d.u1()}
		t := frame.FrameType

		switch {
		case t < SameLocals1StackItemFrame:
			frame.OffsetDelta = uint16(t)
		case t < Reserved:
			frame.OffsetDelta = uint16(t - SameLocals1StackItemFrame)
			frame.Stack = decodeVerificationTypes(d, 1)
		case t < SameLocals1StackItemFrameExtended:
			d.err = errors.New("reserved stack map frame type")
		case t == SameLocals1StackItemFrameExtended:
			frame.OffsetDelta = d.u2()
			frame.Stack = decodeVerificationTypes(d, 1)
		case t <= SameFrameExtended:
			frame.OffsetDelta = d.u2()
		case t < FullFrame:
			frame.OffsetDelta = d.u2()
			frame.Locals = decodeVerificationTypes(d, int(t)-251)
		default:
			frame.OffsetDelta = d.u2()
			frame.Locals = decodeVerificationTypes(d, int(d.u2()))
			frame.Stack = decodeVerificationTypes(d, int(d.u2()))
		}

		smt.Entries = append(smt.Entries, frame)
	}
	return smt
}

func decodeVerificationTypes(d *decoder, n int) []VerificationType {
	types := make([]VerificationType, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		vt := VerificationType{Tag: VerificationTag(d.u1())}
		switch vt.Tag {
		case ItemObject:
			vt.CPoolIndex = d.u2()
		case ItemUninitialized:
			vt.Offset = d.u2()
		}
		types = append(types, vt)
	}
	return types
}

func decodeAnnotations(d *decoder, visible bool) *AnnotationsAttribute {
	n := int(d.u2())
	attr := &AnnotationsAttribute{Visible: visible}
	for i := 0; i < n && d.err == nil; i++ {
		attr.Annotations = append(attr.Annotations, decodeAnnotation(d))
	}
	return attr
}

func decodeAnnotation(d *decoder) Annotation {
	ann := Annotation{TypeIndex: d.u2()}
	n := int(d.u2())
	for i := 0; i < n && d.err == nil; i++ {
		pair := ElementValuePair{ElementNameIndex: d.u2()}
		pair.Value = decodeElementValue(d)
		ann.ElementValuePairs = append(ann.ElementValuePairs, pair)
	}
	return ann
}

func decodeElementValue(d *decoder) ElementValue {
	ev := ElementValue{Tag: d.u1()}

	switch ev.Tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's', 'c':
		ev.Value = d.u2()
	case 'e':
		typeName := d.u2()
		ev.Value = EnumConstValue{TypeNameIndex: typeName, ConstNameIndex: d.u2()}
	case '@':
		ev.Value = decodeAnnotation(d)
	case '[':
		n := int(d.u2())
		arr := ArrayValue{Values: make([]ElementValue, 0, n)}
		for i := 0; i < n && d.err == nil; i++ {
			arr.Values = append(arr.Values, decodeElementValue(d))
		}
		ev.Value = arr
	default:
		if d.err == nil {
			d.err = errors.New("unknown element value tag")
		}
	}
	return ev
}
