package asm

import (
	"fmt"
	"math"

	"github.com/dhamidi/jasm/classfile"
)

type symbolKey struct {
	tag   classfile.ConstantTag
	owner string
	name  string
	desc  string
	value uint64
}

// symbolTable builds the constant pool. Entries are deduplicated and keep
// the order in which they were first requested.
type symbolTable struct {
	entries map[symbolKey]int
	pool    byteVector
	count   int // next free index
	err     error
}

func newSymbolTable() *symbolTable {
	return &symbolTable{entries: make(map[symbolKey]int), count: 1}
}

func (st *symbolTable) add(key symbolKey, slots int, write func(*byteVector)) int {
	if index, ok := st.entries[key]; ok {
		return index
	}
	if st.count+slots > 0xFFFF {
		if st.err == nil {
			st.err = ErrConstantPoolOverflow
		}
		return 0
	}
	index := st.count
	st.pool.putByte(int(key.tag))
	write(&st.pool)
	st.entries[key] = index
	st.count += slots
	return index
}

func (st *symbolTable) addUtf8(s string) int {
	key := symbolKey{tag: classfile.ConstantUtf8, name: s}
	if index, ok := st.entries[key]; ok {
		return index
	}
	encoded, err := encodeModifiedUtf8(s)
	if err != nil {
		if st.err == nil {
			st.err = fmt.Errorf("utf8 constant %.32q...: %w", s, err)
		}
		return 0
	}
	return st.add(key, 1, func(b *byteVector) {
		b.putShort(len(encoded)).putBytes(encoded)
	})
}

func (st *symbolTable) addClass(internalName string) int {
	key := symbolKey{tag: classfile.ConstantClass, name: internalName}
	if index, ok := st.entries[key]; ok {
		return index
	}
	nameIndex := st.addUtf8(internalName)
	return st.add(key, 1, func(b *byteVector) { b.putShort(nameIndex) })
}

func (st *symbolTable) addString(s string) int {
	key := symbolKey{tag: classfile.ConstantString, name: s}
	if index, ok := st.entries[key]; ok {
		return index
	}
	utf := st.addUtf8(s)
	return st.add(key, 1, func(b *byteVector) { b.putShort(utf) })
}

func (st *symbolTable) addInteger(v int32) int {
	key := symbolKey{tag: classfile.ConstantInteger, value: uint64(uint32(v))}
	return st.add(key, 1, func(b *byteVector) { b.putInt(int(v)) })
}

func (st *symbolTable) addFloat(v float32) int {
	bits := math.Float32bits(v)
	key := symbolKey{tag: classfile.ConstantFloat, value: uint64(bits)}
	return st.add(key, 1, func(b *byteVector) { b.putInt(int(bits)) })
}

func (st *symbolTable) addLong(v int64) int {
	key := symbolKey{tag: classfile.ConstantLong, value: uint64(v)}
	return st.add(key, 2, func(b *byteVector) { b.putLong(v) })
}

func (st *symbolTable) addDouble(v float64) int {
	bits := math.Float64bits(v)
	key := symbolKey{tag: classfile.ConstantDouble, value: bits}
	return st.add(key, 2, func(b *byteVector) { b.putLong(int64(bits)) })
}

func (st *symbolTable) addNameAndType(name, desc string) int {
	key := symbolKey{tag: classfile.ConstantNameAndType, name: name, desc: desc}
	if index, ok := st.entries[key]; ok {
		return index
	}
	nameIndex := st.addUtf8(name)
	descIndex := st.addUtf8(desc)
	return st.add(key, 1, func(b *byteVector) { b.putShort(nameIndex).putShort(descIndex) })
}

func (st *symbolTable) addMemberRef(tag classfile.ConstantTag, owner, name, desc string) int {
	key := symbolKey{tag: tag, owner: owner, name: name, desc: desc}
	if index, ok := st.entries[key]; ok {
		return index
	}
	classIndex := st.addClass(owner)
	natIndex := st.addNameAndType(name, desc)
	return st.add(key, 1, func(b *byteVector) { b.putShort(classIndex).putShort(natIndex) })
}

// addConstant adds an ldc operand or a ConstantValue.
func (st *symbolTable) addConstant(value any) (int, error) {
	switch v := value.(type) {
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return st.addLong(int64(v)), nil
		}
		return st.addInteger(int32(v)), nil
	case int32:
		return st.addInteger(v), nil
	case int16:
		return st.addInteger(int32(v)), nil
	case int8:
		return st.addInteger(int32(v)), nil
	case Char:
		return st.addInteger(int32(v)), nil
	case bool:
		if v {
			return st.addInteger(1), nil
		}
		return st.addInteger(0), nil
	case int64:
		return st.addLong(v), nil
	case float32:
		return st.addFloat(v), nil
	case float64:
		return st.addDouble(v), nil
	case string:
		return st.addString(v), nil
	case ClassLiteral:
		return st.addClass(string(v)), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}

// isWide reports whether a constant occupies two pool slots.
func isWide(value any) bool {
	switch v := value.(type) {
	case int64, float64:
		return true
	case int:
		return v < math.MinInt32 || v > math.MaxInt32
	}
	return false
}
