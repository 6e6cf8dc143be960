package classfile

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

type Instruction struct {
	Offset int
	Opcode byte
	Wide   bool

	// Index is a constant pool index or a local variable slot.
	Index int
	// Value holds immediate operands: push constants, iinc increments,
	// dimension counts and newarray element types.
	Value int
	// Targets are absolute branch offsets; for switches the default comes first.
	Targets []int
	// Keys are the lookupswitch match values or the tableswitch low..high range.
	Keys []int
}

func (in Instruction) Mnemonic() string {
	return OpcodeName(in.Opcode)
}

// Format renders the instruction with constant pool operands resolved.
func (in Instruction) Format(cp ConstantPool) string {
	name := in.Mnemonic()
	if in.Wide {
		name = "wide " + name
	}
	switch OperandKindOf(in.Opcode) {
	case OperandLocal:
		return name + " " + strconv.Itoa(in.Index)
	case OperandByte, OperandShort:
		return name + " " + strconv.Itoa(in.Value)
	case OperandConstU1, OperandConstU2, OperandDynamic:
		return name + " " + cp.Describe(uint16(in.Index))
	case OperandInterface:
		return fmt.Sprintf("%s %s %d", name, cp.Describe(uint16(in.Index)), in.Value)
	case OperandMultiArray:
		return fmt.Sprintf("%s %s %d", name, cp.Describe(uint16(in.Index)), in.Value)
	case OperandArrayType:
		return name + " " + arrayTypeNames[in.Value]
	case OperandIinc:
		return fmt.Sprintf("%s %d %d", name, in.Index, in.Value)
	case OperandBranch, OperandBranchWide:
		return name + " " + strconv.Itoa(in.Targets[0])
	case OperandTableSwitch, OperandLookupSwitch:
		parts := []string{name, "default:" + strconv.Itoa(in.Targets[0])}
		for i, key := range in.Keys {
			parts = append(parts, fmt.Sprintf("%d:%d", key, in.Targets[i+1]))
		}
		return strings.Join(parts, " ")
	default:
		return name
	}
}

// Disassemble decodes a method body into instructions.
func Disassemble(code []byte) ([]Instruction, error) {
	var out []Instruction
	pc := 0

	need := func(n int) error {
		if pc+n > len(code) {
			return fmt.Errorf("truncated instruction at offset %d", pc)
		}
		return nil
	}
	s2 := func(at int) int { return int(int16(binary.BigEndian.Uint16(code[at:]))) }
	u2 := func(at int) int { return int(binary.BigEndian.Uint16(code[at:])) }
	s4 := func(at int) int { return int(int32(binary.BigEndian.Uint32(code[at:]))) }

	for pc < len(code) {
		op := code[pc]
		if OpcodeName(op) == "" {
			return out, fmt.Errorf("unknown opcode 0x%02x at offset %d", op, pc)
		}
		in := Instruction{Offset: pc, Opcode: op}
		size := 1

		switch OperandKindOf(op) {
		case OperandLocal:
			if err := need(2); err != nil {
				return out, err
			}
			in.Index = int(code[pc+1])
			size = 2
		case OperandByte:
			if err := need(2); err != nil {
				return out, err
			}
			in.Value = int(int8(code[pc+1]))
			size = 2
		case OperandArrayType:
			if err := need(2); err != nil {
				return out, err
			}
			in.Value = int(code[pc+1])
			size = 2
		case OperandShort:
			if err := need(3); err != nil {
				return out, err
			}
			in.Value = s2(pc + 1)
			size = 3
		case OperandConstU1:
			if err := need(2); err != nil {
				return out, err
			}
			in.Index = int(code[pc+1])
			size = 2
		case OperandConstU2:
			if err := need(3); err != nil {
				return out, err
			}
			in.Index = u2(pc + 1)
			size = 3
		case OperandBranch:
			if err := need(3); err != nil {
				return out, err
			}
			in.Targets = []int{pc + s2(pc+1)}
			size = 3
		case OperandBranchWide:
			if err := need(5); err != nil {
				return out, err
			}
			in.Targets = []int{pc + s4(pc+1)}
			size = 5
		case OperandIinc:
			if err := need(3); err != nil {
				return out, err
			}
			in.Index = int(code[pc+1])
			in.Value = int(int8(code[pc+2]))
			size = 3
		case OperandInterface:
			if err := need(5); err != nil {
				return out, err
			}
			in.Index = u2(pc + 1)
			in.Value = int(code[pc+3])
			size = 5
		case OperandDynamic:
			if err := need(5); err != nil {
				return out, err
			}
			in.Index = u2(pc + 1)
			size = 5
		case OperandMultiArray:
			if err := need(4); err != nil {
				return out, err
			}
			in.Index = u2(pc + 1)
			in.Value = int(code[pc+3])
			size = 4
		case OperandWide:
			if err := need(4); err != nil {
				return out, err
			}
			in.Opcode = code[pc+1]
			in.Wide = true
			in.Index = u2(pc + 2)
			size = 4
			if in.Opcode == 0x84 {
				if err := need(6); err != nil {
					return out, err
				}
				in.Value = s2(pc + 4)
				size = 6
			}
		case OperandTableSwitch, OperandLookupSwitch:
			base := pc
			at := (pc + 4) &^ 3
			header := 8
			if op == 0xaa {
				header = 12
			}
			if err := need(at - pc + header); err != nil {
				return out, err
			}
			in.Targets = []int{base + s4(at)}
			if op == 0xaa {
				low, high := s4(at+4), s4(at+8)
				if high < low {
					return out, fmt.Errorf("invalid tableswitch range at offset %d", pc)
				}
				at += 12
				n := high - low + 1
				if err := need(at - pc + 4*n); err != nil {
					return out, err
				}
				for i := 0; i < n; i++ {
					in.Keys = append(in.Keys, low+i)
					in.Targets = append(in.Targets, base+s4(at+4*i))
				}
				at += 4 * n
			} else {
				n := s4(at + 4)
				at += 8
				if n < 0 {
					return out, fmt.Errorf("invalid lookupswitch size at offset %d", pc)
				}
				if err := need(at - pc + 8*n); err != nil {
					return out, err
				}
				for i := 0; i < n; i++ {
					in.Keys = append(in.Keys, s4(at+8*i))
					in.Targets = append(in.Targets, base+s4(at+8*i+4))
				}
				at += 8 * n
			}
			size = at - pc
		}

		out = append(out, in)
		pc += size
	}
	return out, nil
}
