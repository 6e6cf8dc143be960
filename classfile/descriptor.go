package classfile

import "strings"

type FieldType struct {
	BaseType   string
	ClassName  string
	ArrayDepth int
}

func (ft *FieldType) String() string {
	var sb strings.Builder
	if ft.BaseType != "" {
		sb.WriteString(ft.BaseType)
	} else {
		sb.WriteString(InternalToSourceName(ft.ClassName))
	}
	for i := 0; i < ft.ArrayDepth; i++ {
		sb.WriteString("[]")
	}
	return sb.String()
}

func (ft *FieldType) IsArray() bool {
	return ft.ArrayDepth > 0
}

func (ft *FieldType) IsPrimitive() bool {
	return ft.BaseType != "" && ft.ArrayDepth == 0
}

// Slots is the number of local variable slots a value of this type occupies.
func (ft *FieldType) Slots() int {
	if ft.ArrayDepth == 0 && (ft.BaseType == "long" || ft.BaseType == "double") {
		return 2
	}
	return 1
}

type MethodDescriptor struct {
	Parameters []FieldType
	ReturnType *FieldType
}

func (md *MethodDescriptor) String() string {
	params := make([]string, len(md.Parameters))
	for i := range md.Parameters {
		params[i] = md.Parameters[i].String()
	}
	ret := "void"
	if md.ReturnType != nil {
		ret = md.ReturnType.String()
	}
	return "(" + strings.Join(params, ", ") + ") " + ret
}

// ArgumentSlots counts parameter slots, excluding the receiver.
func (md *MethodDescriptor) ArgumentSlots() int {
	n := 0
	for i := range md.Parameters {
		n += md.Parameters[i].Slots()
	}
	return n
}

var baseTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
}

func ParseFieldDescriptor(desc string) *FieldType {
	ft, n := parseFieldType(desc, 0)
	if n != len(desc) {
		return nil
	}
	return ft
}

func ParseMethodDescriptor(desc string) *MethodDescriptor {
	if len(desc) == 0 || desc[0] != '(' {
		return nil
	}

	md := &MethodDescriptor{}
	i := 1

	for i < len(desc) && desc[i] != ')' {
		ft, consumed := parseFieldType(desc, i)
		if ft == nil {
			return nil
		}
		md.Parameters = append(md.Parameters, *ft)
		i += consumed
	}

	if i >= len(desc) {
		return nil
	}
	i++

	switch {
	case i == len(desc):
		return nil
	case desc[i:] == "V":
		md.ReturnType = nil
	default:
		ft, consumed := parseFieldType(desc, i)
		if ft == nil || i+consumed != len(desc) {
			return nil
		}
		md.ReturnType = ft
	}

	return md
}

func parseFieldType(desc string, start int) (*FieldType, int) {
	ft := &FieldType{}
	i := start

	for i < len(desc) && desc[i] == '[' {
		ft.ArrayDepth++
		i++
	}
	if i >= len(desc) {
		return nil, 0
	}

	if base, ok := baseTypes[desc[i]]; ok {
		ft.BaseType = base
		return ft, i - start + 1
	}
	if desc[i] != 'L' {
		return nil, 0
	}
	semicolon := strings.IndexByte(desc[i:], ';')
	if semicolon < 2 {
		return nil, 0
	}
	ft.ClassName = desc[i+1 : i+semicolon]
	return ft, i - start + semicolon + 1
}

func InternalToSourceName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}
