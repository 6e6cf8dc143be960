package classfile

import (
	"bytes"
	"os"
	"reflect"
	"strings"
	"testing"
)

const exampleClass = "../example/testdata/Example.shortcut.class"

func parseExample(t *testing.T) *ClassFile {
	t.Helper()
	f, err := os.Open(exampleClass)
	if err != nil {
		t.Fatalf("Failed to open example class file: %v", err)
	}
	defer f.Close()

	cf, err := Parse(f)
	if err != nil {
		t.Fatalf("Failed to parse class file: %v", err)
	}
	return cf
}

func TestParseClassFile(t *testing.T) {
	cf := parseExample(t)
	cp := cf.ConstantPool

	t.Run("class name", func(t *testing.T) {
		expected := "example/Example"
		if got := cf.ClassName(); got != expected {
			t.Errorf("ClassName() = %q, want %q", got, expected)
		}
	})

	t.Run("super class", func(t *testing.T) {
		expected := "java/lang/Object"
		if got := cf.SuperClassName(); got != expected {
			t.Errorf("SuperClassName() = %q, want %q", got, expected)
		}
		if n := len(cf.InterfaceNames()); n != 0 {
			t.Errorf("Expected no interfaces, got %d", n)
		}
	})

	t.Run("version", func(t *testing.T) {
		if cf.MajorVersion != Java6 || cf.MinorVersion != 0 {
			t.Errorf("Version() = %s, want 50.0", cf.Version())
		}
	})

	t.Run("access flags", func(t *testing.T) {
		if !cf.AccessFlags.IsPublic() || !cf.AccessFlags.IsFinal() || !cf.AccessFlags.IsSuper() {
			t.Errorf("Expected public final super, got %q", cf.AccessFlags)
		}
		if cf.AccessFlags.IsInterface() {
			t.Error("Expected class to not be an interface")
		}
	})

	t.Run("constant pool", func(t *testing.T) {
		if len(cp) != 55 {
			t.Fatalf("Expected 55 constant pool entries, got %d", len(cp))
		}
		if got := cp.GetUtf8(1); got != "example/Example" {
			t.Errorf("GetUtf8(1) = %q", got)
		}
		if owner, name, desc := cp.GetMethodref(28); owner != "example/Example" || name != "p" || desc != "(I)V" {
			t.Errorf("GetMethodref(28) = %s.%s %s", owner, name, desc)
		}
		if owner, name, desc := cp.GetFieldref(38); owner != "java/lang/System" || name != "out" || desc != "Ljava/io/PrintStream;" {
			t.Errorf("GetFieldref(38) = %s.%s %s", owner, name, desc)
		}
		if _, _, desc := cp.GetFieldref(28); desc != "" {
			t.Error("GetFieldref on a Methodref should fail")
		}
		if got := cp.Describe(43); got != "java/io/PrintStream.println (I)V" {
			t.Errorf("Describe(43) = %q", got)
		}
	})

	t.Run("source", func(t *testing.T) {
		if got := cf.SourceFile(); got != "example.kt" {
			t.Errorf("SourceFile() = %q, want %q", got, "example.kt")
		}
		smap := cf.SourceDebugExtension()
		if !strings.HasPrefix(smap, "SMAP\nexample.kt\nKotlin\n") || !strings.HasSuffix(smap, "*E\n") {
			t.Errorf("SourceDebugExtension() = %q", smap)
		}
	})

	t.Run("annotations", func(t *testing.T) {
		anns := cf.Annotations()
		if len(anns) != 1 {
			t.Fatalf("Expected 1 annotation, got %d", len(anns))
		}
		ann := anns[0]
		if got := cp.GetUtf8(ann.TypeIndex); got != "Lkotlin/Metadata;" {
			t.Errorf("annotation type = %q", got)
		}
		var names []string
		for _, pair := range ann.ElementValuePairs {
			names = append(names, cp.GetUtf8(pair.ElementNameIndex))
		}
		if want := []string{"mv", "bv", "k", "d1", "d2"}; !reflect.DeepEqual(names, want) {
			t.Errorf("element names = %v, want %v", names, want)
		}

		d2, ok := ann.ElementValuePairs[4].Value.Value.(ArrayValue)
		if !ok || len(d2.Values) != 9 {
			t.Fatalf("d2 = %#v, want an array of 9 strings", ann.ElementValuePairs[4].Value)
		}
		if got := cp.GetUtf8(d2.Values[8].Value.(uint16)); got != "asm" {
			t.Errorf("d2[8] = %q, want %q", got, "asm")
		}

		d1 := ann.ElementValuePairs[3].Value.Value.(ArrayValue)
		payload := cp.GetUtf8(d1.Values[0].Value.(uint16))
		if !strings.HasPrefix(payload, "\x00\x1a\n") || !strings.Contains(payload, "¢") {
			t.Errorf("d1 payload = %q", payload)
		}
	})

	t.Run("methods", func(t *testing.T) {
		if len(cf.Methods) != 3 {
			t.Fatalf("Expected 3 methods, got %d", len(cf.Methods))
		}
		for _, m := range []struct{ name, desc string }{
			{"main", "()V"},
			{"p", "(I)V"},
			{"<init>", "()V"},
		} {
			if cf.GetMethod(m.name, m.desc) == nil {
				t.Errorf("Expected to find method %s%s", m.name, m.desc)
			}
		}
		if !cf.GetMethod("<init>", "").IsConstructor(cp) {
			t.Error("<init> should be a constructor")
		}
		if !cf.GetMethod("p", "").AccessFlags.IsFinal() {
			t.Error("p should be final")
		}
	})

	t.Run("main code", func(t *testing.T) {
		code := cf.GetMethod("main", "()V").GetCodeAttribute(cp)
		if code == nil {
			t.Fatal("Expected main to have a Code attribute")
		}
		if len(code.Code) != 75 || code.MaxStack != 2 || code.MaxLocals != 2 {
			t.Errorf("code length %d, maxs %d/%d; want 75, 2/2", len(code.Code), code.MaxStack, code.MaxLocals)
		}

		want := []ExceptionTableEntry{
			{StartPC: 9, EndPC: 30, HandlerPC: 33, CatchType: 23},
			{StartPC: 9, EndPC: 30, HandlerPC: 55, CatchType: 25},
		}
		if !reflect.DeepEqual(code.ExceptionTable, want) {
			t.Errorf("exception table = %+v, want %+v", code.ExceptionTable, want)
		}

		var lines [][2]int
		for _, ln := range code.LineNumbers(cp) {
			lines = append(lines, [2]int{int(ln.StartPC), int(ln.LineNumber)})
		}
		wantLines := [][2]int{{0, 5}, {1, 6}, {9, 7}, {14, 8}, {19, 9}, {24, 10}, {34, 12}, {40, 13}, {46, 14}, {56, 16}, {62, 17}, {68, 18}, {74, 19}, {74, 20}}
		if !reflect.DeepEqual(lines, wantLines) {
			t.Errorf("line numbers = %v, want %v", lines, wantLines)
		}

		if got := code.FrameOffsets(cp); !reflect.DeepEqual(got, []int{33, 55, 74}) {
			t.Errorf("FrameOffsets() = %v, want [33 55 74]", got)
		}
		frames := code.Frames(cp)
		if frames[0].Kind() != "same_locals_1_stack_item" || frames[2].Kind() != "same" {
			t.Errorf("frame kinds = %s, %s", frames[0].Kind(), frames[2].Kind())
		}
		if got := frames[1].Stack[0].Describe(cp); got != "java/lang/IllegalArgumentException" {
			t.Errorf("second frame stack = %q", got)
		}

		locals := code.LocalVariables(cp)
		if len(locals) != 3 {
			t.Fatalf("Expected 3 local variables, got %d", len(locals))
		}
		if name := cp.GetUtf8(locals[2].NameIndex); name != "this" || locals[2].Length != 75 {
			t.Errorf("third local = %s len %d", name, locals[2].Length)
		}
		if locals[0].StartPC != 33 || locals[0].Length != 19 || locals[0].Index != 1 {
			t.Errorf("first local = %+v", locals[0])
		}
	})

	t.Run("p code", func(t *testing.T) {
		code := cf.GetMethod("p", "(I)V").GetCodeAttribute(cp)
		if len(code.Code) != 9 || code.MaxStack != 2 || code.MaxLocals != 3 {
			t.Errorf("code length %d, maxs %d/%d; want 9, 2/3", len(code.Code), code.MaxStack, code.MaxLocals)
		}
		var lines []int
		for _, ln := range code.LineNumbers(cp) {
			lines = append(lines, int(ln.LineNumber))
		}
		if !reflect.DeepEqual(lines, []int{22, 24, 25, 22}) {
			t.Errorf("lines = %v", lines)
		}
		if code.Frames(cp) != nil {
			t.Error("p should have no stack map frames")
		}
	})
}

func TestParseErrors(t *testing.T) {
	data, err := os.ReadFile(exampleClass)
	if err != nil {
		t.Fatalf("Failed to read example class file: %v", err)
	}

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte{0xCA, 0xFE, 0xD0, 0x0D}, data[4:]...)
		if _, err := ParseBytes(bad); err == nil || !strings.Contains(err.Error(), "invalid magic") {
			t.Errorf("ParseBytes() error = %v, want invalid magic", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		for _, n := range []int{2, 9, 200, len(data) - 1} {
			if _, err := ParseBytes(data[:n]); err == nil {
				t.Errorf("ParseBytes(data[:%d]) succeeded, want error", n)
			}
		}
	})

	t.Run("unknown constant tag", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[10] = 2
		if _, err := ParseBytes(bad); err == nil || !strings.Contains(err.Error(), "unknown constant pool tag") {
			t.Errorf("ParseBytes() error = %v", err)
		}
	})
}

func TestDecodeModifiedUtf8(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", []byte("abc"), "abc"},
		{"nul", []byte{0xC0, 0x80}, "\x00"},
		{"two byte", []byte{0xC2, 0xA2}, "¢"},
		{"surrogate pair", []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}, "\U0001F600"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeModifiedUtf8(tt.in); got != tt.want {
				t.Errorf("DecodeModifiedUtf8(%x) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
