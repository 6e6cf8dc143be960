package classfile

import (
	"reflect"
	"testing"
)

func TestDisassembleExample(t *testing.T) {
	cf := parseExample(t)
	cp := cf.ConstantPool

	t.Run("main", func(t *testing.T) {
		code := cf.GetMethod("main", "()V").GetCodeAttribute(cp)
		insns, err := Disassemble(code.Code)
		if err != nil {
			t.Fatalf("Disassemble() error = %v", err)
		}

		var offsets []int
		for _, in := range insns {
			offsets = append(offsets, in.Offset)
		}
		wantOffsets := []int{0, 1, 2, 3, 6, 9, 10, 11, 14, 15, 16, 19, 20, 21, 24, 25, 27, 30, 33, 34, 35, 37, 40, 41, 43, 46, 47, 49, 52, 55, 56, 57, 59, 62, 63, 65, 68, 69, 71, 74}
		if !reflect.DeepEqual(offsets, wantOffsets) {
			t.Errorf("offsets = %v\nwant      %v", offsets, wantOffsets)
		}

		checks := map[int]string{
			0:  "nop",
			1:  "aload_0",
			2:  "iconst_1",
			3:  "invokevirtual example/Example.p (I)V",
			6:  "goto 40",
			25: "bipush 16",
			30: "goto 74",
			33: "astore_1",
			52: "goto 74",
			74: "return",
		}
		for _, in := range insns {
			if want, ok := checks[in.Offset]; ok {
				if got := in.Format(cp); got != want {
					t.Errorf("offset %d: Format() = %q, want %q", in.Offset, got, want)
				}
			}
		}
	})

	t.Run("p", func(t *testing.T) {
		code := cf.GetMethod("p", "(I)V").GetCodeAttribute(cp)
		insns, err := Disassemble(code.Code)
		if err != nil {
			t.Fatalf("Disassemble() error = %v", err)
		}
		var got []string
		for _, in := range insns {
			got = append(got, in.Format(cp))
		}
		want := []string{
			"nop",
			"getstatic java/lang/System.out Ljava/io/PrintStream;",
			"iload_1",
			"invokevirtual java/io/PrintStream.println (I)V",
			"return",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("listing = %q, want %q", got, want)
		}
	})
}

func TestDisassembleOperands(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want []string
	}{
		{"sipush", []byte{0x11, 0xFF, 0x38}, []string{"sipush -200"}},
		{"iinc", []byte{0x84, 0x02, 0xFF}, []string{"iinc 2 -1"}},
		{"wide iload", []byte{0xC4, 0x15, 0x01, 0x00}, []string{"wide iload 256"}},
		{"wide iinc", []byte{0xC4, 0x84, 0x01, 0x00, 0x03, 0xE8}, []string{"wide iinc 256 1000"}},
		{"newarray", []byte{0xBC, 0x0A}, []string{"newarray int"}},
		{"backward branch", []byte{0x00, 0xA7, 0xFF, 0xFF}, []string{"nop", "goto 0"}},
		{"tableswitch", []byte{
			0xAA, 0x00, 0x00, 0x00, // opcode and padding
			0x00, 0x00, 0x00, 0x14, // default
			0x00, 0x00, 0x00, 0x01, // low
			0x00, 0x00, 0x00, 0x02, // high
			0x00, 0x00, 0x00, 0x18,
			0x00, 0x00, 0x00, 0x19,
		}, []string{"tableswitch default:20 1:24 2:25"}},
		{"lookupswitch", []byte{
			0x00, 0xAB, 0x00, 0x00, // nop, opcode and padding
			0x00, 0x00, 0x00, 0x10, // default
			0x00, 0x00, 0x00, 0x01, // npairs
			0x00, 0x00, 0x00, 0x07, 0x00, 0x00, 0x00, 0x12,
		}, []string{"nop", "lookupswitch default:17 7:19"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insns, err := Disassemble(tt.code)
			if err != nil {
				t.Fatalf("Disassemble() error = %v", err)
			}
			var got []string
			for _, in := range insns {
				got = append(got, in.Format(nil))
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Disassemble() = %q, want %q", got, tt.want)
			}
		})
	}

	for _, bad := range [][]byte{{0xCB}, {0x10}, {0xA7, 0x00}, {0xAA, 0x00}} {
		if _, err := Disassemble(bad); err == nil {
			t.Errorf("Disassemble(%x) succeeded, want error", bad)
		}
	}
}
