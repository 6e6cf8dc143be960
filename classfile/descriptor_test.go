package classfile

import "testing"

func TestParseMethodDescriptor(t *testing.T) {
	tests := []struct {
		desc  string
		str   string
		slots int
	}{
		{"()V", "() void", 0},
		{"(I)V", "(int) void", 1},
		{"(IJLjava/lang/String;[D)V", "(int, long, java.lang.String, double[]) void", 5},
		{"([[Ljava/lang/Object;)Ljava/lang/String;", "(java.lang.Object[][]) java.lang.String", 1},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			md := ParseMethodDescriptor(tt.desc)
			if md == nil {
				t.Fatalf("ParseMethodDescriptor(%q) = nil", tt.desc)
			}
			if got := md.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
			if got := md.ArgumentSlots(); got != tt.slots {
				t.Errorf("ArgumentSlots() = %d, want %d", got, tt.slots)
			}
		})
	}

	for _, bad := range []string{"", "V", "(I", "(Q)V", "(Ljava/lang/String)V", "()VV"} {
		if md := ParseMethodDescriptor(bad); md != nil {
			t.Errorf("ParseMethodDescriptor(%q) = %v, want nil", bad, md)
		}
	}
}

func TestParseFieldDescriptor(t *testing.T) {
	ft := ParseFieldDescriptor("[Ljava/lang/String;")
	if ft == nil || ft.String() != "java.lang.String[]" || !ft.IsArray() || ft.IsPrimitive() {
		t.Errorf("ParseFieldDescriptor() = %+v", ft)
	}
	if ft := ParseFieldDescriptor("J"); ft == nil || ft.Slots() != 2 {
		t.Errorf("long should take two slots, got %+v", ft)
	}
	if ft := ParseFieldDescriptor("II"); ft != nil {
		t.Errorf("trailing input should be rejected, got %+v", ft)
	}
}
